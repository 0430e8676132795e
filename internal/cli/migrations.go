package cli

import (
	"fmt"
	"io"

	"github.com/terraincognita07/ifla/internal/db"
	"gorm.io/gorm"
)

// RunMigrationStatusCommand prints every embedded migration and when it was applied.
func RunMigrationStatusCommand(database *gorm.DB, out io.Writer) error {
	states, err := db.MigrationStatus(database, db.DialectOf(database))
	if err != nil {
		return err
	}

	for _, state := range states {
		if state.Applied == nil {
			fmt.Fprintf(out, "%s  pending\n", state.Name)
			continue
		}
		fmt.Fprintf(out, "%s  applied %s\n", state.Name, state.Applied.AppliedAt.UTC().Format("2006-01-02 15:04:05"))
	}
	return nil
}
