package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/terraincognita07/ifla/internal/db"
	"github.com/terraincognita07/ifla/internal/models"
	"github.com/terraincognita07/ifla/internal/services"
	"gorm.io/gorm"
)

type StaffOptions struct {
	Email     string
	Username  string
	Superuser bool
	Password  PasswordSource
}

// RunCreateStaffCommand creates a staff account, the bootstrap path for the first admin.
func RunCreateStaffCommand(database *gorm.DB, options StaffOptions, out io.Writer) (models.User, error) {
	repos := db.NewRepositories(database)
	admin := services.NewAdminService(repos.Users, repos.Applications, repos.Enrollments, repos.Catalog, repos.Certificates)

	password := ""
	if options.Password != nil {
		chosen, _, err := choosePassword(options.Password)
		if err != nil {
			return models.User{}, err
		}
		password = chosen
	}

	isStaff := true
	isStudent := false
	operator := models.User{IsStaff: true, IsSuperuser: true}
	user, generated, err := admin.AddUser(operator, services.UserInput{
		Email:     options.Email,
		Username:  options.Username,
		Password:  password,
		IsStaff:   &isStaff,
		IsStudent: &isStudent,
	})
	if err != nil {
		if errors.Is(err, services.ErrEmailTaken) {
			return models.User{}, fmt.Errorf("user %s already exists, use reset-password instead", options.Email)
		}
		return models.User{}, err
	}

	if options.Superuser {
		if err := repos.Users.UpdateByID(user.ID, map[string]any{"is_superuser": true}); err != nil {
			return models.User{}, fmt.Errorf("grant superuser: %w", err)
		}
		user.IsSuperuser = true
	}

	fmt.Fprintf(out, "Created %s account %s (%s)\n", user.Role(), user.Email, user.Username)
	if generated != "" {
		fmt.Fprintf(out, "Temporary password: %s\n", generated)
	}
	return user, nil
}
