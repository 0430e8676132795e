package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/terraincognita07/ifla/internal/cli"
	"gorm.io/gorm"
)

const usage = `usage: ifla [command]

Without a command the HTTP server starts.

Commands:
  create-staff [-superuser] [-prompt] [-username name] <email>
  reset-password [-prompt] <email>
  seed-catalog
  migrations
`

func runCommand(database *gorm.DB, name string, args []string) error {
	return dispatch(database, name, args, os.Stdin, os.Stdout)
}

func dispatch(database *gorm.DB, name string, args []string, stdin *os.File, out io.Writer) error {
	switch name {
	case "create-staff":
		flags := flag.NewFlagSet(name, flag.ContinueOnError)
		flags.SetOutput(out)
		superuser := flags.Bool("superuser", false, "grant superuser rights")
		prompt := flags.Bool("prompt", false, "read the password from the terminal")
		username := flags.String("username", "", "username, derived from the email when empty")
		email, err := parseEmailArgs(flags, args)
		if err != nil {
			return err
		}
		_, err = cli.RunCreateStaffCommand(database, cli.StaffOptions{
			Email:     email,
			Username:  *username,
			Superuser: *superuser,
			Password:  passwordSource(*prompt, stdin, out),
		}, out)
		return err

	case "reset-password":
		flags := flag.NewFlagSet(name, flag.ContinueOnError)
		flags.SetOutput(out)
		prompt := flags.Bool("prompt", false, "read the password from the terminal")
		email, err := parseEmailArgs(flags, args)
		if err != nil {
			return err
		}
		return cli.RunResetPasswordCommand(database, email, passwordSource(*prompt, stdin, out), out)

	case "seed-catalog":
		_, err := cli.RunSeedCatalogCommand(database, out)
		return err

	case "migrations":
		return cli.RunMigrationStatusCommand(database, out)

	case "help", "-h", "--help":
		fmt.Fprint(out, usage)
		return nil

	default:
		fmt.Fprint(out, usage)
		return fmt.Errorf("unknown command %q", name)
	}
}

// parseEmailArgs accepts the email as the first positional argument or through -email.
func parseEmailArgs(flags *flag.FlagSet, args []string) (string, error) {
	email := flags.String("email", "", "account email")
	if err := flags.Parse(args); err != nil {
		return "", err
	}
	if strings.TrimSpace(*email) == "" && flags.NArg() > 0 {
		*email = flags.Arg(0)
	}
	if strings.TrimSpace(*email) == "" {
		return "", fmt.Errorf("email is required")
	}
	return strings.TrimSpace(*email), nil
}

func passwordSource(prompt bool, stdin *os.File, out io.Writer) cli.PasswordSource {
	if !prompt {
		return nil
	}
	return cli.TerminalPassword(stdin, out)
}
