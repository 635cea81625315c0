// Package admin implements the operator commands of cityfix-admin.
package admin

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dmitrijs2005/cityfix/internal/common"
	"github.com/dmitrijs2005/cityfix/internal/flagx"
	"github.com/dmitrijs2005/cityfix/internal/server/models"
	"golang.org/x/term"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

// ConfigFlags are the server flags the admin tool accepts for locating the
// database.
var ConfigFlags = []string{"-c", "-config", "-d"}

var ErrUsage = errors.New("usage: cityfix-admin create-user -name NAME -email EMAIL [-role citizen|authority] [-c config] [-d dsn]")

// Registrar is satisfied by *services.UserService.
type Registrar interface {
	Register(ctx context.Context, name, email, password string, role models.Role) (*models.User, string, error)
}

// Command splits args into the subcommand and its arguments.
func Command(args []string) (string, []string, error) {
	if len(args) == 0 || strings.HasPrefix(args[0], "-") {
		return "", nil, ErrUsage
	}
	return args[0], args[1:], nil
}

// Run executes the subcommand in args against reg, writing progress to w.
func Run(ctx context.Context, reg Registrar, args []string, w io.Writer) error {
	cmd, rest, err := Command(args)
	if err != nil {
		return err
	}

	switch cmd {
	case "create-user":
		return createUser(ctx, reg, flagx.FilterArgs(rest, []string{"-name", "-email", "-role"}), w)
	default:
		return fmt.Errorf("unknown command %q\n%w", cmd, ErrUsage)
	}
}

func createUser(ctx context.Context, reg Registrar, args []string, w io.Writer) error {
	var name, email, role string

	fs := flag.NewFlagSet("create-user", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&name, "name", "", "display name")
	fs.StringVar(&email, "email", "", "login email")
	fs.StringVar(&role, "role", string(models.RoleAuthority), "citizen or authority")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%v\n%w", err, ErrUsage)
	}
	if name == "" || email == "" {
		return ErrUsage
	}

	r, err := models.ParseRole(role)
	if err != nil {
		return err
	}

	password, err := promptPassword(w)
	if err != nil {
		return err
	}

	user, _, err := reg.Register(ctx, name, email, password, r)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}

	fmt.Fprintf(w, "Created %s user %s (%s)\n", user.Role, user.Email, user.ID)
	return nil
}

// promptPassword reads the password twice without echo.
func promptPassword(w io.Writer) (string, error) {
	fmt.Fprint(w, "Enter password: ")
	first, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(w)
	if err != nil {
		return "", err
	}
	defer common.Wipe(first)

	fmt.Fprint(w, "Repeat password: ")
	second, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(w)
	if err != nil {
		return "", err
	}
	defer common.Wipe(second)

	if !bytes.Equal(first, second) {
		return "", errors.New("passwords do not match")
	}
	if len(first) < 8 {
		return "", errors.New("password must be at least 8 characters")
	}
	return string(first), nil
}
