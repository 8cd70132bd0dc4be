package commands

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"taskboard/internal/config"
	"taskboard/internal/exitcode"
	"taskboard/internal/session"
)

func init() {
	Register(&LoginCmd{})
	Register(&RegisterCmd{})
}

// credentials holds the flags shared by login and register. The password is
// read from the first line of the input when --password is not given.
type credentials struct {
	password string
	in       io.Reader
}

func (c *credentials) registerFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.password, "password", "", "")
}

// readPassword returns --password or the first line of the input.
func (c *credentials) readPassword(errOut io.Writer) (string, error) {
	if c.password != "" {
		return c.password, nil
	}
	in := c.in
	if in == nil {
		in = os.Stdin
		fmt.Fprint(errOut, "Password: ")
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", errors.New("password required")
	}
	return line, nil
}

// LoginCmd implements the login command.
type LoginCmd struct {
	credentials
}

// SetInput sets where the password is read from (for testing).
func (c *LoginCmd) SetInput(in io.Reader) { c.in = in }

func (c *LoginCmd) Name() string      { return "login" }
func (c *LoginCmd) Aliases() []string { return nil }
func (c *LoginCmd) Synopsis() string  { return "Log in with email and password" }
func (c *LoginCmd) Usage() string     { return "taskboard login [--password <pw>] <email>" }
func (c *LoginCmd) NeedsAuth() bool   { return false }

func (c *LoginCmd) RegisterFlags(fs *flag.FlagSet) {
	c.registerFlags(fs)
}

func (c *LoginCmd) Run(ctx context.Context, cfg *config.Config, sess *session.Session, args []string, out, errOut io.Writer) int {
	if len(args) != 1 || strings.TrimSpace(args[0]) == "" {
		return userError(errOut, "email required")
	}
	password, err := c.readPassword(errOut)
	if err != nil {
		return userError(errOut, "%v", err)
	}

	user, err := sess.Login(ctx, args[0], password)
	if err != nil {
		return reportError(errOut, err)
	}
	if !cfg.Quiet {
		fmt.Fprintf(out, "logged in as %s <%s>\n", user.Name, user.Email)
	}
	return exitcode.Success
}

// RegisterCmd implements the register command.
type RegisterCmd struct {
	credentials
	name string
}

// SetInput sets where the password is read from (for testing).
func (c *RegisterCmd) SetInput(in io.Reader) { c.in = in }

// SetName sets the display name (for testing).
func (c *RegisterCmd) SetName(name string) { c.name = name }

func (c *RegisterCmd) Name() string      { return "register" }
func (c *RegisterCmd) Aliases() []string { return []string{"signup"} }
func (c *RegisterCmd) Synopsis() string  { return "Create an account and log in" }
func (c *RegisterCmd) Usage() string {
	return "taskboard register --name <name> [--password <pw>] <email>"
}
func (c *RegisterCmd) NeedsAuth() bool { return false }

func (c *RegisterCmd) RegisterFlags(fs *flag.FlagSet) {
	c.registerFlags(fs)
	fs.StringVar(&c.name, "name", "", "")
}

func (c *RegisterCmd) Run(ctx context.Context, cfg *config.Config, sess *session.Session, args []string, out, errOut io.Writer) int {
	if strings.TrimSpace(c.name) == "" {
		return userError(errOut, "name required")
	}
	if len(args) != 1 || strings.TrimSpace(args[0]) == "" {
		return userError(errOut, "email required")
	}
	password, err := c.readPassword(errOut)
	if err != nil {
		return userError(errOut, "%v", err)
	}

	user, err := sess.Register(ctx, c.name, args[0], password)
	if err != nil {
		return reportError(errOut, err)
	}
	if !cfg.Quiet {
		fmt.Fprintf(out, "logged in as %s <%s>\n", user.Name, user.Email)
	}
	return exitcode.Success
}
