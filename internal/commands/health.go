package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"taskboard/internal/config"
	"taskboard/internal/exitcode"
	"taskboard/internal/session"
)

func init() {
	Register(&HealthCmd{})
}

// HealthCmd reports whether the backend is reachable.
type HealthCmd struct{}

func (c *HealthCmd) Name() string      { return "health" }
func (c *HealthCmd) Aliases() []string { return nil }
func (c *HealthCmd) Synopsis() string  { return "Check the backend" }
func (c *HealthCmd) Usage() string     { return "taskboard health" }
func (c *HealthCmd) NeedsAuth() bool   { return false }

func (c *HealthCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *HealthCmd) Run(ctx context.Context, cfg *config.Config, sess *session.Session, args []string, out, errOut io.Writer) int {
	h, err := sess.Service().Health(ctx)
	if err != nil {
		return reportError(errOut, err)
	}
	fmt.Fprintf(out, "%s (database: %s)\n", h.Status, h.Database)
	return exitcode.Success
}
