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
	Register(&HelpCmd{})
}

// HelpCmd implements the help command.
type HelpCmd struct{}

func (c *HelpCmd) Name() string      { return "help" }
func (c *HelpCmd) Aliases() []string { return nil }
func (c *HelpCmd) Synopsis() string  { return "Print usage" }
func (c *HelpCmd) Usage() string     { return "taskboard help" }
func (c *HelpCmd) NeedsAuth() bool   { return false }
func (c *HelpCmd) Offline() bool     { return true }

func (c *HelpCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *HelpCmd) Run(ctx context.Context, cfg *config.Config, sess *session.Session, args []string, out, errOut io.Writer) int {
	fmt.Fprint(out, helpText)
	return exitcode.Success
}

const helpText = `Usage:
  taskboard                                          Show the dashboard
  taskboard dashboard [common flags]
  taskboard tasks [common flags] [--status <s>] [--priority <p>] [--project <project>]
  taskboard add [common flags] [--description <text>] [--priority <p>] [--due <YYYY-MM-DD>] [--project <project>] <title...>
  taskboard edit [common flags] [--title <t>] [--description <text>] [--priority <p>] [--due <YYYY-MM-DD>] [--project <project>|none] <ref>
  taskboard status [common flags] <ref> <todo|in_progress|done>
  taskboard done [common flags] <ref>
  taskboard task [common flags] <ref>
  taskboard rm [common flags] <ref>
  taskboard move [common flags] <ref> <position>
  taskboard projects [common flags]
  taskboard project [common flags] <project>
  taskboard createproject [common flags] [--description <text>] [--color <hex>] <name...>
  taskboard addproject [common flags] [--description <text>] [--color <hex>] <name...>
  taskboard editproject [common flags] [--name <name>] [--description <text>] [--color <hex>] <project>
  taskboard rmproject [common flags] [--force] <project>
  taskboard drag [common flags] [--index <n>] <project> <card> <todo|in_progress|done>
  taskboard board [common flags] [<project>]
  taskboard login [common flags] [--password <pw>] <email>
  taskboard register [common flags] --name <name> [--password <pw>] <email>
  taskboard logout [common flags]
  taskboard whoami [common flags]
  taskboard health [common flags]
  taskboard help
  taskboard version

Task refs are listing numbers (as printed by tasks) or task ids.
Card refs are board numbers (as printed by project) or task ids.
Projects are named by id, name, or listing number.

Common flags:
  --config <dir>   Override config directory
  --quiet          Suppress informational output
  --debug          Print debug logs to stderr
`
