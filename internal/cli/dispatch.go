package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"taskboard/internal/backend/httpapi"
	"taskboard/internal/commands"
	"taskboard/internal/config"
	"taskboard/internal/credstore"
	"taskboard/internal/exitcode"
	"taskboard/internal/service"
	"taskboard/internal/session"
)

// GatewayFactory builds the session's gateway factory from config.
// Used to inject the backend during dispatch.
type GatewayFactory func(ctx context.Context, cfg *config.Config) (session.GatewayFactory, error)

// HTTPGateways is the production factory: JSON over HTTP to the configured
// API URL.
func HTTPGateways(ctx context.Context, cfg *config.Config) (session.GatewayFactory, error) {
	return func(token string) (service.Service, error) {
		return httpapi.New(ctx, httpapi.Options{
			BaseURL: cfg.Settings.APIURL,
			Token:   token,
			Timeout: cfg.Settings.Timeout,
			Logger:  cfg.Log,
		})
	}, nil
}

// Dispatcher handles command-line parsing and dispatch.
type Dispatcher struct {
	registry *commands.Registry
	factory  GatewayFactory
}

// NewDispatcher creates a new dispatcher with the given registry and gateway
// factory. A nil factory means HTTPGateways.
func NewDispatcher(registry *commands.Registry, factory GatewayFactory) *Dispatcher {
	if factory == nil {
		factory = HTTPGateways
	}
	return &Dispatcher{
		registry: registry,
		factory:  factory,
	}
}

// commonFlags are accepted by every command.
type commonFlags struct {
	configDir string
	quiet     bool
	debug     bool
}

func (f *commonFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&f.configDir, "config", "", "")
	fs.BoolVar(&f.quiet, "quiet", false, "")
	fs.BoolVar(&f.debug, "debug", false, "")
}

// Run parses args, dispatches to the named command and returns the exit
// code. With no args it shows the dashboard.
func (d *Dispatcher) Run(ctx context.Context, args []string, out, errOut io.Writer) int {
	name, rest := "dashboard", []string(nil)
	if len(args) > 0 {
		name, rest = args[0], args[1:]
	}

	// flags are only accepted after the command name
	cmd, ok := d.registry.Find(name)
	if strings.HasPrefix(name, "-") || !ok {
		fmt.Fprintf(errOut, "error: unknown command: %s\n", name)
		return exitcode.UserError
	}
	return d.dispatch(ctx, cmd, rest, out, errOut)
}

func (d *Dispatcher) dispatch(ctx context.Context, cmd commands.Command, args []string, out, errOut io.Writer) int {
	fs := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var common commonFlags
	common.register(fs)
	cmd.RegisterFlags(fs)

	if err := fs.Parse(args); err != nil {
		return reportFlagError(errOut, err)
	}
	positional := fs.Args()
	if len(positional) > 0 && strings.HasPrefix(positional[0], "-") {
		fmt.Fprintf(errOut, "error: unknown flag: %s\n", positional[0])
		return exitcode.UserError
	}

	cfg, err := loadConfig(common, errOut)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	if commands.IsOffline(cmd) {
		return cmd.Run(ctx, cfg, nil, positional, out, errOut)
	}

	sess, closeStore, code := d.openSession(ctx, cfg, cmd.NeedsAuth(), errOut)
	if closeStore != nil {
		defer closeStore()
	}
	if code != exitcode.Success {
		return code
	}
	return cmd.Run(ctx, cfg, sess, positional, out, errOut)
}

// loadConfig resolves the config dir and settings and builds the logger.
func loadConfig(common commonFlags, errOut io.Writer) (*config.Config, error) {
	cfg, err := config.New(common.configDir)
	if err != nil {
		return nil, err
	}
	cfg.Quiet = common.quiet
	cfg.Debug = common.debug
	if err := cfg.Load(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	cfg.Log = cfg.Logger(errOut)
	return cfg, nil
}

// openSession opens the credential store and builds the session. When
// needsAuth is set the stored credential must restore a user. The returned
// close func is non-nil once the store is open.
func (d *Dispatcher) openSession(ctx context.Context, cfg *config.Config, needsAuth bool, errOut io.Writer) (*session.Session, func(), int) {
	if err := cfg.EnsureDir(); err != nil {
		fmt.Fprintf(errOut, "error: failed to create config directory: %v\n", err)
		return nil, nil, exitcode.UserError
	}
	store, err := credstore.Open(ctx, cfg.DBPath())
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return nil, nil, exitcode.AuthError
	}
	closeStore := func() {
		if err := store.Close(); err != nil {
			cfg.Log.Warn("close credential store", "error", err)
		}
	}

	gateways, err := d.factory(ctx, cfg)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return nil, closeStore, exitcode.UserError
	}
	sess, err := session.New(store, gateways, cfg.Log)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return nil, closeStore, exitcode.UserError
	}
	if !needsAuth {
		return sess, closeStore, exitcode.Success
	}

	user, err := sess.Restore(ctx)
	if err != nil {
		fmt.Fprintf(errOut, "error: auth error: %v\n", err)
		return nil, closeStore, exitcode.AuthError
	}
	if user == nil {
		fmt.Fprintln(errOut, "error: not logged in (run: taskboard login)")
		return nil, closeStore, exitcode.AuthError
	}
	cfg.Log.Debug("session restored", "user_id", user.ID)
	return sess, closeStore, exitcode.Success
}

// reportFlagError maps flag package errors to the CLI's messages.
func reportFlagError(errOut io.Writer, err error) int {
	msg := err.Error()
	switch {
	case strings.HasPrefix(msg, "flag needs an argument:"):
		name := strings.TrimSpace(strings.TrimPrefix(msg, "flag needs an argument:"))
		fmt.Fprintf(errOut, "error: flag needs an argument: %s\n", name)
	case strings.HasPrefix(msg, "flag provided but not defined:"):
		name := strings.TrimSpace(strings.TrimPrefix(msg, "flag provided but not defined:"))
		fmt.Fprintf(errOut, "error: unknown flag: %s\n", name)
	default:
		fmt.Fprintf(errOut, "error: %s\n", msg)
	}
	return exitcode.UserError
}
