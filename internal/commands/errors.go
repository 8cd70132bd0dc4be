package commands

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"taskboard/internal/config"
	"taskboard/internal/exitcode"
	"taskboard/internal/session"
	"taskboard/internal/views"
)

// usageError marks a local lookup or argument problem.
type usageError struct{ err error }

func (e usageError) Error() string { return e.err.Error() }

func (e usageError) Unwrap() error { return e.err }

// reportError prints err as "error: ..." and returns the matching exit code.
func reportError(errOut io.Writer, err error) int {
	var ue usageError
	if errors.As(err, &ue) {
		return userError(errOut, "%v", ue)
	}
	var authErr *session.AuthError
	if errors.As(err, &authErr) {
		fmt.Fprintf(errOut, "error: %s\n", authErr.Message)
		return exitcode.AuthError
	}

	fb := views.Explain(err)
	fmt.Fprintf(errOut, "error: %s\n", fb)
	switch fb.Kind {
	case views.FeedbackAuth:
		return exitcode.AuthError
	case views.FeedbackValidation, views.FeedbackNotFound, views.FeedbackCancelled:
		return exitcode.UserError
	default:
		return exitcode.BackendError
	}
}

// userError prints a usage problem and returns exitcode.UserError.
func userError(errOut io.Writer, format string, args ...any) int {
	fmt.Fprintf(errOut, "error: "+format+"\n", args...)
	return exitcode.UserError
}

// ok prints "ok" unless quiet.
func ok(cfg *config.Config, out io.Writer) int {
	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}

func logger(cfg *config.Config) *slog.Logger {
	if cfg.Log != nil {
		return cfg.Log
	}
	return slog.New(slog.DiscardHandler)
}
