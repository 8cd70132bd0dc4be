package views

import (
	"context"
	"errors"
	"strings"

	"taskboard/internal/service"
)

// FeedbackKind is how a failure is presented.
type FeedbackKind int

const (
	FeedbackNone FeedbackKind = iota
	// FeedbackAuth means the session ended; the user must log in again.
	FeedbackAuth
	// FeedbackValidation is shown next to the offending field.
	FeedbackValidation
	// FeedbackNetwork suggests retrying.
	FeedbackNetwork
	// FeedbackNotFound means local state was stale and has been refreshed.
	FeedbackNotFound
	FeedbackCancelled
	FeedbackError
)

// NetworkMessage is shown for every transport failure.
const NetworkMessage = "could not reach the server, please try again"

// Feedback is a user-facing rendering of an error.
type Feedback struct {
	Kind    FeedbackKind
	Field   string
	Message string
}

// String prefixes the field unless the message already names it.
func (f Feedback) String() string {
	if f.Field != "" && !strings.Contains(f.Message, f.Field) {
		return f.Field + ": " + f.Message
	}
	return f.Message
}

// Explain maps err to the feedback a view shows for it.
func Explain(err error) Feedback {
	switch {
	case err == nil:
		return Feedback{}
	case errors.Is(err, context.Canceled):
		return Feedback{Kind: FeedbackCancelled, Message: "cancelled"}
	case errors.Is(err, service.ErrUnauthorized):
		msg := service.Detail(err)
		if msg == "" || msg == "Could not validate credentials" {
			msg = "session expired, please log in again"
		}
		return Feedback{Kind: FeedbackAuth, Message: msg}
	case errors.Is(err, service.ErrValidation):
		var fe *service.FieldError
		if errors.As(err, &fe) {
			return Feedback{Kind: FeedbackValidation, Field: fe.Field, Message: fe.Message}
		}
		field, msg := splitField(service.Detail(err))
		if msg == "" {
			msg = "invalid input"
		}
		return Feedback{Kind: FeedbackValidation, Field: field, Message: msg}
	case errors.Is(err, service.ErrNotFound):
		msg := service.Detail(err)
		if msg == "" {
			msg = "not found"
		}
		return Feedback{Kind: FeedbackNotFound, Message: msg + "; the view has been refreshed"}
	case errors.Is(err, service.ErrUnavailable), errors.Is(err, context.DeadlineExceeded):
		return Feedback{Kind: FeedbackNetwork, Message: NetworkMessage}
	}
	return Feedback{Kind: FeedbackError, Message: err.Error()}
}

// splitField separates a backend "field: message" detail. Multi-error
// details joined with "; " keep no field.
func splitField(detail string) (field, msg string) {
	name, rest, ok := strings.Cut(detail, ": ")
	if !ok || strings.Contains(rest, "; ") || strings.ContainsAny(name, " .") {
		return "", detail
	}
	return name, rest
}
