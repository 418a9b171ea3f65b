package model

import "errors"

var (
	// ErrUnknownProject means the request named a project that is not
	// registered. There is no fallback catalog.
	ErrUnknownProject = errors.New("unknown project")

	// ErrBackendUnavailable wraps catalog query failures. User-facing
	// messages stay generic; the cause goes to server-side events only.
	ErrBackendUnavailable = errors.New("catalog backend unavailable")

	// ErrNotConfigured marks an optional collaborator that has no
	// credentials. Callers degrade instead of failing.
	ErrNotConfigured = errors.New("not configured")
)

// CollaboratorError describes a failure talking to an external service
// (Stripe, the model provider, a recipe source, a fetched page).
type CollaboratorError struct {
	Op         string // "stripe.create_intent", "mealdb.search", ...
	Code       string
	Message    string
	Retryable  bool
	StatusCode int
	Cause      error
}

func (e *CollaboratorError) Error() string {
	if e == nil {
		return ""
	}
	if e.Code != "" {
		return e.Op + ": " + e.Code + ": " + e.Message
	}
	return e.Op + ": " + e.Message
}

func (e *CollaboratorError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}
