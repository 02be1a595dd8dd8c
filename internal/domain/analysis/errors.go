package analysis

import (
	"errors"
	"fmt"
)

// GenericFailureMessage is shown for any failure that did not come with a
// backend-supplied message.
const GenericFailureMessage = "Failed to connect to backend."

// EmptyInputNotice is the blocking notice shown when there is nothing to analyze.
const EmptyInputNotice = "Please paste some code first."

var (
	// ErrEmptyInput is the validation failure for empty or whitespace-only code.
	ErrEmptyInput = errors.New("no code to analyze")

	// ErrCodeTooLarge rejects code above the configured size limit.
	ErrCodeTooLarge = errors.New("code exceeds size limit")

	// ErrQuotaExceeded indicates the AI provider returned a quota/limit error (HTTP 429 or similar).
	ErrQuotaExceeded = errors.New("ai quota exceeded")

	// ErrInvalidOutput means the model answered with something that is not the expected JSON.
	ErrInvalidOutput = errors.New("model returned invalid JSON")

	// ErrMissingField is returned by strict rendering when a field is absent.
	ErrMissingField = errors.New("missing result field")

	// ErrNotFound is returned by repositories for unknown IDs.
	ErrNotFound = errors.New("analysis not found")
)

// MissingFieldError names the field strict rendering could not display.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("%s: %s", ErrMissingField, e.Field)
}

func (e *MissingFieldError) Unwrap() error { return ErrMissingField }

// BackendError is any failure of an analysis request: either the backend could not
// be reached or understood (transport), or it answered with an error message
// (reported).
type BackendError struct {
	// Reported is true when the backend itself returned an error message.
	Reported bool
	// Message is the backend's error message when Reported.
	Message string
	// Status is the HTTP status code, 0 when no response arrived.
	Status int
	Err    error
}

func (e *BackendError) Error() string {
	switch {
	case e.Reported:
		return "backend reported: " + e.Message
	case e.Err != nil:
		return "backend request failed: " + e.Err.Error()
	default:
		return fmt.Sprintf("backend error: %d", e.Status)
	}
}

func (e *BackendError) Unwrap() error { return e.Err }

// UserMessage is the text to show in the error region.
func (e *BackendError) UserMessage() string {
	if e.Reported {
		return e.Message
	}
	return GenericFailureMessage
}
