package wizard

import (
	"errors"
	"fmt"
)

var (
	// ErrRestart means the draft is missing and the wizard must go back to step 1.
	ErrRestart = errors.New("event draft missing, restart from the first step")
	// ErrGalleryFull is returned when adding beyond MaxGalleryImages.
	ErrGalleryFull = errors.New("gallery limit reached")
	// ErrIndexOutOfRange is returned when removing an item that does not exist.
	ErrIndexOutOfRange = errors.New("index out of range")
	// ErrUnknownStep is returned for a step outside 1..5.
	ErrUnknownStep = errors.New("unknown wizard step")
)

// ValidationError blocks progression. It is never sent to the backend.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// FailureClass groups submission failures by how they are reported.
type FailureClass string

const (
	FailureConnectivity FailureClass = "connectivity"
	FailureRejected     FailureClass = "rejected"
	FailureSession      FailureClass = "session"
	FailureUnexpected   FailureClass = "unexpected"
)

// SubmissionError is a failed submission. The draft is kept for retry.
type SubmissionError struct {
	Class   FailureClass
	Message string
	Err     error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("submission failed (%s): %s", e.Class, e.Message)
}

func (e *SubmissionError) Unwrap() error { return e.Err }
