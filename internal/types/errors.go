package types

import (
	"errors"
	"fmt"
)

// ErrorKind classifies pipeline failures.
type ErrorKind string

const (
	// KindInvalidInput is the only kind surfaced to callers (4xx).
	KindInvalidInput ErrorKind = "INVALID_INPUT"

	KindTranscode      ErrorKind = "TRANSCODE_ERROR"
	KindTranscription  ErrorKind = "TRANSCRIPTION_ERROR"
	KindClassification ErrorKind = "CLASSIFICATION_ERROR"

	// KindStorage covers temporary storage faults outside the stages proper.
	KindStorage ErrorKind = "STORAGE_ERROR"
)

// Error lets a bare kind be used as an errors.Is target.
func (k ErrorKind) Error() string { return string(k) }

// PipelineError carries the kind of a stage failure and its cause.
type PipelineError struct {
	Kind    ErrorKind `json:"kind"`
	Op      string    `json:"op"`
	Message string    `json:"message"`
	Cause   error     `json:"-"`
}

func (e *PipelineError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %s: %v", e.Kind, e.Op, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Kind, e.Op, e.Message)
}

func (e *PipelineError) Unwrap() error {
	return e.Cause
}

// Is matches another *PipelineError or a bare ErrorKind of the same kind.
func (e *PipelineError) Is(target error) bool {
	switch t := target.(type) {
	case ErrorKind:
		return e.Kind == t
	case *PipelineError:
		return e.Kind == t.Kind
	}
	return false
}

func NewError(kind ErrorKind, op, message string, cause error) *PipelineError {
	return &PipelineError{Kind: kind, Op: op, Message: message, Cause: cause}
}

func InvalidInput(op, message string) *PipelineError {
	return NewError(KindInvalidInput, op, message, nil)
}

func TranscodeError(op string, cause error) *PipelineError {
	return NewError(KindTranscode, op, "audio transcode failed", cause)
}

func TranscriptionError(op string, cause error) *PipelineError {
	return NewError(KindTranscription, op, "speech recognition failed", cause)
}

func ClassificationError(op string, cause error) *PipelineError {
	return NewError(KindClassification, op, "emotion classification failed", cause)
}

// KindOf returns the kind of the first PipelineError in err's chain, or "".
func KindOf(err error) ErrorKind {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ""
}

// IsInvalidInput reports whether err should be surfaced to the caller.
func IsInvalidInput(err error) bool {
	return errors.Is(err, KindInvalidInput)
}
