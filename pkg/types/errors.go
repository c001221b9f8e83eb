package types

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrorKind classifies job-scoped failures.
type ErrorKind string

const (
	InvalidFormat        ErrorKind = "InvalidFormat"
	OutOfRange           ErrorKind = "OutOfRange"
	ExtractionFailure    ErrorKind = "ExtractionFailure"
	TransformFailure     ErrorKind = "TransformFailure"
	TranscriptionFailure ErrorKind = "TranscriptionFailure"
	CompositionFailure   ErrorKind = "CompositionFailure"
)

// Batch-fatal preconditions. Everything else is scoped to one job.
var (
	ErrSourceUnavailable     = errors.New("source video missing or unreadable")
	ErrTimestampsUnavailable = errors.New("timestamp file missing or unreadable")
)

// StageError is a failure attributed to a single job (or timestamp entry).
type StageError struct {
	Kind ErrorKind
	Job  int
	Err  error
}

func (e *StageError) Error() string {
	if e.Job > 0 {
		return fmt.Sprintf("%s (clip %d): %v", e.Kind, e.Job, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// NewStageError wraps err with a kind. A nil err yields nil.
func NewStageError(kind ErrorKind, job int, err error) error {
	if err == nil {
		return nil
	}
	return &StageError{Kind: kind, Job: job, Err: err}
}

// Stagef builds a StageError from a format string.
func Stagef(kind ErrorKind, job int, format string, args ...interface{}) error {
	return &StageError{Kind: kind, Job: job, Err: errors.Errorf(format, args...)}
}

// KindOf returns the kind of the outermost StageError in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var se *StageError
	if errors.As(err, &se) {
		return se.Kind, true
	}
	return "", false
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind ErrorKind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
