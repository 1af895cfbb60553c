package detector

import (
	"errors"
	"fmt"
)

// ErrSubmission matches every *SubmissionError.
var ErrSubmission = errors.New("emotion prediction failed")

// SubmissionError covers transport, status and decode failures alike.
type SubmissionError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *SubmissionError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: %s: HTTP %d", ErrSubmission, e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: %s: %v", ErrSubmission, e.Op, e.Err)
}

func (e *SubmissionError) Unwrap() error { return e.Err }

func (e *SubmissionError) Is(target error) bool { return target == ErrSubmission }
