package workflow

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownFinding = errors.New("unknown finding")
	ErrInvalidState   = errors.New("item is not awaiting answers")
	ErrInvalidAnswers = errors.New("answer count does not match questions")
)

const (
	ErrorCodeLookupNotFound    = "LOOKUP_NOT_FOUND"
	ErrorCodeMissingCredential = "MISSING_CREDENTIAL"
	ErrorCodeBackendError      = "BACKEND_ERROR"
	ErrorCodeBackendTimeout    = "BACKEND_TIMEOUT"
	ErrorCodeInvalidState      = "INVALID_STATE"
	ErrorCodeInvalidAnswers    = "INVALID_ANSWERS"
)

// StepError reports which finding and which step failed.
type StepError struct {
	FindingIndex  int
	RequirementID string
	Step          string
	Code          string
	Err           error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("finding #%d (%s): %s: %v", e.FindingIndex, e.RequirementID, e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// Failure converts the error into the form stored on an ItemState.
func (e *StepError) Failure() *Failure {
	return &Failure{Code: e.Code, Step: e.Step, Message: e.Error()}
}
