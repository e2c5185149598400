package generator

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"actionplan-backend/internal/llm"
)

// Kind identifies a generation failure.
type Kind string

const (
	KindMissingCredential Kind = "MISSING_CREDENTIAL"
	KindBackendError      Kind = "BACKEND_ERROR"
	KindBackendTimeout    Kind = "BACKEND_TIMEOUT"
)

// Error is returned by Generate for every failure.
type Error struct {
	Kind  Kind
	Cause error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindMissingCredential:
		return "no API key set for this session"
	case KindBackendTimeout:
		return "backend did not answer in time: " + sanitize(e.Cause)
	default:
		return "backend error: " + sanitize(e.Cause)
	}
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// KindOf reports the failure kind carried by err, if any.
func KindOf(err error) (Kind, bool) {
	var genErr *Error
	if errors.As(err, &genErr) {
		return genErr.Kind, true
	}
	return "", false
}

func sanitize(err error) string {
	if err == nil {
		return "unknown error"
	}
	msg := strings.ReplaceAll(err.Error(), "\n", " ")
	msg = strings.ReplaceAll(msg, "\r", " ")
	msg = strings.TrimSpace(msg)
	const maxLen = 500
	if len(msg) > maxLen {
		cut := maxLen
		for cut > 0 && !utf8.RuneStart(msg[cut]) {
			cut--
		}
		msg = msg[:cut]
	}
	return msg
}

func timeoutError(cause error) *Error {
	return &Error{Kind: KindBackendTimeout, Cause: cause}
}

func backendError(cause error) *Error {
	return &Error{Kind: KindBackendError, Cause: cause}
}

func missingCredential() *Error {
	return &Error{Kind: KindMissingCredential, Cause: fmt.Errorf("credential check: %w", llm.ErrMissingCredential)}
}
