package guide

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by Lookup when no row's identifier contains the requirement id.
var ErrNotFound = errors.New("no matching guide row")

// LoadError reports a guide that could not be fetched or does not carry the required columns.
type LoadError struct {
	Source  string
	Missing []string
	Err     error
}

func (e *LoadError) Error() string {
	switch {
	case len(e.Missing) > 0:
		return fmt.Sprintf("guide %s: missing columns %v", e.Source, e.Missing)
	case e.Err != nil:
		return fmt.Sprintf("guide %s: %v", e.Source, e.Err)
	default:
		return fmt.Sprintf("guide %s: load failed", e.Source)
	}
}

func (e *LoadError) Unwrap() error {
	return e.Err
}
