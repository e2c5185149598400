package findings

import (
	"errors"
	"fmt"
)

// ErrUnsupportedFormat is returned for uploads that are neither xlsx nor csv.
var ErrUnsupportedFormat = errors.New("unsupported action plan format")

// LoadError reports an upload that could not be read as an action plan.
type LoadError struct {
	Missing []string
	Err     error
}

func (e *LoadError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("action plan: missing columns %v", e.Missing)
	}
	return fmt.Sprintf("action plan: %v", e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}
