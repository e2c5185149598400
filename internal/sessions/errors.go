package sessions

import "errors"

var (
	ErrNotFound     = errors.New("session not found")
	ErrPlanRequired = errors.New("no action plan uploaded for this session")
	ErrInvalidInput = errors.New("invalid input")
)
