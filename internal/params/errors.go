package params

import "errors"

var (
	ErrNotFound     = errors.New("parameter not found")
	ErrInvalidKey   = errors.New("invalid parameter key")
	ErrInvalidInput = errors.New("invalid input")
)
