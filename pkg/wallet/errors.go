package wallet

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument marks locally validated misuse. It is returned before any network or
	// cryptographic work is done.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrUnsupportedMethod is returned when the contract has no such get method,
	// usually an older contract revision.
	ErrUnsupportedMethod = errors.New("get method is not supported")
)

// QueryError is a failed remote get-method call.
type QueryError struct {
	Method string
	Err    error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("get method %s: %v", e.Method, e.Err)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}
