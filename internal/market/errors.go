package market

import (
	"errors"
	"fmt"
)

// Failure kinds, matchable with errors.Is on any *Error
var (
	ErrTransport = errors.New("transport failure")
	ErrStatus    = errors.New("unexpected status")
	ErrDecode    = errors.New("decode failure")
	ErrInvalid   = errors.New("invalid request")
)

// Error describes a failed gateway call
type Error struct {
	Op         string
	Kind       error
	StatusCode int
	Body       string
	Err        error
}

func (e *Error) Error() string {
	switch {
	case e.StatusCode != 0 && e.Body != "":
		return fmt.Sprintf("market %s: %v: status %d: %s", e.Op, e.Kind, e.StatusCode, e.Body)
	case e.StatusCode != 0:
		return fmt.Sprintf("market %s: %v: status %d", e.Op, e.Kind, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("market %s: %v: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("market %s: %v", e.Op, e.Kind)
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}
