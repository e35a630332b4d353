package response

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is a failure already classified for the client: Code is the HTTP
// status it is reported with and Err the message the client sees.
type Error struct {
	Code int
	Err  error
}

func (e *Error) Error() string {
	return e.Err.Error()
}

func (e *Error) Is(target error) bool {
	var t *Error
	ok := errors.As(target, &t)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Err.Error() == t.Err.Error()
}

func NewError(code int, err string) error {
	return &Error{code, errors.New(err)}
}

// Wrap reports cause to the client as kind. The cause stays in the chain, so
// logs and errors.Is still see it, but it never reaches the response body.
func Wrap(kind error, cause error) error {
	if cause == nil {
		return kind
	}
	return fmt.Errorf("%w: %w", kind, cause)
}

// As returns the client-facing error carried by err.
func As(err error) (*Error, bool) {
	var respErr *Error
	if errors.As(err, &respErr) {
		return respErr, true
	}
	return nil, false
}

// Status is the HTTP status err is reported with. Unclassified errors are 500.
func Status(err error) int {
	if respErr, ok := As(err); ok {
		return respErr.Code
	}
	return http.StatusInternalServerError
}
