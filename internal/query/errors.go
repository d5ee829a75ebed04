package query

import (
	"fmt"
	"net/http"
)

// TransportError reports a request that did not produce a usable response:
// a network failure, a timeout, or any non-2xx status other than 404.
// Status is zero when no response was received.
type TransportError struct {
	Method string
	Path   string
	Status int
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status != 0 && e.Err != nil {
		return fmt.Sprintf("%s %s: %d %s: %v", e.Method, e.Path, e.Status, http.StatusText(e.Status), e.Err)
	}
	if e.Status != 0 {
		return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// NotFoundError reports a 404.
type NotFoundError struct {
	Method string
	Path   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s: not found", e.Method, e.Path)
}
