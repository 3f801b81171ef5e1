package backend

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotFound matches any *StatusError carrying HTTP 404.
	ErrNotFound = errors.New("backend: not found")

	// ErrRootBranch is returned, without a network call, when asked to
	// delete a workspace's root branch.
	ErrRootBranch = errors.New("the root branch cannot be deleted")

	// ErrEmptyQuery is returned, without a network call, for a blank search.
	ErrEmptyQuery = errors.New("search query is empty")
)

// TransportError means the request never completed.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// StatusError means the backend answered with a non-success status.
type StatusError struct {
	Op   string
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: HTTP %d", e.Op, e.Code)
	}
	return fmt.Sprintf("%s: HTTP %d: %s", e.Op, e.Code, e.Body)
}

// Is lets errors.Is(err, ErrNotFound) match a 404.
func (e *StatusError) Is(target error) bool {
	return target == ErrNotFound && e.Code == http.StatusNotFound
}

// StatusCode returns the HTTP status carried by err, or 0 when err is not
// a *StatusError.
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code
	}
	return 0
}

// IsUnauthorized reports whether the backend rejected the credential.
func IsUnauthorized(err error) bool {
	code := StatusCode(err)
	return code == http.StatusUnauthorized || code == http.StatusForbidden
}
