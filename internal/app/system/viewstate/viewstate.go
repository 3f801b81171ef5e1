// Package viewstate holds the load state of list and detail regions.
//
// Every region is fetched from the backend when the page is built. A list
// ends up with items, an empty-state message, or an error string, never a
// mix. A detail region moves through Empty, Loading, then Loaded or Failed.
// Results that arrive after the request was cancelled are discarded.
package viewstate

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/dalemusser/sudhub/internal/app/system/backend"
)

// ErrorMessage turns a backend error into the single line shown in place of
// a region's content.
func ErrorMessage(err error) string {
	var te *backend.TransportError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &te):
		return "The server could not be reached. Please try again."
	case errors.Is(err, backend.ErrNotFound):
		return "Not found."
	case backend.IsUnauthorized(err):
		return "You do not have access to this."
	}
	if code := backend.StatusCode(err); code != 0 {
		return fmt.Sprintf("The server returned an error (%d %s).", code, http.StatusText(code))
	}
	return "Something went wrong."
}

/*─────────────────────────────────────────────────────────────────────────────*
| Collections                                                                |
*─────────────────────────────────────────────────────────────────────────────*/

// Collection is one list region.
type Collection[T any] struct {
	Items        []T
	Err          string
	EmptyMessage string

	cause error
}

// Empty reports whether the list loaded with nothing in it.
func (c Collection[T]) Empty() bool { return c.Err == "" && len(c.Items) == 0 }

// Failed reports whether the list could not be loaded.
func (c Collection[T]) Failed() bool { return c.Err != "" }

// Len returns the number of items.
func (c Collection[T]) Len() int { return len(c.Items) }

// Cause returns the error behind a failed list, or nil.
func (c Collection[T]) Cause() error { return c.cause }

// Rejected returns the first of errs that is a 401 from the backend. Pages
// use it to send the user back to sign in instead of showing the region
// errors.
func Rejected(errs ...error) error {
	for _, err := range errs {
		if backend.StatusCode(err) == http.StatusUnauthorized {
			return err
		}
	}
	return nil
}

// FetchCollection runs fetch once. ok is false when ctx was cancelled before
// the result arrived; the caller should then stop building the page.
func FetchCollection[T any](ctx context.Context, emptyMsg string, fetch func(context.Context) ([]T, error)) (c Collection[T], ok bool) {
	items, err := fetch(ctx)
	if ctx.Err() != nil {
		return Collection[T]{}, false
	}
	c.EmptyMessage = emptyMsg
	if err != nil {
		c.Err = ErrorMessage(err)
		c.cause = err
		return c, true
	}
	c.Items = items
	return c, true
}

/*─────────────────────────────────────────────────────────────────────────────*
| Detail                                                                     |
*─────────────────────────────────────────────────────────────────────────────*/

// Phase is the state of a detail region.
type Phase int

const (
	Empty Phase = iota
	Loading
	Loaded
	Failed
)

func (p Phase) String() string {
	switch p {
	case Empty:
		return "empty"
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	case Failed:
		return "error"
	}
	return "unknown"
}

// Detail is one selected entity. The zero value is Empty.
type Detail[T any] struct {
	phase Phase
	key   string
	value T
	err   error
}

// Select starts loading key. Selecting replaces any previous value. A
// failed detail can only be left by selecting a different key.
func (d *Detail[T]) Select(key string) bool {
	if d.phase == Failed && key == d.key {
		return false
	}
	var zero T
	d.phase, d.key, d.value, d.err = Loading, key, zero, nil
	return true
}

// Reload moves a loaded detail back to Loading, e.g. after a mutation.
func (d *Detail[T]) Reload() bool {
	if d.phase != Loaded {
		return false
	}
	d.phase = Loading
	return true
}

// Resolve finishes a load. It is ignored unless the detail is Loading, and
// the result is discarded when ctx is already done.
func (d *Detail[T]) Resolve(ctx context.Context, v T, err error) bool {
	if d.phase != Loading || ctx.Err() != nil {
		return false
	}
	if err != nil {
		d.phase, d.err = Failed, err
		return true
	}
	d.phase, d.value = Loaded, v
	return true
}

func (d *Detail[T]) Phase() Phase { return d.phase }
func (d *Detail[T]) Key() string  { return d.key }
func (d *Detail[T]) Value() T     { return d.value }
func (d *Detail[T]) Err() error   { return d.err }

// IsLoaded reports whether a value is available.
func (d *Detail[T]) IsLoaded() bool { return d.phase == Loaded }

// ErrMessage is the user-facing text for a failed detail.
func (d *Detail[T]) ErrMessage() string { return ErrorMessage(d.err) }

// LoadDetail selects key and resolves it with fetch. ok is false when the
// result was discarded because ctx ended first.
func LoadDetail[T any](ctx context.Context, key string, fetch func(context.Context) (T, error)) (d *Detail[T], ok bool) {
	d = &Detail[T]{}
	d.Select(key)
	v, err := fetch(ctx)
	return d, d.Resolve(ctx, v, err)
}
