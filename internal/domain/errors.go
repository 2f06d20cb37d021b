package domain

import (
	"errors"
	"fmt"
)

// ErrorKind distinguishes the failure classes surfaced by a weather search.
type ErrorKind string

const (
	KindInvalidInput      ErrorKind = "invalid_input"
	KindNotFound          ErrorKind = "not_found"
	KindMalformedResponse ErrorKind = "malformed_response"
	KindTransport         ErrorKind = "transport"
)

// Sentinels for errors.Is checks. Any *Error with the same Kind matches.
var (
	ErrInvalidInput      = &Error{Kind: KindInvalidInput}
	ErrNotFound          = &Error{Kind: KindNotFound}
	ErrMalformedResponse = &Error{Kind: KindMalformedResponse}
	ErrTransport         = &Error{Kind: KindTransport}
)

// ErrEmptyQuery is the cause attached to searches whose query is blank.
var ErrEmptyQuery = errors.New("empty query")

// Error is a classified failure. Err carries the underlying cause, if any.
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Op != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	case e.Op != "":
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	default:
		return string(e.Kind)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the kind of the first *Error in err's chain, or "" if none.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// UserMessage renders err as a message suitable for showing to the person
// who issued the search.
func UserMessage(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return err.Error()
	}
	switch e.Kind {
	case KindInvalidInput:
		if e.Err != nil {
			return e.Err.Error()
		}
		return "invalid input"
	case KindNotFound:
		return "City not found. Please try a different search."
	case KindMalformedResponse:
		return "Failed to decode weather data"
	case KindTransport:
		if e.Err != nil {
			return "Network error: " + e.Err.Error()
		}
		return "Network error"
	default:
		return e.Error()
	}
}
