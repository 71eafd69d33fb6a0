package fetcher

import (
	"errors"
	"fmt"
)

// ErrorKind classifies why a source could not be fetched.
type ErrorKind string

const (
	KindInvalidSource ErrorKind = "invalid-source"
	KindNetwork       ErrorKind = "network"
	KindParse         ErrorKind = "parse"
	KindMissingField  ErrorKind = "missing-field"
)

// Sentinels for errors.Is; a *FetchError matches the sentinel of its kind.
var (
	ErrInvalidSource = errors.New("invalid source identifier")
	ErrNetwork       = errors.New("network error")
	ErrParse         = errors.New("parse error")
	ErrMissingField  = errors.New("missing required field")
)

// ErrDocumentTooLarge is wrapped by readers when a document exceeds
// MaxDocumentSize.
var ErrDocumentTooLarge = errors.New("document too large")

// FetchError reports a failure to fetch or validate one source's metadata.
type FetchError struct {
	Kind     ErrorKind
	Source   string
	Document string // empty when the failure is not tied to one document
	Field    string // set for KindMissingField and field-level KindParse
	Err      error
}

func (e *FetchError) Error() string {
	msg := fmt.Sprintf("fetch %s", e.Source)
	if e.Document != "" {
		msg += " " + e.Document
	}
	switch {
	case e.Kind == KindMissingField:
		msg += fmt.Sprintf(": missing required field %q", e.Field)
	case e.Field != "":
		msg += fmt.Sprintf(": %s: field %q", e.Kind, e.Field)
	default:
		msg += ": " + string(e.Kind)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FetchError) Unwrap() error { return e.Err }

func (e *FetchError) Is(target error) bool {
	switch target {
	case ErrInvalidSource:
		return e.Kind == KindInvalidSource
	case ErrNetwork:
		return e.Kind == KindNetwork
	case ErrParse:
		return e.Kind == KindParse
	case ErrMissingField:
		return e.Kind == KindMissingField
	}
	return false
}

// StatusError is returned by readers for a non-2xx HTTP response.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: http %d", e.URL, e.StatusCode)
}
