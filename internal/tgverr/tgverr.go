// Package tgverr classifies errors so the view controller can decide between
// a status-line message, the error banner, or disabling a track.
package tgverr

import (
	"errors"
	"fmt"
)

// Kind buckets an error by how the UI should react to it.
type Kind int

const (
	Internal Kind = iota
	ParseCommand
	UnknownContig
	UnknownFeature
	OutOfBounds
	DataSourceUnavailable
	MalformedRecord
	CacheCorruption
)

func (k Kind) String() string {
	switch k {
	case ParseCommand:
		return "ParseCommand"
	case UnknownContig:
		return "UnknownContig"
	case UnknownFeature:
		return "UnknownFeature"
	case OutOfBounds:
		return "OutOfBounds"
	case DataSourceUnavailable:
		return "DataSourceUnavailable"
	case MalformedRecord:
		return "MalformedRecord"
	case CacheCorruption:
		return "CacheCorruption"
	}
	return "Internal"
}

// Error carries a kind alongside the underlying cause.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Msg != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds a classified error from a formatted message.
func New(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind and context to an existing error. A nil err returns nil.
func Wrap(kind Kind, err error, msg string) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf extracts the kind of an error, defaulting to Internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// Recoverable reports whether the error should only produce a status-line
// message (view state preserved) rather than the error banner.
func Recoverable(err error) bool {
	switch KindOf(err) {
	case ParseCommand, UnknownContig, UnknownFeature, OutOfBounds:
		return true
	}
	return false
}
