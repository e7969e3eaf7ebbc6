// Package errs provides the structured error type used throughout khoj.
package errs

import "fmt"

// Kind classifies an error by the subsystem that raised it.
type Kind string

const (
	KindIo              Kind = "io"
	KindDatabase        Kind = "database"
	KindSearchIndex     Kind = "search_index"
	KindEmbedding       Kind = "embedding"
	KindExtraction      Kind = "extraction"
	KindConfig          Kind = "config"
	KindFileNotFound    Kind = "file_not_found"
	KindInvalidInput    Kind = "invalid_input"
	KindUnsupportedType Kind = "unsupported_file_type"
	KindOther           Kind = "other"
)

// Error is khoj's structured error type: a Kind plus a message and an
// optional wrapped cause.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the wrapped cause, for errors.Is/As chaining.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error with the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// New creates an Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap creates an Error of the given kind, wrapping cause. Returns nil if
// cause is nil.
func Wrap(kind Kind, message string, cause error) *Error {
	if cause == nil {
		return nil
	}
	return &Error{Kind: kind, Message: message, Cause: cause}
}

func Io(message string, cause error) *Error          { return Wrap(KindIo, message, cause) }
func Database(message string, cause error) *Error    { return Wrap(KindDatabase, message, cause) }
func SearchIndex(message string, cause error) *Error { return Wrap(KindSearchIndex, message, cause) }
func Embedding(message string, cause error) *Error   { return Wrap(KindEmbedding, message, cause) }
func Extraction(message string, cause error) *Error  { return Wrap(KindExtraction, message, cause) }
func Config(message string, cause error) *Error      { return Wrap(KindConfig, message, cause) }

// FileNotFound and InvalidInput and UnsupportedFileType are constructed
// directly, not wrapped, since they usually originate in this code rather
// than from an underlying error.
func FileNotFound(message string) *Error        { return New(KindFileNotFound, message) }
func InvalidInput(message string) *Error        { return New(KindInvalidInput, message) }
func UnsupportedFileType(message string) *Error { return New(KindUnsupportedType, message) }
func Other(message string, cause error) *Error  { return Wrap(KindOther, message, cause) }

// ErrNotFound is a sentinel matched via errors.Is (through Error.Is's
// Kind comparison) by store lookups that find no row.
var ErrNotFound = New(KindFileNotFound, "not found")

// KindOf extracts the Kind of err if it is (or wraps) an *Error, and ok=false otherwise.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if as(err, &e) {
		return e.Kind, true
	}
	return "", false
}

// as is a tiny local errors.As to avoid importing the stdlib package twice
// in call sites that already alias it; kept here so errs has no import
// surface beyond fmt.
func as(err error, target **Error) bool {
	for err != nil {
		if e, ok := err.(*Error); ok {
			*target = e
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
