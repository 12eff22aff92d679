package sendgrid

import (
	"errors"
	"fmt"
)

// ErrMissingBody is returned by Mail.Build when neither the text nor the
// HTML body has been set.
var ErrMissingBody = errors.New("mail needs at least one of text or html body")

// Kind classifies a failure so callers can branch on the failure class
// without inspecting error strings.
type Kind int

const (
	// KindIO is an attachment read failure.
	KindIO Kind = iota + 1
	// KindInvalidFilename marks an attachment path that could not be
	// UTF-8 decoded.
	KindInvalidFilename
	// KindEncoding is a JSON or form serialization failure.
	KindEncoding
	// KindTransport is a network-level failure from the HTTP client.
	KindTransport
)

func (k Kind) String() string {
	switch k {
	case KindIO:
		return "io error"
	case KindInvalidFilename:
		return "invalid filename"
	case KindEncoding:
		return "encoding error"
	case KindTransport:
		return "transport error"
	default:
		return "unknown error"
	}
}

// Error is the error type returned by this package. Kind tells the caller
// which failure class occurred; Err holds the underlying cause when there
// is one.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Kind)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error { return e.Err }
