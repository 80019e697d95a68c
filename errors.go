package vidstab

import (
	"errors"
	"fmt"
)

// ErrorKind classifies why a stabilization run failed
type ErrorKind int

const (
	KindUnknown         ErrorKind = 0
	KindInvalidParams   ErrorKind = 1
	KindInputOpen       ErrorKind = 2
	KindDegenerateVideo ErrorKind = 3
	KindNoCodec         ErrorKind = 4
	KindSourceChanged   ErrorKind = 5
	KindWrite           ErrorKind = 6
	KindCancelled       ErrorKind = 7
)

// String returns a readable description of the error kind
func (k ErrorKind) String() string {
	switch k {
	case KindInvalidParams:
		return "invalid parameters"
	case KindInputOpen:
		return "input could not be opened"
	case KindDegenerateVideo:
		return "input has no usable frames"
	case KindNoCodec:
		return "no output codec could be opened"
	case KindSourceChanged:
		return "input changed between passes"
	case KindWrite:
		return "output frame could not be written"
	case KindCancelled:
		return "run cancelled"
	default:
		return "unknown error"
	}
}

// sentinel errors matched by errors.Is against an *Error of the same kind
var (
	ErrInvalidParams   = &Error{Kind: KindInvalidParams}
	ErrInputOpen       = &Error{Kind: KindInputOpen}
	ErrDegenerateVideo = &Error{Kind: KindDegenerateVideo}
	ErrNoCodec         = &Error{Kind: KindNoCodec}
	ErrSourceChanged   = &Error{Kind: KindSourceChanged}
	ErrWrite           = &Error{Kind: KindWrite}
	ErrCancelled       = &Error{Kind: KindCancelled}
)

// Error is the error returned by a failed run
type Error struct {
	Kind ErrorKind
	// Stage is the pipeline stage the failure happened in, eg: analyze
	Stage string
	// Path is the input or output path involved
	Path string
	Err  error
}

// Error implements the error interface
func (e *Error) Error() string {

	msg := e.Kind.String()

	if e.Stage != "" {
		msg = e.Stage + ": " + msg
	}

	if e.Path != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.Path)
	}

	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}

	return msg
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same kind
func (e *Error) Is(target error) bool {

	t, ok := target.(*Error)

	return ok && t.Kind == e.Kind
}

// KindOf returns the kind of the *Error in err's chain, KindUnknown when
// there is none
func KindOf(err error) ErrorKind {

	var e *Error

	if errors.As(err, &e) {
		return e.Kind
	}

	return KindUnknown
}

// newError returns an *Error of the given kind
func newError(kind ErrorKind, stage, path string, err error) *Error {
	return &Error{
		Kind:  kind,
		Stage: stage,
		Path:  path,
		Err:   err,
	}
}
