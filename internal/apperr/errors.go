// Package apperr defines the tagged error type shared by the torlist services.
//
// Callers branch on Kind (via KindOf or Is), never on message text.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an application error.
type Kind uint8

const (
	KindInternal Kind = iota
	// KindValidation is a missing, mis-typed or out-of-set field.
	KindValidation
	// KindSignature is a well-formed request whose ownership proof did not verify.
	KindSignature
	KindNotFound
	// KindMalformedID is an identifier the backing store cannot parse.
	KindMalformedID
	KindUnauthorized
	// KindUnavailable is any failure surfaced by store or repository I/O.
	KindUnavailable
)

var kindNames = map[Kind]string{
	KindInternal:     "internal",
	KindValidation:   "validation",
	KindSignature:    "signature",
	KindNotFound:     "not found",
	KindMalformedID:  "malformed id",
	KindUnauthorized: "unauthorized",
	KindUnavailable:  "unavailable",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Error is a classified error. Op names the operation that failed,
// Msg is safe to show to API clients.
type Error struct {
	Kind Kind
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = e.Kind.String()
	}
	switch {
	case e.Op != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, msg, e.Err)
	case e.Op != "":
		return fmt.Sprintf("%s: %s", e.Op, msg)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// New returns an error of the given kind with a client-facing message.
func New(kind Kind, op, msg string) error {
	return &Error{Kind: kind, Op: op, Msg: msg}
}

// Wrap classifies err. A nil err yields nil.
func Wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// Validation is shorthand for New(KindValidation, op, msg).
func Validation(op, msg string) error {
	return New(KindValidation, op, msg)
}

// NotFound is shorthand for New(KindNotFound, op, "not found").
func NotFound(op string) error {
	return New(KindNotFound, op, "not found")
}

// KindOf reports the kind of the outermost *Error in err's chain,
// or KindInternal when there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Message returns the client-facing message of err.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if e.Msg != "" {
			return e.Msg
		}
		return e.Kind.String()
	}
	return "internal error"
}
