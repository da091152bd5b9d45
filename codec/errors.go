package codec

import (
	"fmt"
	"reflect"
)

// ParseError reports text that is well-formed JSON but not a valid value of
// the target type, such as a malformed version string.
// Input is the offending raw string; Err is the underlying cause, if any.
type ParseError struct {
	Input string
	Msg   string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// SyntaxError reports input that does not have the structure a codec
// expects: malformed JSON, an unexpected token, or a string that cannot be
// split into its parts.
type SyntaxError struct {
	Msg    string
	Offset int64 // byte offset in the input, or -1 when not applicable
}

func (e *SyntaxError) Error() string {
	if e.Offset < 0 {
		return e.Msg
	}
	return fmt.Sprintf("%s (at offset %d)", e.Msg, e.Offset)
}

// UnsupportedTypeError is returned when a Registry has no codec for a type.
type UnsupportedTypeError struct {
	Type reflect.Type
}

func (e *UnsupportedTypeError) Error() string {
	return "codec: no codec registered for " + e.Type.String()
}

// FatalError is the panic value raised for unrecoverable input, such as a
// registry URL that the registry factory rejects. A lockfile is assumed to
// be internally consistent, so such input means the file is corrupt.
type FatalError struct {
	Msg string
	Err error
}

func (e *FatalError) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *FatalError) Unwrap() error {
	return e.Err
}

// Recover converts a *FatalError panic into an error stored in *errp.
// Other panics are re-raised. It must be deferred directly:
//
//	defer codec.Recover(&err)
func Recover(errp *error) {
	v := recover()
	if v == nil {
		return
	}
	if fe, ok := v.(*FatalError); ok {
		*errp = fe
		return
	}
	panic(v)
}
