package codec

import (
	"fmt"
	"reflect"
)

// Codec reads and writes values of type T.
type Codec[T any] interface {
	Write(w *Writer, v T) error
	Read(r *Reader) (T, error)
}

// Of returns a Codec built from a pair of functions.
func Of[T any](write func(*Writer, T) error, read func(*Reader) (T, error)) Codec[T] {
	return funcCodec[T]{write: write, read: read}
}

type funcCodec[T any] struct {
	write func(*Writer, T) error
	read  func(*Reader) (T, error)
}

func (c funcCodec[T]) Write(w *Writer, v T) error { return c.write(w, v) }
func (c funcCodec[T]) Read(r *Reader) (T, error)  { return c.read(r) }

// Untyped is a type-erased Codec, as stored in a Registry.
type Untyped interface {
	Type() reflect.Type
	WriteAny(w *Writer, v any) error
	ReadAny(r *Reader) (any, error)
}

// Erase returns c as an Untyped codec for T.
func Erase[T any](c Codec[T]) Untyped {
	return erased[T]{c: c}
}

type erased[T any] struct {
	c Codec[T]
}

func (e erased[T]) Type() reflect.Type {
	return reflect.TypeFor[T]()
}

func (e erased[T]) WriteAny(w *Writer, v any) error {
	tv, ok := v.(T)
	if !ok {
		if v != nil {
			return fmt.Errorf("codec: cannot write %T as %s", v, e.Type())
		}
		// nil for an interface or pointer T
		var zero T
		tv = zero
	}
	return e.c.Write(w, tv)
}

func (e erased[T]) ReadAny(r *Reader) (any, error) {
	return e.c.Read(r)
}

// typed adapts an Untyped codec back to Codec[T].
type typed[T any] struct {
	u Untyped
}

func (c typed[T]) Write(w *Writer, v T) error {
	return c.u.WriteAny(w, v)
}

func (c typed[T]) Read(r *Reader) (T, error) {
	v, err := c.u.ReadAny(r)
	if err != nil {
		var zero T
		return zero, err
	}
	if v == nil {
		var zero T
		return zero, nil
	}
	tv, ok := v.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("codec: %s codec produced %T", reflect.TypeFor[T](), v)
	}
	return tv, nil
}

// Factory creates codecs for the types it recognizes. Create reports false
// for types it does not handle. The Registry passed in is the one the codec
// is being created for and may be used to look up element codecs.
type Factory interface {
	Create(r *Registry, t reflect.Type) (Untyped, bool)
}

// FactoryFunc adapts a function to the Factory interface.
type FactoryFunc func(r *Registry, t reflect.Type) (Untyped, bool)

// Create calls f(r, t).
func (f FactoryFunc) Create(r *Registry, t reflect.Type) (Untyped, bool) {
	return f(r, t)
}

// exactFactory serves one codec for exactly one type.
type exactFactory struct {
	t reflect.Type
	u Untyped
}

func (f exactFactory) Create(_ *Registry, t reflect.Type) (Untyped, bool) {
	if t != f.t {
		return nil, false
	}
	return f.u, true
}

// For returns a Factory that serves c for type T only.
func For[T any](c Codec[T]) Factory {
	return exactFactory{t: reflect.TypeFor[T](), u: Erase(c)}
}
