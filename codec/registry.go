package codec

import (
	"fmt"
	"reflect"
	"slices"
	"sync"
)

// Builder collects codec factories. Later additions take precedence over
// earlier ones, whether they serve one exact type or a whole shape.
//
// A Builder is not safe for concurrent use. Build returns an immutable
// Registry; the Builder may keep being used afterwards without affecting it.
type Builder struct {
	factories []Factory
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Add appends factories, newest last.
func (b *Builder) Add(factories ...Factory) *Builder {
	b.factories = append(b.factories, factories...)
	return b
}

// Register adds c as the codec for exactly T.
func Register[T any](b *Builder, c Codec[T]) *Builder {
	return b.Add(For(c))
}

// Clone returns an independent copy of b.
func (b *Builder) Clone() *Builder {
	return &Builder{factories: slices.Clone(b.factories)}
}

// Build returns a Registry holding a snapshot of the current factories.
func (b *Builder) Build() *Registry {
	return &Registry{factories: slices.Clone(b.factories)}
}

// Registry resolves codecs by type. It is immutable and safe for concurrent
// use; resolved codecs are cached per type.
type Registry struct {
	factories []Factory
	cache     sync.Map // reflect.Type -> Untyped
}

// CodecFor returns the codec for t, searching factories newest first.
func (r *Registry) CodecFor(t reflect.Type) (Untyped, error) {
	if cached, ok := r.cache.Load(t); ok {
		return cached.(Untyped), nil
	}
	for i := len(r.factories) - 1; i >= 0; i-- {
		if u, ok := r.factories[i].Create(r, t); ok {
			actual, _ := r.cache.LoadOrStore(t, u)
			return actual.(Untyped), nil
		}
	}
	return nil, &UnsupportedTypeError{Type: t}
}

// Lookup returns the codec for T.
func Lookup[T any](r *Registry) (Codec[T], error) {
	u, err := r.CodecFor(reflect.TypeFor[T]())
	if err != nil {
		return nil, err
	}
	if e, ok := u.(erased[T]); ok {
		return e.c, nil
	}
	return typed[T]{u: u}, nil
}

// Encode writes v using the codec registered for its dynamic type.
func (r *Registry) Encode(v any) ([]byte, error) {
	if v == nil {
		return nil, fmt.Errorf("codec: cannot encode untyped nil")
	}
	u, err := r.CodecFor(reflect.TypeOf(v))
	if err != nil {
		return nil, err
	}
	w := NewWriter()
	if err := u.WriteAny(w, v); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

// Decode reads data into the value pointed to by ptr.
func (r *Registry) Decode(data []byte, ptr any) error {
	pv := reflect.ValueOf(ptr)
	if pv.Kind() != reflect.Pointer || pv.IsNil() {
		return fmt.Errorf("codec: Decode requires a non-nil pointer, got %T", ptr)
	}
	t := pv.Type().Elem()
	u, err := r.CodecFor(t)
	if err != nil {
		return err
	}
	rd := NewReader(data)
	v, err := u.ReadAny(rd)
	if err != nil {
		return err
	}
	if err := rd.End(); err != nil {
		return err
	}
	if v == nil {
		pv.Elem().SetZero()
		return nil
	}
	pv.Elem().Set(reflect.ValueOf(v))
	return nil
}

// Marshal encodes v with the codec registered for T.
func Marshal[T any](r *Registry, v T) ([]byte, error) {
	c, err := Lookup[T](r)
	if err != nil {
		return nil, err
	}
	w := NewWriter()
	if err := c.Write(w, v); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

// Unmarshal decodes data with the codec registered for T. The input must
// hold exactly one JSON value.
func Unmarshal[T any](r *Registry, data []byte) (T, error) {
	var zero T
	c, err := Lookup[T](r)
	if err != nil {
		return zero, err
	}
	rd := NewReader(data)
	v, err := c.Read(rd)
	if err != nil {
		return zero, err
	}
	if err := rd.End(); err != nil {
		return zero, err
	}
	return v, nil
}
