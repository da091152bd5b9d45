package codec

import (
	"fmt"
	"reflect"
)

// Field maps one JSON object member to a field of T.
type Field[T any] struct {
	name  string
	write func(reg *Registry, w *Writer, v *T) error
	read  func(reg *Registry, r *Reader, v *T) error
}

// Name returns the JSON member name.
func (f Field[T]) Name() string { return f.name }

// Prop declares a member called name stored at the field ref points to.
// The field value is written with the codec the Registry holds for F.
// A nil interface value is omitted on write; null on read leaves the field
// at its zero value.
func Prop[T, F any](name string, ref func(*T) *F) Field[T] {
	return Field[T]{
		name: name,
		write: func(reg *Registry, w *Writer, v *T) error {
			fv := *ref(v)
			if any(fv) == nil {
				return nil
			}
			fc, err := Lookup[F](reg)
			if err != nil {
				return err
			}
			if err := w.Name(name); err != nil {
				return err
			}
			return fc.Write(w, fv)
		},
		read: func(reg *Registry, r *Reader, v *T) error {
			if null, err := readNull(r); null || err != nil {
				return err
			}
			fc, err := Lookup[F](reg)
			if err != nil {
				return err
			}
			fv, err := fc.Read(r)
			if err != nil {
				return err
			}
			*ref(v) = fv
			return nil
		},
	}
}

// Object returns a Factory serving a JSON object codec for T built from the
// declared fields. Members are written in declaration order. Unknown members
// are skipped on read. Object panics if two fields share a name.
func Object[T any](fields ...Field[T]) Factory {
	index := make(map[string]int, len(fields))
	for i, f := range fields {
		if _, dup := index[f.name]; dup {
			panic(fmt.Sprintf("codec: duplicate field %q in object codec for %s", f.name, reflect.TypeFor[T]()))
		}
		index[f.name] = i
	}
	t := reflect.TypeFor[T]()
	return FactoryFunc(func(r *Registry, want reflect.Type) (Untyped, bool) {
		if want != t {
			return nil, false
		}
		return Erase[T](objectCodec[T]{reg: r, fields: fields, index: index}), true
	})
}

// RegisterObject adds an object codec for T to b.
func RegisterObject[T any](b *Builder, fields ...Field[T]) *Builder {
	return b.Add(Object(fields...))
}

type objectCodec[T any] struct {
	reg    *Registry
	fields []Field[T]
	index  map[string]int
}

func (c objectCodec[T]) Write(w *Writer, v T) error {
	if err := w.BeginObject(); err != nil {
		return err
	}
	for _, f := range c.fields {
		if err := f.write(c.reg, w, &v); err != nil {
			return fmt.Errorf("%s: %w", f.name, err)
		}
	}
	return w.EndObject()
}

func (c objectCodec[T]) Read(r *Reader) (T, error) {
	var v T
	if null, err := readNull(r); null || err != nil {
		return v, err
	}
	if err := r.BeginObject(); err != nil {
		return v, err
	}
	for {
		more, err := r.HasNext()
		if err != nil {
			return v, err
		}
		if !more {
			break
		}
		name, err := r.NextName()
		if err != nil {
			return v, err
		}
		i, ok := c.index[name]
		if !ok {
			if err := r.Skip(); err != nil {
				return v, err
			}
			continue
		}
		if err := c.fields[i].read(c.reg, r, &v); err != nil {
			return v, fmt.Errorf("%s: %w", name, err)
		}
	}
	if err := r.EndObject(); err != nil {
		return v, err
	}
	return v, nil
}
