package codec

import (
	"encoding/json"
	"fmt"
	"iter"
	"reflect"
	"slices"
)

// The container shapes form a closed set. Each shape carries an unexported
// marker method, so only the types in this file can satisfy container.
type shapeKind int

const (
	shapeList shapeKind = iota + 1
	shapeMap
	shapeDict
	shapeBiMap
)

type container interface {
	shape() shapeKind
	containerCodec(r *Registry) Untyped
}

// shapeFactory serves codecs for every instantiation of one container shape.
type shapeFactory shapeKind

func (f shapeFactory) Create(r *Registry, t reflect.Type) (Untyped, bool) {
	if t.Kind() != reflect.Struct {
		return nil, false
	}
	c, ok := reflect.Zero(t).Interface().(container)
	if !ok || c.shape() != shapeKind(f) {
		return nil, false
	}
	u := c.containerCodec(r)
	if u.Type() != t {
		// a struct embedding a container is not itself one
		return nil, false
	}
	return u, true
}

// ListFactory returns the factory for List[T].
func ListFactory() Factory { return shapeFactory(shapeList) }

// MapFactory returns the factory for Map[K, V].
func MapFactory() Factory { return shapeFactory(shapeMap) }

// DictFactory returns the factory for Dict[K, V].
func DictFactory() Factory { return shapeFactory(shapeDict) }

// BiMapFactory returns the factory for BiMap[K, V].
func BiMapFactory() Factory { return shapeFactory(shapeBiMap) }

// Entry is a key/value pair.
type Entry[K, V any] struct {
	Key   K
	Value V
}

// List is an immutable sequence, encoded as a JSON array.
type List[T any] struct {
	items []T
}

// ListOf returns a List holding a copy of items.
func ListOf[T any](items ...T) List[T] {
	return List[T]{items: slices.Clone(items)}
}

// Len returns the number of elements.
func (l List[T]) Len() int { return len(l.items) }

// At returns the element at index i.
func (l List[T]) At(i int) T { return l.items[i] }

// All iterates over the elements in order.
func (l List[T]) All() iter.Seq2[int, T] { return slices.All(l.items) }

// Slice returns a copy of the elements.
func (l List[T]) Slice() []T { return slices.Clone(l.items) }

func (List[T]) shape() shapeKind { return shapeList }

func (List[T]) containerCodec(r *Registry) Untyped {
	return Erase[List[T]](listCodec[T]{reg: r})
}

type listCodec[T any] struct {
	reg *Registry
}

func (c listCodec[T]) Write(w *Writer, l List[T]) error {
	ec, err := Lookup[T](c.reg)
	if err != nil {
		return err
	}
	if err := w.BeginArray(); err != nil {
		return err
	}
	for i, v := range l.items {
		if err := ec.Write(w, v); err != nil {
			return fmt.Errorf("[%d]: %w", i, err)
		}
	}
	return w.EndArray()
}

func (c listCodec[T]) Read(r *Reader) (List[T], error) {
	if null, err := readNull(r); null || err != nil {
		return List[T]{}, err
	}
	ec, err := Lookup[T](c.reg)
	if err != nil {
		return List[T]{}, err
	}
	if err := r.BeginArray(); err != nil {
		return List[T]{}, err
	}
	var items []T
	for {
		more, err := r.HasNext()
		if err != nil {
			return List[T]{}, err
		}
		if !more {
			break
		}
		v, err := ec.Read(r)
		if err != nil {
			return List[T]{}, fmt.Errorf("[%d]: %w", len(items), err)
		}
		items = append(items, v)
	}
	if err := r.EndArray(); err != nil {
		return List[T]{}, err
	}
	return List[T]{items: items}, nil
}

// Map is an immutable mapping that remembers insertion order, encoded as a
// JSON object. Keys must encode as JSON strings.
type Map[K comparable, V any] struct {
	keys   []K
	values map[K]V
}

// NewMap returns a Map of entries in the given order. Duplicate keys are an
// error.
func NewMap[K comparable, V any](entries ...Entry[K, V]) (Map[K, V], error) {
	m := Map[K, V]{values: make(map[K]V, len(entries))}
	for _, e := range entries {
		if _, dup := m.values[e.Key]; dup {
			return Map[K, V]{}, fmt.Errorf("duplicate key %v", e.Key)
		}
		m.keys = append(m.keys, e.Key)
		m.values[e.Key] = e.Value
	}
	return m, nil
}

// MapFromFunc returns a Map holding the contents of src ordered by cmp.
func MapFromFunc[K comparable, V any](src map[K]V, cmp func(a, b K) int) Map[K, V] {
	keys := make([]K, 0, len(src))
	for k := range src {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, cmp)
	values := make(map[K]V, len(src))
	for k, v := range src {
		values[k] = v
	}
	return Map[K, V]{keys: keys, values: values}
}

// Get returns the value for k.
func (m Map[K, V]) Get(k K) (V, bool) {
	v, ok := m.values[k]
	return v, ok
}

// Len returns the number of entries.
func (m Map[K, V]) Len() int { return len(m.keys) }

// Keys returns a copy of the keys in order.
func (m Map[K, V]) Keys() []K { return slices.Clone(m.keys) }

// All iterates over the entries in order.
func (m Map[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for _, k := range m.keys {
			if !yield(k, m.values[k]) {
				return
			}
		}
	}
}

func (Map[K, V]) shape() shapeKind { return shapeMap }

func (Map[K, V]) containerCodec(r *Registry) Untyped {
	return Erase[Map[K, V]](mapCodec[K, V]{reg: r})
}

type mapCodec[K comparable, V any] struct {
	reg *Registry
}

func (c mapCodec[K, V]) Write(w *Writer, m Map[K, V]) error {
	return writeEntries(c.reg, w, m.All())
}

func (c mapCodec[K, V]) Read(r *Reader) (Map[K, V], error) {
	m := Map[K, V]{values: make(map[K]V)}
	err := readEntries(c.reg, r, func(k K, name string, v V) error {
		if _, dup := m.values[k]; dup {
			return &ParseError{Input: name, Msg: fmt.Sprintf("duplicate key %q", name)}
		}
		m.keys = append(m.keys, k)
		m.values[k] = v
		return nil
	})
	if err != nil {
		return Map[K, V]{}, err
	}
	return m, nil
}

// Dict is a mutable mapping that keeps insertion order, encoded as a JSON
// object. It models Starlark dict values. The zero value is an empty Dict.
// Copies of a Dict share storage; use Clone for an independent copy.
type Dict[K comparable, V any] struct {
	keys   []K
	values map[K]V
}

// Put sets the value for k. A new key is appended; an existing key keeps its
// position.
func (d *Dict[K, V]) Put(k K, v V) {
	if d.values == nil {
		d.values = make(map[K]V)
	}
	if _, ok := d.values[k]; !ok {
		d.keys = append(d.keys, k)
	}
	d.values[k] = v
}

// Delete removes k.
func (d *Dict[K, V]) Delete(k K) {
	if _, ok := d.values[k]; !ok {
		return
	}
	delete(d.values, k)
	d.keys = slices.DeleteFunc(d.keys, func(x K) bool { return x == k })
}

// Clone returns an independent copy of d.
func (d Dict[K, V]) Clone() Dict[K, V] {
	values := make(map[K]V, len(d.values))
	for k, v := range d.values {
		values[k] = v
	}
	return Dict[K, V]{keys: slices.Clone(d.keys), values: values}
}

// Get returns the value for k.
func (d Dict[K, V]) Get(k K) (V, bool) {
	v, ok := d.values[k]
	return v, ok
}

// Len returns the number of entries.
func (d Dict[K, V]) Len() int { return len(d.keys) }

// Keys returns a copy of the keys in order.
func (d Dict[K, V]) Keys() []K { return slices.Clone(d.keys) }

// All iterates over the entries in order.
func (d Dict[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for _, k := range d.keys {
			if !yield(k, d.values[k]) {
				return
			}
		}
	}
}

func (Dict[K, V]) shape() shapeKind { return shapeDict }

func (Dict[K, V]) containerCodec(r *Registry) Untyped {
	return Erase[Dict[K, V]](dictCodec[K, V]{reg: r})
}

type dictCodec[K comparable, V any] struct {
	reg *Registry
}

func (c dictCodec[K, V]) Write(w *Writer, d Dict[K, V]) error {
	return writeEntries(c.reg, w, d.All())
}

// Read keeps the last value of a repeated key, at its first position.
func (c dictCodec[K, V]) Read(r *Reader) (Dict[K, V], error) {
	var d Dict[K, V]
	err := readEntries(c.reg, r, func(k K, _ string, v V) error {
		d.Put(k, v)
		return nil
	})
	if err != nil {
		return Dict[K, V]{}, err
	}
	return d, nil
}

// BiMap is an immutable one-to-one mapping that keeps insertion order,
// encoded as a JSON object.
type BiMap[K, V comparable] struct {
	keys    []K
	forward map[K]V
	inverse map[V]K
}

// NewBiMap returns a BiMap of entries in the given order. Duplicate keys or
// values are an error.
func NewBiMap[K, V comparable](entries ...Entry[K, V]) (BiMap[K, V], error) {
	b := BiMap[K, V]{forward: make(map[K]V, len(entries)), inverse: make(map[V]K, len(entries))}
	for _, e := range entries {
		if err := b.put(e.Key, e.Value); err != nil {
			return BiMap[K, V]{}, err
		}
	}
	return b, nil
}

func (b *BiMap[K, V]) put(k K, v V) error {
	if _, dup := b.forward[k]; dup {
		return fmt.Errorf("duplicate key %v", k)
	}
	if prev, dup := b.inverse[v]; dup {
		return fmt.Errorf("value %v already bound to key %v", v, prev)
	}
	b.keys = append(b.keys, k)
	b.forward[k] = v
	b.inverse[v] = k
	return nil
}

// Get returns the value for k.
func (b BiMap[K, V]) Get(k K) (V, bool) {
	v, ok := b.forward[k]
	return v, ok
}

// GetKey returns the key bound to v.
func (b BiMap[K, V]) GetKey(v V) (K, bool) {
	k, ok := b.inverse[v]
	return k, ok
}

// Inverse returns the value-to-key view of b.
func (b BiMap[K, V]) Inverse() BiMap[V, K] {
	keys := make([]V, len(b.keys))
	for i, k := range b.keys {
		keys[i] = b.forward[k]
	}
	return BiMap[V, K]{keys: keys, forward: b.inverse, inverse: b.forward}
}

// Len returns the number of entries.
func (b BiMap[K, V]) Len() int { return len(b.keys) }

// Keys returns a copy of the keys in order.
func (b BiMap[K, V]) Keys() []K { return slices.Clone(b.keys) }

// All iterates over the entries in order.
func (b BiMap[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for _, k := range b.keys {
			if !yield(k, b.forward[k]) {
				return
			}
		}
	}
}

func (BiMap[K, V]) shape() shapeKind { return shapeBiMap }

func (BiMap[K, V]) containerCodec(r *Registry) Untyped {
	return Erase[BiMap[K, V]](biMapCodec[K, V]{reg: r})
}

type biMapCodec[K, V comparable] struct {
	reg *Registry
}

func (c biMapCodec[K, V]) Write(w *Writer, b BiMap[K, V]) error {
	return writeEntries(c.reg, w, b.All())
}

func (c biMapCodec[K, V]) Read(r *Reader) (BiMap[K, V], error) {
	b := BiMap[K, V]{forward: make(map[K]V), inverse: make(map[V]K)}
	err := readEntries(c.reg, r, func(k K, name string, v V) error {
		if err := b.put(k, v); err != nil {
			return &ParseError{Input: name, Msg: fmt.Sprintf("invalid bimap entry %q", name), Err: err}
		}
		return nil
	})
	if err != nil {
		return BiMap[K, V]{}, err
	}
	return b, nil
}

// readNull consumes a JSON null if one is next.
func readNull(r *Reader) (bool, error) {
	k, err := r.Peek()
	if err != nil || k != KindNull {
		return false, err
	}
	return true, r.NextNull()
}

func writeEntries[K, V any](reg *Registry, w *Writer, entries iter.Seq2[K, V]) error {
	kc, err := Lookup[K](reg)
	if err != nil {
		return err
	}
	vc, err := Lookup[V](reg)
	if err != nil {
		return err
	}
	if err := w.BeginObject(); err != nil {
		return err
	}
	for k, v := range entries {
		name, err := keyName(kc, k)
		if err != nil {
			return err
		}
		if err := w.Name(name); err != nil {
			return err
		}
		if err := vc.Write(w, v); err != nil {
			return fmt.Errorf("%q: %w", name, err)
		}
	}
	return w.EndObject()
}

// keyName encodes k with its codec, which must produce a JSON string.
func keyName[K any](kc Codec[K], k K) (string, error) {
	kw := NewWriter()
	if err := kc.Write(kw, k); err != nil {
		return "", err
	}
	var name string
	if err := json.Unmarshal(kw.Bytes(), &name); err != nil {
		return "", &SyntaxError{
			Msg:    fmt.Sprintf("map key of type %s must encode as a JSON string, got %s", reflect.TypeFor[K](), kw.Bytes()),
			Offset: -1,
		}
	}
	return name, nil
}

func readEntries[K, V any](reg *Registry, r *Reader, put func(k K, name string, v V) error) error {
	if null, err := readNull(r); null || err != nil {
		return err
	}
	kc, err := Lookup[K](reg)
	if err != nil {
		return err
	}
	vc, err := Lookup[V](reg)
	if err != nil {
		return err
	}
	if err := r.BeginObject(); err != nil {
		return err
	}
	for {
		more, err := r.HasNext()
		if err != nil {
			return err
		}
		if !more {
			break
		}
		name, err := r.NextName()
		if err != nil {
			return err
		}
		k, err := kc.Read(stringReader(name))
		if err != nil {
			return err
		}
		v, err := vc.Read(r)
		if err != nil {
			return fmt.Errorf("%q: %w", name, err)
		}
		if err := put(k, name, v); err != nil {
			return err
		}
	}
	return r.EndObject()
}
