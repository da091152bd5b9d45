package codec

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
)

func TestWriter(t *testing.T) {
	w := NewWriter()
	steps := []func() error{
		w.BeginObject,
		func() error { return w.Name("key") },
		func() error { return w.String("<root>") },
		func() error { return w.Name("list") },
		w.BeginArray,
		func() error { return w.Int(1) },
		func() error { return w.Float(2.5) },
		func() error { return w.Bool(true) },
		w.Null,
		func() error { return w.Raw(json.RawMessage(`{ "a" : [1, 2] }`)) },
		w.EndArray,
		w.EndObject,
	}
	for i, step := range steps {
		if err := step(); err != nil {
			t.Fatalf("step %d failed: %v", i, err)
		}
	}

	want := `{"key":"<root>","list":[1,2.5,true,null,{"a":[1,2]}]}`
	if got := string(w.Bytes()); got != want {
		t.Errorf("Bytes() = %s, want %s", got, want)
	}
	if !w.Complete() {
		t.Error("Complete() = false after a full value")
	}
}

func TestWriter_Errors(t *testing.T) {
	tests := []struct {
		name string
		run  func(w *Writer) error
	}{
		{"value without name", func(w *Writer) error {
			_ = w.BeginObject()
			return w.String("x")
		}},
		{"name outside object", func(w *Writer) error {
			return w.Name("x")
		}},
		{"two top-level values", func(w *Writer) error {
			_ = w.String("a")
			return w.String("b")
		}},
		{"unbalanced end", func(w *Writer) error {
			_ = w.BeginArray()
			return w.EndObject()
		}},
		{"NaN", func(w *Writer) error {
			return w.Float(math.NaN())
		}},
		{"invalid raw", func(w *Writer) error {
			return w.Raw(json.RawMessage(`{`))
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.run(NewWriter())
			var syntaxErr *SyntaxError
			if !errors.As(err, &syntaxErr) {
				t.Errorf("error = %v, want *SyntaxError", err)
			}
		})
	}
}

func TestReader_Tokens(t *testing.T) {
	r := NewReader([]byte(`{"a": ["x", 1, true, null], "b": {"c": 2}}`))

	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatal(err)
		}
	}
	peek := func(want Kind) {
		t.Helper()
		k, err := r.Peek()
		must(err)
		if k != want {
			t.Fatalf("Peek() = %s, want %s", k, want)
		}
	}

	peek(KindBeginObject)
	must(r.BeginObject())
	peek(KindName)
	name, err := r.NextName()
	must(err)
	if name != "a" {
		t.Errorf("NextName() = %q, want a", name)
	}
	must(r.BeginArray())
	s, err := r.NextString()
	must(err)
	if s != "x" {
		t.Errorf("NextString() = %q", s)
	}
	n, err := r.NextInt()
	must(err)
	if n != 1 {
		t.Errorf("NextInt() = %d", n)
	}
	b, err := r.NextBool()
	must(err)
	if !b {
		t.Error("NextBool() = false")
	}
	must(r.NextNull())
	more, err := r.HasNext()
	must(err)
	if more {
		t.Error("HasNext() = true at end of array")
	}
	must(r.EndArray())
	peek(KindName)
	_, err = r.NextName()
	must(err)
	raw, err := r.NextRaw()
	must(err)
	if string(raw) != `{"c":2}` {
		t.Errorf("NextRaw() = %s", raw)
	}
	must(r.EndObject())
	must(r.End())
}

func TestReader_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		read  func(r *Reader) error
	}{
		{"wrong kind", `1`, func(r *Reader) error {
			_, err := r.NextString()
			return err
		}},
		{"truncated", `{"a":`, func(r *Reader) error {
			return r.Skip()
		}},
		{"malformed", `{"a" 1}`, func(r *Reader) error {
			return r.Skip()
		}},
		{"trailing", `1 2`, func(r *Reader) error {
			if err := r.Skip(); err != nil {
				return err
			}
			return r.End()
		}},
		{"name as value", `{"a":1}`, func(r *Reader) error {
			if err := r.BeginObject(); err != nil {
				return err
			}
			_, err := r.NextString()
			return err
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.read(NewReader([]byte(tt.input)))
			var syntaxErr *SyntaxError
			if !errors.As(err, &syntaxErr) {
				t.Errorf("error = %v, want *SyntaxError", err)
			}
		})
	}
}

func TestReader_IntOverflow(t *testing.T) {
	_, err := NewReader([]byte(`1e3`)).NextInt()
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Errorf("error = %v, want *ParseError", err)
	}
}
