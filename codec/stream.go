package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
)

// Writer emits compact JSON one token at a time.
// Strings are written without HTML escaping, so "<root>" stays "<root>".
type Writer struct {
	buf     bytes.Buffer
	scratch bytes.Buffer
	enc     *json.Encoder
	stack   []writeScope
	done    bool // a top-level value has been started
}

type writeScope struct {
	object   bool
	count    int
	haveName bool
}

// NewWriter returns an empty Writer.
func NewWriter() *Writer {
	w := &Writer{}
	w.enc = json.NewEncoder(&w.scratch)
	w.enc.SetEscapeHTML(false)
	return w
}

// Bytes returns the JSON written so far.
func (w *Writer) Bytes() []byte {
	return w.buf.Bytes()
}

// Complete reports whether exactly one top-level value has been fully written.
func (w *Writer) Complete() bool {
	return w.done && len(w.stack) == 0
}

func (w *Writer) top() *writeScope {
	if len(w.stack) == 0 {
		return nil
	}
	return &w.stack[len(w.stack)-1]
}

func (w *Writer) beforeValue() error {
	s := w.top()
	if s == nil {
		if w.done {
			return &SyntaxError{Msg: "multiple top-level values", Offset: -1}
		}
		w.done = true
		return nil
	}
	if s.object {
		if !s.haveName {
			return &SyntaxError{Msg: "object value written without a name", Offset: -1}
		}
		s.haveName = false
		return nil
	}
	if s.count > 0 {
		w.buf.WriteByte(',')
	}
	s.count++
	return nil
}

// Name writes an object member name. The next value written belongs to it.
func (w *Writer) Name(name string) error {
	s := w.top()
	if s == nil || !s.object {
		return &SyntaxError{Msg: fmt.Sprintf("name %q written outside an object", name), Offset: -1}
	}
	if s.haveName {
		return &SyntaxError{Msg: fmt.Sprintf("name %q written twice without a value", name), Offset: -1}
	}
	if s.count > 0 {
		w.buf.WriteByte(',')
	}
	s.count++
	w.writeString(name)
	w.buf.WriteByte(':')
	s.haveName = true
	return nil
}

// BeginObject opens an object.
func (w *Writer) BeginObject() error {
	if err := w.beforeValue(); err != nil {
		return err
	}
	w.buf.WriteByte('{')
	w.stack = append(w.stack, writeScope{object: true})
	return nil
}

// EndObject closes the innermost object.
func (w *Writer) EndObject() error {
	s := w.top()
	if s == nil || !s.object || s.haveName {
		return &SyntaxError{Msg: "unbalanced EndObject", Offset: -1}
	}
	w.buf.WriteByte('}')
	w.stack = w.stack[:len(w.stack)-1]
	return nil
}

// BeginArray opens an array.
func (w *Writer) BeginArray() error {
	if err := w.beforeValue(); err != nil {
		return err
	}
	w.buf.WriteByte('[')
	w.stack = append(w.stack, writeScope{})
	return nil
}

// EndArray closes the innermost array.
func (w *Writer) EndArray() error {
	s := w.top()
	if s == nil || s.object {
		return &SyntaxError{Msg: "unbalanced EndArray", Offset: -1}
	}
	w.buf.WriteByte(']')
	w.stack = w.stack[:len(w.stack)-1]
	return nil
}

// String writes a string value.
func (w *Writer) String(s string) error {
	if err := w.beforeValue(); err != nil {
		return err
	}
	w.writeString(s)
	return nil
}

func (w *Writer) writeString(s string) {
	w.scratch.Reset()
	_ = w.enc.Encode(s) // encoding a string cannot fail
	w.buf.Write(bytes.TrimSuffix(w.scratch.Bytes(), []byte{'\n'}))
}

// Bool writes a boolean value.
func (w *Writer) Bool(b bool) error {
	if err := w.beforeValue(); err != nil {
		return err
	}
	w.buf.WriteString(strconv.FormatBool(b))
	return nil
}

// Int writes an integer value.
func (w *Writer) Int(n int64) error {
	if err := w.beforeValue(); err != nil {
		return err
	}
	w.buf.WriteString(strconv.FormatInt(n, 10))
	return nil
}

// Float writes a floating point value. NaN and infinities are rejected.
func (w *Writer) Float(f float64) error {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return &SyntaxError{Msg: fmt.Sprintf("unsupported float value %v", f), Offset: -1}
	}
	if err := w.beforeValue(); err != nil {
		return err
	}
	w.buf.WriteString(strconv.FormatFloat(f, 'g', -1, 64))
	return nil
}

// Number writes a JSON number literal verbatim.
func (w *Writer) Number(n json.Number) error {
	if !json.Valid([]byte(n)) {
		return &SyntaxError{Msg: fmt.Sprintf("invalid number literal %q", string(n)), Offset: -1}
	}
	if err := w.beforeValue(); err != nil {
		return err
	}
	w.buf.WriteString(string(n))
	return nil
}

// Null writes a null value.
func (w *Writer) Null() error {
	if err := w.beforeValue(); err != nil {
		return err
	}
	w.buf.WriteString("null")
	return nil
}

// Raw writes an already-encoded JSON value, compacted.
func (w *Writer) Raw(msg json.RawMessage) error {
	if !json.Valid(msg) {
		return &SyntaxError{Msg: "invalid raw JSON value", Offset: -1}
	}
	if err := w.beforeValue(); err != nil {
		return err
	}
	return json.Compact(&w.buf, msg)
}

// Kind identifies the next token available from a Reader.
type Kind int

const (
	KindEOF Kind = iota
	KindBeginObject
	KindEndObject
	KindBeginArray
	KindEndArray
	KindName
	KindString
	KindNumber
	KindBool
	KindNull
)

var kindNames = [...]string{
	KindEOF:         "end of input",
	KindBeginObject: "object",
	KindEndObject:   "end of object",
	KindBeginArray:  "array",
	KindEndArray:    "end of array",
	KindName:        "name",
	KindString:      "string",
	KindNumber:      "number",
	KindBool:        "boolean",
	KindNull:        "null",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

// Reader pulls JSON tokens from an input with one token of lookahead.
type Reader struct {
	dec    *json.Decoder
	peeked bool
	eof    bool
	tok    json.Token
	stack  []readScope
}

type readScope struct {
	object   bool
	wantName bool
}

// NewReader returns a Reader over data.
func NewReader(data []byte) *Reader {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return &Reader{dec: dec}
}

// stringReader returns a Reader positioned on a single string value.
func stringReader(s string) *Reader {
	w := NewWriter()
	_ = w.String(s)
	return NewReader(w.Bytes())
}

// Offset returns the input offset of the most recently read token.
func (r *Reader) Offset() int64 {
	return r.dec.InputOffset()
}

func (r *Reader) errorf(format string, args ...any) error {
	return &SyntaxError{Msg: fmt.Sprintf(format, args...), Offset: r.Offset()}
}

func (r *Reader) fill() error {
	if r.peeked {
		return nil
	}
	tok, err := r.dec.Token()
	switch {
	case errors.Is(err, io.EOF):
		if len(r.stack) > 0 {
			return r.errorf("unexpected end of JSON input")
		}
		r.eof = true
		r.tok = nil
	case err != nil:
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return r.errorf("unexpected end of JSON input")
		}
		return r.errorf("%v", err)
	default:
		r.eof = false
		r.tok = tok
	}
	r.peeked = true
	return nil
}

// Peek returns the kind of the next token without consuming it.
func (r *Reader) Peek() (Kind, error) {
	if err := r.fill(); err != nil {
		return KindEOF, err
	}
	if r.eof {
		return KindEOF, nil
	}
	switch t := r.tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			return KindBeginObject, nil
		case '}':
			return KindEndObject, nil
		case '[':
			return KindBeginArray, nil
		default:
			return KindEndArray, nil
		}
	case string:
		if s := r.top(); s != nil && s.object && s.wantName {
			return KindName, nil
		}
		return KindString, nil
	case json.Number:
		return KindNumber, nil
	case bool:
		return KindBool, nil
	default:
		return KindNull, nil
	}
}

func (r *Reader) top() *readScope {
	if len(r.stack) == 0 {
		return nil
	}
	return &r.stack[len(r.stack)-1]
}

// expect consumes the next token, which must be of kind want.
func (r *Reader) expect(want Kind) (json.Token, error) {
	got, err := r.Peek()
	if err != nil {
		return nil, err
	}
	if got != want {
		return nil, r.errorf("expected %s, found %s", want, got)
	}
	r.peeked = false
	return r.tok, nil
}

// afterValue records that a complete value was consumed in the current scope.
func (r *Reader) afterValue() {
	if s := r.top(); s != nil && s.object {
		s.wantName = true
	}
}

// BeginObject consumes the opening of an object.
func (r *Reader) BeginObject() error {
	if _, err := r.expect(KindBeginObject); err != nil {
		return err
	}
	r.stack = append(r.stack, readScope{object: true, wantName: true})
	return nil
}

// EndObject consumes the end of the innermost object.
func (r *Reader) EndObject() error {
	if _, err := r.expect(KindEndObject); err != nil {
		return err
	}
	r.stack = r.stack[:len(r.stack)-1]
	r.afterValue()
	return nil
}

// BeginArray consumes the opening of an array.
func (r *Reader) BeginArray() error {
	if _, err := r.expect(KindBeginArray); err != nil {
		return err
	}
	r.stack = append(r.stack, readScope{})
	return nil
}

// EndArray consumes the end of the innermost array.
func (r *Reader) EndArray() error {
	if _, err := r.expect(KindEndArray); err != nil {
		return err
	}
	r.stack = r.stack[:len(r.stack)-1]
	r.afterValue()
	return nil
}

// HasNext reports whether the current object or array has more elements.
func (r *Reader) HasNext() (bool, error) {
	k, err := r.Peek()
	if err != nil {
		return false, err
	}
	return k != KindEndObject && k != KindEndArray && k != KindEOF, nil
}

// NextName consumes an object member name.
func (r *Reader) NextName() (string, error) {
	tok, err := r.expect(KindName)
	if err != nil {
		return "", err
	}
	r.top().wantName = false
	return tok.(string), nil
}

// NextString consumes a string value.
func (r *Reader) NextString() (string, error) {
	tok, err := r.expect(KindString)
	if err != nil {
		return "", err
	}
	r.afterValue()
	return tok.(string), nil
}

// NextBool consumes a boolean value.
func (r *Reader) NextBool() (bool, error) {
	tok, err := r.expect(KindBool)
	if err != nil {
		return false, err
	}
	r.afterValue()
	return tok.(bool), nil
}

// NextNumber consumes a number value as its literal text.
func (r *Reader) NextNumber() (json.Number, error) {
	tok, err := r.expect(KindNumber)
	if err != nil {
		return "", err
	}
	r.afterValue()
	return tok.(json.Number), nil
}

// NextInt consumes an integer value.
func (r *Reader) NextInt() (int64, error) {
	n, err := r.NextNumber()
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseInt(string(n), 10, 64)
	if err != nil {
		return 0, &ParseError{Input: string(n), Msg: fmt.Sprintf("invalid integer %s", n), Err: err}
	}
	return v, nil
}

// NextFloat consumes a number value as a float64.
func (r *Reader) NextFloat() (float64, error) {
	n, err := r.NextNumber()
	if err != nil {
		return 0, err
	}
	v, err := n.Float64()
	if err != nil {
		return 0, &ParseError{Input: string(n), Msg: fmt.Sprintf("invalid number %s", n), Err: err}
	}
	return v, nil
}

// NextNull consumes a null value.
func (r *Reader) NextNull() error {
	if _, err := r.expect(KindNull); err != nil {
		return err
	}
	r.afterValue()
	return nil
}

// NextRaw consumes the next value, whatever its shape, and returns it as
// compact JSON.
func (r *Reader) NextRaw() (json.RawMessage, error) {
	w := NewWriter()
	if err := r.copyValue(w); err != nil {
		return nil, err
	}
	return json.RawMessage(bytes.Clone(w.Bytes())), nil
}

// Skip consumes and discards the next value.
func (r *Reader) Skip() error {
	_, err := r.NextRaw()
	return err
}

func (r *Reader) copyValue(w *Writer) error {
	k, err := r.Peek()
	if err != nil {
		return err
	}
	switch k {
	case KindBeginObject:
		if err := r.BeginObject(); err != nil {
			return err
		}
		if err := w.BeginObject(); err != nil {
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
			if err := w.Name(name); err != nil {
				return err
			}
			if err := r.copyValue(w); err != nil {
				return err
			}
		}
		if err := r.EndObject(); err != nil {
			return err
		}
		return w.EndObject()
	case KindBeginArray:
		if err := r.BeginArray(); err != nil {
			return err
		}
		if err := w.BeginArray(); err != nil {
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
			if err := r.copyValue(w); err != nil {
				return err
			}
		}
		if err := r.EndArray(); err != nil {
			return err
		}
		return w.EndArray()
	case KindString:
		s, err := r.NextString()
		if err != nil {
			return err
		}
		return w.String(s)
	case KindNumber:
		n, err := r.NextNumber()
		if err != nil {
			return err
		}
		return w.Number(n)
	case KindBool:
		b, err := r.NextBool()
		if err != nil {
			return err
		}
		return w.Bool(b)
	case KindNull:
		if err := r.NextNull(); err != nil {
			return err
		}
		return w.Null()
	default:
		return r.errorf("expected a value, found %s", k)
	}
}

// End verifies that the input holds nothing after the top-level value.
func (r *Reader) End() error {
	k, err := r.Peek()
	if err != nil {
		return err
	}
	if k != KindEOF {
		return r.errorf("unexpected %s after top-level value", k)
	}
	return nil
}
