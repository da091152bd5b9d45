package codec

import (
	"encoding/json"
	"math"
)

// StringCodec reads and writes JSON strings.
var StringCodec = Of(
	func(w *Writer, s string) error { return w.String(s) },
	func(r *Reader) (string, error) { return r.NextString() },
)

// BoolCodec reads and writes JSON booleans.
var BoolCodec = Of(
	func(w *Writer, b bool) error { return w.Bool(b) },
	func(r *Reader) (bool, error) { return r.NextBool() },
)

// Int64Codec reads and writes JSON integers.
var Int64Codec = Of(
	func(w *Writer, n int64) error { return w.Int(n) },
	func(r *Reader) (int64, error) { return r.NextInt() },
)

// IntCodec reads and writes JSON integers that fit in an int.
var IntCodec = Of(
	func(w *Writer, n int) error { return w.Int(int64(n)) },
	func(r *Reader) (int, error) {
		n, err := r.NextInt()
		if err != nil {
			return 0, err
		}
		if n < math.MinInt || n > math.MaxInt {
			return 0, r.errorf("integer %d overflows int", n)
		}
		return int(n), nil
	},
)

// Float64Codec reads and writes JSON numbers as float64.
var Float64Codec = Of(
	func(w *Writer, f float64) error { return w.Float(f) },
	func(r *Reader) (float64, error) { return r.NextFloat() },
)

// RawCodec passes arbitrary JSON values through unchanged, compacted.
var RawCodec = Of(
	func(w *Writer, m json.RawMessage) error {
		if m == nil {
			return w.Null()
		}
		return w.Raw(m)
	},
	func(r *Reader) (json.RawMessage, error) { return r.NextRaw() },
)

func registerPrimitives(b *Builder) {
	Register(b, StringCodec)
	Register(b, BoolCodec)
	Register(b, IntCodec)
	Register(b, Int64Codec)
	Register(b, Float64Codec)
	Register(b, RawCodec)
}
