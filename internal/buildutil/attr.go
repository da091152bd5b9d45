// Package buildutil extracts attribute values from buildtools AST nodes.
package buildutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/bazelbuild/buildtools/build"
)

// Attr returns the expression bound to the named keyword argument of call,
// or nil if there is none.
func Attr(call *build.CallExpr, name string) build.Expr {
	for _, arg := range call.List {
		assign, ok := arg.(*build.AssignExpr)
		if !ok {
			continue
		}
		if lhs, ok := assign.LHS.(*build.Ident); ok && lhs.Name == name {
			return assign.RHS
		}
	}
	return nil
}

// String extracts a string keyword argument. If name is empty, the first
// positional argument is used instead.
// Returns "" if the argument is missing or not a string literal.
func String(call *build.CallExpr, name string) string {
	var expr build.Expr
	if name == "" {
		if len(call.List) > 0 {
			expr = call.List[0]
		}
	} else {
		expr = Attr(call, name)
	}
	if str, ok := expr.(*build.StringExpr); ok {
		return str.Value
	}
	return ""
}

// Int extracts an integer keyword argument.
// Returns 0 if the argument is missing or not an integer literal.
func Int(call *build.CallExpr, name string) int {
	if lit, ok := Attr(call, name).(*build.LiteralExpr); ok {
		if val, err := strconv.Atoi(lit.Token); err == nil {
			return val
		}
	}
	return 0
}

// Bool extracts a boolean keyword argument. Anything but True is false.
func Bool(call *build.CallExpr, name string) bool {
	ident, ok := Attr(call, name).(*build.Ident)
	return ok && ident.Name == "True"
}

// PositionalStrings returns the positional string arguments of call,
// skipping the first skip arguments.
func PositionalStrings(call *build.CallExpr, skip int) []string {
	var result []string
	for i, arg := range call.List {
		if i < skip {
			continue
		}
		if str, ok := arg.(*build.StringExpr); ok {
			result = append(result, str.Value)
		}
	}
	return result
}

// FuncName returns the name of a plain function call, or "" for method
// calls such as ext.tag().
func FuncName(call *build.CallExpr) string {
	if ident, ok := call.X.(*build.Ident); ok {
		return ident.Name
	}
	return ""
}

// Position returns the 1-based line and column where expr starts.
func Position(expr build.Expr) (line, column int) {
	start, _ := expr.Span()
	return start.Line, start.LineRune
}

// JSON converts a Starlark literal to JSON. Strings, integers, True, False,
// None, lists, tuples and dicts with string keys are supported; dict order
// is preserved.
func JSON(expr build.Expr) (json.RawMessage, error) {
	var buf bytes.Buffer
	if err := writeJSON(&buf, expr); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeJSON(buf *bytes.Buffer, expr build.Expr) error {
	switch e := expr.(type) {
	case *build.StringExpr:
		enc := json.NewEncoder(buf)
		enc.SetEscapeHTML(false)
		if err := enc.Encode(e.Value); err != nil {
			return err
		}
		buf.Truncate(buf.Len() - 1) // Encode appends a newline
	case *build.LiteralExpr:
		n, err := strconv.ParseInt(e.Token, 0, 64)
		if err != nil {
			return fmt.Errorf("unsupported literal %s", e.Token)
		}
		buf.WriteString(strconv.FormatInt(n, 10))
	case *build.UnaryExpr:
		lit, ok := e.X.(*build.LiteralExpr)
		if e.Op != "-" || !ok {
			return fmt.Errorf("unsupported expression %s", build.FormatString(e))
		}
		n, err := strconv.ParseInt(lit.Token, 0, 64)
		if err != nil {
			return fmt.Errorf("unsupported literal -%s", lit.Token)
		}
		buf.WriteString(strconv.FormatInt(-n, 10))
	case *build.Ident:
		switch e.Name {
		case "True":
			buf.WriteString("true")
		case "False":
			buf.WriteString("false")
		case "None":
			buf.WriteString("null")
		default:
			return fmt.Errorf("unsupported identifier %s", e.Name)
		}
	case *build.ListExpr:
		return writeJSONList(buf, e.List)
	case *build.TupleExpr:
		return writeJSONList(buf, e.List)
	case *build.DictExpr:
		buf.WriteByte('{')
		for i, kv := range e.List {
			key, ok := kv.Key.(*build.StringExpr)
			if !ok {
				return fmt.Errorf("unsupported dict key %s", build.FormatString(kv.Key))
			}
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeJSON(buf, key); err != nil {
				return err
			}
			buf.WriteByte(':')
			if err := writeJSON(buf, kv.Value); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	default:
		return fmt.Errorf("unsupported expression %s", build.FormatString(expr))
	}
	return nil
}

func writeJSONList(buf *bytes.Buffer, items []build.Expr) error {
	buf.WriteByte('[')
	for i, item := range items {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeJSON(buf, item); err != nil {
			return err
		}
	}
	buf.WriteByte(']')
	return nil
}
