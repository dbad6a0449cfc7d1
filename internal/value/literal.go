package value

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Literal renders v in structural literal syntax: JSON arrays, objects,
// numbers, booleans and null, with double-quoted strings. Object members keep
// their order. HTML characters are not escaped.
//
// Literal does not produce the single-quoted string form used for top-level
// string parameters; that belongs to the inliner.
func Literal(v Value) (string, error) {
	var buf bytes.Buffer
	if err := writeLiteral(&buf, v); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func writeLiteral(buf *bytes.Buffer, v Value) error {
	switch val := v.(type) {
	case nil:
		return fmt.Errorf("missing value has no literal form")
	case Null:
		buf.WriteString("null")
	case String:
		return writeQuoted(buf, string(val))
	case Pattern:
		return writeQuoted(buf, string(val))
	case Int:
		buf.WriteString(strconv.FormatInt(int64(val), 10))
	case Float:
		f := float64(val)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("non-finite number %v has no literal form", f)
		}
		// encoding/json picks the shortest representation, switching to
		// exponent form outside [1e-6, 1e21) the way JSON.stringify does
		b, err := json.Marshal(f)
		if err != nil {
			return err
		}
		buf.Write(b)
	case Bool:
		if val {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case Array:
		buf.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeLiteral(buf, elem); err != nil {
				return fmt.Errorf("array[%d]: %w", i, err)
			}
		}
		buf.WriteByte(']')
	case Object:
		buf.WriteByte('{')
		for i, m := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeQuoted(buf, m.Key); err != nil {
				return err
			}
			buf.WriteByte(':')
			if err := writeLiteral(buf, m.Value); err != nil {
				return fmt.Errorf("object[%q]: %w", m.Key, err)
			}
		}
		buf.WriteByte('}')
	default:
		return fmt.Errorf("unknown value type: %T", v)
	}
	return nil
}

// writeQuoted writes s as a double-quoted JSON string without HTML escaping.
func writeQuoted(buf *bytes.Buffer, s string) error {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	// json.Encoder adds a trailing newline
	buf.Write(bytes.TrimSuffix(tmp.Bytes(), []byte("\n")))
	return nil
}

// MarshalJSON implements json.Marshaler for Null.
func (Null) MarshalJSON() ([]byte, error) {
	return []byte("null"), nil
}

// MarshalJSON implements json.Marshaler for Object, keeping member order.
func (o Object) MarshalJSON() ([]byte, error) {
	s, err := Literal(o)
	if err != nil {
		return nil, err
	}
	return []byte(s), nil
}

// MarshalJSON implements json.Marshaler for Array so nested objects keep order.
func (a Array) MarshalJSON() ([]byte, error) {
	s, err := Literal(a)
	if err != nil {
		return nil, err
	}
	return []byte(s), nil
}

// ToAny converts v to plain Go values: map[string]any, []any, string,
// int64, float64, bool and nil.
func ToAny(v Value) any {
	switch val := v.(type) {
	case String:
		return string(val)
	case Pattern:
		return string(val)
	case Int:
		return int64(val)
	case Float:
		return float64(val)
	case Bool:
		return bool(val)
	case Array:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = ToAny(elem)
		}
		return out
	case Object:
		out := make(map[string]any, len(val))
		for _, m := range val {
			out[m.Key] = ToAny(m.Value)
		}
		return out
	default:
		return nil
	}
}
