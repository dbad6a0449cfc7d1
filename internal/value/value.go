package value

import "regexp"

// Value is a sealed interface representing a literal value.
type Value interface {
	value() // Sealed - only types in this package implement it
}

// Null represents a JSON null.
type Null struct{}

func (Null) value() {}

// String represents a string literal.
type String string

func (String) value() {}

// Int represents an integral number.
type Int int64

func (Int) value() {}

// Float represents a non-integral number.
type Float float64

func (Float) value() {}

// Bool represents a boolean literal.
type Bool bool

func (Bool) value() {}

// Array represents an ordered sequence of values.
type Array []Value

func (Array) value() {}

// Member is one key/value pair of an Object.
type Member struct {
	Key   string
	Value Value
}

// Object represents a mapping with preserved member order.
// Keys are unique; decoders keep the last occurrence of a duplicated key.
type Object []Member

func (Object) value() {}

// Pattern is a regular-expression operand. It only appears when a filter is
// built from Go values holding a *regexp.Regexp; JSON input carries patterns
// as plain strings.
type Pattern string

func (Pattern) value() {}

// Get returns the value stored under key.
func (o Object) Get(key string) (Value, bool) {
	for _, m := range o {
		if m.Key == key {
			return m.Value, true
		}
	}
	return nil, false
}

// Has reports whether key is present.
func (o Object) Has(key string) bool {
	_, ok := o.Get(key)
	return ok
}

// Keys returns member keys in order.
func (o Object) Keys() []string {
	keys := make([]string, len(o))
	for i, m := range o {
		keys[i] = m.Key
	}
	return keys
}

// Without returns a copy of o with the named keys removed.
// The receiver is never modified.
func (o Object) Without(keys ...string) Object {
	out := make(Object, 0, len(o))
	for _, m := range o {
		drop := false
		for _, k := range keys {
			if m.Key == k {
				drop = true
				break
			}
		}
		if !drop {
			out = append(out, m)
		}
	}
	return out
}

// set replaces an existing member or appends a new one.
func (o Object) set(key string, v Value) Object {
	for i := range o {
		if o[i].Key == key {
			o[i].Value = v
			return o
		}
	}
	return append(o, Member{Key: key, Value: v})
}

// M builds a Member. Shorthand for constructing objects in code and tests:
//
//	value.Object{value.M("name", value.String("foo"))}
func M(key string, v Value) Member {
	return Member{Key: key, Value: v}
}

// FromRegexp converts a compiled expression to a Pattern holding its source.
func FromRegexp(re *regexp.Regexp) Pattern {
	return Pattern(re.String())
}

// Kind returns a short lowercase name of the value's shape, used in error messages.
func Kind(v Value) string {
	switch v.(type) {
	case nil:
		return "missing"
	case Null:
		return "null"
	case String:
		return "string"
	case Int, Float:
		return "number"
	case Bool:
		return "boolean"
	case Array:
		return "array"
	case Object:
		return "object"
	case Pattern:
		return "regexp"
	default:
		return "unknown"
	}
}

// IsScalar reports whether v is a string, number, boolean or pattern.
func IsScalar(v Value) bool {
	switch v.(type) {
	case String, Int, Float, Bool, Pattern:
		return true
	default:
		return false
	}
}
