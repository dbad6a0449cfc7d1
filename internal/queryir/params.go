package queryir

import (
	"github.com/roach88/docql/internal/value"
)

// Params is a parameter table: bound values keyed by parameter name, in the
// order they were bound.
//
// A Params is owned by a single compile call. It is not safe for concurrent
// mutation.
type Params struct {
	names  []string
	values map[string]value.Value
}

// NewParams creates an empty parameter table.
func NewParams() *Params {
	return &Params{values: make(map[string]value.Value)}
}

// Bind stores v under name. Rebinding a name replaces its value and keeps its
// original position.
func (p *Params) Bind(name string, v value.Value) {
	if p.values == nil {
		p.values = make(map[string]value.Value)
	}
	if _, ok := p.values[name]; !ok {
		p.names = append(p.names, name)
	}
	p.values[name] = v
}

// Get returns the value bound to name.
func (p *Params) Get(name string) (value.Value, bool) {
	if p == nil {
		return nil, false
	}
	v, ok := p.values[name]
	return v, ok
}

// Len returns the number of bound parameters.
func (p *Params) Len() int {
	if p == nil {
		return 0
	}
	return len(p.names)
}

// Names returns parameter names in binding order.
func (p *Params) Names() []string {
	if p == nil {
		return nil
	}
	out := make([]string, len(p.names))
	copy(out, p.names)
	return out
}

// Map returns the table as a plain map.
func (p *Params) Map() map[string]value.Value {
	out := make(map[string]value.Value, p.Len())
	if p == nil {
		return out
	}
	for k, v := range p.values {
		out[k] = v
	}
	return out
}

// Object returns the table as an ordered object, in binding order.
func (p *Params) Object() value.Object {
	out := make(value.Object, 0, p.Len())
	if p == nil {
		return out
	}
	for _, name := range p.names {
		out = append(out, value.M(name, p.values[name]))
	}
	return out
}

// Merge binds every entry of other into p, in other's order.
func (p *Params) Merge(other *Params) {
	if other == nil {
		return
	}
	for _, name := range other.names {
		p.Bind(name, other.values[name])
	}
}

// MarshalJSON renders the table as a JSON object in binding order.
func (p *Params) MarshalJSON() ([]byte, error) {
	return p.Object().MarshalJSON()
}
