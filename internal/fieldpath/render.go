package fieldpath

import "github.com/roach88/docql/internal/qerr"

// Template is a path rendered in predicate mode.
//
// Field is the expression a predicate compares against. For wildcard paths
// Field is relative to the element variable and the predicate must be wrapped
// with Apply, which places it inside the context template
// ANY `elem` IN <array> SATISFIES %s END.
type Template struct {
	Field  string
	prefix string
	suffix string
}

// Context returns the wrapping template with a %s placeholder, or "" when
// the path has no wildcard.
func (t Template) Context() string {
	if t.prefix == "" {
		return ""
	}
	return t.prefix + "%s" + t.suffix
}

// Apply wraps a predicate rendered over Field in the path's context.
func (t Template) Apply(predicate string) string {
	if t.prefix == "" {
		return predicate
	}
	return t.prefix + predicate + t.suffix
}

// Predicate renders p in predicate mode.
func (p Path) Predicate() Template {
	if p.meta {
		return Template{Field: MetaID}
	}
	array, rest, ok := p.Split()
	if !ok {
		return Template{Field: Render("", p.segments)}
	}
	return Template{
		Field:  Render(Elem, rest),
		prefix: "ANY " + Quote(Elem) + " IN " + Render("", array) + " SATISFIES ",
		suffix: " END",
	}
}

// IndexKey renders p in index-definition mode. A wildcard yields an array
// projection, since index keys cannot be boolean predicates.
func (p Path) IndexKey() string {
	if p.meta {
		return MetaID
	}
	array, rest, ok := p.Split()
	if !ok {
		return Render("", p.segments)
	}
	return "DISTINCT ARRAY " + Render(Elem, rest) + " FOR " + Quote(Elem) + " IN " + Render("", array) + " END"
}

// Plain renders p as a single field expression for contexts that cannot hold
// an array quantifier, such as ORDER BY terms and projections.
func (p Path) Plain() (string, error) {
	if p.HasWildcard() {
		return "", qerr.Syntax(p.raw, "wildcard not allowed here")
	}
	return p.Predicate().Field, nil
}
