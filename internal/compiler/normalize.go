package compiler

import "github.com/roach88/docql/internal/filter"

// Normalize splits a group into its and-sequence and or-sequence. Field
// predicates written beside the "and"/"or" keys are appended to the
// and-sequence as one more clause. The group itself is left untouched.
func Normalize(g *filter.Group) (ands, ors []filter.Expression) {
	ands = make([]filter.Expression, 0, len(g.And)+1)
	ands = append(ands, g.And...)
	if len(g.Fields) > 0 {
		fields := make([]filter.Field, len(g.Fields))
		copy(fields, g.Fields)
		ands = append(ands, &filter.Leaf{Fields: fields})
	}
	ors = make([]filter.Expression, len(g.Or))
	copy(ors, g.Or)
	return ands, ors
}
