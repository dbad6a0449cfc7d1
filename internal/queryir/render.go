package queryir

import (
	"strings"

	"github.com/roach88/docql/internal/fieldpath"
)

// Render renders a predicate as N1QL text. A nil predicate renders as "".
func Render(p Predicate) string {
	var b strings.Builder
	writePredicate(&b, p, "")
	return b.String()
}

// RenderOperand renders an operand as N1QL text.
func RenderOperand(o Operand) string {
	var b strings.Builder
	writeOperand(&b, o)
	return b.String()
}

func writeOperand(b *strings.Builder, o Operand) {
	switch op := o.(type) {
	case *Field:
		b.WriteString(fieldpath.Render(op.Var, op.Segments))
	case *MetaID:
		b.WriteString(fieldpath.MetaID)
	case *Param:
		b.WriteByte('$')
		b.WriteString(op.Name)
	case *Call:
		b.WriteString(string(op.Func))
		b.WriteByte('(')
		for i, arg := range op.Args {
			if i > 0 {
				b.WriteString(", ")
			}
			writeOperand(b, arg)
		}
		b.WriteByte(')')
	}
}

// writePredicate renders p. parent is the connective of the enclosing
// junction, or "" at the top or under explicit parentheses.
func writePredicate(b *strings.Builder, p Predicate, parent Conj) {
	switch pred := p.(type) {
	case *Compare:
		writeOperand(b, pred.Left)
		b.WriteByte(' ')
		b.WriteString(string(pred.Op))
		b.WriteByte(' ')
		writeOperand(b, pred.Right)
	case *NullCheck:
		writeOperand(b, pred.Operand)
		if pred.Not {
			b.WriteString(" IS NOT NULL")
		} else {
			b.WriteString(" IS NULL")
		}
	case *RegexLike:
		b.WriteString("REGEX_LIKE(")
		writeOperand(b, pred.Operand)
		b.WriteString(", ")
		writeOperand(b, pred.Pattern)
		b.WriteByte(')')
	case *ArrayContains:
		b.WriteString("ARRAY_CONTAINS(")
		writeOperand(b, pred.Array)
		b.WriteString(", ")
		writeOperand(b, pred.Value)
		b.WriteByte(')')
	case *Any:
		b.WriteString("ANY ")
		b.WriteString(fieldpath.Quote(pred.Var))
		b.WriteString(" IN ")
		writeOperand(b, pred.In)
		b.WriteString(" SATISFIES ")
		writePredicate(b, pred.Satisfies, "")
		b.WriteString(" END")
	case *Junction:
		if len(pred.Terms) == 1 {
			writePredicate(b, pred.Terms[0], parent)
			return
		}
		wrap := parent == And && pred.Op == Or
		if wrap {
			b.WriteByte('(')
		}
		for i, term := range pred.Terms {
			if i > 0 {
				b.WriteByte(' ')
				b.WriteString(string(pred.Op))
				b.WriteByte(' ')
			}
			writePredicate(b, term, pred.Op)
		}
		if wrap {
			b.WriteByte(')')
		}
	case *Paren:
		b.WriteByte('(')
		writePredicate(b, pred.Inner, "")
		b.WriteByte(')')
	}
}

// ParamsUsed returns the parameter names p references, in order of first
// appearance.
func ParamsUsed(p Predicate) []string {
	var names []string
	seen := make(map[string]bool)
	Walk(p, func(o Operand) {
		if param, ok := o.(*Param); ok && !seen[param.Name] {
			seen[param.Name] = true
			names = append(names, param.Name)
		}
	})
	return names
}

// Walk calls fn for every operand in p, depth first, left to right.
func Walk(p Predicate, fn func(Operand)) {
	switch pred := p.(type) {
	case *Compare:
		walkOperand(pred.Left, fn)
		walkOperand(pred.Right, fn)
	case *NullCheck:
		walkOperand(pred.Operand, fn)
	case *RegexLike:
		walkOperand(pred.Operand, fn)
		walkOperand(pred.Pattern, fn)
	case *ArrayContains:
		walkOperand(pred.Array, fn)
		walkOperand(pred.Value, fn)
	case *Any:
		walkOperand(pred.In, fn)
		Walk(pred.Satisfies, fn)
	case *Junction:
		for _, term := range pred.Terms {
			Walk(term, fn)
		}
	case *Paren:
		Walk(pred.Inner, fn)
	}
}

func walkOperand(o Operand, fn func(Operand)) {
	if o == nil {
		return
	}
	fn(o)
	if call, ok := o.(*Call); ok {
		for _, arg := range call.Args {
			walkOperand(arg, fn)
		}
	}
}
