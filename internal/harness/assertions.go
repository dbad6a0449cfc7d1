package harness

import (
	"fmt"
	"reflect"
	"slices"

	"github.com/roach88/docql/internal/query"
	"github.com/roach88/docql/internal/value"
)

// checkExpectation compares a query's outcome with its expect clause and
// returns one message per mismatch.
func checkExpectation(step *QueryStep, qr QueryResult, docs []query.Document) []string {
	e := step.Expect
	if e == nil {
		if qr.Error != "" {
			return []string{fmt.Sprintf("unexpected error %s", qr.Error)}
		}
		return nil
	}

	if e.Error != "" || qr.Error != "" {
		if qr.Error != e.Error {
			return []string{fmt.Sprintf("expected error %q, got %q", e.Error, qr.Error)}
		}
		return nil
	}

	var errs []string
	if e.Statement != "" && e.Statement != qr.Statement {
		errs = append(errs, fmt.Sprintf("statement mismatch:\n  expected: %s\n  actual:   %s", e.Statement, qr.Statement))
	}
	if e.IDs != nil && !slices.Equal(e.IDs, qr.IDs) {
		errs = append(errs, fmt.Sprintf("expected ids %v, got %v", e.IDs, qr.IDs))
	}
	if e.Total != nil && (qr.Total == nil || *qr.Total != *e.Total) {
		errs = append(errs, fmt.Sprintf("expected total %d, got %s", *e.Total, formatTotal(qr.Total)))
	}
	if len(e.Documents) > 0 {
		errs = append(errs, checkDocuments(e, docs)...)
	}
	for _, field := range e.Absent {
		for _, d := range docs {
			if d.Fields.Has(field) {
				errs = append(errs, fmt.Sprintf("document %s carries field %q", d.ID, field))
			}
		}
	}
	return errs
}

func checkDocuments(e *Expectation, docs []query.Document) []string {
	if len(docs) < len(e.Documents) {
		return []string{fmt.Sprintf("expected at least %d documents, got %d", len(e.Documents), len(docs))}
	}
	var errs []string
	for i := range e.Documents {
		v, err := value.FromYAML(&e.Documents[i])
		if err != nil {
			errs = append(errs, fmt.Sprintf("expect.documents[%d]: %v", i, err))
			continue
		}
		expected, _ := v.(value.Object)
		if !matchFields(docs[i].Object(), expected) {
			errs = append(errs, fmt.Sprintf("document %d (%s) does not match %s", i, docs[i].ID, formatObject(expected)))
		}
	}
	return errs
}

// matchFields checks if actual contains all expected members.
// This is a subset match - extra members in actual are OK.
func matchFields(actual, expected value.Object) bool {
	for _, m := range expected {
		actualVal, exists := actual.Get(m.Key)
		if !exists {
			return false // Required key missing
		}
		if !valuesEqual(actualVal, m.Value) {
			return false
		}
	}
	return true
}

// valuesEqual compares two values structurally. Ints and floats with the
// same numeric value are equal, as YAML and JSON may disagree on which
// one a number decodes to.
func valuesEqual(actual, expected value.Value) bool {
	if a, ok := numeric(actual); ok {
		if e, ok := numeric(expected); ok {
			return a == e
		}
		return false
	}
	switch e := expected.(type) {
	case value.Array:
		a, ok := actual.(value.Array)
		if !ok || len(a) != len(e) {
			return false
		}
		for i := range e {
			if !valuesEqual(a[i], e[i]) {
				return false
			}
		}
		return true
	case value.Object:
		a, ok := actual.(value.Object)
		if !ok || len(a) != len(e) {
			return false
		}
		return matchFields(a, e)
	}
	return reflect.DeepEqual(value.ToAny(actual), value.ToAny(expected))
}

func numeric(v value.Value) (float64, bool) {
	switch n := v.(type) {
	case value.Int:
		return float64(n), true
	case value.Float:
		return float64(n), true
	}
	return 0, false
}

func formatTotal(total *int64) string {
	if total == nil {
		return "none"
	}
	return fmt.Sprintf("%d", *total)
}

func formatObject(o value.Object) string {
	s, err := value.Literal(o)
	if err != nil {
		return fmt.Sprintf("%v", value.ToAny(o))
	}
	return s
}
