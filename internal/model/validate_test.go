package model

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/docql/internal/fieldpath"
)

func key(path string, order KeyOrder) IndexKey {
	return IndexKey{Path: fieldpath.MustParse(path), Order: order}
}

func codes(errs []ValidationError) []string {
	var out []string
	for _, e := range errs {
		out = append(out, e.Code)
	}
	return out
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		model Model
		want  []string
	}{
		{
			name:  "valid",
			model: Model{Name: "Book", Primary: true, Indexes: []Index{{Name: "t", Keys: []IndexKey{key("title", XLike)}}}},
		},
		{
			name:  "missing name",
			model: Model{},
			want:  []string{ErrModelNameEmpty},
		},
		{
			name:  "hidden id",
			model: Model{Name: "Book", Hidden: []string{"cost", "id"}},
			want:  []string{ErrHiddenID},
		},
		{
			name: "duplicate index",
			model: Model{Name: "Book", Indexes: []Index{
				{Name: "a", Keys: []IndexKey{key("x", Asc)}},
				{Name: "a", Keys: []IndexKey{key("y", Asc)}},
			}},
			want: []string{ErrDuplicateIndex},
		},
		{
			name:  "primary name collision",
			model: Model{Name: "Book", Primary: true, Indexes: []Index{{Name: "Book", Keys: []IndexKey{key("x", Asc)}}}},
			want:  []string{ErrIndexNamesPrimary},
		},
		{
			name:  "primary name allowed without primary",
			model: Model{Name: "Book", Indexes: []Index{{Name: "Book", Keys: []IndexKey{key("x", Asc)}}}},
		},
		{
			name:  "no keys",
			model: Model{Name: "Book", Indexes: []Index{{Name: "empty"}}},
			want:  []string{ErrIndexNoKeys},
		},
		{
			name:  "duplicate key",
			model: Model{Name: "Book", Indexes: []Index{{Name: "d", Keys: []IndexKey{key("x", Asc), key("x", Desc)}}}},
			want:  []string{ErrDuplicateKey},
		},
		{
			name:  "xlike wildcard",
			model: Model{Name: "Book", Indexes: []Index{{Name: "w", Keys: []IndexKey{key("authors.*.name", XLike)}}}},
			want:  []string{ErrXLikeWildcard},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, codes(Validate(&tt.model)))
		})
	}
}
