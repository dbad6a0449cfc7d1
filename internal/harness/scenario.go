package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/docql/internal/qerr"
)

// Scenario defines a query scenario: models, seed documents, and the
// queries to issue against them.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Keyspace holds every seeded document.
	Keyspace string `yaml:"keyspace"`

	// Models is CUE source declaring the models queried below.
	Models string `yaml:"models"`

	// IDPrefix prefixes generated ids for documents seeded without one.
	// Empty means "doc".
	IDPrefix string `yaml:"id_prefix,omitempty"`

	// Documents are inserted in order before any query runs. A string "id"
	// member becomes the document id.
	Documents []yaml.Node `yaml:"documents,omitempty"`

	// Queries run in order against the seeded keyspace.
	Queries []QueryStep `yaml:"queries"`
}

// QueryStep is one query against a model.
type QueryStep struct {
	// Name identifies the query in results and golden files.
	Name string `yaml:"name"`

	// Model names the model to query.
	Model string `yaml:"model"`

	// Filter is the filter document. Absent means match every document of
	// the model.
	Filter yaml.Node `yaml:"filter,omitempty"`

	// Count issues a count statement over the filter's where clause.
	Count bool `yaml:"count,omitempty"`

	// Index is passed as an index hint.
	Index string `yaml:"index,omitempty"`

	// Expect is checked against the query's outcome. Nil checks nothing
	// beyond the absence of an unexpected error.
	Expect *Expectation `yaml:"expect,omitempty"`
}

// Expectation describes the expected outcome of a query. Every field is
// optional; only the fields set are checked.
type Expectation struct {
	// Statement is the exact inlined statement text.
	Statement string `yaml:"statement,omitempty"`

	// IDs are the expected result ids, in order. An explicit empty list
	// expects no results.
	IDs []string `yaml:"ids,omitempty"`

	// Total is the expected count (count queries only).
	Total *int64 `yaml:"total,omitempty"`

	// Documents are matched by position against the results. This is a
	// subset match - only the specified fields are validated.
	Documents []yaml.Node `yaml:"documents,omitempty"`

	// Absent lists fields no result document may carry.
	Absent []string `yaml:"absent,omitempty"`

	// Error is the expected client error code.
	Error string `yaml:"error,omitempty"`
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "querys:" vs "queries:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Keyspace == "" {
		return fmt.Errorf("keyspace is required")
	}
	if s.Models == "" {
		return fmt.Errorf("models is required")
	}
	if len(s.Queries) == 0 {
		return fmt.Errorf("queries list is required and must be non-empty")
	}

	for i, doc := range s.Documents {
		if doc.Kind != yaml.MappingNode {
			return fmt.Errorf("documents[%d]: must be a mapping", i)
		}
	}

	seen := make(map[string]bool, len(s.Queries))
	for i, q := range s.Queries {
		if err := validateQuery(i, &q); err != nil {
			return err
		}
		if seen[q.Name] {
			return fmt.Errorf("queries[%d]: duplicate name %q", i, q.Name)
		}
		seen[q.Name] = true
	}
	return nil
}

// validateQuery validates a single query step and its expect clause.
func validateQuery(index int, q *QueryStep) error {
	if q.Name == "" {
		return fmt.Errorf("queries[%d]: name is required", index)
	}
	if q.Model == "" {
		return fmt.Errorf("queries[%d]: model is required", index)
	}

	e := q.Expect
	if e == nil {
		return nil
	}
	if e.Error != "" {
		if e.IDs != nil || e.Total != nil || len(e.Documents) > 0 || len(e.Absent) > 0 {
			return fmt.Errorf("queries[%d].expect: error excludes ids, total, documents and absent", index)
		}
		if !knownCode(qerr.Code(e.Error)) {
			return fmt.Errorf("queries[%d].expect: unknown error code %q", index, e.Error)
		}
	}
	if q.Count {
		if e.IDs != nil || len(e.Documents) > 0 || len(e.Absent) > 0 {
			return fmt.Errorf("queries[%d].expect: count queries only support total, statement and error", index)
		}
	} else if e.Total != nil {
		return fmt.Errorf("queries[%d].expect: total requires count: true", index)
	}
	for j, doc := range e.Documents {
		if doc.Kind != yaml.MappingNode {
			return fmt.Errorf("queries[%d].expect.documents[%d]: must be a mapping", index, j)
		}
	}
	return nil
}

func knownCode(code qerr.Code) bool {
	switch code {
	case qerr.CodeSyntax, qerr.CodeInvalidOperator, qerr.CodeInvalidRegexp,
		qerr.CodeInvalidOrderSyntax, qerr.CodeInvalidPagination, qerr.CodeInvalidFilter:
		return true
	}
	return false
}
