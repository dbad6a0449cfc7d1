package harness

// QueryResult is the recorded outcome of one query.
type QueryResult struct {
	Name string `json:"name"`

	// Statement is the inlined statement text. Empty when assembly failed.
	Statement string `json:"statement,omitempty"`

	// IDs are the result ids of a select, in order.
	IDs []string `json:"ids,omitempty"`

	// Total is the result of a count.
	Total *int64 `json:"total,omitempty"`

	// Error is the client error code, or the message of any other error.
	Error string `json:"error,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall success: no query failed its expect clause.
	Pass bool `json:"pass"`

	// Queries records every query in scenario order.
	Queries []QueryResult `json:"queries"`

	// Errors contains expectation failures. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:    true,
		Queries: []QueryResult{},
		Errors:  []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Query returns the recorded result of the named query.
func (r *Result) Query(name string) (QueryResult, bool) {
	for _, q := range r.Queries {
		if q.Name == name {
			return q, true
		}
	}
	return QueryResult{}, false
}
