package testutil

import (
	"strconv"
	"sync/atomic"
)

// SequentialIDs generates deterministic document ids: "<prefix>-1",
// "<prefix>-2", ...
//
// A fresh generator yields the same ids for the same insert order, which
// keeps golden snapshots stable. Reset allows reuse across scenarios.
//
// Thread-safety: safe for concurrent use.
type SequentialIDs struct {
	prefix string
	seq    atomic.Int64
}

// NewSequentialIDs creates a generator. An empty prefix means "doc".
func NewSequentialIDs(prefix string) *SequentialIDs {
	if prefix == "" {
		prefix = "doc"
	}
	return &SequentialIDs{prefix: prefix}
}

// Generate returns the next id.
//
// Implements docstore.IDGenerator.
func (g *SequentialIDs) Generate() string {
	return g.prefix + "-" + strconv.FormatInt(g.seq.Add(1), 10)
}

// Issued returns how many ids have been generated since the last Reset.
func (g *SequentialIDs) Issued() int64 {
	return g.seq.Load()
}

// Reset restarts the sequence at 1.
func (g *SequentialIDs) Reset() {
	g.seq.Store(0)
}
