// Package casefile holds the evidence shared by every hunter in a house.
// This package is PURE and must NOT import any infrastructure packages.
package casefile

import (
	"sync"

	"github.com/MRamiBalles/CasaEmbrujada/internal/domain/evidence"
)

// CaseFile is the union of all evidence collected by the team plus the derived
// solved flag. Both fields change together inside one critical section.
type CaseFile struct {
	mu        sync.Mutex
	collected evidence.Set
	solved    bool
}

// Snapshot is a consistent view of the case file.
type Snapshot struct {
	Collected evidence.Set `json:"collected"`
	Solved    bool         `json:"solved"`
}

// New creates an empty case file.
func New() *CaseFile {
	return &CaseFile{}
}

// Record folds picked-up evidence into the file and recomputes solved.
// It returns the state as of the end of the update.
func (c *CaseFile) Record(found evidence.Set) Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.collected = c.collected.Add(found)
	c.solved = evidence.HasThreeUnique(c.collected)
	return Snapshot{Collected: c.collected, Solved: c.solved}
}

// Solved reports whether at least three distinct evidence types were collected.
func (c *CaseFile) Solved() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.solved
}

// Collected returns every evidence type collected so far.
func (c *CaseFile) Collected() evidence.Set {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.collected
}

// Snapshot returns collected and solved as read under one lock acquisition.
func (c *CaseFile) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{Collected: c.collected, Solved: c.solved}
}

// Identifies reports whether the collected evidence covers the full signature of g.
// This is stricter than Solved: three unrelated bits solve the file without
// identifying the ghost.
func (c *CaseFile) Identifies(g evidence.GhostType) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.collected.Contains(g.Signature())
}
