// Package storage archives finished runs and their event streams.
// This package implements the repository pattern to keep the domain pure:
// the engine never reads anything back from it.
package storage

import (
	"context"
	"time"
)

// StoredEvent mirrors the simulation event structure for persistence.
// The engine should NOT import this; adapters convert at the edge.
type StoredEvent struct {
	ID        string         `json:"id" db:"id"`
	RunID     string         `json:"run_id" db:"run_id"`
	Seq       int64          `json:"seq" db:"seq"`
	Timestamp time.Time      `json:"timestamp" db:"timestamp"`
	EventType string         `json:"event_type" db:"event_type"`
	ActorID   string         `json:"actor_id" db:"actor_id"`
	Room      string         `json:"room" db:"room"`
	Payload   map[string]any `json:"payload" db:"payload"`
}

// EventRepository defines the interface for event persistence.
type EventRepository interface {
	// Append adds a new event to the archive.
	Append(ctx context.Context, event StoredEvent) error

	// GetByRunID retrieves all events of a run in sequence order.
	GetByRunID(ctx context.Context, runID string) ([]StoredEvent, error)

	// GetByActorID retrieves all events performed by an actor during a run.
	GetByActorID(ctx context.Context, runID, actorID string) ([]StoredEvent, error)

	// GetByEventType retrieves all events of a specific type during a run.
	GetByEventType(ctx context.Context, runID string, eventType string) ([]StoredEvent, error)
}

// HunterRecord is one hunter's final line in an archived run.
type HunterRecord struct {
	Name     string `json:"name" db:"name"`
	HunterID int    `json:"hunter_id" db:"hunter_id"`
	Device   string `json:"device" db:"device"`
	Reason   string `json:"reason" db:"reason"`
	Fear     int    `json:"fear" db:"fear"`
	Boredom  int    `json:"boredom" db:"boredom"`
	Room     string `json:"room" db:"room"`
}

// RunRecord is the archived outcome of one run.
type RunRecord struct {
	RunID         string         `json:"run_id" db:"run_id"`
	HouseID       string         `json:"house_id" db:"house_id"`
	GhostID       int            `json:"ghost_id" db:"ghost_id"`
	GhostType     string         `json:"ghost_type" db:"ghost_type"`
	Collected     int            `json:"collected" db:"collected"` // evidence bitset
	Evidence      string         `json:"evidence" db:"evidence"`   // readable form of Collected
	Solved        bool           `json:"solved" db:"solved"`
	Identified    bool           `json:"identified" db:"identified"`
	EvidenceExits int            `json:"evidence_exits" db:"evidence_exits"`
	HuntersWon    bool           `json:"hunters_won" db:"hunters_won"`
	StartedAt     time.Time      `json:"started_at" db:"started_at"`
	FinishedAt    time.Time      `json:"finished_at" db:"finished_at"`
	Hunters       []HunterRecord `json:"hunters,omitempty"`
}

// ReportRepository defines the interface for run outcomes.
type ReportRepository interface {
	// Save stores a run and its hunters atomically.
	Save(ctx context.Context, run RunRecord) error

	// Get retrieves a run with its hunters. A missing run yields nil, nil.
	Get(ctx context.Context, runID string) (*RunRecord, error)

	// List returns the most recent runs first, without hunters.
	List(ctx context.Context, limit int) ([]RunRecord, error)
}
