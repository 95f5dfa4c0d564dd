// Package events provides the append-only record of everything the actors did
// during a run. Engine code emits; the log, the spectator hub and the archive read.
package events

import (
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventType defines the category of a simulation event.
type EventType string

const (
	EventTypeGhostInit      EventType = "GHOST_INIT"
	EventTypeHunterInit     EventType = "HUNTER_INIT"
	EventTypeEvidencePickup EventType = "EVIDENCE_PICKUP"
	EventTypeHunterMove     EventType = "HUNTER_MOVE"
	EventTypeHunterReturn   EventType = "HUNTER_RETURN"
	EventTypeHunterExit     EventType = "HUNTER_EXIT"
	EventTypeGhostEvidence  EventType = "GHOST_EVIDENCE"
	EventTypeGhostMove      EventType = "GHOST_MOVE"
	EventTypeGhostIdle      EventType = "GHOST_IDLE"
	EventTypeGhostExit      EventType = "GHOST_EXIT"
	EventTypeRunComplete    EventType = "RUN_COMPLETE"
)

// GameEvent represents an immutable record of an action in the simulation.
type GameEvent struct {
	ID        string    `json:"id"`
	Seq       int64     `json:"seq"`
	RunID     string    `json:"run_id"`
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	ActorID   string    `json:"actor_id"` // hunter-<id> or ghost-<id>
	Room      string    `json:"room"`     // room the actor was in when it acted
	Payload   any       `json:"payload"`  // HunterPayload, GhostPayload or a report
}

// HunterPayload carries a hunter's counters at the moment of an event.
type HunterPayload struct {
	HunterID int    `json:"hunter_id"`
	Name     string `json:"name"`
	Device   string `json:"device"`
	Fear     int    `json:"fear"`
	Boredom  int    `json:"boredom"`
	To       string `json:"to,omitempty"`
	Evidence string `json:"evidence,omitempty"`
	Reason   string `json:"reason,omitempty"`
	Arrived  bool   `json:"arrived,omitempty"` // HUNTER_RETURN: false on departure, true on arrival
}

// GhostPayload carries the ghost's state at the moment of an event.
type GhostPayload struct {
	GhostID   int    `json:"ghost_id"`
	GhostType string `json:"ghost_type,omitempty"`
	Boredom   int    `json:"boredom"`
	To        string `json:"to,omitempty"`
	Evidence  string `json:"evidence,omitempty"`
}

// Emitter receives events from the engine. Implementations must be safe for
// concurrent use: every actor emits from its own goroutine.
type Emitter interface {
	Emit(event GameEvent)
}

// EventPersister defines how an event is durably stored.
type EventPersister interface {
	Append(event GameEvent) error
}

// EventLog is the in-memory append-only log of simulation events.
// When a persister is attached, events are written through by a single
// background writer in append order. With RetainRuns set, the log keeps only
// the most recent runs; sequence numbers keep counting across evictions.
type EventLog struct {
	mu     sync.RWMutex
	events []GameEvent
	seq    int64

	retain int
	runs   []string // run IDs in order of first event

	persister EventPersister
	queue     chan GameEvent
	done      chan struct{}
	closeOnce sync.Once
	onError   func(error)
}

// NewEventLog creates a new event log with an optional persister.
func NewEventLog(persister EventPersister) *EventLog {
	el := &EventLog{
		events:    make([]GameEvent, 0, 256),
		persister: persister,
	}
	if persister != nil {
		el.queue = make(chan GameEvent, 1024)
		el.done = make(chan struct{})
		go el.writeLoop()
	}
	return el
}

// OnPersistError registers a callback for write-through failures.
// Must be called before the first Append.
func (el *EventLog) OnPersistError(fn func(error)) {
	el.onError = fn
}

// RetainRuns bounds the log to the events of the n most recent runs. When an
// event opens run n+1, every event of the oldest run is dropped. Zero keeps
// everything. Must be called before the first Append.
func (el *EventLog) RetainRuns(n int) {
	el.retain = n
}

func (el *EventLog) writeLoop() {
	defer close(el.done)
	for event := range el.queue {
		if err := el.persister.Append(event); err != nil && el.onError != nil {
			el.onError(err)
		}
	}
}

// Emit implements Emitter.
func (el *EventLog) Emit(event GameEvent) {
	el.Append(event)
}

// Append adds a new event to the log, stamping its sequence number and, when
// missing, its ID and timestamp. Events are immutable once appended.
func (el *EventLog) Append(event GameEvent) GameEvent {
	if event.ID == "" {
		event.ID = GenerateEventID()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	el.mu.Lock()
	el.seq++
	event.Seq = el.seq
	el.track(event.RunID)
	el.events = append(el.events, event)
	// Enqueue under the lock so the writer sees events in sequence order.
	if el.queue != nil {
		el.queue <- event
	}
	el.mu.Unlock()

	return event
}

// track records a run's first event and evicts the oldest run once more than
// retain runs are held. Callers hold el.mu.
func (el *EventLog) track(runID string) {
	if el.retain <= 0 {
		return
	}
	if slices.Contains(el.runs, runID) {
		return
	}
	el.runs = append(el.runs, runID)
	for len(el.runs) > el.retain {
		oldest := el.runs[0]
		el.runs = el.runs[1:]
		el.events = slices.DeleteFunc(el.events, func(e GameEvent) bool {
			return e.RunID == oldest
		})
	}
}

// Close flushes pending writes to the persister. Appending after Close panics.
func (el *EventLog) Close() {
	el.closeOnce.Do(func() {
		if el.queue == nil {
			return
		}
		el.mu.Lock()
		close(el.queue)
		el.mu.Unlock()
		<-el.done
	})
}

// GetByActor returns all events performed by a specific actor.
func (el *EventLog) GetByActor(actorID string) []GameEvent {
	el.mu.RLock()
	defer el.mu.RUnlock()

	var result []GameEvent
	for _, e := range el.events {
		if e.ActorID == actorID {
			result = append(result, e)
		}
	}
	return result
}

// GetByType returns all events of the given type.
func (el *EventLog) GetByType(eventType EventType) []GameEvent {
	el.mu.RLock()
	defer el.mu.RUnlock()

	var result []GameEvent
	for _, e := range el.events {
		if e.Type == eventType {
			result = append(result, e)
		}
	}
	return result
}

// GetByRun returns all events of one run.
func (el *EventLog) GetByRun(runID string) []GameEvent {
	el.mu.RLock()
	defer el.mu.RUnlock()

	var result []GameEvent
	for _, e := range el.events {
		if e.RunID == runID {
			result = append(result, e)
		}
	}
	return result
}

// After returns a copy of the events whose sequence number is greater than
// seq. Evicted events are not returned.
func (el *EventLog) After(seq int64) []GameEvent {
	el.mu.RLock()
	defer el.mu.RUnlock()

	i := sort.Search(len(el.events), func(i int) bool {
		return el.events[i].Seq > seq
	})
	if i == len(el.events) {
		return nil
	}
	out := make([]GameEvent, len(el.events)-i)
	copy(out, el.events[i:])
	return out
}

// Replay returns a copy of every event the log still holds.
func (el *EventLog) Replay() []GameEvent {
	return el.After(0)
}

// Len returns the number of events the log holds.
func (el *EventLog) Len() int {
	el.mu.RLock()
	defer el.mu.RUnlock()
	return len(el.events)
}

// GenerateEventID creates a unique event identifier.
func GenerateEventID() string {
	return uuid.NewString()
}
