// Package storage - reconstructor.go
// Rebuilds what a single actor did during an archived run from its events.
package storage

import (
	"context"
	"fmt"
	"strings"
)

// Reconstructor rebuilds actor timelines from the event archive.
// This is used for:
// 1. The "history --run" drill-down
// 2. Auditing a run whose report looks surprising
type Reconstructor struct {
	eventRepo EventRepository
}

// NewReconstructor creates a new timeline reconstructor.
func NewReconstructor(eventRepo EventRepository) *Reconstructor {
	return &Reconstructor{eventRepo: eventRepo}
}

// Timeline is the rebuilt path and final counters of one actor.
type Timeline struct {
	ActorID  string   `json:"actor_id"`
	Rooms    []string `json:"rooms"`    // every room entered, in order, starting with the spawn room
	Evidence []string `json:"evidence"` // evidence picked up or dropped
	Fear     int      `json:"fear"`
	Boredom  int      `json:"boredom"`
	Reason   string   `json:"reason,omitempty"`
}

// RecapLine is a one-line, human-readable account of an event.
type RecapLine struct {
	Seq     int64  `json:"seq"`
	ActorID string `json:"actor_id"`
	Summary string `json:"summary"`
}

// RebuildTimeline replays one actor's events in sequence order.
func (r *Reconstructor) RebuildTimeline(ctx context.Context, runID, actorID string) (*Timeline, error) {
	events, err := r.eventRepo.GetByActorID(ctx, runID, actorID)
	if err != nil {
		return nil, fmt.Errorf("failed to get events for actor: %w", err)
	}
	if len(events) == 0 {
		return nil, fmt.Errorf("no events for %s in run %s", actorID, runID)
	}

	tl := &Timeline{ActorID: actorID}
	for _, e := range events {
		r.applyEvent(tl, e)
	}
	return tl, nil
}

// GenerateRecap summarises a whole run, one line per event that changed
// something. Idle ticks are skipped.
func (r *Reconstructor) GenerateRecap(ctx context.Context, runID string) ([]RecapLine, error) {
	events, err := r.eventRepo.GetByRunID(ctx, runID)
	if err != nil {
		return nil, err
	}

	var recap []RecapLine
	for _, e := range events {
		if e.EventType == "GHOST_IDLE" {
			continue
		}
		recap = append(recap, RecapLine{
			Seq:     e.Seq,
			ActorID: e.ActorID,
			Summary: r.summarizeEvent(e),
		})
	}
	return recap, nil
}

// applyEvent folds one event into the timeline. JSON numbers come back as float64.
func (r *Reconstructor) applyEvent(tl *Timeline, e StoredEvent) {
	if fear, ok := e.Payload["fear"].(float64); ok {
		tl.Fear = int(fear)
	}
	if boredom, ok := e.Payload["boredom"].(float64); ok {
		tl.Boredom = int(boredom)
	}

	switch e.EventType {
	case "HUNTER_INIT", "GHOST_INIT":
		tl.Rooms = append(tl.Rooms, e.Room)
	case "HUNTER_MOVE", "GHOST_MOVE":
		if to, ok := e.Payload["to"].(string); ok {
			tl.Rooms = append(tl.Rooms, to)
		}
	case "EVIDENCE_PICKUP", "GHOST_EVIDENCE":
		if ev, ok := e.Payload["evidence"].(string); ok {
			tl.Evidence = append(tl.Evidence, strings.Split(ev, "|")...)
		}
	case "HUNTER_EXIT":
		tl.Reason, _ = e.Payload["reason"].(string)
	case "GHOST_EXIT":
		tl.Reason = "BORED"
	}
}

// summarizeEvent creates a human-readable summary.
func (r *Reconstructor) summarizeEvent(e StoredEvent) string {
	name, _ := e.Payload["name"].(string)
	if name == "" {
		name = e.ActorID
	}
	to, _ := e.Payload["to"].(string)
	ev, _ := e.Payload["evidence"].(string)

	switch e.EventType {
	case "GHOST_INIT":
		kind, _ := e.Payload["ghost_type"].(string)
		return fmt.Sprintf("A %s haunts the %s.", kind, e.Room)
	case "HUNTER_INIT":
		device, _ := e.Payload["device"].(string)
		return fmt.Sprintf("%s arrives in the %s (device: %s).", name, e.Room, device)
	case "EVIDENCE_PICKUP":
		return fmt.Sprintf("%s found %s in the %s.", name, ev, e.Room)
	case "HUNTER_MOVE":
		return fmt.Sprintf("%s moved from the %s to the %s.", name, e.Room, to)
	case "HUNTER_RETURN":
		if arrived, _ := e.Payload["arrived"].(bool); arrived {
			return fmt.Sprintf("%s made it back to the %s.", name, e.Room)
		}
		return fmt.Sprintf("%s heads back toward the %s.", name, to)
	case "HUNTER_EXIT":
		reason, _ := e.Payload["reason"].(string)
		return fmt.Sprintf("%s left the house (%s).", name, reason)
	case "GHOST_EVIDENCE":
		return fmt.Sprintf("The ghost left %s in the %s.", ev, e.Room)
	case "GHOST_MOVE":
		return fmt.Sprintf("The ghost drifted from the %s to the %s.", e.Room, to)
	case "GHOST_EXIT":
		return "The ghost lost interest and left."
	case "RUN_COMPLETE":
		if won, _ := e.Payload["hunters_won"].(bool); won {
			return "Hunters Win!"
		}
		return "Ghost Wins!"
	default:
		return "Something stirred in the " + e.Room + "."
	}
}
