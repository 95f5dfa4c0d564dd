// Package room defines the rooms of a haunted house and the graph that links them.
// This package is PURE and must NOT import any infrastructure packages.
//
// Every mutable field of a Room is guarded by that room's own mutex. Callers
// never hold two room locks at once, so the locking has no ordering to get wrong.
package room

import (
	"sync"

	"github.com/MRamiBalles/CasaEmbrujada/internal/domain/evidence"
)

const (
	MaxOccupancy   = 8 // hunters per room
	MaxConnections = 8 // adjacent rooms per room
	MaxNameLength  = 64
)

// Room is a node in the house graph.
// Occupants are hunter indices into the owning house's hunter arena.
type Room struct {
	Name    string `json:"name"`
	Index   int    `json:"index"`
	HouseID string `json:"house_id"`

	exit bool

	// Written only during graph construction.
	connected       [MaxConnections]int
	connectionCount int

	mu           sync.Mutex
	occupants    [MaxOccupancy]int
	numOccupants int
	ghostID      int
	ghostPresent bool
	evidence     evidence.Set
}

func newRoom(name string, index int, houseID string, isExit bool) *Room {
	return &Room{
		Name:    name,
		Index:   index,
		HouseID: houseID,
		exit:    isExit,
	}
}

// IsExit reports whether this room is the extraction point.
func (r *Room) IsExit() bool {
	return r.exit
}

// Connections returns the indices of adjacent rooms.
// The adjacency list is frozen once the simulation starts, so no lock is taken.
func (r *Room) Connections() []int {
	out := make([]int, r.connectionCount)
	copy(out, r.connected[:r.connectionCount])
	return out
}

// ConnectionCount returns the number of adjacent rooms.
func (r *Room) ConnectionCount() int {
	return r.connectionCount
}

// Connection returns the i-th adjacent room index.
func (r *Room) Connection(i int) int {
	return r.connected[i]
}

// link records a one-sided connection. Full adjacency lists ignore the write.
func (r *Room) link(other int) bool {
	if r.connectionCount >= MaxConnections {
		return false
	}
	r.connected[r.connectionCount] = other
	r.connectionCount++
	return true
}

// AddOccupant attempts to add a hunter to the room.
// Returns false if the room is full or the hunter is already listed.
func (r *Room) AddOccupant(hunter int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.numOccupants >= MaxOccupancy {
		return false
	}
	for i := 0; i < r.numOccupants; i++ {
		if r.occupants[i] == hunter {
			return false
		}
	}
	r.occupants[r.numOccupants] = hunter
	r.numOccupants++
	return true
}

// RemoveOccupant removes a hunter from the room, keeping the remaining list packed.
// Returns false if the hunter was not listed.
func (r *Room) RemoveOccupant(hunter int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := 0; i < r.numOccupants; i++ {
		if r.occupants[i] != hunter {
			continue
		}
		copy(r.occupants[i:r.numOccupants-1], r.occupants[i+1:r.numOccupants])
		r.numOccupants--
		r.occupants[r.numOccupants] = 0
		return true
	}
	return false
}

// Occupants returns a snapshot of the hunters currently listed in the room.
func (r *Room) Occupants() []int {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]int, r.numOccupants)
	copy(out, r.occupants[:r.numOccupants])
	return out
}

// OccupantCount returns the number of hunters listed in the room.
func (r *Room) OccupantCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.numOccupants
}

// LeaveEvidence ORs ev into the room's evidence byte.
func (r *Room) LeaveEvidence(ev evidence.Type) {
	r.mu.Lock()
	r.evidence = r.evidence.With(ev)
	r.mu.Unlock()
}

// TakeEvidence atomically reads and clears the room's evidence byte.
func (r *Room) TakeEvidence() evidence.Set {
	r.mu.Lock()
	defer r.mu.Unlock()

	picked := r.evidence
	r.evidence = 0
	return picked
}

// Evidence returns the evidence currently left in the room without consuming it.
func (r *Room) Evidence() evidence.Set {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.evidence
}

// EnterGhost marks the ghost as present.
func (r *Room) EnterGhost(ghostID int) {
	r.mu.Lock()
	r.ghostID = ghostID
	r.ghostPresent = true
	r.mu.Unlock()
}

// LeaveGhost clears the ghost marker if it belongs to ghostID.
func (r *Room) LeaveGhost(ghostID int) {
	r.mu.Lock()
	if r.ghostPresent && r.ghostID == ghostID {
		r.ghostPresent = false
		r.ghostID = 0
	}
	r.mu.Unlock()
}

// GhostPresent reports whether a ghost occupies the room.
func (r *Room) GhostPresent() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ghostPresent
}
