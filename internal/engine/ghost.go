package engine

import (
	"strconv"

	"github.com/MRamiBalles/CasaEmbrujada/internal/domain/evidence"
	"github.com/MRamiBalles/CasaEmbrujada/internal/events"
)

// Ghost haunts one room at a time, leaving evidence behind until it gets bored.
// Hunters never change its state.
type Ghost struct {
	ID   int
	Type evidence.GhostType

	house   *House
	room    int
	boredom int
	exited  bool
}

func newGhost(h *House, id int, ghostType evidence.GhostType, start int) *Ghost {
	g := &Ghost{
		ID:    id,
		Type:  ghostType,
		house: h,
		room:  start,
	}
	h.rooms.Room(start).EnterGhost(id)

	p := g.payload()
	p.GhostType = ghostType.String()
	p.Evidence = ghostType.Signature().String()
	h.emit(events.EventTypeGhostInit, g.actorID(), h.roomName(start), p)
	return g
}

// Run steps the ghost until it leaves.
func (g *Ghost) Run() {
	for !g.Step() {
		g.house.pause()
	}
}

// Step performs one iteration of the ghost loop and reports whether the
// ghost has left. The room it leaves from keeps its presence marker.
func (g *Ghost) Step() bool {
	if g.exited {
		return true
	}
	h := g.house

	if ghostBored(g.boredom, h.limits) {
		g.exited = true
		h.emit(events.EventTypeGhostExit, g.actorID(), h.roomName(g.room), g.payload())
		return true
	}

	current := h.rooms.Room(g.room)
	if h.rand.IntN(h.limits.EvidenceOdds) == 0 {
		all := evidence.All()
		ev := all[h.rand.IntN(len(all))]
		current.LeaveEvidence(ev)
		h.metrics.EvidenceDropped.WithLabelValues(ev.String()).Inc()

		p := g.payload()
		p.Evidence = ev.String()
		h.emit(events.EventTypeGhostEvidence, g.actorID(), current.Name, p)
	}

	if n := current.ConnectionCount(); n > 0 {
		next := current.Connection(h.rand.IntN(n))
		current.LeaveGhost(g.ID)
		h.rooms.Room(next).EnterGhost(g.ID)
		g.room = next
		h.metrics.GhostMoves.Inc()

		p := g.payload()
		p.To = h.roomName(next)
		h.emit(events.EventTypeGhostMove, g.actorID(), current.Name, p)
	} else {
		h.emit(events.EventTypeGhostIdle, g.actorID(), current.Name, g.payload())
	}

	g.boredom++
	return false
}

// Room returns the index of the room the ghost haunts. Only meaningful once
// the ghost's goroutine has finished or before it starts.
func (g *Ghost) Room() int {
	return g.room
}

// Boredom returns the ghost's boredom counter, with the same caveat as Room.
func (g *Ghost) Boredom() int {
	return g.boredom
}

func (g *Ghost) actorID() string {
	return "ghost-" + strconv.Itoa(g.ID)
}

func (g *Ghost) payload() events.GhostPayload {
	return events.GhostPayload{
		GhostID: g.ID,
		Boredom: g.boredom,
	}
}
