package engine

import (
	"strconv"

	"github.com/MRamiBalles/CasaEmbrujada/internal/domain/breadcrumb"
	"github.com/MRamiBalles/CasaEmbrujada/internal/domain/evidence"
	"github.com/MRamiBalles/CasaEmbrujada/internal/events"
)

// Hunter is one investigator. All fields except the rooms it touches are
// owned by the hunter's own goroutine.
type Hunter struct {
	Name   string
	ID     int
	Device evidence.Type

	index int // position in the house arena, used as the occupant id
	house *House
	room  int
	trail breadcrumb.Stack

	fear    int
	boredom int
	reason  ExitReason
}

func newHunter(h *House, index int, name string, id int, device evidence.Type, start int) *Hunter {
	hunter := &Hunter{
		Name:   name,
		ID:     id,
		Device: device,
		index:  index,
		house:  h,
		room:   start,
	}
	if r := h.rooms.Room(start); r != nil {
		r.AddOccupant(index)
	}
	h.emit(events.EventTypeHunterInit, hunter.actorID(), h.roomName(start), hunter.payload())
	return hunter
}

// Run steps the hunter until it leaves the house.
func (hu *Hunter) Run() {
	for !hu.Step() {
		hu.house.pause()
	}
}

// Step performs one iteration of the hunter loop and reports whether the
// hunter has left.
func (hu *Hunter) Step() bool {
	if hu.reason != ReasonNone {
		return true
	}
	h := hu.house
	current := h.rooms.Room(hu.room)

	if found := current.TakeEvidence(); !found.Empty() {
		h.caseFile.Record(found)
		for _, ev := range found.Types() {
			h.metrics.EvidenceCollected.WithLabelValues(ev.String()).Inc()
		}
		p := hu.payload()
		p.Evidence = found.String()
		h.emit(events.EventTypeEvidencePickup, hu.actorID(), current.Name, p)
	}

	if reason := checkThresholds(hu.fear, hu.boredom, h.limits); reason != ReasonNone {
		hu.leave(reason)
		return true
	}

	if h.caseFile.Solved() {
		hu.retreat()
		hu.leave(ReasonEvidence)
		return true
	}

	hu.fear, hu.boredom = applyPresence(hu.fear, hu.boredom, current.GhostPresent())

	if hu.room == h.rooms.Exit() {
		hu.trail.Clear()
		if h.caseFile.Identifies(h.ghost.Type) {
			hu.leave(ReasonEvidence)
			return true
		}
	}

	hu.wander()
	return false
}

// wander moves to a random neighbour, or idles in a room without exits.
func (hu *Hunter) wander() {
	current := hu.house.rooms.Room(hu.room)
	n := current.ConnectionCount()
	if n == 0 {
		return
	}
	next := current.Connection(hu.house.rand.IntN(n))

	from := hu.room
	hu.trail.Push(from)
	hu.relocate(next)

	p := hu.payload()
	p.To = hu.house.roomName(next)
	hu.house.emit(events.EventTypeHunterMove, hu.actorID(), hu.house.roomName(from), p)
}

// retreat walks the breadcrumb trail back toward the starting room. It stops
// early when the trail runs out.
func (hu *Hunter) retreat() {
	h := hu.house
	start := h.rooms.Start()

	p := hu.payload()
	p.To = h.roomName(start)
	h.emit(events.EventTypeHunterReturn, hu.actorID(), h.roomName(hu.room), p)

	for hu.room != start {
		prev, ok := hu.trail.Pop()
		if !ok {
			break
		}
		from := hu.room
		hu.relocate(prev)

		step := hu.payload()
		step.To = h.roomName(prev)
		h.emit(events.EventTypeHunterMove, hu.actorID(), h.roomName(from), step)
	}
	hu.trail.Clear()

	p = hu.payload()
	p.Arrived = hu.room == start
	h.emit(events.EventTypeHunterReturn, hu.actorID(), h.roomName(hu.room), p)
}

// relocate moves the hunter's occupancy from its current room to next,
// taking one room lock at a time.
func (hu *Hunter) relocate(next int) {
	h := hu.house
	h.rooms.Room(hu.room).RemoveOccupant(hu.index)
	h.rooms.Room(next).AddOccupant(hu.index)
	hu.room = next
	h.metrics.HunterMoves.Inc()
}

// leave freezes the hunter with its final reason.
func (hu *Hunter) leave(reason ExitReason) {
	h := hu.house
	h.rooms.Room(hu.room).RemoveOccupant(hu.index)
	hu.trail.Clear()
	hu.reason = reason
	h.metrics.HunterExits.WithLabelValues(string(reason)).Inc()

	p := hu.payload()
	p.Reason = string(reason)
	h.emit(events.EventTypeHunterExit, hu.actorID(), h.roomName(hu.room), p)
}

// Result returns the hunter's state for the final report. It is only
// consistent once the hunter's goroutine has finished.
func (hu *Hunter) Result() HunterResult {
	return HunterResult{
		Name:    hu.Name,
		ID:      hu.ID,
		Device:  hu.Device.String(),
		Reason:  hu.reason,
		Fear:    hu.fear,
		Boredom: hu.boredom,
		Room:    hu.house.roomName(hu.room),
	}
}

func (hu *Hunter) actorID() string {
	return "hunter-" + strconv.Itoa(hu.ID)
}

func (hu *Hunter) payload() events.HunterPayload {
	return events.HunterPayload{
		HunterID: hu.ID,
		Name:     hu.Name,
		Device:   hu.Device.String(),
		Fear:     hu.fear,
		Boredom:  hu.boredom,
	}
}
