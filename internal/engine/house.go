// Package engine runs the investigation: one goroutine per hunter plus one for
// the ghost, all working against the same rooms and case file.
//
// ARCHITECTURAL RULE: actors never talk to each other. They only see each other
// through room state and the case file, and every look goes through a
// synchronized accessor. No code path holds two locks at once.
package engine

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MRamiBalles/CasaEmbrujada/internal/domain/casefile"
	"github.com/MRamiBalles/CasaEmbrujada/internal/domain/evidence"
	"github.com/MRamiBalles/CasaEmbrujada/internal/domain/room"
	"github.com/MRamiBalles/CasaEmbrujada/internal/events"
	"github.com/MRamiBalles/CasaEmbrujada/internal/platform/logger"
	"github.com/MRamiBalles/CasaEmbrujada/internal/platform/metrics"
)

// DefaultGhostID is the id every ghost answers to unless told otherwise.
const DefaultGhostID = 68057

var (
	ErrHouseStarted  = errors.New("house already started")
	ErrNoRooms       = errors.New("house has no rooms")
	ErrUnknownRoom   = errors.New("unknown room")
	ErrInvalidHunter = errors.New("invalid hunter")
)

// HouseOptions tunes a house. The zero value gives the classic rules with a
// random ghost in a random room.
type HouseOptions struct {
	Limits  Limits
	Rand    Rand
	Metrics *metrics.Collector

	// Pause after every actor step: StepDelay plus up to StepJitter.
	StepDelay  time.Duration
	StepJitter time.Duration

	GhostID   int
	GhostType evidence.GhostType // zero = drawn from the catalogue
	GhostRoom string             // empty = drawn from all rooms

	RunID string // empty = generated
}

// House owns the room graph, the case file, the ghost and the hunters.
type House struct {
	RunID string

	rooms    *room.Graph
	caseFile *casefile.CaseFile
	ghost    *Ghost
	hunters  []*Hunter

	emitter events.Emitter
	logger  *logger.Logger
	metrics *metrics.Collector
	rand    Rand
	limits  Limits
	delay   time.Duration
	jitter  time.Duration

	mu      sync.Mutex
	started bool
}

type nopEmitter struct{}

func (nopEmitter) Emit(events.GameEvent) {}

// NewHouse prepares a house on a fully built graph: it opens the case file and
// places the ghost. Hunters are added with AddHunter before Run.
func NewHouse(rooms *room.Graph, emitter events.Emitter, log *logger.Logger, opts HouseOptions) (*House, error) {
	if rooms == nil || rooms.Len() == 0 {
		return nil, ErrNoRooms
	}
	if emitter == nil {
		emitter = nopEmitter{}
	}
	if log == nil {
		log = logger.Nop()
	}
	if opts.Rand == nil {
		opts.Rand = DefaultRand()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.Get()
	}
	if opts.RunID == "" {
		opts.RunID = uuid.NewString()
	}
	if opts.GhostID == 0 {
		opts.GhostID = DefaultGhostID
	}

	h := &House{
		RunID:    opts.RunID,
		rooms:    rooms,
		caseFile: casefile.New(),
		emitter:  emitter,
		logger:   log,
		metrics:  opts.Metrics,
		rand:     opts.Rand,
		limits:   opts.Limits.withDefaults(),
		delay:    opts.StepDelay,
		jitter:   opts.StepJitter,
	}

	ghostType := opts.GhostType
	if ghostType == 0 {
		catalogue := evidence.GhostTypes()
		ghostType = catalogue[h.rand.IntN(len(catalogue))]
	}

	start := h.rand.IntN(rooms.Len())
	if opts.GhostRoom != "" {
		idx, ok := rooms.Lookup(opts.GhostRoom)
		if !ok {
			return nil, fmt.Errorf("%w: ghost room %q", ErrUnknownRoom, opts.GhostRoom)
		}
		start = idx
	}

	h.ghost = newGhost(h, opts.GhostID, ghostType, start)
	return h, nil
}

// AddHunter registers a hunter in the starting room with a random device.
// It must be called before Run.
func (h *House) AddHunter(name string, id int) error {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > room.MaxNameLength {
		return fmt.Errorf("%w: name %q", ErrInvalidHunter, name)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.started {
		return ErrHouseStarted
	}

	devices := evidence.All()
	device := devices[h.rand.IntN(len(devices))]
	hunter := newHunter(h, len(h.hunters), name, id, device, h.rooms.Start())
	h.hunters = append(h.hunters, hunter)
	return nil
}

// Run starts every actor, waits for all of them and returns the final report.
// A house runs once.
func (h *House) Run() (*Report, error) {
	h.mu.Lock()
	if h.started {
		h.mu.Unlock()
		return nil, ErrHouseStarted
	}
	h.started = true
	h.mu.Unlock()

	h.logger.Info("House " + h.rooms.HouseID + " run " + h.RunID + ": " +
		strconv.Itoa(len(h.hunters)) + " hunters enter, the " + h.ghost.Type.String() + " waits")
	began := time.Now()

	ghostDone := make(chan struct{})
	go func() {
		defer close(ghostDone)
		h.ghost.Run()
	}()

	var hunters sync.WaitGroup
	for _, hunter := range h.hunters {
		hunters.Add(1)
		go func() {
			defer hunters.Done()
			hunter.Run()
		}()
	}
	hunters.Wait()

	for _, hunter := range h.hunters {
		hunter.trail.Clear()
	}
	<-ghostDone

	report := h.report(began, time.Now())
	h.metrics.RecordRun(report.HuntersWon, report.FinishedAt.Sub(report.StartedAt))
	h.emit(events.EventTypeRunComplete, "house-"+h.rooms.HouseID, "", report)
	h.logger.Info("Run " + h.RunID + " complete: " + report.Verdict())
	return report, nil
}

// Rooms exposes the graph, for inspection by samplers and tests.
func (h *House) Rooms() *room.Graph {
	return h.rooms
}

// CaseFile exposes the shared case file.
func (h *House) CaseFile() *casefile.CaseFile {
	return h.caseFile
}

// Ghost returns the house's ghost.
func (h *House) Ghost() *Ghost {
	return h.ghost
}

// Hunters returns the registered hunters in registration order.
func (h *House) Hunters() []*Hunter {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]*Hunter, len(h.hunters))
	copy(out, h.hunters)
	return out
}

// emit stamps the run id and hands the event to the emitter and the logger.
func (h *House) emit(eventType events.EventType, actorID, roomName string, payload any) {
	h.emitter.Emit(events.GameEvent{
		RunID:   h.RunID,
		Type:    eventType,
		ActorID: actorID,
		Room:    roomName,
		Payload: payload,
	})

	fields := map[string]any{"run": h.RunID}
	if roomName != "" {
		fields["room"] = roomName
	}
	switch p := payload.(type) {
	case events.HunterPayload:
		fields["name"] = p.Name
		fields["device"] = p.Device
		fields["fear"] = p.Fear
		fields["boredom"] = p.Boredom
		if p.To != "" {
			fields["to"] = p.To
		}
		if p.Evidence != "" {
			fields["evidence"] = p.Evidence
		}
		if p.Reason != "" {
			fields["reason"] = p.Reason
		}
	case events.GhostPayload:
		fields["boredom"] = p.Boredom
		if p.GhostType != "" {
			fields["ghost_type"] = p.GhostType
		}
		if p.To != "" {
			fields["to"] = p.To
		}
		if p.Evidence != "" {
			fields["evidence"] = p.Evidence
		}
	}

	switch eventType {
	case events.EventTypeHunterMove, events.EventTypeGhostMove, events.EventTypeGhostIdle:
		h.logger.Trace(string(eventType), actorID, fields)
	default:
		h.logger.Event(string(eventType), actorID, fields)
	}
}

// pause sleeps between actor steps when pacing is configured.
func (h *House) pause() {
	d := h.delay
	if h.jitter > 0 {
		d += time.Duration(h.rand.IntN(int(h.jitter)))
	}
	if d > 0 {
		time.Sleep(d)
	}
}

func (h *House) roomName(idx int) string {
	if r := h.rooms.Room(idx); r != nil {
		return r.Name
	}
	return ""
}
