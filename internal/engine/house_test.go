package engine

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MRamiBalles/CasaEmbrujada/internal/domain/evidence"
	"github.com/MRamiBalles/CasaEmbrujada/internal/domain/room"
	"github.com/MRamiBalles/CasaEmbrujada/internal/events"
	"github.com/MRamiBalles/CasaEmbrujada/internal/layout"
	"github.com/MRamiBalles/CasaEmbrujada/internal/platform/metrics"
)

// scriptRand replays vals (mod n) in order, then returns 0 forever.
type scriptRand struct {
	mu   sync.Mutex
	vals []int
}

func (s *scriptRand) IntN(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.vals) == 0 {
		return 0
	}
	v := s.vals[0]
	s.vals = s.vals[1:]
	return v % n
}

type fixture struct {
	house *House
	log   *events.EventLog
	rooms *room.Graph
}

func newFixture(t *testing.T, g *room.Graph, opts HouseOptions) fixture {
	t.Helper()
	if opts.Rand == nil {
		opts.Rand = &scriptRand{}
	}
	opts.Metrics = metrics.New()
	el := events.NewEventLog(nil)
	h, err := NewHouse(g, el, nil, opts)
	require.NoError(t, err)
	return fixture{house: h, log: el, rooms: g}
}

func (f fixture) room(t *testing.T, name string) *room.Room {
	t.Helper()
	idx, ok := f.rooms.Lookup(name)
	require.True(t, ok, name)
	return f.rooms.Room(idx)
}

func TestRuleHelpers(t *testing.T) {
	lim := DefaultLimits()
	assert.Equal(t, ReasonNone, checkThresholds(14, 14, lim))
	assert.Equal(t, ReasonAfraid, checkThresholds(15, 15, lim), "fear is checked first")
	assert.Equal(t, ReasonBored, checkThresholds(3, 15, lim))

	fear, boredom := applyPresence(2, 9, true)
	assert.Equal(t, 3, fear)
	assert.Equal(t, 0, boredom)
	fear, boredom = applyPresence(2, 9, false)
	assert.Equal(t, 2, fear)
	assert.Equal(t, 10, boredom)

	assert.Equal(t, lim, Limits{}.withDefaults())
	assert.True(t, ghostBored(15, lim))
	assert.False(t, ghostBored(14, lim))
}

func TestSolvedHunterReturnsAlongBreadcrumbs(t *testing.T) {
	g := room.NewGraph("two-room")
	van := g.Create("Van", false)
	extraction := g.Create("ExtractionRoom", true)
	g.Connect(van, extraction)

	f := newFixture(t, g, HouseOptions{
		GhostType: evidence.GhostType(evidence.EMF | evidence.Orbs | evidence.Radio),
		GhostRoom: "Van",
	})
	require.NoError(t, f.house.AddHunter("Ray", 1))
	hunter := f.house.Hunters()[0]

	deposits := []evidence.Type{evidence.EMF, evidence.Orbs, evidence.Radio}
	done := false
	for step := 0; step < 20 && !done; step++ {
		if hunter.room == extraction && len(deposits) > 0 {
			g.Room(extraction).LeaveEvidence(deposits[0])
			deposits = deposits[1:]
		}
		done = hunter.Step()
	}

	require.True(t, done)
	assert.Equal(t, ReasonEvidence, hunter.reason)
	assert.Equal(t, van, hunter.room, "hunter retraced its steps to the van")
	assert.Equal(t, 3, hunter.fear, "fear only grows while sharing the van with the ghost")
	assert.Zero(t, hunter.trail.Len())
	assert.Zero(t, g.Room(van).OccupantCount())

	snap := f.house.CaseFile().Snapshot()
	assert.True(t, snap.Solved)
	assert.Equal(t, 3, snap.Collected.Len())

	returns := f.log.GetByType(events.EventTypeHunterReturn)
	require.Len(t, returns, 2)
	assert.True(t, returns[1].Payload.(events.HunterPayload).Arrived)
	assert.Equal(t, "Van", returns[1].Room)
}

func TestRetreatStopsWhenTrailRunsOut(t *testing.T) {
	g := room.NewGraph("three-room")
	van := g.Create("Van", false)
	exit := g.Create("Exit", true)
	attic := g.Create("Attic", false)
	// Attic is the exit's first connection, so every draw of 0 leads deeper in.
	g.Connect(exit, attic)
	g.Connect(van, exit)

	f := newFixture(t, g, HouseOptions{
		GhostType: evidence.GhostType(evidence.Writing | evidence.Infrared | evidence.Temperature),
		GhostRoom: "Van",
	})
	require.NoError(t, f.house.AddHunter("Ray", 1))
	hunter := f.house.Hunters()[0]

	require.False(t, hunter.Step())
	require.Equal(t, exit, hunter.room)
	require.False(t, hunter.Step())
	require.Equal(t, attic, hunter.room)
	assert.Equal(t, 1, hunter.trail.Len(), "the exit cleared the trail before the hunter moved on")

	for _, ev := range []evidence.Type{evidence.EMF, evidence.Orbs, evidence.Radio} {
		g.Room(attic).LeaveEvidence(ev)
	}
	require.True(t, hunter.Step())

	assert.Equal(t, ReasonEvidence, hunter.reason)
	assert.Equal(t, exit, hunter.room, "the hunter stops where its trail ends")
	assert.Zero(t, hunter.trail.Len())
	for _, r := range g.Rooms() {
		assert.Zero(t, r.OccupantCount(), r.Name)
	}

	returns := f.log.GetByType(events.EventTypeHunterReturn)
	require.Len(t, returns, 2)
	last := returns[1]
	assert.Equal(t, "Exit", last.Room)
	assert.False(t, last.Payload.(events.HunterPayload).Arrived)

	exits := f.log.GetByType(events.EventTypeHunterExit)
	require.Len(t, exits, 1)
	assert.Equal(t, "Exit", exits[0].Room)
	assert.Equal(t, string(ReasonEvidence), exits[0].Payload.(events.HunterPayload).Reason)
}

func TestIsolatedHunterGetsBored(t *testing.T) {
	g := room.NewGraph("isolated")
	g.Create("Closet", false)
	g.Create("Attic", false)

	f := newFixture(t, g, HouseOptions{GhostType: evidence.GhostType(evidence.Writing), GhostRoom: "Attic"})
	require.NoError(t, f.house.AddHunter("Egon", 2))
	hunter := f.house.Hunters()[0]

	for i := 1; i <= DefaultBoredomMax; i++ {
		require.False(t, hunter.Step())
		assert.Equal(t, i, hunter.boredom)
		assert.Zero(t, hunter.fear)
	}
	require.True(t, hunter.Step())
	assert.Equal(t, ReasonBored, hunter.reason)
	assert.Zero(t, hunter.fear)
	assert.Empty(t, f.log.GetByType(events.EventTypeHunterMove))
}

func TestHauntedHunterGetsAfraid(t *testing.T) {
	g := room.NewGraph("haunted")
	g.Create("Nursery", false)

	f := newFixture(t, g, HouseOptions{GhostType: evidence.GhostType(evidence.Writing), GhostRoom: "Nursery"})
	require.NoError(t, f.house.AddHunter("Peter", 3))
	hunter := f.house.Hunters()[0]

	for i := 1; i <= DefaultFearMax; i++ {
		require.False(t, hunter.Step())
		assert.Equal(t, i, hunter.fear)
		assert.Zero(t, hunter.boredom)
	}
	require.True(t, hunter.Step())
	assert.Equal(t, ReasonAfraid, hunter.reason)
	assert.Equal(t, DefaultFearMax, hunter.fear)
}

func TestThresholdsStopBeforeMovement(t *testing.T) {
	tests := []struct {
		name          string
		fear, boredom int
		want          ExitReason
	}{
		{"afraid", DefaultFearMax, 0, ReasonAfraid},
		{"bored", 0, DefaultBoredomMax, ReasonBored},
		{"both", DefaultFearMax, DefaultBoredomMax, ReasonAfraid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := room.NewGraph("h")
			a := g.Create("A", false)
			b := g.Create("B", true)
			g.Connect(a, b)

			f := newFixture(t, g, HouseOptions{GhostType: evidence.GhostType(evidence.EMF), GhostRoom: "B"})
			require.NoError(t, f.house.AddHunter("Winston", 4))
			hunter := f.house.Hunters()[0]
			hunter.fear, hunter.boredom = tt.fear, tt.boredom

			require.True(t, hunter.Step())
			assert.Equal(t, tt.want, hunter.reason)
			assert.Equal(t, a, hunter.room)
			assert.Empty(t, f.log.GetByType(events.EventTypeHunterMove))
			assert.True(t, hunter.Step(), "a frozen hunter stays frozen")
		})
	}
}

func TestExitMatchWithoutSolve(t *testing.T) {
	g := room.NewGraph("h")
	g.Create("Van", true)

	f := newFixture(t, g, HouseOptions{GhostType: evidence.GhostType(evidence.EMF), GhostRoom: "Van"})
	require.NoError(t, f.house.AddHunter("Ray", 1))
	hunter := f.house.Hunters()[0]
	g.Room(0).LeaveEvidence(evidence.EMF)

	require.True(t, hunter.Step())
	assert.Equal(t, ReasonEvidence, hunter.reason)
	assert.False(t, f.house.CaseFile().Solved(), "one bit identifies this ghost without solving the file")
	assert.Empty(t, f.log.GetByType(events.EventTypeHunterReturn))
}

func TestSolveWithoutIdentification(t *testing.T) {
	g := room.NewGraph("h")
	g.Create("Van", true)

	f := newFixture(t, g, HouseOptions{
		GhostType: evidence.GhostType(evidence.Writing | evidence.Infrared | evidence.Temperature),
		GhostRoom: "Van",
	})
	require.NoError(t, f.house.AddHunter("Ray", 1))
	for _, ev := range []evidence.Type{evidence.EMF, evidence.Orbs, evidence.Radio} {
		g.Room(0).LeaveEvidence(ev)
	}

	report, err := f.house.Run()
	require.NoError(t, err)
	assert.True(t, report.Solved)
	assert.False(t, report.Identified)
	assert.True(t, report.HuntersWon)
	assert.Equal(t, 1, report.EvidenceExits)
	assert.Equal(t, "Hunters Win!", report.Verdict())
}

func TestGhostStep(t *testing.T) {
	g := room.NewGraph("h")
	a := g.Create("A", false)
	b := g.Create("B", false)
	g.Connect(a, b)

	// start room draw, drop roll, evidence index, move choice
	f := newFixture(t, g, HouseOptions{
		GhostType: evidence.GhostType(evidence.EMF),
		GhostRoom: "A",
		Rand:      &scriptRand{vals: []int{0, 0, 2, 0}},
	})
	ghost := f.house.Ghost()
	require.True(t, g.Room(a).GhostPresent())

	require.False(t, ghost.Step())
	assert.Equal(t, evidence.Set(evidence.Radio), g.Room(a).Evidence())
	assert.False(t, g.Room(a).GhostPresent())
	assert.True(t, g.Room(b).GhostPresent())
	assert.Equal(t, b, ghost.Room())
	assert.Equal(t, 1, ghost.Boredom())

	ghost.boredom = DefaultBoredomMax
	require.True(t, ghost.Step())
	assert.True(t, g.Room(b).GhostPresent(), "the last room keeps the ghost's mark")
	assert.Len(t, f.log.GetByType(events.EventTypeGhostExit), 1)
	assert.Len(t, f.log.GetByType(events.EventTypeGhostInit), 1)
}

func TestGhostIdlesWithoutConnections(t *testing.T) {
	g := room.NewGraph("h")
	g.Create("Crypt", false)

	f := newFixture(t, g, HouseOptions{
		GhostType: evidence.GhostType(evidence.EMF),
		Rand:      &scriptRand{vals: []int{0, 5}},
	})
	ghost := f.house.Ghost()

	require.False(t, ghost.Step())
	assert.Equal(t, 0, ghost.Room())
	assert.True(t, g.Room(0).Evidence().Empty(), "a roll of 5 drops nothing")
	assert.Len(t, f.log.GetByType(events.EventTypeGhostIdle), 1)
}

func TestHouseLifecycle(t *testing.T) {
	g := room.NewGraph("h")
	g.Create("Closet", false)

	f := newFixture(t, g, HouseOptions{GhostType: evidence.GhostType(evidence.EMF)})
	assert.ErrorIs(t, f.house.AddHunter("  ", 1), ErrInvalidHunter)
	require.NoError(t, f.house.AddHunter("Ray", 1))

	report, err := f.house.Run()
	require.NoError(t, err)
	require.Len(t, report.Hunters, 1)
	assert.Equal(t, "Closet", report.Hunters[0].Room)

	assert.ErrorIs(t, f.house.AddHunter("Egon", 2), ErrHouseStarted)
	_, err = f.house.Run()
	assert.ErrorIs(t, err, ErrHouseStarted)

	all := f.log.Replay()
	assert.Equal(t, events.EventTypeRunComplete, all[len(all)-1].Type)
}

func TestNewHouseErrors(t *testing.T) {
	_, err := NewHouse(room.NewGraph("empty"), nil, nil, HouseOptions{})
	assert.ErrorIs(t, err, ErrNoRooms)

	g := room.NewGraph("h")
	g.Create("A", true)
	_, err = NewHouse(g, nil, nil, HouseOptions{GhostRoom: "Cellar"})
	assert.ErrorIs(t, err, ErrUnknownRoom)

	h, err := NewHouse(g, nil, nil, HouseOptions{Metrics: metrics.New()})
	require.NoError(t, err)
	assert.True(t, h.Ghost().Type.Valid(), "random ghosts come from the catalogue")
	assert.Equal(t, DefaultGhostID, h.Ghost().ID)
}

func TestConcurrentRunKeepsRoomsConsistent(t *testing.T) {
	g, err := layout.Build(layout.Default(), "stress")
	require.NoError(t, err)

	f := newFixture(t, g, HouseOptions{
		Rand:       DefaultRand(),
		StepJitter: 50 * time.Microsecond,
	})
	for i := 0; i < 12; i++ {
		require.NoError(t, f.house.AddHunter("hunter", i))
	}

	stop := make(chan struct{})
	var sampler sync.WaitGroup
	sampler.Add(1)
	var violations []string
	go func() {
		defer sampler.Done()
		var last evidence.Set
		for {
			select {
			case <-stop:
				return
			default:
			}
			for _, r := range g.Rooms() {
				occ := r.Occupants()
				if len(occ) > room.MaxOccupancy {
					violations = append(violations, r.Name+": over capacity")
				}
				seen := map[int]bool{}
				for _, o := range occ {
					if seen[o] {
						violations = append(violations, r.Name+": duplicate occupant")
					}
					seen[o] = true
				}
			}
			collected := f.house.CaseFile().Collected()
			if !collected.Contains(last) {
				violations = append(violations, "case file lost evidence")
			}
			last = collected
		}
	}()

	report, err := f.house.Run()
	close(stop)
	sampler.Wait()
	require.NoError(t, err)

	assert.Empty(t, violations)
	for _, r := range g.Rooms() {
		assert.Zero(t, r.OccupantCount(), r.Name)
	}
	for _, res := range report.Hunters {
		assert.NotEqual(t, ReasonNone, res.Reason)
	}
	for _, hunter := range f.house.Hunters() {
		assert.Zero(t, hunter.trail.Len())
	}
	assert.Equal(t, report.EvidenceExits > 0, report.HuntersWon)
	assert.Equal(t, report.Collected, f.house.CaseFile().Collected())
}
