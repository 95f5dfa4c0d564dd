package room

import (
	"fmt"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MRamiBalles/CasaEmbrujada/internal/domain/evidence"
)

func TestConnectIsSymmetric(t *testing.T) {
	g := NewGraph("house-1")
	van := g.Create("Van", true)
	hall := g.Create("Hallway", false)

	g.Connect(van, hall)

	assert.Equal(t, []int{hall}, g.Room(van).Connections())
	assert.Equal(t, []int{van}, g.Room(hall).Connections())
	assert.Equal(t, 1, g.Room(van).ConnectionCount())
	assert.Equal(t, 1, g.Room(hall).ConnectionCount())
}

func TestConnectIgnoresOverflow(t *testing.T) {
	g := NewGraph("house-1")
	hub := g.Create("Hub", false)
	for i := 0; i < MaxConnections+2; i++ {
		spoke := g.Create(fmt.Sprintf("Spoke %d", i), false)
		g.Connect(hub, spoke)
	}

	assert.Equal(t, MaxConnections, g.Room(hub).ConnectionCount())
	// The spokes that did not fit still recorded their own side.
	last, ok := g.Lookup(fmt.Sprintf("Spoke %d", MaxConnections+1))
	require.True(t, ok)
	assert.Equal(t, []int{hub}, g.Room(last).Connections())
}

func TestConnectRejectsInvalid(t *testing.T) {
	g := NewGraph("house-1")
	a := g.Create("A", false)
	g.Connect(a, a)
	g.Connect(a, 42)
	g.Connect(-1, a)
	assert.Zero(t, g.Room(a).ConnectionCount())
}

func TestGraphStartAndExit(t *testing.T) {
	g := NewGraph("house-1")
	assert.Equal(t, -1, g.Start())

	van := g.Create("Van", false)
	exit := g.Create("ExtractionRoom", true)
	assert.Equal(t, van, g.Start())
	assert.Equal(t, exit, g.Exit())
	assert.True(t, g.Room(exit).IsExit())
	assert.False(t, g.Room(van).IsExit())

	g.SetStart(exit)
	assert.Equal(t, exit, g.Start())

	assert.Equal(t, van, g.Create("Van", false), "duplicate names resolve to the existing room")
	assert.Equal(t, 2, g.Len())
	assert.Nil(t, g.Room(7))
}

func TestGraphCapacity(t *testing.T) {
	g := NewGraph("house-1")
	for i := 0; i < MaxRooms; i++ {
		require.Equal(t, i, g.Create(fmt.Sprintf("Room %d", i), false))
	}
	assert.Equal(t, -1, g.Create("One Too Many", false))
	assert.Equal(t, MaxRooms, g.Len())
}

func TestOccupantCapacity(t *testing.T) {
	g := NewGraph("house-1")
	r := g.Room(g.Create("Van", true))

	for i := 0; i < MaxOccupancy; i++ {
		require.True(t, r.AddOccupant(i))
	}
	assert.False(t, r.AddOccupant(99), "ninth occupant must be ignored")
	assert.Equal(t, MaxOccupancy, r.OccupantCount())

	assert.True(t, r.RemoveOccupant(3))
	assert.False(t, r.RemoveOccupant(3))
	assert.Equal(t, []int{0, 1, 2, 4, 5, 6, 7}, r.Occupants())

	assert.False(t, r.AddOccupant(0), "duplicates are rejected")
}

func TestEvidenceTakeClears(t *testing.T) {
	g := NewGraph("house-1")
	r := g.Room(g.Create("Kitchen", false))

	r.LeaveEvidence(evidence.EMF)
	r.LeaveEvidence(evidence.Orbs)
	assert.Equal(t, evidence.Set(evidence.EMF|evidence.Orbs), r.Evidence())

	assert.Equal(t, evidence.Set(evidence.EMF|evidence.Orbs), r.TakeEvidence())
	assert.True(t, r.Evidence().Empty())
	assert.True(t, r.TakeEvidence().Empty())
}

func TestGhostMarker(t *testing.T) {
	g := NewGraph("house-1")
	r := g.Room(g.Create("Basement", false))

	assert.False(t, r.GhostPresent())
	r.EnterGhost(68057)
	assert.True(t, r.GhostPresent())
	r.LeaveGhost(1)
	assert.True(t, r.GhostPresent(), "another ghost id must not clear the marker")
	r.LeaveGhost(68057)
	assert.False(t, r.GhostPresent())
}

func TestConcurrentOccupancy(t *testing.T) {
	g := NewGraph("house-1")
	r := g.Room(g.Create("Hallway", false))

	var wg sync.WaitGroup
	for h := 0; h < 32; h++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				r.AddOccupant(id)
				occ := r.Occupants()
				assert.LessOrEqual(t, len(occ), MaxOccupancy)
				r.RemoveOccupant(id)
			}
		}(h)
	}
	wg.Wait()

	assert.Zero(t, r.OccupantCount())
}

func TestCreateTruncatesOnRuneBoundary(t *testing.T) {
	g := NewGraph("h")
	// 63 ASCII bytes then a two-byte rune straddling the limit.
	long := strings.Repeat("a", MaxNameLength-1) + "é" + "tail"
	idx := g.Create(long, false)

	name := g.Room(idx).Name
	assert.True(t, utf8.ValidString(name))
	assert.Equal(t, strings.Repeat("a", MaxNameLength-1), name)

	assert.Equal(t, "Attic", TruncateName("Attic", 5))
	assert.Equal(t, "ab", TruncateName("abé", 3))
	assert.Equal(t, "abé", TruncateName("abé", 4))
	assert.Equal(t, "", TruncateName("日本", 2))
}
