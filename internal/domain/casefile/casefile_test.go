package casefile

import (
	"math/rand/v2"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MRamiBalles/CasaEmbrujada/internal/domain/evidence"
)

func TestRecordIsMonotonicAndSolvedTracksPopcount(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))

	for trial := 0; trial < 200; trial++ {
		cf := New()
		var prev evidence.Set

		for step := 0; step < 12; step++ {
			found := evidence.Set(rng.IntN(1 << evidence.Count))
			snap := cf.Record(found)

			require.True(t, snap.Collected.Contains(prev), "collected lost a bit")
			assert.Equal(t, snap.Collected.Len() >= 3, snap.Solved)
			assert.Equal(t, snap, cf.Snapshot())
			prev = snap.Collected
		}
	}
}

func TestSolvedWithoutIdentification(t *testing.T) {
	cf := New()
	poltergeist, ok := evidence.ParseGhostType("Poltergeist")
	require.True(t, ok)

	cf.Record(evidence.Set(evidence.EMF | evidence.Orbs | evidence.Radio))
	assert.True(t, cf.Solved())
	assert.False(t, cf.Identifies(poltergeist), "three unrelated bits must not identify the ghost")

	cf.Record(poltergeist.Signature())
	assert.True(t, cf.Identifies(poltergeist))
}

func TestEmptyRecordKeepsState(t *testing.T) {
	cf := New()
	cf.Record(evidence.Set(evidence.Writing))
	snap := cf.Record(0)
	assert.Equal(t, evidence.Set(evidence.Writing), snap.Collected)
	assert.False(t, snap.Solved)
}

func TestConcurrentRecord(t *testing.T) {
	cf := New()
	var wg sync.WaitGroup
	for _, ev := range evidence.All() {
		wg.Add(1)
		go func(ev evidence.Type) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				snap := cf.Record(evidence.Set(ev))
				assert.Equal(t, snap.Collected.Len() >= 3, snap.Solved)
			}
		}(ev)
	}
	wg.Wait()

	assert.Equal(t, evidence.Set(0x7f), cf.Collected())
	assert.True(t, cf.Solved())
}
