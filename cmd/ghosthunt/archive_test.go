package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MRamiBalles/CasaEmbrujada/internal/events"
	"github.com/MRamiBalles/CasaEmbrujada/internal/platform/metrics"
)

func TestPersisterReportsUnencodablePayload(t *testing.T) {
	arc, err := openArchive(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	defer arc.Close()
	p := arc.persister(metrics.New())

	err = p.Append(events.GameEvent{ID: "bad", RunID: "r1", Seq: 1, Type: events.EventTypeGhostMove, Payload: make(chan int)})
	assert.ErrorContains(t, err, "encode payload of event 1")

	require.NoError(t, p.Append(events.GameEvent{
		ID:      "good",
		RunID:   "r1",
		Seq:     2,
		Type:    events.EventTypeHunterMove,
		ActorID: "hunter-1",
		Payload: events.HunterPayload{HunterID: 1, Name: "Ray", To: "Attic"},
	}))

	stored, err := arc.events.GetByRunID(context.Background(), "r1")
	require.NoError(t, err)
	require.Len(t, stored, 1, "the failed event is not archived as null")
	assert.Equal(t, "Attic", stored[0].Payload["to"])
}
