package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/MRamiBalles/CasaEmbrujada/internal/engine"
	"github.com/MRamiBalles/CasaEmbrujada/internal/events"
	"github.com/MRamiBalles/CasaEmbrujada/internal/infra/storage"
	"github.com/MRamiBalles/CasaEmbrujada/internal/platform/metrics"
)

// SQLitePersisterAdapter translates simulation events to storage events.
type SQLitePersisterAdapter struct {
	repo    storage.EventRepository
	metrics *metrics.Collector
}

func (a *SQLitePersisterAdapter) Append(event events.GameEvent) error {
	payloadBytes, err := json.Marshal(event.Payload)
	if err != nil {
		a.metrics.RecordEventWrite(err)
		return fmt.Errorf("encode payload of event %d: %w", event.Seq, err)
	}
	var payloadMap map[string]any
	if err := json.Unmarshal(payloadBytes, &payloadMap); err != nil {
		a.metrics.RecordEventWrite(err)
		return fmt.Errorf("decode payload of event %d: %w", event.Seq, err)
	}

	storageEvent := storage.StoredEvent{
		ID:        event.ID,
		RunID:     event.RunID,
		Seq:       event.Seq,
		Timestamp: event.Timestamp,
		EventType: string(event.Type),
		ActorID:   event.ActorID,
		Room:      event.Room,
		Payload:   payloadMap,
	}
	err = a.repo.Append(context.Background(), storageEvent)
	a.metrics.RecordEventWrite(err)
	return err
}

// archive bundles the repositories of one sqlite file.
type archive struct {
	db      *sql.DB
	events  *storage.SQLiteEventRepository
	reports *storage.SQLiteReportRepository
}

func openArchive(path string) (*archive, error) {
	db, err := storage.InitSQLite(path)
	if err != nil {
		return nil, err
	}
	return &archive{
		db:      db,
		events:  storage.NewSQLiteEventRepository(db),
		reports: storage.NewSQLiteReportRepository(db),
	}, nil
}

func (a *archive) persister(m *metrics.Collector) *SQLitePersisterAdapter {
	return &SQLitePersisterAdapter{repo: a.events, metrics: m}
}

func (a *archive) Close() error {
	return a.db.Close()
}

// runRecord converts a report for the archive.
func runRecord(r *engine.Report) storage.RunRecord {
	rec := storage.RunRecord{
		RunID:         r.RunID,
		HouseID:       r.HouseID,
		GhostID:       r.GhostID,
		GhostType:     r.GhostName,
		Collected:     int(r.Collected),
		Evidence:      r.Collected.String(),
		Solved:        r.Solved,
		Identified:    r.Identified,
		EvidenceExits: r.EvidenceExits,
		HuntersWon:    r.HuntersWon,
		StartedAt:     r.StartedAt,
		FinishedAt:    r.FinishedAt,
		Hunters:       make([]storage.HunterRecord, 0, len(r.Hunters)),
	}
	for _, h := range r.Hunters {
		rec.Hunters = append(rec.Hunters, storage.HunterRecord{
			Name:     h.Name,
			HunterID: h.ID,
			Device:   h.Device,
			Reason:   string(h.Reason),
			Fear:     h.Fear,
			Boredom:  h.Boredom,
			Room:     h.Room,
		})
	}
	return rec
}
