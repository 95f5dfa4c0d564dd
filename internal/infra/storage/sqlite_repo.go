package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// SQLiteEventRepository implements EventRepository for SQLite.
type SQLiteEventRepository struct {
	db *sql.DB
}

func NewSQLiteEventRepository(db *sql.DB) *SQLiteEventRepository {
	return &SQLiteEventRepository{db: db}
}

func (r *SQLiteEventRepository) Append(ctx context.Context, event StoredEvent) error {
	payloadBytes, err := json.Marshal(event.Payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	query := `
		INSERT INTO events (id, run_id, seq, timestamp, event_type, actor_id, room, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = r.db.ExecContext(ctx, query,
		event.ID, event.RunID, event.Seq, event.Timestamp.UnixNano(), event.EventType,
		event.ActorID, event.Room, string(payloadBytes),
	)
	if err != nil {
		return fmt.Errorf("failed to append event: %w", err)
	}
	return nil
}

const eventColumns = `id, run_id, seq, timestamp, event_type, actor_id, room, payload`

func (r *SQLiteEventRepository) getMany(ctx context.Context, query string, args ...any) ([]StoredEvent, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []StoredEvent
	for rows.Next() {
		var e StoredEvent
		var ts int64
		var payloadStr string
		err := rows.Scan(&e.ID, &e.RunID, &e.Seq, &ts, &e.EventType, &e.ActorID, &e.Room, &payloadStr)
		if err != nil {
			return nil, err
		}
		e.Timestamp = time.Unix(0, ts)
		if err := json.Unmarshal([]byte(payloadStr), &e.Payload); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (r *SQLiteEventRepository) GetByRunID(ctx context.Context, runID string) ([]StoredEvent, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE run_id = ? ORDER BY seq ASC`
	return r.getMany(ctx, query, runID)
}

func (r *SQLiteEventRepository) GetByActorID(ctx context.Context, runID, actorID string) ([]StoredEvent, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE run_id = ? AND actor_id = ? ORDER BY seq ASC`
	return r.getMany(ctx, query, runID, actorID)
}

func (r *SQLiteEventRepository) GetByEventType(ctx context.Context, runID string, eventType string) ([]StoredEvent, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE run_id = ? AND event_type = ? ORDER BY seq ASC`
	return r.getMany(ctx, query, runID, eventType)
}

// ---------------------------------------------------------
// SQLiteReportRepository
// ---------------------------------------------------------

type SQLiteReportRepository struct {
	db *sql.DB
}

func NewSQLiteReportRepository(db *sql.DB) *SQLiteReportRepository {
	return &SQLiteReportRepository{db: db}
}

func (r *SQLiteReportRepository) Save(ctx context.Context, run RunRecord) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin run save: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (run_id, house_id, ghost_id, ghost_type, collected, evidence, solved, identified,
			evidence_exits, hunters_won, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.RunID, run.HouseID, run.GhostID, run.GhostType, run.Collected, run.Evidence, run.Solved,
		run.Identified, run.EvidenceExits, run.HuntersWon, run.StartedAt.UnixNano(), run.FinishedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	for i, h := range run.Hunters {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO hunter_results (run_id, position, name, hunter_id, device, reason, fear, boredom, room)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, run.RunID, i, h.Name, h.HunterID, h.Device, h.Reason, h.Fear, h.Boredom, h.Room)
		if err != nil {
			return fmt.Errorf("failed to insert hunter %q: %w", h.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}
	return nil
}

const runColumns = `run_id, house_id, ghost_id, ghost_type, collected, evidence, solved, identified,
	evidence_exits, hunters_won, started_at, finished_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (RunRecord, error) {
	var run RunRecord
	var started, finished int64
	err := s.Scan(&run.RunID, &run.HouseID, &run.GhostID, &run.GhostType, &run.Collected, &run.Evidence,
		&run.Solved, &run.Identified, &run.EvidenceExits, &run.HuntersWon, &started, &finished)
	if err != nil {
		return RunRecord{}, err
	}
	run.StartedAt = time.Unix(0, started)
	run.FinishedAt = time.Unix(0, finished)
	return run, nil
}

func (r *SQLiteReportRepository) Get(ctx context.Context, runID string) (*RunRecord, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE run_id = ?`, runID)
	run, err := scanRun(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT name, hunter_id, device, reason, fear, boredom, room
		FROM hunter_results WHERE run_id = ? ORDER BY position ASC
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var h HunterRecord
		if err := rows.Scan(&h.Name, &h.HunterID, &h.Device, &h.Reason, &h.Fear, &h.Boredom, &h.Room); err != nil {
			return nil, err
		}
		run.Hunters = append(run.Hunters, h)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &run, nil
}

func (r *SQLiteReportRepository) List(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.QueryContext(ctx, `SELECT `+runColumns+` FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
