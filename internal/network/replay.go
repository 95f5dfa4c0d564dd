package network

import (
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/MRamiBalles/CasaEmbrujada/internal/engine"
	"github.com/MRamiBalles/CasaEmbrujada/internal/events"
	"github.com/MRamiBalles/CasaEmbrujada/internal/platform/logger"
)

// ReplaySource is the part of the event log the replay API reads.
type ReplaySource interface {
	Replay() []events.GameEvent
}

// ReplayHandler serves the recorded events and finished run reports.
type ReplayHandler struct {
	source ReplaySource
	board  *ReportBoard
	logger *logger.Logger
}

// NewReplayHandler creates a new replay handler.
func NewReplayHandler(source ReplaySource, board *ReportBoard, log *logger.Logger) *ReplayHandler {
	if board == nil {
		board = NewReportBoard(0)
	}
	return &ReplayHandler{source: source, board: board, logger: log}
}

// ReplayEvent is an event as the replay API shows it.
type ReplayEvent struct {
	ID        string           `json:"id"`
	Seq       int64            `json:"seq"`
	RunID     string           `json:"run_id"`
	Timestamp string           `json:"timestamp"`
	Type      events.EventType `json:"type"`
	ActorID   string           `json:"actor_id"`
	Room      string           `json:"room"`
	Payload   any              `json:"payload,omitempty"`
}

// ReplayResponse is the API response for a replay.
type ReplayResponse struct {
	RunID       string        `json:"run_id,omitempty"`
	TotalEvents int           `json:"total_events"`
	FilteredBy  string        `json:"filtered_by,omitempty"`
	GeneratedAt string        `json:"generated_at"`
	Events      []ReplayEvent `json:"events"`
}

// HandleReplay returns recorded events.
// GET /api/replay?run=XXX&actor=hunter-1&type=HUNTER_MOVE
func (rh *ReplayHandler) HandleReplay(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		rh.jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	filter := FilterFromQuery(r.URL.Query())
	replayEvents := []ReplayEvent{}
	for _, e := range rh.source.Replay() {
		if !filter.Match(e) {
			continue
		}
		replayEvents = append(replayEvents, ReplayEvent{
			ID:        e.ID,
			Seq:       e.Seq,
			RunID:     e.RunID,
			Timestamp: e.Timestamp.Format(time.RFC3339Nano),
			Type:      e.Type,
			ActorID:   e.ActorID,
			Room:      e.Room,
			Payload:   e.Payload,
		})
	}

	response := ReplayResponse{
		RunID:       filter.RunID,
		TotalEvents: len(replayEvents),
		FilteredBy:  describe(filter),
		GeneratedAt: time.Now().Format(time.RFC3339),
		Events:      replayEvents,
	}
	rh.logger.Debug("Replay served: " + strconv.Itoa(len(replayEvents)) + " events")
	writeJSON(w, response)
}

func describe(f Filter) string {
	var out string
	add := func(k, v string) {
		if out != "" {
			out += " "
		}
		out += k + "=" + v
	}
	if f.RunID != "" {
		add("run", f.RunID)
	}
	if f.Actor != "" {
		add("actor", f.Actor)
	}
	for _, t := range f.Types {
		add("type", string(t))
	}
	return out
}

// HandleReport returns a finished run report, the latest one unless run is given.
// GET /api/report?run=XXX
func (rh *ReplayHandler) HandleReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		rh.jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var report *engine.Report
	if run := r.URL.Query().Get("run"); run != "" {
		report = rh.board.Get(run)
	} else {
		report = rh.board.Latest()
	}
	if report == nil {
		rh.jsonError(w, "Report not found", http.StatusNotFound)
		return
	}
	writeJSON(w, map[string]any{
		"verdict": report.Verdict(),
		"report":  report,
	})
}

// HandleStats returns event counts by type.
// GET /api/stats
func (rh *ReplayHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		rh.jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	all := rh.source.Replay()
	byType := map[events.EventType]int{}
	runs := map[string]struct{}{}
	for _, e := range all {
		byType[e.Type]++
		runs[e.RunID] = struct{}{}
	}

	writeJSON(w, map[string]any{
		"generated_at": time.Now().Format(time.RFC3339),
		"total_events": len(all),
		"runs":         len(runs),
		"by_type":      byType,
	})
}

// RegisterRoutes sets up the replay API routes.
func (rh *ReplayHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/replay", rh.HandleReplay)
	mux.HandleFunc("/api/report", rh.HandleReport)
	mux.HandleFunc("/api/stats", rh.HandleStats)
}

func (rh *ReplayHandler) jsonError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

// DefaultBoardSize is how many reports a board keeps when no limit is given.
const DefaultBoardSize = 50

// ReportBoard keeps the most recent run reports in memory.
type ReportBoard struct {
	mu      sync.RWMutex
	order   []string
	reports map[string]*engine.Report
	limit   int
}

// NewReportBoard creates a board holding at most limit reports.
func NewReportBoard(limit int) *ReportBoard {
	if limit <= 0 {
		limit = DefaultBoardSize
	}
	return &ReportBoard{reports: make(map[string]*engine.Report), limit: limit}
}

// Publish adds a report, evicting the oldest when the board is full.
func (b *ReportBoard) Publish(r *engine.Report) {
	if r == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.reports[r.RunID]; !ok {
		b.order = append(b.order, r.RunID)
	}
	b.reports[r.RunID] = r
	for len(b.order) > b.limit {
		delete(b.reports, b.order[0])
		b.order = b.order[1:]
	}
}

// Latest returns the most recently published report, or nil.
func (b *ReportBoard) Latest() *engine.Report {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if len(b.order) == 0 {
		return nil
	}
	return b.reports[b.order[len(b.order)-1]]
}

// Get returns the report of a run, or nil.
func (b *ReportBoard) Get(runID string) *engine.Report {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.reports[runID]
}

// Len returns the number of reports held.
func (b *ReportBoard) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.order)
}
