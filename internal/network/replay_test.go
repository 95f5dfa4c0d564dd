package network

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MRamiBalles/CasaEmbrujada/internal/engine"
	"github.com/MRamiBalles/CasaEmbrujada/internal/events"
	"github.com/MRamiBalles/CasaEmbrujada/internal/platform/logger"
)

func seededLog() *events.EventLog {
	el := events.NewEventLog(nil)
	el.Append(events.GameEvent{RunID: "run-1", Type: events.EventTypeGhostInit, ActorID: "ghost-68057", Room: "Attic"})
	el.Append(events.GameEvent{RunID: "run-1", Type: events.EventTypeHunterInit, ActorID: "hunter-1", Room: "Van"})
	el.Append(events.GameEvent{RunID: "run-1", Type: events.EventTypeHunterMove, ActorID: "hunter-1", Room: "Van"})
	el.Append(events.GameEvent{RunID: "run-2", Type: events.EventTypeHunterInit, ActorID: "hunter-1", Room: "Van"})
	return el
}

func serve(t *testing.T, h *ReplayHandler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestHandleReplayFilters(t *testing.T) {
	h := NewReplayHandler(seededLog(), nil, logger.Nop())

	tests := []struct {
		name   string
		target string
		want   int
	}{
		{"everything", "/api/replay", 4},
		{"by run", "/api/replay?run=run-1", 3},
		{"by actor and run", "/api/replay?run=run-1&actor=hunter-1", 2},
		{"by type", "/api/replay?type=HUNTER_INIT", 2},
		{"nothing", "/api/replay?actor=hunter-7", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(t, h, http.MethodGet, tt.target)
			require.Equal(t, http.StatusOK, rec.Code)

			var resp ReplayResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.want, resp.TotalEvents)
			assert.Len(t, resp.Events, tt.want)
		})
	}
}

func TestHandleReplayKeepsOrder(t *testing.T) {
	rec := serve(t, NewReplayHandler(seededLog(), nil, logger.Nop()), http.MethodGet, "/api/replay?run=run-1")

	var resp ReplayResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Events, 3)
	for i, e := range resp.Events {
		assert.Equal(t, int64(i+1), e.Seq)
	}
	assert.Equal(t, "run=run-1", resp.FilteredBy)
}

func TestHandlersRejectWrites(t *testing.T) {
	h := NewReplayHandler(seededLog(), nil, logger.Nop())
	for _, target := range []string{"/api/replay", "/api/report", "/api/stats"} {
		rec := serve(t, h, http.MethodPost, target)
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code, target)
	}
}

func TestHandleReport(t *testing.T) {
	board := NewReportBoard(2)
	h := NewReplayHandler(seededLog(), board, logger.Nop())

	rec := serve(t, h, http.MethodGet, "/api/report")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	board.Publish(&engine.Report{RunID: "run-1", GhostName: "Spirit"})
	board.Publish(&engine.Report{RunID: "run-2", GhostName: "Mare", HuntersWon: true})

	rec = serve(t, h, http.MethodGet, "/api/report")
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Verdict string        `json:"verdict"`
		Report  engine.Report `json:"report"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "run-2", body.Report.RunID)
	assert.Equal(t, "Hunters Win!", body.Verdict)

	rec = serve(t, h, http.MethodGet, "/api/report?run=run-1")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Ghost Wins!", body.Verdict)
}

func TestHandleStats(t *testing.T) {
	rec := serve(t, NewReplayHandler(seededLog(), nil, logger.Nop()), http.MethodGet, "/api/stats")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Total  int            `json:"total_events"`
		Runs   int            `json:"runs"`
		ByType map[string]int `json:"by_type"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 4, body.Total)
	assert.Equal(t, 2, body.Runs)
	assert.Equal(t, 2, body.ByType["HUNTER_INIT"])
}

func TestReportBoardEvictsOldest(t *testing.T) {
	board := NewReportBoard(2)
	assert.Nil(t, board.Latest())

	board.Publish(&engine.Report{RunID: "a"})
	board.Publish(&engine.Report{RunID: "b"})
	board.Publish(&engine.Report{RunID: "c"})
	board.Publish(nil)

	assert.Equal(t, 2, board.Len())
	assert.Nil(t, board.Get("a"))
	assert.Equal(t, "c", board.Latest().RunID)
}
