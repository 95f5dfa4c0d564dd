package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordRun(t *testing.T) {
	c := New()
	c.RecordRun(true, 20*time.Millisecond)
	c.RecordRun(false, 5*time.Millisecond)
	c.RecordRun(false, 5*time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.Runs.WithLabelValues("hunters")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.Runs.WithLabelValues("ghost")))
}

func TestRecordEventWrite(t *testing.T) {
	c := New()
	c.RecordEventWrite(nil)
	c.RecordEventWrite(nil)
	c.RecordEventWrite(errors.New("locked"))

	assert.Equal(t, 2.0, testutil.ToFloat64(c.EventsPersisted))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.EventPersistErrors))
}

func TestSnapshotFlattensLabels(t *testing.T) {
	c := New()
	c.HunterExits.WithLabelValues("BORED").Add(3)
	c.HunterMoves.Inc()
	c.RecordRun(true, time.Millisecond)

	snap, err := c.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, 3.0, snap["ghosthunt_hunter_exits_total{reason=BORED}"])
	assert.Equal(t, 1.0, snap["ghosthunt_hunter_moves_total"])
	assert.Equal(t, 1.0, snap["ghosthunt_run_duration_seconds_count"])
}

func TestHandlerServesPrometheusText(t *testing.T) {
	c := New()
	c.GhostMoves.Add(4)

	srv := httptest.NewServer(c.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), "ghosthunt_ghost_moves_total 4")
}

func TestGlobalCollector(t *testing.T) {
	assert.Same(t, Get(), Get())
}
