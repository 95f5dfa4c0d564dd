package engine

import (
	"time"

	"github.com/MRamiBalles/CasaEmbrujada/internal/domain/evidence"
)

// HunterResult is a hunter's frozen final state.
type HunterResult struct {
	Name    string     `json:"name"`
	ID      int        `json:"id"`
	Device  string     `json:"device"`
	Reason  ExitReason `json:"reason"`
	Fear    int        `json:"fear"`
	Boredom int        `json:"boredom"`
	Room    string     `json:"room"` // where the hunter stopped
}

// Report is the outcome of one run.
type Report struct {
	RunID      string             `json:"run_id"`
	HouseID    string             `json:"house_id"`
	GhostID    int                `json:"ghost_id"`
	GhostType  evidence.GhostType `json:"ghost_type"`
	GhostName  string             `json:"ghost_name"`
	Collected  evidence.Set       `json:"collected"`
	Solved     bool               `json:"solved"`
	Identified bool               `json:"identified"` // collected covers the ghost's signature
	Hunters    []HunterResult     `json:"hunters"`

	EvidenceExits int  `json:"evidence_exits"`
	HuntersWon    bool `json:"hunters_won"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Verdict returns the headline of the results screen.
func (r *Report) Verdict() string {
	if r.HuntersWon {
		return "Hunters Win!"
	}
	return "Ghost Wins!"
}

// Duration returns the wall time of the run.
func (r *Report) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// CountByReason tallies hunters per exit reason.
func (r *Report) CountByReason() map[ExitReason]int {
	out := make(map[ExitReason]int, 3)
	for _, h := range r.Hunters {
		out[h.Reason]++
	}
	return out
}

// report assembles the outcome once every actor has been joined.
func (h *House) report(started, finished time.Time) *Report {
	snap := h.caseFile.Snapshot()
	r := &Report{
		RunID:      h.RunID,
		HouseID:    h.rooms.HouseID,
		GhostID:    h.ghost.ID,
		GhostType:  h.ghost.Type,
		GhostName:  h.ghost.Type.String(),
		Collected:  snap.Collected,
		Solved:     snap.Solved,
		Identified: snap.Collected.Contains(h.ghost.Type.Signature()),
		Hunters:    make([]HunterResult, 0, len(h.hunters)),
		StartedAt:  started,
		FinishedAt: finished,
	}
	for _, hunter := range h.hunters {
		res := hunter.Result()
		if res.Reason == ReasonEvidence {
			r.EvidenceExits++
		}
		r.Hunters = append(r.Hunters, res)
	}
	r.HuntersWon = r.EvidenceExits > 0
	return r
}
