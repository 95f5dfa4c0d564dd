package engine

// Pure transition rules for the actor loops. They take counters in and hand
// counters or decisions back, so they can be tested without rooms or randomness.

const (
	DefaultFearMax      = 15
	DefaultBoredomMax   = 15
	DefaultEvidenceOdds = 6 // the ghost drops evidence on 1 step in 6
)

// Limits are the thresholds that end the actors' loops.
type Limits struct {
	FearMax      int
	BoredomMax   int
	EvidenceOdds int
}

// DefaultLimits returns the classic thresholds.
func DefaultLimits() Limits {
	return Limits{
		FearMax:      DefaultFearMax,
		BoredomMax:   DefaultBoredomMax,
		EvidenceOdds: DefaultEvidenceOdds,
	}
}

// withDefaults fills zero fields.
func (l Limits) withDefaults() Limits {
	if l.FearMax <= 0 {
		l.FearMax = DefaultFearMax
	}
	if l.BoredomMax <= 0 {
		l.BoredomMax = DefaultBoredomMax
	}
	if l.EvidenceOdds <= 0 {
		l.EvidenceOdds = DefaultEvidenceOdds
	}
	return l
}

// ExitReason tags how a hunter left the investigation.
type ExitReason string

const (
	ReasonNone     ExitReason = ""
	ReasonEvidence ExitReason = "EVIDENCE"
	ReasonBored    ExitReason = "BORED"
	ReasonAfraid   ExitReason = "AFRAID"
)

// checkThresholds returns the reason a hunter with these counters must stop,
// or ReasonNone. Fear is checked first.
func checkThresholds(fear, boredom int, lim Limits) ExitReason {
	switch {
	case fear >= lim.FearMax:
		return ReasonAfraid
	case boredom >= lim.BoredomMax:
		return ReasonBored
	default:
		return ReasonNone
	}
}

// applyPresence updates a hunter's counters after looking for the ghost.
// The ghost's company scares and entertains; its absence bores.
func applyPresence(fear, boredom int, ghostHere bool) (int, int) {
	if ghostHere {
		return fear + 1, 0
	}
	return fear, boredom + 1
}

// ghostBored reports whether the ghost has lost interest in the house.
func ghostBored(boredom int, lim Limits) bool {
	return boredom >= lim.BoredomMax
}
