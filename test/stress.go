// Package test runs whole houses under load and checks shared state while the
// actors are still moving.
package test

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/MRamiBalles/CasaEmbrujada/internal/domain/evidence"
	"github.com/MRamiBalles/CasaEmbrujada/internal/domain/room"
	"github.com/MRamiBalles/CasaEmbrujada/internal/engine"
	"github.com/MRamiBalles/CasaEmbrujada/internal/events"
	"github.com/MRamiBalles/CasaEmbrujada/internal/layout"
	"github.com/MRamiBalles/CasaEmbrujada/internal/platform/logger"
	"github.com/MRamiBalles/CasaEmbrujada/internal/platform/metrics"
)

// StressConfig sizes a stress run.
type StressConfig struct {
	Houses      int
	Hunters     int // per house
	Parallel    int // houses running at once; 0 = all
	Seed        uint64
	StepJitter  time.Duration
	SampleEvery time.Duration
	Layout      *layout.Spec // nil = built-in house
}

// DefaultStressConfig returns a run that keeps the start room over capacity.
func DefaultStressConfig() StressConfig {
	return StressConfig{
		Houses:      8,
		Hunters:     12,
		StepJitter:  200 * time.Microsecond,
		SampleEvery: 50 * time.Microsecond,
	}
}

// HouseResult is what one stressed house produced.
type HouseResult struct {
	Report     *engine.Report
	Samples    int
	Violations []string
}

// StressResult captures the outcome of a stress run.
type StressResult struct {
	Houses  []HouseResult
	Metrics map[string]float64
	Elapsed time.Duration
}

// Passed reports whether no house recorded a violation.
func (r *StressResult) Passed() bool {
	for _, h := range r.Houses {
		if len(h.Violations) > 0 {
			return false
		}
	}
	return true
}

// Violations returns every violation, prefixed with its run.
func (r *StressResult) Violations() []string {
	var out []string
	for _, h := range r.Houses {
		for _, v := range h.Violations {
			out = append(out, h.Report.RunID+": "+v)
		}
	}
	return out
}

// RunStress runs cfg.Houses houses concurrently. Houses that have not started
// when ctx ends are skipped; started houses always finish.
func RunStress(ctx context.Context, cfg StressConfig, log *logger.Logger) (*StressResult, error) {
	if cfg.Houses <= 0 || cfg.Hunters <= 0 {
		return nil, fmt.Errorf("stress: need houses and hunters, got %d and %d", cfg.Houses, cfg.Hunters)
	}
	if cfg.SampleEvery <= 0 {
		cfg.SampleEvery = DefaultStressConfig().SampleEvery
	}
	spec := layout.Default()
	if cfg.Layout != nil {
		spec = *cfg.Layout
	}
	if log == nil {
		log = logger.Nop()
	}

	m := metrics.New()
	results := make([]HouseResult, cfg.Houses)
	began := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	if cfg.Parallel > 0 {
		g.SetLimit(cfg.Parallel)
	}
	for i := range cfg.Houses {
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			res, err := stressHouse(i, spec, cfg, m, log)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	snap, err := m.Snapshot()
	if err != nil {
		return nil, err
	}
	return &StressResult{Houses: results, Metrics: snap, Elapsed: time.Since(began)}, nil
}

func stressHouse(i int, spec layout.Spec, cfg StressConfig, m *metrics.Collector, log *logger.Logger) (HouseResult, error) {
	graph, err := layout.Build(spec, fmt.Sprintf("%s #%d", spec.Name, i+1))
	if err != nil {
		return HouseResult{}, err
	}

	var rnd engine.Rand
	if cfg.Seed != 0 {
		rnd = engine.NewSeededRand(cfg.Seed + uint64(i))
	}
	el := events.NewEventLog(nil)
	house, err := engine.NewHouse(graph, el, log, engine.HouseOptions{
		Rand:       rnd,
		Metrics:    m,
		StepJitter: cfg.StepJitter,
	})
	if err != nil {
		return HouseResult{}, err
	}
	for h := range cfg.Hunters {
		if err := house.AddHunter(fmt.Sprintf("Hunter-%d", h+1), h+1); err != nil {
			return HouseResult{}, err
		}
	}

	s := &sampler{house: house, every: cfg.SampleEvery, stop: make(chan struct{})}
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.loop()
	}()

	report, err := house.Run()
	close(s.stop)
	wg.Wait()
	if err != nil {
		return HouseResult{}, err
	}

	s.finalChecks(report, el)
	return HouseResult{Report: report, Samples: s.samples, Violations: s.violations}, nil
}

// sampler reads the house through its synchronized accessors while the
// actors run.
type sampler struct {
	house *engine.House
	every time.Duration
	stop  chan struct{}

	samples    int
	violations []string
	last       evidence.Set
	wasSolved  bool
}

func (s *sampler) loop() {
	ticker := time.NewTicker(s.every)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.sample()
		}
	}
}

func (s *sampler) sample() {
	s.samples++
	for _, r := range s.house.Rooms().Rooms() {
		occ := r.Occupants()
		if len(occ) > room.MaxOccupancy {
			s.fail("%s lists %d occupants", r.Name, len(occ))
		}
		sorted := slices.Clone(occ)
		slices.Sort(sorted)
		if len(slices.Compact(sorted)) != len(occ) {
			s.fail("%s lists a hunter twice: %v", r.Name, occ)
		}
	}

	snap := s.house.CaseFile().Snapshot()
	if !snap.Collected.Contains(s.last) {
		s.fail("case file lost evidence: %s then %s", s.last, snap.Collected)
	}
	if s.wasSolved && !snap.Solved {
		s.fail("case file became unsolved")
	}
	if snap.Solved != evidence.HasThreeUnique(snap.Collected) {
		s.fail("solved=%v with evidence %s", snap.Solved, snap.Collected)
	}
	s.last, s.wasSolved = snap.Collected, snap.Solved
}

func (s *sampler) finalChecks(report *engine.Report, el *events.EventLog) {
	for _, r := range s.house.Rooms().Rooms() {
		if n := r.OccupantCount(); n != 0 {
			s.fail("%s still lists %d hunters after the run", r.Name, n)
		}
	}

	exits := el.GetByType(events.EventTypeHunterExit)
	if len(exits) != len(report.Hunters) {
		s.fail("%d exit events for %d hunters", len(exits), len(report.Hunters))
	}
	for _, h := range report.Hunters {
		if h.Reason == engine.ReasonNone {
			s.fail("hunter %d finished without a reason", h.ID)
		}
	}
	if report.HuntersWon != (report.EvidenceExits > 0) {
		s.fail("verdict disagrees with %d evidence exits", report.EvidenceExits)
	}
	if len(el.GetByType(events.EventTypeGhostExit)) > 1 {
		s.fail("ghost left more than once")
	}
}

func (s *sampler) fail(format string, args ...any) {
	s.violations = append(s.violations, fmt.Sprintf(format, args...))
}
