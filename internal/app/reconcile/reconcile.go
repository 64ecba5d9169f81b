// Package reconcile runs the torn-transition sweep: a periodic cross-check
// that every customer's current stage matches the newest entry in their
// audit trail. Stage moves commit both records in one transaction, so a
// finding means out-of-band data damage and is reported loudly rather
// than repaired automatically.
package reconcile

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/rp011dev/mort-mgmnt-sub000/internal/domain"
)

// Config controls sweep behavior.
type Config struct {
	Interval time.Duration // time between sweeps (default: 15m)
}

// DefaultConfig returns safe sweep defaults.
func DefaultConfig() Config {
	return Config{Interval: 15 * time.Minute}
}

// Stats is a snapshot of sweep activity.
type Stats struct {
	Sweeps        int64     `json:"sweeps"`
	TotalFindings int64     `json:"total_findings"`
	LastRun       time.Time `json:"last_run"`
	LastFindings  int       `json:"last_findings"`
}

// Sweeper drives the consistency check.
type Sweeper struct {
	mu     sync.Mutex
	cfg    Config
	store  domain.ReconcileStore
	logger *log.Logger
	// onFinding is invoked once per torn customer found; used to feed
	// metrics. May be nil.
	onFinding func(domain.TornTransition)
	stats     Stats
}

// New creates a sweeper. A nil logger falls back to the default logger.
func New(cfg Config, store domain.ReconcileStore, logger *log.Logger) *Sweeper {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultConfig().Interval
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Sweeper{cfg: cfg, store: store, logger: logger}
}

// OnFinding registers a callback fired for every torn customer detected.
func (s *Sweeper) OnFinding(fn func(domain.TornTransition)) {
	s.mu.Lock()
	s.onFinding = fn
	s.mu.Unlock()
}

// Run sweeps immediately and then on every interval tick until ctx is
// cancelled. Sweep errors are logged and the loop keeps going.
func (s *Sweeper) Run(ctx context.Context) {
	if _, err := s.RunOnce(); err != nil {
		s.logger.Printf("reconcile: sweep failed: %v", err)
	}

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.RunOnce(); err != nil {
				s.logger.Printf("reconcile: sweep failed: %v", err)
			}
		}
	}
}

// RunOnce performs a single sweep and returns the findings. Each torn
// customer is logged with enough detail to repair by hand.
func (s *Sweeper) RunOnce() ([]domain.TornTransition, error) {
	findings, err := s.store.FindTornTransitions()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.stats.Sweeps++
	s.stats.LastRun = time.Now()
	s.stats.LastFindings = len(findings)
	s.stats.TotalFindings += int64(len(findings))
	onFinding := s.onFinding
	s.mu.Unlock()

	for _, f := range findings {
		s.logger.Printf("reconcile: torn transition for customer %s: stage=%q latest-history=%q (%v)",
			f.CustomerID, f.CurrentStage, f.HistoryStage, domain.ErrPartialTransition)
		if onFinding != nil {
			onFinding(f)
		}
	}
	return findings, nil
}

// Stats returns a snapshot of sweep counters.
func (s *Sweeper) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}
