package daemon

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"github.com/rp011dev/mort-mgmnt-sub000/internal/api"
	"github.com/rp011dev/mort-mgmnt-sub000/internal/app/ledger"
	"github.com/rp011dev/mort-mgmnt-sub000/internal/app/pipeline"
	"github.com/rp011dev/mort-mgmnt-sub000/internal/app/reconcile"
	"github.com/rp011dev/mort-mgmnt-sub000/internal/domain"
	"github.com/rp011dev/mort-mgmnt-sub000/internal/infra/observability"
	"github.com/rp011dev/mort-mgmnt-sub000/internal/infra/sqlite"
)

// prunePeriod is how often expired idempotency keys are swept out.
const prunePeriod = time.Hour

// Daemon is the assembled mortd process.
type Daemon struct {
	cfg     Config
	logger  *log.Logger
	db      *sqlite.DB
	lock    *flock.Flock
	server  *http.Server
	sweeper *reconcile.Sweeper
}

// New wires the daemon: instance lock, database, services, HTTP server.
// The caller must Run it; New does not start anything.
func New(cfg Config, logger *log.Logger) (*Daemon, error) {
	if logger == nil {
		logger = log.Default()
	}
	dataDir := cfg.ResolvedDataDir()
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	// One daemon per data dir. CLI commands talk to the running instance
	// over HTTP instead of opening the database directly.
	lock := flock.New(filepath.Join(dataDir, "mortd.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire instance lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("another mortd instance is already running in %s", dataDir)
	}

	db, err := sqlite.Open(dataDir)
	if err != nil {
		lock.Unlock()
		return nil, err
	}

	lifecycle := pipeline.NewLifecycleService(db)
	history := pipeline.NewHistoryService(db)
	fees := ledger.NewFeeService(db, ledger.Config{
		Currency:             cfg.Fees.Currency,
		DefaultPaymentMethod: cfg.Fees.DefaultPaymentMethod,
		UpcomingWindow:       cfg.UpcomingWindow(),
	})

	sweeper := reconcile.New(reconcile.Config{Interval: cfg.ReconcileInterval()}, db, logger)
	sweeper.OnFinding(func(domain.TornTransition) {
		observability.TornTransitions.Inc()
	})

	srv := api.NewServer(lifecycle, history, fees)
	srv.SetSweeper(sweeper)
	if cfg.API.EnableMetrics {
		srv.EnableMetrics()
	}

	return &Daemon{
		cfg:    cfg,
		logger: logger,
		db:     db,
		lock:   lock,
		server: &http.Server{
			Addr:              cfg.ListenAddr(),
			Handler:           srv.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		},
		sweeper: sweeper,
	}, nil
}

// DB exposes the daemon's database handle.
func (d *Daemon) DB() *sqlite.DB { return d.db }

// Run serves until ctx is cancelled, then shuts down gracefully.
func (d *Daemon) Run(ctx context.Context) error {
	bg, cancel := context.WithCancel(ctx)
	defer cancel()

	if d.cfg.Reconcile.Enabled {
		go d.sweeper.Run(bg)
	}
	go d.pruneLoop(bg)

	errCh := make(chan error, 1)
	go func() {
		d.logger.Printf("daemon: listening on %s (db %s)", d.cfg.ListenAddr(), d.db.Path())
		if err := d.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		d.Close()
		return err
	case <-ctx.Done():
	}

	d.logger.Printf("daemon: shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := d.server.Shutdown(shutdownCtx); err != nil {
		d.logger.Printf("daemon: shutdown: %v", err)
	}
	return d.Close()
}

// pruneLoop removes idempotency keys past the retention window.
func (d *Daemon) pruneLoop(ctx context.Context) {
	ticker := time.NewTicker(prunePeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-d.cfg.IdempotencyRetention())
			n, err := d.db.PruneIdempotencyKeys(cutoff)
			if err != nil {
				d.logger.Printf("daemon: prune idempotency keys: %v", err)
				continue
			}
			if n > 0 {
				d.logger.Printf("daemon: pruned %d idempotency keys", n)
			}
		}
	}
}

// Close releases the database and the instance lock.
func (d *Daemon) Close() error {
	err := d.db.Close()
	if uerr := d.lock.Unlock(); err == nil {
		err = uerr
	}
	return err
}
