package files

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sweepRunsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "minibucket_sweep_runs_total",
		Help: "Total number of expiry sweep runs",
	})

	sweepReclaimedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "minibucket_sweep_files_reclaimed_total",
		Help: "Total number of expired files reclaimed by the sweep",
	})

	sweepDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "minibucket_sweep_duration_seconds",
		Help:    "Duration of expiry sweep runs in seconds",
		Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5},
	})
)

// Sweeper periodically reclaims expired files. It runs the same reclaim
// routine the request paths use lazily, so both sides apply one predicate
// under one lock.
type Sweeper struct {
	svc      *Service
	interval time.Duration
	logger   *slog.Logger
	cancel   context.CancelFunc
}

// NewSweeper creates a sweeper over the given service.
func NewSweeper(svc *Service, interval time.Duration, logger *slog.Logger) *Sweeper {
	return &Sweeper{
		svc:      svc,
		interval: interval,
		logger:   logger.With(slog.String("component", "sweeper")),
	}
}

// Start launches the background sweep goroutine. It runs once immediately
// and then on every tick until ctx is cancelled.
func (sw *Sweeper) Start(ctx context.Context) {
	ctx, sw.cancel = context.WithCancel(ctx)
	go sw.run(ctx)
	sw.logger.Info("sweeper started", slog.String("interval", sw.interval.String()))
}

// Stop cancels the background goroutine.
func (sw *Sweeper) Stop() {
	if sw.cancel != nil {
		sw.cancel()
	}
	sw.logger.Info("sweeper stopped")
}

func (sw *Sweeper) run(ctx context.Context) {
	sw.RunOnce()

	ticker := time.NewTicker(sw.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sw.RunOnce()
		}
	}
}

// RunOnce performs a single sweep pass.
func (sw *Sweeper) RunOnce() int {
	start := time.Now()

	removed, err := sw.svc.ReclaimExpired()
	if err != nil {
		sw.logger.Error("sweep failed", slog.String("error", err.Error()))
	}

	duration := time.Since(start)
	sweepRunsTotal.Inc()
	sweepReclaimedTotal.Add(float64(removed))
	sweepDurationSeconds.Observe(duration.Seconds())

	if removed > 0 {
		sw.logger.Info("sweep reclaimed expired files",
			slog.Int("removed", removed),
			slog.Duration("duration", duration),
		)
	}
	return removed
}
