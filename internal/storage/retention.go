package storage

import (
	"context"
	"log"
	"time"
)

// Sweeper periodically deletes samples older than the retention window.
type Sweeper struct {
	samples   SampleRepository
	retention time.Duration
	interval  time.Duration
}

// NewSweeper creates a retention sweeper. retention is how long samples are
// kept; interval is how often the sweep runs.
func NewSweeper(samples SampleRepository, retention, interval time.Duration) *Sweeper {
	return &Sweeper{
		samples:   samples,
		retention: retention,
		interval:  interval,
	}
}

// Run sweeps once immediately, then on every interval tick until the context
// is canceled.
func (s *Sweeper) Run(ctx context.Context) error {
	s.sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	cutoff := time.Now().Add(-s.retention)

	sweepCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	deleted, err := s.samples.DeleteBefore(sweepCtx, cutoff)
	if err != nil {
		log.Printf("[retention] sweep failed: %v", err)
		return
	}
	if deleted > 0 {
		log.Printf("[retention] deleted %d samples older than %s", deleted, cutoff.Format("2006-01-02"))
	}
}
