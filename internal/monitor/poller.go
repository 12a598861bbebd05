package monitor

import (
	"context"
	"log"
	"sync/atomic"
	"time"

	"github.com/quiet-rooms/noisewatch/internal/metrics"
	"github.com/quiet-rooms/noisewatch/internal/models"
)

// Poll loop defaults. The sample tick drives threshold evaluation; the reset
// tick drives the coarse day-boundary check.
const (
	DefaultPollInterval  = 3 * time.Second
	DefaultResetInterval = 60 * time.Second
	fetchTimeout         = 5 * time.Second
)

// LocationSource provides the currently chosen room and its live threshold.
type LocationSource interface {
	Chosen(ctx context.Context) (*models.Location, error)
}

// SampleSource provides the latest sample for a room.
type SampleSource interface {
	Latest(ctx context.Context, room string) (*models.Sample, error)
}

// LevelSink receives the level observed on every successful poll tick.
type LevelSink interface {
	PublishLevel(room string, level float64, at time.Time)
}

// PollerConfig configures the poll loop.
type PollerConfig struct {
	PollInterval  time.Duration // default 3s
	ResetInterval time.Duration // default 60s
	Verbose       bool
}

func (c *PollerConfig) setDefaults() {
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.ResetInterval <= 0 {
		c.ResetInterval = DefaultResetInterval
	}
}

// Poller periodically fetches the latest sample for the chosen room and feeds
// it to the monitor. Fetch failures are logged and skipped; the previous
// state is retained and the next tick retries naturally.
type Poller struct {
	config    PollerConfig
	locations LocationSource
	samples   SampleSource
	monitor   *Monitor
	levels    LevelSink // optional
	now       func() time.Time
	lastTick  atomic.Int64 // unix nanos of the last completed tick
}

// NewPoller creates a poll loop for the given monitor.
func NewPoller(locations LocationSource, samples SampleSource, m *Monitor, levels LevelSink, cfg PollerConfig) *Poller {
	cfg.setDefaults()
	return &Poller{
		config:    cfg,
		locations: locations,
		samples:   samples,
		monitor:   m,
		levels:    levels,
		now:       time.Now,
	}
}

// Run polls until the context is canceled. Cancellation stops future ticks
// immediately; a canceled poller never evaluates with a stale room's
// threshold because the room and threshold are re-read on every tick.
func (p *Poller) Run(ctx context.Context) error {
	pollTicker := time.NewTicker(p.config.PollInterval)
	defer pollTicker.Stop()
	resetTicker := time.NewTicker(p.config.ResetInterval)
	defer resetTicker.Stop()

	// One reset check up front so a stale history never survives startup.
	p.checkReset(ctx)

	p.logf("poller started, interval=%v", p.config.PollInterval)

	for {
		select {
		case <-ctx.Done():
			p.logf("poller stopped")
			return ctx.Err()
		case <-resetTicker.C:
			p.checkReset(ctx)
		case <-pollTicker.C:
			p.tick(ctx)
		}
	}
}

func (p *Poller) checkReset(ctx context.Context) {
	if p.monitor.CheckDailyReset(ctx, p.now()) {
		metrics.HistoryResets.Inc()
		log.Printf("[poller] alert history reset for new day")
	}
}

// LastTick returns when the poll loop last completed a tick, zero before the
// first one. Stale values indicate a wedged loop; see the readiness check.
func (p *Poller) LastTick() time.Time {
	ns := p.lastTick.Load()
	if ns == 0 {
		return time.Time{}
	}
	return time.Unix(0, ns)
}

// tick performs one poll: read the chosen room, fetch its latest sample and
// evaluate it against the room's current threshold.
func (p *Poller) tick(ctx context.Context) {
	defer func() { p.lastTick.Store(p.now().UnixNano()) }()

	fetchCtx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	loc, err := p.locations.Chosen(fetchCtx)
	if err != nil {
		metrics.PollErrors.Inc()
		log.Printf("[poller] fetch chosen location: %v", err)
		return
	}
	if loc == nil {
		p.logf("no chosen location, skipping tick")
		return
	}

	sample, err := p.samples.Latest(fetchCtx, loc.Name)
	if err != nil {
		metrics.PollErrors.Inc()
		log.Printf("[poller] fetch latest sample for %s: %v", loc.Name, err)
		return
	}
	if sample == nil {
		p.logf("no samples for %s yet", loc.Name)
		return
	}

	metrics.SamplesPolled.Inc()
	metrics.CurrentLevel.WithLabelValues(loc.Name).Set(sample.SoundLevel)

	if p.levels != nil {
		p.levels.PublishLevel(loc.Name, sample.SoundLevel, sample.MeasuredAt)
	}

	if alert := p.monitor.Evaluate(loc.Name, sample.SoundLevel, loc.Threshold, p.now()); alert != nil {
		metrics.AlertsFired.WithLabelValues(loc.Name).Inc()
		log.Printf("[poller] alert: %s at %.1f dB (threshold %.1f dB)",
			alert.RoomName, alert.SoundLevel, alert.Threshold)
	}
}

func (p *Poller) logf(format string, args ...interface{}) {
	if p.config.Verbose {
		log.Printf("[poller] "+format, args...)
	}
}
