// Package notifier provides notification dispatching for fired alerts.
package notifier

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/time/rate"

	"github.com/quiet-rooms/noisewatch/internal/metrics"
	"github.com/quiet-rooms/noisewatch/internal/models"
)

// Notifier is the interface for all notification channels.
type Notifier interface {
	// Name returns the notifier name (e.g., "webhook", "log").
	Name() string
	// Send sends an alert notification.
	Send(ctx context.Context, alert *models.Alert) error
	// Close releases any resources.
	Close() error
}

// ErrRateLimited is returned when a notification is dropped due to rate
// limiting.
var ErrRateLimited = fmt.Errorf("notification rate limited")

// RateLimitConfig holds the dispatcher's limiter settings.
type RateLimitConfig struct {
	PerMinute int  // maximum notifications per minute (default: 10)
	Enabled   bool // whether rate limiting is enabled (default: true)
}

// DefaultRateLimitConfig returns default rate limit settings.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{PerMinute: 10, Enabled: true}
}

// Dispatcher fans fired alerts out to every registered notifier. Delivery
// failure on one channel never blocks the others and is never fatal.
type Dispatcher struct {
	mu        sync.RWMutex
	notifiers map[string]Notifier
	limiter   *rate.Limiter
}

// NewDispatcher creates a dispatcher with default rate limiting.
func NewDispatcher() *Dispatcher {
	return NewDispatcherWithRateLimit(DefaultRateLimitConfig())
}

// NewDispatcherWithRateLimit creates a dispatcher with a custom limit.
func NewDispatcherWithRateLimit(cfg RateLimitConfig) *Dispatcher {
	d := &Dispatcher{notifiers: make(map[string]Notifier)}
	if cfg.Enabled {
		if cfg.PerMinute <= 0 {
			cfg.PerMinute = 10
		}
		d.limiter = rate.NewLimiter(rate.Limit(cfg.PerMinute)/60, cfg.PerMinute)
	}
	return d
}

// Register adds a notifier to the dispatcher.
func (d *Dispatcher) Register(n Notifier) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.notifiers[n.Name()] = n
}

// Unregister removes a notifier from the dispatcher.
func (d *Dispatcher) Unregister(name string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.notifiers, name)
}

// Get returns a notifier by name.
func (d *Dispatcher) Get(name string) (Notifier, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	n, ok := d.notifiers[name]
	return n, ok
}

// Dispatch sends an alert to all registered notifiers. Returns
// ErrRateLimited when the alert is dropped by the limiter.
func (d *Dispatcher) Dispatch(ctx context.Context, alert *models.Alert) error {
	if d.limiter != nil && !d.limiter.Allow() {
		metrics.NotificationsRateLimited.Inc()
		return ErrRateLimited
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	var errs []error
	for name, n := range d.notifiers {
		if err := n.Send(ctx, alert); err != nil {
			metrics.NotificationErrors.WithLabelValues(name).Inc()
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}
		metrics.NotificationsSent.WithLabelValues(name).Inc()
	}

	if len(errs) > 0 {
		return fmt.Errorf("notification errors: %v", errs)
	}
	return nil
}

// Close closes all registered notifiers.
func (d *Dispatcher) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	var errs []error
	for name, n := range d.notifiers {
		if err := n.Close(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	d.notifiers = make(map[string]Notifier)

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
