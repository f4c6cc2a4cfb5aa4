package watch

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/tellerj/ollama-stack-sub001/internal/health"
	"github.com/tellerj/ollama-stack-sub001/internal/healthcheck"
	"github.com/tellerj/ollama-stack-sub001/internal/metrics"
	"github.com/tellerj/ollama-stack-sub001/internal/notify"
	"github.com/tellerj/ollama-stack-sub001/internal/stack"
	"github.com/tellerj/ollama-stack-sub001/internal/transition"
)

// Ticker is the minimal interface needed for driving the watch loop.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type timeTicker struct {
	ticker *time.Ticker
}

func (t timeTicker) C() <-chan time.Time {
	return t.ticker.C
}

func (t timeTicker) Stop() {
	t.ticker.Stop()
}

// StatusSource produces a fresh stack status snapshot per cycle.
type StatusSource interface {
	Status(ctx context.Context, extensionsOnly bool) (stack.StackStatus, error)
}

// Runner drives the periodic status loop behind `status --watch`.
type Runner struct {
	logger        zerolog.Logger
	source        StatusSource
	reporter      stack.Reporter
	stackName     string
	pollInterval  time.Duration
	tickerFactory func(time.Duration) Ticker
	notifier      notify.Notifier
	collector     *metrics.Metrics
	tracker       *healthcheck.Tracker
	lastHealth    *health.StackHealth
}

// Option customizes runner behavior.
type Option func(*Runner)

// WithTickerFactory overrides how tickers are created.
func WithTickerFactory(factory func(time.Duration) Ticker) Option {
	return func(r *Runner) {
		r.tickerFactory = factory
	}
}

// WithNotifier routes health transitions to a notifier.
func WithNotifier(notifier notify.Notifier) Option {
	return func(r *Runner) {
		r.notifier = notifier
	}
}

// WithMetrics enables Prometheus collection per cycle.
func WithMetrics(collector *metrics.Metrics) Option {
	return func(r *Runner) {
		r.collector = collector
	}
}

// WithTracker records cycle timing for the health endpoints.
func WithTracker(tracker *healthcheck.Tracker) Option {
	return func(r *Runner) {
		r.tracker = tracker
	}
}

// New constructs a Runner polling the given status source.
func New(logger zerolog.Logger, source StatusSource, reporter stack.Reporter, stackName string, pollInterval time.Duration, opts ...Option) *Runner {
	r := &Runner{
		logger:       logger,
		source:       source,
		reporter:     reporter,
		stackName:    stackName,
		pollInterval: pollInterval,
		tickerFactory: func(d time.Duration) Ticker {
			return timeTicker{ticker: time.NewTicker(d)}
		},
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Run starts the watch loop and blocks until the context is canceled.
func (r *Runner) Run(ctx context.Context) error {
	if r.pollInterval <= 0 {
		return errors.New("poll interval must be greater than zero")
	}

	// Run immediately on startup
	if err := r.RunOnce(ctx); err != nil {
		r.logger.Error().Err(err).Msg("initial watch cycle failed")
	}

	ticker := r.tickerFactory(r.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info().Msg("watch stopped")
			return nil
		case <-ticker.C():
			if err := r.RunOnce(ctx); err != nil {
				r.logger.Error().Err(err).Msg("watch cycle failed")
			}
		}
	}
}

// RunOnce executes a single status cycle.
func (r *Runner) RunOnce(ctx context.Context) error {
	start := time.Now()

	status, err := r.source.Status(ctx, false)
	if err != nil {
		r.collector.IncEngineErrors()
		return err
	}

	if r.reporter != nil {
		r.reporter.Status(status)
	}

	observations := make([]health.ServiceObservation, 0, len(status.CoreServices))
	for _, svc := range status.CoreServices {
		observations = append(observations, health.ServiceObservation{
			Name:        svc.Name,
			IsRunning:   svc.IsRunning,
			HealthState: svc.HealthState,
		})
	}
	current := health.Evaluate(observations)

	transitions := transition.Detect(r.lastHealth, current)
	r.lastHealth = &current

	for _, change := range transitions {
		event := r.logger.Info()
		switch change.CurrentStatus {
		case health.StatusFailed:
			event = r.logger.Error()
		case health.StatusDegraded:
			event = r.logger.Warn()
		}
		event.
			Str("service", change.Name).
			Str("previous_status", string(change.PreviousStatus)).
			Str("current_status", string(change.CurrentStatus)).
			Strs("reasons", change.Reasons).
			Msg("service transition detected")
	}

	if r.notifier != nil && len(transitions) > 0 {
		if err := r.notifier.Notify(ctx, r.stackName, transitions); err != nil {
			r.logger.Error().Err(err).Msg("transition notification failed")
			r.collector.IncNotificationsTotal(r.stackName, "error")
		} else {
			r.collector.IncNotificationsTotal(r.stackName, "ok")
		}
	}

	elapsed := time.Since(start)
	counts := map[health.ServiceStatus]int{}
	for _, svc := range current.Services {
		counts[svc.Status]++
	}
	for _, status := range []health.ServiceStatus{health.StatusOK, health.StatusDegraded, health.StatusFailed} {
		r.collector.SetServicesTotal(r.stackName, string(status), counts[status])
	}
	r.collector.ObserveCycleDuration(elapsed)
	r.collector.SetLastSuccessfulCycleTimestamp(time.Now().UTC())
	r.tracker.RecordCycle(elapsed, len(status.CoreServices))

	return nil
}
