package healthcheck

import (
	"sync"
	"time"
)

// Snapshot describes the latest completed watch cycle.
type Snapshot struct {
	LastCycleTime     *time.Time `json:"last_cycle_time"`
	CycleDurationMS   int64      `json:"cycle_duration_ms"`
	ServicesEvaluated int        `json:"services_evaluated"`
	CyclesCompleted   uint64     `json:"cycles_completed"`
}

// Tracker records watch cycle completions for the health endpoints. A nil
// tracker is valid and reports never-ready.
type Tracker struct {
	mu   sync.RWMutex
	last Snapshot
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{}
}

// RecordCycle registers one completed status cycle.
func (t *Tracker) RecordCycle(duration time.Duration, servicesEvaluated int) {
	if t == nil {
		return
	}
	now := time.Now().UTC()
	t.mu.Lock()
	t.last = Snapshot{
		LastCycleTime:     &now,
		CycleDurationMS:   duration.Milliseconds(),
		ServicesEvaluated: servicesEvaluated,
		CyclesCompleted:   t.last.CyclesCompleted + 1,
	}
	t.mu.Unlock()
}

// Snapshot returns the latest cycle record.
func (t *Tracker) Snapshot() Snapshot {
	if t == nil {
		return Snapshot{}
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.last
}

// Ready reports whether at least one cycle has completed.
func (t *Tracker) Ready() bool {
	return t.Snapshot().CyclesCompleted > 0
}

// Healthy reports whether the last cycle finished within twice the poll
// interval, the liveness window served by /healthz.
func (t *Tracker) Healthy(now time.Time, pollInterval time.Duration) bool {
	if pollInterval <= 0 {
		return false
	}
	last := t.Snapshot().LastCycleTime
	if last == nil {
		return false
	}
	return now.Sub(*last) <= 2*pollInterval
}
