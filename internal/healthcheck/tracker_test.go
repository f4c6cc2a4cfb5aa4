package healthcheck

import (
	"testing"
	"time"
)

func TestTrackerLifecycle(t *testing.T) {
	tracker := NewTracker()

	if tracker.Ready() {
		t.Fatal("fresh tracker must not be ready")
	}
	if tracker.Healthy(time.Now().UTC(), time.Minute) {
		t.Fatal("fresh tracker must not be healthy")
	}
	if snapshot := tracker.Snapshot(); snapshot.LastCycleTime != nil {
		t.Fatalf("fresh snapshot must have no cycle time, got %v", snapshot.LastCycleTime)
	}

	tracker.RecordCycle(1500*time.Millisecond, 3)

	if !tracker.Ready() {
		t.Fatal("expected ready after a cycle")
	}
	snapshot := tracker.Snapshot()
	if snapshot.LastCycleTime == nil {
		t.Fatal("expected cycle time recorded")
	}
	if snapshot.CycleDurationMS != 1500 {
		t.Fatalf("expected 1500ms, got %d", snapshot.CycleDurationMS)
	}
	if snapshot.ServicesEvaluated != 3 {
		t.Fatalf("expected 3 services, got %d", snapshot.ServicesEvaluated)
	}
}

func TestTrackerHealthyWindow(t *testing.T) {
	tracker := NewTracker()
	tracker.RecordCycle(time.Millisecond, 1)

	now := time.Now().UTC()
	if !tracker.Healthy(now, 30*time.Second) {
		t.Fatal("recent cycle must be healthy")
	}
	if tracker.Healthy(now.Add(2*time.Minute), 30*time.Second) {
		t.Fatal("stale cycle must be unhealthy beyond 2x interval")
	}
	if tracker.Healthy(now, 0) {
		t.Fatal("zero interval must read unhealthy")
	}
}

func TestTrackerNilReceiver(t *testing.T) {
	var tracker *Tracker
	tracker.RecordCycle(time.Second, 1)
	if tracker.Ready() || tracker.Healthy(time.Now(), time.Minute) {
		t.Fatal("nil tracker must report not ready and not healthy")
	}
	if snapshot := tracker.Snapshot(); snapshot.ServicesEvaluated != 0 {
		t.Fatalf("nil tracker snapshot must be zero, got %+v", snapshot)
	}
}
