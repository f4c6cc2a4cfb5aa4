package healthcheck

import (
	"encoding/json"
	"net/http"
	"time"
)

// Response is the body served by the health endpoints: the probe verdict
// plus the latest cycle snapshot.
type Response struct {
	Status string `json:"status"`
	Snapshot
}

// HealthHandler serves /healthz. Healthy means the watch loop completed a
// cycle within twice the poll interval.
func HealthHandler(tracker *Tracker, pollInterval time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		serve(w, tracker.Healthy(time.Now().UTC(), pollInterval), tracker.Snapshot())
	}
}

// ReadyHandler serves /readyz. Ready means at least one cycle has completed.
func ReadyHandler(tracker *Tracker) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		serve(w, tracker.Ready(), tracker.Snapshot())
	}
}

func serve(w http.ResponseWriter, ok bool, snapshot Snapshot) {
	status := http.StatusServiceUnavailable
	verdict := "unavailable"
	if ok {
		status = http.StatusOK
		verdict = "ok"
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Response{Status: verdict, Snapshot: snapshot})
}
