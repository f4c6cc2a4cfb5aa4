package health

// ServiceStatus represents the evaluated health of a service.
type ServiceStatus string

const (
	StatusOK       ServiceStatus = "OK"
	StatusDegraded ServiceStatus = "DEGRADED"
	StatusFailed   ServiceStatus = "FAILED"
)

// ServiceObservation is one service's observed runtime facts, fed into
// evaluation. HealthState mirrors the engine or probe vocabulary
// ("healthy", "unhealthy", "starting", "" for unknown).
type ServiceObservation struct {
	Name        string
	IsRunning   bool
	HealthState string
}

// ServiceHealth captures health evaluation output for a service.
type ServiceHealth struct {
	Name    string        `json:"name"`
	Status  ServiceStatus `json:"status"`
	Reasons []string      `json:"reasons,omitempty"`
}

// StackHealth summarizes health for the whole stack.
type StackHealth struct {
	Status   ServiceStatus            `json:"status"`
	Services map[string]ServiceHealth `json:"services"`
}

// Evaluate rolls individual observations up into per-service and stack-wide
// health. A stopped service fails; a running service with an unhealthy or
// unknown probe degrades.
func Evaluate(observations []ServiceObservation) StackHealth {
	result := StackHealth{
		Status:   StatusOK,
		Services: make(map[string]ServiceHealth, len(observations)),
	}

	for _, obs := range observations {
		entry := ServiceHealth{Name: obs.Name, Status: StatusOK}
		switch {
		case !obs.IsRunning:
			entry.Status = StatusFailed
			entry.Reasons = append(entry.Reasons, "not running")
		case obs.HealthState == "unhealthy":
			entry.Status = StatusDegraded
			entry.Reasons = append(entry.Reasons, "health check failing")
		case obs.HealthState == "starting":
			entry.Status = StatusDegraded
			entry.Reasons = append(entry.Reasons, "health check starting")
		}
		result.Services[obs.Name] = entry
		result.Status = worsenStatus(result.Status, entry.Status)
	}

	return result
}

// worsenStatus returns the more severe of two statuses.
func worsenStatus(current, candidate ServiceStatus) ServiceStatus {
	severity := map[ServiceStatus]int{
		StatusOK:       0,
		StatusDegraded: 1,
		StatusFailed:   2,
	}
	if severity[candidate] > severity[current] {
		return candidate
	}
	return current
}
