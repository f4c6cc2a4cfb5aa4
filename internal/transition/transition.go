package transition

import (
	"sort"

	"github.com/tellerj/ollama-stack-sub001/internal/health"
)

// ServiceTransition captures a health status change between two watch
// cycles.
type ServiceTransition struct {
	Name           string
	PreviousStatus health.ServiceStatus
	CurrentStatus  health.ServiceStatus
	Reasons        []string
}

// Detect compares the previous cycle's health with the current one and
// emits a transition per service whose status changed. On the first cycle
// (no previous snapshot) only non-OK services are reported, so a healthy
// stack starts quiet.
func Detect(prev *health.StackHealth, current health.StackHealth) []ServiceTransition {
	firstRun := prev == nil || len(prev.Services) == 0

	transitions := make([]ServiceTransition, 0)
	for name, currentService := range current.Services {
		if firstRun {
			if currentService.Status == health.StatusOK {
				continue
			}
			transitions = append(transitions, ServiceTransition{
				Name:          name,
				CurrentStatus: currentService.Status,
				Reasons:       currentService.Reasons,
			})
			continue
		}

		prevService, hadPrev := prev.Services[name]
		if hadPrev && prevService.Status == currentService.Status {
			continue
		}
		entry := ServiceTransition{
			Name:          name,
			CurrentStatus: currentService.Status,
			Reasons:       currentService.Reasons,
		}
		if hadPrev {
			entry.PreviousStatus = prevService.Status
		}
		transitions = append(transitions, entry)
	}

	sort.Slice(transitions, func(i, j int) bool {
		return transitions[i].Name < transitions[j].Name
	})
	return transitions
}
