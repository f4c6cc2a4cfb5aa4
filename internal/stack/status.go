package stack

import (
	"context"
	"sort"

	"github.com/tellerj/ollama-stack-sub001/internal/docker"
	"github.com/tellerj/ollama-stack-sub001/internal/native"
	"github.com/tellerj/ollama-stack-sub001/internal/platform"
)

// Status builds a fresh status snapshot. Docker-typed services come from a
// single discovery call; native-typed services are queried individually. A
// single service's unavailability degrades that one entry, never the query.
func (o *Orchestrator) Status(ctx context.Context, extensionsOnly bool) (StackStatus, error) {
	states, err := o.engine.ServiceStates(ctx)
	if err != nil {
		o.logger.Warn().Err(err).Msg("engine status query failed")
		states = map[string]docker.ServiceState{}
	}

	var status StackStatus

	if !extensionsOnly {
		for _, name := range orderedServiceNames(o.cfg.ServiceOrder(), o.class) {
			svc := o.class.Services[name]
			switch svc.ExecutionType {
			case platform.ExecutionNative:
				status.CoreServices = append(status.CoreServices, o.nativeStatus(ctx, svc))
			default:
				status.CoreServices = append(status.CoreServices, dockerStatus(svc, states))
			}
		}
	}

	for _, ext := range o.cfg.Extensions {
		entry := ExtensionStatus{Name: ext.Name, Enabled: ext.Enabled}
		if state, ok := states[ext.Name]; ok {
			entry.IsRunning = state.IsRunning
		}
		status.Extensions = append(status.Extensions, entry)
	}

	return status, nil
}

// nativeStatus resolves one native service's status. An unrecognized native
// service yields an explicit unknown record rather than failing the query.
func (o *Orchestrator) nativeStatus(ctx context.Context, svc platform.ServiceDefinition) ServiceStatus {
	entry := ServiceStatus{
		Name:          svc.Name,
		ExecutionType: platform.ExecutionNative,
		HealthState:   string(native.HealthUnknown),
	}

	client, ok := o.natives[svc.Name]
	if !ok {
		entry.LifecycleState = "unknown"
		return entry
	}

	state := client.Status(ctx)
	entry.IsRunning = state.IsRunning
	entry.HealthState = string(state.Health)
	if state.IsRunning {
		entry.LifecycleState = "running"
	} else {
		entry.LifecycleState = "stopped"
	}
	return entry
}

func dockerStatus(svc platform.ServiceDefinition, states map[string]docker.ServiceState) ServiceStatus {
	entry := ServiceStatus{
		Name:          svc.Name,
		ExecutionType: platform.ExecutionDocker,
	}

	state, ok := states[svc.ComposeService]
	if !ok {
		entry.LifecycleState = "not created"
		return entry
	}

	entry.IsRunning = state.IsRunning
	entry.LifecycleState = state.LifecycleState
	entry.HealthState = state.HealthState
	entry.PortBindings = state.PortBindings
	entry.CPUPercent = state.CPUPercent
	entry.MemoryMB = state.MemoryMB
	return entry
}

// orderedServiceNames preserves the configured order, covering every
// classified service exactly once.
func orderedServiceNames(configured []string, class platform.Classification) []string {
	names := make([]string, 0, len(class.Services))
	seen := make(map[string]bool, len(class.Services))
	for _, name := range configured {
		if _, ok := class.Services[name]; ok && !seen[name] {
			names = append(names, name)
			seen[name] = true
		}
	}
	var rest []string
	for name := range class.Services {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	return append(names, rest...)
}
