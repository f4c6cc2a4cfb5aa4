package docker

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	dockertypes "github.com/docker/docker/api/types"
	containertypes "github.com/docker/docker/api/types/container"
	"github.com/docker/go-connections/nat"
)

// ServiceState is the engine-level view of one compose service's container.
// Pointer fields stay nil when the engine could not supply a value: unknown
// is not false.
type ServiceState struct {
	ComposeService string
	ContainerID    string
	IsRunning      bool
	LifecycleState string
	HealthState    string
	PortBindings   map[string]string
	CPUPercent     *float64
	MemoryMB       *float64
}

const composeServiceLabel = "com.docker.compose.service"

// ServiceStates returns the engine state for every owned container, keyed by
// compose service name. One list call covers the whole batch; health and
// resource usage are filled best-effort per container.
func (c *Client) ServiceStates(ctx context.Context) (map[string]ServiceState, error) {
	listCtx, cancel := context.WithTimeout(ctx, c.queryTimeout)
	containers, err := c.api.ContainerList(listCtx, containertypes.ListOptions{
		All:     true,
		Filters: ownershipArgs(),
	})
	cancel()
	if err != nil {
		return nil, fmt.Errorf("list containers: %w", err)
	}

	states := make(map[string]ServiceState, len(containers))
	for _, ctr := range containers {
		service := ctr.Labels[composeServiceLabel]
		if service == "" {
			service = ctr.Labels[ComponentLabelKey]
		}
		if service == "" {
			continue
		}

		state := ServiceState{
			ComposeService: service,
			ContainerID:    ctr.ID,
			IsRunning:      isRunningState(ctr.State),
			LifecycleState: ctr.State,
			PortBindings:   portBindings(ctr.Ports),
		}

		if state.IsRunning {
			state.HealthState = c.healthState(ctx, ctr.ID)
			state.CPUPercent, state.MemoryMB = c.resourceUsage(ctx, ctr.ID)
		}

		states[service] = state
	}

	return states, nil
}

// portBindings maps container ports to published host ports. Unpublished
// ports are omitted.
func portBindings(ports []dockertypes.Port) map[string]string {
	if len(ports) == 0 {
		return nil
	}
	bindings := make(map[string]string)
	for _, port := range ports {
		if port.PublicPort == 0 {
			continue
		}
		key, err := nat.NewPort(port.Type, strconv.Itoa(int(port.PrivatePort)))
		if err != nil {
			continue
		}
		bindings[key.Port()] = strconv.Itoa(int(port.PublicPort))
	}
	if len(bindings) == 0 {
		return nil
	}
	return bindings
}

// healthState inspects a container's health check status. Best-effort: an
// inspect failure yields an empty (unknown) state.
func (c *Client) healthState(ctx context.Context, containerID string) string {
	inspectCtx, cancel := context.WithTimeout(ctx, c.queryTimeout)
	defer cancel()

	info, err := c.api.ContainerInspect(inspectCtx, containerID)
	if err != nil {
		c.logger.Debug().Err(err).Str("container", containerID).Msg("container inspect failed")
		return ""
	}
	if info.State == nil || info.State.Health == nil {
		return ""
	}
	return info.State.Health.Status
}

// resourceUsage samples cpu and memory for a container. Best-effort: any
// failure leaves both values nil.
func (c *Client) resourceUsage(ctx context.Context, containerID string) (*float64, *float64) {
	statsCtx, cancel := context.WithTimeout(ctx, c.queryTimeout)
	defer cancel()

	resp, err := c.api.ContainerStatsOneShot(statsCtx, containerID)
	if err != nil {
		c.logger.Debug().Err(err).Str("container", containerID).Msg("container stats failed")
		return nil, nil
	}
	defer resp.Body.Close()

	var stats dockertypes.StatsJSON
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		c.logger.Debug().Err(err).Str("container", containerID).Msg("decode container stats failed")
		return nil, nil
	}

	var cpuPercent *float64
	cpuDelta := float64(stats.CPUStats.CPUUsage.TotalUsage) - float64(stats.PreCPUStats.CPUUsage.TotalUsage)
	systemDelta := float64(stats.CPUStats.SystemUsage) - float64(stats.PreCPUStats.SystemUsage)
	if systemDelta > 0 && cpuDelta >= 0 {
		cpus := float64(stats.CPUStats.OnlineCPUs)
		if cpus == 0 {
			cpus = float64(len(stats.CPUStats.CPUUsage.PercpuUsage))
		}
		if cpus > 0 {
			value := cpuDelta / systemDelta * cpus * 100.0
			cpuPercent = &value
		}
	}

	memoryMB := float64(stats.MemoryStats.Usage) / (1024 * 1024)
	return cpuPercent, &memoryMB
}
