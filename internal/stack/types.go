package stack

import (
	"context"

	"github.com/tellerj/ollama-stack-sub001/internal/backup"
	"github.com/tellerj/ollama-stack-sub001/internal/checks"
	"github.com/tellerj/ollama-stack-sub001/internal/docker"
	"github.com/tellerj/ollama-stack-sub001/internal/native"
	"github.com/tellerj/ollama-stack-sub001/internal/platform"
)

// ServiceStatus is one service's observed runtime state. Pointer fields are
// nil when a value could not be observed: unknown is not false.
type ServiceStatus struct {
	Name           string                 `json:"name"`
	ExecutionType  platform.ExecutionType `json:"execution_type"`
	IsRunning      bool                   `json:"is_running"`
	LifecycleState string                 `json:"lifecycle_state,omitempty"`
	HealthState    string                 `json:"health_state,omitempty"`
	PortBindings   map[string]string      `json:"port_bindings,omitempty"`
	CPUPercent     *float64               `json:"cpu_percent,omitempty"`
	MemoryMB       *float64               `json:"memory_mb,omitempty"`
}

// ExtensionStatus is the observed state of one configured extension.
type ExtensionStatus struct {
	Name      string `json:"name"`
	Enabled   bool   `json:"enabled"`
	IsRunning bool   `json:"is_running"`
}

// StackStatus is the full status snapshot, built fresh per query.
type StackStatus struct {
	CoreServices []ServiceStatus   `json:"core_services"`
	Extensions   []ExtensionStatus `json:"extensions,omitempty"`
}

// EngineClient is the slice of the docker client the orchestrator uses.
// Kept narrow so tests can mock the engine.
type EngineClient interface {
	Ping(ctx context.Context) error
	FindOwned(ctx context.Context) (docker.OwnedResources, error)
	CountOwned(ctx context.Context) (int, error)
	IsStackRunning(ctx context.Context) (bool, error)
	ServiceStates(ctx context.Context) (map[string]docker.ServiceState, error)
	StartDockerServices(ctx context.Context, spec docker.ComposeSpec, services []string) error
	StopDockerServices(ctx context.Context, spec docker.ComposeSpec) error
	PullImages(ctx context.Context, spec docker.ComposeSpec) error
	RemoveContainers(ctx context.Context, containers []docker.DiscoveredResource, force bool) []docker.RemoveOutcome
	RemoveVolumes(ctx context.Context, volumes []docker.DiscoveredResource, force bool) []docker.RemoveOutcome
	RemoveNetworks(ctx context.Context, networks []docker.DiscoveredResource) []docker.RemoveOutcome
	RemoveImages(ctx context.Context, images []docker.DiscoveredResource, force bool) []docker.RemoveOutcome
}

// NativeClient manages one platform-native service.
type NativeClient interface {
	IsRunning(ctx context.Context) (bool, int)
	Stop(ctx context.Context) error
	Status(ctx context.Context) native.Status
}

// BackupManager captures, validates, and restores stack archives.
type BackupManager interface {
	Create(ctx context.Context, opts backup.CreateOptions) (backup.Manifest, error)
	Validate(dir string) (backup.Manifest, error)
	Restore(ctx context.Context, dir string, targets backup.Targets) (backup.Manifest, error)
}

// CheckRunner executes environment diagnostics.
type CheckRunner interface {
	Run(ctx context.Context, composeFiles []string, requiredPorts []int) checks.Report
}

// Reporter receives structured outcomes for rendering. The orchestrator
// never formats human-facing output itself.
type Reporter interface {
	Info(format string, args ...any)
	Success(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
	Hint(format string, args ...any)
	Status(status StackStatus)
	Checks(report checks.Report)
	Plan(plan MigrationPlan)
}

// Prompter asks the user yes/no questions before destructive or surprising
// actions. A declined prompt is a clean no-op, not an error.
type Prompter interface {
	Confirm(prompt string) (bool, error)
}
