package stack

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/tellerj/ollama-stack-sub001/internal/backup"
	"github.com/tellerj/ollama-stack-sub001/internal/checks"
	"github.com/tellerj/ollama-stack-sub001/internal/config"
	"github.com/tellerj/ollama-stack-sub001/internal/docker"
	"github.com/tellerj/ollama-stack-sub001/internal/native"
	"github.com/tellerj/ollama-stack-sub001/internal/platform"
)

type startCall struct {
	spec     docker.ComposeSpec
	services []string
}

// mockEngine records every lifecycle call. FindOwned serves successive
// snapshots from ownedSeq so tests can exercise re-discovery.
type mockEngine struct {
	pingErr    error
	running    bool
	runningErr error

	ownedSeq  []docker.OwnedResources
	ownedErr  error
	findCalls int

	states    map[string]docker.ServiceState
	statesErr error

	startErr error
	stopErr  error
	pullErr  error
	pullErrs map[string]error

	startCalls []startCall
	stopCalls  []docker.ComposeSpec
	pullCalls  []docker.ComposeSpec

	removed    map[docker.ResourceKind][]docker.DiscoveredResource
	removeErrs map[string]error
}

func (m *mockEngine) Ping(context.Context) error { return m.pingErr }

func (m *mockEngine) FindOwned(context.Context) (docker.OwnedResources, error) {
	if m.ownedErr != nil {
		return docker.OwnedResources{}, m.ownedErr
	}
	idx := m.findCalls
	m.findCalls++
	if len(m.ownedSeq) == 0 {
		return docker.OwnedResources{}, nil
	}
	if idx >= len(m.ownedSeq) {
		idx = len(m.ownedSeq) - 1
	}
	return m.ownedSeq[idx], nil
}

func (m *mockEngine) CountOwned(ctx context.Context) (int, error) {
	owned, err := m.FindOwned(ctx)
	return owned.Total(), err
}

func (m *mockEngine) IsStackRunning(context.Context) (bool, error) {
	return m.running, m.runningErr
}

func (m *mockEngine) ServiceStates(context.Context) (map[string]docker.ServiceState, error) {
	if m.statesErr != nil {
		return nil, m.statesErr
	}
	return m.states, nil
}

func (m *mockEngine) StartDockerServices(_ context.Context, spec docker.ComposeSpec, services []string) error {
	m.startCalls = append(m.startCalls, startCall{spec: spec, services: services})
	return m.startErr
}

func (m *mockEngine) StopDockerServices(_ context.Context, spec docker.ComposeSpec) error {
	m.stopCalls = append(m.stopCalls, spec)
	return m.stopErr
}

func (m *mockEngine) PullImages(_ context.Context, spec docker.ComposeSpec) error {
	m.pullCalls = append(m.pullCalls, spec)
	if err, ok := m.pullErrs[spec.ProjectName]; ok {
		return err
	}
	return m.pullErr
}

func (m *mockEngine) remove(kind docker.ResourceKind, resources []docker.DiscoveredResource) []docker.RemoveOutcome {
	if m.removed == nil {
		m.removed = map[docker.ResourceKind][]docker.DiscoveredResource{}
	}
	outcomes := make([]docker.RemoveOutcome, 0, len(resources))
	for _, res := range resources {
		m.removed[kind] = append(m.removed[kind], res)
		outcomes = append(outcomes, docker.RemoveOutcome{Resource: res, Err: m.removeErrs[res.Name]})
	}
	return outcomes
}

func (m *mockEngine) RemoveContainers(_ context.Context, containers []docker.DiscoveredResource, _ bool) []docker.RemoveOutcome {
	return m.remove(docker.KindContainer, containers)
}

func (m *mockEngine) RemoveVolumes(_ context.Context, volumes []docker.DiscoveredResource, _ bool) []docker.RemoveOutcome {
	return m.remove(docker.KindVolume, volumes)
}

func (m *mockEngine) RemoveNetworks(_ context.Context, networks []docker.DiscoveredResource) []docker.RemoveOutcome {
	return m.remove(docker.KindNetwork, networks)
}

func (m *mockEngine) RemoveImages(_ context.Context, images []docker.DiscoveredResource, _ bool) []docker.RemoveOutcome {
	return m.remove(docker.KindImage, images)
}

type mockNative struct {
	running   bool
	pid       int
	stopErr   error
	stopCalls int
	status    native.Status
}

func (m *mockNative) IsRunning(context.Context) (bool, int) { return m.running, m.pid }

func (m *mockNative) Stop(context.Context) error {
	m.stopCalls++
	return m.stopErr
}

func (m *mockNative) Status(context.Context) native.Status { return m.status }

type mockBackups struct {
	created     []backup.CreateOptions
	createErr   error
	manifest    backup.Manifest
	validateErr error

	restoredDirs   []string
	restoreTargets []backup.Targets
	restoreErr     error
}

func (m *mockBackups) Create(_ context.Context, opts backup.CreateOptions) (backup.Manifest, error) {
	m.created = append(m.created, opts)
	if m.createErr != nil {
		return backup.Manifest{}, m.createErr
	}
	return m.manifest, nil
}

func (m *mockBackups) Validate(string) (backup.Manifest, error) {
	if m.validateErr != nil {
		return backup.Manifest{}, m.validateErr
	}
	return m.manifest, nil
}

func (m *mockBackups) Restore(_ context.Context, dir string, targets backup.Targets) (backup.Manifest, error) {
	m.restoredDirs = append(m.restoredDirs, dir)
	m.restoreTargets = append(m.restoreTargets, targets)
	if m.restoreErr != nil {
		return backup.Manifest{}, m.restoreErr
	}
	return m.manifest, nil
}

type mockChecks struct {
	report checks.Report
	files  []string
	ports  []int
	runs   int
}

func (m *mockChecks) Run(_ context.Context, composeFiles []string, requiredPorts []int) checks.Report {
	m.runs++
	m.files = composeFiles
	m.ports = requiredPorts
	return m.report
}

// recordingReporter collects rendered messages per level.
type recordingReporter struct {
	infos     []string
	successes []string
	warns     []string
	errs      []string
	hints     []string
	statuses  []StackStatus
	reports   []checks.Report
	plans     []MigrationPlan
}

func (r *recordingReporter) Info(format string, args ...any) {
	r.infos = append(r.infos, fmt.Sprintf(format, args...))
}

func (r *recordingReporter) Success(format string, args ...any) {
	r.successes = append(r.successes, fmt.Sprintf(format, args...))
}

func (r *recordingReporter) Warn(format string, args ...any) {
	r.warns = append(r.warns, fmt.Sprintf(format, args...))
}

func (r *recordingReporter) Error(format string, args ...any) {
	r.errs = append(r.errs, fmt.Sprintf(format, args...))
}

func (r *recordingReporter) Hint(format string, args ...any) {
	r.hints = append(r.hints, fmt.Sprintf(format, args...))
}

func (r *recordingReporter) Status(status StackStatus) {
	r.statuses = append(r.statuses, status)
}

func (r *recordingReporter) Checks(report checks.Report) {
	r.reports = append(r.reports, report)
}

func (r *recordingReporter) Plan(plan MigrationPlan) {
	r.plans = append(r.plans, plan)
}

// scriptedPrompter serves canned answers in order and records every prompt.
// An exhausted script declines.
type scriptedPrompter struct {
	answers []bool
	err     error
	prompts []string
}

func (p *scriptedPrompter) Confirm(prompt string) (bool, error) {
	p.prompts = append(p.prompts, prompt)
	if p.err != nil {
		return false, p.err
	}
	if len(p.answers) == 0 {
		return false, nil
	}
	answer := p.answers[0]
	p.answers = p.answers[1:]
	return answer, nil
}

func testConfig(t *testing.T, p platform.Platform) config.Config {
	t.Helper()
	return config.Default(t.TempDir(), p)
}

func newTestOrchestrator(t *testing.T, cfg config.Config, deps Deps) *Orchestrator {
	t.Helper()
	if deps.Reporter == nil {
		deps.Reporter = &recordingReporter{}
	}
	if deps.Prompter == nil {
		deps.Prompter = &scriptedPrompter{}
	}
	orch, err := New(zerolog.Nop(), cfg, deps)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return orch
}

func hasEntry(entries []string, substr string) bool {
	for _, entry := range entries {
		if strings.Contains(entry, substr) {
			return true
		}
	}
	return false
}
