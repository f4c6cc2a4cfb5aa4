package checks

import (
	"context"
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/tellerj/ollama-stack-sub001/internal/compose"
)

// EnvironmentCheck is a single diagnostic finding, consumed for display only.
type EnvironmentCheck struct {
	Name       string `json:"name"`
	Passed     bool   `json:"passed"`
	Details    string `json:"details,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

// Report is an ordered list of check results.
type Report struct {
	Checks []EnvironmentCheck `json:"checks"`
}

// Passed reports whether every check in the report passed.
func (r Report) Passed() bool {
	for _, check := range r.Checks {
		if !check.Passed {
			return false
		}
	}
	return true
}

// enginePinger is the piece of the docker client the checks need.
type enginePinger interface {
	Ping(ctx context.Context) error
}

// Runner executes the environment check set.
type Runner struct {
	logger zerolog.Logger
	engine enginePinger
}

// NewRunner constructs a check runner against the given engine client.
func NewRunner(logger zerolog.Logger, engine enginePinger) *Runner {
	return &Runner{logger: logger, engine: engine}
}

// Run executes all checks. Check failures are findings, not errors: Run
// itself only fails on context cancellation.
func (r *Runner) Run(ctx context.Context, composeFiles []string, requiredPorts []int) Report {
	report := Report{}
	report.Checks = append(report.Checks, r.checkEngine(ctx))
	present := checkComposeFiles(composeFiles)
	report.Checks = append(report.Checks, present...)
	if allPassed(present) {
		report.Checks = append(report.Checks, checkComposeParses(ctx, composeFiles))
	}
	report.Checks = append(report.Checks, checkPorts(requiredPorts)...)
	return report
}

func allPassed(checks []EnvironmentCheck) bool {
	for _, check := range checks {
		if !check.Passed {
			return false
		}
	}
	return len(checks) > 0
}

func (r *Runner) checkEngine(ctx context.Context) EnvironmentCheck {
	check := EnvironmentCheck{Name: "docker engine reachable"}
	if r.engine == nil {
		check.Details = "no engine client configured"
		check.Suggestion = "install Docker and ensure the daemon is running"
		return check
	}
	if err := r.engine.Ping(ctx); err != nil {
		check.Details = err.Error()
		check.Suggestion = "start Docker Desktop or the docker daemon, then re-run"
		return check
	}
	check.Passed = true
	return check
}

func checkComposeFiles(paths []string) []EnvironmentCheck {
	checks := make([]EnvironmentCheck, 0, len(paths))
	for _, path := range paths {
		check := EnvironmentCheck{Name: fmt.Sprintf("compose file %s present", path)}
		if _, err := os.Stat(path); err != nil {
			check.Details = err.Error()
			check.Suggestion = "re-run install to regenerate stack files"
		} else {
			check.Passed = true
		}
		checks = append(checks, check)
	}
	return checks
}

func checkComposeParses(ctx context.Context, paths []string) EnvironmentCheck {
	check := EnvironmentCheck{Name: "compose files parse"}
	project, err := compose.LoadProject(ctx, "ollama-stack-check", paths)
	if err != nil {
		check.Details = err.Error()
		check.Suggestion = "re-run install to regenerate stack files"
		return check
	}
	check.Passed = true
	check.Details = fmt.Sprintf("services: %s", strings.Join(project.ServiceNames(), ", "))
	return check
}

func checkPorts(ports []int) []EnvironmentCheck {
	checks := make([]EnvironmentCheck, 0, len(ports))
	for _, port := range ports {
		check := EnvironmentCheck{Name: fmt.Sprintf("port %d available", port)}
		listener, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
		if err != nil {
			check.Details = "port is already bound"
			check.Suggestion = fmt.Sprintf("free port %d or adjust the compose port mapping", port)
		} else {
			_ = listener.Close()
			check.Passed = true
		}
		checks = append(checks, check)
	}
	return checks
}
