package display

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/tellerj/ollama-stack-sub001/internal/checks"
	"github.com/tellerj/ollama-stack-sub001/internal/stack"
)

// ConsoleReporter renders orchestrator outcomes for a terminal.
type ConsoleReporter struct {
	out io.Writer
}

// NewConsoleReporter writes to the given writer, or stdout when nil.
func NewConsoleReporter(out io.Writer) *ConsoleReporter {
	if out == nil {
		out = os.Stdout
	}
	return &ConsoleReporter{out: out}
}

// Info implements stack.Reporter.
func (r *ConsoleReporter) Info(format string, args ...any) {
	fmt.Fprintf(r.out, format+"\n", args...)
}

// Success implements stack.Reporter.
func (r *ConsoleReporter) Success(format string, args ...any) {
	fmt.Fprintln(r.out, color.New(color.FgGreen).Sprintf(format, args...))
}

// Warn implements stack.Reporter.
func (r *ConsoleReporter) Warn(format string, args ...any) {
	fmt.Fprintln(r.out, color.New(color.FgYellow).Sprintf(format, args...))
}

// Error implements stack.Reporter.
func (r *ConsoleReporter) Error(format string, args ...any) {
	fmt.Fprintln(r.out, color.New(color.FgRed).Sprintf(format, args...))
}

// Hint implements stack.Reporter.
func (r *ConsoleReporter) Hint(format string, args ...any) {
	fmt.Fprintln(r.out, color.New(color.FgCyan).Sprintf("hint: "+format, args...))
}

// Status renders the status snapshot as a table.
func (r *ConsoleReporter) Status(status stack.StackStatus) {
	tw := tabwriter.NewWriter(r.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SERVICE\tTYPE\tSTATE\tHEALTH\tPORTS\tCPU\tMEM")
	for _, svc := range status.CoreServices {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			svc.Name,
			svc.ExecutionType,
			stateCell(svc),
			healthCell(svc.HealthState),
			portsCell(svc.PortBindings),
			cpuCell(svc.CPUPercent),
			memCell(svc.MemoryMB),
		)
	}
	tw.Flush()

	if len(status.Extensions) == 0 {
		return
	}
	fmt.Fprintln(r.out)
	tw = tabwriter.NewWriter(r.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "EXTENSION\tENABLED\tRUNNING")
	for _, ext := range status.Extensions {
		fmt.Fprintf(tw, "%s\t%t\t%t\n", ext.Name, ext.Enabled, ext.IsRunning)
	}
	tw.Flush()
}

// Checks renders an environment check report.
func (r *ConsoleReporter) Checks(report checks.Report) {
	for _, check := range report.Checks {
		marker := color.New(color.FgGreen).Sprint("ok")
		if !check.Passed {
			marker = color.New(color.FgRed).Sprint("fail")
		}
		fmt.Fprintf(r.out, "[%s] %s", marker, check.Name)
		if check.Details != "" {
			fmt.Fprintf(r.out, ": %s", check.Details)
		}
		fmt.Fprintln(r.out)
		if !check.Passed && check.Suggestion != "" {
			r.Hint("%s", check.Suggestion)
		}
	}
}

// Plan renders a migration plan without executing it.
func (r *ConsoleReporter) Plan(plan stack.MigrationPlan) {
	fmt.Fprintf(r.out, "Migration %s -> %s\n", plan.FromVersion, plan.TargetVersion)
	for i, name := range plan.StepNames() {
		fmt.Fprintf(r.out, "  %d. %s\n", i+1, name)
	}
	if len(plan.BreakingChanges) > 0 {
		fmt.Fprintln(r.out, color.New(color.FgYellow).Sprint("Breaking changes:"))
		for _, change := range plan.BreakingChanges {
			fmt.Fprintf(r.out, "  - %s\n", change)
		}
	}
}

func stateCell(svc stack.ServiceStatus) string {
	if svc.LifecycleState != "" {
		return svc.LifecycleState
	}
	if svc.IsRunning {
		return "running"
	}
	return "stopped"
}

func healthCell(state string) string {
	switch state {
	case "":
		return "unknown"
	case "healthy":
		return color.New(color.FgGreen).Sprint(state)
	case "unhealthy":
		return color.New(color.FgRed).Sprint(state)
	default:
		return color.New(color.FgYellow).Sprint(state)
	}
}

func portsCell(bindings map[string]string) string {
	if len(bindings) == 0 {
		return "-"
	}
	pairs := make([]string, 0, len(bindings))
	for containerPort, hostPort := range bindings {
		pairs = append(pairs, fmt.Sprintf("%s->%s", hostPort, containerPort))
	}
	sort.Strings(pairs)
	return strings.Join(pairs, ",")
}

func cpuCell(value *float64) string {
	if value == nil {
		return "-"
	}
	return fmt.Sprintf("%.1f%%", *value)
}

func memCell(value *float64) string {
	if value == nil {
		return "-"
	}
	return fmt.Sprintf("%.0fMB", *value)
}
