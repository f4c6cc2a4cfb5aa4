package stack

import (
	"context"
	"errors"
	"fmt"
)

// Start brings the stack up: docker-typed services as one compose batch,
// then native-typed services. A second Start against a running stack is a
// no-op success. When update is set, images are pulled inline first.
func (o *Orchestrator) Start(ctx context.Context, update bool) error {
	running, err := o.engine.IsStackRunning(ctx)
	if err != nil {
		return fmt.Errorf("cannot reach docker engine: %w", err)
	}
	if running {
		o.reporter.Info("Stack is already running.")
		return nil
	}

	if update {
		if err := o.Update(ctx, UpdateOptions{FromStartContext: true}); err != nil {
			return err
		}
	}

	if len(o.class.DockerNames) > 0 {
		if err := o.engine.StartDockerServices(ctx, o.spec, o.composeServiceNames()); err != nil {
			return err
		}
		o.reporter.Success("Started docker services: %v", o.class.DockerNames)
	}

	for _, name := range o.class.NativeNames {
		client, ok := o.natives[name]
		if !ok {
			o.reporter.Warn("No native client configured for service %q.", name)
			continue
		}
		if isRunning, _ := client.IsRunning(ctx); isRunning {
			o.reporter.Info("Native service %s is already running.", name)
			continue
		}
		// The orchestrator does not own processes outside its declared
		// native set, so a missing process is guidance, not failure.
		o.reporter.Hint("Ensure the native %s service is running (for example: ollama serve).", name)
	}

	return nil
}

// Stop shuts down docker-typed services via compose down and native-typed
// services via the process client. The two halves are independent: neither
// failure blocks the other.
func (o *Orchestrator) Stop(ctx context.Context) error {
	var failures []error

	if err := o.engine.StopDockerServices(ctx, o.spec); err != nil {
		o.reporter.Error("Failed to stop docker services: %v", err)
		failures = append(failures, err)
	} else {
		o.reporter.Success("Stopped docker services.")
	}

	for _, name := range o.class.NativeNames {
		client, ok := o.natives[name]
		if !ok {
			continue
		}
		if err := client.Stop(ctx); err != nil {
			o.reporter.Warn("Could not stop native service %s: %v", name, err)
			failures = append(failures, fmt.Errorf("stop %s: %w", name, err))
			continue
		}
		o.reporter.Success("Stopped native service %s.", name)
	}

	return errors.Join(failures...)
}

// Restart is Stop followed by Start. Not atomic: if Stop succeeds and Start
// fails, the stack is left stopped and the failure is surfaced.
func (o *Orchestrator) Restart(ctx context.Context, update bool) error {
	if err := o.Stop(ctx); err != nil {
		return err
	}
	return o.Start(ctx, update)
}
