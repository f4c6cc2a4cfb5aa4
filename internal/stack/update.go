package stack

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/tellerj/ollama-stack-sub001/internal/docker"
)

// ErrConflictingSelectors is returned when both servicesOnly and
// extensionsOnly are requested. Rejected before any side effect.
var ErrConflictingSelectors = errors.New("services-only and extensions-only are mutually exclusive")

// UpdateOptions parameterizes Update. FromStartContext is threaded
// explicitly by Start/Restart: when set, the stop-confirmation branch is
// suppressed because the caller owns the restart.
type UpdateOptions struct {
	ServicesOnly     bool
	ExtensionsOnly   bool
	FromStartContext bool
}

// Update pulls fresh images for the core services and enabled extensions.
// When invoked directly against a running stack it offers to stop first;
// as a sub-step of Start/Restart it updates in place.
func (o *Orchestrator) Update(ctx context.Context, opts UpdateOptions) error {
	if opts.ServicesOnly && opts.ExtensionsOnly {
		return ErrConflictingSelectors
	}

	if !opts.FromStartContext {
		running, err := o.engine.IsStackRunning(ctx)
		if err != nil {
			return fmt.Errorf("cannot reach docker engine: %w", err)
		}
		if running {
			if !o.confirm("The stack is running. Stop it before updating?") {
				o.reporter.Info("Update cancelled; stack left running.")
				return nil
			}
			if err := o.Stop(ctx); err != nil {
				return err
			}
		}
	}

	if !opts.ExtensionsOnly {
		if err := o.engine.PullImages(ctx, o.spec); err != nil {
			return err
		}
		o.reporter.Success("Updated core service images.")
	}

	if !opts.ServicesOnly {
		if err := o.updateExtensions(ctx); err != nil {
			return err
		}
	}

	if !opts.FromStartContext {
		o.reporter.Hint("Run 'ollama-stack start' to start the updated stack.")
	}
	return nil
}

// updateExtensions pulls images for each enabled extension's compose
// project. An extension without a compose file is reported and skipped.
func (o *Orchestrator) updateExtensions(ctx context.Context) error {
	names := o.cfg.EnabledExtensions()
	if len(names) == 0 {
		return nil
	}

	var failures []error
	for _, name := range names {
		spec := o.extensionSpec(name)
		if err := o.engine.PullImages(ctx, spec); err != nil {
			o.reporter.Warn("Could not update extension %s: %v", name, err)
			failures = append(failures, fmt.Errorf("extension %s: %w", name, err))
			continue
		}
		o.reporter.Success("Updated extension %s.", name)
	}
	return errors.Join(failures...)
}

// extensionSpec builds the compose spec for one extension project.
func (o *Orchestrator) extensionSpec(name string) docker.ComposeSpec {
	dir := filepath.Join(o.cfg.Dir, "extensions", name)
	return docker.ComposeSpec{
		ProjectName: o.cfg.ProjectName + "-" + name,
		Files:       []string{filepath.Join(dir, "docker-compose.yml")},
		WorkingDir:  dir,
		EnvFile:     o.spec.EnvFile,
	}
}
