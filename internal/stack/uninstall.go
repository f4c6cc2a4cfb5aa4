package stack

import (
	"context"
	"fmt"
	"os"

	"github.com/tellerj/ollama-stack-sub001/internal/docker"
)

// UninstallOptions gates the destructive phases of Uninstall. The default
// (all false) preserves volumes and configuration.
type UninstallOptions struct {
	RemoveVolumes bool
	RemoveConfig  bool
	Force         bool
}

// Uninstall tears the stack down in ordered phases: discover, stop, remove
// containers and networks, remove images, then conditionally volumes and
// the configuration directory. Per-resource failures are collected, never
// propagated to sibling resources; the operation fails if any removal in a
// mandatory phase failed.
func (o *Orchestrator) Uninstall(ctx context.Context, opts UninstallOptions) error {
	owned, err := o.engine.FindOwned(ctx)
	if err != nil {
		return fmt.Errorf("cannot reach docker engine: %w", err)
	}

	if owned.Total() == 0 && !opts.RemoveConfig {
		o.reporter.Info("Nothing to uninstall: no stack resources found.")
		return nil
	}

	if (opts.RemoveVolumes || opts.RemoveConfig) && !opts.Force {
		prompt := "This will delete stack data"
		if opts.RemoveConfig {
			prompt += " and configuration"
		}
		if !o.confirm(prompt + ". Continue?") {
			o.reporter.Info("Uninstall cancelled.")
			return nil
		}
	}

	// Phase 2: stop whatever is running, both service types, each
	// fault-tolerant on its own.
	if running, runErr := o.engine.IsStackRunning(ctx); runErr == nil && running {
		if stopErr := o.Stop(ctx); stopErr != nil {
			o.reporter.Warn("Some services did not stop cleanly: %v", stopErr)
		}
	} else {
		for _, name := range o.class.NativeNames {
			if client, ok := o.natives[name]; ok {
				if stopErr := client.Stop(ctx); stopErr != nil {
					o.reporter.Warn("Could not stop native service %s: %v", name, stopErr)
				}
			}
		}
	}

	// Engine state moved during the stop phase; re-discover rather than
	// trusting the earlier snapshot.
	owned, err = o.engine.FindOwned(ctx)
	if err != nil {
		return fmt.Errorf("cannot reach docker engine: %w", err)
	}

	failed := 0

	// Phases 3-4 always run.
	outcomes := o.engine.RemoveContainers(ctx, owned.Containers, true)
	failed += docker.Failures(outcomes)
	outcomes = o.engine.RemoveNetworks(ctx, owned.Networks)
	failed += docker.Failures(outcomes)
	outcomes = o.engine.RemoveImages(ctx, owned.Images, false)
	failed += docker.Failures(outcomes)

	// Phases 5-6 are strictly additive and gated.
	if opts.RemoveVolumes {
		outcomes = o.engine.RemoveVolumes(ctx, owned.Volumes, true)
		failed += docker.Failures(outcomes)
	} else if len(owned.Volumes) > 0 {
		o.reporter.Info("Preserved %d data volume(s). Use --remove-volumes to delete them.", len(owned.Volumes))
	}

	if opts.RemoveConfig {
		if err := os.RemoveAll(o.cfg.Dir); err != nil {
			o.reporter.Error("Could not remove configuration directory: %v", err)
			failed++
		} else {
			o.reporter.Success("Removed configuration directory %s.", o.cfg.Dir)
		}
	}

	if failed > 0 {
		return fmt.Errorf("uninstall finished with %d resource failure(s)", failed)
	}
	o.reporter.Success("Uninstall complete.")
	return nil
}
