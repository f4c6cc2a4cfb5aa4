package stack

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/tellerj/ollama-stack-sub001/internal/backup"
	"github.com/tellerj/ollama-stack-sub001/internal/config"
)

// MigrationStep is one named, ordered migration action.
type MigrationStep struct {
	Name  string
	apply func(ctx context.Context, o *Orchestrator, target string) error
}

// MigrationPlan is the rendered plan for a target version.
type MigrationPlan struct {
	FromVersion     string
	TargetVersion   string
	Steps           []MigrationStep
	BreakingChanges []string
}

// StepNames returns the ordered step names for display.
func (p MigrationPlan) StepNames() []string {
	names := make([]string, 0, len(p.Steps))
	for _, step := range p.Steps {
		names = append(names, step.Name)
	}
	return names
}

// migrationTable maps known target versions to their ordered step list and
// breaking changes. Versions stay literal strings: the tool has no general
// version-compatibility algebra, and unknown targets fall back to the
// generic step list.
var migrationTable = map[string]MigrationPlan{
	"0.3.0": {
		Steps: []MigrationStep{
			{Name: "update configuration schema to version 0.3.0", apply: stepRewriteConfig},
			{Name: "regenerate platform compose overlays", apply: stepRegenerateCompose},
			{Name: "pull updated service images", apply: stepPullImages},
		},
		BreakingChanges: []string{
			"extension data now lives under the stack configuration directory",
			"the MCP proxy port moved from 8000 to 8200 on the host",
		},
	},
}

var genericMigrationSteps = []MigrationStep{
	{Name: "update configuration schema", apply: stepRewriteConfig},
	{Name: "pull updated service images", apply: stepPullImages},
}

// MigrateOptions parameterizes Migrate.
type MigrateOptions struct {
	TargetVersion string
	Backup        bool
	DryRun        bool
}

// Migrate applies the version-specific step list. DryRun renders the plan
// and performs zero mutation. Migration is not transactional: a step
// failure leaves state as-is and points the operator at their backup.
func (o *Orchestrator) Migrate(ctx context.Context, opts MigrateOptions) error {
	target := opts.TargetVersion
	if target == "" {
		target = config.CurrentVersion
	}

	plan, known := migrationTable[target]
	if !known {
		plan = MigrationPlan{Steps: genericMigrationSteps}
	}
	plan.FromVersion = o.cfg.Version
	plan.TargetVersion = target

	if opts.DryRun {
		o.reporter.Plan(plan)
		return nil
	}

	if !o.confirm(fmt.Sprintf("Migrate stack from %s to %s?", plan.FromVersion, target)) {
		o.reporter.Info("Migration cancelled.")
		return nil
	}
	if len(plan.BreakingChanges) > 0 {
		o.reporter.Plan(plan)
		if !o.confirm("This migration includes breaking changes. Proceed anyway?") {
			o.reporter.Info("Migration cancelled.")
			return nil
		}
	}
	if running, err := o.engine.IsStackRunning(ctx); err == nil && running {
		if !o.confirm("The stack is running. Migrating a running stack is not recommended. Continue?") {
			o.reporter.Info("Migration cancelled.")
			return nil
		}
	}

	if opts.Backup {
		if o.backups == nil {
			return fmt.Errorf("backup requested but no backup manager configured")
		}
		dir := filepath.Join(o.cfg.BackupsDir, "pre-migrate-"+time.Now().UTC().Format("20060102-150405"))
		if _, err := o.backups.Create(ctx, backup.CreateOptions{
			Targets:     backup.Targets{Volumes: true, Config: true, Extensions: true},
			OutputDir:   dir,
			Compress:    true,
			Description: fmt.Sprintf("automatic backup before migration to %s", target),
			VolumeNames: o.ownedVolumeNames(ctx),
		}); err != nil {
			return fmt.Errorf("pre-migration backup failed: %w", err)
		}
		o.reporter.Success("Pre-migration backup written to %s", dir)
	}

	for i, step := range plan.Steps {
		o.reporter.Info("Step %d/%d: %s", i+1, len(plan.Steps), step.Name)
		if err := step.apply(ctx, o, target); err != nil {
			o.reporter.Error("Migration step failed: %v", err)
			o.reporter.Hint("The stack was left as-is. Consider restoring from your backup with 'ollama-stack restore'.")
			return fmt.Errorf("migration step %q: %w", step.Name, err)
		}
	}

	o.reporter.Success("Migration to %s complete.", target)
	return nil
}

func stepRewriteConfig(_ context.Context, o *Orchestrator, target string) error {
	cfg := o.cfg
	cfg.Version = target
	return config.Save(cfg)
}

func stepRegenerateCompose(_ context.Context, o *Orchestrator, _ string) error {
	return config.WriteComposeFiles(o.cfg.Dir)
}

func stepPullImages(ctx context.Context, o *Orchestrator, _ string) error {
	return o.engine.PullImages(ctx, o.spec)
}

// ownedVolumeNames lists currently owned volume names, best-effort.
func (o *Orchestrator) ownedVolumeNames(ctx context.Context) []string {
	owned, err := o.engine.FindOwned(ctx)
	if err != nil {
		o.logger.Warn().Err(err).Msg("volume discovery failed")
		return nil
	}
	names := make([]string, 0, len(owned.Volumes))
	for _, vol := range owned.Volumes {
		names = append(names, vol.Name)
	}
	return names
}
