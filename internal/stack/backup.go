package stack

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/tellerj/ollama-stack-sub001/internal/backup"
)

// BackupOptions parameterizes Backup.
type BackupOptions struct {
	Targets     backup.Targets
	OutputPath  string
	Compress    bool
	Description string
}

// Backup captures a point-in-time archive of the selected target
// categories. It refuses to proceed when no category is selected, and asks
// before overwriting an existing output directory.
func (o *Orchestrator) Backup(ctx context.Context, opts BackupOptions) error {
	if o.backups == nil {
		return errors.New("no backup manager configured")
	}
	if opts.Targets.None() {
		return backup.ErrNoTargets
	}

	dir := opts.OutputPath
	if dir == "" {
		dir = filepath.Join(o.cfg.BackupsDir, time.Now().UTC().Format("20060102-150405"))
	}
	if _, err := os.Stat(dir); err == nil {
		if !o.confirm(fmt.Sprintf("Backup directory %s already exists. Overwrite?", dir)) {
			o.reporter.Info("Backup cancelled.")
			return nil
		}
	}

	var volumeNames []string
	if opts.Targets.Volumes {
		volumeNames = o.ownedVolumeNames(ctx)
		if len(volumeNames) == 0 {
			o.reporter.Warn("No stack volumes found; the backup will contain no volume data.")
		}
	}

	manifest, err := o.backups.Create(ctx, backup.CreateOptions{
		Targets:     opts.Targets,
		OutputDir:   dir,
		Compress:    opts.Compress,
		Description: opts.Description,
		VolumeNames: volumeNames,
	})
	if err != nil {
		return err
	}

	o.reporter.Success("Backup %s written to %s", manifest.ID, dir)
	return nil
}

// RestoreOptions parameterizes Restore.
type RestoreOptions struct {
	BackupDir string
	Targets   backup.Targets
}

// Restore validates a backup in full and applies it. Validation failures
// stop the restore before any mutation.
func (o *Orchestrator) Restore(ctx context.Context, opts RestoreOptions) error {
	if o.backups == nil {
		return errors.New("no backup manager configured")
	}
	if opts.BackupDir == "" {
		return errors.New("backup directory is required")
	}

	targets := opts.Targets
	if targets.None() {
		targets = backup.Targets{Volumes: true, Config: true, Extensions: true}
	}

	if running, err := o.engine.IsStackRunning(ctx); err == nil && running {
		if !o.confirm("The stack is running. Stop it before restoring?") {
			o.reporter.Info("Restore cancelled.")
			return nil
		}
		if err := o.Stop(ctx); err != nil {
			return err
		}
	}

	manifest, err := o.backups.Restore(ctx, opts.BackupDir, targets)
	if err != nil {
		return fmt.Errorf("restore failed: %w", err)
	}

	o.reporter.Success("Restored backup %s (created %s).", manifest.ID, manifest.CreatedAt.Format(time.RFC3339))
	o.reporter.Hint("Run 'ollama-stack start' to bring the restored stack up.")
	return nil
}

// Check runs the environment diagnostics and reports them.
func (o *Orchestrator) Check(ctx context.Context) error {
	if o.checks == nil {
		return errors.New("no check runner configured")
	}
	report := o.checks.Run(ctx, o.spec.Files, requiredPorts())
	o.reporter.Checks(report)
	if !report.Passed() {
		return errors.New("one or more environment checks failed")
	}
	return nil
}
