package stack

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/tellerj/ollama-stack-sub001/internal/backup"
	"github.com/tellerj/ollama-stack-sub001/internal/checks"
	"github.com/tellerj/ollama-stack-sub001/internal/docker"
	"github.com/tellerj/ollama-stack-sub001/internal/platform"
)

func TestBackupRequiresSelection(t *testing.T) {
	backups := &mockBackups{}
	orch := newTestOrchestrator(t, testConfig(t, platform.CPUOnly), Deps{
		Engine:  &mockEngine{},
		Backups: backups,
	})

	err := orch.Backup(context.Background(), BackupOptions{})
	if !errors.Is(err, backup.ErrNoTargets) {
		t.Fatalf("expected ErrNoTargets, got %v", err)
	}
	if len(backups.created) != 0 {
		t.Fatal("no backup must be created without a selection")
	}
}

func TestBackupDefaultsToTimestampedDir(t *testing.T) {
	owned := docker.OwnedResources{Volumes: []docker.DiscoveredResource{
		{Kind: docker.KindVolume, Name: "ollama_data"},
	}}
	backups := &mockBackups{manifest: backup.Manifest{ID: "b1", CreatedAt: time.Now()}}
	cfg := testConfig(t, platform.CPUOnly)
	reporter := &recordingReporter{}
	orch := newTestOrchestrator(t, cfg, Deps{
		Engine:   &mockEngine{ownedSeq: []docker.OwnedResources{owned}},
		Backups:  backups,
		Reporter: reporter,
	})

	opts := BackupOptions{Targets: backup.Targets{Volumes: true, Config: true}}
	if err := orch.Backup(context.Background(), opts); err != nil {
		t.Fatalf("Backup: %v", err)
	}
	if len(backups.created) != 1 {
		t.Fatalf("expected one backup, got %d", len(backups.created))
	}
	created := backups.created[0]
	if !strings.HasPrefix(created.OutputDir, cfg.BackupsDir+string(os.PathSeparator)) {
		t.Fatalf("expected default dir under %s, got %s", cfg.BackupsDir, created.OutputDir)
	}
	if len(created.VolumeNames) != 1 || created.VolumeNames[0] != "ollama_data" {
		t.Fatalf("expected owned volumes, got %v", created.VolumeNames)
	}
	if !hasEntry(reporter.successes, "Backup b1 written") {
		t.Fatalf("expected success message, got %v", reporter.successes)
	}
	if len(reporter.warns) != 0 {
		t.Fatalf("unexpected warnings %v", reporter.warns)
	}
}

func TestBackupWarnsOnZeroVolumes(t *testing.T) {
	reporter := &recordingReporter{}
	orch := newTestOrchestrator(t, testConfig(t, platform.CPUOnly), Deps{
		Engine:   &mockEngine{},
		Backups:  &mockBackups{},
		Reporter: reporter,
	})

	opts := BackupOptions{Targets: backup.Targets{Volumes: true}}
	if err := orch.Backup(context.Background(), opts); err != nil {
		t.Fatalf("Backup: %v", err)
	}
	if !hasEntry(reporter.warns, "no volume data") {
		t.Fatalf("expected empty-volume warning, got %v", reporter.warns)
	}
}

func TestBackupDeclinedOverwrite(t *testing.T) {
	dir := t.TempDir()
	backups := &mockBackups{}
	prompter := &scriptedPrompter{answers: []bool{false}}
	reporter := &recordingReporter{}
	orch := newTestOrchestrator(t, testConfig(t, platform.CPUOnly), Deps{
		Engine:   &mockEngine{},
		Backups:  backups,
		Reporter: reporter,
		Prompter: prompter,
	})

	opts := BackupOptions{Targets: backup.Targets{Config: true}, OutputPath: dir}
	if err := orch.Backup(context.Background(), opts); err != nil {
		t.Fatalf("declined backup must be clean: %v", err)
	}
	if len(prompter.prompts) != 1 || !strings.Contains(prompter.prompts[0], "already exists") {
		t.Fatalf("expected overwrite prompt, got %v", prompter.prompts)
	}
	if len(backups.created) != 0 {
		t.Fatal("declined backup must not create anything")
	}
	if !hasEntry(reporter.infos, "Backup cancelled") {
		t.Fatalf("expected cancellation notice, got %v", reporter.infos)
	}
}

func TestRestoreRequiresBackupDir(t *testing.T) {
	orch := newTestOrchestrator(t, testConfig(t, platform.CPUOnly), Deps{
		Engine:  &mockEngine{},
		Backups: &mockBackups{},
	})

	if err := orch.Restore(context.Background(), RestoreOptions{}); err == nil {
		t.Fatal("expected missing backup dir error")
	}
}

func TestRestoreDefaultsToAllTargets(t *testing.T) {
	backups := &mockBackups{manifest: backup.Manifest{ID: "b1", CreatedAt: time.Now()}}
	reporter := &recordingReporter{}
	orch := newTestOrchestrator(t, testConfig(t, platform.CPUOnly), Deps{
		Engine:   &mockEngine{},
		Backups:  backups,
		Reporter: reporter,
	})

	dir := filepath.Join(t.TempDir(), "b1")
	if err := orch.Restore(context.Background(), RestoreOptions{BackupDir: dir}); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if len(backups.restoredDirs) != 1 || backups.restoredDirs[0] != dir {
		t.Fatalf("unexpected restore dirs %v", backups.restoredDirs)
	}
	targets := backups.restoreTargets[0]
	if !targets.Volumes || !targets.Config || !targets.Extensions {
		t.Fatalf("empty selection must restore everything, got %+v", targets)
	}
	if !hasEntry(reporter.hints, "ollama-stack start") {
		t.Fatalf("expected start hint, got %v", reporter.hints)
	}
}

func TestRestoreStopsRunningStackOnConfirm(t *testing.T) {
	engine := &mockEngine{running: true}
	backups := &mockBackups{}
	prompter := &scriptedPrompter{answers: []bool{true}}
	orch := newTestOrchestrator(t, testConfig(t, platform.CPUOnly), Deps{
		Engine:   engine,
		Backups:  backups,
		Prompter: prompter,
	})

	if err := orch.Restore(context.Background(), RestoreOptions{BackupDir: "/backups/b1"}); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if len(engine.stopCalls) != 1 {
		t.Fatalf("expected stack stop before restore, got %d", len(engine.stopCalls))
	}
	if len(backups.restoredDirs) != 1 {
		t.Fatalf("expected restore to proceed, got %v", backups.restoredDirs)
	}
}

func TestRestoreDeclinedStopCancels(t *testing.T) {
	engine := &mockEngine{running: true}
	backups := &mockBackups{}
	prompter := &scriptedPrompter{answers: []bool{false}}
	reporter := &recordingReporter{}
	orch := newTestOrchestrator(t, testConfig(t, platform.CPUOnly), Deps{
		Engine:   engine,
		Backups:  backups,
		Reporter: reporter,
		Prompter: prompter,
	})

	if err := orch.Restore(context.Background(), RestoreOptions{BackupDir: "/backups/b1"}); err != nil {
		t.Fatalf("declined restore must be clean: %v", err)
	}
	if len(backups.restoredDirs) != 0 || len(engine.stopCalls) != 0 {
		t.Fatal("declined restore must not touch anything")
	}
	if !hasEntry(reporter.infos, "Restore cancelled") {
		t.Fatalf("expected cancellation notice, got %v", reporter.infos)
	}
}

func TestRestoreFailureIsWrapped(t *testing.T) {
	backups := &mockBackups{restoreErr: errors.New("config archive was modified")}
	orch := newTestOrchestrator(t, testConfig(t, platform.CPUOnly), Deps{
		Engine:  &mockEngine{},
		Backups: backups,
	})

	err := orch.Restore(context.Background(), RestoreOptions{BackupDir: "/backups/b1"})
	if err == nil || !strings.Contains(err.Error(), "restore failed") {
		t.Fatalf("expected wrapped restore error, got %v", err)
	}
}

func TestCheckReportsAndFailsOnBadReport(t *testing.T) {
	reporter := &recordingReporter{}
	runner := &mockChecks{report: checks.Report{Checks: []checks.EnvironmentCheck{
		{Name: "docker engine reachable", Passed: true},
		{Name: "port 11434 available", Passed: false},
	}}}
	orch := newTestOrchestrator(t, testConfig(t, platform.CPUOnly), Deps{
		Engine:   &mockEngine{},
		Checks:   runner,
		Reporter: reporter,
	})

	if err := orch.Check(context.Background()); err == nil {
		t.Fatal("failing report must surface as an error")
	}
	if len(reporter.reports) != 1 {
		t.Fatalf("report must be rendered even on failure, got %d", len(reporter.reports))
	}

	runner.report = checks.Report{Checks: []checks.EnvironmentCheck{
		{Name: "docker engine reachable", Passed: true},
	}}
	if err := orch.Check(context.Background()); err != nil {
		t.Fatalf("passing report: %v", err)
	}
}
