package stack

import (
	"context"
	"errors"
	"testing"

	"github.com/tellerj/ollama-stack-sub001/internal/platform"
)

func TestStartAlreadyRunningIsNoOp(t *testing.T) {
	engine := &mockEngine{running: true}
	reporter := &recordingReporter{}
	orch := newTestOrchestrator(t, testConfig(t, platform.CPUOnly), Deps{
		Engine:   engine,
		Reporter: reporter,
	})

	if err := orch.Start(context.Background(), false); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if len(engine.startCalls) != 0 {
		t.Fatalf("expected no compose invocations, got %d", len(engine.startCalls))
	}
	if !hasEntry(reporter.infos, "already running") {
		t.Fatalf("expected already-running notice, got %v", reporter.infos)
	}
}

func TestStartEngineUnreachable(t *testing.T) {
	engine := &mockEngine{runningErr: errors.New("connection refused")}
	orch := newTestOrchestrator(t, testConfig(t, platform.CPUOnly), Deps{Engine: engine})

	err := orch.Start(context.Background(), false)
	if err == nil || !hasEntry([]string{err.Error()}, "cannot reach docker engine") {
		t.Fatalf("expected engine error, got %v", err)
	}
}

func TestStartBatchesDockerServices(t *testing.T) {
	engine := &mockEngine{}
	cfg := testConfig(t, platform.CPUOnly)
	orch := newTestOrchestrator(t, cfg, Deps{Engine: engine})

	if err := orch.Start(context.Background(), false); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if len(engine.startCalls) != 1 {
		t.Fatalf("expected one compose up, got %d", len(engine.startCalls))
	}
	call := engine.startCalls[0]
	want := []string{"mcp_proxy", "ollama", "webui"}
	if len(call.services) != len(want) {
		t.Fatalf("unexpected service batch %v", call.services)
	}
	for i, name := range want {
		if call.services[i] != name {
			t.Fatalf("expected service batch %v, got %v", want, call.services)
		}
	}
	if call.spec.ProjectName != cfg.ProjectName {
		t.Fatalf("unexpected project %q", call.spec.ProjectName)
	}
}

func TestStartNativeServiceHint(t *testing.T) {
	engine := &mockEngine{}
	reporter := &recordingReporter{}
	ollama := &mockNative{running: false}
	orch := newTestOrchestrator(t, testConfig(t, platform.AppleSilicon), Deps{
		Engine:   engine,
		Natives:  map[string]NativeClient{"ollama": ollama},
		Reporter: reporter,
	})

	if err := orch.Start(context.Background(), false); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if len(engine.startCalls) != 1 {
		t.Fatalf("expected one compose up, got %d", len(engine.startCalls))
	}
	for _, svc := range engine.startCalls[0].services {
		if svc == "ollama" {
			t.Fatalf("native service leaked into compose batch: %v", engine.startCalls[0].services)
		}
	}
	if !hasEntry(reporter.hints, "ollama serve") {
		t.Fatalf("expected native guidance hint, got %v", reporter.hints)
	}
}

func TestStartNativeAlreadyRunning(t *testing.T) {
	reporter := &recordingReporter{}
	orch := newTestOrchestrator(t, testConfig(t, platform.AppleSilicon), Deps{
		Engine:   &mockEngine{},
		Natives:  map[string]NativeClient{"ollama": &mockNative{running: true, pid: 99}},
		Reporter: reporter,
	})

	if err := orch.Start(context.Background(), false); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !hasEntry(reporter.infos, "ollama is already running") {
		t.Fatalf("expected running notice, got %v", reporter.infos)
	}
	if len(reporter.hints) != 0 {
		t.Fatalf("unexpected hints %v", reporter.hints)
	}
}

func TestStartWithUpdatePullsOnce(t *testing.T) {
	engine := &mockEngine{}
	prompter := &scriptedPrompter{}
	orch := newTestOrchestrator(t, testConfig(t, platform.CPUOnly), Deps{
		Engine:   engine,
		Prompter: prompter,
	})

	if err := orch.Start(context.Background(), true); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if len(engine.pullCalls) != 1 {
		t.Fatalf("expected one pull, got %d", len(engine.pullCalls))
	}
	if len(engine.startCalls) != 1 {
		t.Fatalf("expected one compose up, got %d", len(engine.startCalls))
	}
	if len(prompter.prompts) != 0 {
		t.Fatalf("update within start must not prompt, got %v", prompter.prompts)
	}
}

func TestStopHalvesAreIndependent(t *testing.T) {
	engine := &mockEngine{stopErr: errors.New("compose down failed")}
	ollama := &mockNative{stopErr: errors.New("process would not die")}
	reporter := &recordingReporter{}
	orch := newTestOrchestrator(t, testConfig(t, platform.AppleSilicon), Deps{
		Engine:   engine,
		Natives:  map[string]NativeClient{"ollama": ollama},
		Reporter: reporter,
	})

	err := orch.Stop(context.Background())
	if err == nil {
		t.Fatal("expected joined failure")
	}
	if len(engine.stopCalls) != 1 {
		t.Fatalf("expected compose down attempt, got %d", len(engine.stopCalls))
	}
	if ollama.stopCalls != 1 {
		t.Fatalf("native stop skipped after docker failure, calls=%d", ollama.stopCalls)
	}
	if !hasEntry([]string{err.Error()}, "compose down failed") || !hasEntry([]string{err.Error()}, "stop ollama") {
		t.Fatalf("expected both failures joined, got %v", err)
	}
}

func TestStopSuccessReportsBothHalves(t *testing.T) {
	reporter := &recordingReporter{}
	orch := newTestOrchestrator(t, testConfig(t, platform.AppleSilicon), Deps{
		Engine:   &mockEngine{},
		Natives:  map[string]NativeClient{"ollama": &mockNative{}},
		Reporter: reporter,
	})

	if err := orch.Stop(context.Background()); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if !hasEntry(reporter.successes, "Stopped docker services") {
		t.Fatalf("missing docker stop report: %v", reporter.successes)
	}
	if !hasEntry(reporter.successes, "Stopped native service ollama") {
		t.Fatalf("missing native stop report: %v", reporter.successes)
	}
}

func TestRestartStopsThenStarts(t *testing.T) {
	engine := &mockEngine{}
	orch := newTestOrchestrator(t, testConfig(t, platform.CPUOnly), Deps{Engine: engine})

	if err := orch.Restart(context.Background(), false); err != nil {
		t.Fatalf("Restart: %v", err)
	}
	if len(engine.stopCalls) != 1 || len(engine.startCalls) != 1 {
		t.Fatalf("expected one stop and one start, got %d/%d", len(engine.stopCalls), len(engine.startCalls))
	}
}

func TestRestartAbortsWhenStopFails(t *testing.T) {
	engine := &mockEngine{stopErr: errors.New("stuck container")}
	orch := newTestOrchestrator(t, testConfig(t, platform.CPUOnly), Deps{Engine: engine})

	if err := orch.Restart(context.Background(), false); err == nil {
		t.Fatal("expected stop failure to surface")
	}
	if len(engine.startCalls) != 0 {
		t.Fatalf("start must not run after failed stop, got %d", len(engine.startCalls))
	}
}
