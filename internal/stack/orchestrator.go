package stack

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/tellerj/ollama-stack-sub001/internal/config"
	"github.com/tellerj/ollama-stack-sub001/internal/docker"
	"github.com/tellerj/ollama-stack-sub001/internal/platform"
)

// Orchestrator coordinates the stack lifecycle across the container engine
// and native processes. One top-level operation runs per invocation.
type Orchestrator struct {
	logger   zerolog.Logger
	cfg      config.Config
	class    platform.Classification
	spec     docker.ComposeSpec
	engine   EngineClient
	natives  map[string]NativeClient
	backups  BackupManager
	checks   CheckRunner
	reporter Reporter
	prompter Prompter
}

// Deps bundles the orchestrator's collaborators.
type Deps struct {
	Engine   EngineClient
	Natives  map[string]NativeClient
	Backups  BackupManager
	Checks   CheckRunner
	Reporter Reporter
	Prompter Prompter
}

// New builds an orchestrator for the given configuration. Classification is
// recomputed on every construction and never persisted.
func New(logger zerolog.Logger, cfg config.Config, deps Deps) (*Orchestrator, error) {
	if deps.Engine == nil {
		return nil, errors.New("engine client is required")
	}
	if deps.Reporter == nil {
		return nil, errors.New("reporter is required")
	}
	if deps.Prompter == nil {
		return nil, errors.New("prompter is required")
	}

	class, err := platform.Classify(cfg.Platform, cfg.Services)
	if err != nil {
		return nil, fmt.Errorf("classify services: %w", err)
	}

	files := make([]string, 0, len(class.OverlayFiles))
	for _, name := range class.OverlayFiles {
		files = append(files, cfg.ComposePath(name))
	}

	natives := deps.Natives
	if natives == nil {
		natives = map[string]NativeClient{}
	}

	return &Orchestrator{
		logger:  logger,
		cfg:     cfg,
		class:   class,
		engine:  deps.Engine,
		natives: natives,
		backups: deps.Backups,
		checks:  deps.Checks,
		spec: docker.ComposeSpec{
			ProjectName: cfg.ProjectName,
			Files:       files,
			WorkingDir:  cfg.Dir,
			EnvFile:     config.EnvFilePath(cfg.Dir),
		},
		reporter: deps.Reporter,
		prompter: deps.Prompter,
	}, nil
}

// Classification exposes the per-invocation service partition.
func (o *Orchestrator) Classification() platform.Classification {
	return o.class
}

// composeServiceNames returns the compose service names for the docker-typed
// services, in classification order.
func (o *Orchestrator) composeServiceNames() []string {
	names := make([]string, 0, len(o.class.DockerNames))
	for _, name := range o.class.DockerNames {
		names = append(names, o.class.Services[name].ComposeService)
	}
	return names
}

// confirm asks the prompter, treating prompt errors as declines.
func (o *Orchestrator) confirm(prompt string) bool {
	ok, err := o.prompter.Confirm(prompt)
	if err != nil {
		o.logger.Warn().Err(err).Msg("confirmation prompt failed")
		return false
	}
	return ok
}
