package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/tellerj/ollama-stack-sub001/internal/backup"
	"github.com/tellerj/ollama-stack-sub001/internal/checks"
	"github.com/tellerj/ollama-stack-sub001/internal/config"
	"github.com/tellerj/ollama-stack-sub001/internal/display"
	"github.com/tellerj/ollama-stack-sub001/internal/docker"
	"github.com/tellerj/ollama-stack-sub001/internal/logging"
	"github.com/tellerj/ollama-stack-sub001/internal/native"
	"github.com/tellerj/ollama-stack-sub001/internal/platform"
	"github.com/tellerj/ollama-stack-sub001/internal/stack"
)

type rootFlags struct {
	verbose   bool
	configDir string
	assumeYes bool
}

func newRootCommand() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:           "ollama-stack",
		Short:         "Manage the local Ollama AI stack",
		Long:          "ollama-stack installs, runs, and maintains a local AI stack of Docker services plus the native Ollama runtime where the platform calls for it.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "enable debug logging")
	cmd.PersistentFlags().StringVar(&flags.configDir, "config-dir", "", "config directory (default ~/.ollama-stack)")
	cmd.PersistentFlags().BoolVar(&flags.assumeYes, "yes", false, "answer yes to all prompts")

	cmd.AddCommand(
		newInstallCommand(flags),
		newStartCommand(flags),
		newStopCommand(flags),
		newRestartCommand(flags),
		newUpdateCommand(flags),
		newStatusCommand(flags),
		newCheckCommand(flags),
		newBackupCommand(flags),
		newRestoreCommand(flags),
		newMigrateCommand(flags),
		newUninstallCommand(flags),
	)

	return cmd
}

// app bundles the wired collaborators for one command invocation.
type app struct {
	logger zerolog.Logger
	cfg    config.Config
	orch   *stack.Orchestrator
	engine *docker.Client
}

func (a *app) Close() {
	if a.engine != nil {
		a.engine.Close()
	}
}

// newApp loads configuration and wires the orchestrator. When installing,
// a missing config is seeded with platform defaults instead of failing.
func newApp(flags *rootFlags, installing bool) (*app, error) {
	logger := logging.NewConsole(flags.verbose)

	dir := flags.configDir
	if dir == "" {
		dir = config.DefaultDir()
	}

	var cfg config.Config
	var err error
	switch {
	case config.Exists(dir):
		cfg, err = config.Load(dir)
		if err != nil {
			return nil, err
		}
	case installing:
		cfg = config.Default(dir, platform.Detect())
	default:
		return nil, fmt.Errorf("no stack configuration in %s; run 'ollama-stack install' first", dir)
	}

	engine, err := docker.NewClient(logger, os.Getenv("DOCKER_HOST"))
	if err != nil {
		return nil, err
	}

	class, err := platform.Classify(cfg.Platform, cfg.Services)
	if err != nil {
		engine.Close()
		return nil, err
	}

	natives := make(map[string]stack.NativeClient, len(class.NativeNames))
	for _, name := range class.NativeNames {
		svc := class.Services[name]
		natives[name] = native.NewClient(logger, svc.ProcessPattern, svc.HealthEndpoint)
	}

	var prompter stack.Prompter = display.NewStdinPrompter(nil, nil)
	if flags.assumeYes {
		prompter = display.AutoApprovePrompter{}
	}

	orch, err := stack.New(logger, cfg, stack.Deps{
		Engine:   engine,
		Natives:  natives,
		Backups:  backup.NewManager(logger, engine, cfg.Dir, config.CurrentVersion, string(cfg.Platform)),
		Checks:   checks.NewRunner(logger, engine),
		Reporter: display.NewConsoleReporter(os.Stdout),
		Prompter: prompter,
	})
	if err != nil {
		engine.Close()
		return nil, err
	}

	return &app{logger: logger, cfg: cfg, orch: orch, engine: engine}, nil
}
