package docker

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
)

const (
	// Image pulls and stack up/down are minutes-scale operations.
	composePullTimeout = 30 * time.Minute
	composeUpTimeout   = 10 * time.Minute
	composeDownTimeout = 5 * time.Minute
)

// ComposeSpec names the compose project and the platform-specific overlay
// file set resolved by the classifier. Callers never hardcode overlay file
// names.
type ComposeSpec struct {
	ProjectName string
	Files       []string
	WorkingDir  string
	EnvFile     string
}

// cliRunner executes a docker CLI invocation (compose verbs and volume
// archive helpers). Abstracted so tests can record invocations without a
// docker binary.
type cliRunner interface {
	Run(ctx context.Context, dir string, args []string) ([]byte, error)
}

type execCLIRunner struct{}

func (execCLIRunner) Run(ctx context.Context, dir string, args []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "docker", args...)
	cmd.Dir = dir
	cmd.Env = os.Environ()

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	err := cmd.Run()
	return out.Bytes(), err
}

func (spec ComposeSpec) args(verb string, extra ...string) []string {
	args := []string{"compose"}
	if spec.ProjectName != "" {
		args = append(args, "-p", spec.ProjectName)
	}
	for _, file := range spec.Files {
		args = append(args, "-f", file)
	}
	if spec.EnvFile != "" {
		args = append(args, "--env-file", spec.EnvFile)
	}
	args = append(args, verb)
	return append(args, extra...)
}

// StartDockerServices brings up the given compose services as one batch
// (detached). An empty list starts the whole project.
func (c *Client) StartDockerServices(ctx context.Context, spec ComposeSpec, services []string) error {
	ctx, cancel := context.WithTimeout(ctx, composeUpTimeout)
	defer cancel()

	args := spec.args("up", "-d")
	args = append(args, services...)

	c.logger.Info().Strs("services", services).Msg("starting docker services")
	out, err := c.cli.Run(ctx, spec.WorkingDir, args)
	if err != nil {
		return fmt.Errorf("compose up: %w: %s", err, condense(out))
	}
	return nil
}

// StopDockerServices runs compose down across the selected overlay set.
// Volumes are never removed here; uninstall owns that decision.
func (c *Client) StopDockerServices(ctx context.Context, spec ComposeSpec) error {
	ctx, cancel := context.WithTimeout(ctx, composeDownTimeout)
	defer cancel()

	c.logger.Info().Msg("stopping docker services")
	out, err := c.cli.Run(ctx, spec.WorkingDir, spec.args("down"))
	if err != nil {
		return fmt.Errorf("compose down: %w: %s", err, condense(out))
	}
	return nil
}

// PullImages runs compose pull for the project. Long-running; carries a
// generous timeout.
func (c *Client) PullImages(ctx context.Context, spec ComposeSpec) error {
	ctx, cancel := context.WithTimeout(ctx, composePullTimeout)
	defer cancel()

	c.logger.Info().Msg("pulling images")
	out, err := c.cli.Run(ctx, spec.WorkingDir, spec.args("pull"))
	if err != nil {
		return fmt.Errorf("compose pull: %w: %s", err, condense(out))
	}
	return nil
}

// condense collapses command output into a single trimmed line for error
// messages.
func condense(out []byte) string {
	text := strings.TrimSpace(string(out))
	if len(text) > 300 {
		text = text[:300] + "..."
	}
	return strings.ReplaceAll(text, "\n", " | ")
}
