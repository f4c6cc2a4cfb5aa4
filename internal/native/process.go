package native

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
)

const (
	gracefulStopWait  = 10 * time.Second
	stopPollInterval  = 500 * time.Millisecond
	processOpTimeout  = 5 * time.Second
	defaultProbePath  = "/api/version"
	defaultProbeLimit = 3 * time.Second
)

// processRunner executes process-table commands (pgrep/pkill). Abstracted so
// tests run without touching the host process table.
type processRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execProcessRunner struct{}

func (execProcessRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	var out bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &out
	cmd.Stderr = &out
	err := cmd.Run()
	return out.Bytes(), err
}

// Client manages the one platform-native stack service via OS process
// discovery and a local health probe. When the binary is absent on the host
// every operation degrades to "not running / unknown" instead of erroring.
type Client struct {
	logger   zerolog.Logger
	pattern  string
	probeURL string
	runner   processRunner
	probe    healthProber
	stopWait time.Duration
}

// Option customizes client construction.
type Option func(*Client)

// WithProcessRunner overrides process command execution, primarily for
// testing.
func WithProcessRunner(runner processRunner) Option {
	return func(c *Client) {
		c.runner = runner
	}
}

// WithHealthProber overrides the health probe, primarily for testing.
func WithHealthProber(probe healthProber) Option {
	return func(c *Client) {
		c.probe = probe
	}
}

// WithStopWait overrides the graceful-stop escalation window.
func WithStopWait(wait time.Duration) Option {
	return func(c *Client) {
		if wait > 0 {
			c.stopWait = wait
		}
	}
}

// NewClient constructs a native process client for the service matching the
// given command-line pattern, probing the given health endpoint.
func NewClient(logger zerolog.Logger, pattern, probeURL string, opts ...Option) *Client {
	c := &Client{
		logger:   logger,
		pattern:  pattern,
		probeURL: probeURL,
		stopWait: gracefulStopWait,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.runner == nil {
		c.runner = execProcessRunner{}
	}
	if c.probe == nil {
		c.probe = newHTTPProber(defaultProbeLimit)
	}
	return c
}

// IsRunning checks the process table for a live process matching the
// client's command-line pattern.
func (c *Client) IsRunning(ctx context.Context) (bool, int) {
	ctx, cancel := context.WithTimeout(ctx, processOpTimeout)
	defer cancel()

	out, err := c.runner.Run(ctx, "pgrep", "-f", c.pattern)
	if err != nil {
		// pgrep exits 1 when nothing matches; anything else (including a
		// missing pgrep binary) also degrades to not-running.
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) || exitErr.ExitCode() != 1 {
			c.logger.Debug().Err(err).Str("pattern", c.pattern).Msg("process discovery failed")
		}
		return false, 0
	}

	fields := strings.Fields(string(out))
	if len(fields) == 0 {
		return false, 0
	}
	pid, err := strconv.Atoi(fields[0])
	if err != nil {
		return true, 0
	}
	return true, pid
}

// Stop requests graceful termination and escalates to a forced kill if the
// process survives the escalation window. The returned error is advisory;
// callers report it without aborting sibling work.
func (c *Client) Stop(ctx context.Context) error {
	running, _ := c.IsRunning(ctx)
	if !running {
		return nil
	}

	if err := c.signal(ctx, false); err != nil {
		c.logger.Warn().Err(err).Str("pattern", c.pattern).Msg("graceful stop signal failed")
	}

	exited := c.waitForExit(ctx)
	if exited {
		c.logger.Info().Str("pattern", c.pattern).Msg("native service stopped")
		return nil
	}

	c.logger.Warn().Str("pattern", c.pattern).Msg("native service did not exit, forcing kill")
	if err := c.signal(ctx, true); err != nil {
		return err
	}
	if running, _ := c.IsRunning(ctx); running {
		return errors.New("native service still running after forced kill")
	}
	return nil
}

func (c *Client) signal(ctx context.Context, force bool) error {
	opCtx, cancel := context.WithTimeout(ctx, processOpTimeout)
	defer cancel()

	args := []string{"-f", c.pattern}
	if force {
		args = append([]string{"-9"}, args...)
	}
	_, err := c.runner.Run(opCtx, "pkill", args...)
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
			// No matching process left.
			return nil
		}
	}
	return err
}

// waitForExit polls the process table until the process disappears or the
// escalation window elapses.
func (c *Client) waitForExit(ctx context.Context) bool {
	policy := backoff.WithContext(backoff.WithMaxRetries(
		backoff.NewConstantBackOff(stopPollInterval),
		uint64(c.stopWait/stopPollInterval),
	), ctx)

	err := backoff.Retry(func() error {
		if running, _ := c.IsRunning(ctx); running {
			return errors.New("still running")
		}
		return nil
	}, policy)
	return err == nil
}
