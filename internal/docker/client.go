package docker

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/docker/docker/client"
	"github.com/rs/zerolog"
)

const (
	// LabelKey marks every engine resource owned by the stack. All
	// discovery and mutation is scoped through it.
	LabelKey = "ollama-stack.installed"
	// LabelValue is the value paired with LabelKey.
	LabelValue = "true"

	// ComponentLabelKey names the stack service a resource belongs to.
	ComponentLabelKey = "ollama-stack.component"

	defaultQueryTimeout = 10 * time.Second
)

// OwnershipFilter is the label query selecting stack-owned resources.
const OwnershipFilter = LabelKey + "=" + LabelValue

// Client wraps the Docker engine API with label-scoped lifecycle operations.
type Client struct {
	api          engineAPI
	cli          cliRunner
	logger       zerolog.Logger
	queryTimeout time.Duration
}

// Ensure the official Docker client satisfies our interface at compile time.
var _ engineAPI = (*client.Client)(nil)

// Option customizes client construction.
type Option func(*Client)

// WithQueryTimeout overrides the timeout applied to label queries and
// liveness checks.
func WithQueryTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.queryTimeout = timeout
		}
	}
}

// WithCLIRunner overrides how docker CLI commands are executed, primarily
// for testing.
func WithCLIRunner(runner cliRunner) Option {
	return func(c *Client) {
		c.cli = runner
	}
}

// WithEngineAPI overrides the engine API implementation, primarily for
// testing.
func WithEngineAPI(api engineAPI) Option {
	return func(c *Client) {
		c.api = api
	}
}

// NewClient initializes a Docker client for the given API host. An empty
// host uses the environment defaults (DOCKER_HOST et al).
func NewClient(logger zerolog.Logger, host string, opts ...Option) (*Client, error) {
	c := &Client{
		logger:       logger,
		queryTimeout: defaultQueryTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.api == nil {
		httpClient := &http.Client{Timeout: c.queryTimeout}
		clientOpts := []client.Opt{
			client.WithAPIVersionNegotiation(),
			client.WithHTTPClient(httpClient),
		}
		if host != "" {
			clientOpts = append(clientOpts, client.WithHost(host))
		} else {
			clientOpts = append(clientOpts, client.FromEnv)
		}
		api, err := client.NewClientWithOpts(clientOpts...)
		if err != nil {
			return nil, err
		}
		c.api = api
	}

	if c.cli == nil {
		c.cli = execCLIRunner{}
	}

	return c, nil
}

// Ping validates connectivity to the Docker daemon.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.api == nil {
		return errors.New("docker client is not initialized")
	}

	ctx, cancel := context.WithTimeout(ctx, c.queryTimeout)
	defer cancel()

	_, err := c.api.Ping(ctx)
	return err
}

// Close releases the underlying engine connection.
func (c *Client) Close() error {
	if c == nil || c.api == nil {
		return nil
	}
	return c.api.Close()
}
