package native

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// HealthState classifies the outcome of a health probe.
type HealthState string

const (
	HealthHealthy   HealthState = "healthy"
	HealthUnhealthy HealthState = "unhealthy"
	HealthUnknown   HealthState = "unknown"
)

// Status combines process liveness with the health probe result.
type Status struct {
	IsRunning bool
	PID       int
	Health    HealthState
}

// healthProber performs a single health check against a local endpoint.
type healthProber interface {
	Probe(ctx context.Context, url string) error
}

type httpProber struct {
	client *retryablehttp.Client
}

// newHTTPProber builds a probe client. Retries are disabled: liveness checks
// are point-in-time and lifecycle operations never retry automatically.
func newHTTPProber(timeout time.Duration) *httpProber {
	client := retryablehttp.NewClient()
	client.RetryMax = 0
	client.HTTPClient.Timeout = timeout
	client.Logger = nil
	return &httpProber{client: client}
}

func (p *httpProber) Probe(ctx context.Context, url string) error {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("health endpoint returned %d", resp.StatusCode)
	}
	return nil
}

// Status reports liveness and best-effort health for the native service.
// Probe failures degrade health to unknown or unhealthy; they never raise.
func (c *Client) Status(ctx context.Context) Status {
	running, pid := c.IsRunning(ctx)
	status := Status{IsRunning: running, PID: pid, Health: HealthUnknown}
	if !running || c.probeURL == "" {
		return status
	}

	if err := c.probe.Probe(ctx, probeTarget(c.probeURL)); err != nil {
		c.logger.Debug().Err(err).Str("url", c.probeURL).Msg("health probe failed")
		status.Health = HealthUnhealthy
		return status
	}
	status.Health = HealthHealthy
	return status
}

// probeTarget appends the well-known version path when the configured
// endpoint is a bare base URL.
func probeTarget(url string) string {
	trimmed := strings.TrimRight(url, "/")
	if strings.Contains(trimmed, "/api/") {
		return trimmed
	}
	return trimmed + defaultProbePath
}
