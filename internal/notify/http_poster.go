package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const httpErrorBodyLimit = 1024

type timingConfig struct {
	timeout           time.Duration
	rateInterval      time.Duration
	rateBurst         int
	backoffMaxElapsed time.Duration
	backoffMax        time.Duration
	backoffInitial    time.Duration
}

var defaultTiming = timingConfig{
	timeout:           10 * time.Second,
	rateInterval:      1 * time.Second,
	rateBurst:         1,
	backoffMaxElapsed: 30 * time.Second,
	backoffMax:        10 * time.Second,
	backoffInitial:    1 * time.Second,
}

// transientError marks a failure worth retrying. When the server names its
// own wait via Retry-After that wait wins; otherwise the backoff schedule
// decides.
type transientError struct {
	err  error
	wait time.Duration
}

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

// httpPoster posts payloads to one webhook-style endpoint, rate limited per
// stack. The retryablehttp client is configured to never retry on its own;
// the backoff loop in postWithRetry owns the retry policy.
type httpPoster struct {
	logger      zerolog.Logger
	serviceName string
	webhookURL  string
	contentType string
	client      *retryablehttp.Client
	timing      timingConfig

	limiterMu sync.Mutex
	limiters  map[string]*rate.Limiter
}

func newHTTPPoster(logger zerolog.Logger, serviceName, webhookURL, contentType string, timing timingConfig) *httpPoster {
	client := retryablehttp.NewClient()
	client.RetryMax = 0
	client.CheckRetry = func(context.Context, *http.Response, error) (bool, error) { return false, nil }
	client.Logger = nil
	client.HTTPClient = &http.Client{Timeout: timing.timeout}

	return &httpPoster{
		logger:      logger,
		serviceName: serviceName,
		webhookURL:  webhookURL,
		contentType: contentType,
		client:      client,
		timing:      timing,
		limiters:    make(map[string]*rate.Limiter),
	}
}

func (n *httpPoster) waitForRateLimit(ctx context.Context, stack string) error {
	return n.getLimiter(stack).Wait(ctx)
}

func (n *httpPoster) getLimiter(stack string) *rate.Limiter {
	n.limiterMu.Lock()
	defer n.limiterMu.Unlock()

	if limiter, ok := n.limiters[stack]; ok {
		return limiter
	}
	limiter := rate.NewLimiter(rate.Every(n.timing.rateInterval), n.timing.rateBurst)
	n.limiters[stack] = limiter
	return limiter
}

func (n *httpPoster) postWithRetry(ctx context.Context, payload []byte) error {
	schedule := backoff.NewExponentialBackOff()
	schedule.InitialInterval = n.timing.backoffInitial
	schedule.MaxInterval = n.timing.backoffMax
	schedule.MaxElapsedTime = n.timing.backoffMaxElapsed
	schedule.Reset()

	for {
		err := n.postOnce(ctx, payload)
		if err == nil {
			return nil
		}
		var transient *transientError
		if !errors.As(err, &transient) {
			return err
		}
		wait := transient.wait
		if wait <= 0 {
			wait = schedule.NextBackOff()
			if wait == backoff.Stop {
				return err
			}
		}
		n.logger.Debug().
			Str("service", n.serviceName).
			Dur("wait", wait).
			Msg("retrying webhook delivery")
		if !sleepWithContext(ctx, wait) {
			return ctx.Err()
		}
	}
}

func (n *httpPoster) postOnce(ctx context.Context, payload []byte) error {
	reqCtx, cancel := context.WithTimeout(ctx, n.timing.timeout)
	defer cancel()

	req, err := retryablehttp.NewRequestWithContext(reqCtx, http.MethodPost, n.webhookURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build %s request: %w", n.serviceName, err)
	}
	req.Header.Set("Content-Type", n.contentType)

	resp, err := n.client.Do(req)
	if err != nil {
		return &transientError{err: fmt.Errorf("%s request failed: %w", n.serviceName, err)}
	}
	defer resp.Body.Close()

	return n.classify(resp)
}

// classify maps a response to nil, a terminal error, or a transientError.
// 429 and 5xx are transient; everything else non-2xx is terminal.
func (n *httpPoster) classify(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		wait, _ := parseRetryAfter(resp.Header.Get("Retry-After"))
		return &transientError{
			err:  fmt.Errorf("%s rate limited: %s", n.serviceName, resp.Status),
			wait: wait,
		}
	}
	if resp.StatusCode >= http.StatusInternalServerError {
		return &transientError{err: fmt.Errorf("%s server error: %s", n.serviceName, resp.Status)}
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, httpErrorBodyLimit))
	if detail := string(bytes.TrimSpace(body)); detail != "" {
		return fmt.Errorf("%s request failed: %s (%s)", n.serviceName, resp.Status, detail)
	}
	return fmt.Errorf("%s request failed: %s", n.serviceName, resp.Status)
}

func parseRetryAfter(value string) (time.Duration, bool) {
	if value == "" {
		return 0, false
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds <= 0 {
			return 0, false
		}
		return time.Duration(seconds) * time.Second, true
	}
	if when, err := http.ParseTime(value); err == nil {
		if wait := time.Until(when); wait > 0 {
			return wait, true
		}
	}
	return 0, false
}

func sleepWithContext(ctx context.Context, wait time.Duration) bool {
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
