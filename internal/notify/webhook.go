package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"text/template"
	"time"

	"github.com/rs/zerolog"

	"github.com/tellerj/ollama-stack-sub001/internal/transition"
)

const defaultWebhookTemplate = `{"stack":"{{ .Stack }}","transitions":{{ toJson .Transitions }}}`

var webhookFuncs = template.FuncMap{
	"toJson": func(v any) (string, error) {
		encoded, err := json.Marshal(v)
		if err != nil {
			return "", err
		}
		return string(encoded), nil
	},
}

// WebhookPayload is the template context a webhook body is rendered from.
type WebhookPayload struct {
	Stack       string
	Transitions []transition.ServiceTransition
	GeneratedAt time.Time
}

// WebhookNotifier renders transitions through a user template and posts the
// result to a generic endpoint.
type WebhookNotifier struct {
	logger   zerolog.Logger
	template *template.Template
	poster   *httpPoster
}

// NewWebhookNotifier builds a webhook notifier. An empty URL yields a nil
// notifier, an empty template the default JSON body.
func NewWebhookNotifier(logger zerolog.Logger, webhookURL string, tmpl string) (*WebhookNotifier, error) {
	if webhookURL == "" {
		return nil, nil
	}
	if tmpl == "" {
		tmpl = defaultWebhookTemplate
	}
	parsed, err := template.New("webhook").Funcs(webhookFuncs).Parse(tmpl)
	if err != nil {
		return nil, fmt.Errorf("parse webhook template: %w", err)
	}
	return &WebhookNotifier{
		logger:   logger,
		template: parsed,
		poster:   newHTTPPoster(logger, "webhook", webhookURL, "application/json", defaultTiming),
	}, nil
}

// Notify implements Notifier.
func (n *WebhookNotifier) Notify(ctx context.Context, stack string, transitions []transition.ServiceTransition) error {
	if n == nil || len(transitions) == 0 {
		return nil
	}
	stackName := stack
	if stackName == "" {
		stackName = "ollama-stack"
	}

	body, err := n.render(stackName, transitions)
	if err != nil {
		return err
	}
	if err := n.poster.waitForRateLimit(ctx, stackName); err != nil {
		return err
	}
	if err := n.poster.postWithRetry(ctx, body); err != nil {
		return err
	}

	n.logger.Debug().
		Str("stack", stackName).
		Int("transitions", len(transitions)).
		Msg("webhook notification sent")
	return nil
}

func (n *WebhookNotifier) render(stack string, transitions []transition.ServiceTransition) ([]byte, error) {
	var buf bytes.Buffer
	err := n.template.Execute(&buf, WebhookPayload{
		Stack:       stack,
		Transitions: transitions,
		GeneratedAt: time.Now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("render webhook template: %w", err)
	}
	return buf.Bytes(), nil
}
