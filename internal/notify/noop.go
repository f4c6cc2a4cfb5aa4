package notify

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/tellerj/ollama-stack-sub001/internal/transition"
)

// NoopNotifier drops every notification.
type NoopNotifier struct{}

// NewNoop logs why notifications are disabled, once, and returns a notifier
// that discards everything.
func NewNoop(logger zerolog.Logger, reason string) *NoopNotifier {
	if reason != "" {
		logger.Info().Msg(reason)
	}
	return &NoopNotifier{}
}

// Notify implements Notifier.
func (*NoopNotifier) Notify(context.Context, string, []transition.ServiceTransition) error {
	return nil
}
