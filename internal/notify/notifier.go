package notify

import (
	"context"

	"github.com/tellerj/ollama-stack-sub001/internal/transition"
)

// Notifier delivers service health transitions to an external sink. A nil
// transition slice is a no-op for every implementation.
type Notifier interface {
	Notify(ctx context.Context, stack string, transitions []transition.ServiceTransition) error
}
