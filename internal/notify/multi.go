package notify

import (
	"context"
	"errors"

	"github.com/tellerj/ollama-stack-sub001/internal/transition"
)

// MultiNotifier fans one notification out to every configured sink. One
// sink failing never blocks the others.
type MultiNotifier struct {
	sinks []Notifier
}

// NewMultiNotifier builds a fan-out over the non-nil notifiers.
func NewMultiNotifier(notifiers ...Notifier) *MultiNotifier {
	m := &MultiNotifier{}
	for _, n := range notifiers {
		if n != nil {
			m.sinks = append(m.sinks, n)
		}
	}
	return m
}

// Notify implements Notifier. All sink errors are joined.
func (m *MultiNotifier) Notify(ctx context.Context, stack string, transitions []transition.ServiceTransition) error {
	var errs []error
	for _, sink := range m.sinks {
		if err := sink.Notify(ctx, stack, transitions); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
