package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/slack-go/slack"

	"github.com/tellerj/ollama-stack-sub001/internal/health"
	"github.com/tellerj/ollama-stack-sub001/internal/transition"
)

// Slack caps a message at 50 blocks; two are spent on the header and the
// context line, the rest carry one transition each.
const (
	slackMaxBlocks      = 50
	slackReservedBlocks = 2
	slackMaxTransitions = slackMaxBlocks - slackReservedBlocks
)

// SlackNotifier posts transition summaries to a Slack incoming webhook.
type SlackNotifier struct {
	logger zerolog.Logger
	timing timingConfig
	poster *httpPoster
}

// SlackOption customizes SlackNotifier behavior.
type SlackOption func(*SlackNotifier)

// WithSlackTiming overrides timing parameters (primarily for testing).
func WithSlackTiming(rateInterval time.Duration, rateBurst int, backoffInitial, backoffMax, backoffMaxElapsed time.Duration) SlackOption {
	return func(s *SlackNotifier) {
		s.timing.rateInterval = rateInterval
		s.timing.rateBurst = rateBurst
		s.timing.backoffInitial = backoffInitial
		s.timing.backoffMax = backoffMax
		s.timing.backoffMaxElapsed = backoffMaxElapsed
	}
}

// NewSlackNotifier creates a Slack notifier, or a noop when the webhook is
// empty.
func NewSlackNotifier(logger zerolog.Logger, webhookURL string, opts ...SlackOption) Notifier {
	if webhookURL == "" {
		return NewNoop(logger, "slack webhook not configured; notifications disabled")
	}

	notifier := &SlackNotifier{logger: logger, timing: defaultTiming}
	for _, opt := range opts {
		opt(notifier)
	}
	notifier.poster = newHTTPPoster(logger, "slack", webhookURL, "application/json", notifier.timing)
	return notifier
}

// Notify implements Notifier.
func (n *SlackNotifier) Notify(ctx context.Context, stack string, transitions []transition.ServiceTransition) error {
	if len(transitions) == 0 {
		return nil
	}
	stackName := stack
	if stackName == "" {
		stackName = "ollama-stack"
	}
	if err := n.poster.waitForRateLimit(ctx, stackName); err != nil {
		return err
	}

	messages := buildSlackMessages(stackName, transitions)
	for _, message := range messages {
		payload, err := json.Marshal(message)
		if err != nil {
			return fmt.Errorf("marshal slack payload: %w", err)
		}
		if err := n.poster.postWithRetry(ctx, payload); err != nil {
			return err
		}
	}

	n.logger.Debug().
		Str("stack", stackName).
		Int("transitions", len(transitions)).
		Int("messages", len(messages)).
		Msg("slack notification sent")
	return nil
}

func buildSlackMessages(stack string, transitions []transition.ServiceTransition) []slack.WebhookMessage {
	chunks := chunkTransitions(transitions, slackMaxTransitions)
	messages := make([]slack.WebhookMessage, 0, len(chunks))
	for i, chunk := range chunks {
		messages = append(messages, slackMessage(stack, chunk, len(transitions), i+1, len(chunks)))
	}
	if len(messages) == 0 {
		return nil
	}
	return messages
}

func chunkTransitions(transitions []transition.ServiceTransition, size int) [][]transition.ServiceTransition {
	if len(transitions) == 0 {
		return nil
	}
	if size <= 0 || len(transitions) <= size {
		return [][]transition.ServiceTransition{transitions}
	}
	chunks := make([][]transition.ServiceTransition, 0, (len(transitions)+size-1)/size)
	for start := 0; start < len(transitions); start += size {
		end := start + size
		if end > len(transitions) {
			end = len(transitions)
		}
		chunks = append(chunks, transitions[start:end])
	}
	return chunks
}

func slackMessage(stack string, chunk []transition.ServiceTransition, total, part, parts int) slack.WebhookMessage {
	summary := fmt.Sprintf("Stack %s: %d service transition(s)", stack, total)
	if parts > 1 {
		summary = fmt.Sprintf("%s (part %d/%d)", summary, part, parts)
	}

	blocks := make([]slack.Block, 0, len(chunk)+slackReservedBlocks)
	blocks = append(blocks,
		slack.NewHeaderBlock(slack.NewTextBlockObject("plain_text", summary, false, false)),
		slack.NewContextBlock("", slack.NewTextBlockObject("mrkdwn", fmt.Sprintf("Stack: *%s*", stack), false, false)),
	)
	for _, change := range chunk {
		blocks = append(blocks, transitionBlock(change))
	}

	blockSet := slack.Blocks{BlockSet: blocks}
	return slack.WebhookMessage{Text: summary, Blocks: &blockSet}
}

func transitionBlock(change transition.ServiceTransition) slack.Block {
	title := fmt.Sprintf("%s *%s*: `%s` -> `%s`",
		statusEmoji(change.CurrentStatus),
		change.Name,
		statusLabel(change.PreviousStatus),
		statusLabel(change.CurrentStatus),
	)
	text := slack.NewTextBlockObject("mrkdwn", title, false, false)

	var fields []*slack.TextBlockObject
	if len(change.Reasons) > 0 {
		fields = append(fields, slack.NewTextBlockObject("mrkdwn", "*Reasons:*\n"+strings.Join(change.Reasons, ", "), false, false))
	}
	return slack.NewSectionBlock(text, fields, nil)
}

func statusEmoji(status health.ServiceStatus) string {
	switch status {
	case health.StatusOK:
		return ":large_green_circle:"
	case health.StatusDegraded:
		return ":large_yellow_circle:"
	case health.StatusFailed:
		return ":red_circle:"
	default:
		return ":white_circle:"
	}
}

func statusLabel(status health.ServiceStatus) string {
	if status == "" {
		return "unknown"
	}
	return string(status)
}
