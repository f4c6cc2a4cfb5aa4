package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/tellerj/ollama-stack-sub001/internal/display"
	"github.com/tellerj/ollama-stack-sub001/internal/healthcheck"
	"github.com/tellerj/ollama-stack-sub001/internal/metrics"
	"github.com/tellerj/ollama-stack-sub001/internal/notify"
	"github.com/tellerj/ollama-stack-sub001/internal/server"
	"github.com/tellerj/ollama-stack-sub001/internal/watch"
)

func newStatusCommand(flags *rootFlags) *cobra.Command {
	var extensionsOnly bool
	var watchMode bool
	var interval time.Duration
	var healthPort int
	var metricsPort int
	var slackWebhook string
	var notifyWebhook string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the current state of the stack",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := newApp(flags, false)
			if err != nil {
				return err
			}
			defer app.Close()

			reporter := display.NewConsoleReporter(os.Stdout)

			if !watchMode {
				status, err := app.orch.Status(cmd.Context(), extensionsOnly)
				if err != nil {
					return err
				}
				reporter.Status(status)
				return nil
			}

			if slackWebhook == "" {
				slackWebhook = os.Getenv("OLLAMA_STACK_SLACK_WEBHOOK")
			}
			if notifyWebhook == "" {
				notifyWebhook = os.Getenv("OLLAMA_STACK_NOTIFY_WEBHOOK")
			}

			webhookNotifier, err := notify.NewWebhookNotifier(app.logger, notifyWebhook, "")
			if err != nil {
				return err
			}
			notifiers := []notify.Notifier{notify.NewSlackNotifier(app.logger, slackWebhook)}
			if webhookNotifier != nil {
				notifiers = append(notifiers, webhookNotifier)
			}

			collector := metrics.New()
			tracker := healthcheck.NewTracker()
			server.Start(cmd.Context(), app.logger, interval, tracker, collector, healthPort, metricsPort)

			runner := watch.New(app.logger, app.orch, reporter, app.cfg.ProjectName, interval,
				watch.WithNotifier(notify.NewMultiNotifier(notifiers...)),
				watch.WithMetrics(collector),
				watch.WithTracker(tracker),
			)
			return runner.Run(cmd.Context())
		},
	}

	cmd.Flags().BoolVar(&extensionsOnly, "extensions-only", false, "report extensions only")
	cmd.Flags().BoolVarP(&watchMode, "watch", "w", false, "poll status until interrupted")
	cmd.Flags().DurationVar(&interval, "interval", 5*time.Second, "watch poll interval")
	cmd.Flags().IntVar(&healthPort, "health-port", 0, "serve /healthz and /readyz on this port while watching")
	cmd.Flags().IntVar(&metricsPort, "metrics-port", 0, "serve Prometheus metrics on this port while watching")
	cmd.Flags().StringVar(&slackWebhook, "slack-webhook", "", "Slack webhook URL for transition notifications")
	cmd.Flags().StringVar(&notifyWebhook, "notify-webhook", "", "generic webhook URL for transition notifications")

	return cmd
}
