package main

import (
	"github.com/spf13/cobra"

	"github.com/tellerj/ollama-stack-sub001/internal/stack"
)

func newUpdateCommand(flags *rootFlags) *cobra.Command {
	var servicesOnly bool
	var extensionsOnly bool

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Pull fresh images for services and extensions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := newApp(flags, false)
			if err != nil {
				return err
			}
			defer app.Close()
			return app.orch.Update(cmd.Context(), stack.UpdateOptions{
				ServicesOnly:   servicesOnly,
				ExtensionsOnly: extensionsOnly,
			})
		},
	}

	cmd.Flags().BoolVar(&servicesOnly, "services-only", false, "update core services only")
	cmd.Flags().BoolVar(&extensionsOnly, "extensions-only", false, "update enabled extensions only")

	return cmd
}
