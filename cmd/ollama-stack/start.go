package main

import (
	"github.com/spf13/cobra"
)

func newStartCommand(flags *rootFlags) *cobra.Command {
	var update bool

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the stack services",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := newApp(flags, false)
			if err != nil {
				return err
			}
			defer app.Close()
			return app.orch.Start(cmd.Context(), update)
		},
	}

	cmd.Flags().BoolVar(&update, "update", false, "pull fresh images before starting")

	return cmd
}
