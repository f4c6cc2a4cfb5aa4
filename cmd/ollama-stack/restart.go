package main

import (
	"github.com/spf13/cobra"
)

func newRestartCommand(flags *rootFlags) *cobra.Command {
	var update bool

	cmd := &cobra.Command{
		Use:   "restart",
		Short: "Stop then start the stack services",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := newApp(flags, false)
			if err != nil {
				return err
			}
			defer app.Close()
			return app.orch.Restart(cmd.Context(), update)
		},
	}

	cmd.Flags().BoolVar(&update, "update", false, "pull fresh images before restarting")

	return cmd
}
