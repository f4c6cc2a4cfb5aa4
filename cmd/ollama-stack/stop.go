package main

import (
	"github.com/spf13/cobra"
)

func newStopCommand(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the stack services",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := newApp(flags, false)
			if err != nil {
				return err
			}
			defer app.Close()
			return app.orch.Stop(cmd.Context())
		},
	}
}
