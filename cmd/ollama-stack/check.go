package main

import (
	"github.com/spf13/cobra"
)

func newCheckCommand(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Run environment diagnostics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := newApp(flags, false)
			if err != nil {
				return err
			}
			defer app.Close()
			return app.orch.Check(cmd.Context())
		},
	}
}
