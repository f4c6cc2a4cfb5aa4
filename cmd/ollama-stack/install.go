package main

import (
	"github.com/spf13/cobra"
)

func newInstallCommand(flags *rootFlags) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "install",
		Short: "Create stack configuration and compose files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := newApp(flags, true)
			if err != nil {
				return err
			}
			defer app.Close()
			return app.orch.Install(cmd.Context(), force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing installation without prompting")

	return cmd
}
