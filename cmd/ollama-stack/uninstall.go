package main

import (
	"github.com/spf13/cobra"

	"github.com/tellerj/ollama-stack-sub001/internal/stack"
)

func newUninstallCommand(flags *rootFlags) *cobra.Command {
	var removeVolumes bool
	var removeConfig bool
	var force bool

	cmd := &cobra.Command{
		Use:   "uninstall",
		Short: "Remove the stack's Docker resources",
		Long:  "uninstall removes containers, networks, and images owned by the stack. Volumes and configuration survive unless explicitly selected.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := newApp(flags, false)
			if err != nil {
				return err
			}
			defer app.Close()

			return app.orch.Uninstall(cmd.Context(), stack.UninstallOptions{
				RemoveVolumes: removeVolumes,
				RemoveConfig:  removeConfig,
				Force:         force,
			})
		},
	}

	cmd.Flags().BoolVar(&removeVolumes, "remove-volumes", false, "also delete stack volumes")
	cmd.Flags().BoolVar(&removeConfig, "remove-config", false, "also delete the config directory")
	cmd.Flags().BoolVar(&force, "force", false, "skip confirmation prompts")

	return cmd
}
