package main

import (
	"github.com/spf13/cobra"

	"github.com/tellerj/ollama-stack-sub001/internal/config"
	"github.com/tellerj/ollama-stack-sub001/internal/stack"
)

func newMigrateCommand(flags *rootFlags) *cobra.Command {
	var targetVersion string
	var withBackup bool
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Migrate the installation to a newer stack version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := newApp(flags, false)
			if err != nil {
				return err
			}
			defer app.Close()

			return app.orch.Migrate(cmd.Context(), stack.MigrateOptions{
				TargetVersion: targetVersion,
				Backup:        withBackup,
				DryRun:        dryRun,
			})
		},
	}

	cmd.Flags().StringVar(&targetVersion, "version", config.CurrentVersion, "target stack version")
	cmd.Flags().BoolVar(&withBackup, "backup", false, "take a full backup before migrating")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "show the migration plan without changing anything")

	return cmd
}
