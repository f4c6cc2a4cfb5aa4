package main

import (
	"github.com/spf13/cobra"

	"github.com/tellerj/ollama-stack-sub001/internal/backup"
	"github.com/tellerj/ollama-stack-sub001/internal/stack"
)

func newBackupCommand(flags *rootFlags) *cobra.Command {
	var volumes bool
	var configOnly bool
	var extensions bool
	var output string
	var compress bool
	var description string

	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Capture a point-in-time backup of the stack",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := newApp(flags, false)
			if err != nil {
				return err
			}
			defer app.Close()

			targets := backup.Targets{Volumes: volumes, Config: configOnly, Extensions: extensions}
			if targets.None() {
				// No selector means everything.
				targets = backup.Targets{Volumes: true, Config: true, Extensions: true}
			}

			return app.orch.Backup(cmd.Context(), stack.BackupOptions{
				Targets:     targets,
				OutputPath:  output,
				Compress:    compress,
				Description: description,
			})
		},
	}

	cmd.Flags().BoolVar(&volumes, "volumes", false, "include stack volumes")
	cmd.Flags().BoolVar(&configOnly, "config", false, "include configuration files")
	cmd.Flags().BoolVar(&extensions, "extensions", false, "include extension data")
	cmd.Flags().StringVarP(&output, "output", "o", "", "backup output directory (default: backups dir with a timestamp)")
	cmd.Flags().BoolVar(&compress, "compress", false, "gzip volume archives")
	cmd.Flags().StringVar(&description, "description", "", "free-form note stored in the manifest")

	return cmd
}

func newRestoreCommand(flags *rootFlags) *cobra.Command {
	var volumes bool
	var configOnly bool
	var extensions bool

	cmd := &cobra.Command{
		Use:   "restore BACKUP_DIR",
		Short: "Validate and restore a backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(flags, false)
			if err != nil {
				return err
			}
			defer app.Close()

			return app.orch.Restore(cmd.Context(), stack.RestoreOptions{
				BackupDir: args[0],
				Targets:   backup.Targets{Volumes: volumes, Config: configOnly, Extensions: extensions},
			})
		},
	}

	cmd.Flags().BoolVar(&volumes, "volumes", false, "restore stack volumes only")
	cmd.Flags().BoolVar(&configOnly, "config", false, "restore configuration only")
	cmd.Flags().BoolVar(&extensions, "extensions", false, "restore extension data only")

	return cmd
}
