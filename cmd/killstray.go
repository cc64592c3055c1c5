package cmd

import (
	"context"
	"fmt"

	"github.com/smazurov/sidecarhost/internal/backend"
	"github.com/smazurov/sidecarhost/internal/config"
	"github.com/spf13/cobra"
)

type killStrayOptions struct {
	Config string
	Name   string `toml:"sidecar.name" env:"SIDECAR_NAME"`
}

// CreateKillStrayCmd creates the kill-stray command. newKiller is called
// once the command runs, after logging is initialized.
func CreateKillStrayCmd(newKiller func() backend.NameKiller) *cobra.Command {
	opts := &killStrayOptions{}

	cmd := &cobra.Command{
		Use:   "kill-stray",
		Short: "Kill backend processes left behind by a previous run",
		Long: `Terminates every process whose command line matches the sidecar name, ` +
			`the same sweep the host performs when its window closes.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := config.LoadConfig(opts, cmd); err != nil {
				return err
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			outcome, err := newKiller().KillByName(ctx, opts.Name)
			if err != nil {
				return fmt.Errorf("failed to kill %q: %w", opts.Name, err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), outcome)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.Config, "config", "sidecarhost.toml", "Path to configuration file")
	cmd.Flags().StringVar(&opts.Name, "name", backend.DefaultSidecarName, "Sidecar process name to match")

	return cmd
}
