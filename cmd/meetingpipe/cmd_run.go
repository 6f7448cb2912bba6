package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/meetingpipe/meetingpipe/internal/budget"
	"github.com/meetingpipe/meetingpipe/internal/config"
)

func newRunCommand() *cobra.Command {
	var (
		configPath string
		timeBudget time.Duration
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Process the most recent recording (manual mode)",
		Long: `Find the most recently modified audio file under the accepted prefix and
run it through the pipeline. Equivalent to invoking handle with an empty
trigger payload.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCommandE(cmd, configPath, timeBudget)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", defaultConfigPath, "Path to configuration file")
	cmd.Flags().DurationVar(&timeBudget, "budget", 15*time.Minute, "Wall-clock execution budget")

	return cmd
}

func runCommandE(cmd *cobra.Command, configPath string, timeBudget time.Duration) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	a, err := buildApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close() //nolint:errcheck

	response := a.dispatcher.Manual(cmd.Context(), budget.Starting(timeBudget))

	encoded, err := json.Marshal(response)
	if err != nil {
		return fmt.Errorf("encoding response envelope: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(encoded))
	return nil
}
