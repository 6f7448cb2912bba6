package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/meetingpipe/meetingpipe/internal/budget"
	"github.com/meetingpipe/meetingpipe/internal/config"
	"github.com/meetingpipe/meetingpipe/internal/dispatch"
)

func newHandleCommand() *cobra.Command {
	var (
		configPath  string
		payloadPath string
		timeBudget  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "handle",
		Short: "Process a storage-event trigger payload",
		Long: `Process the files named by a trigger payload (storage-change records).

The payload is read from --payload, or from stdin when --payload is "-".
An empty payload switches to manual mode, processing the most recently
modified file under the accepted prefix.

The response envelope is printed to stdout as JSON.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return handleCommandE(cmd, configPath, payloadPath, timeBudget)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", defaultConfigPath, "Path to configuration file")
	cmd.Flags().StringVar(&payloadPath, "payload", "-", `Trigger payload file ("-" for stdin)`)
	cmd.Flags().DurationVar(&timeBudget, "budget", 15*time.Minute, "Wall-clock execution budget")

	return cmd
}

func handleCommandE(cmd *cobra.Command, configPath, payloadPath string, timeBudget time.Duration) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	raw, err := readPayload(cmd.InOrStdin(), payloadPath)
	if err != nil {
		return err
	}

	payload, err := dispatch.DecodePayload(raw)
	if err != nil {
		return err
	}

	a, err := buildApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close() //nolint:errcheck

	response := a.dispatcher.Handle(cmd.Context(), payload, budget.Starting(timeBudget))

	encoded, err := json.Marshal(response)
	if err != nil {
		return fmt.Errorf("encoding response envelope: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(encoded))
	return nil
}

func readPayload(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" {
		raw, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("reading payload from stdin: %w", err)
		}
		return raw, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading payload %s: %w", path, err)
	}
	return raw, nil
}
