package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/meetingpipe/meetingpipe/internal/config"
)

func newInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a .meetingpipe.yaml configuration file",
		Long: `Create a configuration file in the current directory.

On a terminal this runs a guided form collecting the storage account,
container, transcription endpoint, and model list; otherwise it writes the
defaults for editing by hand. Secrets (API keys, connection strings) are
never written to the file — supply them via MEETINGPIPE_* environment
variables.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return initCommandE(cmd, force)
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing configuration file")

	return cmd
}

func initCommandE(cmd *cobra.Command, force bool) error {
	if _, err := os.Stat(defaultConfigPath); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", defaultConfigPath)
	}

	cfg := config.Default()

	if term.IsTerminal(int(os.Stdin.Fd())) {
		if err := runConfigForm(&cfg); err != nil {
			return err
		}
	}

	if err := cfg.Save(defaultConfigPath); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", defaultConfigPath)
	return nil
}

// runConfigForm collects the non-secret settings interactively.
func runConfigForm(cfg *config.Config) error {
	fallbacks := strings.Join(cfg.Models.Fallbacks, ", ")

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Storage account URL").
				Description("e.g. https://myaccount.blob.core.windows.net").
				Value(&cfg.Storage.AccountURL),
			huh.NewInput().
				Title("Container name").
				Value(&cfg.Storage.Container),
			huh.NewInput().
				Title("Transcription service endpoint").
				Description("Base URL of the speech-to-text job API").
				Value(&cfg.Transcribe.Endpoint),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Primary model").
				Value(&cfg.Models.Primary),
			huh.NewInput().
				Title("Fallback models").
				Description("Comma-separated, tried in order after the primary").
				Value(&fallbacks),
		),
	)

	if err := form.Run(); err != nil {
		return fmt.Errorf("configuration form: %w", err)
	}

	cfg.Models.Fallbacks = nil
	for _, model := range strings.Split(fallbacks, ",") {
		if model = strings.TrimSpace(model); model != "" {
			cfg.Models.Fallbacks = append(cfg.Models.Fallbacks, model)
		}
	}

	return nil
}
