package main

import (
	"log/slog"

	"github.com/spf13/cobra"
)

var version = "dev"

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "meetingpipe",
		Short: "meetingpipe - meeting recordings to transcripts, summaries, and email drafts",
		Long: `meetingpipe converts recorded meeting audio into structured artifacts:
a transcript, a JSON summary, and email-ready text.

It orchestrates object storage, an asynchronous speech-to-text job service,
and an LLM completion service under a wall-clock execution budget, degrading
to deterministic demo content instead of failing when a provider is down.`,
		Version:      version,
		SilenceUsage: true,
	}

	debugLogging := cmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	cmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if *debugLogging {
			slog.SetLogLoggerLevel(slog.LevelDebug)
		}
	}

	// Add subcommands
	cmd.AddCommand(newHandleCommand())
	cmd.AddCommand(newRunCommand())
	cmd.AddCommand(newInitCommand())

	return cmd
}

func execute() error {
	rootCmd := newRootCommand()
	return rootCmd.Execute()
}
