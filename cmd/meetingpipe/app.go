package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/meetingpipe/meetingpipe/internal/config"
	"github.com/meetingpipe/meetingpipe/internal/dispatch"
	"github.com/meetingpipe/meetingpipe/internal/pipeline"
	"github.com/meetingpipe/meetingpipe/internal/storage"
	"github.com/meetingpipe/meetingpipe/internal/summarize"
	"github.com/meetingpipe/meetingpipe/internal/transcribe"
)

// defaultConfigPath is where commands look for configuration unless
// --config overrides it.
const defaultConfigPath = ".meetingpipe.yaml"

// app bundles everything a processing command needs.
type app struct {
	dispatcher *dispatch.Dispatcher
	provider   *summarize.CopilotProvider
}

// buildApp wires the store, drivers, orchestrator, and dispatcher from
// configuration. Callers must Close the returned app.
func buildApp(cfg config.Config) (*app, error) {
	store, err := buildStore(cfg)
	if err != nil {
		return nil, err
	}

	if cfg.Transcribe.Endpoint == "" {
		return nil, fmt.Errorf("transcribe.endpoint is not configured (set it in %s or MEETINGPIPE_TRANSCRIBE_ENDPOINT)", defaultConfigPath)
	}

	jobs := transcribe.NewClient(cfg.Transcribe.Endpoint, cfg.Transcribe.APIKey)
	transcriber := transcribe.NewDriver(jobs, store, transcribe.Config{
		Language:     cfg.Transcribe.Language,
		MediaBaseURI: mediaBaseURI(cfg),
		MaxSpeakers:  cfg.Transcribe.MaxSpeakers,
		PollInterval: cfg.PollInterval(),
		MinWait:      time.Duration(cfg.Limits.MinWaitSec) * time.Second,
		MaxWait:      time.Duration(cfg.Limits.MaxWaitSec) * time.Second,
		SafetyMargin: time.Duration(cfg.Limits.SafetyMarginSec) * time.Second,
		BudgetFloor:  time.Duration(cfg.Limits.BudgetFloorSec) * time.Second,
	})

	provider := summarize.NewCopilotProvider(nil)
	summarizer := summarize.NewDriver(provider, summarize.Config{
		Models:             cfg.ModelList(),
		MaxTranscriptChars: cfg.Limits.MaxTranscriptChars,
		TruncationMarker:   config.DefaultTruncationMarker,
	})

	orchestrator := pipeline.New(store, transcriber, summarizer, pipeline.Config{
		InputPrefix:  cfg.Pipeline.InputPrefix,
		OutputPrefix: cfg.Pipeline.OutputPrefix,
		Extensions:   cfg.Pipeline.Extensions,
		MaxFileSize:  cfg.MaxFileSizeBytes(),
		PrimaryModel: cfg.Models.Primary,
	})

	dispatcher := dispatch.New(orchestrator, store, dispatch.Config{
		InputPrefix: cfg.Pipeline.InputPrefix,
		Extensions:  cfg.Pipeline.Extensions,
		Workers:     cfg.Pipeline.Workers,
	})

	return &app{dispatcher: dispatcher, provider: provider}, nil
}

func (a *app) Close() error {
	return a.provider.Close()
}

func buildStore(cfg config.Config) (storage.Store, error) {
	if cfg.Storage.Container == "" {
		return nil, fmt.Errorf("storage.container is not configured (set it in %s or MEETINGPIPE_STORAGE_CONTAINER)", defaultConfigPath)
	}
	if cfg.Storage.ConnectionString != "" {
		return storage.NewBlobStoreFromConnectionString(cfg.Storage.ConnectionString, cfg.Storage.Container)
	}
	if cfg.Storage.AccountURL == "" {
		return nil, fmt.Errorf("storage.account_url is not configured (set it in %s or MEETINGPIPE_STORAGE_ACCOUNT_URL)", defaultConfigPath)
	}
	return storage.NewBlobStore(cfg.Storage.AccountURL, cfg.Storage.Container)
}

// mediaBaseURI is the public prefix the transcription provider downloads
// media from: the container URL plus a trailing slash.
func mediaBaseURI(cfg config.Config) string {
	base := strings.TrimRight(cfg.Storage.AccountURL, "/")
	return base + "/" + cfg.Storage.Container + "/"
}
