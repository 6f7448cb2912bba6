// Package config provides the Config struct and loader for .meetingpipe.yaml
// configuration files.
package config

import (
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Default values for pipeline configuration. These are the single source of
// truth — Default() references them and no other code should duplicate them.
const (
	DefaultInputPrefix  = "recordings/"
	DefaultOutputPrefix = "output/"

	DefaultMaxFileSizeMB      = 500
	DefaultMaxTranscriptChars = 50000
	DefaultTruncationMarker   = "…(以下省略)"

	DefaultLanguage    = "ja-JP"
	DefaultMaxSpeakers = 10

	DefaultPollIntervalSec = 20
	DefaultMinWaitSec      = 60
	DefaultMaxWaitSec      = 600
	DefaultSafetyMarginSec = 60
	DefaultBudgetFloorSec  = 30

	DefaultPrimaryModel = "claude-sonnet-4.6"

	DefaultWorkers = 1
)

// DefaultExtensions is the audio extension allow-list. The .mp4 and .mov
// entries are video containers accepted purely as audio carriers.
var DefaultExtensions = []string{".mp3", ".wav", ".m4a", ".flac", ".ogg", ".mp4", ".mov"}

// DefaultFallbackModels are tried in order after the primary model fails.
var DefaultFallbackModels = []string{"gpt-4o", "gpt-4o-mini"}

// StorageConfig locates the artifact container.
type StorageConfig struct {
	AccountURL string `yaml:"account_url,omitempty"`
	Container  string `yaml:"container,omitempty"`

	// ConnectionString is only read from the environment, never persisted.
	ConnectionString string `yaml:"-"`
}

// TranscribeConfig points at the speech-to-text job service.
type TranscribeConfig struct {
	Endpoint    string `yaml:"endpoint,omitempty"`
	Language    string `yaml:"language,omitempty"`
	MaxSpeakers int    `yaml:"max_speakers,omitempty"`

	// APIKey is only read from the environment, never persisted.
	APIKey string `yaml:"-"`
}

// ModelsConfig holds the ordered completion-model fallback list.
type ModelsConfig struct {
	Primary   string   `yaml:"primary,omitempty"`
	Fallbacks []string `yaml:"fallbacks,omitempty"`
}

// LimitsConfig holds size and timing limits.
type LimitsConfig struct {
	MaxFileSizeMB      int `yaml:"max_file_size_mb,omitempty"`
	MaxTranscriptChars int `yaml:"max_transcript_chars,omitempty"`
	PollIntervalSec    int `yaml:"poll_interval_sec,omitempty"`
	MinWaitSec         int `yaml:"min_wait_sec,omitempty"`
	MaxWaitSec         int `yaml:"max_wait_sec,omitempty"`
	SafetyMarginSec    int `yaml:"safety_margin_sec,omitempty"`
	BudgetFloorSec     int `yaml:"budget_floor_sec,omitempty"`
}

// PipelineConfig holds input selection and output layout settings.
type PipelineConfig struct {
	InputPrefix  string   `yaml:"input_prefix,omitempty"`
	OutputPrefix string   `yaml:"output_prefix,omitempty"`
	Extensions   []string `yaml:"extensions,omitempty"`
	Workers      int      `yaml:"workers,omitempty"`
}

// Config is the top-level configuration loaded from .meetingpipe.yaml.
type Config struct {
	Storage    StorageConfig    `yaml:"storage,omitempty"`
	Transcribe TranscribeConfig `yaml:"transcribe,omitempty"`
	Models     ModelsConfig     `yaml:"models,omitempty"`
	Limits     LimitsConfig     `yaml:"limits,omitempty"`
	Pipeline   PipelineConfig   `yaml:"pipeline,omitempty"`
}

// Default returns a Config populated with every default value.
func Default() Config {
	return Config{
		Transcribe: TranscribeConfig{
			Language:    DefaultLanguage,
			MaxSpeakers: DefaultMaxSpeakers,
		},
		Models: ModelsConfig{
			Primary:   DefaultPrimaryModel,
			Fallbacks: slices.Clone(DefaultFallbackModels),
		},
		Limits: LimitsConfig{
			MaxFileSizeMB:      DefaultMaxFileSizeMB,
			MaxTranscriptChars: DefaultMaxTranscriptChars,
			PollIntervalSec:    DefaultPollIntervalSec,
			MinWaitSec:         DefaultMinWaitSec,
			MaxWaitSec:         DefaultMaxWaitSec,
			SafetyMarginSec:    DefaultSafetyMarginSec,
			BudgetFloorSec:     DefaultBudgetFloorSec,
		},
		Pipeline: PipelineConfig{
			InputPrefix:  DefaultInputPrefix,
			OutputPrefix: DefaultOutputPrefix,
			Extensions:   slices.Clone(DefaultExtensions),
			Workers:      DefaultWorkers,
		},
	}
}

// Load reads path (if it exists) over the defaults, then applies
// MEETINGPIPE_* environment overrides, then validates. A missing file is not
// an error; secrets only ever come from the environment.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// defaults + env only
	case err != nil:
		return Config{}, fmt.Errorf("reading config %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	setIfEnv := func(dst *string, name string) {
		if v := os.Getenv(name); v != "" {
			*dst = v
		}
	}
	setIfEnv(&cfg.Storage.AccountURL, "MEETINGPIPE_STORAGE_ACCOUNT_URL")
	setIfEnv(&cfg.Storage.Container, "MEETINGPIPE_STORAGE_CONTAINER")
	setIfEnv(&cfg.Storage.ConnectionString, "MEETINGPIPE_STORAGE_CONNECTION_STRING")
	setIfEnv(&cfg.Transcribe.Endpoint, "MEETINGPIPE_TRANSCRIBE_ENDPOINT")
	setIfEnv(&cfg.Transcribe.APIKey, "MEETINGPIPE_TRANSCRIBE_API_KEY")
	setIfEnv(&cfg.Models.Primary, "MEETINGPIPE_PRIMARY_MODEL")
}

// Validate checks internal consistency. Endpoint/storage fields are checked
// at wiring time, not here, so offline commands can still load a config.
func (c Config) Validate() error {
	if c.Models.Primary == "" {
		return fmt.Errorf("config: models.primary must not be empty")
	}
	if c.Limits.PollIntervalSec <= 0 {
		return fmt.Errorf("config: limits.poll_interval_sec must be positive")
	}
	if c.Limits.MinWaitSec > c.Limits.MaxWaitSec {
		return fmt.Errorf("config: limits.min_wait_sec (%d) exceeds max_wait_sec (%d)",
			c.Limits.MinWaitSec, c.Limits.MaxWaitSec)
	}
	if c.Limits.MaxFileSizeMB <= 0 {
		return fmt.Errorf("config: limits.max_file_size_mb must be positive")
	}
	if len(c.Pipeline.Extensions) == 0 {
		return fmt.Errorf("config: pipeline.extensions must not be empty")
	}
	for _, ext := range c.Pipeline.Extensions {
		if !strings.HasPrefix(ext, ".") {
			return fmt.Errorf("config: extension %q must start with a dot", ext)
		}
	}
	if c.Pipeline.Workers < 1 {
		return fmt.Errorf("config: pipeline.workers must be at least 1")
	}
	return nil
}

// Save writes the config as yaml to path. Secrets are excluded by tag.
func (c Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config %s: %w", path, err)
	}
	return nil
}

// ModelList returns the primary model followed by the fallbacks, in order.
func (c Config) ModelList() []string {
	return append([]string{c.Models.Primary}, c.Models.Fallbacks...)
}

// ExtensionAllowed reports whether ext (with dot, any case) is accepted.
func (c Config) ExtensionAllowed(ext string) bool {
	ext = strings.ToLower(ext)
	return slices.Contains(c.Pipeline.Extensions, ext)
}

// MaxFileSizeBytes returns the size limit in bytes.
func (c Config) MaxFileSizeBytes() int64 {
	return int64(c.Limits.MaxFileSizeMB) * 1024 * 1024
}

// PollInterval returns the poll interval as a duration.
func (c Config) PollInterval() time.Duration {
	return time.Duration(c.Limits.PollIntervalSec) * time.Second
}
