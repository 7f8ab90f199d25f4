package config

import (
	"fmt"

	"github.com/skillsenselab/speakerlab/analysis"
	"github.com/skillsenselab/speakerlab/attribution"
	"github.com/skillsenselab/speakerlab/diarization/pyannote"
	"github.com/skillsenselab/speakerlab/live"
	"github.com/skillsenselab/speakerlab/logger"
	"github.com/skillsenselab/speakerlab/observability"
	"github.com/skillsenselab/speakerlab/server"
	"github.com/skillsenselab/speakerlab/transcription/whisper"
	"github.com/skillsenselab/speakerlab/validation"
)

// AttributionConfig selects how unmatched transcript spans are labeled.
type AttributionConfig struct {
	// Mode is "strict" (unmatched spans stay unlabeled) or "nearest"
	// (fall back to the temporally closest turn).
	Mode string `yaml:"mode" mapstructure:"mode"`
}

// App is the complete service configuration.
type App struct {
	Name        string `yaml:"name" mapstructure:"name"`
	Environment string `yaml:"environment" mapstructure:"environment"`
	Version     string `yaml:"version" mapstructure:"version"`
	Debug       bool   `yaml:"debug" mapstructure:"debug"`

	Logging       logger.Config        `yaml:"logging" mapstructure:"logging"`
	Server        server.Config        `yaml:"server" mapstructure:"server"`
	Whisper       whisper.Config       `yaml:"whisper" mapstructure:"whisper"`
	Pyannote      pyannote.Config      `yaml:"pyannote" mapstructure:"pyannote"`
	Attribution   AttributionConfig    `yaml:"attribution" mapstructure:"attribution"`
	Analysis      analysis.Config      `yaml:"analysis" mapstructure:"analysis"`
	Live          live.Config          `yaml:"live" mapstructure:"live"`
	LiveEnabled   bool                 `yaml:"live_enabled" mapstructure:"live_enabled"`
	Observability observability.Config `yaml:"observability" mapstructure:"observability"`
}

// Load reads the full app configuration and applies defaults.
func Load(opts ...LoaderOption) (*App, error) {
	var app App
	if err := LoadConfig("speakerlab", &app, opts...); err != nil {
		return nil, err
	}
	app.ApplyDefaults()
	if err := app.Validate(); err != nil {
		return nil, err
	}
	return &app, nil
}

// ApplyDefaults fills zero values across all sections.
func (a *App) ApplyDefaults() {
	if a.Name == "" {
		a.Name = "speakerlab"
	}
	if a.Environment == "" {
		a.Environment = "development"
	}
	if a.Environment == "development" {
		a.Debug = true
	}
	if a.Attribution.Mode == "" {
		a.Attribution.Mode = "strict"
	}
	a.Logging.ApplyDefaults()
	a.Server.ApplyDefaults()
	a.Whisper.ApplyDefaults()
	a.Pyannote.ApplyDefaults()
	a.Analysis.ApplyDefaults()
	a.Live.ApplyDefaults()
	a.Observability.ApplyDefaults()
	if a.Observability.ServiceName == "" || a.Observability.ServiceName == "speakerlab" {
		a.Observability.ServiceName = a.Name
	}
	if a.Environment != "" {
		a.Observability.Environment = a.Environment
	}
	if a.Version != "" {
		a.Observability.ServiceVersion = a.Version
	}
}

// Validate checks the configuration across all sections.
func (a *App) Validate() error {
	v := validation.New().
		Required("name", a.Name).
		OneOf("environment", a.Environment, []string{"development", "staging", "production"}).
		OneOf("attribution.mode", a.Attribution.Mode, []string{"strict", "nearest"}).
		Positive("analysis.min_chunk_duration", a.Analysis.MinChunkDuration).
		Required("whisper.base_url", a.Whisper.BaseURL).
		Required("pyannote.base_url", a.Pyannote.BaseURL)
	if appErr := v.Validate(); appErr != nil {
		return appErr
	}
	if err := a.Logging.Validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	if err := a.Server.Validate(); err != nil {
		return err
	}
	if a.LiveEnabled {
		if err := a.Live.Validate(); err != nil {
			return err
		}
		if err := validation.Required("live.input_path", a.Live.InputPath); err != nil {
			return err
		}
	}
	return nil
}

// AttributionMode maps the configured mode name onto the engine mode.
func (a *App) AttributionMode() attribution.Mode {
	if a.Attribution.Mode == "nearest" {
		return attribution.ModeNearestFallback
	}
	return attribution.ModeStrict
}
