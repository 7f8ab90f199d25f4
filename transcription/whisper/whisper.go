// Package whisper implements transcription.Provider against a faster-whisper
// HTTP sidecar with word-level timestamps enabled.
package whisper

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/skillsenselab/speakerlab/httpclient"
	"github.com/skillsenselab/speakerlab/transcript"
	"github.com/skillsenselab/speakerlab/transcription"
)

const (
	// ProviderName is the registered name for the whisper provider.
	ProviderName = "whisper"

	defaultBaseURL = "http://localhost:8387"
	defaultModel   = "small"
	defaultTimeout = 120 * time.Second
)

// Config holds configuration for the whisper transcription provider.
type Config struct {
	BaseURL     string        `yaml:"base_url" mapstructure:"base_url"`
	Model       string        `yaml:"model" mapstructure:"model"`
	Language    string        `yaml:"language,omitempty" mapstructure:"language"`
	Device      string        `yaml:"device,omitempty" mapstructure:"device"`
	ComputeType string        `yaml:"compute_type,omitempty" mapstructure:"compute_type"`
	BeamSize    int           `yaml:"beam_size" mapstructure:"beam_size"`
	Timeout     time.Duration `yaml:"timeout" mapstructure:"timeout"`
	// MaxRetries bounds retries of failed sidecar calls.
	MaxRetries uint `yaml:"max_retries" mapstructure:"max_retries"`
}

// ApplyDefaults sets sensible default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = defaultBaseURL
	}
	if c.Model == "" {
		c.Model = defaultModel
	}
	if c.BeamSize == 0 {
		c.BeamSize = 5
	}
	if c.Timeout == 0 {
		c.Timeout = defaultTimeout
	}
}

// Provider implements transcription.Provider using a faster-whisper HTTP sidecar.
type Provider struct {
	cfg    Config
	client *httpclient.Client
}

// NewProvider creates a new whisper transcription provider.
func NewProvider(cfg Config) *Provider {
	cfg.ApplyDefaults()
	return &Provider{
		cfg:    cfg,
		client: httpclient.New(httpclient.Config{Timeout: cfg.Timeout, MaxRetries: cfg.MaxRetries}),
	}
}

// Name returns the provider name.
func (p *Provider) Name() string { return ProviderName }

// IsAvailable checks if the whisper sidecar is reachable.
func (p *Provider) IsAvailable(ctx context.Context) bool {
	return p.client.Healthy(ctx, p.cfg.BaseURL+"/health")
}

// Transcribe sends audio to the whisper sidecar and returns the time-aligned
// transcript.
func (p *Provider) Transcribe(ctx context.Context, req transcription.Request) (*transcription.Result, error) {
	audioData, err := os.ReadFile(req.AudioPath)
	if err != nil {
		return nil, fmt.Errorf("read audio file: %w", err)
	}

	fields := map[string]string{
		"model":     p.modelFor(req),
		"beam_size": strconv.Itoa(p.cfg.BeamSize),
	}
	if req.WordTimestamps {
		fields["word_timestamps"] = "true"
	}
	language := req.Language
	if language == "" {
		language = p.cfg.Language
	}
	if language != "" {
		fields["language"] = language
	}
	if p.cfg.Device != "" {
		fields["device"] = p.cfg.Device
	}
	if p.cfg.ComputeType != "" {
		fields["compute_type"] = p.cfg.ComputeType
	}

	body := httpclient.MultipartBody{
		Fields: fields,
		Files: []httpclient.FileField{{
			FieldName:   "audio",
			FileName:    "audio.wav",
			ContentType: "audio/wav",
			Data:        audioData,
		}},
	}

	var resp sidecarResponse
	if err := p.client.PostMultipart(ctx, p.cfg.BaseURL+"/transcribe", body, &resp); err != nil {
		return nil, fmt.Errorf("transcription request: %w", err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("transcription error: %s", resp.Error)
	}
	return toResult(&resp), nil
}

func (p *Provider) modelFor(req transcription.Request) string {
	if req.Model != "" {
		return req.Model
	}
	return p.cfg.Model
}

// --- internal sidecar API types ---

type sidecarResponse struct {
	Segments []sidecarSegment `json:"segments"`
	Duration float64          `json:"duration,omitempty"`
	Language string           `json:"language,omitempty"`
	Error    string           `json:"error,omitempty"`
}

type sidecarSegment struct {
	Start float64       `json:"start"`
	End   float64       `json:"end"`
	Text  string        `json:"text"`
	Words []sidecarWord `json:"words,omitempty"`
}

type sidecarWord struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Word  string  `json:"word"`
}

func toResult(resp *sidecarResponse) *transcription.Result {
	segments := make([]transcript.Segment, len(resp.Segments))
	var text strings.Builder
	for i, seg := range resp.Segments {
		words := make([]transcript.Word, len(seg.Words))
		for j, w := range seg.Words {
			words[j] = transcript.Word{Start: w.Start, End: w.End, Word: w.Word}
		}
		segments[i] = transcript.Segment{
			Start: seg.Start,
			End:   seg.End,
			Text:  seg.Text,
			Words: words,
		}
		text.WriteString(seg.Text)
	}
	return &transcription.Result{
		Text:       text.String(),
		Transcript: transcript.Transcript{Segments: segments},
		Duration:   resp.Duration,
		Language:   resp.Language,
	}
}
