// Package pyannote implements diarization.Provider against a pyannote HTTP
// sidecar serving the speaker-diarization pipeline.
package pyannote

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/skillsenselab/speakerlab/diarization"
	"github.com/skillsenselab/speakerlab/httpclient"
)

const (
	// ProviderName is the registered name for the pyannote provider.
	ProviderName = "pyannote"

	defaultBaseURL = "http://localhost:8388"
	defaultTimeout = 300 * time.Second
)

// Config holds configuration for the pyannote diarization provider.
type Config struct {
	BaseURL string        `yaml:"base_url" mapstructure:"base_url"`
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
	// MaxRetries bounds retries of failed sidecar calls. Retries live here at
	// the collaborator boundary, never inside the attribution core.
	MaxRetries uint `yaml:"max_retries" mapstructure:"max_retries"`
}

// ApplyDefaults sets sensible default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = defaultBaseURL
	}
	if c.Timeout == 0 {
		c.Timeout = defaultTimeout
	}
}

// Provider implements diarization.Provider using the pyannote HTTP sidecar.
type Provider struct {
	cfg    Config
	client *httpclient.Client
}

// NewProvider creates a new pyannote diarization provider.
func NewProvider(cfg Config) *Provider {
	cfg.ApplyDefaults()
	return &Provider{
		cfg:    cfg,
		client: httpclient.New(httpclient.Config{Timeout: cfg.Timeout, MaxRetries: cfg.MaxRetries}),
	}
}

// Name returns the provider name.
func (p *Provider) Name() string { return ProviderName }

// IsAvailable checks if the pyannote sidecar is reachable.
func (p *Provider) IsAvailable(ctx context.Context) bool {
	return p.client.Healthy(ctx, p.cfg.BaseURL+"/health")
}

// Diarize sends audio to the pyannote sidecar and returns the speaker turns.
func (p *Provider) Diarize(ctx context.Context, req diarization.Request) (*diarization.Result, error) {
	audioData, err := os.ReadFile(req.AudioPath)
	if err != nil {
		return nil, fmt.Errorf("read audio file: %w", err)
	}

	fields := map[string]string{}
	if req.NumSpeakers > 0 {
		fields["num_speakers"] = strconv.Itoa(req.NumSpeakers)
	}
	if req.MinSpeakers > 0 {
		fields["min_speakers"] = strconv.Itoa(req.MinSpeakers)
	}
	if req.MaxSpeakers > 0 {
		fields["max_speakers"] = strconv.Itoa(req.MaxSpeakers)
	}
	if req.Language != "" {
		fields["language"] = req.Language
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
	if err := p.client.PostMultipart(ctx, p.cfg.BaseURL+"/diarize", body, &resp); err != nil {
		return nil, fmt.Errorf("diarization request: %w", err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("diarization error: %s", resp.Error)
	}
	return toResult(&resp), nil
}

// --- internal sidecar API types ---

type sidecarResponse struct {
	Segments    []sidecarSegment `json:"segments"`
	NumSpeakers int              `json:"num_speakers"`
	Error       string           `json:"error,omitempty"`
}

type sidecarSegment struct {
	Speaker string  `json:"speaker"`
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
}

func toResult(resp *sidecarResponse) *diarization.Result {
	turns := make([]diarization.Turn, len(resp.Segments))
	for i, seg := range resp.Segments {
		turns[i] = diarization.Turn{
			Speaker: seg.Speaker,
			Start:   seg.Start,
			End:     seg.End,
		}
	}
	return &diarization.Result{
		Turns:       turns,
		NumSpeakers: resp.NumSpeakers,
	}
}
