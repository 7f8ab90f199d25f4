// Package analysis orchestrates the full video analysis pipeline:
// audio extraction, concurrent transcription and diarization, speaker
// attribution, statistics, and per-speaker clip slicing.
package analysis

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/skillsenselab/speakerlab/attribution"
	"github.com/skillsenselab/speakerlab/diarization"
	apperrors "github.com/skillsenselab/speakerlab/errors"
	"github.com/skillsenselab/speakerlab/logger"
	"github.com/skillsenselab/speakerlab/media"
	"github.com/skillsenselab/speakerlab/observability"
	"github.com/skillsenselab/speakerlab/transcript"
	"github.com/skillsenselab/speakerlab/transcription"
)

// Status reports the outcome of an analysis run.
type Status string

const (
	// StatusCompleted means every pipeline stage succeeded.
	StatusCompleted Status = "completed"
	// StatusPartial means the core pipeline succeeded but a non-essential
	// stage (statistics, speaker clips) failed.
	StatusPartial Status = "partial"
)

// Result is the output of a full analysis run.
type Result struct {
	// Transcription is the speaker-labeled transcript.
	Transcription *transcript.Transcript `json:"transcription"`
	// Statistics summarizes speaker activity. Nil when aggregation failed;
	// AggregationError then carries the reason.
	Statistics *attribution.Statistics `json:"statistics,omitempty"`
	// AggregationError is set when statistics could not be computed. The
	// run still completes; the transcript is unaffected.
	AggregationError string `json:"aggregation_error,omitempty"`
	// SpeakerAudio maps speaker labels to per-speaker audio clips.
	SpeakerAudio transcript.SpeakerAudioMap `json:"speaker_audio,omitempty"`
	// TranscriptPath is where the transcript document was persisted.
	TranscriptPath string `json:"transcript_path,omitempty"`
	// Status is "completed" or "partial".
	Status Status `json:"status"`
	// Duration is the wall-clock pipeline duration.
	Duration time.Duration `json:"-"`
}

// Config holds pipeline tuning for the analysis service.
type Config struct {
	// OutputDir receives transcript documents and speaker clips.
	OutputDir string `mapstructure:"output_dir"`
	// TempDir receives intermediate WAV files. Empty means the system
	// temp directory.
	TempDir string `mapstructure:"temp_dir"`
	// MinChunkDuration is the per-speaker clip duration floor in seconds.
	MinChunkDuration float64 `mapstructure:"min_chunk_duration"`
	// AttributionMode selects strict or nearest-fallback assignment.
	AttributionMode attribution.Mode `mapstructure:"-"`
	// Language hints the transcription language.
	Language string `mapstructure:"language"`
	// Model names the transcription model.
	Model string `mapstructure:"model"`
	// SkipSpeakerClips disables per-speaker audio slicing.
	SkipSpeakerClips bool `mapstructure:"skip_speaker_clips"`
}

// ApplyDefaults fills zero values with working defaults.
func (c *Config) ApplyDefaults() {
	if c.OutputDir == "" {
		c.OutputDir = "output"
	}
	if c.MinChunkDuration <= 0 {
		c.MinChunkDuration = 30
	}
}

// Service runs the analysis pipeline against its collaborators.
type Service struct {
	cfg         Config
	transcriber transcription.Provider
	diarizer    diarization.Provider
	extractor   *media.Extractor
	slicer      *media.Slicer
	metrics     *observability.PipelineMetrics
	log         *logger.Logger
}

// NewService wires an analysis service. metrics may be nil.
func NewService(cfg Config, t transcription.Provider, d diarization.Provider, ex *media.Extractor, sl *media.Slicer, m *observability.PipelineMetrics, log *logger.Logger) *Service {
	cfg.ApplyDefaults()
	if log == nil {
		log = logger.NewDefault("speakerlab")
	}
	return &Service{
		cfg:         cfg,
		transcriber: t,
		diarizer:    d,
		extractor:   ex,
		slicer:      sl,
		metrics:     m,
		log:         log.WithComponent("analysis"),
	}
}

// ProcessVideo runs the full pipeline on a video file: extract mono WAV,
// transcribe and diarize concurrently, attribute speakers, persist the
// transcript, aggregate statistics, and slice per-speaker clips. The
// intermediate WAV is removed before returning.
func (s *Service) ProcessVideo(ctx context.Context, videoPath string) (*Result, error) {
	if err := media.CheckExtension(videoPath); err != nil {
		return nil, err
	}

	ctx, span := observability.StartSpan(ctx, "analysis.ProcessVideo")
	start := time.Now()
	var runErr error
	defer func() {
		observability.EndSpan(span, runErr)
		status := "failed"
		speakers, words := -1, -1
		if runErr == nil {
			status = "ok"
		}
		s.metrics.RecordRun(ctx, status, time.Since(start), speakers, words)
	}()

	audioPath, err := s.extractor.ExtractAudio(ctx, videoPath, s.cfg.TempDir)
	if err != nil {
		runErr = err
		return nil, err
	}
	defer func() {
		if rmErr := os.Remove(audioPath); rmErr != nil && !os.IsNotExist(rmErr) {
			s.log.Warn("failed to remove temp audio", logger.Fields(
				"path", audioPath,
				logger.FieldError, rmErr.Error(),
			))
		}
	}()

	res, err := s.ProcessAudio(ctx, audioPath, baseName(videoPath))
	runErr = err
	return res, err
}

// ProcessAudio runs the pipeline from an already-extracted audio file.
// name labels the persisted transcript document.
func (s *Service) ProcessAudio(ctx context.Context, audioPath, name string) (*Result, error) {
	start := time.Now()
	s.log.Info("analysis started", logger.Fields(
		"audio", audioPath,
		logger.FieldOperation, "process_audio",
	))

	var (
		tRes *transcription.Result
		dRes *diarization.Result
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		r, err := s.transcriber.Transcribe(gctx, transcription.Request{
			AudioPath:      audioPath,
			Language:       s.cfg.Language,
			Model:          s.cfg.Model,
			WordTimestamps: true,
		})
		if err != nil {
			return collaboratorErr("transcription", err)
		}
		tRes = r
		return nil
	})
	g.Go(func() error {
		r, err := s.diarizer.Diarize(gctx, diarization.Request{AudioPath: audioPath})
		if err != nil {
			return collaboratorErr("diarization", err)
		}
		dRes = r
		return nil
	})
	if err := g.Wait(); err != nil {
		if apperrors.IsAppError(err) {
			return nil, err
		}
		return nil, apperrors.Internal(err)
	}

	doc := &tRes.Transcript
	turns := attribution.SortTurns(dRes.Turns)
	attribution.Assign(turns, doc, s.cfg.AttributionMode)

	result := &Result{
		Transcription: doc,
		Status:        StatusCompleted,
	}

	docPath, err := s.saveTranscript(doc, name)
	if err != nil {
		return nil, err
	}
	result.TranscriptPath = docPath

	stats, err := attribution.Aggregate(doc, turns)
	if err != nil {
		aggErr := apperrors.AggregationFailed(err)
		s.log.Warn("statistics aggregation failed", logger.Fields(
			logger.FieldError, err.Error(),
		))
		result.AggregationError = aggErr.Message
		result.Status = StatusPartial
	} else {
		result.Statistics = stats
	}

	if !s.cfg.SkipSpeakerClips && s.slicer != nil {
		// The slicing stage consumes the persisted document, not the
		// in-memory transcript: the on-disk schema is the hand-off
		// contract between the two stages.
		spans, err := spansFromDocument(docPath, s.cfg.MinChunkDuration)
		if err == nil {
			clipDir := filepath.Join(s.cfg.OutputDir, name+"_speakers")
			var clips transcript.SpeakerAudioMap
			clips, err = s.slicer.WriteSpeakerClips(ctx, audioPath, spans, clipDir)
			if err == nil {
				result.SpeakerAudio = clips
			}
		}
		if err != nil {
			s.log.Warn("speaker clip slicing failed", logger.Fields(
				logger.FieldError, err.Error(),
			))
			result.Status = StatusPartial
		}
	}

	result.Duration = time.Since(start)
	speakers := 0
	if result.Statistics != nil {
		speakers = result.Statistics.TotalSpeakers
	}
	s.log.Info("analysis finished", logger.Fields(
		logger.FieldStatus, string(result.Status),
		logger.FieldDuration, result.Duration.Milliseconds(),
		"speakers", speakers,
	))
	return result, nil
}

func (s *Service) saveTranscript(doc *transcript.Transcript, name string) (string, error) {
	if err := os.MkdirAll(s.cfg.OutputDir, 0o755); err != nil {
		return "", apperrors.Internal(fmt.Errorf("creating output dir: %w", err))
	}
	path := filepath.Join(s.cfg.OutputDir, name+"_transcript.json")
	if err := transcript.Save(doc, path); err != nil {
		return "", err
	}
	return path, nil
}

// spansFromDocument reloads a persisted transcript document and selects
// the per-speaker spans to slice.
func spansFromDocument(path string, minChunkDuration float64) (map[string][]transcript.Word, error) {
	doc, err := transcript.Load(path)
	if err != nil {
		return nil, fmt.Errorf("reloading transcript document: %w", err)
	}
	return attribution.SelectChunks(attribution.MergeSpeakerWords(doc), minChunkDuration), nil
}

// collaboratorErr classifies a backend failure as a CollaboratorFailed
// AppError. Errors that already carry a classification pass through.
func collaboratorErr(service string, err error) error {
	if apperrors.IsAppError(err) {
		return err
	}
	return apperrors.CollaboratorFailed(service, err)
}

func baseName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
