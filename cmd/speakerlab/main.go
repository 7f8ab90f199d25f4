// Command speakerlab runs the speaker-attribution service: an HTTP API
// that ingests video (or a live audio stream), transcribes and diarizes
// it through model sidecars, fuses the two timelines into a
// speaker-labeled transcript, and emits per-speaker statistics and
// audio clips.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/skillsenselab/speakerlab/analysis"
	"github.com/skillsenselab/speakerlab/config"
	"github.com/skillsenselab/speakerlab/diarization/pyannote"
	"github.com/skillsenselab/speakerlab/live"
	"github.com/skillsenselab/speakerlab/logger"
	"github.com/skillsenselab/speakerlab/media"
	"github.com/skillsenselab/speakerlab/observability"
	"github.com/skillsenselab/speakerlab/server"
	"github.com/skillsenselab/speakerlab/server/endpoint"
	"github.com/skillsenselab/speakerlab/sse"
	"github.com/skillsenselab/speakerlab/transcription/whisper"
	"github.com/skillsenselab/speakerlab/version"
)

func main() {
	app, err := config.Load()
	if err != nil {
		logger.Init(logger.Config{})
		logger.Fatal("failed to load configuration", logger.Fields(
			logger.FieldError, err.Error(),
		))
	}

	logger.Init(app.Logging)
	log := logger.New(&app.Logging, app.Name)
	log.Info("starting", logger.Fields(
		"version", version.Short(),
		"environment", app.Environment,
	))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var metrics *observability.PipelineMetrics
	if app.Observability.Enabled {
		tp, err := observability.InitTracer(ctx, app.Observability)
		if err != nil {
			log.Fatal("failed to init tracer", logger.Fields(logger.FieldError, err.Error()))
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = tp.Shutdown(shutdownCtx)
		}()

		mp, err := observability.InitMeter(ctx, app.Observability)
		if err != nil {
			log.Fatal("failed to init meter", logger.Fields(logger.FieldError, err.Error()))
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = mp.Shutdown(shutdownCtx)
		}()

		metrics, err = observability.NewPipelineMetrics()
		if err != nil {
			log.Fatal("failed to create metrics", logger.Fields(logger.FieldError, err.Error()))
		}
	}

	transcriber := whisper.NewProvider(app.Whisper)
	diarizer := pyannote.NewProvider(app.Pyannote)
	extractor := media.NewExtractor("", 0)
	slicer := media.NewSlicer("", 0)

	app.Analysis.AttributionMode = app.AttributionMode()
	app.Analysis.Language = app.Whisper.Language
	app.Analysis.Model = app.Whisper.Model
	service := analysis.NewService(app.Analysis, transcriber, diarizer, extractor, slicer, metrics, log)

	var (
		hub     *sse.Hub
		liveMgr *live.Manager
	)
	if app.LiveEnabled {
		hub = sse.NewHub()
		go hub.Run()
		defer hub.Stop()

		liveMgr = live.NewManager(
			app.Live,
			live.FileSourceFactory(app.Live.InputPath),
			live.NewProviderTranscriber(transcriber, app.Whisper.Language, app.Whisper.Model, app.Analysis.TempDir),
			sse.NewLiveSink(hub, "live"),
			log,
		)
		defer liveMgr.Stop()
	}

	srv := server.New(app.Server, log)
	srv.ApplyMiddleware()
	srv.RegisterHealth(app.Name, collaboratorChecker(transcriber, diarizer))

	handler := server.NewHandler(service, liveMgr, hub, app.Analysis.TempDir, log)
	handler.Register(srv.GinEngine())

	if err := srv.Start(ctx); err != nil {
		log.Fatal("failed to start server", logger.Fields(logger.FieldError, err.Error()))
	}

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		log.Error("shutdown error", logger.Fields(logger.FieldError, err.Error()))
	}
}

func collaboratorChecker(t *whisper.Provider, d *pyannote.Provider) endpoint.HealthChecker {
	return func(ctx context.Context) []endpoint.CollaboratorStatus {
		return []endpoint.CollaboratorStatus{
			{Name: t.Name(), Available: t.IsAvailable(ctx)},
			{Name: d.Name(), Available: d.IsAvailable(ctx)},
		}
	}
}
