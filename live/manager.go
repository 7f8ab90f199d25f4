package live

import (
	"context"
	"errors"
	"os"
	"sync"

	"github.com/skillsenselab/speakerlab/logger"
)

// SourceFactory opens a fresh capture source for each pipeline run.
type SourceFactory func(ctx context.Context) (Source, error)

// FileSourceFactory captures from a raw s16le PCM file or FIFO, such as
// a pipe fed by ffmpeg reading the system microphone.
func FileSourceFactory(path string) SourceFactory {
	return func(ctx context.Context) (Source, error) {
		if path == "" {
			return nil, errors.New("live: input_path not configured")
		}
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		return NewReaderSource(f, 0), nil
	}
}

// Manager owns the lifecycle of at most one running pipeline. HTTP
// handlers call Start and Stop; the pipeline itself runs in a
// background goroutine.
type Manager struct {
	cfg         Config
	sources     SourceFactory
	transcriber ChunkTranscriber
	sink        Sink
	log         *logger.Logger

	mu       sync.Mutex
	pipeline *Pipeline
	cancel   context.CancelFunc
}

// NewManager assembles a manager. sink may be nil.
func NewManager(cfg Config, sources SourceFactory, tr ChunkTranscriber, sink Sink, log *logger.Logger) *Manager {
	cfg.ApplyDefaults()
	if log == nil {
		log = logger.NewDefault("speakerlab")
	}
	return &Manager{
		cfg:         cfg,
		sources:     sources,
		transcriber: tr,
		sink:        sink,
		log:         log.WithComponent("live"),
	}
}

// ErrAlreadyRunning is returned by Start when a pipeline is active.
var ErrAlreadyRunning = errors.New("live: capture already running")

// ErrNotRunning is returned by Stop when no pipeline is active.
var ErrNotRunning = errors.New("live: capture not running")

// Start opens a source and launches a pipeline in the background.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pipeline != nil {
		return ErrAlreadyRunning
	}

	src, err := m.sources(ctx)
	if err != nil {
		return err
	}
	p, err := NewPipeline(m.cfg, src, m.transcriber, m.sink, m.log)
	if err != nil {
		src.Close()
		return err
	}

	runCtx, cancel := context.WithCancel(context.Background())
	m.pipeline = p
	m.cancel = cancel

	go func() {
		if err := p.Start(runCtx); err != nil {
			m.log.Error("live pipeline exited with error", logger.Fields(
				logger.FieldError, err.Error(),
			))
		}
		m.mu.Lock()
		if m.pipeline == p {
			m.pipeline = nil
			m.cancel = nil
		}
		m.mu.Unlock()
		cancel()
	}()
	return nil
}

// Stop requests a cooperative shutdown and waits for the pipeline to
// drain.
func (m *Manager) Stop() error {
	m.mu.Lock()
	p := m.pipeline
	m.mu.Unlock()
	if p == nil {
		return ErrNotRunning
	}
	p.Stop()
	return nil
}

// Running reports whether a pipeline is active.
func (m *Manager) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pipeline != nil
}
