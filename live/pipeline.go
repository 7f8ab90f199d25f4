// Package live implements the streaming capture pipeline: a Source feeds
// a bounded queue, a consumer re-cuts the stream into fixed-duration
// chunks, and a fixed worker pool transcribes the chunks that clear the
// silence gate. The pipeline shares no state with the batch attribution
// engine.
package live

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/skillsenselab/speakerlab/logger"
)

// EventType labels pipeline events.
type EventType string

const (
	// EventTranscript carries recognized text for one chunk.
	EventTranscript EventType = "transcript"
	// EventStatus carries lifecycle notices (started, stopped, errors).
	EventStatus EventType = "status"
)

// Event is one pipeline emission.
type Event struct {
	Type      EventType `json:"type"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Sink receives pipeline events. Publish must not block for long; a slow
// sink stalls the emitting worker.
type Sink interface {
	Publish(Event)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(Event)

func (f SinkFunc) Publish(e Event) { f(e) }

// Pipeline is the live capture pipeline. Create with NewPipeline, run
// with Start, request shutdown with Stop. A Pipeline runs at most once.
type Pipeline struct {
	cfg         Config
	source      Source
	transcriber ChunkTranscriber
	sink        Sink
	log         *logger.Logger

	queue chan []float32
	stop  chan struct{}
	done  chan struct{}

	mu      sync.Mutex
	started bool
	stopped bool
}

// NewPipeline assembles a pipeline. sink may be nil to discard events.
func NewPipeline(cfg Config, src Source, tr ChunkTranscriber, sink Sink, log *logger.Logger) (*Pipeline, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if sink == nil {
		sink = SinkFunc(func(Event) {})
	}
	if log == nil {
		log = logger.NewDefault("speakerlab")
	}
	return &Pipeline{
		cfg:         cfg,
		source:      src,
		transcriber: tr,
		sink:        sink,
		log:         log.WithComponent("live"),
		queue:       make(chan []float32, cfg.QueueSize),
		stop:        make(chan struct{}),
		done:        make(chan struct{}),
	}, nil
}

// Start launches the capture reader, the chunk consumer, and the worker
// pool, then blocks until the source is exhausted or Stop is called. It
// returns the source error, if any, once all workers have drained.
func (p *Pipeline) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return errors.New("live: pipeline already started")
	}
	p.started = true
	p.mu.Unlock()
	defer close(p.done)

	p.sink.Publish(Event{Type: EventStatus, Text: "started", Timestamp: time.Now()})
	p.log.Info("live pipeline started", logger.Fields(
		"sample_rate", p.cfg.SampleRate,
		"chunk_duration", p.cfg.ChunkDuration.String(),
		"workers", p.cfg.MaxWorkers,
	))

	chunks := make(chan []float32)
	var workers sync.WaitGroup
	for i := 0; i < p.cfg.MaxWorkers; i++ {
		workers.Add(1)
		go func() {
			defer workers.Done()
			for chunk := range chunks {
				p.processChunk(ctx, chunk)
			}
		}()
	}

	readErr := make(chan error, 1)
	go func() { readErr <- p.readLoop(ctx) }()

	err := p.consumeLoop(ctx, chunks)
	close(chunks)
	workers.Wait()

	if err == nil {
		select {
		case err = <-readErr:
		default:
		}
	}
	if errors.Is(err, io.EOF) {
		err = nil
	}

	p.sink.Publish(Event{Type: EventStatus, Text: "stopped", Timestamp: time.Now()})
	p.log.Info("live pipeline stopped")
	return err
}

// Stop requests a cooperative shutdown. It is safe to call more than
// once and from any goroutine; it returns once the pipeline has drained.
func (p *Pipeline) Stop() {
	p.mu.Lock()
	if !p.stopped {
		p.stopped = true
		close(p.stop)
	}
	started := p.started
	p.mu.Unlock()
	if started {
		<-p.done
	}
}

// readLoop pumps source blocks into the bounded queue. A full queue
// blocks the reader; that is the only backpressure in the pipeline.
func (p *Pipeline) readLoop(ctx context.Context) error {
	defer close(p.queue)
	defer p.source.Close()
	for {
		select {
		case <-p.stop:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		block, err := p.source.Read(ctx)
		if len(block) > 0 {
			select {
			case p.queue <- block:
			case <-p.stop:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if err != nil {
			return err
		}
	}
}

// consumeLoop accumulates queued blocks and cuts fixed-size chunks for
// the worker pool. Each queue wait is bounded by QueueTimeout so a stop
// request is observed even when the source goes quiet.
func (p *Pipeline) consumeLoop(ctx context.Context, chunks chan<- []float32) error {
	chunkSamples := p.cfg.chunkSamples()
	buffer := make([]float32, 0, chunkSamples*2)
	timer := time.NewTimer(p.cfg.QueueTimeout)
	defer timer.Stop()

	for {
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(p.cfg.QueueTimeout)

		select {
		case block, ok := <-p.queue:
			if !ok {
				return nil
			}
			buffer = append(buffer, block...)
			for len(buffer) >= chunkSamples {
				chunk := make([]float32, chunkSamples)
				copy(chunk, buffer[:chunkSamples])
				buffer = buffer[chunkSamples:]
				select {
				case chunks <- chunk:
				case <-p.stop:
					return nil
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		case <-timer.C:
			select {
			case <-p.stop:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
		}
	}
}

// processChunk gates silence, transcribes, and emits non-empty text.
func (p *Pipeline) processChunk(ctx context.Context, chunk []float32) {
	if meanAmplitude(chunk) <= p.cfg.SilenceThreshold {
		return
	}
	text, err := p.transcriber.TranscribeChunk(ctx, chunk, p.cfg.SampleRate)
	if err != nil {
		p.log.Warn("chunk transcription failed", logger.Fields(
			logger.FieldError, err.Error(),
		))
		return
	}
	if text = strings.TrimSpace(text); text == "" {
		return
	}
	p.sink.Publish(Event{Type: EventTranscript, Text: text, Timestamp: time.Now()})
	p.log.Debug("live transcript", logger.Fields("text", text))
}

func meanAmplitude(samples []float32) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		if s < 0 {
			sum -= float64(s)
		} else {
			sum += float64(s)
		}
	}
	return sum / float64(len(samples))
}
