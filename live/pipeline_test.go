package live

import (
	"bytes"
	"context"
	"encoding/binary"
	"io"
	"sync"
	"testing"
	"time"
)

type recordingTranscriber struct {
	mu     sync.Mutex
	chunks [][]float32
	text   string
	err    error
}

func (r *recordingTranscriber) TranscribeChunk(ctx context.Context, samples []float32, sampleRate int) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := make([]float32, len(samples))
	copy(cp, samples)
	r.chunks = append(r.chunks, cp)
	return r.text, r.err
}

func (r *recordingTranscriber) seen() [][]float32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][]float32(nil), r.chunks...)
}

type collectingSink struct {
	mu     sync.Mutex
	events []Event
}

func (c *collectingSink) Publish(e Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
}

func (c *collectingSink) byType(t EventType) []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []Event
	for _, e := range c.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

// loudBlock returns n samples well above the default silence threshold.
func loudBlock(n int) []float32 {
	b := make([]float32, n)
	for i := range b {
		b[i] = 0.5
	}
	return b
}

func testConfig() Config {
	return Config{
		SampleRate:    100,
		ChunkDuration: time.Second, // 100 samples per chunk
		QueueTimeout:  10 * time.Millisecond,
	}
}

func TestPipelineCutsFixedChunks(t *testing.T) {
	src := NewSliceSource(loudBlock(70), loudBlock(70), loudBlock(70))
	tr := &recordingTranscriber{text: "hi"}
	p, err := NewPipeline(testConfig(), src, tr, nil, nil)
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}
	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	chunks := tr.seen()
	if len(chunks) != 2 {
		t.Fatalf("transcribed %d chunks, want 2 (210 samples / 100 per chunk)", len(chunks))
	}
	for i, c := range chunks {
		if len(c) != 100 {
			t.Errorf("chunk %d has %d samples, want 100", i, len(c))
		}
	}
}

func TestPipelineSilenceGate(t *testing.T) {
	quiet := make([]float32, 100)
	src := NewSliceSource(quiet, loudBlock(100))
	tr := &recordingTranscriber{text: "speech"}
	p, err := NewPipeline(testConfig(), src, tr, nil, nil)
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}
	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if got := len(tr.seen()); got != 1 {
		t.Errorf("transcribed %d chunks, want 1 (silent chunk gated)", got)
	}
}

func TestPipelineEmitsTranscriptEvents(t *testing.T) {
	src := NewSliceSource(loudBlock(100))
	sink := &collectingSink{}
	p, err := NewPipeline(testConfig(), src, &recordingTranscriber{text: " hello world "}, sink, nil)
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}
	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	transcripts := sink.byType(EventTranscript)
	if len(transcripts) != 1 {
		t.Fatalf("got %d transcript events, want 1", len(transcripts))
	}
	if transcripts[0].Text != "hello world" {
		t.Errorf("event text = %q, want %q", transcripts[0].Text, "hello world")
	}
	statuses := sink.byType(EventStatus)
	if len(statuses) != 2 {
		t.Fatalf("got %d status events, want started+stopped", len(statuses))
	}
	if statuses[0].Text != "started" || statuses[1].Text != "stopped" {
		t.Errorf("status sequence = %q, %q", statuses[0].Text, statuses[1].Text)
	}
}

func TestPipelineEmptyTranscriptDropped(t *testing.T) {
	src := NewSliceSource(loudBlock(100))
	sink := &collectingSink{}
	p, err := NewPipeline(testConfig(), src, &recordingTranscriber{text: "   "}, sink, nil)
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}
	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if got := sink.byType(EventTranscript); len(got) != 0 {
		t.Errorf("got %d transcript events, want 0 for blank text", len(got))
	}
}

// blockingSource never returns data until its context is cancelled or the
// pipeline stops reading.
type blockingSource struct{}

func (blockingSource) Read(ctx context.Context) ([]float32, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}
func (blockingSource) Close() error { return nil }

func TestPipelineStop(t *testing.T) {
	p, err := NewPipeline(testConfig(), blockingSource{}, &recordingTranscriber{}, nil, nil)
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- p.Start(context.Background()) }()

	time.Sleep(30 * time.Millisecond)
	p.Stop()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Start returned %v after Stop, want nil", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("pipeline did not stop")
	}
}

func TestPipelineStartTwice(t *testing.T) {
	p, err := NewPipeline(testConfig(), NewSliceSource(), &recordingTranscriber{}, nil, nil)
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}
	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("first Start: %v", err)
	}
	if err := p.Start(context.Background()); err == nil {
		t.Fatal("second Start should fail")
	}
}

func TestConfigDefaults(t *testing.T) {
	var c Config
	c.ApplyDefaults()
	if c.SampleRate != 16000 {
		t.Errorf("SampleRate = %d, want 16000", c.SampleRate)
	}
	if c.ChunkDuration != 4*time.Second {
		t.Errorf("ChunkDuration = %v, want 4s", c.ChunkDuration)
	}
	if c.Channels != 1 {
		t.Errorf("Channels = %d, want 1", c.Channels)
	}
	if c.MaxWorkers != 4 {
		t.Errorf("MaxWorkers = %d, want 4", c.MaxWorkers)
	}
	if c.SilenceThreshold != 0.001 {
		t.Errorf("SilenceThreshold = %v, want 0.001", c.SilenceThreshold)
	}
	if c.QueueTimeout != time.Second {
		t.Errorf("QueueTimeout = %v, want 1s", c.QueueTimeout)
	}
	if c.chunkSamples() != 64000 {
		t.Errorf("chunkSamples = %d, want 64000", c.chunkSamples())
	}
}

func TestConfigValidateRejectsStereo(t *testing.T) {
	c := Config{Channels: 2}
	c.ApplyDefaults()
	if err := c.Validate(); err == nil {
		t.Fatal("expected error for stereo capture")
	}
}

func TestMeanAmplitude(t *testing.T) {
	tests := []struct {
		name    string
		samples []float32
		want    float64
	}{
		{"empty", nil, 0},
		{"silence", make([]float32, 4), 0},
		{"mixed signs", []float32{0.5, -0.5, 0.5, -0.5}, 0.5},
		{"quiet", []float32{0.0005, -0.0005}, 0.0005},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := meanAmplitude(tt.samples); got != tt.want {
				t.Errorf("meanAmplitude = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEncodeWAV(t *testing.T) {
	samples := []float32{0, 0.5, -0.5, 1, -1}
	b := encodeWAV(samples, 16000)

	if got := string(b[0:4]); got != "RIFF" {
		t.Fatalf("header = %q, want RIFF", got)
	}
	if got := string(b[8:12]); got != "WAVE" {
		t.Fatalf("format = %q, want WAVE", got)
	}
	if got := binary.LittleEndian.Uint32(b[24:]); got != 16000 {
		t.Errorf("sample rate = %d, want 16000", got)
	}
	if got := binary.LittleEndian.Uint32(b[40:]); got != uint32(len(samples)*2) {
		t.Errorf("data size = %d, want %d", got, len(samples)*2)
	}
	first := int16(binary.LittleEndian.Uint16(b[44:]))
	if first != 0 {
		t.Errorf("first sample = %d, want 0", first)
	}
	last := int16(binary.LittleEndian.Uint16(b[44+8:]))
	if last != -32768 {
		t.Errorf("last sample = %d, want -32768 (clamped)", last)
	}
}

func TestReaderSource(t *testing.T) {
	raw := make([]byte, 8)
	binary.LittleEndian.PutUint16(raw[0:], uint16(int16(0)))
	binary.LittleEndian.PutUint16(raw[2:], uint16(int16(16384)))
	negSample := int16(-16384)
	binary.LittleEndian.PutUint16(raw[4:], uint16(negSample))
	binary.LittleEndian.PutUint16(raw[6:], uint16(int16(32767)))

	src := NewReaderSource(io.NopCloser(bytes.NewReader(raw)), 4)
	block, err := src.Read(context.Background())
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	want := []float32{0, 0.5, -0.5, 32767.0 / 32768}
	if len(block) != len(want) {
		t.Fatalf("got %d samples, want %d", len(block), len(want))
	}
	for i := range want {
		if block[i] != want[i] {
			t.Errorf("sample %d = %v, want %v", i, block[i], want[i])
		}
	}

	if _, err := src.Read(context.Background()); err != io.EOF {
		t.Errorf("second Read err = %v, want io.EOF", err)
	}
}
