package live

import (
	"fmt"
	"time"
)

// Config tunes the live capture pipeline. Zero values are filled by
// ApplyDefaults; the pipeline never consults ambient configuration.
type Config struct {
	// SampleRate is the capture sample rate in Hz.
	SampleRate int `mapstructure:"sample_rate"`
	// ChunkDuration is the length of audio handed to each transcription
	// worker.
	ChunkDuration time.Duration `mapstructure:"chunk_duration"`
	// Channels is the capture channel count. Only mono is processed.
	Channels int `mapstructure:"channels"`
	// MaxWorkers is the fixed transcription worker pool size.
	MaxWorkers int `mapstructure:"max_workers"`
	// SilenceThreshold is the mean-amplitude floor below which a chunk is
	// dropped without transcription.
	SilenceThreshold float64 `mapstructure:"silence_threshold"`
	// QueueTimeout bounds each wait on the capture queue so the consumer
	// can observe a stop request.
	QueueTimeout time.Duration `mapstructure:"queue_timeout"`
	// QueueSize bounds the capture queue. A full queue blocks the source
	// reader; there is no drop policy beyond that.
	QueueSize int `mapstructure:"queue_size"`
	// InputPath is a raw s16le PCM file or FIFO to capture from, e.g. a
	// pipe fed by "ffmpeg -f pulse -i default -f s16le -ac 1 -ar 16000".
	InputPath string `mapstructure:"input_path"`
}

// ApplyDefaults fills zero values with the documented defaults.
func (c *Config) ApplyDefaults() {
	if c.SampleRate <= 0 {
		c.SampleRate = 16000
	}
	if c.ChunkDuration <= 0 {
		c.ChunkDuration = 4 * time.Second
	}
	if c.Channels <= 0 {
		c.Channels = 1
	}
	if c.MaxWorkers <= 0 {
		c.MaxWorkers = 4
	}
	if c.SilenceThreshold <= 0 {
		c.SilenceThreshold = 0.001
	}
	if c.QueueTimeout <= 0 {
		c.QueueTimeout = time.Second
	}
	if c.QueueSize <= 0 {
		c.QueueSize = 32
	}
}

// Validate reports configuration errors after defaults are applied.
func (c *Config) Validate() error {
	if c.Channels != 1 {
		return fmt.Errorf("live: only mono capture is supported, got %d channels", c.Channels)
	}
	if c.SampleRate < 8000 {
		return fmt.Errorf("live: sample rate %d is below 8000 Hz", c.SampleRate)
	}
	return nil
}

// chunkSamples is the number of samples per transcription chunk.
func (c *Config) chunkSamples() int {
	return int(float64(c.SampleRate) * c.ChunkDuration.Seconds())
}
