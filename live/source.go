package live

import (
	"context"
	"encoding/binary"
	"io"
)

// Source produces PCM audio chunks for the live pipeline. Implementations
// return io.EOF when the stream ends. Real microphone capture is an
// implementation detail left to callers; the pipeline only sees samples.
type Source interface {
	// Read returns the next block of mono float32 samples in [-1, 1].
	// Block sizes may vary; the pipeline re-cuts them into fixed chunks.
	Read(ctx context.Context) ([]float32, error)
	// Close releases the capture device or underlying stream.
	Close() error
}

// ReaderSource adapts a raw signed 16-bit little-endian PCM stream (for
// example the stdout of "ffmpeg -f s16le -ac 1") into a Source.
type ReaderSource struct {
	r         io.ReadCloser
	blockSize int
	buf       []byte
}

// NewReaderSource wraps r. blockSamples is how many samples each Read
// returns; values <= 0 default to 1024.
func NewReaderSource(r io.ReadCloser, blockSamples int) *ReaderSource {
	if blockSamples <= 0 {
		blockSamples = 1024
	}
	return &ReaderSource{
		r:         r,
		blockSize: blockSamples,
		buf:       make([]byte, blockSamples*2),
	}
}

func (s *ReaderSource) Read(ctx context.Context) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	n, err := io.ReadFull(s.r, s.buf)
	if n == 0 {
		if err == io.ErrUnexpectedEOF {
			err = io.EOF
		}
		return nil, err
	}
	samples := make([]float32, n/2)
	for i := range samples {
		v := int16(binary.LittleEndian.Uint16(s.buf[i*2:]))
		samples[i] = float32(v) / 32768
	}
	if err == io.ErrUnexpectedEOF {
		err = nil
	}
	return samples, err
}

func (s *ReaderSource) Close() error { return s.r.Close() }

// SliceSource replays fixed in-memory blocks, then io.EOF. It exists for
// tests and offline replay.
type SliceSource struct {
	blocks [][]float32
	next   int
}

func NewSliceSource(blocks ...[]float32) *SliceSource {
	return &SliceSource{blocks: blocks}
}

func (s *SliceSource) Read(ctx context.Context) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.next >= len(s.blocks) {
		return nil, io.EOF
	}
	b := s.blocks[s.next]
	s.next++
	return b, nil
}

func (s *SliceSource) Close() error { return nil }
