package live

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/skillsenselab/speakerlab/transcription"
)

// ChunkTranscriber turns one chunk of samples into text. An empty string
// means no speech was recognized.
type ChunkTranscriber interface {
	TranscribeChunk(ctx context.Context, samples []float32, sampleRate int) (string, error)
}

// ProviderTranscriber adapts a file-based transcription provider to
// chunk transcription by spooling each chunk to a temporary WAV file.
type ProviderTranscriber struct {
	provider transcription.Provider
	language string
	model    string
	tempDir  string
}

// NewProviderTranscriber wraps p. tempDir empty means the system temp
// directory.
func NewProviderTranscriber(p transcription.Provider, language, model, tempDir string) *ProviderTranscriber {
	return &ProviderTranscriber{provider: p, language: language, model: model, tempDir: tempDir}
}

func (pt *ProviderTranscriber) TranscribeChunk(ctx context.Context, samples []float32, sampleRate int) (string, error) {
	f, err := os.CreateTemp(pt.tempDir, "live-chunk-*.wav")
	if err != nil {
		return "", fmt.Errorf("creating chunk file: %w", err)
	}
	path := f.Name()
	defer os.Remove(path)

	if _, err := f.Write(encodeWAV(samples, sampleRate)); err != nil {
		f.Close()
		return "", fmt.Errorf("writing chunk file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("closing chunk file: %w", err)
	}

	res, err := pt.provider.Transcribe(ctx, transcription.Request{
		AudioPath: path,
		Language:  pt.language,
		Model:     pt.model,
	})
	if err != nil {
		return "", err
	}

	var parts []string
	for _, seg := range res.Transcript.Segments {
		if t := strings.TrimSpace(seg.Text); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " "), nil
}

// encodeWAV renders mono float32 samples as a 16-bit PCM WAV file.
func encodeWAV(samples []float32, sampleRate int) []byte {
	dataSize := len(samples) * 2
	var buf bytes.Buffer
	buf.Grow(44 + dataSize)

	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+dataSize))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // mono
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate*2))
	binary.Write(&buf, binary.LittleEndian, uint16(2))
	binary.Write(&buf, binary.LittleEndian, uint16(16))

	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(dataSize))
	for _, s := range samples {
		v := math.Round(float64(s) * 32767)
		if v > 32767 {
			v = 32767
		} else if v < -32768 {
			v = -32768
		}
		binary.Write(&buf, binary.LittleEndian, int16(v))
	}
	return buf.Bytes()
}
