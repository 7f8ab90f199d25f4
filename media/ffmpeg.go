// Package media wraps ffmpeg for audio extraction and per-speaker clip
// assembly. The attribution engine never touches audio bytes; it hands this
// package the spans to cut.
package media

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	apperrors "github.com/skillsenselab/speakerlab/errors"
	"github.com/skillsenselab/speakerlab/logger"
)

const defaultSampleRate = 16000

// allowedExtensions is the video container allow-list for uploads.
var allowedExtensions = map[string]bool{
	".mp4": true,
	".avi": true,
	".mov": true,
	".mkv": true,
}

// CheckExtension validates the video container extension against the
// allow-list.
func CheckExtension(path string) error {
	ext := strings.ToLower(filepath.Ext(path))
	if !allowedExtensions[ext] {
		return apperrors.UnsupportedFormat(ext)
	}
	return nil
}

// Extractor runs ffmpeg to pull mono 16 kHz WAV audio out of video files.
type Extractor struct {
	// FFmpegPath overrides the ffmpeg binary location ("ffmpeg" by default).
	FFmpegPath string
	// SampleRate is the output sample rate in Hz.
	SampleRate int

	log *logger.Logger
}

// NewExtractor creates an Extractor with defaults applied.
func NewExtractor(ffmpegPath string, sampleRate int) *Extractor {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if sampleRate == 0 {
		sampleRate = defaultSampleRate
	}
	return &Extractor{
		FFmpegPath: ffmpegPath,
		SampleRate: sampleRate,
		log:        logger.WithComponent("media"),
	}
}

// ExtractAudio extracts mono WAV audio from videoPath into tmpDir and
// returns the path of the extracted file. The caller owns the file's
// lifetime and removes it when the request finishes.
func (e *Extractor) ExtractAudio(ctx context.Context, videoPath, tmpDir string) (string, error) {
	if tmpDir == "" {
		tmpDir = os.TempDir()
	}
	base := strings.TrimSuffix(filepath.Base(videoPath), filepath.Ext(videoPath))
	out := filepath.Join(tmpDir, base+"_audio.wav")

	cmd := exec.CommandContext(ctx, e.FFmpegPath,
		"-y", "-i", videoPath,
		"-ac", "1", "-ar", strconv.Itoa(e.SampleRate),
		"-f", "wav",
		out,
	)
	if output, err := cmd.CombinedOutput(); err != nil {
		e.log.Error("ffmpeg extraction failed", map[string]interface{}{
			"video":  videoPath,
			"output": tail(string(output), 512),
		})
		return "", apperrors.AudioExtraction("extraction", err)
	}

	e.log.Debug("Audio extracted", map[string]interface{}{
		"video": videoPath,
		"audio": out,
	})
	return out, nil
}

// tail returns at most the last n bytes of s, for log-friendly ffmpeg output.
func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

// formatSeconds renders a timestamp for ffmpeg arguments.
func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}
