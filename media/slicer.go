package media

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	apperrors "github.com/skillsenselab/speakerlab/errors"
	"github.com/skillsenselab/speakerlab/logger"
	"github.com/skillsenselab/speakerlab/transcript"
)

const (
	// silenceGapSeconds is inserted between non-adjacent spans so clips play
	// back naturally.
	silenceGapSeconds = 0.1

	// spanAdjacencyEpsilon matches the attribution adjacency tolerance; spans
	// this close need no silence between them.
	spanAdjacencyEpsilon = 1e-6
)

// Slicer cuts per-speaker clips out of a source WAV at the spans chosen by
// the chunk selector, concatenating them with short silence gaps.
type Slicer struct {
	FFmpegPath string
	SampleRate int

	log *logger.Logger
}

// NewSlicer creates a Slicer with defaults applied.
func NewSlicer(ffmpegPath string, sampleRate int) *Slicer {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if sampleRate == 0 {
		sampleRate = defaultSampleRate
	}
	return &Slicer{
		FFmpegPath: ffmpegPath,
		SampleRate: sampleRate,
		log:        logger.WithComponent("media"),
	}
}

// WriteSpeakerClips writes one WAV file per speaker under outDir, named by
// speaker label, and returns the speaker-to-path map. Existing files are
// overwritten; the map is rebuilt from scratch each run.
func (s *Slicer) WriteSpeakerClips(ctx context.Context, audioPath string, spans map[string][]transcript.Word, outDir string) (transcript.SpeakerAudioMap, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, apperrors.AudioExtraction("slicing", err)
	}

	workDir, err := os.MkdirTemp("", "speakerlab-slices-*")
	if err != nil {
		return nil, apperrors.AudioExtraction("slicing", err)
	}
	defer os.RemoveAll(workDir)

	silencePath := filepath.Join(workDir, "silence.wav")
	if err := s.writeSilence(ctx, silencePath); err != nil {
		return nil, err
	}

	clips := make(transcript.SpeakerAudioMap, len(spans))
	for speaker, words := range spans {
		if len(words) == 0 {
			continue
		}
		outPath := filepath.Join(outDir, sanitizeSpeaker(speaker)+".wav")
		if err := s.writeClip(ctx, audioPath, words, silencePath, workDir, outPath); err != nil {
			return nil, err
		}
		clips[speaker] = outPath
		s.log.Debug("Speaker clip written", map[string]interface{}{
			logger.FieldSpeaker: speaker,
			"path":              outPath,
			"spans":             len(words),
		})
	}
	return clips, nil
}

func (s *Slicer) writeClip(ctx context.Context, audioPath string, words []transcript.Word, silencePath, workDir, outPath string) error {
	pieces := make([]string, 0, len(words)*2)
	for i, w := range words {
		piece := filepath.Join(workDir, fmt.Sprintf("span_%s_%d.wav", filepath.Base(outPath), i))
		cmd := exec.CommandContext(ctx, s.FFmpegPath,
			"-y",
			"-ss", formatSeconds(w.Start),
			"-to", formatSeconds(w.End),
			"-i", audioPath,
			"-c", "copy",
			piece,
		)
		if output, err := cmd.CombinedOutput(); err != nil {
			s.log.Error("ffmpeg span cut failed", map[string]interface{}{
				"span":   i,
				"output": tail(string(output), 512),
			})
			return apperrors.AudioExtraction("slicing", err)
		}

		if i > 0 && !spansAdjacent(words[i-1].End, w.Start) {
			pieces = append(pieces, silencePath)
		}
		pieces = append(pieces, piece)
	}

	listPath := strings.TrimSuffix(outPath, ".wav") + "_concat.txt"
	listPath = filepath.Join(workDir, filepath.Base(listPath))
	if err := os.WriteFile(listPath, []byte(ConcatList(pieces)), 0o644); err != nil {
		return apperrors.AudioExtraction("slicing", err)
	}

	cmd := exec.CommandContext(ctx, s.FFmpegPath,
		"-y",
		"-f", "concat", "-safe", "0",
		"-i", listPath,
		"-c", "copy",
		outPath,
	)
	if output, err := cmd.CombinedOutput(); err != nil {
		s.log.Error("ffmpeg concat failed", map[string]interface{}{
			"out":    outPath,
			"output": tail(string(output), 512),
		})
		return apperrors.AudioExtraction("slicing", err)
	}
	return nil
}

// writeSilence generates the fixed silence gap once per run.
func (s *Slicer) writeSilence(ctx context.Context, path string) error {
	cmd := exec.CommandContext(ctx, s.FFmpegPath,
		"-y",
		"-f", "lavfi",
		"-i", fmt.Sprintf("anullsrc=r=%d:cl=mono", s.SampleRate),
		"-t", strconv.FormatFloat(silenceGapSeconds, 'f', -1, 64),
		path,
	)
	if output, err := cmd.CombinedOutput(); err != nil {
		s.log.Error("ffmpeg silence generation failed", map[string]interface{}{
			"output": tail(string(output), 512),
		})
		return apperrors.AudioExtraction("slicing", err)
	}
	return nil
}

// ConcatList renders an ffmpeg concat demuxer file listing the given pieces.
func ConcatList(pieces []string) string {
	var b strings.Builder
	for _, p := range pieces {
		b.WriteString("file '")
		b.WriteString(strings.ReplaceAll(p, "'", `'\''`))
		b.WriteString("'\n")
	}
	return b.String()
}

func spansAdjacent(prevEnd, nextStart float64) bool {
	return math.Abs(nextStart-prevEnd) < spanAdjacencyEpsilon
}

// sanitizeSpeaker makes a speaker label safe to use as a file name.
func sanitizeSpeaker(speaker string) string {
	replacer := strings.NewReplacer("/", "_", "\\", "_", "..", "_", " ", "_")
	out := replacer.Replace(speaker)
	if out == "" {
		out = "unknown"
	}
	return out
}
