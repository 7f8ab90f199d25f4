package attribution

import (
	"sort"

	"github.com/skillsenselab/speakerlab/transcript"
)

// SelectChunks picks, for each speaker, the largest contiguous chunks of
// speech until their combined span reaches minTotalDuration seconds, to build
// a representative audio sample with minimal splicing. Words are partitioned
// into chunks at every gap (end-to-start distance beyond Epsilon), chunks are
// taken longest-first, and selection stops as soon as the threshold is
// crossed; chunks are never split. A speaker whose total speech falls short
// of the threshold keeps everything available. The result is re-sorted into
// timeline order for the audio-slicing stage.
func SelectChunks(speakerWords map[string][]transcript.Word, minTotalDuration float64) map[string][]transcript.Word {
	result := make(map[string][]transcript.Word, len(speakerWords))
	for speaker, words := range speakerWords {
		result[speaker] = selectForSpeaker(words, minTotalDuration)
	}
	return result
}

func selectForSpeaker(words []transcript.Word, minTotalDuration float64) []transcript.Word {
	chunks := partition(words)

	// Longest chunks first. Stable, so equal durations keep stream order.
	sort.SliceStable(chunks, func(i, j int) bool {
		return chunkDuration(chunks[i]) > chunkDuration(chunks[j])
	})

	var merged []transcript.Word
	for _, chunk := range chunks {
		merged = append(merged, chunk...)
		if merged[len(merged)-1].End-merged[0].Start >= minTotalDuration {
			break
		}
	}

	sort.SliceStable(merged, func(i, j int) bool {
		if merged[i].Start != merged[j].Start {
			return merged[i].Start < merged[j].Start
		}
		return merged[i].End < merged[j].End
	})
	return merged
}

// partition splits a single speaker's word sequence into contiguous chunks.
// Input is already single-speaker, so a chunk boundary is any time gap.
func partition(words []transcript.Word) [][]transcript.Word {
	var chunks [][]transcript.Word
	var current []transcript.Word
	for _, w := range words {
		if len(current) > 0 && !adjacent(w.Start, current[len(current)-1].End) {
			chunks = append(chunks, current)
			current = nil
		}
		current = append(current, w)
	}
	if len(current) > 0 {
		chunks = append(chunks, current)
	}
	return chunks
}

func chunkDuration(chunk []transcript.Word) float64 {
	if len(chunk) == 0 {
		return 0
	}
	return chunk[len(chunk)-1].End - chunk[0].Start
}
