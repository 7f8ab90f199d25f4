package attribution

import (
	"fmt"
	"sort"
	"strings"

	"github.com/skillsenselab/speakerlab/diarization"
	"github.com/skillsenselab/speakerlab/logger"
	"github.com/skillsenselab/speakerlab/transcript"
)

// Statistics summarizes speaker activity for one processing run.
type Statistics struct {
	// TotalSpeakers is the number of distinct speakers observed across the
	// labeled transcript and the diarization timeline.
	TotalSpeakers int `json:"total_speakers"`
	// TotalWords is the whitespace-token count over all segment texts. It is
	// derived from segment-level text, independent of the word-level
	// structure, so the two counting mechanisms may disagree on tokenization.
	TotalWords int `json:"total_words"`
	// SpeakerWordCounts maps each attributed speaker to its word count.
	// Segments with no speaker contribute to TotalWords only.
	SpeakerWordCounts map[string]int `json:"speaker_word_counts"`
	// SpeakerSpeakingTimes maps each speaker to total seconds of raw
	// diarization coverage, independent of transcript attribution.
	SpeakerSpeakingTimes map[string]float64 `json:"speaker_speaking_times"`
	// SpeakersList lists the observed speakers in sorted order.
	SpeakersList []string `json:"speakers_list"`
}

// Aggregate derives per-speaker statistics from the labeled transcript and
// the diarization turns. Segments that are not well-formed records are
// skipped with a warning rather than failing the whole computation. The
// caller is responsible for converting any returned error into a partial
// failure field; statistics never abort transcript delivery.
func Aggregate(t *transcript.Transcript, turns []diarization.Turn) (*Statistics, error) {
	if t == nil {
		return nil, fmt.Errorf("aggregate: nil transcript")
	}
	log := logger.WithComponent("statistics")

	speakers := make(map[string]struct{})
	wordCounts := make(map[string]int)
	totalWords := 0

	for i, seg := range t.Segments {
		if seg.End < seg.Start {
			log.Warn("Skipping malformed segment", map[string]interface{}{
				"segment": i,
				"start":   seg.Start,
				"end":     seg.End,
			})
			continue
		}
		n := len(strings.Fields(seg.Text))
		totalWords += n
		if seg.Speaker != "" {
			speakers[seg.Speaker] = struct{}{}
			wordCounts[seg.Speaker] += n
		}
	}

	speakingTimes := make(map[string]float64)
	for _, turn := range turns {
		speakers[turn.Speaker] = struct{}{}
		speakingTimes[turn.Speaker] += turn.Duration()
	}

	list := make([]string, 0, len(speakers))
	for s := range speakers {
		list = append(list, s)
	}
	sort.Strings(list)

	return &Statistics{
		TotalSpeakers:        len(list),
		TotalWords:           totalWords,
		SpeakerWordCounts:    wordCounts,
		SpeakerSpeakingTimes: speakingTimes,
		SpeakersList:         list,
	}, nil
}
