package attribution

import (
	"reflect"
	"testing"

	"github.com/skillsenselab/speakerlab/diarization"
	"github.com/skillsenselab/speakerlab/transcript"
)

func TestAggregate(t *testing.T) {
	tr := &transcript.Transcript{Segments: []transcript.Segment{
		{Start: 0, End: 3, Text: "hi there", Speaker: "A"},
		{Start: 3, End: 4.5, Text: "yo", Speaker: "B"},
	}}
	turns := []diarization.Turn{
		{Start: 0, End: 3, Speaker: "A"},
		{Start: 3, End: 4.5, Speaker: "B"},
	}

	stats, err := Aggregate(tr, turns)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}

	if stats.TotalWords != 3 {
		t.Errorf("total_words = %d, want 3", stats.TotalWords)
	}
	if stats.TotalSpeakers != 2 {
		t.Errorf("total_speakers = %d, want 2", stats.TotalSpeakers)
	}
	wantCounts := map[string]int{"A": 2, "B": 1}
	if !reflect.DeepEqual(stats.SpeakerWordCounts, wantCounts) {
		t.Errorf("word counts = %v, want %v", stats.SpeakerWordCounts, wantCounts)
	}
	wantTimes := map[string]float64{"A": 3.0, "B": 1.5}
	if !reflect.DeepEqual(stats.SpeakerSpeakingTimes, wantTimes) {
		t.Errorf("speaking times = %v, want %v", stats.SpeakerSpeakingTimes, wantTimes)
	}
	if !reflect.DeepEqual(stats.SpeakersList, []string{"A", "B"}) {
		t.Errorf("speakers list = %v", stats.SpeakersList)
	}
}

func TestAggregateSpeakingTimeFromTurnsNotTranscript(t *testing.T) {
	// Speaker C never got any words attributed, but has diarization coverage.
	tr := &transcript.Transcript{Segments: []transcript.Segment{
		{Start: 0, End: 2, Text: "hello", Speaker: "A"},
	}}
	turns := []diarization.Turn{
		{Start: 0, End: 2, Speaker: "A"},
		{Start: 2, End: 7, Speaker: "C"},
		{Start: 9, End: 10, Speaker: "C"},
	}

	stats, err := Aggregate(tr, turns)
	if err != nil {
		t.Fatal(err)
	}
	if stats.SpeakerSpeakingTimes["C"] != 6 {
		t.Errorf("C speaking time = %v, want 6 (raw diarization coverage)", stats.SpeakerSpeakingTimes["C"])
	}
	if stats.TotalSpeakers != 2 {
		t.Errorf("total_speakers = %d, want 2 (C counts even without words)", stats.TotalSpeakers)
	}
	if _, ok := stats.SpeakerWordCounts["C"]; ok {
		t.Error("C has no attributed words and must not appear in word counts")
	}
}

func TestAggregateUnattributedSegments(t *testing.T) {
	tr := &transcript.Transcript{Segments: []transcript.Segment{
		{Start: 0, End: 2, Text: "who said this"},
		{Start: 2, End: 3, Text: "me", Speaker: "A"},
	}}

	stats, err := Aggregate(tr, nil)
	if err != nil {
		t.Fatal(err)
	}
	// Unattributed text still counts toward the total, but is never coerced
	// onto a placeholder speaker.
	if stats.TotalWords != 4 {
		t.Errorf("total_words = %d, want 4", stats.TotalWords)
	}
	if _, ok := stats.SpeakerWordCounts[""]; ok {
		t.Error("absent speaker must not be a word-count key")
	}
	if stats.TotalSpeakers != 1 {
		t.Errorf("total_speakers = %d, want 1", stats.TotalSpeakers)
	}
}

func TestAggregateSkipsMalformedSegment(t *testing.T) {
	tr := &transcript.Transcript{Segments: []transcript.Segment{
		{Start: 5, End: 2, Text: "backwards interval", Speaker: "A"},
		{Start: 0, End: 1, Text: "fine", Speaker: "A"},
	}}

	stats, err := Aggregate(tr, nil)
	if err != nil {
		t.Fatalf("malformed segments are skipped, not fatal: %v", err)
	}
	if stats.TotalWords != 1 {
		t.Errorf("total_words = %d, want 1 (malformed segment skipped)", stats.TotalWords)
	}
}

func TestAggregateNilTranscript(t *testing.T) {
	if _, err := Aggregate(nil, nil); err == nil {
		t.Error("nil transcript must error for the caller to report as partial failure")
	}
}

func TestAggregateEmpty(t *testing.T) {
	stats, err := Aggregate(&transcript.Transcript{}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalWords != 0 || stats.TotalSpeakers != 0 {
		t.Errorf("unexpected stats for empty input: %+v", stats)
	}
}
