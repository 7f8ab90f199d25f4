package analysis

import (
	"context"
	"errors"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/skillsenselab/speakerlab/attribution"
	"github.com/skillsenselab/speakerlab/diarization"
	apperrors "github.com/skillsenselab/speakerlab/errors"
	"github.com/skillsenselab/speakerlab/transcript"
	"github.com/skillsenselab/speakerlab/transcription"
)

type fakeTranscriber struct {
	result *transcription.Result
	err    error
	delay  time.Duration
	calls  int32
}

func (f *fakeTranscriber) Name() string                          { return "fake-whisper" }
func (f *fakeTranscriber) IsAvailable(ctx context.Context) bool  { return true }
func (f *fakeTranscriber) Transcribe(ctx context.Context, req transcription.Request) (*transcription.Result, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type fakeDiarizer struct {
	result *diarization.Result
	err    error
	calls  int32
}

func (f *fakeDiarizer) Name() string                         { return "fake-pyannote" }
func (f *fakeDiarizer) IsAvailable(ctx context.Context) bool { return true }
func (f *fakeDiarizer) Diarize(ctx context.Context, req diarization.Request) (*diarization.Result, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func sampleTranscription() *transcription.Result {
	return &transcription.Result{
		Text: "hello there general",
		Transcript: transcript.Transcript{
			Segments: []transcript.Segment{
				{
					Start: 0, End: 3, Text: "hello there general",
					Words: []transcript.Word{
						{Start: 0, End: 1, Word: "hello "},
						{Start: 1, End: 2, Word: "there "},
						{Start: 2, End: 3, Word: "general"},
					},
				},
			},
		},
	}
}

func sampleDiarization() *diarization.Result {
	return &diarization.Result{
		Turns: []diarization.Turn{
			{Start: 0, End: 3, Speaker: "SPEAKER_00"},
		},
		NumSpeakers: 1,
	}
}

func newTestService(t *testing.T, tr transcription.Provider, d diarization.Provider) *Service {
	t.Helper()
	return NewService(Config{
		OutputDir: t.TempDir(),
	}, tr, d, nil, nil, nil, nil)
}

func TestProcessAudioCompleted(t *testing.T) {
	svc := newTestService(t, &fakeTranscriber{result: sampleTranscription()}, &fakeDiarizer{result: sampleDiarization()})

	res, err := svc.ProcessAudio(context.Background(), "audio.wav", "meeting")
	if err != nil {
		t.Fatalf("ProcessAudio: %v", err)
	}
	if res.Status != StatusCompleted {
		t.Fatalf("status = %q, want %q", res.Status, StatusCompleted)
	}
	if res.Statistics == nil {
		t.Fatal("statistics missing")
	}
	if got := res.Statistics.TotalSpeakers; got != 1 {
		t.Errorf("TotalSpeakers = %d, want 1", got)
	}
	if got := res.Statistics.TotalWords; got != 3 {
		t.Errorf("TotalWords = %d, want 3", got)
	}
	for _, seg := range res.Transcription.Segments {
		if seg.Speaker != "SPEAKER_00" {
			t.Errorf("segment speaker = %q, want SPEAKER_00", seg.Speaker)
		}
	}
}

func TestProcessAudioRunsBothProviders(t *testing.T) {
	tr := &fakeTranscriber{result: sampleTranscription(), delay: 20 * time.Millisecond}
	d := &fakeDiarizer{result: sampleDiarization()}
	svc := newTestService(t, tr, d)

	if _, err := svc.ProcessAudio(context.Background(), "audio.wav", "meeting"); err != nil {
		t.Fatalf("ProcessAudio: %v", err)
	}
	if tr.calls != 1 || d.calls != 1 {
		t.Errorf("calls = (%d, %d), want (1, 1)", tr.calls, d.calls)
	}
}

func TestProcessAudioTranscriberFailureAborts(t *testing.T) {
	svc := newTestService(t, &fakeTranscriber{err: errors.New("connection refused")}, &fakeDiarizer{result: sampleDiarization()})

	_, err := svc.ProcessAudio(context.Background(), "audio.wav", "meeting")
	if err == nil {
		t.Fatal("expected error")
	}
	appErr, ok := apperrors.AsAppError(err)
	if !ok {
		t.Fatalf("error is not an AppError: %v", err)
	}
	if appErr.Code != apperrors.ErrCodeCollaboratorFailed {
		t.Errorf("code = %q, want %q", appErr.Code, apperrors.ErrCodeCollaboratorFailed)
	}
	if appErr.HTTPStatus != 502 {
		t.Errorf("http status = %d, want 502", appErr.HTTPStatus)
	}
	if !appErr.Retryable {
		t.Error("collaborator failures should be retryable")
	}
	if got := appErr.Details["service"]; got != "transcription" {
		t.Errorf("service detail = %v, want transcription", got)
	}
}

func TestProcessAudioDiarizerFailureAborts(t *testing.T) {
	svc := newTestService(t, &fakeTranscriber{result: sampleTranscription()}, &fakeDiarizer{err: errors.New("down")})

	_, err := svc.ProcessAudio(context.Background(), "audio.wav", "meeting")
	if err == nil {
		t.Fatal("expected error")
	}
	appErr, ok := apperrors.AsAppError(err)
	if !ok {
		t.Fatalf("error is not an AppError: %v", err)
	}
	if got := appErr.Details["service"]; got != "diarization" {
		t.Errorf("service detail = %v, want diarization", got)
	}
}

func TestProcessAudioKeepsClassifiedErrors(t *testing.T) {
	svc := newTestService(t, &fakeTranscriber{err: apperrors.Timeout("transcribe")}, &fakeDiarizer{result: sampleDiarization()})

	_, err := svc.ProcessAudio(context.Background(), "audio.wav", "meeting")
	appErr, ok := apperrors.AsAppError(err)
	if !ok {
		t.Fatalf("error is not an AppError: %v", err)
	}
	if appErr.Code != apperrors.ErrCodeTimeout {
		t.Errorf("code = %q, want %q", appErr.Code, apperrors.ErrCodeTimeout)
	}
}

func TestProcessAudioPersistsTranscript(t *testing.T) {
	dir := t.TempDir()
	svc := NewService(Config{OutputDir: dir},
		&fakeTranscriber{result: sampleTranscription()},
		&fakeDiarizer{result: sampleDiarization()},
		nil, nil, nil, nil)

	res, err := svc.ProcessAudio(context.Background(), "audio.wav", "meeting")
	if err != nil {
		t.Fatalf("ProcessAudio: %v", err)
	}
	wantPath := filepath.Join(dir, "meeting_transcript.json")
	if res.TranscriptPath != wantPath {
		t.Errorf("TranscriptPath = %q, want %q", res.TranscriptPath, wantPath)
	}
	loaded, err := transcript.Load(wantPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(loaded.Segments) != 1 {
		t.Fatalf("loaded %d segments, want 1", len(loaded.Segments))
	}
	if loaded.Segments[0].Speaker != "SPEAKER_00" {
		t.Errorf("persisted speaker = %q, want SPEAKER_00", loaded.Segments[0].Speaker)
	}
}

func TestProcessVideoRejectsUnsupportedExtension(t *testing.T) {
	svc := newTestService(t, &fakeTranscriber{result: sampleTranscription()}, &fakeDiarizer{result: sampleDiarization()})

	_, err := svc.ProcessVideo(context.Background(), "clip.webm")
	if err == nil {
		t.Fatal("expected error for unsupported container")
	}
	appErr, ok := apperrors.AsAppError(err)
	if !ok {
		t.Fatalf("error is not an AppError: %v", err)
	}
	if appErr.Code != apperrors.ErrCodeInvalidFormat {
		t.Errorf("code = %q, want %q", appErr.Code, apperrors.ErrCodeInvalidFormat)
	}
}

func TestProcessAudioNearestFallbackMode(t *testing.T) {
	tr := &fakeTranscriber{result: &transcription.Result{
		Transcript: transcript.Transcript{
			Segments: []transcript.Segment{
				{Start: 10, End: 11, Text: "stray", Words: []transcript.Word{{Start: 10, End: 11, Word: "stray"}}},
			},
		},
	}}
	d := &fakeDiarizer{result: &diarization.Result{
		Turns: []diarization.Turn{{Start: 0, End: 3, Speaker: "SPEAKER_00"}},
	}}
	svc := NewService(Config{OutputDir: t.TempDir(), AttributionMode: attribution.ModeNearestFallback},
		tr, d, nil, nil, nil, nil)

	res, err := svc.ProcessAudio(context.Background(), "audio.wav", "meeting")
	if err != nil {
		t.Fatalf("ProcessAudio: %v", err)
	}
	if got := res.Transcription.Segments[0].Speaker; got != "SPEAKER_00" {
		t.Errorf("fallback speaker = %q, want SPEAKER_00", got)
	}
}

func TestSpansFromDocumentMatchesInMemory(t *testing.T) {
	doc := &sampleTranscription().Transcript
	for i := range doc.Segments {
		doc.Segments[i].Speaker = "SPEAKER_00"
		for j := range doc.Segments[i].Words {
			doc.Segments[i].Words[j].Speaker = "SPEAKER_00"
		}
	}
	path := filepath.Join(t.TempDir(), "meeting_transcript.json")
	if err := transcript.Save(doc, path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := spansFromDocument(path, 30)
	if err != nil {
		t.Fatalf("spansFromDocument: %v", err)
	}
	want := attribution.SelectChunks(attribution.MergeSpeakerWords(doc), 30)
	if len(got) != len(want) {
		t.Fatalf("speakers = %d, want %d", len(got), len(want))
	}
	for speaker, words := range want {
		if len(got[speaker]) != len(words) {
			t.Fatalf("spans for %s = %d words, want %d", speaker, len(got[speaker]), len(words))
		}
		for i := range words {
			if got[speaker][i] != words[i] {
				t.Errorf("span word %d = %+v, want %+v", i, got[speaker][i], words[i])
			}
		}
	}
}

func TestSpansFromDocumentMissingFile(t *testing.T) {
	if _, err := spansFromDocument(filepath.Join(t.TempDir(), "absent.json"), 30); err == nil {
		t.Fatal("expected error for missing document")
	}
}

func TestBaseName(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/tmp/meeting.mp4", "meeting"},
		{"clip.mov", "clip"},
		{"noext", "noext"},
	}
	for _, tt := range tests {
		if got := baseName(tt.path); got != tt.want {
			t.Errorf("baseName(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}
