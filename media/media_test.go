package media

import (
	"strings"
	"testing"

	apperrors "github.com/skillsenselab/speakerlab/errors"
)

func TestCheckExtension(t *testing.T) {
	tests := []struct {
		path    string
		wantErr bool
	}{
		{"meeting.mp4", false},
		{"meeting.MOV", false},
		{"clip.avi", false},
		{"clip.mkv", false},
		{"notes.txt", true},
		{"audio.wav", true},
		{"noext", true},
	}
	for _, tc := range tests {
		t.Run(tc.path, func(t *testing.T) {
			err := CheckExtension(tc.path)
			if (err != nil) != tc.wantErr {
				t.Errorf("CheckExtension(%q) error = %v, wantErr %v", tc.path, err, tc.wantErr)
			}
			if err != nil {
				appErr, ok := apperrors.AsAppError(err)
				if !ok || appErr.Code != apperrors.ErrCodeInvalidFormat {
					t.Errorf("expected INVALID_FORMAT AppError, got %v", err)
				}
			}
		})
	}
}

func TestConcatList(t *testing.T) {
	got := ConcatList([]string{"/tmp/a.wav", "/tmp/b.wav"})
	want := "file '/tmp/a.wav'\nfile '/tmp/b.wav'\n"
	if got != want {
		t.Errorf("ConcatList = %q, want %q", got, want)
	}
}

func TestConcatListEscapesQuotes(t *testing.T) {
	got := ConcatList([]string{"/tmp/it's.wav"})
	if !strings.Contains(got, `'\''`) {
		t.Errorf("single quotes must be escaped for the concat demuxer: %q", got)
	}
}

func TestSpansAdjacent(t *testing.T) {
	if !spansAdjacent(2.0, 2.0) {
		t.Error("identical timestamps are adjacent")
	}
	if !spansAdjacent(2.0, 2.0+5e-7) {
		t.Error("sub-epsilon offset is adjacent")
	}
	if spansAdjacent(2.0, 2.5) {
		t.Error("a real gap is not adjacent")
	}
}

func TestSanitizeSpeaker(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"SPEAKER_00", "SPEAKER_00"},
		{"a/b", "a_b"},
		{"..", "_"},
		{"", "unknown"},
		{"two words", "two_words"},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			if got := sanitizeSpeaker(tc.in); got != tc.want {
				t.Errorf("sanitizeSpeaker(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestNewExtractorDefaults(t *testing.T) {
	e := NewExtractor("", 0)
	if e.FFmpegPath != "ffmpeg" || e.SampleRate != 16000 {
		t.Errorf("unexpected defaults: %+v", e)
	}
}
