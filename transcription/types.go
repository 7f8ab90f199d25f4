package transcription

import "github.com/skillsenselab/speakerlab/transcript"

// Request holds parameters for a transcription call.
type Request struct {
	// AudioPath is the path to the audio file to transcribe.
	AudioPath string `json:"audio_path"`
	// Language is the expected language of the audio (e.g. "en").
	Language string `json:"language,omitempty"`
	// Model is the transcription model to use.
	Model string `json:"model,omitempty"`
	// WordTimestamps requests per-word timing. The attribution engine needs
	// it on; without word spans only segment-level labels are possible.
	WordTimestamps bool `json:"word_timestamps,omitempty"`
}

// Result holds the output of a transcription call.
type Result struct {
	// Text is the full transcription text.
	Text string `json:"text"`
	// Transcript is the time-aligned segment/word breakdown.
	Transcript transcript.Transcript `json:"transcript"`
	// Duration is the audio duration in seconds.
	Duration float64 `json:"duration,omitempty"`
	// Language is the detected or specified language.
	Language string `json:"language,omitempty"`
}
