package diarization

// Turn is a time interval labeled with a speaker identity, produced by the
// diarization backend independently of transcript content. The turn set for
// one audio file is produced once and treated as read-only ground truth for
// the whole attribution pass.
type Turn struct {
	// Start is the turn start time in seconds.
	Start float64 `json:"start"`
	// End is the turn end time in seconds.
	End float64 `json:"end"`
	// Speaker is the diarized speaker label. Labels are opaque strings with
	// no guaranteed ordering or stability across runs.
	Speaker string `json:"speaker"`
}

// Duration returns the turn duration in seconds.
func (t Turn) Duration() float64 { return t.End - t.Start }

// Request holds parameters for a diarization call.
type Request struct {
	// AudioPath is the path to the audio file to diarize.
	AudioPath string `json:"audio_path"`
	// NumSpeakers is the exact number of speakers (0 = auto-detect).
	NumSpeakers int `json:"num_speakers,omitempty"`
	// MinSpeakers is the minimum expected number of speakers.
	MinSpeakers int `json:"min_speakers,omitempty"`
	// MaxSpeakers is the maximum expected number of speakers.
	MaxSpeakers int `json:"max_speakers,omitempty"`
	// Language is the expected language of the audio (e.g. "en").
	Language string `json:"language,omitempty"`
}

// Result holds the output of a diarization call.
type Result struct {
	// Turns contains the speaker-labeled time intervals in backend order.
	Turns []Turn `json:"turns"`
	// NumSpeakers is the number of speakers detected.
	NumSpeakers int `json:"num_speakers"`
}
