// Package transcript defines the time-aligned transcript model shared by the
// transcription backend, the attribution engine, and the on-disk document
// contract consumed by the audio-segmentation stage.
package transcript

// Word is a single timed token. Speaker is empty until attribution runs;
// an empty speaker means "unknown", never a default label.
type Word struct {
	// Start is the word start time in seconds.
	Start float64 `json:"start"`
	// End is the word end time in seconds.
	End float64 `json:"end"`
	// Word is the token text, including any embedded leading spacing.
	Word string `json:"word"`
	// Speaker is the attributed speaker label, if any.
	Speaker string `json:"speaker,omitempty"`
}

// Duration returns the word duration in seconds.
func (w Word) Duration() float64 { return w.End - w.Start }

// Segment is a time-aligned portion of the transcript with its word-level
// breakdown. The segment span is not guaranteed to equal the union of its
// words' spans.
type Segment struct {
	// Start is the segment start time in seconds.
	Start float64 `json:"start"`
	// End is the segment end time in seconds.
	End float64 `json:"end"`
	// Text is the transcribed text for this segment.
	Text string `json:"text"`
	// Speaker is the attributed speaker label, if any. Segment-level and
	// word-level speakers are assigned independently and may disagree; the
	// word-level label is authoritative for audio extraction.
	Speaker string `json:"speaker,omitempty"`
	// Words is the ordered word-level breakdown of this segment.
	Words []Word `json:"words"`
}

// Transcript is the ordered sequence of segments for one audio file.
type Transcript struct {
	Segments []Segment `json:"segments"`
}

// SpeakerAudioMap maps a speaker label to the per-speaker clip written for it.
// Built once per processing run, overwritten each run.
type SpeakerAudioMap map[string]string
