package attribution

import (
	"github.com/skillsenselab/speakerlab/diarization"
	"github.com/skillsenselab/speakerlab/transcript"
)

// Assign labels every segment and every word of t with the speaker resolved
// from turns. Segment-level and word-level speakers are resolved
// independently from their own spans and may disagree; word-level labels are
// authoritative for downstream audio extraction. Targets overlapping no turn
// keep an empty speaker. The turn set is read-only for the whole pass.
func Assign(turns []diarization.Turn, t *transcript.Transcript, mode Mode) {
	for i := range t.Segments {
		seg := &t.Segments[i]
		if speaker, ok := Resolve(seg.Start, seg.End, turns, mode); ok {
			seg.Speaker = speaker
		}
		for j := range seg.Words {
			word := &seg.Words[j]
			if speaker, ok := Resolve(word.Start, word.End, turns, mode); ok {
				word.Speaker = speaker
			}
		}
	}
}
