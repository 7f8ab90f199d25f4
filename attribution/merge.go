package attribution

import (
	"github.com/skillsenselab/speakerlab/transcript"
)

// MergeSpeakerWords walks the labeled transcript in stream order (segment
// order, then word order) and groups words by speaker, merging runs of
// time-adjacent same-speaker words into single records. Adjacency means the
// next word starts where the previous ended, within Epsilon; a gap or a
// speaker change closes the current record. Merged text is the byte
// concatenation of the underlying tokens, whose embedded spacing is
// preserved as-is. Words with no speaker are skipped.
func MergeSpeakerWords(t *transcript.Transcript) map[string][]transcript.Word {
	words := flatten(t)
	out := make(map[string][]transcript.Word)

	for i := 0; i < len(words); i++ {
		w := words[i]
		if w.Speaker == "" {
			continue
		}

		current := transcript.Word{
			Start:   w.Start,
			End:     w.End,
			Word:    w.Word,
			Speaker: w.Speaker,
		}

		// Fold the previous record for this speaker into the current one
		// when the stream left off exactly where it resumes.
		runs := out[w.Speaker]
		if n := len(runs); n > 0 && adjacent(runs[n-1].End, current.Start) {
			prev := runs[n-1]
			current.Start = prev.Start
			current.Word = prev.Word + current.Word
			out[w.Speaker] = runs[:n-1]
		}

		// Lookahead: absorb the rest of the same-speaker adjacent run before
		// closing the record, advancing the outer cursor past it.
		for i+1 < len(words) &&
			words[i+1].Speaker == w.Speaker &&
			adjacent(words[i+1].Start, current.End) {
			next := words[i+1]
			current.Word += next.Word
			current.End = next.End
			i++
		}

		out[w.Speaker] = append(out[w.Speaker], current)
	}
	return out
}

// flatten returns all words of the transcript as one stream, preserving
// segment order and word order within each segment.
func flatten(t *transcript.Transcript) []transcript.Word {
	var words []transcript.Word
	for _, seg := range t.Segments {
		words = append(words, seg.Words...)
	}
	return words
}
