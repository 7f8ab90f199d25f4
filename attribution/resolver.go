// Package attribution fuses two independently produced timelines, word-level
// transcript timestamps and speaker-diarization turns, into one labeled
// transcript, and consolidates per-speaker word runs into audio-extractable
// spans.
package attribution

import (
	"math"
	"sort"

	"github.com/skillsenselab/speakerlab/diarization"
)

// Epsilon is the adjacency tolerance in seconds used for end-equals-start
// comparisons throughout the package.
const Epsilon = 1e-6

// Mode controls how the resolver treats targets with no positive overlap.
type Mode int

const (
	// ModeStrict discards candidate turns with non-positive intersection;
	// a target overlapping no turn resolves to no speaker.
	ModeStrict Mode = iota
	// ModeNearestFallback behaves like ModeStrict, but when no turn has
	// positive overlap the speaker of the turn with the smallest temporal
	// gap to the target is returned instead of none.
	ModeNearestFallback
)

// Resolve picks the best-matching speaker for the target interval
// [start, end] by summing each speaker's overlapped duration across turns.
// Ties are broken by the speaker encountered first in turn iteration order;
// callers that need stable ties across reorderings should pre-sort the turn
// set with SortTurns. The turn slice is never mutated.
func Resolve(start, end float64, turns []diarization.Turn, mode Mode) (string, bool) {
	type group struct {
		total float64
		order int
	}
	groups := make(map[string]*group)
	seen := 0

	for _, t := range turns {
		intersection := math.Min(t.End, end) - math.Max(t.Start, start)
		if intersection <= 0 {
			continue
		}
		g, ok := groups[t.Speaker]
		if !ok {
			g = &group{order: seen}
			seen++
			groups[t.Speaker] = g
		}
		g.total += intersection
	}

	if len(groups) == 0 {
		if mode == ModeNearestFallback {
			return nearest(start, end, turns)
		}
		return "", false
	}

	var best string
	bestTotal := math.Inf(-1)
	bestOrder := math.MaxInt
	for speaker, g := range groups {
		if g.total > bestTotal || (g.total == bestTotal && g.order < bestOrder) {
			best = speaker
			bestTotal = g.total
			bestOrder = g.order
		}
	}
	return best, true
}

// nearest returns the speaker of the turn with the minimum temporal gap to
// [start, end]. Ties go to the turn encountered first.
func nearest(start, end float64, turns []diarization.Turn) (string, bool) {
	if len(turns) == 0 {
		return "", false
	}
	best := ""
	bestGap := math.Inf(1)
	for _, t := range turns {
		gap := math.Max(t.Start-end, start-t.End)
		if gap < 0 {
			gap = 0
		}
		if gap < bestGap {
			best = t.Speaker
			bestGap = gap
		}
	}
	return best, true
}

// SortTurns returns a copy of turns ordered by start time (end time as a
// secondary key), giving the resolver's first-seen tie-break a deterministic
// meaning regardless of backend iteration order.
func SortTurns(turns []diarization.Turn) []diarization.Turn {
	sorted := make([]diarization.Turn, len(turns))
	copy(sorted, turns)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Start != sorted[j].Start {
			return sorted[i].Start < sorted[j].Start
		}
		return sorted[i].End < sorted[j].End
	})
	return sorted
}

// adjacent reports whether two timestamps coincide within Epsilon.
func adjacent(a, b float64) bool {
	return math.Abs(a-b) < Epsilon
}
