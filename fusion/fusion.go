// Package fusion assigns diarization speakers to transcript words.
//
// A word takes the speaker of the interval it overlaps the most, where
// overlap = max(0, min(word.End, iv.End) - max(word.Start, iv.Start)).
// Words overlapping no interval keep an empty (unknown) speaker. Equal
// overlaps resolve to the interval that starts first, then to the one that
// came first in the input. A segment's speaker is the most frequent word
// speaker, ties going to the speaker seen first.
//
// Both entry points are pure: inputs are never modified.
package fusion

import (
	"cmp"
	"slices"
	"sort"

	"github.com/jbousquie/whisperx-api/diarization"
	"github.com/jbousquie/whisperx-api/transcription"
)

// tieEpsilon absorbs float rounding when comparing overlaps, so that
// 3.0-2.8 and 3.2-3.0 count as equal.
const tieEpsilon = 1e-9

// Overlap returns the length of the intersection of [aStart,aEnd] and
// [bStart,bEnd], or 0 when they do not intersect.
func Overlap(aStart, aEnd, bStart, bEnd float64) float64 {
	return max(0, min(aEnd, bEnd)-max(aStart, bStart))
}

// AssignSpeakers returns a copy of words with Speaker set from intervals.
func AssignSpeakers(words []transcription.Word, intervals []diarization.Interval) []transcription.Word {
	if words == nil {
		return nil
	}
	idx := newIndex(intervals)
	out := make([]transcription.Word, len(words))
	for i, w := range words {
		w.Speaker = idx.best(w.Start, w.End)
		out[i] = w
	}
	return out
}

// AssignSegments returns a copy of segments with word and segment speakers
// set from intervals. Segments without words take the speaker of the
// interval overlapping the segment span the most.
func AssignSegments(segments []transcription.Segment, intervals []diarization.Interval) []transcription.Segment {
	if segments == nil {
		return nil
	}
	idx := newIndex(intervals)
	out := make([]transcription.Segment, len(segments))
	for i, seg := range segments {
		seg = seg.Clone()
		if len(seg.Words) == 0 {
			seg.Speaker = idx.best(seg.Start, seg.End)
		} else {
			for j := range seg.Words {
				seg.Words[j].Speaker = idx.best(seg.Words[j].Start, seg.Words[j].End)
			}
			seg.Speaker = MajoritySpeaker(seg.Words)
		}
		out[i] = seg
	}
	return out
}

// MajoritySpeaker returns the most frequent non-empty speaker in words,
// ties going to the speaker that occurs first. Empty when no word has one.
func MajoritySpeaker(words []transcription.Word) string {
	counts := make(map[string]int)
	var order []string
	for _, w := range words {
		if w.Speaker == "" {
			continue
		}
		if counts[w.Speaker] == 0 {
			order = append(order, w.Speaker)
		}
		counts[w.Speaker]++
	}
	best, bestN := "", 0
	for _, s := range order {
		if counts[s] > bestN {
			best, bestN = s, counts[s]
		}
	}
	return best
}

// index holds intervals sorted by start (stable on input order) with the
// running maximum of their end times, so a query only visits intervals
// that can still reach the word.
type index struct {
	ivs    []diarization.Interval
	maxEnd []float64
}

func newIndex(intervals []diarization.Interval) *index {
	ivs := slices.Clone(intervals)
	slices.SortStableFunc(ivs, func(a, b diarization.Interval) int {
		return cmp.Compare(a.Start, b.Start)
	})
	maxEnd := make([]float64, len(ivs))
	for i, iv := range ivs {
		maxEnd[i] = iv.End
		if i > 0 && maxEnd[i-1] > iv.End {
			maxEnd[i] = maxEnd[i-1]
		}
	}
	return &index{ivs: ivs, maxEnd: maxEnd}
}

// best returns the speaker of the interval with the greatest positive
// overlap with [start,end], or "" if none overlaps.
func (x *index) best(start, end float64) string {
	// Intervals starting at or after end cannot overlap.
	n := sort.Search(len(x.ivs), func(i int) bool { return x.ivs[i].Start >= end })

	speaker, bestOv, found := "", 0.0, false
	// Walking backwards visits earlier starts last, so ">=" on a tie
	// keeps the earliest one.
	for i := n - 1; i >= 0 && x.maxEnd[i] > start; i-- {
		iv := x.ivs[i]
		ov := Overlap(start, end, iv.Start, iv.End)
		if ov <= 0 {
			continue
		}
		if !found || ov >= bestOv-tieEpsilon {
			if !found || ov > bestOv {
				bestOv = ov
			}
			speaker, found = iv.Speaker, true
		}
	}
	return speaker
}
