package algorithms

import (
	"iter"
	"sort"

	"github.com/himanishpuri/MelodicDNA/internal/geometry"
	"github.com/himanishpuri/MelodicDNA/internal/settings"
)

// Pair matches one pattern point to one source point by index.
type Pair struct {
	PatternIndex int
	SourceIndex  int
}

// Link is one matched vector pair of a chain found by the S and W
// algorithms.
type Link struct {
	Pattern geometry.IntraVector
	Source  geometry.IntraVector
	Scale   geometry.Rat
}

// Occurrence is one match of the pattern, or part of it, in the source.
type Occurrence struct {
	ID        int
	Algorithm settings.Algorithm

	// Pairs are ordered by pattern index.
	Pairs []Pair

	// Shift is the translation of the first pair: source onset minus pattern
	// onset, and the interval from the pattern pitch to the source pitch.
	Shift geometry.Translation

	// Scale is set for P1, P2 (always 1) and the S family.
	Scale    geometry.Rat
	HasScale bool

	// Links holds the chain of an S or W occurrence.
	Links []Link

	// Overlap is the matched duration found by P3.
	Overlap geometry.Rat
}

// Len is the number of matched pairs.
func (o Occurrence) Len() int { return len(o.Pairs) }

// LinkScales returns the scale of every link of an S or W occurrence.
func (o Occurrence) LinkScales() []geometry.Rat {
	out := make([]geometry.Rat, len(o.Links))
	for i, l := range o.Links {
		out[i] = l.Scale
	}
	return out
}

// SourceIndices returns the matched source indices in pattern order.
func (o Occurrence) SourceIndices() []int {
	out := make([]int, len(o.Pairs))
	for i, p := range o.Pairs {
		out[i] = p.SourceIndex
	}
	return out
}

func pairsFromVectors(vs []geometry.InterVector) []Pair {
	pairs := make([]Pair, len(vs))
	for i, v := range vs {
		pairs[i] = Pair{PatternIndex: v.PatternIndex, SourceIndex: v.SourceIndex}
	}
	sortPairs(pairs)
	return pairs
}

func sortPairs(pairs []Pair) {
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].PatternIndex != pairs[j].PatternIndex {
			return pairs[i].PatternIndex < pairs[j].PatternIndex
		}
		return pairs[i].SourceIndex < pairs[j].SourceIndex
	})
}

// shiftOf is the translation carrying pattern point p onto source point s.
func shiftOf(pattern, source *geometry.PointSet, pr Pair, interval geometry.IntervalFunc) geometry.Translation {
	p := pattern.At(pr.PatternIndex)
	s := source.At(pr.SourceIndex)
	return geometry.Translation{X: s.Onset.Sub(p.Onset).Canon(), Y: interval(p, s)}
}

// Collect pulls at most limit occurrences from seq (all of them when limit
// is zero or negative).
func Collect(seq iter.Seq[Occurrence], limit int) []Occurrence {
	var out []Occurrence
	for occ := range seq {
		out = append(out, occ)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}

func empty(func(Occurrence) bool) {}
