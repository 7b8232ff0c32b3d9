package algorithms

import (
	"iter"

	"github.com/himanishpuri/MelodicDNA/internal/geometry"
	"github.com/himanishpuri/MelodicDNA/internal/settings"
)

// ChainParams configures the chain-building algorithms.
type ChainParams struct {
	// Threshold is the minimum number of matched pairs. It is ignored by
	// the exact variants, which require the whole pattern.
	Threshold int

	// PatternWindow is ignored by the exact variants, which only chain
	// consecutive pattern points.
	PatternWindow int
	SourceWindow  int

	// Scale filters S occurrences: pure and fixed scales keep only chains
	// with that scale. It is ignored by W.
	Scale    settings.Scale
	Interval geometry.IntervalFunc
}

// FindS1 reports time-scaled occurrences of the whole pattern.
func FindS1(pattern, source *geometry.PointSet, p ChainParams) iter.Seq[Occurrence] {
	return findExact(settings.S1, pattern, source, p, scaledKeys)
}

// FindS2 reports time-scaled occurrences of at least p.Threshold pattern
// points. Every chain is reported when it reaches the threshold, so a
// threshold of 2 returns every single-link K-entry: one occurrence per pair
// of pattern and source vectors with a consistent scale.
func FindS2(pattern, source *geometry.PointSet, p ChainParams) iter.Seq[Occurrence] {
	return findChains(settings.S2, pattern, source, p, scaledKeys)
}

// FindW1 reports time-warped occurrences of the whole pattern.
func FindW1(pattern, source *geometry.PointSet, p ChainParams) iter.Seq[Occurrence] {
	return findExact(settings.W1, pattern, source, p, warpedKeys)
}

// FindW2 reports time-warped occurrences of at least p.Threshold pattern
// points. As with FindS2, a threshold of 2 returns every single-link
// K-entry, which for W2 means every windowed pattern vector paired with
// every windowed source vector of the same interval.
func FindW2(pattern, source *geometry.PointSet, p ChainParams) iter.Seq[Occurrence] {
	return findChains(settings.W2, pattern, source, p, warpedKeys)
}

func findExact(alg settings.Algorithm, pattern, source *geometry.PointSet, p ChainParams, keys keyFuncs) iter.Seq[Occurrence] {
	if pattern.Len() > source.Len() {
		return empty
	}
	p.Threshold = pattern.Len()
	p.PatternWindow = 1
	return findChains(alg, pattern, source, p, keys)
}

func findChains(alg settings.Algorithm, pattern, source *geometry.PointSet, p ChainParams, keys keyFuncs) iter.Seq[Occurrence] {
	if pattern.Len() < 2 || source.Len() < 2 {
		return empty
	}
	interval := p.Interval
	if interval == nil {
		interval = geometry.Semitones
	}
	threshold := max(p.Threshold, 2)
	want, fixed := geometry.Rat{}, false
	if alg.Scaled() {
		want, fixed = p.Scale.Ratio()
	}

	return func(yield func(Occurrence) bool) {
		t := buildKTable(pattern, source, p.PatternWindow, p.SourceWindow, interval, keys)
		id := 0
		t.sweep(func(idx int) bool {
			e := &t.arena[idx]
			if e.w+1 < threshold {
				return true
			}
			if fixed && !e.scale.Equal(want) {
				return true
			}
			occ := t.occurrence(idx, alg, pattern, source, interval)
			occ.ID = id
			id++
			return yield(occ)
		})
	}
}

// occurrence rebuilds the matched pairs of the chain ending at idx.
func (t *kTable) occurrence(idx int, alg settings.Algorithm, pattern, source *geometry.PointSet, interval geometry.IntervalFunc) Occurrence {
	links := t.chain(idx)
	first := &t.arena[links[0]]
	occ := Occurrence{
		Algorithm: alg,
		Pairs:     make([]Pair, 0, len(links)+1),
		Links:     make([]Link, 0, len(links)),
	}
	occ.Pairs = append(occ.Pairs, Pair{PatternIndex: first.pv.Start, SourceIndex: first.sv.Start})
	for _, li := range links {
		e := &t.arena[li]
		occ.Pairs = append(occ.Pairs, Pair{PatternIndex: e.pv.End, SourceIndex: e.sv.End})
		occ.Links = append(occ.Links, Link{Pattern: e.pv, Source: e.sv, Scale: e.scale})
	}
	occ.Shift = shiftOf(pattern, source, occ.Pairs[0], interval)
	if alg.Scaled() {
		occ.Scale = first.scale
		occ.HasScale = true
	}
	return occ
}
