package algorithms

import (
	"iter"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/himanishpuri/MelodicDNA/internal/geometry"
	"github.com/himanishpuri/MelodicDNA/internal/settings"
)

type note struct {
	onset int64
	pitch int
}

type chainFinder func(pattern, source *geometry.PointSet, p ChainParams) iter.Seq[Occurrence]

func set(notes ...note) *geometry.PointSet {
	raw := make([]geometry.Point, len(notes))
	for i, n := range notes {
		raw[i] = geometry.NewPoint(geometry.Int(n.onset), n.pitch, geometry.Int(1))
	}
	return geometry.NewPointSet(raw)
}

// motif admits a single chain against itself or any transposition of
// itself.
func motif() *geometry.PointSet {
	return set(note{0, 60}, note{1, 62}, note{2, 64}, note{4, 65})
}

func shifts(occs []Occurrence) []geometry.Translation {
	out := make([]geometry.Translation, len(occs))
	for i, o := range occs {
		out[i] = o.Shift
	}
	return out
}

func tr(x int64, y int) geometry.Translation {
	return geometry.Translation{X: geometry.Int(x), Y: y}
}

func run(t *testing.T, pattern, source *geometry.PointSet, s settings.Settings) []Occurrence {
	t.Helper()
	seq, _, err := Find(pattern, source, s)
	require.NoError(t, err)
	return Collect(seq, 0)
}

func withAlgorithm(a settings.Algorithm) settings.Settings {
	s := settings.Default()
	s.Algorithm = a
	return s
}

func TestP1RepeatedTransposedMotif(t *testing.T) {
	pattern := set(note{0, 48}, note{4, 60}, note{8, 59})
	source := set(
		note{0, 48}, note{4, 60}, note{8, 59},
		note{9, 53}, note{13, 65}, note{17, 64},
		note{18, 45}, note{22, 57}, note{26, 56},
	)

	occs := Collect(FindP1(pattern, source, geometry.Semitones), 0)
	require.Len(t, occs, 3)
	assert.Equal(t, []geometry.Translation{tr(0, 0), tr(9, 5), tr(18, -3)}, shifts(occs))
	assert.Equal(t, []int{3, 4, 5}, occs[1].SourceIndices())
	for i, o := range occs {
		assert.Equal(t, i, o.ID)
		assert.Equal(t, settings.P1, o.Algorithm)
		assert.True(t, o.HasScale)
		assert.Equal(t, geometry.Int(1), o.Scale)
	}
}

func TestP2MissingMiddleNote(t *testing.T) {
	pattern := set(note{0, 60}, note{1, 62}, note{2, 64})
	source := set(note{0, 60}, note{2, 64})

	occs := Collect(FindP2(pattern, source, 2, geometry.Semitones), 0)
	require.Len(t, occs, 1)
	assert.Equal(t, tr(0, 0), occs[0].Shift)
	assert.Equal(t, 2, occs[0].Len())
	assert.Equal(t, []Pair{{0, 0}, {2, 1}}, occs[0].Pairs)

	assert.Empty(t, Collect(FindP1(pattern, source, geometry.Semitones), 0))
}

func TestP2AscendingTranslations(t *testing.T) {
	pattern := set(note{0, 60}, note{1, 62})
	source := set(note{0, 60}, note{1, 62}, note{5, 60}, note{6, 62})

	occs := Collect(FindP2(pattern, source, 1, geometry.Semitones), 0)
	require.NotEmpty(t, occs)
	for i := 1; i < len(occs); i++ {
		assert.Negative(t, geometry.CompareXY(occs[i-1].Shift, occs[i].Shift))
	}

	full := Collect(FindP2(pattern, source, 2, geometry.Semitones), 0)
	assert.Equal(t, []geometry.Translation{tr(0, 0), tr(5, 0)}, shifts(full))
}

func TestIdentity(t *testing.T) {
	pattern := motif()
	for _, alg := range []settings.Algorithm{settings.P1, settings.P2, settings.S1, settings.S2, settings.W1, settings.W2} {
		t.Run(alg.String(), func(t *testing.T) {
			occs := run(t, pattern, pattern, withAlgorithm(alg))
			require.Len(t, occs, 1)
			assert.Equal(t, tr(0, 0), occs[0].Shift)
			assert.Equal(t, pattern.Len(), occs[0].Len())
			assert.Equal(t, alg, occs[0].Algorithm)
		})
	}
}

func TestP3Identity(t *testing.T) {
	pattern := motif()
	occs := run(t, pattern, pattern, withAlgorithm(settings.P3))
	require.Len(t, occs, 1)
	assert.Equal(t, tr(0, 0), occs[0].Shift)
	assert.Equal(t, pattern.TotalDuration(), occs[0].Overlap)
	assert.Equal(t, []Pair{{0, 0}, {1, 1}, {2, 2}, {3, 3}}, occs[0].Pairs)
}

func TestP3PartialOverlap(t *testing.T) {
	pattern := geometry.NewPointSet([]geometry.Point{
		geometry.NewPoint(geometry.Int(0), 60, geometry.Int(2)),
	})
	source := geometry.NewPointSet([]geometry.Point{
		geometry.NewPoint(geometry.Int(1), 60, geometry.Int(2)),
	})

	occs := Collect(FindP3(pattern, source, 1, geometry.Semitones), 0)
	require.Len(t, occs, 1)
	assert.Equal(t, tr(1, 0), occs[0].Shift)
	assert.Equal(t, geometry.Int(2), occs[0].Overlap)
	assert.Equal(t, []Pair{{0, 0}}, occs[0].Pairs)
}

func TestP3Sweep(t *testing.T) {
	// the last source note is a semitone off, so no shift covers the whole
	// pattern and the best overlap is 2 of 3
	pattern := set(note{0, 60}, note{1, 62}, note{2, 64})
	source := set(note{10, 60}, note{11, 62}, note{11, 64}, note{12, 65})

	type hit struct {
		shift   geometry.Translation
		overlap int64
		pairs   []Pair
	}
	all := []hit{
		{tr(8, -4), 1, []Pair{{2, 0}}},
		{tr(9, -2), 2, []Pair{{1, 0}, {2, 1}}},
		{tr(9, 0), 1, []Pair{{2, 2}}},
		// (2,2) only touches at the boundary once the shift reaches 10
		{tr(10, 0), 2, []Pair{{0, 0}, {1, 1}}},
		{tr(10, 1), 1, []Pair{{2, 3}}},
		{tr(10, 2), 1, []Pair{{1, 2}}},
		{tr(11, 3), 1, []Pair{{1, 3}}},
		{tr(11, 4), 1, []Pair{{0, 2}}},
		{tr(12, 5), 1, []Pair{{0, 3}}},
	}

	tests := []struct {
		name  string
		ratio float64
		want  []hit
	}{
		{"any overlap", 0, all},
		{"one third", 1.0 / 3.0, all},
		{"half", 0.5, []hit{all[1], all[3]}},
		{"whole pattern", 1, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			occs := Collect(FindP3(pattern, source, tt.ratio, geometry.Semitones), 0)
			got := make([]hit, len(occs))
			for i, o := range occs {
				assert.Equal(t, i, o.ID)
				assert.Equal(t, settings.P3, o.Algorithm)
				got[i] = hit{o.Shift, o.Overlap.Num(), o.Pairs}
				assert.Equal(t, int64(1), o.Overlap.Den())
			}
			if len(tt.want) == 0 {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestP3ThresholdFraction(t *testing.T) {
	pattern := set(note{0, 60}, note{1, 62}, note{2, 64})
	source := set(note{10, 60}, note{11, 62}, note{11, 64}, note{12, 65})

	s, err := settings.Parse(map[string]string{"algorithm": "P3", "threshold": "0.5"})
	require.NoError(t, err)
	occs := run(t, pattern, source, s)
	assert.Equal(t, []geometry.Translation{tr(9, -2), tr(10, 0)}, shifts(occs))
	for _, o := range occs {
		assert.Equal(t, geometry.Int(2), o.Overlap)
	}
}

func TestP1RepeatedFirstPointTranslation(t *testing.T) {
	pattern := set(note{0, 60}, note{1, 62})

	// 60 and 72 give the first pattern point the same octave-folded
	// translation: each is its own occurrence, sharing the second partner
	source := set(note{0, 60}, note{0, 72}, note{1, 62})
	occs := Collect(FindP1(pattern, source, geometry.SemitonesMod12), 0)
	require.Len(t, occs, 2)
	assert.Equal(t, []geometry.Translation{tr(0, 0), tr(0, 0)}, shifts(occs))
	assert.Equal(t, []Pair{{0, 0}, {1, 2}}, occs[0].Pairs)
	assert.Equal(t, []Pair{{0, 1}, {1, 2}}, occs[1].Pairs)

	occs = Collect(FindP1(pattern, source, geometry.Semitones), 0)
	require.Len(t, occs, 1)
	assert.Equal(t, []Pair{{0, 0}, {1, 2}}, occs[0].Pairs)

	// a repeated translation of a later pattern point is paired once, with
	// the lowest source point, and the cursor never comes back to it
	source = set(note{0, 60}, note{1, 62}, note{1, 74})
	occs = Collect(FindP1(pattern, source, geometry.SemitonesMod12), 0)
	require.Len(t, occs, 1)
	assert.Equal(t, tr(0, 0), occs[0].Shift)
	assert.Equal(t, []Pair{{0, 0}, {1, 1}}, occs[0].Pairs)
}

func TestThresholdTwoReportsEverySingleLink(t *testing.T) {
	pattern := set(note{0, 60}, note{1, 62}, note{2, 64})
	params := ChainParams{Threshold: 2, PatternWindow: 1, SourceWindow: 1, Scale: settings.AnyScale(), Interval: geometry.Semitones}

	for name, find := range map[string]chainFinder{"S2": FindS2, "W2": FindW2} {
		// two pattern vectors times two source vectors, plus the one
		// extension to the full pattern
		occs := Collect(find(pattern, pattern, params), 0)
		require.Len(t, occs, 5, name)
		single := 0
		for _, o := range occs {
			if len(o.Links) == 1 {
				single++
			}
		}
		assert.Equal(t, 4, single, name)

		params3 := params
		params3.Threshold = 3
		occs = Collect(find(pattern, pattern, params3), 0)
		require.Len(t, occs, 1, name)
		assert.Equal(t, []Pair{{0, 0}, {1, 1}, {2, 2}}, occs[0].Pairs, name)
	}
}

func TestTranspositionInvariance(t *testing.T) {
	pattern := motif()
	for _, dy := range []int{-7, 0, 3, 12} {
		source := pattern.Transposed(geometry.Rat{}, dy)
		for _, alg := range []settings.Algorithm{settings.P1, settings.S1, settings.W1} {
			occs := run(t, pattern, source, withAlgorithm(alg))
			require.Len(t, occs, 1, "%v transposed by %d", alg, dy)
			assert.Equal(t, tr(0, dy), occs[0].Shift)
		}
	}
}

func TestScaledOccurrence(t *testing.T) {
	pattern := set(note{0, 60}, note{1, 62}, note{2, 64}, note{3, 65})
	source := set(note{0, 60}, note{2, 62}, note{4, 64}, note{6, 65})

	s := withAlgorithm(settings.S1)
	assert.Empty(t, run(t, pattern, source, s), "pure scale must reject a doubled tempo")

	s.Scale = settings.AnyScale()
	occs := run(t, pattern, source, s)
	require.Len(t, occs, 1)
	assert.True(t, occs[0].HasScale)
	assert.Equal(t, geometry.Int(2), occs[0].Scale)
	for _, ls := range occs[0].LinkScales() {
		assert.Equal(t, occs[0].Scale, ls)
	}

	s.Scale = settings.FixedScale(geometry.Int(2))
	assert.Len(t, run(t, pattern, source, s), 1)
	s.Scale = settings.FixedScale(geometry.NewRat(1, 2))
	assert.Empty(t, run(t, pattern, source, s))
}

func TestWarpedOccurrence(t *testing.T) {
	pattern := set(note{0, 60}, note{1, 62}, note{2, 64}, note{3, 65})
	source := set(note{0, 60}, note{1, 62}, note{3, 64}, note{7, 65})

	s := withAlgorithm(settings.S1)
	s.Scale = settings.AnyScale()
	assert.Empty(t, run(t, pattern, source, s))

	occs := run(t, pattern, source, withAlgorithm(settings.W1))
	require.Len(t, occs, 1)
	assert.False(t, occs[0].HasScale)
	assert.Equal(t, []geometry.Rat{geometry.Int(1), geometry.Int(2), geometry.Int(4)}, occs[0].LinkScales())
}

func TestScaleConsistency(t *testing.T) {
	pattern := set(note{0, 60}, note{1, 62}, note{2, 64}, note{3, 62})
	source := set(
		note{0, 60}, note{1, 62}, note{2, 64}, note{3, 62},
		note{6, 60}, note{8, 62}, note{10, 64}, note{12, 62},
		note{14, 60}, note{15, 62}, note{17, 64},
	)
	params := ChainParams{Threshold: 2, PatternWindow: 2, SourceWindow: 3, Scale: settings.AnyScale(), Interval: geometry.Semitones}

	occs := Collect(FindS2(pattern, source, params), 0)
	require.NotEmpty(t, occs)
	for _, o := range occs {
		for _, ls := range o.LinkScales() {
			assert.Equal(t, o.Scale, ls)
		}
	}
}

func TestChainLength(t *testing.T) {
	pattern := set(note{0, 60}, note{1, 62}, note{2, 64}, note{3, 62})
	source := set(
		note{0, 60}, note{1, 62}, note{2, 64}, note{3, 62},
		note{5, 60}, note{6, 62}, note{8, 64}, note{9, 62},
	)
	params := ChainParams{Threshold: 3, PatternWindow: 2, SourceWindow: 4, Scale: settings.AnyScale(), Interval: geometry.Semitones}

	for name, find := range map[string]chainFinder{
		"S1": FindS1, "W1": FindW1,
	} {
		occs := Collect(find(pattern, source, params), 0)
		require.NotEmpty(t, occs, name)
		for _, o := range occs {
			assert.Equal(t, pattern.Len(), o.Len(), name)
			assert.Equal(t, o.Len()-1, len(o.Links), name)
		}
	}
	for name, find := range map[string]chainFinder{
		"S2": FindS2, "W2": FindW2,
	} {
		occs := Collect(find(pattern, source, params), 0)
		require.NotEmpty(t, occs, name)
		for _, o := range occs {
			assert.GreaterOrEqual(t, o.Len(), params.Threshold, name)
			for i := 1; i < len(o.Pairs); i++ {
				assert.Less(t, o.Pairs[i-1].PatternIndex, o.Pairs[i].PatternIndex, name)
			}
		}
	}
}

func TestWindowMonotonicity(t *testing.T) {
	pattern := set(note{0, 60}, note{1, 62}, note{2, 64}, note{3, 62})
	source := set(
		note{0, 60}, note{1, 62}, note{2, 64}, note{3, 62},
		note{5, 60}, note{7, 62}, note{9, 64}, note{10, 65},
		note{12, 64}, note{13, 62},
	)
	windows := [][2]int{{1, 1}, {1, 3}, {2, 3}, {3, 6}}

	for name, find := range map[string]chainFinder{
		"S2": FindS2, "W2": FindW2,
	} {
		prev := 0
		for _, w := range windows {
			params := ChainParams{Threshold: 2, PatternWindow: w[0], SourceWindow: w[1], Scale: settings.AnyScale(), Interval: geometry.Semitones}
			n := len(Collect(find(pattern, source, params), 0))
			assert.GreaterOrEqual(t, n, prev, "%s windows %v", name, w)
			prev = n
		}
		assert.Positive(t, prev, name)
	}
}

func TestBacklinkRoundTrip(t *testing.T) {
	pattern := set(note{0, 60}, note{1, 62}, note{2, 64}, note{3, 62})
	source := set(
		note{0, 60}, note{1, 62}, note{2, 64}, note{3, 62},
		note{4, 60}, note{6, 62}, note{8, 64}, note{10, 62},
	)

	for _, keys := range []keyFuncs{scaledKeys, warpedKeys} {
		table := buildKTable(pattern, source, 2, 4, geometry.Semitones, keys)
		var ends []int
		table.sweep(func(idx int) bool {
			ends = append(ends, idx)
			return true
		})
		require.NotEmpty(t, ends)

		for _, idx := range ends {
			links := table.chain(idx)
			require.Len(t, links, table.arena[idx].w)
			for i, li := range links {
				e := table.arena[li]
				assert.Equal(t, e.pv, rederive(pattern, e.pv.Start, e.pv.End))
				assert.Equal(t, e.sv, rederive(source, e.sv.Start, e.sv.End))
				if i > 0 {
					prev := table.arena[links[i-1]]
					assert.Equal(t, prev.pv.End, e.pv.Start)
					assert.Equal(t, prev.sv.End, e.sv.Start)
				}
			}
		}
	}
}

func rederive(ps *geometry.PointSet, start, end int) geometry.IntraVector {
	from, to := ps.At(start), ps.At(end)
	return geometry.IntraVector{
		X:     to.Onset.Sub(from.Onset),
		Y:     geometry.Semitones(from, to),
		Start: start,
		End:   end,
	}
}

func TestEntryScale(t *testing.T) {
	zero := geometry.IntraVector{}
	one := geometry.IntraVector{X: geometry.Int(1)}
	three := geometry.IntraVector{X: geometry.Int(3)}

	s, ok := entryScale(zero, zero)
	require.True(t, ok)
	assert.Equal(t, geometry.Int(1), s)

	_, ok = entryScale(zero, one)
	assert.False(t, ok)
	_, ok = entryScale(one, zero)
	assert.False(t, ok)

	s, ok = entryScale(three, one)
	require.True(t, ok)
	assert.Equal(t, geometry.NewRat(1, 3), s)
}

func TestDegenerateInputs(t *testing.T) {
	none := geometry.NewPointSet(nil)
	pattern := motif()
	short := set(note{0, 60}, note{1, 62})
	single := set(note{0, 60})

	for _, alg := range []settings.Algorithm{settings.P1, settings.P2, settings.P3, settings.S1, settings.S2, settings.W1, settings.W2} {
		t.Run(alg.String(), func(t *testing.T) {
			assert.Empty(t, run(t, none, pattern, withAlgorithm(alg)))
			assert.Empty(t, run(t, pattern, none, withAlgorithm(alg)))
			if alg.Exact() {
				assert.Empty(t, run(t, pattern, short, withAlgorithm(alg)))
			}
			if alg.Chained() {
				assert.Empty(t, run(t, single, pattern, withAlgorithm(alg)))
			}
		})
	}
}

func TestOctaveEquivalentInterval(t *testing.T) {
	pattern := set(note{0, 60}, note{1, 64})
	source := set(note{0, 60}, note{1, 76})

	assert.Empty(t, Collect(FindP1(pattern, source, geometry.Semitones), 0))

	occs := Collect(FindP1(pattern, source, geometry.SemitonesMod12), 0)
	require.Len(t, occs, 1)
	assert.Equal(t, tr(0, 0), occs[0].Shift)
}

func TestFindSelectsAlgorithm(t *testing.T) {
	pattern := motif()

	_, alg, err := Find(pattern, pattern, settings.Default())
	require.NoError(t, err)
	assert.Equal(t, settings.P1, alg)

	s := settings.Default()
	s.Scale = settings.Warped()
	s.Threshold = settings.AtLeast(2)
	_, alg, err = Find(pattern, pattern, s)
	require.NoError(t, err)
	assert.Equal(t, settings.W2, alg)

	s = settings.Default()
	s.PatternWindow = 0
	_, _, err = Find(pattern, pattern, s)
	require.ErrorIs(t, err, settings.ErrValidation)
}

func TestCollectLimit(t *testing.T) {
	pattern := set(note{0, 60})
	source := set(note{0, 60}, note{1, 60}, note{2, 60}, note{3, 60})

	assert.Len(t, Collect(FindP2(pattern, source, 1, geometry.Semitones), 0), 4)
	assert.Len(t, Collect(FindP2(pattern, source, 1, geometry.Semitones), 2), 2)
}
