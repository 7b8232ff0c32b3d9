package algorithms

import (
	"iter"

	"github.com/himanishpuri/MelodicDNA/internal/geometry"
	"github.com/himanishpuri/MelodicDNA/internal/settings"
)

// overlapBucket tracks, for one vertical translation, the matched duration
// as a piecewise linear function of the horizontal translation.
type overlapBucket struct {
	value geometry.Rat
	slope int64
	lastX geometry.Rat
	best  geometry.Rat
	pairs []Pair
}

func (b *overlapBucket) open(p Pair) { b.pairs = append(b.pairs, p) }

func (b *overlapBucket) close(p Pair) {
	for i, q := range b.pairs {
		if q == p {
			b.pairs = append(b.pairs[:i], b.pairs[i+1:]...)
			return
		}
	}
	panic("algorithms: closing a matching pair that was never opened")
}

// FindP3 sweeps the four turning points of every (pattern, source) note pair
// in (x, y, type) order and reports, per vertical translation, each
// translation whose total overlapping duration beats the best seen so far
// for that vertical translation. Only candidates whose overlap reaches
// ratio times the total pattern duration are reported.
func FindP3(pattern, source *geometry.PointSet, ratio float64, interval geometry.IntervalFunc) iter.Seq[Occurrence] {
	if pattern.Len() == 0 || source.Len() == 0 {
		return empty
	}
	minOverlap := ratio * pattern.TotalDuration().Float64()
	return func(yield func(Occurrence) bool) {
		cursors := make([]*geometry.InterCursor, 0, 4*pattern.Len())
		for i := 0; i < pattern.Len(); i++ {
			for t := geometry.SourceOnsetPatternOffset; t <= geometry.SourceOffsetPatternOnset; t++ {
				cursors = append(cursors, geometry.NewInterCursor(pattern.At(i), i, source, t, interval))
			}
		}
		q := newCursorQueue(cursors)
		buckets := make(map[int]*overlapBucket)
		id := 0

		for q.Len() > 0 {
			c := q.popOne()
			tp, _ := c.Next()
			q.push(c)

			b, ok := buckets[tp.Y]
			if !ok {
				b = &overlapBucket{lastX: tp.X}
				buckets[tp.Y] = b
			}
			b.value = b.value.Add(tp.X.Sub(b.lastX).MulInt(b.slope))
			b.lastX = tp.X

			// the value at tp.X is final before this turning point changes
			// the slope or the active pairs
			if b.value.Cmp(b.best) > 0 {
				b.best = b.value
				if b.value.Float64() >= minOverlap-1e-12 {
					occ := Occurrence{
						ID:        id,
						Algorithm: settings.P3,
						Pairs:     overlappingPairs(pattern, source, b.pairs, tp.X),
						Shift:     geometry.Translation{X: tp.X.Canon(), Y: tp.Y},
						Overlap:   b.value.Canon(),
					}
					id++
					if !yield(occ) {
						return
					}
				}
			}

			pr := Pair{PatternIndex: tp.PatternIndex, SourceIndex: tp.SourceIndex}
			switch tp.Type {
			case geometry.SourceOnsetPatternOffset:
				b.slope++
				b.open(pr)
			case geometry.SourceOffsetPatternOnset:
				b.slope++
				b.close(pr)
			default:
				b.slope--
			}
		}
	}
}

// overlappingPairs keeps the active pairs that overlap for a positive
// duration when the pattern is shifted by x.
func overlappingPairs(pattern, source *geometry.PointSet, active []Pair, x geometry.Rat) []Pair {
	out := make([]Pair, 0, len(active))
	for _, pr := range active {
		p := pattern.At(pr.PatternIndex)
		s := source.At(pr.SourceIndex)
		start := p.Onset.Add(x)
		if s.Onset.Cmp(start) > 0 {
			start = s.Onset
		}
		end := p.Offset().Add(x)
		if s.Offset().Cmp(end) < 0 {
			end = s.Offset()
		}
		if end.Cmp(start) > 0 {
			out = append(out, pr)
		}
	}
	sortPairs(out)
	return out
}
