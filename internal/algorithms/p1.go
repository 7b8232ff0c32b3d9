package algorithms

import (
	"iter"

	"github.com/himanishpuri/MelodicDNA/internal/geometry"
	"github.com/himanishpuri/MelodicDNA/internal/settings"
)

// onsetCursors returns one onset-onset cursor per pattern point.
func onsetCursors(pattern, source *geometry.PointSet, interval geometry.IntervalFunc) []*geometry.InterCursor {
	cursors := make([]*geometry.InterCursor, pattern.Len())
	for i := range cursors {
		cursors[i] = geometry.NewInterCursor(pattern.At(i), i, source, geometry.SourceOnsetPatternOnset, interval)
	}
	return cursors
}

// FindP1 reports every translation (in time and pitch) that maps the whole
// pattern onto source points, in ascending (x, y) order.
//
// Candidate translations come from the first pattern point. The other
// cursors only move forward: they are never rewound between candidates,
// which keeps the sweep near-linear. Candidates arrive in ascending order,
// so a cursor only skips translations no later candidate can use. When a
// folding interval such as SemitonesMod12 gives the first pattern point the
// same translation to several source points, each of them is reported as
// its own occurrence. A later pattern point with several source points at
// the candidate translation is paired with the first of them only.
func FindP1(pattern, source *geometry.PointSet, interval geometry.IntervalFunc) iter.Seq[Occurrence] {
	if pattern.Len() == 0 || source.Len() == 0 || pattern.Len() > source.Len() {
		return empty
	}
	return func(yield func(Occurrence) bool) {
		cursors := onsetCursors(pattern, source, interval)
		first := cursors[0]
		id := 0
	candidates:
		for {
			v, ok := first.Next()
			if !ok {
				return
			}
			s := v.Translation()
			matched := make([]geometry.InterVector, 1, len(cursors))
			matched[0] = v
			for _, c := range cursors[1:] {
				for {
					peek, ok := c.Peek()
					if !ok {
						// an exhausted cursor rejects this and every later candidate
						return
					}
					if geometry.CompareXY(peek.Translation(), s) >= 0 {
						break
					}
					c.Next()
				}
				peek, _ := c.Peek()
				if geometry.CompareXY(peek.Translation(), s) != 0 {
					continue candidates
				}
				matched = append(matched, peek)
			}
			occ := Occurrence{
				ID:        id,
				Algorithm: settings.P1,
				Pairs:     pairsFromVectors(matched),
				Shift:     s,
				Scale:     geometry.Int(1),
				HasScale:  true,
			}
			id++
			if !yield(occ) {
				return
			}
		}
	}
}
