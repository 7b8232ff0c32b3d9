package algorithms

import (
	"iter"

	"github.com/himanishpuri/MelodicDNA/internal/geometry"
	"github.com/himanishpuri/MelodicDNA/internal/settings"
)

// FindP2 reports every translation that maps at least threshold pattern
// points onto source points, in ascending (x, y) order. The multiplicity of
// a translation is the number of pairs in the occurrence.
func FindP2(pattern, source *geometry.PointSet, threshold int, interval geometry.IntervalFunc) iter.Seq[Occurrence] {
	if pattern.Len() == 0 || source.Len() == 0 {
		return empty
	}
	threshold = max(threshold, 1)
	return func(yield func(Occurrence) bool) {
		q := newCursorQueue(onsetCursors(pattern, source, interval))
		id := 0
		for q.Len() > 0 {
			group := q.popGroup()
			matched := make([]geometry.InterVector, 0, len(group))
			for _, c := range group {
				v, _ := c.Next()
				matched = append(matched, v)
				q.push(c)
			}
			if len(matched) < threshold {
				continue
			}
			occ := Occurrence{
				ID:        id,
				Algorithm: settings.P2,
				Pairs:     pairsFromVectors(matched),
				Shift:     matched[0].Translation(),
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
