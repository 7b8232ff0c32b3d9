package geometry

import (
	"sort"
)

// PointSet is an immutable, sorted, duplicate-free sequence of points.
// The index of a point in the set is stable and is used by vectors and
// occurrences as a compact reference.
type PointSet struct {
	points   []Point
	byOffset bool

	// onset and offset order permutations over points, ascending by
	// (onset, pitch) and (offset, pitch) respectively.
	onsetOrder  []int
	offsetOrder []int

	index map[position]int
}

// PointSetOption configures NewPointSet.
type PointSetOption func(*PointSet)

// SortByOffset orders the set by (offset, pitch) instead of (onset, pitch).
func SortByOffset() PointSetOption {
	return func(ps *PointSet) { ps.byOffset = true }
}

// NewPointSet builds a point set from raw points. Points sharing the same
// (onset, pitch) are collapsed into one, keeping the longest duration and
// the first ID seen. An empty input yields an empty set.
func NewPointSet(raw []Point, opts ...PointSetOption) *PointSet {
	ps := &PointSet{}
	for _, opt := range opts {
		opt(ps)
	}

	seen := make(map[position]int, len(raw))
	points := make([]Point, 0, len(raw))
	for _, p := range raw {
		p.Onset = p.Onset.Canon()
		p.Duration = p.Duration.Canon()
		pos := p.position()
		if i, ok := seen[pos]; ok {
			if p.Duration.Cmp(points[i].Duration) > 0 {
				points[i].Duration = p.Duration
			}
			continue
		}
		seen[pos] = len(points)
		points = append(points, p)
	}

	if ps.byOffset {
		sort.SliceStable(points, func(i, j int) bool { return lessByOffset(points[i], points[j]) })
	} else {
		sort.SliceStable(points, func(i, j int) bool { return lessByOnset(points[i], points[j]) })
	}
	ps.points = points

	ps.index = make(map[position]int, len(points))
	for i, p := range points {
		ps.index[p.position()] = i
	}

	ps.onsetOrder = identity(len(points))
	ps.offsetOrder = identity(len(points))
	sort.SliceStable(ps.onsetOrder, func(i, j int) bool {
		return lessByOnset(points[ps.onsetOrder[i]], points[ps.onsetOrder[j]])
	})
	sort.SliceStable(ps.offsetOrder, func(i, j int) bool {
		return lessByOffset(points[ps.offsetOrder[i]], points[ps.offsetOrder[j]])
	})
	return ps
}

// Len returns the number of points.
func (ps *PointSet) Len() int {
	if ps == nil {
		return 0
	}
	return len(ps.points)
}

// At returns the point at index i.
func (ps *PointSet) At(i int) Point { return ps.points[i] }

// Points returns a copy of the points in set order.
func (ps *PointSet) Points() []Point {
	out := make([]Point, len(ps.points))
	copy(out, ps.points)
	return out
}

// IndexOf returns the index of the point at p's (onset, pitch) position.
func (ps *PointSet) IndexOf(p Point) (int, bool) {
	i, ok := ps.index[p.position()]
	return i, ok
}

// OnsetOrder returns set indices ascending by (onset, pitch).
func (ps *PointSet) OnsetOrder() []int { return ps.onsetOrder }

// OffsetOrder returns set indices ascending by (offset, pitch).
func (ps *PointSet) OffsetOrder() []int { return ps.offsetOrder }

// TotalDuration is the sum of all point durations.
func (ps *PointSet) TotalDuration() Rat {
	var total Rat
	for _, p := range ps.points {
		total = total.Add(p.Duration)
	}
	return total
}

// Transposed returns a new set with every point moved by (dx, dy).
func (ps *PointSet) Transposed(dx Rat, dy int) *PointSet {
	moved := make([]Point, len(ps.points))
	for i, p := range ps.points {
		p.Onset = p.Onset.Add(dx)
		p.Pitch += dy
		p.Spelled = false // spelling cannot be transposed without a key
		moved[i] = p
	}
	var opts []PointSetOption
	if ps.byOffset {
		opts = append(opts, SortByOffset())
	}
	return NewPointSet(moved, opts...)
}

func lessByOnset(a, b Point) bool {
	if c := a.Onset.Cmp(b.Onset); c != 0 {
		return c < 0
	}
	return a.Pitch < b.Pitch
}

func lessByOffset(a, b Point) bool {
	if c := a.Offset().Cmp(b.Offset()); c != 0 {
		return c < 0
	}
	return a.Pitch < b.Pitch
}

func identity(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}
