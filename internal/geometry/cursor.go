package geometry

import "sort"

// InterCursor lazily walks the inter-set vectors from one pattern point to
// every source point, for a fixed turning point type, in ascending (x, y)
// order. It holds the next unconsumed vector so callers can peek without
// consuming and put a cursor back into a queue untouched.
//
// Source points are visited in onset or offset order depending on the type,
// which already yields ascending x. Points sharing an x are buffered as one
// run and sorted by y, so non-monotone interval functions (mod 12) still
// produce a sorted stream.
type InterCursor struct {
	pattern      Point
	patternIndex int
	source       *PointSet
	typ          TurningPoint
	interval     IntervalFunc

	order []int
	pos   int
	run   []InterVector
}

// NewInterCursor returns a cursor over vectors from pattern point p (index
// pi in its own set) to every point of source.
func NewInterCursor(p Point, pi int, source *PointSet, t TurningPoint, interval IntervalFunc) *InterCursor {
	order := source.OnsetOrder()
	if t.UsesSourceOffset() {
		order = source.OffsetOrder()
	}
	return &InterCursor{
		pattern:      p,
		patternIndex: pi,
		source:       source,
		typ:          t,
		interval:     interval,
		order:        order,
	}
}

// PatternIndex is the index of the cursor's pattern point.
func (c *InterCursor) PatternIndex() int { return c.patternIndex }

// Type is the cursor's turning point type.
func (c *InterCursor) Type() TurningPoint { return c.typ }

// Peek returns the next vector without consuming it.
func (c *InterCursor) Peek() (InterVector, bool) {
	if len(c.run) == 0 && !c.refill() {
		return InterVector{}, false
	}
	return c.run[0], true
}

// Next consumes and returns the next vector.
func (c *InterCursor) Next() (InterVector, bool) {
	v, ok := c.Peek()
	if ok {
		c.run = c.run[1:]
	}
	return v, ok
}

// Exhausted reports whether no vectors remain.
func (c *InterCursor) Exhausted() bool {
	_, ok := c.Peek()
	return !ok
}

// refill loads the next run of source points sharing the same x.
func (c *InterCursor) refill() bool {
	if c.pos >= len(c.order) {
		return false
	}
	c.run = c.run[:0]
	first := NewInterVector(c.pattern, c.patternIndex, c.source.At(c.order[c.pos]), c.order[c.pos], c.typ, c.interval)
	c.run = append(c.run, first)
	c.pos++
	for c.pos < len(c.order) {
		v := NewInterVector(c.pattern, c.patternIndex, c.source.At(c.order[c.pos]), c.order[c.pos], c.typ, c.interval)
		if v.X.Cmp(first.X) != 0 {
			break
		}
		c.run = append(c.run, v)
		c.pos++
	}
	if len(c.run) > 1 {
		sort.SliceStable(c.run, func(i, j int) bool { return c.run[i].Y < c.run[j].Y })
	}
	return true
}

// InterVectors materializes every vector of the given type from p to the
// source, in cursor order.
func InterVectors(p Point, pi int, source *PointSet, t TurningPoint, interval IntervalFunc) []InterVector {
	c := NewInterCursor(p, pi, source, t, interval)
	out := make([]InterVector, 0, source.Len())
	for {
		v, ok := c.Next()
		if !ok {
			return out
		}
		out = append(out, v)
	}
}
