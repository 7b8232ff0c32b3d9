package geometry

import "fmt"

// IntraVector connects two points of the same set, always forward in set
// order: Start < End <= Start+window.
type IntraVector struct {
	X     Rat // onset(End) - onset(Start)
	Y     int // interval(Start, End)
	Start int
	End   int
}

// IntraVectors computes every forward vector of ps whose endpoints are at
// most window indices apart. A window of zero (or negative) is unbounded.
func IntraVectors(ps *PointSet, window int, interval IntervalFunc) []IntraVector {
	n := ps.Len()
	if n < 2 {
		return nil
	}
	if window <= 0 || window > n {
		window = n
	}
	out := make([]IntraVector, 0, n*min(window, n-1))
	for i := 0; i < n; i++ {
		from := ps.At(i)
		last := min(i+window, n-1)
		for j := i + 1; j <= last; j++ {
			to := ps.At(j)
			out = append(out, IntraVector{
				X:     to.Onset.Sub(from.Onset),
				Y:     interval(from, to),
				Start: i,
				End:   j,
			})
		}
	}
	return out
}

// TurningPoint selects which endpoints of a pattern note and a source note
// an inter-set vector connects.
type TurningPoint int

const (
	// SourceOnsetPatternOffset is source.onset - pattern.offset: overlap begins.
	SourceOnsetPatternOffset TurningPoint = iota
	// SourceOnsetPatternOnset is source.onset - pattern.onset: the translation
	// that aligns the two onsets.
	SourceOnsetPatternOnset
	// SourceOffsetPatternOffset is source.offset - pattern.offset.
	SourceOffsetPatternOffset
	// SourceOffsetPatternOnset is source.offset - pattern.onset: overlap ends.
	SourceOffsetPatternOnset
)

// UsesSourceOffset reports whether the x component is measured from the
// source note's offset.
func (t TurningPoint) UsesSourceOffset() bool {
	return t == SourceOffsetPatternOffset || t == SourceOffsetPatternOnset
}

// UsesPatternOffset reports whether the x component is measured from the
// pattern note's offset.
func (t TurningPoint) UsesPatternOffset() bool {
	return t == SourceOnsetPatternOffset || t == SourceOffsetPatternOffset
}

func (t TurningPoint) String() string {
	switch t {
	case SourceOnsetPatternOffset:
		return "onset-offset"
	case SourceOnsetPatternOnset:
		return "onset-onset"
	case SourceOffsetPatternOffset:
		return "offset-offset"
	case SourceOffsetPatternOnset:
		return "offset-onset"
	}
	return fmt.Sprintf("TurningPoint(%d)", int(t))
}

// InterVector connects a pattern point to a source point.
type InterVector struct {
	X            Rat
	Y            int
	PatternIndex int
	SourceIndex  int
	Type         TurningPoint
}

// NewInterVector computes the vector of the given type from pattern point p
// to source point s.
func NewInterVector(p Point, pi int, s Point, si int, t TurningPoint, interval IntervalFunc) InterVector {
	from := p.Onset
	if t.UsesPatternOffset() {
		from = p.Offset()
	}
	to := s.Onset
	if t.UsesSourceOffset() {
		to = s.Offset()
	}
	return InterVector{
		X:            to.Sub(from).Canon(),
		Y:            interval(p, s),
		PatternIndex: pi,
		SourceIndex:  si,
		Type:         t,
	}
}

// Translation is the (x, y) part of an inter-set vector.
type Translation struct {
	X Rat
	Y int
}

func (v InterVector) Translation() Translation { return Translation{X: v.X.Canon(), Y: v.Y} }

// CompareXY orders translations by x, then y.
func CompareXY(a, b Translation) int {
	if c := a.X.Cmp(b.X); c != 0 {
		return c
	}
	switch {
	case a.Y < b.Y:
		return -1
	case a.Y > b.Y:
		return 1
	}
	return 0
}

// Compare is the total order on inter-set vectors: (x, y, type).
func Compare(a, b InterVector) int {
	if c := CompareXY(a.Translation(), b.Translation()); c != 0 {
		return c
	}
	switch {
	case a.Type < b.Type:
		return -1
	case a.Type > b.Type:
		return 1
	}
	return 0
}
