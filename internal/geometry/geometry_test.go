package geometry

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pt(onset int64, pitch int) Point {
	return NewPoint(Int(onset), pitch, Int(1))
}

func TestRatArithmetic(t *testing.T) {
	a := NewRat(2, 4)
	assert.Equal(t, int64(1), a.Num())
	assert.Equal(t, int64(2), a.Den())

	b := NewRat(1, -3)
	assert.Equal(t, "-1/3", b.String())
	assert.Equal(t, "1/6", a.Add(b).String())
	assert.Equal(t, "5/6", a.Sub(b).String())
	assert.Equal(t, "-1/6", a.Mul(b).String())

	q, ok := a.Quo(b)
	require.True(t, ok)
	assert.Equal(t, "-3/2", q.String())

	_, ok = a.Quo(Rat{})
	assert.False(t, ok, "division by zero must report !ok")

	assert.Equal(t, 1, a.Cmp(b))
	assert.Equal(t, 0, Rat{}.Cmp(Int(0)))
	assert.True(t, Rat{}.Equal(Int(0)))
	assert.Equal(t, Int(0), Rat{}.Canon())
}

func TestParseRat(t *testing.T) {
	tests := []struct {
		in   string
		want string
		err  bool
	}{
		{"3", "3", false},
		{"-1/3", "-1/3", false},
		{"0.25", "1/4", false},
		{" 2.5 ", "5/2", false},
		{"3/1048576", "3/1048576", false},
		{"-2147483647.5", "-4294967295/2", false},
		{"", "", true},
		{"abc", "", true},
		{"0.0000000001", "", true},
		{"1/1048577", "", true},
		{"2147483648", "", true},
		{"1e30", "", true},
	}
	for _, tt := range tests {
		got, err := ParseRat(tt.in)
		if tt.err {
			assert.ErrorIs(t, err, ErrInvalidRat, "input %q", tt.in)
			continue
		}
		require.NoError(t, err, "input %q", tt.in)
		assert.Equal(t, tt.want, got.String())
	}
}

func TestRatFromFloat(t *testing.T) {
	third, err := RatFromFloat(1.0 / 3.0)
	require.NoError(t, err)
	assert.InDelta(t, 1.0/3.0, third.Float64(), 1e-6)
	assert.LessOrEqual(t, third.Den(), int64(MaxDen))

	for f, want := range map[float64]string{0.75: "3/4", -2: "-2", 0.5 / 1024: "1/2048"} {
		r, err := RatFromFloat(f)
		require.NoError(t, err)
		assert.Equal(t, want, r.String())
	}

	for _, f := range []float64{math.NaN(), math.Inf(1), 1e12} {
		_, err := RatFromFloat(f)
		assert.ErrorIs(t, err, ErrInvalidRat, "input %v", f)
	}
}

func TestRatArithmeticPastInt64(t *testing.T) {
	// denominators whose product overflows int64
	a := NewRat(1, 1<<40)
	b := NewRat(1, 3<<40)
	assert.Equal(t, NewRat(1, 3<<38), a.Add(b))
	assert.Equal(t, NewRat(1, 3<<39), a.Sub(b))
	assert.Equal(t, 1, a.Cmp(b))
	assert.Equal(t, -1, b.Cmp(a))

	q, ok := a.Quo(b)
	require.True(t, ok)
	assert.Equal(t, Int(3), q)
	assert.Equal(t, NewRat(1, 1<<20), NewRat(1<<30, 1).Mul(NewRat(1, 1<<50)))

	// numerators whose cross products overflow
	big1 := NewRat(math.MaxInt64/2, 1<<40)
	big2 := NewRat(math.MaxInt64/2-1, 1<<40)
	assert.Equal(t, 1, big1.Cmp(big2))
	assert.Equal(t, NewRat(1, 1<<40), big1.Sub(big2))

	assert.Equal(t, NewRat(math.MinInt64, 1), NewRat(math.MinInt64, 1).Add(Int(0)))
	assert.Equal(t, "-9223372036854775808", NewRat(math.MinInt64, 1).String())

	assert.PanicsWithError(t, "geometry: rational overflow: 9223372036854775808", func() {
		Int(math.MaxInt64).Add(Int(1))
	})
	assert.Panics(t, func() { Int(math.MaxInt64).MulInt(2) })
}

func TestRatSmallTimeDifferences(t *testing.T) {
	x, err := ParseRat("1/1048576")
	require.NoError(t, err)
	y, err := ParseRat("3/1048576")
	require.NoError(t, err)
	assert.Equal(t, "1/262144", x.Add(y).String())
	assert.Equal(t, "-1/524288", x.Sub(y).String())
	assert.Equal(t, -1, x.Cmp(y))
}

func TestNewPointSetSortsAndDeduplicates(t *testing.T) {
	raw := []Point{
		pt(4, 60),
		pt(0, 64),
		pt(0, 60),
		NewPoint(Int(4), 60, Int(3)), // same position, longer
	}
	ps := NewPointSet(raw)
	require.Equal(t, 3, ps.Len())
	assert.Equal(t, 60, ps.At(0).Pitch)
	assert.Equal(t, 64, ps.At(1).Pitch)
	assert.Equal(t, "3", ps.At(2).Duration.String())

	i, ok := ps.IndexOf(pt(0, 64))
	require.True(t, ok)
	assert.Equal(t, 1, i)

	_, ok = ps.IndexOf(pt(1, 64))
	assert.False(t, ok)
}

func TestNewPointSetByOffset(t *testing.T) {
	raw := []Point{
		NewPoint(Int(0), 60, Int(4)),
		NewPoint(Int(1), 62, Int(1)),
	}
	ps := NewPointSet(raw, SortByOffset())
	assert.Equal(t, 62, ps.At(0).Pitch)
	assert.Equal(t, []int{1, 0}, ps.OnsetOrder())
	assert.Equal(t, []int{0, 1}, ps.OffsetOrder())
}

func TestEmptyPointSet(t *testing.T) {
	ps := NewPointSet(nil)
	assert.Equal(t, 0, ps.Len())
	assert.Empty(t, IntraVectors(ps, 0, Semitones))
	assert.True(t, ps.TotalDuration().IsZero())
}

func TestIntraVectorsWindow(t *testing.T) {
	ps := NewPointSet([]Point{pt(0, 60), pt(1, 62), pt(2, 64), pt(3, 65)})

	all := IntraVectors(ps, 0, Semitones)
	assert.Len(t, all, 6)

	one := IntraVectors(ps, 1, Semitones)
	require.Len(t, one, 3)
	for _, v := range one {
		assert.Equal(t, 1, v.End-v.Start)
	}
	assert.Equal(t, IntraVector{X: Int(1), Y: 1, Start: 2, End: 3}, one[2])

	two := IntraVectors(ps, 2, Semitones)
	assert.Len(t, two, 5)
	for _, v := range two {
		assert.True(t, v.End > v.Start && v.End-v.Start <= 2)
	}
}

func TestIntervalFunctions(t *testing.T) {
	c4 := pt(0, 60)
	fs4 := pt(0, 66)
	b3 := pt(0, 59)

	assert.Equal(t, 6, Semitones(c4, fs4))
	assert.Equal(t, -1, Semitones(c4, b3))
	assert.Equal(t, 11, SemitonesMod12(c4, b3))
	assert.Equal(t, 3, Generic(c4, fs4)) // C -> F#
	assert.Equal(t, -1, Generic(c4, b3))

	spelled := c4
	spelled.Step, spelled.Spelled = 100, true
	assert.Equal(t, 100, spelled.DiatonicStep())

	f, ok := IntervalFuncByName("semitones-mod-12")
	require.True(t, ok)
	assert.Equal(t, 11, f(c4, b3))
	_, ok = IntervalFuncByName(IntervalCustom)
	assert.False(t, ok)
	assert.Contains(t, IntervalNames(), IntervalCustom)
}

func TestInterVectorTypes(t *testing.T) {
	p := NewPoint(Int(1), 60, Int(2)) // offset 3
	s := NewPoint(Int(10), 64, Int(4)) // offset 14

	want := map[TurningPoint]string{
		SourceOnsetPatternOffset:  "7",
		SourceOnsetPatternOnset:   "9",
		SourceOffsetPatternOffset: "11",
		SourceOffsetPatternOnset:  "13",
	}
	for typ, x := range want {
		v := NewInterVector(p, 0, s, 0, typ, Semitones)
		assert.Equal(t, x, v.X.String(), typ.String())
		assert.Equal(t, 4, v.Y)
	}
}

func TestInterCursorOrdersRunsByY(t *testing.T) {
	source := NewPointSet([]Point{pt(0, 72), pt(0, 61), pt(2, 50)})
	p := pt(0, 60)

	vs := InterVectors(p, 0, source, SourceOnsetPatternOnset, SemitonesMod12)
	require.Len(t, vs, 3)
	// 72-60 = 0 (mod 12) sorts before 61-60 = 1 although 61 precedes 72 in the set
	assert.Equal(t, 0, vs[0].Y)
	assert.Equal(t, 1, vs[1].Y)
	assert.Equal(t, "2", vs[2].X.String())
	for i := 1; i < len(vs); i++ {
		assert.LessOrEqual(t, CompareXY(vs[i-1].Translation(), vs[i].Translation()), 0)
	}
}

func TestInterCursorPeek(t *testing.T) {
	source := NewPointSet([]Point{pt(0, 60), pt(1, 62)})
	c := NewInterCursor(pt(0, 60), 0, source, SourceOnsetPatternOnset, Semitones)

	v1, ok := c.Peek()
	require.True(t, ok)
	v2, _ := c.Peek()
	assert.Equal(t, v1, v2, "peek must not consume")

	v3, ok := c.Next()
	require.True(t, ok)
	assert.Equal(t, v1, v3)
	_, _ = c.Next()
	assert.True(t, c.Exhausted())
}

func TestInterCursorOffsetOrder(t *testing.T) {
	source := NewPointSet([]Point{
		NewPoint(Int(0), 60, Int(8)), // offset 8
		NewPoint(Int(2), 62, Int(1)), // offset 3
	})
	vs := InterVectors(pt(0, 60), 0, source, SourceOffsetPatternOnset, Semitones)
	require.Len(t, vs, 2)
	assert.Equal(t, 1, vs[0].SourceIndex)
	assert.Equal(t, 0, vs[1].SourceIndex)
}

func TestTransposed(t *testing.T) {
	ps := NewPointSet([]Point{pt(0, 60), pt(1, 62)})
	moved := ps.Transposed(Int(5), -2)
	assert.Equal(t, "5", moved.At(0).Onset.String())
	assert.Equal(t, 58, moved.At(0).Pitch)
	assert.Equal(t, 60, moved.At(1).Pitch)
}
