package geometry

import (
	"errors"
	"fmt"
	"math"
	"math/big"
	"strings"
)

// ErrInvalidRat is returned when a string cannot be parsed as a rational
// number or the value falls outside MaxDen and MaxMagnitude.
var ErrInvalidRat = errors.New("geometry: invalid rational number")

// ErrRatOverflow is the panic value (wrapped) of arithmetic whose exact
// result no longer fits in 64 bits.
var ErrRatOverflow = errors.New("geometry: rational overflow")

// Bounds on parsed values. Arithmetic stays exact: intermediates that
// overflow int64 are recomputed with math/big.
const (
	MaxDen       = 1 << 20
	MaxMagnitude = 1 << 31
)

// Rat is an exact rational number kept in lowest terms with a positive
// denominator. Unlike big.Rat it is a comparable value type, so it can be
// used directly inside map keys (scales, turning point coordinates).
//
// The zero value is 0.
type Rat struct {
	num int64
	den int64 // 0 is treated as 1 so that the zero value is valid
}

// NewRat returns num/den reduced to lowest terms. It panics if den is zero.
func NewRat(num, den int64) Rat {
	if den == 0 {
		panic("geometry: rational with zero denominator")
	}
	if num == math.MinInt64 || den == math.MinInt64 {
		return fromBig(new(big.Rat).SetFrac64(num, den))
	}
	if den < 0 {
		num, den = -num, -den
	}
	g := gcd(abs64(num), den)
	if g > 1 {
		num /= g
		den /= g
	}
	return Rat{num: num, den: den}
}

// Int returns the rational n/1.
func Int(n int64) Rat {
	return Rat{num: n, den: 1}
}

// ParseRat parses "3", "-1/3", "0.25" or "2.5". Values whose reduced
// denominator exceeds MaxDen, or whose magnitude reaches MaxMagnitude, are
// rejected with ErrInvalidRat.
func ParseRat(s string) (Rat, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Rat{}, fmt.Errorf("%w: empty string", ErrInvalidRat)
	}
	var br big.Rat
	if _, ok := br.SetString(s); !ok {
		return Rat{}, fmt.Errorf("%w: %q", ErrInvalidRat, s)
	}
	return bounded(&br, s)
}

func bounded(br *big.Rat, s string) (Rat, error) {
	if br.Denom().Cmp(big.NewInt(MaxDen)) > 0 {
		return Rat{}, fmt.Errorf("%w: %q is finer than 1/%d", ErrInvalidRat, s, MaxDen)
	}
	if new(big.Rat).Abs(br).Cmp(new(big.Rat).SetInt64(MaxMagnitude)) >= 0 {
		return Rat{}, fmt.Errorf("%w: %q out of range", ErrInvalidRat, s)
	}
	return NewRat(br.Num().Int64(), br.Denom().Int64()), nil
}

// RatFromFloat converts f to a rational. Values that are exact with a
// denominator of at most MaxDen are kept exactly, anything finer is rounded
// to the nearest multiple of 1/MaxDen. It fails for NaN, infinities and
// magnitudes beyond MaxMagnitude.
func RatFromFloat(f float64) (Rat, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) >= MaxMagnitude {
		return Rat{}, fmt.Errorf("%w: %v out of range", ErrInvalidRat, f)
	}
	var br big.Rat
	br.SetFloat64(f)
	if br.Denom().Cmp(big.NewInt(MaxDen)) <= 0 {
		return NewRat(br.Num().Int64(), br.Denom().Int64()), nil
	}
	return NewRat(int64(math.Round(f*MaxDen)), MaxDen), nil
}

func (r Rat) Num() int64 { return r.num }

func (r Rat) Den() int64 {
	if r.den == 0 {
		return 1
	}
	return r.den
}

func (r Rat) Add(o Rat) Rat {
	a, ok1 := mul64(r.num, o.Den())
	b, ok2 := mul64(o.num, r.Den())
	d, ok3 := mul64(r.Den(), o.Den())
	n, ok4 := add64(a, b)
	if ok1 && ok2 && ok3 && ok4 {
		return NewRat(n, d)
	}
	return fromBig(new(big.Rat).Add(r.big(), o.big()))
}

func (r Rat) Sub(o Rat) Rat {
	return r.Add(o.neg())
}

func (r Rat) Mul(o Rat) Rat {
	n, ok1 := mul64(r.num, o.num)
	d, ok2 := mul64(r.Den(), o.Den())
	if ok1 && ok2 {
		return NewRat(n, d)
	}
	return fromBig(new(big.Rat).Mul(r.big(), o.big()))
}

// MulInt returns r*n.
func (r Rat) MulInt(n int64) Rat {
	if v, ok := mul64(r.num, n); ok {
		return NewRat(v, r.Den())
	}
	return fromBig(new(big.Rat).Mul(r.big(), new(big.Rat).SetInt64(n)))
}

// Quo returns r/o. ok is false when o is zero.
func (r Rat) Quo(o Rat) (q Rat, ok bool) {
	if o.num == 0 {
		return Rat{}, false
	}
	n, ok1 := mul64(r.num, o.Den())
	d, ok2 := mul64(r.Den(), o.num)
	if ok1 && ok2 {
		return NewRat(n, d), true
	}
	return fromBig(new(big.Rat).Quo(r.big(), o.big())), true
}

// Cmp returns -1, 0 or +1 depending on whether r is less than, equal to or
// greater than o.
func (r Rat) Cmp(o Rat) int {
	a, ok1 := mul64(r.num, o.Den())
	b, ok2 := mul64(o.num, r.Den())
	if !ok1 || !ok2 {
		return r.big().Cmp(o.big())
	}
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// Equal reports whether r and o denote the same number. The zero value and
// 0/1 are equal even though they differ structurally.
func (r Rat) Equal(o Rat) bool { return r.num == o.num && r.Den() == o.Den() }

func (r Rat) Sign() int {
	switch {
	case r.num < 0:
		return -1
	case r.num > 0:
		return 1
	}
	return 0
}

func (r Rat) IsZero() bool { return r.num == 0 }

// Canon returns r with an explicit denominator so that == on two Rats
// matches Equal.
func (r Rat) Canon() Rat { return Rat{num: r.num, den: r.Den()} }

func (r Rat) Float64() float64 {
	return float64(r.num) / float64(r.Den())
}

func (r Rat) String() string {
	if r.Den() == 1 {
		return fmt.Sprintf("%d", r.num)
	}
	return fmt.Sprintf("%d/%d", r.num, r.Den())
}

// MarshalText encodes r as "num/den" (or "num" for integers).
func (r Rat) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r *Rat) UnmarshalText(b []byte) error {
	v, err := ParseRat(string(b))
	if err != nil {
		return err
	}
	*r = v
	return nil
}

func (r Rat) neg() Rat {
	if r.num == math.MinInt64 {
		return fromBig(new(big.Rat).Neg(r.big()))
	}
	return Rat{num: -r.num, den: r.den}
}

func (r Rat) big() *big.Rat {
	return new(big.Rat).SetFrac64(r.num, r.Den())
}

// fromBig narrows an exact result back to a Rat. A result that does not fit
// in 64 bits panics with ErrRatOverflow.
func fromBig(br *big.Rat) Rat {
	if !br.Num().IsInt64() || !br.Denom().IsInt64() {
		panic(fmt.Errorf("%w: %s", ErrRatOverflow, br.RatString()))
	}
	// big.Rat is already in lowest terms with a positive denominator
	return Rat{num: br.Num().Int64(), den: br.Denom().Int64()}
}

// mul64 returns a*b and whether it fits in an int64.
func mul64(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	c := a * b
	if (a == -1 && b == math.MinInt64) || (b == -1 && a == math.MinInt64) || c/b != a {
		return 0, false
	}
	return c, true
}

// add64 returns a+b and whether it fits in an int64.
func add64(a, b int64) (int64, bool) {
	c := a + b
	if (a^c)&(b^c) < 0 {
		return 0, false
	}
	return c, true
}

func gcd(a, b int64) int64 {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
