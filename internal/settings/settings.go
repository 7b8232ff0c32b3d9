package settings

import (
	"math"
	"strconv"

	"github.com/himanishpuri/MelodicDNA/internal/geometry"
)

// Setting keys of the string configuration surface.
const (
	KeyAlgorithm     = "algorithm"
	KeyThreshold     = "threshold"
	KeyMismatches    = "mismatches"
	KeyScale         = "scale"
	KeyPatternWindow = "pattern_window"
	KeySourceWindow  = "source_window"
	KeyIntervalFunc  = "interval_func"
)

// Keys lists every recognised setting key.
func Keys() []string {
	return []string{KeyAlgorithm, KeyThreshold, KeyMismatches, KeyScale, KeyPatternWindow, KeySourceWindow, KeyIntervalFunc}
}

// Defaults for the window settings.
const (
	DefaultPatternWindow = 1
	DefaultSourceWindow  = 5
)

// ThresholdKind tells how a Threshold value is expressed.
type ThresholdKind int

const (
	ThresholdAll      ThresholdKind = iota // the whole pattern
	ThresholdCount                         // a number of notes
	ThresholdFraction                      // a fraction of the pattern, rounded up
)

// Threshold is the minimum amount of the pattern an occurrence must match.
// When Mismatches is set the value counts notes allowed to be missing.
type Threshold struct {
	Kind       ThresholdKind
	Count      int
	Fraction   float64
	Mismatches bool
}

// All requires every pattern note.
func All() Threshold { return Threshold{Kind: ThresholdAll} }

// AtLeast requires n pattern notes.
func AtLeast(n int) Threshold { return Threshold{Kind: ThresholdCount, Count: n} }

// AtLeastFraction requires ceil(f*len(pattern)) notes.
func AtLeastFraction(f float64) Threshold { return Threshold{Kind: ThresholdFraction, Fraction: f} }

// AllowMismatches allows n pattern notes to be missing.
func AllowMismatches(n int) Threshold {
	return Threshold{Kind: ThresholdCount, Count: n, Mismatches: true}
}

// AllowMismatchFraction allows a fraction f of the pattern to be missing.
func AllowMismatchFraction(f float64) Threshold {
	return Threshold{Kind: ThresholdFraction, Fraction: f, Mismatches: true}
}

// Resolve converts the threshold into a note count for a pattern of n
// notes. The result is at least 1.
func (t Threshold) Resolve(n int) int {
	var k int
	switch t.Kind {
	case ThresholdAll:
		k = n
	case ThresholdCount:
		k = t.Count
		if t.Mismatches {
			k = n - t.Count
		}
	case ThresholdFraction:
		f := t.Fraction
		if t.Mismatches {
			f = 1 - f
		}
		k = int(math.Ceil(f*float64(n) - 1e-9))
	}
	return max(k, 1)
}

// Ratio expresses the threshold as a fraction of the pattern, as used by the
// overlap sweep where the measure is duration rather than note count.
func (t Threshold) Ratio(n int) float64 {
	switch t.Kind {
	case ThresholdCount:
		if n == 0 {
			return 1
		}
		if t.Mismatches {
			return float64(n-t.Count) / float64(n)
		}
		return float64(t.Count) / float64(n)
	case ThresholdFraction:
		if t.Mismatches {
			return 1 - t.Fraction
		}
		return t.Fraction
	}
	return 1
}

func (t Threshold) String() string {
	switch t.Kind {
	case ThresholdCount:
		return strconv.Itoa(t.Count)
	case ThresholdFraction:
		return strconv.FormatFloat(t.Fraction, 'g', -1, 64)
	}
	return "all"
}

// ScaleKind tells which time scalings an occurrence may have.
type ScaleKind int

const (
	ScalePure   ScaleKind = iota // no scaling: scale 1
	ScaleAny                     // any single scale per occurrence
	ScaleFixed                   // one given scale
	ScaleWarped                  // independent scale per link
)

// Scale is the scale constraint.
type Scale struct {
	Kind  ScaleKind
	Value geometry.Rat // only for ScaleFixed
}

// Pure is the identity scale.
func Pure() Scale { return Scale{Kind: ScalePure} }

// AnyScale accepts any consistent scale.
func AnyScale() Scale { return Scale{Kind: ScaleAny} }

// Warped accepts local time warping.
func Warped() Scale { return Scale{Kind: ScaleWarped} }

// FixedScale only accepts occurrences scaled by r.
func FixedScale(r geometry.Rat) Scale {
	if r.Equal(geometry.Int(1)) {
		return Pure()
	}
	return Scale{Kind: ScaleFixed, Value: r.Canon()}
}

// Ratio returns the required scale for ScalePure and ScaleFixed.
func (s Scale) Ratio() (geometry.Rat, bool) {
	switch s.Kind {
	case ScalePure:
		return geometry.Int(1), true
	case ScaleFixed:
		return s.Value, true
	}
	return geometry.Rat{}, false
}

func (s Scale) String() string {
	switch s.Kind {
	case ScaleAny:
		return "any"
	case ScaleFixed:
		return s.Value.String()
	case ScaleWarped:
		return "warped"
	}
	return "pure"
}

// Settings is the validated matching configuration.
type Settings struct {
	Algorithm     Algorithm
	Threshold     Threshold
	Scale         Scale
	PatternWindow int
	SourceWindow  int
	IntervalName  string
	Interval      geometry.IntervalFunc // set for "custom", resolved from IntervalName otherwise
}

// Default returns automatic selection of an exact, unscaled, chromatic
// search.
func Default() Settings {
	return Settings{
		Algorithm:     Auto,
		Threshold:     All(),
		Scale:         Pure(),
		PatternWindow: DefaultPatternWindow,
		SourceWindow:  DefaultSourceWindow,
		IntervalName:  geometry.IntervalSemitones,
	}
}

// WithCustomInterval returns a copy of s using f as interval function.
func (s Settings) WithCustomInterval(f geometry.IntervalFunc) Settings {
	s.IntervalName = geometry.IntervalCustom
	s.Interval = f
	return s
}

// Validate checks every field and returns the first problem as a
// *ValidationError.
func (s Settings) Validate() error {
	if s.Algorithm < Auto || s.Algorithm > W2 {
		return invalid(KeyAlgorithm, s.Algorithm.String(), "", AlgorithmNames()...)
	}
	if err := s.Threshold.validate(); err != nil {
		return err
	}
	if s.Scale.Kind < ScalePure || s.Scale.Kind > ScaleWarped {
		return invalid(KeyScale, s.Scale.String(), "", scaleNames...)
	}
	if s.Scale.Kind == ScaleFixed && s.Scale.Value.Sign() <= 0 {
		return invalid(KeyScale, s.Scale.Value.String(), "scale must be positive", scaleNames...)
	}
	if s.PatternWindow < 1 {
		return invalid(KeyPatternWindow, strconv.Itoa(s.PatternWindow), "must be a positive integer")
	}
	if s.SourceWindow < 1 {
		return invalid(KeySourceWindow, strconv.Itoa(s.SourceWindow), "must be a positive integer")
	}
	if s.IntervalName == geometry.IntervalCustom {
		if s.Interval == nil {
			return invalid(KeyIntervalFunc, s.IntervalName, "custom interval function not supplied", geometry.IntervalNames()...)
		}
	} else if _, ok := geometry.IntervalFuncByName(s.IntervalName); !ok {
		return invalid(KeyIntervalFunc, s.IntervalName, "", geometry.IntervalNames()...)
	}
	return nil
}

func (t Threshold) validate() error {
	key := KeyThreshold
	if t.Mismatches {
		key = KeyMismatches
	}
	switch t.Kind {
	case ThresholdAll:
		if t.Mismatches {
			return invalid(key, "all", "mismatches cannot be \"all\"")
		}
	case ThresholdCount:
		if t.Count < 1 && !t.Mismatches {
			return invalid(key, strconv.Itoa(t.Count), "must be a positive integer")
		}
		if t.Count < 0 {
			return invalid(key, strconv.Itoa(t.Count), "must not be negative")
		}
	case ThresholdFraction:
		if t.Fraction <= 0 || t.Fraction > 1 || math.IsNaN(t.Fraction) {
			return invalid(key, t.String(), "fraction must be in (0, 1]")
		}
	default:
		return invalid(key, t.String(), "unknown threshold kind")
	}
	return nil
}

// IntervalFunc resolves the configured interval function. Validate must
// have succeeded.
func (s Settings) IntervalFunc() geometry.IntervalFunc {
	if s.Interval != nil {
		return s.Interval
	}
	if f, ok := geometry.IntervalFuncByName(s.IntervalName); ok {
		return f
	}
	return geometry.Semitones
}

// Select resolves Auto into a concrete algorithm for a pattern of n notes:
// the scale picks the family and the threshold picks exact or partial.
func (s Settings) Select(n int) Algorithm {
	if s.Algorithm != Auto {
		return s.Algorithm
	}
	exact := s.Threshold.Resolve(n) >= n
	switch s.Scale.Kind {
	case ScalePure:
		if exact {
			return P1
		}
		return P2
	case ScaleWarped:
		if exact {
			return W1
		}
		return W2
	}
	if exact {
		return S1
	}
	return S2
}

var scaleNames = []string{"pure", "warped", "any", "<positive rational>"}
