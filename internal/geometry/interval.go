package geometry

import "sort"

// IntervalFunc returns the vertical (pitch) distance from one point to
// another. Vectors are only compared for equality of this value, so any
// function that is translation invariant in pitch can be used.
type IntervalFunc func(from, to Point) int

// Interval function names accepted by IntervalFuncByName.
const (
	IntervalSemitones      = "semitones"
	IntervalSemitonesMod12 = "semitones-mod12"
	IntervalGeneric        = "generic"
	IntervalCustom         = "custom"
)

// Semitones is the chromatic distance in semitones.
func Semitones(from, to Point) int {
	return to.Pitch - from.Pitch
}

// SemitonesMod12 folds the chromatic distance into one octave, making
// matches octave-equivalent.
func SemitonesMod12(from, to Point) int {
	d := (to.Pitch - from.Pitch) % 12
	if d < 0 {
		d += 12
	}
	return d
}

// Generic is the diatonic distance in letter steps, ignoring accidentals.
func Generic(from, to Point) int {
	return to.DiatonicStep() - from.DiatonicStep()
}

var namedIntervals = map[string]IntervalFunc{
	IntervalSemitones:      Semitones,
	"semitones-mod-12":     SemitonesMod12,
	IntervalSemitonesMod12: SemitonesMod12,
	IntervalGeneric:        Generic,
}

// IntervalFuncByName resolves one of the built-in interval functions.
// "custom" is not resolvable by name; callers must supply the function.
func IntervalFuncByName(name string) (IntervalFunc, bool) {
	f, ok := namedIntervals[name]
	return f, ok
}

// IntervalNames lists the canonical interval function names, including
// "custom".
func IntervalNames() []string {
	names := []string{IntervalSemitones, IntervalSemitonesMod12, IntervalGeneric, IntervalCustom}
	sort.Strings(names)
	return names
}
