package geometry

import "fmt"

// Point is one note, or one pitch of a chord, in the (onset, pitch) plane.
// Points are compared by value; two sets may contain equal points.
type Point struct {
	Onset    Rat
	Pitch    int // MIDI note number
	Duration Rat

	// Step is the diatonic note number (octave*7 + letter index). It is
	// only meaningful when Spelled is true; otherwise it is derived from
	// Pitch using sharp spellings.
	Step    int
	Spelled bool

	// ID identifies the note in the originating score. The engine never
	// interprets it.
	ID string
}

// NewPoint returns an unspelled point.
func NewPoint(onset Rat, pitch int, duration Rat) Point {
	return Point{Onset: onset.Canon(), Pitch: pitch, Duration: duration.Canon()}
}

// Offset is the end time of the note.
func (p Point) Offset() Rat { return p.Onset.Add(p.Duration) }

// DiatonicStep returns the diatonic note number of the point.
func (p Point) DiatonicStep() int {
	if p.Spelled {
		return p.Step
	}
	octave := floorDiv(p.Pitch, 12)
	return octave*7 + sharpSpelling[p.Pitch-octave*12]
}

// position is the identity of a point inside one set.
type position struct {
	onset Rat
	pitch int
}

func (p Point) position() position {
	return position{onset: p.Onset.Canon(), pitch: p.Pitch}
}

func (p Point) String() string {
	return fmt.Sprintf("(%s, %d, %s)", p.Onset, p.Pitch, p.Duration)
}

// sharpSpelling maps pitch classes to letter indices C=0 .. B=6 assuming
// black keys are spelled as sharps.
var sharpSpelling = [12]int{0, 0, 1, 1, 2, 3, 3, 4, 4, 5, 5, 6}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
