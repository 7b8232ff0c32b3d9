// Package score turns note lists into the flat (onset, pitch, duration, id)
// tuples the matching engine works on. Chords are expanded into one point per
// pitch; every point of a chord keeps the chord's id.
package score

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode"

	"github.com/himanishpuri/MelodicDNA/internal/geometry"
)

var (
	// ErrInvalidNote reports a note that cannot be parsed or has a
	// non-positive duration.
	ErrInvalidNote = errors.New("score: invalid note")

	// ErrUnknownFormat is returned by ReaderFor for unsupported extensions.
	ErrUnknownFormat = errors.New("score: unknown file format")
)

// Reader decodes a note list.
type Reader interface {
	Read(r io.Reader) ([]geometry.Point, error)
}

// ReaderFor picks a Reader from the file extension.
func ReaderFor(path string) (Reader, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".txt":
		return CSVReader{}, nil
	case ".json":
		return JSONReader{}, nil
	}
	return nil, fmt.Errorf("%w: %q (supported: .csv, .txt, .json)", ErrUnknownFormat, filepath.Ext(path))
}

// ReadFile reads the note list stored at path.
func ReadFile(path string) ([]geometry.Point, error) {
	r, err := ReaderFor(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening score: %w", err)
	}
	defer f.Close()

	points, err := r.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", filepath.Base(path), err)
	}
	return points, nil
}

// PointSet reads the file at path and builds its point set.
func PointSet(path string) (*geometry.PointSet, error) {
	points, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	return geometry.NewPointSet(points), nil
}

// pitch is a MIDI number, optionally with its written spelling.
type pitch struct {
	midi    int
	step    int
	spelled bool
}

var letters = map[byte]struct{ semitone, index int }{
	'C': {0, 0}, 'D': {2, 1}, 'E': {4, 2}, 'F': {5, 3}, 'G': {7, 4}, 'A': {9, 5}, 'B': {11, 6},
}

// parsePitch accepts a MIDI number ("61") or a spelled name with octave
// ("C#4", "Db4", "Bb-1"). C4 is MIDI 60.
func parsePitch(s string) (pitch, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return pitch{midi: n}, nil
	}
	if s == "" {
		return pitch{}, fmt.Errorf("%w: empty pitch", ErrInvalidNote)
	}
	l, ok := letters[byte(unicode.ToUpper(rune(s[0])))]
	if !ok {
		return pitch{}, fmt.Errorf("%w: pitch %q", ErrInvalidNote, s)
	}
	rest := s[1:]
	alter := 0
	for len(rest) > 0 && (rest[0] == '#' || rest[0] == 'b') {
		if rest[0] == '#' {
			alter++
		} else {
			alter--
		}
		rest = rest[1:]
	}
	octave, err := strconv.Atoi(rest)
	if err != nil {
		return pitch{}, fmt.Errorf("%w: pitch %q has no octave", ErrInvalidNote, s)
	}
	return pitch{
		midi:    (octave+1)*12 + l.semitone + alter,
		step:    (octave+1)*7 + l.index,
		spelled: true,
	}, nil
}

// parseChord splits "60+64+67" or "C4+E4+G4" into its pitches.
func parseChord(s string) ([]pitch, error) {
	parts := strings.Split(s, "+")
	out := make([]pitch, 0, len(parts))
	for _, part := range parts {
		p, err := parsePitch(part)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// expand turns one note or chord into points.
func expand(onset geometry.Rat, pitches []pitch, duration geometry.Rat, id string) ([]geometry.Point, error) {
	if len(pitches) == 0 {
		return nil, fmt.Errorf("%w: note %s has no pitch", ErrInvalidNote, id)
	}
	if duration.Sign() <= 0 {
		return nil, fmt.Errorf("%w: note %s has duration %s", ErrInvalidNote, id, duration)
	}
	out := make([]geometry.Point, len(pitches))
	for i, p := range pitches {
		if p.midi < 0 || p.midi > 127 {
			return nil, fmt.Errorf("%w: note %s has pitch %d outside 0..127", ErrInvalidNote, id, p.midi)
		}
		pt := geometry.NewPoint(onset, p.midi, duration)
		pt.Step, pt.Spelled = p.step, p.spelled
		pt.ID = id
		out[i] = pt
	}
	return out, nil
}
