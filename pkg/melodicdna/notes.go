package melodicdna

import (
	"fmt"

	"github.com/himanishpuri/MelodicDNA/internal/geometry"
	"github.com/himanishpuri/MelodicDNA/internal/score"
	"github.com/himanishpuri/MelodicDNA/pkg/models"
)

// ReadNotesFile reads a CSV or JSON note list, expanding chords into one
// note per pitch.
func ReadNotesFile(path string) ([]models.Note, error) {
	points, err := score.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return pointsToNotes(points), nil
}

func pointsToNotes(points []geometry.Point) []models.Note {
	out := make([]models.Note, len(points))
	for i, p := range points {
		out[i] = models.Note{
			Onset:    p.Onset.String(),
			Pitch:    p.Pitch,
			Duration: p.Duration.String(),
			Step:     p.Step,
			Spelled:  p.Spelled,
			ID:       p.ID,
		}
	}
	return out
}

func notesToPoints(notes []models.Note) ([]geometry.Point, error) {
	out := make([]geometry.Point, len(notes))
	for i, n := range notes {
		onset, err := geometry.ParseRat(n.Onset)
		if err != nil {
			return nil, fmt.Errorf("%w: note %d onset: %v", ErrInvalidNote, i, err)
		}
		duration, err := geometry.ParseRat(n.Duration)
		if err != nil {
			return nil, fmt.Errorf("%w: note %d duration: %v", ErrInvalidNote, i, err)
		}
		if duration.Sign() <= 0 {
			return nil, fmt.Errorf("%w: note %d has duration %s", ErrInvalidNote, i, duration)
		}
		p := geometry.NewPoint(onset, n.Pitch, duration)
		p.Step, p.Spelled, p.ID = n.Step, n.Spelled, n.ID
		out[i] = p
	}
	return out, nil
}

// pointSet converts and normalises notes: chords stay expanded, positional
// duplicates collapse and the result is sorted by onset then pitch.
func pointSet(notes []models.Note) (*geometry.PointSet, error) {
	points, err := notesToPoints(notes)
	if err != nil {
		return nil, err
	}
	return geometry.NewPointSet(points), nil
}
