package score

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/himanishpuri/MelodicDNA/internal/geometry"
)

// CSVReader reads one note or chord per record:
//
//	onset,pitch,duration[,id]
//
// Onsets and durations are integers, fractions ("1/3") or decimals. The
// pitch column holds a MIDI number or a spelled name ("Eb4"); chords join
// pitches with "+". A header row starting with "onset" and lines starting
// with '#' are skipped. Notes without an id are numbered by record.
type CSVReader struct{}

func (CSVReader) Read(r io.Reader) ([]geometry.Point, error) {
	cr := csv.NewReader(r)
	cr.Comment = '#'
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var out []geometry.Point
	for n := 0; ; n++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("parsing csv: %w", err)
		}
		if n == 0 && strings.EqualFold(strings.TrimSpace(rec[0]), "onset") {
			continue
		}
		line, _ := cr.FieldPos(0)
		points, err := csvRecord(rec, line)
		if err != nil {
			return nil, err
		}
		out = append(out, points...)
	}
}

func csvRecord(rec []string, line int) ([]geometry.Point, error) {
	if len(rec) < 3 || len(rec) > 4 {
		return nil, fmt.Errorf("%w: line %d has %d fields, want 3 or 4", ErrInvalidNote, line, len(rec))
	}
	onset, err := geometry.ParseRat(rec[0])
	if err != nil {
		return nil, fmt.Errorf("%w: line %d onset: %v", ErrInvalidNote, line, err)
	}
	pitches, err := parseChord(rec[1])
	if err != nil {
		return nil, fmt.Errorf("line %d: %w", line, err)
	}
	duration, err := geometry.ParseRat(rec[2])
	if err != nil {
		return nil, fmt.Errorf("%w: line %d duration: %v", ErrInvalidNote, line, err)
	}
	id := strconv.Itoa(line)
	if len(rec) == 4 && strings.TrimSpace(rec[3]) != "" {
		id = strings.TrimSpace(rec[3])
	}
	return expand(onset, pitches, duration, id)
}
