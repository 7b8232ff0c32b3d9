package score

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/himanishpuri/MelodicDNA/internal/geometry"
)

// JSONReader reads an array of notes:
//
//	[{"onset": "1/2", "pitch": 60, "duration": 1, "id": "m1n1"},
//	 {"onset": 1, "pitches": ["C4", "E4"], "duration": 0.5}]
//
// Times may be JSON numbers or strings holding a fraction. Numbers finer
// than 1/geometry.MaxDen are rounded, strings must be exact. Pitches may be
// MIDI numbers or spelled names.
type JSONReader struct{}

type jsonNote struct {
	Onset    jsonRat     `json:"onset"`
	Pitch    *jsonPitch  `json:"pitch,omitempty"`
	Pitches  []jsonPitch `json:"pitches,omitempty"`
	Duration jsonRat     `json:"duration"`
	ID       string      `json:"id,omitempty"`
}

type jsonRat struct{ geometry.Rat }

// UnmarshalJSON parses strings exactly. Numbers are exact when their
// decimal form is, otherwise they are rounded to the nearest 1/MaxDen.
func (r *jsonRat) UnmarshalJSON(b []byte) error {
	s := string(bytes.TrimSpace(b))
	if unq, err := strconv.Unquote(s); err == nil {
		v, err := geometry.ParseRat(unq)
		if err != nil {
			return err
		}
		r.Rat = v
		return nil
	}
	if v, err := geometry.ParseRat(s); err == nil {
		r.Rat = v
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("%w: %s", geometry.ErrInvalidRat, s)
	}
	v, err := geometry.RatFromFloat(f)
	if err != nil {
		return err
	}
	r.Rat = v
	return nil
}

type jsonPitch struct{ pitch }

func (p *jsonPitch) UnmarshalJSON(b []byte) error {
	s := string(bytes.TrimSpace(b))
	if unq, err := strconv.Unquote(s); err == nil {
		s = unq
	}
	v, err := parsePitch(s)
	if err != nil {
		return err
	}
	p.pitch = v
	return nil
}

func (JSONReader) Read(r io.Reader) ([]geometry.Point, error) {
	var notes []jsonNote
	if err := json.NewDecoder(r).Decode(&notes); err != nil {
		return nil, fmt.Errorf("%w: decoding json: %v", ErrInvalidNote, err)
	}
	var out []geometry.Point
	for i, n := range notes {
		id := n.ID
		if id == "" {
			id = strconv.Itoa(i + 1)
		}
		var pitches []pitch
		if n.Pitch != nil {
			pitches = append(pitches, n.Pitch.pitch)
		}
		for _, p := range n.Pitches {
			pitches = append(pitches, p.pitch)
		}
		points, err := expand(n.Onset.Rat, pitches, n.Duration.Rat, id)
		if err != nil {
			return nil, err
		}
		out = append(out, points...)
	}
	return out, nil
}
