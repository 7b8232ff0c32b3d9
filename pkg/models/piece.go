package models

import "time"

// Note is one note, or one pitch of a chord, of a stored piece.
// Onset and Duration are rationals in quarter notes ("3", "1/3").
type Note struct {
	Onset    string `json:"onset"`
	Pitch    int    `json:"pitch"` // MIDI note number
	Duration string `json:"duration"`
	Step     int    `json:"step,omitempty"` // diatonic step, set when Spelled
	Spelled  bool   `json:"spelled,omitempty"`
	ID       string `json:"id,omitempty"` // id in the originating score
}

// Piece represents a piece entry in the database.
type Piece struct {
	ID        string    `json:"id"` // Database ID (UUID)
	Title     string    `json:"title"`
	Composer  string    `json:"composer"`
	Source    string    `json:"source,omitempty"` // file the notes were read from
	NoteCount int       `json:"note_count"`
	CreatedAt time.Time `json:"created_at"`
}
