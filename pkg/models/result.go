package models

// MatchedPair is one pattern note matched to one source note.
type MatchedPair struct {
	PatternIndex int    `json:"pattern_index"`
	SourceIndex  int    `json:"source_index"`
	SourceNoteID string `json:"source_note_id,omitempty"`
	Onset        string `json:"onset"` // onset of the source note
	Pitch        int    `json:"pitch"` // pitch of the source note
}

// SearchResult is one occurrence of a pattern in a piece.
type SearchResult struct {
	PieceID   string `json:"piece_id,omitempty"` // empty for in-memory matches
	Title     string `json:"title,omitempty"`
	Algorithm string `json:"algorithm"`

	Pairs []MatchedPair `json:"pairs"`

	Shift         string `json:"shift"`         // source onset minus pattern onset of the first pair
	Transposition int    `json:"transposition"` // interval from pattern to source

	Scale      string   `json:"scale,omitempty"`       // P and S families
	LinkScales []string `json:"link_scales,omitempty"` // S and W families
	Overlap    string   `json:"overlap,omitempty"`     // P3 only
}

// Multiplicity is the number of matched notes.
func (r SearchResult) Multiplicity() int { return len(r.Pairs) }
