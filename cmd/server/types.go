package main

import (
	"fmt"
	"strings"

	"github.com/himanishpuri/MelodicDNA/pkg/models"
)

// Request size limits
const (
	// MaxPatternNotes bounds the pattern of a search request
	MaxPatternNotes = 1000

	// MaxSourceNotes bounds the notes of an uploaded piece or an in-memory source
	MaxSourceNotes = 200000

	// LargeSearchThreshold triggers logging for expensive searches
	LargeSearchThreshold = 200
)

// AddPieceRequest is the JSON request body for POST /api/pieces
type AddPieceRequest struct {
	Title    string        `json:"title"`
	Composer string        `json:"composer,omitempty"`
	Notes    []models.Note `json:"notes"`
}

// Validate checks if the request is valid
func (r *AddPieceRequest) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return fmt.Errorf("title is required")
	}
	if len(r.Notes) == 0 {
		return fmt.Errorf("notes cannot be empty")
	}
	if len(r.Notes) > MaxSourceNotes {
		return fmt.Errorf("too many notes: %d (maximum: %d)", len(r.Notes), MaxSourceNotes)
	}
	return nil
}

// SearchRequest is the request body for POST /api/search
type SearchRequest struct {
	Pattern  []models.Note     `json:"pattern"`
	Settings map[string]string `json:"settings,omitempty"`

	// PieceIDs restricts the search; empty searches every piece
	PieceIDs []string `json:"piece_ids,omitempty"`
}

// Validate checks if the request is valid
func (r *SearchRequest) Validate() error {
	return validatePattern(r.Pattern)
}

// MatchRequest is the request body for POST /api/match
type MatchRequest struct {
	Pattern  []models.Note     `json:"pattern"`
	Source   []models.Note     `json:"source"`
	Settings map[string]string `json:"settings,omitempty"`
}

// Validate checks if the request is valid
func (r *MatchRequest) Validate() error {
	if err := validatePattern(r.Pattern); err != nil {
		return err
	}
	if len(r.Source) == 0 {
		return fmt.Errorf("source cannot be empty")
	}
	if len(r.Source) > MaxSourceNotes {
		return fmt.Errorf("source too long: %d notes (maximum: %d)", len(r.Source), MaxSourceNotes)
	}
	return nil
}

func validatePattern(pattern []models.Note) error {
	if len(pattern) == 0 {
		return fmt.Errorf("pattern cannot be empty")
	}
	if len(pattern) > MaxPatternNotes {
		return fmt.Errorf("pattern too long: %d notes (maximum: %d)", len(pattern), MaxPatternNotes)
	}
	return nil
}

// SearchResponse is the response for POST /api/search and POST /api/match
type SearchResponse struct {
	Results []models.SearchResult `json:"results"`
	Count   int                   `json:"count"`
}

// AddPieceResponse is the response for successful piece addition
type AddPieceResponse struct {
	Message   string `json:"message"`
	ID        string `json:"id"`
	Title     string `json:"title"`
	Composer  string `json:"composer,omitempty"`
	NoteCount int    `json:"note_count"`
}

// ListPiecesResponse is the response for GET /api/pieces
type ListPiecesResponse struct {
	Pieces []models.Piece `json:"pieces"`
	Count  int            `json:"count"`
}

// PieceResponse is the response for GET /api/pieces/{id}
type PieceResponse struct {
	models.Piece
	Notes []models.Note `json:"notes,omitempty"`
}

// DeletePieceResponse is the response for DELETE /api/pieces/{id}
type DeletePieceResponse struct {
	Message string `json:"message"`
	ID      string `json:"id"`
}

// MetricsResponse provides server health and database metrics
type MetricsResponse struct {
	Status       string `json:"status"`
	DatabasePath string `json:"database_path"`
	PieceCount   int    `json:"piece_count"`
	NoteCount    int    `json:"note_count"`
}

// ErrorResponse is the standard error response format
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code,omitempty"`
}
