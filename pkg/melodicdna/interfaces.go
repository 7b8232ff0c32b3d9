package melodicdna

import (
	"context"

	"github.com/himanishpuri/MelodicDNA/pkg/models"
)

// Service manages a corpus of pieces and searches it for melodic patterns.
//
// Matching options use the string keys of the configuration surface:
// algorithm, threshold, mismatches, scale, pattern_window, source_window
// and interval_func. Missing keys take their defaults.
type Service interface {
	AddPiece(ctx context.Context, title, composer string, notes []models.Note) (string, error)
	AddPieceFromFile(ctx context.Context, path, title, composer string) (string, error)
	GetPiece(pieceID string) (*models.Piece, error)
	GetNotes(pieceID string) ([]models.Note, error)
	ListPieces() ([]models.Piece, error)
	DeletePiece(pieceID string) error
	Search(ctx context.Context, pattern []models.Note, opts map[string]string, pieceIDs ...string) ([]models.SearchResult, error)
	Match(ctx context.Context, pattern, source []models.Note, opts map[string]string) ([]models.SearchResult, error)
	RenderOccurrence(ctx context.Context, pieceID string, pairs []models.MatchedPair, outPath string) (string, error)
	Close() error
}

type Storage interface {
	// RegisterPiece reports whether the piece was created by this call or
	// already existed under the same title and composer.
	RegisterPiece(title, composer, source string) (id string, created bool, err error)
	StoreNotes(pieceID string, notes []models.Note) error
	GetNotes(pieceID string) ([]models.Note, error)
	GetPieceByID(pieceID string) (*models.Piece, error)
	ListPieces() ([]models.Piece, error)
	DeletePieceByID(pieceID string) error
	Close() error
}

type Logger interface {
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
	Debugf(format string, args ...any)
}
