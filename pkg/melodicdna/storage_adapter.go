package melodicdna

import (
	"github.com/himanishpuri/MelodicDNA/internal/storage"
	"github.com/himanishpuri/MelodicDNA/pkg/models"
)

// storageAdapter adapts the storage.DBClient to implement the Storage interface.
type storageAdapter struct {
	db *storage.DBClient
}

// NewSQLiteStorage creates a new SQLite storage backend.
func NewSQLiteStorage(dbPath string) (Storage, error) {
	db, err := storage.NewDBClientWithPath(dbPath)
	if err != nil {
		return nil, err
	}
	return &storageAdapter{db: db}, nil
}

func (s *storageAdapter) RegisterPiece(title, composer, source string) (string, bool, error) {
	return s.db.RegisterPiece(title, composer, source)
}

func (s *storageAdapter) StoreNotes(pieceID string, notes []models.Note) error {
	return s.db.StoreNotes(pieceID, notes)
}

func (s *storageAdapter) GetNotes(pieceID string) ([]models.Note, error) {
	return s.db.GetNotes(pieceID)
}

func (s *storageAdapter) GetPieceByID(pieceID string) (*models.Piece, error) {
	return s.db.GetPieceByID(pieceID)
}

func (s *storageAdapter) ListPieces() ([]models.Piece, error) {
	return s.db.ListPieces()
}

func (s *storageAdapter) DeletePieceByID(pieceID string) error {
	return s.db.DeletePieceByID(pieceID)
}

func (s *storageAdapter) Close() error {
	return s.db.Close()
}
