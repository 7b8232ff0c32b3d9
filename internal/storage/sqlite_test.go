package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/himanishpuri/MelodicDNA/pkg/models"
)

// Helper function to create a temporary test database
func setupTestDB(t *testing.T) (*DBClient, string) {
	t.Helper()

	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test_melodic.sqlite3")

	t.Setenv("MELODIC_DB_PATH", dbPath)

	client, err := NewDBClient()
	if err != nil {
		t.Fatalf("Failed to create test DB client: %v", err)
	}

	t.Cleanup(func() {
		client.Close()
	})

	return client, dbPath
}

func testNotes(n int) []models.Note {
	notes := make([]models.Note, n)
	for i := range notes {
		notes[i] = models.Note{Onset: "1/2", Pitch: 60 + i%12, Duration: "1", ID: "n"}
	}
	return notes
}

// TestNewDBClient tests database initialization
func TestNewDBClient(t *testing.T) {
	client, dbPath := setupTestDB(t)

	if client.DB == nil {
		t.Fatal("Expected non-nil GORM DB handle")
	}
	if client.db == nil {
		t.Fatal("Expected non-nil sql.DB handle")
	}

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Errorf("Database file was not created at %s", dbPath)
	}
}

// TestNewDBClientWithCustomPath tests database creation in a missing directory
func TestNewDBClientWithCustomPath(t *testing.T) {
	customPath := filepath.Join(t.TempDir(), "subdir", "custom.db")

	client, err := NewDBClientWithPath(customPath)
	if err != nil {
		t.Fatalf("Failed to create DB with custom path: %v", err)
	}
	defer client.Close()

	if _, err := os.Stat(customPath); os.IsNotExist(err) {
		t.Errorf("Database file was not created at custom path %s", customPath)
	}
}

// TestRegisterPiece tests piece registration
func TestRegisterPiece(t *testing.T) {
	client, _ := setupTestDB(t)

	pieceID, created, err := client.RegisterPiece("Invention 1", "Bach", "bwv772.csv")
	if err != nil {
		t.Fatalf("Failed to register piece: %v", err)
	}
	if !created {
		t.Error("Expected a new piece to be reported as created")
	}
	if len(pieceID) != 36 {
		t.Errorf("Expected a UUID piece ID, got %q", pieceID)
	}

	piece, err := client.GetPieceByID(pieceID)
	if err != nil {
		t.Fatalf("Failed to retrieve registered piece: %v", err)
	}
	if piece.Title != "Invention 1" {
		t.Errorf("Expected title 'Invention 1', got '%s'", piece.Title)
	}
	if piece.Composer != "Bach" {
		t.Errorf("Expected composer 'Bach', got '%s'", piece.Composer)
	}
	if piece.Source != "bwv772.csv" {
		t.Errorf("Expected source 'bwv772.csv', got '%s'", piece.Source)
	}
	if piece.CreatedAt.IsZero() {
		t.Error("Expected CreatedAt to be set")
	}
}

// TestRegisterPieceIdempotent tests that registering the same piece twice returns the same ID
func TestRegisterPieceIdempotent(t *testing.T) {
	client, _ := setupTestDB(t)

	id1, created, err := client.RegisterPiece("Duplicate", "Composer", "")
	if err != nil {
		t.Fatalf("Failed to register piece first time: %v", err)
	}
	if !created {
		t.Error("Expected first registration to create the piece")
	}
	id2, created, err := client.RegisterPiece("Duplicate", "Composer", "dup.csv")
	if err != nil {
		t.Fatalf("Failed to register piece second time: %v", err)
	}
	if created {
		t.Error("Expected second registration to reuse the existing piece")
	}
	if id1 != id2 {
		t.Errorf("Expected same piece ID for duplicate registration, got %s and %s", id1, id2)
	}

	var count int64
	client.DB.Model(&Piece{}).Where("title = ? AND composer = ?", "Duplicate", "Composer").Count(&count)
	if count != 1 {
		t.Errorf("Expected 1 piece in database, found %d", count)
	}

	piece, _ := client.GetPieceByID(id1)
	if piece.Source != "dup.csv" {
		t.Errorf("Expected missing source to be filled in, got '%s'", piece.Source)
	}
}

// TestStoreAndGetNotes tests storing notes and reading them back in order
func TestStoreAndGetNotes(t *testing.T) {
	client, _ := setupTestDB(t)

	pieceID, _, _ := client.RegisterPiece("Notes", "Composer", "")
	notes := []models.Note{
		{Onset: "0", Pitch: 60, Duration: "1", ID: "a"},
		{Onset: "1/3", Pitch: 61, Duration: "1/3", Step: 36, Spelled: true, ID: "b"},
		{Onset: "2", Pitch: 67, Duration: "2", ID: "c"},
	}
	if err := client.StoreNotes(pieceID, notes); err != nil {
		t.Fatalf("Failed to store notes: %v", err)
	}

	got, err := client.GetNotes(pieceID)
	if err != nil {
		t.Fatalf("Failed to get notes: %v", err)
	}
	if len(got) != len(notes) {
		t.Fatalf("Expected %d notes, got %d", len(notes), len(got))
	}
	for i := range notes {
		if got[i] != notes[i] {
			t.Errorf("Note %d: expected %+v, got %+v", i, notes[i], got[i])
		}
	}

	piece, _ := client.GetPieceByID(pieceID)
	if piece.NoteCount != 3 {
		t.Errorf("Expected note count 3, got %d", piece.NoteCount)
	}
}

// TestStoreNotesReplaces tests that storing notes again replaces the old ones
func TestStoreNotesReplaces(t *testing.T) {
	client, _ := setupTestDB(t)

	pieceID, _, _ := client.RegisterPiece("Replace", "Composer", "")
	if err := client.StoreNotes(pieceID, testNotes(5)); err != nil {
		t.Fatalf("Failed to store notes: %v", err)
	}
	if err := client.StoreNotes(pieceID, testNotes(2)); err != nil {
		t.Fatalf("Failed to replace notes: %v", err)
	}

	var count int64
	client.DB.Model(&Note{}).Where("piece_id = ?", pieceID).Count(&count)
	if count != 2 {
		t.Errorf("Expected 2 notes after replace, found %d", count)
	}
}

// TestStoreNotesLargeBatch tests batch insertion with large dataset
func TestStoreNotesLargeBatch(t *testing.T) {
	client, _ := setupTestDB(t)

	pieceID, _, _ := client.RegisterPiece("Large Batch", "Composer", "")
	if err := client.StoreNotes(pieceID, testNotes(1500)); err != nil {
		t.Fatalf("Failed to store large batch of notes: %v", err)
	}

	var count int64
	client.DB.Model(&Note{}).Where("piece_id = ?", pieceID).Count(&count)
	if count != 1500 {
		t.Errorf("Expected 1500 notes, found %d", count)
	}
}

// TestStoreNotesUnknownPiece tests that notes need a registered piece
func TestStoreNotesUnknownPiece(t *testing.T) {
	client, _ := setupTestDB(t)

	err := client.StoreNotes("missing", testNotes(1))
	if !errors.Is(err, ErrPieceNotFound) {
		t.Errorf("Expected ErrPieceNotFound, got %v", err)
	}
}

// TestDeletePieceWithNotes tests cascading deletion of notes
func TestDeletePieceWithNotes(t *testing.T) {
	client, _ := setupTestDB(t)

	pieceID, _, _ := client.RegisterPiece("To Delete", "Composer", "")
	if err := client.StoreNotes(pieceID, testNotes(3)); err != nil {
		t.Fatalf("Failed to store notes: %v", err)
	}

	if err := client.DeletePieceByID(pieceID); err != nil {
		t.Fatalf("Failed to delete piece: %v", err)
	}

	if _, err := client.GetPieceByID(pieceID); !errors.Is(err, ErrPieceNotFound) {
		t.Errorf("Expected ErrPieceNotFound after delete, got %v", err)
	}

	var count int64
	client.DB.Model(&Note{}).Where("piece_id = ?", pieceID).Count(&count)
	if count != 0 {
		t.Errorf("Expected 0 notes after piece deletion, found %d", count)
	}
}

// TestListPieces tests working with multiple pieces
func TestListPieces(t *testing.T) {
	client, _ := setupTestDB(t)

	id1, _, _ := client.RegisterPiece("Piece A", "Composer A", "")
	id2, _, _ := client.RegisterPiece("Piece B", "Composer B", "")
	id3, _, _ := client.RegisterPiece("Piece C", "Composer C", "")

	if id1 == id2 || id2 == id3 || id1 == id3 {
		t.Error("Expected unique IDs for different pieces")
	}

	pieces, err := client.ListPieces()
	if err != nil {
		t.Fatalf("Failed to list pieces: %v", err)
	}
	if len(pieces) != 3 {
		t.Fatalf("Expected 3 pieces, found %d", len(pieces))
	}
	seen := map[string]bool{}
	for _, p := range pieces {
		seen[p.ID] = true
	}
	for _, id := range []string{id1, id2, id3} {
		if !seen[id] {
			t.Errorf("Piece %s missing from list", id)
		}
	}
}

// TestClose tests closing the database connection
func TestClose(t *testing.T) {
	client, err := NewDBClientWithPath(filepath.Join(t.TempDir(), "close_test.sqlite3"))
	if err != nil {
		t.Fatalf("Failed to create DB client: %v", err)
	}

	if err := client.Close(); err != nil {
		t.Errorf("Failed to close DB connection: %v", err)
	}
	if err := client.Close(); err != nil {
		t.Errorf("Second close should not error: %v", err)
	}
}

// TestNilClientMethods tests that methods handle nil client gracefully
func TestNilClientMethods(t *testing.T) {
	var client *DBClient

	if _, _, err := client.RegisterPiece("Test", "Test", ""); err == nil {
		t.Error("Expected error for nil client in RegisterPiece")
	}
	if err := client.DeletePieceByID("x"); err == nil {
		t.Error("Expected error for nil client in DeletePieceByID")
	}
	if err := client.StoreNotes("x", nil); err == nil {
		t.Error("Expected error for nil client in StoreNotes")
	}
	if _, err := client.GetNotes("x"); err == nil {
		t.Error("Expected error for nil client in GetNotes")
	}
	if _, err := client.ListPieces(); err == nil {
		t.Error("Expected error for nil client in ListPieces")
	}
	if err := client.Close(); err != nil {
		t.Errorf("Close on nil client should return nil, got: %v", err)
	}
}
