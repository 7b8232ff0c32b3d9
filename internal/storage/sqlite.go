package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/himanishpuri/MelodicDNA/pkg/models"
)

const DefaultDBFile = "melodicdna.sqlite3"
const errDBClientNil = "db client is nil"

// ErrPieceNotFound is returned when no piece has the requested ID.
var ErrPieceNotFound = errors.New("piece not found")

type DBClient struct {
	DB *gorm.DB
	db *sql.DB
}

type Piece struct {
	ID        string `gorm:"primaryKey;type:varchar(36)"`
	Title     string `gorm:"uniqueIndex:idx_piece_unique,priority:1;index:idx_piece_meta,priority:1" json:"title"`
	Composer  string `gorm:"uniqueIndex:idx_piece_unique,priority:2;index:idx_piece_meta,priority:2" json:"composer"`
	Source    string `json:"source"`
	NoteCount int    `json:"note_count"`
	CreatedAt time.Time
}

type Note struct {
	ID       uint   `gorm:"primaryKey;autoIncrement"`
	PieceID  string `gorm:"type:varchar(36);index:idx_piece_seq,priority:1" json:"piece_id"`
	Seq      int    `gorm:"index:idx_piece_seq,priority:2" json:"seq"`
	Onset    string `json:"onset"`
	Pitch    int    `json:"pitch"`
	Duration string `json:"duration"`
	Step     int    `json:"step"`
	Spelled  bool   `json:"spelled"`
	OriginID string `json:"origin_id"`
}

func NewDBClient() (*DBClient, error) {
	dbPath := os.Getenv("MELODIC_DB_PATH")
	if dbPath == "" {
		dbPath = DefaultDBFile
	}
	return NewDBClientWithPath(dbPath)
}

func NewDBClientWithPath(dbPath string) (*DBClient, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil && !os.IsExist(err) {
		if filepath.Dir(dbPath) != "." {
			return nil, fmt.Errorf("creating db dir: %w", err)
		}
	}

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}

	db, err := gorm.Open(sqlite.Open(dbPath+"?_foreign_keys=on"), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting sql.DB from gorm: %w", err)
	}

	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&Piece{}, &Note{}); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("auto migrate: %w", err)
	}

	return &DBClient{DB: db, db: sqlDB}, nil
}

func (c *DBClient) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

// RegisterPiece returns the ID of the piece with this title and composer,
// creating it if needed. created is true only when this call inserted the
// row. A missing source path is filled in on re-register.
func (c *DBClient) RegisterPiece(title, composer, source string) (id string, created bool, err error) {
	if c == nil || c.DB == nil {
		return "", false, errors.New(errDBClientNil)
	}

	var piece Piece

	err = c.DB.Where("title = ? AND composer = ?", title, composer).First(&piece).Error
	if err == nil {
		if piece.Source == "" && source != "" {
			if err := c.DB.Model(&piece).Update("Source", source).Error; err != nil {
				return "", false, fmt.Errorf("updating source: %w", err)
			}
		}
		return piece.ID, false, nil
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, fmt.Errorf("querying existing piece: %w", err)
	}

	piece = Piece{ID: uuid.NewString(), Title: title, Composer: composer, Source: source}
	err = c.DB.Create(&piece).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "constraint failed") {
			if fetchErr := c.DB.Where("title = ? AND composer = ?", title, composer).First(&piece).Error; fetchErr != nil {
				return "", false, fmt.Errorf("fetching piece after constraint violation: %w", fetchErr)
			}
			return piece.ID, false, nil
		}
		return "", false, fmt.Errorf("creating piece: %w", err)
	}

	return piece.ID, true, nil
}

// StoreNotes replaces the notes of a piece and updates its note count.
func (c *DBClient) StoreNotes(pieceID string, notes []models.Note) error {
	if c == nil || c.DB == nil {
		return errors.New(errDBClientNil)
	}

	rows := make([]Note, len(notes))
	for i, n := range notes {
		rows[i] = Note{
			PieceID:  pieceID,
			Seq:      i,
			Onset:    n.Onset,
			Pitch:    n.Pitch,
			Duration: n.Duration,
			Step:     n.Step,
			Spelled:  n.Spelled,
			OriginID: n.ID,
		}
	}

	return c.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&Piece{}).Where("id = ?", pieceID).Update("note_count", len(rows))
		if res.Error != nil {
			return fmt.Errorf("updating note count: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: %s", ErrPieceNotFound, pieceID)
		}
		if err := tx.Where("piece_id = ?", pieceID).Delete(&Note{}).Error; err != nil {
			return fmt.Errorf("clearing notes: %w", err)
		}
		if len(rows) == 0 {
			return nil
		}
		if err := tx.CreateInBatches(rows, 500).Error; err != nil {
			return fmt.Errorf("batch insert notes: %w", err)
		}
		return nil
	})
}

// GetNotes returns the notes of a piece in stored order.
func (c *DBClient) GetNotes(pieceID string) ([]models.Note, error) {
	if c == nil || c.DB == nil {
		return nil, errors.New(errDBClientNil)
	}
	var rows []Note
	if err := c.DB.Where("piece_id = ?", pieceID).Order("seq").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("querying notes: %w", err)
	}
	out := make([]models.Note, len(rows))
	for i, r := range rows {
		out[i] = models.Note{
			Onset:    r.Onset,
			Pitch:    r.Pitch,
			Duration: r.Duration,
			Step:     r.Step,
			Spelled:  r.Spelled,
			ID:       r.OriginID,
		}
	}
	return out, nil
}

func (c *DBClient) GetPieceByID(pieceID string) (*models.Piece, error) {
	if c == nil || c.DB == nil {
		return nil, errors.New(errDBClientNil)
	}
	var p Piece
	err := c.DB.Where("id = ?", pieceID).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrPieceNotFound, pieceID)
	}
	if err != nil {
		return nil, fmt.Errorf("querying piece: %w", err)
	}
	out := p.model()
	return &out, nil
}

// ListPieces returns every piece, oldest first.
func (c *DBClient) ListPieces() ([]models.Piece, error) {
	if c == nil || c.DB == nil {
		return nil, errors.New(errDBClientNil)
	}
	var rows []Piece
	if err := c.DB.Order("created_at, title").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("listing pieces: %w", err)
	}
	out := make([]models.Piece, len(rows))
	for i, p := range rows {
		out[i] = p.model()
	}
	return out, nil
}

func (c *DBClient) DeletePieceByID(pieceID string) error {
	if c == nil || c.DB == nil {
		return errors.New(errDBClientNil)
	}
	return c.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("piece_id = ?", pieceID).Delete(&Note{}).Error; err != nil {
			return err
		}
		if err := tx.Where("id = ?", pieceID).Delete(&Piece{}).Error; err != nil {
			return err
		}
		return nil
	})
}

func (p Piece) model() models.Piece {
	return models.Piece{
		ID:        p.ID,
		Title:     p.Title,
		Composer:  p.Composer,
		Source:    p.Source,
		NoteCount: p.NoteCount,
		CreatedAt: p.CreatedAt,
	}
}
