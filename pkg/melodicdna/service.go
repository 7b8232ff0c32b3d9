package melodicdna

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/himanishpuri/MelodicDNA/internal/algorithms"
	"github.com/himanishpuri/MelodicDNA/internal/audio"
	"github.com/himanishpuri/MelodicDNA/internal/geometry"
	"github.com/himanishpuri/MelodicDNA/internal/score"
	"github.com/himanishpuri/MelodicDNA/internal/settings"
	"github.com/himanishpuri/MelodicDNA/internal/storage"
	"github.com/himanishpuri/MelodicDNA/pkg/logger"
	"github.com/himanishpuri/MelodicDNA/pkg/models"
)

var (
	ErrPieceNotFound = storage.ErrPieceNotFound
	ErrInvalidNote   = score.ErrInvalidNote
	ErrValidation    = settings.ErrValidation

	// ErrEmptyPiece is returned when a piece without notes is added.
	ErrEmptyPiece = errors.New("piece has no notes")
)

// melodicService is the default implementation of the Service interface.
type melodicService struct {
	storage Storage
	log     Logger
	config  *Config
}

func NewService(opts ...Option) (Service, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.Logger == nil {
		cfg.Logger = logger.GetLogger()
	}

	var stor Storage
	var err error
	if cfg.Storage != nil {
		stor = cfg.Storage
	} else {
		stor, err = NewSQLiteStorage(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create storage: %w", err)
		}
	}

	return &melodicService{
		storage: stor,
		log:     cfg.Logger,
		config:  cfg,
	}, nil
}

// AddPiece normalises notes into a point set and stores them. Stored notes
// are in point set order, so source indices in search results address them
// directly.
func (s *melodicService) AddPiece(ctx context.Context, title, composer string, notes []models.Note) (string, error) {
	return s.addPiece(ctx, title, composer, "", notes)
}

// AddPieceFromFile reads a CSV or JSON note list and stores it. An empty
// title defaults to the file name.
func (s *melodicService) AddPieceFromFile(ctx context.Context, path, title, composer string) (string, error) {
	notes, err := ReadNotesFile(path)
	if err != nil {
		return "", err
	}
	if title == "" {
		base := filepath.Base(path)
		title = strings.TrimSuffix(base, filepath.Ext(base))
	}
	return s.addPiece(ctx, title, composer, path, notes)
}

func (s *melodicService) addPiece(ctx context.Context, title, composer, source string, notes []models.Note) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if strings.TrimSpace(title) == "" {
		return "", errors.New("title is required")
	}
	if len(notes) == 0 {
		return "", ErrEmptyPiece
	}
	s.log.Infof("Processing piece: %s by %s", title, composer)

	ps, err := pointSet(notes)
	if err != nil {
		return "", err
	}
	if ps.Len() < len(notes) {
		s.log.Debugf("Collapsed %d duplicate notes", len(notes)-ps.Len())
	}

	pieceID, created, err := s.storage.RegisterPiece(title, composer, source)
	if err != nil {
		return "", fmt.Errorf("failed to register piece: %w", err)
	}

	if err := s.storage.StoreNotes(pieceID, pointsToNotes(ps.Points())); err != nil {
		// a failed StoreNotes leaves existing notes untouched, so only a
		// piece registered by this call is rolled back
		if created {
			s.storage.DeletePieceByID(pieceID)
		}
		return "", fmt.Errorf("failed to store notes: %w", err)
	}

	s.log.Infof("Stored %d notes for piece %s", ps.Len(), pieceID)
	return pieceID, nil
}

func (s *melodicService) GetPiece(pieceID string) (*models.Piece, error) {
	return s.storage.GetPieceByID(pieceID)
}

func (s *melodicService) GetNotes(pieceID string) ([]models.Note, error) {
	if _, err := s.storage.GetPieceByID(pieceID); err != nil {
		return nil, err
	}
	return s.storage.GetNotes(pieceID)
}

func (s *melodicService) ListPieces() ([]models.Piece, error) {
	return s.storage.ListPieces()
}

func (s *melodicService) DeletePiece(pieceID string) error {
	if _, err := s.storage.GetPieceByID(pieceID); err != nil {
		return err
	}
	return s.storage.DeletePieceByID(pieceID)
}

// Search matches the pattern against the given pieces, or against every
// stored piece when none are given. Results keep piece order and, within a
// piece, the order the algorithm produces them in.
func (s *melodicService) Search(ctx context.Context, pattern []models.Note, opts map[string]string, pieceIDs ...string) ([]models.SearchResult, error) {
	set, err := settings.Parse(opts)
	if err != nil {
		return nil, err
	}
	pat, err := pointSet(pattern)
	if err != nil {
		return nil, fmt.Errorf("pattern: %w", err)
	}

	pieces, err := s.selectPieces(pieceIDs)
	if err != nil {
		return nil, err
	}
	s.log.Infof("Searching %d pieces for a %d-note pattern", len(pieces), pat.Len())

	var results []models.SearchResult
	for _, piece := range pieces {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		notes, err := s.storage.GetNotes(piece.ID)
		if err != nil {
			return results, fmt.Errorf("loading notes of %s: %w", piece.ID, err)
		}
		src, err := pointSet(notes)
		if err != nil {
			s.log.Warnf("Skipping piece %s: %v", piece.ID, err)
			continue
		}

		found, err := s.match(pat, src, set, s.remaining(len(results)))
		if err != nil {
			return results, err
		}
		for i := range found {
			found[i].PieceID = piece.ID
			found[i].Title = piece.Title
		}
		s.log.Debugf("Piece %s: %d occurrences", piece.ID, len(found))
		results = append(results, found...)

		if s.config.MaxResults > 0 && len(results) >= s.config.MaxResults {
			s.log.Infof("Reached the limit of %d results", s.config.MaxResults)
			break
		}
	}

	s.log.Infof("Returning %d occurrences", len(results))
	return results, nil
}

// Match runs the engine on an in-memory source.
func (s *melodicService) Match(ctx context.Context, pattern, source []models.Note, opts map[string]string) ([]models.SearchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	set, err := settings.Parse(opts)
	if err != nil {
		return nil, err
	}
	pat, err := pointSet(pattern)
	if err != nil {
		return nil, fmt.Errorf("pattern: %w", err)
	}
	src, err := pointSet(source)
	if err != nil {
		return nil, fmt.Errorf("source: %w", err)
	}
	return s.match(pat, src, set, s.config.MaxResults)
}

func (s *melodicService) remaining(have int) int {
	if s.config.MaxResults <= 0 {
		return 0
	}
	return s.config.MaxResults - have
}

func (s *melodicService) match(pattern, source *geometry.PointSet, set settings.Settings, limit int) (out []models.SearchResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			e, ok := r.(error)
			if !ok || !errors.Is(e, geometry.ErrRatOverflow) {
				panic(r)
			}
			out, err = nil, e
		}
	}()

	seq, alg, err := algorithms.Find(pattern, source, set)
	if err != nil {
		return nil, err
	}
	s.log.Debugf("Running %s: pattern %d notes, source %d notes", alg, pattern.Len(), source.Len())

	occs := algorithms.Collect(seq, limit)
	out = make([]models.SearchResult, len(occs))
	for i, occ := range occs {
		out[i] = toResult(source, occ)
	}
	return out, nil
}

func toResult(source *geometry.PointSet, occ algorithms.Occurrence) models.SearchResult {
	r := models.SearchResult{
		Algorithm:     occ.Algorithm.String(),
		Pairs:         make([]models.MatchedPair, len(occ.Pairs)),
		Shift:         occ.Shift.X.String(),
		Transposition: occ.Shift.Y,
	}
	for i, pr := range occ.Pairs {
		p := source.At(pr.SourceIndex)
		r.Pairs[i] = models.MatchedPair{
			PatternIndex: pr.PatternIndex,
			SourceIndex:  pr.SourceIndex,
			SourceNoteID: p.ID,
			Onset:        p.Onset.String(),
			Pitch:        p.Pitch,
		}
	}
	if occ.HasScale {
		r.Scale = occ.Scale.String()
	}
	for _, sc := range occ.LinkScales() {
		r.LinkScales = append(r.LinkScales, sc.String())
	}
	if occ.Algorithm == settings.P3 {
		r.Overlap = occ.Overlap.String()
	}
	return r
}

func (s *melodicService) selectPieces(ids []string) ([]models.Piece, error) {
	if len(ids) == 0 {
		return s.storage.ListPieces()
	}
	out := make([]models.Piece, 0, len(ids))
	for _, id := range ids {
		p, err := s.storage.GetPieceByID(id)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, nil
}

// RenderOccurrence synthesises the matched source notes of a piece as a WAV
// file and returns its path. An empty outPath writes into the temp dir.
func (s *melodicService) RenderOccurrence(ctx context.Context, pieceID string, pairs []models.MatchedPair, outPath string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	notes, err := s.GetNotes(pieceID)
	if err != nil {
		return "", err
	}
	src, err := pointSet(notes)
	if err != nil {
		return "", err
	}

	points := make([]geometry.Point, 0, len(pairs))
	for _, pr := range pairs {
		if pr.SourceIndex < 0 || pr.SourceIndex >= src.Len() {
			return "", fmt.Errorf("source index %d out of range for piece %s with %d notes", pr.SourceIndex, pieceID, src.Len())
		}
		points = append(points, src.At(pr.SourceIndex))
	}

	if outPath == "" {
		outPath = filepath.Join(s.config.TempDir, pieceID+"-excerpt.wav")
	}
	cfg := audio.RenderConfig{SampleRate: s.config.SampleRate, BPM: s.config.BPM}
	if err := audio.RenderFile(outPath, points, cfg); err != nil {
		return "", fmt.Errorf("rendering excerpt: %w", err)
	}
	s.log.Infof("Rendered %d notes to %s", len(points), outPath)
	return outPath, nil
}

// Close releases all resources held by the service.
func (s *melodicService) Close() error {
	return s.storage.Close()
}
