package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/himanishpuri/MelodicDNA/pkg/logger"
	"github.com/himanishpuri/MelodicDNA/pkg/melodicdna"
	"github.com/himanishpuri/MelodicDNA/pkg/models"
	"github.com/himanishpuri/MelodicDNA/pkg/utils"
)

// Server encapsulates the HTTP server and its dependencies
type Server struct {
	service melodicdna.Service
	config  *ServerConfig
	log     melodicdna.Logger
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port           int
	DBPath         string
	TempDir        string
	AllowedOrigins []string
	LogRequests    bool
}

// NewServer creates a new server instance
func NewServer(service melodicdna.Service, config *ServerConfig) *Server {
	return &Server{
		service: service,
		config:  config,
		log:     logger.GetLogger().With("[http]"),
	}
}

// respondJSON writes a JSON response
func (s *Server) respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Errorf("Failed to encode JSON response: %v", err)
	}
}

// respondError writes an error response
func (s *Server) respondError(w http.ResponseWriter, statusCode int, message string) {
	s.respondJSON(w, statusCode, ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
		Code:    statusCode,
	})
}

// statusFor maps service errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, melodicdna.ErrPieceNotFound):
		return http.StatusNotFound
	case errors.Is(err, melodicdna.ErrValidation),
		errors.Is(err, melodicdna.ErrInvalidNote),
		errors.Is(err, melodicdna.ErrEmptyPiece):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// handleRoot handles GET /
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"service": "MelodicDNA API",
		"version": "1.0.0",
		"endpoints": map[string]string{
			"health":      "GET /health",
			"metrics":     "GET /api/health/metrics",
			"pieces":      "GET /api/pieces",
			"addPiece":    "POST /api/pieces",
			"getPiece":    "GET /api/pieces/{id}",
			"deletePiece": "DELETE /api/pieces/{id}",
			"search":      "POST /api/search",
			"match":       "POST /api/match",
		},
	})
}

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

// handleMetrics handles GET /api/health/metrics
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	pieces, err := s.service.ListPieces()
	if err != nil {
		s.log.Errorf("Failed to get piece count: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to retrieve metrics")
		return
	}

	notes := 0
	for _, p := range pieces {
		notes += p.NoteCount
	}

	s.respondJSON(w, http.StatusOK, MetricsResponse{
		Status:       "healthy",
		DatabasePath: s.config.DBPath,
		PieceCount:   len(pieces),
		NoteCount:    notes,
	})
}

// handleListPieces handles GET /api/pieces
func (s *Server) handleListPieces(w http.ResponseWriter, r *http.Request) {
	pieces, err := s.service.ListPieces()
	if err != nil {
		s.log.Errorf("Failed to list pieces: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to retrieve pieces")
		return
	}
	if pieces == nil {
		pieces = []models.Piece{}
	}

	s.respondJSON(w, http.StatusOK, ListPiecesResponse{
		Pieces: pieces,
		Count:  len(pieces),
	})
}

// handleGetPiece handles GET /api/pieces/{id}. ?notes=false omits the notes.
func (s *Server) handleGetPiece(w http.ResponseWriter, r *http.Request, pieceID string) {
	piece, err := s.service.GetPiece(pieceID)
	if err != nil {
		s.log.Warnf("Piece not found: %s", pieceID)
		s.respondError(w, statusFor(err), fmt.Sprintf("Piece with ID %s not found", pieceID))
		return
	}

	resp := PieceResponse{Piece: *piece}
	if r.URL.Query().Get("notes") != "false" {
		resp.Notes, err = s.service.GetNotes(pieceID)
		if err != nil {
			s.log.Errorf("Failed to load notes of %s: %v", pieceID, err)
			s.respondError(w, statusFor(err), "Failed to load notes")
			return
		}
	}

	s.respondJSON(w, http.StatusOK, resp)
}

// handleDeletePiece handles DELETE /api/pieces/{id}
func (s *Server) handleDeletePiece(w http.ResponseWriter, r *http.Request, pieceID string) {
	// Get piece info before deletion
	piece, err := s.service.GetPiece(pieceID)
	if err != nil {
		s.log.Warnf("Piece not found for deletion: %s", pieceID)
		s.respondError(w, statusFor(err), fmt.Sprintf("Piece with ID %s not found", pieceID))
		return
	}

	if err := s.service.DeletePiece(pieceID); err != nil {
		s.log.Errorf("Failed to delete piece %s: %v", pieceID, err)
		s.respondError(w, statusFor(err), "Failed to delete piece")
		return
	}

	s.log.Infof("Deleted piece: %s by %s (ID: %s)", piece.Title, piece.Composer, pieceID)
	s.respondJSON(w, http.StatusOK, DeletePieceResponse{
		Message: "Piece deleted successfully",
		ID:      pieceID,
	})
}

// handleAddPiece handles POST /api/pieces with either a JSON body or a
// multipart upload of a CSV or JSON note file
func (s *Server) handleAddPiece(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), time.Minute)
	defer cancel()

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		s.handleAddPieceFile(ctx, w, r)
		return
	}

	var req AddPieceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.log.Errorf("Failed to decode request: %v", err)
		s.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.log.Infof("Adding piece: %s by %s", req.Title, req.Composer)
	pieceID, err := s.service.AddPiece(ctx, req.Title, req.Composer, req.Notes)
	if err != nil {
		s.log.Errorf("Failed to add piece: %v", err)
		s.respondError(w, statusFor(err), fmt.Sprintf("Failed to add piece: %v", err))
		return
	}
	s.respondAdded(w, pieceID)
}

func (s *Server) handleAddPieceFile(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	// Parse multipart form (max 32MB)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		s.log.Errorf("Failed to parse form: %v", err)
		s.respondError(w, http.StatusBadRequest, "Failed to parse form data")
		return
	}

	title := r.FormValue("title")
	composer := r.FormValue("composer")

	file, header, err := r.FormFile("notes")
	if err != nil {
		s.log.Errorf("Failed to get notes file: %v", err)
		s.respondError(w, http.StatusBadRequest, "notes file is required")
		return
	}
	defer file.Close()

	// The reader is chosen by extension, so keep it
	base := filepath.Base(header.Filename)
	tempFile := filepath.Join(s.config.TempDir, fmt.Sprintf("upload_%d_%s", time.Now().UnixNano(), base))
	out, err := os.Create(tempFile)
	if err != nil {
		s.log.Errorf("Failed to create temp file: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to process upload")
		return
	}
	defer func() {
		if err := utils.DeleteFile(tempFile); err != nil {
			s.log.Warnf("Failed to remove upload: %v", err)
		}
	}()

	if _, err := io.Copy(out, file); err != nil {
		out.Close()
		s.log.Errorf("Failed to save file: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to save uploaded file")
		return
	}
	out.Close()

	if title == "" {
		title = strings.TrimSuffix(base, filepath.Ext(base))
	}

	s.log.Infof("Adding piece from file: %s by %s", title, composer)
	pieceID, err := s.service.AddPieceFromFile(ctx, tempFile, title, composer)
	if err != nil {
		s.log.Errorf("Failed to add piece: %v", err)
		s.respondError(w, statusFor(err), fmt.Sprintf("Failed to add piece: %v", err))
		return
	}
	s.respondAdded(w, pieceID)
}

func (s *Server) respondAdded(w http.ResponseWriter, pieceID string) {
	piece, err := s.service.GetPiece(pieceID)
	if err != nil {
		s.log.Errorf("Failed to read back piece %s: %v", pieceID, err)
		s.respondError(w, statusFor(err), "Piece stored but could not be read back")
		return
	}

	s.log.Infof("Successfully added piece: %s by %s (ID: %s)", piece.Title, piece.Composer, pieceID)
	s.respondJSON(w, http.StatusCreated, AddPieceResponse{
		Message:   "Piece added successfully",
		ID:        piece.ID,
		Title:     piece.Title,
		Composer:  piece.Composer,
		NoteCount: piece.NoteCount,
	})
}

// handleSearch handles POST /api/search
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Minute)
	defer cancel()

	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.log.Errorf("Failed to decode request: %v", err)
		s.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if len(req.Pattern) >= LargeSearchThreshold {
		s.log.Warnf("Large pattern received: %d notes", len(req.Pattern))
	}

	results, err := s.service.Search(ctx, req.Pattern, req.Settings, req.PieceIDs...)
	if err != nil {
		s.log.Errorf("Search failed: %v", err)
		s.respondError(w, statusFor(err), fmt.Sprintf("Search failed: %v", err))
		return
	}

	s.log.Infof("Search complete: found %d occurrences", len(results))
	s.respondResults(w, results)
}

// handleMatchNotes handles POST /api/match
func (s *Server) handleMatchNotes(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), time.Minute)
	defer cancel()

	var req MatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.log.Errorf("Failed to decode request: %v", err)
		s.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	results, err := s.service.Match(ctx, req.Pattern, req.Source, req.Settings)
	if err != nil {
		s.log.Errorf("Match failed: %v", err)
		s.respondError(w, statusFor(err), fmt.Sprintf("Match failed: %v", err))
		return
	}

	s.log.Infof("Match complete: found %d occurrences", len(results))
	s.respondResults(w, results)
}

func (s *Server) respondResults(w http.ResponseWriter, results []models.SearchResult) {
	if results == nil {
		results = []models.SearchResult{}
	}
	s.respondJSON(w, http.StatusOK, SearchResponse{
		Results: results,
		Count:   len(results),
	})
}

// handlePieces routes requests to /api/pieces
func (s *Server) handlePieces(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleListPieces(w, r)
	case http.MethodPost:
		s.handleAddPiece(w, r)
	default:
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// handlePiece routes requests to /api/pieces/{id}
func (s *Server) handlePiece(w http.ResponseWriter, r *http.Request) {
	pieceID := strings.Trim(r.URL.Path[len("/api/pieces/"):], "/")
	if pieceID == "" {
		s.respondError(w, http.StatusBadRequest, "Piece ID required")
		return
	}
	if strings.Contains(pieceID, "/") {
		s.respondError(w, http.StatusNotFound, "Unknown resource")
		return
	}

	switch r.Method {
	case http.MethodGet:
		s.handleGetPiece(w, r, pieceID)
	case http.MethodDelete:
		s.handleDeletePiece(w, r, pieceID)
	default:
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// handleSearchRoute routes requests to /api/search
func (s *Server) handleSearchRoute(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	s.handleSearch(w, r)
}

// handleMatch routes requests to /api/match
func (s *Server) handleMatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	s.handleMatchNotes(w, r)
}
