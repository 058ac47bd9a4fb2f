package store

import (
	"fmt"
	"io"
	"strings"

	"github.com/eduai/lkpd/internal/model"
)

// Backend selects how documents are persisted.
type Backend string

const (
	// BackendFS writes one JSON file per document (default).
	BackendFS Backend = "fs"
	// BackendSQLite keeps documents as rows in a SQLite database.
	BackendSQLite Backend = "sqlite"
)

// Config is injected at composition time; the store holds no global paths.
type Config struct {
	WorksheetsPath string
	AnswersPath    string
	Backend        Backend
	DBPath         string // sqlite backend only
}

// Store is the sole writer of persisted state: worksheet definitions and
// per-worksheet answer logs.
type Store struct {
	worksheets Documents
	answers    Documents
	closer     io.Closer
}

// New opens the configured backend. For the fs backend both directories are
// created if absent.
func New(cfg Config) (*Store, error) {
	switch Backend(strings.ToLower(string(cfg.Backend))) {
	case BackendFS, "":
		ws, err := NewFileDocuments(cfg.WorksheetsPath)
		if err != nil {
			return nil, fmt.Errorf("worksheets: %w", err)
		}
		ans, err := NewFileDocuments(cfg.AnswersPath)
		if err != nil {
			return nil, fmt.Errorf("answers: %w", err)
		}
		return NewWithDocuments(ws, ans), nil
	case BackendSQLite:
		db, err := OpenSQLite(cfg.DBPath)
		if err != nil {
			return nil, err
		}
		s := NewWithDocuments(NewSQLiteDocuments(db, "worksheets"), NewSQLiteDocuments(db, "answers"))
		s.closer = db
		return s, nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}

// NewWithDocuments builds a Store over existing collections.
func NewWithDocuments(worksheets, answers Documents) *Store {
	return &Store{worksheets: worksheets, answers: answers}
}

// Close releases the backend, if it holds any resources.
func (s *Store) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

// SaveWorksheet persists a worksheet under its ID.
func (s *Store) SaveWorksheet(w model.Worksheet) error {
	return s.worksheets.Write(w.ID, w)
}

// Worksheet returns the worksheet stored under id. A missing, corrupt or
// empty (null or {}) document reports false.
func (s *Store) Worksheet(id string) (model.Worksheet, bool) {
	var w *model.Worksheet
	if !Read(s.worksheets, id, &w) || w == nil {
		return model.Worksheet{}, false
	}
	if w.ID == "" && w.Title == "" && len(w.Questions) == 0 {
		return model.Worksheet{}, false
	}
	if w.ID == "" {
		w.ID = id
	}
	return *w, true
}

// WorksheetIDs lists all stored worksheet IDs.
func (s *Store) WorksheetIDs() ([]string, error) {
	return s.worksheets.Keys()
}

// AppendResult appends r to the answer log of worksheetID.
func (s *Store) AppendResult(worksheetID string, r model.EvaluationResult) error {
	return Append(s.answers, worksheetID, r)
}

// AnswerLog returns the answer log of worksheetID, empty when absent or corrupt.
func (s *Store) AnswerLog(worksheetID string) model.AnswerLog {
	var log model.AnswerLog
	if !Read(s.answers, worksheetID, &log) {
		return nil
	}
	return log
}
