// Package worksheet generates LKPD worksheets with the text model and reads
// them back from the store.
package worksheet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/eduai/lkpd/internal/llm/prompts"
	"github.com/eduai/lkpd/internal/model"
)

// ErrMalformedOutput is returned when the model reply holds no usable worksheet.
var ErrMalformedOutput = errors.New("malformed worksheet output")

// TextGenerator is the generative text capability used to draft worksheets.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// Store persists and lists worksheets.
type Store interface {
	SaveWorksheet(w model.Worksheet) error
	Worksheet(id string) (model.Worksheet, bool)
	WorksheetIDs() ([]string, error)
}

// Service drafts worksheets and serves stored ones.
type Service struct {
	gen   TextGenerator
	store Store
	lang  prompts.Language
	now   func() time.Time
	newID func() string
}

// New creates a worksheet Service prompting in lang.
func New(gen TextGenerator, store Store, lang prompts.Language) *Service {
	if !prompts.IsValidLanguage(string(lang)) {
		lang = prompts.LangIndonesian
	}
	return &Service{gen: gen, store: store, lang: lang, now: time.Now, newID: shortID}
}

// shortID returns the first 8 hex characters of a random UUID.
func shortID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// Generate asks the text model for a worksheet on theme at level, normalises
// the reply and stores it. Transport failures are returned as is; there is no
// fallback worksheet.
func (s *Service) Generate(ctx context.Context, theme, level string) (model.Worksheet, error) {
	theme = strings.TrimSpace(theme)
	level = strings.TrimSpace(level)
	if theme == "" || level == "" {
		return model.Worksheet{}, fmt.Errorf("%w: theme and level are required", model.ErrInvalidInput)
	}
	if s.gen == nil {
		return model.Worksheet{}, errors.New("no text generator configured")
	}

	prompt, err := prompts.BuildGenerate(s.lang, prompts.GenerateData{Theme: theme, Level: level})
	if err != nil {
		return model.Worksheet{}, fmt.Errorf("build prompt: %w", err)
	}
	reply, err := s.gen.GenerateText(ctx, prompt)
	if err != nil {
		return model.Worksheet{}, fmt.Errorf("generate worksheet: %w", err)
	}

	w, err := Parse(reply)
	if err != nil {
		slog.Warn("unusable worksheet reply", "theme", theme, "error", err)
		return model.Worksheet{}, err
	}

	w.ID = s.newID()
	if strings.TrimSpace(w.Title) == "" {
		w.Title = "LKPD: " + theme
	}
	w.Theme = theme
	w.Difficulty = level
	w.GeneratedAt = s.now().UTC()

	if err := s.store.SaveWorksheet(w); err != nil {
		return model.Worksheet{}, fmt.Errorf("save worksheet: %w", err)
	}
	slog.Info("worksheet generated", "id", w.ID, "theme", theme, "questions", len(w.Questions))
	return w, nil
}

// Get returns the stored worksheet id.
func (s *Service) Get(id string) (model.Worksheet, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return model.Worksheet{}, fmt.Errorf("%w: worksheet id is required", model.ErrInvalidInput)
	}
	w, ok := s.store.Worksheet(id)
	if !ok {
		return model.Worksheet{}, fmt.Errorf("worksheet %q: %w", id, model.ErrNotFound)
	}
	return w, nil
}

// IDs lists stored worksheet IDs in sorted order.
func (s *Service) IDs() ([]string, error) {
	ids, err := s.store.WorksheetIDs()
	if err != nil {
		return nil, err
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}
