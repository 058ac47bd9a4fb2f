package submission

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/eduai/lkpd/internal/model"
	"github.com/eduai/lkpd/internal/scoring"
	"github.com/eduai/lkpd/internal/store"
)

type genFunc func(ctx context.Context, prompt string) (string, error)

func (f genFunc) GenerateText(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

func newTestService(t *testing.T, gen scoring.TextGenerator) (*Service, *store.Store) {
	t.Helper()
	dir := t.TempDir()
	s, err := store.New(store.Config{
		WorksheetsPath: filepath.Join(dir, "lkpd_outputs"),
		AnswersPath:    filepath.Join(dir, "answers"),
	})
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	w := model.Worksheet{
		ID:    "ab12cd34",
		Title: "LKPD Fotosintesis",
		Theme: "Fotosintesis",
		Questions: []model.Question{
			{ID: "1", Type: model.QuestionMultipleChoice, Answer: "A", Score: 10},
			{ID: "2", Type: model.QuestionMultipleChoice, Answer: "B", Score: 20},
		},
	}
	if err := s.SaveWorksheet(w); err != nil {
		t.Fatalf("SaveWorksheet: %v", err)
	}

	svc := New(s, scoring.New(gen))
	svc.now = func() time.Time {
		return time.Date(2025, 3, 1, 16, 30, 0, 0, time.FixedZone("WIB", 7*3600))
	}
	return svc, s
}

func TestSubmitEndToEnd(t *testing.T) {
	svc, s := newTestService(t, genFunc(func(context.Context, string) (string, error) {
		return "Bagus, tingkatkan lagi.", nil
	}))
	subm := []model.SubmittedAnswer{{QuestionID: "1", Response: "a"}, {QuestionID: "2", Response: "C"}}

	res, err := svc.Submit(context.Background(), "ab12cd34", "Ani", subm)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if res.Score != 33.33 {
		t.Errorf("Score = %v, want 33.33", res.Score)
	}
	if res.ComputedBy != model.ScoringAI {
		t.Errorf("ComputedBy = %q, want ai", res.ComputedBy)
	}
	wantAt := time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)
	if !res.SubmittedAt.Equal(wantAt) || res.SubmittedAt.Location() != time.UTC {
		t.Errorf("SubmittedAt = %v, want %v in UTC", res.SubmittedAt, wantAt)
	}

	log := s.AnswerLog("ab12cd34")
	if len(log) != 1 {
		t.Fatalf("expected 1 stored result, got %d", len(log))
	}
	if log[0].Name != "Ani" || log[0].Score != 33.33 || len(log[0].Answers) != 2 {
		t.Errorf("stored result = %+v", log[0])
	}
	if !log[0].SubmittedAt.Equal(wantAt) {
		t.Errorf("stored SubmittedAt = %v, want %v", log[0].SubmittedAt, wantAt)
	}
}

func TestSubmitFallbackStillSucceeds(t *testing.T) {
	svc, s := newTestService(t, genFunc(func(context.Context, string) (string, error) {
		return "", errors.New("model unavailable")
	}))
	res, err := svc.Submit(context.Background(), "ab12cd34", "Budi",
		[]model.SubmittedAnswer{{QuestionID: "1", Response: "A"}, {QuestionID: "2", Response: "B"}})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if res.ComputedBy != model.ScoringFallback || res.Score != 100 {
		t.Errorf("result = %+v, want fallback with score 100", res)
	}
	if len(s.AnswerLog("ab12cd34")) != 1 {
		t.Error("fallback result was not stored")
	}
}

func TestSubmitValidation(t *testing.T) {
	svc, s := newTestService(t, nil)

	tests := []struct {
		name        string
		worksheetID string
		student     string
		wantErr     error
	}{
		{"missing worksheet id", "", "Ani", model.ErrInvalidInput},
		{"missing name", "ab12cd34", "", model.ErrInvalidInput},
		{"blank name", "ab12cd34", "   ", model.ErrInvalidInput},
		{"unknown worksheet", "ffffffff", "Ani", model.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Submit(context.Background(), tt.worksheetID, tt.student, nil)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Submit() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	if log := s.AnswerLog("ab12cd34"); len(log) != 0 {
		t.Errorf("rejected submissions were stored: %+v", log)
	}
	if log := s.AnswerLog("ffffffff"); len(log) != 0 {
		t.Errorf("log created for unknown worksheet: %+v", log)
	}
}

func TestSubmitAppendsEachCall(t *testing.T) {
	svc, s := newTestService(t, nil)
	for i := 0; i < 3; i++ {
		if _, err := svc.Submit(context.Background(), "ab12cd34", "Citra", nil); err != nil {
			t.Fatalf("Submit #%d: %v", i, err)
		}
	}
	log := s.AnswerLog("ab12cd34")
	if len(log) != 3 {
		t.Fatalf("expected 3 results, got %d", len(log))
	}
	if log[0].Answers == nil {
		t.Error("stored answers should be an empty list, not null")
	}
}

type failingStore struct {
	w model.Worksheet
}

func (f failingStore) Worksheet(string) (model.Worksheet, bool) { return f.w, true }

func (f failingStore) AppendResult(string, model.EvaluationResult) error {
	return store.ErrPersistence
}

func TestSubmitPersistenceFailure(t *testing.T) {
	svc := New(failingStore{}, scoring.New(nil))
	_, err := svc.Submit(context.Background(), "ab12cd34", "Dewi", nil)
	if !errors.Is(err, store.ErrPersistence) {
		t.Errorf("Submit() error = %v, want ErrPersistence", err)
	}
}
