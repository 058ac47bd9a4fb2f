// Package submission scores a student's answers and appends the result to the
// worksheet's answer log.
package submission

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/eduai/lkpd/internal/model"
)

// Store is the persistence the workflow needs.
type Store interface {
	Worksheet(id string) (model.Worksheet, bool)
	AppendResult(worksheetID string, r model.EvaluationResult) error
}

// Scorer turns a worksheet and answers into an unstamped result.
type Scorer interface {
	Score(ctx context.Context, w model.Worksheet, answers []model.SubmittedAnswer, studentName string) model.EvaluationResult
}

// Service runs the submission workflow.
type Service struct {
	store  Store
	scorer Scorer
	now    func() time.Time
}

// New creates a submission Service.
func New(store Store, scorer Scorer) *Service {
	return &Service{store: store, scorer: scorer, now: time.Now}
}

// Submit validates the request, scores the answers, stamps the result with the
// current UTC time and appends it to the answer log of worksheetID.
//
// It fails with model.ErrInvalidInput when worksheetID or studentName is
// empty and with model.ErrNotFound when the worksheet does not exist; neither
// case touches storage. Retried calls append again: there is no deduplication.
func (s *Service) Submit(ctx context.Context, worksheetID, studentName string, answers []model.SubmittedAnswer) (model.EvaluationResult, error) {
	worksheetID = strings.TrimSpace(worksheetID)
	studentName = strings.TrimSpace(studentName)
	if worksheetID == "" || studentName == "" {
		return model.EvaluationResult{}, fmt.Errorf("%w: worksheet id and student name are required", model.ErrInvalidInput)
	}

	w, ok := s.store.Worksheet(worksheetID)
	if !ok {
		return model.EvaluationResult{}, fmt.Errorf("worksheet %q: %w", worksheetID, model.ErrNotFound)
	}

	res := s.scorer.Score(ctx, w, answers, studentName)
	res.SubmittedAt = s.now().UTC()
	if res.Answers == nil {
		res.Answers = []model.SubmittedAnswer{}
	}

	if err := s.store.AppendResult(worksheetID, res); err != nil {
		return model.EvaluationResult{}, fmt.Errorf("save result: %w", err)
	}

	slog.Info("submission stored",
		"worksheet_id", worksheetID,
		"student", studentName,
		"score", res.Score,
		"computed_by", res.ComputedBy,
	)
	return res, nil
}
