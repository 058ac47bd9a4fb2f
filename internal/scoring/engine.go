// Package scoring computes worksheet scores by exact answer matching and asks
// the text model for qualitative feedback, degrading to a fixed sentence when
// the model is unavailable.
package scoring

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"strings"

	"github.com/eduai/lkpd/internal/llm/prompts"
	"github.com/eduai/lkpd/internal/model"
)

// DefaultFallbackFeedback is used when no localized sentence is configured.
const DefaultFallbackFeedback = "AI feedback could not be generated; the score was computed automatically."

var (
	errNoGenerator   = errors.New("no text generator configured")
	errEmptyFeedback = errors.New("empty feedback")
)

// TextGenerator is the generative text capability used for feedback.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// Engine scores submissions against a worksheet.
type Engine struct {
	gen              TextGenerator
	lang             prompts.Language
	fallbackFeedback string
}

// Option customises an Engine.
type Option func(*Engine)

// WithLanguage sets the language of the feedback prompt.
func WithLanguage(l prompts.Language) Option { return func(e *Engine) { e.lang = l } }

// WithFallbackFeedback sets the sentence used when the text model fails.
func WithFallbackFeedback(s string) Option {
	return func(e *Engine) {
		if s = strings.TrimSpace(s); s != "" {
			e.fallbackFeedback = s
		}
	}
}

// New creates an Engine. gen may be nil, in which case every result takes the
// fallback path.
func New(gen TextGenerator, opts ...Option) *Engine {
	e := &Engine{
		gen:              gen,
		lang:             prompts.LangIndonesian,
		fallbackFeedback: DefaultFallbackFeedback,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Tally is the raw outcome of matching answers against a worksheet.
type Tally struct {
	Awarded  float64
	Possible float64
	Correct  int
}

// Percentage returns Awarded/Possible as a percentage rounded to 2 decimals,
// or 0 when nothing can be scored.
func (t Tally) Percentage() float64 {
	if t.Possible <= 0 {
		return 0
	}
	return round2(t.Awarded / t.Possible * 100)
}

// TallyAnswers matches answers against the worksheet questions in order.
// A question without an answer is matched against the empty string; answers
// referencing unknown question IDs are ignored.
func TallyAnswers(w model.Worksheet, answers []model.SubmittedAnswer) Tally {
	responses := make(map[string]string, len(answers))
	for _, a := range answers {
		// First answer for an ID wins.
		if _, seen := responses[a.QuestionID]; !seen {
			responses[a.QuestionID] = a.Response
		}
	}

	var t Tally
	for _, q := range w.Questions {
		if q.Score < 0 {
			continue
		}
		t.Possible += q.Score
		if normalize(responses[q.ID]) == normalize(q.Answer) {
			t.Awarded += q.Score
			t.Correct++
		}
	}
	return t
}

// Score computes the result for one submission. The numeric score depends
// only on the worksheet and the answers; the text model only supplies the
// feedback text, and its failure switches ComputedBy to fallback.
func (e *Engine) Score(ctx context.Context, w model.Worksheet, answers []model.SubmittedAnswer, studentName string) model.EvaluationResult {
	tally := TallyAnswers(w, answers)
	pct := tally.Percentage()

	res := model.EvaluationResult{
		Name:     studentName,
		Score:    pct,
		MaxScore: w.MaxScore(),
		Answers:  append([]model.SubmittedAnswer(nil), answers...),
	}

	feedback, err := e.feedback(ctx, w, studentName, pct)
	if err != nil {
		slog.Warn("feedback generation failed, using fallback",
			"worksheet_id", w.ID, "student", studentName, "error", err)
		res.Feedback = e.fallbackFeedback
		res.ComputedBy = model.ScoringFallback
		return res
	}
	res.Feedback = feedback
	res.ComputedBy = model.ScoringAI
	return res
}

func (e *Engine) feedback(ctx context.Context, w model.Worksheet, studentName string, pct float64) (string, error) {
	if e.gen == nil {
		return "", errNoGenerator
	}
	prompt, err := prompts.BuildFeedback(e.lang, prompts.FeedbackData{
		StudentName: studentName,
		Theme:       w.Theme,
		Score:       pct,
	})
	if err != nil {
		return "", err
	}
	text, err := e.gen.GenerateText(ctx, prompt)
	if err != nil {
		return "", err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", errEmptyFeedback
	}
	return text, nil
}

func normalize(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
