package model

import (
	"errors"
	"time"
)

var (
	// ErrInvalidInput marks a request missing a required field.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound marks a reference to a worksheet or answer log that does not exist.
	ErrNotFound = errors.New("not found")
)

// QuestionType tags how a question is presented. Scoring treats all types alike.
type QuestionType string

const (
	// QuestionMultipleChoice is a question answered by picking an option label.
	QuestionMultipleChoice QuestionType = "PG"
	// QuestionShortAnswer is a question answered with a short free-text response.
	QuestionShortAnswer QuestionType = "IS"
)

// DefaultQuestionScore is the point value given to a question that does not declare one.
const DefaultQuestionScore = 10.0

// Question is a single graded item of a worksheet.
type Question struct {
	ID      string            `json:"id"`
	Type    QuestionType      `json:"type"`
	Prompt  string            `json:"question"`
	Options map[string]string `json:"options,omitempty"`
	Answer  string            `json:"answer"`
	Score   float64           `json:"score"`
}

// Worksheet is a themed set of graded questions (LKPD).
type Worksheet struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Theme       string     `json:"theme"`
	Difficulty  string     `json:"difficulty"`
	GeneratedAt time.Time  `json:"generated_at"`
	Questions   []Question `json:"questions"`
}

// MaxScore returns the sum of all question point values. Negative values
// are not counted.
func (w Worksheet) MaxScore() float64 {
	var total float64
	for _, q := range w.Questions {
		total += max(q.Score, 0)
	}
	return total
}

// SubmittedAnswer is one student response, referencing a question by ID.
type SubmittedAnswer struct {
	QuestionID string `json:"id"`
	Response   string `json:"response"`
}

// ScoringPath records where the feedback of a result came from.
type ScoringPath string

const (
	// ScoringAI means the feedback text was produced by the text model.
	ScoringAI ScoringPath = "ai"
	// ScoringFallback means the text model failed and a fixed sentence was used.
	ScoringFallback ScoringPath = "fallback"
)

// EvaluationResult is an immutable, scored submission. It is appended to an
// AnswerLog and never edited afterwards.
type EvaluationResult struct {
	Name        string            `json:"name"`
	Score       float64           `json:"score"`
	MaxScore    float64           `json:"max_score"`
	Feedback    string            `json:"feedback"`
	ComputedBy  ScoringPath       `json:"computed_by"`
	SubmittedAt time.Time         `json:"submitted_at"`
	Answers     []SubmittedAnswer `json:"answers"`
}

// AnswerLog is the append-only, insertion-ordered list of results for one worksheet.
type AnswerLog []EvaluationResult
