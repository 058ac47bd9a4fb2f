package model

import "time"

// StatusBand is a coarse qualitative label derived from a score.
type StatusBand string

const (
	BandHigh          StatusBand = "High"
	BandAdequate      StatusBand = "Adequate"
	BandNeedsGuidance StatusBand = "Needs Guidance"
)

// RecapRow is the per-student summary projected from an AnswerLog.
type RecapRow struct {
	Name          string     `json:"name"`
	Score         float64    `json:"score"`
	Band          StatusBand `json:"band"`
	Status        string     `json:"status"` // Band rendered in the UI language
	SubmittedAt   time.Time  `json:"submitted_at"`
	Feedback      string     `json:"feedback"`
	AnsweredCount int        `json:"total_questions"`
}
