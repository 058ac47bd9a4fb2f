// Package recap projects answer logs into per-student summaries and renders
// them as CSV or XLSX.
package recap

import (
	"github.com/eduai/lkpd/internal/model"
)

// Band thresholds, inclusive lower bounds.
const (
	HighThreshold     = 85.0
	AdequateThreshold = 60.0
)

// Band classifies a score. It is recomputed on every read, so changing the
// thresholds reclassifies stored results.
func Band(score float64) model.StatusBand {
	switch {
	case score >= HighThreshold:
		return model.BandHigh
	case score >= AdequateThreshold:
		return model.BandAdequate
	default:
		return model.BandNeedsGuidance
	}
}

// LogSource yields the answer log of a worksheet, empty when there is none.
type LogSource interface {
	AnswerLog(worksheetID string) model.AnswerLog
}

// Projector builds recap rows from stored answer logs.
type Projector struct {
	logs LogSource
}

// NewProjector creates a Projector reading from logs.
func NewProjector(logs LogSource) *Projector {
	return &Projector{logs: logs}
}

// Project returns one row per stored result of worksheetID in submission
// order. A worksheet without submissions yields an empty, non-nil slice.
func (p *Projector) Project(worksheetID string, labels Labels) []model.RecapRow {
	return Rows(p.logs.AnswerLog(worksheetID), labels)
}

// Rows projects an answer log.
func Rows(log model.AnswerLog, labels Labels) []model.RecapRow {
	rows := make([]model.RecapRow, 0, len(log))
	for _, r := range log {
		band := Band(r.Score)
		rows = append(rows, model.RecapRow{
			Name:          r.Name,
			Score:         r.Score,
			Band:          band,
			Status:        labels.Status(band),
			SubmittedAt:   r.SubmittedAt,
			Feedback:      r.Feedback,
			AnsweredCount: len(r.Answers),
		})
	}
	return rows
}
