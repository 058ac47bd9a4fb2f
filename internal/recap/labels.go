package recap

import "github.com/eduai/lkpd/internal/model"

// Message IDs looked up when localizing recap output.
const (
	MsgBandHigh          = "BandHigh"
	MsgBandAdequate      = "BandAdequate"
	MsgBandNeedsGuidance = "BandNeedsGuidance"
	MsgColName           = "RecapColName"
	MsgColScore          = "RecapColScore"
	MsgColStatus         = "RecapColStatus"
	MsgColSubmittedAt    = "RecapColSubmittedAt"
	MsgColFeedback       = "RecapColFeedback"
	MsgSheetTitle        = "RecapSheetTitle"
)

// Labels holds the human-readable strings used in recap output.
type Labels struct {
	Bands      map[model.StatusBand]string
	Headers    []string
	SheetTitle string
}

// DefaultLabels returns the untranslated English labels.
func DefaultLabels() Labels {
	return Labels{
		Bands: map[model.StatusBand]string{
			model.BandHigh:          string(model.BandHigh),
			model.BandAdequate:      string(model.BandAdequate),
			model.BandNeedsGuidance: string(model.BandNeedsGuidance),
		},
		Headers:    []string{"Name", "Score (%)", "Status", "Submitted At", "Feedback"},
		SheetTitle: "Score Recap",
	}
}

// LocalizedLabels builds Labels by translating each message ID with t.
func LocalizedLabels(t func(msgID string) string) Labels {
	return Labels{
		Bands: map[model.StatusBand]string{
			model.BandHigh:          t(MsgBandHigh),
			model.BandAdequate:      t(MsgBandAdequate),
			model.BandNeedsGuidance: t(MsgBandNeedsGuidance),
		},
		Headers: []string{
			t(MsgColName), t(MsgColScore), t(MsgColStatus), t(MsgColSubmittedAt), t(MsgColFeedback),
		},
		SheetTitle: t(MsgSheetTitle),
	}
}

// Status returns the label for band, falling back to the band itself.
func (l Labels) Status(band model.StatusBand) string {
	if s, ok := l.Bands[band]; ok && s != "" {
		return s
	}
	return string(band)
}
