package session

import "github.com/verte-zerg/swingkiosk/internal/model"

// Snapshot is a read-only copy of the session state.
type Snapshot struct {
	SeriesID       string                  `json:"seriesId"`
	Profile        model.Profile           `json:"profile"`
	Step           model.Step              `json:"currentStep"`
	Phase          model.Phase             `json:"phase"`
	Shots          int                     `json:"shots"`
	FirstProgress  int                     `json:"firstSwingProgress"`
	SecondProgress int                     `json:"secondSwingProgress"`
	FirstSwing     *model.SwingData        `json:"firstSwingData,omitempty"`
	SecondSwing    *model.SwingData        `json:"secondSwingData,omitempty"`
	Ledger         []model.SwingData       `json:"swingHistory"`
	SwingCount     int                     `json:"swingCount"`
	Solution       *model.SolutionData     `json:"solutionData,omitempty"`
	Latest         *model.SwingMeasurement `json:"currentMeasurement,omitempty"`
	Version        uint64                  `json:"version"`
}

// Progress returns the counter of the active measurement phase.
func (s Snapshot) Progress() int {
	if s.Step == model.StepSwingSecond {
		return s.SecondProgress
	}
	return s.FirstProgress
}
