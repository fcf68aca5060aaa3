package session

import (
	"fmt"
	"time"

	"github.com/verte-zerg/swingkiosk/internal/model"
)

// Aggregate returns the arithmetic mean of each metric.
func Aggregate(measurements []model.SwingMeasurement) (model.Averages, error) {
	if len(measurements) == 0 {
		return model.Averages{}, ErrEmptyBuffer
	}
	var sum model.Averages
	for _, m := range measurements {
		sum.ClubSpeed += m.ClubSpeed
		sum.BallSpeed += m.BallSpeed
		sum.Distance += m.Distance
		sum.LaunchAngle += m.LaunchAngle
		sum.Spin += m.Spin
	}
	n := float64(len(measurements))
	return model.Averages{
		ClubSpeed:   sum.ClubSpeed / n,
		BallSpeed:   sum.BallSpeed / n,
		Distance:    sum.Distance / n,
		LaunchAngle: sum.LaunchAngle / n,
		Spin:        sum.Spin / n,
	}, nil
}

// BuildSwing aggregates a full phase buffer into SwingData.
func BuildSwing(number int, step model.Step, buffer []model.SwingMeasurement, shots int, completedAt time.Time) (model.SwingData, error) {
	if len(buffer) != shots {
		return model.SwingData{}, fmt.Errorf("build swing %d: have %d of %d readings: %w", number, len(buffer), shots, ErrIncompleteBuffer)
	}
	avg, err := Aggregate(buffer)
	if err != nil {
		return model.SwingData{}, fmt.Errorf("build swing %d: %w", number, err)
	}
	return model.SwingData{
		SwingNumber:  number,
		Step:         step,
		Measurements: append([]model.SwingMeasurement(nil), buffer...),
		Averages:     avg,
		CompletedAt:  completedAt,
	}, nil
}
