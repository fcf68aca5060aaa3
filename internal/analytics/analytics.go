// Package analytics derives presentation series from the swing history.
// Every function is a read-only projection of its input.
package analytics

import "github.com/verte-zerg/swingkiosk/internal/model"

// MaxDispersionSeries caps the number of dispersion series.
const MaxDispersionSeries = 5

// TrendPoint holds, for one shot index, the distance of each ledger entry at
// that index. Distances[i] is 0 when entry i has no reading at the index.
type TrendPoint struct {
	Shot      int       `json:"shot"`
	Distances []float64 `json:"distances"`
}

// DispersionPoint is one shot against the target line.
type DispersionPoint struct {
	Target  float64 `json:"target"`
	Actual  float64 `json:"actual"`
	Lateral float64 `json:"lateral"`
}

// DispersionSeries is the shot pattern of one ledger entry.
type DispersionSeries struct {
	SwingNumber int               `json:"swingNumber"`
	Baseline    bool              `json:"baseline"`
	Points      []DispersionPoint `json:"points"`
}

// View bundles every derived series for one ledger state.
type View struct {
	Trend                  []TrendPoint       `json:"distanceTrend"`
	Dispersion             []DispersionSeries `json:"dispersion"`
	ImprovementRate        float64            `json:"improvementRate"`
	DirectionalImprovement float64            `json:"directionalImprovement"`
}

// Derive computes every view over ledger.
func Derive(ledger []model.SwingData, cfg model.Config) View {
	return View{
		Trend:                  DistanceTrend(ledger, cfg.Shots),
		Dispersion:             Dispersion(ledger, cfg.TargetDistance),
		ImprovementRate:        ImprovementRate(ledger),
		DirectionalImprovement: DirectionalImprovement(ledger, cfg.DirectionalMultiplier),
	}
}

// DistanceTrend returns one point per shot index 1..shots.
func DistanceTrend(ledger []model.SwingData, shots int) []TrendPoint {
	if shots <= 0 {
		return nil
	}
	points := make([]TrendPoint, shots)
	for i := range points {
		points[i] = TrendPoint{Shot: i + 1, Distances: make([]float64, len(ledger))}
		for j, entry := range ledger {
			points[i].Distances[j] = distanceAt(entry, i+1)
		}
	}
	return points
}

func distanceAt(entry model.SwingData, shot int) float64 {
	for _, m := range entry.Measurements {
		if m.ShotIndex == shot {
			return m.Distance
		}
	}
	if shot-1 < len(entry.Measurements) {
		return entry.Measurements[shot-1].Distance
	}
	return 0
}

// Dispersion returns the shot pattern of each entry, baseline first and then
// the remaining entries newest to oldest, capped at MaxDispersionSeries.
func Dispersion(ledger []model.SwingData, target float64) []DispersionSeries {
	if len(ledger) == 0 {
		return nil
	}
	order := make([]int, 0, len(ledger))
	order = append(order, 0)
	for i := len(ledger) - 1; i >= 1; i-- {
		order = append(order, i)
	}
	if len(order) > MaxDispersionSeries {
		order = order[:MaxDispersionSeries]
	}

	out := make([]DispersionSeries, 0, len(order))
	for _, idx := range order {
		entry := ledger[idx]
		points := make([]DispersionPoint, len(entry.Measurements))
		for i, m := range entry.Measurements {
			points[i] = DispersionPoint{Target: target, Actual: m.Distance, Lateral: m.Lateral}
		}
		out = append(out, DispersionSeries{SwingNumber: entry.SwingNumber, Baseline: idx == 0, Points: points})
	}
	return out
}

// ImprovementRate is the percent change in average distance from the first to
// the last entry. It is 0 with fewer than two entries or a zero baseline.
func ImprovementRate(ledger []model.SwingData) float64 {
	if len(ledger) < 2 {
		return 0
	}
	return percentChange(ledger[0].Averages.Distance, ledger[len(ledger)-1].Averages.Distance)
}

// DirectionalImprovement is a presentation heuristic, not a measured quantity:
// the change in average launch angle from the first to the last entry scaled by
// multiplier. It is 0 with fewer than two entries.
func DirectionalImprovement(ledger []model.SwingData, multiplier float64) float64 {
	if len(ledger) < 2 {
		return 0
	}
	delta := ledger[len(ledger)-1].Averages.LaunchAngle - ledger[0].Averages.LaunchAngle
	return delta * multiplier
}

func percentChange(before, after float64) float64 {
	if before == 0 {
		return 0
	}
	return (after - before) / before * 100
}
