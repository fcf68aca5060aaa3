package analytics

import "github.com/verte-zerg/swingkiosk/internal/model"

// Metric names used in comparisons.
const (
	MetricClubSpeed   = "clubSpeed"
	MetricBallSpeed   = "ballSpeed"
	MetricLaunchAngle = "launchAngle"
	MetricSmashFactor = "smashFactor"
	MetricDistance    = "distance"
)

// MetricComparison is one before/after row.
type MetricComparison struct {
	Metric      string  `json:"metric"`
	Before      float64 `json:"before"`
	After       float64 `json:"after"`
	Improvement float64 `json:"improvement"`
}

// Comparison contrasts the first and second phase of a series.
type Comparison struct {
	Metrics                []MetricComparison `json:"metrics"`
	DistanceImprovement    float64            `json:"distanceImprovement"`
	DirectionalImprovement float64            `json:"directionalImprovement"`
}

// Compare returns the before/after rows for two completed phases. It returns
// false when either phase is missing.
func Compare(before, after *model.SwingData, multiplier float64) (Comparison, bool) {
	if before == nil || after == nil {
		return Comparison{}, false
	}
	b, a := before.Averages, after.Averages
	rows := []MetricComparison{
		row(MetricClubSpeed, b.ClubSpeed, a.ClubSpeed),
		row(MetricBallSpeed, b.BallSpeed, a.BallSpeed),
		row(MetricLaunchAngle, b.LaunchAngle, a.LaunchAngle),
		row(MetricSmashFactor, SmashFactor(b), SmashFactor(a)),
		row(MetricDistance, b.Distance, a.Distance),
	}
	pair := []model.SwingData{*before, *after}
	return Comparison{
		Metrics:                rows,
		DistanceImprovement:    ImprovementRate(pair),
		DirectionalImprovement: DirectionalImprovement(pair, multiplier),
	}, true
}

// SmashFactor is ball speed over club speed, 0 without club speed.
func SmashFactor(avg model.Averages) float64 {
	if avg.ClubSpeed == 0 {
		return 0
	}
	return avg.BallSpeed / avg.ClubSpeed
}

func row(metric string, before, after float64) MetricComparison {
	return MetricComparison{Metric: metric, Before: before, After: after, Improvement: percentChange(before, after)}
}
