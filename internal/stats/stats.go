// Package stats contains archive statistics and reporting.
package stats

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/verte-zerg/swingkiosk/internal/analytics"
	"github.com/verte-zerg/swingkiosk/internal/model"
)

const sparkChars = " .:-=+*#%@"

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	if window <= 1 || len(values) == 0 {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}
	out := make([]float64, len(values))
	var sum float64
	for i := 0; i < len(values); i++ {
		sum += values[i]
		if i >= window {
			sum -= values[i-window]
		}
		den := float64(i + 1)
		if i >= window {
			den = float64(window)
		}
		out[i] = sum / den
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal, maxVal := minMax(values)
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		idx = max(0, min(idx, len(sparkChars)-1))
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// RenderSummary prints headline numbers for archived swings.
func RenderSummary(w io.Writer, swings []model.SwingAggregate) error {
	if len(swings) == 0 {
		_, err := fmt.Fprintln(w, "No swings found.")
		return err
	}
	series := map[string]struct{}{}
	var totalDist, totalClub, totalSmash float64
	best := swings[0]
	for _, s := range swings {
		series[s.SeriesID] = struct{}{}
		totalDist += s.Averages.Distance
		totalClub += s.Averages.ClubSpeed
		totalSmash += analytics.SmashFactor(s.Averages)
		if s.Averages.Distance > best.Averages.Distance {
			best = s
		}
	}
	count := float64(len(swings))
	lines := []string{
		"Summary",
		fmt.Sprintf("Swings: %d", len(swings)),
		fmt.Sprintf("Series: %d", len(series)),
		fmt.Sprintf("Avg Distance: %.1f", totalDist/count),
		fmt.Sprintf("Best Distance: %.1f (swing %d, %s)", best.Averages.Distance, best.SwingNumber, best.CompletedAt.Format("2006-01-02 15:04")),
		fmt.Sprintf("Avg Club Speed: %.1f", totalClub/count),
		fmt.Sprintf("Avg Smash Factor: %.2f", totalSmash/count),
		"",
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// RenderCurves prints moving-average curves of distance and club speed.
func RenderCurves(w io.Writer, swings []model.SwingAggregate, window int) error {
	return RenderCurvesWithSize(w, swings, window, 0, 10, false)
}

// RenderCurvesWithSize prints the curves sized to a given total width.
func RenderCurvesWithSize(w io.Writer, swings []model.SwingAggregate, window, totalWidth, height int, useColor bool) error {
	if len(swings) == 0 {
		return nil
	}
	dist := make([]float64, len(swings))
	club := make([]float64, len(swings))
	ball := make([]float64, len(swings))
	for i, s := range swings {
		dist[i] = s.Averages.Distance
		club[i] = s.Averages.ClubSpeed
		ball[i] = s.Averages.BallSpeed
	}
	width := 0
	if totalWidth > 0 {
		width = PlotWidthFor(totalWidth)
	}
	if err := PlotSeriesWithColor(w, "Distance", []Series{
		{Name: "Distance", Values: MovingAverage(dist, window)},
	}, width, height, useColor); err != nil {
		return err
	}
	return PlotSeriesWithColor(w, "Speed", []Series{
		{Name: "Club", Values: MovingAverage(club, window)},
		{Name: "Ball", Values: MovingAverage(ball, window)},
	}, width, height, useColor)
}

// RenderSwingTable prints one row per archived swing.
func RenderSwingTable(w io.Writer, swings []model.SwingAggregate) error {
	if len(swings) == 0 {
		_, err := fmt.Fprintln(w, "No swings found.")
		return err
	}
	if _, err := fmt.Fprintln(w, "Swings"); err != nil {
		return err
	}
	headers := []string{"Series", "#", "Step", "Club", "Distance", "Club Spd", "Ball Spd", "Smash", "Launch"}
	rows := make([][]string, 0, len(swings))
	for _, s := range swings {
		rows = append(rows, SwingRow(s))
	}
	rightAlign := map[int]bool{1: true, 4: true, 5: true, 6: true, 7: true, 8: true}
	for _, line := range formatTable(headers, rows, rightAlign) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// SwingRow formats a swing aggregate as table cells.
func SwingRow(s model.SwingAggregate) []string {
	club := s.Club
	if club == "" {
		club = "-"
	}
	return []string{
		ShortID(s.SeriesID),
		fmt.Sprintf("%d", s.SwingNumber),
		string(s.Step),
		club,
		fmt.Sprintf("%.1f", s.Averages.Distance),
		fmt.Sprintf("%.1f", s.Averages.ClubSpeed),
		fmt.Sprintf("%.1f", s.Averages.BallSpeed),
		fmt.Sprintf("%.2f", analytics.SmashFactor(s.Averages)),
		fmt.Sprintf("%.1f", s.Averages.LaunchAngle),
	}
}

// RenderShotTable prints the shots of one swing.
func RenderShotTable(w io.Writer, shots []model.SwingMeasurement) error {
	if len(shots) == 0 {
		_, err := fmt.Fprintln(w, "No shots recorded.")
		return err
	}
	headers := []string{"Shot", "Club Spd", "Ball Spd", "Launch", "Direction", "Lateral", "Distance", "Side Spin", "Back Spin", "Flight"}
	rows := make([][]string, 0, len(shots))
	for _, m := range shots {
		rows = append(rows, []string{
			fmt.Sprintf("%d", m.ShotIndex),
			fmt.Sprintf("%.1f", m.ClubSpeed),
			fmt.Sprintf("%.1f", m.BallSpeed),
			fmt.Sprintf("%.1f", m.LaunchAngle),
			Side(m.Direction, "%.1f"),
			Side(m.Lateral, "%.1f"),
			fmt.Sprintf("%.1f", m.Distance),
			Side(m.SideSpin, "%.0f"),
			fmt.Sprintf("%.0f", m.BackSpin),
			m.BallFlight,
		})
	}
	rightAlign := map[int]bool{0: true, 1: true, 2: true, 3: true, 4: true, 5: true, 6: true, 7: true, 8: true}
	for _, line := range formatTable(headers, rows, rightAlign) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// Side formats a signed reading with an L or R prefix.
func Side(v float64, format string) string {
	if v < 0 {
		return "L" + fmt.Sprintf(format, -v)
	}
	return "R" + fmt.Sprintf(format, v)
}

// ShortID trims a series id for display.
func ShortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func minMax(values []float64) (float64, float64) {
	minVal, maxVal := values[0], values[0]
	for _, v := range values[1:] {
		minVal = min(minVal, v)
		maxVal = max(maxVal, v)
	}
	return minVal, maxVal
}
