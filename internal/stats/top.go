package stats

import (
	"sort"

	"github.com/verte-zerg/swingkiosk/internal/model"
)

// ClubSummary aggregates archived swings for one club.
type ClubSummary struct {
	Club        string
	Swings      int
	AvgDistance float64
	AvgClub     float64
	BestSwing   model.SwingAggregate
}

// TopSwingsByDistance returns the n swings with the longest average distance.
func TopSwingsByDistance(swings []model.SwingAggregate, n int) []model.SwingAggregate {
	if n <= 0 || len(swings) == 0 {
		return nil
	}
	sorted := make([]model.SwingAggregate, len(swings))
	copy(sorted, swings)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Averages.Distance > sorted[j].Averages.Distance
	})
	return sorted[:min(n, len(sorted))]
}

// ByClub groups swings by club, most used first.
func ByClub(swings []model.SwingAggregate) []ClubSummary {
	index := map[string]int{}
	var out []ClubSummary
	for _, s := range swings {
		club := s.Club
		if club == "" {
			club = "-"
		}
		i, ok := index[club]
		if !ok {
			i = len(out)
			index[club] = i
			out = append(out, ClubSummary{Club: club, BestSwing: s})
		}
		c := &out[i]
		c.Swings++
		c.AvgDistance += s.Averages.Distance
		c.AvgClub += s.Averages.ClubSpeed
		if s.Averages.Distance > c.BestSwing.Averages.Distance {
			c.BestSwing = s
		}
	}
	for i := range out {
		out[i].AvgDistance /= float64(out[i].Swings)
		out[i].AvgClub /= float64(out[i].Swings)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Swings == out[j].Swings {
			return out[i].Club < out[j].Club
		}
		return out[i].Swings > out[j].Swings
	})
	return out
}
