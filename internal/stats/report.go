package stats

import (
	"context"
	"fmt"
	"io"

	"github.com/verte-zerg/swingkiosk/internal/analytics"
	"github.com/verte-zerg/swingkiosk/internal/model"
	"github.com/verte-zerg/swingkiosk/internal/store"
)

// Report contains precomputed data for stats rendering.
type Report struct {
	Swings        []model.SwingAggregate
	WindowSwingID []int64
	Shots         map[int64][]model.SwingMeasurement
	Series        []SeriesSummary
}

// SeriesSummary is the distance progression of one series.
type SeriesSummary struct {
	SeriesID      string
	Swings        int
	FirstDistance float64
	LastDistance  float64
	Improvement   float64
}

// BuildReport loads and prepares data for stats rendering.
func BuildReport(ctx context.Context, st *store.Store, cfg model.StatsConfig) (Report, error) {
	swings, err := st.ListSwings(ctx, cfg)
	if err != nil {
		return Report{}, err
	}
	windowIDs := lastSwingIDs(swings, cfg.CurveWindow)
	shots, err := st.ListShotsForSwings(ctx, windowIDs)
	if err != nil {
		return Report{}, err
	}
	return Report{
		Swings:        swings,
		WindowSwingID: windowIDs,
		Shots:         shots,
		Series:        SummarizeSeries(swings),
	}, nil
}

// SummarizeSeries groups swings by series in first-seen order.
func SummarizeSeries(swings []model.SwingAggregate) []SeriesSummary {
	index := map[string]int{}
	var grouped [][]model.SwingData
	var ids []string
	for _, s := range swings {
		i, ok := index[s.SeriesID]
		if !ok {
			i = len(grouped)
			index[s.SeriesID] = i
			grouped = append(grouped, nil)
			ids = append(ids, s.SeriesID)
		}
		grouped[i] = append(grouped[i], model.SwingData{SwingNumber: s.SwingNumber, Averages: s.Averages})
	}
	out := make([]SeriesSummary, len(grouped))
	for i, g := range grouped {
		out[i] = SeriesSummary{
			SeriesID:      ids[i],
			Swings:        len(g),
			FirstDistance: g[0].Averages.Distance,
			LastDistance:  g[len(g)-1].Averages.Distance,
			Improvement:   analytics.ImprovementRate(g),
		}
	}
	return out
}

// RenderSeriesTable prints the progression of each series.
func RenderSeriesTable(w io.Writer, series []SeriesSummary) error {
	if len(series) == 0 {
		return nil
	}
	if _, err := fmt.Fprintln(w, "Series"); err != nil {
		return err
	}
	headers := []string{"Series", "Swings", "First", "Last", "Improvement"}
	rows := make([][]string, 0, len(series))
	for _, s := range series {
		rows = append(rows, []string{
			ShortID(s.SeriesID),
			fmt.Sprintf("%d", s.Swings),
			fmt.Sprintf("%.1f", s.FirstDistance),
			fmt.Sprintf("%.1f", s.LastDistance),
			fmt.Sprintf("%+.2f%%", s.Improvement),
		})
	}
	for _, line := range formatTable(headers, rows, map[int]bool{1: true, 2: true, 3: true, 4: true}) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

func swingIDs(swings []model.SwingAggregate) []int64 {
	ids := make([]int64, len(swings))
	for i, s := range swings {
		ids[i] = s.ID
	}
	return ids
}

func lastSwingIDs(swings []model.SwingAggregate, window int) []int64 {
	if window <= 0 || len(swings) <= window {
		return swingIDs(swings)
	}
	return swingIDs(swings[len(swings)-window:])
}
