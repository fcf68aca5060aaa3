package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/swingkiosk/internal/model"
	"github.com/verte-zerg/swingkiosk/internal/stats"
)

// tile is one labelled reading on the measurement screen.
type tile struct {
	label string
	value string
	unit  string
}

// tileGap separates tiles on the same row.
const tileGap = 1

func readingTiles(m model.SwingMeasurement) []tile {
	return []tile{
		{label: "Club Speed", value: fmt.Sprintf("%.1f", m.ClubSpeed), unit: "m/s"},
		{label: "Ball Speed", value: fmt.Sprintf("%.1f", m.BallSpeed), unit: "m/s"},
		{label: "Launch", value: fmt.Sprintf("%.1f", m.LaunchAngle), unit: "deg"},
		{label: "Direction", value: stats.Side(m.Direction, "%.1f"), unit: "deg"},
		{label: "Lateral", value: stats.Side(m.Lateral, "%.1f"), unit: "m"},
		{label: "Distance", value: fmt.Sprintf("%.1f", m.Distance), unit: "m"},
		{label: "Side Spin", value: stats.Side(m.SideSpin, "%.0f"), unit: "rpm"},
		{label: "Back Spin", value: fmt.Sprintf("%.0f", m.BackSpin), unit: "rpm"},
		{label: "Flight", value: m.BallFlight},
	}
}

func averageTiles(avg model.Averages) []tile {
	return []tile{
		{label: "Club Speed", value: fmt.Sprintf("%.1f", avg.ClubSpeed), unit: "m/s"},
		{label: "Ball Speed", value: fmt.Sprintf("%.1f", avg.BallSpeed), unit: "m/s"},
		{label: "Distance", value: fmt.Sprintf("%.1f", avg.Distance), unit: "m"},
		{label: "Launch", value: fmt.Sprintf("%.1f", avg.LaunchAngle), unit: "deg"},
	}
}

// tileWidth is the inner display width of a tile, before borders and padding.
func tileWidth(t tile) int {
	value := t.value
	if t.unit != "" {
		value += " " + t.unit
	}
	return max(runewidth.StringWidth(t.label), runewidth.StringWidth(value))
}

func renderTile(t tile, width int) string {
	value := tileValueStyle.Render(t.value)
	valueWidth := runewidth.StringWidth(t.value)
	if t.unit != "" {
		value += " " + tileUnitStyle.Render(t.unit)
		valueWidth += 1 + runewidth.StringWidth(t.unit)
	}
	if valueWidth < width {
		value += strings.Repeat(" ", width-valueWidth)
	}
	label := tileLabelStyle.Render(runewidth.FillRight(t.label, width))
	return tileStyle.Render(label + "\n" + value)
}

// wrapTiles lays tiles out left to right, starting a new row when the next
// tile would exceed width. All tiles share the widest inner width.
func wrapTiles(tiles []tile, width int) string {
	if len(tiles) == 0 {
		return ""
	}
	inner := 0
	for _, t := range tiles {
		inner = max(inner, tileWidth(t))
	}
	rendered := make([]string, len(tiles))
	for i, t := range tiles {
		rendered[i] = renderTile(t, inner)
	}
	outer := lipgloss.Width(rendered[0])
	if width <= 0 {
		return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
	}

	var rows []string
	var line []string
	lineWidth := 0
	for _, r := range rendered {
		need := outer
		if len(line) > 0 {
			need += tileGap
		}
		if lineWidth+need > width && len(line) > 0 {
			rows = append(rows, joinRow(line))
			line = line[:0]
			lineWidth = 0
			need = outer
		}
		line = append(line, r)
		lineWidth += need
	}
	rows = append(rows, joinRow(line))
	return strings.Join(rows, "\n")
}

func joinRow(tiles []string) string {
	parts := make([]string, 0, len(tiles)*2)
	gap := strings.Repeat(" ", tileGap)
	for i, t := range tiles {
		if i > 0 {
			parts = append(parts, gap)
		}
		parts = append(parts, t)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

// progressBar renders count of total as a fixed-width bar.
func progressBar(count, total, width int) string {
	if total <= 0 || width <= 0 {
		return ""
	}
	filled := min(width, count*width/total)
	return barFilledStyle.Render(strings.Repeat("█", filled)) +
		barEmptyStyle.Render(strings.Repeat("░", width-filled))
}

// alignColumns pads cells to their column width by display width. The first
// column is left aligned, the rest right aligned.
func alignColumns(rows [][]string) []string {
	widths := []int{}
	for _, row := range rows {
		for i, cell := range row {
			if i >= len(widths) {
				widths = append(widths, 0)
			}
			widths[i] = max(widths[i], runewidth.StringWidth(cell))
		}
	}
	out := make([]string, 0, len(rows))
	for _, row := range rows {
		cells := make([]string, len(row))
		for i, cell := range row {
			if i == 0 {
				cells[i] = runewidth.FillRight(cell, widths[i])
			} else {
				cells[i] = runewidth.FillLeft(cell, widths[i])
			}
		}
		out = append(out, strings.Join(cells, "  "))
	}
	return out
}
