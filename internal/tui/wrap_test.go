package tui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/swingkiosk/internal/model"
)

func TestWrapTilesFitsWidth(t *testing.T) {
	tiles := readingTiles(model.SwingMeasurement{ClubSpeed: 50.1, Distance: 231.4, Direction: -1.2, BallFlight: "hook"})
	out := wrapTiles(tiles, 60)
	for _, line := range strings.Split(out, "\n") {
		if w := lipgloss.Width(line); w > 60 {
			t.Fatalf("line width %d exceeds 60: %q", w, line)
		}
	}
	if !strings.Contains(out, "L1.2") {
		t.Fatalf("expected signed direction in tiles:\n%s", out)
	}
}

func TestWrapTilesSingleRowWithoutWidth(t *testing.T) {
	tiles := averageTiles(model.Averages{Distance: 220})
	out := wrapTiles(tiles, 0)
	if got := strings.Count(out, "\n"); got != 3 {
		t.Fatalf("expected one row of bordered tiles (4 lines), got %d newlines", got)
	}
}

func TestWrapTilesKeepsOneTilePerRowWhenNarrow(t *testing.T) {
	tiles := averageTiles(model.Averages{})
	out := wrapTiles(tiles, 5)
	if got := strings.Count(out, "╭"); got != len(tiles) {
		t.Fatalf("expected %d tiles, got %d", len(tiles), got)
	}
	if got := strings.Count(out, "\n"); got != len(tiles)*4-1 {
		t.Fatalf("expected one tile per row, got %d newlines", got)
	}
}

func TestProgressBar(t *testing.T) {
	bar := progressBar(5, 10, 10)
	if got := strings.Count(bar, "█"); got != 5 {
		t.Fatalf("expected 5 filled cells, got %d", got)
	}
	if progressBar(1, 0, 10) != "" {
		t.Fatalf("expected empty bar without total")
	}
}

func TestAlignColumns(t *testing.T) {
	lines := alignColumns([][]string{{"a", "1"}, {"long", "100"}})
	if lines[0] != "a       1" || lines[1] != "long  100" {
		t.Fatalf("unexpected alignment: %q", lines)
	}
}
