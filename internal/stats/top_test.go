package stats

import (
	"testing"

	"github.com/verte-zerg/swingkiosk/internal/model"
)

func agg(id int64, club string, distance float64) model.SwingAggregate {
	return model.SwingAggregate{ID: id, Club: club, SwingNumber: int(id), Averages: model.Averages{Distance: distance, ClubSpeed: 50}}
}

func TestTopSwingsByDistance(t *testing.T) {
	swings := []model.SwingAggregate{agg(1, "driver", 210), agg(2, "driver", 250), agg(3, "iron7", 230)}
	top := TopSwingsByDistance(swings, 2)
	if len(top) != 2 {
		t.Fatalf("expected 2 swings, got %d", len(top))
	}
	if top[0].ID != 2 || top[1].ID != 3 {
		t.Fatalf("unexpected order: %+v", top)
	}
	if swings[0].ID != 1 {
		t.Fatalf("input was reordered")
	}
	if got := TopSwingsByDistance(swings, 0); got != nil {
		t.Fatalf("expected nil for n=0, got %v", got)
	}
}

func TestByClub(t *testing.T) {
	swings := []model.SwingAggregate{agg(1, "iron7", 150), agg(2, "driver", 240), agg(3, "driver", 260), agg(4, "", 100)}
	clubs := ByClub(swings)
	if len(clubs) != 3 {
		t.Fatalf("expected 3 clubs, got %d", len(clubs))
	}
	if clubs[0].Club != "driver" || clubs[0].Swings != 2 {
		t.Fatalf("unexpected first club: %+v", clubs[0])
	}
	if clubs[0].AvgDistance != 250 {
		t.Fatalf("expected avg distance 250, got %.1f", clubs[0].AvgDistance)
	}
	if clubs[0].BestSwing.ID != 3 {
		t.Fatalf("expected best swing 3, got %d", clubs[0].BestSwing.ID)
	}
	if clubs[1].Club != "-" || clubs[2].Club != "iron7" {
		t.Fatalf("unexpected tie order: %+v", clubs)
	}
}
