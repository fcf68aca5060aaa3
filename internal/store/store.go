// Package store handles SQLite persistence of completed swings.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/verte-zerg/swingkiosk/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Store wraps SQLite access for the swing archive.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS swings (
			id INTEGER PRIMARY KEY,
			series_id TEXT NOT NULL,
			swing_number INTEGER NOT NULL,
			step TEXT NOT NULL,
			completed_at TEXT NOT NULL,
			gender TEXT NOT NULL,
			age_range TEXT NOT NULL,
			handicap TEXT NOT NULL,
			club TEXT NOT NULL,
			avg_club_speed REAL NOT NULL,
			avg_ball_speed REAL NOT NULL,
			avg_distance REAL NOT NULL,
			avg_launch_angle REAL NOT NULL,
			avg_spin REAL NOT NULL,
			UNIQUE (series_id, swing_number)
		);`,
		`CREATE TABLE IF NOT EXISTS swing_shots (
			swing_id INTEGER NOT NULL,
			shot_index INTEGER NOT NULL,
			club_speed REAL NOT NULL,
			ball_speed REAL NOT NULL,
			distance REAL NOT NULL,
			launch_angle REAL NOT NULL,
			spin REAL NOT NULL,
			direction REAL NOT NULL,
			lateral REAL NOT NULL,
			side_spin REAL NOT NULL,
			back_spin REAL NOT NULL,
			ball_flight TEXT NOT NULL,
			captured_at TEXT NOT NULL,
			PRIMARY KEY (swing_id, shot_index)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_swings_completed_at ON swings(completed_at);`,
		`CREATE INDEX IF NOT EXISTS idx_swings_series ON swings(series_id);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// InsertSwing stores a completed phase and its shots.
func (s *Store) InsertSwing(ctx context.Context, sub model.SwingSubmission) (id int64, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	swing := sub.Swing
	res, err := tx.ExecContext(ctx,
		`INSERT INTO swings (series_id, swing_number, step, completed_at, gender, age_range, handicap, club,
			avg_club_speed, avg_ball_speed, avg_distance, avg_launch_angle, avg_spin)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sub.SeriesID,
		swing.SwingNumber,
		string(swing.Step),
		swing.CompletedAt.Format(time.RFC3339Nano),
		sub.Profile.Gender,
		sub.Profile.AgeRange,
		sub.Profile.Handicap,
		sub.Profile.Club,
		swing.Averages.ClubSpeed,
		swing.Averages.BallSpeed,
		swing.Averages.Distance,
		swing.Averages.LaunchAngle,
		swing.Averages.Spin,
	)
	if err != nil {
		return 0, err
	}
	id, err = res.LastInsertId()
	if err != nil {
		return 0, err
	}

	if len(swing.Measurements) > 0 {
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO swing_shots (swing_id, shot_index, club_speed, ball_speed, distance, launch_angle, spin,
				direction, lateral, side_spin, back_spin, ball_flight, captured_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return 0, err
		}
		defer func() {
			if cerr := stmt.Close(); cerr != nil {
				// Best-effort statement close.
				_ = cerr
			}
		}()
		for _, m := range swing.Measurements {
			if _, err := stmt.ExecContext(ctx, id, m.ShotIndex, m.ClubSpeed, m.BallSpeed, m.Distance, m.LaunchAngle, m.Spin,
				m.Direction, m.Lateral, m.SideSpin, m.BackSpin, m.BallFlight, m.CapturedAt.Format(time.RFC3339Nano)); err != nil {
				return 0, err
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

// ListSwings returns swing aggregates filtered by stats config, oldest first.
// A positive cfg.Last keeps only the most recent swings.
func (s *Store) ListSwings(ctx context.Context, cfg model.StatsConfig) ([]model.SwingAggregate, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if cfg.SeriesID != "" {
		clauses = append(clauses, "series_id = ?")
		args = append(args, cfg.SeriesID)
	}
	if cfg.Since != nil {
		clauses = append(clauses, "completed_at >= ?")
		args = append(args, cfg.Since.Format(time.RFC3339Nano))
	}
	limit := -1
	if cfg.Last > 0 {
		limit = cfg.Last
	}
	args = append(args, limit)
	query := fmt.Sprintf(`SELECT id, series_id, swing_number, step, completed_at, club,
			avg_club_speed, avg_ball_speed, avg_distance, avg_launch_angle, avg_spin
		FROM (
			SELECT * FROM swings
			WHERE %s
			ORDER BY completed_at DESC, id DESC
			LIMIT ?
		)
		ORDER BY completed_at ASC, id ASC`, strings.Join(clauses, " AND "))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var swings []model.SwingAggregate
	for rows.Next() {
		var agg model.SwingAggregate
		var step, completedAt string
		if err := rows.Scan(&agg.ID, &agg.SeriesID, &agg.SwingNumber, &step, &completedAt, &agg.Club,
			&agg.Averages.ClubSpeed, &agg.Averages.BallSpeed, &agg.Averages.Distance, &agg.Averages.LaunchAngle, &agg.Averages.Spin); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(time.RFC3339Nano, completedAt)
		if err != nil {
			return nil, err
		}
		agg.Step = model.Step(step)
		agg.CompletedAt = parsed
		swings = append(swings, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return swings, nil
}

// ListShotsForSwings returns the shots of each swing ordered by shot index.
func (s *Store) ListShotsForSwings(ctx context.Context, swingIDs []int64) (map[int64][]model.SwingMeasurement, error) {
	if len(swingIDs) == 0 {
		return map[int64][]model.SwingMeasurement{}, nil
	}
	placeholders := make([]string, len(swingIDs))
	args := make([]any, len(swingIDs))
	for i, id := range swingIDs {
		placeholders[i] = "?"
		args[i] = id
	}
	query := fmt.Sprintf(`SELECT swing_id, shot_index, club_speed, ball_speed, distance, launch_angle, spin,
			direction, lateral, side_spin, back_spin, ball_flight, captured_at
		FROM swing_shots
		WHERE swing_id IN (%s)
		ORDER BY swing_id, shot_index`, strings.Join(placeholders, ","))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	result := map[int64][]model.SwingMeasurement{}
	for rows.Next() {
		var swingID int64
		var m model.SwingMeasurement
		var capturedAt string
		if err := rows.Scan(&swingID, &m.ShotIndex, &m.ClubSpeed, &m.BallSpeed, &m.Distance, &m.LaunchAngle, &m.Spin,
			&m.Direction, &m.Lateral, &m.SideSpin, &m.BackSpin, &m.BallFlight, &capturedAt); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(time.RFC3339Nano, capturedAt)
		if err != nil {
			return nil, err
		}
		m.CapturedAt = parsed
		result[swingID] = append(result[swingID], m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// LoadSeries rebuilds the swings of one series in completion order.
func (s *Store) LoadSeries(ctx context.Context, seriesID string) ([]model.SwingData, error) {
	aggs, err := s.ListSwings(ctx, model.StatsConfig{SeriesID: seriesID})
	if err != nil {
		return nil, err
	}
	ids := make([]int64, len(aggs))
	for i, a := range aggs {
		ids[i] = a.ID
	}
	shots, err := s.ListShotsForSwings(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]model.SwingData, len(aggs))
	for i, a := range aggs {
		out[i] = model.SwingData{
			SwingNumber:  a.SwingNumber,
			Step:         a.Step,
			Measurements: shots[a.ID],
			Averages:     a.Averages,
			CompletedAt:  a.CompletedAt,
		}
	}
	return out, nil
}

// SeriesIDs returns every archived series, most recent first.
func (s *Store) SeriesIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT series_id FROM swings GROUP BY series_id ORDER BY MAX(completed_at) DESC`)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}
