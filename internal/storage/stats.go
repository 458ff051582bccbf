package storage

import (
	"context"
	"fmt"
	"time"
)

// DataStats holds aggregate statistics about a user's stored data.
type DataStats struct {
	TotalSessions     int64      `json:"total_sessions"`
	TotalDistanceM    float64    `json:"total_distance_m"`
	TotalPhases       int64      `json:"total_phases"`
	TotalCompetitions int64      `json:"total_competitions"`
	EarliestSession   *time.Time `json:"earliest_session"`
	LatestSession     *time.Time `json:"latest_session"`
}

// GetDataStats returns aggregate statistics for a user's stored data.
func (db *DB) GetDataStats(ctx context.Context, userID int) (*DataStats, error) {
	stats := &DataStats{}

	err := db.Pool.QueryRow(ctx,
		`SELECT COUNT(*), COALESCE(SUM(distance_m), 0), MIN(date), MAX(date)
		 FROM sessions WHERE user_id = $1`, userID,
	).Scan(&stats.TotalSessions, &stats.TotalDistanceM, &stats.EarliestSession, &stats.LatestSession)
	if err != nil {
		return nil, fmt.Errorf("counting sessions: %w", err)
	}

	err = db.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM training_phases WHERE user_id = $1`, userID,
	).Scan(&stats.TotalPhases)
	if err != nil {
		return nil, fmt.Errorf("counting phases: %w", err)
	}

	err = db.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM competitions WHERE user_id = $1`, userID,
	).Scan(&stats.TotalCompetitions)
	if err != nil {
		return nil, fmt.Errorf("counting competitions: %w", err)
	}

	return stats, nil
}
