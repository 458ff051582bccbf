package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/claude/swimtrack/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// InsertSession stores one session. Returns true if inserted, false if the ID already exists.
func (db *DB) InsertSession(ctx context.Context, s models.Session) (bool, error) {
	z := zoneColumns(s.Zones)
	tag, err := db.Pool.Exec(ctx,
		`INSERT INTO sessions (id, user_id, date, distance_m, duration_min, rpe, z1, z2, z3, z4, z5, notes)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		 ON CONFLICT DO NOTHING`,
		s.ID, s.UserID, models.Day(s.Date), s.DistanceM, s.DurationMin, s.RPE,
		z[0], z[1], z[2], z[3], z[4], s.Notes)
	if err != nil {
		return false, fmt.Errorf("inserting session: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// QuerySessions retrieves sessions with start <= date <= end, oldest first.
// Zero start or end leaves that side open.
func (db *DB) QuerySessions(ctx context.Context, start, end time.Time, userID int) ([]models.Session, error) {
	lo, hi := sessionBounds(start, end)
	rows, err := db.Pool.Query(ctx,
		`SELECT id, user_id, date, distance_m, duration_min, rpe, z1, z2, z3, z4, z5, notes
		 FROM sessions
		 WHERE user_id = $1 AND date >= $2 AND date <= $3
		 ORDER BY date ASC, created_at ASC`,
		userID, lo, hi)
	if err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}
	defer rows.Close()

	return scanSessions(rows)
}

// DeleteSession removes a session. Returns false if it did not exist.
func (db *DB) DeleteSession(ctx context.Context, id uuid.UUID, userID int) (bool, error) {
	tag, err := db.Pool.Exec(ctx, `DELETE FROM sessions WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return false, fmt.Errorf("deleting session: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func scanSessions(rows pgx.Rows) ([]models.Session, error) {
	var result []models.Session
	for rows.Next() {
		var s models.Session
		var z [5]float64
		if err := rows.Scan(&s.ID, &s.UserID, &s.Date, &s.DistanceM, &s.DurationMin, &s.RPE,
			&z[0], &z[1], &z[2], &z[3], &z[4], &s.Notes); err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		s.Date = models.Day(s.Date)
		s.Zones = zonesFromColumns(z)
		result = append(result, s)
	}
	return result, rows.Err()
}

// zoneColumns flattens a zone map into z1..z5 column values; missing zones are 0.
func zoneColumns(zones map[models.Zone]float64) [5]float64 {
	var out [5]float64
	for i, z := range models.Zones {
		out[i] = zones[z]
	}
	return out
}

// zonesFromColumns keeps only non-zero zones so round-tripped sessions match
// what was uploaded.
func zonesFromColumns(cols [5]float64) map[models.Zone]float64 {
	var out map[models.Zone]float64
	for i, v := range cols {
		if v == 0 {
			continue
		}
		if out == nil {
			out = make(map[models.Zone]float64, len(cols))
		}
		out[models.Zones[i]] = v
	}
	return out
}

// sessionBounds maps open-ended ranges to the widest dates Postgres accepts.
func sessionBounds(start, end time.Time) (time.Time, time.Time) {
	lo, hi := models.Day(start), models.Day(end)
	if start.IsZero() {
		lo = time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	if end.IsZero() {
		hi = time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)
	}
	return lo, hi
}
