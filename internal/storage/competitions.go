package storage

import (
	"context"
	"fmt"

	"github.com/claude/swimtrack/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// LoadCompetitions returns a user's competitions ordered by date.
func (db *DB) LoadCompetitions(ctx context.Context, userID int) ([]models.Competition, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT id, name, date, location, type, priority, status, results, created_at, updated_at
		 FROM competitions
		 WHERE user_id = $1
		 ORDER BY date ASC`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("querying competitions: %w", err)
	}
	defer rows.Close()

	var result []models.Competition
	for rows.Next() {
		var c models.Competition
		var typ, priority, status string
		if err := rows.Scan(&c.ID, &c.Name, &c.Date, &c.Location, &typ, &priority, &status,
			&c.Results, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning competition: %w", err)
		}
		c.Type = models.CompetitionType(typ)
		c.Priority = models.Priority(priority)
		c.Status = models.CompetitionStatus(status)
		result = append(result, c)
	}
	return result, rows.Err()
}

// SaveCompetitions replaces a user's competitions in one transaction.
func (db *DB) SaveCompetitions(ctx context.Context, userID int, comps []models.Competition) error {
	ids := make([]uuid.UUID, len(comps))
	for i, c := range comps {
		ids[i] = c.ID
	}

	return db.withTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`DELETE FROM competitions WHERE user_id = $1 AND NOT (id = ANY($2))`,
			userID, ids); err != nil {
			return fmt.Errorf("deleting removed competitions: %w", err)
		}

		for _, c := range comps {
			if _, err := tx.Exec(ctx,
				`INSERT INTO competitions (id, user_id, name, date, location, type, priority, status,
				 results, created_at, updated_at)
				 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
				 ON CONFLICT (id) DO UPDATE SET
				 name = EXCLUDED.name, date = EXCLUDED.date, location = EXCLUDED.location,
				 type = EXCLUDED.type, priority = EXCLUDED.priority, status = EXCLUDED.status,
				 results = EXCLUDED.results, updated_at = EXCLUDED.updated_at
				 WHERE competitions.user_id = EXCLUDED.user_id`,
				c.ID, userID, c.Name, models.Day(c.Date), c.Location, string(c.Type),
				string(c.Priority), string(c.Status), c.Results, c.CreatedAt, c.UpdatedAt); err != nil {
				return fmt.Errorf("saving competition %s: %w", c.ID, err)
			}
		}
		return nil
	})
}
