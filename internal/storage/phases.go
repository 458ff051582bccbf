package storage

import (
	"context"
	"fmt"

	"github.com/claude/swimtrack/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// LoadPhases returns a user's macrocycle ordered by phase order.
func (db *DB) LoadPhases(ctx context.Context, userID int) ([]models.TrainingPhase, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT id, name, duration_weeks, phase_order, start_date, end_date,
		 intensity, weekly_volume_m, focus, created_at, updated_at
		 FROM training_phases
		 WHERE user_id = $1
		 ORDER BY phase_order ASC`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("querying phases: %w", err)
	}
	defer rows.Close()

	var result []models.TrainingPhase
	for rows.Next() {
		var p models.TrainingPhase
		if err := rows.Scan(&p.ID, &p.Name, &p.DurationWeeks, &p.Order, &p.StartDate, &p.EndDate,
			&p.Intensity, &p.WeeklyVolumeM, &p.Focus, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning phase: %w", err)
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

// SavePhases replaces a user's macrocycle with phases in one transaction.
// Phases missing from the list are deleted; the rest are upserted. The
// (user_id, phase_order) constraint is deferred to commit so reorders can swap.
func (db *DB) SavePhases(ctx context.Context, userID int, phases []models.TrainingPhase) error {
	return db.withTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`DELETE FROM training_phases WHERE user_id = $1 AND NOT (id = ANY($2))`,
			userID, phaseIDs(phases)); err != nil {
			return fmt.Errorf("deleting removed phases: %w", err)
		}

		for _, p := range phases {
			focus := p.Focus
			if focus == nil {
				focus = []string{}
			}
			if _, err := tx.Exec(ctx,
				`INSERT INTO training_phases (id, user_id, name, duration_weeks, phase_order, start_date, end_date,
				 intensity, weekly_volume_m, focus, created_at, updated_at)
				 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
				 ON CONFLICT (id) DO UPDATE SET
				 name = EXCLUDED.name, duration_weeks = EXCLUDED.duration_weeks,
				 phase_order = EXCLUDED.phase_order, start_date = EXCLUDED.start_date,
				 end_date = EXCLUDED.end_date, intensity = EXCLUDED.intensity,
				 weekly_volume_m = EXCLUDED.weekly_volume_m, focus = EXCLUDED.focus,
				 updated_at = EXCLUDED.updated_at
				 WHERE training_phases.user_id = EXCLUDED.user_id`,
				p.ID, userID, p.Name, p.DurationWeeks, p.Order, p.StartDate, p.EndDate,
				p.Intensity, p.WeeklyVolumeM, focus, p.CreatedAt, p.UpdatedAt); err != nil {
				return fmt.Errorf("saving phase %s: %w", p.ID, err)
			}
		}
		return nil
	})
}

func phaseIDs(phases []models.TrainingPhase) []uuid.UUID {
	ids := make([]uuid.UUID, len(phases))
	for i, p := range phases {
		ids[i] = p.ID
	}
	return ids
}
