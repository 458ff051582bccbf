package mcp

import (
	"context"
	"time"

	"github.com/claude/swimtrack/internal/models"
	"github.com/claude/swimtrack/internal/storage"
)

// DataSource abstracts the data layer for MCP tools. Both *storage.DB (local)
// and HTTPClient (remote via REST API) satisfy this interface.
type DataSource interface {
	// QuerySessions returns sessions between start and end inclusive. A zero
	// bound leaves that side of the range open.
	QuerySessions(ctx context.Context, start, end time.Time, userID int) ([]models.Session, error)
	LoadPhases(ctx context.Context, userID int) ([]models.TrainingPhase, error)
	LoadCompetitions(ctx context.Context, userID int) ([]models.Competition, error)
}

// Compile-time check: *storage.DB satisfies DataSource.
var _ DataSource = (*storage.DB)(nil)
