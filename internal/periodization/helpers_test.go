package periodization

import (
	"testing"
	"time"

	"github.com/claude/swimtrack/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := models.ParseDay(s)
	require.NoError(t, err)
	return d
}

func dayPtr(t *testing.T, s string) *time.Time {
	t.Helper()
	d := day(t, s)
	return &d
}

func phase(name string, order, weeks int) models.TrainingPhase {
	return models.TrainingPhase{
		ID:            uuid.New(),
		Name:          name,
		Order:         order,
		DurationWeeks: weeks,
		Intensity:     5,
	}
}

func fmtDay(p *time.Time) string {
	if p == nil {
		return "<nil>"
	}
	return p.Format(models.DateLayout)
}

func fixedClock(t *testing.T, s string) Option {
	t.Helper()
	now := day(t, s).Add(9 * time.Hour)
	return WithClock(func() time.Time { return now })
}
