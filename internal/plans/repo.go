package plans

import (
	"context"

	"actionplan-backend/internal/findings"
)

// Repo defines persistence operations for plans.
type Repo interface {
	Create(ctx context.Context, plan Plan) error
	GetByID(ctx context.Context, planID string) (Plan, error)
	GetCurrentBySession(ctx context.Context, sessionID string) (Plan, error)
	ReplaceFindings(ctx context.Context, planID string, headerRow int, items []findings.Finding) error
}
