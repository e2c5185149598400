package plans

import (
	"context"
	"sync"

	"actionplan-backend/internal/findings"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu        sync.RWMutex
	byID      map[string]Plan
	bySession map[string][]string // sessionID -> plan IDs in upload order
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		byID:      make(map[string]Plan),
		bySession: make(map[string][]string),
	}
}

// Create stores the plan.
func (r *MemoryRepo) Create(ctx context.Context, plan Plan) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[plan.ID] = copyPlan(plan)
	r.bySession[plan.SessionID] = append(r.bySession[plan.SessionID], plan.ID)
	return nil
}

// GetByID returns a plan by its ID.
func (r *MemoryRepo) GetByID(ctx context.Context, planID string) (Plan, error) {
	if err := ctx.Err(); err != nil {
		return Plan{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	plan, ok := r.byID[planID]
	if !ok {
		return Plan{}, ErrNotFound
	}
	return copyPlan(plan), nil
}

// GetCurrentBySession returns the latest plan uploaded in a session.
func (r *MemoryRepo) GetCurrentBySession(ctx context.Context, sessionID string) (Plan, error) {
	if err := ctx.Err(); err != nil {
		return Plan{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := r.bySession[sessionID]
	if len(ids) == 0 {
		return Plan{}, ErrNotFound
	}
	return copyPlan(r.byID[ids[len(ids)-1]]), nil
}

// ReplaceFindings swaps the findings of an existing plan.
func (r *MemoryRepo) ReplaceFindings(ctx context.Context, planID string, headerRow int, items []findings.Finding) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	plan, ok := r.byID[planID]
	if !ok {
		return ErrNotFound
	}
	plan.HeaderRow = headerRow
	plan.Findings = append([]findings.Finding(nil), items...)
	r.byID[planID] = plan
	return nil
}

func copyPlan(plan Plan) Plan {
	plan.Findings = append([]findings.Finding(nil), plan.Findings...)
	return plan
}
