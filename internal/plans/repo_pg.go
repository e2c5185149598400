package plans

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"actionplan-backend/internal/findings"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const insertFindingQuery = `
INSERT INTO findings (
    plan_id,
    finding_index,
    requirement_id,
    requirement_text,
    auditor_comment
) VALUES ($1, $2, $3, $4, $5)`

// Create inserts the plan and its findings in one transaction.
func (r *PGRepo) Create(ctx context.Context, plan Plan) error {
	const query = `
INSERT INTO action_plans (
    id,
    session_id,
    file_name,
    mime_type,
    size_bytes,
    storage_key,
    header_row,
    created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin plan tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var storageKey sql.NullString
	if plan.StorageKey != "" {
		storageKey = sql.NullString{String: plan.StorageKey, Valid: true}
	}
	if _, err := tx.ExecContext(ctx, query,
		plan.ID,
		plan.SessionID,
		plan.FileName,
		plan.MimeType,
		plan.SizeBytes,
		storageKey,
		plan.HeaderRow,
		plan.CreatedAt,
	); err != nil {
		return fmt.Errorf("insert plan: %w", err)
	}
	if err := insertFindings(ctx, tx, plan.ID, plan.Findings); err != nil {
		return err
	}
	return tx.Commit()
}

// GetByID returns a plan and its findings.
func (r *PGRepo) GetByID(ctx context.Context, planID string) (Plan, error) {
	const query = `
SELECT id, session_id, file_name, mime_type, size_bytes, storage_key, header_row, created_at
FROM action_plans
WHERE id = $1`
	return r.getOne(ctx, query, planID)
}

// GetCurrentBySession returns the latest plan uploaded in a session.
func (r *PGRepo) GetCurrentBySession(ctx context.Context, sessionID string) (Plan, error) {
	const query = `
SELECT id, session_id, file_name, mime_type, size_bytes, storage_key, header_row, created_at
FROM action_plans
WHERE session_id = $1
ORDER BY created_at DESC
LIMIT 1`
	return r.getOne(ctx, query, sessionID)
}

// ReplaceFindings swaps the findings of an existing plan.
func (r *PGRepo) ReplaceFindings(ctx context.Context, planID string, headerRow int, items []findings.Finding) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin findings tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `UPDATE action_plans SET header_row = $2 WHERE id = $1`, planID, headerRow)
	if err != nil {
		return fmt.Errorf("update plan: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM findings WHERE plan_id = $1`, planID); err != nil {
		return fmt.Errorf("delete findings: %w", err)
	}
	if err := insertFindings(ctx, tx, planID, items); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *PGRepo) getOne(ctx context.Context, query string, arg string) (Plan, error) {
	var plan Plan
	var storageKey sql.NullString
	err := r.DB.QueryRowContext(ctx, query, arg).Scan(
		&plan.ID,
		&plan.SessionID,
		&plan.FileName,
		&plan.MimeType,
		&plan.SizeBytes,
		&storageKey,
		&plan.HeaderRow,
		&plan.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Plan{}, ErrNotFound
		}
		return Plan{}, err
	}
	if storageKey.Valid {
		plan.StorageKey = storageKey.String
	}

	items, err := r.listFindings(ctx, plan.ID)
	if err != nil {
		return Plan{}, err
	}
	plan.Findings = items
	return plan, nil
}

func (r *PGRepo) listFindings(ctx context.Context, planID string) ([]findings.Finding, error) {
	const query = `
SELECT finding_index, requirement_id, requirement_text, auditor_comment
FROM findings
WHERE plan_id = $1
ORDER BY finding_index ASC`
	rows, err := r.DB.QueryContext(ctx, query, planID)
	if err != nil {
		return nil, fmt.Errorf("list findings: %w", err)
	}
	defer rows.Close()

	var out []findings.Finding
	for rows.Next() {
		var f findings.Finding
		if err := rows.Scan(&f.Index, &f.RequirementID, &f.RequirementText, &f.AuditorComment); err != nil {
			return nil, fmt.Errorf("scan finding: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func insertFindings(ctx context.Context, tx *sql.Tx, planID string, items []findings.Finding) error {
	for _, f := range items {
		if _, err := tx.ExecContext(ctx, insertFindingQuery,
			planID,
			f.Index,
			f.RequirementID,
			f.RequirementText,
			f.AuditorComment,
		); err != nil {
			return fmt.Errorf("insert finding %d: %w", f.Index, err)
		}
	}
	return nil
}

var _ Repo = (*PGRepo)(nil)
var _ Repo = (*MemoryRepo)(nil)
