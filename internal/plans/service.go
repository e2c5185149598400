package plans

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"actionplan-backend/internal/findings"
	"actionplan-backend/internal/shared/metrics"
	"actionplan-backend/internal/shared/storage/object"
	"actionplan-backend/internal/shared/telemetry"
)

// MaxPlanBytes bounds how much of a stored plan is read back for parsing.
const MaxPlanBytes = 10 << 20

// Service stores uploaded plans and parses their findings. Options applies to
// uploads; use findings.DefaultOptions for checklist exports.
type Service struct {
	Store   object.ObjectStore
	Repo    Repo
	Options findings.Options
	Now     func() time.Time
}

// Upload saves the raw file, parses it and records the plan. A parse failure
// returns the parser's error (a *findings.LoadError for missing columns) and
// records nothing.
func (s *Service) Upload(ctx context.Context, sessionID, fileName string, r io.Reader) (Plan, error) {
	if strings.TrimSpace(sessionID) == "" || strings.TrimSpace(fileName) == "" {
		return Plan{}, ErrInvalidInput
	}

	storageKey, size, mimeType, err := s.Store.Save(ctx, sessionID, fileName, r)
	if err != nil {
		return Plan{}, fmt.Errorf("store plan: %w", err)
	}

	opts := s.Options
	items, err := s.parseStored(ctx, storageKey, mimeType, fileName, opts)
	if err != nil {
		telemetry.Warn("plan.rejected", map[string]any{
			"session_id": sessionID,
			"file_name":  fileName,
			"mime_type":  mimeType,
			"error":      err,
		})
		return Plan{}, err
	}

	plan := Plan{
		ID:         uuid.NewString(),
		SessionID:  sessionID,
		FileName:   fileName,
		MimeType:   mimeType,
		SizeBytes:  size,
		StorageKey: storageKey,
		HeaderRow:  opts.HeaderRow,
		Findings:   items,
		CreatedAt:  s.now(),
	}
	if err := s.Repo.Create(ctx, plan); err != nil {
		return Plan{}, fmt.Errorf("record plan: %w", err)
	}

	metrics.IncPlansUploaded()
	telemetry.Info("plan.uploaded", map[string]any{
		"session_id": sessionID,
		"plan_id":    plan.ID,
		"mime_type":  mimeType,
		"size_bytes": size,
		"findings":   len(items),
	})
	return plan, nil
}

// Reparse reads a stored plan again with different options, for exports whose
// header sits at another row.
func (s *Service) Reparse(ctx context.Context, sessionID, planID string, opts findings.Options) (Plan, error) {
	plan, err := s.Repo.GetByID(ctx, planID)
	if err != nil {
		return Plan{}, err
	}
	if plan.SessionID != sessionID {
		return Plan{}, ErrNotFound
	}
	if opts.HeaderRow < 0 {
		return Plan{}, fmt.Errorf("%w: header row must not be negative", ErrInvalidInput)
	}

	items, err := s.parseStored(ctx, plan.StorageKey, plan.MimeType, plan.FileName, opts)
	if err != nil {
		return Plan{}, err
	}
	if err := s.Repo.ReplaceFindings(ctx, plan.ID, opts.HeaderRow, items); err != nil {
		return Plan{}, fmt.Errorf("record findings: %w", err)
	}
	plan.HeaderRow = opts.HeaderRow
	plan.Findings = items
	return plan, nil
}

// Current returns the latest plan uploaded in a session.
func (s *Service) Current(ctx context.Context, sessionID string) (Plan, error) {
	if strings.TrimSpace(sessionID) == "" {
		return Plan{}, ErrInvalidInput
	}
	return s.Repo.GetCurrentBySession(ctx, sessionID)
}

func (s *Service) parseStored(ctx context.Context, storageKey, mimeType, fileName string, opts findings.Options) ([]findings.Finding, error) {
	rc, err := s.Store.Open(ctx, storageKey)
	if err != nil {
		return nil, fmt.Errorf("open stored plan: %w", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, MaxPlanBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read stored plan: %w", err)
	}
	if len(data) > MaxPlanBytes {
		return nil, fmt.Errorf("%w: plan exceeds %d bytes", ErrInvalidInput, MaxPlanBytes)
	}
	return findings.Parse(ctx, data, mimeType, fileName, opts)
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}
