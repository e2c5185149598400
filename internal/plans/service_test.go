package plans

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"testing"

	"actionplan-backend/internal/findings"
	"actionplan-backend/internal/shared/storage/object/local"
	"actionplan-backend/internal/shared/telemetry"
)

func TestMain(m *testing.M) {
	telemetry.Output = func() io.Writer { return io.Discard }
	os.Exit(m.Run())
}

const planCSV = "Audit export,,\n" +
	"requirementNo,requirementText,requirementExplanation\n" +
	"4.1,Cleaning log missing,No log found for line 3\n" +
	"4.2,Pest control plan outdated,Plan dated 2019\n"

func newTestService(t *testing.T, headerRow int) (*Service, *MemoryRepo) {
	t.Helper()
	repo := NewMemoryRepo()
	return &Service{
		Store:   local.New(t.TempDir()),
		Repo:    repo,
		Options: findings.Options{HeaderRow: headerRow},
	}, repo
}

func TestUploadParsesAndRecords(t *testing.T) {
	svc, _ := newTestService(t, 1)
	ctx := context.Background()

	plan, err := svc.Upload(ctx, "session-1", "plan.csv", strings.NewReader(planCSV))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if plan.ID == "" || plan.StorageKey == "" || plan.SizeBytes != int64(len(planCSV)) {
		t.Fatalf("unexpected plan %+v", plan)
	}
	if plan.MimeType != findings.MimeCSV || plan.HeaderRow != 1 {
		t.Fatalf("unexpected metadata %+v", plan)
	}
	if len(plan.Findings) != 2 || plan.Findings[0].AuditorComment != "No log found for line 3" {
		t.Fatalf("unexpected findings %+v", plan.Findings)
	}

	current, err := svc.Current(ctx, "session-1")
	if err != nil || current.ID != plan.ID {
		t.Fatalf("current: %+v %v", current, err)
	}
}

func TestUploadMissingColumnRecordsNothing(t *testing.T) {
	svc, repo := newTestService(t, 0)
	ctx := context.Background()

	_, err := svc.Upload(ctx, "session-1", "plan.csv", strings.NewReader("requirementNo,requirementText\n4.1,x\n"))
	var loadErr *findings.LoadError
	if !errors.As(err, &loadErr) {
		t.Fatalf("expected load error, got %v", err)
	}
	if len(loadErr.Missing) != 1 || loadErr.Missing[0] != findings.ColumnAuditorComment {
		t.Fatalf("unexpected missing columns %v", loadErr.Missing)
	}
	if _, err := repo.GetCurrentBySession(ctx, "session-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("rejected plan was recorded")
	}
}

func TestUploadRequiresNames(t *testing.T) {
	svc, _ := newTestService(t, 0)
	if _, err := svc.Upload(context.Background(), "", "plan.csv", strings.NewReader("x")); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if _, err := svc.Upload(context.Background(), "s", " ", strings.NewReader("x")); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestReparse(t *testing.T) {
	svc, _ := newTestService(t, 1)
	ctx := context.Background()
	plan, err := svc.Upload(ctx, "session-1", "plan.csv", strings.NewReader(planCSV))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	var loadErr *findings.LoadError
	if _, err := svc.Reparse(ctx, "session-1", plan.ID, findings.Options{HeaderRow: 0}); !errors.As(err, &loadErr) {
		t.Fatalf("expected load error for wrong header row, got %v", err)
	}
	if _, err := svc.Reparse(ctx, "other-session", plan.ID, findings.Options{HeaderRow: 1}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found for foreign session, got %v", err)
	}

	again, err := svc.Reparse(ctx, "session-1", plan.ID, findings.Options{HeaderRow: 1})
	if err != nil {
		t.Fatalf("reparse: %v", err)
	}
	if len(again.Findings) != 2 || again.HeaderRow != 1 {
		t.Fatalf("unexpected reparsed plan %+v", again)
	}
}

func TestMemoryRepoCopiesFindings(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()
	items := []findings.Finding{{Index: 0, RequirementID: "4.1"}}
	if err := repo.Create(ctx, Plan{ID: "p", SessionID: "s", Findings: items}); err != nil {
		t.Fatalf("create: %v", err)
	}
	items[0].RequirementID = "changed"

	got, err := repo.GetByID(ctx, "p")
	if err != nil || got.Findings[0].RequirementID != "4.1" {
		t.Fatalf("repo aliases caller slice: %+v %v", got, err)
	}
	if err := repo.ReplaceFindings(ctx, "missing", 0, nil); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
