package guide

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleGuide = "\uFEFFNUM_REQ,Chapter, Good practice ,Elements to check,Example questions\n" +
	"1.2.1,Governance,Policy signed,Signature date,\"Who signs, and when?\"\n" +
	"4.1.2,Cleaning,Daily log,Line records,Is the log kept?\n" +
	"4.1.3,Cleaning,,,\n"

func TestParseGuide(t *testing.T) {
	idx, err := Parse("sample", strings.NewReader(sampleGuide))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if idx.Len() != 3 {
		t.Fatalf("expected 3 rows, got %d", idx.Len())
	}
	row, err := idx.Lookup("1.2.1")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if row.ExampleQuestions != "Who signs, and when?" {
		t.Fatalf("unexpected example questions: %q", row.ExampleQuestions)
	}
	row, err = idx.Lookup("4.1.3")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if row.GoodPractice != "" || row.ElementsToCheck != "" {
		t.Fatalf("expected blank guidance, got %+v", row)
	}
}

func TestParseGuideMissingColumns(t *testing.T) {
	_, err := Parse("broken", strings.NewReader("NUM_REQ,Good practice\n1.1,x\n"))
	var loadErr *LoadError
	if !errors.As(err, &loadErr) {
		t.Fatalf("expected LoadError, got %v", err)
	}
	if len(loadErr.Missing) != 2 {
		t.Fatalf("expected 2 missing columns, got %v", loadErr.Missing)
	}
	if errors.Is(err, ErrNotFound) {
		t.Fatalf("load error must be distinct from ErrNotFound")
	}
}

func TestParseGuideEmpty(t *testing.T) {
	_, err := Parse("empty", strings.NewReader(""))
	var loadErr *LoadError
	if !errors.As(err, &loadErr) {
		t.Fatalf("expected LoadError, got %v", err)
	}
}

func TestHTTPSourceLoad(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		_, _ = w.Write([]byte(sampleGuide))
	}))
	defer server.Close()

	idx, err := NewHTTPSource(server.URL).Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if idx.Source() != server.URL {
		t.Fatalf("unexpected source %q", idx.Source())
	}
	if idx.Len() != 3 {
		t.Fatalf("expected 3 rows, got %d", idx.Len())
	}
}

func TestHTTPSourceStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer server.Close()

	_, err := NewHTTPSource(server.URL).Load(context.Background())
	var loadErr *LoadError
	if !errors.As(err, &loadErr) {
		t.Fatalf("expected LoadError, got %v", err)
	}
}

func TestFileSourceLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "guide.csv")
	if err := os.WriteFile(path, []byte(sampleGuide), 0o644); err != nil {
		t.Fatalf("write guide: %v", err)
	}
	idx, err := FileSource{Path: path}.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if idx.Len() != 3 {
		t.Fatalf("expected 3 rows, got %d", idx.Len())
	}

	_, err = FileSource{Path: filepath.Join(t.TempDir(), "missing.csv")}.Load(context.Background())
	var loadErr *LoadError
	if !errors.As(err, &loadErr) {
		t.Fatalf("expected LoadError for missing file, got %v", err)
	}
}
