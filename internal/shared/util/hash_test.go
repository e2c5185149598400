package util

import (
	"strings"
	"testing"
)

func TestHashNamespace(t *testing.T) {
	id := "7d3c1d9e-6f5a-4e3b-9a43-1f3e5b6c7d8e"
	got := HashNamespace(id)
	if got != HashNamespace(id) {
		t.Fatalf("expected stable hash, got %s", got)
	}
	for _, ch := range got {
		if !((ch >= 'a' && ch <= 'f') || (ch >= '0' && ch <= '9')) {
			t.Fatalf("hash contains non-hex character: %c", ch)
		}
	}
	if len(got) != 64 {
		t.Fatalf("expected 64 hex characters, got %d", len(got))
	}
}

func TestSanitizeFileName(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "plan.xlsx", want: "plan.xlsx"},
		{in: " dir/plan.xlsx ", want: "dir_plan.xlsx"},
		{in: `c:\exports\plan.csv`, want: "c:_exports_plan.csv"},
		{in: "../plan.xlsx", wantErr: true},
		{in: "   ", wantErr: true},
		{in: "plan\x00\n.csv", want: "plan.csv"},
		{in: "\x01\x02", wantErr: true},
	}
	for _, tc := range cases {
		got, err := SanitizeFileName(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("SanitizeFileName(%q) expected error", tc.in)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Fatalf("SanitizeFileName(%q) = %q, %v; want %q", tc.in, got, err, tc.want)
		}
	}
}

func TestSanitizeFileNameTruncatesBeforeExtension(t *testing.T) {
	got, err := SanitizeFileName(strings.Repeat("a", 300) + ".xlsx")
	if err != nil {
		t.Fatalf("SanitizeFileName: %v", err)
	}
	if len(got) != MaxFileNameLength || !strings.HasSuffix(got, ".xlsx") {
		t.Fatalf("unexpected truncation %q (%d)", got, len(got))
	}
}
