package s3

import "testing"

func TestApplyPrefix(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		prefix string
		key    string
		want   string
	}{
		{name: "no prefix", prefix: "", key: "session/plan.xlsx", want: "session/plan.xlsx"},
		{name: "simple prefix", prefix: "root", key: "session/plan.xlsx", want: "root/session/plan.xlsx"},
		{name: "prefix trailing slash", prefix: "root/", key: "session/plan.xlsx", want: "root/session/plan.xlsx"},
		{name: "prefix and key slashes", prefix: "/root/", key: "/session/plan.xlsx", want: "root/session/plan.xlsx"},
		{name: "nested prefix", prefix: "root/sub", key: "session/plan.xlsx", want: "root/sub/session/plan.xlsx"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := applyPrefix(tt.prefix, tt.key); got != tt.want {
				t.Fatalf("applyPrefix(%q, %q) = %q, want %q", tt.prefix, tt.key, got, tt.want)
			}
		})
	}
}
