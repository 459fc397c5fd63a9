package version

import (
	"strings"
	"testing"
)

func TestInfo(t *testing.T) {
	origVersion, origCommit := Version, Commit
	defer func() { Version, Commit = origVersion, origCommit }()

	tests := []struct {
		version, commit, want string
	}{
		{"1.0.0", "unknown", "1.0.0"},
		{"1.0.0", "abc", "1.0.0"},
		{"1.2.3", "0123456789abcdef", "1.2.3 (0123456)"},
	}
	for _, tt := range tests {
		Version, Commit = tt.version, tt.commit
		if got := Info(); got != tt.want {
			t.Errorf("Info() with %q/%q = %q, want %q", tt.version, tt.commit, got, tt.want)
		}
	}
}

func TestFull(t *testing.T) {
	got := Full()
	for _, want := range []string{"apidoc " + Version, "commit:", "built:", "go:"} {
		if !strings.Contains(got, want) {
			t.Errorf("Full() missing %q:\n%s", want, got)
		}
	}
}
