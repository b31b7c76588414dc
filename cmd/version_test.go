package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/pgschema/fkdiff/internal/version"
)

func TestVersionCommand(t *testing.T) {
	var buf bytes.Buffer
	RootCmd.SetOut(&buf)
	RootCmd.SetArgs([]string{"version"})
	defer RootCmd.SetOut(nil)

	if err := RootCmd.Execute(); err != nil {
		t.Fatalf("version command failed: %v", err)
	}

	output := strings.TrimSpace(buf.String())
	prefix := "fkdiff v" + version.Version() + "@"
	if !strings.HasPrefix(output, prefix) {
		t.Errorf("expected output to start with %q, got: %s", prefix, output)
	}
	if !strings.Contains(output, version.Platform()) {
		t.Errorf("expected output to contain platform %s, got: %s", version.Platform(), output)
	}
}
