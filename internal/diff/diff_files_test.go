package diff

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pgschema/fkdiff/ir"
)

// parseSQL is a helper function to convert SQL string to IR for tests
func parseSQL(t *testing.T, sql string) *ir.IR {
	t.Helper()
	parser := ir.NewParser()
	schema, err := parser.ParseSQL(sql)
	if err != nil {
		t.Fatalf("Failed to parse SQL: %v", err)
	}
	return schema
}

// TestDiffFromFiles runs file-based diff tests from the testdata directory.
// Each case directory holds reflected.sql, desired.sql and the expected
// diff.json.
//
// Test filtering can be controlled using the FKDIFF_TEST_FILTER environment variable:
//
//	FKDIFF_TEST_FILTER="change_" go test -v ./internal/diff
func TestDiffFromFiles(t *testing.T) {
	testdataDir := filepath.Join("..", "..", "testdata", "diff")

	entries, err := os.ReadDir(testdataDir)
	if os.IsNotExist(err) {
		t.Skip("testdata directory does not exist, skipping file-based tests")
	}
	if err != nil {
		t.Fatalf("Failed to read testdata: %v", err)
	}

	testFilter := os.Getenv("FKDIFF_TEST_FILTER")

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if testFilter != "" && !strings.HasPrefix(entry.Name(), testFilter) {
			continue
		}
		dir := filepath.Join(testdataDir, entry.Name())
		t.Run(entry.Name(), func(t *testing.T) {
			runFileBasedDiffTest(t, dir)
		})
	}
}

func runFileBasedDiffTest(t *testing.T, dir string) {
	read := func(name string) []byte {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			t.Fatalf("Failed to read %s: %v", name, err)
		}
		return data
	}

	reflected := parseSQL(t, string(read("reflected.sql")))
	desired := parseSQL(t, string(read("desired.sql")))

	var want []Record
	if err := json.Unmarshal(read("diff.json"), &want); err != nil {
		t.Fatalf("Failed to parse diff.json: %v", err)
	}

	got := compareFixture(t, reflected, desired, Config{Capabilities: postgres(t)})
	if len(want) == 0 && len(got) == 0 {
		return
	}
	if d := cmp.Diff(want, got); d != "" {
		t.Errorf("Diff mismatch for %s (-want +got):\n%s", filepath.Base(dir), d)
	}
}
