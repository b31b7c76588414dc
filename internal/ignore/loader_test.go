package ignore

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestLoadIgnoreFile_FileNotExists(t *testing.T) {
	t.Chdir(t.TempDir())

	config, err := LoadIgnoreFile()
	if err != nil {
		t.Fatalf("LoadIgnoreFile() should not error when file doesn't exist, got: %v", err)
	}
	if config != nil {
		t.Error("LoadIgnoreFile() should return nil config when file doesn't exist")
	}
}

func TestLoadIgnoreFileFromPath_ValidTOML(t *testing.T) {
	testFile := filepath.Join(t.TempDir(), IgnoreFileName)

	tomlContent := `[tables]
patterns = ["temp_*", "backup_*", "!backup_core"]

[columns]
patterns = ["audit_*"]

[foreign_keys]
patterns = ["legacy_*"]
reflected = ["fk_managed_by_dba"]
metadata = ["fk_draft_*"]
`
	if err := os.WriteFile(testFile, []byte(tomlContent), 0644); err != nil {
		t.Fatalf("Failed to write test file: %v", err)
	}

	config, err := LoadIgnoreFileFromPath(testFile)
	if err != nil {
		t.Fatalf("LoadIgnoreFileFromPath() error = %v", err)
	}

	expected := &IgnoreConfig{
		Tables:               []string{"temp_*", "backup_*", "!backup_core"},
		Columns:              []string{"audit_*"},
		ForeignKeys:          []string{"legacy_*"},
		ReflectedForeignKeys: []string{"fk_managed_by_dba"},
		MetadataForeignKeys:  []string{"fk_draft_*"},
	}
	if d := cmp.Diff(expected, config); d != "" {
		t.Errorf("Config mismatch (-want +got):\n%s", d)
	}
}

func TestLoadIgnoreFileFromPath_InvalidTOML(t *testing.T) {
	testFile := filepath.Join(t.TempDir(), IgnoreFileName)
	if err := os.WriteFile(testFile, []byte("[tables\npatterns = "), 0644); err != nil {
		t.Fatalf("Failed to write test file: %v", err)
	}

	if _, err := LoadIgnoreFileFromPath(testFile); err == nil {
		t.Error("LoadIgnoreFileFromPath() should fail on invalid TOML")
	}
}

func TestLoadIgnoreFileFromPath_UnknownKey(t *testing.T) {
	testFile := filepath.Join(t.TempDir(), IgnoreFileName)
	if err := os.WriteFile(testFile, []byte("[views]\npatterns = [\"v_*\"]\n"), 0644); err != nil {
		t.Fatalf("Failed to write test file: %v", err)
	}

	_, err := LoadIgnoreFileFromPath(testFile)
	if err == nil || !strings.Contains(err.Error(), "views") {
		t.Errorf("LoadIgnoreFileFromPath() should reject unknown sections, got %v", err)
	}
}

func TestParseIgnoreConfig(t *testing.T) {
	config, err := ParseIgnoreConfig(`
[foreign_keys]
reflected = ["fk1"]
`)
	if err != nil {
		t.Fatalf("ParseIgnoreConfig() error = %v", err)
	}
	if config.IsEmpty() {
		t.Error("config should not be empty")
	}
	if !config.ShouldIgnoreForeignKey("fk1", true) || config.ShouldIgnoreForeignKey("fk1", false) {
		t.Error("reflected-only pattern applied to the wrong side")
	}
}

func TestParseIgnoreConfig_UnknownKey(t *testing.T) {
	_, err := ParseIgnoreConfig(`
[foreign_keys]
reflected = ["fk1"]
reflect = ["fk2"]
`)
	if err == nil || !strings.Contains(err.Error(), "foreign_keys.reflect") {
		t.Errorf("ParseIgnoreConfig() should reject unknown keys, got %v", err)
	}
}
