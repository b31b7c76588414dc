package util

import (
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

func TestGetEnvWithDefault(t *testing.T) {
	t.Setenv("TEST_STRING", "test-value")
	t.Setenv("EMPTY_VAR", "")

	tests := []struct {
		envVar string
		want   string
	}{
		{"TEST_STRING", "test-value"},
		{"FKDIFF_MISSING_VAR", "default"},
		{"EMPTY_VAR", "default"},
	}
	for _, tt := range tests {
		if got := GetEnvWithDefault(tt.envVar, "default"); got != tt.want {
			t.Errorf("GetEnvWithDefault(%q) = %q, want %q", tt.envVar, got, tt.want)
		}
	}
}

func TestGetEnvIntWithDefault(t *testing.T) {
	t.Setenv("TEST_INT", "12345")
	t.Setenv("TEST_INVALID_INT", "not-a-number")

	tests := []struct {
		envVar string
		want   int
	}{
		{"TEST_INT", 12345},
		{"TEST_INVALID_INT", 999},
		{"FKDIFF_MISSING_INT", 999},
	}
	for _, tt := range tests {
		if got := GetEnvIntWithDefault(tt.envVar, 999); got != tt.want {
			t.Errorf("GetEnvIntWithDefault(%q) = %d, want %d", tt.envVar, got, tt.want)
		}
	}
}

func TestPasswordOrEnv(t *testing.T) {
	t.Setenv("PGPASSWORD", "from-env")

	if got := PasswordOrEnv("from-flag"); got != "from-flag" {
		t.Errorf("Expected the flag to win, got %q", got)
	}
	if got := PasswordOrEnv(""); got != "from-env" {
		t.Errorf("Expected PGPASSWORD fallback, got %q", got)
	}
}

// newConnCmd builds a command carrying the connection flags the PreRunE reads
func newConnCmd(host *string, port *int, db, user *string) *cobra.Command {
	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().StringVar(host, "host", "localhost", "")
	cmd.Flags().IntVar(port, "port", 5432, "")
	cmd.Flags().StringVar(db, "db", "", "")
	cmd.Flags().StringVar(user, "user", "", "")
	return cmd
}

func TestPreRunEWithEnvVars(t *testing.T) {
	t.Setenv("PGDATABASE", "test-db")
	t.Setenv("PGUSER", "test-user")
	t.Setenv("PGHOST", "test-host")
	t.Setenv("PGPORT", "1234")

	var host, db, user string
	var port int
	cmd := newConnCmd(&host, &port, &db, &user)
	if err := cmd.Flags().Parse([]string{"--user", "flag-user"}); err != nil {
		t.Fatal(err)
	}

	preRun := PreRunEWithEnvVarsAndConnection(ConnectionFlags{Host: &host, Port: &port, DB: &db, User: &user}, nil)
	if err := preRun(cmd, nil); err != nil {
		t.Fatalf("PreRunE failed: %v", err)
	}

	if db != "test-db" || host != "test-host" || port != 1234 {
		t.Errorf("Environment not applied: db=%q host=%q port=%d", db, host, port)
	}
	if user != "flag-user" {
		t.Errorf("Explicit flag should win over PGUSER, got %q", user)
	}
}

func TestPreRunERequiresDatabase(t *testing.T) {
	t.Setenv("PGDATABASE", "")
	t.Setenv("PGUSER", "")

	var host, db, user string
	var port int
	cmd := newConnCmd(&host, &port, &db, &user)

	preRun := PreRunEWithEnvVarsAndConnection(ConnectionFlags{Host: &host, Port: &port, DB: &db, User: &user}, nil)
	err := preRun(cmd, nil)
	if err == nil || !strings.Contains(err.Error(), "database name is required") {
		t.Errorf("Expected missing database error, got %v", err)
	}

	skipped := PreRunEWithEnvVarsAndConnection(ConnectionFlags{Host: &host, Port: &port, DB: &db, User: &user}, func() bool { return true })
	if err := skipped(cmd, nil); err != nil {
		t.Errorf("Skipped validation should not fail, got %v", err)
	}
}

func TestBuildDSN(t *testing.T) {
	got := buildDSN(&ConnectionConfig{
		Host:            "localhost",
		Port:            5432,
		Database:        "app",
		User:            "postgres",
		Password:        "secret",
		ApplicationName: "fkdiff",
	})
	want := "host=localhost port=5432 dbname=app user=postgres password=secret application_name=fkdiff"
	if got != want {
		t.Errorf("buildDSN() = %q, want %q", got, want)
	}
}
