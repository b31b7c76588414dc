package cmd

import (
	"os"
	"testing"

	"github.com/joho/godotenv"
	"github.com/pgschema/fkdiff/cmd/util"
)

func TestDotenvLoading(t *testing.T) {
	t.Chdir(t.TempDir())

	envContent := "PGHOST=test.example.com\nPGPORT=5433\nPGDATABASE=testdb\nPGUSER=testuser\nPGPASSWORD=dotenv_password\n"
	if err := os.WriteFile(".env", []byte(envContent), 0644); err != nil {
		t.Fatalf("Failed to create .env file: %v", err)
	}

	t.Run("ExistingEnvVarWins", func(t *testing.T) {
		t.Setenv("PGPASSWORD", "env_password")
		if err := godotenv.Load(); err != nil {
			t.Fatalf("Failed to load .env file: %v", err)
		}
		if got := util.PasswordOrEnv(""); got != "env_password" {
			t.Errorf("Expected existing PGPASSWORD to take precedence, got %q", got)
		}
	})

	t.Run("DotenvFillsConnection", func(t *testing.T) {
		for _, name := range []string{"PGHOST", "PGPORT", "PGDATABASE", "PGUSER", "PGPASSWORD"} {
			t.Setenv(name, "")
			os.Unsetenv(name)
		}
		if err := godotenv.Load(); err != nil {
			t.Fatalf("Failed to load .env file: %v", err)
		}

		if got := util.GetEnvWithDefault("PGHOST", "localhost"); got != "test.example.com" {
			t.Errorf("PGHOST = %q", got)
		}
		if got := util.GetEnvIntWithDefault("PGPORT", 5432); got != 5433 {
			t.Errorf("PGPORT = %d", got)
		}
		if got := util.PasswordOrEnv(""); got != "dotenv_password" {
			t.Errorf("PGPASSWORD = %q", got)
		}
	})

	t.Run("MissingEnvFile", func(t *testing.T) {
		if err := godotenv.Load("missing.env"); err == nil {
			t.Error("Expected error when loading a non-existent .env file")
		}
	})
}
