package util

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
)

// GetEnvWithDefault returns the value of an environment variable or a default value if not set
func GetEnvWithDefault(envVar, defaultValue string) string {
	if value := os.Getenv(envVar); value != "" {
		return value
	}
	return defaultValue
}

// GetEnvIntWithDefault returns the value of an environment variable as int or a default value if not set
func GetEnvIntWithDefault(envVar string, defaultValue int) int {
	if value := os.Getenv(envVar); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// PasswordOrEnv returns the password flag value, falling back to PGPASSWORD
func PasswordOrEnv(password string) string {
	if password != "" {
		return password
	}
	return os.Getenv("PGPASSWORD")
}

// ConnectionFlags points at the connection flag variables of a command
type ConnectionFlags struct {
	Host *string
	Port *int
	DB   *string
	User *string
}

// PreRunEWithEnvVarsAndConnection creates a PreRunE function that fills unset connection flags
// from PG* environment variables and validates that a database and user are known.
// When skip is non-nil and reports true, no connection is needed and validation is skipped.
func PreRunEWithEnvVarsAndConnection(flags ConnectionFlags, skip func() bool) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if skip != nil && skip() {
			return nil
		}

		if v := GetEnvWithDefault("PGDATABASE", ""); v != "" && !cmd.Flags().Changed("db") {
			*flags.DB = v
		}
		if v := GetEnvWithDefault("PGUSER", ""); v != "" && !cmd.Flags().Changed("user") {
			*flags.User = v
		}
		if flags.Host != nil {
			if v := GetEnvWithDefault("PGHOST", ""); v != "" && !cmd.Flags().Changed("host") {
				*flags.Host = v
			}
		}
		if flags.Port != nil {
			if v := GetEnvIntWithDefault("PGPORT", 0); v != 0 && !cmd.Flags().Changed("port") {
				*flags.Port = v
			}
		}

		if *flags.DB == "" {
			return fmt.Errorf("database name is required (use --db flag or PGDATABASE environment variable)")
		}
		if *flags.User == "" {
			return fmt.Errorf("database user is required (use --user flag or PGUSER environment variable)")
		}

		return nil
	}
}
