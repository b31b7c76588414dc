package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pgschema/fkdiff/cmd/diff"
	"github.com/pgschema/fkdiff/internal/logger"
	"github.com/pgschema/fkdiff/internal/version"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var Debug bool
var cfgFile string

// logOutput receives all log lines
var logOutput io.Writer = os.Stderr

var RootCmd = &cobra.Command{
	Use:   "fkdiff",
	Short: "Foreign key schema diff tool",
	Long: fmt.Sprintf(`fkdiff compares the foreign keys of a desired schema against a live database.

Version: %s@%s %s %s

Commands:
  diff     Compare foreign keys and report add/remove operations
  version  Show version information

Use "fkdiff [command] --help" for more information about a command.`,
		version.Version(), version.GetGitCommit(), version.Platform(), version.GetBuildDate()),
}

func init() {
	cobra.OnInitialize(initConfig)

	RootCmd.PersistentFlags().BoolVar(&Debug, "debug", false, "Enable debug logging")
	RootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default is ./fkdiff.yaml)")
	RootCmd.AddCommand(diff.DiffCmd)
	RootCmd.AddCommand(VersionCmd)
}

// initConfig sets up logging, then reads the optional config file and
// FKDIFF_* environment variables. It runs after flag parsing.
func initConfig() {
	setupLogger()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName("fkdiff")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("FKDIFF")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		logger.Get().Debug("Using config file", "path", viper.ConfigFileUsed())
	} else if cfgFile != "" {
		fmt.Fprintf(os.Stderr, "Failed to read config file %s: %v\n", cfgFile, err)
		os.Exit(1)
	}
}

func setupLogger() {
	logger.SetGlobal(logger.New(logOutput, Debug), Debug)
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
