package diff

import (
	"context"
	"fmt"
	"os"

	"github.com/pgschema/fkdiff/cmd/util"
	"github.com/pgschema/fkdiff/internal/diff"
	"github.com/pgschema/fkdiff/internal/fingerprint"
	"github.com/pgschema/fkdiff/internal/ignore"
	"github.com/pgschema/fkdiff/internal/include"
	"github.com/pgschema/fkdiff/internal/logger"
	"github.com/pgschema/fkdiff/internal/plan"
	"github.com/pgschema/fkdiff/ir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	diffHost          string
	diffPort          int
	diffDB            string
	diffUser          string
	diffPassword      string
	diffSchema        string
	diffFile          string
	diffReflectedFile string
	diffBackend       string
	diffIgnoreFile    string
	enableCaps        []string
	disableCaps       []string
	outputHuman       string
	outputJSON        string
	diffNoColor       bool
	diffVerify        bool
	diffExpectFP      string
)

var DiffCmd = &cobra.Command{
	Use:   "diff",
	Short: "Compare foreign keys of a desired schema file against a live schema",
	Long: `Compare the foreign keys declared in a desired state SQL file (--file) with the foreign keys
reflected from a live PostgreSQL schema (--schema, defaults to 'public') and report the
add/remove operations that turn the live schema into the desired one.

The live side can be read from a second SQL file with --reflected-file instead of a database.`,
	RunE:         runDiff,
	SilenceUsage: true,
	PreRunE: util.PreRunEWithEnvVarsAndConnection(
		util.ConnectionFlags{Host: &diffHost, Port: &diffPort, DB: &diffDB, User: &diffUser},
		func() bool { return diffReflectedFile != "" },
	),
}

func init() {
	// Target database connection flags
	DiffCmd.Flags().StringVar(&diffHost, "host", "localhost", "Database server host (env: PGHOST)")
	DiffCmd.Flags().IntVar(&diffPort, "port", 5432, "Database server port (env: PGPORT)")
	DiffCmd.Flags().StringVar(&diffDB, "db", "", "Database name (env: PGDATABASE)")
	DiffCmd.Flags().StringVar(&diffUser, "user", "", "Database user name (env: PGUSER)")
	DiffCmd.Flags().StringVar(&diffPassword, "password", "", "Database password (optional, can also use PGPASSWORD env var)")
	DiffCmd.Flags().StringVar(&diffSchema, "schema", "public", "Schema name")

	DiffCmd.Flags().StringVar(&diffFile, "file", "", "Path to desired state SQL schema file (required)")
	DiffCmd.Flags().StringVar(&diffReflectedFile, "reflected-file", "", "Read the live side from a SQL file instead of a database")

	// Comparison flags
	DiffCmd.Flags().StringVar(&diffBackend, "backend", "postgresql", "Backend profile deciding which foreign key details are compared")
	DiffCmd.Flags().StringSliceVar(&enableCaps, "enable-capability", nil, "Enable capabilities on top of the backend profile")
	DiffCmd.Flags().StringSliceVar(&disableCaps, "disable-capability", nil, "Disable capabilities of the backend profile")
	DiffCmd.Flags().StringVar(&diffIgnoreFile, "ignore-file", ignore.IgnoreFileName, "Path to the ignore file")
	DiffCmd.Flags().BoolVar(&diffVerify, "verify", false, "Apply the result to the live snapshot and check that nothing is left to change")
	DiffCmd.Flags().StringVar(&diffExpectFP, "expect-fingerprint", "", "Fail when the live foreign keys no longer match this fingerprint")

	// Output flags
	DiffCmd.Flags().StringVar(&outputHuman, "output-human", "", "Output human-readable format to stdout or file path")
	DiffCmd.Flags().StringVar(&outputJSON, "output-json", "", "Output JSON format to stdout or file path")
	DiffCmd.Flags().BoolVar(&diffNoColor, "no-color", false, "Disable colored output")

	DiffCmd.MarkFlagRequired("file")

	// Config file and FKDIFF_* values apply when the flag is not set explicitly
	viper.BindPFlag("schema", DiffCmd.Flags().Lookup("schema"))
	viper.BindPFlag("backend", DiffCmd.Flags().Lookup("backend"))
	viper.BindPFlag("ignore_file", DiffCmd.Flags().Lookup("ignore-file"))
	viper.BindPFlag("capabilities.enable", DiffCmd.Flags().Lookup("enable-capability"))
	viper.BindPFlag("capabilities.disable", DiffCmd.Flags().Lookup("disable-capability"))
}

func runDiff(cmd *cobra.Command, args []string) error {
	config := &DiffConfig{
		Host:              diffHost,
		Port:              diffPort,
		DB:                diffDB,
		User:              diffUser,
		Password:          util.PasswordOrEnv(diffPassword),
		Schema:            viper.GetString("schema"),
		File:              diffFile,
		ReflectedFile:     diffReflectedFile,
		Backend:           viper.GetString("backend"),
		EnableCapability:  viper.GetStringSlice("capabilities.enable"),
		DisableCapability: viper.GetStringSlice("capabilities.disable"),
		IgnoreFile:        viper.GetString("ignore_file"),
		Verify:            diffVerify,
		ExpectFingerprint: diffExpectFP,
		ApplicationName:   "fkdiff",
	}

	result, err := GenerateDiff(cmd.Context(), config)
	if err != nil {
		return err
	}

	outputs, err := determineOutputs()
	if err != nil {
		return err
	}

	for _, output := range outputs {
		if err := processOutput(result, output, cmd); err != nil {
			return err
		}
	}

	return nil
}

// DiffConfig holds configuration for one foreign key comparison
type DiffConfig struct {
	Host              string
	Port              int
	DB                string
	User              string
	Password          string
	Schema            string
	File              string
	ReflectedFile     string
	Backend           string
	EnableCapability  []string
	DisableCapability []string
	IgnoreFile        string
	Verify            bool
	ExpectFingerprint string
	ApplicationName   string
}

func (c *DiffConfig) backend() string {
	if c.Backend == "" {
		return "postgresql"
	}
	return c.Backend
}

// Gate resolves the backend profile and the capability overrides
func (c *DiffConfig) Gate() (diff.Gate, error) {
	gate, err := diff.Profile(c.backend())
	if err != nil {
		return nil, err
	}

	parse := func(names []string) ([]diff.Capability, error) {
		caps := make([]diff.Capability, 0, len(names))
		for _, name := range names {
			capability, err := diff.ParseCapability(name)
			if err != nil {
				return nil, err
			}
			caps = append(caps, capability)
		}
		return caps, nil
	}

	enable, err := parse(c.EnableCapability)
	if err != nil {
		return nil, err
	}
	disable, err := parse(c.DisableCapability)
	if err != nil {
		return nil, err
	}
	return gate.With(enable...).Without(disable...), nil
}

// GenerateDiff loads both snapshots, compares their foreign keys and wraps the records in a plan
func GenerateDiff(ctx context.Context, config *DiffConfig) (*plan.Plan, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	log := logger.Get()

	gate, err := config.Gate()
	if err != nil {
		return nil, err
	}

	var ignoreConfig *ignore.IgnoreConfig
	if config.IgnoreFile != "" {
		ignoreConfig, err = ignore.LoadIgnoreFileFromPath(config.IgnoreFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", config.IgnoreFile, err)
		}
		if !ignoreConfig.IsEmpty() {
			log.Debug("Loaded ignore patterns", "path", config.IgnoreFile)
		}
	}

	desired, err := parseFile(config.File)
	if err != nil {
		return nil, fmt.Errorf("failed to load desired state: %w", err)
	}

	var reflected *ir.IR
	if config.ReflectedFile != "" {
		reflected, err = parseFile(config.ReflectedFile)
	} else {
		reflected, err = util.GetIRFromDatabase(ctx, &util.ConnectionConfig{
			Host:            config.Host,
			Port:            config.Port,
			Database:        config.DB,
			User:            config.User,
			Password:        config.Password,
			ApplicationName: config.ApplicationName,
		}, config.Schema)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get current state: %w", err)
	}

	source, err := fingerprint.ComputeFingerprint(reflected, config.Schema)
	if err != nil {
		return nil, fmt.Errorf("failed to compute fingerprint: %w", err)
	}
	if config.ExpectFingerprint != "" {
		expected := &fingerprint.SchemaFingerprint{Hash: config.ExpectFingerprint}
		if err := fingerprint.Compare(expected, source); err != nil {
			return nil, err
		}
	}

	cfg := diff.Config{
		Capabilities:  gate,
		Filter:        ignoreConfig.Filter(),
		DefaultSchema: config.Schema,
	}

	records, err := diff.Compare(desired, reflected, cfg)
	if err != nil {
		return nil, err
	}

	if config.Verify {
		if err := verify(desired, reflected, records, cfg); err != nil {
			return nil, err
		}
		log.Debug("Verified foreign key diff", "records", len(records))
	}

	return plan.NewPlanWithFingerprint(records, config.Schema, config.backend(), gate, source), nil
}

// verify checks that applying records to the reflected snapshot leaves nothing to change
func verify(desired, reflected *ir.IR, records []diff.Record, cfg diff.Config) error {
	applied, err := diff.Apply(reflected, records, cfg)
	if err != nil {
		return fmt.Errorf("verification failed: %w", err)
	}
	remaining, err := diff.Compare(desired, applied, cfg)
	if err != nil {
		return fmt.Errorf("verification failed: %w", err)
	}
	if len(remaining) > 0 {
		return fmt.Errorf("verification failed: %d foreign key operations remain after applying the diff", len(remaining))
	}
	return nil
}

// parseFile expands include directives in path and parses the result
func parseFile(path string) (*ir.IR, error) {
	processor := include.NewProcessor("")
	sql, err := processor.ProcessFile(path)
	if err != nil {
		return nil, err
	}
	logger.Get().Debug("Loaded schema file", "path", path, "files", len(processor.Files()))

	schema, err := ir.NewParser().ParseSQL(sql)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return schema, nil
}

// outputSpec represents a single output specification
type outputSpec struct {
	format string // "human" or "json"
	target string // "stdout" or file path
}

// determineOutputs parses the output flags and returns the list of outputs to generate
func determineOutputs() ([]outputSpec, error) {
	var outputs []outputSpec
	stdoutCount := 0

	if outputHuman != "" {
		if outputHuman == "stdout" {
			stdoutCount++
		}
		outputs = append(outputs, outputSpec{format: "human", target: outputHuman})
	}

	if outputJSON != "" {
		if outputJSON == "stdout" {
			stdoutCount++
		}
		outputs = append(outputs, outputSpec{format: "json", target: outputJSON})
	}

	if stdoutCount > 1 {
		return nil, fmt.Errorf("only one output format can use stdout")
	}

	if len(outputs) == 0 {
		outputs = append(outputs, outputSpec{format: "human", target: "stdout"})
	}

	return outputs, nil
}

// processOutput writes the plan in the specified format to the target destination
func processOutput(result *plan.Plan, output outputSpec, cmd *cobra.Command) error {
	var content string
	var err error

	switch output.format {
	case "human":
		useColor := output.target == "stdout" && !diffNoColor
		content = result.HumanColored(useColor)
	case "json":
		content, err = result.ToJSON()
		if err != nil {
			return fmt.Errorf("failed to generate JSON output: %w", err)
		}
		content += "\n"
	default:
		return fmt.Errorf("unknown output format: %s", output.format)
	}

	if output.target == "stdout" {
		fmt.Fprint(cmd.OutOrStdout(), content)
		return nil
	}
	if err := os.WriteFile(output.target, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write %s output to %s: %w", output.format, output.target, err)
	}
	return nil
}
