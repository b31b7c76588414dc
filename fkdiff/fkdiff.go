// Package fkdiff provides a programmatic API for comparing the foreign keys of a desired
// schema against a live PostgreSQL schema.
package fkdiff

import (
	"context"

	diffCmd "github.com/pgschema/fkdiff/cmd/diff"
	"github.com/pgschema/fkdiff/internal/diff"
	"github.com/pgschema/fkdiff/internal/plan"
	"github.com/pgschema/fkdiff/ir"
)

// DatabaseConfig holds connection details for a PostgreSQL database.
type DatabaseConfig struct {
	Host     string // Database server host
	Port     int    // Database server port
	Database string // Database name
	User     string // Database user
	Password string // Database password (optional)
	Schema   string // Target schema name (default: "public")
}

// DiffOptions configures one comparison.
type DiffOptions struct {
	DatabaseConfig
	File                string   // Path to desired state SQL schema file
	ReflectedFile       string   // Read the live side from a SQL file instead of the database
	Backend             string   // Backend profile (default: "postgresql")
	EnableCapabilities  []string // Capabilities enabled on top of the profile
	DisableCapabilities []string // Capabilities removed from the profile
	IgnoreFile          string   // Path to a .fkdiffignore file (optional)
	Verify              bool     // Check that applying the result leaves nothing to change
	ExpectFingerprint   string   // Fail when the live foreign keys hash differently (optional)
	ApplicationName     string   // Application name for database connection (default: "fkdiff")
}

// Client provides the main interface for fkdiff operations.
type Client struct {
	defaultDB  DatabaseConfig
	defaultApp string
}

// NewClient creates a new fkdiff client with default database configuration.
func NewClient(dbConfig DatabaseConfig) *Client {
	if dbConfig.Schema == "" {
		dbConfig.Schema = "public"
	}

	return &Client{
		defaultDB:  dbConfig,
		defaultApp: "fkdiff",
	}
}

// Diff compares the foreign keys of the desired state file with the live schema.
func (c *Client) Diff(ctx context.Context, opts DiffOptions) (*plan.Plan, error) {
	if opts.Host == "" {
		opts.DatabaseConfig = c.defaultDB
	}
	if opts.Schema == "" {
		opts.Schema = "public"
	}
	if opts.ApplicationName == "" {
		opts.ApplicationName = c.defaultApp
	}

	config := &diffCmd.DiffConfig{
		Host:              opts.Host,
		Port:              opts.Port,
		DB:                opts.Database,
		User:              opts.User,
		Password:          opts.Password,
		Schema:            opts.Schema,
		File:              opts.File,
		ReflectedFile:     opts.ReflectedFile,
		Backend:           opts.Backend,
		EnableCapability:  opts.EnableCapabilities,
		DisableCapability: opts.DisableCapabilities,
		IgnoreFile:        opts.IgnoreFile,
		Verify:            opts.Verify,
		ExpectFingerprint: opts.ExpectFingerprint,
		ApplicationName:   opts.ApplicationName,
	}

	return diffCmd.GenerateDiff(ctx, config)
}

// Compare diffs two in-memory snapshots and returns the ordered foreign key operations.
func Compare(desired, reflected *ir.IR, cfg Config) ([]Record, error) {
	return diff.Compare(desired, reflected, cfg)
}

// Apply returns a copy of snapshot with the records applied.
func Apply(snapshot *ir.IR, records []Record, cfg Config) (*ir.IR, error) {
	return diff.Apply(snapshot, records, cfg)
}

// Profile returns the capability gate of a named backend.
func Profile(backend string) (Gate, error) {
	return diff.Profile(backend)
}
