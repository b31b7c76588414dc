package fkdiff

import (
	"context"

	"github.com/pgschema/fkdiff/internal/ignore"
	"github.com/pgschema/fkdiff/internal/plan"
	"github.com/pgschema/fkdiff/ir"
)

// DiffSchemaFile is a convenience function to compare a desired state file with a live schema.
func DiffSchemaFile(ctx context.Context, dbConfig DatabaseConfig, desiredStateFile string) (*plan.Plan, error) {
	client := NewClient(dbConfig)
	return client.Diff(ctx, DiffOptions{
		File: desiredStateFile,
	})
}

// DiffFiles is a convenience function to compare two SQL files without a database.
func DiffFiles(ctx context.Context, desiredStateFile, reflectedStateFile string) (*plan.Plan, error) {
	client := NewClient(DatabaseConfig{})
	return client.Diff(ctx, DiffOptions{
		File:          desiredStateFile,
		ReflectedFile: reflectedStateFile,
	})
}

// ParseSchema parses PostgreSQL DDL into a snapshot.
func ParseSchema(sql string) (*IR, error) {
	return ir.NewParser().ParseSQL(sql)
}

// LoadIgnoreFile loads ignore patterns from path; a missing file yields nil.
func LoadIgnoreFile(path string) (*IgnoreConfig, error) {
	return ignore.LoadIgnoreFileFromPath(path)
}
