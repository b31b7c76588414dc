package fkdiff

import (
	"github.com/pgschema/fkdiff/internal/diff"
	"github.com/pgschema/fkdiff/internal/fingerprint"
	"github.com/pgschema/fkdiff/internal/ignore"
	"github.com/pgschema/fkdiff/internal/plan"
	"github.com/pgschema/fkdiff/ir"
)

// Re-export important types for external consumption

// Plan wraps the records of one comparison with its metadata.
type Plan = plan.Plan

// SchemaFingerprint identifies the reflected foreign key state a plan was computed against.
type SchemaFingerprint = fingerprint.SchemaFingerprint

// Record is one foreign key operation.
type Record = diff.Record

// Op names the operation of a record.
type Op = diff.Op

// Config holds the capability gate, filter and default schema of a comparison.
type Config = diff.Config

// Gate is the set of enabled capabilities.
type Gate = diff.Gate

// Capability names a backend feature.
type Capability = diff.Capability

// Filter decides which tables, columns and foreign keys take part in a comparison.
type Filter = diff.Filter

// FilterFunc adapts a function to Filter.
type FilterFunc = diff.FilterFunc

// ConfigurationError reports a malformed foreign key.
type ConfigurationError = diff.ConfigurationError

// FilterError reports a failing filter.
type FilterError = diff.FilterError

// IgnoreConfig holds ignore patterns loaded from a .fkdiffignore file.
type IgnoreConfig = ignore.IgnoreConfig

// IR represents a schema snapshot.
type IR = ir.IR

// Table represents a database table with its columns and foreign keys.
type Table = ir.Table

// Column represents a table column.
type Column = ir.Column

// ForeignKey represents a foreign key constraint.
type ForeignKey = ir.ForeignKey

// Options holds the referential actions and deferrability of a foreign key.
type Options = ir.Options
