// Package diff compares a desired schema snapshot against a reflected one and
// reports the foreign key operations that turn the reflected side into the
// desired side.
package diff

import (
	"github.com/pgschema/fkdiff/internal/logger"
	"github.com/pgschema/fkdiff/ir"
)

// DefaultSchema is assumed for tables and references that carry no schema
const DefaultSchema = "public"

// ServerGeneratedName is the conditional name reported for removals of
// constraints whose name was chosen by the database rather than declared.
const ServerGeneratedName = "servergenerated"

// Config holds everything a comparison needs besides the two snapshots.
// It is supplied per call; the comparator keeps no state between calls.
type Config struct {
	// Capabilities tells which foreign key details the reflecting backend can report
	Capabilities Gate
	// Filter optionally hides tables, columns and foreign keys on either side
	Filter Filter
	// DefaultSchema replaces empty schema names; "public" when empty
	DefaultSchema string
}

func (c Config) defaultSchema() string {
	if c.DefaultSchema == "" {
		return DefaultSchema
	}
	return c.DefaultSchema
}

// Compare diffs the desired snapshot against the reflected snapshot and
// returns the ordered foreign key operations. Neither snapshot is modified.
//
// A malformed foreign key yields a *ConfigurationError and a failing filter a
// *FilterError; in both cases no records are returned.
func Compare(desired, reflected *ir.IR, cfg Config) ([]Record, error) {
	if desired == nil {
		desired = ir.NewIR("empty")
	}
	if reflected == nil {
		reflected = ir.NewIR("empty")
	}

	c := newComparator(desired, reflected, cfg)

	if err := c.validate(desired, false); err != nil {
		return nil, err
	}
	if err := c.validate(reflected, true); err != nil {
		return nil, err
	}

	decisions, err := c.compare()
	if err != nil {
		return nil, err
	}

	records := newEmitter(cfg).emit(decisions)

	logger.Component("diff").Debug("Foreign key comparison finished",
		"desired_tables", len(desired.Tables),
		"reflected_tables", len(reflected.Tables),
		"records", len(records),
	)

	return records, nil
}
