package diff

import (
	"fmt"

	"github.com/pgschema/fkdiff/ir"
)

// ConfigurationError reports a malformed constraint in one of the snapshots.
// It aborts the comparison.
type ConfigurationError struct {
	Table      string
	Constraint string
	Reflected  bool
	Reason     string
}

func (e *ConfigurationError) Error() string {
	side := "desired"
	if e.Reflected {
		side = "reflected"
	}
	name := e.Constraint
	if name == "" {
		name = "<unnamed>"
	}
	return fmt.Sprintf("invalid foreign key %s on %s table %s: %s", name, side, e.Table, e.Reason)
}

// FilterError wraps an error returned by a filter predicate. It aborts the
// comparison and no records are returned.
type FilterError struct {
	ObjectType ir.ObjectType
	Name       string
	Reflected  bool
	Err        error
}

func (e *FilterError) Error() string {
	return fmt.Sprintf("filter failed on %s %q: %v", e.ObjectType, e.Name, e.Err)
}

func (e *FilterError) Unwrap() error {
	return e.Err
}
