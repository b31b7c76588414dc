package ignore

import (
	"path/filepath"
	"strings"

	"github.com/pgschema/fkdiff/internal/diff"
	"github.com/pgschema/fkdiff/ir"
)

// IgnoreConfig represents the configuration for ignoring database objects
type IgnoreConfig struct {
	Tables      []string `toml:"tables,omitempty"`
	Columns     []string `toml:"columns,omitempty"`
	ForeignKeys []string `toml:"foreign_keys,omitempty"`

	// Foreign key patterns applied to one side only
	ReflectedForeignKeys []string `toml:"reflected_foreign_keys,omitempty"`
	MetadataForeignKeys  []string `toml:"metadata_foreign_keys,omitempty"`
}

// ShouldIgnoreTable checks if a table should be ignored based on the patterns
func (c *IgnoreConfig) ShouldIgnoreTable(tableName string) bool {
	if c == nil {
		return false
	}
	return c.shouldIgnore(tableName, c.Tables)
}

// ShouldIgnoreColumn checks if a column should be ignored based on the patterns
func (c *IgnoreConfig) ShouldIgnoreColumn(columnName string) bool {
	if c == nil {
		return false
	}
	return c.shouldIgnore(columnName, c.Columns)
}

// ShouldIgnoreForeignKey checks if a foreign key should be ignored on the given side
func (c *IgnoreConfig) ShouldIgnoreForeignKey(name string, reflected bool) bool {
	if c == nil {
		return false
	}
	if c.shouldIgnore(name, c.ForeignKeys) {
		return true
	}
	if reflected {
		return c.shouldIgnore(name, c.ReflectedForeignKeys)
	}
	return c.shouldIgnore(name, c.MetadataForeignKeys)
}

// IsEmpty reports whether the config ignores nothing
func (c *IgnoreConfig) IsEmpty() bool {
	return c == nil || len(c.Tables)+len(c.Columns)+len(c.ForeignKeys)+len(c.ReflectedForeignKeys)+len(c.MetadataForeignKeys) == 0
}

// Filter returns the config as a comparison filter. A nil config includes everything.
func (c *IgnoreConfig) Filter() diff.Filter {
	return diff.FilterFunc(func(obj ir.Object, name string, typ ir.ObjectType, reflected bool, compareTo ir.Object) (bool, error) {
		switch typ {
		case ir.ObjectTypeTable:
			return !c.ShouldIgnoreTable(name), nil
		case ir.ObjectTypeColumn:
			return !c.ShouldIgnoreColumn(name), nil
		case ir.ObjectTypeForeignKey:
			if name == "" {
				// Nameless constraints cannot be addressed by pattern
				return true, nil
			}
			return !c.ShouldIgnoreForeignKey(name, reflected), nil
		}
		return true, nil
	})
}

// shouldIgnore checks if a name should be ignored based on the patterns
// Patterns support wildcards (*) and negation (!)
// Negation patterns (starting with !) take precedence over inclusion patterns
func (c *IgnoreConfig) shouldIgnore(name string, patterns []string) bool {
	if len(patterns) == 0 {
		return false
	}

	matched := false

	// First pass: check for positive matches (inclusion patterns)
	for _, pattern := range patterns {
		if strings.HasPrefix(pattern, "!") {
			continue
		}

		if matchPattern(pattern, name) {
			matched = true
			break
		}
	}

	// Second pass: negation patterns exclude from ignore
	for _, pattern := range patterns {
		if !strings.HasPrefix(pattern, "!") {
			continue
		}

		if matchPattern(pattern[1:], name) {
			return false
		}
	}

	return matched
}

// matchPattern matches a glob-style pattern against a string
func matchPattern(pattern, name string) bool {
	matched, err := filepath.Match(pattern, name)
	if err != nil {
		// If pattern is invalid, treat it as a literal match
		return pattern == name
	}
	return matched
}
