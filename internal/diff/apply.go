package diff

import (
	"fmt"
	"slices"

	"github.com/pgschema/fkdiff/ir"
)

// Apply plays records against a copy of snapshot and returns the copy. It is
// the inverse of Compare: applying Compare(desired, reflected) to reflected
// yields a snapshot that compares empty against desired.
func Apply(snapshot *ir.IR, records []Record, cfg Config) (*ir.IR, error) {
	if snapshot == nil {
		snapshot = ir.NewIR("empty")
	}
	out := snapshot.Clone()
	norm := NewNormalizer(cfg.Capabilities)

	for i, r := range records {
		table := findTable(out, r.Schema, r.Table, cfg, norm)
		if table == nil {
			return nil, fmt.Errorf("record %d (%s): table %s.%s not found", i, r.Op, r.Schema, r.Table)
		}
		switch r.Op {
		case OpRemoveFK:
			idx := findRemovalTarget(table, r, norm)
			if idx < 0 {
				return nil, fmt.Errorf("record %d (%s): foreign key %s not found on %s", i, r.Op, r.NameValue(), table.QualifiedName())
			}
			table.ForeignKeys = slices.Delete(table.ForeignKeys, idx, idx+1)
		case OpAddFK:
			table.ForeignKeys = append(table.ForeignKeys, &ir.ForeignKey{
				Name:              r.NameValue(),
				Columns:           slices.Clone(r.Columns),
				ReferencedSchema:  r.ReferencedSchema,
				ReferencedTable:   r.ReferencedTable,
				ReferencedColumns: slices.Clone(r.ReferencedColumns),
				Options:           r.Options.Clone(),
			})
		default:
			return nil, fmt.Errorf("record %d: unknown operation %q", i, r.Op)
		}
	}
	return out, nil
}

func findTable(snapshot *ir.IR, schema, name string, cfg Config, norm *Normalizer) *ir.Table {
	want := norm.Name(schemaOrDefault(schema, cfg))
	for _, t := range snapshot.Tables {
		if norm.Name(schemaOrDefault(t.Schema, cfg)) == want && norm.Name(t.Name) == norm.Name(name) {
			return t
		}
	}
	return nil
}

func schemaOrDefault(schema string, cfg Config) string {
	if schema == "" {
		return cfg.defaultSchema()
	}
	return schema
}

// findRemovalTarget locates the constraint a remove record refers to. A
// synthesized name never existed in the snapshot, so those records are
// matched by structure among the nameless constraints.
func findRemovalTarget(table *ir.Table, r Record, norm *Normalizer) int {
	if !r.NameSynthesized {
		name := norm.Name(r.NameValue())
		return slices.IndexFunc(table.ForeignKeys, func(fk *ir.ForeignKey) bool {
			return fk.Name != "" && norm.Name(fk.Name) == name
		})
	}
	cols := norm.Names(r.Columns)
	return slices.IndexFunc(table.ForeignKeys, func(fk *ir.ForeignKey) bool {
		if fk.Name != "" || norm.Name(fk.ReferencedTable) != norm.Name(r.ReferencedTable) {
			return false
		}
		local := make([]string, len(fk.Columns))
		for i, ref := range fk.Columns {
			local[i] = table.StorageName(ref)
		}
		return slices.Equal(norm.Names(local), cols)
	})
}
