package diff

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pgschema/fkdiff/ir"
)

// col builds a column addressed by its storage name
func col(name string) *ir.Column {
	return &ir.Column{Name: name, DataType: "integer", IsNullable: true}
}

// aliased builds a column whose programmatic key differs from its storage name
func aliased(key, name string) *ir.Column {
	c := col(name)
	c.Key = key
	return c
}

func table(name string, columns []*ir.Column, fks ...*ir.ForeignKey) *ir.Table {
	for i, c := range columns {
		c.Position = i + 1
	}
	if fks == nil {
		fks = []*ir.ForeignKey{}
	}
	return &ir.Table{Schema: "public", Name: name, Columns: columns, ForeignKeys: fks}
}

func fk(name string, columns []string, refTable string, refColumns []string) *ir.ForeignKey {
	return &ir.ForeignKey{
		Name:              name,
		Columns:           columns,
		ReferencedTable:   refTable,
		ReferencedColumns: refColumns,
	}
}

// generated marks a foreign key name as assigned by the server
func generated(f *ir.ForeignKey) *ir.ForeignKey {
	f.NameGenerated = true
	return f
}

func withOptions(f *ir.ForeignKey, opts ir.Options) *ir.ForeignKey {
	f.Options = opts
	return f
}

func snapshot(tables ...*ir.Table) *ir.IR {
	s := ir.NewIR("fixture")
	s.Tables = append(s.Tables, tables...)
	return s
}

func postgres(t *testing.T) Gate {
	t.Helper()
	gate, err := Profile("postgresql")
	if err != nil {
		t.Fatalf("Failed to load profile: %v", err)
	}
	return gate
}

// compareFixture diffs desired (m2) against reflected (m1)
func compareFixture(t *testing.T, reflected, desired *ir.IR, cfg Config) []Record {
	t.Helper()
	records, err := Compare(desired, reflected, cfg)
	if err != nil {
		t.Fatalf("Compare failed: %v", err)
	}
	return records
}

func assertRecords(t *testing.T, want, got []Record) {
	t.Helper()
	if len(want) == 0 && len(got) == 0 {
		return
	}
	if d := cmp.Diff(want, got); d != "" {
		t.Errorf("Records mismatch (-want +got):\n%s", d)
	}
}

// remove builds an expected removal record on the public schema
func remove(table string, columns []string, refTable string, refColumns []string, name string, conditional string, opts ir.Options) Record {
	return Record{
		Op:                OpRemoveFK,
		Schema:            "public",
		Table:             table,
		Columns:           columns,
		ReferencedSchema:  "public",
		ReferencedTable:   refTable,
		ReferencedColumns: refColumns,
		Name:              ir.String(name),
		ConditionalName:   conditional,
		Options:           opts,
	}
}

// synthesized builds an expected removal of a nameless reflected constraint
func synthesized(table string, columns []string, refTable string, refColumns []string, opts ir.Options) Record {
	r := remove(table, columns, refTable, refColumns, ir.DefaultForeignKeyName(table, columns), ServerGeneratedName, opts)
	r.NameSynthesized = true
	return r
}

// add builds an expected addition record on the public schema; name "" means unnamed
func add(table string, columns []string, refTable string, refColumns []string, name string, opts ir.Options) Record {
	r := Record{
		Op:                OpAddFK,
		Schema:            "public",
		Table:             table,
		Columns:           columns,
		ReferencedSchema:  "public",
		ReferencedTable:   refTable,
		ReferencedColumns: refColumns,
		Options:           opts,
	}
	if name != "" {
		r.Name = ir.String(name)
	}
	return r
}

func assertSnapshotsEqual(t *testing.T, want, got *ir.IR) {
	t.Helper()
	if d := cmp.Diff(want, got); d != "" {
		t.Errorf("Snapshot mismatch (-want +got):\n%s", d)
	}
}
