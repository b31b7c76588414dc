package ignore

import (
	"testing"

	"github.com/pgschema/fkdiff/internal/diff"
	"github.com/pgschema/fkdiff/ir"
)

func TestIgnoreConfig_ShouldIgnoreTable(t *testing.T) {
	tests := []struct {
		name      string
		patterns  []string
		tableName string
		expected  bool
	}{
		{
			name:      "empty patterns",
			patterns:  []string{},
			tableName: "users",
			expected:  false,
		},
		{
			name:      "exact match",
			patterns:  []string{"temp_table"},
			tableName: "temp_table",
			expected:  true,
		},
		{
			name:      "no match",
			patterns:  []string{"temp_table"},
			tableName: "users",
			expected:  false,
		},
		{
			name:      "wildcard match - prefix",
			patterns:  []string{"temp_*"},
			tableName: "temp_users",
			expected:  true,
		},
		{
			name:      "wildcard match - suffix",
			patterns:  []string{"*_temp"},
			tableName: "users_temp",
			expected:  true,
		},
		{
			name:      "negation pattern - overrides inclusion",
			patterns:  []string{"test_*", "!test_core_users"},
			tableName: "test_core_users",
			expected:  false,
		},
		{
			name:      "negation pattern - inclusion still works",
			patterns:  []string{"test_*", "!test_core_users"},
			tableName: "test_temp_users",
			expected:  true,
		},
		{
			name:      "only negation patterns",
			patterns:  []string{"!users"},
			tableName: "orders",
			expected:  false,
		},
		{
			name:      "invalid pattern falls back to literal match",
			patterns:  []string{"bad[pattern"},
			tableName: "bad[pattern",
			expected:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := &IgnoreConfig{Tables: tt.patterns}
			if got := config.ShouldIgnoreTable(tt.tableName); got != tt.expected {
				t.Errorf("ShouldIgnoreTable(%q) = %v, expected %v", tt.tableName, got, tt.expected)
			}
		})
	}
}

func TestIgnoreConfig_ShouldIgnoreForeignKey(t *testing.T) {
	config := &IgnoreConfig{
		ForeignKeys:          []string{"legacy_*"},
		ReflectedForeignKeys: []string{"fk_dba_*"},
		MetadataForeignKeys:  []string{"fk_draft"},
	}

	tests := []struct {
		name      string
		fkName    string
		reflected bool
		expected  bool
	}{
		{"both sides - reflected", "legacy_orders", true, true},
		{"both sides - metadata", "legacy_orders", false, true},
		{"reflected only - reflected", "fk_dba_audit", true, true},
		{"reflected only - metadata", "fk_dba_audit", false, false},
		{"metadata only - metadata", "fk_draft", false, true},
		{"metadata only - reflected", "fk_draft", true, false},
		{"unmatched", "fk_orders_user", true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := config.ShouldIgnoreForeignKey(tt.fkName, tt.reflected); got != tt.expected {
				t.Errorf("ShouldIgnoreForeignKey(%q, %v) = %v, expected %v", tt.fkName, tt.reflected, got, tt.expected)
			}
		})
	}
}

func TestIgnoreConfig_NilConfig(t *testing.T) {
	var config *IgnoreConfig

	if config.ShouldIgnoreTable("users") {
		t.Error("nil config should not ignore tables")
	}
	if config.ShouldIgnoreColumn("id") {
		t.Error("nil config should not ignore columns")
	}
	if config.ShouldIgnoreForeignKey("fk1", true) {
		t.Error("nil config should not ignore foreign keys")
	}
	if !config.IsEmpty() {
		t.Error("nil config should be empty")
	}

	include, err := config.Filter().Include(&ir.Table{Name: "users"}, "users", ir.ObjectTypeTable, false, nil)
	if err != nil || !include {
		t.Errorf("nil config filter should include everything, got %v, %v", include, err)
	}
}

func TestIgnoreConfig_Filter(t *testing.T) {
	config := &IgnoreConfig{
		Tables:               []string{"tmp_*"},
		Columns:              []string{"audit_*"},
		ReflectedForeignKeys: []string{"fk_live"},
	}
	filter := config.Filter()

	tests := []struct {
		name      string
		obj       ir.Object
		reflected bool
		expected  bool
	}{
		{"ignored table", &ir.Table{Name: "tmp_import"}, false, false},
		{"kept table", &ir.Table{Name: "users"}, false, true},
		{"ignored column", &ir.Column{Name: "audit_by"}, true, false},
		{"kept column", &ir.Column{Name: "user_id"}, true, true},
		{"reflected foreign key", &ir.ForeignKey{Name: "fk_live"}, true, false},
		{"same name on the desired side", &ir.ForeignKey{Name: "fk_live"}, false, true},
		{"nameless foreign key", &ir.ForeignKey{}, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := filter.Include(tt.obj, tt.obj.GetObjectName(), tt.obj.GetObjectType(), tt.reflected, nil)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("Include(%s %q) = %v, expected %v", tt.obj.GetObjectType(), tt.obj.GetObjectName(), got, tt.expected)
			}
		})
	}
}

func TestIgnoreConfig_FilterInCompare(t *testing.T) {
	build := func(fks ...*ir.ForeignKey) *ir.IR {
		s := ir.NewIR("fixture")
		s.Tables = append(s.Tables,
			&ir.Table{Schema: "public", Name: "ref", Columns: []*ir.Column{{Name: "id"}}},
			&ir.Table{Schema: "public", Name: "t", Columns: []*ir.Column{{Name: "x"}, {Name: "y"}}, ForeignKeys: fks},
		)
		return s
	}
	reflected := build(
		&ir.ForeignKey{Name: "fk_live", Columns: []string{"x"}, ReferencedTable: "ref", ReferencedColumns: []string{"id"}},
		&ir.ForeignKey{Name: "fk_old", Columns: []string{"y"}, ReferencedTable: "ref", ReferencedColumns: []string{"id"}},
	)
	desired := build()

	config := &IgnoreConfig{ReflectedForeignKeys: []string{"fk_live"}}
	records, err := diff.Compare(desired, reflected, diff.Config{Filter: config.Filter()})
	if err != nil {
		t.Fatalf("Compare failed: %v", err)
	}
	if len(records) != 1 || records[0].NameValue() != "fk_old" {
		t.Errorf("expected only fk_old to be removed, got %+v", records)
	}
}
