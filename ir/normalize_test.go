package ir

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNormalizeForeignKey(t *testing.T) {
	tests := []struct {
		name string
		in   Options
		want Options
	}{
		{
			name: "reported defaults are dropped",
			in:   Options{OnDelete: String("NO ACTION"), OnUpdate: String("no action"), Deferrable: Bool(false), Initially: String("IMMEDIATE")},
			want: Options{},
		},
		{
			name: "declared values are kept",
			in:   Options{OnDelete: String("CASCADE"), OnUpdate: String("RESTRICT"), Deferrable: Bool(true), Initially: String("DEFERRED")},
			want: Options{OnDelete: String("CASCADE"), OnUpdate: String("RESTRICT"), Deferrable: Bool(true), Initially: String("DEFERRED")},
		},
		{
			name: "deferrable initially immediate keeps deferrable",
			in:   Options{Deferrable: Bool(true), Initially: String(" immediate ")},
			want: Options{Deferrable: Bool(true)},
		},
		{
			name: "blank rule is unset",
			in:   Options{OnDelete: String("  ")},
			want: Options{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fk := &ForeignKey{Options: tt.in}
			normalizeForeignKey(fk)
			if d := cmp.Diff(tt.want, fk.Options); d != "" {
				t.Errorf("normalizeForeignKey mismatch (-want +got):\n%s", d)
			}
		})
	}
}

func TestNormalizePostgreSQLType(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"int4", "integer"},
		{"int8", "bigint"},
		{"pg_catalog.int2", "smallint"},
		{"character varying", "varchar"},
		{"timestamp with time zone", "timestamptz"},
		{"_text", "text[]"},
		{"varchar(10)", "varchar(10)"},
		{"'x'::pg_catalog.text", "'x'::text"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := normalizePostgreSQLType(tt.input); got != tt.expected {
				t.Errorf("normalizePostgreSQLType(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestNormalizeDefaultValue(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"nextval('public.user_id_seq'::regclass)", "nextval('user_id_seq'::regclass)"},
		{"'x'::text", "'x'"},
		{"'active'::character varying", "'active'"},
		{" 0 ", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := normalizeDefaultValue(tt.input); got != tt.expected {
				t.Errorf("normalizeDefaultValue(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}
