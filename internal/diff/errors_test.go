package diff

import (
	"errors"
	"strings"
	"testing"

	"github.com/pgschema/fkdiff/ir"
)

func TestConfigurationErrors(t *testing.T) {
	tests := []struct {
		name      string
		fk        *ir.ForeignKey
		reflected bool
		reason    string
	}{
		{
			name:   "length mismatch",
			fk:     fk("fk1", []string{"x", "y"}, "ref", []string{"id"}),
			reason: "2 local columns but 1 referenced columns",
		},
		{
			name:      "length mismatch on reflected side",
			fk:        fk("fk1", []string{"x"}, "ref", []string{"id", "id2"}),
			reflected: true,
			reason:    "1 local columns but 2 referenced columns",
		},
		{
			name:   "no columns",
			fk:     fk("fk1", nil, "ref", nil),
			reason: "no local columns",
		},
		{
			name:   "no referenced table",
			fk:     fk("fk1", []string{"x"}, "", []string{"id"}),
			reason: "no referenced table",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withFK := snapshot(refAndT(tt.fk))
			without := snapshot(refAndT())

			desired, reflected := withFK, without
			if tt.reflected {
				desired, reflected = without, withFK
			}

			records, err := Compare(desired, reflected, Config{Capabilities: postgres(t)})
			if err == nil {
				t.Fatal("Expected a configuration error")
			}
			if records != nil {
				t.Errorf("Expected no records on error, got %v", records)
			}

			var cfgErr *ConfigurationError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("Expected *ConfigurationError, got %T: %v", err, err)
			}
			if cfgErr.Reason != tt.reason {
				t.Errorf("Reason = %q, want %q", cfgErr.Reason, tt.reason)
			}
			if cfgErr.Reflected != tt.reflected {
				t.Errorf("Reflected = %v, want %v", cfgErr.Reflected, tt.reflected)
			}
			if cfgErr.Table != "public.t" {
				t.Errorf("Table = %q, want public.t", cfgErr.Table)
			}
		})
	}
}

func TestDuplicateConstraintNames(t *testing.T) {
	desired := snapshot(refAndT(
		fk("fk1", []string{"x"}, "ref", []string{"id"}),
		fk("FK1", []string{"y"}, "ref", []string{"id"}),
	))

	t.Run("folded names collide", func(t *testing.T) {
		gate, err := Profile("mysql")
		if err != nil {
			t.Fatal(err)
		}
		_, err = Compare(desired, snapshot(refAndT()), Config{Capabilities: gate})
		var cfgErr *ConfigurationError
		if !errors.As(err, &cfgErr) {
			t.Fatalf("Expected *ConfigurationError, got %v", err)
		}
		if !strings.Contains(err.Error(), "duplicate constraint name") {
			t.Errorf("Unexpected message: %v", err)
		}
	})

	t.Run("case preserving names are distinct", func(t *testing.T) {
		if _, err := Compare(desired, snapshot(refAndT()), Config{Capabilities: postgres(t)}); err != nil {
			t.Errorf("Unexpected error: %v", err)
		}
	})
}

func TestValidationRunsBeforeFiltering(t *testing.T) {
	desired := snapshot(refAndT(fk("fk1", []string{"x", "y"}, "ref", []string{"id"})))
	hideAll := FilterFunc(func(ir.Object, string, ir.ObjectType, bool, ir.Object) (bool, error) {
		return false, nil
	})

	_, err := Compare(desired, snapshot(refAndT()), Config{Capabilities: postgres(t), Filter: hideAll})
	var cfgErr *ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("Expected *ConfigurationError even for filtered constraints, got %v", err)
	}
}

func TestErrorMessages(t *testing.T) {
	cfgErr := &ConfigurationError{Table: "public.t", Reflected: true, Reason: "no local columns"}
	if got, want := cfgErr.Error(), "invalid foreign key <unnamed> on reflected table public.t: no local columns"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	filterErr := &FilterError{ObjectType: ir.ObjectTypeColumn, Name: "x", Err: errors.New("boom")}
	if got, want := filterErr.Error(), `filter failed on column "x": boom`; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}
