package plan

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/pgschema/fkdiff/internal/color"
	"github.com/pgschema/fkdiff/internal/diff"
	"github.com/pgschema/fkdiff/internal/fingerprint"
	"github.com/pgschema/fkdiff/internal/version"
	"github.com/pgschema/fkdiff/ir"
)

// Plan represents the foreign key operations between two schema states
type Plan struct {
	// The ordered diff records
	Records []diff.Record `json:"records"`

	// The schema the comparison ran against
	TargetSchema string `json:"target_schema"`

	// Backend profile and enabled capabilities
	Backend      string   `json:"backend,omitempty"`
	Capabilities []string `json:"capabilities"`

	// Fingerprint of the reflected foreign keys the plan was computed from
	SourceFingerprint *fingerprint.SchemaFingerprint `json:"source_fingerprint,omitempty"`

	// Plan metadata
	CreatedAt time.Time `json:"created_at"`
}

// PlanJSON represents the structured JSON output format
type PlanJSON struct {
	Version       string        `json:"version"`
	FkdiffVersion string        `json:"fkdiff_version"`
	CreatedAt     time.Time     `json:"created_at"`
	TargetSchema  string        `json:"target_schema"`
	Backend       string        `json:"backend,omitempty"`
	Capabilities  []string      `json:"capabilities"`
	// Omitted when the plan was built without a fingerprint
	SourceFingerprint *fingerprint.SchemaFingerprint `json:"source_fingerprint,omitempty"`
	Summary           PlanSummary                    `json:"summary"`
	Records           []diff.Record                  `json:"records"`
}

// PlanSummary provides counts of changes
type PlanSummary struct {
	Add    int `json:"add"`
	Remove int `json:"remove"`
	Total  int `json:"total"`
}

// NewPlan creates a new plan from diff records
func NewPlan(records []diff.Record, targetSchema, backend string, gate diff.Gate) *Plan {
	if records == nil {
		records = []diff.Record{}
	}
	capabilities := gate.Names()
	if capabilities == nil {
		capabilities = []string{}
	}
	return &Plan{
		Records:      records,
		TargetSchema: targetSchema,
		Backend:      backend,
		Capabilities: capabilities,
		CreatedAt:    time.Now().Truncate(time.Second),
	}
}

// NewPlanWithFingerprint creates a plan that records the fingerprint of the reflected state
func NewPlanWithFingerprint(records []diff.Record, targetSchema, backend string, gate diff.Gate, source *fingerprint.SchemaFingerprint) *Plan {
	p := NewPlan(records, targetSchema, backend, gate)
	p.SourceFingerprint = source
	return p
}

// HasAnyChanges checks if the plan contains any records
func (p *Plan) HasAnyChanges() bool {
	return len(p.Records) > 0
}

// Summary counts the records by operation
func (p *Plan) Summary() PlanSummary {
	var s PlanSummary
	for _, r := range p.Records {
		switch r.Op {
		case diff.OpAddFK:
			s.Add++
		case diff.OpRemoveFK:
			s.Remove++
		}
	}
	s.Total = s.Add + s.Remove
	return s
}

// HumanColored returns a human-readable summary of the plan with color support
func (p *Plan) HumanColored(enableColor bool) string {
	c := color.New(enableColor)
	var summary strings.Builder

	if !p.HasAnyChanges() {
		summary.WriteString("No changes detected.\n")
		return summary.String()
	}

	s := p.Summary()
	summary.WriteString(c.FormatSummary(s.Add, s.Remove) + "\n\n")

	currentTable := ""
	for _, r := range p.Records {
		table := ir.QualifyEntityNameWithQuotes(r.Schema, r.Table, p.TargetSchema)
		if table != currentTable {
			if currentTable != "" {
				summary.WriteString("\n")
			}
			summary.WriteString(c.Bold(table) + ":\n")
			currentTable = table
		}
		summary.WriteString(p.formatRecord(c, r) + "\n")
	}

	return summary.String()
}

func (p *Plan) formatRecord(c *color.Color, r diff.Record) string {
	var b strings.Builder
	action := "add"
	if r.Op == diff.OpRemoveFK {
		action = "remove"
	}
	fmt.Fprintf(&b, "  %s ", c.Symbol(action))

	if r.Name != nil {
		fmt.Fprintf(&b, "CONSTRAINT %s ", ir.QuoteIdentifier(*r.Name))
	}
	fmt.Fprintf(&b, "FOREIGN KEY (%s) REFERENCES %s (%s)",
		ir.QuoteIdentifiers(r.Columns),
		ir.QualifyEntityNameWithQuotes(r.ReferencedSchema, r.ReferencedTable, p.TargetSchema),
		ir.QuoteIdentifiers(r.ReferencedColumns),
	)
	if r.Options.OnDelete != nil {
		b.WriteString(" ON DELETE " + strings.ToUpper(*r.Options.OnDelete))
	}
	if r.Options.OnUpdate != nil {
		b.WriteString(" ON UPDATE " + strings.ToUpper(*r.Options.OnUpdate))
	}
	if r.Options.Deferrable != nil {
		if *r.Options.Deferrable {
			b.WriteString(" DEFERRABLE")
		} else {
			b.WriteString(" NOT DEFERRABLE")
		}
	}
	if r.Options.Initially != nil {
		b.WriteString(" INITIALLY " + strings.ToUpper(*r.Options.Initially))
	}

	if r.ConditionalName == diff.ServerGeneratedName {
		b.WriteString(c.Cyan("  (" + diff.ServerGeneratedName + ")"))
	}
	return b.String()
}

// ToJSON returns the plan as structured JSON
func (p *Plan) ToJSON() (string, error) {
	planJSON := PlanJSON{
		Version:       "1.0.0",
		FkdiffVersion: version.Version(),
		CreatedAt:     p.CreatedAt,
		TargetSchema:  p.TargetSchema,
		Backend:       p.Backend,
		Capabilities:  p.Capabilities,
		Summary:       p.Summary(),
		Records:       p.Records,

		SourceFingerprint: p.SourceFingerprint,
	}

	data, err := json.MarshalIndent(planJSON, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal plan to JSON: %w", err)
	}
	return string(data), nil
}

// FromJSON reconstructs a plan from its JSON output
func FromJSON(data []byte) (*Plan, error) {
	var planJSON PlanJSON
	if err := json.Unmarshal(data, &planJSON); err != nil {
		return nil, fmt.Errorf("failed to parse plan JSON: %w", err)
	}
	return &Plan{
		Records:      planJSON.Records,
		TargetSchema: planJSON.TargetSchema,
		Backend:      planJSON.Backend,
		Capabilities: planJSON.Capabilities,
		CreatedAt:    planJSON.CreatedAt,

		SourceFingerprint: planJSON.SourceFingerprint,
	}, nil
}
