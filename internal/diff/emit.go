package diff

import (
	"slices"

	"github.com/pgschema/fkdiff/ir"
)

// Op is the kind of a diff record
type Op string

const (
	OpAddFK    Op = "add_fk"
	OpRemoveFK Op = "remove_fk"
)

// Record is one atomic foreign key operation. Column lists are storage names
// in constraint order. Options always carries all four members; an unset
// member marshals as null.
type Record struct {
	Op                Op         `json:"op"`
	Schema            string     `json:"schema"`
	Table             string     `json:"table"`
	Columns           []string   `json:"columns"`
	ReferencedSchema  string     `json:"referenced_schema"`
	ReferencedTable   string     `json:"referenced_table"`
	ReferencedColumns []string   `json:"referenced_columns"`
	Name              *string    `json:"name"`
	ConditionalName   string     `json:"conditional_name,omitempty"`
	NameSynthesized   bool       `json:"name_synthesized,omitempty"`
	Options           ir.Options `json:"options"`
}

// NameValue returns the record's constraint name, or "" when it has none
func (r Record) NameValue() string {
	return ir.StringValue(r.Name)
}

// emitter turns comparator decisions into records
type emitter struct {
	cfg Config
}

func newEmitter(cfg Config) *emitter {
	return &emitter{cfg: cfg}
}

func (e *emitter) emit(decisions []decision) []Record {
	records := make([]Record, 0, len(decisions))
	for _, d := range decisions {
		switch d.kind {
		case decisionRemove:
			records = append(records, e.removal(d.entry))
		case decisionAdd:
			records = append(records, e.addition(d.entry))
		}
	}
	return records
}

func (e *emitter) base(op Op, entry *fkEntry) Record {
	return Record{
		Op:                op,
		Schema:            entry.schema,
		Table:             entry.table.Name,
		Columns:           slices.Clone(entry.columns),
		ReferencedSchema:  entry.refSchema,
		ReferencedTable:   entry.refTable,
		ReferencedColumns: slices.Clone(entry.refColumns),
		Options:           entry.fk.Options.Clone(),
	}
}

// removal names the constraint being dropped. A nameless reflected constraint
// still has a name on the server, so the conventional one stands in for it.
func (e *emitter) removal(entry *fkEntry) Record {
	r := e.base(OpRemoveFK, entry)
	raw := entry.fk.Name
	switch {
	case raw == "":
		r.Name = ir.String(ir.DefaultForeignKeyName(entry.table.Name, entry.columns))
		r.NameSynthesized = true
		r.ConditionalName = ServerGeneratedName
	case entry.fk.NameGenerated:
		r.Name = ir.String(raw)
		r.ConditionalName = ServerGeneratedName
	default:
		r.Name = ir.String(raw)
		r.ConditionalName = raw
	}
	return r
}

func (e *emitter) addition(entry *fkEntry) Record {
	r := e.base(OpAddFK, entry)
	if entry.fk.Name != "" {
		r.Name = ir.String(entry.fk.Name)
	}
	return r
}
