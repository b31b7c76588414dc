package ir

import "time"

// IR represents one schema snapshot, either the desired (metadata) side or the
// reflected (live database) side of a comparison.
type IR struct {
	Metadata Metadata `json:"metadata"`
	Tables   []*Table `json:"tables"` // declaration order
}

// Metadata contains information about where a snapshot came from
type Metadata struct {
	DatabaseVersion string    `json:"database_version,omitempty"`
	LoadedAt        time.Time `json:"loaded_at"`
	Source          string    `json:"source"` // "parser", "inspector", "fixture", etc.
}

// Table represents a database table
type Table struct {
	Schema      string        `json:"schema"`
	Name        string        `json:"name"`
	Columns     []*Column     `json:"columns"`
	ForeignKeys []*ForeignKey `json:"foreign_keys"`
}

// Column represents a table column.
//
// Name is the storage name of the column. Key is the programmatic alias the
// column is referred to by in the desired model; it is empty when the column
// is addressed by its storage name.
type Column struct {
	Name         string  `json:"name"`
	Key          string  `json:"key,omitempty"`
	Position     int     `json:"position"`
	DataType     string  `json:"data_type"`
	IsNullable   bool    `json:"is_nullable"`
	DefaultValue *string `json:"default_value,omitempty"`
}

// ForeignKey represents a foreign key constraint.
//
// Columns and ReferencedColumns are positionally paired. Entries of Columns may
// name a column by its Key or by its storage Name.
type ForeignKey struct {
	Name              string   `json:"name,omitempty"`
	NameGenerated     bool     `json:"name_generated,omitempty"` // name was assigned by the server
	Columns           []string `json:"columns"`
	ReferencedSchema  string   `json:"referenced_schema,omitempty"`
	ReferencedTable   string   `json:"referenced_table"`
	ReferencedColumns []string `json:"referenced_columns"`
	Options           Options  `json:"options"`
}

// Options holds the referential options of a foreign key. A nil field means
// the option was not specified, which is distinct from an explicit value.
type Options struct {
	OnDelete   *string `json:"ondelete"`
	OnUpdate   *string `json:"onupdate"`
	Deferrable *bool   `json:"deferrable"`
	Initially  *string `json:"initially"`
}

// ObjectType names the kind of object handed to a filter
type ObjectType string

const (
	ObjectTypeTable      ObjectType = "table"
	ObjectTypeColumn     ObjectType = "column"
	ObjectTypeForeignKey ObjectType = "foreign_key_constraint"
)

// Object is implemented by every model object a filter can see
type Object interface {
	GetObjectName() string
	GetObjectType() ObjectType
}

func (t *Table) GetObjectName() string      { return t.Name }
func (c *Column) GetObjectName() string     { return c.Name }
func (f *ForeignKey) GetObjectName() string { return f.Name }

func (t *Table) GetObjectType() ObjectType      { return ObjectTypeTable }
func (c *Column) GetObjectType() ObjectType     { return ObjectTypeColumn }
func (f *ForeignKey) GetObjectType() ObjectType { return ObjectTypeForeignKey }

// NewIR creates an empty snapshot
func NewIR(source string) *IR {
	return &IR{
		Metadata: Metadata{
			LoadedAt: time.Now(),
			Source:   source,
		},
		Tables: []*Table{},
	}
}

// GetTable returns the table with the given schema and name using exact matching
func (s *IR) GetTable(schema, name string) (*Table, bool) {
	for _, t := range s.Tables {
		if t.Schema == schema && t.Name == name {
			return t, true
		}
	}
	return nil, false
}

// GetOrCreateTable returns an existing table or appends a new empty one
func (s *IR) GetOrCreateTable(schema, name string) *Table {
	if t, ok := s.GetTable(schema, name); ok {
		return t
	}
	t := &Table{
		Schema:      schema,
		Name:        name,
		Columns:     []*Column{},
		ForeignKeys: []*ForeignKey{},
	}
	s.Tables = append(s.Tables, t)
	return t
}

// GetColumn finds a column by alias first, then by storage name
func (t *Table) GetColumn(ref string) (*Column, bool) {
	for _, c := range t.Columns {
		if c.Key != "" && c.Key == ref {
			return c, true
		}
	}
	for _, c := range t.Columns {
		if c.Name == ref {
			return c, true
		}
	}
	return nil, false
}

// StorageName resolves a column reference (alias or storage name) to the
// storage name. Unknown references are returned unchanged.
func (t *Table) StorageName(ref string) string {
	if t == nil {
		return ref
	}
	if c, ok := t.GetColumn(ref); ok {
		return c.Name
	}
	return ref
}

// QualifiedName returns schema.name, or just name when schema is empty
func (t *Table) QualifiedName() string {
	if t.Schema == "" {
		return t.Name
	}
	return t.Schema + "." + t.Name
}

// String returns a pointer to s
func String(s string) *string { return &s }

// Bool returns a pointer to b
func Bool(b bool) *bool { return &b }

// StringValue dereferences an optional string, returning "" when unset
func StringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Clone returns a deep copy of the snapshot
func (s *IR) Clone() *IR {
	out := &IR{Metadata: s.Metadata, Tables: make([]*Table, 0, len(s.Tables))}
	for _, t := range s.Tables {
		out.Tables = append(out.Tables, t.Clone())
	}
	return out
}

// Clone returns a deep copy of the table
func (t *Table) Clone() *Table {
	out := &Table{
		Schema:      t.Schema,
		Name:        t.Name,
		Columns:     make([]*Column, 0, len(t.Columns)),
		ForeignKeys: make([]*ForeignKey, 0, len(t.ForeignKeys)),
	}
	for _, c := range t.Columns {
		col := *c
		if c.DefaultValue != nil {
			col.DefaultValue = String(*c.DefaultValue)
		}
		out.Columns = append(out.Columns, &col)
	}
	for _, fk := range t.ForeignKeys {
		out.ForeignKeys = append(out.ForeignKeys, fk.Clone())
	}
	return out
}

// Clone returns a deep copy of the foreign key
func (f *ForeignKey) Clone() *ForeignKey {
	out := *f
	out.Columns = append([]string(nil), f.Columns...)
	out.ReferencedColumns = append([]string(nil), f.ReferencedColumns...)
	out.Options = f.Options.Clone()
	return &out
}

// Clone returns a copy of the options that shares no pointers with o
func (o Options) Clone() Options {
	var out Options
	if o.OnDelete != nil {
		out.OnDelete = String(*o.OnDelete)
	}
	if o.OnUpdate != nil {
		out.OnUpdate = String(*o.OnUpdate)
	}
	if o.Deferrable != nil {
		out.Deferrable = Bool(*o.Deferrable)
	}
	if o.Initially != nil {
		out.Initially = String(*o.Initially)
	}
	return out
}
