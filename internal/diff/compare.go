package diff

import (
	"fmt"
	"log/slog"
	"slices"
	"sort"

	"github.com/pgschema/fkdiff/internal/logger"
	"github.com/pgschema/fkdiff/ir"
)

// tableKey is the normalized (schema, name) identity of a table
type tableKey struct {
	schema string
	name   string
}

// fkEntry is a foreign key prepared for matching: column references are
// resolved to storage names and every identifier has a normalized twin.
type fkEntry struct {
	fk        *ir.ForeignKey
	table     *ir.Table
	reflected bool

	name     string // normalized; empty when unnamed
	explicit bool   // declared name, as opposed to none or server generated

	schema     string
	columns    []string
	refSchema  string
	refTable   string
	refColumns []string

	normColumns    []string
	normRefSchema  string
	normRefTable   string
	normRefColumns []string

	order   int
	matched bool
}

// structuralKey identifies an unnamed constraint: referenced table plus the
// ordered local storage names.
func (e *fkEntry) structuralKey() string {
	return fmt.Sprintf("%q.%q%q", e.normRefSchema, e.normRefTable, e.normColumns)
}

// sameMapping reports whether two entries bind the same local columns to the
// same referenced columns, position by position.
func (e *fkEntry) sameMapping(other *fkEntry) bool {
	return e.normRefSchema == other.normRefSchema &&
		e.normRefTable == other.normRefTable &&
		slices.Equal(e.normColumns, other.normColumns) &&
		slices.Equal(e.normRefColumns, other.normRefColumns)
}

type decisionKind int

const (
	decisionRemove decisionKind = iota
	decisionAdd
)

// decision is one comparator verdict handed to the emitter
type decision struct {
	kind  decisionKind
	entry *fkEntry
}

type comparator struct {
	cfg       Config
	gate      Gate
	norm      *Normalizer
	log       *slog.Logger
	desired   *ir.IR
	reflected *ir.IR

	desiredIndex   map[tableKey]*ir.Table
	reflectedIndex map[tableKey]*ir.Table
}

func newComparator(desired, reflected *ir.IR, cfg Config) *comparator {
	gate := cfg.Capabilities
	if gate == nil {
		gate = Gate{}
	}
	c := &comparator{
		cfg:       cfg,
		gate:      gate,
		norm:      NewNormalizer(gate),
		log:       logger.Component("compare"),
		desired:   desired,
		reflected: reflected,
	}
	c.desiredIndex = c.indexTables(desired)
	c.reflectedIndex = c.indexTables(reflected)
	return c
}

func (c *comparator) schemaOf(schema string) string {
	if schema == "" {
		return c.cfg.defaultSchema()
	}
	return schema
}

func (c *comparator) keyOf(schema, name string) tableKey {
	return tableKey{schema: c.norm.Name(c.schemaOf(schema)), name: c.norm.Name(name)}
}

func (c *comparator) indexTables(snapshot *ir.IR) map[tableKey]*ir.Table {
	index := make(map[tableKey]*ir.Table, len(snapshot.Tables))
	for _, t := range snapshot.Tables {
		key := c.keyOf(t.Schema, t.Name)
		if _, exists := index[key]; !exists {
			index[key] = t
		}
	}
	return index
}

// validate rejects foreign keys whose shape cannot be compared
func (c *comparator) validate(snapshot *ir.IR, reflected bool) error {
	for _, table := range snapshot.Tables {
		seen := make(map[string]bool)
		for _, fk := range table.ForeignKeys {
			fail := func(format string, args ...any) error {
				return &ConfigurationError{
					Table:      table.QualifiedName(),
					Constraint: fk.Name,
					Reflected:  reflected,
					Reason:     fmt.Sprintf(format, args...),
				}
			}
			if len(fk.Columns) == 0 {
				return fail("no local columns")
			}
			if len(fk.Columns) != len(fk.ReferencedColumns) {
				return fail("%d local columns but %d referenced columns", len(fk.Columns), len(fk.ReferencedColumns))
			}
			if fk.ReferencedTable == "" {
				return fail("no referenced table")
			}
			if name := c.constraintName(fk, reflected); name != "" {
				if seen[name] {
					return fail("duplicate constraint name")
				}
				seen[name] = true
			}
		}
	}
	return nil
}

// constraintName returns the normalized name used for name matching. Names of
// reflected constraints are ignored when the backend does not report them.
func (c *comparator) constraintName(fk *ir.ForeignKey, reflected bool) string {
	if fk.Name == "" || (reflected && !c.gate.Enabled(FKNames)) {
		return ""
	}
	return c.norm.Name(fk.Name)
}

// compare walks tables in desired declaration order and compares the foreign
// keys of every table present on both sides.
func (c *comparator) compare() ([]decision, error) {
	desiredTables, err := c.filterTables(c.desired, c.reflectedIndex, false)
	if err != nil {
		return nil, err
	}
	reflectedTables, err := c.filterTables(c.reflected, c.desiredIndex, true)
	if err != nil {
		return nil, err
	}

	reflectedByKey := make(map[tableKey]*ir.Table, len(reflectedTables))
	for _, t := range reflectedTables {
		reflectedByKey[c.keyOf(t.Schema, t.Name)] = t
	}

	var decisions []decision
	for _, desiredTable := range desiredTables {
		reflectedTable, ok := reflectedByKey[c.keyOf(desiredTable.Schema, desiredTable.Name)]
		if !ok {
			// Whole-table creation carries its foreign keys inline.
			continue
		}
		tableDecisions, err := c.compareTable(desiredTable, reflectedTable)
		if err != nil {
			return nil, err
		}
		decisions = append(decisions, tableDecisions...)
	}
	return decisions, nil
}

func (c *comparator) filterTables(snapshot *ir.IR, other map[tableKey]*ir.Table, reflected bool) ([]*ir.Table, error) {
	var included []*ir.Table
	for _, t := range snapshot.Tables {
		var compareTo ir.Object
		if counterpart, ok := other[c.keyOf(t.Schema, t.Name)]; ok {
			compareTo = counterpart
		}
		include, err := runFilter(c.cfg.Filter, t, reflected, compareTo)
		if err != nil {
			return nil, err
		}
		if include {
			included = append(included, t)
		}
	}
	return included, nil
}

// excludedColumns runs the filter over a table's columns and returns the
// normalized storage names of the excluded ones.
func (c *comparator) excludedColumns(table, other *ir.Table, reflected bool) (map[string]bool, error) {
	excluded := make(map[string]bool)
	for _, col := range table.Columns {
		var compareTo ir.Object
		for _, oc := range other.Columns {
			if c.norm.Name(oc.Name) == c.norm.Name(col.Name) {
				compareTo = oc
				break
			}
		}
		include, err := runFilter(c.cfg.Filter, col, reflected, compareTo)
		if err != nil {
			return nil, err
		}
		if !include {
			excluded[c.norm.Name(col.Name)] = true
		}
	}
	return excluded, nil
}

// entries filters and resolves the foreign keys of one side of a table pair
func (c *comparator) entries(table, other *ir.Table, reflected bool) ([]*fkEntry, error) {
	excluded, err := c.excludedColumns(table, other, reflected)
	if err != nil {
		return nil, err
	}

	index := c.desiredIndex
	if reflected {
		index = c.reflectedIndex
	}

	var result []*fkEntry
	for _, fk := range table.ForeignKeys {
		var compareTo ir.Object
		if name := c.constraintName(fk, reflected); name != "" {
			for _, ofk := range other.ForeignKeys {
				if c.constraintName(ofk, !reflected) == name {
					compareTo = ofk
					break
				}
			}
		}
		include, err := runFilter(c.cfg.Filter, fk, reflected, compareTo)
		if err != nil {
			return nil, err
		}
		if !include {
			continue
		}

		entry := c.resolve(fk, table, index, reflected)
		if slices.ContainsFunc(entry.normColumns, func(col string) bool { return excluded[col] }) {
			c.log.Debug("Skipping foreign key on filtered column",
				"table", table.QualifiedName(), "constraint", fk.Name, "reflected", reflected)
			continue
		}
		result = append(result, entry)
	}
	return result, nil
}

// resolve builds the matching view of a foreign key
func (c *comparator) resolve(fk *ir.ForeignKey, table *ir.Table, index map[tableKey]*ir.Table, reflected bool) *fkEntry {
	e := &fkEntry{
		fk:        fk,
		table:     table,
		reflected: reflected,
		name:      c.constraintName(fk, reflected),
		schema:    c.schemaOf(table.Schema),
		refTable:  fk.ReferencedTable,
	}
	e.explicit = e.name != "" && !fk.NameGenerated

	e.refSchema = fk.ReferencedSchema
	if e.refSchema == "" {
		e.refSchema = e.schema
	}

	e.columns = make([]string, len(fk.Columns))
	for i, ref := range fk.Columns {
		e.columns[i] = table.StorageName(ref)
	}

	refTable := index[c.keyOf(e.refSchema, e.refTable)]
	e.refColumns = make([]string, len(fk.ReferencedColumns))
	for i, ref := range fk.ReferencedColumns {
		e.refColumns[i] = refTable.StorageName(ref)
	}

	e.normColumns = c.norm.Names(e.columns)
	e.normRefSchema = c.norm.Name(e.refSchema)
	e.normRefTable = c.norm.Name(e.refTable)
	e.normRefColumns = c.norm.Names(e.refColumns)
	return e
}

// compareTable pairs the foreign keys of one table and classifies each
// logical constraint.
func (c *comparator) compareTable(desiredTable, reflectedTable *ir.Table) ([]decision, error) {
	desired, err := c.entries(desiredTable, reflectedTable, false)
	if err != nil {
		return nil, err
	}
	reflected, err := c.entries(reflectedTable, desiredTable, true)
	if err != nil {
		return nil, err
	}

	type group struct {
		order     int
		desired   *fkEntry
		reflected *fkEntry
	}
	var groups []*group

	// Named constraints, desired side first, then reflected-only names.
	seq := 0
	byName := make(map[string]*group)
	for _, d := range desired {
		if d.name == "" {
			continue
		}
		d.order = seq
		seq++
		g := &group{order: d.order, desired: d}
		byName[d.name] = g
		groups = append(groups, g)
	}
	for _, r := range reflected {
		if r.name == "" {
			continue
		}
		if g, ok := byName[r.name]; ok {
			r.order = g.order
			r.matched, g.desired.matched = true, true
			g.reflected = r
			continue
		}
		r.order = seq
		seq++
	}

	// Unnamed constraints keep scanning order after the named ones.
	for _, d := range desired {
		if d.name == "" {
			d.order = seq
			seq++
		}
	}
	for _, r := range reflected {
		if r.name == "" {
			r.order = seq
			seq++
		}
	}

	// Structural pairing of what names could not pair. Two constraints that
	// both carry declared names are different constraints. Exact mappings
	// pair first so a same-column sibling cannot steal an unchanged match.
	pair := func(same func(d, r *fkEntry) bool) {
		for _, d := range desired {
			if d.matched {
				continue
			}
			for _, r := range reflected {
				if r.matched || (d.explicit && r.explicit) || !same(d, r) {
					continue
				}
				d.matched, r.matched = true, true
				if g, ok := byName[d.name]; ok && d.name != "" {
					g.reflected = r
					g.order = min(d.order, r.order)
				} else {
					groups = append(groups, &group{order: min(d.order, r.order), desired: d, reflected: r})
				}
				break
			}
		}
	}
	pair(func(d, r *fkEntry) bool { return d.sameMapping(r) })
	pair(func(d, r *fkEntry) bool { return d.structuralKey() == r.structuralKey() })

	for _, d := range desired {
		if !d.matched && d.name == "" {
			groups = append(groups, &group{order: d.order, desired: d})
		}
	}
	for _, r := range reflected {
		if !r.matched {
			groups = append(groups, &group{order: r.order, reflected: r})
		}
	}

	sort.SliceStable(groups, func(i, j int) bool { return groups[i].order < groups[j].order })

	var decisions []decision
	for _, g := range groups {
		switch {
		case g.desired == nil:
			c.logDetected("removed", g.reflected)
			decisions = append(decisions, decision{kind: decisionRemove, entry: g.reflected})
		case g.reflected == nil:
			c.logDetected("added", g.desired)
			decisions = append(decisions, decision{kind: decisionAdd, entry: g.desired})
		default:
			changed := c.changes(g.desired, g.reflected)
			if len(changed) == 0 {
				continue
			}
			c.log.Debug("Detected changed foreign key",
				"table", desiredTable.QualifiedName(),
				"constraint", g.desired.fk.Name,
				"changes", changed,
			)
			decisions = append(decisions,
				decision{kind: decisionRemove, entry: g.reflected},
				decision{kind: decisionAdd, entry: g.desired},
			)
		}
	}
	return decisions, nil
}

// changes lists what differs between a paired desired and reflected
// constraint; an empty result means no change.
func (c *comparator) changes(desired, reflected *fkEntry) []string {
	if !desired.sameMapping(reflected) {
		return []string{"columns"}
	}
	return c.optionChanges(desired.fk.Options, reflected.fk.Options)
}

// optionChanges compares option sets member by member, skipping every option
// the backend cannot report.
func (c *comparator) optionChanges(desired, reflected ir.Options) []string {
	var changed []string
	if c.gate.Enabled(ReflectsFKOptions) {
		if c.ruleToken(desired.OnDelete) != c.ruleToken(reflected.OnDelete) {
			changed = append(changed, "ondelete")
		}
		if c.gate.Enabled(FKOnUpdate) && c.ruleToken(desired.OnUpdate) != c.ruleToken(reflected.OnUpdate) {
			changed = append(changed, "onupdate")
		}
	}
	if c.gate.Enabled(FKDeferrable) && isDeferrable(desired) != isDeferrable(reflected) {
		changed = append(changed, "deferrable")
	}
	if c.gate.Enabled(FKInitially) && initiallyToken(desired) != initiallyToken(reflected) {
		changed = append(changed, "initially")
	}
	return changed
}

// ruleToken canonicalizes an ON DELETE / ON UPDATE rule. NO ACTION is the
// implicit default; RESTRICT is indistinguishable from it on backends that
// do not report it.
func (c *comparator) ruleToken(rule *string) string {
	token := normalizeToken(rule)
	switch token {
	case "NO ACTION":
		return ""
	case "RESTRICT":
		if !c.gate.Enabled(ReflectsFKRestrict) {
			return ""
		}
	}
	return token
}

// initiallyToken canonicalizes INITIALLY; IMMEDIATE is the implicit default
func initiallyToken(o ir.Options) string {
	token := normalizeToken(o.Initially)
	if token == "IMMEDIATE" {
		return ""
	}
	return token
}

// isDeferrable folds DEFERRABLE and INITIALLY DEFERRED, which implies it
func isDeferrable(o ir.Options) bool {
	if o.Deferrable != nil && *o.Deferrable {
		return true
	}
	return initiallyToken(o) == "DEFERRED"
}

func (c *comparator) logDetected(what string, e *fkEntry) {
	c.log.Debug("Detected "+what+" foreign key",
		"table", e.table.QualifiedName(),
		"constraint", e.fk.Name,
		"columns", e.columns,
		"referenced_table", e.refTable,
		"referenced_columns", e.refColumns,
	)
}
