package ir

import (
	"fmt"
	"strings"

	pg_query "github.com/pganalyze/pg_query_go/v6"
)

// defaultSchema is where unqualified names in a schema file resolve
const defaultSchema = "public"

// Parser handles parsing desired-state SQL into IR representation
type Parser struct {
	schema      *IR
	primaryKeys map[string][]string // "schema.table" -> primary key columns
}

// NewParser creates a new parser instance
func NewParser() *Parser {
	return &Parser{
		schema:      NewIR("parser"),
		primaryKeys: make(map[string][]string),
	}
}

// ParseSQL parses SQL content and returns the IR representation.
// Only CREATE TABLE and ALTER TABLE ... ADD CONSTRAINT are interpreted; other
// statements are accepted and skipped.
func (p *Parser) ParseSQL(sqlContent string) (*IR, error) {
	result, err := pg_query.Parse(sqlContent)
	if err != nil {
		return nil, fmt.Errorf("pg_query parse error: %w", err)
	}

	for _, rawStmt := range result.Stmts {
		if err := p.processStatement(rawStmt.Stmt); err != nil {
			return nil, fmt.Errorf("failed to parse statement: %w", err)
		}
	}

	p.resolveImplicitReferences()

	return p.schema, nil
}

// processStatement processes a single parsed statement node
func (p *Parser) processStatement(stmt *pg_query.Node) error {
	if stmt == nil {
		return nil
	}
	switch node := stmt.Node.(type) {
	case *pg_query.Node_CreateStmt:
		return p.parseCreateTable(node.CreateStmt)
	case *pg_query.Node_AlterTableStmt:
		return p.parseAlterTable(node.AlterTableStmt)
	}
	return nil
}

// extractTableName extracts schema and table name from a RangeVar
func (p *Parser) extractTableName(rangeVar *pg_query.RangeVar) (schema, table string) {
	if rangeVar == nil {
		return "", ""
	}
	return rangeVar.Schemaname, rangeVar.Relname
}

// extractNames returns the string values of a list of String nodes
func (p *Parser) extractNames(nodes []*pg_query.Node) []string {
	var names []string
	for _, node := range nodes {
		if str := node.GetString_(); str != nil {
			names = append(names, str.Sval)
		}
	}
	return names
}

// parseCreateTable parses CREATE TABLE statements
func (p *Parser) parseCreateTable(createStmt *pg_query.CreateStmt) error {
	schemaName, tableName := p.extractTableName(createStmt.Relation)
	if tableName == "" {
		return fmt.Errorf("CREATE TABLE without a table name")
	}
	if _, exists := p.lookupTable(schemaName, tableName); exists {
		return fmt.Errorf("table %s is defined more than once", tableName)
	}

	table := p.schema.GetOrCreateTable(schemaName, tableName)

	position := 1
	for _, element := range createStmt.TableElts {
		switch elt := element.Node.(type) {
		case *pg_query.Node_ColumnDef:
			column := p.parseColumnDef(table, elt.ColumnDef, position)
			table.Columns = append(table.Columns, column)
			position++

		case *pg_query.Node_Constraint:
			p.parseTableConstraint(table, elt.Constraint)
		}
	}

	return nil
}

// parseColumnDef parses a column definition, including inline REFERENCES
func (p *Parser) parseColumnDef(table *Table, colDef *pg_query.ColumnDef, position int) *Column {
	column := &Column{
		Name:       colDef.Colname,
		Position:   position,
		IsNullable: !colDef.IsNotNull,
	}

	if colDef.TypeName != nil {
		column.DataType = p.parseTypeName(colDef.TypeName)
	}

	for _, node := range colDef.Constraints {
		cons := node.GetConstraint()
		if cons == nil {
			continue
		}
		switch cons.Contype {
		case pg_query.ConstrType_CONSTR_NOTNULL:
			column.IsNullable = false
		case pg_query.ConstrType_CONSTR_NULL:
			column.IsNullable = true
		case pg_query.ConstrType_CONSTR_PRIMARY:
			column.IsNullable = false
			p.primaryKeys[tableKey(table.Schema, table.Name)] = []string{colDef.Colname}
		case pg_query.ConstrType_CONSTR_DEFAULT:
			if cons.RawExpr != nil {
				if deparsed, err := deparseExpr(cons.RawExpr); err == nil {
					column.DefaultValue = &deparsed
				}
			}
		case pg_query.ConstrType_CONSTR_FOREIGN:
			table.ForeignKeys = append(table.ForeignKeys, p.parseForeignKey(cons, []string{colDef.Colname}))
		}
	}

	return column
}

// parseTableConstraint handles table-level constraints
func (p *Parser) parseTableConstraint(table *Table, constraint *pg_query.Constraint) {
	switch constraint.Contype {
	case pg_query.ConstrType_CONSTR_PRIMARY:
		p.primaryKeys[tableKey(table.Schema, table.Name)] = p.extractNames(constraint.Keys)
	case pg_query.ConstrType_CONSTR_FOREIGN:
		table.ForeignKeys = append(table.ForeignKeys, p.parseForeignKey(constraint, p.extractNames(constraint.FkAttrs)))
	}
}

// parseForeignKey converts a FOREIGN KEY constraint node. Names are kept
// empty when the statement does not declare one.
func (p *Parser) parseForeignKey(constraint *pg_query.Constraint, columns []string) *ForeignKey {
	fk := &ForeignKey{
		Name:              constraint.Conname,
		Columns:           columns,
		ReferencedColumns: p.extractNames(constraint.PkAttrs),
	}
	fk.ReferencedSchema, fk.ReferencedTable = p.extractTableName(constraint.Pktable)

	fk.Options.OnDelete = p.mapReferentialAction(constraint.FkDelAction)
	fk.Options.OnUpdate = p.mapReferentialAction(constraint.FkUpdAction)
	if constraint.Deferrable {
		fk.Options.Deferrable = Bool(true)
	}
	if constraint.Initdeferred {
		fk.Options.Initially = String("DEFERRED")
	}

	return fk
}

// parseAlterTable handles ALTER TABLE ... ADD CONSTRAINT ... FOREIGN KEY
func (p *Parser) parseAlterTable(alterStmt *pg_query.AlterTableStmt) error {
	schemaName, tableName := p.extractTableName(alterStmt.Relation)
	table, exists := p.lookupTable(schemaName, tableName)
	if !exists {
		return fmt.Errorf("ALTER TABLE references unknown table %s", tableName)
	}

	for _, cmdNode := range alterStmt.Cmds {
		cmd := cmdNode.GetAlterTableCmd()
		if cmd == nil || cmd.Subtype != pg_query.AlterTableType_AT_AddConstraint || cmd.Def == nil {
			continue
		}
		if constraint := cmd.Def.GetConstraint(); constraint != nil {
			p.parseTableConstraint(table, constraint)
		}
	}
	return nil
}

// resolveImplicitReferences fills in referenced columns for REFERENCES
// clauses that name only a table, which target its primary key.
func (p *Parser) resolveImplicitReferences() {
	for _, table := range p.schema.Tables {
		for _, fk := range table.ForeignKeys {
			if len(fk.ReferencedColumns) > 0 {
				continue
			}
			refSchema := fk.ReferencedSchema
			if refSchema == "" {
				refSchema = table.Schema
			}
			if pk, ok := p.primaryKeys[tableKey(refSchema, fk.ReferencedTable)]; ok {
				fk.ReferencedColumns = append([]string(nil), pk...)
			}
		}
	}
}

// parseTypeName parses type information
func (p *Parser) parseTypeName(typeName *pg_query.TypeName) string {
	var parts []string
	for _, name := range p.extractNames(typeName.Names) {
		if name == "pg_catalog" {
			continue
		}
		parts = append(parts, name)
	}
	result := normalizePostgreSQLType(strings.Join(parts, "."))
	if len(typeName.ArrayBounds) > 0 {
		result += "[]"
	}
	return result
}

// mapReferentialAction maps a pg_query referential action code to a rule.
// NO ACTION is what PostgreSQL assumes when nothing is written, so it maps to unset.
func (p *Parser) mapReferentialAction(action string) *string {
	switch action {
	case "r": // FKCONSTR_ACTION_RESTRICT
		return String("RESTRICT")
	case "c": // FKCONSTR_ACTION_CASCADE
		return String("CASCADE")
	case "n": // FKCONSTR_ACTION_SETNULL
		return String("SET NULL")
	case "d": // FKCONSTR_ACTION_SETDEFAULT
		return String("SET DEFAULT")
	default:
		return nil
	}
}

// deparseExpr renders an expression node back to SQL text
func deparseExpr(expr *pg_query.Node) (string, error) {
	stmt := &pg_query.ParseResult{
		Stmts: []*pg_query.RawStmt{{
			Stmt: &pg_query.Node{Node: &pg_query.Node_SelectStmt{SelectStmt: &pg_query.SelectStmt{
				TargetList: []*pg_query.Node{{Node: &pg_query.Node_ResTarget{ResTarget: &pg_query.ResTarget{Val: expr}}}},
			}}},
		}},
	}
	deparsed, err := pg_query.Deparse(stmt)
	if err != nil {
		return "", err
	}
	return normalizeDefaultValue(strings.TrimPrefix(deparsed, "SELECT ")), nil
}

// lookupTable finds a parsed table; an unqualified name and public.name are the same table
func (p *Parser) lookupTable(schema, name string) (*Table, bool) {
	key := tableKey(schema, name)
	for _, t := range p.schema.Tables {
		if tableKey(t.Schema, t.Name) == key {
			return t, true
		}
	}
	return nil, false
}

// tableKey identifies a table within one parsed file; unqualified names live in public
func tableKey(schema, table string) string {
	if schema == "" {
		schema = defaultSchema
	}
	return schema + "." + table
}
