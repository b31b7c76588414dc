package ir

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/lib/pq"
	"golang.org/x/sync/errgroup"
)

const (
	tablesQuery = `
SELECT c.relname
FROM pg_class c
JOIN pg_namespace n ON n.oid = c.relnamespace
WHERE n.nspname = $1
  AND c.relkind IN ('r', 'p')
ORDER BY c.relname`

	columnsQuery = `
SELECT c.relname,
       a.attname,
       a.attnum,
       format_type(a.atttypid, a.atttypmod),
       NOT a.attnotnull,
       pg_get_expr(d.adbin, d.adrelid)
FROM pg_attribute a
JOIN pg_class c ON c.oid = a.attrelid
JOIN pg_namespace n ON n.oid = c.relnamespace
LEFT JOIN pg_attrdef d ON d.adrelid = a.attrelid AND d.adnum = a.attnum
WHERE n.nspname = $1
  AND c.relkind IN ('r', 'p')
  AND a.attnum > 0
  AND NOT a.attisdropped
ORDER BY c.relname, a.attnum`

	foreignKeysQuery = `
SELECT cl.relname,
       con.conname,
       fns.nspname,
       fcl.relname,
       ARRAY(
           SELECT att.attname
           FROM unnest(con.conkey) WITH ORDINALITY AS k(attnum, ord)
           JOIN pg_attribute att ON att.attrelid = con.conrelid AND att.attnum = k.attnum
           ORDER BY k.ord
       )::text[],
       ARRAY(
           SELECT att.attname
           FROM unnest(con.confkey) WITH ORDINALITY AS k(attnum, ord)
           JOIN pg_attribute att ON att.attrelid = con.confrelid AND att.attnum = k.attnum
           ORDER BY k.ord
       )::text[],
       con.confdeltype::text,
       con.confupdtype::text,
       con.condeferrable,
       con.condeferred
FROM pg_constraint con
JOIN pg_class cl ON cl.oid = con.conrelid
JOIN pg_namespace ns ON ns.oid = cl.relnamespace
JOIN pg_class fcl ON fcl.oid = con.confrelid
JOIN pg_namespace fns ON fns.oid = fcl.relnamespace
WHERE con.contype = 'f'
  AND ns.nspname = $1
ORDER BY cl.relname, con.conname`
)

// Inspector builds IR from a live PostgreSQL database
type Inspector struct {
	db *sql.DB
}

// NewInspector creates a new schema inspector
func NewInspector(db *sql.DB) *Inspector {
	return &Inspector{db: db}
}

type reflectedColumn struct {
	table  string
	column *Column
}

type reflectedForeignKey struct {
	table string
	fk    *ForeignKey
}

// BuildIR reflects the tables, columns and foreign keys of one schema
func (i *Inspector) BuildIR(ctx context.Context, targetSchema string) (*IR, error) {
	schema := NewIR("inspector")

	if err := i.buildMetadata(ctx, schema); err != nil {
		return nil, fmt.Errorf("failed to build metadata: %w", err)
	}

	if err := i.buildTables(ctx, schema, targetSchema); err != nil {
		return nil, fmt.Errorf("failed to build tables: %w", err)
	}

	var columns []reflectedColumn
	var foreignKeys []reflectedForeignKey

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		columns, err = i.queryColumns(egCtx, targetSchema)
		if err != nil {
			return fmt.Errorf("failed to build columns: %w", err)
		}
		return nil
	})
	eg.Go(func() error {
		var err error
		foreignKeys, err = i.queryForeignKeys(egCtx, targetSchema)
		if err != nil {
			return fmt.Errorf("failed to build foreign keys: %w", err)
		}
		return nil
	})
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	for _, rc := range columns {
		if table, ok := schema.GetTable(targetSchema, rc.table); ok {
			table.Columns = append(table.Columns, rc.column)
		}
	}
	for _, rf := range foreignKeys {
		if table, ok := schema.GetTable(targetSchema, rf.table); ok {
			table.ForeignKeys = append(table.ForeignKeys, rf.fk)
		}
	}

	normalizeIR(schema)

	return schema, nil
}

func (i *Inspector) buildMetadata(ctx context.Context, schema *IR) error {
	var version string
	if err := i.db.QueryRowContext(ctx, "SELECT version()").Scan(&version); err != nil {
		return err
	}
	schema.Metadata.DatabaseVersion = version
	return nil
}

func (i *Inspector) buildTables(ctx context.Context, schema *IR, targetSchema string) error {
	rows, err := i.db.QueryContext(ctx, tablesQuery, targetSchema)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return err
		}
		schema.GetOrCreateTable(targetSchema, name)
	}
	return rows.Err()
}

func (i *Inspector) queryColumns(ctx context.Context, targetSchema string) ([]reflectedColumn, error) {
	rows, err := i.db.QueryContext(ctx, columnsQuery, targetSchema)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []reflectedColumn
	for rows.Next() {
		var (
			tableName  string
			col        Column
			defaultVal sql.NullString
		)
		if err := rows.Scan(&tableName, &col.Name, &col.Position, &col.DataType, &col.IsNullable, &defaultVal); err != nil {
			return nil, err
		}
		if defaultVal.Valid {
			col.DefaultValue = String(defaultVal.String)
		}
		result = append(result, reflectedColumn{table: tableName, column: &col})
	}
	return result, rows.Err()
}

func (i *Inspector) queryForeignKeys(ctx context.Context, targetSchema string) ([]reflectedForeignKey, error) {
	rows, err := i.db.QueryContext(ctx, foreignKeysQuery, targetSchema)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []reflectedForeignKey
	for rows.Next() {
		var (
			tableName    string
			fk           ForeignKey
			deleteAction string
			updateAction string
			deferrable   bool
			deferred     bool
		)
		if err := rows.Scan(
			&tableName,
			&fk.Name,
			&fk.ReferencedSchema,
			&fk.ReferencedTable,
			pq.Array(&fk.Columns),
			pq.Array(&fk.ReferencedColumns),
			&deleteAction,
			&updateAction,
			&deferrable,
			&deferred,
		); err != nil {
			return nil, err
		}

		fk.NameGenerated = IsDefaultForeignKeyName(fk.Name, tableName, fk.Columns)
		fk.Options = Options{
			OnDelete:   referentialActionFromCode(deleteAction),
			OnUpdate:   referentialActionFromCode(updateAction),
			Deferrable: Bool(deferrable),
		}
		if deferred {
			fk.Options.Initially = String("DEFERRED")
		} else {
			fk.Options.Initially = String("IMMEDIATE")
		}

		result = append(result, reflectedForeignKey{table: tableName, fk: &fk})
	}
	return result, rows.Err()
}

// referentialActionFromCode maps pg_constraint.confdeltype/confupdtype codes
func referentialActionFromCode(code string) *string {
	switch code {
	case "a":
		return String("NO ACTION")
	case "r":
		return String("RESTRICT")
	case "c":
		return String("CASCADE")
	case "n":
		return String("SET NULL")
	case "d":
		return String("SET DEFAULT")
	}
	return nil
}

// maxIdentifierLength is PostgreSQL's NAMEDATALEN - 1
const maxIdentifierLength = 63

// DefaultForeignKeyName returns the name PostgreSQL assigns to an unnamed
// foreign key: <table>_<col>[_<col>...]_fkey, shortened the way the server
// shortens it when longer than 63 bytes.
func DefaultForeignKeyName(table string, columns []string) string {
	return makeObjectName(table, columnNameAddition(columns), "fkey")
}

// IsDefaultForeignKeyName reports whether name looks server generated for the
// given table and columns, including the numeric suffix added on collisions.
func IsDefaultForeignKeyName(name, table string, columns []string) bool {
	addition := columnNameAddition(columns)
	if name == makeObjectName(table, addition, "fkey") {
		return true
	}
	// Collisions retry with fkey1, fkey2, ... as the label, which can
	// shorten the other parts further.
	digits := len(name) - len(strings.TrimRight(name, "0123456789"))
	if digits == 0 {
		return false
	}
	if _, err := strconv.Atoi(name[len(name)-digits:]); err != nil {
		return false
	}
	return name == makeObjectName(table, addition, "fkey"+name[len(name)-digits:])
}

// columnNameAddition joins the column names with underscores, stopping once
// the result reaches NAMEDATALEN bytes.
func columnNameAddition(columns []string) string {
	var b strings.Builder
	for i, col := range columns {
		if i > 0 {
			b.WriteByte('_')
		}
		b.WriteString(col)
		if b.Len() > maxIdentifierLength {
			break
		}
	}
	return b.String()
}

// makeObjectName builds name1_name2_label within maxIdentifierLength bytes.
// The longer of name1 and name2 loses a byte at a time, name2 on ties, and
// cuts never split a UTF-8 character.
func makeObjectName(name1, name2, label string) string {
	available := maxIdentifierLength - len(label) - 1
	if name2 != "" {
		available--
	}
	n1, n2 := len(name1), len(name2)
	for n1+n2 > available {
		if n1 > n2 {
			n1--
		} else {
			n2--
		}
	}

	name := clipUTF8(name1, n1)
	if name2 != "" {
		name += "_" + clipUTF8(name2, n2)
	}
	return name + "_" + label
}

func clipUTF8(s string, n int) string {
	for n > 0 && n < len(s) && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
