package ir

import (
	"regexp"
	"strings"
)

var (
	nextvalQualifiedRe = regexp.MustCompile(`nextval\('([^.]+)\.([^']+)'::regclass\)`)
	literalCastRe      = regexp.MustCompile(`'([^']*)'::(?:[a-zA-Z_][\w\s.]*)(?:\[\])?`)
	pgCatalogCastRe    = regexp.MustCompile(`::pg_catalog\.(\w+)`)
)

// normalizeIR normalizes the IR representation from inspector to be compatible with parser
func normalizeIR(ir *IR) {
	if ir == nil {
		return
	}

	for _, table := range ir.Tables {
		normalizeTable(table)
	}
}

// normalizeTable normalizes table-related objects
func normalizeTable(table *Table) {
	if table == nil {
		return
	}

	for _, column := range table.Columns {
		normalizeColumn(column)
	}

	for _, fk := range table.ForeignKeys {
		normalizeForeignKey(fk)
	}
}

// normalizeColumn normalizes column types and default values
func normalizeColumn(column *Column) {
	if column == nil {
		return
	}

	column.DataType = normalizePostgreSQLType(column.DataType)

	if column.DefaultValue != nil {
		normalized := normalizeDefaultValue(*column.DefaultValue)
		column.DefaultValue = &normalized
	}
}

// normalizeForeignKey drops options that PostgreSQL reports even when they
// were never declared, so the reflected side looks like what was written.
func normalizeForeignKey(fk *ForeignKey) {
	if fk == nil {
		return
	}

	fk.Options.OnDelete = dropDefaultRule(fk.Options.OnDelete)
	fk.Options.OnUpdate = dropDefaultRule(fk.Options.OnUpdate)

	if fk.Options.Deferrable != nil && !*fk.Options.Deferrable {
		fk.Options.Deferrable = nil
	}
	if fk.Options.Initially != nil && strings.EqualFold(strings.TrimSpace(*fk.Options.Initially), "IMMEDIATE") {
		fk.Options.Initially = nil
	}
}

func dropDefaultRule(rule *string) *string {
	if rule == nil {
		return nil
	}
	if trimmed := strings.TrimSpace(*rule); trimmed == "" || strings.EqualFold(trimmed, "NO ACTION") {
		return nil
	}
	return rule
}

// normalizeDefaultValue normalizes default values for semantic comparison
func normalizeDefaultValue(value string) string {
	value = strings.TrimSpace(value)

	// nextval('schema_name.seq_name'::regclass) -> nextval('seq_name'::regclass)
	if strings.Contains(value, "nextval(") {
		return nextvalQualifiedRe.ReplaceAllString(value, "nextval('$2'::regclass)")
	}

	// 'literal'::type -> 'literal'
	if strings.Contains(value, "::") {
		value = literalCastRe.ReplaceAllString(value, "'$1'")
	}

	return value
}

// normalizePostgreSQLType normalizes PostgreSQL internal type names to standard SQL types.
func normalizePostgreSQLType(input string) string {
	if input == "" {
		return input
	}

	typeMap := map[string]string{
		"int2":                        "smallint",
		"int4":                        "integer",
		"int8":                        "bigint",
		"float4":                      "real",
		"float8":                      "double precision",
		"bool":                        "boolean",
		"bpchar":                      "character",
		"character varying":           "varchar",
		"timestamp with time zone":    "timestamptz",
		"timestamp without time zone": "timestamp",
		"time with time zone":         "timetz",
		"_text":                       "text[]",
		"_int4":                       "integer[]",
		"_int8":                       "bigint[]",
		"_varchar":                    "varchar[]",
		"_uuid":                       "uuid[]",
	}

	if strings.Contains(input, "::") {
		return pgCatalogCastRe.ReplaceAllString(input, "::$1")
	}

	typeName := strings.TrimPrefix(input, "pg_catalog.")
	if normalized, exists := typeMap[typeName]; exists {
		return normalized
	}
	return typeName
}
