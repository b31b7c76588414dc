package ir

import (
	"strings"
	"unicode"
)

// reservedWords are PostgreSQL reserved keywords that must be quoted when used
// as identifiers.
var reservedWords = func() map[string]bool {
	words := strings.Fields(`
		all and any array as asymmetric authorization between bigint binary boolean both
		by case cast char character check collate collation column constraint create cross
		current_catalog current_date current_role current_schema current_time current_timestamp
		current_user default deferrable delete distinct do else end except exists false fetch
		filter for foreign freeze from grant group having ilike in initially inner insert
		intersect into is isnull join lateral left like limit natural not null of offset on
		only or order outer primary references returning right select similar some symmetric
		system_user table tablesample then to trailing true union unique update user using
		variadic verbose when where window with within`)
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}()

// NeedsQuoting checks if an identifier needs to be quoted
func NeedsQuoting(identifier string) bool {
	if identifier == "" {
		return false
	}

	if reservedWords[strings.ToLower(identifier)] {
		return true
	}

	for i, r := range identifier {
		// PostgreSQL folds unquoted identifiers to lowercase
		if unicode.IsUpper(r) {
			return true
		}
		if i == 0 && !unicode.IsLetter(r) && r != '_' {
			return true
		}
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			return true
		}
	}

	return false
}

// QuoteIdentifier adds quotes to an identifier if needed
func QuoteIdentifier(identifier string) string {
	if NeedsQuoting(identifier) {
		return `"` + strings.ReplaceAll(identifier, `"`, `""`) + `"`
	}
	return identifier
}

// QuoteIdentifiers quotes each identifier and joins them with ", "
func QuoteIdentifiers(identifiers []string) string {
	quoted := make([]string, len(identifiers))
	for i, id := range identifiers {
		quoted[i] = QuoteIdentifier(id)
	}
	return strings.Join(quoted, ", ")
}

// QualifyEntityNameWithQuotes returns the properly qualified and quoted entity name.
// The schema is omitted when it is empty or equal to targetSchema.
func QualifyEntityNameWithQuotes(entitySchema, entityName, targetSchema string) string {
	quotedName := QuoteIdentifier(entityName)

	if entitySchema == "" || entitySchema == targetSchema {
		return quotedName
	}

	return QuoteIdentifier(entitySchema) + "." + quotedName
}
