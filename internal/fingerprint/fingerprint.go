// Package fingerprint hashes the foreign key state of a snapshot so a plan can
// detect that the live schema changed between planning and use.
package fingerprint

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/pgschema/fkdiff/ir"
)

// SchemaFingerprint represents a fingerprint of the foreign keys of one schema
type SchemaFingerprint struct {
	Hash string `json:"hash"` // SHA256 of the canonical foreign key state
}

type canonicalForeignKey struct {
	Table             string     `json:"table"`
	Name              string     `json:"name"`
	Columns           []string   `json:"columns"`
	ReferencedSchema  string     `json:"referenced_schema"`
	ReferencedTable   string     `json:"referenced_table"`
	ReferencedColumns []string   `json:"referenced_columns"`
	Options           ir.Options `json:"options"`
}

// ComputeFingerprint hashes the foreign keys of the tables in schemaName.
// Tables with an empty schema count as schemaName. Metadata and declaration
// order do not affect the result.
func ComputeFingerprint(schemaIR *ir.IR, schemaName string) (*SchemaFingerprint, error) {
	var fks []canonicalForeignKey
	for _, table := range schemaIR.Tables {
		tableSchema := table.Schema
		if tableSchema == "" {
			tableSchema = schemaName
		}
		if tableSchema != schemaName {
			continue
		}
		for _, fk := range table.ForeignKeys {
			refSchema := fk.ReferencedSchema
			if refSchema == "" {
				refSchema = schemaName
			}
			fks = append(fks, canonicalForeignKey{
				Table:             table.Name,
				Name:              fk.Name,
				Columns:           resolveColumns(table, fk.Columns),
				ReferencedSchema:  refSchema,
				ReferencedTable:   fk.ReferencedTable,
				ReferencedColumns: fk.ReferencedColumns,
				Options:           fk.Options,
			})
		}
	}

	sort.SliceStable(fks, func(i, j int) bool {
		if fks[i].Table != fks[j].Table {
			return fks[i].Table < fks[j].Table
		}
		if fks[i].Name != fks[j].Name {
			return fks[i].Name < fks[j].Name
		}
		return strings.Join(fks[i].Columns, ",") < strings.Join(fks[j].Columns, ",")
	})

	hash, err := hashObject(fks)
	if err != nil {
		return nil, fmt.Errorf("failed to compute schema hash: %w", err)
	}

	return &SchemaFingerprint{
		Hash: hash,
	}, nil
}

func resolveColumns(table *ir.Table, refs []string) []string {
	out := make([]string, len(refs))
	for i, ref := range refs {
		out[i] = table.StorageName(ref)
	}
	return out
}

// hashObject computes a SHA256 hash of any object
func hashObject(obj any) (string, error) {
	data, err := json.Marshal(obj)
	if err != nil {
		return "", err
	}

	hash := sha256.Sum256(data)
	return fmt.Sprintf("%x", hash), nil
}

// String returns a human-readable representation of the fingerprint
func (f *SchemaFingerprint) String() string {
	if len(f.Hash) >= 8 {
		return fmt.Sprintf("Schema fingerprint: %s", f.Hash[:8])
	}
	return fmt.Sprintf("Schema fingerprint: %s", f.Hash)
}

// Compare returns an error if the fingerprints differ
func Compare(expected, actual *SchemaFingerprint) error {
	if expected.Hash == actual.Hash {
		return nil
	}
	return fmt.Errorf("schema fingerprint mismatch - expected: %s, actual: %s",
		preview(expected.Hash), preview(actual.Hash))
}

func preview(hash string) string {
	if len(hash) > 16 {
		return hash[:16]
	}
	return hash
}
