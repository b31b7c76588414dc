package ignore

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

const (
	// IgnoreFileName is the default name of the ignore file
	IgnoreFileName = ".fkdiffignore"
)

// LoadIgnoreFile loads the .fkdiffignore file from the current directory
// Returns nil if the file doesn't exist (ignore functionality is optional)
func LoadIgnoreFile() (*IgnoreConfig, error) {
	return LoadIgnoreFileFromPath(IgnoreFileName)
}

// TomlConfig represents the TOML structure of the .fkdiffignore file
type TomlConfig struct {
	Tables      PatternConfig    `toml:"tables,omitempty"`
	Columns     PatternConfig    `toml:"columns,omitempty"`
	ForeignKeys ForeignKeyConfig `toml:"foreign_keys,omitempty"`
}

// PatternConfig represents a section holding a list of patterns
type PatternConfig struct {
	Patterns []string `toml:"patterns,omitempty"`
}

// ForeignKeyConfig represents foreign key ignore configuration. Reflected and
// Metadata patterns only apply to the live database or the desired schema.
type ForeignKeyConfig struct {
	Patterns  []string `toml:"patterns,omitempty"`
	Reflected []string `toml:"reflected,omitempty"`
	Metadata  []string `toml:"metadata,omitempty"`
}

// LoadIgnoreFileFromPath loads an ignore file from the specified path
// Returns nil if the file doesn't exist (ignore functionality is optional)
func LoadIgnoreFileFromPath(filePath string) (*IgnoreConfig, error) {
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return nil, nil
	} else if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	config, err := ParseIgnoreConfig(string(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filePath, err)
	}
	return config, nil
}

// ParseIgnoreConfig parses ignore configuration from TOML text. Unknown keys
// are rejected so a misspelled section does not silently ignore nothing.
func ParseIgnoreConfig(data string) (*IgnoreConfig, error) {
	var tomlConfig TomlConfig
	meta, err := toml.Decode(data, &tomlConfig)
	if err != nil {
		return nil, err
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown key %q", undecoded[0].String())
	}
	return tomlConfig.toIgnoreConfig(), nil
}

func (t TomlConfig) toIgnoreConfig() *IgnoreConfig {
	return &IgnoreConfig{
		Tables:               t.Tables.Patterns,
		Columns:              t.Columns.Patterns,
		ForeignKeys:          t.ForeignKeys.Patterns,
		ReflectedForeignKeys: t.ForeignKeys.Reflected,
		MetadataForeignKeys:  t.ForeignKeys.Metadata,
	}
}
