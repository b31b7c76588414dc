package diff

import (
	"fmt"
	"sort"
	"strings"
)

// Capability names a backend feature the comparator needs before it can trust
// a reflected value.
type Capability string

const (
	// ReflectsFKOptions means the backend reports ON DELETE / ON UPDATE rules
	ReflectsFKOptions Capability = "reflects_fk_options"
	// FKOnUpdate means the backend supports and reports ON UPDATE rules
	FKOnUpdate Capability = "fk_onupdate"
	// FKDeferrable means the backend reports DEFERRABLE
	FKDeferrable Capability = "fk_deferrable"
	// FKInitially means the backend reports INITIALLY DEFERRED / IMMEDIATE
	FKInitially Capability = "fk_initially"
	// ReflectsFKRestrict means RESTRICT is reported as such instead of being omitted
	ReflectsFKRestrict Capability = "reflects_fk_restrict"
	// FKNames means the backend reports constraint names
	FKNames Capability = "fk_names"
	// NoNameNormalize means identifiers are compared exactly, without case folding
	NoNameNormalize Capability = "no_name_normalize"
)

// AllCapabilities lists every known capability
var AllCapabilities = []Capability{
	ReflectsFKOptions,
	FKOnUpdate,
	FKDeferrable,
	FKInitially,
	ReflectsFKRestrict,
	FKNames,
	NoNameNormalize,
}

// Gate is the set of capabilities enabled for one comparison. A capability
// missing from the map is disabled.
type Gate map[Capability]bool

// Enabled reports whether c is enabled
func (g Gate) Enabled(c Capability) bool {
	return g[c]
}

// With returns a copy of the gate with the given capabilities enabled
func (g Gate) With(caps ...Capability) Gate {
	out := g.clone()
	for _, c := range caps {
		out[c] = true
	}
	return out
}

// Without returns a copy of the gate with the given capabilities disabled
func (g Gate) Without(caps ...Capability) Gate {
	out := g.clone()
	for _, c := range caps {
		delete(out, c)
	}
	return out
}

// Names returns the enabled capabilities in sorted order
func (g Gate) Names() []string {
	var names []string
	for c, on := range g {
		if on {
			names = append(names, string(c))
		}
	}
	sort.Strings(names)
	return names
}

func (g Gate) clone() Gate {
	out := make(Gate, len(g))
	for c, on := range g {
		if on {
			out[c] = true
		}
	}
	return out
}

// ParseCapability validates a capability name
func ParseCapability(name string) (Capability, error) {
	normalized := Capability(strings.ToLower(strings.TrimSpace(name)))
	for _, c := range AllCapabilities {
		if c == normalized {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown capability %q", name)
}

// profiles describe what each backend can report about foreign keys
var profiles = map[string]Gate{
	"postgresql": {
		ReflectsFKOptions:  true,
		FKOnUpdate:         true,
		FKDeferrable:       true,
		FKInitially:        true,
		ReflectsFKRestrict: true,
		FKNames:            true,
		NoNameNormalize:    true,
	},
	"mysql": {
		ReflectsFKOptions: true,
		FKOnUpdate:        true,
		FKNames:           true,
	},
	"sqlite": {
		ReflectsFKOptions:  true,
		FKOnUpdate:         true,
		ReflectsFKRestrict: true,
	},
	"mssql": {
		ReflectsFKOptions: true,
		FKOnUpdate:        true,
		FKNames:           true,
	},
	"oracle": {
		ReflectsFKOptions: true,
		FKDeferrable:      true,
		FKInitially:       true,
		FKNames:           true,
	},
}

var profileAliases = map[string]string{
	"postgres":  "postgresql",
	"pg":        "postgresql",
	"mariadb":   "mysql",
	"sqlite3":   "sqlite",
	"sqlserver": "mssql",
}

// Profile returns the capability gate of a named backend
func Profile(backend string) (Gate, error) {
	name := strings.ToLower(strings.TrimSpace(backend))
	if alias, ok := profileAliases[name]; ok {
		name = alias
	}
	gate, ok := profiles[name]
	if !ok {
		return nil, fmt.Errorf("unknown backend %q", backend)
	}
	return gate.clone(), nil
}

// Backends returns the names of all known backend profiles
func Backends() []string {
	names := make([]string, 0, len(profiles))
	for name := range profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
