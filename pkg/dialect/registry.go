package dialect

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// DefaultName is the dialect used when none is configured.
const DefaultName = "ansi"

// Dialect registry
var (
	dialectsMu sync.RWMutex
	dialects   = make(map[string]*Dialect)
	aliases    = make(map[string]string)
)

// Get returns a dialect by name. Lookup is case-insensitive and
// resolves aliases ("postgresql" finds "postgres").
func Get(name string) (*Dialect, bool) {
	dialectsMu.RLock()
	defer dialectsMu.RUnlock()
	key := strings.ToLower(strings.TrimSpace(name))
	if canonical, ok := aliases[key]; ok {
		key = canonical
	}
	d, ok := dialects[key]
	return d, ok
}

// MustGet returns a dialect by name, panicking when it is not registered.
// Intended for builtin names whose registration is guaranteed by init.
func MustGet(name string) *Dialect {
	d, ok := Get(name)
	if !ok {
		panic(fmt.Sprintf("dialect: %q is not registered", name))
	}
	return d
}

// Default returns the ANSI dialect.
func Default() *Dialect {
	return MustGet(DefaultName)
}

// Register registers a dialect in the global registry.
func Register(d *Dialect) {
	dialectsMu.Lock()
	defer dialectsMu.Unlock()
	dialects[strings.ToLower(d.Name)] = d
}

// RegisterAlias maps an alternate name onto a canonical dialect name.
func RegisterAlias(alias, canonical string) {
	dialectsMu.Lock()
	defer dialectsMu.Unlock()
	aliases[strings.ToLower(alias)] = strings.ToLower(canonical)
}

// List returns all registered canonical dialect names (sorted).
func List() []string {
	dialectsMu.RLock()
	defer dialectsMu.RUnlock()
	names := make([]string, 0, len(dialects))
	for name := range dialects {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// AliasesFor returns the registered aliases of a canonical name (sorted).
func AliasesFor(canonical string) []string {
	dialectsMu.RLock()
	defer dialectsMu.RUnlock()
	canonical = strings.ToLower(canonical)
	var out []string
	for alias, target := range aliases {
		if target == canonical {
			out = append(out, alias)
		}
	}
	sort.Strings(out)
	return out
}
