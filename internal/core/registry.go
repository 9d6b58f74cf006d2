package core

import (
	"fmt"
	"slices"
	"sync"

	"github.com/JonMunkholm/fieldnotes/internal/domain"
	"github.com/JonMunkholm/fieldnotes/internal/store"
)

// Deps are the collaborators handed to an importer factory.
type Deps struct {
	Repos *store.Repositories
}

// Definition describes one importable entity kind.
type Definition struct {
	Kind    domain.EntityKind
	Label   string   // Display name: "Towns"
	Columns []string // Column headers in file order
	New     func(Deps) Importer
}

var (
	definitions   = make(map[domain.EntityKind]Definition)
	definitionsMu sync.RWMutex
)

// Register adds an importer definition.
// Panics if the kind is already registered or the definition is incomplete.
func Register(def Definition) {
	definitionsMu.Lock()
	defer definitionsMu.Unlock()

	if def.New == nil {
		panic(fmt.Sprintf("importer %s has no factory", def.Kind))
	}
	if _, exists := definitions[def.Kind]; exists {
		panic(fmt.Sprintf("importer already registered: %s", def.Kind))
	}
	definitions[def.Kind] = def
}

// Get returns the definition for kind.
func Get(kind domain.EntityKind) (Definition, bool) {
	definitionsMu.RLock()
	defer definitionsMu.RUnlock()

	def, ok := definitions[kind]
	return def, ok
}

// All returns every registered definition in import dependency order.
func All() []Definition {
	definitionsMu.RLock()
	defer definitionsMu.RUnlock()

	result := make([]Definition, 0, len(definitions))
	for _, def := range definitions {
		result = append(result, def)
	}
	slices.SortFunc(result, func(a, b Definition) int {
		return slices.Index(domain.Kinds, a.Kind) - slices.Index(domain.Kinds, b.Kind)
	})
	return result
}

// Clear removes all registered definitions.
// Primarily useful for testing.
func Clear() {
	definitionsMu.Lock()
	defer definitionsMu.Unlock()
	definitions = make(map[domain.EntityKind]Definition)
}
