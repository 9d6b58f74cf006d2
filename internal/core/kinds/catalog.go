// Package kinds registers one importer per entity kind with the core
// registry. Import this package for its side effects.
//
// Every importer is a catalog: it loads what already exists, parses each row
// into an entity, rejects rows whose unique keys collide with a known entity,
// and buffers the rest for a single batch insert. Kinds differ only in how a
// row is parsed, which references it needs, and how its keys are scoped.
package kinds

import (
	"context"
	"fmt"
	"strconv"

	"github.com/JonMunkholm/fieldnotes/internal/core"
	"github.com/JonMunkholm/fieldnotes/internal/domain"
	"github.com/JonMunkholm/fieldnotes/internal/store"
)

// uniqueKey is one value that must be unique among entities of a kind.
// Scope narrows uniqueness, e.g. a town name is unique within its department.
type uniqueKey struct {
	Field string
	Value string
	Scope string // opaque scope id, empty for global keys
	Where string // human description of the scope for error messages
	Shown string // replaces the quoted value in error messages when set
}

// catalog is the importer shared by every kind.
type catalog[T any] struct {
	columns int
	repo    store.Repository[T]

	// load fetches reference data before existing entities are indexed.
	load func(ctx context.Context, owner domain.User) error
	// parse builds an entity from a row, running structural and
	// referential checks.
	parse func(row core.Row) (T, error)
	// keys lists the unique keys of an entity.
	keys func(item T) []uniqueKey

	known   map[string]core.KeySet
	pending []T
}

func (c *catalog[T]) ExpectedColumnCount() int { return c.columns }

func (c *catalog[T]) Initialize(ctx context.Context, owner domain.User) error {
	if c.load != nil {
		if err := c.load(ctx, owner); err != nil {
			return err
		}
	}

	existing, err := c.repo.FindAll(ctx)
	if err != nil {
		return fmt.Errorf("load existing entities: %w", err)
	}
	c.known = make(map[string]core.KeySet)
	for _, item := range existing {
		c.remember(item)
	}
	return nil
}

func (c *catalog[T]) ValidateAndPrepare(row core.Row) error {
	item, err := c.parse(row)
	if err != nil {
		return err
	}

	for _, k := range c.keys(item) {
		if !c.known[k.Field].Has(k.Scope + "\x00" + k.Value) {
			continue
		}
		shown := strconv.Quote(k.Value)
		if k.Shown != "" {
			shown = k.Shown
		}
		if k.Where != "" {
			return core.Invalid(k.Field, k.Value, "%s already exists in %s", shown, k.Where)
		}
		return core.Invalid(k.Field, k.Value, "%s already exists", shown)
	}

	c.remember(item)
	c.pending = append(c.pending, item)
	return nil
}

func (c *catalog[T]) remember(item T) {
	for _, k := range c.keys(item) {
		set, ok := c.known[k.Field]
		if !ok {
			set = make(core.KeySet)
			c.known[k.Field] = set
		}
		set.Add(k.Scope + "\x00" + k.Value)
	}
}

func (c *catalog[T]) PersistAll(ctx context.Context, owner domain.User) (int, error) {
	if len(c.pending) == 0 {
		return 0, nil
	}
	n, err := c.repo.CreateMany(ctx, c.pending, owner.ID)
	if err != nil {
		return 0, fmt.Errorf("insert %d entities: %w", len(c.pending), err)
	}
	return n, nil
}

// global is a unique key without scope.
func global(field, value string) uniqueKey {
	return uniqueKey{Field: field, Value: value}
}

// scoped is a unique key within the entity identified by scopeID.
func scoped(field, value string, scopeID int64, where string) uniqueKey {
	return uniqueKey{Field: field, Value: value, Scope: fmt.Sprint(scopeID), Where: where}
}
