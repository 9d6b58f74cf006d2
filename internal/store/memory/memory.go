// Package memory provides in-process repositories. They back the test suite
// and the DB_DRIVER=memory mode used for local runs without PostgreSQL.
package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/JonMunkholm/fieldnotes/internal/domain"
	"github.com/JonMunkholm/fieldnotes/internal/store"
)

// Store is a goroutine-safe repository holding entities in a slice.
type Store[T any] struct {
	mu     sync.RWMutex
	items  []T
	nextID int64
	assign func(item T, id int64, ownerID string) T

	// FailCreate, when non-nil, is returned by CreateMany without storing anything.
	FailCreate error
	creates    int
}

// New creates an empty store. assign stamps the generated id and owner onto
// a new item.
func New[T any](assign func(item T, id int64, ownerID string) T) *Store[T] {
	return &Store[T]{assign: assign, nextID: 1}
}

// Seed stores items as if they had been persisted earlier.
func (s *Store[T]) Seed(ownerID string, items ...T) []T {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]T, 0, len(items))
	for _, item := range items {
		item = s.assign(item, s.nextID, ownerID)
		s.nextID++
		s.items = append(s.items, item)
		out = append(out, item)
	}
	return out
}

// FindAll implements store.Repository.
func (s *Store[T]) FindAll(ctx context.Context) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]T, len(s.items))
	copy(out, s.items)
	return out, nil
}

// CreateMany implements store.Repository.
func (s *Store[T]) CreateMany(ctx context.Context, items []T, ownerID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.creates++
	if s.FailCreate != nil {
		return 0, s.FailCreate
	}
	for _, item := range items {
		s.items = append(s.items, s.assign(item, s.nextID, ownerID))
		s.nextID++
	}
	return len(items), nil
}

// CreateCalls reports how many times CreateMany was invoked.
func (s *Store[T]) CreateCalls() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.creates
}

// Len returns the number of stored items.
func (s *Store[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Settings is an in-memory store.SettingsReader.
type Settings struct {
	mu     sync.RWMutex
	coords map[string]domain.CoordinateSystem
}

// NewSettings creates an empty settings store.
func NewSettings() *Settings {
	return &Settings{coords: make(map[string]domain.CoordinateSystem)}
}

// SetCoordinateSystem sets the owner's default coordinate system.
func (s *Settings) SetCoordinateSystem(ownerID string, cs domain.CoordinateSystem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.coords[ownerID] = cs
}

// CoordinateSystem implements store.SettingsReader.
func (s *Settings) CoordinateSystem(ctx context.Context, ownerID string) (domain.CoordinateSystem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cs, ok := s.coords[ownerID]
	if !ok || cs == "" {
		return "", store.ErrNotConfigured
	}
	return cs, nil
}

// Stores gives typed access to every in-memory repository behind a
// store.Repositories bundle.
type Stores struct {
	Observers         *Store[domain.Labeled]
	Departments       *Store[domain.Department]
	Towns             *Store[domain.Town]
	Localities        *Store[domain.Locality]
	Weathers          *Store[domain.Labeled]
	SpeciesClasses    *Store[domain.Labeled]
	Species           *Store[domain.Species]
	Sexes             *Store[domain.Labeled]
	Ages              *Store[domain.Labeled]
	NumberEstimates   *Store[domain.NumberEstimate]
	DistanceEstimates *Store[domain.Labeled]
	Behaviors         *Store[domain.Behavior]
	Environments      *Store[domain.Environment]
	Entries           *Store[domain.Entry]
	Settings          *Settings
}

// ErrInjected is a convenience error for tests simulating storage failures.
var ErrInjected = errors.New("injected storage failure")

// NewStores creates empty stores for every kind.
func NewStores() *Stores {
	return &Stores{
		Observers:         New(assignLabeled),
		Departments:       New(func(d domain.Department, id int64, owner string) domain.Department { d.ID, d.OwnerID = id, owner; return d }),
		Towns:             New(func(t domain.Town, id int64, owner string) domain.Town { t.ID, t.OwnerID = id, owner; return t }),
		Localities:        New(func(l domain.Locality, id int64, owner string) domain.Locality { l.ID, l.OwnerID = id, owner; return l }),
		Weathers:          New(assignLabeled),
		SpeciesClasses:    New(assignLabeled),
		Species:           New(func(s domain.Species, id int64, owner string) domain.Species { s.ID, s.OwnerID = id, owner; return s }),
		Sexes:             New(assignLabeled),
		Ages:              New(assignLabeled),
		NumberEstimates:   New(func(n domain.NumberEstimate, id int64, owner string) domain.NumberEstimate { n.ID, n.OwnerID = id, owner; return n }),
		DistanceEstimates: New(assignLabeled),
		Behaviors:         New(func(b domain.Behavior, id int64, owner string) domain.Behavior { b.ID, b.OwnerID = id, owner; return b }),
		Environments:      New(func(e domain.Environment, id int64, owner string) domain.Environment { e.ID, e.OwnerID = id, owner; return e }),
		Entries:           New(func(e domain.Entry, id int64, owner string) domain.Entry { e.ID, e.OwnerID = id, owner; return e }),
		Settings:          NewSettings(),
	}
}

func assignLabeled(l domain.Labeled, id int64, owner string) domain.Labeled {
	l.ID, l.OwnerID = id, owner
	return l
}

// Repositories exposes the stores through the store.Repositories bundle.
func (s *Stores) Repositories() *store.Repositories {
	return &store.Repositories{
		Observers:         s.Observers,
		Departments:       s.Departments,
		Towns:             s.Towns,
		Localities:        s.Localities,
		Weathers:          s.Weathers,
		SpeciesClasses:    s.SpeciesClasses,
		Species:           s.Species,
		Sexes:             s.Sexes,
		Ages:              s.Ages,
		NumberEstimates:   s.NumberEstimates,
		DistanceEstimates: s.DistanceEstimates,
		Behaviors:         s.Behaviors,
		Environments:      s.Environments,
		Entries:           s.Entries,
		Settings:          s.Settings,
	}
}
