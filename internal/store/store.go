// Package store defines the persistence capability consumed by importers.
//
// Importers never see SQL. Each entity kind is backed by a [Repository]
// that can list what already exists and insert a batch of new entities.
// Implementations live in the postgres and memory subpackages.
package store

import (
	"context"
	"errors"

	"github.com/JonMunkholm/fieldnotes/internal/domain"
)

// ErrNotConfigured is returned by a SettingsReader when the owner has no
// value for the requested setting.
var ErrNotConfigured = errors.New("setting not configured")

// Repository is the persistence capability for one entity kind.
type Repository[T any] interface {
	// FindAll returns every persisted entity of the kind.
	FindAll(ctx context.Context) ([]T, error)

	// CreateMany inserts all items in a single batch on behalf of owner and
	// returns the number persisted. Either every item is stored or none is.
	CreateMany(ctx context.Context, items []T, ownerID string) (int, error)
}

// SettingsReader exposes per-user settings needed by importers.
type SettingsReader interface {
	// CoordinateSystem returns the owner's default coordinate system, or
	// ErrNotConfigured.
	CoordinateSystem(ctx context.Context, ownerID string) (domain.CoordinateSystem, error)
}

// Repositories bundles one repository per entity kind.
type Repositories struct {
	Observers         Repository[domain.Labeled]
	Departments       Repository[domain.Department]
	Towns             Repository[domain.Town]
	Localities        Repository[domain.Locality]
	Weathers          Repository[domain.Labeled]
	SpeciesClasses    Repository[domain.Labeled]
	Species           Repository[domain.Species]
	Sexes             Repository[domain.Labeled]
	Ages              Repository[domain.Labeled]
	NumberEstimates   Repository[domain.NumberEstimate]
	DistanceEstimates Repository[domain.Labeled]
	Behaviors         Repository[domain.Behavior]
	Environments      Repository[domain.Environment]
	Entries           Repository[domain.Entry]

	Settings SettingsReader
}

// Labeled returns the repository for a kind stored as domain.Labeled.
// ok is false for kinds with richer entity types.
func (r *Repositories) Labeled(kind domain.EntityKind) (Repository[domain.Labeled], bool) {
	switch kind {
	case domain.KindObserver:
		return r.Observers, true
	case domain.KindWeather:
		return r.Weathers, true
	case domain.KindSpeciesClass:
		return r.SpeciesClasses, true
	case domain.KindSex:
		return r.Sexes, true
	case domain.KindAge:
		return r.Ages, true
	case domain.KindDistanceEstimate:
		return r.DistanceEstimates, true
	}
	return nil, false
}
