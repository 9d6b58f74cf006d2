// Package postgres implements the store capability on PostgreSQL with pgx.
//
// Batch inserts use the COPY protocol inside a single transaction, so a
// failed import leaves no partial rows behind.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/JonMunkholm/fieldnotes/internal/domain"
	"github.com/JonMunkholm/fieldnotes/internal/store"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DBTX is the subset of *pgxpool.Pool used by the repositories.
type DBTX interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
	QueryRow(context.Context, string, ...any) pgx.Row
	Begin(context.Context) (pgx.Tx, error)
}

// PoolConfig holds connection pool settings.
type PoolConfig struct {
	URL             string
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// Connect opens a pgx pool and verifies it with a ping.
func Connect(ctx context.Context, cfg PoolConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = int32(cfg.MaxConns)
	}
	if cfg.MinConns > 0 {
		poolConfig.MinConns = int32(cfg.MinConns)
	}
	if cfg.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// table is a generic repository over one table whose columns map onto the
// db tags of T.
type table[T any] struct {
	db      DBTX
	name    string
	columns []string // insert columns, owner_id last
	values  func(item T, ownerID string) []any
}

func (t *table[T]) FindAll(ctx context.Context) ([]T, error) {
	query := fmt.Sprintf("SELECT id, %s FROM %s ORDER BY id",
		strings.Join(t.columns, ", "), pgx.Identifier{t.name}.Sanitize())

	rows, err := t.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", t.name, err)
	}
	items, err := pgx.CollectRows(rows, pgx.RowToStructByNameLax[T])
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", t.name, err)
	}
	return items, nil
}

func (t *table[T]) CreateMany(ctx context.Context, items []T, ownerID string) (int, error) {
	if len(items) == 0 {
		return 0, nil
	}

	var copied int64
	err := pgx.BeginFunc(ctx, t.db, func(tx pgx.Tx) error {
		n, err := tx.CopyFrom(ctx,
			pgx.Identifier{t.name},
			t.columns,
			pgx.CopyFromSlice(len(items), func(i int) ([]any, error) {
				return t.values(items[i], ownerID), nil
			}),
		)
		copied = n
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("copy into %s: %w", t.name, err)
	}
	return int(copied), nil
}

func labeledTable(db DBTX, name string) *table[domain.Labeled] {
	return &table[domain.Labeled]{
		db:      db,
		name:    name,
		columns: []string{"label", "owner_id"},
		values: func(l domain.Labeled, owner string) []any {
			return []any{l.Label, owner}
		},
	}
}

// NewRepositories builds the repository bundle over db.
func NewRepositories(db DBTX) *store.Repositories {
	return &store.Repositories{
		Observers: labeledTable(db, "observers"),
		Departments: &table[domain.Department]{
			db: db, name: "departments",
			columns: []string{"code", "owner_id"},
			values: func(d domain.Department, owner string) []any {
				return []any{d.Code, owner}
			},
		},
		Towns: &table[domain.Town]{
			db: db, name: "towns",
			columns: []string{"department_id", "code", "name", "owner_id"},
			values: func(t domain.Town, owner string) []any {
				return []any{t.DepartmentID, t.Code, t.Name, owner}
			},
		},
		Localities: &table[domain.Locality]{
			db: db, name: "localities",
			columns: []string{"town_id", "name", "altitude", "longitude", "latitude", "coordinate_system", "owner_id"},
			values: func(l domain.Locality, owner string) []any {
				return []any{l.TownID, l.Name, l.Altitude, l.Longitude, l.Latitude, string(l.CoordinateSystem), owner}
			},
		},
		Weathers:       labeledTable(db, "weathers"),
		SpeciesClasses: labeledTable(db, "species_classes"),
		Species: &table[domain.Species]{
			db: db, name: "species",
			columns: []string{"class_id", "code", "common_name", "scientific_name", "owner_id"},
			values: func(s domain.Species, owner string) []any {
				return []any{s.ClassID, s.Code, s.CommonName, s.ScientificName, owner}
			},
		},
		Sexes: labeledTable(db, "sexes"),
		Ages:  labeledTable(db, "ages"),
		NumberEstimates: &table[domain.NumberEstimate]{
			db: db, name: "number_estimates",
			columns: []string{"label", "uncounted", "owner_id"},
			values: func(n domain.NumberEstimate, owner string) []any {
				return []any{n.Label, n.Uncounted, owner}
			},
		},
		DistanceEstimates: labeledTable(db, "distance_estimates"),
		Behaviors: &table[domain.Behavior]{
			db: db, name: "behaviors",
			columns: []string{"code", "label", "breeding", "owner_id"},
			values: func(b domain.Behavior, owner string) []any {
				return []any{b.Code, b.Label, string(b.Breeding), owner}
			},
		},
		Environments: &table[domain.Environment]{
			db: db, name: "environments",
			columns: []string{"code", "label", "owner_id"},
			values: func(e domain.Environment, owner string) []any {
				return []any{e.Code, e.Label, owner}
			},
		},
		Entries: &table[domain.Entry]{
			db: db, name: "entries",
			columns: []string{
				"observer_id", "associate_ids", "observed_on", "observed_at", "duration",
				"locality_id", "altitude", "longitude", "latitude", "coordinate_system",
				"temperature", "weather_ids", "species_id", "sex_id", "age_id",
				"number_estimate_id", "number", "distance_estimate_id", "distance",
				"behavior_ids", "environment_ids", "comment", "owner_id",
			},
			values: func(e domain.Entry, owner string) []any {
				return []any{
					e.ObserverID, nonNil(e.AssociateIDs), e.Date, e.Time, e.Duration,
					e.LocalityID, e.Altitude, e.Longitude, e.Latitude, string(e.CoordinateSystem),
					e.Temperature, nonNil(e.WeatherIDs), e.SpeciesID, e.SexID, e.AgeID,
					e.NumberEstimateID, e.Number, e.DistanceEstimateID, e.Distance,
					nonNil(e.BehaviorIDs), nonNil(e.EnvironmentIDs), e.Comment, owner,
				}
			},
		},
		Settings: &Settings{db: db},
	}
}

// nonNil keeps array columns NOT NULL.
func nonNil(ids []int64) []int64 {
	if ids == nil {
		return []int64{}
	}
	return ids
}

// Settings reads per-user settings.
type Settings struct {
	db DBTX
}

// CoordinateSystem implements store.SettingsReader.
func (s *Settings) CoordinateSystem(ctx context.Context, ownerID string) (domain.CoordinateSystem, error) {
	var cs *string
	err := s.db.QueryRow(ctx,
		"SELECT coordinate_system FROM user_settings WHERE user_id = $1", ownerID,
	).Scan(&cs)
	if errors.Is(err, pgx.ErrNoRows) || (err == nil && (cs == nil || *cs == "")) {
		return "", store.ErrNotConfigured
	}
	if err != nil {
		return "", fmt.Errorf("query user settings: %w", err)
	}
	return domain.CoordinateSystem(*cs), nil
}
