package postgres

import (
	"context"
	"fmt"
)

// schema creates every table the importers write to. Keeping it in code lets
// a fresh database bootstrap without a migration tool.
const schema = `
CREATE TABLE IF NOT EXISTS user_settings (
	user_id TEXT PRIMARY KEY,
	coordinate_system TEXT
);

CREATE TABLE IF NOT EXISTS observers (
	id BIGSERIAL PRIMARY KEY,
	label TEXT NOT NULL UNIQUE,
	owner_id TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS weathers (
	id BIGSERIAL PRIMARY KEY,
	label TEXT NOT NULL UNIQUE,
	owner_id TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS species_classes (
	id BIGSERIAL PRIMARY KEY,
	label TEXT NOT NULL UNIQUE,
	owner_id TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS sexes (
	id BIGSERIAL PRIMARY KEY,
	label TEXT NOT NULL UNIQUE,
	owner_id TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS ages (
	id BIGSERIAL PRIMARY KEY,
	label TEXT NOT NULL UNIQUE,
	owner_id TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS distance_estimates (
	id BIGSERIAL PRIMARY KEY,
	label TEXT NOT NULL UNIQUE,
	owner_id TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS number_estimates (
	id BIGSERIAL PRIMARY KEY,
	label TEXT NOT NULL UNIQUE,
	uncounted BOOLEAN NOT NULL DEFAULT FALSE,
	owner_id TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS departments (
	id BIGSERIAL PRIMARY KEY,
	code TEXT NOT NULL UNIQUE,
	owner_id TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS towns (
	id BIGSERIAL PRIMARY KEY,
	department_id BIGINT NOT NULL REFERENCES departments(id),
	code INTEGER NOT NULL,
	name TEXT NOT NULL,
	owner_id TEXT NOT NULL,
	UNIQUE (department_id, code),
	UNIQUE (department_id, name)
);
CREATE TABLE IF NOT EXISTS localities (
	id BIGSERIAL PRIMARY KEY,
	town_id BIGINT NOT NULL REFERENCES towns(id),
	name TEXT NOT NULL,
	altitude INTEGER NOT NULL,
	longitude DOUBLE PRECISION NOT NULL,
	latitude DOUBLE PRECISION NOT NULL,
	coordinate_system TEXT NOT NULL,
	owner_id TEXT NOT NULL,
	UNIQUE (town_id, name)
);
CREATE TABLE IF NOT EXISTS species (
	id BIGSERIAL PRIMARY KEY,
	class_id BIGINT NOT NULL REFERENCES species_classes(id),
	code TEXT NOT NULL UNIQUE,
	common_name TEXT NOT NULL UNIQUE,
	scientific_name TEXT NOT NULL UNIQUE,
	owner_id TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS behaviors (
	id BIGSERIAL PRIMARY KEY,
	code TEXT NOT NULL UNIQUE,
	label TEXT NOT NULL UNIQUE,
	breeding TEXT NOT NULL DEFAULT '',
	owner_id TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS environments (
	id BIGSERIAL PRIMARY KEY,
	code TEXT NOT NULL UNIQUE,
	label TEXT NOT NULL UNIQUE,
	owner_id TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS entries (
	id BIGSERIAL PRIMARY KEY,
	observer_id BIGINT NOT NULL REFERENCES observers(id),
	associate_ids BIGINT[] NOT NULL DEFAULT '{}',
	observed_on DATE NOT NULL,
	observed_at TEXT NOT NULL DEFAULT '',
	duration TEXT NOT NULL DEFAULT '',
	locality_id BIGINT NOT NULL REFERENCES localities(id),
	altitude INTEGER NOT NULL,
	longitude DOUBLE PRECISION NOT NULL,
	latitude DOUBLE PRECISION NOT NULL,
	coordinate_system TEXT NOT NULL,
	temperature INTEGER,
	weather_ids BIGINT[] NOT NULL DEFAULT '{}',
	species_id BIGINT NOT NULL REFERENCES species(id),
	sex_id BIGINT NOT NULL REFERENCES sexes(id),
	age_id BIGINT NOT NULL REFERENCES ages(id),
	number_estimate_id BIGINT NOT NULL REFERENCES number_estimates(id),
	number INTEGER,
	distance_estimate_id BIGINT REFERENCES distance_estimates(id),
	distance INTEGER,
	behavior_ids BIGINT[] NOT NULL DEFAULT '{}',
	environment_ids BIGINT[] NOT NULL DEFAULT '{}',
	comment TEXT NOT NULL DEFAULT '',
	owner_id TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_entries_observed_on ON entries(observed_on);`

// EnsureSchema creates missing tables.
func EnsureSchema(ctx context.Context, db DBTX) error {
	if _, err := db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
