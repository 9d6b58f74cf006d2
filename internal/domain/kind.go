// Package domain holds the entity types of the observation dataset and the
// identities of the users who import them.
package domain

import "fmt"

// EntityKind names one of the supported import targets.
type EntityKind string

const (
	KindObserver         EntityKind = "observer"
	KindDepartment       EntityKind = "department"
	KindTown             EntityKind = "town"
	KindLocality         EntityKind = "locality"
	KindWeather          EntityKind = "weather"
	KindSpeciesClass     EntityKind = "species-class"
	KindSpecies          EntityKind = "species"
	KindSex              EntityKind = "sex"
	KindAge              EntityKind = "age"
	KindNumberEstimate   EntityKind = "number-estimate"
	KindDistanceEstimate EntityKind = "distance-estimate"
	KindBehavior         EntityKind = "behavior"
	KindEnvironment      EntityKind = "environment"
	KindEntry            EntityKind = "entry"
)

// Kinds lists every entity kind in import dependency order: a kind only
// references kinds listed before it.
var Kinds = []EntityKind{
	KindObserver,
	KindDepartment,
	KindTown,
	KindLocality,
	KindWeather,
	KindSpeciesClass,
	KindSpecies,
	KindSex,
	KindAge,
	KindNumberEstimate,
	KindDistanceEstimate,
	KindBehavior,
	KindEnvironment,
	KindEntry,
}

// ParseEntityKind validates a kind received from a caller.
func ParseEntityKind(s string) (EntityKind, error) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown entity kind %q", s)
}

// Role grants privileges beyond owning one's own imports.
type Role string

const (
	RoleContributor Role = "contributor"
	RoleAdmin       Role = "admin"
)

// User is the authenticated caller submitting or querying an import.
type User struct {
	ID   string
	Role Role
}

// IsElevated reports whether the user may see jobs owned by others.
func (u User) IsElevated() bool {
	return u.Role == RoleAdmin
}

// CoordinateSystem identifies how locality coordinates are expressed.
type CoordinateSystem string

const (
	CoordinateGPS       CoordinateSystem = "gps"
	CoordinateLambert93 CoordinateSystem = "lambert93"
)

// Bounds is the valid range of a coordinate system's axes.
type Bounds struct {
	MinLongitude, MaxLongitude float64
	MinLatitude, MaxLatitude   float64
}

var coordinateBounds = map[CoordinateSystem]Bounds{
	CoordinateGPS:       {MinLongitude: -180, MaxLongitude: 180, MinLatitude: -90, MaxLatitude: 90},
	CoordinateLambert93: {MinLongitude: 0, MaxLongitude: 1300000, MinLatitude: 6000000, MaxLatitude: 7200000},
}

// Bounds returns the axis ranges of the system. ok is false for an
// unsupported system.
func (c CoordinateSystem) Bounds() (Bounds, bool) {
	b, ok := coordinateBounds[c]
	return b, ok
}
