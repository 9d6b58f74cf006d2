package domain

import "time"

// Labeled is an entity identified only by its label: observers, weather
// conditions, species classes, sexes, ages and distance estimates.
type Labeled struct {
	ID      int64  `db:"id"`
	Label   string `db:"label"`
	OwnerID string `db:"owner_id"`
}

// NumberEstimate qualifies how a count of individuals was obtained.
type NumberEstimate struct {
	ID        int64  `db:"id"`
	Label     string `db:"label"`
	Uncounted bool   `db:"uncounted"`
	OwnerID   string `db:"owner_id"`
}

// Department is an administrative area identified by its code.
type Department struct {
	ID      int64  `db:"id"`
	Code    string `db:"code"`
	OwnerID string `db:"owner_id"`
}

// Town belongs to exactly one department.
type Town struct {
	ID           int64  `db:"id"`
	DepartmentID int64  `db:"department_id"`
	Code         int    `db:"code"`
	Name         string `db:"name"`
	OwnerID      string `db:"owner_id"`
}

// Locality is a named place within a town.
type Locality struct {
	ID               int64            `db:"id"`
	TownID           int64            `db:"town_id"`
	Name             string           `db:"name"`
	Altitude         int              `db:"altitude"`
	Longitude        float64          `db:"longitude"`
	Latitude         float64          `db:"latitude"`
	CoordinateSystem CoordinateSystem `db:"coordinate_system"`
	OwnerID          string           `db:"owner_id"`
}

// Species belongs to a species class.
type Species struct {
	ID             int64  `db:"id"`
	ClassID        int64  `db:"class_id"`
	Code           string `db:"code"`
	CommonName     string `db:"common_name"`
	ScientificName string `db:"scientific_name"`
	OwnerID        string `db:"owner_id"`
}

// Breeding is the nesting evidence level carried by a behavior.
type Breeding string

const (
	BreedingNone     Breeding = ""
	BreedingPossible Breeding = "possible"
	BreedingProbable Breeding = "probable"
	BreedingCertain  Breeding = "certain"
)

// Behavior is an observed behavior, optionally implying breeding.
type Behavior struct {
	ID       int64    `db:"id"`
	Code     string   `db:"code"`
	Label    string   `db:"label"`
	Breeding Breeding `db:"breeding"`
	OwnerID  string   `db:"owner_id"`
}

// Environment is a habitat type.
type Environment struct {
	ID      int64  `db:"id"`
	Code    string `db:"code"`
	Label   string `db:"label"`
	OwnerID string `db:"owner_id"`
}

// Entry is one observation: a species seen by an observer at a locality.
type Entry struct {
	ID                 int64            `db:"id"`
	ObserverID         int64            `db:"observer_id"`
	AssociateIDs       []int64          `db:"associate_ids"`
	Date               time.Time        `db:"observed_on"`
	Time               string           `db:"observed_at"`
	Duration           string           `db:"duration"`
	LocalityID         int64            `db:"locality_id"`
	Altitude           int              `db:"altitude"`
	Longitude          float64          `db:"longitude"`
	Latitude           float64          `db:"latitude"`
	CoordinateSystem   CoordinateSystem `db:"coordinate_system"`
	Temperature        *int             `db:"temperature"`
	WeatherIDs         []int64          `db:"weather_ids"`
	SpeciesID          int64            `db:"species_id"`
	SexID              int64            `db:"sex_id"`
	AgeID              int64            `db:"age_id"`
	NumberEstimateID   int64            `db:"number_estimate_id"`
	Number             *int             `db:"number"`
	DistanceEstimateID *int64           `db:"distance_estimate_id"`
	Distance           *int             `db:"distance"`
	BehaviorIDs        []int64          `db:"behavior_ids"`
	EnvironmentIDs     []int64          `db:"environment_ids"`
	Comment            string           `db:"comment"`
	OwnerID            string           `db:"owner_id"`
}
