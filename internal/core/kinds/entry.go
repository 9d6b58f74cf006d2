package kinds

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/JonMunkholm/fieldnotes/internal/core"
	"github.com/JonMunkholm/fieldnotes/internal/domain"
	"github.com/JonMunkholm/fieldnotes/internal/store"
)

// entryColumns are the columns of an observation entry file, in order.
var entryColumns = []string{
	"observer",
	"associates",
	"date",
	"time",
	"duration",
	"department",
	"town",
	"locality",
	"altitude",
	"longitude",
	"latitude",
	"temperature",
	"weathers",
	"species",
	"sex",
	"age",
	"number estimate",
	"number",
	"distance estimate",
	"distance",
	"behaviors",
	"environments",
	"comment",
}

const (
	colObserver = iota
	colAssociates
	colDate
	colTime
	colDuration
	colDepartment
	colTown
	colLocality
	colAltitude
	colLongitude
	colLatitude
	colTemperature
	colWeathers
	colSpecies
	colSex
	colAge
	colNumberEstimate
	colNumber
	colDistanceEstimate
	colDistance
	colBehaviors
	colEnvironments
	colComment
)

const maxCommentLength = 1000

func init() {
	core.Register(core.Definition{
		Kind:    domain.KindEntry,
		Label:   "Observation entries",
		Columns: entryColumns,
		New: func(deps core.Deps) core.Importer {
			return newEntryImporter(deps.Repos)
		},
	})
}

// entryRefs is the reference data an entry row is resolved against.
type entryRefs struct {
	system domain.CoordinateSystem
	bounds domain.Bounds

	observers         refIndex
	departments       refIndex
	towns             refIndex // scoped by department
	localities        refIndex // scoped by town
	localityByID      map[int64]domain.Locality
	weathers          refIndex
	species           refIndex // by code
	sexes             refIndex
	ages              refIndex
	numberEstimates   refIndex
	uncounted         map[int64]bool
	distanceEstimates refIndex
	behaviors         refIndex // by code
	environments      refIndex // by code
}

// load fetches the owner's coordinate system, then every reference set
// concurrently.
func (r *entryRefs) load(ctx context.Context, repos *store.Repositories, owner domain.User) error {
	var err error
	if r.system, r.bounds, err = coordinateSystem(ctx, repos.Settings, owner); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		r.observers, err = loadLabels(gctx, repos.Observers, "observers")
		return err
	})
	g.Go(func() (err error) {
		r.departments, _, err = loadDepartments(gctx, repos.Departments)
		return err
	})
	g.Go(func() (err error) {
		r.towns, err = loadIndex(gctx, repos.Towns, "towns",
			func(t domain.Town) (int64, string) { return t.DepartmentID, t.Name },
			func(t domain.Town) int64 { return t.ID })
		return err
	})
	g.Go(func() error {
		items, err := repos.Localities.FindAll(gctx)
		if err != nil {
			return fmt.Errorf("load localities: %w", err)
		}
		r.localities = make(refIndex, len(items))
		r.localityByID = make(map[int64]domain.Locality, len(items))
		for _, l := range items {
			r.localities.add(strconv.FormatInt(l.TownID, 10), l.Name, l.ID)
			r.localityByID[l.ID] = l
		}
		return nil
	})
	g.Go(func() (err error) {
		r.weathers, err = loadLabels(gctx, repos.Weathers, "weathers")
		return err
	})
	g.Go(func() (err error) {
		r.species, err = loadIndex(gctx, repos.Species, "species",
			func(s domain.Species) (int64, string) { return 0, s.Code },
			func(s domain.Species) int64 { return s.ID })
		return err
	})
	g.Go(func() (err error) {
		r.sexes, err = loadLabels(gctx, repos.Sexes, "sexes")
		return err
	})
	g.Go(func() (err error) {
		r.ages, err = loadLabels(gctx, repos.Ages, "ages")
		return err
	})
	g.Go(func() error {
		items, err := repos.NumberEstimates.FindAll(gctx)
		if err != nil {
			return fmt.Errorf("load number estimates: %w", err)
		}
		r.numberEstimates = make(refIndex, len(items))
		r.uncounted = make(map[int64]bool, len(items))
		for _, n := range items {
			r.numberEstimates.add("", n.Label, n.ID)
			r.uncounted[n.ID] = n.Uncounted
		}
		return nil
	})
	g.Go(func() (err error) {
		r.distanceEstimates, err = loadLabels(gctx, repos.DistanceEstimates, "distance estimates")
		return err
	})
	g.Go(func() (err error) {
		r.behaviors, err = loadIndex(gctx, repos.Behaviors, "behaviors",
			func(b domain.Behavior) (int64, string) { return 0, b.Code },
			func(b domain.Behavior) int64 { return b.ID })
		return err
	})
	g.Go(func() (err error) {
		r.environments, err = loadIndex(gctx, repos.Environments, "environments",
			func(e domain.Environment) (int64, string) { return 0, e.Code },
			func(e domain.Environment) int64 { return e.ID })
		return err
	})
	return g.Wait()
}

// entryCells holds the reference cells of a row that passed the format
// checks.
type entryCells struct {
	observer       string
	department     string
	town           string
	locality       string
	species        string
	sex            string
	age            string
	numberEstimate string
	explicitPlace  bool
}

// parse checks the format of every field before resolving any reference.
// Within each pass the first problem in column order is reported.
func (r *entryRefs) parse(row core.Row) (domain.Entry, error) {
	var e domain.Entry
	cells, err := r.check(&e, row)
	if err != nil {
		return e, err
	}
	if err := r.resolveRefs(&e, cells, row); err != nil {
		return e, err
	}
	return e, nil
}

// check parses the fields that do not depend on reference data.
func (r *entryRefs) check(e *domain.Entry, row core.Row) (entryCells, error) {
	var c entryCells
	var err error

	if c.observer, err = core.RequireText("observer", row[colObserver], 0); err != nil {
		return c, err
	}
	date, ok := core.ParseDate(row[colDate])
	if !ok {
		return c, core.Invalid("date", row[colDate], "invalid date %q, use dd/mm/yyyy or yyyy-mm-dd", core.CleanCell(row[colDate]))
	}
	e.Date = date
	if e.Time, err = optionalTimeOfDay("time", row[colTime]); err != nil {
		return c, err
	}
	if e.Duration, err = optionalTimeOfDay("duration", row[colDuration]); err != nil {
		return c, err
	}

	if c.department, err = core.RequireText("department", row[colDepartment], 0); err != nil {
		return c, err
	}
	if c.town, err = core.RequireText("town", row[colTown], maxLabelLength); err != nil {
		return c, err
	}
	if c.locality, err = core.RequireText("locality", row[colLocality], maxLabelLength); err != nil {
		return c, err
	}
	if err := r.checkPlace(e, &c, row); err != nil {
		return c, err
	}

	if e.Temperature, err = core.OptionalInt("temperature", row[colTemperature], -50, 100); err != nil {
		return c, err
	}
	if c.species, err = core.RequireText("species", row[colSpecies], 0); err != nil {
		return c, err
	}
	if c.sex, err = core.RequireText("sex", row[colSex], 0); err != nil {
		return c, err
	}
	if c.age, err = core.RequireText("age", row[colAge], 0); err != nil {
		return c, err
	}
	if c.numberEstimate, err = core.RequireText("number estimate", row[colNumberEstimate], 0); err != nil {
		return c, err
	}
	if e.Number, err = core.OptionalInt("number", row[colNumber], 1, 65535); err != nil {
		return c, err
	}
	if e.Distance, err = core.OptionalInt("distance", row[colDistance], 0, 65535); err != nil {
		return c, err
	}
	if e.Comment, err = core.OptionalText("comment", row[colComment], maxCommentLength); err != nil {
		return c, err
	}
	return c, nil
}

// checkPlace parses explicit altitude and coordinates. When all three are
// empty the locality's own are used once it is resolved.
func (r *entryRefs) checkPlace(e *domain.Entry, c *entryCells, row core.Row) error {
	altitude := core.CleanCell(row[colAltitude])
	lon := core.CleanCell(row[colLongitude])
	lat := core.CleanCell(row[colLatitude])
	if altitude == "" && lon == "" && lat == "" {
		return nil
	}

	var err error
	if e.Altitude, err = core.RequireInt("altitude", altitude, 0, maxAltitude); err != nil {
		return err
	}
	if e.Longitude, e.Latitude, err = coordinates(lon, lat, r.bounds); err != nil {
		return err
	}
	e.CoordinateSystem = r.system
	c.explicitPlace = true
	return nil
}

// resolveRefs looks up every reference of a row that passed check.
func (r *entryRefs) resolveRefs(e *domain.Entry, c entryCells, row core.Row) error {
	var err error

	if e.ObserverID, err = find(r.observers, "observer", c.observer, "observer"); err != nil {
		return err
	}
	if e.AssociateIDs, err = resolveList(r.observers, "associates", row[colAssociates], "observer"); err != nil {
		return err
	}

	departmentID, err := find(r.departments, "department", c.department, "department")
	if err != nil {
		return err
	}
	townID, ok := r.towns.lookupIn(departmentID, c.town)
	if !ok {
		return core.Invalid("town", c.town, "unknown town %q in department %s", c.town, c.department)
	}
	localityID, ok := r.localities.lookupIn(townID, c.locality)
	if !ok {
		return core.Invalid("locality", c.locality, "unknown locality %q in town %s", c.locality, c.town)
	}
	e.LocalityID = localityID
	if !c.explicitPlace {
		l := r.localityByID[localityID]
		e.Altitude, e.Longitude, e.Latitude = l.Altitude, l.Longitude, l.Latitude
		e.CoordinateSystem = l.CoordinateSystem
	}

	if e.WeatherIDs, err = resolveList(r.weathers, "weathers", row[colWeathers], "weather"); err != nil {
		return err
	}
	if e.SpeciesID, err = find(r.species, "species", c.species, "species code"); err != nil {
		return err
	}
	if e.SexID, err = find(r.sexes, "sex", c.sex, "sex"); err != nil {
		return err
	}
	if e.AgeID, err = find(r.ages, "age", c.age, "age"); err != nil {
		return err
	}

	if e.NumberEstimateID, err = find(r.numberEstimates, "number estimate", c.numberEstimate, "number estimate"); err != nil {
		return err
	}
	switch {
	case r.uncounted[e.NumberEstimateID] && e.Number != nil:
		return core.Invalid("number", row[colNumber], "must be empty for an uncounted estimate")
	case !r.uncounted[e.NumberEstimateID] && e.Number == nil:
		return core.Invalid("number", row[colNumber], "required field is empty")
	}

	if v := core.CleanCell(row[colDistanceEstimate]); v != "" {
		id, err := find(r.distanceEstimates, "distance estimate", v, "distance estimate")
		if err != nil {
			return err
		}
		e.DistanceEstimateID = &id
	}

	if e.BehaviorIDs, err = resolveList(r.behaviors, "behaviors", row[colBehaviors], "behavior code"); err != nil {
		return err
	}
	if e.EnvironmentIDs, err = resolveList(r.environments, "environments", row[colEnvironments], "environment code"); err != nil {
		return err
	}
	return nil
}

func optionalTimeOfDay(field, value string) (string, error) {
	v := core.CleanCell(value)
	if v == "" {
		return "", nil
	}
	t, ok := core.ParseTimeOfDay(v)
	if !ok {
		return "", core.Invalid(field, v, "invalid %s %q, use HH:MM or HHhMM", field, v)
	}
	return t, nil
}

// entryKey identifies an observation: the same observer seeing the same
// individuals at the same place and time.
func entryKey(e domain.Entry) uniqueKey {
	number := "-"
	if e.Number != nil {
		number = strconv.Itoa(*e.Number)
	}
	value := strings.Join([]string{
		strconv.FormatInt(e.ObserverID, 10),
		e.Date.Format("2006-01-02"),
		e.Time,
		strconv.FormatInt(e.LocalityID, 10),
		strconv.FormatInt(e.SpeciesID, 10),
		strconv.FormatInt(e.SexID, 10),
		strconv.FormatInt(e.AgeID, 10),
		strconv.FormatInt(e.NumberEstimateID, 10),
		number,
	}, "|")
	return uniqueKey{Field: "entry", Value: value, Shown: "an identical observation"}
}

func newEntryImporter(repos *store.Repositories) core.Importer {
	refs := &entryRefs{}
	return &catalog[domain.Entry]{
		columns: len(entryColumns),
		repo:    repos.Entries,
		load: func(ctx context.Context, owner domain.User) error {
			return refs.load(ctx, repos, owner)
		},
		parse: refs.parse,
		keys: func(e domain.Entry) []uniqueKey {
			return []uniqueKey{entryKey(e)}
		},
	}
}
