package kinds

import (
	"context"
	"fmt"
	"strconv"

	"github.com/JonMunkholm/fieldnotes/internal/core"
	"github.com/JonMunkholm/fieldnotes/internal/domain"
	"github.com/JonMunkholm/fieldnotes/internal/store"
)

const maxAltitude = 65535

func init() {
	core.Register(core.Definition{
		Kind:    domain.KindTown,
		Label:   "Towns",
		Columns: []string{"department", "code", "name"},
		New: func(deps core.Deps) core.Importer {
			return newTownImporter(deps.Repos)
		},
	})
	core.Register(core.Definition{
		Kind:    domain.KindLocality,
		Label:   "Localities",
		Columns: []string{"department", "town", "name", "altitude", "longitude", "latitude"},
		New: func(deps core.Deps) core.Importer {
			return newLocalityImporter(deps.Repos)
		},
	})
}

// departmentNames maps department ids to codes for error messages.
type departmentNames map[int64]string

func (d departmentNames) describe(id int64) string {
	if code, ok := d[id]; ok {
		return "department " + code
	}
	return "its department"
}

func loadDepartments(ctx context.Context, repo store.Repository[domain.Department]) (refIndex, departmentNames, error) {
	items, err := repo.FindAll(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("load departments: %w", err)
	}
	idx := make(refIndex, len(items))
	names := make(departmentNames, len(items))
	for _, d := range items {
		idx.add("", d.Code, d.ID)
		names[d.ID] = d.Code
	}
	return idx, names, nil
}

// newTownImporter scopes town codes and names to their department.
func newTownImporter(repos *store.Repositories) core.Importer {
	var (
		departments refIndex
		names       departmentNames
	)
	return &catalog[domain.Town]{
		columns: 3,
		repo:    repos.Towns,
		load: func(ctx context.Context, _ domain.User) (err error) {
			departments, names, err = loadDepartments(ctx, repos.Departments)
			return err
		},
		parse: func(row core.Row) (domain.Town, error) {
			department, err := core.RequireText("department", row[0], 0)
			if err != nil {
				return domain.Town{}, err
			}
			code, err := core.RequireInt("code", row[1], 0, 65535)
			if err != nil {
				return domain.Town{}, err
			}
			name, err := core.RequireText("name", row[2], maxLabelLength)
			if err != nil {
				return domain.Town{}, err
			}
			departmentID, err := find(departments, "department", department, "department")
			if err != nil {
				return domain.Town{}, err
			}
			return domain.Town{DepartmentID: departmentID, Code: code, Name: name}, nil
		},
		keys: func(t domain.Town) []uniqueKey {
			where := names.describe(t.DepartmentID)
			return []uniqueKey{
				scoped("code", strconv.Itoa(t.Code), t.DepartmentID, where),
				scoped("name", t.Name, t.DepartmentID, where),
			}
		},
	}
}

// newLocalityImporter scopes locality names to their town and checks
// coordinates against the owner's default coordinate system.
func newLocalityImporter(repos *store.Repositories) core.Importer {
	var (
		departments refIndex
		towns       refIndex
		townNames   = make(map[int64]string)
		system      domain.CoordinateSystem
		bounds      domain.Bounds
	)
	return &catalog[domain.Locality]{
		columns: 6,
		repo:    repos.Localities,
		load: func(ctx context.Context, owner domain.User) (err error) {
			if system, bounds, err = coordinateSystem(ctx, repos.Settings, owner); err != nil {
				return err
			}
			if departments, _, err = loadDepartments(ctx, repos.Departments); err != nil {
				return err
			}
			townList, err := repos.Towns.FindAll(ctx)
			if err != nil {
				return fmt.Errorf("load towns: %w", err)
			}
			towns = make(refIndex, len(townList))
			for _, t := range townList {
				towns.add(strconv.FormatInt(t.DepartmentID, 10), t.Name, t.ID)
				townNames[t.ID] = t.Name
			}
			return nil
		},
		parse: func(row core.Row) (domain.Locality, error) {
			department, err := core.RequireText("department", row[0], 0)
			if err != nil {
				return domain.Locality{}, err
			}
			townName, err := core.RequireText("town", row[1], maxLabelLength)
			if err != nil {
				return domain.Locality{}, err
			}
			name, err := core.RequireText("name", row[2], maxLabelLength)
			if err != nil {
				return domain.Locality{}, err
			}
			altitude, err := core.RequireInt("altitude", row[3], 0, maxAltitude)
			if err != nil {
				return domain.Locality{}, err
			}
			lon, lat, err := coordinates(row[4], row[5], bounds)
			if err != nil {
				return domain.Locality{}, err
			}

			departmentID, err := find(departments, "department", department, "department")
			if err != nil {
				return domain.Locality{}, err
			}
			townID, ok := towns.lookupIn(departmentID, townName)
			if !ok {
				return domain.Locality{}, core.Invalid("town", townName, "unknown town %q in department %s", townName, department)
			}
			return domain.Locality{
				TownID:           townID,
				Name:             name,
				Altitude:         altitude,
				Longitude:        lon,
				Latitude:         lat,
				CoordinateSystem: system,
			}, nil
		},
		keys: func(l domain.Locality) []uniqueKey {
			where := "its town"
			if n, ok := townNames[l.TownID]; ok {
				where = "town " + n
			}
			return []uniqueKey{scoped("name", l.Name, l.TownID, where)}
		},
	}
}

// coordinates parses a longitude/latitude pair within bounds.
func coordinates(lonValue, latValue string, b domain.Bounds) (float64, float64, error) {
	lon, err := core.RequireDecimal("longitude", lonValue, b.MinLongitude, b.MaxLongitude)
	if err != nil {
		return 0, 0, err
	}
	lat, err := core.RequireDecimal("latitude", latValue, b.MinLatitude, b.MaxLatitude)
	if err != nil {
		return 0, 0, err
	}
	return lon, lat, nil
}
