package kinds

import (
	"github.com/JonMunkholm/fieldnotes/internal/core"
	"github.com/JonMunkholm/fieldnotes/internal/domain"
	"github.com/JonMunkholm/fieldnotes/internal/store"
)

const maxLabelLength = 100

func init() {
	registerLabeled(domain.KindObserver, "Observers")
	registerLabeled(domain.KindWeather, "Weather conditions")
	registerLabeled(domain.KindSpeciesClass, "Species classes")
	registerLabeled(domain.KindSex, "Sexes")
	registerLabeled(domain.KindAge, "Ages")
	registerLabeled(domain.KindDistanceEstimate, "Distance estimates")

	core.Register(core.Definition{
		Kind:    domain.KindNumberEstimate,
		Label:   "Number estimates",
		Columns: []string{"label", "uncounted"},
		New: func(deps core.Deps) core.Importer {
			return newNumberEstimateImporter(deps.Repos.NumberEstimates)
		},
	})
	core.Register(core.Definition{
		Kind:    domain.KindDepartment,
		Label:   "Departments",
		Columns: []string{"code"},
		New: func(deps core.Deps) core.Importer {
			return newDepartmentImporter(deps.Repos.Departments)
		},
	})
}

func registerLabeled(kind domain.EntityKind, label string) {
	core.Register(core.Definition{
		Kind:    kind,
		Label:   label,
		Columns: []string{"label"},
		New: func(deps core.Deps) core.Importer {
			repo, _ := deps.Repos.Labeled(kind)
			return newLabeledImporter(repo)
		},
	})
}

// newLabeledImporter imports entities identified by their label alone.
func newLabeledImporter(repo store.Repository[domain.Labeled]) core.Importer {
	return &catalog[domain.Labeled]{
		columns: 1,
		repo:    repo,
		parse: func(row core.Row) (domain.Labeled, error) {
			label, err := core.RequireText("label", row[0], maxLabelLength)
			return domain.Labeled{Label: label}, err
		},
		keys: func(l domain.Labeled) []uniqueKey {
			return []uniqueKey{global("label", l.Label)}
		},
	}
}

func newNumberEstimateImporter(repo store.Repository[domain.NumberEstimate]) core.Importer {
	return &catalog[domain.NumberEstimate]{
		columns: 2,
		repo:    repo,
		parse: func(row core.Row) (domain.NumberEstimate, error) {
			label, err := core.RequireText("label", row[0], maxLabelLength)
			if err != nil {
				return domain.NumberEstimate{}, err
			}
			uncounted, ok := core.ParseBool(row[1])
			if !ok {
				return domain.NumberEstimate{}, core.Invalid("uncounted", row[1], "must be yes/no, oui/non, true/false, or 1/0")
			}
			return domain.NumberEstimate{Label: label, Uncounted: uncounted}, nil
		},
		keys: func(n domain.NumberEstimate) []uniqueKey {
			return []uniqueKey{global("label", n.Label)}
		},
	}
}

func newDepartmentImporter(repo store.Repository[domain.Department]) core.Importer {
	return &catalog[domain.Department]{
		columns: 1,
		repo:    repo,
		parse: func(row core.Row) (domain.Department, error) {
			code, err := core.RequireText("code", row[0], maxLabelLength)
			return domain.Department{Code: code}, err
		},
		keys: func(d domain.Department) []uniqueKey {
			return []uniqueKey{global("code", d.Code)}
		},
	}
}
