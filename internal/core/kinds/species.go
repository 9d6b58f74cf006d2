package kinds

import (
	"context"

	"github.com/JonMunkholm/fieldnotes/internal/core"
	"github.com/JonMunkholm/fieldnotes/internal/domain"
	"github.com/JonMunkholm/fieldnotes/internal/store"
)

const (
	maxSpeciesCodeLength = 20
	maxSpeciesNameLength = 200
)

func init() {
	core.Register(core.Definition{
		Kind:    domain.KindSpecies,
		Label:   "Species",
		Columns: []string{"class", "code", "common name", "scientific name"},
		New: func(deps core.Deps) core.Importer {
			return newSpeciesImporter(deps.Repos)
		},
	})
}

func newSpeciesImporter(repos *store.Repositories) core.Importer {
	var classes refIndex
	return &catalog[domain.Species]{
		columns: 4,
		repo:    repos.Species,
		load: func(ctx context.Context, _ domain.User) (err error) {
			classes, err = loadLabels(ctx, repos.SpeciesClasses, "species classes")
			return err
		},
		parse: func(row core.Row) (domain.Species, error) {
			class, err := core.RequireText("class", row[0], 0)
			if err != nil {
				return domain.Species{}, err
			}
			code, err := core.RequireText("code", row[1], maxSpeciesCodeLength)
			if err != nil {
				return domain.Species{}, err
			}
			common, err := core.RequireText("common name", row[2], maxSpeciesNameLength)
			if err != nil {
				return domain.Species{}, err
			}
			scientific, err := core.RequireText("scientific name", row[3], maxSpeciesNameLength)
			if err != nil {
				return domain.Species{}, err
			}
			classID, err := find(classes, "class", class, "species class")
			if err != nil {
				return domain.Species{}, err
			}
			return domain.Species{
				ClassID:        classID,
				Code:           code,
				CommonName:     common,
				ScientificName: scientific,
			}, nil
		},
		keys: func(s domain.Species) []uniqueKey {
			return []uniqueKey{
				global("code", s.Code),
				global("common name", s.CommonName),
				global("scientific name", s.ScientificName),
			}
		},
	}
}
