package kinds

import (
	"github.com/JonMunkholm/fieldnotes/internal/core"
	"github.com/JonMunkholm/fieldnotes/internal/domain"
	"github.com/JonMunkholm/fieldnotes/internal/store"
)

const maxCodeLength = 6

func init() {
	core.Register(core.Definition{
		Kind:    domain.KindEnvironment,
		Label:   "Environments",
		Columns: []string{"code", "label"},
		New: func(deps core.Deps) core.Importer {
			return newEnvironmentImporter(deps.Repos.Environments)
		},
	})
	core.Register(core.Definition{
		Kind:    domain.KindBehavior,
		Label:   "Behaviors",
		Columns: []string{"code", "label", "breeding"},
		New: func(deps core.Deps) core.Importer {
			return newBehaviorImporter(deps.Repos.Behaviors)
		},
	})
}

// codeAndLabel validates the first two columns shared by coded kinds.
func codeAndLabel(row core.Row) (code, label string, err error) {
	if code, err = core.RequireText("code", row[0], maxCodeLength); err != nil {
		return "", "", err
	}
	if label, err = core.RequireText("label", row[1], maxLabelLength); err != nil {
		return "", "", err
	}
	return code, label, nil
}

func newEnvironmentImporter(repo store.Repository[domain.Environment]) core.Importer {
	return &catalog[domain.Environment]{
		columns: 2,
		repo:    repo,
		parse: func(row core.Row) (domain.Environment, error) {
			code, label, err := codeAndLabel(row)
			return domain.Environment{Code: code, Label: label}, err
		},
		keys: func(e domain.Environment) []uniqueKey {
			return []uniqueKey{global("code", e.Code), global("label", e.Label)}
		},
	}
}

var breedingValues = map[string]domain.Breeding{
	"":         domain.BreedingNone,
	"possible": domain.BreedingPossible,
	"probable": domain.BreedingProbable,
	"certain":  domain.BreedingCertain,
	"certaine": domain.BreedingCertain,
}

// parseBreeding accepts the breeding levels in any case, with or without
// accents.
func parseBreeding(value string) (domain.Breeding, error) {
	b, ok := breedingValues[core.NormalizeKey(value)]
	if !ok {
		return "", core.Invalid("breeding", value, "invalid enum value %q, must be empty, possible, probable or certain", core.CleanCell(value))
	}
	return b, nil
}

func newBehaviorImporter(repo store.Repository[domain.Behavior]) core.Importer {
	return &catalog[domain.Behavior]{
		columns: 3,
		repo:    repo,
		parse: func(row core.Row) (domain.Behavior, error) {
			code, label, err := codeAndLabel(row)
			if err != nil {
				return domain.Behavior{}, err
			}
			breeding, err := parseBreeding(row[2])
			if err != nil {
				return domain.Behavior{}, err
			}
			return domain.Behavior{Code: code, Label: label, Breeding: breeding}, nil
		},
		keys: func(b domain.Behavior) []uniqueKey {
			return []uniqueKey{global("code", b.Code), global("label", b.Label)}
		},
	}
}
