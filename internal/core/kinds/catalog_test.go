package kinds

import (
	"context"
	"errors"
	"testing"

	"github.com/JonMunkholm/fieldnotes/internal/core"
	"github.com/JonMunkholm/fieldnotes/internal/domain"
	"github.com/JonMunkholm/fieldnotes/internal/store/memory"
)

var owner = domain.User{ID: "alice", Role: domain.RoleContributor}

// check is one row fed to an importer and the row error it should produce.
// An empty wantErr means the row is accepted.
type check struct {
	row     core.Row
	wantErr string
}

// runChecks initializes imp, validates every row in order and persists the
// accepted ones. It returns the number persisted.
func runChecks(t *testing.T, imp core.Importer, checks []check) int {
	t.Helper()
	ctx := context.Background()

	if err := imp.Initialize(ctx, owner); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	for i, c := range checks {
		if len(c.row) != imp.ExpectedColumnCount() {
			t.Fatalf("check %d has %d fields, importer expects %d", i, len(c.row), imp.ExpectedColumnCount())
		}
		err := imp.ValidateAndPrepare(c.row)
		switch {
		case c.wantErr == "" && err != nil:
			t.Errorf("row %q rejected: %v", c.row, err)
		case c.wantErr != "" && err == nil:
			t.Errorf("row %q accepted, want %q", c.row, c.wantErr)
		case c.wantErr != "" && err.Error() != c.wantErr:
			t.Errorf("row %q error = %q, want %q", c.row, err.Error(), c.wantErr)
		}
	}

	n, err := imp.PersistAll(ctx, owner)
	if err != nil {
		t.Fatalf("PersistAll() error = %v", err)
	}
	return n
}

func TestLabeledImporter(t *testing.T) {
	stores := memory.NewStores()
	stores.Observers.Seed("bob", domain.Labeled{Label: "Alice Martin"})

	n := runChecks(t, newLabeledImporter(stores.Observers), []check{
		{row: core.Row{"Jean Dupont"}},
		{row: core.Row{"alice martin"}, wantErr: `label: "alice martin" already exists`},
		{row: core.Row{"JEAN DUPONT"}, wantErr: `label: "JEAN DUPONT" already exists`},
		{row: core.Row{"Jéan Dupont"}, wantErr: `label: "Jéan Dupont" already exists`},
		{row: core.Row{"   "}, wantErr: "label: required field is empty"},
		{row: core.Row{`="Hélène"`}},
	})

	if n != 2 {
		t.Errorf("persisted %d, want 2", n)
	}
	items, _ := stores.Observers.FindAll(context.Background())
	if len(items) != 3 || items[2].Label != "Hélène" || items[2].OwnerID != "alice" {
		t.Errorf("stored observers = %+v", items)
	}
}

func TestLabeledImporter_EveryLabeledKindHasARepository(t *testing.T) {
	repos := memory.NewStores().Repositories()
	for _, kind := range []domain.EntityKind{
		domain.KindObserver, domain.KindWeather, domain.KindSpeciesClass,
		domain.KindSex, domain.KindAge, domain.KindDistanceEstimate,
	} {
		if repo, ok := repos.Labeled(kind); !ok || repo == nil {
			t.Errorf("no labeled repository for %s", kind)
		}
	}
}

func TestNumberEstimateImporter(t *testing.T) {
	stores := memory.NewStores()

	runChecks(t, newNumberEstimateImporter(stores.NumberEstimates), []check{
		{row: core.Row{"Exact", "non"}},
		{row: core.Row{"Non compté", "OUI"}},
		{row: core.Row{"Estimé", ""}},
		{row: core.Row{"Peu", "peut-être"}, wantErr: "uncounted: must be yes/no, oui/non, true/false, or 1/0"},
		{row: core.Row{"non compte", "1"}, wantErr: `label: "non compte" already exists`},
	})

	items, _ := stores.NumberEstimates.FindAll(context.Background())
	want := map[string]bool{"Exact": false, "Non compté": true, "Estimé": false}
	if len(items) != len(want) {
		t.Fatalf("stored %d estimates, want %d", len(items), len(want))
	}
	for _, n := range items {
		if n.Uncounted != want[n.Label] {
			t.Errorf("%s uncounted = %v", n.Label, n.Uncounted)
		}
	}
}

func TestDepartmentImporter(t *testing.T) {
	stores := memory.NewStores()
	stores.Departments.Seed("alice", domain.Department{Code: "01"})

	n := runChecks(t, newDepartmentImporter(stores.Departments), []check{
		{row: core.Row{"38"}},
		{row: core.Row{`="01"`}, wantErr: `code: "01" already exists`},
		{row: core.Row{"2A"}},
		{row: core.Row{"2a"}, wantErr: `code: "2a" already exists`},
	})
	if n != 2 {
		t.Errorf("persisted %d, want 2", n)
	}
}

func TestEnvironmentImporter(t *testing.T) {
	stores := memory.NewStores()

	runChecks(t, newEnvironmentImporter(stores.Environments), []check{
		{row: core.Row{"ETG", "Étang"}},
		{row: core.Row{"LAC", "etang"}, wantErr: `label: "etang" already exists`},
		{row: core.Row{"etg", "Lac"}, wantErr: `code: "etg" already exists`},
		{row: core.Row{"", "Forêt"}, wantErr: "code: required field is empty"},
		{row: core.Row{"FORET1", "Forêt"}},
	})
}

func TestBehaviorImporter(t *testing.T) {
	stores := memory.NewStores()
	stores.Behaviors.Seed("alice", domain.Behavior{Code: "CHANT", Label: "Chant"})

	runChecks(t, newBehaviorImporter(stores.Behaviors), []check{
		{row: core.Row{"NID", "Nid occupé", "Certaine"}},
		{row: core.Row{"PAR", "Parade", "probable"}},
		{row: core.Row{"VOL", "Vol", ""}},
		{row: core.Row{"X", "Autre", "maybe"}, wantErr: `breeding: invalid enum value "maybe", must be empty, possible, probable or certain`},
		{row: core.Row{"chant", "Autre chant", "possible"}, wantErr: `code: "chant" already exists`},
		{row: core.Row{"ABCDEFG", "Trop long", ""}, wantErr: "code: must be at most 6 characters"},
	})

	items, _ := stores.Behaviors.FindAll(context.Background())
	got := make(map[string]domain.Breeding)
	for _, b := range items {
		got[b.Code] = b.Breeding
	}
	if got["NID"] != domain.BreedingCertain || got["PAR"] != domain.BreedingProbable || got["VOL"] != domain.BreedingNone {
		t.Errorf("breeding levels = %v", got)
	}
}

func TestCatalog_PersistAll(t *testing.T) {
	t.Run("nothing pending skips the repository", func(t *testing.T) {
		stores := memory.NewStores()
		imp := newLabeledImporter(stores.Observers)
		runChecks(t, imp, []check{{row: core.Row{""}, wantErr: "label: required field is empty"}})
		if stores.Observers.CreateCalls() != 0 {
			t.Errorf("CreateMany called %d times", stores.Observers.CreateCalls())
		}
	})

	t.Run("storage failure", func(t *testing.T) {
		stores := memory.NewStores()
		stores.Observers.FailCreate = memory.ErrInjected
		imp := newLabeledImporter(stores.Observers)

		ctx := context.Background()
		if err := imp.Initialize(ctx, owner); err != nil {
			t.Fatal(err)
		}
		if err := imp.ValidateAndPrepare(core.Row{"Alice"}); err != nil {
			t.Fatal(err)
		}
		if _, err := imp.PersistAll(ctx, owner); !errors.Is(err, memory.ErrInjected) {
			t.Errorf("PersistAll() error = %v, want ErrInjected", err)
		}
		if stores.Observers.Len() != 0 {
			t.Error("failed batch stored entities")
		}
	})
}

func TestRegisteredKinds(t *testing.T) {
	defs := core.All()
	if len(defs) != len(domain.Kinds) {
		t.Fatalf("registered %d kinds, want %d", len(defs), len(domain.Kinds))
	}

	deps := core.Deps{Repos: memory.NewStores().Repositories()}
	for i, def := range defs {
		if def.Kind != domain.Kinds[i] {
			t.Errorf("All()[%d] = %s, want %s", i, def.Kind, domain.Kinds[i])
		}
		if def.Label == "" {
			t.Errorf("%s has no label", def.Kind)
		}
		if got := def.New(deps).ExpectedColumnCount(); got != len(def.Columns) {
			t.Errorf("%s expects %d columns but lists %d", def.Kind, got, len(def.Columns))
		}
	}
}
