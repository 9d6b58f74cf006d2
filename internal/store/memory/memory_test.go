package memory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/JonMunkholm/fieldnotes/internal/domain"
	"github.com/JonMunkholm/fieldnotes/internal/store"
)

func TestStore_SeedAndCreate(t *testing.T) {
	s := New(assignLabeled)
	seeded := s.Seed("bob", domain.Labeled{Label: "Alice"})
	if seeded[0].ID != 1 || seeded[0].OwnerID != "bob" {
		t.Errorf("seeded = %+v", seeded[0])
	}

	n, err := s.CreateMany(context.Background(), []domain.Labeled{{Label: "Bob"}, {Label: "Carol"}}, "alice")
	if err != nil || n != 2 {
		t.Fatalf("CreateMany() = (%d, %v)", n, err)
	}

	items, _ := s.FindAll(context.Background())
	if len(items) != 3 || items[2].ID != 3 || items[2].OwnerID != "alice" {
		t.Errorf("items = %+v", items)
	}
	if s.CreateCalls() != 1 {
		t.Errorf("CreateCalls() = %d, want 1", s.CreateCalls())
	}
}

func TestStore_FindAllReturnsCopy(t *testing.T) {
	s := New(assignLabeled)
	s.Seed("alice", domain.Labeled{Label: "Alice"})

	items, _ := s.FindAll(context.Background())
	items[0].Label = "changed"

	again, _ := s.FindAll(context.Background())
	if again[0].Label != "Alice" {
		t.Error("mutating FindAll result changed the store")
	}
}

func TestStore_FailCreateStoresNothing(t *testing.T) {
	s := New(assignLabeled)
	s.FailCreate = ErrInjected

	if _, err := s.CreateMany(context.Background(), []domain.Labeled{{Label: "x"}}, "alice"); !errors.Is(err, ErrInjected) {
		t.Fatalf("CreateMany() error = %v", err)
	}
	if s.Len() != 0 {
		t.Errorf("Len() = %d, want 0", s.Len())
	}
}

func TestStore_CancelledContext(t *testing.T) {
	s := New(assignLabeled)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := s.FindAll(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("FindAll() error = %v", err)
	}
	if _, err := s.CreateMany(ctx, []domain.Labeled{{Label: "x"}}, "alice"); !errors.Is(err, context.Canceled) {
		t.Errorf("CreateMany() error = %v", err)
	}
}

func TestStore_ConcurrentCreates(t *testing.T) {
	s := New(assignLabeled)

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.CreateMany(context.Background(), []domain.Labeled{{Label: "a"}, {Label: "b"}}, "alice")
		}()
	}
	wg.Wait()

	items, _ := s.FindAll(context.Background())
	seen := make(map[int64]bool)
	for _, it := range items {
		if seen[it.ID] {
			t.Fatalf("duplicate id %d", it.ID)
		}
		seen[it.ID] = true
	}
	if len(items) != 20 {
		t.Errorf("stored %d items, want 20", len(items))
	}
}

func TestSettings(t *testing.T) {
	s := NewSettings()
	if _, err := s.CoordinateSystem(context.Background(), "alice"); !errors.Is(err, store.ErrNotConfigured) {
		t.Errorf("unset coordinate system error = %v", err)
	}

	s.SetCoordinateSystem("alice", domain.CoordinateGPS)
	cs, err := s.CoordinateSystem(context.Background(), "alice")
	if err != nil || cs != domain.CoordinateGPS {
		t.Errorf("CoordinateSystem() = (%q, %v)", cs, err)
	}
}

func TestStores_RepositoriesCoverEveryKind(t *testing.T) {
	repos := NewStores().Repositories()
	if repos.Observers == nil || repos.Entries == nil || repos.Settings == nil {
		t.Fatal("Repositories() left a repository unset")
	}
	if _, ok := repos.Labeled(domain.KindTown); ok {
		t.Error("towns are not a labeled kind")
	}
}
