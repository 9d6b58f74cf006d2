package kinds

import (
	"context"
	"errors"
	"fmt"

	"github.com/JonMunkholm/fieldnotes/internal/core"
	"github.com/JonMunkholm/fieldnotes/internal/domain"
	"github.com/JonMunkholm/fieldnotes/internal/store"
)

// refIndex resolves referenced entities by a normalized key.
type refIndex map[string]int64

func (r refIndex) add(scope, value string, id int64) {
	r[scope+"\x00"+core.NormalizeKey(value)] = id
}

// lookup finds a global reference.
func (r refIndex) lookup(value string) (int64, bool) {
	id, ok := r["\x00"+core.NormalizeKey(value)]
	return id, ok
}

// lookupIn finds a reference scoped to a parent entity.
func (r refIndex) lookupIn(scopeID int64, value string) (int64, bool) {
	id, ok := r[fmt.Sprint(scopeID)+"\x00"+core.NormalizeKey(value)]
	return id, ok
}

// loadIndex reads every entity of a repository and indexes it by key.
func loadIndex[T any](ctx context.Context, repo store.Repository[T], what string, key func(T) (scope int64, value string), id func(T) int64) (refIndex, error) {
	items, err := repo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", what, err)
	}
	idx := make(refIndex, len(items))
	for _, item := range items {
		scope, value := key(item)
		s := ""
		if scope != 0 {
			s = fmt.Sprint(scope)
		}
		idx.add(s, value, id(item))
	}
	return idx, nil
}

func labeledKey(l domain.Labeled) (int64, string) { return 0, l.Label }
func labeledID(l domain.Labeled) int64            { return l.ID }

// loadLabels indexes a labeled kind by label.
func loadLabels(ctx context.Context, repo store.Repository[domain.Labeled], what string) (refIndex, error) {
	return loadIndex(ctx, repo, what, labeledKey, labeledID)
}

// find looks up a reference whose cell already passed its format check,
// producing a row error when absent.
func find(idx refIndex, field, value, what string) (int64, error) {
	id, ok := idx.lookup(value)
	if !ok {
		return 0, core.Invalid(field, value, "unknown %s %q", what, value)
	}
	return id, nil
}

// resolveList looks up every item of a comma-separated list.
func resolveList(idx refIndex, field, value, what string) ([]int64, error) {
	var ids []int64
	for _, item := range core.SplitList(value) {
		id, ok := idx.lookup(item)
		if !ok {
			return nil, core.Invalid(field, item, "unknown %s %q", what, item)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// coordinateSystem reads the owner's default system. A missing setting is
// fatal for kinds that store coordinates.
func coordinateSystem(ctx context.Context, settings store.SettingsReader, owner domain.User) (domain.CoordinateSystem, domain.Bounds, error) {
	cs, err := settings.CoordinateSystem(ctx, owner.ID)
	if errors.Is(err, store.ErrNotConfigured) {
		return "", domain.Bounds{}, fmt.Errorf("no default coordinate system configured for user %s: %w", owner.ID, err)
	}
	if err != nil {
		return "", domain.Bounds{}, fmt.Errorf("read user settings: %w", err)
	}
	bounds, ok := cs.Bounds()
	if !ok {
		return "", domain.Bounds{}, fmt.Errorf("unsupported coordinate system %q", cs)
	}
	return cs, bounds, nil
}
