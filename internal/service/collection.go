package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/league-keeper/internal/errs"
	"github.com/and161185/league-keeper/internal/model"
	"github.com/and161185/league-keeper/internal/repository"
)

// Collection is the type-erased view of a store used by the command pipeline.
type Collection interface {
	Load(ctx context.Context, id uuid.UUID) (model.Audited, error)
	Save(ctx context.Context, entity model.Audited, expected *time.Time) error
}

type erased[T model.Audited] struct {
	store repository.Store[T]
}

// Erase adapts a typed store to Collection.
func Erase[T model.Audited](store repository.Store[T]) Collection {
	return erased[T]{store: store}
}

func (e erased[T]) Load(ctx context.Context, id uuid.UUID) (model.Audited, error) {
	entity, err := e.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return entity, nil
}

func (e erased[T]) Save(ctx context.Context, entity model.Audited, expected *time.Time) error {
	typed, ok := entity.(T)
	if !ok {
		return fmt.Errorf("save %T: %w", entity, errs.ErrWrongType)
	}
	return e.store.Upsert(ctx, typed, expected)
}

// SeasonLookup resolves seasons for commands from the season store.
type SeasonLookup struct {
	seasons repository.Store[*model.Season]
}

// NewSeasonLookup constructs a SeasonLookup.
func NewSeasonLookup(seasons repository.Store[*model.Season]) *SeasonLookup {
	return &SeasonLookup{seasons: seasons}
}

// Get returns the season with the given identity.
func (l *SeasonLookup) Get(ctx context.Context, id uuid.UUID) (*model.Season, error) {
	return l.seasons.Get(ctx, id)
}

// ForDate returns the live season covering date. Overlapping seasons resolve to the one that
// started last.
func (l *SeasonLookup) ForDate(ctx context.Context, date time.Time) (*model.Season, error) {
	all, err := l.seasons.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	var covering []*model.Season
	for _, s := range all {
		if s.Deleted == nil && s.Covers(date) {
			covering = append(covering, s)
		}
	}
	if len(covering) == 0 {
		return nil, fmt.Errorf("season for %s: %w", date.Format(time.DateOnly), errs.ErrNotFound)
	}
	sort.SliceStable(covering, func(i, j int) bool { return covering[i].StartDate.After(covering[j].StartDate) })
	return covering[0], nil
}
