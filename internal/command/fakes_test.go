package command

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/league-keeper/internal/errs"
	"github.com/and161185/league-keeper/internal/model"
	"github.com/and161185/league-keeper/internal/repository"
)

// memStore keeps JSON copies so callers never share memory with the store.
type memStore[T model.Audited] struct {
	docs    map[uuid.UUID][]byte
	newT    func() T
	getErr  error
	upserts int
}

var _ repository.Store[*model.Team] = (*memStore[*model.Team])(nil)

func newMemStore[T model.Audited](newT func() T, items ...T) *memStore[T] {
	s := &memStore[T]{docs: make(map[uuid.UUID][]byte), newT: newT}
	for _, it := range items {
		b, _ := json.Marshal(it)
		s.docs[it.AuditInfo().ID] = b
	}
	return s
}

func (s *memStore[T]) decode(b []byte) T {
	v := s.newT()
	_ = json.Unmarshal(b, v)
	return v
}

func (s *memStore[T]) Get(_ context.Context, id uuid.UUID) (T, error) {
	var zero T
	if s.getErr != nil {
		return zero, s.getErr
	}
	b, ok := s.docs[id]
	if !ok {
		return zero, fmt.Errorf("get %s: %w", id, errs.ErrNotFound)
	}
	return s.decode(b), nil
}

func (s *memStore[T]) GetAll(_ context.Context) ([]T, error) {
	ids := make([]uuid.UUID, 0, len(s.docs))
	for id := range s.docs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	out := make([]T, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.decode(s.docs[id]))
	}
	return out, nil
}

// GetSome approximates jsonb containment for the filters the commands build.
func (s *memStore[T]) GetSome(ctx context.Context, filter string) ([]T, error) {
	var want any
	if err := json.Unmarshal([]byte(filter), &want); err != nil {
		return nil, errs.ErrValidationFailed
	}
	all, _ := s.GetAll(ctx)
	var out []T
	for _, it := range all {
		b, _ := json.Marshal(it)
		var have any
		_ = json.Unmarshal(b, &have)
		if contains(have, want) {
			out = append(out, it)
		}
	}
	return out, nil
}

func contains(have, want any) bool {
	switch w := want.(type) {
	case map[string]any:
		h, ok := have.(map[string]any)
		if !ok {
			return false
		}
		for k, wv := range w {
			if !contains(h[k], wv) {
				return false
			}
		}
		return true
	case []any:
		h, ok := have.([]any)
		if !ok {
			return false
		}
		for _, wv := range w {
			found := false
			for _, hv := range h {
				if contains(hv, wv) {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
		return true
	default:
		return have == want
	}
}

func (s *memStore[T]) Upsert(_ context.Context, entity T, expected *time.Time) error {
	a := entity.AuditInfo()
	if b, ok := s.docs[a.ID]; ok {
		current := s.decode(b).AuditInfo().Updated
		if (current == nil) != (expected == nil) || (current != nil && !current.Equal(*expected)) {
			return errs.ErrStaleConcurrencyToken
		}
	}
	b, err := json.Marshal(entity)
	if err != nil {
		return err
	}
	s.docs[a.ID] = b
	s.upserts++
	return nil
}

func (s *memStore[T]) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := s.docs[id]; !ok {
		return errs.ErrNotFound
	}
	delete(s.docs, id)
	return nil
}

type fakeSeasons struct {
	byID map[uuid.UUID]*model.Season
	err  error
}

func newFakeSeasons(seasons ...*model.Season) *fakeSeasons {
	f := &fakeSeasons{byID: make(map[uuid.UUID]*model.Season)}
	for _, s := range seasons {
		f.byID[s.ID] = s
	}
	return f
}

func (f *fakeSeasons) Get(_ context.Context, id uuid.UUID) (*model.Season, error) {
	if f.err != nil {
		return nil, f.err
	}
	s, ok := f.byID[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (f *fakeSeasons) ForDate(_ context.Context, date time.Time) (*model.Season, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, s := range f.byID {
		if s.Deleted == nil && s.Covers(date) {
			cp := *s
			return &cp, nil
		}
	}
	return nil, errs.ErrNotFound
}

type registration struct {
	teamID     uuid.UUID
	seasonID   uuid.UUID
	divisionID *uuid.UUID
}

type fakeRegistrar struct {
	calls   []registration
	results map[uuid.UUID]Result[*model.Team]
	err     error
}

func (f *fakeRegistrar) RegisterTeam(_ context.Context, _ *Scope, teamID uuid.UUID, season *model.Season, divisionID *uuid.UUID) (Result[*model.Team], error) {
	f.calls = append(f.calls, registration{teamID: teamID, seasonID: season.ID, divisionID: divisionID})
	if f.err != nil {
		return Result[*model.Team]{}, f.err
	}
	if r, ok := f.results[teamID]; ok {
		return r, nil
	}
	return Success[*model.Team](), nil
}

var testNow = time.Date(2026, 3, 4, 19, 30, 15, 123456789, time.UTC)

// testDeps returns deps with a fixed clock and the given caller.
func testDeps(user *model.User) Deps {
	return Deps{
		Users: UserFunc(func(context.Context) (*model.User, error) { return user, nil }),
		Clock: func() time.Time { return testNow },
		NewID: uuid.NewV4,
	}
}

func newID() uuid.UUID { return uuid.Must(uuid.NewV4()) }

func ptrTo[T any](v T) *T { return &v }

func admin() *model.User {
	return &model.User{Name: "admin", Access: model.Access{
		ManageGames: true, ManageScores: true, ManageTeams: true, ManageSeasons: true, ManageTournaments: true,
	}}
}
