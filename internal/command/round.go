package command

import (
	"fmt"
	"slices"
	"strings"

	"github.com/and161185/league-keeper/internal/errs"
	"github.com/and161185/league-keeper/internal/model"
	"github.com/gofrs/uuid/v5"
)

// DefaultMaxRoundDepth bounds the length of a round chain.
const DefaultMaxRoundDepth = 64

// SideResolver translates side references of an incoming match into stored side identities.
type SideResolver interface {
	Resolve(ref model.SideRef) (uuid.UUID, bool)
}

// MatchAdapter converts an incoming match into its stored shape.
type MatchAdapter interface {
	Adapt(dto model.TournamentMatchDto, sides SideResolver) (model.TournamentMatch, error)
}

// SideRefAdapter is the default MatchAdapter. A reference with neither identity nor name is a bye.
type SideRefAdapter struct{}

// Adapt implements MatchAdapter.
func (SideRefAdapter) Adapt(dto model.TournamentMatchDto, sides SideResolver) (model.TournamentMatch, error) {
	a, err := resolveSide(dto.SideA, sides, false)
	if err != nil {
		return model.TournamentMatch{}, err
	}
	b, err := resolveSide(dto.SideB, sides, true)
	if err != nil {
		return model.TournamentMatch{}, err
	}
	if a == b {
		return model.TournamentMatch{}, fmt.Errorf("%w: a match cannot be played between a side and itself", errs.ErrValidationFailed)
	}
	return model.TournamentMatch{
		ID:     dto.ID,
		SideA:  a,
		SideB:  b,
		ScoreA: cloneInt(dto.ScoreA),
		ScoreB: cloneInt(dto.ScoreB),
	}, nil
}

func resolveSide(ref model.SideRef, sides SideResolver, byeAllowed bool) (uuid.UUID, error) {
	if byeAllowed && ref.ID == uuid.Nil && strings.TrimSpace(ref.Name) == "" {
		return uuid.Nil, nil
	}
	id, ok := sides.Resolve(ref)
	if !ok {
		label := ref.Name
		if label == "" {
			label = ref.ID.String()
		}
		return uuid.Nil, fmt.Errorf("%w: side %s is not part of the round", errs.ErrNotFound, label)
	}
	return id, nil
}

// RoundReconciler merges an incoming round tree into a RoundArena, keeping the identities of
// rounds, sides, players and matches the caller sent back and allocating the rest.
type RoundReconciler struct {
	Adapter  MatchAdapter
	NewID    func() (uuid.UUID, error)
	MaxDepth int
}

// NewRoundReconciler returns a reconciler with the default adapter; maxDepth <= 0 selects the default depth.
func NewRoundReconciler(newID func() (uuid.UUID, error), maxDepth int) *RoundReconciler {
	if newID == nil {
		newID = uuid.NewV4
	}
	if maxDepth <= 0 {
		maxDepth = DefaultMaxRoundDepth
	}
	return &RoundReconciler{Adapter: SideRefAdapter{}, NewID: newID, MaxDepth: maxDepth}
}

// ReconcileRound reconciles incoming against the round storedID of arena and its successors.
// It returns the identity the parent must reference and whether anything changed. A nil
// incoming round leaves the stored chain from storedID onwards untouched. Stored rounds are
// replaced in the arena, never mutated.
func (r *RoundReconciler) ReconcileRound(arena *model.RoundArena, storedID uuid.UUID, incoming *model.TournamentRoundDto) (uuid.UUID, bool, error) {
	return r.reconcile(arena, storedID, incoming, 0)
}

func (r *RoundReconciler) reconcile(arena *model.RoundArena, storedID uuid.UUID, in *model.TournamentRoundDto, depth int) (uuid.UUID, bool, error) {
	if in == nil {
		return storedID, false, nil
	}
	if depth >= r.MaxDepth {
		return uuid.Nil, false, fmt.Errorf("%w: a tournament cannot have more than %d rounds", errs.ErrValidationFailed, r.MaxDepth)
	}

	stored := arena.Get(storedID)
	out := &model.TournamentRound{Name: strings.TrimSpace(in.Name)}
	if stored != nil {
		out.ID = stored.ID
	} else {
		id, err := r.NewID()
		if err != nil {
			return uuid.Nil, false, err
		}
		out.ID = id
	}
	if len(in.MatchOptions) > len(in.Matches) {
		return uuid.Nil, false, fmt.Errorf("%w: round %s has %d match options for %d matches",
			errs.ErrValidationFailed, roundLabel(out), len(in.MatchOptions), len(in.Matches))
	}

	resolver, err := r.sides(out, stored, in.Sides)
	if err != nil {
		return uuid.Nil, false, err
	}
	for _, dto := range in.Matches {
		m, err := r.Adapter.Adapt(dto, resolver)
		if err != nil {
			return uuid.Nil, false, fmt.Errorf("round %s: %w", roundLabel(out), err)
		}
		if m.ID == uuid.Nil {
			if m.ID, err = r.NewID(); err != nil {
				return uuid.Nil, false, err
			}
		}
		out.Matches = append(out.Matches, m)
	}
	for _, o := range in.MatchOptions {
		out.MatchOptions = append(out.MatchOptions, model.GameMatchOption{
			PlayerCount:   o.PlayerCount,
			StartingScore: cloneInt(o.StartingScore),
			NumberOfLegs:  cloneInt(o.NumberOfLegs),
		})
	}

	var storedNext uuid.UUID
	if stored != nil {
		storedNext = stored.NextRound
	}
	next, nextChanged, err := r.reconcile(arena, storedNext, in.NextRound, depth+1)
	if err != nil {
		return uuid.Nil, false, err
	}
	out.NextRound = next

	changed := stored == nil || nextChanged || !sameRound(stored, out)
	arena.Put(out)
	return out.ID, changed, nil
}

// sides rebuilds the side list of out from incoming and returns the resolver for its matches.
func (r *RoundReconciler) sides(out, stored *model.TournamentRound, incoming []model.TournamentSideDto) (*sideIndex, error) {
	var old []model.TournamentSide
	if stored != nil {
		old = stored.Sides
	}
	byID := make(map[uuid.UUID]int, len(old))
	for i, s := range old {
		byID[s.ID] = i
	}
	claimed := make(map[uuid.UUID]bool, len(incoming))
	for _, s := range incoming {
		if _, ok := byID[s.ID]; ok && s.ID != uuid.Nil {
			claimed[s.ID] = true
		}
	}

	idx := &sideIndex{ids: make(map[uuid.UUID]uuid.UUID, len(incoming)), names: make(map[string]uuid.UUID, len(incoming))}
	used := make(map[uuid.UUID]bool, len(incoming))
	for i, s := range incoming {
		var id uuid.UUID
		switch j, ok := byID[s.ID]; {
		case s.ID == uuid.Nil:
			var err error
			if id, err = r.NewID(); err != nil {
				return nil, err
			}
		case ok:
			id = old[j].ID
		case i < len(old) && !claimed[old[i].ID] && !used[old[i].ID]:
			// unknown identity at the position of an unclaimed stored side: a rename in place
			id = old[i].ID
		default:
			id = s.ID
		}
		if used[id] {
			return nil, fmt.Errorf("%w: round %s lists side %s more than once", errs.ErrValidationFailed, roundLabel(out), id)
		}
		used[id] = true

		side := model.TournamentSide{ID: id, Name: strings.TrimSpace(s.Name)}
		var err error
		if side.Players, err = r.players(s.Players); err != nil {
			return nil, err
		}
		out.Sides = append(out.Sides, side)

		if s.ID != uuid.Nil {
			idx.ids[s.ID] = id
		}
		idx.ids[id] = id
		if key := sideKey(side.Name); key != "" {
			if _, dup := idx.names[key]; !dup {
				idx.names[key] = id
			}
		}
	}
	return idx, nil
}

// players keeps every identity the caller sent and allocates the missing ones.
func (r *RoundReconciler) players(incoming []model.TournamentPlayer) ([]model.TournamentPlayer, error) {
	if len(incoming) == 0 {
		return nil, nil
	}
	out := make([]model.TournamentPlayer, 0, len(incoming))
	for _, p := range incoming {
		id := p.ID
		if id == uuid.Nil {
			var err error
			if id, err = r.NewID(); err != nil {
				return nil, err
			}
		}
		out = append(out, model.TournamentPlayer{ID: id, Name: strings.TrimSpace(p.Name)})
	}
	return out, nil
}

type sideIndex struct {
	ids   map[uuid.UUID]uuid.UUID // incoming or stored identity -> stored identity
	names map[string]uuid.UUID
}

// Resolve implements SideResolver. Identity wins over name.
func (x *sideIndex) Resolve(ref model.SideRef) (uuid.UUID, bool) {
	if ref.ID != uuid.Nil {
		if id, ok := x.ids[ref.ID]; ok {
			return id, true
		}
	}
	id, ok := x.names[sideKey(ref.Name)]
	return id, ok && sideKey(ref.Name) != ""
}

func sideKey(name string) string { return strings.ToLower(strings.TrimSpace(name)) }

func roundLabel(r *model.TournamentRound) string {
	if r.Name != "" {
		return r.Name
	}
	return r.ID.String()
}

// sameRound compares round content; nil and empty collections are equal.
func sameRound(a, b *model.TournamentRound) bool {
	return a.ID == b.ID &&
		a.Name == b.Name &&
		a.NextRound == b.NextRound &&
		slices.EqualFunc(a.Sides, b.Sides, func(x, y model.TournamentSide) bool {
			return x.ID == y.ID && x.Name == y.Name && slices.Equal(x.Players, y.Players)
		}) &&
		slices.EqualFunc(a.Matches, b.Matches, func(x, y model.TournamentMatch) bool {
			return x.ID == y.ID && x.SideA == y.SideA && x.SideB == y.SideB &&
				sameInt(x.ScoreA, y.ScoreA) && sameInt(x.ScoreB, y.ScoreB)
		}) &&
		slices.EqualFunc(a.MatchOptions, b.MatchOptions, sameOption)
}

func sameOption(x, y model.GameMatchOption) bool {
	return x.PlayerCount == y.PlayerCount && sameInt(x.StartingScore, y.StartingScore) && sameInt(x.NumberOfLegs, y.NumberOfLegs)
}
