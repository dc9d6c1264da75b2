package command

import (
	"context"
	"errors"
	"slices"
	"strings"

	"github.com/and161185/league-keeper/internal/errs"
	"github.com/and161185/league-keeper/internal/model"
)

// NewUpdateTournamentGame builds the create/update command for tournament games.
func NewUpdateTournamentGame(deps Deps, seasons Seasons, rounds *RoundReconciler, scope *Scope) *Update[*model.TournamentGame, model.TournamentGameUpdate] {
	deps = deps.withDefaults()
	if rounds == nil {
		rounds = NewRoundReconciler(deps.NewID, 0)
	}
	if scope == nil {
		scope = NewScope()
	}
	return NewUpdate[*model.TournamentGame, model.TournamentGameUpdate]("Tournament game", deps, &tournamentMutator{
		seasons: seasons,
		rounds:  rounds,
		flags:   scope.Flags,
	})
}

type tournamentMutator struct {
	seasons Seasons
	rounds  *RoundReconciler
	flags   *CacheFlags
}

func (m *tournamentMutator) ApplyUpdates(ctx context.Context, user *model.User, game *model.TournamentGame, data model.TournamentGameUpdate) (Result[*model.TournamentGame], error) {
	if user == nil {
		return Failure[*model.TournamentGame](errs.ErrNotPermitted, "Tournament game cannot be updated, not logged in"), nil
	}
	if !user.Access.ManageTournaments {
		return Failure[*model.TournamentGame](errs.ErrNotPermitted, "Tournament game cannot be updated, not permitted"), nil
	}

	season, err := m.seasons.Get(ctx, data.SeasonID)
	if errors.Is(err, errs.ErrNotFound) || (err == nil && season.Deleted != nil) {
		return Failure[*model.TournamentGame](errs.ErrNotFound, "Season not found"), nil
	}
	if err != nil {
		return Result[*model.TournamentGame]{}, err
	}

	staged := game.Rounds.Clone()
	root, roundsChanged, err := m.rounds.ReconcileRound(&staged, staged.Root, data.Round)
	switch {
	case errors.Is(err, errs.ErrValidationFailed):
		return Failure[*model.TournamentGame](errs.ErrValidationFailed, err.Error()), nil
	case errors.Is(err, errs.ErrNotFound):
		return Failure[*model.TournamentGame](errs.ErrNotFound, err.Error()), nil
	case err != nil:
		return Result[*model.TournamentGame]{}, err
	}
	staged.Root = root
	staged.Prune()

	address := strings.TrimSpace(data.Address)
	detailsChanged := game.SeasonID != season.ID ||
		!sameID(game.DivisionID, data.DivisionID) ||
		!game.Date.Equal(data.Date) ||
		game.Address != address ||
		game.Type != data.Type ||
		game.Notes != data.Notes
	accoladesChanged := game.AccoladesCount != data.AccoladesCount ||
		!slices.Equal(game.OneEighties, data.OneEighties) ||
		!slices.Equal(game.Over100Checkouts, data.Over100Checkouts)

	game.SeasonID = season.ID
	game.DivisionID = cloneID(data.DivisionID)
	game.Date = data.Date
	game.Address = address
	game.Type = data.Type
	game.Notes = data.Notes
	game.AccoladesCount = data.AccoladesCount
	game.OneEighties = slices.Clone(data.OneEighties)
	game.Over100Checkouts = slices.Clone(data.Over100Checkouts)
	game.Rounds = staged

	if !detailsChanged && !accoladesChanged && !roundsChanged {
		res := Success[*model.TournamentGame]()
		res.Unchanged = true
		return res, nil
	}
	if roundsChanged || detailsChanged {
		m.flags.EvictSeason(game.SeasonID)
	}
	if accoladesChanged && game.DivisionID != nil {
		m.flags.EvictSeason(game.SeasonID)
		m.flags.EvictDivision(*game.DivisionID)
	}
	return Success[*model.TournamentGame](), nil
}
