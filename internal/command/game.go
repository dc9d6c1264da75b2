package command

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/and161185/league-keeper/internal/errs"
	"github.com/and161185/league-keeper/internal/model"
	"github.com/and161185/league-keeper/internal/repository"
	"github.com/gofrs/uuid/v5"
)

// Checkout bounds for the over-100 accolade.
const (
	MinHighCheckout = 101
	MaxHighCheckout = 170
)

// NewUpdateGame builds the create/update command for games. Depending on the caller's rights it
// edits fixture details, the canonical results, or the caller's team submission.
func NewUpdateGame(deps Deps, teams repository.Store[*model.Team], seasons Seasons, registrar TeamRegistrar, scope *Scope) *Update[*model.Game, model.GameUpdate] {
	deps = deps.withDefaults()
	if scope == nil {
		scope = NewScope()
	}
	return NewUpdate[*model.Game, model.GameUpdate]("Game", deps, &gameMutator{
		deps:      deps,
		teams:     teams,
		seasons:   seasons,
		registrar: registrar,
		scope:     scope,
	})
}

type gameMutator struct {
	deps      Deps
	teams     repository.Store[*model.Team]
	seasons   Seasons
	registrar TeamRegistrar
	scope     *Scope
}

func (m *gameMutator) ApplyUpdates(ctx context.Context, user *model.User, game *model.Game, data model.GameUpdate) (Result[*model.Game], error) {
	if user == nil {
		return Failure[*model.Game](errs.ErrNotPermitted, "Game cannot be updated, not logged in"), nil
	}
	access := user.Access
	if game.Home.ID == uuid.Nil && !access.ManageGames {
		return Failure[*model.Game](errs.ErrNotPermitted, "Game cannot be created, not permitted"), nil
	}

	if !access.ManageGames && !access.ManageScores && !access.InputResults {
		return Failure[*model.Game](errs.ErrNotPermitted, "Game cannot be updated, not permitted"), nil
	}

	// every check runs before the team registrations, which persist on their own
	if access.ManageScores || access.InputResults {
		if r := validateResults(data); !r.Success {
			return r, nil
		}
	}
	var slot **model.ScoreSubmission
	if access.InputResults && !access.ManageScores {
		var r Result[*model.Game]
		if slot, r = submissionSlot(user, game); !r.Success {
			return r, nil
		}
	}
	var details *detailsPlan
	if access.ManageGames {
		var (
			r   Result[*model.Game]
			err error
		)
		if details, r, err = m.planDetails(ctx, game, data); err != nil || !r.Success {
			return r, err
		}
	}

	res := Success[*model.Game]()
	switch {
	case access.ManageScores:
		if err := m.updateScores(game, data); err != nil {
			return Result[*model.Game]{}, err
		}
	case slot != nil:
		r, err := m.submit(user, game, slot, data)
		if err != nil {
			return r, err
		}
		absorb(&res, r)
	}
	if details != nil {
		r, err := m.updateDetails(ctx, game, details)
		if err != nil || !r.Success {
			return r, err
		}
		absorb(&res, r)
	}
	return res, nil
}

// detailsPlan is a validated set of fixture-level changes.
type detailsPlan struct {
	data   model.GameUpdate
	home   *model.Team
	away   *model.Team
	season *model.Season
}

// planDetails validates fixture-level fields and resolves the teams and season they refer to.
func (m *gameMutator) planDetails(ctx context.Context, game *model.Game, data model.GameUpdate) (*detailsPlan, Result[*model.Game], error) {
	if data.HomeTeamID == uuid.Nil || data.AwayTeamID == uuid.Nil {
		return nil, Failure[*model.Game](errs.ErrValidationFailed, "Home and away teams are required"), nil
	}
	if data.HomeTeamID == data.AwayTeamID {
		return nil, Failure[*model.Game](errs.ErrValidationFailed, "Unable to update a game where the home team and away team are the same"), nil
	}
	if strings.TrimSpace(data.Address) == "" {
		return nil, Failure[*model.Game](errs.ErrValidationFailed, "Game address is required"), nil
	}

	home, r, err := m.team(ctx, data.HomeTeamID, "Home")
	if err != nil || !r.Success {
		return nil, r, err
	}
	away, r, err := m.team(ctx, data.AwayTeamID, "Away")
	if err != nil || !r.Success {
		return nil, r, err
	}

	season, err := m.seasons.ForDate(ctx, data.Date)
	if errors.Is(err, errs.ErrNotFound) {
		return nil, Failure[*model.Game](errs.ErrNotFound, fmt.Sprintf("Unable to find season for date %s", data.Date.Format("2 Jan 2006"))), nil
	}
	if err != nil {
		return nil, Result[*model.Game]{}, err
	}

	return &detailsPlan{data: data, home: home, away: away, season: season}, Success[*model.Game](), nil
}

// updateDetails applies planned fixture-level fields and registers both teams to the game's season.
func (m *gameMutator) updateDetails(ctx context.Context, game *model.Game, plan *detailsPlan) (Result[*model.Game], error) {
	data, home, away, season := plan.data, plan.home, plan.away, plan.season
	address := strings.TrimSpace(data.Address)
	changed := !game.Date.Equal(data.Date) ||
		game.Address != address ||
		game.Postponed != data.Postponed ||
		game.IsKnockout != data.IsKnockout ||
		game.Home.ID != home.ID ||
		game.Away.ID != away.ID ||
		game.SeasonID != season.ID ||
		game.DivisionID != data.DivisionID
	renamed := game.Home.Name != home.Name || game.Away.Name != away.Name ||
		game.AccoladesCount != data.AccoladesCount

	if game.Home.ID != home.ID {
		game.Home.ManOfTheMatch = nil
	}
	if game.Away.ID != away.ID {
		game.Away.ManOfTheMatch = nil
	}
	game.Date = data.Date
	game.Address = address
	game.Postponed = data.Postponed
	game.IsKnockout = data.IsKnockout
	game.AccoladesCount = data.AccoladesCount
	game.SeasonID = season.ID
	game.DivisionID = data.DivisionID
	game.Home.ID, game.Home.Name = home.ID, home.Name
	game.Away.ID, game.Away.Name = away.ID, away.Name

	if !changed {
		if renamed {
			m.evict(game)
		}
		return Success[*model.Game](), nil
	}

	var division *uuid.UUID
	if data.DivisionID != uuid.Nil && !data.IsKnockout {
		division = ptr(data.DivisionID)
	}
	homeRes, err := m.registrar.RegisterTeam(ctx, m.scope, home.ID, season, division)
	if err != nil {
		return Result[*model.Game]{}, fmt.Errorf("register home team: %w", err)
	}
	awayRes, err := m.registrar.RegisterTeam(ctx, m.scope, away.ID, season, division)
	if err != nil {
		return Result[*model.Game]{}, fmt.Errorf("register away team: %w", err)
	}
	if !homeRes.Success || !awayRes.Success {
		return Failure[*model.Game](errs.ErrDependencyFailed, fmt.Sprintf(
			"Could not add season to home and/or away teams: Home: %s, Away: %s",
			describe(homeRes), describe(awayRes))), nil
	}

	m.evict(game)
	return Success[*model.Game](), nil
}

func (m *gameMutator) team(ctx context.Context, id uuid.UUID, side string) (*model.Team, Result[*model.Game], error) {
	team, err := m.teams.Get(ctx, id)
	if errors.Is(err, errs.ErrNotFound) || (err == nil && team.Deleted != nil) {
		return nil, Failure[*model.Game](errs.ErrNotFound, side+" team not found"), nil
	}
	if err != nil {
		return nil, Result[*model.Game]{}, err
	}
	return team, Success[*model.Game](), nil
}

// updateScores overwrites the canonical results without any submission bookkeeping.
func (m *gameMutator) updateScores(game *model.Game, data model.GameUpdate) error {
	before := resultsOf(game)
	matches, err := adaptGameMatches(game.Matches, data.Matches, m.deps.NewID)
	if err != nil {
		return err
	}
	game.Matches = matches
	game.MatchOptions = WithMatchOptionDefaults(data.MatchOptions, matches)
	game.OneEighties = slices.Clone(data.OneEighties)
	game.Over100Checkouts = slices.Clone(data.Over100Checkouts)
	game.Home.ManOfTheMatch = cloneID(data.HomeManOfTheMatch)
	game.Away.ManOfTheMatch = cloneID(data.AwayManOfTheMatch)
	if !reflect.DeepEqual(before, resultsOf(game)) {
		m.evict(game)
	}
	return nil
}

// submissionSlot picks the submission the caller's team owns, refusing strangers and published games.
func submissionSlot(user *model.User, game *model.Game) (**model.ScoreSubmission, Result[*model.Game]) {
	var slot **model.ScoreSubmission
	switch {
	case user.OnTeam(game.Home.ID):
		slot = &game.HomeSubmission
	case user.OnTeam(game.Away.ID):
		slot = &game.AwaySubmission
	default:
		return nil, Failure[*model.Game](errs.ErrNotPermitted, "Game results can only be submitted by the home or away team")
	}
	if game.Published {
		return nil, Failure[*model.Game](errs.ErrNotPermitted, "Game has been published, results cannot be changed")
	}
	return slot, Success[*model.Game]()
}

// submit records the caller's team submission and publishes when both teams agree.
func (m *gameMutator) submit(user *model.User, game *model.Game, slot **model.ScoreSubmission, data model.GameUpdate) (Result[*model.Game], error) {
	var previous []model.GameMatch
	if *slot != nil {
		previous = (*slot).Matches
	}
	matches, err := adaptGameMatches(previous, data.Matches, m.deps.NewID)
	if err != nil {
		return Result[*model.Game]{}, err
	}
	*slot = &model.ScoreSubmission{
		Editor:            user.Name,
		Updated:           ptr(m.deps.now()),
		Matches:           matches,
		MatchOptions:      WithMatchOptionDefaults(data.MatchOptions, matches),
		OneEighties:       slices.Clone(data.OneEighties),
		Over100Checkouts:  slices.Clone(data.Over100Checkouts),
		HomeManOfTheMatch: cloneID(data.HomeManOfTheMatch),
		AwayManOfTheMatch: cloneID(data.AwayManOfTheMatch),
	}

	if !SubmissionsAgree(game.HomeSubmission, game.AwaySubmission) {
		return Success[*model.Game]("Submission saved"), nil
	}
	if err := publish(game, game.HomeSubmission, m.deps.NewID); err != nil {
		return Result[*model.Game]{}, err
	}
	m.evict(game)
	return Success[*model.Game]("Submission published"), nil
}

func (m *gameMutator) evict(game *model.Game) {
	m.scope.Flags.EvictDivision(game.DivisionID)
	m.scope.Flags.EvictSeason(game.SeasonID)
}

// validateResults rejects impossible scores and accolades.
func validateResults(data model.GameUpdate) Result[*model.Game] {
	for i, match := range data.Matches {
		if (match.HomeScore != nil && *match.HomeScore < 0) || (match.AwayScore != nil && *match.AwayScore < 0) {
			return Failure[*model.Game](errs.ErrValidationFailed, fmt.Sprintf("Match %d has a negative score", i+1))
		}
	}
	for _, p := range data.Over100Checkouts {
		if p.Score < MinHighCheckout || p.Score > MaxHighCheckout {
			return Failure[*model.Game](errs.ErrValidationFailed, fmt.Sprintf("Checkout of %d by %s is not a valid high checkout", p.Score, p.Name))
		}
	}
	return Success[*model.Game]()
}

type gameResults struct {
	matches   []model.GameMatch
	options   []model.GameMatchOption
	oneEights []model.GamePlayer
	checkouts []model.NotablePlayer
	homeMoM   *uuid.UUID
	awayMoM   *uuid.UUID
}

func resultsOf(g *model.Game) gameResults {
	return gameResults{
		matches:   g.Matches,
		options:   g.MatchOptions,
		oneEights: g.OneEighties,
		checkouts: g.Over100Checkouts,
		homeMoM:   g.Home.ManOfTheMatch,
		awayMoM:   g.Away.ManOfTheMatch,
	}
}

func describe[T any](r Result[T]) string {
	if r.Success {
		return "OK"
	}
	return r.Summary()
}
