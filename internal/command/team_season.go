package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/and161185/league-keeper/internal/errs"
	"github.com/and161185/league-keeper/internal/model"
	"github.com/and161185/league-keeper/internal/repository"
	"github.com/gofrs/uuid/v5"
)

// NewAddSeasonToTeam builds the command registering a team to a season.
// Registering a team twice is a successful no-op.
func NewAddSeasonToTeam(deps Deps, seasons Seasons, scope *Scope) *Update[*model.Team, model.TeamSeasonUpdate] {
	deps = deps.withDefaults()
	return NewUpdate[*model.Team, model.TeamSeasonUpdate]("Team", deps, newTeamSeasonMutator(deps, seasons, scope, nil))
}

type teamSeasonMutator struct {
	deps    Deps
	seasons Seasons
	flags   *CacheFlags
	known   *model.Season // skips the lookup when the caller already holds the season
}

func newTeamSeasonMutator(deps Deps, seasons Seasons, scope *Scope, known *model.Season) *teamSeasonMutator {
	m := &teamSeasonMutator{deps: deps, seasons: seasons, known: known}
	if scope != nil {
		m.flags = scope.Flags
	}
	return m
}

func (m *teamSeasonMutator) ApplyUpdates(ctx context.Context, user *model.User, team *model.Team, data model.TeamSeasonUpdate) (Result[*model.Team], error) {
	if user == nil {
		return Failure[*model.Team](errs.ErrNotPermitted, "Team cannot be updated, not logged in"), nil
	}
	if !user.Access.ManageTeams && !user.Access.ManageGames {
		return Failure[*model.Team](errs.ErrNotPermitted, "Team cannot be updated, not permitted"), nil
	}

	season := m.known
	if season == nil || season.ID != data.SeasonID {
		var err error
		season, err = m.seasons.Get(ctx, data.SeasonID)
		if errors.Is(err, errs.ErrNotFound) {
			return Failure[*model.Team](errs.ErrNotFound, "Season not found"), nil
		}
		if err != nil {
			return Result[*model.Team]{}, err
		}
	}
	if season.Deleted != nil {
		return Failure[*model.Team](errs.ErrNotFound, "Season not found"), nil
	}

	if existing := team.SeasonRegistration(season.ID); existing != nil {
		if data.DivisionID == nil || sameID(existing.DivisionID, data.DivisionID) {
			res := Success[*model.Team]()
			res.Warnings = []string{"Season already exists"}
			res.Unchanged = true
			return res, nil
		}
		existing.DivisionID = ptr(*data.DivisionID)
		existing.Touch(user.Name, m.deps.now())
		m.evict(season.ID, existing.DivisionID)
		return Success[*model.Team](fmt.Sprintf("Division changed for the %s team", team.Name)), nil
	}

	id, err := m.deps.NewID()
	if err != nil {
		return Result[*model.Team]{}, err
	}
	reg := model.TeamSeason{Audit: model.Audit{ID: id}, SeasonID: season.ID}
	if data.DivisionID != nil {
		reg.DivisionID = ptr(*data.DivisionID)
	}
	reg.Touch(user.Name, m.deps.now())
	team.Seasons = append(team.Seasons, reg)
	m.evict(season.ID, reg.DivisionID)
	return Success[*model.Team](fmt.Sprintf("Season added to the %s team", team.Name)), nil
}

func (m *teamSeasonMutator) evict(seasonID uuid.UUID, divisionID *uuid.UUID) {
	m.flags.EvictSeason(seasonID)
	if divisionID != nil {
		m.flags.EvictDivision(*divisionID)
	}
}

// TeamRegistrar registers stored teams to seasons on behalf of other commands.
type TeamRegistrar interface {
	RegisterTeam(ctx context.Context, scope *Scope, teamID uuid.UUID, season *model.Season, divisionID *uuid.UUID) (Result[*model.Team], error)
}

// StoreRegistrar runs the add-season-to-team command against a team store and persists the team.
type StoreRegistrar struct {
	deps    Deps
	seasons Seasons
	teams   repository.Store[*model.Team]
}

// NewStoreRegistrar constructs a registrar.
func NewStoreRegistrar(deps Deps, seasons Seasons, teams repository.Store[*model.Team]) *StoreRegistrar {
	return &StoreRegistrar{deps: deps.withDefaults(), seasons: seasons, teams: teams}
}

// RegisterTeam loads the team, registers it to season within scope and saves it when it changed.
func (r *StoreRegistrar) RegisterTeam(ctx context.Context, scope *Scope, teamID uuid.UUID, season *model.Season, divisionID *uuid.UUID) (Result[*model.Team], error) {
	team, err := r.teams.Get(ctx, teamID)
	if errors.Is(err, errs.ErrNotFound) {
		return Failure[*model.Team](errs.ErrNotFound, "Team not found"), nil
	}
	if err != nil {
		return Result[*model.Team]{}, err
	}
	expected := team.Updated

	cmd := NewUpdate[*model.Team, model.TeamSeasonUpdate]("Team", r.deps, newTeamSeasonMutator(r.deps, r.seasons, scope, season)).
		WithData(model.TeamSeasonUpdate{
			Envelope:   model.Envelope{ID: team.ID, LastUpdated: team.Updated},
			SeasonID:   season.ID,
			DivisionID: divisionID,
		})
	res, err := cmd.ApplyTo(ctx, team)
	if err != nil || !res.Success || res.Unchanged {
		return res, err
	}
	if err := r.teams.Upsert(ctx, team, expected); err != nil {
		if errors.Is(err, errs.ErrStaleConcurrencyToken) {
			return Failure[*model.Team](errs.ErrStaleConcurrencyToken, fmt.Sprintf("The %s team was updated by someone else", team.Name)), nil
		}
		return Result[*model.Team]{}, err
	}
	return res, nil
}
