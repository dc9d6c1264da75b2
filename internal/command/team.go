package command

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/and161185/league-keeper/internal/errs"
	"github.com/and161185/league-keeper/internal/model"
	"github.com/and161185/league-keeper/internal/repository"
)

// NewUpdateTeam builds the create/update command for teams.
func NewUpdateTeam(deps Deps, teams repository.Store[*model.Team], seasons Seasons, scope *Scope) *Update[*model.Team, model.TeamUpdate] {
	deps = deps.withDefaults()
	return NewUpdate[*model.Team, model.TeamUpdate]("Team", deps, &teamMutator{deps: deps, teams: teams, seasons: seasons, scope: scope})
}

type teamMutator struct {
	deps    Deps
	teams   repository.Store[*model.Team]
	seasons Seasons
	scope   *Scope
}

func (m *teamMutator) ApplyUpdates(ctx context.Context, user *model.User, team *model.Team, data model.TeamUpdate) (Result[*model.Team], error) {
	if user == nil {
		return Failure[*model.Team](errs.ErrNotPermitted, "Team cannot be updated, not logged in"), nil
	}
	if !user.Access.ManageTeams {
		return Failure[*model.Team](errs.ErrNotPermitted, "Team cannot be updated, not permitted"), nil
	}

	name := strings.TrimSpace(data.Name)
	if name == "" {
		return Failure[*model.Team](errs.ErrValidationFailed, "Team name is required"), nil
	}
	if name != team.Name {
		filter, err := json.Marshal(map[string]string{"name": name})
		if err != nil {
			return Result[*model.Team]{}, err
		}
		same, err := m.teams.GetSome(ctx, string(filter))
		if err != nil {
			return Result[*model.Team]{}, err
		}
		for _, other := range same {
			if other.ID != team.ID && other.Deleted == nil {
				return Failure[*model.Team](errs.ErrValidationFailed, "A team with this name already exists"), nil
			}
		}
	}

	address := strings.TrimSpace(data.Address)
	changed := name != team.Name || address != team.Address
	team.Name = name
	team.Address = address

	res := Success[*model.Team]()
	if data.SeasonID != nil {
		sub := newTeamSeasonMutator(m.deps, m.seasons, m.scope, nil)
		sr, err := sub.ApplyUpdates(ctx, user, team, model.TeamSeasonUpdate{
			Envelope:   data.Envelope,
			SeasonID:   *data.SeasonID,
			DivisionID: data.DivisionID,
		})
		if err != nil {
			return Result[*model.Team]{}, err
		}
		if !sr.Success {
			return Failure[*model.Team](errs.ErrDependencyFailed, "Could not add season to team: "+sr.Summary()), nil
		}
		absorb(&res, sr)
		changed = changed || !sr.Unchanged
	}

	if !changed {
		res.Unchanged = true
		return res, nil
	}
	if n := len(team.Seasons); n > 0 && m.scope != nil {
		latest := team.Seasons[n-1]
		m.scope.Flags.EvictSeason(latest.SeasonID)
		if latest.DivisionID != nil {
			m.scope.Flags.EvictDivision(*latest.DivisionID)
		}
	}
	return res, nil
}
