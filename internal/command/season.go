package command

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/and161185/league-keeper/internal/errs"
	"github.com/and161185/league-keeper/internal/model"
	"github.com/and161185/league-keeper/internal/repository"
	"github.com/gofrs/uuid/v5"
)

// NewUpdateSeason builds the create/update command for seasons.
func NewUpdateSeason(deps Deps, teams repository.Store[*model.Team], registrar TeamRegistrar, scope *Scope) *Update[*model.Season, model.SeasonUpdate] {
	deps = deps.withDefaults()
	return NewUpdate[*model.Season, model.SeasonUpdate]("Season", deps, &seasonMutator{teams: teams, registrar: registrar, scope: scope})
}

type seasonMutator struct {
	teams     repository.Store[*model.Team]
	registrar TeamRegistrar
	scope     *Scope
}

func (m *seasonMutator) ApplyUpdates(ctx context.Context, user *model.User, season *model.Season, data model.SeasonUpdate) (Result[*model.Season], error) {
	if user == nil {
		return Failure[*model.Season](errs.ErrNotPermitted, "Season cannot be updated, not logged in"), nil
	}
	if !user.Access.ManageSeasons {
		return Failure[*model.Season](errs.ErrNotPermitted, "Season cannot be updated, not permitted"), nil
	}
	name := strings.TrimSpace(data.Name)
	if name == "" {
		return Failure[*model.Season](errs.ErrValidationFailed, "Season name is required"), nil
	}
	if !data.EndDate.After(data.StartDate) {
		return Failure[*model.Season](errs.ErrValidationFailed, "Season end date must be after the start date"), nil
	}
	if data.CopyTeamsFromSeasonID != nil && *data.CopyTeamsFromSeasonID == season.ID {
		return Failure[*model.Season](errs.ErrValidationFailed, "Cannot copy teams from the same season"), nil
	}

	divisions := uniqueIDs(data.Divisions)
	changed := name != season.Name ||
		!data.StartDate.Equal(season.StartDate) ||
		!data.EndDate.Equal(season.EndDate) ||
		!slices.Equal(divisions, season.Divisions)

	season.Name = name
	season.StartDate = data.StartDate
	season.EndDate = data.EndDate
	season.Divisions = divisions

	res := Success[*model.Season]()
	if data.CopyTeamsFromSeasonID != nil {
		copied, err := m.copyTeams(ctx, season, *data.CopyTeamsFromSeasonID)
		if err != nil {
			return Result[*model.Season]{}, err
		}
		if !copied.Success {
			return copied, nil
		}
		absorb(&res, copied)
	}

	if !changed && len(res.Messages) == 0 {
		res.Unchanged = true
		return res, nil
	}
	if m.scope != nil {
		m.scope.Flags.EvictSeason(season.ID)
	}
	return res, nil
}

func (m *seasonMutator) copyTeams(ctx context.Context, season *model.Season, fromID uuid.UUID) (Result[*model.Season], error) {
	filter := fmt.Sprintf(`{"seasons":[{"seasonId":%q}]}`, fromID.String())
	teams, err := m.teams.GetSome(ctx, filter)
	if err != nil {
		return Result[*model.Season]{}, err
	}

	var (
		failures []string
		copied   int
	)
	for _, team := range teams {
		if err := ctx.Err(); err != nil {
			return Result[*model.Season]{}, err
		}
		reg := team.SeasonRegistration(fromID)
		if team.Deleted != nil || reg == nil {
			continue
		}
		r, err := m.registrar.RegisterTeam(ctx, m.scope, team.ID, season, reg.DivisionID)
		if err != nil {
			return Result[*model.Season]{}, err
		}
		switch {
		case !r.Success:
			failures = append(failures, fmt.Sprintf("%s: %s", team.Name, r.Summary()))
		case !r.Unchanged:
			copied++
		}
	}
	if len(failures) > 0 {
		return Failure[*model.Season](errs.ErrDependencyFailed, "Could not copy teams to season: "+strings.Join(failures, ", ")), nil
	}
	if copied == 0 {
		return Success[*model.Season](), nil
	}
	return Success[*model.Season](fmt.Sprintf("%d team(s) copied to the season", copied)), nil
}

func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	var out []uuid.UUID
	seen := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		if id == uuid.Nil || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
