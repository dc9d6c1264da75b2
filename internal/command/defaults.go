package command

import (
	"github.com/and161185/league-keeper/internal/model"
	"github.com/and161185/league-keeper/internal/repository"
)

// Options tunes the default registry.
type Options struct {
	MaxRoundDepth int
}

// NewDefaultRegistry registers every league command.
func NewDefaultRegistry(deps Deps, teams repository.Store[*model.Team], seasons Seasons, opts Options) *Registry {
	deps = deps.withDefaults()
	registrar := NewStoreRegistrar(deps, seasons, teams)
	rounds := NewRoundReconciler(deps.NewID, opts.MaxRoundDepth)
	r := NewRegistry()

	r.Register(KindTeam, Registration{
		Entity: "Team",
		Update: func(s *Scope) Command { return NewUpdateTeam(deps, teams, seasons, s) },
		Delete: func(s *Scope) Command {
			return NewDelete("Team", deps, DeletePolicy[*model.Team]{
				Permit: func(u *model.User) bool { return u.Access.ManageTeams },
				Evict: func(f *CacheFlags, t *model.Team) {
					for _, reg := range t.Seasons {
						f.EvictSeason(reg.SeasonID)
						if reg.DivisionID != nil {
							f.EvictDivision(*reg.DivisionID)
						}
					}
				},
			}, s)
		},
		NewEntity: func() model.Audited { return &model.Team{} },
		NewData:   func() any { return &model.TeamUpdate{} },
	})

	r.Register(KindSeason, Registration{
		Entity: "Season",
		Update: func(s *Scope) Command { return NewUpdateSeason(deps, teams, registrar, s) },
		Delete: func(s *Scope) Command {
			return NewDelete("Season", deps, DeletePolicy[*model.Season]{
				Permit: func(u *model.User) bool { return u.Access.ManageSeasons },
				Evict:  func(f *CacheFlags, season *model.Season) { f.EvictSeason(season.ID) },
			}, s)
		},
		NewEntity: func() model.Audited { return &model.Season{} },
		NewData:   func() any { return &model.SeasonUpdate{} },
	})

	r.Register(KindTeamSeason, Registration{
		Entity:    "Team",
		Update:    func(s *Scope) Command { return NewAddSeasonToTeam(deps, seasons, s) },
		NewEntity: func() model.Audited { return &model.Team{} },
		NewData:   func() any { return &model.TeamSeasonUpdate{} },
		Existing:  true,
	})

	r.Register(KindGame, Registration{
		Entity: "Game",
		Update: func(s *Scope) Command { return NewUpdateGame(deps, teams, seasons, registrar, s) },
		Delete: func(s *Scope) Command {
			return NewDelete("Game", deps, DeletePolicy[*model.Game]{
				Permit: func(u *model.User) bool { return u.Access.ManageGames },
				Evict: func(f *CacheFlags, g *model.Game) {
					f.EvictDivision(g.DivisionID)
					f.EvictSeason(g.SeasonID)
				},
			}, s)
		},
		NewEntity: func() model.Audited { return &model.Game{} },
		NewData:   func() any { return &model.GameUpdate{} },
	})

	r.Register(KindTournamentGame, Registration{
		Entity: "Tournament game",
		Update: func(s *Scope) Command { return NewUpdateTournamentGame(deps, seasons, rounds, s) },
		Delete: func(s *Scope) Command {
			return NewDelete("Tournament game", deps, DeletePolicy[*model.TournamentGame]{
				Permit: func(u *model.User) bool { return u.Access.ManageTournaments },
				Evict: func(f *CacheFlags, g *model.TournamentGame) {
					f.EvictSeason(g.SeasonID)
					if g.DivisionID != nil {
						f.EvictDivision(*g.DivisionID)
					}
				},
			}, s)
		},
		NewEntity: func() model.Audited { return &model.TournamentGame{} },
		NewData:   func() any { return &model.TournamentGameUpdate{} },
	})

	return r
}
