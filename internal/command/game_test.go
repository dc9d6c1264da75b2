package command

import (
	"context"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/stretchr/testify/require"

	"github.com/and161185/league-keeper/internal/errs"
	"github.com/and161185/league-keeper/internal/model"
)

type gameFixture struct {
	season    *model.Season
	division  uuid.UUID
	home      *model.Team
	away      *model.Team
	teams     *memStore[*model.Team]
	seasons   *fakeSeasons
	registrar *fakeRegistrar
	updated   time.Time
}

func newGameFixture() *gameFixture {
	f := &gameFixture{
		season:    testSeason(),
		division:  newID(),
		home:      &model.Team{Audit: model.Audit{ID: newID()}, Name: "Hawks"},
		away:      &model.Team{Audit: model.Audit{ID: newID()}, Name: "Owls"},
		registrar: &fakeRegistrar{},
		updated:   testNow.Add(-time.Hour).Truncate(time.Microsecond),
	}
	f.teams = newTeamStore(f.home, f.away)
	f.seasons = newFakeSeasons(f.season)
	return f
}

// storedGame is a fixture already persisted between the two teams.
func (f *gameFixture) storedGame() *model.Game {
	return &model.Game{
		Audit:      model.Audit{ID: newID(), Updated: ptrTo(f.updated), Editor: "Simon"},
		DivisionID: f.division,
		SeasonID:   f.season.ID,
		Date:       time.Date(2026, 2, 1, 20, 0, 0, 0, time.UTC),
		Address:    "The Swan",
		Home:       model.GameTeam{ID: f.home.ID, Name: f.home.Name},
		Away:       model.GameTeam{ID: f.away.ID, Name: f.away.Name},
	}
}

func (f *gameFixture) apply(t *testing.T, user *model.User, game *model.Game, data model.GameUpdate, scope *Scope) Result[*model.Game] {
	t.Helper()
	if !game.IsNew() {
		data.LastUpdated = game.Updated
	}
	res, err := NewUpdateGame(testDeps(user), f.teams, f.seasons, f.registrar, scope).WithData(data).ApplyTo(context.Background(), game)
	require.NoError(t, err)
	return res
}

func (f *gameFixture) details(g *model.Game) model.GameUpdate {
	return model.GameUpdate{
		DivisionID: f.division,
		Date:       g.Date,
		Address:    g.Address,
		HomeTeamID: f.home.ID,
		AwayTeamID: f.away.ID,
	}
}

func singles(home, away model.GamePlayer, homeScore, awayScore int) model.GameMatch {
	return model.GameMatch{
		HomePlayers: []model.GamePlayer{home},
		AwayPlayers: []model.GamePlayer{away},
		HomeScore:   ptrTo(homeScore),
		AwayScore:   ptrTo(awayScore),
	}
}

func TestUpdateGame_CreateRegistersTeams(t *testing.T) {
	f := newGameFixture()
	scope := NewScope()
	game := &model.Game{}
	res := f.apply(t, admin(), game, model.GameUpdate{
		DivisionID: f.division,
		Date:       time.Date(2026, 2, 1, 20, 0, 0, 0, time.UTC),
		Address:    "The Swan",
		HomeTeamID: f.home.ID,
		AwayTeamID: f.away.ID,
	}, scope)

	require.True(t, res.Success, res.Summary())
	require.Equal(t, []string{"Game created"}, res.Messages)
	require.Equal(t, f.season.ID, game.SeasonID)
	require.Equal(t, "Hawks", game.Home.Name)
	require.Equal(t, "Owls", game.Away.Name)
	require.Len(t, f.registrar.calls, 2)
	require.Equal(t, registration{teamID: f.home.ID, seasonID: f.season.ID, divisionID: &f.division}, f.registrar.calls[0])
	require.Equal(t, f.away.ID, f.registrar.calls[1].teamID)

	ev := scope.Flags.Take()
	require.Equal(t, f.division, *ev.DivisionID)
	require.Equal(t, f.season.ID, *ev.SeasonID)
}

func TestUpdateGame_DetailsValidation(t *testing.T) {
	f := newGameFixture()
	base := f.details(f.storedGame())

	same := base
	same.AwayTeamID = same.HomeTeamID
	res := f.apply(t, admin(), &model.Game{}, same, nil)
	require.ErrorIs(t, res.Reason, errs.ErrValidationFailed)
	require.Contains(t, res.Errors[0], "home team and away team are the same")

	missing := base
	missing.AwayTeamID = newID()
	res = f.apply(t, admin(), &model.Game{}, missing, nil)
	require.ErrorIs(t, res.Reason, errs.ErrNotFound)
	require.Equal(t, []string{"Away team not found"}, res.Errors)

	outOfSeason := base
	outOfSeason.Date = f.season.EndDate.AddDate(1, 0, 0)
	res = f.apply(t, admin(), &model.Game{}, outOfSeason, nil)
	require.ErrorIs(t, res.Reason, errs.ErrNotFound)
	require.Contains(t, res.Errors[0], "Unable to find season for date")
	require.Empty(t, f.registrar.calls)
}

func TestUpdateGame_RegistrationFailureIsComposed(t *testing.T) {
	f := newGameFixture()
	f.registrar.results = map[uuid.UUID]Result[*model.Team]{
		f.away.ID: Failure[*model.Team](errs.ErrStaleConcurrencyToken, "The Owls team was updated by someone else"),
	}
	game := f.storedGame()
	data := f.details(game)
	data.Address = "The Crown"

	res := f.apply(t, admin(), game, data, nil)
	require.False(t, res.Success)
	require.ErrorIs(t, res.Reason, errs.ErrDependencyFailed)
	require.Equal(t, []string{"Could not add season to home and/or away teams: Home: OK, Away: The Owls team was updated by someone else"}, res.Errors)
}

func TestUpdateGame_RejectedUpdateRegistersNoTeams(t *testing.T) {
	f := newGameFixture()
	registrar := NewStoreRegistrar(testDeps(admin()), f.seasons, f.teams)
	negative := model.GameMatch{HomeScore: ptrTo(-1), AwayScore: ptrTo(3)}

	t.Run("invalid score", func(t *testing.T) {
		game := f.storedGame()
		data := f.details(game)
		data.Address = "The Crown"
		data.Matches = []model.GameMatch{negative}
		data.LastUpdated = game.Updated
		scope := NewScope()

		res, err := NewUpdateGame(testDeps(admin()), f.teams, f.seasons, registrar, scope).WithData(data).ApplyTo(context.Background(), game)
		require.NoError(t, err)
		require.ErrorIs(t, res.Reason, errs.ErrValidationFailed)
		require.Equal(t, 0, f.teams.upserts)
		require.True(t, scope.Flags.Take().Empty())

		home, err := f.teams.Get(context.Background(), f.home.ID)
		require.NoError(t, err)
		require.Empty(t, home.Seasons)
	})

	t.Run("submission by another team", func(t *testing.T) {
		stranger := &model.User{Name: "Kim", TeamID: ptrTo(newID()), Access: model.Access{ManageGames: true, InputResults: true}}
		game := f.storedGame()
		data := f.details(game)
		data.Address = "The Crown"
		data.LastUpdated = game.Updated

		res, err := NewUpdateGame(testDeps(stranger), f.teams, f.seasons, registrar, nil).WithData(data).ApplyTo(context.Background(), game)
		require.NoError(t, err)
		require.ErrorIs(t, res.Reason, errs.ErrNotPermitted)
		require.Equal(t, 0, f.teams.upserts)
	})
}

func TestUpdateGame_UnchangedDetailsSkipRegistration(t *testing.T) {
	f := newGameFixture()
	game := f.storedGame()
	res := f.apply(t, admin(), game, f.details(game), nil)
	require.True(t, res.Success)
	require.Empty(t, f.registrar.calls)
}

func TestUpdateGame_ManageScoresEditsCanonical(t *testing.T) {
	f := newGameFixture()
	game := f.storedGame()
	p1, p2 := model.GamePlayer{ID: newID(), Name: "Ann"}, model.GamePlayer{ID: newID(), Name: "Bob"}
	scorer := &model.User{Name: "scorer", Access: model.Access{ManageScores: true}}
	scope := NewScope()

	res := f.apply(t, scorer, game, model.GameUpdate{
		Matches:          []model.GameMatch{singles(p1, p2, 3, 1)},
		OneEighties:      []model.GamePlayer{p1},
		Over100Checkouts: []model.NotablePlayer{{GamePlayer: p2, Score: 120}},
	}, scope)

	require.True(t, res.Success, res.Summary())
	require.Len(t, game.Matches, 1)
	require.NotEqual(t, uuid.Nil, game.Matches[0].ID)
	require.Equal(t, 3, *game.Matches[0].HomeScore)
	require.Equal(t, []model.GameMatchOption{{PlayerCount: 1, StartingScore: ptrTo(501), NumberOfLegs: ptrTo(5)}}, game.MatchOptions)
	require.Nil(t, game.HomeSubmission)
	require.False(t, game.Published)
	require.Equal(t, "Hawks", game.Home.Name)
	require.Empty(t, f.registrar.calls)
	require.False(t, scope.Flags.Take().Empty())

	bad := f.apply(t, scorer, game, model.GameUpdate{Over100Checkouts: []model.NotablePlayer{{GamePlayer: p2, Score: 180}}}, nil)
	require.ErrorIs(t, bad.Reason, errs.ErrValidationFailed)
}

func TestUpdateGame_DualSubmission(t *testing.T) {
	p1, p2 := model.GamePlayer{ID: newID(), Name: "Ann"}, model.GamePlayer{ID: newID(), Name: "Bob"}
	f := newGameFixture()
	homeUser := &model.User{Name: "home captain", TeamID: &f.home.ID, Access: model.Access{InputResults: true}}
	awayUser := &model.User{Name: "away captain", TeamID: &f.away.ID, Access: model.Access{InputResults: true}}

	t.Run("agreeing submissions publish", func(t *testing.T) {
		game := f.storedGame()
		res := f.apply(t, homeUser, game, model.GameUpdate{Matches: []model.GameMatch{singles(p1, p2, 1, 2)}}, nil)
		require.True(t, res.Success, res.Summary())
		require.Contains(t, res.Messages, "Submission saved")
		require.Equal(t, PartiallySubmitted, StateOf(game))
		require.Empty(t, game.Matches)

		scope := NewScope()
		res = f.apply(t, awayUser, game, model.GameUpdate{Matches: []model.GameMatch{singles(p1, p2, 1, 2)}}, scope)
		require.True(t, res.Success, res.Summary())
		require.Contains(t, res.Messages, "Submission published")
		require.Equal(t, Published, StateOf(game))
		require.True(t, game.Published)
		require.Len(t, game.Matches, 1)
		require.Equal(t, 1, *game.Matches[0].HomeScore)
		require.Equal(t, 2, *game.Matches[0].AwayScore)
		require.Equal(t, []model.GamePlayer{p1}, game.Matches[0].HomePlayers)
		require.NotNil(t, game.HomeSubmission)
		require.NotNil(t, game.AwaySubmission)
		require.Equal(t, "home captain", game.HomeSubmission.Editor)
		require.Equal(t, "away captain", game.AwaySubmission.Editor)
		require.False(t, scope.Flags.Take().Empty())

		res = f.apply(t, homeUser, game, model.GameUpdate{Matches: []model.GameMatch{singles(p1, p2, 2, 0)}}, nil)
		require.False(t, res.Success)
		require.ErrorIs(t, res.Reason, errs.ErrNotPermitted)
	})

	t.Run("differing submissions stay distinct", func(t *testing.T) {
		game := f.storedGame()
		f.apply(t, homeUser, game, model.GameUpdate{Matches: []model.GameMatch{singles(p1, p2, 1, 2)}}, nil)
		res := f.apply(t, awayUser, game, model.GameUpdate{Matches: []model.GameMatch{singles(p1, p2, 2, 1)}}, nil)
		require.True(t, res.Success)
		require.NotContains(t, res.Messages, "Submission published")
		require.Equal(t, Disputed, StateOf(game))
		require.False(t, game.Published)
		require.Empty(t, game.Matches)
		require.Equal(t, 1, *game.HomeSubmission.Matches[0].HomeScore)
		require.Equal(t, 2, *game.AwaySubmission.Matches[0].HomeScore)
	})

	t.Run("team not playing is rejected", func(t *testing.T) {
		game := f.storedGame()
		other := newID()
		stranger := &model.User{Name: "stranger", TeamID: &other, Access: model.Access{InputResults: true}}
		res := f.apply(t, stranger, game, model.GameUpdate{Matches: []model.GameMatch{singles(p1, p2, 1, 2)}}, nil)
		require.False(t, res.Success)
		require.ErrorIs(t, res.Reason, errs.ErrNotPermitted)
		require.Equal(t, Unsubmitted, StateOf(game))
		require.Equal(t, "Simon", game.Editor)
	})

	t.Run("results user cannot create", func(t *testing.T) {
		res := f.apply(t, homeUser, &model.Game{}, model.GameUpdate{}, nil)
		require.ErrorIs(t, res.Reason, errs.ErrNotPermitted)
	})
}

func TestUpdateGame_NoRights(t *testing.T) {
	f := newGameFixture()
	res := f.apply(t, &model.User{Name: "nobody"}, f.storedGame(), model.GameUpdate{}, nil)
	require.ErrorIs(t, res.Reason, errs.ErrNotPermitted)

	res = f.apply(t, nil, f.storedGame(), model.GameUpdate{}, nil)
	require.ErrorIs(t, res.Reason, errs.ErrNotPermitted)
	require.Equal(t, []string{"Game cannot be updated, not logged in"}, res.Errors)
}

func TestSubmissionsAgree_IgnoresOrderOfAccoladesAndMatchIdentity(t *testing.T) {
	p1, p2 := model.GamePlayer{ID: newID(), Name: "Ann"}, model.GamePlayer{ID: newID(), Name: "Bob"}
	home := &model.ScoreSubmission{
		Matches:     []model.GameMatch{{ID: newID(), HomePlayers: []model.GamePlayer{p1}, AwayPlayers: []model.GamePlayer{p2}, HomeScore: ptrTo(1), AwayScore: ptrTo(2)}},
		OneEighties: []model.GamePlayer{p1, p2},
	}
	away := &model.ScoreSubmission{
		Matches:     []model.GameMatch{{ID: newID(), HomePlayers: []model.GamePlayer{{ID: p1.ID, Name: "ann"}}, AwayPlayers: []model.GamePlayer{p2}, HomeScore: ptrTo(1), AwayScore: ptrTo(2)}},
		OneEighties: []model.GamePlayer{p2, p1},
	}
	require.True(t, SubmissionsAgree(home, away))

	away.HomeManOfTheMatch = &p1.ID
	require.False(t, SubmissionsAgree(home, away))
	require.False(t, SubmissionsAgree(home, nil))
}

func TestMatchOptionDefaults(t *testing.T) {
	cases := []struct {
		players int
		score   int
		legs    *int
	}{
		{1, 501, ptrTo(5)},
		{2, 501, ptrTo(3)},
		{3, 501, ptrTo(3)},
		{4, 601, nil},
	}
	for _, tc := range cases {
		require.Equal(t, tc.score, DefaultStartingScore(tc.players), "players %d", tc.players)
		require.Equal(t, tc.legs, DefaultNumberOfLegs(tc.players), "players %d", tc.players)

		got := WithMatchOptionDefaults([]model.GameMatchOption{{PlayerCount: tc.players}}, nil)
		require.Equal(t, tc.score, *got[0].StartingScore)
		require.Equal(t, tc.legs, got[0].NumberOfLegs)
	}

	explicit := WithMatchOptionDefaults([]model.GameMatchOption{{PlayerCount: 4, StartingScore: ptrTo(701), NumberOfLegs: ptrTo(1)}}, nil)
	require.Equal(t, 701, *explicit[0].StartingScore)
	require.Equal(t, 1, *explicit[0].NumberOfLegs)

	require.Nil(t, WithMatchOptionDefaults(nil, nil))
}
