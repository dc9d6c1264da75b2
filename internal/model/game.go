package model

import (
	"time"

	"github.com/gofrs/uuid/v5"
)

// Game is a league fixture between a home and an away team.
type Game struct {
	Audit
	DivisionID       uuid.UUID         `json:"divisionId"`
	SeasonID         uuid.UUID         `json:"seasonId"`
	Date             time.Time         `json:"date"`
	Address          string            `json:"address"`
	Postponed        bool              `json:"postponed,omitempty"`
	IsKnockout       bool              `json:"isKnockout,omitempty"`
	AccoladesCount   bool              `json:"accoladesCount,omitempty"`
	Home             GameTeam          `json:"home"`
	Away             GameTeam          `json:"away"`
	Matches          []GameMatch       `json:"matches,omitempty"`
	MatchOptions     []GameMatchOption `json:"matchOptions,omitempty"`
	OneEighties      []GamePlayer      `json:"oneEighties,omitempty"`
	Over100Checkouts []NotablePlayer   `json:"over100Checkouts,omitempty"`
	HomeSubmission   *ScoreSubmission  `json:"homeSubmission,omitempty"`
	AwaySubmission   *ScoreSubmission  `json:"awaySubmission,omitempty"`
	Published        bool              `json:"published,omitempty"`
}

// GameTeam is one side of a game.
type GameTeam struct {
	ID            uuid.UUID  `json:"id"`
	Name          string     `json:"name"`
	ManOfTheMatch *uuid.UUID `json:"manOfTheMatch,omitempty"`
}

// GamePlayer identifies a player taking part in a game.
type GamePlayer struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// NotablePlayer records a player accolade with a value, e.g. a checkout over 100.
type NotablePlayer struct {
	GamePlayer
	Score int `json:"score"`
}

// GameMatch is a single leg set between home and away players.
type GameMatch struct {
	ID          uuid.UUID    `json:"id"`
	HomePlayers []GamePlayer `json:"homePlayers,omitempty"`
	AwayPlayers []GamePlayer `json:"awayPlayers,omitempty"`
	HomeScore   *int         `json:"homeScore,omitempty"`
	AwayScore   *int         `json:"awayScore,omitempty"`
}

// GameMatchOption is the per-match configuration, parallel-indexed to matches.
type GameMatchOption struct {
	PlayerCount   int  `json:"playerCount,omitempty"`
	StartingScore *int `json:"startingScore,omitempty"`
	NumberOfLegs  *int `json:"numberOfLegs,omitempty"`
}

// ScoreSubmission is one team's view of the result, kept as an audit trail.
type ScoreSubmission struct {
	Editor            string            `json:"editor,omitempty"`
	Updated           *time.Time        `json:"updated,omitempty"`
	Matches           []GameMatch       `json:"matches,omitempty"`
	MatchOptions      []GameMatchOption `json:"matchOptions,omitempty"`
	OneEighties       []GamePlayer      `json:"oneEighties,omitempty"`
	Over100Checkouts  []NotablePlayer   `json:"over100Checkouts,omitempty"`
	HomeManOfTheMatch *uuid.UUID        `json:"homeManOfTheMatch,omitempty"`
	AwayManOfTheMatch *uuid.UUID        `json:"awayManOfTheMatch,omitempty"`
}

// GameUpdate is the payload for creating or editing a game and its results.
type GameUpdate struct {
	Envelope
	DivisionID        uuid.UUID         `json:"divisionId"`
	Date              time.Time         `json:"date"`
	Address           string            `json:"address"`
	Postponed         bool              `json:"postponed,omitempty"`
	IsKnockout        bool              `json:"isKnockout,omitempty"`
	AccoladesCount    bool              `json:"accoladesCount,omitempty"`
	HomeTeamID        uuid.UUID         `json:"homeTeamId"`
	AwayTeamID        uuid.UUID         `json:"awayTeamId"`
	Matches           []GameMatch       `json:"matches,omitempty"`
	MatchOptions      []GameMatchOption `json:"matchOptions,omitempty"`
	OneEighties       []GamePlayer      `json:"oneEighties,omitempty"`
	Over100Checkouts  []NotablePlayer   `json:"over100Checkouts,omitempty"`
	HomeManOfTheMatch *uuid.UUID        `json:"homeManOfTheMatch,omitempty"`
	AwayManOfTheMatch *uuid.UUID        `json:"awayManOfTheMatch,omitempty"`
}
