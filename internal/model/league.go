package model

import (
	"time"

	"github.com/gofrs/uuid/v5"
)

// Season is a dated period of play split into divisions.
type Season struct {
	Audit
	Name      string      `json:"name"`
	StartDate time.Time   `json:"startDate"`
	EndDate   time.Time   `json:"endDate"`
	Divisions []uuid.UUID `json:"divisions,omitempty"`
}

// Covers reports whether date falls within the season, inclusive of both ends.
func (s *Season) Covers(date time.Time) bool {
	return !date.Before(s.StartDate) && !date.After(s.EndDate)
}

// Team is a club fielding players across seasons.
type Team struct {
	Audit
	Name    string       `json:"name"`
	Address string       `json:"address"`
	Seasons []TeamSeason `json:"seasons,omitempty"`
}

// TeamSeason registers a team to a season and division.
type TeamSeason struct {
	Audit
	SeasonID   uuid.UUID  `json:"seasonId"`
	DivisionID *uuid.UUID `json:"divisionId,omitempty"`
}

// SeasonRegistration returns the registration for seasonID or nil.
func (t *Team) SeasonRegistration(seasonID uuid.UUID) *TeamSeason {
	for i := range t.Seasons {
		if t.Seasons[i].SeasonID == seasonID && t.Seasons[i].Deleted == nil {
			return &t.Seasons[i]
		}
	}
	return nil
}

// TeamUpdate is the payload for creating or editing a team.
type TeamUpdate struct {
	Envelope
	Name       string     `json:"name"`
	Address    string     `json:"address"`
	SeasonID   *uuid.UUID `json:"seasonId,omitempty"` // register the team to this season as well
	DivisionID *uuid.UUID `json:"divisionId,omitempty"`
}

// SeasonUpdate is the payload for creating or editing a season.
type SeasonUpdate struct {
	Envelope
	Name      string      `json:"name"`
	StartDate time.Time   `json:"startDate"`
	EndDate   time.Time   `json:"endDate"`
	Divisions []uuid.UUID `json:"divisions,omitempty"`

	// CopyTeamsFromSeasonID registers every team of that season into this one.
	CopyTeamsFromSeasonID *uuid.UUID `json:"copyTeamsFromSeasonId,omitempty"`
}

// TeamSeasonUpdate asks for a team to be registered to a season.
type TeamSeasonUpdate struct {
	Envelope
	SeasonID   uuid.UUID  `json:"seasonId"`
	DivisionID *uuid.UUID `json:"divisionId,omitempty"`
}
