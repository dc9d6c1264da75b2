package model

import (
	"time"

	"github.com/gofrs/uuid/v5"
)

// TournamentGame is a knockout event played on one date, described by a chain of rounds.
type TournamentGame struct {
	Audit
	SeasonID         uuid.UUID       `json:"seasonId"`
	DivisionID       *uuid.UUID      `json:"divisionId,omitempty"`
	Date             time.Time       `json:"date"`
	Address          string          `json:"address"`
	Type             string          `json:"type,omitempty"`
	Notes            string          `json:"notes,omitempty"`
	AccoladesCount   bool            `json:"accoladesCount,omitempty"`
	OneEighties      []GamePlayer    `json:"oneEighties,omitempty"`
	Over100Checkouts []NotablePlayer `json:"over100Checkouts,omitempty"`
	Rounds           RoundArena      `json:"rounds"`
}

// RoundArena stores every round of a tournament addressed by identity.
// Rounds link to their successor through NextRound, never by pointer.
type RoundArena struct {
	Root   uuid.UUID                      `json:"root"`
	Rounds map[uuid.UUID]*TournamentRound `json:"rounds,omitempty"`
}

// Get returns the round with the given identity, or nil.
func (a *RoundArena) Get(id uuid.UUID) *TournamentRound {
	if id == uuid.Nil || a.Rounds == nil {
		return nil
	}
	return a.Rounds[id]
}

// Put stores r under its identity.
func (a *RoundArena) Put(r *TournamentRound) {
	if a.Rounds == nil {
		a.Rounds = make(map[uuid.UUID]*TournamentRound)
	}
	a.Rounds[r.ID] = r
}

// Chain returns the rounds reachable from the root in order.
// A cycle in NextRound references ends the walk at the first repeated round.
func (a *RoundArena) Chain() []*TournamentRound {
	var out []*TournamentRound
	seen := make(map[uuid.UUID]bool)
	for r := a.Get(a.Root); r != nil && !seen[r.ID]; r = a.Get(r.NextRound) {
		seen[r.ID] = true
		out = append(out, r)
	}
	return out
}

// TournamentRound is one level of the bracket.
type TournamentRound struct {
	ID           uuid.UUID         `json:"id"`
	Name         string            `json:"name,omitempty"`
	Sides        []TournamentSide  `json:"sides,omitempty"`
	Matches      []TournamentMatch `json:"matches,omitempty"`
	MatchOptions []GameMatchOption `json:"matchOptions,omitempty"`
	NextRound    uuid.UUID         `json:"nextRound,omitempty"`
}

// TournamentSide is an entrant in a round: a team, pair or single player.
type TournamentSide struct {
	ID      uuid.UUID          `json:"id"`
	Name    string             `json:"name"`
	Players []TournamentPlayer `json:"players,omitempty"`
}

// TournamentPlayer is a player on a side.
type TournamentPlayer struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// TournamentMatch is a match between two sides of the same round.
type TournamentMatch struct {
	ID     uuid.UUID `json:"id"`
	SideA  uuid.UUID `json:"sideA"`
	SideB  uuid.UUID `json:"sideB"`
	ScoreA *int      `json:"scoreA,omitempty"`
	ScoreB *int      `json:"scoreB,omitempty"`
}

// TournamentGameUpdate is the payload for creating or editing a tournament game.
type TournamentGameUpdate struct {
	Envelope
	SeasonID         uuid.UUID           `json:"seasonId"`
	DivisionID       *uuid.UUID          `json:"divisionId,omitempty"`
	Date             time.Time           `json:"date"`
	Address          string              `json:"address"`
	Type             string              `json:"type,omitempty"`
	Notes            string              `json:"notes,omitempty"`
	AccoladesCount   bool                `json:"accoladesCount,omitempty"`
	OneEighties      []GamePlayer        `json:"oneEighties,omitempty"`
	Over100Checkouts []NotablePlayer     `json:"over100Checkouts,omitempty"`
	Round            *TournamentRoundDto `json:"round,omitempty"`
}

// TournamentRoundDto is the client view of a round and, recursively, its successors.
type TournamentRoundDto struct {
	ID           uuid.UUID            `json:"id"`
	Name         string               `json:"name,omitempty"`
	Sides        []TournamentSideDto  `json:"sides,omitempty"`
	Matches      []TournamentMatchDto `json:"matches,omitempty"`
	MatchOptions []GameMatchOption    `json:"matchOptions,omitempty"`
	NextRound    *TournamentRoundDto  `json:"nextRound,omitempty"`
}

// TournamentSideDto is the client view of a side.
type TournamentSideDto struct {
	ID      uuid.UUID          `json:"id"`
	Name    string             `json:"name"`
	Players []TournamentPlayer `json:"players,omitempty"`
}

// TournamentMatchDto references two sides of the same round.
type TournamentMatchDto struct {
	ID     uuid.UUID `json:"id"`
	SideA  SideRef   `json:"sideA"`
	SideB  SideRef   `json:"sideB"`
	ScoreA *int      `json:"scoreA,omitempty"`
	ScoreB *int      `json:"scoreB,omitempty"`
}

// SideRef points at a side by identity, or by name for sides created in the same request.
type SideRef struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name,omitempty"`
}

// Dto renders the chain starting at the root back into the client shape.
func (a *RoundArena) Dto() *TournamentRoundDto {
	var (
		head *TournamentRoundDto
		tail *TournamentRoundDto
	)
	for _, r := range a.Chain() {
		names := make(map[uuid.UUID]string, len(r.Sides))
		d := &TournamentRoundDto{ID: r.ID, Name: r.Name}
		for _, s := range r.Sides {
			names[s.ID] = s.Name
			d.Sides = append(d.Sides, TournamentSideDto{
				ID:      s.ID,
				Name:    s.Name,
				Players: append([]TournamentPlayer(nil), s.Players...),
			})
		}
		for _, m := range r.Matches {
			d.Matches = append(d.Matches, TournamentMatchDto{
				ID:     m.ID,
				SideA:  SideRef{ID: m.SideA, Name: names[m.SideA]},
				SideB:  SideRef{ID: m.SideB, Name: names[m.SideB]},
				ScoreA: m.ScoreA,
				ScoreB: m.ScoreB,
			})
		}
		d.MatchOptions = append([]GameMatchOption(nil), r.MatchOptions...)
		if head == nil {
			head = d
		} else {
			tail.NextRound = d
		}
		tail = d
	}
	return head
}

// Prune drops every round that is no longer reachable from the root.
func (a *RoundArena) Prune() {
	reachable := make(map[uuid.UUID]*TournamentRound, len(a.Rounds))
	for _, r := range a.Chain() {
		reachable[r.ID] = r
	}
	if len(reachable) == 0 {
		a.Rounds = nil
		return
	}
	a.Rounds = reachable
}

// Clone copies the index so rounds can be replaced without touching the original.
// Rounds themselves are shared and must be replaced, not mutated.
func (a *RoundArena) Clone() RoundArena {
	out := RoundArena{Root: a.Root}
	if a.Rounds != nil {
		out.Rounds = make(map[uuid.UUID]*TournamentRound, len(a.Rounds))
		for id, r := range a.Rounds {
			out.Rounds[id] = r
		}
	}
	return out
}
