package command

import (
	"bytes"
	"reflect"
	"slices"

	"github.com/and161185/league-keeper/internal/model"
	"github.com/gofrs/uuid/v5"
)

// SubmissionState is where a game stands in the home/away agreement protocol.
type SubmissionState int

const (
	// Unsubmitted means neither team has submitted results.
	Unsubmitted SubmissionState = iota
	// PartiallySubmitted means exactly one team has submitted.
	PartiallySubmitted
	// Disputed means both teams submitted and the submissions differ.
	Disputed
	// Published means agreed submissions were copied into the canonical results.
	Published
)

func (s SubmissionState) String() string {
	switch s {
	case Unsubmitted:
		return "unsubmitted"
	case PartiallySubmitted:
		return "partially submitted"
	case Disputed:
		return "disputed"
	case Published:
		return "published"
	default:
		return "unknown"
	}
}

// StateOf reports the submission state of g.
func StateOf(g *model.Game) SubmissionState {
	switch {
	case g.Published:
		return Published
	case g.HomeSubmission != nil && g.AwaySubmission != nil:
		return Disputed
	case g.HomeSubmission != nil || g.AwaySubmission != nil:
		return PartiallySubmitted
	default:
		return Unsubmitted
	}
}

type matchKey struct {
	home, away []uuid.UUID
	homeScore  *int
	awayScore  *int
}

type checkoutKey struct {
	player uuid.UUID
	score  int
}

type submissionKey struct {
	matches     []matchKey
	options     []model.GameMatchOption
	oneEighties []uuid.UUID
	checkouts   []checkoutKey
	homeMoM     *uuid.UUID
	awayMoM     *uuid.UUID
}

// keyOf reduces s to the fields both teams must agree on. Match identities and player names
// are ignored; players are compared by identity and accolades as unordered collections.
func keyOf(s *model.ScoreSubmission) submissionKey {
	k := submissionKey{
		options: WithMatchOptionDefaults(s.MatchOptions, s.Matches),
		homeMoM: s.HomeManOfTheMatch,
		awayMoM: s.AwayManOfTheMatch,
	}
	for _, m := range s.Matches {
		mk := matchKey{homeScore: m.HomeScore, awayScore: m.AwayScore}
		for _, p := range m.HomePlayers {
			mk.home = append(mk.home, p.ID)
		}
		for _, p := range m.AwayPlayers {
			mk.away = append(mk.away, p.ID)
		}
		k.matches = append(k.matches, mk)
	}
	for _, p := range s.OneEighties {
		k.oneEighties = append(k.oneEighties, p.ID)
	}
	slices.SortFunc(k.oneEighties, func(a, b uuid.UUID) int { return bytes.Compare(a[:], b[:]) })
	for _, p := range s.Over100Checkouts {
		k.checkouts = append(k.checkouts, checkoutKey{player: p.ID, score: p.Score})
	}
	slices.SortFunc(k.checkouts, func(a, b checkoutKey) int {
		if c := bytes.Compare(a.player[:], b.player[:]); c != 0 {
			return c
		}
		return a.score - b.score
	})
	return k
}

// SubmissionsAgree reports whether both submissions exist and describe the same result.
func SubmissionsAgree(home, away *model.ScoreSubmission) bool {
	if home == nil || away == nil {
		return false
	}
	return reflect.DeepEqual(keyOf(home), keyOf(away))
}

// publish copies the agreed submission into the canonical results of g.
// Canonical match identities are kept by position.
func publish(g *model.Game, agreed *model.ScoreSubmission, newID func() (uuid.UUID, error)) error {
	incoming := make([]model.GameMatch, len(agreed.Matches))
	for i, m := range agreed.Matches {
		m.ID = uuid.Nil
		incoming[i] = m
	}
	matches, err := adaptGameMatches(g.Matches, incoming, newID)
	if err != nil {
		return err
	}
	g.Matches = matches
	g.MatchOptions = WithMatchOptionDefaults(agreed.MatchOptions, matches)
	g.OneEighties = slices.Clone(agreed.OneEighties)
	g.Over100Checkouts = slices.Clone(agreed.Over100Checkouts)
	g.Home.ManOfTheMatch = cloneID(agreed.HomeManOfTheMatch)
	g.Away.ManOfTheMatch = cloneID(agreed.AwayManOfTheMatch)
	g.Published = true
	return nil
}

// adaptGameMatches maps incoming matches onto existing ones. An incoming identity is kept,
// otherwise the identity of the existing match at the same position, otherwise a fresh one.
func adaptGameMatches(existing, incoming []model.GameMatch, newID func() (uuid.UUID, error)) ([]model.GameMatch, error) {
	if len(incoming) == 0 {
		return nil, nil
	}
	out := make([]model.GameMatch, len(incoming))
	for i, m := range incoming {
		id := m.ID
		if id == uuid.Nil && i < len(existing) {
			id = existing[i].ID
		}
		if id == uuid.Nil {
			var err error
			if id, err = newID(); err != nil {
				return nil, err
			}
		}
		out[i] = model.GameMatch{
			ID:          id,
			HomePlayers: slices.Clone(m.HomePlayers),
			AwayPlayers: slices.Clone(m.AwayPlayers),
			HomeScore:   cloneInt(m.HomeScore),
			AwayScore:   cloneInt(m.AwayScore),
		}
	}
	return out, nil
}

func cloneID(id *uuid.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	return ptr(*id)
}

func cloneInt(v *int) *int {
	if v == nil {
		return nil
	}
	return ptr(*v)
}
