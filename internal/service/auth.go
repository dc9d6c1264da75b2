// Package service contains the application services behind the transport: token handling and
// the command pipeline that loads, mutates and saves league entities.
package service

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/golang-jwt/jwt/v5"

	"github.com/and161185/league-keeper/internal/errs"
	"github.com/and161185/league-keeper/internal/model"
)

// Rights carried in the access token.
const (
	RightManageGames       = "manage_games"
	RightManageScores      = "manage_scores"
	RightInputResults      = "input_results"
	RightManageTeams       = "manage_teams"
	RightManageSeasons     = "manage_seasons"
	RightManageTournaments = "manage_tournaments"
)

// Claims is the access token payload.
type Claims struct {
	jwt.RegisteredClaims
	Name   string   `json:"name"`
	TeamID string   `json:"team_id,omitempty"`
	Rights []string `json:"rights,omitempty"`
}

// Authenticator issues and verifies HS256 access tokens.
type Authenticator struct {
	signKey   []byte
	accessTTL time.Duration
	now       func() time.Time
}

// NewAuthenticator constructs an Authenticator; accessTTL <= 0 selects one hour.
func NewAuthenticator(signKey []byte, accessTTL time.Duration) *Authenticator {
	if accessTTL <= 0 {
		accessTTL = time.Hour
	}
	return &Authenticator{signKey: signKey, accessTTL: accessTTL, now: time.Now}
}

// Issue signs a token for user.
func (a *Authenticator) Issue(user model.User) (string, time.Time, error) {
	if user.Name == "" {
		return "", time.Time{}, errors.New("validation: empty user name")
	}
	now := a.now()
	exp := now.Add(a.accessTTL)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Name,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		Name:   user.Name,
		Rights: rightsOf(user.Access),
	}
	if user.TeamID != nil {
		claims.TeamID = user.TeamID.String()
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(a.signKey)
	return signed, exp, err
}

// Parse verifies token and returns the caller it describes.
func (a *Authenticator) Parse(token string) (*model.User, error) {
	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return a.signKey, nil
	}, jwt.WithLeeway(30*time.Second), jwt.WithTimeFunc(a.now))
	if err != nil || !parsed.Valid {
		return nil, fmt.Errorf("invalid token: %w", errs.ErrUnauthorized)
	}

	name := claims.Name
	if name == "" {
		name = claims.Subject
	}
	if name == "" {
		return nil, fmt.Errorf("token without subject: %w", errs.ErrUnauthorized)
	}
	user := &model.User{Name: name, Access: accessOf(claims.Rights)}
	if claims.TeamID != "" {
		id, err := uuid.FromString(claims.TeamID)
		if err != nil {
			return nil, fmt.Errorf("bad team id: %w", errs.ErrUnauthorized)
		}
		user.TeamID = &id
	}
	return user, nil
}

func rightsOf(a model.Access) []string {
	var out []string
	add := func(ok bool, right string) {
		if ok {
			out = append(out, right)
		}
	}
	add(a.ManageGames, RightManageGames)
	add(a.ManageScores, RightManageScores)
	add(a.InputResults, RightInputResults)
	add(a.ManageTeams, RightManageTeams)
	add(a.ManageSeasons, RightManageSeasons)
	add(a.ManageTournaments, RightManageTournaments)
	return out
}

func accessOf(rights []string) model.Access {
	has := func(r string) bool { return slices.Contains(rights, r) }
	return model.Access{
		ManageGames:       has(RightManageGames),
		ManageScores:      has(RightManageScores),
		InputResults:      has(RightInputResults),
		ManageTeams:       has(RightManageTeams),
		ManageSeasons:     has(RightManageSeasons),
		ManageTournaments: has(RightManageTournaments),
	}
}
