// Package model defines domain entities, update payloads and the caller identity used by commands.
package model

import (
	"time"

	"github.com/gofrs/uuid/v5"
)

// Audit is the shape every mutable entity shares.
type Audit struct {
	ID      uuid.UUID  `json:"id"`
	Created *time.Time `json:"created,omitempty"`
	Author  string     `json:"author,omitempty"`
	Updated *time.Time `json:"updated,omitempty"` // last successful mutation, monotonically increasing
	Editor  string     `json:"editor,omitempty"`
	Deleted *time.Time `json:"deleted,omitempty"` // soft-delete marker
	Remover string     `json:"remover,omitempty"`
}

// AuditInfo exposes the audit block to generic code.
func (a *Audit) AuditInfo() *Audit { return a }

// IsNew reports whether the entity has never been persisted.
func (a *Audit) IsNew() bool { return a.ID == uuid.Nil }

// IsDeleted reports whether the entity has been soft-deleted.
func (a *Audit) IsDeleted() bool { return a.Deleted != nil }

// Touch refreshes the audit fields after a successful mutation.
func (a *Audit) Touch(actor string, now time.Time) {
	if a.Created == nil {
		created := now
		a.Created = &created
		a.Author = actor
	}
	updated := now
	a.Updated = &updated
	a.Editor = actor
}

// Audited is implemented by every entity that embeds Audit.
type Audited interface {
	AuditInfo() *Audit
}

// Envelope is carried by every update payload that may target an existing entity.
type Envelope struct {
	ID          uuid.UUID  `json:"id"`
	LastUpdated *time.Time `json:"lastUpdated,omitempty"` // optimistic concurrency token
}

// ConcurrencyToken returns the last-updated value the caller saw.
func (e Envelope) ConcurrencyToken() *time.Time { return e.LastUpdated }

// TargetID returns the identity of the entity the payload is meant for.
func (e Envelope) TargetID() uuid.UUID { return e.ID }

// Access lists the rights a caller holds.
type Access struct {
	ManageGames       bool `json:"manageGames,omitempty"`
	ManageScores      bool `json:"manageScores,omitempty"`
	InputResults      bool `json:"inputResults,omitempty"`
	ManageTeams       bool `json:"manageTeams,omitempty"`
	ManageSeasons     bool `json:"manageSeasons,omitempty"`
	ManageTournaments bool `json:"manageTournaments,omitempty"`
}

// User is the identity of the caller performing a mutation.
type User struct {
	Name   string     // recorded as editor
	TeamID *uuid.UUID // set for team-scoped users
	Access Access
}

// OnTeam reports whether the user is scoped to the given team.
func (u *User) OnTeam(teamID uuid.UUID) bool {
	return u != nil && u.TeamID != nil && *u.TeamID == teamID
}
