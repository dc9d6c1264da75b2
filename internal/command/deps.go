package command

import (
	"context"
	"time"

	"github.com/and161185/league-keeper/internal/model"
	"github.com/gofrs/uuid/v5"
)

// UserProvider resolves the caller of the current request; nil means not logged in.
type UserProvider interface {
	CurrentUser(ctx context.Context) (*model.User, error)
}

// UserFunc adapts a function to UserProvider.
type UserFunc func(ctx context.Context) (*model.User, error)

// CurrentUser calls f.
func (f UserFunc) CurrentUser(ctx context.Context) (*model.User, error) { return f(ctx) }

// Auditor refreshes audit fields after a successful mutation.
type Auditor interface {
	RecordMutation(entity model.Audited, actor string, now time.Time)
}

// TouchAuditor stamps the entity's own audit block, at microsecond precision so values
// survive a round trip through timestamptz columns unchanged.
type TouchAuditor struct{}

// RecordMutation implements Auditor.
func (TouchAuditor) RecordMutation(entity model.Audited, actor string, now time.Time) {
	entity.AuditInfo().Touch(actor, now.UTC().Truncate(time.Microsecond))
}

// Seasons looks seasons up for commands.
type Seasons interface {
	// Get returns errs.ErrNotFound when absent.
	Get(ctx context.Context, id uuid.UUID) (*model.Season, error)
	// ForDate returns the season covering date, or errs.ErrNotFound.
	ForDate(ctx context.Context, date time.Time) (*model.Season, error)
}

// Deps bundles the collaborators every command needs.
type Deps struct {
	Users   UserProvider
	Auditor Auditor
	Clock   func() time.Time
	NewID   func() (uuid.UUID, error)
}

func (d Deps) withDefaults() Deps {
	if d.Auditor == nil {
		d.Auditor = TouchAuditor{}
	}
	if d.Clock == nil {
		d.Clock = time.Now
	}
	if d.NewID == nil {
		d.NewID = uuid.NewV4
	}
	if d.Users == nil {
		d.Users = UserFunc(func(context.Context) (*model.User, error) { return nil, nil })
	}
	return d
}

// now returns the clock reading at the precision persisted by the auditor.
func (d Deps) now() time.Time { return d.Clock().UTC().Truncate(time.Microsecond) }
