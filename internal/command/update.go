package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/league-keeper/internal/errs"
	"github.com/and161185/league-keeper/internal/model"
)

// Payload is implemented by every update payload through model.Envelope.
type Payload interface {
	ConcurrencyToken() *time.Time
}

// Mutator applies the type-specific part of an update once the common checks have passed.
// user is nil when the caller is not logged in.
type Mutator[T model.Audited, D Payload] interface {
	ApplyUpdates(ctx context.Context, user *model.User, entity T, data D) (Result[T], error)
}

// Update is the create-or-update command shared by every entity kind.
type Update[T model.Audited, D Payload] struct {
	entity  string
	deps    Deps
	mutator Mutator[T, D]
	data    D
	bound   bool
}

// NewUpdate builds an update command; entity is the display name used in messages.
func NewUpdate[T model.Audited, D Payload](entity string, deps Deps, m Mutator[T, D]) *Update[T, D] {
	return &Update[T, D]{entity: entity, deps: deps.withDefaults(), mutator: m}
}

// WithData binds the typed payload.
func (u *Update[T, D]) WithData(data D) *Update[T, D] {
	u.data = data
	u.bound = true
	return u
}

// Bind implements Command. It accepts D or *D.
func (u *Update[T, D]) Bind(data any) error {
	switch v := data.(type) {
	case D:
		u.WithData(v)
	case *D:
		if v == nil {
			return fmt.Errorf("bind %s: nil payload: %w", u.entity, errs.ErrWrongType)
		}
		u.WithData(*v)
	default:
		return fmt.Errorf("bind %s: %T: %w", u.entity, data, errs.ErrWrongType)
	}
	return nil
}

// Apply implements Command.
func (u *Update[T, D]) Apply(ctx context.Context, entity model.Audited) (Result[model.Audited], error) {
	typed, ok := entity.(T)
	if !ok {
		return Result[model.Audited]{}, fmt.Errorf("apply %s: %T: %w", u.entity, entity, errs.ErrWrongType)
	}
	res, err := u.ApplyTo(ctx, typed)
	return erase(res), err
}

// ApplyTo runs the update against entity.
func (u *Update[T, D]) ApplyTo(ctx context.Context, entity T) (Result[T], error) {
	if !u.bound {
		return Result[T]{}, fmt.Errorf("%s: %w", u.entity, errs.ErrNotBound)
	}
	if err := ctx.Err(); err != nil {
		return Result[T]{}, err
	}

	audit := entity.AuditInfo()
	if audit.IsDeleted() {
		return Failure[T](errs.ErrAlreadyDeleted, fmt.Sprintf("Cannot update a %s that has already been deleted", lower(u.entity))), nil
	}

	created := false
	if audit.IsNew() {
		id, err := u.deps.NewID()
		if err != nil {
			return Result[T]{}, fmt.Errorf("allocate %s id: %w", u.entity, err)
		}
		audit.ID = id
		created = true
	} else if err := CheckConcurrency(audit.Updated, audit.Editor, u.data.ConcurrencyToken()); err != nil {
		var ce *ConcurrencyError
		if errors.As(err, &ce) {
			return Failure[T](ce.Reason, ce.Error()), nil
		}
		return Result[T]{}, err
	}

	user, err := u.deps.Users.CurrentUser(ctx)
	if err != nil {
		return Result[T]{}, fmt.Errorf("current user: %w", err)
	}

	res, err := u.mutator.ApplyUpdates(ctx, user, entity, u.data)
	if err != nil || !res.Success {
		if created {
			// nothing is saved for a rejected create, so it keeps no identity
			audit.ID = uuid.Nil
		}
		if err != nil {
			return Result[T]{}, err
		}
		return res, nil
	}
	if res.Unchanged && !created {
		res.Result = entity
		return res, nil
	}

	actor := ""
	if user != nil {
		actor = user.Name
	}
	u.deps.Auditor.RecordMutation(entity, actor, u.deps.now())

	verb := "updated"
	if created {
		verb = "created"
	}
	out := Success[T](fmt.Sprintf("%s %s", u.entity, verb))
	absorb(&out, res)
	out.Result = entity
	return out, nil
}
