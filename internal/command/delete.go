package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/and161185/league-keeper/internal/errs"
	"github.com/and161185/league-keeper/internal/model"
)

// DeletePolicy customises the delete command for one kind.
type DeletePolicy[T model.Audited] struct {
	// Permit reports whether user holds the right to delete.
	Permit func(user *model.User) bool
	// Evict flags the cached views affected by removing entity.
	Evict func(flags *CacheFlags, entity T)
}

// Delete soft-deletes an entity after the same state and concurrency checks as Update.
type Delete[T model.Audited] struct {
	entity string
	deps   Deps
	policy DeletePolicy[T]
	flags  *CacheFlags
	data   model.Envelope
	bound  bool
}

// NewDelete builds a delete command; entity is the display name used in messages.
func NewDelete[T model.Audited](entity string, deps Deps, policy DeletePolicy[T], scope *Scope) *Delete[T] {
	d := &Delete[T]{entity: entity, deps: deps.withDefaults(), policy: policy}
	if scope != nil {
		d.flags = scope.Flags
	}
	return d
}

// Bind implements Command. It accepts model.Envelope or *model.Envelope.
func (d *Delete[T]) Bind(data any) error {
	switch v := data.(type) {
	case model.Envelope:
		d.data = v
	case *model.Envelope:
		if v == nil {
			return fmt.Errorf("bind delete %s: nil payload: %w", d.entity, errs.ErrWrongType)
		}
		d.data = *v
	default:
		return fmt.Errorf("bind delete %s: %T: %w", d.entity, data, errs.ErrWrongType)
	}
	d.bound = true
	return nil
}

// Apply implements Command.
func (d *Delete[T]) Apply(ctx context.Context, entity model.Audited) (Result[model.Audited], error) {
	typed, ok := entity.(T)
	if !ok {
		return Result[model.Audited]{}, fmt.Errorf("delete %s: %T: %w", d.entity, entity, errs.ErrWrongType)
	}
	res, err := d.ApplyTo(ctx, typed)
	return erase(res), err
}

// ApplyTo soft-deletes entity.
func (d *Delete[T]) ApplyTo(ctx context.Context, entity T) (Result[T], error) {
	if !d.bound {
		return Result[T]{}, fmt.Errorf("delete %s: %w", d.entity, errs.ErrNotBound)
	}
	if err := ctx.Err(); err != nil {
		return Result[T]{}, err
	}

	audit := entity.AuditInfo()
	if audit.IsNew() {
		return Failure[T](errs.ErrNotFound, fmt.Sprintf("%s not found", d.entity)), nil
	}
	if audit.IsDeleted() {
		res := Success[T]()
		res.Warnings = []string{fmt.Sprintf("%s has already been deleted", d.entity)}
		res.Reason = errs.ErrAlreadyDeleted
		res.Unchanged = true
		res.Result = entity
		return res, nil
	}
	if err := CheckConcurrency(audit.Updated, audit.Editor, d.data.ConcurrencyToken()); err != nil {
		var ce *ConcurrencyError
		if errors.As(err, &ce) {
			return Failure[T](ce.Reason, ce.Error()), nil
		}
		return Result[T]{}, err
	}

	user, err := d.deps.Users.CurrentUser(ctx)
	if err != nil {
		return Result[T]{}, fmt.Errorf("current user: %w", err)
	}
	if user == nil {
		return Failure[T](errs.ErrNotPermitted, fmt.Sprintf("%s cannot be deleted, not logged in", d.entity)), nil
	}
	if d.policy.Permit == nil || !d.policy.Permit(user) {
		return Failure[T](errs.ErrNotPermitted, fmt.Sprintf("%s cannot be deleted, not permitted", d.entity)), nil
	}

	now := d.deps.now()
	audit.Deleted = &now
	audit.Remover = user.Name
	d.deps.Auditor.RecordMutation(entity, user.Name, now)
	if d.policy.Evict != nil {
		d.policy.Evict(d.flags, entity)
	}

	res := Success[T](fmt.Sprintf("%s deleted", d.entity))
	res.Result = entity
	return res, nil
}
