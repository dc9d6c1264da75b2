package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/and161185/league-keeper/internal/command"
	"github.com/and161185/league-keeper/internal/errs"
	"github.com/and161185/league-keeper/internal/model"
)

// Outcome is what a request produced: the command result, the saved entity and the cached
// views the caller must drop.
type Outcome struct {
	Kind      command.Kind
	ID        uuid.UUID
	Success   bool
	Unchanged bool
	Entity    model.Audited
	Messages  []string
	Warnings  []string
	Errors    []string
	Reason    error
	Eviction  command.Eviction
}

// Commands runs one command per request against its store.
type Commands interface {
	// Apply decodes payload for kind, loads the targeted entity (or starts a new one),
	// runs the update command and saves the entity when it changed.
	Apply(ctx context.Context, kind command.Kind, payload []byte) (Outcome, error)
	// Delete soft-deletes the entity id of kind.
	Delete(ctx context.Context, kind command.Kind, id uuid.UUID, lastUpdated *time.Time) (Outcome, error)
}

type CommandsImpl struct {
	registry    *command.Registry
	collections map[command.Kind]Collection
	log         *zap.Logger
}

// NewCommands constructs the command service. collections maps every registered kind to the
// store holding its entities.
func NewCommands(registry *command.Registry, collections map[command.Kind]Collection, log *zap.Logger) *CommandsImpl {
	if log == nil {
		log = zap.NewNop()
	}
	return &CommandsImpl{registry: registry, collections: collections, log: log}
}

type targeted interface {
	TargetID() uuid.UUID
}

// Apply implements Commands.
func (s *CommandsImpl) Apply(ctx context.Context, kind command.Kind, payload []byte) (Outcome, error) {
	reg, coll, err := s.lookup(kind)
	if err != nil {
		return Outcome{}, err
	}

	data := reg.NewData()
	if err := json.Unmarshal(payload, data); err != nil {
		return Outcome{}, fmt.Errorf("decode %s payload: %v: %w", kind, err, errs.ErrValidationFailed)
	}
	var id uuid.UUID
	if t, ok := data.(targeted); ok {
		id = t.TargetID()
	}

	entity, expected, err := s.load(ctx, reg, coll, id)
	if err != nil {
		return Outcome{}, err
	}
	if entity == nil {
		out := Outcome{Kind: kind, ID: id, Reason: errs.ErrNotFound, Errors: []string{reg.Entity + " not found"}}
		s.report("apply", out)
		return out, nil
	}

	scope := command.NewScope()
	cmd := reg.Update(scope)
	if err := cmd.Bind(data); err != nil {
		return Outcome{}, err
	}
	return s.run(ctx, "apply", kind, cmd, coll, entity, expected, scope)
}

// Delete implements Commands.
func (s *CommandsImpl) Delete(ctx context.Context, kind command.Kind, id uuid.UUID, lastUpdated *time.Time) (Outcome, error) {
	reg, coll, err := s.lookup(kind)
	if err != nil {
		return Outcome{}, err
	}
	if id == uuid.Nil {
		return Outcome{}, fmt.Errorf("delete %s: empty id: %w", kind, errs.ErrValidationFailed)
	}

	entity, expected, err := s.load(ctx, reg, coll, id)
	if err != nil {
		return Outcome{}, err
	}
	if entity == nil {
		// the delete command reports a new entity as not found
		entity = reg.NewEntity()
	}

	scope := command.NewScope()
	cmd, err := s.registry.NewDelete(kind, scope)
	if err != nil {
		return Outcome{}, err
	}
	if err := cmd.Bind(model.Envelope{ID: id, LastUpdated: lastUpdated}); err != nil {
		return Outcome{}, err
	}
	return s.run(ctx, "delete", kind, cmd, coll, entity, expected, scope)
}

func (s *CommandsImpl) lookup(kind command.Kind) (command.Registration, Collection, error) {
	reg, err := s.registry.Lookup(kind)
	if err != nil {
		return command.Registration{}, nil, err
	}
	coll, ok := s.collections[kind]
	if !ok {
		return command.Registration{}, nil, fmt.Errorf("no store for %q: %w", kind, errs.ErrUnknownKind)
	}
	return reg, coll, nil
}

// load returns the stored entity and its last update, a new entity when there is none, or nil
// when the kind only applies to stored entities.
func (s *CommandsImpl) load(ctx context.Context, reg command.Registration, coll Collection, id uuid.UUID) (model.Audited, *time.Time, error) {
	if id == uuid.Nil {
		if reg.Existing {
			return nil, nil, nil
		}
		return reg.NewEntity(), nil, nil
	}
	entity, err := coll.Load(ctx, id)
	switch {
	case errors.Is(err, errs.ErrNotFound):
		if reg.Existing {
			return nil, nil, nil
		}
		return reg.NewEntity(), nil, nil
	case err != nil:
		return nil, nil, fmt.Errorf("load %s: %w", id, err)
	}
	var expected *time.Time
	if u := entity.AuditInfo().Updated; u != nil {
		v := *u
		expected = &v
	}
	return entity, expected, nil
}

func (s *CommandsImpl) run(ctx context.Context, op string, kind command.Kind, cmd command.Command, coll Collection, entity model.Audited, expected *time.Time, scope *command.Scope) (Outcome, error) {
	created := entity.AuditInfo().IsNew()
	res, err := cmd.Apply(ctx, entity)
	if err != nil {
		return Outcome{}, err
	}

	out := Outcome{
		Kind:      kind,
		ID:        entity.AuditInfo().ID,
		Success:   res.Success,
		Unchanged: res.Unchanged,
		Messages:  res.Messages,
		Warnings:  res.Warnings,
		Errors:    res.Errors,
		Reason:    res.Reason,
	}
	if res.Success {
		out.Entity = entity
	}

	if res.Success && !res.Unchanged {
		if err := ctx.Err(); err != nil {
			return Outcome{}, err
		}
		if err := coll.Save(ctx, entity, expected); err != nil {
			if !errors.Is(err, errs.ErrStaleConcurrencyToken) {
				return Outcome{}, fmt.Errorf("save %s %s: %w", kind, out.ID, err)
			}
			out.Success = false
			out.Entity = nil
			out.Reason = errs.ErrStaleConcurrencyToken
			out.Errors = append(out.Errors, "Unable to save, this record was updated by someone else, you must refresh to see the latest details")
		}
	}
	// drained either way so a rejected command leaks nothing into the next one
	ev := scope.Flags.Take()
	if out.Success {
		out.Eviction = ev
	} else if created {
		out.ID = uuid.Nil
	}
	s.report(op, out)
	return out, nil
}

func (s *CommandsImpl) report(op string, out Outcome) {
	fields := []zap.Field{
		zap.String("op", op),
		zap.String("kind", string(out.Kind)),
		zap.Stringer("id", out.ID),
		zap.Bool("success", out.Success),
		zap.Bool("unchanged", out.Unchanged),
	}
	if out.Eviction.SeasonID != nil {
		fields = append(fields, zap.Stringer("evict_season", out.Eviction.SeasonID))
	}
	if out.Eviction.DivisionID != nil {
		fields = append(fields, zap.Stringer("evict_division", out.Eviction.DivisionID))
	}
	if out.Success {
		s.log.Info("command", fields...)
		return
	}
	fields = append(fields, zap.NamedError("reason", out.Reason), zap.Strings("errors", out.Errors), zap.Strings("warnings", out.Warnings))
	s.log.Warn("command rejected", fields...)
}
