// Package command implements the update-command engine: every mutation of a league entity is a
// single-use command that is bound to a payload, checks entity state and the optimistic
// concurrency token, applies type-specific rules and reports a structured outcome.
package command

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/and161185/league-keeper/internal/errs"
	"github.com/and161185/league-keeper/internal/model"
)

// Command is the uniform shape of every mutation.
type Command interface {
	// Bind attaches the update payload. It must be called before Apply.
	Bind(data any) error
	// Apply mutates entity in place. Domain failures are reported in the Result;
	// the error is reserved for programming faults and collaborator failures.
	Apply(ctx context.Context, entity model.Audited) (Result[model.Audited], error)
}

// Kind tags a registered command.
type Kind string

// Registered kinds.
const (
	KindTeam           Kind = "team"
	KindSeason         Kind = "season"
	KindTeamSeason     Kind = "team_season"
	KindGame           Kind = "game"
	KindTournamentGame Kind = "tournament_game"
)

// Scope is allocated once per inbound request and shared by every command and sub-command in it.
type Scope struct {
	Flags *CacheFlags
}

// NewScope returns a scope with fresh cache flags.
func NewScope() *Scope { return &Scope{Flags: &CacheFlags{}} }

// Registration describes how to build the commands for one kind.
type Registration struct {
	// Entity is the display name used in outcome messages.
	Entity string
	// Update builds the create/update command.
	Update func(scope *Scope) Command
	// Delete builds the soft-delete command; nil when the kind cannot be deleted.
	Delete func(scope *Scope) Command
	// NewEntity returns an empty, not yet persisted entity.
	NewEntity func() model.Audited
	// NewData returns a pointer to an empty payload suitable for decoding.
	NewData func() any
	// Existing is set when the command only applies to an already stored entity.
	Existing bool
}

// Registry maps kinds to their registrations.
type Registry struct {
	mu   sync.RWMutex
	regs map[Kind]Registration
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{regs: make(map[Kind]Registration)}
}

// Register adds or replaces the registration for kind.
func (r *Registry) Register(kind Kind, reg Registration) {
	if reg.Update == nil || reg.NewEntity == nil || reg.NewData == nil {
		panic(fmt.Sprintf("command: incomplete registration for %q", kind))
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.regs[kind] = reg
}

// Lookup returns the registration for kind.
func (r *Registry) Lookup(kind Kind) (Registration, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	reg, ok := r.regs[kind]
	if !ok {
		return Registration{}, fmt.Errorf("%q: %w", kind, errs.ErrUnknownKind)
	}
	return reg, nil
}

// New builds the update command for kind within scope.
func (r *Registry) New(kind Kind, scope *Scope) (Command, error) {
	reg, err := r.Lookup(kind)
	if err != nil {
		return nil, err
	}
	return reg.Update(scope), nil
}

// NewDelete builds the delete command for kind within scope.
func (r *Registry) NewDelete(kind Kind, scope *Scope) (Command, error) {
	reg, err := r.Lookup(kind)
	if err != nil {
		return nil, err
	}
	if reg.Delete == nil {
		return nil, fmt.Errorf("%q cannot be deleted: %w", kind, errs.ErrUnknownKind)
	}
	return reg.Delete(scope), nil
}

// Kinds lists the registered kinds in a stable order.
func (r *Registry) Kinds() []Kind {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Kind, 0, len(r.regs))
	for k := range r.regs {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
