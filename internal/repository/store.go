// Package repository defines storage interfaces implemented by concrete backends.
package repository

import (
	"context"
	"time"

	"github.com/and161185/league-keeper/internal/model"
	"github.com/gofrs/uuid/v5"
)

// Store is a key-by-id document store for one entity kind.
type Store[T model.Audited] interface {
	// Get loads one entity; errs.ErrNotFound when absent.
	Get(ctx context.Context, id uuid.UUID) (T, error)
	// GetAll returns every entity of the kind, deleted ones included.
	GetAll(ctx context.Context) ([]T, error)
	// GetSome returns entities whose document contains the JSON filter, e.g. {"seasonId":"..."}.
	GetSome(ctx context.Context, filter string) ([]T, error)
	// Upsert writes the entity in one atomic statement. expected is the Updated value the
	// caller loaded; a mismatch with the stored row yields errs.ErrStaleConcurrencyToken.
	Upsert(ctx context.Context, entity T, expected *time.Time) error
	// Delete removes the document permanently.
	Delete(ctx context.Context, id uuid.UUID) error
}
