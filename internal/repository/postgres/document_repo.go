package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/and161185/league-keeper/internal/errs"
	"github.com/and161185/league-keeper/internal/model"
	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
)

// Document kinds stored in the documents table.
const (
	KindTeam           = "team"
	KindSeason         = "season"
	KindGame           = "game"
	KindTournamentGame = "tournament_game"
)

// DocumentRepo implements repository.Store over a jsonb documents table.
type DocumentRepo[T model.Audited] struct {
	db   *DB
	kind string
}

// NewDocumentRepo constructs a store for one document kind.
func NewDocumentRepo[T model.Audited](db *DB, kind string) *DocumentRepo[T] {
	return &DocumentRepo[T]{db: db, kind: kind}
}

// Get returns a single document by id.
func (r *DocumentRepo[T]) Get(ctx context.Context, id uuid.UUID) (T, error) {
	const q = `SELECT body FROM documents WHERE kind=$1 AND id=$2`
	var (
		zero T
		body []byte
	)
	if err := r.db.Pool.QueryRow(ctx, q, r.kind, id).Scan(&body); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return zero, fmt.Errorf("%s %s: %w", r.kind, id, errs.ErrNotFound)
		}
		return zero, err
	}
	return r.decode(body)
}

// GetAll returns every document of the kind ordered by id.
func (r *DocumentRepo[T]) GetAll(ctx context.Context) ([]T, error) {
	const q = `SELECT body FROM documents WHERE kind=$1 ORDER BY id`
	return r.list(ctx, q, r.kind)
}

// GetSome returns documents containing filter (jsonb @> semantics).
func (r *DocumentRepo[T]) GetSome(ctx context.Context, filter string) ([]T, error) {
	if !json.Valid([]byte(filter)) {
		return nil, fmt.Errorf("filter %q: %w", filter, errs.ErrValidationFailed)
	}
	const q = `SELECT body FROM documents WHERE kind=$1 AND body @> $2::jsonb ORDER BY id`
	out, err := r.list(ctx, q, r.kind, filter)
	if isInvalidJSON(err) {
		return nil, fmt.Errorf("filter %q: %w", filter, errs.ErrValidationFailed)
	}
	return out, err
}

// Upsert inserts or replaces the document, provided the stored row still carries expected.
func (r *DocumentRepo[T]) Upsert(ctx context.Context, entity T, expected *time.Time) error {
	a := entity.AuditInfo()
	if a.ID == uuid.Nil {
		return fmt.Errorf("%s upsert: %w", r.kind, errs.ErrValidationFailed)
	}
	body, err := json.Marshal(entity)
	if err != nil {
		return fmt.Errorf("%s encode: %w", r.kind, err)
	}
	const q = `
INSERT INTO documents (kind, id, body, updated, deleted)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (kind, id) DO UPDATE
SET body=EXCLUDED.body, updated=EXCLUDED.updated, deleted=EXCLUDED.deleted
WHERE documents.updated IS NOT DISTINCT FROM $6`
	tag, err := r.db.Pool.Exec(ctx, q, r.kind, a.ID, body, a.Updated, a.Deleted, expected)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s %s: %w", r.kind, a.ID, errs.ErrStaleConcurrencyToken)
	}
	return nil
}

// Delete removes a document permanently.
func (r *DocumentRepo[T]) Delete(ctx context.Context, id uuid.UUID) error {
	const q = `DELETE FROM documents WHERE kind=$1 AND id=$2`
	tag, err := r.db.Pool.Exec(ctx, q, r.kind, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s %s: %w", r.kind, id, errs.ErrNotFound)
	}
	return nil
}

func (r *DocumentRepo[T]) list(ctx context.Context, q string, args ...any) ([]T, error) {
	rows, err := r.db.Pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		var body []byte
		if err = rows.Scan(&body); err != nil {
			return nil, err
		}
		v, err := r.decode(body)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (r *DocumentRepo[T]) decode(body []byte) (T, error) {
	var v T
	if err := json.Unmarshal(body, &v); err != nil {
		var zero T
		return zero, fmt.Errorf("%s decode: %w", r.kind, err)
	}
	return v, nil
}
