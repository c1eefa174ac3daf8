package crud

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/redmonkez12/go-tours-api/internal/query"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

// Store is the persistence contract the generic controller runs against.
type Store[T any] interface {
	FindByID(ctx context.Context, id uuid.UUID) (*T, error)
	FindAll(ctx context.Context, spec query.Spec, scope []query.Filter) ([]T, error)
	Create(ctx context.Context, model *T) error
	Update(ctx context.Context, model *T) error
	DeleteByID(ctx context.Context, id uuid.UUID) error
}

// BunStore implements Store over a bun table. Each resource configures its
// relation expansion and an optional default scope that every read carries
// (inactive users, secret tours).
type BunStore[T any] struct {
	db        *bun.DB
	relations []string
	scope     []query.Filter
}

type BunOption[T any] func(*BunStore[T])

// WithRelations expands the named bun relations on every read.
func WithRelations[T any](relations ...string) BunOption[T] {
	return func(s *BunStore[T]) {
		s.relations = relations
	}
}

// WithScope adds filters that every read applies before request filters.
func WithScope[T any](filters ...query.Filter) BunOption[T] {
	return func(s *BunStore[T]) {
		s.scope = filters
	}
}

func NewBunStore[T any](db *bun.DB, opts ...BunOption[T]) *BunStore[T] {
	s := &BunStore[T]{db: db}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *BunStore[T]) FindByID(ctx context.Context, id uuid.UUID) (*T, error) {
	model := new(T)
	q := s.db.NewSelect().
		Model(model).
		Where("?TableAlias.id = ?", id)

	q = s.applyScope(q)
	q = s.applyRelations(q)

	if err := q.Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find record: %w", err)
	}

	return model, nil
}

func (s *BunStore[T]) FindAll(ctx context.Context, spec query.Spec, scope []query.Filter) ([]T, error) {
	var models []T
	q := s.db.NewSelect().Model(&models)

	q = s.applyScope(q)
	for _, f := range scope {
		q = query.ApplyFilter(q, f)
	}
	q = query.ApplyTo(q, spec)
	q = s.applyRelations(q)

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}

	return models, nil
}

func (s *BunStore[T]) Create(ctx context.Context, model *T) error {
	_, err := s.db.NewInsert().
		Model(model).
		Returning("*").
		Exec(ctx)

	if err != nil {
		if isDuplicate(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to create record: %w", err)
	}

	return nil
}

func (s *BunStore[T]) Update(ctx context.Context, model *T) error {
	result, err := s.db.NewUpdate().
		Model(model).
		WherePK().
		Returning("*").
		Exec(ctx)

	if err != nil {
		if isDuplicate(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to update record: %w", err)
	}

	return checkAffected(result)
}

func (s *BunStore[T]) DeleteByID(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.NewDelete().
		Model((*T)(nil)).
		Where("id = ?", id).
		Exec(ctx)

	if err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}

	return checkAffected(result)
}

func (s *BunStore[T]) applyScope(q *bun.SelectQuery) *bun.SelectQuery {
	for _, f := range s.scope {
		q = query.ApplyFilter(q, f)
	}
	return q
}

func (s *BunStore[T]) applyRelations(q *bun.SelectQuery) *bun.SelectQuery {
	for _, rel := range s.relations {
		q = q.Relation(rel)
	}
	return q
}

func isDuplicate(err error) bool {
	return strings.Contains(err.Error(), "duplicate key value violates unique constraint")
}

func checkAffected(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
