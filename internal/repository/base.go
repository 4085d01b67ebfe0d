// Package repository provides the gorm-backed entity store: single-entity
// CRUD, base queries for the read pipelines, batched join loaders and the
// transactional relationship primitives.
package repository

import (
	"context"
	"errors"
	"strings"

	"videotube/internal/models"
	"videotube/internal/observability"

	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"
)

const pgUniqueViolation = "23505"

// base carries what every repository shares: the handle, the table name
// for spans and metrics, and the error translation.
type base struct {
	db    *gorm.DB
	table string
	log   *observability.RepoLogger
}

func newBase(db *gorm.DB, table string) base {
	return base{db: db, table: table, log: observability.NewRepoLogger(table)}
}

// observe opens a span and latency timer for method. The returned func
// must be deferred with a pointer to the method's named error.
func (b base) observe(ctx context.Context, method string) (context.Context, func(*error)) {
	ctx, span := observability.TraceRepositoryMethod(ctx, method, b.table)
	stop := observability.TrackQuery(method, b.table)
	return ctx, func(errp *error) {
		stop()
		if err := *errp; err != nil && models.IsKind(err, models.KindDependency) {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			b.log.LogError(ctx, err, method)
		}
		span.End()
	}
}

// translate maps store errors onto the domain taxonomy. Errors that are
// already AppErrors pass through unchanged.
func (b base) translate(err error, resource string, id any) error {
	if err == nil {
		return nil
	}
	var appErr *models.AppError
	switch {
	case errors.As(err, &appErr):
		return err
	case errors.Is(err, gorm.ErrRecordNotFound):
		return models.NewNotFoundError(resource, id)
	case isUniqueViolation(err):
		return models.NewConflictError(resource + " already exists")
	default:
		return models.NewDependencyError(err)
	}
}

// isUniqueViolation recognizes PostgreSQL's 23505 and SQLite's UNIQUE
// constraint failures.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// IsTransient reports whether an operation that failed with err may succeed
// when retried.
func IsTransient(err error) bool {
	return models.IsKind(err, models.KindDependency)
}
