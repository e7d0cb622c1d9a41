package user

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/gellahi/EduConnect-Pakistan/internal/apperror"
	"github.com/gellahi/EduConnect-Pakistan/internal/metrics"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

var ErrUserNotFound = apperror.NotFound("user not found")

type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	// GetWithRole returns the user only if it holds role.
	GetWithRole(ctx context.Context, id uuid.UUID, role Role) (*User, error)
	ListByIDs(ctx context.Context, ids []uuid.UUID) ([]User, error)
}

type repository struct {
	db      bun.IDB
	metrics *metrics.Metrics
}

func NewRepository(db bun.IDB, m *metrics.Metrics) Repository {
	return &repository{db: db, metrics: m}
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	start := time.Now()
	u := new(User)
	err := r.db.NewSelect().Model(u).Where("u.id = ?", id).Scan(ctx)

	if errors.Is(err, sql.ErrNoRows) {
		r.metrics.Database.RecordQuery(ctx, "select", "users", time.Since(start), nil)
		return nil, ErrUserNotFound
	}
	r.metrics.Database.RecordQuery(ctx, "select", "users", time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (r *repository) GetWithRole(ctx context.Context, id uuid.UUID, role Role) (*User, error) {
	u, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u.Role != role {
		return nil, apperror.NotFound(string(role) + " not found")
	}
	return u, nil
}

func (r *repository) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]User, error) {
	users := make([]User, 0, len(ids))
	if len(ids) == 0 {
		return users, nil
	}

	start := time.Now()
	err := r.db.NewSelect().Model(&users).Where("u.id IN (?)", bun.In(ids)).Scan(ctx)
	r.metrics.Database.RecordQuery(ctx, "select", "users", time.Since(start), err)

	return users, err
}
