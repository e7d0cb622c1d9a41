package subject

import (
	"context"
	"time"

	"github.com/gellahi/EduConnect-Pakistan/internal/apperror"
	"github.com/gellahi/EduConnect-Pakistan/internal/db"
	"github.com/gellahi/EduConnect-Pakistan/internal/metrics"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type Repository interface {
	Create(ctx context.Context, s *Subject) (*Subject, error)
	List(ctx context.Context, category string) ([]Subject, error)
	// CountExisting returns how many of ids refer to stored subjects.
	CountExisting(ctx context.Context, ids []uuid.UUID) (int, error)
}

type repository struct {
	db      bun.IDB
	metrics *metrics.Metrics
}

func NewRepository(db bun.IDB, m *metrics.Metrics) Repository {
	return &repository{db: db, metrics: m}
}

func (r *repository) Create(ctx context.Context, s *Subject) (*Subject, error) {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}

	start := time.Now()
	_, err := r.db.NewInsert().Model(s).Returning("*").Exec(ctx)
	r.metrics.Database.RecordQuery(ctx, "insert", "subjects", time.Since(start), err)

	if db.IsUniqueViolation(err) {
		return nil, apperror.Conflict("subject already exists")
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *repository) List(ctx context.Context, category string) ([]Subject, error) {
	start := time.Now()
	subjects := []Subject{}
	q := r.db.NewSelect().Model(&subjects).Order("sub.name ASC")
	if category != "" {
		q.Where("sub.category = ?", category)
	}
	err := q.Scan(ctx)
	r.metrics.Database.RecordQuery(ctx, "select", "subjects", time.Since(start), err)

	return subjects, err
}

func (r *repository) CountExisting(ctx context.Context, ids []uuid.UUID) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	start := time.Now()
	n, err := r.db.NewSelect().Model((*Subject)(nil)).Where("sub.id IN (?)", bun.In(ids)).Count(ctx)
	r.metrics.Database.RecordQuery(ctx, "count", "subjects", time.Since(start), err)
	return n, err
}
