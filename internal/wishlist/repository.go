package wishlist

import (
	"context"
	"time"

	"github.com/gellahi/EduConnect-Pakistan/internal/apperror"
	"github.com/gellahi/EduConnect-Pakistan/internal/db"
	"github.com/gellahi/EduConnect-Pakistan/internal/metrics"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

var (
	ErrAlreadySaved = apperror.Conflict("tutor already in wishlist")
	ErrEmpty        = apperror.NotFound("wishlist not found")
)

type Repository interface {
	Add(ctx context.Context, studentID, tutorID uuid.UUID) error
	// Remove reports ErrEmpty when the student has saved nobody at all.
	Remove(ctx context.Context, studentID, tutorID uuid.UUID) error
	// TutorIDs lists saved tutors, oldest first.
	TutorIDs(ctx context.Context, studentID uuid.UUID) ([]uuid.UUID, error)
}

type repository struct {
	db      bun.IDB
	metrics *metrics.Metrics
}

func NewRepository(database bun.IDB, m *metrics.Metrics) Repository {
	return &repository{db: database, metrics: m}
}

func (r *repository) Add(ctx context.Context, studentID, tutorID uuid.UUID) error {
	start := time.Now()
	_, err := r.db.NewInsert().Model(&Item{StudentID: studentID, TutorID: tutorID}).Exec(ctx)

	if db.IsUniqueViolation(err) {
		r.metrics.Database.RecordQuery(ctx, "insert", "wishlist_items", time.Since(start), nil)
		return ErrAlreadySaved
	}
	r.metrics.Database.RecordQuery(ctx, "insert", "wishlist_items", time.Since(start), err)
	return err
}

func (r *repository) Remove(ctx context.Context, studentID, tutorID uuid.UUID) error {
	start := time.Now()
	n, err := r.db.NewSelect().Model((*Item)(nil)).Where("wi.student_id = ?", studentID).Count(ctx)
	r.metrics.Database.RecordQuery(ctx, "count", "wishlist_items", time.Since(start), err)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrEmpty
	}

	start = time.Now()
	_, err = r.db.NewDelete().
		Model((*Item)(nil)).
		Where("student_id = ?", studentID).
		Where("tutor_id = ?", tutorID).
		Exec(ctx)
	r.metrics.Database.RecordQuery(ctx, "delete", "wishlist_items", time.Since(start), err)
	return err
}

func (r *repository) TutorIDs(ctx context.Context, studentID uuid.UUID) ([]uuid.UUID, error) {
	start := time.Now()
	ids := []uuid.UUID{}
	err := r.db.NewSelect().
		Model((*Item)(nil)).
		Column("wi.tutor_id").
		Where("wi.student_id = ?", studentID).
		OrderExpr("wi.created_at ASC, wi.tutor_id ASC").
		Scan(ctx, &ids)
	r.metrics.Database.RecordQuery(ctx, "select", "wishlist_items", time.Since(start), err)
	return ids, err
}
