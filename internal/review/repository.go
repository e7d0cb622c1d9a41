package review

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/gellahi/EduConnect-Pakistan/internal/apperror"
	"github.com/gellahi/EduConnect-Pakistan/internal/db"
	"github.com/gellahi/EduConnect-Pakistan/internal/metrics"
	"github.com/gellahi/EduConnect-Pakistan/internal/tutor"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

var (
	ErrAlreadyReviewed = apperror.Conflict("you have already reviewed this session")
	ErrTutorNotFound   = apperror.NotFound("tutor profile not found")
)

type Repository interface {
	Exists(ctx context.Context, studentID, sessionID uuid.UUID) (bool, error)
	// Record inserts the review and folds its rating into the tutor's
	// profile in one transaction.
	Record(ctx context.Context, rv *Review) (*Review, Rating, error)
	ListForTutor(ctx context.Context, tutorID uuid.UUID) ([]Review, error)
}

type repository struct {
	db      *bun.DB
	metrics *metrics.Metrics
}

func NewRepository(database *bun.DB, m *metrics.Metrics) Repository {
	return &repository{db: database, metrics: m}
}

func (r *repository) Exists(ctx context.Context, studentID, sessionID uuid.UUID) (bool, error) {
	start := time.Now()
	exists, err := r.db.NewSelect().
		Model((*Review)(nil)).
		Where("r.student_id = ?", studentID).
		Where("r.session_id = ?", sessionID).
		Exists(ctx)
	r.metrics.Database.RecordQuery(ctx, "exists", "reviews", time.Since(start), err)
	return exists, err
}

func (r *repository) Record(ctx context.Context, rv *Review) (*Review, Rating, error) {
	if rv.ID == uuid.Nil {
		rv.ID = uuid.New()
	}

	start := time.Now()
	var rating Rating

	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		profile := new(tutor.Profile)
		err := tx.NewSelect().
			Model(profile).
			Where("tp.user_id = ?", rv.TutorID).
			For("UPDATE").
			Scan(ctx)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrTutorNotFound
		}
		if err != nil {
			return err
		}

		_, err = tx.NewInsert().Model(rv).Returning("*").Exec(ctx)
		if db.IsUniqueViolation(err) {
			return ErrAlreadyReviewed
		}
		if err != nil {
			return err
		}

		profile.AverageRating, profile.TotalReviews = NextAverage(profile.AverageRating, profile.TotalReviews, rv.Rating)
		profile.UpdatedAt = time.Now()
		_, err = tx.NewUpdate().
			Model(profile).
			Column("average_rating", "total_reviews", "updated_at").
			WherePK().
			Exec(ctx)
		if err != nil {
			return err
		}

		rating = Rating{AverageRating: profile.AverageRating, TotalReviews: profile.TotalReviews}
		return nil
	})

	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		r.metrics.Database.RecordQuery(ctx, "insert", "reviews", time.Since(start), nil)
		return nil, Rating{}, err
	}
	r.metrics.Database.RecordQuery(ctx, "insert", "reviews", time.Since(start), err)
	if err != nil {
		return nil, Rating{}, err
	}
	return rv, rating, nil
}

func (r *repository) ListForTutor(ctx context.Context, tutorID uuid.UUID) ([]Review, error) {
	start := time.Now()
	reviews := []Review{}
	err := r.db.NewSelect().
		Model(&reviews).
		Relation("Student").
		Where("r.tutor_id = ?", tutorID).
		OrderExpr("r.created_at DESC, r.id ASC").
		Scan(ctx)
	r.metrics.Database.RecordQuery(ctx, "select", "reviews", time.Since(start), err)
	return reviews, err
}
