package verification

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/gellahi/EduConnect-Pakistan/internal/apperror"
	"github.com/gellahi/EduConnect-Pakistan/internal/metrics"
	"github.com/gellahi/EduConnect-Pakistan/internal/tutor"
	"github.com/gellahi/EduConnect-Pakistan/internal/user"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

var ErrUserMissing = apperror.NotFound("user for tutor profile not found")

type Repository interface {
	// SetStatus updates the profile's verification and the owning user's
	// verified flag together, or neither.
	SetStatus(ctx context.Context, profileID uuid.UUID, status tutor.VerificationStatus, comment string) error
}

type repository struct {
	db      *bun.DB
	metrics *metrics.Metrics
}

func NewRepository(database *bun.DB, m *metrics.Metrics) Repository {
	return &repository{db: database, metrics: m}
}

func (r *repository) SetStatus(ctx context.Context, profileID uuid.UUID, status tutor.VerificationStatus, comment string) error {
	start := time.Now()

	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		profile := new(tutor.Profile)
		err := tx.NewSelect().Model(profile).Where("tp.id = ?", profileID).For("UPDATE").Scan(ctx)
		if errors.Is(err, sql.ErrNoRows) {
			return tutor.ErrProfileNotFound
		}
		if err != nil {
			return err
		}

		columns := []string{"verification_status", "updated_at"}
		profile.VerificationStatus = status
		profile.UpdatedAt = time.Now()
		if comment != "" {
			profile.VerificationComment = comment
			columns = append(columns, "verification_comment")
		}
		if _, err := tx.NewUpdate().Model(profile).Column(columns...).WherePK().Exec(ctx); err != nil {
			return err
		}

		res, err := tx.NewUpdate().
			Model((*user.User)(nil)).
			Set("is_verified = ?", status == tutor.StatusApproved).
			Where("id = ?", profile.UserID).
			Exec(ctx)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrUserMissing
		}
		return nil
	})

	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		r.metrics.Database.RecordQuery(ctx, "update", "tutor_profiles", time.Since(start), nil)
		return err
	}
	r.metrics.Database.RecordQuery(ctx, "update", "tutor_profiles", time.Since(start), err)
	return err
}
