// Package schema creates the tables and indexes the service relies on.
package schema

import (
	"context"
	"fmt"

	"github.com/gellahi/EduConnect-Pakistan/internal/review"
	"github.com/gellahi/EduConnect-Pakistan/internal/session"
	"github.com/gellahi/EduConnect-Pakistan/internal/subject"
	"github.com/gellahi/EduConnect-Pakistan/internal/tutor"
	"github.com/gellahi/EduConnect-Pakistan/internal/user"
	"github.com/gellahi/EduConnect-Pakistan/internal/wishlist"

	"github.com/uptrace/bun"
)

// Tables in dependency order.
var Tables = []string{
	"users",
	"subjects",
	"tutor_profiles",
	"tutor_subjects",
	"sessions",
	"reviews",
	"wishlist_items",
}

func models() []interface{} {
	return []interface{}{
		(*user.User)(nil),
		(*subject.Subject)(nil),
		(*tutor.Profile)(nil),
		(*tutor.ProfileSubject)(nil),
		(*session.Session)(nil),
		(*review.Review)(nil),
		(*wishlist.Item)(nil),
	}
}

var indexes = []string{
	// At most one active session per tutor slot.
	`CREATE UNIQUE INDEX IF NOT EXISTS sessions_active_slot_uniq
		ON sessions (tutor_id, session_date, start_time)
		WHERE status IN ('pending', 'confirmed')`,
	`CREATE INDEX IF NOT EXISTS sessions_student_idx ON sessions (student_id, session_date)`,
	`CREATE INDEX IF NOT EXISTS sessions_tutor_status_idx ON sessions (tutor_id, status, session_date)`,
	`CREATE INDEX IF NOT EXISTS tutor_profiles_status_rating_idx
		ON tutor_profiles (verification_status, average_rating DESC)`,
	`CREATE INDEX IF NOT EXISTS reviews_tutor_idx ON reviews (tutor_id, created_at DESC)`,
}

var checks = map[string]string{
	"reviews_rating_range":         `ALTER TABLE reviews ADD CONSTRAINT reviews_rating_range CHECK (rating BETWEEN 1 AND 5)`,
	"reviews_comment_present":      `ALTER TABLE reviews ADD CONSTRAINT reviews_comment_present CHECK (btrim(comment) <> '')`,
	"sessions_duration_positive":   `ALTER TABLE sessions ADD CONSTRAINT sessions_duration_positive CHECK (duration > 0)`,
	"tutor_profiles_rate_positive": `ALTER TABLE tutor_profiles ADD CONSTRAINT tutor_profiles_rate_positive CHECK (hourly_rate > 0)`,
}

// Migrate creates every table, index and check constraint that does not
// exist yet.
func Migrate(ctx context.Context, db *bun.DB) error {
	tutor.RegisterModels(db)

	for _, model := range models() {
		if _, err := db.NewCreateTable().Model(model).IfNotExists().WithForeignKeys().Exec(ctx); err != nil {
			return fmt.Errorf("failed to create table for %T: %w", model, err)
		}
	}

	for _, stmt := range indexes {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	for name, stmt := range checks {
		exists, err := db.NewSelect().
			TableExpr("pg_constraint").
			Where("conname = ?", name).
			Exists(ctx)
		if err != nil {
			return fmt.Errorf("failed to look up constraint %s: %w", name, err)
		}
		if exists {
			continue
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to add constraint %s: %w", name, err)
		}
	}
	return nil
}
