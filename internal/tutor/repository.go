package tutor

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/gellahi/EduConnect-Pakistan/internal/apperror"
	"github.com/gellahi/EduConnect-Pakistan/internal/db"
	"github.com/gellahi/EduConnect-Pakistan/internal/metrics"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

var (
	ErrProfileNotFound  = apperror.NotFound("tutor profile not found")
	ErrProfileExists    = apperror.Conflict("tutor profile already exists")
	ErrTutorNotBooking  = apperror.NotFound("tutor not found or not verified")
	ErrSubjectNotLinked = apperror.NotFound("subject is not on this profile")
)

type Repository interface {
	Create(ctx context.Context, p *Profile, subjectIDs []uuid.UUID) (*Profile, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Profile, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (*Profile, error)
	// GetApprovedByUserID returns the profile only when it may take bookings.
	GetApprovedByUserID(ctx context.Context, userID uuid.UUID) (*Profile, error)
	Update(ctx context.Context, p *Profile, columns ...string) error
	AddSubjects(ctx context.Context, profileID uuid.UUID, subjectIDs []uuid.UUID) error
	RemoveSubject(ctx context.Context, profileID, subjectID uuid.UUID) error
	SearchApproved(ctx context.Context, f SearchFilter) ([]Profile, error)
	ListPending(ctx context.Context) ([]Profile, error)
	ListByUserIDs(ctx context.Context, userIDs []uuid.UUID) ([]Profile, error)
}

type repository struct {
	db      *bun.DB
	metrics *metrics.Metrics
}

func NewRepository(database *bun.DB, m *metrics.Metrics) Repository {
	RegisterModels(database)
	return &repository{db: database, metrics: m}
}

// RegisterModels makes the tutor_subjects join model known to bun, which
// m2m relations require.
func RegisterModels(database *bun.DB) {
	database.RegisterModel((*ProfileSubject)(nil))
}

func (r *repository) withRelations(q *bun.SelectQuery) *bun.SelectQuery {
	return q.
		Relation("User").
		Relation("Subjects", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Order("sub.name ASC")
		})
}

func (r *repository) Create(ctx context.Context, p *Profile, subjectIDs []uuid.UUID) (*Profile, error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}

	start := time.Now()
	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(p).Returning("*").Exec(ctx); err != nil {
			return err
		}
		return insertLinks(ctx, tx, p.ID, subjectIDs)
	})
	r.metrics.Database.RecordQuery(ctx, "insert", "tutor_profiles", time.Since(start), err)

	if db.IsUniqueViolation(err) {
		return nil, ErrProfileExists
	}
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, p.ID)
}

func insertLinks(ctx context.Context, idb bun.IDB, profileID uuid.UUID, subjectIDs []uuid.UUID) error {
	if len(subjectIDs) == 0 {
		return nil
	}
	links := make([]ProfileSubject, 0, len(subjectIDs))
	for _, id := range subjectIDs {
		links = append(links, ProfileSubject{ProfileID: profileID, SubjectID: id})
	}
	_, err := idb.NewInsert().Model(&links).On("CONFLICT DO NOTHING").Exec(ctx)
	return err
}

func (r *repository) getOne(ctx context.Context, where string, arg interface{}) (*Profile, error) {
	start := time.Now()
	p := new(Profile)
	err := r.withRelations(r.db.NewSelect().Model(p)).Where(where, arg).Scan(ctx)

	if errors.Is(err, sql.ErrNoRows) {
		r.metrics.Database.RecordQuery(ctx, "select", "tutor_profiles", time.Since(start), nil)
		return nil, ErrProfileNotFound
	}
	r.metrics.Database.RecordQuery(ctx, "select", "tutor_profiles", time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Profile, error) {
	return r.getOne(ctx, "tp.id = ?", id)
}

func (r *repository) GetByUserID(ctx context.Context, userID uuid.UUID) (*Profile, error) {
	return r.getOne(ctx, "tp.user_id = ?", userID)
}

func (r *repository) GetApprovedByUserID(ctx context.Context, userID uuid.UUID) (*Profile, error) {
	start := time.Now()
	p := new(Profile)
	err := r.db.NewSelect().
		Model(p).
		Where("tp.user_id = ?", userID).
		Where("tp.verification_status = ?", StatusApproved).
		Scan(ctx)

	if errors.Is(err, sql.ErrNoRows) {
		r.metrics.Database.RecordQuery(ctx, "select", "tutor_profiles", time.Since(start), nil)
		return nil, ErrTutorNotBooking
	}
	r.metrics.Database.RecordQuery(ctx, "select", "tutor_profiles", time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *repository) Update(ctx context.Context, p *Profile, columns ...string) error {
	start := time.Now()
	p.UpdatedAt = time.Now()
	q := r.db.NewUpdate().Model(p).WherePK()
	if len(columns) > 0 {
		q.Column(append(columns, "updated_at")...)
	}
	res, err := q.Exec(ctx)
	r.metrics.Database.RecordQuery(ctx, "update", "tutor_profiles", time.Since(start), err)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrProfileNotFound
	}
	return nil
}

func (r *repository) AddSubjects(ctx context.Context, profileID uuid.UUID, subjectIDs []uuid.UUID) error {
	start := time.Now()
	err := insertLinks(ctx, r.db, profileID, subjectIDs)
	r.metrics.Database.RecordQuery(ctx, "insert", "tutor_subjects", time.Since(start), err)
	return err
}

func (r *repository) RemoveSubject(ctx context.Context, profileID, subjectID uuid.UUID) error {
	start := time.Now()
	res, err := r.db.NewDelete().
		Model((*ProfileSubject)(nil)).
		Where("tutor_profile_id = ?", profileID).
		Where("subject_id = ?", subjectID).
		Exec(ctx)
	r.metrics.Database.RecordQuery(ctx, "delete", "tutor_subjects", time.Since(start), err)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrSubjectNotLinked
	}
	return nil
}

// SearchApproved lists approved tutors matching every set filter, best
// rated first. Availability filters match when a single weekly slot on the
// requested day covers the requested window.
func (r *repository) SearchApproved(ctx context.Context, f SearchFilter) ([]Profile, error) {
	start := time.Now()
	profiles := []Profile{}

	q := r.withRelations(r.db.NewSelect().Model(&profiles)).
		Where("tp.verification_status = ?", StatusApproved)

	if f.SubjectID != nil {
		q.Where("EXISTS (SELECT 1 FROM tutor_subjects AS link WHERE link.tutor_profile_id = tp.id AND link.subject_id = ?)", *f.SubjectID)
	}
	if city := strings.TrimSpace(f.City); city != "" {
		q.Where("tp.location_city ILIKE ?", "%"+escapeLike(city)+"%")
	}
	if f.MinPrice != nil {
		q.Where("tp.hourly_rate >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		q.Where("tp.hourly_rate <= ?", *f.MaxPrice)
	}
	if f.MinRating != nil {
		q.Where("tp.average_rating >= ?", *f.MinRating)
	}
	if f.Day != "" || f.StartTime != "" || f.EndTime != "" {
		conds := []string{"TRUE"}
		args := []interface{}{}
		if f.Day != "" {
			conds = append(conds, "slot->>'day' = ?")
			args = append(args, f.Day)
		}
		if f.StartTime != "" {
			conds = append(conds, "slot->>'startTime' <= ?")
			args = append(args, f.StartTime)
		}
		if f.EndTime != "" {
			conds = append(conds, "slot->>'endTime' >= ?")
			args = append(args, f.EndTime)
		}
		q.Where("EXISTS (SELECT 1 FROM jsonb_array_elements("+
			"CASE WHEN jsonb_typeof(tp.availability) = 'array' THEN tp.availability ELSE '[]'::jsonb END"+
			") AS slot WHERE "+strings.Join(conds, " AND ")+")", args...)
	}

	err := q.OrderExpr("tp.average_rating DESC, tp.id ASC").Scan(ctx)
	r.metrics.Database.RecordQuery(ctx, "search", "tutor_profiles", time.Since(start), err)

	return profiles, err
}

func (r *repository) ListPending(ctx context.Context) ([]Profile, error) {
	start := time.Now()
	profiles := []Profile{}
	err := r.withRelations(r.db.NewSelect().Model(&profiles)).
		Where("tp.verification_status = ?", StatusPending).
		Order("tp.created_at ASC").
		Scan(ctx)
	r.metrics.Database.RecordQuery(ctx, "select", "tutor_profiles", time.Since(start), err)
	return profiles, err
}

func (r *repository) ListByUserIDs(ctx context.Context, userIDs []uuid.UUID) ([]Profile, error) {
	profiles := []Profile{}
	if len(userIDs) == 0 {
		return profiles, nil
	}
	start := time.Now()
	err := r.withRelations(r.db.NewSelect().Model(&profiles)).
		Where("tp.user_id IN (?)", bun.In(userIDs)).
		Scan(ctx)
	r.metrics.Database.RecordQuery(ctx, "select", "tutor_profiles", time.Since(start), err)
	return profiles, err
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
