package session

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/gellahi/EduConnect-Pakistan/internal/apperror"
	"github.com/gellahi/EduConnect-Pakistan/internal/db"
	"github.com/gellahi/EduConnect-Pakistan/internal/metrics"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

var (
	ErrSessionNotFound = apperror.NotFound("session not found")
	ErrSlotTaken       = apperror.Conflict("tutor is already booked for this time")
)

// activeStatuses are the statuses that hold a tutor's slot.
var activeStatuses = []Status{StatusPending, StatusConfirmed}

type Repository interface {
	Create(ctx context.Context, s *Session) (*Session, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Session, error)
	// HasActiveAt reports whether the tutor already holds a pending or
	// confirmed session starting at startTime on date.
	HasActiveAt(ctx context.Context, tutorID uuid.UUID, date Date, startTime string) (bool, error)
	// UpdateStatus locks the session row, lets mutate change it and saves
	// the status fields, all in one transaction.
	UpdateStatus(ctx context.Context, id uuid.UUID, mutate func(*Session) error) (*Session, error)
	ActiveOnDate(ctx context.Context, tutorID uuid.UUID, date Date) ([]BookedSlot, error)
	ListForStudent(ctx context.Context, studentID uuid.UUID, status Status) ([]Session, error)
	ListForTutor(ctx context.Context, tutorID uuid.UUID, f TutorSessionFilter) ([]Session, error)
	// ListPaid returns completed, paid sessions of the tutor in [from, to].
	// Nil bounds are open.
	ListPaid(ctx context.Context, tutorID uuid.UUID, from, to *Date) ([]Session, error)
}

type repository struct {
	db      *bun.DB
	metrics *metrics.Metrics
}

func NewRepository(database *bun.DB, m *metrics.Metrics) Repository {
	return &repository{db: database, metrics: m}
}

func (r *repository) Create(ctx context.Context, s *Session) (*Session, error) {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}

	start := time.Now()
	_, err := r.db.NewInsert().Model(s).Returning("*").Exec(ctx)

	if db.IsUniqueViolation(err) {
		r.metrics.Database.RecordQuery(ctx, "insert", "sessions", time.Since(start), nil)
		return nil, ErrSlotTaken
	}
	r.metrics.Database.RecordQuery(ctx, "insert", "sessions", time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Session, error) {
	start := time.Now()
	s := new(Session)
	err := r.db.NewSelect().
		Model(s).
		Relation("Subject").
		Where("s.id = ?", id).
		Scan(ctx)

	if errors.Is(err, sql.ErrNoRows) {
		r.metrics.Database.RecordQuery(ctx, "select", "sessions", time.Since(start), nil)
		return nil, ErrSessionNotFound
	}
	r.metrics.Database.RecordQuery(ctx, "select", "sessions", time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *repository) HasActiveAt(ctx context.Context, tutorID uuid.UUID, date Date, startTime string) (bool, error) {
	start := time.Now()
	exists, err := r.db.NewSelect().
		Model((*Session)(nil)).
		Where("s.tutor_id = ?", tutorID).
		Where("s.session_date = ?", date).
		Where("s.start_time = ?", startTime).
		Where("s.status IN (?)", bun.In(activeStatuses)).
		Exists(ctx)
	r.metrics.Database.RecordQuery(ctx, "exists", "sessions", time.Since(start), err)
	return exists, err
}

func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, mutate func(*Session) error) (*Session, error) {
	start := time.Now()
	s := new(Session)

	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		err := tx.NewSelect().Model(s).Where("s.id = ?", id).For("UPDATE").Scan(ctx)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrSessionNotFound
		}
		if err != nil {
			return err
		}

		if err := mutate(s); err != nil {
			return err
		}

		s.UpdatedAt = time.Now()
		_, err = tx.NewUpdate().
			Model(s).
			Column("status", "payment_status", "updated_at").
			WherePK().
			Exec(ctx)
		return err
	})

	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		r.metrics.Database.RecordQuery(ctx, "update", "sessions", time.Since(start), nil)
		return nil, err
	}
	r.metrics.Database.RecordQuery(ctx, "update", "sessions", time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *repository) ActiveOnDate(ctx context.Context, tutorID uuid.UUID, date Date) ([]BookedSlot, error) {
	start := time.Now()
	slots := []BookedSlot{}
	err := r.db.NewSelect().
		Model((*Session)(nil)).
		Column("s.start_time", "s.end_time").
		Where("s.tutor_id = ?", tutorID).
		Where("s.session_date = ?", date).
		Where("s.status IN (?)", bun.In(activeStatuses)).
		Order("s.start_time ASC").
		Scan(ctx, &slots)
	r.metrics.Database.RecordQuery(ctx, "select", "sessions", time.Since(start), err)
	return slots, err
}

func (r *repository) ListForStudent(ctx context.Context, studentID uuid.UUID, status Status) ([]Session, error) {
	start := time.Now()
	sessions := []Session{}
	q := r.db.NewSelect().
		Model(&sessions).
		Relation("Tutor").
		Relation("Subject").
		Where("s.student_id = ?", studentID)
	if status != "" {
		q.Where("s.status = ?", status)
	}
	err := q.OrderExpr("s.session_date DESC, s.start_time DESC").Scan(ctx)
	r.metrics.Database.RecordQuery(ctx, "select", "sessions", time.Since(start), err)
	return sessions, err
}

func (r *repository) ListForTutor(ctx context.Context, tutorID uuid.UUID, f TutorSessionFilter) ([]Session, error) {
	start := time.Now()
	sessions := []Session{}
	q := r.db.NewSelect().
		Model(&sessions).
		Relation("Student").
		Relation("Subject").
		Where("s.tutor_id = ?", tutorID)
	if f.Status != "" {
		q.Where("s.status = ?", f.Status)
	}
	if f.StartDate != nil {
		q.Where("s.session_date >= ?", *f.StartDate)
	}
	if f.EndDate != nil {
		q.Where("s.session_date <= ?", *f.EndDate)
	}
	err := q.OrderExpr("s.session_date ASC, s.start_time ASC").Scan(ctx)
	r.metrics.Database.RecordQuery(ctx, "select", "sessions", time.Since(start), err)
	return sessions, err
}

func (r *repository) ListPaid(ctx context.Context, tutorID uuid.UUID, from, to *Date) ([]Session, error) {
	start := time.Now()
	sessions := []Session{}
	q := r.db.NewSelect().
		Model(&sessions).
		Where("s.tutor_id = ?", tutorID).
		Where("s.status = ?", StatusCompleted).
		Where("s.payment_status = ?", PaymentCompleted)
	if from != nil {
		q.Where("s.session_date >= ?", *from)
	}
	if to != nil {
		q.Where("s.session_date <= ?", *to)
	}
	err := q.Order("s.session_date ASC").Scan(ctx)
	r.metrics.Database.RecordQuery(ctx, "select", "sessions", time.Since(start), err)
	return sessions, err
}
