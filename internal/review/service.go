package review

import (
	"context"
	"strings"

	"github.com/gellahi/EduConnect-Pakistan/internal/apperror"
	"github.com/gellahi/EduConnect-Pakistan/internal/events"
	"github.com/gellahi/EduConnect-Pakistan/internal/metrics"
	"github.com/gellahi/EduConnect-Pakistan/internal/session"

	"github.com/google/uuid"
)

type SessionGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*session.Session, error)
}

type Service interface {
	Create(ctx context.Context, studentID uuid.UUID, req CreateRequest) (*Review, error)
	ListForTutor(ctx context.Context, tutorID uuid.UUID) ([]Review, error)
}

type service struct {
	repo     Repository
	sessions SessionGetter
	events   events.Emitter
	metrics  *metrics.Metrics
}

func NewService(repo Repository, sessions SessionGetter, emitter events.Emitter, m *metrics.Metrics) Service {
	return &service{repo: repo, sessions: sessions, events: emitter, metrics: m}
}

type created struct {
	Review *Review `json:"review"`
	Rating Rating  `json:"rating"`
}

func (s *service) Create(ctx context.Context, studentID uuid.UUID, req CreateRequest) (*Review, error) {
	if req.Rating < 1 || req.Rating > 5 {
		return nil, apperror.Validation("invalid review",
			apperror.FieldError{Field: "rating", Message: "must be between 1 and 5"})
	}
	comment := strings.TrimSpace(req.Comment)
	if comment == "" {
		return nil, apperror.Validation("invalid review",
			apperror.FieldError{Field: "comment", Message: "is required"})
	}

	sess, err := s.sessions.GetByID(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}
	if sess.Status != session.StatusCompleted {
		return nil, apperror.InvalidTransition("only completed sessions can be reviewed")
	}
	if sess.StudentID != studentID {
		return nil, apperror.Forbidden("not authorized to review this session")
	}

	exists, err := s.repo.Exists(ctx, studentID, sess.ID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrAlreadyReviewed
	}

	rv, rating, err := s.repo.Record(ctx, &Review{
		SessionID: sess.ID,
		StudentID: studentID,
		TutorID:   sess.TutorID,
		Rating:    req.Rating,
		Comment:   comment,
	})
	if err != nil {
		return nil, err
	}

	s.metrics.Marketplace.RecordReview(ctx, rv.Rating)
	s.events.Emit(ctx, events.ReviewCreated, rv.TutorID, created{Review: rv, Rating: rating})
	return rv, nil
}

func (s *service) ListForTutor(ctx context.Context, tutorID uuid.UUID) ([]Review, error) {
	return s.repo.ListForTutor(ctx, tutorID)
}
