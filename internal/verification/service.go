// Package verification is the admin workflow that approves or rejects
// tutor profiles.
package verification

import (
	"context"
	"strings"

	"github.com/gellahi/EduConnect-Pakistan/internal/apperror"
	"github.com/gellahi/EduConnect-Pakistan/internal/events"
	"github.com/gellahi/EduConnect-Pakistan/internal/metrics"
	"github.com/gellahi/EduConnect-Pakistan/internal/tutor"

	"github.com/google/uuid"
)

// Profiles reads the directory after a decision is stored.
type Profiles interface {
	GetByID(ctx context.Context, id uuid.UUID) (*tutor.Profile, error)
	ListPending(ctx context.Context) ([]tutor.Profile, error)
}

type Request struct {
	Status  tutor.VerificationStatus `json:"status" validate:"required,oneof=approved rejected"`
	Comment string                   `json:"comment" validate:"max=2000"`
}

type Service interface {
	ListPending(ctx context.Context) ([]tutor.Profile, error)
	Verify(ctx context.Context, adminID, profileID uuid.UUID, req Request) (*tutor.Profile, error)
}

type service struct {
	repo     Repository
	profiles Profiles
	events   events.Emitter
	metrics  *metrics.Metrics
}

func NewService(repo Repository, profiles Profiles, emitter events.Emitter, m *metrics.Metrics) Service {
	return &service{repo: repo, profiles: profiles, events: emitter, metrics: m}
}

func (s *service) ListPending(ctx context.Context) ([]tutor.Profile, error) {
	return s.profiles.ListPending(ctx)
}

type decision struct {
	ProfileID uuid.UUID                `json:"profileId"`
	TutorID   uuid.UUID                `json:"tutorId"`
	AdminID   uuid.UUID                `json:"adminId"`
	Status    tutor.VerificationStatus `json:"status"`
	Comment   string                   `json:"comment,omitempty"`
}

func (s *service) Verify(ctx context.Context, adminID, profileID uuid.UUID, req Request) (*tutor.Profile, error) {
	if req.Status != tutor.StatusApproved && req.Status != tutor.StatusRejected {
		return nil, apperror.Validation("invalid verification status",
			apperror.FieldError{Field: "status", Message: "must be one of approved rejected"})
	}

	comment := strings.TrimSpace(req.Comment)
	if err := s.repo.SetStatus(ctx, profileID, req.Status, comment); err != nil {
		return nil, err
	}

	profile, err := s.profiles.GetByID(ctx, profileID)
	if err != nil {
		return nil, err
	}

	s.metrics.Marketplace.RecordVerification(ctx, string(req.Status))
	s.events.Emit(ctx, events.TutorVerified, profile.UserID, decision{
		ProfileID: profile.ID,
		TutorID:   profile.UserID,
		AdminID:   adminID,
		Status:    req.Status,
		Comment:   comment,
	})
	return profile, nil
}
