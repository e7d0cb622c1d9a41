package tutor

import (
	"context"
	"strconv"
	"strings"

	"github.com/gellahi/EduConnect-Pakistan/internal/apperror"
	"github.com/gellahi/EduConnect-Pakistan/internal/metrics"
	"github.com/gellahi/EduConnect-Pakistan/internal/validation"

	"github.com/google/uuid"
)

var ErrSubjectNotFound = apperror.NotFound("subject not found")

// SubjectChecker confirms subject references before they are linked.
type SubjectChecker interface {
	CountExisting(ctx context.Context, ids []uuid.UUID) (int, error)
}

type Service interface {
	Search(ctx context.Context, f SearchFilter) ([]Profile, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Profile, error)
	GetOwn(ctx context.Context, tutorID uuid.UUID) (*Profile, error)
	Create(ctx context.Context, tutorID uuid.UUID, req CreateProfileRequest) (*Profile, error)
	Update(ctx context.Context, tutorID uuid.UUID, req UpdateProfileRequest) (*Profile, error)
	UpdateAvailability(ctx context.Context, tutorID uuid.UUID, slots []Slot) (*Profile, error)
	AddSubjects(ctx context.Context, tutorID uuid.UUID, subjectIDs []uuid.UUID) (*Profile, error)
	RemoveSubject(ctx context.Context, tutorID, subjectID uuid.UUID) (*Profile, error)
}

type service struct {
	repo     Repository
	subjects SubjectChecker
	metrics  *metrics.Metrics
}

func NewService(repo Repository, subjects SubjectChecker, m *metrics.Metrics) Service {
	return &service{repo: repo, subjects: subjects, metrics: m}
}

func (s *service) Search(ctx context.Context, f SearchFilter) ([]Profile, error) {
	if err := validateFilter(f); err != nil {
		return nil, err
	}
	profiles, err := s.repo.SearchApproved(ctx, f)
	if err != nil {
		return nil, err
	}
	s.metrics.Marketplace.RecordSearch(ctx, len(profiles))
	return profiles, nil
}

func validateFilter(f SearchFilter) error {
	var fields []apperror.FieldError
	if f.Day != "" && !validation.IsWeekday(f.Day) {
		fields = append(fields, apperror.FieldError{Field: "day", Message: "must be a day of the week"})
	}
	if f.StartTime != "" && !validation.IsClockTime(f.StartTime) {
		fields = append(fields, apperror.FieldError{Field: "startTime", Message: "must be a time in HH:MM format"})
	}
	if f.EndTime != "" && !validation.IsClockTime(f.EndTime) {
		fields = append(fields, apperror.FieldError{Field: "endTime", Message: "must be a time in HH:MM format"})
	}
	if f.MinPrice != nil && f.MaxPrice != nil && *f.MinPrice > *f.MaxPrice {
		fields = append(fields, apperror.FieldError{Field: "maxPrice", Message: "must not be below minPrice"})
	}
	if f.MinRating != nil && (*f.MinRating < 0 || *f.MinRating > 5) {
		fields = append(fields, apperror.FieldError{Field: "minRating", Message: "must be between 0 and 5"})
	}
	if len(fields) > 0 {
		return apperror.Validation("invalid search filter", fields...)
	}
	return nil
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*Profile, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) GetOwn(ctx context.Context, tutorID uuid.UUID) (*Profile, error) {
	return s.repo.GetByUserID(ctx, tutorID)
}

func (s *service) Create(ctx context.Context, tutorID uuid.UUID, req CreateProfileRequest) (*Profile, error) {
	subjectIDs := dedupe(req.SubjectIDs)
	if err := s.checkSubjects(ctx, subjectIDs); err != nil {
		return nil, err
	}

	p := &Profile{
		UserID:             tutorID,
		Bio:                strings.TrimSpace(req.Bio),
		Education:          req.Education,
		HourlyRate:         req.HourlyRate,
		Location:           req.Location,
		Availability:       []Slot{},
		VerificationStatus: StatusPending,
	}
	if p.Education == nil {
		p.Education = []Education{}
	}
	return s.repo.Create(ctx, p, subjectIDs)
}

// Update applies a partial change. Rating and verification fields are not
// reachable from here, and a new hourly rate only affects future bookings.
func (s *service) Update(ctx context.Context, tutorID uuid.UUID, req UpdateProfileRequest) (*Profile, error) {
	p, err := s.repo.GetByUserID(ctx, tutorID)
	if err != nil {
		return nil, err
	}

	var columns []string
	if req.Bio != nil {
		p.Bio = strings.TrimSpace(*req.Bio)
		columns = append(columns, "bio")
	}
	if req.Education != nil {
		p.Education = *req.Education
		if p.Education == nil {
			p.Education = []Education{}
		}
		columns = append(columns, "education")
	}
	if req.HourlyRate != nil {
		p.HourlyRate = *req.HourlyRate
		columns = append(columns, "hourly_rate")
	}
	if req.Location != nil {
		p.Location = *req.Location
		columns = append(columns, "location_lat", "location_lng", "location_address", "location_city")
	}
	if len(columns) == 0 {
		return p, nil
	}

	if err := s.repo.Update(ctx, p, columns...); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, p.ID)
}

func (s *service) UpdateAvailability(ctx context.Context, tutorID uuid.UUID, slots []Slot) (*Profile, error) {
	var fields []apperror.FieldError
	for i, slot := range slots {
		if slot.StartTime >= slot.EndTime {
			fields = append(fields, apperror.FieldError{
				Field:   "availability[" + strconv.Itoa(i) + "].endTime",
				Message: "must be after startTime",
			})
		}
	}
	if len(fields) > 0 {
		return nil, apperror.Validation("invalid availability", fields...)
	}

	p, err := s.repo.GetByUserID(ctx, tutorID)
	if err != nil {
		return nil, err
	}
	p.Availability = slots
	if p.Availability == nil {
		p.Availability = []Slot{}
	}
	if err := s.repo.Update(ctx, p, "availability"); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *service) AddSubjects(ctx context.Context, tutorID uuid.UUID, subjectIDs []uuid.UUID) (*Profile, error) {
	subjectIDs = dedupe(subjectIDs)
	if len(subjectIDs) == 0 {
		return nil, apperror.Validation("at least one subject is required")
	}
	if err := s.checkSubjects(ctx, subjectIDs); err != nil {
		return nil, err
	}

	p, err := s.repo.GetByUserID(ctx, tutorID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.AddSubjects(ctx, p.ID, subjectIDs); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, p.ID)
}

func (s *service) RemoveSubject(ctx context.Context, tutorID, subjectID uuid.UUID) (*Profile, error) {
	p, err := s.repo.GetByUserID(ctx, tutorID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.RemoveSubject(ctx, p.ID, subjectID); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, p.ID)
}

func (s *service) checkSubjects(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	n, err := s.subjects.CountExisting(ctx, ids)
	if err != nil {
		return err
	}
	if n != len(ids) {
		return ErrSubjectNotFound
	}
	return nil
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
