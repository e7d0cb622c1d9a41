package session

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/gellahi/EduConnect-Pakistan/internal/apperror"
	"github.com/gellahi/EduConnect-Pakistan/internal/events"
	"github.com/gellahi/EduConnect-Pakistan/internal/metrics"
	"github.com/gellahi/EduConnect-Pakistan/internal/tutor"

	"github.com/google/uuid"
)

// TutorLookup is the part of the tutor directory scheduling needs.
type TutorLookup interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (*tutor.Profile, error)
	GetApprovedByUserID(ctx context.Context, userID uuid.UUID) (*tutor.Profile, error)
}

type SubjectChecker interface {
	CountExisting(ctx context.Context, ids []uuid.UUID) (int, error)
}

type Service interface {
	Book(ctx context.Context, studentID uuid.UUID, req BookRequest) (*Session, error)
	UpdateStatus(ctx context.Context, actorID uuid.UUID, actor Actor, id uuid.UUID, next Status) (*Session, error)
	Availability(ctx context.Context, tutorID uuid.UUID, date Date) (*Availability, error)
	StudentSessions(ctx context.Context, studentID uuid.UUID, status Status) ([]Session, error)
	TutorSessions(ctx context.Context, tutorID uuid.UUID, f TutorSessionFilter) ([]Session, error)
	Earnings(ctx context.Context, tutorID uuid.UUID, q EarningsQuery) (*Earnings, error)
}

type service struct {
	repo     Repository
	tutors   TutorLookup
	subjects SubjectChecker
	events   events.Emitter
	metrics  *metrics.Metrics
	now      func() time.Time
}

func NewService(repo Repository, tutors TutorLookup, subjects SubjectChecker, emitter events.Emitter, m *metrics.Metrics) Service {
	return &service{
		repo:     repo,
		tutors:   tutors,
		subjects: subjects,
		events:   emitter,
		metrics:  m,
		now:      time.Now,
	}
}

func (s *service) Book(ctx context.Context, studentID uuid.UUID, req BookRequest) (*Session, error) {
	date, err := s.checkBooking(ctx, req)
	if err != nil {
		return nil, err
	}

	profile, err := s.tutors.GetApprovedByUserID(ctx, req.TutorID)
	if err != nil {
		return nil, err
	}

	taken, err := s.repo.HasActiveAt(ctx, req.TutorID, date, req.StartTime)
	if err != nil {
		return nil, err
	}
	if taken {
		s.metrics.Marketplace.RecordBookingConflict(ctx)
		return nil, ErrSlotTaken
	}

	sess := &Session{
		StudentID:     studentID,
		TutorID:       req.TutorID,
		SubjectID:     req.SubjectID,
		Date:          date,
		StartTime:     req.StartTime,
		EndTime:       req.EndTime,
		Duration:      req.Duration,
		SessionType:   req.SessionType,
		Price:         Price(profile.HourlyRate, req.Duration),
		Status:        StatusPending,
		PaymentStatus: PaymentPending,
		Notes:         strings.TrimSpace(req.Notes),
	}
	switch req.SessionType {
	case TypeInPerson:
		sess.Location = strings.TrimSpace(req.Location)
	case TypeOnline:
		sess.MeetingLink = strings.TrimSpace(req.MeetingLink)
	}

	created, err := s.repo.Create(ctx, sess)
	if err != nil {
		if apperror.KindOf(err) == apperror.KindConflict {
			s.metrics.Marketplace.RecordBookingConflict(ctx)
		}
		return nil, err
	}

	s.metrics.Marketplace.RecordSessionBooked(ctx, string(created.SessionType))
	s.events.Emit(ctx, events.SessionBooked, created.ID, created)
	return created, nil
}

// checkBooking covers the rules the struct tags cannot express.
func (s *service) checkBooking(ctx context.Context, req BookRequest) (Date, error) {
	var fields []apperror.FieldError

	date, err := ParseDate(req.Date)
	if err != nil {
		fields = append(fields, apperror.FieldError{Field: "date", Message: "must be a date in YYYY-MM-DD format"})
	}
	if req.StartTime >= req.EndTime {
		fields = append(fields, apperror.FieldError{Field: "endTime", Message: "must be after startTime"})
	}
	switch req.SessionType {
	case TypeInPerson:
		if strings.TrimSpace(req.Location) == "" {
			fields = append(fields, apperror.FieldError{Field: "location", Message: "is required for in-person sessions"})
		}
	case TypeOnline:
		if strings.TrimSpace(req.MeetingLink) == "" {
			fields = append(fields, apperror.FieldError{Field: "meetingLink", Message: "is required for online sessions"})
		}
	}
	if len(fields) > 0 {
		return Date{}, apperror.Validation("invalid booking", fields...)
	}

	n, err := s.subjects.CountExisting(ctx, []uuid.UUID{req.SubjectID})
	if err != nil {
		return Date{}, err
	}
	if n == 0 {
		return Date{}, apperror.Validation("invalid booking",
			apperror.FieldError{Field: "subjectId", Message: "does not refer to a known subject"})
	}
	return date, nil
}

type statusChange struct {
	SessionID uuid.UUID `json:"sessionId"`
	From      Status    `json:"from"`
	To        Status    `json:"to"`
	Actor     Actor     `json:"actor"`
	ActorID   uuid.UUID `json:"actorId"`
}

func (s *service) UpdateStatus(ctx context.Context, actorID uuid.UUID, actor Actor, id uuid.UUID, next Status) (*Session, error) {
	// Vocabulary is checked before the row is loaded, so a status the actor
	// can never set is a 400 even for a missing or foreign session.
	if err := CheckRequest(actor, next); err != nil {
		return nil, err
	}

	var from Status
	updated, err := s.repo.UpdateStatus(ctx, id, func(sess *Session) error {
		if !sess.OwnedBy(actor, actorID) {
			return apperror.Forbidden("not authorized to update this session")
		}
		if err := CheckTransition(sess.Status, actor, next); err != nil {
			return err
		}
		from = sess.Status
		sess.Apply(next)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.Marketplace.RecordTransition(ctx, string(from), string(next), string(actor))
	s.events.Emit(ctx, events.SessionStatusChanged, updated.ID, statusChange{
		SessionID: updated.ID,
		From:      from,
		To:        next,
		Actor:     actor,
		ActorID:   actorID,
	})
	return updated, nil
}

func (s *service) Availability(ctx context.Context, tutorID uuid.UUID, date Date) (*Availability, error) {
	profile, err := s.tutors.GetByUserID(ctx, tutorID)
	if err != nil {
		return nil, err
	}

	booked, err := s.repo.ActiveOnDate(ctx, tutorID, date)
	if err != nil {
		return nil, err
	}

	slots := profile.Availability
	if slots == nil {
		slots = []tutor.Slot{}
	}
	return &Availability{
		TutorID:        tutorID,
		Date:           date,
		Availability:   slots,
		BookedSessions: booked,
	}, nil
}

func (s *service) StudentSessions(ctx context.Context, studentID uuid.UUID, status Status) ([]Session, error) {
	if err := checkStatusFilter(status); err != nil {
		return nil, err
	}
	return s.repo.ListForStudent(ctx, studentID, status)
}

func (s *service) TutorSessions(ctx context.Context, tutorID uuid.UUID, f TutorSessionFilter) ([]Session, error) {
	if err := checkStatusFilter(f.Status); err != nil {
		return nil, err
	}
	if f.StartDate != nil && f.EndDate != nil && f.EndDate.Before(*f.StartDate) {
		return nil, apperror.Validation("invalid date range",
			apperror.FieldError{Field: "endDate", Message: "must not be before startDate"})
	}
	return s.repo.ListForTutor(ctx, tutorID, f)
}

func checkStatusFilter(status Status) error {
	if status != "" && !status.Valid() {
		return apperror.Validation("invalid status filter",
			apperror.FieldError{Field: "status", Message: "must be one of pending confirmed completed cancelled"})
	}
	return nil
}

func (s *service) Earnings(ctx context.Context, tutorID uuid.UUID, q EarningsQuery) (*Earnings, error) {
	from, to, err := s.earningsWindow(q)
	if err != nil {
		return nil, err
	}

	sessions, err := s.repo.ListPaid(ctx, tutorID, from, to)
	if err != nil {
		return nil, err
	}
	return summarize(sessions), nil
}

func (s *service) earningsWindow(q EarningsQuery) (from, to *Date, err error) {
	today := DateOf(s.now())

	switch q.Period {
	case "", PeriodAll:
		return nil, nil, nil
	case PeriodWeekly:
		start := today.AddDays(-7)
		return &start, &today, nil
	case PeriodMonthly:
		start := today.AddDays(-30)
		return &start, &today, nil
	case PeriodCustom:
		var fields []apperror.FieldError
		if q.StartDate == nil {
			fields = append(fields, apperror.FieldError{Field: "startDate", Message: "is required for a custom period"})
		}
		if q.EndDate == nil {
			fields = append(fields, apperror.FieldError{Field: "endDate", Message: "is required for a custom period"})
		}
		if len(fields) == 0 && q.EndDate.Before(*q.StartDate) {
			fields = append(fields, apperror.FieldError{Field: "endDate", Message: "must not be before startDate"})
		}
		if len(fields) > 0 {
			return nil, nil, apperror.Validation("invalid earnings period", fields...)
		}
		return q.StartDate, q.EndDate, nil
	default:
		return nil, nil, apperror.Validation("invalid earnings period",
			apperror.FieldError{Field: "period", Message: "must be one of all weekly monthly custom"})
	}
}

// summarize totals paid sessions and buckets them per day, oldest first.
func summarize(sessions []Session) *Earnings {
	out := &Earnings{ChartData: []ChartPoint{}}
	byDay := map[string]float64{}

	for _, sess := range sessions {
		out.TotalEarnings += sess.Price
		out.TotalSessions++
		byDay[sess.Date.String()] += sess.Price
	}

	for day, amount := range byDay {
		out.ChartData = append(out.ChartData, ChartPoint{Date: day, Earnings: amount})
	}
	slices.SortFunc(out.ChartData, func(a, b ChartPoint) int {
		return strings.Compare(a.Date, b.Date)
	})
	return out
}
