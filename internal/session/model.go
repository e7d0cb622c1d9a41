package session

import (
	"time"

	"github.com/gellahi/EduConnect-Pakistan/internal/subject"
	"github.com/gellahi/EduConnect-Pakistan/internal/tutor"
	"github.com/gellahi/EduConnect-Pakistan/internal/user"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type Type string

const (
	TypeInPerson Type = "in-person"
	TypeOnline   Type = "online"
)

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
)

type Session struct {
	bun.BaseModel `bun:"table:sessions,alias:s"`

	ID            uuid.UUID     `bun:"id,pk,type:uuid" json:"id"`
	StudentID     uuid.UUID     `bun:"student_id,type:uuid,notnull" json:"studentId"`
	TutorID       uuid.UUID     `bun:"tutor_id,type:uuid,notnull" json:"tutorId"`
	SubjectID     uuid.UUID     `bun:"subject_id,type:uuid,notnull" json:"subjectId"`
	Date          Date          `bun:"session_date,type:date,notnull" json:"date"`
	StartTime     string        `bun:"start_time,notnull" json:"startTime"`
	EndTime       string        `bun:"end_time,notnull" json:"endTime"`
	Duration      int           `bun:"duration,notnull" json:"duration"`
	SessionType   Type          `bun:"session_type,notnull" json:"sessionType"`
	Location      string        `bun:"location,nullzero" json:"location,omitempty"`
	MeetingLink   string        `bun:"meeting_link,nullzero" json:"meetingLink,omitempty"`
	Price         float64       `bun:"price,notnull" json:"price"`
	Status        Status        `bun:"status,notnull,default:'pending'" json:"status"`
	PaymentStatus PaymentStatus `bun:"payment_status,notnull,default:'pending'" json:"paymentStatus"`
	Notes         string        `bun:"notes,nullzero" json:"notes,omitempty"`
	CreatedAt     time.Time     `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"createdAt"`
	UpdatedAt     time.Time     `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updatedAt"`

	Student *user.User       `bun:"rel:belongs-to,join:student_id=id" json:"student,omitempty"`
	Tutor   *user.User       `bun:"rel:belongs-to,join:tutor_id=id" json:"tutor,omitempty"`
	Subject *subject.Subject `bun:"rel:belongs-to,join:subject_id=id" json:"subject,omitempty"`
}

type BookRequest struct {
	TutorID     uuid.UUID `json:"tutorId" validate:"required"`
	SubjectID   uuid.UUID `json:"subjectId" validate:"required"`
	Date        string    `json:"date" validate:"required"`
	StartTime   string    `json:"startTime" validate:"required,hhmm"`
	EndTime     string    `json:"endTime" validate:"required,hhmm"`
	Duration    int       `json:"duration" validate:"gt=0"`
	SessionType Type      `json:"sessionType" validate:"required,oneof=in-person online"`
	Location    string    `json:"location" validate:"required_if=SessionType in-person"`
	MeetingLink string    `json:"meetingLink" validate:"required_if=SessionType online"`
	Notes       string    `json:"notes" validate:"max=2000"`
}

type StatusRequest struct {
	Status Status `json:"status" validate:"required"`
}

// BookedSlot is the time window of an active session.
type BookedSlot struct {
	StartTime string `bun:"start_time" json:"startTime"`
	EndTime   string `bun:"end_time" json:"endTime"`
}

type Availability struct {
	TutorID        uuid.UUID    `json:"tutorId"`
	Date           Date         `json:"date"`
	Availability   []tutor.Slot `json:"availability"`
	BookedSessions []BookedSlot `json:"bookedSessions"`
}

type TutorSessionFilter struct {
	Status    Status
	StartDate *Date
	EndDate   *Date
}

type Period string

const (
	PeriodAll     Period = "all"
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
	PeriodCustom  Period = "custom"
)

type EarningsQuery struct {
	Period    Period
	StartDate *Date
	EndDate   *Date
}

type ChartPoint struct {
	Date     string  `json:"date"`
	Earnings float64 `json:"earnings"`
}

type Earnings struct {
	TotalEarnings float64      `json:"totalEarnings"`
	TotalSessions int          `json:"totalSessions"`
	ChartData     []ChartPoint `json:"chartData"`
}
