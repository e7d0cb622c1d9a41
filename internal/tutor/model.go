package tutor

import (
	"time"

	"github.com/gellahi/EduConnect-Pakistan/internal/subject"
	"github.com/gellahi/EduConnect-Pakistan/internal/user"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type VerificationStatus string

const (
	StatusPending  VerificationStatus = "pending"
	StatusApproved VerificationStatus = "approved"
	StatusRejected VerificationStatus = "rejected"
)

type Education struct {
	Degree      string `json:"degree" validate:"required"`
	Institution string `json:"institution" validate:"required"`
	Year        int    `json:"year" validate:"gte=1950,lte=2100"`
}

type Location struct {
	Lat     float64 `bun:"lat" json:"lat" validate:"gte=-90,lte=90"`
	Lng     float64 `bun:"lng" json:"lng" validate:"gte=-180,lte=180"`
	Address string  `bun:"address" json:"address"`
	City    string  `bun:"city" json:"city" validate:"required"`
}

// Slot is one entry of the weekly availability template.
type Slot struct {
	Day       string `json:"day" validate:"required,weekday"`
	StartTime string `json:"startTime" validate:"required,hhmm"`
	EndTime   string `json:"endTime" validate:"required,hhmm"`
}

type Profile struct {
	bun.BaseModel `bun:"table:tutor_profiles,alias:tp"`

	ID                  uuid.UUID          `bun:"id,pk,type:uuid" json:"id"`
	UserID              uuid.UUID          `bun:"user_id,type:uuid,notnull,unique" json:"userId"`
	Bio                 string             `bun:"bio" json:"bio"`
	Education           []Education        `bun:"education,type:jsonb,notnull,default:'[]'" json:"education"`
	HourlyRate          float64            `bun:"hourly_rate,notnull" json:"hourlyRate"`
	Location            Location           `bun:"embed:location_" json:"location"`
	Availability        []Slot             `bun:"availability,type:jsonb,notnull,default:'[]'" json:"availability"`
	AverageRating       float64            `bun:"average_rating,notnull,default:0" json:"averageRating"`
	TotalReviews        int                `bun:"total_reviews,notnull,default:0" json:"totalReviews"`
	VerificationStatus  VerificationStatus `bun:"verification_status,notnull,default:'pending'" json:"verificationStatus"`
	VerificationComment string             `bun:"verification_comment,nullzero" json:"verificationComment,omitempty"`
	CreatedAt           time.Time          `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"createdAt"`
	UpdatedAt           time.Time          `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updatedAt"`

	User     *user.User         `bun:"rel:belongs-to,join:user_id=id" json:"user,omitempty"`
	Subjects []*subject.Subject `bun:"m2m:tutor_subjects,join:Profile=Subject" json:"subjects"`
}

// ProfileSubject links a profile to a subject it teaches.
type ProfileSubject struct {
	bun.BaseModel `bun:"table:tutor_subjects,alias:ts"`

	ProfileID uuid.UUID        `bun:"tutor_profile_id,pk,type:uuid"`
	Profile   *Profile         `bun:"rel:belongs-to,join:tutor_profile_id=id"`
	SubjectID uuid.UUID        `bun:"subject_id,pk,type:uuid"`
	Subject   *subject.Subject `bun:"rel:belongs-to,join:subject_id=id"`
}

// SearchFilter narrows the directory. Nil or empty fields do not filter.
type SearchFilter struct {
	SubjectID *uuid.UUID
	City      string
	MinPrice  *float64
	MaxPrice  *float64
	MinRating *float64
	Day       string
	StartTime string
	EndTime   string
}

type CreateProfileRequest struct {
	Bio        string      `json:"bio" validate:"max=2000"`
	Education  []Education `json:"education" validate:"dive"`
	HourlyRate float64     `json:"hourlyRate" validate:"gt=0"`
	Location   Location    `json:"location"`
	SubjectIDs []uuid.UUID `json:"subjects"`
}

// UpdateProfileRequest is a partial update; nil fields are left alone.
type UpdateProfileRequest struct {
	Bio        *string      `json:"bio" validate:"omitempty,max=2000"`
	Education  *[]Education `json:"education" validate:"omitempty,dive"`
	HourlyRate *float64     `json:"hourlyRate" validate:"omitempty,gt=0"`
	Location   *Location    `json:"location"`
}

type AvailabilityRequest struct {
	Availability []Slot `json:"availability" validate:"dive"`
}

type SubjectsRequest struct {
	SubjectIDs []uuid.UUID `json:"subjects" validate:"required,min=1"`
}
