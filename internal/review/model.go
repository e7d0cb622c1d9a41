package review

import (
	"time"

	"github.com/gellahi/EduConnect-Pakistan/internal/user"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type Review struct {
	bun.BaseModel `bun:"table:reviews,alias:r"`

	ID        uuid.UUID `bun:"id,pk,type:uuid" json:"id"`
	SessionID uuid.UUID `bun:"session_id,type:uuid,notnull,unique:reviews_student_session" json:"sessionId"`
	StudentID uuid.UUID `bun:"student_id,type:uuid,notnull,unique:reviews_student_session" json:"studentId"`
	TutorID   uuid.UUID `bun:"tutor_id,type:uuid,notnull" json:"tutorId"`
	Rating    int       `bun:"rating,notnull" json:"rating"`
	Comment   string    `bun:"comment,notnull" json:"comment"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"createdAt"`

	Student *user.User `bun:"rel:belongs-to,join:student_id=id" json:"student,omitempty"`
	Tutor   *user.User `bun:"rel:belongs-to,join:tutor_id=id" json:"-"`
}

type CreateRequest struct {
	SessionID uuid.UUID `json:"sessionId" validate:"required"`
	Rating    int       `json:"rating" validate:"required,min=1,max=5"`
	Comment   string    `json:"comment" validate:"required,max=2000"`
}

// Rating is the tutor's aggregate after a review was recorded.
type Rating struct {
	AverageRating float64 `json:"averageRating"`
	TotalReviews  int     `json:"totalReviews"`
}
