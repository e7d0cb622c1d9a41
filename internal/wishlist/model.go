package wishlist

import (
	"time"

	"github.com/gellahi/EduConnect-Pakistan/internal/tutor"
	"github.com/gellahi/EduConnect-Pakistan/internal/user"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Item is one saved tutor. The composite key keeps each tutor at most once
// per student.
type Item struct {
	bun.BaseModel `bun:"table:wishlist_items,alias:wi"`

	StudentID uuid.UUID `bun:"student_id,pk,type:uuid"`
	TutorID   uuid.UUID `bun:"tutor_id,pk,type:uuid"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`

	Student *user.User `bun:"rel:belongs-to,join:student_id=id"`
	Tutor   *user.User `bun:"rel:belongs-to,join:tutor_id=id"`
}

type AddRequest struct {
	TutorID uuid.UUID `json:"tutorId" validate:"required"`
}

type Entry struct {
	Tutor   user.User      `json:"tutor"`
	Profile *tutor.Profile `json:"profile,omitempty"`
}

type Wishlist struct {
	StudentID uuid.UUID `json:"studentId"`
	Tutors    []Entry   `json:"tutors"`
}
