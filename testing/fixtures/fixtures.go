// Package fixtures inserts the rows integration tests build on.
package fixtures

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/gellahi/EduConnect-Pakistan/internal/auth"
	"github.com/gellahi/EduConnect-Pakistan/internal/subject"
	"github.com/gellahi/EduConnect-Pakistan/internal/tutor"
	"github.com/gellahi/EduConnect-Pakistan/internal/user"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

func User(t *testing.T, db *bun.DB, role user.Role) *user.User {
	t.Helper()

	id := uuid.New()
	u := &user.User{
		ID:    id,
		Name:  string(role) + " " + id.String()[:8],
		Email: id.String() + "@example.com",
		Role:  role,
	}
	_, err := db.NewInsert().Model(u).Exec(context.Background())
	require.NoError(t, err)
	return u
}

func Subject(t *testing.T, db *bun.DB, name string) *subject.Subject {
	t.Helper()

	s := &subject.Subject{ID: uuid.New(), Name: name, Category: "Sciences"}
	_, err := db.NewInsert().Model(s).Exec(context.Background())
	require.NoError(t, err)
	return s
}

// Profile inserts a tutor user with a profile in the given state. Zero
// fields of p get usable defaults.
func Profile(t *testing.T, db *bun.DB, status tutor.VerificationStatus, p tutor.Profile, subjects ...*subject.Subject) (*user.User, *tutor.Profile) {
	t.Helper()
	ctx := context.Background()

	u := User(t, db, user.RoleTutor)
	if status == tutor.StatusApproved {
		_, err := db.NewUpdate().Model(u).Set("is_verified = TRUE").WherePK().Exec(ctx)
		require.NoError(t, err)
		u.IsVerified = true
	}

	p.ID = uuid.New()
	p.UserID = u.ID
	p.VerificationStatus = status
	if p.HourlyRate == 0 {
		p.HourlyRate = 40
	}
	if p.Location.City == "" {
		p.Location.City = "Lahore"
	}
	if p.Education == nil {
		p.Education = []tutor.Education{}
	}
	if p.Availability == nil {
		p.Availability = []tutor.Slot{}
	}
	_, err := db.NewInsert().Model(&p).Exec(ctx)
	require.NoError(t, err)

	for _, s := range subjects {
		_, err := db.NewInsert().Model(&tutor.ProfileSubject{ProfileID: p.ID, SubjectID: s.ID}).Exec(ctx)
		require.NoError(t, err)
	}
	return u, &p
}

// Bearer returns an Authorization header value for u.
func Bearer(t *testing.T, v *auth.Verifier, u *user.User) string {
	t.Helper()

	token, err := v.Issue(auth.Identity{UserID: u.ID, Role: u.Role}, time.Hour)
	require.NoError(t, err)
	return "Bearer " + token
}

// Events records emitted events instead of publishing them.
type Events struct {
	mu   sync.Mutex
	Sent []string
}

func (e *Events) Emit(_ context.Context, eventType string, _ uuid.UUID, _ interface{}) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Sent = append(e.Sent, eventType)
}

func (e *Events) Types() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.Sent...)
}

func (e *Events) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Sent = nil
}
