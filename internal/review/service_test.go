package review

import (
	"context"
	"testing"

	"github.com/gellahi/EduConnect-Pakistan/internal/apperror"
	"github.com/gellahi/EduConnect-Pakistan/internal/events"
	"github.com/gellahi/EduConnect-Pakistan/internal/logger"
	"github.com/gellahi/EduConnect-Pakistan/internal/metrics"
	"github.com/gellahi/EduConnect-Pakistan/internal/session"
	"github.com/gellahi/EduConnect-Pakistan/internal/validation"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSessions struct{ sess *session.Session }

func (s stubSessions) GetByID(context.Context, uuid.UUID) (*session.Session, error) {
	return s.sess, nil
}

type recordingRepo struct{ recorded []*Review }

func (r *recordingRepo) Exists(context.Context, uuid.UUID, uuid.UUID) (bool, error) { return false, nil }

func (r *recordingRepo) Record(_ context.Context, rv *Review) (*Review, Rating, error) {
	r.recorded = append(r.recorded, rv)
	return rv, Rating{AverageRating: float64(rv.Rating), TotalReviews: 1}, nil
}

func (r *recordingRepo) ListForTutor(context.Context, uuid.UUID) ([]Review, error) { return nil, nil }

func TestCreate_CommentRequired(t *testing.T) {
	studentID := uuid.New()
	sess := &session.Session{ID: uuid.New(), StudentID: studentID, TutorID: uuid.New(), Status: session.StatusCompleted}

	t.Run("BlankRejectedByTags", func(t *testing.T) {
		err := validation.New().Struct(CreateRequest{SessionID: sess.ID, Rating: 5})
		assert.Error(t, err)
	})

	for name, comment := range map[string]string{"Empty": "", "Whitespace": "  \t "} {
		t.Run(name, func(t *testing.T) {
			repo := &recordingRepo{}
			svc := NewService(repo, stubSessions{sess}, events.NewBestEffort(events.Nop{}, logger.Discard(), metrics.NewMock()), metrics.NewMock())

			_, err := svc.Create(context.Background(), studentID, CreateRequest{SessionID: sess.ID, Rating: 5, Comment: comment})

			require.Error(t, err)
			assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
			assert.Empty(t, repo.recorded)
		})
	}

	t.Run("Trimmed", func(t *testing.T) {
		repo := &recordingRepo{}
		svc := NewService(repo, stubSessions{sess}, events.NewBestEffort(events.Nop{}, logger.Discard(), metrics.NewMock()), metrics.NewMock())

		rv, err := svc.Create(context.Background(), studentID, CreateRequest{SessionID: sess.ID, Rating: 4, Comment: "  Patient and clear  "})

		require.NoError(t, err)
		assert.Equal(t, "Patient and clear", rv.Comment)
		require.Len(t, repo.recorded, 1)
	})
}
