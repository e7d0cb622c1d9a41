package review_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gellahi/EduConnect-Pakistan/internal/auth"
	"github.com/gellahi/EduConnect-Pakistan/internal/events"
	"github.com/gellahi/EduConnect-Pakistan/internal/logger"
	"github.com/gellahi/EduConnect-Pakistan/internal/metrics"
	"github.com/gellahi/EduConnect-Pakistan/internal/review"
	"github.com/gellahi/EduConnect-Pakistan/internal/session"
	"github.com/gellahi/EduConnect-Pakistan/internal/tutor"
	"github.com/gellahi/EduConnect-Pakistan/internal/user"
	"github.com/gellahi/EduConnect-Pakistan/testing/fixtures"
	"github.com/gellahi/EduConnect-Pakistan/testing/testdb"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReviewHandler_Shared(t *testing.T) {
	pgContainer := testdb.SetupSharedPostgres(t)
	defer pgContainer.Cleanup(t)

	db := pgContainer.DB
	ctx := context.Background()
	mockMetrics := metrics.NewMock()
	log := logger.Discard()
	emitted := &fixtures.Events{}

	tutorRepo := tutor.NewRepository(db, mockMetrics)
	sessionRepo := session.NewRepository(db, mockMetrics)
	reviewRepo := review.NewRepository(db, mockMetrics)
	service := review.NewService(reviewRepo, sessionRepo, emitted, mockMetrics)
	handler := review.NewHandler(service, log)

	verifier := auth.NewVerifier("test-secret", "educonnect")
	router := chi.NewRouter()
	router.Use(auth.Middleware(verifier, log))
	router.With(auth.RequireRole(user.RoleStudent)).Route("/api/student", handler.RegisterStudentRoutes)

	do := func(t *testing.T, method, path string, caller *user.User, payload interface{}) *httptest.ResponseRecorder {
		t.Helper()
		var body bytes.Buffer
		if payload != nil {
			require.NoError(t, json.NewEncoder(&body).Encode(payload))
		}
		req := httptest.NewRequest(method, path, &body)
		req.Header.Set("Authorization", fixtures.Bearer(t, verifier, caller))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	type world struct {
		student *user.User
		tutor   *user.User
		profile *tutor.Profile
	}
	setup := func(t *testing.T, avg float64, total int) world {
		t.Helper()
		testdb.CleanupTables(t, db)
		emitted.Reset()

		tutorUser, profile := fixtures.Profile(t, db, tutor.StatusApproved, tutor.Profile{
			AverageRating: avg,
			TotalReviews:  total,
		})
		return world{student: fixtures.User(t, db, user.RoleStudent), tutor: tutorUser, profile: profile}
	}

	sessionIn := func(t *testing.T, w world, status session.Status, start string) *session.Session {
		t.Helper()
		subj := fixtures.Subject(t, db, "Subject "+uuid.NewString()[:8])
		s := &session.Session{
			ID: uuid.New(), StudentID: w.student.ID, TutorID: w.tutor.ID, SubjectID: subj.ID,
			Date: session.NewDate(2024, 3, 1), StartTime: start, EndTime: "23:00", Duration: 60,
			SessionType: session.TypeOnline, MeetingLink: "https://meet.example.com/x",
			Price: 40, Status: status, PaymentStatus: session.PaymentPending,
		}
		if status == session.StatusCompleted {
			s.PaymentStatus = session.PaymentCompleted
		}
		_, err := db.NewInsert().Model(s).Exec(ctx)
		require.NoError(t, err)
		return s
	}

	t.Run("Create_UpdatesRunningAverage", func(t *testing.T) {
		w := setup(t, 4.0, 3)
		s := sessionIn(t, w, session.StatusCompleted, "10:00")

		resp := do(t, http.MethodPost, "/api/student/reviews", w.student, map[string]interface{}{
			"sessionId": s.ID, "rating": 5, "comment": "Very clear explanations",
		})

		require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
		var rv review.Review
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&rv))
		assert.Equal(t, w.tutor.ID, rv.TutorID)
		assert.Equal(t, 5, rv.Rating)
		assert.Equal(t, "Very clear explanations", rv.Comment)

		p, err := tutorRepo.GetByID(ctx, w.profile.ID)
		require.NoError(t, err)
		assert.InDelta(t, 4.25, p.AverageRating, 1e-9)
		assert.Equal(t, 4, p.TotalReviews)
		assert.Equal(t, []string{events.ReviewCreated}, emitted.Types())
	})

	t.Run("Create_Duplicate", func(t *testing.T) {
		w := setup(t, 0, 0)
		s := sessionIn(t, w, session.StatusCompleted, "10:00")

		resp := do(t, http.MethodPost, "/api/student/reviews", w.student, map[string]interface{}{"sessionId": s.ID, "rating": 4, "comment": "Helpful session"})
		require.Equal(t, http.StatusCreated, resp.Code)

		resp = do(t, http.MethodPost, "/api/student/reviews", w.student, map[string]interface{}{"sessionId": s.ID, "rating": 1, "comment": "Helpful session"})
		assert.Equal(t, http.StatusConflict, resp.Code)

		p, err := tutorRepo.GetByID(ctx, w.profile.ID)
		require.NoError(t, err)
		assert.InDelta(t, 4.0, p.AverageRating, 1e-9)
		assert.Equal(t, 1, p.TotalReviews)
	})

	t.Run("Create_DuplicateCaughtByConstraint", func(t *testing.T) {
		w := setup(t, 0, 0)
		s := sessionIn(t, w, session.StatusCompleted, "10:00")

		_, _, err := reviewRepo.Record(ctx, &review.Review{SessionID: s.ID, StudentID: w.student.ID, TutorID: w.tutor.ID, Rating: 5, Comment: "Good"})
		require.NoError(t, err)

		_, _, err = reviewRepo.Record(ctx, &review.Review{SessionID: s.ID, StudentID: w.student.ID, TutorID: w.tutor.ID, Rating: 1, Comment: "Good"})
		assert.ErrorIs(t, err, review.ErrAlreadyReviewed)

		p, err := tutorRepo.GetByID(ctx, w.profile.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, p.TotalReviews)
		assert.InDelta(t, 5.0, p.AverageRating, 1e-9)
	})

	t.Run("Create_MissingProfileRollsBack", func(t *testing.T) {
		w := setup(t, 0, 0)
		s := sessionIn(t, w, session.StatusCompleted, "10:00")
		orphanTutor := fixtures.User(t, db, user.RoleTutor)

		_, _, err := reviewRepo.Record(ctx, &review.Review{SessionID: s.ID, StudentID: w.student.ID, TutorID: orphanTutor.ID, Rating: 5, Comment: "Good"})
		assert.ErrorIs(t, err, review.ErrTutorNotFound)

		n, err := db.NewSelect().Model((*review.Review)(nil)).Count(ctx)
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("Create_Preconditions", func(t *testing.T) {
		w := setup(t, 0, 0)
		pending := sessionIn(t, w, session.StatusConfirmed, "09:00")
		done := sessionIn(t, w, session.StatusCompleted, "10:00")
		stranger := fixtures.User(t, db, user.RoleStudent)

		resp := do(t, http.MethodPost, "/api/student/reviews", w.student, map[string]interface{}{"sessionId": uuid.New(), "rating": 5, "comment": "Helpful session"})
		assert.Equal(t, http.StatusNotFound, resp.Code)

		resp = do(t, http.MethodPost, "/api/student/reviews", w.student, map[string]interface{}{"sessionId": pending.ID, "rating": 5, "comment": "Helpful session"})
		assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)

		resp = do(t, http.MethodPost, "/api/student/reviews", stranger, map[string]interface{}{"sessionId": done.ID, "rating": 5, "comment": "Helpful session"})
		assert.Equal(t, http.StatusForbidden, resp.Code)

		resp = do(t, http.MethodPost, "/api/student/reviews", w.student, map[string]interface{}{"sessionId": done.ID, "rating": 6, "comment": "Helpful session"})
		assert.Equal(t, http.StatusBadRequest, resp.Code)

		resp = do(t, http.MethodPost, "/api/student/reviews", w.student, map[string]interface{}{"sessionId": done.ID, "rating": 0, "comment": "Helpful session"})
		assert.Equal(t, http.StatusBadRequest, resp.Code)

		resp = do(t, http.MethodPost, "/api/student/reviews", w.student, map[string]interface{}{"sessionId": done.ID, "rating": 5})
		assert.Equal(t, http.StatusBadRequest, resp.Code)

		resp = do(t, http.MethodPost, "/api/student/reviews", w.student, map[string]interface{}{"sessionId": done.ID, "rating": 5, "comment": "   "})
		require.Equal(t, http.StatusBadRequest, resp.Code)
		assert.Contains(t, resp.Body.String(), `"field":"comment"`)

		p, err := tutorRepo.GetByID(ctx, w.profile.ID)
		require.NoError(t, err)
		assert.Zero(t, p.TotalReviews)
		assert.Empty(t, emitted.Types())
	})

	t.Run("ListForTutor_NewestFirst", func(t *testing.T) {
		w := setup(t, 0, 0)
		first := sessionIn(t, w, session.StatusCompleted, "09:00")
		second := sessionIn(t, w, session.StatusCompleted, "10:00")

		require.Equal(t, http.StatusCreated, do(t, http.MethodPost, "/api/student/reviews", w.student, map[string]interface{}{"sessionId": first.ID, "rating": 3, "comment": "Helpful session"}).Code)
		require.Equal(t, http.StatusCreated, do(t, http.MethodPost, "/api/student/reviews", w.student, map[string]interface{}{"sessionId": second.ID, "rating": 5, "comment": "Helpful session"}).Code)

		resp := do(t, http.MethodGet, "/api/student/tutor-reviews/"+w.tutor.ID.String(), w.student, nil)

		require.Equal(t, http.StatusOK, resp.Code)
		var reviews []review.Review
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&reviews))
		require.Len(t, reviews, 2)
		assert.Equal(t, second.ID, reviews[0].SessionID)
		require.NotNil(t, reviews[0].Student)
		assert.Equal(t, w.student.ID, reviews[0].Student.ID)

		p, err := tutorRepo.GetByID(ctx, w.profile.ID)
		require.NoError(t, err)
		assert.InDelta(t, 4.0, p.AverageRating, 1e-9)
		assert.Equal(t, 2, p.TotalReviews)
	})
}
