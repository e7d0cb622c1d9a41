package tutor_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gellahi/EduConnect-Pakistan/internal/auth"
	"github.com/gellahi/EduConnect-Pakistan/internal/logger"
	"github.com/gellahi/EduConnect-Pakistan/internal/metrics"
	"github.com/gellahi/EduConnect-Pakistan/internal/subject"
	"github.com/gellahi/EduConnect-Pakistan/internal/tutor"
	"github.com/gellahi/EduConnect-Pakistan/internal/user"
	"github.com/gellahi/EduConnect-Pakistan/testing/fixtures"
	"github.com/gellahi/EduConnect-Pakistan/testing/testdb"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTutorHandler_Shared(t *testing.T) {
	pgContainer := testdb.SetupSharedPostgres(t)
	defer pgContainer.Cleanup(t)

	db := pgContainer.DB
	mockMetrics := metrics.NewMock()
	log := logger.Discard()

	repo := tutor.NewRepository(db, mockMetrics)
	service := tutor.NewService(repo, subject.NewRepository(db, mockMetrics), mockMetrics)
	handler := tutor.NewHandler(service, log)

	verifier := auth.NewVerifier("test-secret", "educonnect")
	router := chi.NewRouter()
	router.Use(auth.Middleware(verifier, log))
	router.With(auth.RequireRole(user.RoleStudent)).Route("/api/student", handler.RegisterStudentRoutes)
	router.With(auth.RequireRole(user.RoleTutor)).Route("/api/tutor", handler.RegisterTutorRoutes)

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

	search := func(t *testing.T, caller *user.User, query string) []tutor.Profile {
		t.Helper()
		resp := do(t, http.MethodGet, "/api/student/tutors/search"+query, caller, nil)
		require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
		var got []tutor.Profile
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
		return got
	}

	ids := func(profiles []tutor.Profile) []uuid.UUID {
		out := make([]uuid.UUID, 0, len(profiles))
		for _, p := range profiles {
			out = append(out, p.ID)
		}
		return out
	}

	t.Run("Search", func(t *testing.T) {
		testdb.CleanupTables(t, db)
		student := fixtures.User(t, db, user.RoleStudent)
		math := fixtures.Subject(t, db, "Mathematics")
		physics := fixtures.Subject(t, db, "Physics")

		_, lahore := fixtures.Profile(t, db, tutor.StatusApproved, tutor.Profile{
			HourlyRate:    30,
			AverageRating: 4.8,
			Location:      tutor.Location{City: "Lahore"},
			Availability: []tutor.Slot{
				{Day: "Monday", StartTime: "09:00", EndTime: "12:00"},
				{Day: "Tuesday", StartTime: "14:00", EndTime: "18:00"},
			},
		}, math)
		_, karachi := fixtures.Profile(t, db, tutor.StatusApproved, tutor.Profile{
			HourlyRate:    50,
			AverageRating: 4.2,
			Location:      tutor.Location{City: "Karachi"},
			Availability:  []tutor.Slot{{Day: "Monday", StartTime: "13:00", EndTime: "17:00"}},
		}, math, physics)
		_, islamabad := fixtures.Profile(t, db, tutor.StatusApproved, tutor.Profile{
			HourlyRate:    80,
			AverageRating: 3.5,
			Location:      tutor.Location{City: "Islamabad"},
		}, physics)
		fixtures.Profile(t, db, tutor.StatusPending, tutor.Profile{AverageRating: 5, Location: tutor.Location{City: "Lahore"}}, math)
		fixtures.Profile(t, db, tutor.StatusRejected, tutor.Profile{AverageRating: 5}, math)

		assert.Equal(t, []uuid.UUID{lahore.ID, karachi.ID, islamabad.ID}, ids(search(t, student, "")))
		assert.Equal(t, []uuid.UUID{lahore.ID, karachi.ID}, ids(search(t, student, "?subject="+math.ID.String())))
		assert.Equal(t, []uuid.UUID{lahore.ID}, ids(search(t, student, "?city=lah")))
		assert.Equal(t, []uuid.UUID{karachi.ID, islamabad.ID}, ids(search(t, student, "?minPrice=50")))
		assert.Equal(t, []uuid.UUID{lahore.ID, karachi.ID}, ids(search(t, student, "?maxPrice=50")))
		assert.Equal(t, []uuid.UUID{lahore.ID, karachi.ID}, ids(search(t, student, "?minRating=4.2")))
		assert.Equal(t, []uuid.UUID{karachi.ID}, ids(search(t, student, "?subject="+physics.ID.String()+"&maxPrice=60")))
		assert.Empty(t, search(t, student, "?city=%25"))

		assert.Equal(t, []uuid.UUID{lahore.ID, karachi.ID}, ids(search(t, student, "?day=Monday")))
		assert.Equal(t, []uuid.UUID{lahore.ID}, ids(search(t, student, "?day=Monday&startTime=10:00&endTime=11:00")))
		assert.Equal(t, []uuid.UUID{karachi.ID}, ids(search(t, student, "?day=Monday&startTime=13:00&endTime=17:00")))
		// The window must fit inside a single slot.
		assert.Empty(t, search(t, student, "?day=Monday&startTime=10:00&endTime=14:00"))
		assert.Equal(t, []uuid.UUID{lahore.ID}, ids(search(t, student, "?day=Tuesday")))
		assert.Empty(t, search(t, student, "?day=Sunday"))
	})

	t.Run("Search_InvalidFilter", func(t *testing.T) {
		testdb.CleanupTables(t, db)
		student := fixtures.User(t, db, user.RoleStudent)

		for _, query := range []string{"?minPrice=cheap", "?subject=maths", "?day=Someday", "?startTime=25:00", "?minPrice=50&maxPrice=10", "?minRating=7"} {
			resp := do(t, http.MethodGet, "/api/student/tutors/search"+query, student, nil)
			assert.Equal(t, http.StatusBadRequest, resp.Code, query)
		}
	})

	t.Run("GetTutor", func(t *testing.T) {
		testdb.CleanupTables(t, db)
		student := fixtures.User(t, db, user.RoleStudent)
		math := fixtures.Subject(t, db, "Mathematics")
		tutorUser, profile := fixtures.Profile(t, db, tutor.StatusPending, tutor.Profile{Bio: "Olympiad coach"}, math)

		resp := do(t, http.MethodGet, "/api/student/tutors/"+profile.ID.String(), student, nil)
		require.Equal(t, http.StatusOK, resp.Code)
		var got tutor.Profile
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
		assert.Equal(t, "Olympiad coach", got.Bio)
		require.NotNil(t, got.User)
		assert.Equal(t, tutorUser.ID, got.User.ID)
		require.Len(t, got.Subjects, 1)

		resp = do(t, http.MethodGet, "/api/student/tutors/"+uuid.NewString(), student, nil)
		assert.Equal(t, http.StatusNotFound, resp.Code)

		resp = do(t, http.MethodGet, "/api/student/tutors/not-an-id", student, nil)
		assert.Equal(t, http.StatusBadRequest, resp.Code)
	})

	t.Run("ProfileLifecycle", func(t *testing.T) {
		testdb.CleanupTables(t, db)
		tutorUser := fixtures.User(t, db, user.RoleTutor)
		math := fixtures.Subject(t, db, "Mathematics")
		physics := fixtures.Subject(t, db, "Physics")

		resp := do(t, http.MethodGet, "/api/tutor/profile", tutorUser, nil)
		assert.Equal(t, http.StatusNotFound, resp.Code)

		resp = do(t, http.MethodPost, "/api/tutor/profile", tutorUser, map[string]interface{}{
			"bio":        "Ten years of A-level teaching",
			"education":  []map[string]interface{}{{"degree": "MSc Mathematics", "institution": "LUMS", "year": 2012}},
			"hourlyRate": 45,
			"location":   map[string]interface{}{"lat": 31.52, "lng": 74.35, "address": "Gulberg", "city": "Lahore"},
			"subjects":   []uuid.UUID{math.ID, math.ID},
		})
		require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
		var created tutor.Profile
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
		assert.Equal(t, tutor.StatusPending, created.VerificationStatus)
		assert.Zero(t, created.AverageRating)
		assert.Zero(t, created.TotalReviews)
		assert.Len(t, created.Subjects, 1)
		assert.Equal(t, "Lahore", created.Location.City)

		resp = do(t, http.MethodPost, "/api/tutor/profile", tutorUser, map[string]interface{}{
			"hourlyRate": 45,
			"location":   map[string]interface{}{"city": "Lahore"},
		})
		assert.Equal(t, http.StatusConflict, resp.Code)

		resp = do(t, http.MethodPatch, "/api/tutor/profile", tutorUser, map[string]interface{}{"hourlyRate": 60, "bio": "Updated"})
		require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
		var updated tutor.Profile
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&updated))
		assert.InDelta(t, 60.0, updated.HourlyRate, 1e-9)
		assert.Equal(t, "Updated", updated.Bio)
		assert.Equal(t, "Lahore", updated.Location.City)
		require.Len(t, updated.Education, 1)

		resp = do(t, http.MethodPatch, "/api/tutor/profile", tutorUser, map[string]interface{}{"averageRating": 5})
		assert.Equal(t, http.StatusBadRequest, resp.Code)

		resp = do(t, http.MethodPost, "/api/tutor/subjects", tutorUser, map[string]interface{}{"subjects": []uuid.UUID{math.ID, physics.ID}})
		require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
		var withSubjects tutor.Profile
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&withSubjects))
		assert.Len(t, withSubjects.Subjects, 2)

		resp = do(t, http.MethodPost, "/api/tutor/subjects", tutorUser, map[string]interface{}{"subjects": []uuid.UUID{uuid.New()}})
		assert.Equal(t, http.StatusNotFound, resp.Code)

		resp = do(t, http.MethodDelete, "/api/tutor/subjects/"+math.ID.String(), tutorUser, nil)
		require.Equal(t, http.StatusOK, resp.Code)
		var afterRemove tutor.Profile
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&afterRemove))
		require.Len(t, afterRemove.Subjects, 1)
		assert.Equal(t, physics.ID, afterRemove.Subjects[0].ID)

		resp = do(t, http.MethodDelete, "/api/tutor/subjects/"+math.ID.String(), tutorUser, nil)
		assert.Equal(t, http.StatusNotFound, resp.Code)
	})

	t.Run("UpdateAvailability", func(t *testing.T) {
		testdb.CleanupTables(t, db)
		tutorUser, profile := fixtures.Profile(t, db, tutor.StatusApproved, tutor.Profile{})

		slots := []map[string]string{
			{"day": "Monday", "startTime": "09:00", "endTime": "12:00"},
			{"day": "Saturday", "startTime": "10:00", "endTime": "14:00"},
		}
		resp := do(t, http.MethodPost, "/api/tutor/availability", tutorUser, map[string]interface{}{"availability": slots})
		require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

		stored, err := repo.GetByID(context.Background(), profile.ID)
		require.NoError(t, err)
		assert.Equal(t, []tutor.Slot{
			{Day: "Monday", StartTime: "09:00", EndTime: "12:00"},
			{Day: "Saturday", StartTime: "10:00", EndTime: "14:00"},
		}, stored.Availability)

		for _, bad := range []map[string]string{
			{"day": "Funday", "startTime": "09:00", "endTime": "12:00"},
			{"day": "Monday", "startTime": "9:00", "endTime": "12:00"},
			{"day": "Monday", "startTime": "12:00", "endTime": "09:00"},
		} {
			resp := do(t, http.MethodPost, "/api/tutor/availability", tutorUser, map[string]interface{}{"availability": []map[string]string{bad}})
			assert.Equal(t, http.StatusBadRequest, resp.Code, bad)
		}

		stored, err = repo.GetByID(context.Background(), profile.ID)
		require.NoError(t, err)
		assert.Len(t, stored.Availability, 2)
	})
}
