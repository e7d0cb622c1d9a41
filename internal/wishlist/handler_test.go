package wishlist_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gellahi/EduConnect-Pakistan/internal/auth"
	"github.com/gellahi/EduConnect-Pakistan/internal/logger"
	"github.com/gellahi/EduConnect-Pakistan/internal/metrics"
	"github.com/gellahi/EduConnect-Pakistan/internal/tutor"
	"github.com/gellahi/EduConnect-Pakistan/internal/user"
	"github.com/gellahi/EduConnect-Pakistan/internal/wishlist"
	"github.com/gellahi/EduConnect-Pakistan/testing/fixtures"
	"github.com/gellahi/EduConnect-Pakistan/testing/testdb"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWishlistHandler_Shared(t *testing.T) {
	pgContainer := testdb.SetupSharedPostgres(t)
	defer pgContainer.Cleanup(t)

	db := pgContainer.DB
	mockMetrics := metrics.NewMock()
	log := logger.Discard()

	service := wishlist.NewService(
		wishlist.NewRepository(db, mockMetrics),
		user.NewRepository(db, mockMetrics),
		tutor.NewRepository(db, mockMetrics),
	)
	handler := wishlist.NewHandler(service, log)

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

	decode := func(t *testing.T, resp *httptest.ResponseRecorder) wishlist.Wishlist {
		t.Helper()
		require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
		var list wishlist.Wishlist
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
		return list
	}

	t.Run("Empty", func(t *testing.T) {
		testdb.CleanupTables(t, db)
		student := fixtures.User(t, db, user.RoleStudent)

		list := decode(t, do(t, http.MethodGet, "/api/student/wishlist", student, nil))

		assert.Equal(t, student.ID, list.StudentID)
		assert.NotNil(t, list.Tutors)
		assert.Empty(t, list.Tutors)
	})

	t.Run("AddAndGet", func(t *testing.T) {
		testdb.CleanupTables(t, db)
		student := fixtures.User(t, db, user.RoleStudent)
		withProfile, profile := fixtures.Profile(t, db, tutor.StatusApproved, tutor.Profile{})
		withoutProfile := fixtures.User(t, db, user.RoleTutor)

		decode(t, do(t, http.MethodPost, "/api/student/wishlist", student, map[string]interface{}{"tutorId": withProfile.ID}))
		list := decode(t, do(t, http.MethodPost, "/api/student/wishlist", student, map[string]interface{}{"tutorId": withoutProfile.ID}))

		require.Len(t, list.Tutors, 2)
		assert.Equal(t, withProfile.ID, list.Tutors[0].Tutor.ID)
		require.NotNil(t, list.Tutors[0].Profile)
		assert.Equal(t, profile.ID, list.Tutors[0].Profile.ID)
		assert.Equal(t, withoutProfile.ID, list.Tutors[1].Tutor.ID)
		assert.Nil(t, list.Tutors[1].Profile)
	})

	t.Run("AddDuplicate", func(t *testing.T) {
		testdb.CleanupTables(t, db)
		student := fixtures.User(t, db, user.RoleStudent)
		tutorUser, _ := fixtures.Profile(t, db, tutor.StatusApproved, tutor.Profile{})

		decode(t, do(t, http.MethodPost, "/api/student/wishlist", student, map[string]interface{}{"tutorId": tutorUser.ID}))
		resp := do(t, http.MethodPost, "/api/student/wishlist", student, map[string]interface{}{"tutorId": tutorUser.ID})

		assert.Equal(t, http.StatusConflict, resp.Code)
		list := decode(t, do(t, http.MethodGet, "/api/student/wishlist", student, nil))
		assert.Len(t, list.Tutors, 1)
	})

	t.Run("AddNonTutor", func(t *testing.T) {
		testdb.CleanupTables(t, db)
		student := fixtures.User(t, db, user.RoleStudent)
		other := fixtures.User(t, db, user.RoleStudent)

		resp := do(t, http.MethodPost, "/api/student/wishlist", student, map[string]interface{}{"tutorId": other.ID})
		assert.Equal(t, http.StatusNotFound, resp.Code)

		resp = do(t, http.MethodPost, "/api/student/wishlist", student, map[string]interface{}{"tutorId": uuid.New()})
		assert.Equal(t, http.StatusNotFound, resp.Code)

		resp = do(t, http.MethodPost, "/api/student/wishlist", student, map[string]interface{}{})
		assert.Equal(t, http.StatusBadRequest, resp.Code)
	})

	t.Run("Remove", func(t *testing.T) {
		testdb.CleanupTables(t, db)
		student := fixtures.User(t, db, user.RoleStudent)
		kept, _ := fixtures.Profile(t, db, tutor.StatusApproved, tutor.Profile{})
		removed, _ := fixtures.Profile(t, db, tutor.StatusApproved, tutor.Profile{})

		resp := do(t, http.MethodDelete, "/api/student/wishlist/"+removed.ID.String(), student, nil)
		assert.Equal(t, http.StatusNotFound, resp.Code)

		decode(t, do(t, http.MethodPost, "/api/student/wishlist", student, map[string]interface{}{"tutorId": kept.ID}))
		decode(t, do(t, http.MethodPost, "/api/student/wishlist", student, map[string]interface{}{"tutorId": removed.ID}))

		list := decode(t, do(t, http.MethodDelete, "/api/student/wishlist/"+removed.ID.String(), student, nil))
		require.Len(t, list.Tutors, 1)
		assert.Equal(t, kept.ID, list.Tutors[0].Tutor.ID)

		list = decode(t, do(t, http.MethodDelete, "/api/student/wishlist/"+removed.ID.String(), student, nil))
		assert.Len(t, list.Tutors, 1)
	})

	t.Run("PerStudent", func(t *testing.T) {
		testdb.CleanupTables(t, db)
		alice := fixtures.User(t, db, user.RoleStudent)
		bob := fixtures.User(t, db, user.RoleStudent)
		tutorUser, _ := fixtures.Profile(t, db, tutor.StatusApproved, tutor.Profile{})

		decode(t, do(t, http.MethodPost, "/api/student/wishlist", alice, map[string]interface{}{"tutorId": tutorUser.ID}))

		assert.Empty(t, decode(t, do(t, http.MethodGet, "/api/student/wishlist", bob, nil)).Tutors)
	})
}
