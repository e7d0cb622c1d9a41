package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gellahi/EduConnect-Pakistan/internal/auth"
	"github.com/gellahi/EduConnect-Pakistan/internal/logger"
	"github.com/gellahi/EduConnect-Pakistan/internal/user"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouter(verifier *auth.Verifier) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.Middleware(verifier, logger.Discard()))
	r.With(auth.RequireRole(user.RoleTutor)).Get("/tutor-only", func(w http.ResponseWriter, r *http.Request) {
		id, ok := auth.IdentityFrom(r.Context())
		if !ok {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(id.UserID.String()))
	})
	return r
}

func TestMiddleware(t *testing.T) {
	verifier := auth.NewVerifier("test-secret", "educonnect")
	router := newRouter(verifier)

	tutorID := uuid.New()
	tutorToken, err := verifier.Issue(auth.Identity{UserID: tutorID, Role: user.RoleTutor}, time.Hour)
	require.NoError(t, err)
	studentToken, err := verifier.Issue(auth.Identity{UserID: uuid.New(), Role: user.RoleStudent}, time.Hour)
	require.NoError(t, err)
	expired, err := verifier.Issue(auth.Identity{UserID: tutorID, Role: user.RoleTutor}, -time.Minute)
	require.NoError(t, err)
	foreign, err := auth.NewVerifier("other-secret", "educonnect").Issue(auth.Identity{UserID: tutorID, Role: user.RoleTutor}, time.Hour)
	require.NoError(t, err)
	wrongIssuer, err := auth.NewVerifier("test-secret", "someone-else").Issue(auth.Identity{UserID: tutorID, Role: user.RoleTutor}, time.Hour)
	require.NoError(t, err)

	t.Run("BearerHeader", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/tutor-only", nil)
		req.Header.Set("Authorization", "Bearer "+tutorToken)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, tutorID.String(), w.Body.String())
	})

	t.Run("Cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/tutor-only", nil)
		req.AddCookie(&http.Cookie{Name: "token", Value: tutorToken})
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("WrongRole", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/tutor-only", nil)
		req.Header.Set("Authorization", "Bearer "+studentToken)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	rejected := map[string]string{
		"Missing":     "",
		"Expired":     "Bearer " + expired,
		"BadSecret":   "Bearer " + foreign,
		"WrongIssuer": "Bearer " + wrongIssuer,
		"Garbage":     "Bearer not-a-jwt",
		"BasicScheme": "Basic dXNlcjpwYXNz",
	}
	for name, header := range rejected {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/tutor-only", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Contains(t, w.Body.String(), "unauthorized")
		})
	}
}

func TestVerifier_RejectsUnknownRole(t *testing.T) {
	verifier := auth.NewVerifier("test-secret", "")
	token, err := verifier.Issue(auth.Identity{UserID: uuid.New(), Role: user.Role("superuser")}, time.Hour)
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	assert.ErrorIs(t, err, auth.ErrUnknownRole)
}
