package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hugh/go-invite/internal/api/dto"
	"github.com/hugh/go-invite/internal/api/handlers"
	"github.com/hugh/go-invite/internal/api/middleware"
	"github.com/hugh/go-invite/internal/auth"
	"github.com/hugh/go-invite/internal/database/models"
	"github.com/hugh/go-invite/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupAuthTestRouter(t *testing.T) (*chi.Mux, *testutil.TestSetup) {
	tc := testutil.NewTestContext(t)

	handler := handlers.NewAuthHandler(tc.Sessions, auth.DefaultSessionLife, false)

	r := chi.NewRouter()
	r.Post("/api/v1/auth/login", handler.Login)
	r.Post("/api/v1/auth/logout", handler.Logout)

	return r, tc
}

func cookieNamed(rr *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rr.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestAuthHandler_Login(t *testing.T) {
	router, tc := setupAuthTestRouter(t)
	defer tc.Cleanup()

	user := testutil.CreateActiveUser(t, tc.DB, tc.Hasher, testutil.Epoch)

	t.Run("successful login", func(t *testing.T) {
		body := map[string]string{
			"email":    user.Email,
			"password": testutil.TestPassword,
		}

		req := testutil.UnauthenticatedRequest(t, "POST", "/api/v1/auth/login", body)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		testutil.AssertStatus(t, rr, http.StatusOK)

		var resp auth.SessionResponse
		testutil.ParseJSONResponse(t, rr, &resp)
		assert.Len(t, resp.Token, auth.TokenLength)
		assert.True(t, resp.ExpiresAt.Equal(testutil.Epoch.Add(auth.DefaultSessionLife)))

		cookie := cookieNamed(rr, middleware.TokenCookie)
		require.NotNil(t, cookie)
		assert.Equal(t, resp.Token, cookie.Value)
		assert.True(t, cookie.HttpOnly)
		assert.NotNil(t, cookieNamed(rr, middleware.CSRFCookieName))
	})

	t.Run("wrong password", func(t *testing.T) {
		body := map[string]string{
			"email":    user.Email,
			"password": "wrongpassword",
		}

		req := testutil.UnauthenticatedRequest(t, "POST", "/api/v1/auth/login", body)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		testutil.AssertStatus(t, rr, http.StatusUnauthorized)

		var resp dto.ErrorResponse
		testutil.ParseJSONResponse(t, rr, &resp)
		assert.Equal(t, "Invalid credentials", resp.Error)
		assert.Nil(t, cookieNamed(rr, middleware.TokenCookie))
	})

	t.Run("missing password looks like wrong password", func(t *testing.T) {
		req := testutil.UnauthenticatedRequest(t, "POST", "/api/v1/auth/login", map[string]string{"email": user.Email})
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		testutil.AssertStatus(t, rr, http.StatusUnauthorized)
	})

	t.Run("invalid request body", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/api/v1/auth/login", nil)
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		testutil.AssertStatus(t, rr, http.StatusBadRequest)
	})
}

func TestAuthHandler_Logout(t *testing.T) {
	router, tc := setupAuthTestRouter(t)
	defer tc.Cleanup()

	user := testutil.CreateActiveUser(t, tc.DB, tc.Hasher, testutil.Epoch)

	t.Run("ends the session", func(t *testing.T) {
		session := testutil.CreateSession(t, tc.DB, user, testutil.Epoch)

		req := testutil.AuthenticatedRequest(t, "POST", "/api/v1/auth/logout", nil, session.Token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		testutil.AssertStatus(t, rr, http.StatusOK)

		cookie := cookieNamed(rr, middleware.TokenCookie)
		require.NotNil(t, cookie)
		assert.Equal(t, -1, cookie.MaxAge)
		assert.Equal(t, int64(0), testutil.CountRows(t, tc.DB, &models.Session{}, "id = ?", session.ID))
	})

	t.Run("token from cookie", func(t *testing.T) {
		session := testutil.CreateSession(t, tc.DB, user, testutil.Epoch)

		req := httptest.NewRequest("POST", "/api/v1/auth/logout", nil)
		req.AddCookie(&http.Cookie{Name: middleware.TokenCookie, Value: session.Token})
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		testutil.AssertStatus(t, rr, http.StatusOK)
	})

	t.Run("unknown token", func(t *testing.T) {
		req := testutil.AuthenticatedRequest(t, "POST", "/api/v1/auth/logout", nil, "NOSUCHTOKEN00000")
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		testutil.AssertStatus(t, rr, http.StatusUnauthorized)
	})

	t.Run("no token", func(t *testing.T) {
		req := testutil.UnauthenticatedRequest(t, "POST", "/api/v1/auth/logout", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		testutil.AssertStatus(t, rr, http.StatusUnauthorized)
	})

	t.Run("expired token", func(t *testing.T) {
		session := testutil.CreateSession(t, tc.DB, user, tc.Clock.Now())
		tc.Clock.Advance(auth.DefaultSessionLife + time.Second)

		req := testutil.AuthenticatedRequest(t, "POST", "/api/v1/auth/logout", nil, session.Token)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		testutil.AssertStatus(t, rr, http.StatusGone)
	})
}
