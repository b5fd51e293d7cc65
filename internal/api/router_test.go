package api_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hugh/go-invite/internal/api"
	"github.com/hugh/go-invite/internal/api/dto"
	"github.com/hugh/go-invite/internal/api/middleware"
	"github.com/hugh/go-invite/internal/auth"
	"github.com/hugh/go-invite/internal/sweeper"
	"github.com/hugh/go-invite/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T, loginPerMinute int) (*api.Router, *testutil.TestSetup) {
	tc := testutil.NewTestContext(t)

	router := api.NewRouter(api.RouterConfig{
		DB:             tc.Store,
		Logger:         tc.Logger,
		JWTService:     tc.JWTService,
		Invites:        tc.Invites,
		Sessions:       tc.Sessions,
		Profiles:       tc.Profiles,
		Sweeper:        sweeper.New(tc.Store, tc.Policy, tc.Logger, sweeper.WithClock(tc.Clock.Now)),
		SessionLife:    tc.Policy.SessionLife,
		LoginPerMinute: loginPerMinute,
	})

	return router, tc
}

func serve(router http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestRouter_InviteToLogout(t *testing.T) {
	router, tc := newTestRouter(t, 0)
	defer tc.Cleanup()

	adminToken := tc.AdminToken(t)

	// Issue
	rr := serve(router, testutil.AuthenticatedRequest(t, "POST", "/api/v1/invites", map[string]interface{}{
		"name":          "Grace Hopper",
		"phone_number":  "5551112222",
		"email":         "grace@example.com",
		"organizations": []map[string]string{{"name": "Navy", "role": "Rear Admiral"}},
	}, adminToken))
	testutil.AssertStatus(t, rr, http.StatusCreated)

	var invite auth.InviteResponse
	testutil.ParseJSONResponse(t, rr, &invite)

	// Redeem
	rr = serve(router, testutil.UnauthenticatedRequest(t, "POST", "/api/v1/invites/redeem", map[string]string{
		"invite_code": invite.InviteCode,
		"password":    "cobol",
	}))
	testutil.AssertStatus(t, rr, http.StatusCreated)

	// Login
	rr = serve(router, testutil.UnauthenticatedRequest(t, "POST", "/api/v1/auth/login", map[string]string{
		"email":    "grace@example.com",
		"password": "cobol",
	}))
	testutil.AssertStatus(t, rr, http.StatusOK)

	var session auth.SessionResponse
	testutil.ParseJSONResponse(t, rr, &session)

	// Profile
	rr = serve(router, testutil.AuthenticatedRequest(t, "GET", "/api/v1/me", nil, session.Token))
	testutil.AssertStatus(t, rr, http.StatusOK)

	var me dto.UserDTO
	testutil.ParseJSONResponse(t, rr, &me)
	assert.Equal(t, "Grace Hopper", me.Name)
	require.Len(t, me.Organizations, 1)

	// Edit with a bearer token needs no CSRF header
	rr = serve(router, testutil.AuthenticatedRequest(t, "PATCH", "/api/v1/me", map[string]string{
		"profile_pic": "https://example.com/grace.png",
	}, session.Token))
	testutil.AssertStatus(t, rr, http.StatusOK)

	// Logout
	rr = serve(router, testutil.AuthenticatedRequest(t, "POST", "/api/v1/auth/logout", nil, session.Token))
	testutil.AssertStatus(t, rr, http.StatusOK)

	rr = serve(router, testutil.AuthenticatedRequest(t, "GET", "/api/v1/me", nil, session.Token))
	testutil.AssertStatus(t, rr, http.StatusUnauthorized)
}

func TestRouter_AdminRoutes(t *testing.T) {
	router, tc := newTestRouter(t, 0)
	defer tc.Cleanup()

	body := map[string]string{"name": "N", "phone_number": testutil.UniquePhone(), "email": testutil.UniqueEmail()}

	t.Run("issue without token", func(t *testing.T) {
		rr := serve(router, testutil.UnauthenticatedRequest(t, "POST", "/api/v1/invites", body))
		testutil.AssertStatus(t, rr, http.StatusUnauthorized)
	})

	t.Run("issue with a non-admin token", func(t *testing.T) {
		token, err := tc.JWTService.GenerateToken("ops@example.com", "viewer")
		require.NoError(t, err)

		rr := serve(router, testutil.AuthenticatedRequest(t, "POST", "/api/v1/invites", body, token))
		testutil.AssertStatus(t, rr, http.StatusForbidden)
	})

	t.Run("session token is not an admin token", func(t *testing.T) {
		user := testutil.CreateActiveUser(t, tc.DB, tc.Hasher, testutil.Epoch)
		session := testutil.CreateSession(t, tc.DB, user, testutil.Epoch)

		rr := serve(router, testutil.AuthenticatedRequest(t, "POST", "/api/v1/invites", body, session.Token))
		testutil.AssertStatus(t, rr, http.StatusUnauthorized)
	})

	t.Run("sweep runs in-process", func(t *testing.T) {
		rr := serve(router, testutil.AuthenticatedRequest(t, "POST", "/api/v1/admin/sweep", nil, tc.AdminToken(t)))
		testutil.AssertStatus(t, rr, http.StatusOK)

		var res sweeper.Result
		testutil.ParseJSONResponse(t, rr, &res)
		assert.Zero(t, res.Invites)
	})
}

func TestRouter_CookieSessionsNeedCSRF(t *testing.T) {
	router, tc := newTestRouter(t, 0)
	defer tc.Cleanup()

	user := testutil.CreateActiveUser(t, tc.DB, tc.Hasher, testutil.Epoch)

	rr := serve(router, testutil.UnauthenticatedRequest(t, "POST", "/api/v1/auth/login", map[string]string{
		"email":    user.Email,
		"password": testutil.TestPassword,
	}))
	testutil.AssertStatus(t, rr, http.StatusOK)

	cookies := rr.Result().Cookies()
	var csrf string
	for _, c := range cookies {
		if c.Name == middleware.CSRFCookieName {
			csrf = c.Value
		}
	}
	require.NotEmpty(t, csrf)

	patch := func(header string) *httptest.ResponseRecorder {
		req := httptest.NewRequest("PATCH", "/api/v1/me", strings.NewReader(`{"name": "Cookie Monster"}`))
		req.Header.Set("Content-Type", "application/json")
		for _, c := range cookies {
			req.AddCookie(c)
		}
		if header != "" {
			req.Header.Set(middleware.CSRFHeaderName, header)
		}
		return serve(router, req)
	}

	testutil.AssertStatus(t, patch(""), http.StatusForbidden)
	testutil.AssertStatus(t, patch("forged"), http.StatusForbidden)
	testutil.AssertStatus(t, patch(csrf), http.StatusOK)

	// Reads don't need the header
	req := httptest.NewRequest("GET", "/api/v1/me", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	testutil.AssertStatus(t, serve(router, req), http.StatusOK)
}

func TestRouter_LoginRateLimit(t *testing.T) {
	router, tc := newTestRouter(t, 2)
	defer tc.Cleanup()

	login := func() *httptest.ResponseRecorder {
		return serve(router, testutil.UnauthenticatedRequest(t, "POST", "/api/v1/auth/login", map[string]string{
			"email":    "nobody@example.com",
			"password": "guess",
		}))
	}

	testutil.AssertStatus(t, login(), http.StatusUnauthorized)
	testutil.AssertStatus(t, login(), http.StatusUnauthorized)

	rr := login()
	testutil.AssertStatus(t, rr, http.StatusTooManyRequests)
	assert.NotEmpty(t, rr.Header().Get("Retry-After"))

	// Other routes keep their own budget
	testutil.AssertStatus(t, serve(router, httptest.NewRequest("GET", "/ready", nil)), http.StatusOK)
}

func TestRouter_Health(t *testing.T) {
	router, tc := newTestRouter(t, 0)
	defer tc.Cleanup()

	rr := serve(router, httptest.NewRequest("GET", "/health", nil))
	testutil.AssertStatus(t, rr, http.StatusOK)
	assert.Contains(t, rr.Body.String(), `"database":"healthy"`)
}
