package middleware

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"net/http"
	"strings"
	"time"
)

const (
	csrfTokenLength = 32
	CSRFCookieName  = "csrf_token"
	CSRFHeaderName  = "X-CSRF-Token"
)

// SetCSRFCookie issues the double-submit token alongside a session cookie.
// The cookie is readable by scripts, which echo it in X-CSRF-Token.
func SetCSRFCookie(w http.ResponseWriter, secure bool, maxAge time.Duration) (string, error) {
	b := make([]byte, csrfTokenLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	token := base64.RawURLEncoding.EncodeToString(b)

	http.SetCookie(w, &http.Cookie{
		Name:     CSRFCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: false,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   int(maxAge.Seconds()),
	})
	return token, nil
}

// ClearCSRFCookie removes the double-submit token.
func ClearCSRFCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:   CSRFCookieName,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})
}

// CSRF guards state-changing requests authenticated by the session cookie.
// Requests presenting the token in a header are not exposed to CSRF and pass.
func CSRF() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
				next.ServeHTTP(w, r)
				return
			}

			if !cookieAuthenticated(r) {
				next.ServeHTTP(w, r)
				return
			}

			cookie, err := r.Cookie(CSRFCookieName)
			if err != nil || cookie.Value == "" {
				writeError(w, http.StatusForbidden, "CSRF token missing")
				return
			}

			provided := r.Header.Get(CSRFHeaderName)
			if provided == "" {
				writeError(w, http.StatusForbidden, "CSRF token missing")
				return
			}

			if subtle.ConstantTimeCompare([]byte(cookie.Value), []byte(provided)) != 1 {
				writeError(w, http.StatusForbidden, "Invalid CSRF token")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// cookieAuthenticated reports whether TokenFromRequest would fall back to the cookie.
func cookieAuthenticated(r *http.Request) bool {
	if authHeader := r.Header.Get("Authorization"); strings.HasPrefix(authHeader, "Bearer ") &&
		strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer ")) != "" {
		return false
	}
	cookie, err := r.Cookie(TokenCookie)
	return err == nil && cookie.Value != ""
}
