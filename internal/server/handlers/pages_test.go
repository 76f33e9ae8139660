package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/criteo/guestgate/internal/auth"
)

func postForm(target string, values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestPageHandler_GetHome(t *testing.T) {
	tests := []struct {
		name   string
		state  auth.State
		expect string
	}{
		{
			name:   "guest sees sign in link",
			state:  auth.State{Initialized: true},
			expect: `href="/login"`,
		},
		{
			name:   "user is greeted",
			state:  auth.State{Initialized: true, User: &auth.User{Username: "alice"}},
			expect: "Signed in as <strong>alice</strong>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewPageHandler(&fakeService{state: tt.state}, true, "/", slog.Default())
			rr := httptest.NewRecorder()

			h.GetHome(rr, httptest.NewRequest(http.MethodGet, "/", nil))

			assert.Equal(t, http.StatusOK, rr.Code)
			assert.Equal(t, "text/html; charset=utf-8", rr.Header().Get("Content-Type"))
			assert.Contains(t, rr.Body.String(), tt.expect)
		})
	}
}

func TestPageHandler_GetLogin(t *testing.T) {
	t.Run("renders form", func(t *testing.T) {
		h := NewPageHandler(&fakeService{}, true, "/", slog.Default())
		rr := httptest.NewRecorder()

		h.GetLogin(rr, httptest.NewRequest(http.MethodGet, "/login", nil))

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), `<form method="post" action="/login">`)
	})

	t.Run("login disabled", func(t *testing.T) {
		h := NewPageHandler(&fakeService{}, false, "/", slog.Default())
		rr := httptest.NewRecorder()

		h.GetLogin(rr, httptest.NewRequest(http.MethodGet, "/login", nil))

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), "Login is disabled")
		assert.NotContains(t, rr.Body.String(), `action="/login"`)
	})
}

func TestPageHandler_PostLogin(t *testing.T) {
	tests := []struct {
		name           string
		form           url.Values
		loginErr       error
		htmx           bool
		expectStatus   int
		expectLocation string
		expectBody     string
		expectLogins   int
	}{
		{
			name:           "success redirects home with 303",
			form:           url.Values{"username": {"alice"}, "password": {"secret"}},
			expectStatus:   http.StatusSeeOther,
			expectLocation: "/app",
			expectLogins:   1,
		},
		{
			name:         "success over HTMX",
			form:         url.Values{"username": {"alice"}, "password": {"secret"}},
			htmx:         true,
			expectStatus: http.StatusOK,
			expectLogins: 1,
		},
		{
			name:         "invalid credentials re-renders with 401",
			form:         url.Values{"username": {"alice"}, "password": {"wrong"}},
			loginErr:     auth.ErrInvalidCredentials,
			expectStatus: http.StatusUnauthorized,
			expectBody:   "Invalid username or password",
			expectLogins: 1,
		},
		{
			name:         "login disabled",
			form:         url.Values{"username": {"alice"}, "password": {"secret"}},
			loginErr:     auth.ErrLoginDisabled,
			expectStatus: http.StatusNotImplemented,
			expectBody:   "Login is disabled",
			expectLogins: 1,
		},
		{
			name:         "unexpected failure",
			form:         url.Values{"username": {"alice"}, "password": {"secret"}},
			loginErr:     errors.New("signing failed"),
			expectStatus: http.StatusInternalServerError,
			expectBody:   "Internal server error",
			expectLogins: 1,
		},
		{
			name:         "missing password",
			form:         url.Values{"username": {"alice"}},
			expectStatus: http.StatusBadRequest,
			expectBody:   "Username and password are required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeService{loginErr: tt.loginErr}
			h := NewPageHandler(svc, true, "/app", slog.Default())

			req := postForm("/login", tt.form)
			if tt.htmx {
				req.Header.Set("HX-Request", "true")
			}
			rr := httptest.NewRecorder()

			h.PostLogin(rr, req)

			assert.Equal(t, tt.expectStatus, rr.Code)
			assert.Equal(t, tt.expectLogins, svc.logins)
			if tt.expectLocation != "" {
				assert.Equal(t, tt.expectLocation, rr.Header().Get("Location"))
			}
			if tt.htmx {
				assert.Equal(t, "/app", rr.Header().Get("HX-Redirect"))
			}
			if tt.expectBody != "" {
				assert.Contains(t, rr.Body.String(), tt.expectBody)
			}
			if tt.loginErr == nil && tt.expectLogins == 1 {
				assert.Contains(t, rr.Header().Get("Set-Cookie"), "guestgate_session=token-for-alice")
			}
		})
	}
}

func TestPageHandler_PostLogin_EscapesUsername(t *testing.T) {
	svc := &fakeService{loginErr: auth.ErrInvalidCredentials}
	h := NewPageHandler(svc, true, "/", slog.Default())
	rr := httptest.NewRecorder()

	h.PostLogin(rr, postForm("/login", url.Values{"username": {`"><script>`}, "password": {"x"}}))

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.NotContains(t, rr.Body.String(), "<script>")
}

func TestPageHandler_PostLogout(t *testing.T) {
	svc := &fakeService{}
	h := NewPageHandler(svc, true, "/", slog.Default())
	rr := httptest.NewRecorder()

	h.PostLogout(rr, httptest.NewRequest(http.MethodPost, "/logout", nil))

	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/login", rr.Header().Get("Location"))
	assert.Equal(t, 1, svc.logouts)
}
