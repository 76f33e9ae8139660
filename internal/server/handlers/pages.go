package handlers

import (
	"bytes"
	"embed"
	"errors"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/criteo/guestgate/internal/apierrors"
	"github.com/criteo/guestgate/internal/auth"
	"github.com/criteo/guestgate/internal/httpx"
)

// maxFormBytes bounds the login form body
const maxFormBytes = 64 << 10

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// homeData is rendered by the home template
type homeData struct {
	Title string
	User  *auth.User
}

// loginData is rendered by the login template
type loginData struct {
	Title    string
	Username string
	Error    string
	Disabled bool
}

// PageHandler serves the HTML pages: home, login and logout
type PageHandler struct {
	service      auth.Service
	loginEnabled bool
	homePath     string
	loginPath    string
	logger       *slog.Logger
}

// NewPageHandler creates a new page handler
func NewPageHandler(service auth.Service, loginEnabled bool, homePath string, logger *slog.Logger) *PageHandler {
	if homePath == "" {
		homePath = "/"
	}
	return &PageHandler{
		service:      service,
		loginEnabled: loginEnabled,
		homePath:     homePath,
		loginPath:    "/login",
		logger:       logger,
	}
}

// GetHome handles GET /
func (h *PageHandler) GetHome(w http.ResponseWriter, r *http.Request) {
	state := h.service.AuthState(r)
	h.render(w, http.StatusOK, "home", homeData{
		Title: "Home",
		User:  state.User,
	})
}

// GetLogin handles GET /login. Only reached by guests.
func (h *PageHandler) GetLogin(w http.ResponseWriter, r *http.Request) {
	h.render(w, http.StatusOK, "login", loginData{
		Title:    "Sign in",
		Disabled: !h.loginEnabled,
	})
}

// PostLogin handles POST /login. Only reached by guests.
func (h *PageHandler) PostLogin(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		h.logger.Warn("Failed to parse login form",
			"error", err,
			"remote_addr", r.RemoteAddr)
		h.render(w, http.StatusBadRequest, "login", loginData{
			Title: "Sign in",
			Error: "Invalid form submission",
		})
		return
	}

	username := r.PostFormValue("username")
	password := r.PostFormValue("password")
	if username == "" || password == "" {
		h.render(w, http.StatusBadRequest, "login", loginData{
			Title:    "Sign in",
			Username: username,
			Error:    "Username and password are required",
			Disabled: !h.loginEnabled,
		})
		return
	}

	if _, err := h.service.Login(w, username, password); err != nil {
		_, msg, status := apierrors.MapAuthError(err)
		if !errors.Is(err, auth.ErrInvalidCredentials) && !errors.Is(err, auth.ErrLoginDisabled) {
			h.logger.Error("Login failed", "username", username, "error", err)
		}
		h.render(w, status, "login", loginData{
			Title:    "Sign in",
			Username: username,
			Error:    msg,
			Disabled: errors.Is(err, auth.ErrLoginDisabled),
		})
		return
	}

	httpx.WriteRedirect(w, r, h.homePath)
}

// PostLogout handles POST /logout
func (h *PageHandler) PostLogout(w http.ResponseWriter, r *http.Request) {
	h.service.Logout(w)
	httpx.WriteRedirect(w, r, h.loginPath)
}

// render executes the template fully before writing the status
func (h *PageHandler) render(w http.ResponseWriter, status int, name string, data any) {
	var buf bytes.Buffer
	if err := pageTemplates.ExecuteTemplate(&buf, name, data); err != nil {
		h.logger.Error("Failed to render page", "template", name, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if err := httpx.WriteHTML(w, status, buf.String()); err != nil {
		h.logger.Error("Failed to write page", "template", name, "error", err)
	}
}
