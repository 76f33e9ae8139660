package handlers

import (
	"context"
	"net/http"

	"github.com/criteo/guestgate/internal/auth"
)

// fakeService is a scriptable auth.Service
type fakeService struct {
	mockAuthenticator

	state     auth.State
	loginErr  error
	reloadErr error

	logins  int
	logouts int
	reloads int
}

func (f *fakeService) AuthState(r *http.Request) auth.State {
	return f.state
}

func (f *fakeService) Login(w http.ResponseWriter, username, password string) (*auth.User, error) {
	f.logins++
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	http.SetCookie(w, &http.Cookie{Name: "guestgate_session", Value: "token-for-" + username})
	return &auth.User{Username: username}, nil
}

func (f *fakeService) Logout(w http.ResponseWriter) {
	f.logouts++
	http.SetCookie(w, &http.Cookie{Name: "guestgate_session", MaxAge: -1})
}

func (f *fakeService) Reload(ctx context.Context) error {
	f.reloads++
	return f.reloadErr
}

var _ auth.Service = (*fakeService)(nil)
