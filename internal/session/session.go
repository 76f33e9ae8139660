// Package session issues and reads signed session cookies.
package session

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Common errors for session operations
var (
	ErrNoSession           = errors.New("no session cookie")
	ErrInvalidToken        = errors.New("invalid session token")
	ErrExpiredToken        = errors.New("session has expired")
	ErrInvalidSecretLength = errors.New("session secret must be at least 32 characters")
)

// Config holds configuration for session cookies
type Config struct {
	// Secret is the HMAC signing key. Must be at least 32 characters.
	Secret string

	// TTL is the session lifetime. Default: 12 hours.
	TTL time.Duration

	// CookieName defaults to "guestgate_session".
	CookieName string

	// Secure sets the Secure cookie attribute (HTTPS only).
	Secure bool

	// Issuer is the token issuer claim. Default: "guestgate"
	Issuer string
}

// Claims are the JWT claims carried by a session cookie
type Claims struct {
	jwt.RegisteredClaims

	Username string `json:"username"`
}

// Codec signs and verifies session cookies
type Codec struct {
	config Config
	now    func() time.Time
}

// NewCodec creates a session codec with the given configuration
func NewCodec(config Config) (*Codec, error) {
	if len(config.Secret) < 32 {
		return nil, ErrInvalidSecretLength
	}

	if config.TTL == 0 {
		config.TTL = 12 * time.Hour
	}
	if config.CookieName == "" {
		config.CookieName = "guestgate_session"
	}
	if config.Issuer == "" {
		config.Issuer = "guestgate"
	}

	return &Codec{config: config, now: time.Now}, nil
}

// CookieName returns the name of the session cookie
func (c *Codec) CookieName() string {
	return c.config.CookieName
}

// Sign returns a signed token for the username
func (c *Codec) Sign(username string) (string, time.Time, error) {
	now := c.now()
	expiresAt := now.Add(c.config.TTL)

	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.config.Issuer,
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Username: username,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(c.config.Secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, expiresAt, nil
}

// Verify validates a token and returns its claims
func (c *Codec) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(c.config.Secret), nil
	}, jwt.WithIssuer(c.config.Issuer), jwt.WithTimeFunc(c.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Username == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Issue writes a session cookie for the username
func (c *Codec) Issue(w http.ResponseWriter, username string) error {
	token, expiresAt, err := c.Sign(username)
	if err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     c.config.CookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		MaxAge:   int(c.config.TTL.Seconds()),
		HttpOnly: true,
		Secure:   c.config.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Clear expires the session cookie
func (c *Codec) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.config.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   c.config.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Username returns the username of the session carried by the request
func (c *Codec) Username(r *http.Request) (string, error) {
	cookie, err := r.Cookie(c.config.CookieName)
	if err != nil || cookie.Value == "" {
		return "", ErrNoSession
	}

	claims, err := c.Verify(cookie.Value)
	if err != nil {
		return "", err
	}
	return claims.Username, nil
}
