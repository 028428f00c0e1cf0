package session

import (
	"sync"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core"
)

var (
	ErrNoSession    = errors.New("not logged in")
	ErrTokenExpired = errors.New("session expired, please log in again")

	nowFunc = time.Now // mockable
)

type (
	// Claims are the authorization claims transmitted via the backend JWT.
	// The client decodes them without verifying the signature (it has no
	// key); the server re-verifies every request.
	Claims struct {
		jwt.StandardClaims
		Username  string   `json:"username,omitempty"`
		Email     string   `json:"email,omitempty"`
		IsAdmin   bool     `json:"is_admin,omitempty"`
		Roles     []string `json:"roles,omitempty"`
		FirstName string   `json:"firstName,omitempty"`
		LastName  string   `json:"lastName,omitempty"`
	}

	// TokenStore persists the bearer credential between runs.
	TokenStore interface {
		Token() (string, error)
		SetToken(token string) error
		ClearToken() error
	}

	// Session is the explicit auth context passed to collaborators needing
	// the bearer credential: hydrated from storage on init, cleared on
	// logout or on any 401 from the backend.
	Session struct {
		store  TokenStore
		logger core.Logger

		mu     sync.RWMutex
		token  string
		claims *Claims
	}
)

func New(store TokenStore, logger core.Logger) *Session {
	return &Session{store: store, logger: logger}
}

// Hydrate loads a previously stored token. A missing, malformed or expired
// token leaves the session logged out; it is not an error.
func (s *Session) Hydrate() {
	token, err := s.store.Token()
	if err != nil || token == "" {
		return
	}
	if err := s.set(token, false); err != nil {
		s.logger.Debug("dropping stored token: " + err.Error())
		_ = s.store.ClearToken()
	}
}

// Set installs and persists a fresh token from a successful login.
func (s *Session) Set(token string) error {
	return s.set(token, true)
}

func (s *Session) set(token string, persist bool) error {
	claims, err := decodeClaims(token)
	if err != nil {
		return err
	}
	if claims.ExpiresAt > 0 && nowFunc().Unix() >= claims.ExpiresAt {
		return ErrTokenExpired
	}

	s.mu.Lock()
	s.token = token
	s.claims = claims
	s.mu.Unlock()

	if persist {
		return errors.Wrap(s.store.SetToken(token), "persisting token")
	}
	return nil
}

// Clear wipes the session; wired as the 401 hook of the API client and used
// on explicit logout.
func (s *Session) Clear() {
	s.mu.Lock()
	s.token = ""
	s.claims = nil
	s.mu.Unlock()

	if err := s.store.ClearToken(); err != nil {
		s.logger.Warn("clearing stored token: " + err.Error())
	}
}

// Token returns the current bearer credential, or "" when logged out.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Session) Claims() (Claims, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.claims == nil {
		return Claims{}, ErrNoSession
	}
	return *s.claims, nil
}

func (s *Session) LoggedIn() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token != ""
}

func decodeClaims(token string) (*Claims, error) {
	claims := new(Claims)
	if _, _, err := new(jwt.Parser).ParseUnverified(token, claims); err != nil {
		return nil, errors.Wrap(err, "decoding token")
	}
	return claims, nil
}
