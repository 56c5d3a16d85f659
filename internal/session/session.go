package session

import (
	"context"
	"errors"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"harvestly/internal/apiclient"
	"harvestly/internal/models"
	"harvestly/internal/validation"
)

var ErrInvalidCredentials = errors.New("invalid email or password")

// API is the slice of the request helper the session needs.
type API interface {
	Get(ctx context.Context, path string, query url.Values, out any) error
	Post(ctx context.Context, path string, body, out any) error
	Put(ctx context.Context, path string, body, out any) error
	SetToken(token string)
	Token() string
}

// View is the read-only surface other stores use for ownership and role
// checks.
type View interface {
	User() (models.User, bool)
	Role() models.Role
	IsAuthenticated() bool
}

type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type authResult struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

type userResult struct {
	User models.User `json:"user"`
}

// Store holds the acting user. Role flags are derived from the stored user
// and cannot be set on their own.
type Store struct {
	api API

	mu              sync.RWMutex
	user            *models.User
	promptDismissed bool
	onLogout        []func()
}

func New(api API) *Store {
	return &Store{api: api}
}

// OnLogout registers fn to run after the session is torn down, either by
// Logout or by a 401 from the API.
func (s *Store) OnLogout(fn func()) {
	s.mu.Lock()
	s.onLogout = append(s.onLogout, fn)
	s.mu.Unlock()
}

func (s *Store) Login(ctx context.Context, creds Credentials) (models.User, error) {
	creds.Email = strings.TrimSpace(creds.Email)
	if err := validation.Struct(creds); err != nil {
		return models.User{}, err
	}

	var res authResult
	if err := s.api.Post(ctx, "/auth/login", creds, &res); err != nil {
		if isCredentialFailure(err) {
			log.Println("[AUTH] [WARN] login rejected for", creds.Email)
			return models.User{}, ErrInvalidCredentials
		}
		return models.User{}, err
	}
	if res.Token == "" || res.User.ID == "" {
		return models.User{}, ErrInvalidCredentials
	}

	s.start(res)
	log.Println("[AUTH] [INFO] user logged in:", res.User.ID)
	return res.User, nil
}

func isCredentialFailure(err error) bool {
	if errors.Is(err, apiclient.ErrUnauthorized) {
		return true
	}
	var apiErr *apiclient.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Status {
		case http.StatusBadRequest, http.StatusUnauthorized, http.StatusNotFound:
			return true
		}
	}
	return false
}

func (s *Store) start(res authResult) {
	s.api.SetToken(res.Token)
	user := res.User
	s.mu.Lock()
	s.user = &user
	s.promptDismissed = false
	s.mu.Unlock()
}

// Logout tells the API (best effort) and clears local state. Calling it
// without a session is a no-op.
func (s *Store) Logout(ctx context.Context) {
	if s.api.Token() != "" {
		if err := s.api.Post(ctx, "/auth/logout", nil, nil); err != nil {
			log.Println("[AUTH] [WARN] upstream logout failed:", err)
		}
	}
	s.clear()
}

// HandleUnauthorized tears the session down after the API rejected the token.
func (s *Store) HandleUnauthorized() {
	log.Println("[AUTH] [WARN] session expired")
	s.clear()
}

func (s *Store) clear() {
	s.api.SetToken("")

	s.mu.Lock()
	hadUser := s.user != nil
	s.user = nil
	s.promptDismissed = false
	hooks := append([]func(){}, s.onLogout...)
	s.mu.Unlock()

	if !hadUser {
		return
	}
	for _, fn := range hooks {
		fn()
	}
}

// Restore rebuilds a session from an existing bearer token.
func (s *Store) Restore(ctx context.Context, token string) (models.User, error) {
	s.api.SetToken(token)
	var res userResult
	if err := s.api.Get(ctx, "/auth/profile", nil, &res); err != nil {
		if !errors.Is(err, apiclient.ErrUnauthorized) {
			s.api.SetToken("")
		}
		return models.User{}, err
	}
	user := res.User
	if user.ID == "" || !user.Role.Valid() {
		s.api.SetToken("")
		return models.User{}, apiclient.ErrUnauthorized
	}
	s.start(authResult{Token: token, User: user})
	return user, nil
}

func (s *Store) User() (models.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return models.User{}, false
	}
	return *s.user, true
}

func (s *Store) Role() models.Role {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return ""
	}
	return s.user.Role
}

func (s *Store) Token() string {
	return s.api.Token()
}

func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user != nil
}

func (s *Store) IsBuyer() bool  { return s.Role() == models.RoleBuyer }
func (s *Store) IsFarmer() bool { return s.Role() == models.RoleFarmer }
func (s *Store) IsAdmin() bool  { return s.Role() == models.RoleAdmin }

// ProfileIncomplete is true while delivery details are missing and the
// completion prompt has not been dismissed.
func (s *Store) ProfileIncomplete() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil || s.promptDismissed {
		return false
	}
	return len(s.user.MissingDeliveryFields()) > 0
}

// DismissProfilePrompt hides the completion prompt until the next login.
func (s *Store) DismissProfilePrompt() {
	s.mu.Lock()
	s.promptDismissed = true
	s.mu.Unlock()
}

// TokenExpiry reads the exp claim without verifying the signature; the API
// remains the authority on validity.
func (s *Store) TokenExpiry() (time.Time, bool) {
	token := s.api.Token()
	if token == "" {
		return time.Time{}, false
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
