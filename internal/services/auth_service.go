// Package services – AuthService
//
// AuthService owns the operator session: login persists the bearer token and
// profile, /auth/me refreshes the cached profile, and logout drops the local
// session as one unit. The session is also ended by the gateway when the
// backend rejects the token.
package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/tbourn/go-warehouse-approvals/internal/credentials"
	"github.com/tbourn/go-warehouse-approvals/internal/domain"
	"github.com/tbourn/go-warehouse-approvals/internal/gateway"
)

// AuthService implements login, profile and logout.
type AuthService struct {
	Backend Backend
	Store   credentials.Store
	Log     zerolog.Logger
	Now     func() time.Time
}

// NewAuthService constructs an AuthService.
func NewAuthService(b Backend, store credentials.Store, log zerolog.Logger) *AuthService {
	return &AuthService{Backend: b, Store: store, Log: log, Now: time.Now}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
}

// Login authenticates against /auth/login and stores the session. Rejected
// credentials wrap both ErrInvalidCredentials and the gateway auth error.
func (s *AuthService) Login(ctx context.Context, username, password string) (domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return domain.User{}, ErrMissingCredentials
	}
	raw, err := s.Backend.Request(ctx, http.MethodPost, "auth/login", loginRequest{Username: username, Password: password}, nil)
	if err != nil {
		if errors.Is(err, gateway.ErrAuth) {
			return domain.User{}, fmt.Errorf("%w: %w", ErrInvalidCredentials, err)
		}
		return domain.User{}, err
	}

	var resp loginResponse
	if err := gateway.Decode(raw, &resp); err != nil {
		return domain.User{}, err
	}
	if resp.Token == "" || resp.User == nil {
		return domain.User{}, gateway.UnknownError("login response without token or user", nil)
	}
	if err := credentials.SaveLogin(ctx, s.Store, resp.Token, *resp.User); err != nil {
		return domain.User{}, fmt.Errorf("save session: %w", err)
	}
	s.Log.Info().Str("user_id", resp.User.IDString()).Str("role", resp.User.Role).Msg("logged in")
	return *resp.User, nil
}

type profileResponse struct {
	Success bool         `json:"success"`
	Data    *domain.User `json:"data"`
	User    *domain.User `json:"user"`
}

// RefreshProfile fetches /auth/me and updates the cached profile. The user is
// read from "data", falling back to "user".
func (s *AuthService) RefreshProfile(ctx context.Context) (domain.User, error) {
	ok, err := s.IsLoggedIn(ctx)
	if err != nil {
		return domain.User{}, err
	}
	if !ok {
		return domain.User{}, ErrNotLoggedIn
	}
	raw, err := s.Backend.Request(ctx, http.MethodGet, "auth/me", nil, nil)
	if err != nil {
		return domain.User{}, err
	}
	var resp profileResponse
	if err := gateway.Decode(raw, &resp); err != nil {
		return domain.User{}, err
	}
	u := resp.Data
	if u == nil {
		u = resp.User
	}
	if !resp.Success || u == nil {
		return domain.User{}, ErrProfileUnavailable
	}
	if err := credentials.SaveUser(ctx, s.Store, *u); err != nil {
		return domain.User{}, fmt.Errorf("save profile: %w", err)
	}
	return *u, nil
}

// Logout removes the local session. The backend keeps no session state.
func (s *AuthService) Logout(ctx context.Context) error {
	if err := credentials.Clear(ctx, s.Store); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	s.Log.Info().Msg("logged out")
	return nil
}

// IsLoggedIn reports whether an access token is stored.
func (s *AuthService) IsLoggedIn(ctx context.Context) (bool, error) {
	tok, err := credentials.Token(ctx, s.Store)
	if err != nil {
		return false, err
	}
	return tok != "", nil
}

// CurrentUser returns the cached profile without contacting the backend.
func (s *AuthService) CurrentUser(ctx context.Context) (domain.User, error) {
	sess, err := credentials.Load(ctx, s.Store)
	if errors.Is(err, credentials.ErrNoSession) {
		return domain.User{}, ErrNotLoggedIn
	}
	if err != nil {
		return domain.User{}, err
	}
	if sess.User == nil {
		return domain.User{}, ErrProfileUnavailable
	}
	return *sess.User, nil
}

// SessionStatus summarizes the stored session for display.
type SessionStatus struct {
	LoggedIn  bool         `json:"logged_in"`
	User      *domain.User `json:"user,omitempty"`
	Role      string       `json:"role,omitempty"`
	ExpiresAt *time.Time   `json:"expires_at,omitempty"`
	Expired   bool         `json:"expired"`
}

// Status reads the stored session. Token expiry is taken from unverified JWT
// claims and left empty for opaque tokens.
func (s *AuthService) Status(ctx context.Context) (SessionStatus, error) {
	sess, err := credentials.Load(ctx, s.Store)
	if errors.Is(err, credentials.ErrNoSession) {
		return SessionStatus{}, nil
	}
	if err != nil {
		return SessionStatus{}, err
	}
	st := SessionStatus{LoggedIn: true, User: sess.User, Role: sess.Role}
	if info, err := credentials.InspectToken(sess.Token); err == nil && !info.ExpiresAt.IsZero() {
		exp := info.ExpiresAt.UTC()
		st.ExpiresAt = &exp
		st.Expired = info.Expired(s.now())
	}
	return st, nil
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

// ChangePassword changes the operator password. The session is kept.
func (s *AuthService) ChangePassword(ctx context.Context, oldPassword, newPassword string) error {
	if oldPassword == "" {
		return ErrMissingCredentials
	}
	if strings.TrimSpace(newPassword) == "" || newPassword == oldPassword {
		return ErrInvalidPassword
	}
	_, err := s.Backend.Request(ctx, http.MethodPost, "auth/change-password",
		changePasswordRequest{OldPassword: oldPassword, NewPassword: newPassword}, nil)
	return err
}

func (s *AuthService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
