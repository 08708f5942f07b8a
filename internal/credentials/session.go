package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tbourn/go-warehouse-approvals/internal/domain"
)

// ErrNoSession is returned when no access token is stored.
var ErrNoSession = errors.New("credentials: no active session")

// Session is the persisted login state. User is nil when the cached profile
// is missing or unreadable.
type Session struct {
	Token  string
	UserID string
	Role   string
	User   *domain.User
}

// SaveLogin persists token and user as one unit.
func SaveLogin(ctx context.Context, s Store, token string, u domain.User) error {
	if token == "" {
		return errors.New("credentials: empty token")
	}
	info, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}
	return s.SetMany(ctx, map[string]string{
		KeyAccessToken: token,
		KeyUserInfo:    string(info),
		KeyUserID:      u.IDString(),
		KeyUserRole:    u.Role,
	})
}

// SaveUser replaces the cached profile only.
func SaveUser(ctx context.Context, s Store, u domain.User) error {
	info, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}
	return s.Set(ctx, KeyUserInfo, string(info))
}

// Token returns the stored access token, or "" when logged out.
func Token(ctx context.Context, s Store) (string, error) {
	v, _, err := s.Get(ctx, KeyAccessToken)
	return v, err
}

// LoadUser decodes the cached profile. It returns (nil, nil) when absent.
func LoadUser(ctx context.Context, s Store) (*domain.User, error) {
	raw, ok, err := s.Get(ctx, KeyUserInfo)
	if err != nil || !ok || raw == "" {
		return nil, err
	}
	var u domain.User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		return nil, fmt.Errorf("decode user: %w", err)
	}
	return &u, nil
}

// Load reads the whole session. ErrNoSession means no token is stored; an
// unreadable cached profile leaves User nil.
func Load(ctx context.Context, s Store) (Session, error) {
	tok, err := Token(ctx, s)
	if err != nil {
		return Session{}, err
	}
	if tok == "" {
		return Session{}, ErrNoSession
	}
	sess := Session{Token: tok}
	if sess.UserID, _, err = s.Get(ctx, KeyUserID); err != nil {
		return Session{}, err
	}
	if sess.Role, _, err = s.Get(ctx, KeyUserRole); err != nil {
		return Session{}, err
	}
	sess.User, _ = LoadUser(ctx, s)
	return sess, nil
}

// Clear removes every session key in one operation.
func Clear(ctx context.Context, s Store) error {
	return s.Remove(ctx, SessionKeys...)
}

// ClearIfCurrent removes the session only while token is still the stored
// access token. It reports whether a clear happened. Stores that are not a
// ConditionalRemover get a read-then-remove, which callers must serialize.
func ClearIfCurrent(ctx context.Context, s Store, token string) (bool, error) {
	if cr, ok := s.(ConditionalRemover); ok {
		return cr.RemoveIf(ctx, KeyAccessToken, token, SessionKeys...)
	}
	cur, err := Token(ctx, s)
	if err != nil {
		return false, err
	}
	if cur != token {
		return false, nil
	}
	return true, Clear(ctx, s)
}
