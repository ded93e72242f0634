// Package auth issues server-side sessions on top of the backend's token auth
// service and resolves them back into a Principal on every request.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	"github.com/yourorg/pg-finder/backend"
	"github.com/yourorg/pg-finder/internal/logger"
	"github.com/yourorg/pg-finder/internal/redisx"
)

var (
	ErrNoSession           = errors.New("auth: no active session")
	ErrConfirmationPending = errors.New("auth: email confirmation pending")
)

// expirySkew refreshes tokens slightly before the backend would reject them.
const expirySkew = 30 * time.Second

// Backend is the subset of the backend client the session service needs.
type Backend interface {
	SignUp(ctx context.Context, email, password string) (backend.Session, error)
	SignIn(ctx context.Context, email, password string) (backend.Session, error)
	Refresh(ctx context.Context, refreshToken string) (backend.Session, error)
	SignOut(ctx context.Context, accessToken string) error
	User(ctx context.Context, accessToken string) (backend.User, error)
}

// Principal is the signed-in user attached to a request.
type Principal struct {
	SessionID   string `json:"session_id"`
	UserID      string `json:"user_id"`
	Email       string `json:"email"`
	AccessToken string `json:"-"`
}

type record struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	UserID       string    `json:"user_id"`
	Email        string    `json:"email"`
}

type Service struct {
	backend Backend
	redis   *redisx.Client
	ttl     time.Duration
	log     logger.Logger
	now     func() time.Time
}

func NewService(b Backend, rc *redisx.Client, ttl time.Duration, log logger.Logger) *Service {
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	return &Service{backend: b, redis: rc, ttl: ttl, log: log, now: time.Now}
}

func sessionKey(id string) string { return "session:" + id }

// SignUp registers the account and opens a session. When the backend holds the
// account for email confirmation the returned error is ErrConfirmationPending
// and the Principal carries only the user id and email.
func (s *Service) SignUp(ctx context.Context, email, password string) (Principal, error) {
	bs, err := s.backend.SignUp(ctx, email, password)
	if err != nil {
		return Principal{}, err
	}
	if bs.AccessToken == "" {
		return Principal{UserID: bs.User.ID, Email: bs.User.Email}, ErrConfirmationPending
	}
	return s.open(ctx, bs)
}

func (s *Service) SignIn(ctx context.Context, email, password string) (Principal, error) {
	bs, err := s.backend.SignIn(ctx, email, password)
	if err != nil {
		return Principal{}, err
	}
	return s.open(ctx, bs)
}

func (s *Service) open(ctx context.Context, bs backend.Session) (Principal, error) {
	id := uuid.NewString()
	rec := record{
		AccessToken:  bs.AccessToken,
		RefreshToken: bs.RefreshToken,
		ExpiresAt:    bs.ExpiresAt,
		UserID:       bs.User.ID,
		Email:        bs.User.Email,
	}
	if err := s.save(ctx, id, rec); err != nil {
		return Principal{}, err
	}
	s.log.Info("session opened", map[string]interface{}{"userId": rec.UserID})
	return rec.principal(id), nil
}

// SignOut drops the session. Revoking the backend token is best effort.
func (s *Service) SignOut(ctx context.Context, sessionID string) error {
	rec, err := s.load(ctx, sessionID)
	if errors.Is(err, ErrNoSession) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := s.backend.SignOut(ctx, rec.AccessToken); err != nil {
		s.log.Warn("backend sign-out failed", map[string]interface{}{"userId": rec.UserID, "error": err.Error()})
	}
	return s.redis.Del(ctx, sessionKey(sessionID))
}

// Resolve loads the session and refreshes its access token when it has
// expired. A refresh rejected by the backend (any 4xx, e.g. invalid_grant)
// ends the session.
func (s *Service) Resolve(ctx context.Context, sessionID string) (Principal, error) {
	if sessionID == "" {
		return Principal{}, ErrNoSession
	}
	rec, err := s.load(ctx, sessionID)
	if err != nil {
		return Principal{}, err
	}
	if !s.expired(rec) {
		return rec.principal(sessionID), nil
	}

	bs, err := s.backend.Refresh(ctx, rec.RefreshToken)
	if backend.Rejected(err) {
		s.log.Info("refresh rejected, session ended", map[string]interface{}{"userId": rec.UserID, "error": err.Error()})
		_ = s.redis.Del(ctx, sessionKey(sessionID))
		return Principal{}, ErrNoSession
	}
	if err != nil {
		return Principal{}, fmt.Errorf("refresh session: %w", err)
	}
	rec.AccessToken = bs.AccessToken
	rec.ExpiresAt = bs.ExpiresAt
	if bs.RefreshToken != "" {
		rec.RefreshToken = bs.RefreshToken
	}
	if err := s.save(ctx, sessionID, rec); err != nil {
		return Principal{}, err
	}
	s.log.Debug("session refreshed", map[string]interface{}{"userId": rec.UserID})
	return rec.principal(sessionID), nil
}

// Verify asks the backend who owns the principal's access token. A token the
// backend no longer accepts ends the session. The returned principal carries
// the backend's current email.
func (s *Service) Verify(ctx context.Context, p Principal) (Principal, error) {
	u, err := s.backend.User(ctx, p.AccessToken)
	if backend.Rejected(err) {
		s.log.Info("access token rejected, session ended", map[string]interface{}{"userId": p.UserID, "error": err.Error()})
		_ = s.redis.Del(ctx, sessionKey(p.SessionID))
		return Principal{}, ErrNoSession
	}
	if err != nil {
		return Principal{}, fmt.Errorf("verify session: %w", err)
	}
	if u.ID != "" && u.ID != p.UserID {
		s.log.Warn("token owner differs from session", map[string]interface{}{"userId": p.UserID, "tokenUser": u.ID})
		_ = s.redis.Del(ctx, sessionKey(p.SessionID))
		return Principal{}, ErrNoSession
	}
	if u.Email != "" {
		p.Email = u.Email
	}
	return p, nil
}

func (s *Service) expired(rec record) bool {
	exp := TokenExpiry(rec.AccessToken)
	if exp.IsZero() {
		exp = rec.ExpiresAt
	}
	if exp.IsZero() {
		return false
	}
	return !s.now().Add(expirySkew).Before(exp)
}

// TokenExpiry reads the exp claim of an access token without verifying the
// signature; the backend verifies tokens on every call. Zero means unknown.
func TokenExpiry(token string) time.Time {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}
	}
	if claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.Time
}

func (s *Service) load(ctx context.Context, id string) (record, error) {
	raw, err := s.redis.Get(ctx, sessionKey(id))
	if errors.Is(err, redisx.ErrMiss) {
		return record{}, ErrNoSession
	}
	if err != nil {
		return record{}, err
	}
	var rec record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		s.log.Warn("discarding malformed session", map[string]interface{}{"error": err.Error()})
		_ = s.redis.Del(ctx, sessionKey(id))
		return record{}, ErrNoSession
	}
	return rec, nil
}

func (s *Service) save(ctx context.Context, id string, rec record) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.redis.Set(ctx, sessionKey(id), string(b), s.ttl)
}

func (r record) principal(id string) Principal {
	return Principal{SessionID: id, UserID: r.UserID, Email: r.Email, AccessToken: r.AccessToken}
}
