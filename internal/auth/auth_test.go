package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/golang-jwt/jwt/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/pg-finder/backend"
	"github.com/yourorg/pg-finder/internal/logger"
	"github.com/yourorg/pg-finder/internal/redisx"
)

type fakeBackend struct {
	signIn     backend.Session
	signUp     backend.Session
	refreshed  backend.Session
	refreshErr error
	refreshes  int
	signedOut  []string
	user       backend.User
	userErr    error
}

func (f *fakeBackend) SignUp(_ context.Context, _, _ string) (backend.Session, error) {
	return f.signUp, nil
}

func (f *fakeBackend) SignIn(_ context.Context, email, password string) (backend.Session, error) {
	if password != "correct" {
		return backend.Session{}, &backend.Error{Status: http.StatusBadRequest, Body: "invalid_grant"}
	}
	return f.signIn, nil
}

func (f *fakeBackend) Refresh(_ context.Context, _ string) (backend.Session, error) {
	f.refreshes++
	return f.refreshed, f.refreshErr
}

func (f *fakeBackend) SignOut(_ context.Context, token string) error {
	f.signedOut = append(f.signedOut, token)
	return nil
}

func (f *fakeBackend) User(context.Context, string) (backend.User, error) {
	return f.user, f.userErr
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "u1",
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return tok
}

func setup(t *testing.T, fb *fakeBackend) (*Service, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewService(fb, redisx.Wrap(rdb), time.Hour, logger.NewTestLogger(t)), mr
}

// ==========================
// Sessions
// ==========================

func TestSignIn_PersistsSessionWithTTL(t *testing.T) {
	fb := &fakeBackend{signIn: backend.Session{
		AccessToken:  signedToken(t, time.Now().Add(time.Hour)),
		RefreshToken: "rt",
		User:         backend.User{ID: "u1", Email: "a@b.c"},
	}}
	svc, mr := setup(t, fb)

	p, err := svc.SignIn(context.Background(), "a@b.c", "correct")
	require.NoError(t, err)
	assert.NotEmpty(t, p.SessionID)
	assert.Equal(t, "u1", p.UserID)

	assert.True(t, mr.Exists("session:"+p.SessionID))
	assert.Equal(t, time.Hour, mr.TTL("session:"+p.SessionID))

	got, err := svc.Resolve(context.Background(), p.SessionID)
	require.NoError(t, err)
	assert.Equal(t, p, got)
	assert.Zero(t, fb.refreshes)
}

func TestSignIn_BadPasswordPropagates(t *testing.T) {
	svc, _ := setup(t, &fakeBackend{})
	_, err := svc.SignIn(context.Background(), "a@b.c", "wrong")
	var be *backend.Error
	assert.True(t, errors.As(err, &be))
}

func TestSignUp_ConfirmationPending(t *testing.T) {
	fb := &fakeBackend{signUp: backend.Session{User: backend.User{ID: "u2", Email: "n@b.c"}}}
	svc, mr := setup(t, fb)

	p, err := svc.SignUp(context.Background(), "n@b.c", "pw")
	assert.ErrorIs(t, err, ErrConfirmationPending)
	assert.Equal(t, "u2", p.UserID)
	assert.Empty(t, p.SessionID)
	assert.Empty(t, mr.Keys())
}

func TestResolve_RefreshesExpiredToken(t *testing.T) {
	fresh := signedToken(t, time.Now().Add(time.Hour))
	fb := &fakeBackend{
		signIn: backend.Session{
			AccessToken:  signedToken(t, time.Now().Add(-time.Minute)),
			RefreshToken: "rt-1",
			User:         backend.User{ID: "u1"},
		},
		refreshed: backend.Session{AccessToken: fresh, RefreshToken: "rt-2"},
	}
	svc, _ := setup(t, fb)
	p, err := svc.SignIn(context.Background(), "a@b.c", "correct")
	require.NoError(t, err)

	got, err := svc.Resolve(context.Background(), p.SessionID)
	require.NoError(t, err)
	assert.Equal(t, fresh, got.AccessToken)
	assert.Equal(t, 1, fb.refreshes)

	// refreshed token is persisted, so the next resolve does not refresh again
	_, err = svc.Resolve(context.Background(), p.SessionID)
	require.NoError(t, err)
	assert.Equal(t, 1, fb.refreshes)
}

func TestResolve_RejectedRefreshEndsSession(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"unauthorized", backend.ErrUnauthorized},
		{"invalid grant", &backend.Error{Status: http.StatusBadRequest, Body: `{"error":"invalid_grant"}`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fb := &fakeBackend{
				signIn: backend.Session{
					AccessToken:  signedToken(t, time.Now().Add(-time.Minute)),
					RefreshToken: "rt-revoked",
					User:         backend.User{ID: "u1"},
				},
				refreshErr: tt.err,
			}
			svc, mr := setup(t, fb)
			p, err := svc.SignIn(context.Background(), "a@b.c", "correct")
			require.NoError(t, err)

			_, err = svc.Resolve(context.Background(), p.SessionID)
			assert.ErrorIs(t, err, ErrNoSession)
			assert.False(t, mr.Exists("session:"+p.SessionID))

			// the session is gone, so later requests do not retry the refresh
			_, err = svc.Resolve(context.Background(), p.SessionID)
			assert.ErrorIs(t, err, ErrNoSession)
			assert.Equal(t, 1, fb.refreshes)
		})
	}
}

func TestResolve_BackendOutageKeepsSession(t *testing.T) {
	fb := &fakeBackend{
		signIn: backend.Session{
			AccessToken: signedToken(t, time.Now().Add(-time.Minute)),
			User:        backend.User{ID: "u1"},
		},
		refreshErr: &backend.Error{Status: http.StatusBadGateway},
	}
	svc, mr := setup(t, fb)
	p, err := svc.SignIn(context.Background(), "a@b.c", "correct")
	require.NoError(t, err)

	_, err = svc.Resolve(context.Background(), p.SessionID)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoSession)
	assert.True(t, mr.Exists("session:"+p.SessionID))
}

func TestResolve_UnknownAndMalformed(t *testing.T) {
	svc, mr := setup(t, &fakeBackend{})

	_, err := svc.Resolve(context.Background(), "")
	assert.ErrorIs(t, err, ErrNoSession)

	_, err = svc.Resolve(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNoSession)

	require.NoError(t, mr.Set("session:bad", "garbage"))
	_, err = svc.Resolve(context.Background(), "bad")
	assert.ErrorIs(t, err, ErrNoSession)
	assert.False(t, mr.Exists("session:bad"))
}

func TestResolve_RedisFailure(t *testing.T) {
	db, mock := redismock.NewClientMock()
	svc := NewService(&fakeBackend{}, redisx.Wrap(db), time.Hour, logger.NewNoOpLogger())
	mock.ExpectGet("session:s1").SetErr(errors.New("i/o timeout"))

	_, err := svc.Resolve(context.Background(), "s1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoSession)
}

func TestVerify(t *testing.T) {
	tests := []struct {
		name      string
		user      backend.User
		userErr   error
		wantErr   error
		wantEmail string
		kept      bool
	}{
		{name: "confirmed", user: backend.User{ID: "u1", Email: "new@b.c"}, wantEmail: "new@b.c", kept: true},
		{name: "revoked token", userErr: backend.ErrUnauthorized, wantErr: ErrNoSession},
		{name: "other owner", user: backend.User{ID: "u2"}, wantErr: ErrNoSession},
		{name: "backend down", userErr: &backend.Error{Status: http.StatusServiceUnavailable}, kept: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fb := &fakeBackend{
				signIn:  backend.Session{AccessToken: "opaque", User: backend.User{ID: "u1", Email: "a@b.c"}},
				user:    tt.user,
				userErr: tt.userErr,
			}
			svc, mr := setup(t, fb)
			p, err := svc.SignIn(context.Background(), "a@b.c", "correct")
			require.NoError(t, err)

			got, err := svc.Verify(context.Background(), p)
			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.userErr != nil:
				require.Error(t, err)
				assert.NotErrorIs(t, err, ErrNoSession)
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.wantEmail, got.Email)
				assert.Equal(t, p.SessionID, got.SessionID)
			}
			assert.Equal(t, tt.kept, mr.Exists("session:"+p.SessionID))
		})
	}
}

func TestSignOut_RevokesAndDeletes(t *testing.T) {
	fb := &fakeBackend{signIn: backend.Session{AccessToken: "opaque", User: backend.User{ID: "u1"}}}
	svc, mr := setup(t, fb)
	p, err := svc.SignIn(context.Background(), "a@b.c", "correct")
	require.NoError(t, err)

	require.NoError(t, svc.SignOut(context.Background(), p.SessionID))
	assert.Equal(t, []string{"opaque"}, fb.signedOut)
	assert.False(t, mr.Exists("session:"+p.SessionID))

	// signing out twice is harmless
	assert.NoError(t, svc.SignOut(context.Background(), p.SessionID))
}

func TestTokenExpiry(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	assert.True(t, exp.Equal(TokenExpiry(signedToken(t, exp))))
	assert.True(t, TokenExpiry("not-a-jwt").IsZero())
}

// ==========================
// Middleware
// ==========================

func TestMiddleware(t *testing.T) {
	fb := &fakeBackend{signIn: backend.Session{AccessToken: "opaque", User: backend.User{ID: "u1"}}}
	svc, _ := setup(t, fb)
	p, err := svc.SignIn(context.Background(), "a@b.c", "correct")
	require.NoError(t, err)

	m := Middleware{Service: svc, CookieName: "pgf_session"}
	var seen Principal
	var seenOK bool
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, seenOK = FromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})

	t.Run("require without session", func(t *testing.T) {
		rec := httptest.NewRecorder()
		m.RequireUser(inner).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), `"unauthorized"`)
	})

	t.Run("require with cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: "pgf_session", Value: p.SessionID})
		rec := httptest.NewRecorder()
		m.RequireUser(inner).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.True(t, seenOK)
		assert.Equal(t, "u1", seen.UserID)
	})

	t.Run("optional with header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(SessionHeader, p.SessionID)
		rec := httptest.NewRecorder()
		m.OptionalUser(inner).ServeHTTP(rec, req)
		assert.True(t, seenOK)
	})

	t.Run("optional anonymous", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(SessionHeader, "stale")
		rec := httptest.NewRecorder()
		m.OptionalUser(inner).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.False(t, seenOK)
	})
}
