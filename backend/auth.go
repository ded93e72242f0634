package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"
)

type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Session is the token pair issued by the auth service.
type Session struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	User         User      `json:"user"`
}

// tokenResponse covers both the session answer and the bare user object
// returned by signup when email confirmation is pending.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	User         *User  `json:"user"`
	ID           string `json:"id"`
	Email        string `json:"email"`
}

func (t tokenResponse) session(now time.Time) Session {
	s := Session{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
	}
	if t.ExpiresIn > 0 {
		s.ExpiresAt = now.Add(time.Duration(t.ExpiresIn) * time.Second)
	}
	if t.User != nil {
		s.User = *t.User
	} else {
		s.User = User{ID: t.ID, Email: t.Email}
	}
	return s
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignUp registers a new account. The returned session has no tokens when the
// backend requires email confirmation first.
func (c *Client) SignUp(ctx context.Context, email, password string) (Session, error) {
	return c.token(ctx, "/auth/v1/signup", credentials{Email: email, Password: password})
}

func (c *Client) SignIn(ctx context.Context, email, password string) (Session, error) {
	return c.token(ctx, "/auth/v1/token?grant_type=password", credentials{Email: email, Password: password})
}

func (c *Client) Refresh(ctx context.Context, refreshToken string) (Session, error) {
	if refreshToken == "" {
		return Session{}, ErrUnauthorized
	}
	return c.token(ctx, "/auth/v1/token?grant_type=refresh_token", map[string]string{"refresh_token": refreshToken})
}

func (c *Client) token(ctx context.Context, path string, body any) (Session, error) {
	raw, err := c.do(ctx, request{method: http.MethodPost, path: path, body: body, resource: "auth"})
	if err != nil {
		return Session{}, err
	}
	var tr tokenResponse
	if err := json.Unmarshal(raw, &tr); err != nil {
		return Session{}, err
	}
	s := tr.session(time.Now())
	if s.User.ID == "" {
		return Session{}, errors.New("backend: auth response without user")
	}
	return s, nil
}

// SignOut revokes the refresh token family of accessToken.
func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	_, err := c.do(ctx, request{method: http.MethodPost, path: "/auth/v1/logout", token: accessToken, resource: "auth"})
	return err
}

// User returns the account behind accessToken.
func (c *Client) User(ctx context.Context, accessToken string) (User, error) {
	raw, err := c.do(ctx, request{method: http.MethodGet, path: "/auth/v1/user", token: accessToken, resource: "auth"})
	if err != nil {
		return User{}, err
	}
	var u User
	if err := json.Unmarshal(raw, &u); err != nil {
		return User{}, err
	}
	return u, nil
}
