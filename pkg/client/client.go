package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const defaultTimeout = 30 * time.Second

// Client talks to the workshop management API and keeps the session store
// in sync with the authentication state.
type Client struct {
	baseURL string
	http    *http.Client
	store   *Store
}

type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

func New(baseURL string, store *Store, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
		store:   store,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Store exposes the session store for gates and subscriptions.
func (c *Client) Store() *Store {
	return c.store
}

type tokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Login authenticates and resolves the user's permission set. The session is
// only stored once both steps succeed; a failure on the second step discards
// the tokens, so there is never a half-open session.
func (c *Client) Login(ctx context.Context, username, password string) (*Session, error) {
	var tokens tokenPair
	err := c.call(ctx, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"username": username,
		"password": password,
	}, &tokens)
	if err != nil {
		return nil, err
	}

	var user User
	if err := c.call(ctx, http.MethodGet, "/api/v1/auth/me", tokens.AccessToken, nil, &user); err != nil {
		return nil, err
	}

	session := &Session{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		User:         &user,
		ExpiresAt:    tokenExpiry(tokens.AccessToken),
	}
	c.store.Set(session)
	if d := time.Until(session.ExpiresAt); !session.ExpiresAt.IsZero() && d > 0 {
		c.store.ScheduleAutoLogout(d)
	}
	return session, nil
}

// Refresh rotates the token pair and pushes the auto logout back. It works
// on an already expired session: the refresh token outlives the access token.
func (c *Client) Refresh(ctx context.Context) error {
	session := c.store.raw()
	if session == nil {
		return &Error{Kind: KindUnauthorized, Message: "not logged in"}
	}

	var tokens tokenPair
	err := c.call(ctx, http.MethodPost, "/api/v1/auth/refresh", "", map[string]string{
		"refresh_token": session.RefreshToken,
	}, &tokens)
	if err != nil {
		if IsUnauthorized(err) {
			c.store.Clear()
		}
		return err
	}

	next := &Session{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		User:         session.User,
		ExpiresAt:    tokenExpiry(tokens.AccessToken),
	}
	c.store.Set(next)
	if d := time.Until(next.ExpiresAt); !next.ExpiresAt.IsZero() && d > 0 {
		c.store.ScheduleAutoLogout(d)
	}
	return nil
}

// Logout tells the server and clears the session either way.
func (c *Client) Logout(ctx context.Context) {
	session := c.store.raw()
	if session != nil {
		_ = c.call(ctx, http.MethodPost, "/api/v1/auth/logout", session.AccessToken, nil, nil)
	}
	c.store.Clear()
}

// Get performs an authenticated GET and decodes the response into out.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out interface{}) error {
	if len(query) > 0 {
		path = path + "?" + query.Encode()
	}
	return c.authed(ctx, http.MethodGet, path, nil, out)
}

// Post performs an authenticated POST.
func (c *Client) Post(ctx context.Context, path string, body, out interface{}) error {
	return c.authed(ctx, http.MethodPost, path, body, out)
}

// Put performs an authenticated PUT.
func (c *Client) Put(ctx context.Context, path string, body, out interface{}) error {
	return c.authed(ctx, http.MethodPut, path, body, out)
}

// Delete performs an authenticated DELETE.
func (c *Client) Delete(ctx context.Context, path string) error {
	return c.authed(ctx, http.MethodDelete, path, nil, nil)
}

func (c *Client) authed(ctx context.Context, method, path string, body, out interface{}) error {
	session := c.store.Get()
	if session == nil {
		return &Error{Kind: KindUnauthorized, Message: "not logged in"}
	}
	err := c.call(ctx, method, path, session.AccessToken, body, out)
	if IsUnauthorized(err) {
		c.store.Clear()
	}
	return err
}

func (c *Client) call(ctx context.Context, method, path, token string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return networkError(err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return networkError(err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return networkError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return networkError(fmt.Errorf("decoding response: %w", err))
	}
	return nil
}

func decodeError(resp *http.Response) *Error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var envelope struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil && len(envelope.Error) > 0 {
		var detail struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		}
		if err := json.Unmarshal(envelope.Error, &detail); err == nil && detail.Message != "" {
			return classify(resp.StatusCode, detail.Code, detail.Message)
		}
		var plain string
		if err := json.Unmarshal(envelope.Error, &plain); err == nil {
			return classify(resp.StatusCode, "", plain)
		}
	}
	return classify(resp.StatusCode, "", strings.TrimSpace(string(raw)))
}

// tokenExpiry reads the exp claim without verifying the signature. The
// server is the authority, the client only schedules its own logout.
func tokenExpiry(token string) time.Time {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}
	}
	if claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.Time
}
