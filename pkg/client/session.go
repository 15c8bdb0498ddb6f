package client

import (
	"sync"
	"time"
)

// User is the authenticated identity with its flattened permission codes.
type User struct {
	ID          string   `json:"id"`
	Username    string   `json:"username"`
	FirstName   string   `json:"first_name"`
	LastName    string   `json:"last_name"`
	RoleName    string   `json:"role_name"`
	Permissions []string `json:"permissions"`
}

// AdminPermission short-circuits every permission check.
const AdminPermission = "admin"

// HasPermission reports whether the user holds the permission code. Holders
// of the admin permission pass every check.
func (u *User) HasPermission(code string) bool {
	for _, p := range u.Permissions {
		if p == code || p == AdminPermission {
			return true
		}
	}
	return false
}

// HasAnyPermission reports whether the user holds at least one of the codes.
func (u *User) HasAnyPermission(codes ...string) bool {
	for _, code := range codes {
		if u.HasPermission(code) {
			return true
		}
	}
	return false
}

// Session is the authenticated state: the token pair plus the resolved user.
type Session struct {
	AccessToken  string
	RefreshToken string
	User         *User
	ExpiresAt    time.Time
}

// Expired reports whether the access token has lapsed. A zero ExpiresAt
// means the token carried no readable expiry and never expires client-side.
func (s *Session) Expired() bool {
	return !s.ExpiresAt.IsZero() && time.Now().After(s.ExpiresAt)
}

// Store holds the current session and notifies subscribers on every change.
// It is the single source of truth: no session, no authenticated calls.
type Store struct {
	mu          sync.RWMutex
	session     *Session
	subscribers map[int]func(*Session)
	nextID      int
	logoutTimer *time.Timer
}

func NewStore() *Store {
	return &Store{
		subscribers: make(map[int]func(*Session)),
	}
}

// Get returns the current session, nil when logged out. An expired session
// is treated as absent: gates stop rendering and calls refuse immediately,
// even if the auto logout timer has not fired yet.
func (s *Store) Get() *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.session == nil || s.session.Expired() {
		return nil
	}
	return s.session
}

// raw returns the stored session even when expired. Refreshing still needs
// the refresh token after the access token lapses.
func (s *Store) raw() *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session
}

// Set replaces the session and notifies subscribers.
func (s *Store) Set(session *Session) {
	s.mu.Lock()
	s.session = session
	subs := s.snapshot()
	s.mu.Unlock()

	for _, fn := range subs {
		fn(session)
	}
}

// Clear drops the session, cancels any pending auto logout and notifies
// subscribers with nil.
func (s *Store) Clear() {
	s.mu.Lock()
	s.session = nil
	if s.logoutTimer != nil {
		s.logoutTimer.Stop()
		s.logoutTimer = nil
	}
	subs := s.snapshot()
	s.mu.Unlock()

	for _, fn := range subs {
		fn(nil)
	}
}

// Subscribe registers a change listener and returns its cancel function.
func (s *Store) Subscribe(fn func(*Session)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subscribers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subscribers, id)
		s.mu.Unlock()
	}
}

// ScheduleAutoLogout clears the session after d. A subsequent call replaces
// the pending timer, so refreshing the token pushes the logout back.
func (s *Store) ScheduleAutoLogout(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.logoutTimer != nil {
		s.logoutTimer.Stop()
	}
	s.logoutTimer = time.AfterFunc(d, s.Clear)
}

func (s *Store) snapshot() []func(*Session) {
	subs := make([]func(*Session), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		subs = append(subs, fn)
	}
	return subs
}
