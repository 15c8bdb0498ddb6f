package internal

import (
	"context"
	"time"
)

type ctxKey string

const ContextUserKey ctxKey = "user"

// SessionUser is the authenticated identity threaded through request contexts.
// Kept in internal so both middleware and feature packages can read it without
// importing the auth package.
type SessionUser struct {
	ID          string   `json:"id"`
	Username    string   `json:"username"`
	FirstName   string   `json:"first_name"`
	LastName    string   `json:"last_name"`
	RoleName    string   `json:"role_name"`
	Permissions []string `json:"permissions"`
}

func (u *SessionUser) HasPermission(permission string) bool {
	for _, p := range u.Permissions {
		if p == permission {
			return true
		}
	}
	return false
}

func (u *SessionUser) HasAnyPermission(permissions []string) bool {
	for _, userPerm := range u.Permissions {
		for _, requiredPerm := range permissions {
			if userPerm == requiredPerm {
				return true
			}
		}
	}
	return false
}

func UserFromContext(ctx context.Context) (*SessionUser, bool) {
	u, ok := ctx.Value(ContextUserKey).(*SessionUser)
	return u, ok
}

func ContextWithUser(ctx context.Context, user *SessionUser) context.Context {
	return context.WithValue(ctx, ContextUserKey, user)
}

// WithTimeout returns a context with timeout, defaulting to 5 seconds if duration is zero or negative.
func WithTimeout(ctx context.Context, duration time.Duration) (context.Context, context.CancelFunc) {
	if duration <= 0 {
		duration = 5 * time.Second
	}
	return context.WithTimeout(ctx, duration)
}
