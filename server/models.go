// Package server hosts the Go4It auth backend: the fiber app behind the
// /api/auth endpoints, its bun/sqlite user store, and the access token
// service. The session package's HTTPAuthService is its client.
package server

import (
	"database/sql"
	"strings"
	"time"

	session "github.com/go4itsports/go-session"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the persisted account row.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID           int64     `bun:"id,pk,autoincrement" json:"id"`
	PublicID     uuid.UUID `bun:"public_id,notnull,type:uuid" json:"publicId"`
	Username     string    `bun:"username,notnull,unique" json:"username"`
	FirstName    string    `bun:"first_name" json:"firstName"`
	LastName     string    `bun:"last_name" json:"lastName"`
	Email        string    `bun:"email,notnull,unique" json:"email"`
	Phone        string    `bun:"phone" json:"phone,omitempty"`
	Role         string    `bun:"role,notnull" json:"role"`
	PasswordHash string    `bun:"password_hash,notnull" json:"-"`
	AvatarURL    string    `bun:"avatar_url" json:"avatarUrl,omitempty"`

	LoginAttempts  int          `bun:"login_attempts,default:0" json:"-"`
	LoginAttemptAt sql.NullTime `bun:"login_attempt_at" json:"-"`
	LoggedInAt     sql.NullTime `bun:"logged_in_at" json:"-"`

	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp" json:"-"`
	UpdatedAt time.Time `bun:"updated_at,notnull,default:current_timestamp" json:"-"`
}

// Name joins the name parts the way the platform displays them.
func (u *User) Name() string {
	return strings.TrimSpace(strings.TrimSpace(u.FirstName) + " " + strings.TrimSpace(u.LastName))
}

// SessionUser converts the row to the wire shape the auth endpoints return.
func (u *User) SessionUser() *session.User {
	if u == nil {
		return nil
	}
	return &session.User{
		ID:        u.ID,
		Username:  u.Username,
		Name:      u.Name(),
		Email:     u.Email,
		Role:      u.Role,
		AvatarURL: u.AvatarURL,
	}
}
