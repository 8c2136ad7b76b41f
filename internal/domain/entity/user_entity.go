package entity

import (
	"time"
)

// User is the public identity record of a forum member.
// It never carries the password hash.
type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     *string   `json:"email"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	RegDate   time.Time `json:"reg_date"`
	LastLogin time.Time `json:"last_login"`
	IsActive  bool      `json:"is_active"`
	IsAdmin   bool      `json:"is_admin"`
}

// Credential holds the bcrypt hash for a user, joined to User by UserID.
type Credential struct {
	UserID       int64
	PasswordHash string
}

// StoredCredential pairs an identity with its credential for authentication.
type StoredCredential struct {
	User       User
	Credential Credential
}
