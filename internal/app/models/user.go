package models

import "time"

// UserAuth carries the fields the auth flow needs, including the password
// hash. It never leaves the auth domain.
type UserAuth struct {
	ID       string
	Username string
	Email    string
	Password string // bcrypt hash
	IsAdmin  bool
}

// User is the public user record joined to the identity: display fields plus
// the admin flag. IsAdmin defaults to false at creation and is mutable only
// by an existing admin (or the one-time setup bootstrap).
type User struct {
	UID           string     `json:"uid"`
	Email         string     `json:"email"`
	DisplayName   string     `json:"displayName"`
	PhotoURL      string     `json:"photoURL,omitempty"`
	IsAdmin       bool       `json:"isAdmin"`
	EmailVerified bool       `json:"emailVerified"`
	CreatedAt     time.Time  `json:"createdAt"`
	LastSignIn    *time.Time `json:"lastSignIn,omitempty"`
}
