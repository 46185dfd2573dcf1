package model

import (
	"errors"
	"time"
)

// User represents a user account.
type User struct {
	ID             int64     `db:"id" json:"id"`
	Username       string    `db:"username" json:"username"`
	Email          string    `db:"email" json:"email"`
	PasswordHashed string    `db:"password_hashed" json:"-"` // never serialized
	FollowerCount  int       `db:"follower_count" json:"follower_count"`
	FollowingCount int       `db:"following_count" json:"following_count"`
	PostCount      int       `db:"post_count" json:"post_count"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// SignupRequest is the request body for POST /auth/signup.
type SignupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest is the request body for POST /auth/login.
// Username accepts either a username or an email address.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthResponse is returned from signup and login.
type AuthResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

// ProfileResponse is returned from GET /users/{id}.
type ProfileResponse struct {
	User  *User  `json:"user"`
	Posts []Post `json:"posts"`
}

var (
	// ErrUserNotFound is returned when a user cannot be found.
	ErrUserNotFound = errors.New("user not found")

	// ErrUserExists is returned when the username or email is already taken.
	ErrUserExists = errors.New("user already exists")

	// ErrMissingField is returned when a signup field is empty.
	ErrMissingField = errors.New("missing required field")

	// ErrInvalidCredentials is returned when login credentials are incorrect.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidToken is returned for any token verification failure.
	// The reason (bad signature, malformed, expired) is deliberately not
	// distinguishable to callers.
	ErrInvalidToken = errors.New("invalid token")
)
