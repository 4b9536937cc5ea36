package models

import "time"

// User is an authenticated owner of accounts and transactions.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// RegisterInput creates a new user.
type RegisterInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

func (r *RegisterInput) Validate() string {
	if r.Email == "" {
		return "email is required"
	}
	if len(r.Password) < 8 {
		return "password must be at least 8 characters"
	}
	if r.Name == "" {
		return "name is required"
	}
	return ""
}

// LoginInput authenticates an existing user.
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (l *LoginInput) Validate() string {
	if l.Email == "" {
		return "email is required"
	}
	if l.Password == "" {
		return "password is required"
	}
	return ""
}
