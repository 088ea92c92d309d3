package models

import (
	"fmt"
	"net/mail"
	"strings"
	"time"
)

// User roles
const (
	RoleStudent = "student"
	RoleAdmin   = "admin"
)

// User is an account known to the kiosk
type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// Identity is the verified caller identity attached to each request by
// the auth middleware. The engine trusts it and performs no credential
// checks of its own.
type Identity struct {
	UserID int64
	Role   string
}

// RegisterRequest is the payload for account creation
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (req *RegisterRequest) Validate() error {
	if strings.TrimSpace(req.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return fmt.Errorf("%w: email is invalid", ErrInvalidInput)
	}
	if len(req.Password) < 6 {
		return fmt.Errorf("%w: password must be at least 6 characters", ErrInvalidInput)
	}
	return nil
}

// LoginRequest is the payload for credential checks
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse carries the issued bearer token
type AuthResponse struct {
	Token string `json:"token"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}
