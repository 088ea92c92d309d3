package auth

import (
	"context"
	"testing"
	"time"

	"canteen-connect/internal/logger"
	"canteen-connect/internal/models"
)

func TestIssueAndVerifyToken(t *testing.T) {
	s := NewService(nil, logger.New("test"), "test-secret", time.Hour)

	token, err := s.IssueToken(42, models.RoleAdmin)
	if err != nil {
		t.Fatalf("IssueToken() error = %v", err)
	}

	identity, err := s.VerifyToken(token)
	if err != nil {
		t.Fatalf("VerifyToken() error = %v", err)
	}
	if identity.UserID != 42 {
		t.Errorf("UserID = %d, want 42", identity.UserID)
	}
	if identity.Role != models.RoleAdmin {
		t.Errorf("Role = %q, want admin", identity.Role)
	}
}

func TestVerifyTokenWrongSecret(t *testing.T) {
	issuer := NewService(nil, logger.New("test"), "secret-a", time.Hour)
	verifier := NewService(nil, logger.New("test"), "secret-b", time.Hour)

	token, err := issuer.IssueToken(1, models.RoleStudent)
	if err != nil {
		t.Fatalf("IssueToken() error = %v", err)
	}

	if _, err := verifier.VerifyToken(token); err == nil {
		t.Error("VerifyToken() accepted token signed with another secret")
	}
}

func TestVerifyTokenExpired(t *testing.T) {
	s := NewService(nil, logger.New("test"), "test-secret", -time.Minute)

	token, err := s.IssueToken(1, models.RoleStudent)
	if err != nil {
		t.Fatalf("IssueToken() error = %v", err)
	}

	if _, err := s.VerifyToken(token); err == nil {
		t.Error("VerifyToken() accepted expired token")
	}
}

func TestVerifyTokenGarbage(t *testing.T) {
	s := NewService(nil, logger.New("test"), "test-secret", time.Hour)

	for _, token := range []string{"", "not-a-jwt", "a.b.c"} {
		if _, err := s.VerifyToken(token); err == nil {
			t.Errorf("VerifyToken(%q) accepted invalid token", token)
		}
	}
}

func TestRegisterRequestValidation(t *testing.T) {
	s := NewService(nil, logger.New("test"), "test-secret", time.Hour)

	tests := []struct {
		name string
		req  models.RegisterRequest
	}{
		{"empty name", models.RegisterRequest{Email: "a@b.com", Password: "secret1"}},
		{"bad email", models.RegisterRequest{Name: "A", Email: "not-an-email", Password: "secret1"}},
		{"short password", models.RegisterRequest{Name: "A", Email: "a@b.com", Password: "abc"}},
	}

	// Structural failures never reach the database, so a nil handle is
	// safe here.
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := s.Register(context.Background(), &tt.req, "req_test"); err == nil {
				t.Error("Register() accepted invalid request")
			}
		})
	}
}
