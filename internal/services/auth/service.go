package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/crypto/bcrypt"

	"canteen-connect/internal/database"
	"canteen-connect/internal/logger"
	"canteen-connect/internal/models"
)

// ErrInvalidCredentials is returned for unknown emails and wrong
// passwords alike, so login failures do not leak which one it was.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Service verifies credentials and issues bearer tokens. Everything
// downstream trusts the identity it extracts; no other component looks
// at credentials.
type Service struct {
	db       *database.DB
	logger   *logger.Logger
	secret   []byte
	tokenTTL time.Duration
}

func NewService(db *database.DB, log *logger.Logger, secret string, tokenTTL time.Duration) *Service {
	return &Service{
		db:       db,
		logger:   log,
		secret:   []byte(secret),
		tokenTTL: tokenTTL,
	}
}

// Register creates a new student account with a bcrypt password hash.
func (s *Service) Register(ctx context.Context, req *models.RegisterRequest, requestID string) error {
	if err := req.Validate(); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	var id int64
	var createdAt time.Time
	err = s.db.QueryRow(ctx, database.InsertUserSQL, strings.TrimSpace(req.Name), strings.ToLower(req.Email), string(hash), models.RoleStudent).
		Scan(&id, &createdAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("%w: user already exists", models.ErrInvalidInput)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("user_registered", fmt.Sprintf("User %d registered", id), requestID, map[string]interface{}{
		"user_id": id,
	})
	return nil
}

// Login checks credentials and returns a signed bearer token.
func (s *Service) Login(ctx context.Context, req *models.LoginRequest, requestID string) (*models.AuthResponse, error) {
	var u models.User
	err := s.db.QueryRow(ctx, database.GetUserByEmailSQL, strings.ToLower(req.Email)).
		Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := s.IssueToken(u.ID, u.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	s.logger.Info("user_logged_in", fmt.Sprintf("User %d logged in", u.ID), requestID, map[string]interface{}{
		"user_id": u.ID,
		"role":    u.Role,
	})

	return &models.AuthResponse{Token: token, Name: u.Name, Role: u.Role}, nil
}

type claims struct {
	UserID int64  `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// IssueToken signs an HS256 token carrying the user id and role.
func (s *Service) IssueToken(userID int64, role string) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	})
	return token.SignedString(s.secret)
}

// VerifyToken parses a bearer token and returns the identity it
// carries.
func (s *Service) VerifyToken(tokenString string) (*models.Identity, error) {
	var c claims
	token, err := jwt.ParseWithClaims(tokenString, &c, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return &models.Identity{UserID: c.UserID, Role: c.Role}, nil
}
