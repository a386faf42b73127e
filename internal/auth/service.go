package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"guestlist/internal/config"
	"guestlist/internal/models"
)

// ErrInvalidCredentials is returned for every failed login, without
// revealing which factor was wrong.
var ErrInvalidCredentials = errors.New("invalid credentials")

type AdminDBLayer interface {
	GetAdminByUsername(ctx context.Context, username string) (*models.Admin, error)
}

type UserDBLayer interface {
	GetUserByIDNumber(ctx context.Context, idNumber string) (*models.User, error)
	UserExists(ctx context.Context, id int64) (bool, error)
}

type Service struct {
	Admins AdminDBLayer
	Users  UserDBLayer
	Config *config.Config
}

func NewService(admins AdminDBLayer, users UserDBLayer, cfg *config.Config) *Service {
	return &Service{Admins: admins, Users: users, Config: cfg}
}

// AdminLogin resolves either the config-backed super-admin (sentinel id -1,
// not a row) or an event-admin row with a bcrypt-hashed password.
func (s *Service) AdminLogin(ctx context.Context, username, password string) (string, error) {
	if username == s.Config.Auth.AdminUsername {
		if password != s.Config.Auth.AdminPassword {
			return "", ErrInvalidCredentials
		}
		return IssueAdminToken(s.Config.Auth.JWTSecret, models.SuperAdminID, models.SuperAdmin, 0)
	}

	admin, err := s.Admins.GetAdminByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("failed to look up admin %q: %w", username, err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(admin.Password), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	return IssueAdminToken(s.Config.Auth.JWTSecret, admin.ID, models.EventAdmin, admin.EventID)
}

// UserLogin authenticates an inviter by national id number.
func (s *Service) UserLogin(ctx context.Context, idNumber string) (string, int64, error) {
	user, err := s.Users.GetUserByIDNumber(ctx, idNumber)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", 0, ErrInvalidCredentials
		}
		return "", 0, fmt.Errorf("failed to look up user by id number: %w", err)
	}

	token, err := IssueUserToken(s.Config.Auth.JWTSecret, user.ID, user.EventID)
	if err != nil {
		return "", 0, err
	}
	return token, user.ID, nil
}

// HashPassword hashes an event-admin password for storage.
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}
