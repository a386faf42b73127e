package admins

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"guestlist/internal/auth"
	"guestlist/internal/models"
)

var (
	ErrAdminNotFound = errors.New("admin not found")
	// ErrReservedUsername guards the sentinel super-admin name, which is not
	// backed by a row and must never collide with a real event-admin.
	ErrReservedUsername = errors.New("username is reserved")
)

type AdminDBLayer interface {
	CreateAdmin(ctx context.Context, admin *models.Admin) error
	GetAdmins(ctx context.Context, eventID int64) ([]models.Admin, error)
	GetAdminByID(ctx context.Context, id int64) (*models.Admin, error)
	UpdateAdmin(ctx context.Context, admin *models.Admin) error
	DeleteAdmin(ctx context.Context, id int64) error
}

type AdminService struct {
	DB AdminDBLayer
	// SuperAdminUsername is the reserved config-backed login name.
	SuperAdminUsername string
}

func NewAdminService(db AdminDBLayer, superAdminUsername string) *AdminService {
	return &AdminService{DB: db, SuperAdminUsername: superAdminUsername}
}

func (s *AdminService) CreateAdmin(ctx context.Context, username, password string, eventID int64) (*models.Admin, error) {
	if username == s.SuperAdminUsername {
		return nil, ErrReservedUsername
	}

	hashed, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	admin := &models.Admin{
		EventID:  eventID,
		Username: username,
		Password: hashed,
	}
	if err := s.DB.CreateAdmin(ctx, admin); err != nil {
		return nil, fmt.Errorf("failed to create admin: %w", err)
	}
	return admin, nil
}

func (s *AdminService) GetAdmins(ctx context.Context, eventID int64) ([]models.Admin, error) {
	return s.DB.GetAdmins(ctx, eventID)
}

func (s *AdminService) GetAdmin(ctx context.Context, id int64) (*models.Admin, error) {
	admin, err := s.DB.GetAdminByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAdminNotFound
		}
		return nil, fmt.Errorf("failed to fetch admin %d: %w", id, err)
	}
	return admin, nil
}

// UpdateAdmin rewrites username/event scope and re-hashes the password when a
// new one is supplied.
func (s *AdminService) UpdateAdmin(ctx context.Context, id int64, username, password string, eventID int64) (*models.Admin, error) {
	admin, err := s.GetAdmin(ctx, id)
	if err != nil {
		return nil, err
	}

	if username != "" {
		if username == s.SuperAdminUsername {
			return nil, ErrReservedUsername
		}
		admin.Username = username
	}
	if eventID != 0 {
		admin.EventID = eventID
	}
	if password != "" {
		hashed, err := auth.HashPassword(password)
		if err != nil {
			return nil, err
		}
		admin.Password = hashed
	}

	if err := s.DB.UpdateAdmin(ctx, admin); err != nil {
		return nil, fmt.Errorf("failed to update admin %d: %w", id, err)
	}
	return admin, nil
}

func (s *AdminService) DeleteAdmin(ctx context.Context, id int64) error {
	if err := s.DB.DeleteAdmin(ctx, id); err != nil {
		return fmt.Errorf("failed to delete admin %d: %w", id, err)
	}
	return nil
}
