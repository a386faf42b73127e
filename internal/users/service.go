package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"guestlist/internal/excel"
	"guestlist/internal/models"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrEventNotFound     = errors.New("event not found")
	ErrDuplicateIDNumber = errors.New("a user with that id number already exists")
)

type UserDBLayer interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetUserByIDNumber(ctx context.Context, idNumber string) (*models.User, error)
	UserExists(ctx context.Context, id int64) (bool, error)
	UserExistsByIDNumber(ctx context.Context, idNumber string) (bool, error)
	ListUsersByEvent(ctx context.Context, eventID int64, offset, limit int) ([]models.User, error)
	CountUsersByEvent(ctx context.Context, eventID int64) (int, error)
	UpdateUser(ctx context.Context, user *models.User) error
	DeleteUser(ctx context.Context, id int64) error
}

type EventDBLayer interface {
	EventExists(ctx context.Context, id int64) (bool, error)
}

type UserService struct {
	DB     UserDBLayer
	Events EventDBLayer
}

func NewUserService(db UserDBLayer, events EventDBLayer) *UserService {
	return &UserService{DB: db, Events: events}
}

// CreateUser enforces the inviter uniqueness rule: one id number, one
// inviter, across all events. Checks run sequentially against the database.
func (s *UserService) CreateUser(ctx context.Context, idNumber, fullName string, eventID int64) (*models.User, error) {
	taken, err := s.DB.UserExistsByIDNumber(ctx, idNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to check id number uniqueness: %w", err)
	}
	if taken {
		return nil, ErrDuplicateIDNumber
	}

	exists, err := s.Events.EventExists(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to check event %d: %w", eventID, err)
	}
	if !exists {
		return nil, ErrEventNotFound
	}

	user := &models.User{
		EventID:  eventID,
		IDNumber: idNumber,
		FullName: fullName,
	}
	if err := s.DB.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

func (s *UserService) GetUser(ctx context.Context, id int64) (*models.User, error) {
	user, err := s.DB.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to fetch user %d: %w", id, err)
	}
	return user, nil
}

func (s *UserService) ListUsers(ctx context.Context, eventID int64, page, limit int) ([]models.User, int, error) {
	offset := (page - 1) * limit

	userList, err := s.DB.ListUsersByEvent(ctx, eventID, offset, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users for event %d: %w", eventID, err)
	}

	totalCount, err := s.DB.CountUsersByEvent(ctx, eventID)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count users for event %d: %w", eventID, err)
	}

	return userList, totalCount, nil
}

func (s *UserService) UpdateUser(ctx context.Context, id int64, idNumber, fullName string) (*models.User, error) {
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	if idNumber != "" {
		user.IDNumber = idNumber
	}
	if fullName != "" {
		user.FullName = fullName
	}

	if err := s.DB.UpdateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user %d: %w", id, err)
	}
	return user, nil
}

// DeleteUser cascades to the user's guests. Idempotent.
func (s *UserService) DeleteUser(ctx context.Context, id int64) error {
	if err := s.DB.DeleteUser(ctx, id); err != nil {
		return fmt.Errorf("failed to delete user %d: %w", id, err)
	}
	return nil
}

// ImportResult summarizes a spreadsheet import.
type ImportResult struct {
	Created int `json:"created"`
	Skipped int `json:"skipped"`
}

// ImportUsers creates inviters from parsed spreadsheet rows, skipping rows
// whose id number is already taken.
func (s *UserService) ImportUsers(ctx context.Context, eventID int64, rows []excel.UserRow) (*ImportResult, error) {
	exists, err := s.Events.EventExists(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to check event %d: %w", eventID, err)
	}
	if !exists {
		return nil, ErrEventNotFound
	}

	result := &ImportResult{}
	for _, row := range rows {
		_, err := s.CreateUser(ctx, row.IDNumber, row.FullName, eventID)
		if err != nil {
			if errors.Is(err, ErrDuplicateIDNumber) {
				result.Skipped++
				continue
			}
			return nil, err
		}
		result.Created++
	}
	return result, nil
}
