package auth_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"guestlist/internal/auth"
	"guestlist/internal/config"
	"guestlist/internal/models"
)

// MockAdminDBLayer is a mock implementation of the AdminDBLayer interface
type MockAdminDBLayer struct {
	mock.Mock
}

func (m *MockAdminDBLayer) GetAdminByUsername(ctx context.Context, username string) (*models.Admin, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Admin), args.Error(1)
}

// MockUserDBLayer is a mock implementation of the UserDBLayer interface
type MockUserDBLayer struct {
	mock.Mock
}

func (m *MockUserDBLayer) GetUserByIDNumber(ctx context.Context, idNumber string) (*models.User, error) {
	args := m.Called(ctx, idNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserDBLayer) UserExists(ctx context.Context, id int64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func testConfig() *config.Config {
	return &config.Config{
		Auth: config.AuthConfig{
			JWTSecret:     testSecret,
			AdminUsername: "admin",
			AdminPassword: "root-password",
		},
	}
}

func TestAdminLoginSuperAdmin(t *testing.T) {
	mockAdmins := new(MockAdminDBLayer)
	mockUsers := new(MockUserDBLayer)
	svc := auth.NewService(mockAdmins, mockUsers, testConfig())

	// Correct password issues a super-admin token without touching the DB
	token, err := svc.AdminLogin(context.Background(), "admin", "root-password")
	assert.NoError(t, err)

	claims, err := auth.ParseToken(testSecret, token)
	assert.NoError(t, err)
	ident := claims.Identity()
	assert.True(t, ident.IsSuperAdmin())
	assert.Equal(t, models.SuperAdminID, ident.ID)

	// Wrong password for the reserved username
	_, err = svc.AdminLogin(context.Background(), "admin", "nope")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)

	mockAdmins.AssertNotCalled(t, "GetAdminByUsername")
}

func TestAdminLoginEventAdmin(t *testing.T) {
	mockAdmins := new(MockAdminDBLayer)
	mockUsers := new(MockUserDBLayer)
	svc := auth.NewService(mockAdmins, mockUsers, testConfig())

	hashed, err := auth.HashPassword("secret123")
	assert.NoError(t, err)

	admin := &models.Admin{ID: 5, EventID: 2, Username: "gala", Password: hashed}
	mockAdmins.On("GetAdminByUsername", mock.Anything, "gala").Return(admin, nil)

	token, err := svc.AdminLogin(context.Background(), "gala", "secret123")
	assert.NoError(t, err)

	claims, err := auth.ParseToken(testSecret, token)
	assert.NoError(t, err)
	ident := claims.Identity()
	assert.Equal(t, models.EventAdmin, ident.Role)
	assert.Equal(t, int64(5), ident.ID)
	assert.Equal(t, int64(2), ident.EventID)

	// Wrong password
	_, err = svc.AdminLogin(context.Background(), "gala", "wrong")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)

	mockAdmins.AssertExpectations(t)
}

func TestAdminLoginUnknownUsername(t *testing.T) {
	mockAdmins := new(MockAdminDBLayer)
	mockUsers := new(MockUserDBLayer)
	svc := auth.NewService(mockAdmins, mockUsers, testConfig())

	mockAdmins.On("GetAdminByUsername", mock.Anything, "ghost").Return(nil, sql.ErrNoRows)

	_, err := svc.AdminLogin(context.Background(), "ghost", "whatever")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	mockAdmins.AssertExpectations(t)
}

func TestUserLogin(t *testing.T) {
	mockAdmins := new(MockAdminDBLayer)
	mockUsers := new(MockUserDBLayer)
	svc := auth.NewService(mockAdmins, mockUsers, testConfig())

	user := &models.User{ID: 11, EventID: 4, IDNumber: "123456789", FullName: "Dana Levi"}
	mockUsers.On("GetUserByIDNumber", mock.Anything, "123456789").Return(user, nil)

	token, userID, err := svc.UserLogin(context.Background(), "123456789")
	assert.NoError(t, err)
	assert.Equal(t, int64(11), userID)

	claims, err := auth.ParseToken(testSecret, token)
	assert.NoError(t, err)
	ident := claims.Identity()
	assert.Equal(t, models.IdentityUser, ident.Kind)
	assert.Equal(t, int64(4), ident.EventID)

	mockUsers.AssertExpectations(t)
}

func TestUserLoginUnknownIDNumber(t *testing.T) {
	mockAdmins := new(MockAdminDBLayer)
	mockUsers := new(MockUserDBLayer)
	svc := auth.NewService(mockAdmins, mockUsers, testConfig())

	mockUsers.On("GetUserByIDNumber", mock.Anything, "000000000").Return(nil, sql.ErrNoRows)

	_, _, err := svc.UserLogin(context.Background(), "000000000")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	mockUsers.AssertExpectations(t)
}
