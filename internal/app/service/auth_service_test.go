package service

import (
	"testing"
	"time"

	"github.com/jwoo/shopflow-backend/internal/app/model"
	"github.com/jwoo/shopflow-backend/internal/app/repository"
	"github.com/jwoo/shopflow-backend/internal/db"
	"github.com/jwoo/shopflow-backend/pkg/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const authTestSecret = "auth-service-test-secret"

func setupAuthServiceTest(t *testing.T) (*gorm.DB, AuthService) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })

	userRepo := repository.NewUserRepository(testDB)
	svc := NewAuthService(userRepo, authTestSecret, 15*time.Minute, 7*24*time.Hour)

	return testDB, svc
}

func TestAuthService_Register(t *testing.T) {
	_, svc := setupAuthServiceTest(t)

	user, tokens, err := svc.Register("shopper@example.com", "password123", "Shopper", "5551234567", "1 Main St")
	require.NoError(t, err)
	require.NotNil(t, user)
	require.NotNil(t, tokens)

	assert.NotZero(t, user.ID)
	assert.Equal(t, model.RoleUser, user.Role)
	assert.NotEqual(t, "password123", user.PasswordHash)
	assert.NotEmpty(t, tokens.AccessToken)

	claims, err := util.ValidateToken(tokens.AccessToken, authTestSecret)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, "user", claims.Role)
}

func TestAuthService_Register_DuplicateEmail(t *testing.T) {
	_, svc := setupAuthServiceTest(t)

	_, _, err := svc.Register("shopper@example.com", "password123", "First", "", "")
	require.NoError(t, err)

	_, _, err = svc.Register("shopper@example.com", "different456", "Second", "", "")
	assert.ErrorIs(t, err, ErrEmailAlreadyExists)
}

func TestAuthService_Login(t *testing.T) {
	_, svc := setupAuthServiceTest(t)

	registered, _, err := svc.Register("shopper@example.com", "password123", "Shopper", "", "")
	require.NoError(t, err)

	tests := []struct {
		name     string
		email    string
		password string
		wantErr  error
	}{
		{name: "Correct credentials", email: "shopper@example.com", password: "password123"},
		{name: "Wrong password", email: "shopper@example.com", password: "nope", wantErr: ErrInvalidCredentials},
		{name: "Unknown email", email: "nobody@example.com", password: "password123", wantErr: ErrInvalidCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, tokens, err := svc.Login(tt.email, tt.password)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, user)
				assert.Nil(t, tokens)
			} else {
				require.NoError(t, err)
				assert.Equal(t, registered.ID, user.ID)
				assert.NotEmpty(t, tokens.AccessToken)
			}
		})
	}
}

func TestAuthService_UpdateProfile(t *testing.T) {
	_, svc := setupAuthServiceTest(t)

	user, _, err := svc.Register("shopper@example.com", "password123", "Shopper", "", "")
	require.NoError(t, err)

	updated, err := svc.UpdateProfile(user.ID, "New Name", "5559876543", "9 New Street")
	require.NoError(t, err)
	assert.Equal(t, "New Name", updated.Name)
	assert.Equal(t, "5559876543", updated.Phone)
	assert.Equal(t, "9 New Street", updated.Address)

	// Empty fields leave existing values alone
	updated, err = svc.UpdateProfile(user.ID, "", "", "")
	require.NoError(t, err)
	assert.Equal(t, "New Name", updated.Name)
	assert.Equal(t, "9 New Street", updated.Address)

	_, err = svc.UpdateProfile(99999, "X", "", "")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestAuthService_GetUserByID(t *testing.T) {
	_, svc := setupAuthServiceTest(t)

	user, _, err := svc.Register("shopper@example.com", "password123", "Shopper", "", "")
	require.NoError(t, err)

	found, err := svc.GetUserByID(user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.Email, found.Email)

	_, err = svc.GetUserByID(99999)
	assert.ErrorIs(t, err, ErrUserNotFound)
}
