package repository

import (
	"testing"

	"github.com/jwoo/shopflow-backend/internal/app/model"
	"github.com/jwoo/shopflow-backend/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupUserTest(t *testing.T) (*gorm.DB, UserRepository) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)

	return testDB, NewUserRepository(testDB)
}

func TestUserRepository_Create(t *testing.T) {
	testDB, repo := setupUserTest(t)
	defer db.CleanupTestDB(testDB)

	user := &model.User{
		Email:        "shopper@example.com",
		PasswordHash: "hash",
		Name:         "Test Shopper",
		Role:         model.RoleUser,
	}

	err := repo.Create(user)
	assert.NoError(t, err)
	assert.NotZero(t, user.ID)
}

func TestUserRepository_Create_DuplicateEmail(t *testing.T) {
	testDB, repo := setupUserTest(t)
	defer db.CleanupTestDB(testDB)

	user := &model.User{Email: "shopper@example.com", PasswordHash: "hash", Name: "First"}
	require.NoError(t, repo.Create(user))

	dup := &model.User{Email: "shopper@example.com", PasswordHash: "hash", Name: "Second"}
	err := repo.Create(dup)
	assert.Error(t, err)
}

func TestUserRepository_FindByEmail(t *testing.T) {
	testDB, repo := setupUserTest(t)
	defer db.CleanupTestDB(testDB)

	user := &model.User{Email: "shopper@example.com", PasswordHash: "hash", Name: "Test Shopper"}
	require.NoError(t, repo.Create(user))

	found, err := repo.FindByEmail("shopper@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)

	_, err = repo.FindByEmail("nobody@example.com")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestUserRepository_Update(t *testing.T) {
	testDB, repo := setupUserTest(t)
	defer db.CleanupTestDB(testDB)

	user := &model.User{Email: "shopper@example.com", PasswordHash: "hash", Name: "Test Shopper"}
	require.NoError(t, repo.Create(user))

	user.Address = "42 Main St"
	user.Phone = "5551234567"
	require.NoError(t, repo.Update(user))

	found, err := repo.FindByID(user.ID)
	require.NoError(t, err)
	assert.Equal(t, "42 Main St", found.Address)
	assert.Equal(t, "5551234567", found.Phone)
}
