package controller

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jwoo/shopflow-backend/internal/app/repository"
	"github.com/jwoo/shopflow-backend/internal/app/service"
	"github.com/jwoo/shopflow-backend/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupAuthControllerTest(t *testing.T) (*AuthController, *gin.Engine) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	userRepo := repository.NewUserRepository(testDB)
	authService := service.NewAuthService(userRepo, "controller-test-secret", 15*time.Minute, 7*24*time.Hour)
	authController := NewAuthController(authService)

	gin.SetMode(gin.TestMode)
	router := gin.New()

	return authController, router
}

func postJSON(t *testing.T, router *gin.Engine, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	jsonBody, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBuffer(jsonBody))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAuthController_Register_Success(t *testing.T) {
	controller, router := setupAuthControllerTest(t)
	router.POST("/register", controller.Register)

	w := postJSON(t, router, "/register", RegisterRequest{
		Email:    "shopper@example.com",
		Password: "password123",
		Name:     "Shopper",
	})

	assert.Equal(t, http.StatusCreated, w.Code)

	var response map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &response)
	require.NoError(t, err)

	user := response["user"].(map[string]interface{})
	assert.Equal(t, "shopper@example.com", user["email"])
	assert.Equal(t, "user", user["role"])

	tokens := response["tokens"].(map[string]interface{})
	assert.NotEmpty(t, tokens["access_token"])
	assert.NotEmpty(t, tokens["refresh_token"])
}

func TestAuthController_Register_DuplicateEmail(t *testing.T) {
	controller, router := setupAuthControllerTest(t)
	router.POST("/register", controller.Register)

	body := RegisterRequest{
		Email:    "shopper@example.com",
		Password: "password123",
		Name:     "Shopper",
	}

	w := postJSON(t, router, "/register", body)
	require.Equal(t, http.StatusCreated, w.Code)

	w = postJSON(t, router, "/register", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var response map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &response)
	require.NoError(t, err)

	assert.Equal(t, "AUTH_EMAIL_EXISTS", response["error"])
}

func TestAuthController_Register_InvalidInput(t *testing.T) {
	controller, router := setupAuthControllerTest(t)
	router.POST("/register", controller.Register)

	tests := []struct {
		name string
		body map[string]interface{}
	}{
		{name: "Missing email", body: map[string]interface{}{"password": "password123", "name": "X"}},
		{name: "Malformed email", body: map[string]interface{}{"email": "nope", "password": "password123", "name": "X"}},
		{name: "Short password", body: map[string]interface{}{"email": "a@b.com", "password": "123", "name": "X"}},
		{name: "Missing name", body: map[string]interface{}{"email": "a@b.com", "password": "password123"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postJSON(t, router, "/register", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestAuthController_Login(t *testing.T) {
	controller, router := setupAuthControllerTest(t)
	router.POST("/register", controller.Register)
	router.POST("/login", controller.Login)

	w := postJSON(t, router, "/register", RegisterRequest{
		Email:    "shopper@example.com",
		Password: "password123",
		Name:     "Shopper",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	tests := []struct {
		name       string
		body       LoginRequest
		wantStatus int
	}{
		{
			name:       "Correct credentials",
			body:       LoginRequest{Email: "shopper@example.com", Password: "password123"},
			wantStatus: http.StatusOK,
		},
		{
			name:       "Wrong password",
			body:       LoginRequest{Email: "shopper@example.com", Password: "wrong"},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "Unknown email",
			body:       LoginRequest{Email: "nobody@example.com", Password: "password123"},
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postJSON(t, router, "/login", tt.body)
			assert.Equal(t, tt.wantStatus, w.Code)

			if tt.wantStatus == http.StatusUnauthorized {
				var response map[string]interface{}
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
				// Same code regardless of which credential was wrong
				assert.Equal(t, "AUTH_INVALID_CREDENTIALS", response["error"])
			}
		})
	}
}

func TestAuthController_GetMe(t *testing.T) {
	controller, router := setupAuthControllerTest(t)
	router.POST("/register", controller.Register)

	w := postJSON(t, router, "/register", RegisterRequest{
		Email:    "shopper@example.com",
		Password: "password123",
		Name:     "Shopper",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var registered map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &registered))
	userID := uint(registered["user"].(map[string]interface{})["id"].(float64))

	router.GET("/me", func(c *gin.Context) {
		setUserIDInContext(c, userID)
		controller.GetMe(c)
	})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	w2 := httptest.NewRecorder()
	router.ServeHTTP(w2, req)

	assert.Equal(t, http.StatusOK, w2.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w2.Body.Bytes(), &response))
	assert.Equal(t, "shopper@example.com", response["user"].(map[string]interface{})["email"])
}

func TestAuthController_UpdateProfile(t *testing.T) {
	controller, router := setupAuthControllerTest(t)
	router.POST("/register", controller.Register)

	w := postJSON(t, router, "/register", RegisterRequest{
		Email:    "shopper@example.com",
		Password: "password123",
		Name:     "Shopper",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var registered map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &registered))
	userID := uint(registered["user"].(map[string]interface{})["id"].(float64))

	router.PUT("/profile", func(c *gin.Context) {
		setUserIDInContext(c, userID)
		controller.UpdateProfile(c)
	})

	jsonBody, _ := json.Marshal(UpdateProfileRequest{Name: "New Name", Address: "9 New Street"})
	req := httptest.NewRequest(http.MethodPut, "/profile", bytes.NewBuffer(jsonBody))
	req.Header.Set("Content-Type", "application/json")
	w2 := httptest.NewRecorder()
	router.ServeHTTP(w2, req)

	assert.Equal(t, http.StatusOK, w2.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w2.Body.Bytes(), &response))
	user := response["user"].(map[string]interface{})
	assert.Equal(t, "New Name", user["name"])
	assert.Equal(t, "9 New Street", user["address"])
}
