package controllers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/maintenix/maintenix-api/config"
	"github.com/maintenix/maintenix-api/middleware"
	"github.com/maintenix/maintenix-api/models"
	"github.com/maintenix/maintenix-api/services"
)

func setupControllerTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	err = db.AutoMigrate(
		&models.Company{},
		&models.Cycle{},
		&models.MaintenanceRecord{},
		&models.Technician{},
		&models.PasswordResetToken{},
	)
	if err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	config.SetDB(db)
	config.SetConfig(&config.Config{
		JWTSecret:  "test-secret",
		AppBaseURL: "http://localhost:5173",
	})
	t.Cleanup(func() { config.SetConfig(nil) })

	return db
}

func setupTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	return router
}

// mockScopeMiddleware injects a caller scope the way RequireAuth would after
// validating a token
func mockScopeMiddleware(scope services.Scope) gin.HandlerFunc {
	return func(c *gin.Context) {
		middleware.SetScope(c, scope)
		c.Next()
	}
}

func adminScope() services.Scope {
	return services.Scope{Username: "boss", TechnicianName: "The Boss", Role: models.RoleAdmin}
}

func technicianScope(companyID *uint) services.Scope {
	return services.Scope{
		Username:       "jdoe",
		TechnicianName: "Juan Doe",
		Role:           models.RoleTechnician,
		CompanyID:      companyID,
	}
}

func performJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	var reader *bytes.Buffer
	if body != nil {
		raw, err := json.Marshal(body)
		assert.NoError(t, err)
		reader = bytes.NewBuffer(raw)
	} else {
		reader = bytes.NewBuffer(nil)
	}

	req, _ := http.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var response map[string]interface{}
	if len(w.Body.Bytes()) > 0 && strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	}
	return w, response
}

func errorCode(response map[string]interface{}) string {
	errData, ok := response["error"].(map[string]interface{})
	if !ok {
		return ""
	}
	code, _ := errData["code"].(string)
	return code
}

func createTestTechnician(t *testing.T, db *gorm.DB, username, password, role string) *models.Technician {
	t.Helper()
	tech, err := services.RegisterTechnician(db, services.RegisterTechnicianInput{
		Username: username,
		Name:     "Tech " + username,
		Email:    username + "@example.com",
		Password: password,
		Role:     role,
	})
	if err != nil {
		t.Fatalf("Failed to create technician %q: %v", username, err)
	}
	return tech
}

func TestLogin(t *testing.T) {
	db := setupControllerTestDB(t)
	createTestTechnician(t, db, "jdoe", "secret123", models.RoleTechnician)

	company := models.Company{Name: "Acme"}
	db.Create(&company)

	tests := []struct {
		name           string
		requestBody    map[string]interface{}
		expectedStatus int
		expectedError  string
		checkResponse  func(t *testing.T, response map[string]interface{})
	}{
		{
			name: "Successful login without company",
			requestBody: map[string]interface{}{
				"username": "jdoe",
				"password": "secret123",
			},
			expectedStatus: http.StatusOK,
			checkResponse: func(t *testing.T, response map[string]interface{}) {
				data := response["data"].(map[string]interface{})
				assert.NotEmpty(t, data["token"])
				assert.Equal(t, "", data["company_name"])

				tech := data["technician"].(map[string]interface{})
				assert.Equal(t, "jdoe", tech["username"])
				_, hasHash := tech["password_hash"]
				assert.False(t, hasHash, "password hash must never be serialized")
			},
		},
		{
			name: "Successful login with company selection",
			requestBody: map[string]interface{}{
				"username":   "jdoe",
				"password":   "secret123",
				"company_id": company.ID,
			},
			expectedStatus: http.StatusOK,
			checkResponse: func(t *testing.T, response map[string]interface{}) {
				data := response["data"].(map[string]interface{})
				assert.Equal(t, "Acme", data["company_name"])

				// The company selection must be baked into the token
				claims, err := services.ParseToken("test-secret", data["token"].(string))
				assert.NoError(t, err)
				assert.Equal(t, company.ID, *claims.CompanyID)
			},
		},
		{
			name: "Unknown company selection",
			requestBody: map[string]interface{}{
				"username":   "jdoe",
				"password":   "secret123",
				"company_id": 9999,
			},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "VALIDATION_ERROR",
		},
		{
			name: "Wrong password",
			requestBody: map[string]interface{}{
				"username": "jdoe",
				"password": "wrong",
			},
			expectedStatus: http.StatusUnauthorized,
			expectedError:  "INVALID_CREDENTIALS",
		},
		{
			name: "Unknown username",
			requestBody: map[string]interface{}{
				"username": "nobody",
				"password": "secret123",
			},
			expectedStatus: http.StatusUnauthorized,
			expectedError:  "INVALID_CREDENTIALS",
		},
		{
			name: "Missing password",
			requestBody: map[string]interface{}{
				"username": "jdoe",
			},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "VALIDATION_ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := setupTestRouter()
			router.POST("/auth/login", Login)

			w, response := performJSON(t, router, http.MethodPost, "/auth/login", tt.requestBody)
			assert.Equal(t, tt.expectedStatus, w.Code)

			if tt.expectedError != "" {
				assert.False(t, response["success"].(bool))
				assert.Equal(t, tt.expectedError, errorCode(response))
			}
			if tt.checkResponse != nil {
				tt.checkResponse(t, response)
			}
		})
	}
}

func TestRegister(t *testing.T) {
	db := setupControllerTestDB(t)
	createTestTechnician(t, db, "existing", "secret123", models.RoleTechnician)

	tests := []struct {
		name           string
		requestBody    map[string]interface{}
		expectedStatus int
		expectedError  string
	}{
		{
			name: "Successfully register technician",
			requestBody: map[string]interface{}{
				"username": "newtech",
				"name":     "New Tech",
				"email":    "newtech@example.com",
				"password": "secret123",
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name: "Duplicate username",
			requestBody: map[string]interface{}{
				"username": "existing",
				"name":     "Other",
				"email":    "other@example.com",
				"password": "secret123",
			},
			expectedStatus: http.StatusConflict,
			expectedError:  "DUPLICATE",
		},
		{
			name: "Malformed email",
			requestBody: map[string]interface{}{
				"username": "bademail",
				"name":     "Bad Email",
				"email":    "not-an-email",
				"password": "secret123",
			},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "VALIDATION_ERROR",
		},
		{
			name: "Unknown role",
			requestBody: map[string]interface{}{
				"username": "badrole",
				"name":     "Bad Role",
				"email":    "badrole@example.com",
				"password": "secret123",
				"role":     "superuser",
			},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "VALIDATION_ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := setupTestRouter()
			router.POST("/auth/register", mockScopeMiddleware(adminScope()), Register)

			w, response := performJSON(t, router, http.MethodPost, "/auth/register", tt.requestBody)
			assert.Equal(t, tt.expectedStatus, w.Code)

			if tt.expectedError != "" {
				assert.Equal(t, tt.expectedError, errorCode(response))
			} else {
				data := response["data"].(map[string]interface{})
				assert.Equal(t, tt.requestBody["username"], data["username"])
			}
		})
	}
}

func TestRecover(t *testing.T) {
	db := setupControllerTestDB(t)
	createTestTechnician(t, db, "jdoe", "secret123", models.RoleTechnician)

	mock := services.NewMockMailService()
	mock.SetAsMockForTesting()
	t.Cleanup(func() { services.SetMailService(nil) })

	router := setupTestRouter()
	router.POST("/auth/recover", Recover)

	t.Run("sends the recovery mail", func(t *testing.T) {
		mock.Clear()

		w, response := performJSON(t, router, http.MethodPost, "/auth/recover", map[string]interface{}{
			"username": "jdoe",
		})
		assert.Equal(t, http.StatusOK, w.Code)
		assert.True(t, response["success"].(bool))

		mails := mock.SentMails()
		assert.Len(t, mails, 1)
		assert.Equal(t, "jdoe@example.com", mails[0].To)
		assert.Contains(t, mails[0].Subject, "Recuperación de contraseña")
		assert.Contains(t, mails[0].PlainBody, "http://localhost:5173/recuperar/confirm?token=")

		// The mailed token must exist in the database
		var count int64
		db.Model(&models.PasswordResetToken{}).Count(&count)
		assert.Equal(t, int64(1), count)
	})

	t.Run("unknown username", func(t *testing.T) {
		mock.Clear()

		w, response := performJSON(t, router, http.MethodPost, "/auth/recover", map[string]interface{}{
			"username": "nobody",
		})
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "NOT_FOUND", errorCode(response))
		assert.Empty(t, mock.SentMails())
	})

	t.Run("delivery failure", func(t *testing.T) {
		mock.FailDeliveries(true)
		defer mock.FailDeliveries(false)

		w, response := performJSON(t, router, http.MethodPost, "/auth/recover", map[string]interface{}{
			"username": "jdoe",
		})
		assert.Equal(t, http.StatusBadGateway, w.Code)
		assert.Equal(t, "DELIVERY_FAILURE", errorCode(response))
	})
}

func TestRecoverConfirm(t *testing.T) {
	db := setupControllerTestDB(t)
	createTestTechnician(t, db, "jdoe", "oldpass", models.RoleTechnician)

	_, token, err := services.CreateResetToken(db, "jdoe")
	assert.NoError(t, err)

	router := setupTestRouter()
	router.POST("/auth/recover/confirm", RecoverConfirm)
	router.POST("/auth/login", Login)

	t.Run("mismatched passwords", func(t *testing.T) {
		w, response := performJSON(t, router, http.MethodPost, "/auth/recover/confirm", map[string]interface{}{
			"token":            token,
			"new_password":     "newpass",
			"confirm_password": "other",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "VALIDATION_ERROR", errorCode(response))
	})

	t.Run("resets the password", func(t *testing.T) {
		w, _ := performJSON(t, router, http.MethodPost, "/auth/recover/confirm", map[string]interface{}{
			"token":            token,
			"new_password":     "newpass",
			"confirm_password": "newpass",
		})
		assert.Equal(t, http.StatusOK, w.Code)

		w, _ = performJSON(t, router, http.MethodPost, "/auth/login", map[string]interface{}{
			"username": "jdoe",
			"password": "newpass",
		})
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("token cannot be reused", func(t *testing.T) {
		w, response := performJSON(t, router, http.MethodPost, "/auth/recover/confirm", map[string]interface{}{
			"token":            token,
			"new_password":     "again",
			"confirm_password": "again",
		})
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "NOT_FOUND", errorCode(response))
	})
}

func TestGetMyProfile(t *testing.T) {
	db := setupControllerTestDB(t)
	createTestTechnician(t, db, "jdoe", "secret123", models.RoleTechnician)

	t.Run("returns the caller's profile", func(t *testing.T) {
		router := setupTestRouter()
		router.GET("/auth/me", mockScopeMiddleware(technicianScope(nil)), GetMyProfile)

		w, response := performJSON(t, router, http.MethodGet, "/auth/me", nil)
		assert.Equal(t, http.StatusOK, w.Code)

		data := response["data"].(map[string]interface{})
		assert.Equal(t, "jdoe", data["username"])
	})

	t.Run("unknown caller", func(t *testing.T) {
		router := setupTestRouter()
		router.GET("/auth/me", mockScopeMiddleware(services.Scope{Username: "ghost"}), GetMyProfile)

		w, response := performJSON(t, router, http.MethodGet, "/auth/me", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "NOT_FOUND", errorCode(response))
	})

	t.Run("missing scope", func(t *testing.T) {
		router := setupTestRouter()
		router.GET("/auth/me", GetMyProfile)

		w, _ := performJSON(t, router, http.MethodGet, "/auth/me", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
