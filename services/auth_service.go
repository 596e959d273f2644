package services

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/maintenix/maintenix-api/models"
)

// resetTokenTTL is how long a password recovery token stays valid
const resetTokenTTL = time.Hour

// tokenTTL is how long a login token stays valid
const tokenTTL = 24 * time.Hour

var emailPattern = regexp.MustCompile(`^[^@]+@[^@]+\.[^@]+$`)

// Claims are the JWT claims carried by a login token
type Claims struct {
	Name      string `json:"name"`
	Role      string `json:"role"`
	CompanyID *uint  `json:"company_id,omitempty"`
	jwt.RegisteredClaims
}

// Authenticate verifies a username/password pair against the technicians
// table. Returns ErrValidation on a miss; callers present it as a generic
// invalid-credentials rejection.
func Authenticate(db *gorm.DB, username, password string) (*models.Technician, error) {
	var tech models.Technician
	if err := db.Where("username = ?", username).First(&tech).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: invalid credentials", ErrValidation)
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(tech.PasswordHash), []byte(password)); err != nil {
		return nil, fmt.Errorf("%w: invalid credentials", ErrValidation)
	}
	return &tech, nil
}

// IssueToken creates a signed login token for a technician, bound to the
// company selected at login (nil when none was selected).
func IssueToken(secret string, tech *models.Technician, companyID *uint) (string, error) {
	claims := Claims{
		Name:      tech.Name,
		Role:      tech.Role,
		CompanyID: companyID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   tech.Username,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(tokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseToken validates a login token and returns its claims
func ParseToken(secret, tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

// RegisterTechnicianInput holds the fields for creating a technician account
type RegisterTechnicianInput struct {
	Username string
	Name     string
	Email    string
	Password string
	Role     string
}

// RegisterTechnician creates a technician account. Registration is
// admin-gated at the HTTP layer.
func RegisterTechnician(db *gorm.DB, input RegisterTechnicianInput) (*models.Technician, error) {
	if input.Username == "" || input.Name == "" || input.Email == "" || input.Password == "" {
		return nil, fmt.Errorf("%w: username, name, email and password are required", ErrValidation)
	}
	if !emailPattern.MatchString(input.Email) {
		return nil, fmt.Errorf("%w: invalid email format", ErrValidation)
	}
	if input.Role == "" {
		input.Role = models.RoleTechnician
	}
	if input.Role != models.RoleAdmin && input.Role != models.RoleTechnician {
		return nil, fmt.Errorf("%w: unknown role %q", ErrValidation, input.Role)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	tech := models.Technician{
		Username:     input.Username,
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: string(hash),
		Role:         input.Role,
	}
	if err := db.Create(&tech).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: username or email already exists", ErrUniqueness)
		}
		return nil, err
	}
	return &tech, nil
}

// CreateResetToken starts a password recovery for a username. Returns the
// technician and the opaque token to embed in the recovery link.
func CreateResetToken(db *gorm.DB, username string) (*models.Technician, string, error) {
	var tech models.Technician
	if err := db.Where("username = ?", username).First(&tech).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", fmt.Errorf("%w: technician %q", ErrNotFound, username)
		}
		return nil, "", err
	}

	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return nil, "", err
	}
	token := base64.RawURLEncoding.EncodeToString(raw)

	reset := models.PasswordResetToken{
		TechnicianID: tech.ID,
		Token:        token,
		ExpiresAt:    time.Now().Add(resetTokenTTL),
	}
	if err := db.Create(&reset).Error; err != nil {
		return nil, "", err
	}
	return &tech, token, nil
}

// ResetPassword consumes a recovery token and sets the technician's password.
// Expired tokens are deleted on lookup and reported as not found.
func ResetPassword(db *gorm.DB, token, newPassword, confirm string) error {
	if newPassword == "" || confirm == "" {
		return fmt.Errorf("%w: both password fields are required", ErrValidation)
	}
	if newPassword != confirm {
		return fmt.Errorf("%w: passwords do not match", ErrValidation)
	}

	var reset models.PasswordResetToken
	if err := db.Where("token = ?", token).First(&reset).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: invalid or already used token", ErrNotFound)
		}
		return err
	}

	if reset.Expired() {
		db.Delete(&reset)
		return fmt.Errorf("%w: token expired, request recovery again", ErrNotFound)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	// Update and consume in one transaction
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Technician{}).Where("id = ?", reset.TechnicianID).
			Update("password_hash", string(hash)).Error; err != nil {
			return err
		}
		return tx.Delete(&reset).Error
	})
}
