package controllers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/maintenix/maintenix-api/config"
	"github.com/maintenix/maintenix-api/middleware"
	"github.com/maintenix/maintenix-api/models"
	"github.com/maintenix/maintenix-api/services"
)

// LoginRequest represents the request body for logging in
type LoginRequest struct {
	Username  string `json:"username" binding:"required"`
	Password  string `json:"password" binding:"required"`
	CompanyID *uint  `json:"company_id"`
}

// RegisterRequest represents the request body for registering a technician
type RegisterRequest struct {
	Username string `json:"username" binding:"required"`
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	Role     string `json:"role"`
}

// RecoverRequest represents the request body for starting password recovery
type RecoverRequest struct {
	Username string `json:"username" binding:"required"`
}

// RecoverConfirmRequest represents the request body for completing recovery
type RecoverConfirmRequest struct {
	Token           string `json:"token" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required"`
	ConfirmPassword string `json:"confirm_password" binding:"required"`
}

// Login handles POST /api/v1/auth/login - authenticates a technician and
// issues a token bound to the selected company
func Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Invalid request data",
				"details": err.Error(),
			},
		})
		return
	}

	db := config.GetDB()
	tech, err := services.Authenticate(db, req.Username, req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_CREDENTIALS",
				"message": "Incorrect username or password",
			},
		})
		return
	}

	// Verify the selected company exists before binding the token to it
	var companyName string
	if req.CompanyID != nil {
		var company models.Company
		if err := db.First(&company, *req.CompanyID).Error; err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "VALIDATION_ERROR",
					"message": "Selected company does not exist",
				},
			})
			return
		}
		companyName = company.Name
	}

	cfg := config.GetConfig()
	token, err := services.IssueToken(cfg.JWTSecret, tech, req.CompanyID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "TOKEN_ERROR",
				"message": "Failed to issue token",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"token":        token,
			"technician":   tech,
			"company_name": companyName,
		},
	})
}

// Register handles POST /api/v1/auth/register - creates a technician account
// (admins only)
func Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Invalid request data",
				"details": err.Error(),
			},
		})
		return
	}

	db := config.GetDB()
	tech, err := services.RegisterTechnician(db, services.RegisterTechnicianInput{
		Username: req.Username,
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    tech,
	})
}

// Recover handles POST /api/v1/auth/recover - starts password recovery by
// mailing a reset link
func Recover(c *gin.Context) {
	var req RecoverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Invalid request data",
				"details": err.Error(),
			},
		})
		return
	}

	db := config.GetDB()
	tech, token, err := services.CreateResetToken(db, req.Username)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	cfg := config.GetConfig()
	link := fmt.Sprintf("%s/recuperar/confirm?token=%s", cfg.AppBaseURL, token)
	plain, html := services.PasswordResetBodies(tech.Username, link)

	mailer := services.GetMailService()
	if mailer == nil {
		respondServiceError(c, services.ErrDelivery)
		return
	}
	if err := mailer.Send(tech.Email, "Recuperación de contraseña - Mantenimiento", plain, html); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"message": "Recovery email sent",
		},
	})
}

// RecoverConfirm handles POST /api/v1/auth/recover/confirm - consumes a reset
// token and sets the new password
func RecoverConfirm(c *gin.Context) {
	var req RecoverConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Invalid request data",
				"details": err.Error(),
			},
		})
		return
	}

	db := config.GetDB()
	if err := services.ResetPassword(db, req.Token, req.NewPassword, req.ConfirmPassword); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"message": "Password updated",
		},
	})
}

// GetMyProfile handles GET /api/v1/auth/me - returns the caller's technician
// profile
func GetMyProfile(c *gin.Context) {
	scope, err := middleware.GetScope(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "UNAUTHORIZED",
				"message": "Could not extract caller identity",
			},
		})
		return
	}

	db := config.GetDB()
	var tech models.Technician
	if err := db.Where("username = ?", scope.Username).First(&tech).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "NOT_FOUND",
				"message": "Technician profile not found",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    tech,
	})
}
