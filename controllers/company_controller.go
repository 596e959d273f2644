package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/maintenix/maintenix-api/config"
	"github.com/maintenix/maintenix-api/models"
)

// CreateCompanyRequest represents the request body for creating a company
type CreateCompanyRequest struct {
	Name string `json:"name" binding:"required"`
}

// ListCompanies handles GET /api/v1/companies - lists all companies sorted by
// name, for the login selector and admin screens
func ListCompanies(c *gin.Context) {
	db := config.GetDB()

	var companies []models.Company
	if err := db.Order("name ASC").Find(&companies).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to list companies",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    companies,
	})
}

// CreateCompany handles POST /api/v1/companies - creates a company (admins only)
func CreateCompany(c *gin.Context) {
	var req CreateCompanyRequest
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

	company := models.Company{Name: strings.TrimSpace(req.Name)}
	if company.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Company name cannot be blank",
			},
		})
		return
	}

	db := config.GetDB()
	if err := db.Create(&company).Error; err != nil {
		errMsg := strings.ToLower(err.Error())
		if strings.Contains(errMsg, "duplicate") ||
			strings.Contains(errMsg, "unique constraint") ||
			strings.Contains(errMsg, "unique") {
			c.JSON(http.StatusConflict, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "COMPANY_EXISTS",
					"message": "A company with this name already exists",
				},
			})
			return
		}

		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to create company",
			},
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    company,
	})
}
