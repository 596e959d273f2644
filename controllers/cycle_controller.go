package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/maintenix/maintenix-api/config"
	"github.com/maintenix/maintenix-api/middleware"
	"github.com/maintenix/maintenix-api/models"
	"github.com/maintenix/maintenix-api/services"
)

// OpenCycleRequest represents the request body for opening a reporting cycle
type OpenCycleRequest struct {
	CompanyID uint   `json:"company_id" binding:"required"`
	Name      string `json:"name"`
	Quarter   int    `json:"quarter"`
	Year      int    `json:"year"`
	StartDate string `json:"start_date"`
	Notes     string `json:"notes"`
}

// UpdateCycleRequest represents the request body for editing an open cycle
type UpdateCycleRequest struct {
	Name      string `json:"name"`
	Quarter   int    `json:"quarter" binding:"required"`
	Year      int    `json:"year" binding:"required"`
	StartDate string `json:"start_date" binding:"required"`
	Notes     string `json:"notes"`
}

// parseIDParam reads a numeric path parameter
func parseIDParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Invalid " + name + " parameter",
			},
		})
		return 0, false
	}
	return uint(id), true
}

// OpenCycle handles POST /api/v1/cycles - opens a new cycle for a company,
// closing any previously active one (admins only)
func OpenCycle(c *gin.Context) {
	var req OpenCycleRequest
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
	cycle, err := services.OpenCycle(db, req.CompanyID, services.OpenCycleInput{
		Name:      req.Name,
		Quarter:   req.Quarter,
		Year:      req.Year,
		StartDate: req.StartDate,
		Notes:     req.Notes,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    cycle,
	})
}

// CloseCycle handles POST /api/v1/cycles/:id/close - closes a cycle and
// freezes its records (admins only). Closing an already-closed cycle is
// reported, not an error.
func CloseCycle(c *gin.Context) {
	cycleID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	db := config.GetDB()
	cycle, alreadyClosed, err := services.CloseCycle(db, cycleID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"cycle":          cycle,
			"already_closed": alreadyClosed,
		},
	})
}

// GetActiveCycle handles GET /api/v1/cycles/active - returns the caller's
// active cycle, or null data when none exists (absence is not an error)
func GetActiveCycle(c *gin.Context) {
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
	cycle, err := services.GetActiveCycle(db, scope.CompanyID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    cycle, // null when no cycle is active
	})
}

// ListCycles handles GET /api/v1/companies/:id/cycles - lists a company's
// cycles, newest first (admins only)
func ListCycles(c *gin.Context) {
	companyID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	db := config.GetDB()
	cycles, err := services.ListCycles(db, companyID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    cycles,
	})
}

// GetCycle handles GET /api/v1/cycles/:id - returns one cycle with its
// company and records (admins only)
func GetCycle(c *gin.Context) {
	cycleID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	db := config.GetDB()
	var cycle models.Cycle
	if err := db.Preload("Company").First(&cycle, cycleID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "NOT_FOUND",
				"message": "Cycle not found",
			},
		})
		return
	}

	var records []models.MaintenanceRecord
	if err := db.Where("cycle_id = ?", cycle.ID).Order("date ASC").Find(&records).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to load cycle records",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"cycle":   cycle,
			"records": records,
		},
	})
}

// UpdateCycle handles PUT /api/v1/cycles/:id - edits an open cycle's metadata
// (admins only). Closed cycles are immutable.
func UpdateCycle(c *gin.Context) {
	cycleID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req UpdateCycleRequest
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
	cycle, err := services.UpdateCycle(db, cycleID, services.OpenCycleInput{
		Name:      req.Name,
		Quarter:   req.Quarter,
		Year:      req.Year,
		StartDate: req.StartDate,
		Notes:     req.Notes,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    cycle,
	})
}

// ReassignRecords handles POST /api/v1/cycles/:id/reassign - associates
// records without a cycle to the given cycle (admins only)
func ReassignRecords(c *gin.Context) {
	cycleID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	db := config.GetDB()
	affected, err := services.ReassignUnlinkedRecords(db, cycleID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"records_reassigned": affected,
		},
	})
}
