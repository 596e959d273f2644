package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/maintenix/maintenix-api/config"
	"github.com/maintenix/maintenix-api/middleware"
	"github.com/maintenix/maintenix-api/services"
)

// RecordRequest represents the request body for creating or updating a
// maintenance record
type RecordRequest struct {
	Site            string `json:"site"`
	Date            string `json:"date"`
	Area            string `json:"area"`
	MachineName     string `json:"machine_name" binding:"required"`
	MachineUser     string `json:"machine_user"`
	EquipmentType   string `json:"equipment_type"`
	Brand           string `json:"brand"`
	Model           string `json:"model"`
	Serial          string `json:"serial"`
	OperatingSystem string `json:"operating_system"`
	OfficeSuite     string `json:"office_suite"`
	Antivirus       string `json:"antivirus"`
	Compressor      string `json:"compressor"`
	RemoteAccess    string `json:"remote_access"`
	AssetTag        string `json:"asset_tag"`
	Observations    string `json:"observations"`
}

func (r RecordRequest) toInput() services.RecordInput {
	return services.RecordInput{
		Site:            r.Site,
		Date:            r.Date,
		Area:            r.Area,
		MachineName:     r.MachineName,
		MachineUser:     r.MachineUser,
		EquipmentType:   r.EquipmentType,
		Brand:           r.Brand,
		Model:           r.Model,
		Serial:          r.Serial,
		OperatingSystem: r.OperatingSystem,
		OfficeSuite:     r.OfficeSuite,
		Antivirus:       r.Antivirus,
		Compressor:      r.Compressor,
		RemoteAccess:    r.RemoteAccess,
		AssetTag:        r.AssetTag,
		Observations:    r.Observations,
	}
}

// requestScope extracts the caller scope or writes the unauthorized envelope
func requestScope(c *gin.Context) (services.Scope, bool) {
	scope, err := middleware.GetScope(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "UNAUTHORIZED",
				"message": "Could not extract caller identity",
			},
		})
		return services.Scope{}, false
	}
	return scope, true
}

// resolveRequestScope resolves the record scope for listing/report/export
// endpoints from the caller scope plus an optional ?cycle_id= query parameter
func resolveRequestScope(c *gin.Context, scope services.Scope) (services.RecordScope, bool) {
	var requestedCycle *uint
	if raw := c.Query("cycle_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "VALIDATION_ERROR",
					"message": "Invalid cycle_id parameter",
				},
			})
			return services.RecordScope{}, false
		}
		cid := uint(id)
		requestedCycle = &cid
	}

	recordScope, err := services.ResolveScope(config.GetDB(), scope, requestedCycle)
	if err != nil {
		respondServiceError(c, err)
		return services.RecordScope{}, false
	}
	return recordScope, true
}

// CreateRecord handles POST /api/v1/records - logs a maintenance visit
// against the caller's active cycle
func CreateRecord(c *gin.Context) {
	scope, ok := requestScope(c)
	if !ok {
		return
	}

	var req RecordRequest
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

	record, err := services.CreateRecord(config.GetDB(), scope, req.toInput())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    record,
	})
}

// ListRecords handles GET /api/v1/records - paginated search across the
// caller's scope. Query parameters: q (free text), site, cycle_id, page,
// page_size.
func ListRecords(c *gin.Context) {
	scope, ok := requestScope(c)
	if !ok {
		return
	}

	recordScope, ok := resolveRequestScope(c, scope)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}

	filters := services.RecordFilters{
		FreeText: c.Query("q"),
		Site:     c.DefaultQuery("site", services.SiteFilterAll),
		Scope:    recordScope,
	}

	records, total, err := services.ListRecords(config.GetDB(), filters, page, pageSize)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	totalPages := (total + int64(pageSize) - 1) / int64(pageSize)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    records,
		"pagination": gin.H{
			"page":        page,
			"page_size":   pageSize,
			"total":       total,
			"total_pages": totalPages,
		},
	})
}

// RecentRecords handles GET /api/v1/records/recent - the newest records of
// the caller's scope for the dashboard feed
func RecentRecords(c *gin.Context) {
	scope, ok := requestScope(c)
	if !ok {
		return
	}

	recordScope, ok := resolveRequestScope(c, scope)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	records, err := services.RecentRecords(config.GetDB(), recordScope, limit)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    records,
	})
}

// GetRecord handles GET /api/v1/records/:id - returns one record along with
// whether it can currently be edited
func GetRecord(c *gin.Context) {
	recordID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	db := config.GetDB()
	record, err := services.GetRecord(db, recordID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	editable, err := services.IsEditable(db, record)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"record":   record,
			"editable": editable,
		},
	})
}

// UpdateRecord handles PUT /api/v1/records/:id - edits a record while its
// cycle is still open. Records of closed cycles are rejected with
// RECORD_LOCKED.
func UpdateRecord(c *gin.Context) {
	recordID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req RecordRequest
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

	record, err := services.UpdateRecord(config.GetDB(), recordID, req.toInput())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    record,
	})
}

// DeleteRecord handles DELETE /api/v1/records/:id - removes an editable
// record (admins only)
func DeleteRecord(c *gin.Context) {
	recordID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := services.DeleteRecord(config.GetDB(), recordID); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"message": "Record deleted",
		},
	})
}
