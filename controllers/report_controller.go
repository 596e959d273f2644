package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/maintenix/maintenix-api/config"
	"github.com/maintenix/maintenix-api/services"
)

// GetSummary handles GET /api/v1/reports/summary - dashboard statistics for
// the caller's scope. An explicit ?cycle_id= narrows the scope to that cycle
// when it belongs to the caller's company.
func GetSummary(c *gin.Context) {
	scope, ok := requestScope(c)
	if !ok {
		return
	}

	recordScope, ok := resolveRequestScope(c, scope)
	if !ok {
		return
	}

	summary, err := services.Aggregate(config.GetDB(), recordScope)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    summary,
	})
}

// GetSites handles GET /api/v1/reports/sites - the fixed site list used by
// the search filter
func GetSites(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    services.Sites,
	})
}
