package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/maintenix/maintenix-api/services"
)

// respondServiceError maps a domain error to the API error envelope. Every
// sentinel from the services package becomes a user-visible rejection; only
// genuine storage faults fall through to a 500.
func respondServiceError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	code := "INTERNAL_ERROR"

	switch {
	case errors.Is(err, services.ErrValidation):
		status, code = http.StatusBadRequest, "VALIDATION_ERROR"
	case errors.Is(err, services.ErrNotFound):
		status, code = http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, services.ErrRecordLocked):
		status, code = http.StatusConflict, "RECORD_LOCKED"
	case errors.Is(err, services.ErrUniqueness):
		status, code = http.StatusConflict, "DUPLICATE"
	case errors.Is(err, services.ErrDelivery):
		status, code = http.StatusBadGateway, "DELIVERY_FAILURE"
	case errors.Is(err, services.ErrNothingToExport):
		status, code = http.StatusNotFound, "NOTHING_TO_EXPORT"
	}

	message := err.Error()
	if status == http.StatusInternalServerError {
		// Don't leak internals to clients
		message = "Unexpected server error"
	}

	c.JSON(status, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}
