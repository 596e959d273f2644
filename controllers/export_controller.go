package controllers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/maintenix/maintenix-api/config"
	"github.com/maintenix/maintenix-api/services"
)

// ExportRecords handles GET /api/v1/exports/records - renders the caller's
// scope to a spreadsheet (admins only). When an S3 bucket is configured the
// artifact is stored there and a presigned download URL is returned;
// otherwise the bytes are streamed directly.
func ExportRecords(c *gin.Context) {
	scope, ok := requestScope(c)
	if !ok {
		return
	}

	recordScope, ok := resolveRequestScope(c, scope)
	if !ok {
		return
	}

	buf, filename, err := services.ExportRecords(config.GetDB(), recordScope)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	s3Service := services.GetS3Service()
	if s3Service == nil {
		// No artifact store configured; stream the file directly
		c.Header("Content-Disposition", "attachment; filename="+filename)
		c.Data(http.StatusOK, services.ExportContentType, buf.Bytes())
		return
	}

	s3Key, err := s3Service.UploadArtifact(filename, buf.Bytes(), services.ExportContentType)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "STORAGE_ERROR",
				"message": "Failed to store export artifact",
			},
		})
		return
	}

	url, err := s3Service.GetPresignedURL(s3Key)
	if err != nil {
		// Don't leave an unreachable artifact behind
		if deleteErr := s3Service.DeleteArtifact(s3Key); deleteErr != nil {
			log.Printf("Failed to delete orphaned export artifact %s: %v", s3Key, deleteErr)
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "STORAGE_ERROR",
				"message": "Failed to generate download URL",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"filename":     filename,
			"download_url": url,
		},
	})
}
