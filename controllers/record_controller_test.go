package controllers

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"github.com/maintenix/maintenix-api/models"
	"github.com/maintenix/maintenix-api/services"
)

// seedCompanyWithCycle creates a company with one active cycle for record tests
func seedCompanyWithCycle(t *testing.T, db *gorm.DB) (*models.Company, *models.Cycle) {
	t.Helper()

	company := models.Company{Name: "Acme"}
	if err := db.Create(&company).Error; err != nil {
		t.Fatalf("Failed to create company: %v", err)
	}

	cycle, err := services.OpenCycle(db, company.ID, services.OpenCycleInput{Name: "Q1"})
	if err != nil {
		t.Fatalf("Failed to open cycle: %v", err)
	}
	return &company, cycle
}

func TestCreateRecordEndpoint(t *testing.T) {
	db := setupControllerTestDB(t)
	company, cycle := seedCompanyWithCycle(t, db)

	router := setupTestRouter()
	router.POST("/records", mockScopeMiddleware(technicianScope(&company.ID)), CreateRecord)

	t.Run("creates a record in the active cycle", func(t *testing.T) {
		w, response := performJSON(t, router, http.MethodPost, "/records", map[string]interface{}{
			"machine_name": "pc-sala-01",
			"site":         "Soledad",
			"date":         "2025-01-15",
			"brand":        "dell",
			"serial":       "abc123",
		})
		assert.Equal(t, http.StatusCreated, w.Code)

		data := response["data"].(map[string]interface{})
		assert.Equal(t, "PC-SALA-01", data["machine_name"], "identifiers are normalized to uppercase")
		assert.Equal(t, "DELL", data["brand"])
		assert.Equal(t, "ABC123", data["serial"])
		assert.Equal(t, "Juan Doe", data["technician"], "technician comes from the token, not the body")
		assert.Equal(t, float64(cycle.ID), data["cycle_id"])
	})

	t.Run("missing machine name", func(t *testing.T) {
		w, response := performJSON(t, router, http.MethodPost, "/records", map[string]interface{}{
			"site": "Soledad",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "VALIDATION_ERROR", errorCode(response))
	})

	t.Run("rejected when no cycle is open", func(t *testing.T) {
		_, _, err := services.CloseCycle(db, cycle.ID)
		assert.NoError(t, err)

		w, response := performJSON(t, router, http.MethodPost, "/records", map[string]interface{}{
			"machine_name": "PC-02",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "VALIDATION_ERROR", errorCode(response))
	})
}

func TestListRecordsEndpoint(t *testing.T) {
	db := setupControllerTestDB(t)
	company, cycle := seedCompanyWithCycle(t, db)

	for i := 1; i <= 25; i++ {
		db.Create(&models.MaintenanceRecord{
			MachineName: fmt.Sprintf("PC-%02d", i),
			Site:        "Soledad",
			Date:        fmt.Sprintf("2025-01-%02d", i),
			CycleID:     &cycle.ID,
			CompanyID:   &company.ID,
		})
	}
	db.Create(&models.MaintenanceRecord{
		MachineName: "IMPRESORA-01",
		Site:        "Monteria",
		Date:        "2025-01-30",
		CycleID:     &cycle.ID,
		CompanyID:   &company.ID,
	})

	router := setupTestRouter()
	router.GET("/records", mockScopeMiddleware(technicianScope(&company.ID)), ListRecords)

	t.Run("default pagination", func(t *testing.T) {
		w, response := performJSON(t, router, http.MethodGet, "/records", nil)
		assert.Equal(t, http.StatusOK, w.Code)

		data := response["data"].([]interface{})
		assert.Len(t, data, 20)

		pagination := response["pagination"].(map[string]interface{})
		assert.Equal(t, float64(1), pagination["page"])
		assert.Equal(t, float64(20), pagination["page_size"])
		assert.Equal(t, float64(26), pagination["total"])
		assert.Equal(t, float64(2), pagination["total_pages"])
	})

	t.Run("second page", func(t *testing.T) {
		w, response := performJSON(t, router, http.MethodGet, "/records?page=2", nil)
		assert.Equal(t, http.StatusOK, w.Code)

		data := response["data"].([]interface{})
		assert.Len(t, data, 6)
	})

	t.Run("free text search", func(t *testing.T) {
		w, response := performJSON(t, router, http.MethodGet, "/records?q=impresora", nil)
		assert.Equal(t, http.StatusOK, w.Code)

		data := response["data"].([]interface{})
		assert.Len(t, data, 1)
		record := data[0].(map[string]interface{})
		assert.Equal(t, "IMPRESORA-01", record["machine_name"])
	})

	t.Run("site filter", func(t *testing.T) {
		w, response := performJSON(t, router, http.MethodGet, "/records?site=Monteria", nil)
		assert.Equal(t, http.StatusOK, w.Code)

		pagination := response["pagination"].(map[string]interface{})
		assert.Equal(t, float64(1), pagination["total"])
	})

	t.Run("invalid cycle_id parameter", func(t *testing.T) {
		w, response := performJSON(t, router, http.MethodGet, "/records?cycle_id=abc", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "VALIDATION_ERROR", errorCode(response))
	})

	// page_size=0 and non-numeric values fall back to the default instead of
	// blowing up the total_pages computation
	t.Run("zero page_size falls back to default", func(t *testing.T) {
		w, response := performJSON(t, router, http.MethodGet, "/records?page_size=0", nil)
		assert.Equal(t, http.StatusOK, w.Code)

		data := response["data"].([]interface{})
		assert.Len(t, data, 20)

		pagination := response["pagination"].(map[string]interface{})
		assert.Equal(t, float64(20), pagination["page_size"])
		assert.Equal(t, float64(2), pagination["total_pages"])
	})

	t.Run("non-numeric pagination falls back to defaults", func(t *testing.T) {
		w, response := performJSON(t, router, http.MethodGet, "/records?page=abc&page_size=abc", nil)
		assert.Equal(t, http.StatusOK, w.Code)

		pagination := response["pagination"].(map[string]interface{})
		assert.Equal(t, float64(1), pagination["page"])
		assert.Equal(t, float64(20), pagination["page_size"])
	})

	t.Run("negative page clamps to first page", func(t *testing.T) {
		w, response := performJSON(t, router, http.MethodGet, "/records?page=-3", nil)
		assert.Equal(t, http.StatusOK, w.Code)

		pagination := response["pagination"].(map[string]interface{})
		assert.Equal(t, float64(1), pagination["page"])
	})
}

func TestListRecordsScopedToActiveCycle(t *testing.T) {
	db := setupControllerTestDB(t)
	company, oldCycle := seedCompanyWithCycle(t, db)

	db.Create(&models.MaintenanceRecord{
		MachineName: "OLD-01", Date: "2025-01-01", CycleID: &oldCycle.ID, CompanyID: &company.ID,
	})

	// A new cycle supersedes the old one; default listings follow it
	newCycle, err := services.OpenCycle(db, company.ID, services.OpenCycleInput{Name: "Q2"})
	assert.NoError(t, err)
	db.Create(&models.MaintenanceRecord{
		MachineName: "NEW-01", Date: "2025-04-01", CycleID: &newCycle.ID, CompanyID: &company.ID,
	})

	router := setupTestRouter()
	router.GET("/records", mockScopeMiddleware(technicianScope(&company.ID)), ListRecords)

	t.Run("defaults to the active cycle", func(t *testing.T) {
		w, response := performJSON(t, router, http.MethodGet, "/records", nil)
		assert.Equal(t, http.StatusOK, w.Code)

		data := response["data"].([]interface{})
		assert.Len(t, data, 1)
		record := data[0].(map[string]interface{})
		assert.Equal(t, "NEW-01", record["machine_name"])
	})

	t.Run("explicit cycle_id selects a closed cycle", func(t *testing.T) {
		w, response := performJSON(t, router, http.MethodGet, fmt.Sprintf("/records?cycle_id=%d", oldCycle.ID), nil)
		assert.Equal(t, http.StatusOK, w.Code)

		data := response["data"].([]interface{})
		assert.Len(t, data, 1)
		record := data[0].(map[string]interface{})
		assert.Equal(t, "OLD-01", record["machine_name"])
	})
}

func TestRecentRecordsEndpoint(t *testing.T) {
	db := setupControllerTestDB(t)
	company, cycle := seedCompanyWithCycle(t, db)

	for i := 1; i <= 5; i++ {
		db.Create(&models.MaintenanceRecord{
			MachineName: fmt.Sprintf("PC-%02d", i),
			CycleID:     &cycle.ID,
			CompanyID:   &company.ID,
		})
	}

	router := setupTestRouter()
	router.GET("/records/recent", mockScopeMiddleware(technicianScope(&company.ID)), RecentRecords)

	w, response := performJSON(t, router, http.MethodGet, "/records/recent?limit=3", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	data := response["data"].([]interface{})
	assert.Len(t, data, 3)
	first := data[0].(map[string]interface{})
	assert.Equal(t, "PC-05", first["machine_name"], "newest first")
}

func TestGetRecordEndpoint(t *testing.T) {
	db := setupControllerTestDB(t)
	company, cycle := seedCompanyWithCycle(t, db)

	record := models.MaintenanceRecord{MachineName: "PC-01", CycleID: &cycle.ID, CompanyID: &company.ID}
	db.Create(&record)

	router := setupTestRouter()
	router.GET("/records/:id", mockScopeMiddleware(technicianScope(&company.ID)), GetRecord)

	t.Run("editable while the cycle is open", func(t *testing.T) {
		w, response := performJSON(t, router, http.MethodGet, fmt.Sprintf("/records/%d", record.ID), nil)
		assert.Equal(t, http.StatusOK, w.Code)

		data := response["data"].(map[string]interface{})
		assert.True(t, data["editable"].(bool))

		recordData := data["record"].(map[string]interface{})
		assert.Equal(t, "PC-01", recordData["machine_name"])
	})

	t.Run("not editable after the cycle closes", func(t *testing.T) {
		_, _, err := services.CloseCycle(db, cycle.ID)
		assert.NoError(t, err)

		w, response := performJSON(t, router, http.MethodGet, fmt.Sprintf("/records/%d", record.ID), nil)
		assert.Equal(t, http.StatusOK, w.Code)

		data := response["data"].(map[string]interface{})
		assert.False(t, data["editable"].(bool))
	})

	t.Run("unknown record", func(t *testing.T) {
		w, response := performJSON(t, router, http.MethodGet, "/records/9999", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "NOT_FOUND", errorCode(response))
	})
}

func TestUpdateRecordEndpoint(t *testing.T) {
	db := setupControllerTestDB(t)
	company, cycle := seedCompanyWithCycle(t, db)

	record := models.MaintenanceRecord{
		MachineName: "PC-01", Site: "Soledad", Date: "2025-01-10",
		CycleID: &cycle.ID, CompanyID: &company.ID,
	}
	db.Create(&record)

	router := setupTestRouter()
	router.PUT("/records/:id", mockScopeMiddleware(technicianScope(&company.ID)), UpdateRecord)

	body := map[string]interface{}{
		"machine_name": "pc-01",
		"site":         "Monteria",
		"date":         "2025-01-10",
		"observations": "Cambio de memoria RAM",
	}

	t.Run("updates an editable record", func(t *testing.T) {
		w, response := performJSON(t, router, http.MethodPut, fmt.Sprintf("/records/%d", record.ID), body)
		assert.Equal(t, http.StatusOK, w.Code)

		data := response["data"].(map[string]interface{})
		assert.Equal(t, "Monteria", data["site"])
		assert.Equal(t, "Cambio de memoria RAM", data["observations"])
	})

	t.Run("locked after the cycle closes", func(t *testing.T) {
		_, _, err := services.CloseCycle(db, cycle.ID)
		assert.NoError(t, err)

		w, response := performJSON(t, router, http.MethodPut, fmt.Sprintf("/records/%d", record.ID), body)
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "RECORD_LOCKED", errorCode(response))
	})
}

func TestDeleteRecordEndpoint(t *testing.T) {
	db := setupControllerTestDB(t)
	company, cycle := seedCompanyWithCycle(t, db)

	editable := models.MaintenanceRecord{MachineName: "PC-01", CycleID: &cycle.ID, CompanyID: &company.ID}
	db.Create(&editable)
	locked := models.MaintenanceRecord{MachineName: "PC-02", Closed: true, CycleID: &cycle.ID, CompanyID: &company.ID}
	db.Create(&locked)

	router := setupTestRouter()
	router.DELETE("/records/:id", mockScopeMiddleware(adminScope()), DeleteRecord)

	t.Run("deletes an editable record", func(t *testing.T) {
		w, _ := performJSON(t, router, http.MethodDelete, fmt.Sprintf("/records/%d", editable.ID), nil)
		assert.Equal(t, http.StatusOK, w.Code)

		var count int64
		db.Model(&models.MaintenanceRecord{}).Where("id = ?", editable.ID).Count(&count)
		assert.Equal(t, int64(0), count)
	})

	t.Run("locked record cannot be deleted", func(t *testing.T) {
		w, response := performJSON(t, router, http.MethodDelete, fmt.Sprintf("/records/%d", locked.ID), nil)
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "RECORD_LOCKED", errorCode(response))

		var count int64
		db.Model(&models.MaintenanceRecord{}).Where("id = ?", locked.ID).Count(&count)
		assert.Equal(t, int64(1), count)
	})
}
