package services

import (
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/maintenix/maintenix-api/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.Company{},
		&models.Cycle{},
		&models.MaintenanceRecord{},
		&models.Technician{},
		&models.PasswordResetToken{},
	); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	return db
}

func createTestCompany(t *testing.T, db *gorm.DB, name string) *models.Company {
	t.Helper()
	company := models.Company{Name: name}
	if err := db.Create(&company).Error; err != nil {
		t.Fatalf("Failed to create test company: %v", err)
	}
	return &company
}

func createTestRecord(t *testing.T, db *gorm.DB, record models.MaintenanceRecord) *models.MaintenanceRecord {
	t.Helper()
	if err := db.Create(&record).Error; err != nil {
		t.Fatalf("Failed to create test record: %v", err)
	}
	return &record
}

func uintPtr(v uint) *uint {
	return &v
}
