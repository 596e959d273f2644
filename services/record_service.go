package services

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/maintenix/maintenix-api/models"
)

// RecordInput holds the writable fields of a maintenance record
type RecordInput struct {
	Site            string
	Date            string
	Area            string
	MachineName     string
	MachineUser     string
	EquipmentType   string
	Brand           string
	Model           string
	Serial          string
	OperatingSystem string
	OfficeSuite     string
	Antivirus       string
	Compressor      string
	RemoteAccess    string
	AssetTag        string
	Observations    string
}

// IsEditable decides whether a record may still be modified. The owning cycle
// is re-read on every call rather than trusted from an earlier fetch, because
// a cycle can close between loading a record for editing and submitting the
// update.
//
// A record is editable iff it is not individually closed and its cycle, when
// it has one, is still active. Records with no cycle (legacy data) stay
// editable until explicitly closed.
func IsEditable(db *gorm.DB, record *models.MaintenanceRecord) (bool, error) {
	if record.Closed {
		return false, nil
	}
	if record.CycleID == nil {
		return true, nil
	}

	var cycle models.Cycle
	err := db.First(&cycle, *record.CycleID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// Dangling cycle reference is treated as a closed cycle
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return cycle.Active, nil
}

// CreateRecord inserts a new maintenance record against the scope's active
// cycle. Technicians cannot create records while no cycle is open for their
// company.
func CreateRecord(db *gorm.DB, scope Scope, input RecordInput) (*models.MaintenanceRecord, error) {
	active, err := GetActiveCycle(db, scope.CompanyID)
	if err != nil {
		return nil, err
	}
	if active == nil {
		return nil, fmt.Errorf("%w: no active cycle, contact an administrator", ErrValidation)
	}

	if input.Date == "" {
		input.Date = today()
	}

	record := models.MaintenanceRecord{
		Site:            input.Site,
		Date:            input.Date,
		Area:            input.Area,
		Technician:      scope.TechnicianName,
		MachineName:     strings.ToUpper(input.MachineName),
		MachineUser:     input.MachineUser,
		EquipmentType:   input.EquipmentType,
		Brand:           strings.ToUpper(input.Brand),
		Model:           strings.ToUpper(input.Model),
		Serial:          strings.ToUpper(input.Serial),
		OperatingSystem: input.OperatingSystem,
		OfficeSuite:     input.OfficeSuite,
		Antivirus:       input.Antivirus,
		Compressor:      input.Compressor,
		RemoteAccess:    input.RemoteAccess,
		AssetTag:        input.AssetTag,
		Observations:    input.Observations,
		CycleID:         &active.ID,
		CompanyID:       scope.CompanyID,
	}

	if err := db.Create(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

// GetRecord fetches one record by id
func GetRecord(db *gorm.DB, recordID uint) (*models.MaintenanceRecord, error) {
	var record models.MaintenanceRecord
	if err := db.First(&record, recordID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: record %d", ErrNotFound, recordID)
		}
		return nil, err
	}
	return &record, nil
}

// UpdateRecord applies the input to an existing record. Editability is
// checked inside the write transaction so a cycle closing concurrently
// rejects the update instead of silently applying it.
func UpdateRecord(db *gorm.DB, recordID uint, input RecordInput) (*models.MaintenanceRecord, error) {
	var record models.MaintenanceRecord

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&record, recordID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: record %d", ErrNotFound, recordID)
			}
			return err
		}

		editable, err := IsEditable(tx, &record)
		if err != nil {
			return err
		}
		if !editable {
			return fmt.Errorf("%w: record %d", ErrRecordLocked, recordID)
		}

		updates := map[string]interface{}{
			"site":             input.Site,
			"date":             input.Date,
			"area":             input.Area,
			"machine_name":     strings.ToUpper(input.MachineName),
			"machine_user":     input.MachineUser,
			"equipment_type":   input.EquipmentType,
			"brand":            strings.ToUpper(input.Brand),
			"model":            strings.ToUpper(input.Model),
			"serial":           strings.ToUpper(input.Serial),
			"operating_system": input.OperatingSystem,
			"office_suite":     input.OfficeSuite,
			"antivirus":        input.Antivirus,
			"compressor":       input.Compressor,
			"remote_access":    input.RemoteAccess,
			"asset_tag":        input.AssetTag,
			"observations":     input.Observations,
		}
		return tx.Model(&record).Updates(updates).Error
	})
	if err != nil {
		return nil, err
	}

	if err := db.First(&record, recordID).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

// DeleteRecord removes a record. Only editable records may be deleted, under
// the same in-transaction check as updates.
func DeleteRecord(db *gorm.DB, recordID uint) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var record models.MaintenanceRecord
		if err := tx.First(&record, recordID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: record %d", ErrNotFound, recordID)
			}
			return err
		}

		editable, err := IsEditable(tx, &record)
		if err != nil {
			return err
		}
		if !editable {
			return fmt.Errorf("%w: record %d", ErrRecordLocked, recordID)
		}

		return tx.Delete(&record).Error
	})
}
