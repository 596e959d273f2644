package services

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/maintenix/maintenix-api/models"
)

// OpenCycleInput holds the fields for creating a new reporting cycle
type OpenCycleInput struct {
	Name      string
	Quarter   int
	Year      int
	StartDate string
	Notes     string
}

// today returns the current date in the YYYY-MM-DD format used by the
// cycle and record date columns
func today() string {
	return time.Now().Format("2006-01-02")
}

// OpenCycle creates a new active cycle for a company. Any cycle of the same
// company that is still active is closed first (close date set to today and
// all of its records frozen), inside the same transaction as the insert, so
// a failed insert leaves the previous cycle untouched and the
// one-active-cycle-per-company invariant holds at every commit point.
func OpenCycle(db *gorm.DB, companyID uint, input OpenCycleInput) (*models.Cycle, error) {
	if companyID == 0 {
		return nil, fmt.Errorf("%w: company is required to open a cycle", ErrValidation)
	}

	var company models.Company
	if err := db.First(&company, companyID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: company %d does not exist", ErrValidation, companyID)
		}
		return nil, err
	}

	// Fill defaults the same way the admin form does
	if input.Name == "" {
		input.Name = fmt.Sprintf("Ciclo %s", time.Now().Format("Jan 2006"))
	}
	if input.Quarter == 0 {
		input.Quarter = 1
	}
	if input.Year == 0 {
		input.Year = time.Now().Year()
	}
	if input.StartDate == "" {
		input.StartDate = today()
	}

	cycle := models.Cycle{
		Name:      input.Name,
		Quarter:   input.Quarter,
		Year:      input.Year,
		StartDate: input.StartDate,
		Notes:     input.Notes,
		Active:    true,
		CompanyID: &companyID,
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		// Close any active cycle of this company and freeze its records
		var priorActive []models.Cycle
		if err := tx.Where("active = ? AND company_id = ?", true, companyID).Find(&priorActive).Error; err != nil {
			return err
		}
		for _, prior := range priorActive {
			if err := closeCycleTx(tx, &prior); err != nil {
				return err
			}
		}

		if err := tx.Create(&cycle).Error; err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: a cycle named %q already exists for this company", ErrUniqueness, cycle.Name)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &cycle, nil
}

// closeCycleTx marks a cycle closed and freezes its records. Must run inside
// a transaction.
func closeCycleTx(tx *gorm.DB, cycle *models.Cycle) error {
	closeDate := today()
	if err := tx.Model(&models.Cycle{}).Where("id = ?", cycle.ID).
		Updates(map[string]interface{}{"active": false, "close_date": closeDate}).Error; err != nil {
		return err
	}
	if err := tx.Model(&models.MaintenanceRecord{}).Where("cycle_id = ?", cycle.ID).
		Update("closed", true).Error; err != nil {
		return err
	}
	cycle.Active = false
	cycle.CloseDate = &closeDate
	return nil
}

// CloseCycle closes the given cycle and freezes every record attached to it.
// Closing an already-closed cycle is a reported no-op: alreadyClosed is true
// and no state changes.
func CloseCycle(db *gorm.DB, cycleID uint) (cycle *models.Cycle, alreadyClosed bool, err error) {
	var c models.Cycle
	if err := db.First(&c, cycleID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, fmt.Errorf("%w: cycle %d", ErrNotFound, cycleID)
		}
		return nil, false, err
	}

	if !c.Active {
		return &c, true, nil
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		return closeCycleTx(tx, &c)
	})
	if err != nil {
		return nil, false, err
	}
	return &c, false, nil
}

// GetActiveCycle returns the currently active cycle, scoped to a company when
// companyID is non-nil. When more than one cycle is active for a company
// (which correct use prevents, but is tolerated), the most recent by id wins.
// Returns (nil, nil) when no active cycle exists; callers must handle absence.
func GetActiveCycle(db *gorm.DB, companyID *uint) (*models.Cycle, error) {
	query := db.Where("active = ?", true)
	if companyID != nil {
		query = query.Where("company_id = ?", *companyID)
	}

	var cycle models.Cycle
	err := query.Order("id DESC").First(&cycle).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cycle, nil
}

// ReassignUnlinkedRecords associates records that have no cycle with the given
// cycle, limited to records of the cycle's company or records with no company
// at all. Returns the number of records affected; zero is a valid no-op.
func ReassignUnlinkedRecords(db *gorm.DB, cycleID uint) (int64, error) {
	var cycle models.Cycle
	if err := db.First(&cycle, cycleID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, fmt.Errorf("%w: cycle %d", ErrNotFound, cycleID)
		}
		return 0, err
	}

	updates := map[string]interface{}{"cycle_id": cycle.ID}
	query := db.Model(&models.MaintenanceRecord{}).Where("cycle_id IS NULL")
	if cycle.CompanyID != nil {
		query = query.Where("company_id IS NULL OR company_id = ?", *cycle.CompanyID)
		updates["company_id"] = *cycle.CompanyID
	} else {
		// A company-less cycle only ever adopts company-less records
		query = query.Where("company_id IS NULL")
	}

	result := query.Updates(updates)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// UpdateCycle edits the metadata of a cycle that is still open. Closed cycles
// are immutable through this path.
func UpdateCycle(db *gorm.DB, cycleID uint, input OpenCycleInput) (*models.Cycle, error) {
	var cycle models.Cycle
	if err := db.First(&cycle, cycleID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: cycle %d", ErrNotFound, cycleID)
		}
		return nil, err
	}

	if !cycle.Active {
		return nil, fmt.Errorf("%w: cycle %d is closed", ErrRecordLocked, cycleID)
	}
	if input.Quarter == 0 || input.Year == 0 || input.StartDate == "" {
		return nil, fmt.Errorf("%w: quarter, year and start date are required", ErrValidation)
	}

	updates := map[string]interface{}{
		"quarter":    input.Quarter,
		"year":       input.Year,
		"start_date": input.StartDate,
		"notes":      input.Notes,
	}
	if input.Name != "" {
		updates["name"] = input.Name
	}

	if err := db.Model(&cycle).Updates(updates).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: a cycle named %q already exists for this company", ErrUniqueness, input.Name)
		}
		return nil, err
	}

	if err := db.First(&cycle, cycleID).Error; err != nil {
		return nil, err
	}
	return &cycle, nil
}

// ListCycles returns every cycle of a company, newest first
func ListCycles(db *gorm.DB, companyID uint) ([]models.Cycle, error) {
	var cycles []models.Cycle
	if err := db.Where("company_id = ?", companyID).Order("id DESC").Find(&cycles).Error; err != nil {
		return nil, err
	}
	return cycles, nil
}
