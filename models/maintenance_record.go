package models

import (
	"time"
)

// MaintenanceRecord represents one logged equipment service visit
type MaintenanceRecord struct {
	ID              uint     `gorm:"primaryKey" json:"id"`
	Site            string   `json:"site"`
	Date            string   `gorm:"index" json:"date"` // YYYY-MM-DD
	Area            string   `json:"area"`
	Technician      string   `json:"technician"` // display name of the technician who logged the visit
	MachineName     string   `json:"machine_name"`
	MachineUser     string   `json:"machine_user"`
	EquipmentType   string   `json:"equipment_type"`
	Brand           string   `json:"brand"`
	Model           string   `json:"model"`
	Serial          string   `json:"serial"`
	OperatingSystem string   `json:"operating_system"`
	OfficeSuite     string   `json:"office_suite"`
	Antivirus       string   `json:"antivirus"`
	Compressor      string   `json:"compressor"`
	RemoteAccess    string   `json:"remote_access"`
	AssetTag        string   `json:"asset_tag"`
	Observations    string   `gorm:"type:text" json:"observations"`
	Closed          bool     `gorm:"not null;default:false" json:"closed"`
	CycleID         *uint    `gorm:"index" json:"cycle_id"`   // nullable, legacy records predate cycles
	Cycle           *Cycle   `gorm:"foreignKey:CycleID;constraint:OnDelete:SET NULL" json:"cycle,omitempty"`
	CompanyID       *uint    `gorm:"index" json:"company_id"` // nullable
	Company         *Company `gorm:"foreignKey:CompanyID;constraint:OnDelete:SET NULL" json:"company,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// TableName specifies the table name for the MaintenanceRecord model
func (MaintenanceRecord) TableName() string {
	return "maintenance_records"
}
