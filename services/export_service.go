package services

import (
	"bytes"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"github.com/maintenix/maintenix-api/models"
)

// exportColumns is the explicit, ordered field list of the spreadsheet.
// Header text and cell values are derived from this list only; the export
// never iterates an untyped row.
var exportColumns = []struct {
	header string
	value  func(r *models.MaintenanceRecord) interface{}
}{
	{"ID", func(r *models.MaintenanceRecord) interface{} { return r.ID }},
	{"Sede", func(r *models.MaintenanceRecord) interface{} { return r.Site }},
	{"Fecha", func(r *models.MaintenanceRecord) interface{} { return r.Date }},
	{"Area", func(r *models.MaintenanceRecord) interface{} { return r.Area }},
	{"Tecnico", func(r *models.MaintenanceRecord) interface{} { return r.Technician }},
	{"Nombre Maquina", func(r *models.MaintenanceRecord) interface{} { return r.MachineName }},
	{"Usuario", func(r *models.MaintenanceRecord) interface{} { return r.MachineUser }},
	{"Tipo Equipo", func(r *models.MaintenanceRecord) interface{} { return r.EquipmentType }},
	{"Marca", func(r *models.MaintenanceRecord) interface{} { return r.Brand }},
	{"Modelo", func(r *models.MaintenanceRecord) interface{} { return r.Model }},
	{"Serial", func(r *models.MaintenanceRecord) interface{} { return r.Serial }},
	{"Sistema Operativo", func(r *models.MaintenanceRecord) interface{} { return r.OperatingSystem }},
	{"Office", func(r *models.MaintenanceRecord) interface{} { return r.OfficeSuite }},
	{"Antivirus", func(r *models.MaintenanceRecord) interface{} { return r.Antivirus }},
	{"Compresor", func(r *models.MaintenanceRecord) interface{} { return r.Compressor }},
	{"Control Remoto", func(r *models.MaintenanceRecord) interface{} { return r.RemoteAccess }},
	{"Activo Fijo", func(r *models.MaintenanceRecord) interface{} { return r.AssetTag }},
	{"Observaciones", func(r *models.MaintenanceRecord) interface{} { return r.Observations }},
	{"Cerrado", func(r *models.MaintenanceRecord) interface{} { return r.Closed }},
}

// ExportContentType is the MIME type of the generated spreadsheet
const ExportContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportRecords renders every record in the scope to an .xlsx workbook,
// newest first. Returns ErrNothingToExport when the scope matches no records.
// Export is read-only: it never touches cycle or record state.
func ExportRecords(db *gorm.DB, scope RecordScope) (*bytes.Buffer, string, error) {
	var records []models.MaintenanceRecord
	err := scope.apply(db.Model(&models.MaintenanceRecord{})).
		Order("date DESC").Find(&records).Error
	if err != nil {
		return nil, "", err
	}
	if len(records) == 0 {
		return nil, "", ErrNothingToExport
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Mantenimiento"
	f.SetSheetName("Sheet1", sheet)

	header := make([]interface{}, len(exportColumns))
	for i, col := range exportColumns {
		header[i] = col.header
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, "", err
	}

	for i := range records {
		row := make([]interface{}, len(exportColumns))
		for j, col := range exportColumns {
			row[j] = col.value(&records[i])
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, "", err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, "", err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("Mantenimiento_%s.xlsx", time.Now().Format("20060102"))
	return buf, filename, nil
}
