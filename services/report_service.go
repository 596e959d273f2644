package services

import (
	"errors"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/maintenix/maintenix-api/models"
)

// Sites is the fixed list of site names records are filed under. "Todas" is
// the sentinel that disables site filtering.
var Sites = []string{
	"Todas", "Nivel Central", "Barranquilla", "Soledad", "Santa Marta",
	"El Banco", "Monteria", "Sincelejo", "Valledupar",
	"El Carmen de Bolivar", "Magangue",
}

// SiteFilterAll disables the site filter
const SiteFilterAll = "Todas"

// RecordScope is the resolved cycle/company selection every report query
// filters by. At most one of CycleID/CompanyID is applied: a cycle scope
// already implies its company.
type RecordScope struct {
	CycleID   *uint
	CompanyID *uint
}

// ResolveScope turns the caller's scope plus an optional explicitly selected
// cycle into the record scope used by listings, the dashboard and exports.
// Precedence: explicit cycle (when it belongs to the caller's company),
// then the company's active cycle, then the whole company, and the unscoped
// view only when the caller has no company at all. Getting this order wrong
// would leak records across companies or mix closed cycles into dashboards.
func ResolveScope(db *gorm.DB, scope Scope, requestedCycleID *uint) (RecordScope, error) {
	if requestedCycleID != nil {
		var cycle models.Cycle
		err := db.First(&cycle, *requestedCycleID).Error
		if err == nil {
			sameCompany := scope.CompanyID == nil ||
				(cycle.CompanyID != nil && *cycle.CompanyID == *scope.CompanyID)
			if sameCompany {
				return RecordScope{CycleID: &cycle.ID}, nil
			}
			// A cycle outside the caller's company falls through as if
			// nothing was selected
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return RecordScope{}, err
		}
	}

	active, err := GetActiveCycle(db, scope.CompanyID)
	if err != nil {
		return RecordScope{}, err
	}
	if active != nil {
		return RecordScope{CycleID: &active.ID}, nil
	}

	if scope.CompanyID != nil {
		return RecordScope{CompanyID: scope.CompanyID}, nil
	}
	return RecordScope{}, nil
}

// apply adds the scope's WHERE clauses to a record query
func (rs RecordScope) apply(query *gorm.DB) *gorm.DB {
	if rs.CycleID != nil {
		return query.Where("cycle_id = ?", *rs.CycleID)
	}
	if rs.CompanyID != nil {
		return query.Where("company_id = ?", *rs.CompanyID)
	}
	return query
}

// freeTextColumns are the record fields the free-text search matches against
var freeTextColumns = []string{
	"site", "area", "technician", "machine_name", "machine_user",
	"equipment_type", "brand", "model", "serial", "observations",
}

// RecordFilters holds the optional search filters for record listings
type RecordFilters struct {
	FreeText string
	Site     string // exact site name, or "Todas"/"" for all
	Scope    RecordScope
}

// apply adds the filters' WHERE clauses to a record query
func (f RecordFilters) apply(query *gorm.DB) *gorm.DB {
	query = f.Scope.apply(query)

	if f.FreeText != "" {
		like := "%" + strings.ToLower(f.FreeText) + "%"
		var clauses []string
		var args []interface{}
		for _, col := range freeTextColumns {
			clauses = append(clauses, "LOWER("+col+") LIKE ?")
			args = append(args, like)
		}
		query = query.Where(strings.Join(clauses, " OR "), args...)
	}

	if f.Site != "" && f.Site != SiteFilterAll {
		query = query.Where("site = ?", f.Site)
	}

	return query
}

// ListRecords returns one page of records matching the filters, ordered by
// date ascending, along with the total match count for pagination.
func ListRecords(db *gorm.DB, filters RecordFilters, page, pageSize int) ([]models.MaintenanceRecord, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}

	query := filters.apply(db.Model(&models.MaintenanceRecord{}))

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var records []models.MaintenanceRecord
	err := query.Order("date ASC").
		Limit(pageSize).
		Offset((page - 1) * pageSize).
		Find(&records).Error
	if err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

// RecentRecords returns the newest records in the scope, id descending, for
// the dashboard feed.
func RecentRecords(db *gorm.DB, scope RecordScope, limit int) ([]models.MaintenanceRecord, error) {
	if limit < 1 {
		limit = 10
	}
	var records []models.MaintenanceRecord
	err := scope.apply(db.Model(&models.MaintenanceRecord{})).
		Order("id DESC").Limit(limit).Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

// CountBucket is one label/count pair in a grouped statistic
type CountBucket struct {
	Label string `json:"label"`
	Count int64  `json:"count"`
}

// Summary holds the dashboard statistics for one scope
type Summary struct {
	TotalRecords        int64         `json:"total_records"`
	DistinctTechnicians int64         `json:"distinct_technicians"`
	RecordsThisMonth    int64         `json:"records_this_month"`
	TopEquipmentType    string        `json:"top_equipment_type"`
	TopBrands           []CountBucket `json:"top_brands"`
	BySite              []CountBucket `json:"by_site"`
	ByEquipmentType     []CountBucket `json:"by_equipment_type"`
	ByMonth             []CountBucket `json:"by_month"`
}

// Aggregate computes the dashboard statistics for a scope. Records whose date
// does not parse are left out of the month buckets but still count toward the
// totals; a few bad rows must not take down the whole dashboard.
func Aggregate(db *gorm.DB, scope RecordScope) (*Summary, error) {
	base := func() *gorm.DB {
		return scope.apply(db.Model(&models.MaintenanceRecord{}))
	}

	summary := &Summary{TopEquipmentType: "N/A"}

	if err := base().Count(&summary.TotalRecords).Error; err != nil {
		return nil, err
	}

	if err := base().Distinct("technician").Count(&summary.DistinctTechnicians).Error; err != nil {
		return nil, err
	}

	currentMonth := time.Now().Format("2006-01")
	if err := base().Where("date LIKE ?", currentMonth+"%").Count(&summary.RecordsThisMonth).Error; err != nil {
		return nil, err
	}

	// Per-equipment-type counts; the top type breaks count ties on the type
	// name so the result does not depend on row return order
	var byType []CountBucket
	err := base().Select("equipment_type AS label, COUNT(*) AS count").
		Group("equipment_type").
		Order("count DESC, equipment_type ASC").
		Scan(&byType).Error
	if err != nil {
		return nil, err
	}
	summary.ByEquipmentType = byType
	if len(byType) > 0 {
		summary.TopEquipmentType = byType[0].Label
	}

	err = base().Select("brand AS label, COUNT(*) AS count").
		Group("brand").
		Order("count DESC, brand ASC").
		Limit(6).
		Scan(&summary.TopBrands).Error
	if err != nil {
		return nil, err
	}

	err = base().Select("site AS label, COUNT(*) AS count").
		Group("site").
		Order("site ASC").
		Scan(&summary.BySite).Error
	if err != nil {
		return nil, err
	}

	byMonth, err := monthBuckets(base())
	if err != nil {
		return nil, err
	}
	summary.ByMonth = byMonth

	return summary, nil
}

// monthBuckets loads the record dates of a scope and groups them by calendar
// month. Parsing happens here rather than in SQL so malformed dates degrade
// to a skipped row instead of a failed query.
func monthBuckets(query *gorm.DB) ([]CountBucket, error) {
	var dates []string
	if err := query.Pluck("date", &dates).Error; err != nil {
		return nil, err
	}

	counts := make(map[string]int64)
	for _, d := range dates {
		parsed, err := time.Parse("2006-01-02", d)
		if err != nil {
			continue
		}
		counts[parsed.Format("2006-01")]++
	}

	months := make([]string, 0, len(counts))
	for m := range counts {
		months = append(months, m)
	}
	sort.Strings(months)

	buckets := make([]CountBucket, 0, len(months))
	for _, m := range months {
		buckets = append(buckets, CountBucket{Label: m, Count: counts[m]})
	}
	return buckets, nil
}
