package models

// RecordFilter narrows record listings. Empty fields match everything.
type RecordFilter struct {
	StartDate        string `form:"start_date" json:"start_date" binding:"omitempty,isodate"`
	EndDate          string `form:"end_date" json:"end_date" binding:"omitempty,isodate"`
	Name             string `form:"name" json:"name"`
	Product          string `form:"product" json:"product"`
	Process          string `form:"process" json:"process"`
	AdjustmentMaster string `form:"adjustment_master" json:"adjustment_master"`
}

// Match applies the filter to a single record. Dates compare lexically,
// which is chronological for YYYY-MM-DD.
func (f RecordFilter) Match(r ProductionRecord) bool {
	if f.StartDate != "" && r.Date < f.StartDate {
		return false
	}
	if f.EndDate != "" && r.Date > f.EndDate {
		return false
	}
	if f.Name != "" && r.Name != f.Name {
		return false
	}
	if f.Product != "" && r.Product != f.Product {
		return false
	}
	if f.Process != "" && r.Process != f.Process {
		return false
	}
	if f.AdjustmentMaster != "" && r.AdjustmentMaster != f.AdjustmentMaster {
		return false
	}
	return true
}
