package models

import (
	"strings"
	"time"
)

// QtySource tells where a record's actual quantity came from.
type QtySource string

const (
	// QtySourceComputed marks a quantity derived from the weight fields.
	QtySourceComputed QtySource = "computed"
	// QtySourceManual marks a quantity typed by the operator.
	QtySourceManual QtySource = "manual"
)

// DateLayout is the storage and wire format of record dates.
const DateLayout = "2006-01-02"

// ProductionRecord captures one operator's shift on a product/process pair.
// Numeric inputs and derived values are kept as text exactly as entered or computed.
type ProductionRecord struct {
	ID               string `bson:"_id" json:"id" gorm:"primaryKey;size:36"`
	Date             string `bson:"date" json:"date" gorm:"size:10;index;not null"`
	Name             string `bson:"name" json:"name" gorm:"size:100;index"`
	Position         string `bson:"position" json:"position" gorm:"size:100"`
	Product          string `bson:"product" json:"product" gorm:"type:text"`
	Process          string `bson:"process" json:"process" gorm:"size:200;index"`
	AdjustmentMaster string `bson:"adjustment_master" json:"adjustment_master" gorm:"size:100"`

	AdjustmentTime   string `bson:"adjustment_time" json:"adjustment_time" gorm:"size:20"`
	DowntimeDuration string `bson:"downtime_duration" json:"downtime_duration" gorm:"size:20"`
	SingleTime       string `bson:"single_time" json:"single_time" gorm:"size:20"`
	TotalWeight      string `bson:"total_weight" json:"total_weight" gorm:"size:20"`
	UnitWeight       string `bson:"unit_weight" json:"unit_weight" gorm:"size:20"`
	TareWeight       string `bson:"tare_weight" json:"tare_weight" gorm:"size:20"`

	TheoreticalRuntime string `bson:"theoretical_runtime" json:"theoretical_runtime" gorm:"size:20"`
	ActualRuntime      string `bson:"actual_runtime" json:"actual_runtime" gorm:"size:20"`
	TheoreticalQty     string `bson:"theoretical_qty" json:"theoretical_qty" gorm:"size:20"`

	// ActualQty and ActualQtySource form a tagged value: manual quantities
	// are never replaced by recomputation.
	ActualQty       string    `bson:"actual_qty" json:"actual_qty" gorm:"size:20"`
	ActualQtySource QtySource `bson:"actual_qty_source" json:"actual_qty_source" gorm:"size:16"`

	CapacityRate string `bson:"capacity_rate" json:"capacity_rate" gorm:"size:20"`
	TimeRate     string `bson:"time_rate" json:"time_rate" gorm:"size:20"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// TableName pins the SQL table name.
func (ProductionRecord) TableName() string {
	return "production_records"
}

// ManualActualQty reports whether the actual quantity was typed by hand.
// Rows stored before the source tag existed carry no tag; a quantity on
// such a row is taken as manual.
func (r ProductionRecord) ManualActualQty() bool {
	switch r.ActualQtySource {
	case QtySourceManual:
		return true
	case "":
		return strings.TrimSpace(r.ActualQty) != ""
	default:
		return false
	}
}

// RecordInput is the payload accepted when logging a new shift.
type RecordInput struct {
	Date             string `json:"date" binding:"required,isodate"`
	Name             string `json:"name"`
	Position         string `json:"position"`
	Product          string `json:"product"`
	Process          string `json:"process"`
	AdjustmentMaster string `json:"adjustment_master"`
	AdjustmentTime   string `json:"adjustment_time"`
	DowntimeDuration string `json:"downtime_duration"`
	SingleTime       string `json:"single_time"`
	TotalWeight      string `json:"total_weight"`
	UnitWeight       string `json:"unit_weight"`
	TareWeight       string `json:"tare_weight"`
	ActualQty        string `json:"actual_qty"`
}

// RecordPatch carries a partial update; nil fields are left untouched.
type RecordPatch struct {
	Date             *string `json:"date" binding:"omitempty,isodate"`
	Name             *string `json:"name"`
	Position         *string `json:"position"`
	Product          *string `json:"product"`
	Process          *string `json:"process"`
	AdjustmentMaster *string `json:"adjustment_master"`
	AdjustmentTime   *string `json:"adjustment_time"`
	DowntimeDuration *string `json:"downtime_duration"`
	SingleTime       *string `json:"single_time"`
	TotalWeight      *string `json:"total_weight"`
	UnitWeight       *string `json:"unit_weight"`
	TareWeight       *string `json:"tare_weight"`
	ActualQty        *string `json:"actual_qty"`
}

// TouchesWeights reports whether the patch edits any weight field.
func (p RecordPatch) TouchesWeights() bool {
	return p.TotalWeight != nil || p.UnitWeight != nil || p.TareWeight != nil
}
