package models

import "time"

// MaxPlanSteps bounds the number of processes a plan may list.
const MaxPlanSteps = 4

// PlanStep is one process of a plan with its target quantity.
type PlanStep struct {
	Process string `bson:"process" json:"process"`
	Qty     int    `bson:"qty" json:"qty"`
}

// ProductionPlan holds the planned output of a product per process.
type ProductionPlan struct {
	ID        string     `bson:"_id" json:"id" gorm:"primaryKey;size:36"`
	Product   string     `bson:"product" json:"product" gorm:"size:200;uniqueIndex;not null"`
	Steps     []PlanStep `bson:"steps" json:"steps" gorm:"serializer:json"`
	CreatedAt time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time  `bson:"updated_at" json:"updated_at"`
}

// TableName pins the SQL table name.
func (ProductionPlan) TableName() string {
	return "production_plans"
}

// PlanRequest is the body of a plan save call.
type PlanRequest struct {
	Product string     `json:"product" binding:"required"`
	Steps   []PlanStep `json:"steps"`
}

// StepCompletion compares a plan step with what was actually produced.
type StepCompletion struct {
	Process        string  `json:"process"`
	PlannedQty     int     `json:"planned_qty"`
	ActualQty      int64   `json:"actual_qty"`
	CompletionRate float64 `json:"completion_rate"`
}

// PlanProgress is a plan decorated with per-step completion.
type PlanProgress struct {
	ProductionPlan
	Completion []StepCompletion `json:"process_completion"`
}
