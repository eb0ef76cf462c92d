package models

import "time"

// Statistics aggregates efficiency figures over a set of records.
type Statistics struct {
	TotalActualQty  int64   `bson:"total_actual_qty" json:"total_actual_qty"`
	AvgCapacityRate float64 `bson:"avg_capacity_rate" json:"avg_capacity_rate"`
	AvgTimeRate     float64 `bson:"avg_time_rate" json:"avg_time_rate"`
	TotalRecords    int     `bson:"total_records" json:"total_records"`
}

// WeeklySummary is the period digest pushed to the plant manager.
type WeeklySummary struct {
	Start           time.Time  `json:"start"`
	End             time.Time  `json:"end"`
	Stats           Statistics `json:"stats"`
	DowntimeMinutes int64      `json:"downtime_minutes"`
	WeakestProcess  string     `json:"weakest_process"`
	WeakestTimeRate float64    `json:"weakest_time_rate"`
}
