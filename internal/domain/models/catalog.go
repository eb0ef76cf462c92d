package models

import "time"

// Employee is a roster entry used to fill operator name and position.
type Employee struct {
	ID        string    `bson:"_id" json:"id" gorm:"primaryKey;size:36"`
	Name      string    `bson:"name" json:"name" gorm:"size:100;uniqueIndex;not null"`
	Position  string    `bson:"position" json:"position" gorm:"size:100;not null"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// TableName pins the SQL table name.
func (Employee) TableName() string {
	return "employees"
}

// EmployeeRequest is the body of an employee creation call.
type EmployeeRequest struct {
	Name     string `json:"name" binding:"required"`
	Position string `json:"position" binding:"required"`
}

// CatalogKind separates the product and process name lists.
type CatalogKind string

const (
	CatalogProduct CatalogKind = "product"
	CatalogProcess CatalogKind = "process"
)

// CatalogEntry is a named product specification or process step.
type CatalogEntry struct {
	ID          string      `bson:"_id" json:"id" gorm:"primaryKey;size:36"`
	Kind        CatalogKind `bson:"kind" json:"kind" gorm:"size:16;not null;uniqueIndex:idx_catalog_kind_name"`
	Name        string      `bson:"name" json:"name" gorm:"size:200;not null;uniqueIndex:idx_catalog_kind_name"`
	Description string      `bson:"description" json:"description" gorm:"size:500"`
	CreatedAt   time.Time   `bson:"created_at" json:"created_at"`
}

// TableName pins the SQL table name.
func (CatalogEntry) TableName() string {
	return "catalog_entries"
}

// CatalogRequest is the body of a product or process creation call.
type CatalogRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}
