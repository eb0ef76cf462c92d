package repository

import (
	"context"
	"errors"

	"github.com/mamadbah2/shiftlog/internal/domain/models"
)

// ErrNotFound is returned when the addressed entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a unique name is already taken.
var ErrConflict = errors.New("already exists")

// RecordRepository persists production records verbatim.
type RecordRepository interface {
	CreateRecord(ctx context.Context, record models.ProductionRecord) error
	UpdateRecord(ctx context.Context, record models.ProductionRecord) error
	DeleteRecord(ctx context.Context, id string) error
	GetRecord(ctx context.Context, id string) (models.ProductionRecord, error)
	// ListRecords returns matches ordered by date, newest first.
	ListRecords(ctx context.Context, filter models.RecordFilter) ([]models.ProductionRecord, error)
}

// CommentRepository stores at most one note per record column.
type CommentRepository interface {
	GetComment(ctx context.Context, recordID, columnKey string) (models.Comment, error)
	// SaveComment inserts or replaces the note for (RecordID, ColumnKey).
	SaveComment(ctx context.Context, comment models.Comment) error
	DeleteComment(ctx context.Context, recordID, columnKey string) error
	DeleteRecordComments(ctx context.Context, recordID string) error
}

// EmployeeRepository manages the operator roster.
type EmployeeRepository interface {
	ListEmployees(ctx context.Context) ([]models.Employee, error)
	GetEmployee(ctx context.Context, id string) (models.Employee, error)
	CreateEmployee(ctx context.Context, employee models.Employee) error
	DeleteEmployee(ctx context.Context, id string) error
}

// CatalogRepository manages product and process names.
type CatalogRepository interface {
	// ListCatalog returns the entries of one kind ordered by name.
	ListCatalog(ctx context.Context, kind models.CatalogKind) ([]models.CatalogEntry, error)
	GetCatalogEntry(ctx context.Context, kind models.CatalogKind, id string) (models.CatalogEntry, error)
	CreateCatalogEntry(ctx context.Context, entry models.CatalogEntry) error
	DeleteCatalogEntry(ctx context.Context, kind models.CatalogKind, id string) error
}

// PlanRepository manages production plans, one per product.
type PlanRepository interface {
	ListPlans(ctx context.Context) ([]models.ProductionPlan, error)
	GetPlan(ctx context.Context, id string) (models.ProductionPlan, error)
	GetPlanByProduct(ctx context.Context, product string) (models.ProductionPlan, error)
	// SavePlan inserts the plan or replaces the one with the same ID.
	SavePlan(ctx context.Context, plan models.ProductionPlan) error
	DeletePlan(ctx context.Context, id string) error
}

// Store bundles every repository a backend provides.
type Store interface {
	RecordRepository
	CommentRepository
	EmployeeRepository
	CatalogRepository
	PlanRepository
	Close(ctx context.Context) error
}
