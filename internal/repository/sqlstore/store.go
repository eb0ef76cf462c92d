// Package sqlstore persists the shift log through gorm on SQLite or Postgres.
package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormLogger "gorm.io/gorm/logger"

	"github.com/mamadbah2/shiftlog/internal/domain/models"
	"github.com/mamadbah2/shiftlog/internal/repository"
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Store implements repository.Store on a relational database.
type Store struct {
	db *gorm.DB
}

var _ repository.Store = (*Store)(nil)

// Open connects with the named driver and migrates the schema.
func Open(driver, dsn string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var dialector gorm.Dialector
	switch driver {
	case DriverSQLite:
		dialector = sqlite.Open(dsn)
	case DriverPostgres:
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported sql driver %q", driver)
	}

	gormLog := gormLogger.New(
		zap.NewStdLog(logger.Named("gorm")),
		gormLogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormLogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(dialector, &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		TranslateError:                           true,
		Logger:                                   gormLog,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", driver, err)
	}

	if driver == DriverSQLite {
		// a single connection keeps :memory: databases shared and writes serialized
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to access sqlite pool: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if err := db.AutoMigrate(
		&models.ProductionRecord{},
		&models.Comment{},
		&models.Employee{},
		&models.CatalogEntry{},
		&models.ProductionPlan{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	return &Store{db: db}, nil
}

// CreateRecord inserts a new record.
func (s *Store) CreateRecord(ctx context.Context, record models.ProductionRecord) error {
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		return wrapWrite("insert record", err)
	}
	return nil
}

// UpdateRecord overwrites every column of an existing record.
func (s *Store) UpdateRecord(ctx context.Context, record models.ProductionRecord) error {
	res := s.db.WithContext(ctx).Model(&models.ProductionRecord{}).
		Where("id = ?", record.ID).
		Select("*").
		Updates(&record)
	if res.Error != nil {
		return wrapWrite("update record", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("record %s: %w", record.ID, repository.ErrNotFound)
	}
	return nil
}

// DeleteRecord removes a record.
func (s *Store) DeleteRecord(ctx context.Context, id string) error {
	return s.deleteWhere(ctx, &models.ProductionRecord{}, "record "+id, "id = ?", id)
}

// GetRecord fetches a record by id.
func (s *Store) GetRecord(ctx context.Context, id string) (models.ProductionRecord, error) {
	var record models.ProductionRecord
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&record).Error; err != nil {
		return models.ProductionRecord{}, wrapRead("record "+id, err)
	}
	return record, nil
}

// ListRecords runs the filter as a query, newest dates first.
func (s *Store) ListRecords(ctx context.Context, filter models.RecordFilter) ([]models.ProductionRecord, error) {
	q := s.db.WithContext(ctx).Model(&models.ProductionRecord{})
	if filter.StartDate != "" {
		q = q.Where("date >= ?", filter.StartDate)
	}
	if filter.EndDate != "" {
		q = q.Where("date <= ?", filter.EndDate)
	}
	if filter.Name != "" {
		q = q.Where("name = ?", filter.Name)
	}
	if filter.Product != "" {
		q = q.Where("product = ?", filter.Product)
	}
	if filter.Process != "" {
		q = q.Where("process = ?", filter.Process)
	}
	if filter.AdjustmentMaster != "" {
		q = q.Where("adjustment_master = ?", filter.AdjustmentMaster)
	}

	records := make([]models.ProductionRecord, 0)
	if err := q.Order("date DESC, created_at DESC, id DESC").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	return records, nil
}

// GetComment fetches the note of a record column.
func (s *Store) GetComment(ctx context.Context, recordID, columnKey string) (models.Comment, error) {
	var comment models.Comment
	err := s.db.WithContext(ctx).
		Where("record_id = ? AND column_key = ?", recordID, columnKey).
		First(&comment).Error
	if err != nil {
		return models.Comment{}, wrapRead("comment "+recordID+"/"+columnKey, err)
	}
	return comment, nil
}

// SaveComment upserts on (record_id, column_key), keeping the existing id.
func (s *Store) SaveComment(ctx context.Context, comment models.Comment) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "record_id"}, {Name: "column_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"text", "updated_at"}),
	}).Create(&comment).Error
	if err != nil {
		return wrapWrite("upsert comment", err)
	}
	return nil
}

// DeleteComment removes the note of a record column.
func (s *Store) DeleteComment(ctx context.Context, recordID, columnKey string) error {
	err := s.db.WithContext(ctx).
		Where("record_id = ? AND column_key = ?", recordID, columnKey).
		Delete(&models.Comment{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}
	return nil
}

// DeleteRecordComments removes every note of a record.
func (s *Store) DeleteRecordComments(ctx context.Context, recordID string) error {
	if err := s.db.WithContext(ctx).Where("record_id = ?", recordID).Delete(&models.Comment{}).Error; err != nil {
		return fmt.Errorf("failed to delete record comments: %w", err)
	}
	return nil
}

// ListEmployees returns the roster in creation order.
func (s *Store) ListEmployees(ctx context.Context) ([]models.Employee, error) {
	out := make([]models.Employee, 0)
	if err := s.db.WithContext(ctx).Order("created_at, name").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to query employees: %w", err)
	}
	return out, nil
}

// GetEmployee fetches an employee by id.
func (s *Store) GetEmployee(ctx context.Context, id string) (models.Employee, error) {
	var employee models.Employee
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&employee).Error; err != nil {
		return models.Employee{}, wrapRead("employee "+id, err)
	}
	return employee, nil
}

// CreateEmployee inserts an employee; names are unique.
func (s *Store) CreateEmployee(ctx context.Context, employee models.Employee) error {
	if err := s.db.WithContext(ctx).Create(&employee).Error; err != nil {
		return wrapWrite("insert employee", err)
	}
	return nil
}

// DeleteEmployee removes an employee.
func (s *Store) DeleteEmployee(ctx context.Context, id string) error {
	return s.deleteWhere(ctx, &models.Employee{}, "employee "+id, "id = ?", id)
}

// ListCatalog returns entries of one kind ordered by name.
func (s *Store) ListCatalog(ctx context.Context, kind models.CatalogKind) ([]models.CatalogEntry, error) {
	out := make([]models.CatalogEntry, 0)
	if err := s.db.WithContext(ctx).Where("kind = ?", kind).Order("name").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to query %s catalog: %w", kind, err)
	}
	return out, nil
}

// GetCatalogEntry fetches an entry of the given kind.
func (s *Store) GetCatalogEntry(ctx context.Context, kind models.CatalogKind, id string) (models.CatalogEntry, error) {
	var entry models.CatalogEntry
	if err := s.db.WithContext(ctx).Where("id = ? AND kind = ?", id, kind).First(&entry).Error; err != nil {
		return models.CatalogEntry{}, wrapRead(string(kind)+" "+id, err)
	}
	return entry, nil
}

// CreateCatalogEntry inserts an entry; names are unique per kind.
func (s *Store) CreateCatalogEntry(ctx context.Context, entry models.CatalogEntry) error {
	if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
		return wrapWrite("insert "+string(entry.Kind), err)
	}
	return nil
}

// DeleteCatalogEntry removes an entry of the given kind.
func (s *Store) DeleteCatalogEntry(ctx context.Context, kind models.CatalogKind, id string) error {
	return s.deleteWhere(ctx, &models.CatalogEntry{}, string(kind)+" "+id, "id = ? AND kind = ?", id, kind)
}

// ListPlans returns plans in creation order.
func (s *Store) ListPlans(ctx context.Context) ([]models.ProductionPlan, error) {
	out := make([]models.ProductionPlan, 0)
	if err := s.db.WithContext(ctx).Order("created_at, product").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to query plans: %w", err)
	}
	return out, nil
}

// GetPlan fetches a plan by id.
func (s *Store) GetPlan(ctx context.Context, id string) (models.ProductionPlan, error) {
	var plan models.ProductionPlan
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&plan).Error; err != nil {
		return models.ProductionPlan{}, wrapRead("plan "+id, err)
	}
	return plan, nil
}

// GetPlanByProduct fetches the plan of a product.
func (s *Store) GetPlanByProduct(ctx context.Context, product string) (models.ProductionPlan, error) {
	var plan models.ProductionPlan
	if err := s.db.WithContext(ctx).Where("product = ?", product).First(&plan).Error; err != nil {
		return models.ProductionPlan{}, wrapRead("plan for "+product, err)
	}
	return plan, nil
}

// SavePlan inserts or replaces a plan by id.
func (s *Store) SavePlan(ctx context.Context, plan models.ProductionPlan) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"product", "steps", "updated_at"}),
	}).Create(&plan).Error
	if err != nil {
		return wrapWrite("save plan", err)
	}
	return nil
}

// DeletePlan removes a plan.
func (s *Store) DeletePlan(ctx context.Context, id string) error {
	return s.deleteWhere(ctx, &models.ProductionPlan{}, "plan "+id, "id = ?", id)
}

// Close releases the connection pool.
func (s *Store) Close(context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Store) deleteWhere(ctx context.Context, model any, what string, query string, args ...any) error {
	res := s.db.WithContext(ctx).Where(query, args...).Delete(model)
	if res.Error != nil {
		return fmt.Errorf("failed to delete %s: %w", what, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%s: %w", what, repository.ErrNotFound)
	}
	return nil
}

func wrapRead(what string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", what, repository.ErrNotFound)
	}
	return fmt.Errorf("failed to load %s: %w", what, err)
}

func wrapWrite(action string, err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%s: %w", action, repository.ErrConflict)
	}
	return fmt.Errorf("failed to %s: %w", action, err)
}
