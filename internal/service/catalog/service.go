package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mamadbah2/shiftlog/internal/domain/models"
	"github.com/mamadbah2/shiftlog/internal/repository"
)

var (
	// ErrInvalidInput flags an empty name or unknown catalog kind.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInUse is returned when records or plans still reference the entry.
	ErrInUse = errors.New("still in use")
)

// Service manages the employee roster and the product/process name lists.
type Service struct {
	employees repository.EmployeeRepository
	catalog   repository.CatalogRepository
	records   repository.RecordRepository
	plans     repository.PlanRepository
	logger    *zap.Logger

	now   func() time.Time
	newID func() string
}

// NewService wires a catalog service.
func NewService(
	employees repository.EmployeeRepository,
	catalog repository.CatalogRepository,
	records repository.RecordRepository,
	plans repository.PlanRepository,
	logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		employees: employees,
		catalog:   catalog,
		records:   records,
		plans:     plans,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
		newID:     uuid.NewString,
	}
}

// ListEmployees returns the roster.
func (s *Service) ListEmployees(ctx context.Context) ([]models.Employee, error) {
	employees, err := s.employees.ListEmployees(ctx)
	if err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}
	return employees, nil
}

// CreateEmployee adds an operator to the roster.
func (s *Service) CreateEmployee(ctx context.Context, req models.EmployeeRequest) (models.Employee, error) {
	name := strings.TrimSpace(req.Name)
	position := strings.TrimSpace(req.Position)
	if name == "" || position == "" {
		return models.Employee{}, fmt.Errorf("employee name and position are required: %w", ErrInvalidInput)
	}

	employee := models.Employee{
		ID:        s.newID(),
		Name:      name,
		Position:  position,
		CreatedAt: s.now(),
	}
	if err := s.employees.CreateEmployee(ctx, employee); err != nil {
		return models.Employee{}, fmt.Errorf("create employee: %w", err)
	}

	s.logger.Info("employee added", zap.String("id", employee.ID), zap.String("name", name))
	return employee, nil
}

// DeleteEmployee removes an employee that no record names.
func (s *Service) DeleteEmployee(ctx context.Context, id string) error {
	employee, err := s.employees.GetEmployee(ctx, id)
	if err != nil {
		return fmt.Errorf("load employee: %w", err)
	}

	used, err := s.countRecords(ctx, models.RecordFilter{Name: employee.Name})
	if err != nil {
		return err
	}
	if used > 0 {
		return fmt.Errorf("employee %q is referenced by %d records: %w", employee.Name, used, ErrInUse)
	}

	if err := s.employees.DeleteEmployee(ctx, id); err != nil {
		return fmt.Errorf("delete employee: %w", err)
	}
	s.logger.Info("employee removed", zap.String("id", id))
	return nil
}

// List returns the entries of one kind.
func (s *Service) List(ctx context.Context, kind models.CatalogKind) ([]models.CatalogEntry, error) {
	if err := checkKind(kind); err != nil {
		return nil, err
	}
	entries, err := s.catalog.ListCatalog(ctx, kind)
	if err != nil {
		return nil, fmt.Errorf("list %s catalog: %w", kind, err)
	}
	return entries, nil
}

// Create adds a product or process name.
func (s *Service) Create(ctx context.Context, kind models.CatalogKind, req models.CatalogRequest) (models.CatalogEntry, error) {
	if err := checkKind(kind); err != nil {
		return models.CatalogEntry{}, err
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return models.CatalogEntry{}, fmt.Errorf("%s name is required: %w", kind, ErrInvalidInput)
	}

	entry := models.CatalogEntry{
		ID:          s.newID(),
		Kind:        kind,
		Name:        name,
		Description: strings.TrimSpace(req.Description),
		CreatedAt:   s.now(),
	}
	if err := s.catalog.CreateCatalogEntry(ctx, entry); err != nil {
		return models.CatalogEntry{}, fmt.Errorf("create %s: %w", kind, err)
	}

	s.logger.Info("catalog entry added", zap.String("kind", string(kind)), zap.String("name", name))
	return entry, nil
}

// Delete removes an entry that no record or plan references.
func (s *Service) Delete(ctx context.Context, kind models.CatalogKind, id string) error {
	if err := checkKind(kind); err != nil {
		return err
	}
	entry, err := s.catalog.GetCatalogEntry(ctx, kind, id)
	if err != nil {
		return fmt.Errorf("load %s: %w", kind, err)
	}

	filter := models.RecordFilter{Product: entry.Name}
	if kind == models.CatalogProcess {
		filter = models.RecordFilter{Process: entry.Name}
	}
	used, err := s.countRecords(ctx, filter)
	if err != nil {
		return err
	}
	if used > 0 {
		return fmt.Errorf("%s %q is referenced by %d records: %w", kind, entry.Name, used, ErrInUse)
	}

	planned, err := s.countPlans(ctx, kind, entry.Name)
	if err != nil {
		return err
	}
	if planned > 0 {
		return fmt.Errorf("%s %q is referenced by %d production plans: %w", kind, entry.Name, planned, ErrInUse)
	}

	if err := s.catalog.DeleteCatalogEntry(ctx, kind, id); err != nil {
		return fmt.Errorf("delete %s: %w", kind, err)
	}
	s.logger.Info("catalog entry removed", zap.String("kind", string(kind)), zap.String("id", id))
	return nil
}

func (s *Service) countRecords(ctx context.Context, filter models.RecordFilter) (int, error) {
	records, err := s.records.ListRecords(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return len(records), nil
}

func (s *Service) countPlans(ctx context.Context, kind models.CatalogKind, name string) (int, error) {
	plans, err := s.plans.ListPlans(ctx)
	if err != nil {
		return 0, fmt.Errorf("count plans: %w", err)
	}

	n := 0
	for _, plan := range plans {
		if kind == models.CatalogProduct && plan.Product == name {
			n++
			continue
		}
		if kind == models.CatalogProcess {
			for _, step := range plan.Steps {
				if step.Process == name {
					n++
					break
				}
			}
		}
	}
	return n, nil
}

func checkKind(kind models.CatalogKind) error {
	if kind != models.CatalogProduct && kind != models.CatalogProcess {
		return fmt.Errorf("catalog kind %q: %w", kind, ErrInvalidInput)
	}
	return nil
}
