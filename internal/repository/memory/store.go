package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/mamadbah2/shiftlog/internal/domain/models"
	"github.com/mamadbah2/shiftlog/internal/repository"
)

// Store keeps every entity in process memory. Contents are lost on exit.
type Store struct {
	mu        sync.RWMutex
	records   map[string]models.ProductionRecord
	comments  map[commentKey]models.Comment
	employees map[string]models.Employee
	catalog   map[string]models.CatalogEntry
	plans     map[string]models.ProductionPlan
}

type commentKey struct {
	recordID  string
	columnKey string
}

var _ repository.Store = (*Store)(nil)

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		records:   make(map[string]models.ProductionRecord),
		comments:  make(map[commentKey]models.Comment),
		employees: make(map[string]models.Employee),
		catalog:   make(map[string]models.CatalogEntry),
		plans:     make(map[string]models.ProductionPlan),
	}
}

// CreateRecord stores a new record.
func (s *Store) CreateRecord(_ context.Context, record models.ProductionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[record.ID]; exists {
		return fmt.Errorf("record %s: %w", record.ID, repository.ErrConflict)
	}
	s.records[record.ID] = record
	return nil
}

// UpdateRecord replaces an existing record.
func (s *Store) UpdateRecord(_ context.Context, record models.ProductionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[record.ID]; !exists {
		return fmt.Errorf("record %s: %w", record.ID, repository.ErrNotFound)
	}
	s.records[record.ID] = record
	return nil
}

// DeleteRecord removes a record.
func (s *Store) DeleteRecord(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[id]; !exists {
		return fmt.Errorf("record %s: %w", id, repository.ErrNotFound)
	}
	delete(s.records, id)
	return nil
}

// GetRecord fetches a record by id.
func (s *Store) GetRecord(_ context.Context, id string) (models.ProductionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, exists := s.records[id]
	if !exists {
		return models.ProductionRecord{}, fmt.Errorf("record %s: %w", id, repository.ErrNotFound)
	}
	return record, nil
}

// ListRecords scans every record through the filter.
func (s *Store) ListRecords(_ context.Context, filter models.RecordFilter) ([]models.ProductionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.ProductionRecord, 0, len(s.records))
	for _, record := range s.records {
		if filter.Match(record) {
			out = append(out, record)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date > out[j].Date
		}
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

// GetComment fetches the note attached to a record column.
func (s *Store) GetComment(_ context.Context, recordID, columnKey string) (models.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	comment, exists := s.comments[commentKey{recordID, columnKey}]
	if !exists {
		return models.Comment{}, fmt.Errorf("comment %s/%s: %w", recordID, columnKey, repository.ErrNotFound)
	}
	return comment, nil
}

// SaveComment upserts the note of a record column.
func (s *Store) SaveComment(_ context.Context, comment models.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.comments[commentKey{comment.RecordID, comment.ColumnKey}] = comment
	return nil
}

// DeleteComment removes a single note; deleting a missing note is a no-op.
func (s *Store) DeleteComment(_ context.Context, recordID, columnKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.comments, commentKey{recordID, columnKey})
	return nil
}

// DeleteRecordComments removes all notes of a record.
func (s *Store) DeleteRecordComments(_ context.Context, recordID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key := range s.comments {
		if key.recordID == recordID {
			delete(s.comments, key)
		}
	}
	return nil
}

// ListEmployees returns the roster in creation order.
func (s *Store) ListEmployees(_ context.Context) ([]models.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Employee, 0, len(s.employees))
	for _, employee := range s.employees {
		out = append(out, employee)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

// GetEmployee fetches an employee by id.
func (s *Store) GetEmployee(_ context.Context, id string) (models.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	employee, exists := s.employees[id]
	if !exists {
		return models.Employee{}, fmt.Errorf("employee %s: %w", id, repository.ErrNotFound)
	}
	return employee, nil
}

// CreateEmployee adds an employee with a unique name.
func (s *Store) CreateEmployee(_ context.Context, employee models.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.employees {
		if existing.Name == employee.Name {
			return fmt.Errorf("employee %q: %w", employee.Name, repository.ErrConflict)
		}
	}
	s.employees[employee.ID] = employee
	return nil
}

// DeleteEmployee removes an employee.
func (s *Store) DeleteEmployee(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.employees[id]; !exists {
		return fmt.Errorf("employee %s: %w", id, repository.ErrNotFound)
	}
	delete(s.employees, id)
	return nil
}

// ListCatalog returns entries of one kind ordered by name.
func (s *Store) ListCatalog(_ context.Context, kind models.CatalogKind) ([]models.CatalogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.CatalogEntry, 0)
	for _, entry := range s.catalog {
		if entry.Kind == kind {
			out = append(out, entry)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// GetCatalogEntry fetches an entry of the given kind.
func (s *Store) GetCatalogEntry(_ context.Context, kind models.CatalogKind, id string) (models.CatalogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, exists := s.catalog[id]
	if !exists || entry.Kind != kind {
		return models.CatalogEntry{}, fmt.Errorf("%s %s: %w", kind, id, repository.ErrNotFound)
	}
	return entry, nil
}

// CreateCatalogEntry adds an entry whose name is unique within its kind.
func (s *Store) CreateCatalogEntry(_ context.Context, entry models.CatalogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.catalog {
		if existing.Kind == entry.Kind && existing.Name == entry.Name {
			return fmt.Errorf("%s %q: %w", entry.Kind, entry.Name, repository.ErrConflict)
		}
	}
	s.catalog[entry.ID] = entry
	return nil
}

// DeleteCatalogEntry removes an entry of the given kind.
func (s *Store) DeleteCatalogEntry(_ context.Context, kind models.CatalogKind, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, exists := s.catalog[id]
	if !exists || entry.Kind != kind {
		return fmt.Errorf("%s %s: %w", kind, id, repository.ErrNotFound)
	}
	delete(s.catalog, id)
	return nil
}

// ListPlans returns plans in creation order.
func (s *Store) ListPlans(_ context.Context) ([]models.ProductionPlan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.ProductionPlan, 0, len(s.plans))
	for _, plan := range s.plans {
		out = append(out, clonePlan(plan))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].Product < out[j].Product
	})
	return out, nil
}

// GetPlan fetches a plan by id.
func (s *Store) GetPlan(_ context.Context, id string) (models.ProductionPlan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	plan, exists := s.plans[id]
	if !exists {
		return models.ProductionPlan{}, fmt.Errorf("plan %s: %w", id, repository.ErrNotFound)
	}
	return clonePlan(plan), nil
}

// GetPlanByProduct fetches the plan of a product.
func (s *Store) GetPlanByProduct(_ context.Context, product string) (models.ProductionPlan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, plan := range s.plans {
		if plan.Product == product {
			return clonePlan(plan), nil
		}
	}
	return models.ProductionPlan{}, fmt.Errorf("plan for %q: %w", product, repository.ErrNotFound)
}

// SavePlan inserts or replaces a plan.
func (s *Store) SavePlan(_ context.Context, plan models.ProductionPlan) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, existing := range s.plans {
		if id != plan.ID && existing.Product == plan.Product {
			return fmt.Errorf("plan for %q: %w", plan.Product, repository.ErrConflict)
		}
	}
	s.plans[plan.ID] = clonePlan(plan)
	return nil
}

// DeletePlan removes a plan.
func (s *Store) DeletePlan(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.plans[id]; !exists {
		return fmt.Errorf("plan %s: %w", id, repository.ErrNotFound)
	}
	delete(s.plans, id)
	return nil
}

// Close is a no-op.
func (s *Store) Close(context.Context) error {
	return nil
}

func clonePlan(plan models.ProductionPlan) models.ProductionPlan {
	plan.Steps = append([]models.PlanStep(nil), plan.Steps...)
	return plan
}
