package planning

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mamadbah2/shiftlog/internal/domain/models"
	"github.com/mamadbah2/shiftlog/internal/repository"
	"github.com/mamadbah2/shiftlog/internal/service/derivation"
)

// ErrInvalidInput flags a malformed plan.
var ErrInvalidInput = errors.New("invalid plan")

// Service keeps one production plan per product and reports progress
// against the logged records.
type Service struct {
	plans   repository.PlanRepository
	records repository.RecordRepository
	logger  *zap.Logger

	now   func() time.Time
	newID func() string
}

// NewService wires a planning service.
func NewService(plans repository.PlanRepository, records repository.RecordRepository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		plans:   plans,
		records: records,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
		newID:   uuid.NewString,
	}
}

// Save creates the plan of a product or replaces its steps.
func (s *Service) Save(ctx context.Context, req models.PlanRequest) (models.PlanProgress, error) {
	product := strings.TrimSpace(req.Product)
	if product == "" {
		return models.PlanProgress{}, fmt.Errorf("product is required: %w", ErrInvalidInput)
	}
	steps, err := normalizeSteps(req.Steps)
	if err != nil {
		return models.PlanProgress{}, err
	}

	now := s.now()
	plan, err := s.plans.GetPlanByProduct(ctx, product)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		plan = models.ProductionPlan{ID: s.newID(), Product: product, CreatedAt: now}
	case err != nil:
		return models.PlanProgress{}, fmt.Errorf("load plan: %w", err)
	}
	plan.Steps = steps
	plan.UpdatedAt = now

	if err := s.plans.SavePlan(ctx, plan); err != nil {
		return models.PlanProgress{}, fmt.Errorf("save plan: %w", err)
	}
	s.logger.Info("production plan saved", zap.String("product", product), zap.Int("steps", len(steps)))

	return s.progress(ctx, plan)
}

// List returns every plan with its per-step completion.
func (s *Service) List(ctx context.Context) ([]models.PlanProgress, error) {
	plans, err := s.plans.ListPlans(ctx)
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}

	out := make([]models.PlanProgress, 0, len(plans))
	for _, plan := range plans {
		p, err := s.progress(ctx, plan)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// Delete removes a plan.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.plans.DeletePlan(ctx, id); err != nil {
		return fmt.Errorf("delete plan: %w", err)
	}
	s.logger.Info("production plan removed", zap.String("id", id))
	return nil
}

func (s *Service) progress(ctx context.Context, plan models.ProductionPlan) (models.PlanProgress, error) {
	completion := make([]models.StepCompletion, 0, len(plan.Steps))
	for _, step := range plan.Steps {
		records, err := s.records.ListRecords(ctx, models.RecordFilter{Product: plan.Product, Process: step.Process})
		if err != nil {
			return models.PlanProgress{}, fmt.Errorf("load records for %s/%s: %w", plan.Product, step.Process, err)
		}

		var actual int64
		for _, r := range records {
			if qty, ok := derivation.ParseQuantity(r.ActualQty); ok {
				actual += qty
			}
		}

		completion = append(completion, models.StepCompletion{
			Process:        step.Process,
			PlannedQty:     step.Qty,
			ActualQty:      actual,
			CompletionRate: CompletionRate(actual, step.Qty),
		})
	}
	return models.PlanProgress{ProductionPlan: plan, Completion: completion}, nil
}

// CompletionRate is actual/planned as a percentage rounded half to even to
// one decimal; zero when nothing was planned.
func CompletionRate(actual int64, planned int) float64 {
	if planned <= 0 {
		return 0
	}
	return decimal.NewFromInt(actual).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(int64(planned))).
		RoundBank(1).
		InexactFloat64()
}

func normalizeSteps(steps []models.PlanStep) ([]models.PlanStep, error) {
	if len(steps) > models.MaxPlanSteps {
		return nil, fmt.Errorf("at most %d steps allowed, got %d: %w", models.MaxPlanSteps, len(steps), ErrInvalidInput)
	}

	out := make([]models.PlanStep, 0, len(steps))
	seen := make(map[string]bool, len(steps))
	for i, step := range steps {
		process := strings.TrimSpace(step.Process)
		if process == "" {
			return nil, fmt.Errorf("step %d: process is required: %w", i+1, ErrInvalidInput)
		}
		if step.Qty < 0 {
			return nil, fmt.Errorf("step %d: quantity must not be negative: %w", i+1, ErrInvalidInput)
		}
		if seen[process] {
			return nil, fmt.Errorf("step %d: process %q listed twice: %w", i+1, process, ErrInvalidInput)
		}
		seen[process] = true
		out = append(out, models.PlanStep{Process: process, Qty: step.Qty})
	}
	return out, nil
}
