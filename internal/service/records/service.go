package records

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mamadbah2/shiftlog/internal/domain/models"
	"github.com/mamadbah2/shiftlog/internal/metrics"
	"github.com/mamadbah2/shiftlog/internal/repository"
	"github.com/mamadbah2/shiftlog/internal/service/derivation"
)

var (
	// ErrInvalidInput flags a rejected date or manual quantity.
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnsupportedColumn is returned for comments on columns that do not take notes.
	ErrUnsupportedColumn = errors.New("column does not accept comments")
)

// Service owns the lifecycle of production records and their comments.
// Every write passes through the derivation engine before it is stored.
type Service struct {
	records  repository.RecordRepository
	comments repository.CommentRepository
	metrics  *metrics.Metrics
	logger   *zap.Logger

	now   func() time.Time
	newID func() string
}

// NewService wires a record service. metrics may be nil.
func NewService(records repository.RecordRepository, comments repository.CommentRepository, m *metrics.Metrics, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		records:  records,
		comments: comments,
		metrics:  m,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
		newID:    uuid.NewString,
	}
}

// Create logs a new shift. A non-empty actual quantity is kept as a manual value.
func (s *Service) Create(ctx context.Context, input models.RecordInput) (models.ProductionRecord, error) {
	if err := validateDate(input.Date); err != nil {
		return models.ProductionRecord{}, err
	}

	record := models.ProductionRecord{
		ID:               s.newID(),
		Date:             strings.TrimSpace(input.Date),
		Name:             strings.TrimSpace(input.Name),
		Position:         strings.TrimSpace(input.Position),
		Product:          strings.TrimSpace(input.Product),
		Process:          strings.TrimSpace(input.Process),
		AdjustmentMaster: strings.TrimSpace(input.AdjustmentMaster),
		AdjustmentTime:   input.AdjustmentTime,
		DowntimeDuration: input.DowntimeDuration,
		SingleTime:       input.SingleTime,
		TotalWeight:      input.TotalWeight,
		UnitWeight:       input.UnitWeight,
		TareWeight:       input.TareWeight,
		ActualQtySource:  models.QtySourceComputed,
	}
	if err := setActualQty(&record, input.ActualQty); err != nil {
		return models.ProductionRecord{}, err
	}

	record = derivation.Recompute(record)
	now := s.now()
	record.CreatedAt = now
	record.UpdatedAt = now

	if err := s.records.CreateRecord(ctx, record); err != nil {
		return models.ProductionRecord{}, fmt.Errorf("create record: %w", err)
	}

	s.metrics.RecordWrite("create")
	s.logger.Info("record created",
		zap.String("id", record.ID),
		zap.String("date", record.Date),
		zap.String("process", record.Process),
	)
	return record, nil
}

// Update applies the fields present in patch and recomputes the record.
// Editing a weight re-arms the computed quantity when the weights yield one,
// unless the same patch also sets a quantity by hand. A manual quantity is
// kept when the new weights cannot be used.
func (s *Service) Update(ctx context.Context, id string, patch models.RecordPatch) (models.ProductionRecord, error) {
	record, err := s.records.GetRecord(ctx, id)
	if err != nil {
		return models.ProductionRecord{}, fmt.Errorf("load record: %w", err)
	}

	if patch.Date != nil {
		if err := validateDate(*patch.Date); err != nil {
			return models.ProductionRecord{}, err
		}
		record.Date = strings.TrimSpace(*patch.Date)
	}
	assignTrimmed(&record.Name, patch.Name)
	assignTrimmed(&record.Position, patch.Position)
	assignTrimmed(&record.Product, patch.Product)
	assignTrimmed(&record.Process, patch.Process)
	assignTrimmed(&record.AdjustmentMaster, patch.AdjustmentMaster)
	assign(&record.AdjustmentTime, patch.AdjustmentTime)
	assign(&record.DowntimeDuration, patch.DowntimeDuration)
	assign(&record.SingleTime, patch.SingleTime)
	assign(&record.TotalWeight, patch.TotalWeight)
	assign(&record.UnitWeight, patch.UnitWeight)
	assign(&record.TareWeight, patch.TareWeight)

	if patch.TouchesWeights() {
		if _, ok := derivation.WeightQuantity(record.TotalWeight, record.UnitWeight, record.TareWeight); ok {
			record.ActualQtySource = models.QtySourceComputed
		}
	}
	if patch.ActualQty != nil {
		if err := setActualQty(&record, *patch.ActualQty); err != nil {
			return models.ProductionRecord{}, err
		}
	}

	record = derivation.Recompute(record)
	record.UpdatedAt = s.now()

	if err := s.records.UpdateRecord(ctx, record); err != nil {
		return models.ProductionRecord{}, fmt.Errorf("update record: %w", err)
	}

	s.metrics.RecordWrite("update")
	s.logger.Info("record updated", zap.String("id", record.ID))
	return record, nil
}

// Delete removes a record together with its comments.
func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := s.records.GetRecord(ctx, id); err != nil {
		return fmt.Errorf("load record: %w", err)
	}
	if err := s.comments.DeleteRecordComments(ctx, id); err != nil {
		return fmt.Errorf("delete comments: %w", err)
	}
	if err := s.records.DeleteRecord(ctx, id); err != nil {
		return fmt.Errorf("delete record: %w", err)
	}

	s.metrics.RecordWrite("delete")
	s.logger.Info("record deleted", zap.String("id", id))
	return nil
}

// Get fetches a single record.
func (s *Service) Get(ctx context.Context, id string) (models.ProductionRecord, error) {
	record, err := s.records.GetRecord(ctx, id)
	if err != nil {
		return models.ProductionRecord{}, fmt.Errorf("load record: %w", err)
	}
	return record, nil
}

// List returns the records matching filter, newest first.
func (s *Service) List(ctx context.Context, filter models.RecordFilter) ([]models.ProductionRecord, error) {
	if err := validateFilter(filter); err != nil {
		return nil, err
	}
	records, err := s.records.ListRecords(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	return records, nil
}

// Statistics aggregates the records matching filter.
func (s *Service) Statistics(ctx context.Context, filter models.RecordFilter) (models.Statistics, error) {
	records, err := s.List(ctx, filter)
	if err != nil {
		return models.Statistics{}, err
	}
	return Summarize(records), nil
}

// RecomputeAll runs every stored record through the engine again and
// rewrites those whose derived fields changed.
func (s *Service) RecomputeAll(ctx context.Context) (int, error) {
	records, err := s.records.ListRecords(ctx, models.RecordFilter{})
	if err != nil {
		return 0, fmt.Errorf("list records: %w", err)
	}

	updated := 0
	for _, record := range records {
		if err := ctx.Err(); err != nil {
			return updated, err
		}

		next := derivation.Recompute(record)
		if next == record {
			continue
		}
		next.UpdatedAt = s.now()
		if err := s.records.UpdateRecord(ctx, next); err != nil {
			return updated, fmt.Errorf("update record %s: %w", record.ID, err)
		}
		updated++
	}

	s.metrics.Recomputed(updated)
	s.logger.Info("records recomputed", zap.Int("scanned", len(records)), zap.Int("updated", updated))
	return updated, nil
}

// GetComment returns the note for a record column. A column without a note
// yields an empty comment.
func (s *Service) GetComment(ctx context.Context, recordID, columnKey string) (models.Comment, error) {
	if err := s.checkCommentTarget(ctx, recordID, columnKey); err != nil {
		return models.Comment{}, err
	}

	comment, err := s.comments.GetComment(ctx, recordID, columnKey)
	if errors.Is(err, repository.ErrNotFound) {
		return models.Comment{RecordID: recordID, ColumnKey: columnKey}, nil
	}
	if err != nil {
		return models.Comment{}, fmt.Errorf("load comment: %w", err)
	}
	return comment, nil
}

// SaveComment stores the note for a record column; blank text removes it.
func (s *Service) SaveComment(ctx context.Context, recordID, columnKey, text string) (models.Comment, error) {
	if err := s.checkCommentTarget(ctx, recordID, columnKey); err != nil {
		return models.Comment{}, err
	}

	if strings.TrimSpace(text) == "" {
		if err := s.comments.DeleteComment(ctx, recordID, columnKey); err != nil {
			return models.Comment{}, fmt.Errorf("delete comment: %w", err)
		}
		s.logger.Debug("comment cleared", zap.String("record_id", recordID), zap.String("column", columnKey))
		return models.Comment{RecordID: recordID, ColumnKey: columnKey}, nil
	}

	now := s.now()
	comment, err := s.comments.GetComment(ctx, recordID, columnKey)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		comment = models.Comment{
			ID:        s.newID(),
			RecordID:  recordID,
			ColumnKey: columnKey,
			CreatedAt: now,
		}
	case err != nil:
		return models.Comment{}, fmt.Errorf("load comment: %w", err)
	}
	comment.Text = text
	comment.UpdatedAt = now

	if err := s.comments.SaveComment(ctx, comment); err != nil {
		return models.Comment{}, fmt.Errorf("save comment: %w", err)
	}
	return comment, nil
}

func (s *Service) checkCommentTarget(ctx context.Context, recordID, columnKey string) error {
	if !models.IsCommentColumn(columnKey) {
		return fmt.Errorf("%q: %w", columnKey, ErrUnsupportedColumn)
	}
	if _, err := s.records.GetRecord(ctx, recordID); err != nil {
		return fmt.Errorf("load record: %w", err)
	}
	return nil
}

// setActualQty stores a manual quantity, or re-arms computation when blank.
func setActualQty(record *models.ProductionRecord, value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		record.ActualQty = ""
		record.ActualQtySource = models.QtySourceComputed
		return nil
	}
	if _, ok := derivation.ParseQuantity(value); !ok {
		return fmt.Errorf("actual_qty %q must be a whole non-negative number: %w", value, ErrInvalidInput)
	}
	record.ActualQty = value
	record.ActualQtySource = models.QtySourceManual
	return nil
}

func validateDate(value string) error {
	if _, err := time.Parse(models.DateLayout, strings.TrimSpace(value)); err != nil {
		return fmt.Errorf("date %q must be YYYY-MM-DD: %w", value, ErrInvalidInput)
	}
	return nil
}

func validateFilter(filter models.RecordFilter) error {
	for _, d := range []string{filter.StartDate, filter.EndDate} {
		if d == "" {
			continue
		}
		if err := validateDate(d); err != nil {
			return err
		}
	}
	return nil
}

func assign(dst *string, value *string) {
	if value != nil {
		*dst = *value
	}
}

func assignTrimmed(dst *string, value *string) {
	if value != nil {
		*dst = strings.TrimSpace(*value)
	}
}
