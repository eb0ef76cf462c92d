// Package exchange moves production records in and out as CSV and XLSX files.
package exchange

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/mamadbah2/shiftlog/internal/domain/models"
	"github.com/mamadbah2/shiftlog/internal/metrics"
	"github.com/mamadbah2/shiftlog/internal/service/derivation"
	"github.com/mamadbah2/shiftlog/internal/service/records"
)

// SheetName is the worksheet holding exported records.
const SheetName = "Records"

// Columns is the file layout shared by export and import.
var Columns = []string{
	"date", "name", "position", "product", "process",
	"theoretical_runtime", "actual_runtime", "single_time", "theoretical_qty", "actual_qty",
	"total_weight", "unit_weight", "tare_weight", "capacity_rate", "time_rate",
	"downtime_duration", "adjustment_time", "adjustment_master",
}

// legacyProductColumn is read as product by files written before product and
// process were split.
const legacyProductColumn = "item"

// ErrMissingHeader is returned when an import file has no usable header row.
var ErrMissingHeader = errors.New("csv header must contain a date column")

// RecordCreator stores one imported shift.
type RecordCreator interface {
	Create(ctx context.Context, input models.RecordInput) (models.ProductionRecord, error)
}

// ImportResult summarizes an import run.
type ImportResult struct {
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors,omitempty"`
}

// Service converts records to and from files.
type Service struct {
	creator RecordCreator
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewService wires an exchange service.
func NewService(creator RecordCreator, m *metrics.Metrics, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{creator: creator, metrics: m, logger: logger}
}

// WriteCSV writes a header row followed by one row per record.
func (s *Service) WriteCSV(w io.Writer, recs []models.ProductionRecord) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(Columns); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range recs {
		if err := writer.Write(Row(r)); err != nil {
			return fmt.Errorf("write csv row %s: %w", r.ID, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteXLSX writes the same layout as WriteCSV to a workbook with a bold header.
func (s *Service) WriteXLSX(w io.Writer, recs []models.ProductionRecord) error {
	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			s.logger.Warn("close workbook", zap.Error(err))
		}
	}()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	header := make([]interface{}, len(Columns))
	for i, c := range Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}
	if err := f.SetRowStyle(SheetName, 1, 1, bold); err != nil {
		return fmt.Errorf("style header: %w", err)
	}

	for i, r := range recs {
		values := Row(r)
		cells := make([]interface{}, len(values))
		for j, v := range values {
			cells[j] = v
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SheetName, cell, &cells); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// ImportCSV creates one record per data row. Columns are matched by header
// name, so missing or reordered columns are tolerated. Every row goes through
// the derivation engine; stored derived values in the file are ignored except
// an actual quantity that the weights cannot reproduce, which is kept as a
// manual value. Unreadable quantities are dropped; rows with an invalid date
// are skipped and reported.
func (s *Service) ImportCSV(ctx context.Context, r io.Reader) (ImportResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return ImportResult{}, ErrMissingHeader
	}
	if err != nil {
		return ImportResult{}, fmt.Errorf("read csv header: %w", err)
	}

	index := headerIndex(header)
	if _, ok := index["date"]; !ok {
		return ImportResult{}, ErrMissingHeader
	}

	var result ImportResult
	for {
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return result, fmt.Errorf("read csv: %w", err)
		}
		line, _ := reader.FieldPos(0)
		if blankRow(fields) {
			continue
		}

		get := func(col string) string {
			i, ok := index[col]
			if !ok || i >= len(fields) {
				return ""
			}
			return strings.TrimSpace(fields[i])
		}

		input := inputFromRow(get)
		if _, err := s.creator.Create(ctx, input); err != nil {
			if errors.Is(err, records.ErrInvalidInput) {
				result.Skipped++
				result.Errors = append(result.Errors, fmt.Sprintf("line %d: %v", line, err))
				continue
			}
			return result, fmt.Errorf("import line %d: %w", line, err)
		}
		result.Imported++
	}

	s.metrics.ImportRows("imported", result.Imported)
	s.metrics.ImportRows("skipped", result.Skipped)
	s.logger.Info("csv import finished", zap.Int("imported", result.Imported), zap.Int("skipped", result.Skipped))
	return result, nil
}

func inputFromRow(get func(string) string) models.RecordInput {
	product := get("product")
	if product == "" {
		product = get(legacyProductColumn)
	}

	input := models.RecordInput{
		Date:             get("date"),
		Name:             get("name"),
		Position:         get("position"),
		Product:          product,
		Process:          get("process"),
		AdjustmentMaster: get("adjustment_master"),
		AdjustmentTime:   get("adjustment_time"),
		DowntimeDuration: get("downtime_duration"),
		SingleTime:       get("single_time"),
		TotalWeight:      get("total_weight"),
		UnitWeight:       get("unit_weight"),
		TareWeight:       get("tare_weight"),
	}
	input.ActualQty = manualQuantity(get("actual_qty"), input)
	return input
}

// manualQuantity returns the stored quantity when it must be kept by hand, or
// blank when the engine can derive it (or it is unreadable).
func manualQuantity(stored string, input models.RecordInput) string {
	if stored == "" {
		return ""
	}
	if _, ok := derivation.ParseQuantity(stored); !ok {
		return ""
	}
	if computed, ok := derivation.WeightQuantity(input.TotalWeight, input.UnitWeight, input.TareWeight); ok && computed == stored {
		return ""
	}
	return stored
}

// Row lays a record out in Columns order.
func Row(r models.ProductionRecord) []string {
	return []string{
		r.Date, r.Name, r.Position, r.Product, r.Process,
		r.TheoreticalRuntime, r.ActualRuntime, r.SingleTime, r.TheoreticalQty, r.ActualQty,
		r.TotalWeight, r.UnitWeight, r.TareWeight, r.CapacityRate, r.TimeRate,
		r.DowntimeDuration, r.AdjustmentTime, r.AdjustmentMaster,
	}
}

func headerIndex(header []string) map[string]int {
	index := make(map[string]int, len(header))
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, dup := index[key]; !dup {
			index[key] = i
		}
	}
	return index
}

func blankRow(fields []string) bool {
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
