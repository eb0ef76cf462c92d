package reporting

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/shiftlog/internal/domain/models"
	"github.com/mamadbah2/shiftlog/internal/repository"
	repo "github.com/mamadbah2/shiftlog/internal/repository/sheets"
	"github.com/mamadbah2/shiftlog/internal/service/derivation"
	"github.com/mamadbah2/shiftlog/internal/service/exchange"
	"github.com/mamadbah2/shiftlog/internal/service/records"
)

const (
	recordsIDRange     = "Records!A:A"
	recordsAppendRange = "Records!A1"
)

// ErrSheetsDisabled is returned by MirrorToSheet when no spreadsheet is configured.
var ErrSheetsDisabled = errors.New("google sheets mirror is not configured")

// Service builds periodic digests and mirrors records to a spreadsheet.
type Service struct {
	records repository.RecordRepository
	sheet   repo.Repository
	logger  *zap.Logger
}

// NewService wires a new reporting service instance. sheet may be nil.
func NewService(records repository.RecordRepository, sheet repo.Repository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{records: records, sheet: sheet, logger: logger}
}

// WeeklySummary aggregates the records from Monday of now's week up to now (UTC).
func (s *Service) WeeklySummary(ctx context.Context, now time.Time) (models.WeeklySummary, error) {
	end := now.UTC()
	start := startOfWeek(end)

	recs, err := s.records.ListRecords(ctx, models.RecordFilter{
		StartDate: start.Format(models.DateLayout),
		EndDate:   end.Format(models.DateLayout),
	})
	if err != nil {
		return models.WeeklySummary{}, fmt.Errorf("load weekly records: %w", err)
	}

	summary := models.WeeklySummary{
		Start: start,
		End:   end,
		Stats: records.Summarize(recs),
	}
	for _, r := range recs {
		if minutes, ok := derivation.ParseQuantity(r.DowntimeDuration); ok {
			summary.DowntimeMinutes += minutes
		}
	}
	summary.WeakestProcess, summary.WeakestTimeRate = weakestProcess(recs)
	return summary, nil
}

// GenerateWeeklyReport renders the weekly summary as a chat-friendly text.
func (s *Service) GenerateWeeklyReport(ctx context.Context, now time.Time) (string, error) {
	summary, err := s.WeeklySummary(ctx, now)
	if err != nil {
		return "", err
	}

	period := fmt.Sprintf("%s - %s", summary.Start.Format(models.DateLayout), summary.End.Format(models.DateLayout))
	if summary.Stats.TotalRecords == 0 {
		return fmt.Sprintf("Weekly production report (%s): no records yet.", period), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Weekly production report (%s)\n", period)
	fmt.Fprintf(&b, "Records: %d\n", summary.Stats.TotalRecords)
	fmt.Fprintf(&b, "Total output: %d units\n", summary.Stats.TotalActualQty)
	fmt.Fprintf(&b, "Avg capacity rate: %.2f%%\n", summary.Stats.AvgCapacityRate)
	fmt.Fprintf(&b, "Avg time rate: %.2f%%\n", summary.Stats.AvgTimeRate)
	fmt.Fprintf(&b, "Unplanned downtime: %d min", summary.DowntimeMinutes)
	if summary.WeakestProcess != "" {
		fmt.Fprintf(&b, "\nWeakest process: %s (%.2f%% time rate)", summary.WeakestProcess, summary.WeakestTimeRate)
	}
	return b.String(), nil
}

// MirrorToSheet appends the records dated day that the Records sheet does
// not hold yet. Column A carries record ids; a header row is written first
// to an empty sheet. It returns the number of records appended.
func (s *Service) MirrorToSheet(ctx context.Context, day time.Time) (int, error) {
	if s.sheet == nil {
		return 0, ErrSheetsDisabled
	}

	date := day.Format(models.DateLayout)
	recs, err := s.records.ListRecords(ctx, models.RecordFilter{StartDate: date, EndDate: date})
	if err != nil {
		return 0, fmt.Errorf("load records for %s: %w", date, err)
	}

	existing, err := s.sheet.ReadRange(ctx, recordsIDRange)
	if err != nil {
		return 0, fmt.Errorf("load mirrored ids: %w", err)
	}
	seen := make(map[string]bool, len(existing))
	for _, row := range existing {
		if len(row) == 0 {
			continue
		}
		seen[fmt.Sprint(row[0])] = true
	}

	rows := make([][]interface{}, 0, len(recs))
	// oldest first so the sheet reads chronologically
	for i := len(recs) - 1; i >= 0; i-- {
		r := recs[i]
		if seen[r.ID] {
			continue
		}
		rows = append(rows, toCells(r.ID, exchange.Row(r)))
	}
	if len(rows) == 0 {
		s.logger.Debug("sheet mirror up to date", zap.String("date", date))
		return 0, nil
	}

	if len(existing) == 0 {
		if err := s.sheet.WriteRow(ctx, recordsAppendRange, toCells("id", exchange.Columns)); err != nil {
			return 0, fmt.Errorf("write mirror header: %w", err)
		}
	}
	if err := s.sheet.AppendRows(ctx, recordsAppendRange, rows); err != nil {
		return 0, fmt.Errorf("append mirror rows: %w", err)
	}

	s.logger.Info("records mirrored to sheet", zap.String("date", date), zap.Int("rows", len(rows)))
	return len(rows), nil
}

// weakestProcess returns the process with the lowest mean time rate.
func weakestProcess(recs []models.ProductionRecord) (string, float64) {
	byProcess := make(map[string][]models.ProductionRecord)
	for _, r := range recs {
		if r.Process == "" {
			continue
		}
		byProcess[r.Process] = append(byProcess[r.Process], r)
	}

	names := make([]string, 0, len(byProcess))
	for name := range byProcess {
		names = append(names, name)
	}
	sort.Strings(names)

	weakest, lowest := "", 0.0
	for _, name := range names {
		mean, ok := records.MeanTimeRate(byProcess[name])
		if !ok {
			continue
		}
		if weakest == "" || mean < lowest {
			weakest, lowest = name, mean
		}
	}
	return weakest, lowest
}

func startOfWeek(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7 // Monday = 0
	y, m, d := t.AddDate(0, 0, -offset).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func toCells(first string, rest []string) []interface{} {
	cells := make([]interface{}, 0, len(rest)+1)
	cells = append(cells, first)
	for _, v := range rest {
		cells = append(cells, v)
	}
	return cells
}
