package records

import (
	"github.com/shopspring/decimal"

	"github.com/mamadbah2/shiftlog/internal/domain/models"
	"github.com/mamadbah2/shiftlog/internal/service/derivation"
)

// Summarize totals the actual quantities and averages the readable rates of
// records. Unreadable quantities and blank rates are left out.
func Summarize(records []models.ProductionRecord) models.Statistics {
	stats := models.Statistics{TotalRecords: len(records)}

	var capacity, timeRate rateMean
	for _, r := range records {
		if qty, ok := derivation.ParseQuantity(r.ActualQty); ok {
			stats.TotalActualQty += qty
		}
		capacity.add(r.CapacityRate)
		timeRate.add(r.TimeRate)
	}

	stats.AvgCapacityRate = capacity.value()
	stats.AvgTimeRate = timeRate.value()
	return stats
}

// MeanTimeRate averages the readable time rates of records.
func MeanTimeRate(records []models.ProductionRecord) (float64, bool) {
	var m rateMean
	for _, r := range records {
		m.add(r.TimeRate)
	}
	return m.value(), m.n > 0
}

type rateMean struct {
	sum decimal.Decimal
	n   int64
}

func (m *rateMean) add(rate string) {
	v, ok := derivation.ParseRate(rate)
	if !ok {
		return
	}
	m.sum = m.sum.Add(v)
	m.n++
}

func (m rateMean) value() float64 {
	if m.n == 0 {
		return 0
	}
	return m.sum.Div(decimal.NewFromInt(m.n)).RoundBank(2).InexactFloat64()
}
