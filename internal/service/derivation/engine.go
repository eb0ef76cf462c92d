// Package derivation recomputes the efficiency fields of a production record
// from its raw inputs.
//
// The chain runs in a fixed order, each step reading the previous step's
// output: theoretical runtime, actual runtime, theoretical quantity, actual
// quantity, capacity rate, time rate. No step fails: a field whose inputs
// are missing, non-numeric or would divide by zero is left blank.
//
// Rounding: the weight-derived actual quantity rounds half up; theoretical
// quantity and both rates round half to even.
package derivation

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mamadbah2/shiftlog/internal/domain/models"
)

// ShiftMinutes is the nominal length of a shift.
const ShiftMinutes = 480

var (
	shift   = decimal.NewFromInt(ShiftMinutes)
	sixty   = decimal.NewFromInt(60)
	hundred = decimal.NewFromInt(100)
)

// Recompute returns a copy of record with every derived field rebuilt from
// the raw inputs. A manual actual quantity is carried over untouched.
func Recompute(record models.ProductionRecord) models.ProductionRecord {
	out := record

	out.TheoreticalRuntime = TheoreticalRuntime(out.AdjustmentTime)
	out.ActualRuntime = ActualRuntime(out.TheoreticalRuntime, out.DowntimeDuration)
	out.TheoreticalQty = TheoreticalQty(out.ActualRuntime, out.SingleTime)

	if out.ManualActualQty() {
		out.ActualQtySource = models.QtySourceManual
	} else {
		qty, _ := WeightQuantity(out.TotalWeight, out.UnitWeight, out.TareWeight)
		out.ActualQty = qty
		out.ActualQtySource = models.QtySourceComputed
	}

	out.CapacityRate = Rate(out.ActualQty, out.TheoreticalQty)
	out.TimeRate = Rate(out.ActualRuntime, out.TheoreticalRuntime)

	return out
}

// TheoreticalRuntime is the shift length minus adjustment minutes, floored
// at zero. An unreadable adjustment counts as zero.
func TheoreticalRuntime(adjustmentTime string) string {
	adjustment, ok := integerOrZero(adjustmentTime)
	if !ok {
		adjustment = decimal.Zero
	}
	return clampZero(shift.Sub(adjustment)).String()
}

// ActualRuntime subtracts downtime from the theoretical runtime, floored at
// zero. A blank theoretical runtime falls back to a full shift; unreadable
// input yields blank.
func ActualRuntime(theoreticalRuntime, downtimeDuration string) string {
	theoretical := shift
	if strings.TrimSpace(theoreticalRuntime) != "" {
		v, ok := parseInteger(theoreticalRuntime)
		if !ok {
			return ""
		}
		theoretical = v
	}

	downtime, ok := integerOrZero(downtimeDuration)
	if !ok {
		return ""
	}
	return clampZero(theoretical.Sub(downtime)).String()
}

// TheoreticalQty is the number of cycles that fit in the actual runtime.
// Blank unless both inputs are integers and the cycle time is positive.
func TheoreticalQty(actualRuntime, singleTime string) string {
	runtime, ok := parseInteger(actualRuntime)
	if !ok {
		return ""
	}
	cycle, ok := parseInteger(singleTime)
	if !ok || !cycle.IsPositive() {
		return ""
	}
	return runtime.Mul(sixty).Div(cycle).RoundBank(0).String()
}

// WeightQuantity derives a unit count from net weight. It reports false
// when the unit weight is not positive or a weight cannot be read; blank
// weights count as zero.
func WeightQuantity(totalWeight, unitWeight, tareWeight string) (string, bool) {
	total, ok := decimalOrZero(totalWeight)
	if !ok {
		return "", false
	}
	unit, ok := decimalOrZero(unitWeight)
	if !ok || !unit.IsPositive() {
		return "", false
	}
	tare, ok := decimalOrZero(tareWeight)
	if !ok {
		return "", false
	}

	// decimal.Round breaks ties away from zero, i.e. half up for positives.
	qty := clampZero(total.Sub(tare).Div(unit).Round(0))
	return qty.String(), true
}

// Rate formats numerator/denominator as a percentage with two decimals.
// It is blank when the denominator is blank or either side is unreadable,
// and "0%" when the denominator is zero. A blank numerator counts as zero.
func Rate(numerator, denominator string) string {
	den, ok := parseInteger(denominator)
	if !ok {
		return ""
	}
	num, ok := integerOrZero(numerator)
	if !ok {
		return ""
	}
	if !den.IsPositive() {
		return "0%"
	}
	return FormatPercent(num.Mul(hundred).Div(den).RoundBank(2))
}

// FormatPercent renders an already rounded percentage with at least one
// decimal digit, e.g. 92.09%, 100.0%.
func FormatPercent(value decimal.Decimal) string {
	s := value.String()
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s + "%"
}

// ParseRate reads a percentage string produced by Rate.
func ParseRate(value string) (decimal.Decimal, bool) {
	s := strings.TrimSpace(value)
	if !strings.HasSuffix(s, "%") {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(strings.TrimSpace(strings.TrimSuffix(s, "%")))
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// ParseQuantity reads a whole, non-negative unit count.
func ParseQuantity(value string) (int64, bool) {
	n, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

func parseInteger(value string) (decimal.Decimal, bool) {
	s := strings.TrimSpace(value)
	if s == "" {
		return decimal.Zero, false
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return decimal.Zero, false
	}
	return decimal.NewFromInt(n), true
}

func integerOrZero(value string) (decimal.Decimal, bool) {
	if strings.TrimSpace(value) == "" {
		return decimal.Zero, true
	}
	return parseInteger(value)
}

func decimalOrZero(value string) (decimal.Decimal, bool) {
	s := strings.TrimSpace(value)
	if s == "" {
		return decimal.Zero, true
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

func clampZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
