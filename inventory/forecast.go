/*
forecast.go - Depletion forecasting from ledger history

PURPOSE:
  Projects the date an item runs out. Fits an ordinary least squares
  line through (elapsed days since first consumption, cumulative units
  consumed); the slope is the estimated daily consumption rate, and
  days_left = current_qty / rate.

WHY CUMULATIVE CONSUMPTION:
  Regressing cumulative draw against time smooths over irregular order
  sizes: five entries of -2 and one of -10 on the same trend line give
  the same slope. Restocks (positive deltas) are excluded entirely;
  they say nothing about how fast stock drains.

MINIMUM SAMPLES:
  A policy knob, not a constant. Two points fit a line; deployments
  wanting seasonal-grade confidence can demand thirty. Below the
  minimum the forecast returns ErrInsufficientData rather than a
  number nobody should trust.

DETERMINISM:
  For a fixed history and a fixed clock the output is reproducible:
  plain OLS, no randomness.

SEE ALSO:
  - ledger.go: ConsumptionHistory (negative deltas with snapshots only)
*/
package inventory

import (
	"context"
	"time"

	"github.com/warp/stock-engine/sheets"
)

// DefaultMinSamples is the smallest history a linear trend can be fitted
// to. Raise it for noisy inventories.
const DefaultMinSamples = 2

// Forecaster estimates depletion dates.
type Forecaster struct {
	resolver   Resolver
	sheets     *sheets.Client
	ledger     *Ledger
	minSamples int
	now        func() time.Time
}

// NewForecaster creates a forecaster. minSamples < 2 falls back to
// DefaultMinSamples.
func NewForecaster(resolver Resolver, client *sheets.Client, ledger *Ledger, minSamples int) *Forecaster {
	if minSamples < 2 {
		minSamples = DefaultMinSamples
	}
	return &Forecaster{
		resolver:   resolver,
		sheets:     client,
		ledger:     ledger,
		minSamples: minSamples,
		now:        time.Now,
	}
}

// SetClock overrides the clock (tests).
func (f *Forecaster) SetClock(now func() time.Time) { f.now = now }

// Forecast projects when the item's quantity crosses zero.
func (f *Forecaster) Forecast(ctx context.Context, caller CallerID, itemName string) (DepletionEstimate, error) {
	if itemName == "" {
		return DepletionEstimate{}, &ValidationError{Field: "item_name", Message: "must not be empty"}
	}
	sheet, err := f.resolver.Resolve(ctx, caller)
	if err != nil {
		return DepletionEstimate{}, err
	}

	history, err := f.ledger.ConsumptionHistory(ctx, sheet, itemName)
	if err != nil {
		return DepletionEstimate{}, err
	}
	if len(history) < f.minSamples {
		return DepletionEstimate{}, &InsufficientDataError{
			ItemName: itemName,
			Have:     len(history),
			Need:     f.minSamples,
		}
	}

	// Cumulative consumption vs. elapsed days since the first entry.
	start := history[0].CreatedAt
	xs := make([]float64, len(history))
	ys := make([]float64, len(history))
	cumulative := 0.0
	for i, e := range history {
		xs[i] = e.CreatedAt.Sub(start).Hours() / 24
		cumulative += e.Delta.Abs().InexactFloat64()
		ys[i] = cumulative
	}

	rate, ok := slope(xs, ys)
	if !ok || rate <= 0 {
		return DepletionEstimate{}, ErrTrendUnclear
	}

	item, err := findItem(ctx, f.sheets, sheet, itemName)
	if err != nil {
		return DepletionEstimate{}, err
	}
	if !item.Quantity.IsPositive() {
		return DepletionEstimate{}, ErrAlreadyDepleted
	}

	daysLeft := item.Quantity.InexactFloat64() / rate
	now := f.now()
	return DepletionEstimate{
		ItemName:    itemName,
		CurrentQty:  item.Quantity,
		DailyRate:   rate,
		DaysLeft:    daysLeft,
		PredictedAt: now.Add(time.Duration(daysLeft * 24 * float64(time.Hour))),
		Samples:     len(history),
	}, nil
}

// slope fits y = a + b*x by ordinary least squares and returns b.
// ok is false when all x values coincide (vertical data, no trend).
func slope(xs, ys []float64) (b float64, ok bool) {
	n := float64(len(xs))
	var sumX, sumY float64
	for i := range xs {
		sumX += xs[i]
		sumY += ys[i]
	}
	meanX, meanY := sumX/n, sumY/n

	var num, den float64
	for i := range xs {
		dx := xs[i] - meanX
		num += dx * (ys[i] - meanY)
		den += dx * dx
	}
	if den == 0 {
		return 0, false
	}
	return num / den, true
}
