// Package consumption tracks the household load forecast the planner consumes: a 24-slot
// prediction, refined from observed grid import and battery SoC deltas as the day unfolds.
package consumption

import "github.com/cepro/homebess/berrors"

const defaultPerHourKWh = 1.0

// Tracker holds the forecast for a single day plus the rolling actuals used to refine it.
type Tracker struct {
	perHour      [24]float64
	actuals      [24]*float64
	socSamples   [24]*float64
	totalCapacityKWh float64
}

// NewTracker returns a Tracker whose forecast is initialized to defaultPerHourKWh for every hour.
func NewTracker(totalCapacityKWh float64) *Tracker {
	t := &Tracker{totalCapacityKWh: totalCapacityKWh}
	for h := range t.perHour {
		t.perHour[h] = defaultPerHourKWh
	}
	return t
}

// PerHour returns a copy of the current 24-slot forecast.
func (t *Tracker) PerHour() [24]float64 {
	return t.perHour
}

// SetPredictions overwrites the forecast wholesale, e.g. from a persisted snapshot.
func (t *Tracker) SetPredictions(perHour [24]float64) {
	t.perHour = perHour
}

// UpdateConsumption records an actual grid-import observation for hour h, and, if socPct is
// supplied, derives the hour's actual load from the SoC delta against the previous sample.
// After 3 actual samples are available, forecasts for hours not yet observed are replaced by the
// mean of the 3 most recent actuals.
func (t *Tracker) UpdateConsumption(h int, gridImportKWh float64, socPct *float64) error {
	if h < 0 || h > 23 {
		return berrors.Invalidf("hour", "must be in [0,23], got %d", h)
	}
	if gridImportKWh < 0 {
		return berrors.Invalidf("grid_import_kwh", "must be non-negative, got %v", gridImportKWh)
	}
	if socPct != nil && (*socPct < 0 || *socPct > 100) {
		return berrors.Invalidf("soc_pct", "must be in [0,100], got %v", *socPct)
	}

	actual := gridImportKWh
	if socPct != nil {
		if h > 0 && t.socSamples[h-1] != nil {
			energyChange := (*socPct - *t.socSamples[h-1]) / 100 * t.totalCapacityKWh
			actual = gridImportKWh + energyChange
		}
		sample := *socPct
		t.socSamples[h] = &sample
	}

	a := actual
	t.actuals[h] = &a
	t.perHour[h] = actual

	t.refreshFuturePredictions(h)
	return nil
}

// refreshFuturePredictions replaces the forecast for every hour after asOfHour, using the mean
// of the 3 most recent actuals, once at least 3 actuals exist.
func (t *Tracker) refreshFuturePredictions(asOfHour int) {
	var recent []float64
	for h := asOfHour; h >= 0 && len(recent) < 3; h-- {
		if t.actuals[h] != nil {
			recent = append(recent, *t.actuals[h])
		}
	}
	if len(recent) < 3 {
		return
	}

	mean := 0.0
	for _, v := range recent {
		mean += v
	}
	mean /= float64(len(recent))

	for h := asOfHour + 1; h < 24; h++ {
		if t.actuals[h] == nil {
			t.perHour[h] = mean
		}
	}
}

// ResetDaily clears actual observations and SoC samples but preserves the current forecast, ready
// for the next day's tracking.
func (t *Tracker) ResetDaily() {
	for h := range t.actuals {
		t.actuals[h] = nil
		t.socSamples[h] = nil
	}
}
