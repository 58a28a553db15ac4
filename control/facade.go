// Package control implements the closed-loop control facade: the single owner of the current
// Schedule, the battery/price configs, and the inverter write path. Every
// scheduled task (apply_schedule, update_state, verify_inverter_settings, adjust_charging_power,
// prepare_next_day) calls into the facade, so - unlike the teacher's single-goroutine Controller -
// the facade guards its mutable state with its own mutex rather than relying on a single reader
// goroutine.
package control

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cepro/homebess/arbitrage"
	"github.com/cepro/homebess/berrors"
	"github.com/cepro/homebess/consumption"
	"github.com/cepro/homebess/guard"
	"github.com/cepro/homebess/inverter"
	"github.com/cepro/homebess/priceview"
	"github.com/cepro/homebess/schedule"
	"github.com/cepro/homebess/touplan"
)

// PriceSource is the day-ahead price port.
type PriceSource interface {
	GetPrices(ctx context.Context, date time.Time, area string) ([]priceview.HourlyPrice, error)
}

// Settings is the full mutable configuration the facade owns.
type Settings struct {
	Battery     arbitrage.BatteryConfig
	Price       priceview.PriceConfig
	MaxTouSegments int
}

const maxRetries = 4
const retryBackoff = 4 * time.Second

// Facade is the single owner of the current Schedule, configs, and inverter write path.
type Facade struct {
	mu sync.Mutex

	settings Settings
	schedule schedule.Schedule
	plan     touplan.TouPlan
	haveSchedule bool

	prices     PriceSource
	controller inverter.Controller
	tracker    *consumption.Tracker
	guard      *guard.Guard

	logger *slog.Logger
}

// New constructs a Facade around its collaborating ports.
func New(settings Settings, prices PriceSource, controller inverter.Controller, tracker *consumption.Tracker, g *guard.Guard) *Facade {
	return &Facade{
		settings:   settings,
		prices:     prices,
		controller: controller,
		tracker:    tracker,
		guard:      g,
		logger:     slog.Default().With("component", "control"),
	}
}

// withRetry retries fn up to maxRetries times with a fixed back-off, classifying the final
// failure as InverterFatal once retries are exhausted.
func withRetry(ctx context.Context, logger *slog.Logger, op string, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if kind, ok := berrors.KindOf(err); ok && kind != berrors.InverterTransient {
			return err
		}

		logger.Warn("inverter operation failed, retrying", "op", op, "attempt", attempt, "error", err)
		if attempt < maxRetries {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(retryBackoff):
			}
		}
	}
	return berrors.New(berrors.InverterFatal, fmt.Errorf("%s: exhausted %d retries: %w", op, maxRetries, lastErr))
}

// RunOptimization fetches prices for date, reads current SoC (defaulting to min_soc on failure),
// plans, stores the new Schedule, and projects it to a TouPlan.
func (f *Facade) RunOptimization(ctx context.Context, date time.Time) (schedule.Schedule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	rawPrices, err := f.prices.GetPrices(ctx, date, f.settings.Price.Area)
	if err != nil {
		return schedule.Schedule{}, err
	}
	if len(rawPrices) == 0 {
		return schedule.Schedule{}, berrors.New(berrors.NoPrices, fmt.Errorf("no prices published for %s", date.Format("2006-01-02")))
	}

	derived := priceview.Derive(f.settings.Price, rawPrices)
	planningPrices, cycleCost, err := priceview.SelectPricesForPlanning(f.settings.Price, derived, f.settings.Battery.CycleCostPerKWh)
	if err != nil {
		return schedule.Schedule{}, err
	}

	var pricesArr [24]float64
	copy(pricesArr[:], planningPrices)

	cfg := f.settings.Battery
	cfg.CycleCostPerKWh = cycleCost

	consumptionArr := f.tracker.PerHour()

	initialSocPct := cfg.MinSocPct
	soc, err := f.controller.BatterySocPct(ctx)
	if err != nil {
		f.logger.Warn("failed to read battery SoC, defaulting to min_soc", "error", err)
	} else {
		initialSocPct = soc
	}

	result, err := arbitrage.Plan(pricesArr, cfg, consumptionArr, initialSocPct)
	if err != nil {
		return schedule.Schedule{}, err
	}

	newSchedule := schedule.FromPlanResult(result)
	newPlan := touplan.Project(newSchedule, f.settings.MaxTouSegments)

	// A newer plan fully supersedes the old one before any inverter write is issued.
	f.schedule = newSchedule
	f.plan = newPlan
	f.haveSchedule = true

	return newSchedule, nil
}

// PrepareNextDay runs RunOptimization for tomorrow and, on success, clears all inverter TOU
// segments before writing the new compact list.
func (f *Facade) PrepareNextDay(ctx context.Context) (bool, error) {
	tomorrow := time.Now().AddDate(0, 0, 1)

	if _, err := f.RunOptimization(ctx, tomorrow); err != nil {
		if kind, ok := berrors.KindOf(err); ok && kind == berrors.NoPrices {
			f.logger.Warn("tomorrow's prices not yet published, staying on current schedule", "error", err)
			return false, nil
		}
		return false, err
	}

	f.mu.Lock()
	plan := f.plan
	f.mu.Unlock()

	err := withRetry(ctx, f.logger, "disable_all_tou_segments", func() error {
		return f.controller.DisableAllTouSegments(ctx)
	})
	if err != nil {
		return false, err
	}

	for _, seg := range plan.Compact {
		seg := seg
		err := withRetry(ctx, f.logger, "write_tou_segment", func() error {
			return f.controller.SetTouSegment(ctx, seg.ID, string(seg.Mode), seg.StartHHMM, seg.EndHHMM, seg.Enabled)
		})
		if err != nil {
			return false, err
		}
	}

	return true, nil
}

// ApplySchedule writes the hour's grid-charge and discharge-rate settings to the inverter, but
// only the values that differ from the inverter's current settings (idempotent).
func (f *Facade) ApplySchedule(ctx context.Context, hour int) error {
	f.mu.Lock()
	if !f.haveSchedule {
		f.mu.Unlock()
		return berrors.New(berrors.InternalInvariant, fmt.Errorf("apply_schedule called with no schedule in force"))
	}
	dispatch := f.plan.HourlySettings(hour)
	f.mu.Unlock()

	currentGridCharge, err := f.controller.GridChargeEnabled(ctx)
	if err != nil {
		return berrors.New(berrors.InverterTransient, err)
	}
	currentDischargeRate, err := f.controller.DischargingPowerRatePct(ctx)
	if err != nil {
		return berrors.New(berrors.InverterTransient, err)
	}

	if currentGridCharge != dispatch.GridCharge {
		if err := withRetry(ctx, f.logger, "set_grid_charge", func() error {
			return f.controller.SetGridCharge(ctx, dispatch.GridCharge)
		}); err != nil {
			return err
		}
	}

	if currentDischargeRate != dispatch.DischargeRatePct {
		if err := withRetry(ctx, f.logger, "set_discharge_rate", func() error {
			return f.controller.SetDischargingPowerRatePct(ctx, dispatch.DischargeRatePct)
		}); err != nil {
			return err
		}
	}

	return nil
}

// UpdateState reads live grid import and SoC, feeds the consumption tracker, and applies the
// current hour's schedule.
func (f *Facade) UpdateState(ctx context.Context, hour int) error {
	gridImportKW, err := f.controller.CurrentGridImportKW(ctx)
	if err != nil {
		return berrors.New(berrors.InverterTransient, err)
	}
	soc, err := f.controller.BatterySocPct(ctx)
	if err != nil {
		f.logger.Warn("failed to read SoC for consumption tracking", "error", err)
		soc = -1
	}

	var socPtr *float64
	if soc >= 0 {
		socPtr = &soc
	}

	if err := f.tracker.UpdateConsumption(hour, gridImportKW, socPtr); err != nil {
		return err
	}

	return f.ApplySchedule(ctx, hour)
}

// VerifyInverterSettings reads back the inverter's live settings and compares them with what the
// current hour's schedule expects, logging a diagnostic if they've drifted.
func (f *Facade) VerifyInverterSettings(ctx context.Context, hour int) error {
	f.mu.Lock()
	expected := f.plan.HourlySettings(hour)
	f.mu.Unlock()

	gridCharge, err := f.controller.GridChargeEnabled(ctx)
	if err != nil {
		return berrors.New(berrors.InverterTransient, err)
	}
	dischargeRate, err := f.controller.DischargingPowerRatePct(ctx)
	if err != nil {
		return berrors.New(berrors.InverterTransient, err)
	}

	if gridCharge != expected.GridCharge || dischargeRate != expected.DischargeRatePct {
		f.logger.Warn("inverter settings have drifted from the expected schedule",
			"hour", hour,
			"expected_grid_charge", expected.GridCharge, "actual_grid_charge", gridCharge,
			"expected_discharge_rate", expected.DischargeRatePct, "actual_discharge_rate", dischargeRate,
		)
	}

	return nil
}

// AdjustChargingPower delegates one tick of the phase/power guard's policy.
func (f *Facade) AdjustChargingPower(ctx context.Context) error {
	return f.guard.AdjustChargingPower(ctx)
}

// SettingsPatch deep-merges into the relevant sections of Settings; only non-nil fields are
// applied.
type SettingsPatch struct {
	Battery     *arbitrage.BatteryConfig
	Price       *priceview.PriceConfig
	Consumption *[24]float64 // per-hour forecast, overwrites the consumption tracker wholesale
	Home        *guard.Config
}

// UpdateSettings merges patch into the current settings. Price changes are pushed to the price
// port implicitly on the next RunOptimization call (the port is stateless, driven by the current
// PriceConfig held here). Consumption and Home changes take effect on the respective
// collaborator immediately, since the tracker and guard each own their own state.
func (f *Facade) UpdateSettings(patch SettingsPatch) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if patch.Battery != nil {
		if err := patch.Battery.Validate(); err != nil {
			return err
		}
		f.settings.Battery = *patch.Battery
	}
	if patch.Price != nil {
		if err := patch.Price.Validate(); err != nil {
			return err
		}
		f.settings.Price = *patch.Price
	}
	if patch.Consumption != nil {
		f.tracker.SetPredictions(*patch.Consumption)
	}
	if patch.Home != nil {
		if err := f.guard.UpdateConfig(*patch.Home); err != nil {
			return err
		}
	}
	return nil
}

// CurrentSchedule returns the Schedule from the most recent successful RunOptimization.
func (f *Facade) CurrentSchedule() (schedule.Schedule, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.schedule, f.haveSchedule
}

// CurrentSettings returns a copy of the facade's current settings.
func (f *Facade) CurrentSettings() Settings {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.settings
}

// CurrentConsumptionForecast returns the tracker's current 24-slot forecast.
func (f *Facade) CurrentConsumptionForecast() [24]float64 {
	return f.tracker.PerHour()
}

// CurrentHomeConfig returns the guard's current electrical envelope.
func (f *Facade) CurrentHomeConfig() guard.Config {
	return f.guard.Config()
}
