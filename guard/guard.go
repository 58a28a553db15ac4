// Package guard implements the phase/power guard: it reads three-phase current, computes
// available charging headroom against a fuse limit, and steps the inverter's charging-rate
// setpoint toward that headroom in bounded increments. It is independent of the planner and the
// control facade - it only ever mutates the charging-rate setpoint, and only while grid charging
// is enabled.
package guard

import (
	"context"
	"log/slog"
	"sync"

	"github.com/cepro/homebess/berrors"
)

const defaultStepSizePct = 5

// PhaseReader is the port the guard reads live phase currents and charging state from.
type PhaseReader interface {
	PhaseCurrentsA(ctx context.Context) (l1, l2, l3 float64, err error)
	GridChargeEnabled(ctx context.Context) (bool, error)
	ChargingPowerRatePct(ctx context.Context) (int, error)
	SetChargingPowerRatePct(ctx context.Context, pct int) error
}

// Config holds the static electrical parameters the guard bounds its adjustments against.
type Config struct {
	VoltageV                float64 `json:"voltage_v"`
	MaxFuseAmps             float64 `json:"max_fuse_amps"`
	SafetyMargin            float64 `json:"safety_margin"` // (0,1]
	ConfiguredChargeRatePct int     `json:"configured_charge_rate_pct"` // the battery's configured charge rate ceiling
	StepSizePct             int     `json:"step_size_pct"`              // default 5 when zero
}

// MaxPowerPerPhaseW is the fuse-limited, safety-margined power ceiling per phase.
func (c Config) MaxPowerPerPhaseW() float64 {
	return c.VoltageV * c.MaxFuseAmps * c.SafetyMargin
}

// Validate checks the invariants the guard's arithmetic depends on.
func (c Config) Validate() error {
	if c.VoltageV <= 0 {
		return berrors.Invalidf("voltage_v", "must be positive, got %v", c.VoltageV)
	}
	if c.MaxFuseAmps <= 0 {
		return berrors.Invalidf("max_fuse_amps", "must be positive, got %v", c.MaxFuseAmps)
	}
	if c.SafetyMargin <= 0 || c.SafetyMargin > 1 {
		return berrors.Invalidf("safety_margin", "must be in (0,1], got %v", c.SafetyMargin)
	}
	return nil
}

func (c Config) stepSize() int {
	if c.StepSizePct <= 0 {
		return defaultStepSizePct
	}
	return c.StepSizePct
}

// Guard owns the charging-rate setpoint write path against a PhaseReader.
type Guard struct {
	reader PhaseReader

	mu  sync.Mutex
	cfg Config

	logger *slog.Logger
}

// New returns a Guard for the given reader and config.
func New(reader PhaseReader, cfg Config) (*Guard, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Guard{
		reader: reader,
		cfg:    cfg,
		logger: slog.Default().With("component", "guard"),
	}, nil
}

// Config returns a copy of the guard's current electrical envelope.
func (g *Guard) Config() Config {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.cfg
}

// UpdateConfig validates and replaces the guard's electrical envelope, taking effect on the next
// tick of AdjustChargingPower.
func (g *Guard) UpdateConfig(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cfg = cfg
	return nil
}

// AvailableChargingPct computes the charging-rate percentage the most-loaded phase can currently
// afford, clipped to [0, configured_charge_rate_pct].
func (g *Guard) AvailableChargingPct(ctx context.Context) (float64, error) {
	l1, l2, l3, err := g.reader.PhaseCurrentsA(ctx)
	if err != nil {
		return 0, berrors.New(berrors.InverterTransient, err)
	}

	cfg := g.Config()
	maxPerPhase := cfg.MaxPowerPerPhaseW()
	l1w, l2w, l3w := l1*cfg.VoltageV, l2*cfg.VoltageV, l3*cfg.VoltageV

	mostLoadedPct := max3(l1w, l2w, l3w) / maxPerPhase * 100
	availablePct := 100 - mostLoadedPct

	g.logger.Info("phase loads",
		"l1_w", l1w, "l2_w", l2w, "l3_w", l3w,
		"most_loaded_pct", mostLoadedPct, "available_pct", availablePct,
	)

	if availablePct < 0 {
		availablePct = 0
	}
	if availablePct > float64(cfg.ConfiguredChargeRatePct) {
		availablePct = float64(cfg.ConfiguredChargeRatePct)
	}
	return availablePct, nil
}

// AdjustChargingPower runs one tick of the guard's control policy: no-op unless grid charging is
// enabled, otherwise steps the live charging-rate setpoint toward AvailableChargingPct by at most
// StepSizePct.
func (g *Guard) AdjustChargingPower(ctx context.Context) error {
	enabled, err := g.reader.GridChargeEnabled(ctx)
	if err != nil {
		return berrors.New(berrors.InverterTransient, err)
	}
	if !enabled {
		return nil
	}

	targetPct, err := g.AvailableChargingPct(ctx)
	if err != nil {
		return err
	}

	currentPct, err := g.reader.ChargingPowerRatePct(ctx)
	if err != nil {
		return berrors.New(berrors.InverterTransient, err)
	}

	step := g.Config().stepSize()
	var newPct int
	if targetPct > float64(currentPct) {
		newPct = min3(currentPct+step, int(targetPct))
	} else {
		newPct = max3int(currentPct-step, int(targetPct))
	}

	if abs(newPct-currentPct) < step {
		return nil
	}

	g.logger.Info("adjusting charging power", "from_pct", currentPct, "to_pct", newPct, "target_pct", targetPct)
	if err := g.reader.SetChargingPowerRatePct(ctx, newPct); err != nil {
		return berrors.New(berrors.InverterTransient, err)
	}
	return nil
}

func max3(a, b, c float64) float64 {
	m := a
	if b > m {
		m = b
	}
	if c > m {
		m = c
	}
	return m
}

func min3(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func max3int(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
