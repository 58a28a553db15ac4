package control

import (
	"context"

	"github.com/cepro/homebess/inverter"
)

// phaseMeter is the on-demand three-phase current reading a guardAdapter delegates to - satisfied
// by acuvim2.Acuvim2Meter's direct Modbus read, independent of its telemetry Run loop.
type phaseMeter interface {
	PhaseCurrentsA(ctx context.Context) (float64, float64, float64, error)
}

// guardAdapter presents a phaseMeter plus an inverter.Controller as the single guard.PhaseReader
// port: phase currents come from the dedicated current meter, grid-charge state and rate from the
// inverter itself.
type guardAdapter struct {
	meter      phaseMeter
	controller inverter.Controller
}

func newGuardAdapter(meter phaseMeter, controller inverter.Controller) *guardAdapter {
	return &guardAdapter{meter: meter, controller: controller}
}

// NewGuardAdapter composes a phase-current meter and an inverter controller into the
// guard.PhaseReader port, for callers outside this package wiring up a Guard.
func NewGuardAdapter(meter phaseMeter, controller inverter.Controller) *guardAdapter {
	return newGuardAdapter(meter, controller)
}

func (a *guardAdapter) PhaseCurrentsA(ctx context.Context) (float64, float64, float64, error) {
	return a.meter.PhaseCurrentsA(ctx)
}

func (a *guardAdapter) GridChargeEnabled(ctx context.Context) (bool, error) {
	return a.controller.GridChargeEnabled(ctx)
}

func (a *guardAdapter) ChargingPowerRatePct(ctx context.Context) (int, error) {
	return a.controller.ChargingPowerRatePct(ctx)
}

func (a *guardAdapter) SetChargingPowerRatePct(ctx context.Context, pct int) error {
	return a.controller.SetChargingPowerRatePct(ctx, pct)
}
