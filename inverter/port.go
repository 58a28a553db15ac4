// Package inverter defines the port the control facade drives the physical BESS inverter
// through, plus a Modbus-backed implementation and an in-memory mock for tests.
package inverter

import "context"

// Controller is the inverter port: getters mirror live hardware state, setters issue commands.
// Every method can fail; the Modbus-backed implementation reports I/O failures as
// berrors.InverterTransient and out-of-range arguments as berrors.InvalidInput.
type Controller interface {
	BatterySocPct(ctx context.Context) (float64, error)
	GridChargeEnabled(ctx context.Context) (bool, error)
	ChargingPowerRatePct(ctx context.Context) (int, error)
	DischargingPowerRatePct(ctx context.Context) (int, error)
	ChargeStopSocPct(ctx context.Context) (int, error)
	DischargeStopSocPct(ctx context.Context) (int, error)
	L1CurrentA(ctx context.Context) (float64, error)
	L2CurrentA(ctx context.Context) (float64, error)
	L3CurrentA(ctx context.Context) (float64, error)
	CurrentGridImportKW(ctx context.Context) (float64, error)

	SetGridCharge(ctx context.Context, enabled bool) error
	SetChargingPowerRatePct(ctx context.Context, pct int) error
	SetDischargingPowerRatePct(ctx context.Context, pct int) error
	SetChargeStopSocPct(ctx context.Context, pct int) error
	SetDischargeStopSocPct(ctx context.Context, pct int) error
	SetTouSegment(ctx context.Context, id int, mode string, startHHMM, endHHMM string, enabled bool) error
	DisableAllTouSegments(ctx context.Context) error
}
