package inverter

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cepro/homebess/berrors"
	"github.com/cepro/homebess/modbus"
)

// Growatt talks to a Growatt-family hybrid inverter over Modbus TCP. It implements Controller.
type Growatt struct {
	host   string
	client *modbus.Client
	logger *slog.Logger
}

// NewGrowatt dials the inverter at host and returns a ready Controller.
func NewGrowatt(host string) (*Growatt, error) {
	logger := slog.Default().With("component", "inverter", "host", host)

	client, err := modbus.NewClient(host)
	if err != nil {
		return nil, fmt.Errorf("create modbus client: %w", err)
	}

	return &Growatt{host: host, client: client, logger: logger}, nil
}

func (g *Growatt) wrapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return berrors.New(berrors.InverterTransient, fmt.Errorf("%s: %w", op, err))
}

func (g *Growatt) readStatus(ctx context.Context, key string) (uint16, error) {
	vals, err := g.client.PollBlock(nil, statusBlock)
	if err != nil {
		return 0, g.wrapErr("poll status", err)
	}
	return vals[key].(uint16), nil
}

func (g *Growatt) BatterySocPct(ctx context.Context) (float64, error) {
	v, err := g.readStatus(ctx, "BatterySocPct")
	return float64(v), err
}

func (g *Growatt) GridChargeEnabled(ctx context.Context) (bool, error) {
	v, err := g.readStatus(ctx, "GridChargeEnabled")
	return v != 0, err
}

func (g *Growatt) ChargingPowerRatePct(ctx context.Context) (int, error) {
	v, err := g.readStatus(ctx, "ChargingPowerRatePct")
	return int(v), err
}

func (g *Growatt) DischargingPowerRatePct(ctx context.Context) (int, error) {
	v, err := g.readStatus(ctx, "DischargingPowerRatePct")
	return int(v), err
}

func (g *Growatt) ChargeStopSocPct(ctx context.Context) (int, error) {
	v, err := g.readStatus(ctx, "ChargeStopSocPct")
	return int(v), err
}

func (g *Growatt) DischargeStopSocPct(ctx context.Context) (int, error) {
	v, err := g.readStatus(ctx, "DischargeStopSocPct")
	return int(v), err
}

func (g *Growatt) L1CurrentA(ctx context.Context) (float64, error) {
	v, err := g.readStatus(ctx, "L1CurrentA")
	return float64(v) / 10, err
}

func (g *Growatt) L2CurrentA(ctx context.Context) (float64, error) {
	v, err := g.readStatus(ctx, "L2CurrentA")
	return float64(v) / 10, err
}

func (g *Growatt) L3CurrentA(ctx context.Context) (float64, error) {
	v, err := g.readStatus(ctx, "L3CurrentA")
	return float64(v) / 10, err
}

func (g *Growatt) CurrentGridImportKW(ctx context.Context) (float64, error) {
	vals, err := g.client.PollBlock(nil, statusBlock)
	if err != nil {
		return 0, g.wrapErr("poll status", err)
	}
	return float64(vals["GridImportPowerW"].(int32)) / 1000.0, nil
}

func (g *Growatt) SetGridCharge(ctx context.Context, enabled bool) error {
	var v uint16
	if enabled {
		v = 1
	}
	return g.wrapErr("write grid charge", g.client.WriteMetric(commandBlock.Metrics["GridChargeEnabled"], v))
}

func (g *Growatt) SetChargingPowerRatePct(ctx context.Context, pct int) error {
	return g.wrapErr("write charging power rate", g.client.WriteMetric(commandBlock.Metrics["ChargingPowerRatePct"], uint16(pct)))
}

func (g *Growatt) SetDischargingPowerRatePct(ctx context.Context, pct int) error {
	return g.wrapErr("write discharging power rate", g.client.WriteMetric(commandBlock.Metrics["DischargingPowerRatePct"], uint16(pct)))
}

func (g *Growatt) SetChargeStopSocPct(ctx context.Context, pct int) error {
	return g.wrapErr("write charge stop soc", g.client.WriteMetric(commandBlock.Metrics["ChargeStopSocPct"], uint16(pct)))
}

func (g *Growatt) SetDischargeStopSocPct(ctx context.Context, pct int) error {
	return g.wrapErr("write discharge stop soc", g.client.WriteMetric(commandBlock.Metrics["DischargeStopSocPct"], uint16(pct)))
}

// SetTouSegment writes the first six fields of one TOU segment record: [enabled, mode, start_hour,
// start_min, end_hour, end_min]; the record's grid_charge and discharge_rate_pct registers are left
// untouched. id must be in [0, maxTouSlots).
func (g *Growatt) SetTouSegment(ctx context.Context, id int, mode string, startHHMM, endHHMM string, enabled bool) error {
	if id < 0 || id >= maxTouSlots {
		return berrors.Invalidf("id", "tou segment id must be in [0,%d), got %d", maxTouSlots, id)
	}
	startH, startM, err := parseHHMM(startHHMM)
	if err != nil {
		return berrors.Invalid("start_hhmm", err)
	}
	endH, endM, err := parseHHMM(endHHMM)
	if err != nil {
		return berrors.Invalid("end_hhmm", err)
	}

	modeVal := uint16(0) // battery_first
	if mode == "load_first" {
		modeVal = 1
	}
	enabledVal := uint16(0)
	if enabled {
		enabledVal = 1
	}

	addr := uint16(touSegmentBaseAddr + id*touSegmentStride)
	vals := []uint16{enabledVal, modeVal, uint16(startH), uint16(startM), uint16(endH), uint16(endM)}
	return g.wrapErr("write tou segment", g.client.WriteRegisters(addr, vals))
}

func (g *Growatt) DisableAllTouSegments(ctx context.Context) error {
	for id := 0; id < maxTouSlots; id++ {
		addr := uint16(touSegmentBaseAddr + id*touSegmentStride)
		if err := g.client.WriteRegisters(addr, []uint16{0, 0, 0, 0, 0, 0}); err != nil {
			return g.wrapErr("disable tou segments", err)
		}
	}
	return nil
}

func parseHHMM(s string) (hour, minute int, err error) {
	if len(s) != 5 || s[2] != ':' {
		return 0, 0, fmt.Errorf("invalid HH:MM %q", s)
	}
	hour = int(s[0]-'0')*10 + int(s[1]-'0')
	minute = int(s[3]-'0')*10 + int(s[4]-'0')
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid HH:MM %q", s)
	}
	return hour, minute, nil
}
