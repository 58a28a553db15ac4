package arbitrage

import "github.com/cepro/homebess/berrors"

// BatteryConfig holds the static physical limits and cost parameters of the BESS, used by the
// planner to bound the action vector it produces.
type BatteryConfig struct {
	TotalCapacityKWh     float64 `json:"total_capacity_kwh"`     // nameplate energy capacity
	MinSocPct            float64 `json:"min_soc_pct"`            // reserve floor, 0-100
	MaxChargeDischargeKW float64 `json:"max_charge_discharge_kw"` // inverter power limit
	ChargingPowerPct     float64 `json:"charging_power_pct"`     // configured charge rate, percent of MaxChargeDischargeKW
	CycleCostPerKWh      float64 `json:"cycle_cost_per_kwh"`     // wear cost applied per kWh charged
	MinProfitThreshold   float64 `json:"min_profit_threshold"`   // minimum profit-per-kWh, net of cycle cost, to commit a trade
}

// Reserved returns the minimum state of energy the battery is allowed to fall to.
func (c BatteryConfig) Reserved() float64 {
	return c.TotalCapacityKWh * c.MinSocPct / 100
}

// EffectiveMaxPowerKW returns the charge/discharge power actually usable, after applying both the
// configured charging rate and the inverter's hard power limit.
func (c BatteryConfig) EffectiveMaxPowerKW() float64 {
	fromRate := c.MaxChargeDischargeKW * c.ChargingPowerPct / 100
	if fromRate < c.MaxChargeDischargeKW {
		return fromRate
	}
	return c.MaxChargeDischargeKW
}

// Validate checks the invariants required by the planner's preconditions.
func (c BatteryConfig) Validate() error {
	if c.MinSocPct <= 0 || c.MinSocPct >= 100 {
		return berrors.Invalidf("min_soc_pct", "must be between 0 and 100 exclusive, got %v", c.MinSocPct)
	}
	if c.MaxChargeDischargeKW <= 0 {
		return berrors.Invalidf("max_charge_discharge_kw", "must be positive, got %v", c.MaxChargeDischargeKW)
	}
	if c.CycleCostPerKWh < 0 {
		return berrors.Invalidf("cycle_cost_per_kwh", "must be non-negative, got %v", c.CycleCostPerKWh)
	}
	if c.TotalCapacityKWh <= c.Reserved() {
		return berrors.Invalidf("total_capacity_kwh", "must exceed the reserved floor (%v), got %v", c.Reserved(), c.TotalCapacityKWh)
	}
	if c.EffectiveMaxPowerKW() > c.MaxChargeDischargeKW {
		return berrors.Invalidf("charging_power_pct", "effective max power exceeds max_charge_discharge_kw")
	}
	return nil
}
