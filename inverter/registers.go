package inverter

import "github.com/cepro/homebess/modbus"

// statusBlock holds the live, read-only state the facade and guard poll every tick. Addresses
// follow the conventions common to Growatt SPF/MIN hybrid inverters: whole percent for SoC and
// power-rate percentages, tenths of an amp for phase currents.
var statusBlock = modbus.MetricBlock{
	Name:         "Status",
	StartAddr:    1000,
	NumRegisters: 20,
	Metrics: map[string]modbus.Metric{
		"BatterySocPct":           {StartAddr: 1000, DataType: modbus.Uint16Type},
		"GridChargeEnabled":       {StartAddr: 1001, DataType: modbus.Uint16Type},
		"ChargingPowerRatePct":    {StartAddr: 1002, DataType: modbus.Uint16Type},
		"DischargingPowerRatePct": {StartAddr: 1003, DataType: modbus.Uint16Type},
		"ChargeStopSocPct":        {StartAddr: 1004, DataType: modbus.Uint16Type},
		"DischargeStopSocPct":     {StartAddr: 1005, DataType: modbus.Uint16Type},
		"L1CurrentA":              {StartAddr: 1006, DataType: modbus.Uint16Type},
		"L2CurrentA":              {StartAddr: 1007, DataType: modbus.Uint16Type},
		"L3CurrentA":              {StartAddr: 1008, DataType: modbus.Uint16Type},
		"GridImportPowerW":        {StartAddr: 1009, DataType: modbus.Int32Type},
	},
}

// commandBlock holds the scalar setpoints the facade and guard write.
var commandBlock = modbus.MetricBlock{
	Name:         "Command",
	StartAddr:    2000,
	NumRegisters: 6,
	Metrics: map[string]modbus.Metric{
		"GridChargeEnabled":       {StartAddr: 2000, DataType: modbus.Uint16Type},
		"ChargingPowerRatePct":    {StartAddr: 2001, DataType: modbus.Uint16Type},
		"DischargingPowerRatePct": {StartAddr: 2002, DataType: modbus.Uint16Type},
		"ChargeStopSocPct":        {StartAddr: 2003, DataType: modbus.Uint16Type},
		"DischargeStopSocPct":     {StartAddr: 2004, DataType: modbus.Uint16Type},
	},
}

// touSegmentBaseAddr is the start of the first of maxTouSlots TOU segment register groups, each
// touSegmentStride registers wide: [enabled, mode, start_hour, start_min, end_hour, end_min, grid_charge, discharge_rate_pct].
const (
	touSegmentBaseAddr = 3000
	touSegmentStride   = 8
	maxTouSlots        = 8
)
