// Package telemetry holds the wire types shared between the devices (meters, the BESS inverter)
// and the rest of the system: the control facade, the phase guard, and the telemetry archive.
package telemetry

import (
	"time"

	"github.com/google/uuid"
)

// ReadingMeta carries the identity and timing common to every reading.
type ReadingMeta struct {
	ID       uuid.UUID
	DeviceID uuid.UUID
	Time     time.Time
}

// MeterReading holds a three-phase site or circuit meter reading. Fields are pointers because a
// given meter model may not expose every metric.
type MeterReading struct {
	ReadingMeta

	Frequency          *float64
	VoltageLineAverage *float64

	CurrentPhA       *float64
	CurrentPhB       *float64
	CurrentPhC       *float64
	CurrentPhAverage *float64

	PowerPhAActive *float64
	PowerPhBActive *float64
	PowerPhCActive *float64

	PowerTotalActive   *float64 // +ve is import from the grid, -ve is export
	PowerTotalReactive *float64
	PowerTotalApparent *float64
	PowerFactorTotal   *float64

	EnergyImportedActive *float64
	EnergyExportedActive *float64
}

// BessReading holds data pulled from the BESS inverter.
type BessReading struct {
	ReadingMeta

	Soe                     float64 // state of energy, kWh
	SocPct                  float64 // state of charge, percent
	TargetPower             float64 // +ve is discharge, -ve is charge
	GridChargeEnabled       bool
	ChargingPowerRatePct    int
	DischargingPowerRatePct int
	ChargeStopSocPct        int
	DischargeStopSocPct     int
}

// BessCommand holds control data sent to the BESS inverter.
type BessCommand struct {
	TargetPower             *float64 // +ve is discharge, -ve is charge
	GridChargeEnabled       *bool
	ChargingPowerRatePct    *int
	DischargingPowerRatePct *int
	ChargeStopSocPct        *int
	DischargeStopSocPct     *int
}

// TouSegmentCommand instructs the inverter to program one time-of-use segment.
type TouSegmentCommand struct {
	ID               int
	Mode             string // "battery_first" or "load_first"
	StartHHMM        string
	EndHHMM          string
	Enabled          bool
	GridCharge       bool
	DischargeRatePct int
}
