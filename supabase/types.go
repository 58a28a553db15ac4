package supabase

import (
	"fmt"
	"time"

	"github.com/cepro/homebess/repository"
	"github.com/cepro/homebess/telemetry"
	"github.com/google/uuid"
)

// supabaseBessReading holds the json encoding schema for a BESS reading in supabase.
type supabaseBessReading struct {
	ID                      uuid.UUID `json:"id"`
	Time                    time.Time `json:"time"`
	BessID                  uuid.UUID `json:"bess_id"`
	Soe                     float64   `json:"soe"`
	SocPct                  float64   `json:"soc_pct"`
	TargetPower             float64   `json:"target_power"`
	GridChargeEnabled       bool      `json:"grid_charge_enabled"`
	ChargingPowerRatePct    int       `json:"charging_power_rate_pct"`
	DischargingPowerRatePct int       `json:"discharging_power_rate_pct"`
}

// supabaseMeterReading holds the json encoding schema for a meter reading in supabase. Fields the
// source device didn't report are omitted rather than sent as null.
type supabaseMeterReading struct {
	ID         uuid.UUID `json:"id"`
	Time       time.Time `json:"time"`
	MeterID    uuid.UUID `json:"meter_id"`
	Frequency  *float64  `json:"frequency,omitempty"`
	TotalPower *float64  `json:"total_power,omitempty"`
}

func toSupabaseBessReading(reading telemetry.BessReading) supabaseBessReading {
	return supabaseBessReading{
		ID:                      reading.ID,
		Time:                    reading.Time,
		BessID:                  reading.DeviceID,
		Soe:                     reading.Soe,
		SocPct:                  reading.SocPct,
		TargetPower:             reading.TargetPower,
		GridChargeEnabled:       reading.GridChargeEnabled,
		ChargingPowerRatePct:    reading.ChargingPowerRatePct,
		DischargingPowerRatePct: reading.DischargingPowerRatePct,
	}
}

func toSupabaseMeterReading(reading telemetry.MeterReading) supabaseMeterReading {
	return supabaseMeterReading{
		ID:         reading.ID,
		Time:       reading.Time,
		MeterID:    reading.DeviceID,
		Frequency:  reading.Frequency,
		TotalPower: reading.PowerTotalActive,
	}
}

// convertReadingsForSupabase converts a slice of telemetry or stored-telemetry readings into the
// row shape and table name UploadReadings needs. It panics on an unrecognized type, same as the
// repository's own conversion helpers - both are only ever called with the two reading kinds the
// rest of the system produces.
func convertReadingsForSupabase(readings interface{}) (interface{}, string) {
	switch typed := readings.(type) {

	case []telemetry.BessReading:
		rows := make([]supabaseBessReading, 0, len(typed))
		for _, r := range typed {
			rows = append(rows, toSupabaseBessReading(r))
		}
		return rows, "bess_readings"

	case []telemetry.MeterReading:
		rows := make([]supabaseMeterReading, 0, len(typed))
		for _, r := range typed {
			rows = append(rows, toSupabaseMeterReading(r))
		}
		return rows, "meter_readings"

	case []repository.StoredBessReading:
		rows := make([]supabaseBessReading, 0, len(typed))
		for _, r := range typed {
			rows = append(rows, toSupabaseBessReading(r.BessReading))
		}
		return rows, "bess_readings"

	case []repository.StoredMeterReading:
		rows := make([]supabaseMeterReading, 0, len(typed))
		for _, r := range typed {
			rows = append(rows, toSupabaseMeterReading(r.MeterReading))
		}
		return rows, "meter_readings"

	default:
		panic(fmt.Sprintf("unknown readings type: %T", readings))
	}
}
