// Package schedule holds the canonical 24-slot plan derived from an arbitrage.PlanResult: a
// per-hour state tag and cost breakdown, in the shape consumed by the TOU projector and the HTTP
// surface.
package schedule

import "github.com/cepro/homebess/arbitrage"

// State is the per-hour behavior tag derived from a plan's signed action.
type State string

const (
	Charging    State = "charging"
	Discharging State = "discharging"
	Idle        State = "idle"
)

// Interval is one hour of the canonical schedule.
type Interval struct {
	Start  int // hour, 0-23
	End    int // hour, 0-23 (same as Start; each interval spans one hour)
	State  State
	Action float64 // kWh, signed
	Soe    float64 // kWh, state at the start of this hour
}

// idleDefault is returned by GetHourSettings for an out-of-range hour.
var idleDefault = Interval{State: Idle}

// Schedule is the canonical 24-interval plan for a day.
type Schedule struct {
	Intervals [24]Interval
	Result    arbitrage.PlanResult
}

// FromPlanResult derives a Schedule's per-hour state tags from a planner's action vector.
func FromPlanResult(result arbitrage.PlanResult) Schedule {
	var sch Schedule
	sch.Result = result
	for h := 0; h < 24; h++ {
		state := Idle
		switch {
		case result.Actions[h] > 0:
			state = Charging
		case result.Actions[h] < 0:
			state = Discharging
		}
		sch.Intervals[h] = Interval{
			Start:  h,
			End:    h,
			State:  state,
			Action: result.Actions[h],
			Soe:    result.Soe[h],
		}
	}
	return sch
}

// GetHourSettings returns the interval for the given hour, or a safe idle default if hour is out
// of the [0,23] range - it never panics on bad input.
func (s Schedule) GetHourSettings(hour int) Interval {
	if hour < 0 || hour > 23 {
		return idleDefault
	}
	return s.Intervals[hour]
}
