package touplan

import (
	"testing"

	"github.com/cepro/homebess/schedule"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scheduleWithStates(states [24]schedule.State) schedule.Schedule {
	var sch schedule.Schedule
	for h, st := range states {
		action := 0.0
		switch st {
		case schedule.Charging:
			action = 1
		case schedule.Discharging:
			action = -1
		}
		sch.Intervals[h] = schedule.Interval{Start: h, End: h, State: st, Action: action}
	}
	return sch
}

func TestProjectAllIdleIsOneSegmentPlusTail(t *testing.T) {
	var states [24]schedule.State
	for h := range states {
		states[h] = schedule.Idle
	}
	sch := scheduleWithStates(states)

	plan := Project(sch, 8)

	require.Len(t, plan.Detailed, 2)
	assert.Equal(t, "00:00", plan.Detailed[0].StartHHMM)
	assert.Equal(t, "23:44", plan.Detailed[0].EndHHMM)
	assert.Equal(t, BatteryFirst, plan.Detailed[0].Mode)

	assert.Equal(t, "23:45", plan.Detailed[1].StartHHMM)
	assert.Equal(t, "23:59", plan.Detailed[1].EndHHMM)
	assert.Equal(t, LoadFirst, plan.Detailed[1].Mode)
}

func TestProjectWakeUpGapBeforeChargingAfterIdle(t *testing.T) {
	var states [24]schedule.State
	for h := range states {
		states[h] = schedule.Idle
	}
	states[5] = schedule.Charging
	states[6] = schedule.Charging
	sch := scheduleWithStates(states)

	plan := Project(sch, 8)

	var wakeSeg, chargeSeg *Segment
	for i := range plan.Detailed {
		seg := &plan.Detailed[i]
		if seg.StartHHMM == "04:45" && seg.EndHHMM == "04:59" {
			wakeSeg = seg
		}
		if seg.StartHHMM == "05:00" {
			chargeSeg = seg
		}
	}

	require.NotNil(t, wakeSeg, "expected a wake-up segment ending just before the charging window")
	assert.Equal(t, LoadFirst, wakeSeg.Mode)
	assert.False(t, wakeSeg.GridCharge)

	require.NotNil(t, chargeSeg)
	assert.Equal(t, BatteryFirst, chargeSeg.Mode)
	assert.True(t, chargeSeg.GridCharge)

	assert.Equal(t, 100, plan.Dispatch[4].DischargeRatePct)
	assert.False(t, plan.Dispatch[4].GridCharge)
}

func TestProjectTailAlwaysPresentEvenWithActionInHour23(t *testing.T) {
	var states [24]schedule.State
	for h := range states {
		states[h] = schedule.Idle
	}
	states[23] = schedule.Discharging
	sch := scheduleWithStates(states)

	plan := Project(sch, 8)

	last := plan.Detailed[len(plan.Detailed)-1]
	assert.Equal(t, "23:45", last.StartHHMM)
	assert.Equal(t, "23:59", last.EndHHMM)
	assert.Equal(t, LoadFirst, last.Mode)

	secondLast := plan.Detailed[len(plan.Detailed)-2]
	assert.Equal(t, "23:44", secondLast.EndHHMM)
}

func TestProjectCompactTrimsToMaxSegments(t *testing.T) {
	var states [24]schedule.State
	for h := 0; h < 24; h++ {
		if h%2 == 0 {
			states[h] = schedule.Charging
		} else {
			states[h] = schedule.Discharging
		}
	}
	sch := scheduleWithStates(states)

	plan := Project(sch, 3)

	assert.LessOrEqual(t, len(plan.Compact), 3)
	for _, seg := range plan.Compact {
		assert.Equal(t, BatteryFirst, seg.Mode)
	}
}

func TestHourlySettingsOutOfRange(t *testing.T) {
	plan := TouPlan{}
	assert.Equal(t, HourDispatch{}, plan.HourlySettings(-1))
	assert.Equal(t, HourDispatch{}, plan.HourlySettings(24))
}

func TestHourlySettingsRoundTripMatchesScheduleSubjectToWakeUp(t *testing.T) {
	var states [24]schedule.State
	for h := range states {
		states[h] = schedule.Idle
	}
	states[10] = schedule.Charging
	sch := scheduleWithStates(states)

	plan := Project(sch, 8)

	// Hour 9 is overridden to load-first by the wake-up gap even though the schedule says idle.
	assert.Equal(t, 100, plan.Dispatch[9].DischargeRatePct)
	assert.False(t, plan.Dispatch[9].GridCharge)

	// Hour 10 matches the schedule's charging state.
	assert.True(t, plan.Dispatch[10].GridCharge)
}
