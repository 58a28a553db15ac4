package schedule

import (
	"testing"

	"github.com/cepro/homebess/arbitrage"
	"github.com/stretchr/testify/assert"
)

func TestFromPlanResultDerivesStates(t *testing.T) {
	var result arbitrage.PlanResult
	result.Actions[2] = 5
	result.Actions[10] = -3
	result.Soe[2] = 12

	sch := FromPlanResult(result)

	assert.Equal(t, Charging, sch.Intervals[2].State)
	assert.Equal(t, Discharging, sch.Intervals[10].State)
	assert.Equal(t, Idle, sch.Intervals[0].State)
	assert.Equal(t, 12.0, sch.Intervals[2].Soe)
}

func TestGetHourSettingsOutOfRange(t *testing.T) {
	sch := FromPlanResult(arbitrage.PlanResult{})

	assert.Equal(t, Idle, sch.GetHourSettings(-1).State)
	assert.Equal(t, Idle, sch.GetHourSettings(24).State)
	assert.Equal(t, Idle, sch.GetHourSettings(99).State)
	assert.NotPanics(t, func() { sch.GetHourSettings(-100) })
}

func TestGetHourSettingsInRange(t *testing.T) {
	var result arbitrage.PlanResult
	result.Actions[5] = 2.5
	sch := FromPlanResult(result)

	got := sch.GetHourSettings(5)
	assert.Equal(t, Charging, got.State)
	assert.Equal(t, 2.5, got.Action)
}
