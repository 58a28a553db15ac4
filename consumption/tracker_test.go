package consumption

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTrackerDefaultsForecast(t *testing.T) {
	tr := NewTracker(30)
	for h, v := range tr.PerHour() {
		assert.Equalf(t, defaultPerHourKWh, v, "hour %d", h)
	}
}

func TestUpdateConsumptionRejectsInvalidInput(t *testing.T) {
	tr := NewTracker(30)

	assert.Error(t, tr.UpdateConsumption(-1, 1, nil))
	assert.Error(t, tr.UpdateConsumption(24, 1, nil))
	assert.Error(t, tr.UpdateConsumption(0, -1, nil))

	bad := 150.0
	assert.Error(t, tr.UpdateConsumption(0, 1, &bad))
}

func TestUpdateConsumptionDerivesLoadFromSocDelta(t *testing.T) {
	tr := NewTracker(30)

	soc0 := 50.0
	require.NoError(t, tr.UpdateConsumption(0, 1.0, &soc0))

	soc1 := 60.0 // +10% of 30kWh = 3kWh went into the battery
	require.NoError(t, tr.UpdateConsumption(1, 1.0, &soc1))

	assert.InDelta(t, 4.0, tr.PerHour()[1], 1e-9)
}

func TestUpdateConsumptionReplacesFuturePredictionsAfterThreeActuals(t *testing.T) {
	tr := NewTracker(30)

	require.NoError(t, tr.UpdateConsumption(0, 2.0, nil))
	require.NoError(t, tr.UpdateConsumption(1, 4.0, nil))
	require.NoError(t, tr.UpdateConsumption(2, 6.0, nil))

	for h := 3; h < 24; h++ {
		assert.InDeltaf(t, 4.0, tr.PerHour()[h], 1e-9, "hour %d should be replaced by the rolling mean", h)
	}
	// observed hours keep their actuals, not the mean
	assert.InDelta(t, 2.0, tr.PerHour()[0], 1e-9)
}

func TestResetDailyPreservesForecastButClearsActuals(t *testing.T) {
	tr := NewTracker(30)
	require.NoError(t, tr.UpdateConsumption(0, 2.0, nil))
	require.NoError(t, tr.UpdateConsumption(1, 4.0, nil))
	require.NoError(t, tr.UpdateConsumption(2, 6.0, nil))

	forecastBefore := tr.PerHour()
	tr.ResetDaily()

	assert.Equal(t, forecastBefore, tr.PerHour())
	assert.Nil(t, tr.actuals[0])
	assert.Nil(t, tr.socSamples[0])
}
