package store

import (
	"testing"

	"github.com/cepro/homebess/arbitrage"
	"github.com/cepro/homebess/priceview"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadBeforeSaveReturnsNotOk(t *testing.T) {
	s, err := Open(":memory:")
	require.NoError(t, err)

	_, _, _, ok, err := s.Load()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSaveThenLoadRoundTrips(t *testing.T) {
	s, err := Open(":memory:")
	require.NoError(t, err)

	battery := arbitrage.BatteryConfig{
		TotalCapacityKWh:     30,
		MinSocPct:            10,
		MaxChargeDischargeKW: 15,
		ChargingPowerPct:     40,
		CycleCostPerKWh:      0.5,
		MinProfitThreshold:   0.2,
	}
	price := priceview.PriceConfig{Area: "SE3", VatMultiplier: 1.25, Markup: 0.1}
	var forecast [24]float64
	for h := range forecast {
		forecast[h] = 5.2
	}

	require.NoError(t, s.Save(battery, price, forecast))

	gotBattery, gotPrice, gotForecast, ok, err := s.Load()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, battery, gotBattery)
	assert.Equal(t, price, gotPrice)
	assert.Equal(t, forecast, gotForecast)
}

func TestSaveOverwritesPreviousSnapshot(t *testing.T) {
	s, err := Open(":memory:")
	require.NoError(t, err)

	var forecast1, forecast2 [24]float64
	forecast2[0] = 9.9

	require.NoError(t, s.Save(arbitrage.BatteryConfig{}, priceview.PriceConfig{VatMultiplier: 1}, forecast1))
	require.NoError(t, s.Save(arbitrage.BatteryConfig{}, priceview.PriceConfig{VatMultiplier: 1}, forecast2))

	_, _, got, ok, err := s.Load()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, forecast2, got)
}
