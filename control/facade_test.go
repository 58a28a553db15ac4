package control

import (
	"context"
	"testing"
	"time"

	"github.com/cepro/homebess/arbitrage"
	"github.com/cepro/homebess/consumption"
	"github.com/cepro/homebess/guard"
	"github.com/cepro/homebess/inverter"
	"github.com/cepro/homebess/priceview"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePriceSource struct {
	rows []priceview.HourlyPrice
	err  error
}

type fakePhaseMeter struct {
	l1, l2, l3 float64
}

func (f *fakePhaseMeter) PhaseCurrentsA(ctx context.Context) (float64, float64, float64, error) {
	return f.l1, f.l2, f.l3, nil
}

func (f *fakePriceSource) GetPrices(ctx context.Context, date time.Time, area string) ([]priceview.HourlyPrice, error) {
	return f.rows, f.err
}

func flatPriceRows(v float64, n int) []priceview.HourlyPrice {
	rows := make([]priceview.HourlyPrice, n)
	for i := range rows {
		rows[i] = priceview.HourlyPrice{NordpoolPrice: v}
	}
	return rows
}

func testSettings() Settings {
	return Settings{
		Battery: arbitrage.BatteryConfig{
			TotalCapacityKWh:     30,
			MinSocPct:            10,
			MaxChargeDischargeKW: 15,
			ChargingPowerPct:     40,
			CycleCostPerKWh:      0.5,
			MinProfitThreshold:   0.2,
		},
		Price:          priceview.PriceConfig{Area: "SE3", VatMultiplier: 1.25},
		MaxTouSegments: 8,
	}
}

func newTestFacade(t *testing.T, priceRows []priceview.HourlyPrice) (*Facade, *inverter.Mock) {
	t.Helper()
	mock := inverter.NewMock()
	tracker := consumption.NewTracker(30)
	g, err := guard.New(newGuardAdapter(&fakePhaseMeter{}, mock), guard.Config{
		VoltageV:                230,
		MaxFuseAmps:             25,
		SafetyMargin:            0.9,
		ConfiguredChargeRatePct: 40,
	})
	require.NoError(t, err)

	f := New(testSettings(), &fakePriceSource{rows: priceRows}, mock, tracker, g)
	return f, mock
}

func TestRunOptimizationFlatPricesProducesIdleSchedule(t *testing.T) {
	f, _ := newTestFacade(t, flatPriceRows(1.0, 24))

	sch, err := f.RunOptimization(context.Background(), time.Now())
	require.NoError(t, err)

	for h, interval := range sch.Intervals {
		assert.Equalf(t, 0.0, interval.Action, "hour %d", h)
	}
}

func TestRunOptimizationNoPricesReturnsError(t *testing.T) {
	f, _ := newTestFacade(t, nil)

	_, err := f.RunOptimization(context.Background(), time.Now())
	require.Error(t, err)
}

func TestApplyScheduleIsIdempotent(t *testing.T) {
	f, mock := newTestFacade(t, flatPriceRows(1.0, 24))

	_, err := f.RunOptimization(context.Background(), time.Now())
	require.NoError(t, err)

	require.NoError(t, f.ApplySchedule(context.Background(), 0))
	firstGridCharge := mock.GridChargeOn
	firstDischargeRate := mock.DischargingRatePct

	require.NoError(t, f.ApplySchedule(context.Background(), 0))
	assert.Equal(t, firstGridCharge, mock.GridChargeOn)
	assert.Equal(t, firstDischargeRate, mock.DischargingRatePct)
}

func TestUpdateSettingsValidatesPatch(t *testing.T) {
	f, _ := newTestFacade(t, flatPriceRows(1.0, 24))

	bad := arbitrage.BatteryConfig{MinSocPct: 0}
	err := f.UpdateSettings(SettingsPatch{Battery: &bad})
	require.Error(t, err)

	good := f.CurrentSettings().Battery
	good.CycleCostPerKWh = 0.75
	require.NoError(t, f.UpdateSettings(SettingsPatch{Battery: &good}))
	assert.Equal(t, 0.75, f.CurrentSettings().Battery.CycleCostPerKWh)
}

func TestPrepareNextDayClearsThenWritesTou(t *testing.T) {
	f, mock := newTestFacade(t, flatPriceRows(1.0, 24))

	ok, err := f.PrepareNextDay(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NotEmpty(t, mock.TouSegments)
}
