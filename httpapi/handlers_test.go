package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cepro/homebess/arbitrage"
	"github.com/cepro/homebess/consumption"
	"github.com/cepro/homebess/control"
	"github.com/cepro/homebess/guard"
	"github.com/cepro/homebess/inverter"
	"github.com/cepro/homebess/priceview"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePriceSource struct {
	rows []priceview.HourlyPrice
}

func (f *fakePriceSource) GetPrices(ctx context.Context, date time.Time, area string) ([]priceview.HourlyPrice, error) {
	return f.rows, nil
}

func flatPriceRows(v float64, n int) []priceview.HourlyPrice {
	rows := make([]priceview.HourlyPrice, n)
	for i := range rows {
		rows[i] = priceview.HourlyPrice{NordpoolPrice: v}
	}
	return rows
}

func testRouter(t *testing.T, rows []priceview.HourlyPrice) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mock := inverter.NewMock()
	tracker := consumption.NewTracker(30)
	g, err := guard.New(&noopPhaseReader{}, guard.Config{
		VoltageV: 230, MaxFuseAmps: 25, SafetyMargin: 0.9, ConfiguredChargeRatePct: 40,
	})
	require.NoError(t, err)

	settings := control.Settings{
		Battery: arbitrage.BatteryConfig{
			TotalCapacityKWh: 30, MinSocPct: 10, MaxChargeDischargeKW: 15,
			ChargingPowerPct: 40, CycleCostPerKWh: 0.5, MinProfitThreshold: 0.2,
		},
		Price:          priceview.PriceConfig{Area: "SE3", VatMultiplier: 1.25},
		MaxTouSegments: 8,
	}

	facade := control.New(settings, &fakePriceSource{rows: rows}, mock, tracker, g)
	return NewRouter(NewHandlers(facade))
}

type noopPhaseReader struct{}

func (noopPhaseReader) PhaseCurrentsA(ctx context.Context) (float64, float64, float64, error) {
	return 0, 0, 0, nil
}
func (noopPhaseReader) GridChargeEnabled(ctx context.Context) (bool, error)   { return false, nil }
func (noopPhaseReader) ChargingPowerRatePct(ctx context.Context) (int, error) { return 0, nil }
func (noopPhaseReader) SetChargingPowerRatePct(ctx context.Context, pct int) error { return nil }

func TestHealthEndpoint(t *testing.T) {
	router := testRouter(t, flatPriceRows(1.0, 24))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestGetBatterySettings(t *testing.T) {
	router := testRouter(t, flatPriceRows(1.0, 24))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/settings/battery", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var got arbitrage.BatteryConfig
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, 30.0, got.TotalCapacityKWh)
}

func TestUpdateBatterySettingsValidationError(t *testing.T) {
	router := testRouter(t, flatPriceRows(1.0, 24))

	w := httptest.NewRecorder()
	body := `{"total_capacity_kwh":0,"min_soc_pct":0,"max_charge_discharge_kw":0,"charging_power_pct":0,"cycle_cost_per_kwh":0,"min_profit_threshold":0}`
	req := httptest.NewRequest(http.MethodPost, "/api/settings/battery", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetScheduleFlatPrices(t *testing.T) {
	router := testRouter(t, flatPriceRows(1.0, 24))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/schedule?date=2025-01-05", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var got scheduleResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Len(t, got.HourlyData, 24)
	assert.InDelta(t, 0, got.Summary.Savings, 1e-6)
}

func TestGetScheduleNoPrices(t *testing.T) {
	router := testRouter(t, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/schedule", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}
