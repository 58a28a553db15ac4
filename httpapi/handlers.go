package httpapi

import (
	"net/http"
	"time"

	"github.com/cepro/homebess/arbitrage"
	"github.com/cepro/homebess/berrors"
	"github.com/cepro/homebess/control"
	"github.com/cepro/homebess/guard"
	"github.com/cepro/homebess/priceview"
	"github.com/gin-gonic/gin"
)

// Handlers binds the control facade to gin route handlers.
type Handlers struct {
	facade *control.Facade
}

// NewHandlers returns Handlers wired to facade.
func NewHandlers(facade *control.Facade) *Handlers {
	return &Handlers{facade: facade}
}

// Health answers GET /.
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// GetBatterySettings answers GET /api/settings/battery.
func (h *Handlers) GetBatterySettings(c *gin.Context) {
	c.JSON(http.StatusOK, h.facade.CurrentSettings().Battery)
}

// UpdateBatterySettings answers POST /api/settings/battery.
func (h *Handlers) UpdateBatterySettings(c *gin.Context) {
	var patch arbitrage.BatteryConfig
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.facade.UpdateSettings(control.SettingsPatch{Battery: &patch}); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, h.facade.CurrentSettings().Battery)
}

// GetElectricitySettings answers GET /api/settings/electricity.
func (h *Handlers) GetElectricitySettings(c *gin.Context) {
	c.JSON(http.StatusOK, h.facade.CurrentSettings().Price)
}

// UpdateElectricitySettings answers POST /api/settings/electricity.
func (h *Handlers) UpdateElectricitySettings(c *gin.Context) {
	var patch priceview.PriceConfig
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.facade.UpdateSettings(control.SettingsPatch{Price: &patch}); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, h.facade.CurrentSettings().Price)
}

// GetConsumptionSettings answers GET /api/settings/consumption.
func (h *Handlers) GetConsumptionSettings(c *gin.Context) {
	c.JSON(http.StatusOK, h.facade.CurrentConsumptionForecast())
}

// UpdateConsumptionSettings answers POST /api/settings/consumption.
func (h *Handlers) UpdateConsumptionSettings(c *gin.Context) {
	var patch [24]float64
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.facade.UpdateSettings(control.SettingsPatch{Consumption: &patch}); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, h.facade.CurrentConsumptionForecast())
}

// GetHomeSettings answers GET /api/settings/home.
func (h *Handlers) GetHomeSettings(c *gin.Context) {
	c.JSON(http.StatusOK, h.facade.CurrentHomeConfig())
}

// UpdateHomeSettings answers POST /api/settings/home.
func (h *Handlers) UpdateHomeSettings(c *gin.Context) {
	var patch guard.Config
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.facade.UpdateSettings(control.SettingsPatch{Home: &patch}); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, h.facade.CurrentHomeConfig())
}

// hourlyDataRow is one row of the schedule response.
type hourlyDataRow struct {
	Hour         int     `json:"hour"`
	Price        float64 `json:"price"`
	BatteryLevel float64 `json:"batteryLevel"`
	Action       float64 `json:"action"`
	GridCost     float64 `json:"gridCost"`
	BatteryCost  float64 `json:"batteryCost"`
	TotalCost    float64 `json:"totalCost"`
	BaseCost     float64 `json:"baseCost"`
	Savings      float64 `json:"savings"`
}

type scheduleSummary struct {
	BaseCost        float64 `json:"baseCost"`
	OptimizedCost   float64 `json:"optimizedCost"`
	GridCosts       float64 `json:"gridCosts"`
	BatteryCosts    float64 `json:"batteryCosts"`
	Savings         float64 `json:"savings"`
	TotalCharged    float64 `json:"totalCharged"`
	TotalDischarged float64 `json:"totalDischarged"`
}

type scheduleResponse struct {
	HourlyData []hourlyDataRow `json:"hourlyData"`
	Summary    scheduleSummary `json:"summary"`
}

// GetSchedule answers GET /api/schedule?date=YYYY-MM-DD.
func (h *Handlers) GetSchedule(c *gin.Context) {
	dateStr := c.Query("date")
	date := time.Now()
	if dateStr != "" {
		parsed, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date, expected YYYY-MM-DD"})
			return
		}
		date = parsed
	}

	sch, err := h.facade.RunOptimization(c.Request.Context(), date)
	if err != nil {
		if kind, ok := berrors.KindOf(err); ok && kind == berrors.NoPrices {
			c.JSON(http.StatusOK, []hourlyDataRow{})
			return
		}
		c.JSON(http.StatusNotImplemented, gin.H{"error": err.Error()})
		return
	}

	resp := scheduleResponse{HourlyData: make([]hourlyDataRow, 24)}
	for hour, interval := range sch.Intervals {
		hc := sch.Result.HourlyCosts[hour]
		resp.HourlyData[hour] = hourlyDataRow{
			Hour:         hour,
			Price:        hc.Price,
			BatteryLevel: interval.Soe,
			Action:       interval.Action,
			GridCost:     hc.GridCost,
			BatteryCost:  hc.BatteryCost,
			TotalCost:    hc.TotalCost,
			BaseCost:     hc.BaseCost,
			Savings:      hc.Savings,
		}

		resp.Summary.BaseCost += hc.BaseCost
		resp.Summary.OptimizedCost += hc.TotalCost
		resp.Summary.GridCosts += hc.GridCost
		resp.Summary.BatteryCosts += hc.BatteryCost
		resp.Summary.Savings += hc.Savings
		if interval.Action > 0 {
			resp.Summary.TotalCharged += interval.Action
		} else if interval.Action < 0 {
			resp.Summary.TotalDischarged += -interval.Action
		}
	}

	c.JSON(http.StatusOK, resp)
}

func respondError(c *gin.Context, err error) {
	if kind, ok := berrors.KindOf(err); ok && kind == berrors.InvalidInput {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
