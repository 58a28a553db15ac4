// Package priceview derives retail buy/sell prices from a raw day-ahead feed and selects the
// price vector the arbitrage planner should optimize against.
package priceview

import (
	"fmt"
	"time"

	"github.com/cepro/homebess/berrors"
)

// PriceConfig controls the retail markup applied to the raw day-ahead feed.
type PriceConfig struct {
	Area            string  `json:"area"` // bidding area, e.g. "SE3"
	Markup          float64 `json:"markup"`
	VatMultiplier   float64 `json:"vat_multiplier"` // must be >= 1
	AdditionalCosts float64 `json:"additional_costs"`
	TaxReduction    float64 `json:"tax_reduction"`
	UseActualPrice  bool    `json:"use_actual_price"` // if true, the planner optimizes against retail buy_price; otherwise raw price
}

// Validate checks the invariants PriceConfig must hold.
func (c PriceConfig) Validate() error {
	if c.VatMultiplier < 1 {
		return berrors.Invalidf("vat_multiplier", "must be >= 1, got %v", c.VatMultiplier)
	}
	validAreas := map[string]bool{"SE1": true, "SE2": true, "SE3": true, "SE4": true}
	if c.Area != "" && !validAreas[c.Area] {
		return berrors.Invalidf("area", "unrecognized area %q", c.Area)
	}
	return nil
}

// HourlyPrice is one hour's raw and derived prices.
type HourlyPrice struct {
	Timestamp     time.Time
	NordpoolPrice float64
	BuyPrice      float64
	SellPrice     float64
}

// Derive computes BuyPrice and SellPrice for each raw nordpool row.
func Derive(cfg PriceConfig, raw []HourlyPrice) []HourlyPrice {
	out := make([]HourlyPrice, len(raw))
	for i, row := range raw {
		row.BuyPrice = (row.NordpoolPrice+cfg.Markup)*cfg.VatMultiplier + cfg.AdditionalCosts
		row.SellPrice = row.NordpoolPrice + cfg.TaxReduction
		out[i] = row
	}
	return out
}

// SelectPricesForPlanning picks the price vector and cycle cost the planner should use, per the
// price-selection rule: when UseActualPrice is set the planner sees retail buy prices and the raw
// cycle cost; otherwise it sees raw nordpool prices and a cycle cost deflated by the VAT
// multiplier, so that the profitability comparison stays consistent in either mode.
func SelectPricesForPlanning(cfg PriceConfig, prices []HourlyPrice, rawCycleCost float64) (planningPrices []float64, cycleCost float64, err error) {
	if len(prices) != 24 {
		return nil, 0, berrors.New(berrors.NoPrices, fmt.Errorf("expected 24 hourly rows, got %d", len(prices)))
	}

	out := make([]float64, 24)
	if cfg.UseActualPrice {
		for i, p := range prices {
			out[i] = p.BuyPrice
		}
		return out, rawCycleCost, nil
	}

	for i, p := range prices {
		out[i] = p.NordpoolPrice
	}
	return out, rawCycleCost / cfg.VatMultiplier, nil
}
