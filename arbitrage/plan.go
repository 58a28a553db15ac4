// Package arbitrage implements the pure hourly battery arbitrage planner: given a day of hourly
// prices, a battery configuration, and a consumption forecast, it produces a vector of per-hour
// charge/discharge actions that maximizes savings subject to the battery's physical limits.
//
// The algorithm is grounded on the "find profitable trades, then greedily place them subject to
// an 80% discharge-placement rule" approach of the reference implementation: enumerate every
// (charge_hour, discharge_hour) pair, keep the ones whose profit-per-kWh (net of cycle cost) meets
// the configured threshold, and commit them in descending order of profitability.
package arbitrage

import (
	"sort"

	"github.com/cepro/homebess/berrors"
)

const numHours = 24

// HourCost is the cost decomposition for a single hour.
type HourCost struct {
	Price       float64 // the price used for planning this hour
	BaseCost    float64 // what the hour would have cost with no battery action
	GridCost    float64 // cost of energy actually drawn from the grid this hour
	BatteryCost float64 // cycle cost incurred by any charging this hour
	TotalCost   float64 // GridCost + BatteryCost
	Savings     float64 // BaseCost - TotalCost
}

// PlanResult is the output of Plan: a 24-hour action vector, the resulting state-of-energy
// trajectory, and the cost decomposition that justifies it.
type PlanResult struct {
	Actions      [numHours]float64     // kWh, +ve charge, -ve discharge
	Soe          [numHours + 1]float64 // kWh, Soe[h] is the state at the start of hour h, Soe[24] at day end
	HourlyCosts  [numHours]HourCost
	BaseCost     float64
	OptimizedCost float64
	Savings      float64
}

// trade is a candidate charge-at/discharge-at pair with its net profitability.
type trade struct {
	chargeHour    int
	dischargeHour int
	profitPerKWh  float64
}

// Plan is a deterministic, side-effect free function: the same inputs always produce the same
// output. prices and consumption must each have exactly 24 entries.
func Plan(prices [numHours]float64, cfg BatteryConfig, consumption [numHours]float64, initialSocPct float64) (PlanResult, error) {
	if err := cfg.Validate(); err != nil {
		return PlanResult{}, err
	}
	for h, p := range prices {
		if p < 0 {
			return PlanResult{}, berrors.Invalidf("prices", "hour %d is negative: %v", h, p)
		}
	}
	for h, c := range consumption {
		if c < 0 {
			return PlanResult{}, berrors.Invalidf("consumption", "hour %d is negative: %v", h, c)
		}
	}

	reserved := cfg.Reserved()
	total := cfg.TotalCapacityKWh
	effectiveMaxPower := cfg.EffectiveMaxPowerKW()

	initialSoe := clamp(total*initialSocPct/100, reserved, total)

	var soe [numHours + 1]float64
	for h := range soe {
		soe[h] = initialSoe
	}
	var actions [numHours]float64

	trades := findProfitableTrades(prices, cfg.CycleCostPerKWh, cfg.MinProfitThreshold)

	dischargeCapacity := make([]float64, numHours)
	for h := range dischargeCapacity {
		dischargeCapacity[h] = min(consumption[h], effectiveMaxPower)
	}

	energyBudget := total - initialSoe

	for _, primary := range trades {
		if energyBudget <= 0 {
			break
		}
		if actions[primary.chargeHour] != 0 {
			continue
		}

		currentSoe := soe[primary.chargeHour]
		chargeAmount := min(effectiveMaxPower, total-currentSoe)
		if chargeAmount <= 0 {
			continue
		}

		type dischargeAllocation struct {
			hour   int
			amount float64
		}

		remainingToDischarge := chargeAmount
		var plan []dischargeAllocation

		if remaining := dischargeCapacity[primary.dischargeHour]; remaining > 0 {
			primaryDischarge := min(remaining, remainingToDischarge)
			plan = append(plan, dischargeAllocation{primary.dischargeHour, primaryDischarge})
			remainingToDischarge -= primaryDischarge
		}

		if remainingToDischarge > 0 {
			for _, secondary := range trades {
				if remainingToDischarge <= 0 {
					break
				}
				if secondary.dischargeHour == primary.dischargeHour {
					continue
				}
				if secondary.chargeHour != primary.chargeHour {
					continue
				}
				if dischargeCapacity[secondary.dischargeHour] <= 0 {
					continue
				}
				if secondary.profitPerKWh <= 0 {
					continue
				}
				amount := min(dischargeCapacity[secondary.dischargeHour], remainingToDischarge)
				if amount <= 0 {
					continue
				}
				plan = append(plan, dischargeAllocation{secondary.dischargeHour, amount})
				remainingToDischarge -= amount
			}
		}

		totalDischarge := 0.0
		for _, d := range plan {
			totalDischarge += d.amount
		}

		if len(plan) > 0 && totalDischarge >= chargeAmount*0.8 {
			actions[primary.chargeHour] = chargeAmount
			for h := primary.chargeHour + 1; h <= numHours; h++ {
				soe[h] = min(soe[h]+chargeAmount, total)
			}

			for _, d := range plan {
				actions[d.hour] -= d.amount
				dischargeCapacity[d.hour] -= d.amount
				for h := d.hour + 1; h <= numHours; h++ {
					soe[h] = max(soe[h]-d.amount, reserved)
				}
			}

			energyBudget -= chargeAmount
		}
	}

	hourlyCosts, baseCost, optimizedCost := costBreakdown(prices, consumption, actions, cfg.CycleCostPerKWh)

	return PlanResult{
		Actions:       actions,
		Soe:           soe,
		HourlyCosts:   hourlyCosts,
		BaseCost:      baseCost,
		OptimizedCost: optimizedCost,
		Savings:       baseCost - optimizedCost,
	}, nil
}

// findProfitableTrades enumerates every chronologically-ordered (chargeHour, dischargeHour) pair
// whose profit-per-kWh, net of cycle cost, meets minProfitThreshold, then sorts them by
// profitability descending. Ties are broken by earlier chargeHour, then earlier dischargeHour -
// the stable sort preserves this because the candidates are generated in that order.
func findProfitableTrades(prices [numHours]float64, cycleCost, minProfitThreshold float64) []trade {
	var trades []trade
	for c := 0; c < numHours; c++ {
		for d := c + 1; d < numHours; d++ {
			profit := prices[d] - prices[c] - cycleCost
			if profit >= minProfitThreshold {
				trades = append(trades, trade{chargeHour: c, dischargeHour: d, profitPerKWh: profit})
			}
		}
	}
	sort.SliceStable(trades, func(i, j int) bool {
		return trades[i].profitPerKWh > trades[j].profitPerKWh
	})
	return trades
}

// costBreakdown computes the per-hour cost decomposition described in the planner's contract.
func costBreakdown(prices, consumption [numHours]float64, actions [numHours]float64, cycleCost float64) ([numHours]HourCost, float64, float64) {
	var hourlyCosts [numHours]HourCost
	var baseCost, optimizedCost float64

	for h := 0; h < numHours; h++ {
		price := prices[h]
		action := actions[h]
		base := consumption[h] * price

		var gridCost, batteryCost float64
		if action >= 0 {
			gridCost = (consumption[h] + action) * price
			batteryCost = action * cycleCost
		} else {
			gridCost = max(0, consumption[h]+action) * price
			batteryCost = 0
		}
		total := gridCost + batteryCost

		hourlyCosts[h] = HourCost{
			Price:       price,
			BaseCost:    base,
			GridCost:    gridCost,
			BatteryCost: batteryCost,
			TotalCost:   total,
			Savings:     base - total,
		}
		baseCost += base
		optimizedCost += total
	}

	return hourlyCosts, baseCost, optimizedCost
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func min(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func max(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
