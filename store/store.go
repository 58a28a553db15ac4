// Package store persists the facade's settings and consumption forecast to local sqlite storage,
// so a process restart doesn't lose the current day's tuning. Persisted state is not required by
// the core control loop - a host may opt out entirely and let configs live purely in memory.
package store

import (
	"encoding/json"
	"fmt"

	"github.com/cepro/homebess/arbitrage"
	"github.com/cepro/homebess/priceview"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

// Snapshot is the opaque persisted blob: the current battery/price configs and the consumption
// forecast's per-hour predictions.
type Snapshot struct {
	ID             uint `gorm:"primaryKey"`
	BatteryConfigJSON string
	PriceConfigJSON   string
	ForecastJSON      string
}

// Store wraps a local sqlite database holding a single, continuously overwritten Snapshot row.
type Store struct {
	db *gorm.DB
}

// Open opens (and migrates, if necessary) the sqlite database at path.
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.AutoMigrate(&Snapshot{}); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return &Store{db: db}, nil
}

// Save overwrites the single persisted snapshot with the given settings and forecast.
func (s *Store) Save(battery arbitrage.BatteryConfig, price priceview.PriceConfig, forecast [24]float64) error {
	batteryJSON, err := json.Marshal(battery)
	if err != nil {
		return fmt.Errorf("marshal battery config: %w", err)
	}
	priceJSON, err := json.Marshal(price)
	if err != nil {
		return fmt.Errorf("marshal price config: %w", err)
	}
	forecastJSON, err := json.Marshal(forecast)
	if err != nil {
		return fmt.Errorf("marshal forecast: %w", err)
	}

	snapshot := Snapshot{
		ID:                1,
		BatteryConfigJSON: string(batteryJSON),
		PriceConfigJSON:   string(priceJSON),
		ForecastJSON:      string(forecastJSON),
	}

	result := s.db.Save(&snapshot)
	return result.Error
}

// Load returns the persisted settings and forecast, or ok=false if nothing has been saved yet.
func (s *Store) Load() (battery arbitrage.BatteryConfig, price priceview.PriceConfig, forecast [24]float64, ok bool, err error) {
	var snapshot Snapshot
	result := s.db.First(&snapshot, 1)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return battery, price, forecast, false, nil
		}
		return battery, price, forecast, false, result.Error
	}

	if err = json.Unmarshal([]byte(snapshot.BatteryConfigJSON), &battery); err != nil {
		return battery, price, forecast, false, fmt.Errorf("unmarshal battery config: %w", err)
	}
	if err = json.Unmarshal([]byte(snapshot.PriceConfigJSON), &price); err != nil {
		return battery, price, forecast, false, fmt.Errorf("unmarshal price config: %w", err)
	}
	if err = json.Unmarshal([]byte(snapshot.ForecastJSON), &forecast); err != nil {
		return battery, price, forecast, false, fmt.Errorf("unmarshal forecast: %w", err)
	}

	return battery, price, forecast, true, nil
}
