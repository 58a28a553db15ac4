package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/cepro/homebess/arbitrage"
	"github.com/cepro/homebess/priceview"
	"github.com/google/uuid"
)

// DeviceConfig is the common dial-in parameters for a Modbus-polled field device.
type DeviceConfig struct {
	Host             string    `json:"host"`
	ID               uuid.UUID `json:"id"`
	PollIntervalSecs int       `json:"pollIntervalSecs"`
}

// Acuvim2MeterConfig adds the CT/PT scaling ratios to a device's dial-in parameters.
type Acuvim2MeterConfig struct {
	DeviceConfig
	Pt1 float64 `json:"pt1"`
	Pt2 float64 `json:"pt2"`
	Ct1 float64 `json:"ct1"`
	Ct2 float64 `json:"ct2"`
}

// MetersConfig holds the phase-current meter the power guard reads, real or mocked. Exactly one
// of Acuvim2 or Mock should be set.
type MetersConfig struct {
	Acuvim2 *Acuvim2MeterConfig `json:"acuvim2"`
	Mock    *DeviceConfig       `json:"mock"`
}

// InverterConfig points at the Growatt-family hybrid inverter, real or mocked.
type InverterConfig struct {
	Growatt *DeviceConfig `json:"growatt"`
	Mock    bool          `json:"mock"`
}

// SupabaseConfig is the telemetry archive target; keys are supplied via environment variables.
type SupabaseConfig struct {
	Url string `json:"url"`
	// keys are specified via env vars, not config file
	Schema string `json:"schema"`
}

// DataPlatformConfig governs the optional telemetry-archive upload loop.
type DataPlatformConfig struct {
	Enabled                  bool           `json:"enabled"`
	UploadIntervalSecs       int            `json:"uploadIntervalSecs"`
	BufferRepositoryFilename string         `json:"bufferRepositoryFilename"`
	Supabase                 SupabaseConfig `json:"supabase"`
}

// GuardConfig is the static electrical envelope the phase/power guard bounds its writes against.
type GuardConfig struct {
	VoltageV                float64 `json:"voltageV"`
	MaxFuseAmps             float64 `json:"maxFuseAmps"`
	SafetyMargin            float64 `json:"safetyMargin"`
	ConfiguredChargeRatePct int     `json:"configuredChargeRatePct"`
	StepSizePct             int     `json:"stepSizePct"`
}

// HttpConfig configures the settings/schedule HTTP surface.
type HttpConfig struct {
	ListenAddr string `json:"listenAddr"`
}

// SchedulerConfig is the process's cron-style tick cadence, in seconds.
type SchedulerConfig struct {
	VerifyInverterSettingsIntervalSecs int `json:"verifyInverterSettingsIntervalSecs"`
	AdjustChargingPowerIntervalSecs    int `json:"adjustChargingPowerIntervalSecs"`
}

// Config is the full process configuration read from disk at startup.
type Config struct {
	StorePath      string                  `json:"storePath"`
	Meters         MetersConfig            `json:"meters"`
	Inverter       InverterConfig          `json:"inverter"`
	DataPlatform   DataPlatformConfig      `json:"dataPlatform"`
	Guard          GuardConfig             `json:"guard"`
	Http           HttpConfig              `json:"http"`
	Scheduler      SchedulerConfig         `json:"scheduler"`
	Battery        arbitrage.BatteryConfig `json:"battery"`
	Price          priceview.PriceConfig   `json:"price"`
	MaxTouSegments int                     `json:"maxTouSegments"`
}

// Read loads and unmarshals the JSON config file at path.
func Read(path string) (Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	var config Config
	err = json.Unmarshal(content, &config)
	if err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	return config, nil
}
