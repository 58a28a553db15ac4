// Command bessd runs the home battery hourly-arbitrage scheduler: it polls the phase-current
// meter and inverter, drives the control facade on a set of fixed-cadence ticks, serves the
// settings/schedule HTTP API, and optionally archives telemetry to Supabase.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/cepro/homebess/acuvim2"
	"github.com/cepro/homebess/config"
	"github.com/cepro/homebess/consumption"
	"github.com/cepro/homebess/control"
	dataplatform "github.com/cepro/homebess/data_platform"
	"github.com/cepro/homebess/guard"
	"github.com/cepro/homebess/httpapi"
	"github.com/cepro/homebess/inverter"
	"github.com/cepro/homebess/priceapi"
	"github.com/cepro/homebess/store"
)

func main() {
	configPath := flag.String("config", "config.json", "path to the JSON config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("bessd exited with an error", "error", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Read(configPath)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	phaseMeter, err := newPhaseMeter(ctx, cfg.Meters)
	if err != nil {
		return fmt.Errorf("create phase meter: %w", err)
	}

	controller, err := newInverterController(cfg.Inverter)
	if err != nil {
		return fmt.Errorf("create inverter controller: %w", err)
	}

	g, err := guard.New(control.NewGuardAdapter(phaseMeter, controller), guard.Config{
		VoltageV:                cfg.Guard.VoltageV,
		MaxFuseAmps:             cfg.Guard.MaxFuseAmps,
		SafetyMargin:            cfg.Guard.SafetyMargin,
		ConfiguredChargeRatePct: cfg.Guard.ConfiguredChargeRatePct,
		StepSizePct:             cfg.Guard.StepSizePct,
	})
	if err != nil {
		return fmt.Errorf("create phase/power guard: %w", err)
	}

	tracker := consumption.NewTracker(cfg.Battery.TotalCapacityKWh)

	var st *store.Store
	if cfg.StorePath != "" {
		st, err = store.Open(cfg.StorePath)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		if battery, price, forecast, ok, err := st.Load(); err != nil {
			slog.Warn("failed to load persisted snapshot, starting fresh", "error", err)
		} else if ok {
			cfg.Battery = battery
			cfg.Price = price
			tracker.SetPredictions(forecast)
			slog.Info("restored persisted settings and forecast")
		}
	}

	prices := priceapi.New(http.Client{Timeout: 10 * time.Second})

	settings := control.Settings{
		Battery:        cfg.Battery,
		Price:          cfg.Price,
		MaxTouSegments: cfg.MaxTouSegments,
	}

	facade := control.New(settings, prices, controller, tracker, g)

	var dp *dataplatform.DataPlatform
	if cfg.DataPlatform.Enabled {
		dp, err = dataplatform.New(
			cfg.DataPlatform.Supabase.Url,
			os.Getenv("SUPABASE_ANON_KEY"),
			os.Getenv("SUPABASE_USER_KEY"),
			cfg.DataPlatform.Supabase.Schema,
			cfg.DataPlatform.BufferRepositoryFilename,
		)
		if err != nil {
			return fmt.Errorf("create data platform: %w", err)
		}
		go dp.Run(ctx, time.Duration(cfg.DataPlatform.UploadIntervalSecs)*time.Second)
	}

	router := httpapi.NewRouter(httpapi.NewHandlers(facade))
	server := &http.Server{Addr: cfg.Http.ListenAddr, Handler: router}
	go func() {
		slog.Info("starting http server", "addr", cfg.Http.ListenAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("http server failed", "error", err)
		}
	}()

	if _, err := facade.RunOptimization(ctx, time.Now()); err != nil {
		slog.Warn("initial optimization failed, continuing with no schedule in force", "error", err)
	}

	runScheduler(ctx, facade, st, tracker, cfg.Scheduler)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// runScheduler drives the facade's scheduled tasks on their fixed cadences until ctx is
// cancelled: top-of-hour apply_schedule/update_state, a configurable verify_inverter_settings and
// adjust_charging_power interval, and prepare_next_day at 23:55.
func runScheduler(ctx context.Context, facade *control.Facade, st *store.Store, tracker *consumption.Tracker, cfg config.SchedulerConfig) {
	verifyEvery := time.Duration(cfg.VerifyInverterSettingsIntervalSecs) * time.Second
	adjustEvery := time.Duration(cfg.AdjustChargingPowerIntervalSecs) * time.Second
	if verifyEvery <= 0 {
		verifyEvery = 15 * time.Minute
	}
	if adjustEvery <= 0 {
		adjustEvery = 5 * time.Minute
	}

	hourTicker := time.NewTicker(time.Minute)
	verifyTicker := time.NewTicker(verifyEvery)
	adjustTicker := time.NewTicker(adjustEvery)
	defer hourTicker.Stop()
	defer verifyTicker.Stop()
	defer adjustTicker.Stop()

	lastHour := -1
	lastRollover := ""

	for {
		select {
		case <-ctx.Done():
			return

		case now := <-hourTicker.C:
			if now.Minute() == 0 && now.Hour() != lastHour {
				lastHour = now.Hour()
				if err := facade.UpdateState(ctx, now.Hour()); err != nil {
					slog.Error("update_state failed", "hour", now.Hour(), "error", err)
				}
				persistSnapshot(st, facade, tracker)
			}
			if now.Hour() == 23 && now.Minute() == 55 {
				today := now.Format("2006-01-02")
				if today != lastRollover {
					lastRollover = today
					if _, err := facade.PrepareNextDay(ctx); err != nil {
						slog.Error("prepare_next_day failed", "error", err)
					}
					persistSnapshot(st, facade, tracker)
				}
			}

		case <-verifyTicker.C:
			if err := facade.VerifyInverterSettings(ctx, time.Now().Hour()); err != nil {
				slog.Error("verify_inverter_settings failed", "error", err)
			}

		case <-adjustTicker.C:
			if err := facade.AdjustChargingPower(ctx); err != nil {
				slog.Error("adjust_charging_power failed", "error", err)
			}
		}
	}
}

func persistSnapshot(st *store.Store, facade *control.Facade, tracker *consumption.Tracker) {
	if st == nil {
		return
	}
	settings := facade.CurrentSettings()
	if err := st.Save(settings.Battery, settings.Price, tracker.PerHour()); err != nil {
		slog.Error("failed to persist snapshot", "error", err)
	}
}

// phaseMeterPort is the on-demand three-phase current reading the guard adapter delegates to.
type phaseMeterPort interface {
	PhaseCurrentsA(ctx context.Context) (float64, float64, float64, error)
}

func newPhaseMeter(ctx context.Context, cfg config.MetersConfig) (phaseMeterPort, error) {
	switch {
	case cfg.Acuvim2 != nil:
		m, err := acuvim2.New(cfg.Acuvim2.ID, cfg.Acuvim2.Host, cfg.Acuvim2.Pt1, cfg.Acuvim2.Pt2, cfg.Acuvim2.Ct1, cfg.Acuvim2.Ct2)
		if err != nil {
			return nil, fmt.Errorf("create acuvim2 meter: %w", err)
		}
		go func() {
			period := time.Duration(cfg.Acuvim2.PollIntervalSecs) * time.Second
			if period <= 0 {
				period = 5 * time.Second
			}
			if err := m.Run(ctx, period); err != nil && ctx.Err() == nil {
				slog.Error("acuvim2 meter polling stopped", "error", err)
			}
		}()
		return m, nil

	case cfg.Mock != nil:
		mock, err := acuvim2.NewMock(cfg.Mock.ID)
		if err != nil {
			return nil, fmt.Errorf("create mock meter: %w", err)
		}
		return mock, nil

	default:
		return nil, fmt.Errorf("no meter configured, expected acuvim2 or mock")
	}
}

func newInverterController(cfg config.InverterConfig) (inverter.Controller, error) {
	switch {
	case cfg.Growatt != nil:
		return inverter.NewGrowatt(cfg.Growatt.Host)
	case cfg.Mock:
		return inverter.NewMock(), nil
	default:
		return nil, fmt.Errorf("no inverter configured, expected growatt or mock")
	}
}
