package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/mrwolf/fitpicker/internal/api"
	"github.com/mrwolf/fitpicker/internal/config"
	"github.com/mrwolf/fitpicker/internal/db"
	"github.com/mrwolf/fitpicker/internal/logging"
	"github.com/mrwolf/fitpicker/internal/metrics"
	"github.com/mrwolf/fitpicker/internal/outfit"
	"github.com/mrwolf/fitpicker/internal/scheduler"
	"github.com/mrwolf/fitpicker/internal/session"
	"github.com/mrwolf/fitpicker/internal/vault"
	"github.com/mrwolf/fitpicker/internal/weather"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load config")
	}

	logging.Init(logging.Config{
		Level:     cfg.LogLevel,
		Format:    cfg.LogFormat,
		Timestamp: true,
		Output:    os.Stderr,
	})
	logging.Info().Str("db", cfg.DBPath).Msg("starting fitpicker-server")

	// Open database
	database, err := db.Open(cfg.DBPath)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to open database")
	}

	clock := clockwork.NewRealClock()

	sess, err := session.Open(database, clock, cfg.FlushDelay)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load state")
	}

	// Location chain: IP lookup, then the device, then configured coordinates
	device := &weather.DeviceLocator{}
	chain := weather.Chain{}
	if cfg.UseIPLocation {
		chain = append(chain, weather.Logged("ip", weather.NewIPLocator(cfg.LocationURL, cfg.HTTPTimeout)))
	}
	chain = append(chain,
		weather.Logged("device", device),
		weather.Manual{Latitude: cfg.Latitude, Longitude: cfg.Longitude},
	)

	refresher := weather.NewRefresher(weather.RefresherConfig{
		Provider: weather.NewClient(cfg.WeatherURL, weather.WithHTTPClient(&http.Client{Timeout: cfg.HTTPTimeout})),
		Locator:  chain,
		Clock:    clock,
		Timeout:  4 * cfg.HTTPTimeout,
		OnUpdate: func(r weather.Reading) {
			metrics.RecordWeather(r.Source, r.TemperatureF)
			if err := database.LogReading(db.Reading{
				TemperatureF: r.TemperatureF,
				Condition:    string(r.Condition),
				Tag:          string(r.Tag),
				Source:       r.Source,
				Latitude:     r.Location.Latitude,
				Longitude:    r.Location.Longitude,
				FetchedAt:    r.FetchedAt,
			}); err != nil {
				logging.Warn().Err(err).Msg("recording weather reading")
			}
		},
	})

	// Serve the last known weather until the first refresh lands
	if last, err := database.LatestReading(); err != nil {
		logging.Warn().Err(err).Msg("reading last weather")
	} else if last != nil {
		refresher.Seed(weather.Reading{
			TemperatureF: last.TemperatureF,
			Condition:    outfit.Condition(last.Condition),
			Tag:          outfit.WeatherTag(last.Tag),
			Source:       last.Source,
			Location:     weather.Location{Latitude: last.Latitude, Longitude: last.Longitude},
			FetchedAt:    last.FetchedAt,
		})
	}

	var v *vault.Vault
	if cfg.SnapshotDir != "" {
		v = vault.NewVault(cfg.SnapshotDir)
	}

	// Create router
	handlers := api.NewHandlers(api.Deps{
		DB:        database,
		Session:   sess,
		Refresher: refresher,
		Device:    device,
		Vault:     v,
		Clock:     clock,
	})
	router := api.NewRouter(cfg, handlers)

	// Create and start scheduler
	sched, err := scheduler.New(database, v, sess, refresher, scheduler.Config{
		Timezone:         cfg.Timezone,
		RefreshInterval:  cfg.RefreshInterval,
		SnapshotHour:     cfg.SnapshotHour,
		KeepSnapshots:    30,
		ReadingRetention: 90 * 24 * time.Hour,
		Clock:            clock,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to create scheduler")
	}
	if err := sched.Start(); err != nil {
		logging.Fatal().Err(err).Msg("failed to start scheduler")
	}

	// Start server
	addr := ":" + cfg.Port
	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		logging.Info().Str("addr", addr).Msg("listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Fatal().Err(err).Msg("server error")
		}
	}()

	<-done
	logging.Info().Msg("shutting down gracefully")

	// Give ongoing requests 10 seconds to complete
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logging.Error().Err(err).Msg("http server shutdown")
	}

	if err := sched.Stop(); err != nil {
		logging.Error().Err(err).Msg("scheduler shutdown")
	}
	refresher.Stop()

	if err := sess.Close(); err != nil {
		logging.Error().Err(err).Msg("final state flush failed")
	}

	if err := database.Close(); err != nil {
		logging.Error().Err(err).Msg("database close")
	}

	logging.Info().Msg("shutdown complete")
}
