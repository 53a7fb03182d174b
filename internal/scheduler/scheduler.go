package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/jonboulle/clockwork"

	"github.com/mrwolf/fitpicker/internal/db"
	"github.com/mrwolf/fitpicker/internal/logging"
	"github.com/mrwolf/fitpicker/internal/session"
	"github.com/mrwolf/fitpicker/internal/vault"
	"github.com/mrwolf/fitpicker/internal/weather"
)

// Job names, also used as scheduler_runs.job_type
const (
	JobWeatherRefresh = "weather-refresh"
	JobSnapshot       = "daily-snapshot"
)

// Scheduler manages scheduled jobs
type Scheduler struct {
	scheduler gocron.Scheduler
	db        *db.DB
	vault     *vault.Vault
	session   *session.Session
	refresher *weather.Refresher
	timezone  *time.Location
	cfg       Config
}

// Config holds scheduler configuration
type Config struct {
	Timezone        string
	RefreshInterval time.Duration
	SnapshotHour    uint
	// KeepSnapshots bounds the snapshot directory, 0 keeps everything
	KeepSnapshots int
	// ReadingRetention bounds the weather_readings table
	ReadingRetention time.Duration
	// Clock drives job timing and snapshot dates, real time when nil
	Clock clockwork.Clock
}

// New creates a new scheduler. A nil vault disables snapshots.
func New(database *db.DB, v *vault.Vault, sess *session.Session, refresher *weather.Refresher, cfg Config) (*Scheduler, error) {
	tz, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		tz = time.UTC
	}

	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}

	s, err := gocron.NewScheduler(gocron.WithLocation(tz), gocron.WithClock(cfg.Clock))
	if err != nil {
		return nil, err
	}

	return &Scheduler{
		scheduler: s,
		db:        database,
		vault:     v,
		session:   sess,
		refresher: refresher,
		timezone:  tz,
		cfg:       cfg,
	}, nil
}

// Start registers all jobs and starts the scheduler. The weather job
// also runs once immediately.
func (s *Scheduler) Start() error {
	_, err := s.scheduler.NewJob(
		gocron.DurationJob(s.cfg.RefreshInterval),
		gocron.NewTask(s.refreshWeather),
		gocron.WithName(JobWeatherRefresh),
		gocron.WithStartAt(gocron.WithStartImmediately()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return err
	}

	if s.vault != nil {
		_, err = s.scheduler.NewJob(
			gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(s.cfg.SnapshotHour, 0, 0))),
			gocron.NewTask(s.snapshot),
			gocron.WithName(JobSnapshot),
		)
		if err != nil {
			return err
		}
	}

	s.scheduler.Start()
	logging.Info().Dur("refresh", s.cfg.RefreshInterval).Uint("snapshot_hour", s.cfg.SnapshotHour).Msg("scheduler started")
	return nil
}

// Stop stops the scheduler
func (s *Scheduler) Stop() error {
	return s.scheduler.Shutdown()
}

func (s *Scheduler) refreshWeather() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	s.track(JobWeatherRefresh, func() error {
		r, err := s.refresher.Refresh(ctx)
		if errors.Is(err, weather.ErrSuperseded) {
			return nil
		}
		if err == nil {
			logging.Debug().Float64("temp", r.TemperatureF).Str("tag", string(r.Tag)).Str("source", r.Source).Msg("weather refreshed")
		}
		return err
	})
}

func (s *Scheduler) snapshot() {
	s.track(JobSnapshot, func() error {
		now := s.cfg.Clock.Now().In(s.timezone)
		path, err := s.vault.WriteSnapshot(s.session.Snapshot(), now)
		if err != nil {
			return err
		}
		logging.Info().Str("path", path).Msg("snapshot written")

		if s.cfg.KeepSnapshots > 0 {
			if n, err := s.vault.PruneSnapshots(s.cfg.KeepSnapshots); err != nil {
				logging.Warn().Err(err).Msg("pruning snapshots")
			} else if n > 0 {
				logging.Info().Int("removed", n).Msg("old snapshots pruned")
			}
		}
		if s.cfg.ReadingRetention > 0 {
			if _, err := s.db.PruneReadings(now.Add(-s.cfg.ReadingRetention)); err != nil {
				logging.Warn().Err(err).Msg("pruning weather readings")
			}
		}
		return nil
	})
}

// track records the job in scheduler_runs and logs failures
func (s *Scheduler) track(job string, fn func() error) {
	runID, err := s.db.StartSchedulerRun(job)
	if err != nil {
		logging.Warn().Err(err).Str("job", job).Msg("recording job start")
	}

	errMsg := ""
	if err := fn(); err != nil {
		errMsg = err.Error()
		logging.Error().Err(err).Str("job", job).Msg("job failed")
	}

	if runID != 0 {
		if err := s.db.CompleteSchedulerRun(runID, errMsg); err != nil {
			logging.Warn().Err(err).Str("job", job).Msg("recording job completion")
		}
	}
}

// RefreshNow runs the weather job synchronously
func (s *Scheduler) RefreshNow() {
	s.refreshWeather()
}

// SnapshotNow runs the snapshot job synchronously
func (s *Scheduler) SnapshotNow() {
	if s.vault != nil {
		s.snapshot()
	}
}
