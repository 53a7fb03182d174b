package db

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
-- Engine state, one JSON document per collection
CREATE TABLE IF NOT EXISTS collections (
    name TEXT PRIMARY KEY,
    data TEXT NOT NULL,
    updated_at TEXT NOT NULL
);

-- Weather readings as applied, newest last
CREATE TABLE IF NOT EXISTS weather_readings (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    temperature_f REAL NOT NULL,
    condition TEXT NOT NULL,
    tag TEXT NOT NULL,
    source TEXT NOT NULL,
    latitude REAL,
    longitude REAL,
    fetched_at TEXT NOT NULL
);

-- Scheduler job tracking
CREATE TABLE IF NOT EXISTS scheduler_runs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    job_type TEXT NOT NULL,
    status TEXT NOT NULL,
    started_at TEXT NOT NULL,
    completed_at TEXT,
    error_message TEXT
);

CREATE INDEX IF NOT EXISTS idx_readings_fetched ON weather_readings(fetched_at);
CREATE INDEX IF NOT EXISTS idx_scheduler_job ON scheduler_runs(job_type, started_at);
`

type DB struct {
	conn *sql.DB
}

func Open(path string) (*DB, error) {
	conn, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return db, nil
}

func (db *DB) migrate() error {
	_, err := db.conn.Exec(schema)
	if err != nil {
		return fmt.Errorf("executing migration: %w", err)
	}
	return nil
}

func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping is used by the health endpoint
func (db *DB) Ping() error {
	return db.conn.Ping()
}

// Reading is one applied weather observation
type Reading struct {
	TemperatureF float64
	Condition    string
	Tag          string
	Source       string // "api", "fallback"
	Latitude     float64
	Longitude    float64
	FetchedAt    time.Time
}

// LogReading appends a weather reading
func (db *DB) LogReading(r Reading) error {
	_, err := db.conn.Exec(`
		INSERT INTO weather_readings (temperature_f, condition, tag, source, latitude, longitude, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, r.TemperatureF, r.Condition, r.Tag, r.Source, r.Latitude, r.Longitude, r.FetchedAt.UTC().Format(time.RFC3339))
	return err
}

// LatestReading returns the most recent reading, nil if none was logged
func (db *DB) LatestReading() (*Reading, error) {
	var r Reading
	var fetchedStr string
	var lat, lon sql.NullFloat64
	err := db.conn.QueryRow(`
		SELECT temperature_f, condition, tag, source, latitude, longitude, fetched_at
		FROM weather_readings
		ORDER BY id DESC
		LIMIT 1
	`).Scan(&r.TemperatureF, &r.Condition, &r.Tag, &r.Source, &lat, &lon, &fetchedStr)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	r.Latitude = lat.Float64
	r.Longitude = lon.Float64
	r.FetchedAt, _ = time.Parse(time.RFC3339, fetchedStr)
	return &r, nil
}

// PruneReadings drops readings older than the cutoff
func (db *DB) PruneReadings(before time.Time) (int64, error) {
	result, err := db.conn.Exec(`
		DELETE FROM weather_readings WHERE fetched_at < ?
	`, before.UTC().Format(time.RFC3339))
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// SchedulerRun tracks one execution of a background job
type SchedulerRun struct {
	ID           int64
	JobType      string
	Status       string // running, completed, failed
	StartedAt    time.Time
	CompletedAt  *time.Time
	ErrorMessage string
}

// StartSchedulerRun records the start of a scheduler job
func (db *DB) StartSchedulerRun(jobType string) (int64, error) {
	result, err := db.conn.Exec(`
		INSERT INTO scheduler_runs (job_type, status, started_at)
		VALUES (?, 'running', ?)
	`, jobType, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// CompleteSchedulerRun marks a scheduler job as completed
func (db *DB) CompleteSchedulerRun(runID int64, errMsg string) error {
	status := "completed"
	if errMsg != "" {
		status = "failed"
	}
	_, err := db.conn.Exec(`
		UPDATE scheduler_runs
		SET status = ?, completed_at = ?, error_message = ?
		WHERE id = ?
	`, status, time.Now().UTC().Format(time.RFC3339), errMsg, runID)
	return err
}

// GetLastSchedulerRun returns the last run for a job type
func (db *DB) GetLastSchedulerRun(jobType string) (*SchedulerRun, error) {
	var run SchedulerRun
	var startedStr string
	var completedStr, errMsg sql.NullString
	err := db.conn.QueryRow(`
		SELECT id, job_type, status, started_at, completed_at, error_message
		FROM scheduler_runs
		WHERE job_type = ?
		ORDER BY id DESC
		LIMIT 1
	`, jobType).Scan(&run.ID, &run.JobType, &run.Status, &startedStr, &completedStr, &errMsg)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	run.StartedAt, _ = time.Parse(time.RFC3339, startedStr)
	if completedStr.Valid {
		t, _ := time.Parse(time.RFC3339, completedStr.String)
		run.CompletedAt = &t
	}
	if errMsg.Valid {
		run.ErrorMessage = errMsg.String
	}
	return &run, nil
}
