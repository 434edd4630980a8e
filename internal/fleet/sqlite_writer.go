// SQLite sink keeping a local archive of readings, alerts, and events.
package fleet

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"tidewatch-sim/internal/tide"

	_ "github.com/mattn/go-sqlite3"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS readings (
  fleet_id    TEXT NOT NULL,
  station_id  TEXT NOT NULL,
  seq         INTEGER NOT NULL,
  water_level REAL NOT NULL,
  temperature REAL NOT NULL,
  pressure    REAL NOT NULL,
  wind_speed  REAL NOT NULL,
  level       TEXT NOT NULL,
  ts          TEXT NOT NULL,
  PRIMARY KEY (station_id, seq)
);
CREATE INDEX IF NOT EXISTS idx_readings_station_ts ON readings(station_id, ts);

CREATE TABLE IF NOT EXISTS alerts (
  fleet_id    TEXT NOT NULL,
  station_id  TEXT NOT NULL,
  seq         INTEGER NOT NULL,
  water_level REAL NOT NULL,
  level       TEXT NOT NULL,
  low         REAL NOT NULL,
  high        REAL NOT NULL,
  message     TEXT NOT NULL,
  ts          TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_alerts_station_ts ON alerts(station_id, ts);

CREATE TABLE IF NOT EXISTS events (
  fleet_id   TEXT NOT NULL,
  station_id TEXT,
  type       TEXT NOT NULL,
  detail     TEXT,
  ts         TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS fleet_state (
  fleet_id     TEXT NOT NULL,
  stations     INTEGER NOT NULL,
  initializing INTEGER NOT NULL,
  running      INTEGER NOT NULL,
  paused       INTEGER NOT NULL,
  stopped      INTEGER NOT NULL,
  failed       INTEGER NOT NULL,
  alerting     INTEGER NOT NULL,
  worst_level  TEXT NOT NULL,
  readings     INTEGER NOT NULL,
  interrupts   INTEGER NOT NULL,
  ts           TEXT NOT NULL
);
`

// SQLiteWriter archives rows to a local SQLite database.
type SQLiteWriter struct {
	db *sql.DB
}

// NewSQLiteWriter opens (or creates) the database at path and ensures the
// schema exists. ":memory:" is accepted for an ephemeral database.
func NewSQLiteWriter(path string) (*SQLiteWriter, error) {
	dsn, err := sqliteDSN(path)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}
	// Single connection: SQLite allows one writer at a time anyway.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite ping: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}

	return &SQLiteWriter{db: db}, nil
}

func sqliteDSN(path string) (string, error) {
	if path == ":memory:" || strings.HasPrefix(path, "file:") {
		return path, nil
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}

	// busy_timeout helps with "database is locked", WAL improves
	// concurrent reads while the simulator appends.
	params := []string{
		"_busy_timeout=5000",
		"_journal_mode=WAL",
	}
	return fmt.Sprintf("file:%s?%s", path, strings.Join(params, "&")), nil
}

// Write inserts a single reading row.
func (w *SQLiteWriter) Write(row tide.ReadingRow) error {
	_, err := w.db.Exec(
		`INSERT OR REPLACE INTO readings (fleet_id, station_id, seq, water_level, temperature, pressure, wind_speed, level, ts)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		row.FleetID, row.StationID, row.Seq, row.WaterLevel, row.Temperature,
		row.Pressure, row.WindSpeed, row.Level, sqliteTime(row.Timestamp))
	return err
}

// WriteBatch inserts multiple reading rows in one transaction.
func (w *SQLiteWriter) WriteBatch(rows []tide.ReadingRow) error {
	if len(rows) == 0 {
		return nil
	}

	tx, err := w.db.Begin()
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare(
		`INSERT OR REPLACE INTO readings (fleet_id, station_id, seq, water_level, temperature, pressure, wind_speed, level, ts)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, r := range rows {
		if _, err := stmt.Exec(r.FleetID, r.StationID, r.Seq, r.WaterLevel,
			r.Temperature, r.Pressure, r.WindSpeed, r.Level, sqliteTime(r.Timestamp)); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// WriteAlert inserts a single alert row.
func (w *SQLiteWriter) WriteAlert(row tide.AlertRow) error {
	_, err := w.db.Exec(
		`INSERT INTO alerts (fleet_id, station_id, seq, water_level, level, low, high, message, ts)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		row.FleetID, row.StationID, row.Seq, row.WaterLevel, row.Level,
		row.Low, row.High, row.Message, sqliteTime(row.Ts))
	return err
}

// WriteEvent inserts a single lifecycle event row.
func (w *SQLiteWriter) WriteEvent(row tide.EventRow) error {
	_, err := w.db.Exec(
		`INSERT INTO events (fleet_id, station_id, type, detail, ts) VALUES (?, ?, ?, ?, ?)`,
		row.FleetID, row.StationID, row.Type, row.Detail, sqliteTime(row.Ts))
	return err
}

// WriteFleetState inserts one fleet aggregate row.
func (w *SQLiteWriter) WriteFleetState(row tide.FleetStateRow) error {
	_, err := w.db.Exec(
		`INSERT INTO fleet_state (fleet_id, stations, initializing, running, paused, stopped, failed, alerting, worst_level, readings, interrupts, ts)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		row.FleetID, row.Stations, row.Initializing, row.Running, row.Paused,
		row.Stopped, row.Failed, row.Alerting, row.WorstLevel, row.Readings,
		row.Interrupts, sqliteTime(row.Ts))
	return err
}

// Close closes the underlying database.
func (w *SQLiteWriter) Close() error {
	return w.db.Close()
}

func sqliteTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
