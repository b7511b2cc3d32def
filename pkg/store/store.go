// Package store persists measurement samples, statistics batches, and
// controller activation flags in SQLite.
package store

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/nuost/ebbflood/pkg/controller"
)

// DB wraps the SQLite database connection.
type DB struct {
	conn *sql.DB
	now  func() time.Time
}

// Open opens or creates the database at path.
func Open(path string) (*DB, error) {
	conn, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db := &DB{conn: conn, now: time.Now}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	-- Known measurement and output devices
	CREATE TABLE IF NOT EXISTS devices (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	-- Raw boolean-like sensor samples
	CREATE TABLE IF NOT EXISTS samples (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		device_id TEXT NOT NULL,
		channel INTEGER NOT NULL,
		value REAL NOT NULL,
		ts INTEGER NOT NULL -- unix nanoseconds
	);
	CREATE INDEX IF NOT EXISTS idx_samples_lookup
		ON samples(device_id, channel, ts DESC);

	-- Controller statistics, one row per channel per batch
	CREATE TABLE IF NOT EXISTS statistics (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		controller_id TEXT NOT NULL,
		channel INTEGER NOT NULL,
		value REAL NOT NULL,
		ts INTEGER NOT NULL -- unix nanoseconds, identical within a batch
	);
	CREATE INDEX IF NOT EXISTS idx_statistics_lookup
		ON statistics(controller_id, channel, ts DESC);

	-- Controller activation flags
	CREATE TABLE IF NOT EXISTS controllers (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		activated INTEGER NOT NULL DEFAULT 0,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// RegisterDevice upserts a device. Samples for unknown devices are still
// accepted; registration is what makes HasDevice return true.
func (db *DB) RegisterDevice(id, name string) error {
	_, err := db.conn.Exec(`
		INSERT INTO devices (id, name) VALUES (?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, updated_at = CURRENT_TIMESTAMP`,
		id, name)
	return err
}

// HasDevice reports whether the device has been registered.
func (db *DB) HasDevice(id string) bool {
	var one int
	err := db.conn.QueryRow(`SELECT 1 FROM devices WHERE id = ?`, id).Scan(&one)
	return err == nil
}

// AppendSample records one raw sensor reading.
func (db *DB) AppendSample(deviceID string, channel int, value float64, ts time.Time) error {
	_, err := db.conn.Exec(`
		INSERT INTO samples (device_id, channel, value, ts) VALUES (?, ?, ?, ?)`,
		deviceID, channel, value, ts.UnixNano())
	return err
}

// Latest returns the newest sample for the channel. ok is false when no
// sample exists or the newest one is older than maxAge.
func (db *DB) Latest(deviceID string, channel int, maxAge time.Duration) (controller.Sample, bool, error) {
	var (
		value float64
		ts    int64
	)
	err := db.conn.QueryRow(`
		SELECT value, ts FROM samples
		WHERE device_id = ? AND channel = ?
		ORDER BY ts DESC LIMIT 1`,
		deviceID, channel).Scan(&value, &ts)
	if err == sql.ErrNoRows {
		return controller.Sample{}, false, nil
	}
	if err != nil {
		return controller.Sample{}, false, err
	}

	s := controller.Sample{Time: time.Unix(0, ts), Value: value}
	if maxAge > 0 && db.now().Sub(s.Time) > maxAge {
		return controller.Sample{}, false, nil
	}
	return s, true, nil
}

// AppendStatistics writes the channel values as one batch sharing a
// single timestamp.
func (db *DB) AppendStatistics(controllerID string, batch map[int]float64) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	ts := db.now().UnixNano()
	stmt, err := tx.Prepare(`
		INSERT INTO statistics (controller_id, channel, value, ts) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for channel, value := range batch {
		if _, err := stmt.Exec(controllerID, channel, value, ts); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// LatestStatistic returns the last persisted value for the controller's
// statistics channel, regardless of age.
func (db *DB) LatestStatistic(controllerID string, channel int) (float64, bool, error) {
	var value float64
	err := db.conn.QueryRow(`
		SELECT value FROM statistics
		WHERE controller_id = ? AND channel = ?
		ORDER BY ts DESC LIMIT 1`,
		controllerID, channel).Scan(&value)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return value, true, nil
}

// SetActivated upserts the controller activation flag.
func (db *DB) SetActivated(controllerID, name string, activated bool) error {
	_, err := db.conn.Exec(`
		INSERT INTO controllers (id, name, activated) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			activated = excluded.activated,
			updated_at = CURRENT_TIMESTAMP`,
		controllerID, name, boolToInt(activated))
	return err
}

// Activated reads the controller activation flag. Unknown controllers
// are inactive.
func (db *DB) Activated(controllerID string) (bool, error) {
	var activated int
	err := db.conn.QueryRow(`SELECT activated FROM controllers WHERE id = ?`, controllerID).Scan(&activated)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return activated != 0, nil
}

// PruneSamples deletes samples older than before and returns the number
// of rows removed.
func (db *DB) PruneSamples(before time.Time) (int64, error) {
	res, err := db.conn.Exec(`DELETE FROM samples WHERE ts < ?`, before.UnixNano())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
