// Package recorder persists decoded telemetry into a SQLite track log for
// after-action replay.
package recorder

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"shorelink/internal/protocol"
)

const schema = `
	CREATE TABLE IF NOT EXISTS status_log (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		received_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		sender INTEGER,
		seq INTEGER,
		stamp INTEGER,
		longitude DOUBLE,
		latitude DOUBLE,
		altitude INTEGER,
		speed DOUBLE,
		heading DOUBLE,
		course DOUBLE,
		mode INTEGER,
		sim INTEGER,
		fuel INTEGER,
		ammo INTEGER
	);
	CREATE TABLE IF NOT EXISTS contact_log (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		received_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		sender INTEGER,
		seq INTEGER,
		stamp INTEGER,
		contact_id INTEGER,
		longitude DOUBLE,
		latitude DOUBLE,
		bearing DOUBLE,
		range_m INTEGER,
		speed DOUBLE,
		heading DOUBLE,
		type INTEGER,
		feature INTEGER
	);
`

// Recorder is a station sink that appends every decoded packet to the
// track log. Writes happen on the receive goroutine, so the WAL journal
// and busy timeout keep concurrent readers cheap.
type Recorder struct {
	*sql.DB
}

// Open opens (creating if needed) the track log at path.
func Open(path string) (*Recorder, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open track log: %w", err)
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply %s: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create track log schema: %w", err)
	}

	return &Recorder{db}, nil
}

// HandleStatus appends one platform status report.
func (r *Recorder) HandleStatus(st *protocol.Status) error {
	_, err := r.Exec(`
		INSERT INTO status_log (sender, seq, stamp, longitude, latitude, altitude,
			speed, heading, course, mode, sim, fuel, ammo)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		st.Header.Sender, st.Header.Seq, st.Header.Stamp,
		st.Longitude, st.Latitude, st.Altitude,
		st.Speed, st.Heading, st.Course,
		st.Mode, st.Sim, st.Fuel, st.Ammo)
	if err != nil {
		return fmt.Errorf("failed to record status: %w", err)
	}
	return nil
}

// HandleContacts appends one surface contact report, one row per contact,
// atomically per batch.
func (r *Recorder) HandleContacts(batch *protocol.ContactBatch) error {
	if len(batch.Contacts) == 0 {
		return nil
	}

	tx, err := r.Begin()
	if err != nil {
		return fmt.Errorf("failed to record contacts: %w", err)
	}
	for _, c := range batch.Contacts {
		_, err := tx.Exec(`
			INSERT INTO contact_log (sender, seq, stamp, contact_id, longitude,
				latitude, bearing, range_m, speed, heading, type, feature)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			batch.Header.Sender, batch.Header.Seq, batch.Header.Stamp,
			c.ID, c.Longitude, c.Latitude, c.Bearing, c.Range,
			c.Speed, c.Heading, c.Type, c.Feature)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record contact %d: %w", c.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to record contacts: %w", err)
	}
	return nil
}

// TrackPoint is one recorded status fix.
type TrackPoint struct {
	Sender    uint16
	Seq       uint8
	Longitude float64
	Latitude  float64
	Speed     float64
	Heading   float64
}

// Track returns the most recent status fixes for one sender, newest first.
func (r *Recorder) Track(sender uint16, limit int) ([]TrackPoint, error) {
	rows, err := r.Query(`
		SELECT sender, seq, longitude, latitude, speed, heading
		FROM status_log WHERE sender = ? ORDER BY id DESC LIMIT ?`,
		sender, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var points []TrackPoint
	for rows.Next() {
		var p TrackPoint
		if err := rows.Scan(&p.Sender, &p.Seq, &p.Longitude, &p.Latitude, &p.Speed, &p.Heading); err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return points, nil
}
