// Package store keeps the greenhouse history in sqlite: climate rows, relay
// snapshots and per-day on-time totals.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3" // Import SQLite driver

	"furitingoasis/greenhouse/relays"
	"furitingoasis/greenhouse/sensors"
)

// DailyWindow is how many days of on-time totals are kept.
const DailyWindow = 35

// HistoryPoints caps the rows returned by Climate.
const HistoryPoints = 200

const schema = `
CREATE TABLE IF NOT EXISTS sensors (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	place TEXT NOT NULL,
	temperature REAL,
	humidity REAL,
	timestamp DATETIME DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE IF NOT EXISTS relay_events (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	direction TEXT NOT NULL,
	motor INTEGER NOT NULL,
	pump INTEGER NOT NULL,
	heater INTEGER NOT NULL,
	light INTEGER NOT NULL,
	timestamp DATETIME DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE IF NOT EXISTS device_daily_times (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	date TEXT NOT NULL UNIQUE, -- YYYY-MM-DD
	motor_time_on INTEGER NOT NULL,  -- seconds
	pump_time_on INTEGER NOT NULL,   -- seconds
	heater_time_on INTEGER NOT NULL, -- seconds
	light_time_on INTEGER NOT NULL   -- seconds
);
`

type Store struct {
	mu sync.Mutex
	db *sql.DB
}

// Open opens or creates the database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}
	return &Store{db: db}, nil
}

// DB exposes the handle so the web sessions can share the file.
func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) Close() error { return s.db.Close() }

type ClimateRow struct {
	Place       string    `json:"place"`
	Temperature float64   `json:"temperature"`
	Humidity    float64   `json:"humidity"`
	Timestamp   time.Time `json:"timestamp"`
}

type RelayRow struct {
	State     relays.State `json:"state"`
	Timestamp time.Time    `json:"timestamp"`
}

// Day is one day of on-time totals.
type Day struct {
	Date   string                   `json:"date"`
	Totals map[string]time.Duration `json:"totals"`
}

func (s *Store) InsertClimate(ctx context.Context, e sensors.ClimateEvent, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sensors (place, temperature, humidity, timestamp) VALUES (?, ?, ?, ?)`,
		e.Place.String(), round2(e.Temperature), round2(e.Humidity), at.UTC())
	if err != nil {
		return fmt.Errorf("insert climate: %w", err)
	}
	return nil
}

func (s *Store) InsertRelays(ctx context.Context, st relays.State, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO relay_events (direction, motor, pump, heater, light, timestamp) VALUES (?, ?, ?, ?, ?, ?)`,
		st.Direction.String(), st.Motor, st.Pump, st.Heater, st.Light, at.UTC())
	if err != nil {
		return fmt.Errorf("insert relay event: %w", err)
	}
	return nil
}

// ClearClimate empties the sensors table and resets its id sequence.
func (s *Store) ClearClimate(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sensors`); err != nil {
		return fmt.Errorf("clear sensors: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sqlite_sequence WHERE name='sensors'`); err != nil {
		return fmt.Errorf("reset sensors sequence: %w", err)
	}
	return nil
}

// SaveDay stores one day of totals, replacing an earlier save of the same
// date, and drops the oldest days beyond DailyWindow.
func (s *Store) SaveDay(ctx context.Context, d Day) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO device_daily_times (date, motor_time_on, pump_time_on, heater_time_on, light_time_on)
		VALUES (?, ?, ?, ?, ?)`,
		d.Date,
		int(d.Totals["motor"].Seconds()),
		int(d.Totals["pump"].Seconds()),
		int(d.Totals["heater"].Seconds()),
		int(d.Totals["light"].Seconds()),
	)
	if err != nil {
		return fmt.Errorf("insert daily times for %s: %w", d.Date, err)
	}
	_, err = tx.ExecContext(ctx, `
		DELETE FROM device_daily_times WHERE id NOT IN (
			SELECT id FROM device_daily_times ORDER BY date DESC LIMIT ?
		)`, DailyWindow)
	if err != nil {
		return fmt.Errorf("trim daily times: %w", err)
	}
	return tx.Commit()
}

// Days returns the stored totals, oldest first.
func (s *Store) Days(ctx context.Context) ([]Day, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT date, motor_time_on, pump_time_on, heater_time_on, light_time_on
		FROM device_daily_times ORDER BY date ASC`)
	if err != nil {
		return nil, fmt.Errorf("query daily times: %w", err)
	}
	defer rows.Close()

	var days []Day
	for rows.Next() {
		var date string
		var motor, pump, heater, light int64
		if err := rows.Scan(&date, &motor, &pump, &heater, &light); err != nil {
			return nil, fmt.Errorf("scan daily times: %w", err)
		}
		days = append(days, Day{Date: date, Totals: map[string]time.Duration{
			"motor":  time.Duration(motor) * time.Second,
			"pump":   time.Duration(pump) * time.Second,
			"heater": time.Duration(heater) * time.Second,
			"light":  time.Duration(light) * time.Second,
		}})
	}
	return days, rows.Err()
}

// Climate returns the climate rows for place, oldest first, thinned evenly
// to at most HistoryPoints rows.
func (s *Store) Climate(ctx context.Context, place string) ([]ClimateRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sensors WHERE place = ?`, place).Scan(&total); err != nil {
		return nil, fmt.Errorf("count climate rows: %w", err)
	}
	step := 1
	if total > HistoryPoints {
		step = int(math.Ceil(float64(total) / HistoryPoints))
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT place, temperature, humidity, timestamp FROM sensors
		WHERE place = ? ORDER BY id ASC`, place)
	if err != nil {
		return nil, fmt.Errorf("query climate rows: %w", err)
	}
	defer rows.Close()

	var out []ClimateRow
	for count := 0; rows.Next(); count++ {
		var r ClimateRow
		if err := rows.Scan(&r.Place, &r.Temperature, &r.Humidity, &r.Timestamp); err != nil {
			return nil, fmt.Errorf("scan climate row: %w", err)
		}
		if count%step == 0 {
			out = append(out, r)
		}
	}
	return out, rows.Err()
}

// Relays returns the newest limit relay snapshots, oldest first.
func (s *Store) Relays(ctx context.Context, limit int) ([]RelayRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT direction, motor, pump, heater, light, timestamp FROM (
			SELECT * FROM relay_events ORDER BY id DESC LIMIT ?
		) ORDER BY id ASC`, limit)
	if err != nil {
		return nil, fmt.Errorf("query relay events: %w", err)
	}
	defer rows.Close()

	var out []RelayRow
	for rows.Next() {
		var r RelayRow
		var direction string
		if err := rows.Scan(&direction, &r.State.Motor, &r.State.Pump, &r.State.Heater, &r.State.Light, &r.Timestamp); err != nil {
			return nil, fmt.Errorf("scan relay event: %w", err)
		}
		r.State.Direction, _ = relays.ParseDirection(direction)
		out = append(out, r)
	}
	return out, rows.Err()
}

func round2(f float32) float64 {
	return math.Round(float64(f)*100) / 100
}
