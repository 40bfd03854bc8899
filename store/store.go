// Package store persists fixes to a SQLite database and answers the
// read-only queries used by the report tool.
package store

import (
	"database/sql"
	"fmt"
	"regexp"

	"github.com/locness/gpslog/data"

	// tell sql to use sqlite
	_ "modernc.org/sqlite"
)

// Identifiers cannot be bound as parameters, so the externally
// supplied table name is validated before it is spliced into SQL.
var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Store is a SQLite-backed fix sink plus its query interface. The
// table is append-only; there is no update or delete path.
type Store struct {
	db    *sql.DB
	table string
}

// Row is one persisted fix as stored.
type Row struct {
	ID          int64
	DatetimeUTC int64 // Unix epoch seconds derived from the capture time
	NMEATime    string
	Latitude    float64
	Longitude   float64
	CreatedAt   string // store-assigned creation timestamp
}

// Open opens or creates the database file and creates the fix table if
// it does not exist yet. Opening the same file and table twice is safe.
func Open(dbFile, table string) (*Store, error) {
	if !tableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	db, err := sql.Open("sqlite", dbFile)
	if err != nil {
		return nil, err
	}
	_, err = db.Exec(fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			datetime_utc INTEGER NOT NULL,
			nmea_time TEXT,
			latitude REAL,
			longitude REAL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP)`, table))
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create table %v: %w", table, err)
	}
	return &Store{db: db, table: table}, nil
}

func (s *Store) Name() string { return "sqlite" }

// Record inserts one fix. Each insert is its own atomic unit; fixes
// arrive one at a time from the logging session.
func (s *Store) Record(fix data.Fix) error {
	_, err := s.db.Exec(
		fmt.Sprintf("INSERT INTO %s (datetime_utc, nmea_time, latitude, longitude) VALUES (?, ?, ?, ?)", s.table),
		fix.CapturedAt.Unix(), fix.NMEATime, fix.Latitude, fix.Longitude)
	if err != nil {
		return fmt.Errorf("insert fix: %w", err)
	}
	return nil
}

// Latest returns the most recent limit rows, newest first.
func (s *Store) Latest(limit int) ([]Row, error) {
	rows, err := s.db.Query(
		fmt.Sprintf(`SELECT id, datetime_utc, nmea_time, latitude, longitude, created_at
			FROM %s ORDER BY datetime_utc DESC, id DESC LIMIT ?`, s.table),
		limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var r Row
		err := rows.Scan(&r.ID, &r.DatetimeUTC, &r.NMEATime, &r.Latitude,
			&r.Longitude, &r.CreatedAt)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Count returns the total number of stored fixes.
func (s *Store) Count() (int64, error) {
	var n int64
	err := s.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", s.table)).Scan(&n)
	return n, err
}

// Close closes the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
