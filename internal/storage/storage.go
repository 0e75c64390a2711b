package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"

	"barbershop-whatsapp/internal/models"
)

// ErrNotFound is returned when no booking record matches
var ErrNotFound = errors.New("booking record not found")

var migrations = map[string][]string{
	"sqlite3": {
		`CREATE TABLE IF NOT EXISTS bookings (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			tax_id TEXT NOT NULL,
			service TEXT NOT NULL,
			date TEXT NOT NULL,
			time TEXT NOT NULL,
			event_ref TEXT NOT NULL UNIQUE,
			status TEXT NOT NULL DEFAULT 'active'
		)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_tax_id ON bookings (tax_id)`,
	},
	"pgx": {
		`CREATE TABLE IF NOT EXISTS bookings (
			id BIGSERIAL PRIMARY KEY,
			name TEXT NOT NULL,
			tax_id TEXT NOT NULL,
			service TEXT NOT NULL,
			date TEXT NOT NULL,
			time TEXT NOT NULL,
			event_ref TEXT NOT NULL UNIQUE,
			status TEXT NOT NULL DEFAULT 'active'
		)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_tax_id ON bookings (tax_id)`,
	},
}

// Storage persists booking records in a SQL database
type Storage struct {
	db     *sql.DB
	driver string
}

// NewStorage opens the database, checks the connection and runs migrations.
// driver is "sqlite3" or "pgx".
func NewStorage(ctx context.Context, driver, dsn string) (*Storage, error) {
	stmts, ok := migrations[driver]
	if !ok {
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	if driver == "sqlite3" {
		if err := ensureSQLiteDir(dsn); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if driver == "sqlite3" {
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to run migration: %w", err)
		}
	}
	return &Storage{db: db, driver: driver}, nil
}

// Close closes the database
func (s *Storage) Close() error {
	return s.db.Close()
}

// InsertBooking stores a record and returns its id. Inserting the same
// event reference twice returns the id of the existing row.
func (s *Storage) InsertBooking(ctx context.Context, rec models.BookingRecord) (int64, error) {
	if rec.Status == "" {
		rec.Status = models.BookingActive
	}

	var id int64
	err := s.db.QueryRowContext(ctx, s.rebind(
		`INSERT INTO bookings (name, tax_id, service, date, time, event_ref, status)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (event_ref) DO NOTHING
		 RETURNING id`),
		rec.Name, rec.TaxID, rec.Service, rec.Date, rec.Time, rec.EventRef, string(rec.Status),
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		existing, getErr := s.GetBookingByEventRef(ctx, rec.EventRef)
		if getErr != nil {
			return 0, fmt.Errorf("failed to load existing booking: %w", getErr)
		}
		return existing.ID, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to insert booking: %w", err)
	}
	return id, nil
}

// UpdateBookingStatus sets the status of the record linked to eventRef
func (s *Storage) UpdateBookingStatus(ctx context.Context, eventRef string, status models.BookingStatus) error {
	res, err := s.db.ExecContext(ctx, s.rebind(
		`UPDATE bookings SET status = ? WHERE event_ref = ?`),
		string(status), eventRef,
	)
	if err != nil {
		return fmt.Errorf("failed to update booking status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetBookingByEventRef retrieves a record by its calendar event reference
func (s *Storage) GetBookingByEventRef(ctx context.Context, eventRef string) (*models.BookingRecord, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(
		`SELECT id, name, tax_id, service, date, time, event_ref, status
		 FROM bookings WHERE event_ref = ?`),
		eventRef,
	)
	rec, err := scanBooking(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return rec, nil
}

// GetBookingsByStatus returns records with the given status dated on or after
// fromDate (YYYY-MM-DD), ordered by date and time
func (s *Storage) GetBookingsByStatus(ctx context.Context, status models.BookingStatus, fromDate string) ([]models.BookingRecord, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(
		`SELECT id, name, tax_id, service, date, time, event_ref, status
		 FROM bookings WHERE status = ? AND date >= ?
		 ORDER BY date ASC, time ASC`),
		string(status), fromDate,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query bookings: %w", err)
	}
	defer rows.Close()

	var result []models.BookingRecord
	for rows.Next() {
		rec, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		result = append(result, *rec)
	}
	return result, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBooking(row scanner) (*models.BookingRecord, error) {
	var rec models.BookingRecord
	var status string
	if err := row.Scan(&rec.ID, &rec.Name, &rec.TaxID, &rec.Service, &rec.Date, &rec.Time, &rec.EventRef, &status); err != nil {
		return nil, err
	}
	rec.Status = models.BookingStatus(status)
	return &rec, nil
}

// ensureSQLiteDir creates the directory holding a file-backed sqlite database
func ensureSQLiteDir(dsn string) error {
	path := strings.TrimPrefix(dsn, "file:")
	path, _, _ = strings.Cut(path, "?")
	if path == "" || strings.HasPrefix(path, ":memory:") {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create database directory: %w", err)
	}
	return nil
}

// rebind rewrites ? placeholders into $N for postgres
func (s *Storage) rebind(query string) string {
	if s.driver != "pgx" {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
