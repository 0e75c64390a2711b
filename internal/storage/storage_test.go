package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"barbershop-whatsapp/internal/models"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "bookings.db") + "?_foreign_keys=on"
	s, err := NewStorage(context.Background(), "sqlite3", dsn)
	if err != nil {
		t.Fatalf("NewStorage: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleRecord(ref, date string) models.BookingRecord {
	return models.BookingRecord{
		Name:     "Maria",
		TaxID:    "12345678901",
		Service:  "Haircut",
		Date:     date,
		Time:     "09:00",
		EventRef: ref,
	}
}

func TestStorage_InsertAndGet(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	id, err := s.InsertBooking(ctx, sampleRecord("evt-1", "2026-03-10"))
	if err != nil {
		t.Fatalf("InsertBooking: %v", err)
	}
	if id <= 0 {
		t.Fatalf("expected positive id, got %d", id)
	}

	rec, err := s.GetBookingByEventRef(ctx, "evt-1")
	if err != nil {
		t.Fatalf("GetBookingByEventRef: %v", err)
	}
	if rec.ID != id || rec.Status != models.BookingActive || rec.Date != "2026-03-10" {
		t.Fatalf("unexpected record: %+v", rec)
	}
}

func TestStorage_InsertIsIdempotentPerEvent(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	first, err := s.InsertBooking(ctx, sampleRecord("evt-1", "2026-03-10"))
	if err != nil {
		t.Fatalf("first insert: %v", err)
	}
	second, err := s.InsertBooking(ctx, sampleRecord("evt-1", "2026-03-10"))
	if err != nil {
		t.Fatalf("second insert: %v", err)
	}
	if first != second {
		t.Fatalf("expected same id for duplicate event, got %d and %d", first, second)
	}
}

func TestStorage_UpdateBookingStatus(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	if _, err := s.InsertBooking(ctx, sampleRecord("evt-1", "2026-03-10")); err != nil {
		t.Fatalf("InsertBooking: %v", err)
	}
	if err := s.UpdateBookingStatus(ctx, "evt-1", models.BookingCancelled); err != nil {
		t.Fatalf("UpdateBookingStatus: %v", err)
	}
	rec, err := s.GetBookingByEventRef(ctx, "evt-1")
	if err != nil {
		t.Fatalf("GetBookingByEventRef: %v", err)
	}
	if rec.Status != models.BookingCancelled {
		t.Fatalf("expected cancelled, got %s", rec.Status)
	}

	if err := s.UpdateBookingStatus(ctx, "missing", models.BookingCancelled); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStorage_GetBookingsByStatus(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	for _, rec := range []models.BookingRecord{
		sampleRecord("evt-old", "2026-03-01"),
		sampleRecord("evt-late", "2026-03-12"),
		sampleRecord("evt-soon", "2026-03-10"),
		sampleRecord("evt-gone", "2026-03-11"),
	} {
		if _, err := s.InsertBooking(ctx, rec); err != nil {
			t.Fatalf("InsertBooking: %v", err)
		}
	}
	if err := s.UpdateBookingStatus(ctx, "evt-gone", models.BookingCancelled); err != nil {
		t.Fatalf("UpdateBookingStatus: %v", err)
	}

	got, err := s.GetBookingsByStatus(ctx, models.BookingActive, "2026-03-05")
	if err != nil {
		t.Fatalf("GetBookingsByStatus: %v", err)
	}
	if len(got) != 2 || got[0].EventRef != "evt-soon" || got[1].EventRef != "evt-late" {
		t.Fatalf("unexpected bookings: %+v", got)
	}
}

func TestStorage_GetMissing(t *testing.T) {
	s := newTestStorage(t)
	if _, err := s.GetBookingByEventRef(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStorage_UnsupportedDriver(t *testing.T) {
	if _, err := NewStorage(context.Background(), "mysql", "dsn"); err == nil {
		t.Fatal("expected error for unsupported driver")
	}
}

func TestRebind(t *testing.T) {
	pg := &Storage{driver: "pgx"}
	if got := pg.rebind("a = ? AND b = ?"); got != "a = $1 AND b = $2" {
		t.Fatalf("rebind = %q", got)
	}
	lite := &Storage{driver: "sqlite3"}
	if got := lite.rebind("a = ?"); got != "a = ?" {
		t.Fatalf("rebind = %q", got)
	}
}

func TestNewStorage_CreatesDatabaseDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "db")
	dsn := "file:" + filepath.Join(dir, "bookings.db") + "?_foreign_keys=on"

	s, err := NewStorage(context.Background(), "sqlite3", dsn)
	if err != nil {
		t.Fatalf("NewStorage: %v", err)
	}
	defer s.Close()

	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Fatalf("expected database directory to exist: %v", err)
	}
}

func TestEnsureSQLiteDir_InMemory(t *testing.T) {
	for _, dsn := range []string{":memory:", "file::memory:?cache=shared", "bookings.db"} {
		if err := ensureSQLiteDir(dsn); err != nil {
			t.Fatalf("%s: %v", dsn, err)
		}
	}
}
