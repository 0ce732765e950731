package schedule

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"jadwalku/internal/config"
	"jadwalku/internal/models"
	"jadwalku/internal/storage"
)

func TestListSortedByDateThenTime(t *testing.T) {
	db := openTestDB(t)
	defer db.Close()
	svc := NewService(db, nil, time.UTC)
	ctx := context.Background()

	inserts := []models.Schedule{
		{Judul: "c", Tanggal: "2025-01-12", Jam: "08:00"},
		{Judul: "b", Tanggal: "2025-01-11", Jam: "15:00"},
		{Judul: "a", Tanggal: "2025-01-11", Jam: "07:30"},
		{Judul: "d", Tanggal: "2025-02-01", Jam: "00:00"},
	}
	for _, e := range inserts {
		if _, err := svc.Insert(ctx, e.Judul, e.Tanggal, e.Jam); err != nil {
			t.Fatalf("Insert error: %v", err)
		}
	}

	entries, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	var order []string
	for _, e := range entries {
		order = append(order, e.Judul)
	}
	if got := strings.Join(order, ","); got != "a,b,c,d" {
		t.Fatalf("unexpected order %s", got)
	}
}

func TestListEmptyIsNotNil(t *testing.T) {
	db := openTestDB(t)
	defer db.Close()
	entries, err := NewService(db, nil, time.UTC).List(context.Background())
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if entries == nil || len(entries) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", entries)
	}
}

func TestInsertAssignsIncreasingIDs(t *testing.T) {
	db := openTestDB(t)
	defer db.Close()
	svc := NewService(db, nil, time.UTC)
	first, err := svc.Insert(context.Background(), "x", "2025-01-01", "00:00")
	if err != nil {
		t.Fatalf("Insert error: %v", err)
	}
	second, err := svc.Insert(context.Background(), "y", "2025-01-01", "00:00")
	if err != nil {
		t.Fatalf("Insert error: %v", err)
	}
	if second <= first {
		t.Fatalf("ids not increasing: %d then %d", first, second)
	}
}

func TestDeleteMissingIDIsNoop(t *testing.T) {
	db := openTestDB(t)
	defer db.Close()
	svc := NewService(db, nil, time.UTC)
	ctx := context.Background()
	id, err := svc.Insert(ctx, "rapat", "2025-01-10", "10:00")
	if err != nil {
		t.Fatalf("Insert error: %v", err)
	}

	if err := svc.Delete(ctx, id+100); err != nil {
		t.Fatalf("Delete of missing id returned error: %v", err)
	}
	if n := countRows(t, db); n != 1 {
		t.Fatalf("expected store unchanged, got %d rows", n)
	}

	if err := svc.Delete(ctx, id); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if n := countRows(t, db); n != 0 {
		t.Fatalf("expected entry removed, got %d rows", n)
	}
}

func TestRecordResolvesAndDefaults(t *testing.T) {
	db := openTestDB(t)
	defer db.Close()
	svc := NewService(db, nil, time.UTC)
	today := time.Date(2025, time.January, 10, 12, 0, 0, 0, time.UTC)

	items := []models.ExtractedItem{
		{Judul: "meeting", Hari: "tomorrow", Jam: "15:00"},
		{Judul: "ulang tahun", Hari: "date", Tanggal: "2025-03-02", Jam: "19:00"},
		{},
	}
	resolved, err := svc.Record(context.Background(), items, today)
	if err != nil {
		t.Fatalf("Record error: %v", err)
	}
	if len(resolved) != 3 {
		t.Fatalf("expected 3 resolved items, got %d", len(resolved))
	}
	if r := resolved[0]; r.Tanggal != "2025-01-11" || r.Jam != "15:00" || r.Judul != "meeting" || r.ID == 0 {
		t.Fatalf("unexpected first item %#v", r)
	}
	if r := resolved[1]; r.Tanggal != "2025-03-02" {
		t.Fatalf("unexpected second item %#v", r)
	}
	if r := resolved[2]; r.Judul != models.DefaultTitle || r.Jam != models.DefaultTime || r.Tanggal != "2025-01-10" || r.Hari != models.DayToday {
		t.Fatalf("defaults not applied: %#v", r)
	}

	var judul, tanggal, jam string
	if err := db.QueryRow(`SELECT judul, tanggal, jam FROM jadwal WHERE id = ?`, resolved[0].ID).Scan(&judul, &tanggal, &jam); err != nil {
		t.Fatalf("query stored row: %v", err)
	}
	if judul != "meeting" || tanggal != "2025-01-11" || jam != "15:00" {
		t.Fatalf("unexpected stored row (%s, %s, %s)", judul, tanggal, jam)
	}
}

func TestRecordIsAtomic(t *testing.T) {
	db := openTestDB(t)
	defer db.Close()
	svc := NewService(db, nil, time.UTC)
	_, err := db.Exec(`CREATE TRIGGER fail_on_boom BEFORE INSERT ON jadwal
		WHEN NEW.judul = 'boom'
		BEGIN SELECT RAISE(ABORT, 'boom rejected'); END`)
	if err != nil {
		t.Fatalf("create trigger: %v", err)
	}

	items := []models.ExtractedItem{{Judul: "a"}, {Judul: "boom"}, {Judul: "c"}}
	_, err = svc.Record(context.Background(), items, time.Now())
	if err == nil || !strings.Contains(err.Error(), "boom rejected") {
		t.Fatalf("expected trigger failure, got %v", err)
	}
	if n := countRows(t, db); n != 0 {
		t.Fatalf("expected no partial insert, got %d rows", n)
	}
}

func TestRecordEmptyBatch(t *testing.T) {
	db := openTestDB(t)
	defer db.Close()
	resolved, err := NewService(db, nil, time.UTC).Record(context.Background(), nil, time.Now())
	if err != nil {
		t.Fatalf("Record error: %v", err)
	}
	if resolved == nil || len(resolved) != 0 {
		t.Fatalf("expected empty result, got %#v", resolved)
	}
}

func TestTodayUsesLocation(t *testing.T) {
	jakarta := time.FixedZone("WIB", 7*3600)
	svc := NewService(nil, nil, jakarta)
	svc.now = func() time.Time { return time.Date(2025, time.January, 10, 20, 0, 0, 0, time.UTC) }
	if got := svc.Today().Format(DateLayout); got != "2025-01-11" {
		t.Fatalf("expected local date 2025-01-11, got %s", got)
	}
}

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	cfg := &config.Config{
		Databases: map[string]config.DatabaseConfig{
			"sqlite3": {
				DSN: ":memory:",
			},
		},
	}
	db, err := storage.Open("sqlite3", cfg)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := storage.Migrate(db, "sqlite3"); err != nil {
		t.Fatalf("migrate db: %v", err)
	}
	return db
}

func countRows(t *testing.T, db *sql.DB) int {
	t.Helper()
	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM jadwal`).Scan(&count); err != nil {
		t.Fatalf("count jadwal: %v", err)
	}
	return count
}
