package schedule

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"jadwalku/internal/models"
	"jadwalku/internal/redis"
)

const (
	listCacheKey = "jadwal:list"
	listCacheTTL = 5 * time.Minute
)

// Service persists schedule entries in the jadwal table.
type Service struct {
	db    *sql.DB
	cache *redis.Client
	loc   *time.Location
	now   func() time.Time
}

// NewService builds a schedule service. cache may be nil; loc decides what "today" is.
func NewService(db *sql.DB, cache *redis.Client, loc *time.Location) *Service {
	if loc == nil {
		loc = time.Local
	}
	return &Service{db: db, cache: cache, loc: loc, now: time.Now}
}

// Today returns the current date in the configured location.
func (s *Service) Today() time.Time {
	return s.now().In(s.loc)
}

// SetClock replaces the time source used by Today.
func (s *Service) SetClock(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Insert stores one entry and returns its new id.
func (s *Service) Insert(ctx context.Context, judul, tanggal, jam string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO jadwal (judul, tanggal, jam) VALUES (?, ?, ?)`,
		judul, tanggal, jam,
	)
	if err != nil {
		return 0, fmt.Errorf("insert jadwal: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("jadwal id: %w", err)
	}
	s.invalidateList(ctx)
	return id, nil
}

// Record resolves each extracted item against today and stores them all in a
// single transaction. Either every item is committed or none is.
func (s *Service) Record(ctx context.Context, items []models.ExtractedItem, today time.Time) ([]models.ResolvedItem, error) {
	resolved := make([]models.ResolvedItem, 0, len(items))
	if len(items) == 0 {
		return resolved, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO jadwal (judul, tanggal, jam) VALUES (?, ?, ?)`)
	if err != nil {
		return nil, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, raw := range items {
		item := raw.WithDefaults()
		tanggal := Resolve(item.Hari, item.Tanggal, today)
		var res sql.Result
		res, err = stmt.ExecContext(ctx, item.Judul, tanggal, item.Jam)
		if err != nil {
			return nil, fmt.Errorf("insert jadwal: %w", err)
		}
		var id int64
		id, err = res.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("jadwal id: %w", err)
		}
		resolved = append(resolved, models.ResolvedItem{
			ID:      id,
			Judul:   item.Judul,
			Hari:    item.Hari,
			Tanggal: tanggal,
			Jam:     item.Jam,
		})
	}
	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit jadwal: %w", err)
	}
	s.invalidateList(ctx)
	return resolved, nil
}

// List returns every entry ordered by date then time.
func (s *Service) List(ctx context.Context) ([]models.Schedule, error) {
	var cached []models.Schedule
	if err := s.cache.GetJSON(ctx, listCacheKey, &cached); err == nil {
		return cached, nil
	} else if !errors.Is(err, redis.ErrCacheMiss) {
		log.Printf("jadwal list cache read failed: %v", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, judul, tanggal, jam FROM jadwal ORDER BY tanggal, jam`,
	)
	if err != nil {
		return nil, fmt.Errorf("list jadwal: %w", err)
	}
	defer rows.Close()

	entries := make([]models.Schedule, 0)
	for rows.Next() {
		var (
			e                   models.Schedule
			judul, tanggal, jam sql.NullString
		)
		if err := rows.Scan(&e.ID, &judul, &tanggal, &jam); err != nil {
			return nil, fmt.Errorf("scan jadwal: %w", err)
		}
		e.Judul, e.Tanggal, e.Jam = judul.String, tanggal.String, jam.String
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate jadwal: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, listCacheKey, entries, listCacheTTL); err != nil {
			log.Printf("jadwal list cache write failed: %v", err)
		}
	}
	return entries, nil
}

// Delete removes the entry with id. A missing id is not an error.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM jadwal WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete jadwal: %w", err)
	}
	s.invalidateList(ctx)
	return nil
}

func (s *Service) invalidateList(ctx context.Context) {
	if err := s.cache.Del(ctx, listCacheKey); err != nil {
		log.Printf("jadwal list cache invalidate failed: %v", err)
	}
}
