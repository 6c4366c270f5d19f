package analytics

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/gommon/log"
	_ "modernc.org/sqlite"
)

// timeLayout keeps timestamps lexically ordered so range filters compare as text.
const timeLayout = "2006-01-02 15:04:05"

const currentSchemaVersion = 1

// Store persists visits in SQLite.
type Store struct {
	db *sql.DB
}

// NewStore opens (creating if needed) the database at path.
func NewStore(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open analytics db: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout=5000;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	s := &Store{db: db}
	if err := s.ensureSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS visits (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			visitor_id TEXT NOT NULL,
			session_id TEXT NOT NULL,
			ip_hash TEXT NOT NULL,
			browser TEXT NOT NULL,
			os TEXT NOT NULL,
			device TEXT NOT NULL,
			path TEXT NOT NULL,
			referrer TEXT NOT NULL DEFAULT '',
			screen_size TEXT NOT NULL DEFAULT '',
			timestamp TEXT NOT NULL,
			duration_sec INTEGER NOT NULL DEFAULT 0
		);

		CREATE TABLE IF NOT EXISTS bot_visits (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			bot_name TEXT NOT NULL,
			ip_hash TEXT NOT NULL,
			user_agent TEXT NOT NULL,
			path TEXT NOT NULL,
			timestamp TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_visits_timestamp ON visits(timestamp);
		CREATE INDEX IF NOT EXISTS idx_visits_visitor_id ON visits(visitor_id);
		CREATE INDEX IF NOT EXISTS idx_visits_path ON visits(path);
		CREATE INDEX IF NOT EXISTS idx_bot_visits_timestamp ON bot_visits(timestamp);

		CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
	`)
	return err
}

func (s *Store) migrate(ctx context.Context) error {
	verStr, err := s.Setting(ctx, "schema_version")
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	version := 0
	if verStr != "" {
		version, err = strconv.Atoi(verStr)
		if err != nil {
			return fmt.Errorf("parse schema version %q: %w", verStr, err)
		}
	}
	if version >= currentSchemaVersion {
		return nil
	}
	return s.SetSetting(ctx, "schema_version", strconv.Itoa(currentSchemaVersion))
}

// Setting returns the value stored under key, or "" when unset.
func (s *Store) Setting(ctx context.Context, key string) (string, error) {
	var v string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return v, err
}

// SetSetting stores value under key.
func (s *Store) SetSetting(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO settings (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	return err
}

// SaveVisit records a page view.
func (s *Store) SaveVisit(ctx context.Context, v *Visit) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO visits (visitor_id, session_id, ip_hash, browser, os, device, path, referrer, screen_size, timestamp, duration_sec)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		v.VisitorID, v.SessionID, v.IPHash, v.Browser, v.OS, v.Device,
		v.Path, v.Referrer, v.ScreenSize, v.Timestamp.UTC().Format(timeLayout), v.DurationSec)
	if err != nil {
		return fmt.Errorf("save visit: %w", err)
	}
	return nil
}

// UpdateVisitDuration sets the time spent on the visitor's latest view of path.
func (s *Store) UpdateVisitDuration(ctx context.Context, visitorID, path string, durationSec int) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE visits SET duration_sec = ?
		 WHERE id = (SELECT id FROM visits WHERE visitor_id = ? AND path = ? ORDER BY timestamp DESC, id DESC LIMIT 1)`,
		durationSec, visitorID, path)
	if err != nil {
		return fmt.Errorf("update visit duration: %w", err)
	}
	return nil
}

// SaveBotVisit records a crawler request.
func (s *Store) SaveBotVisit(ctx context.Context, bv *BotVisit) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO bot_visits (bot_name, ip_hash, user_agent, path, timestamp) VALUES (?, ?, ?, ?, ?)`,
		bv.BotName, bv.IPHash, bv.UserAgent, bv.Path, bv.Timestamp.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("save bot visit: %w", err)
	}
	return nil
}

// Stats aggregates visits with from <= timestamp < to. The queries run
// concurrently; the first failure is returned.
func (s *Store) Stats(ctx context.Context, from, to time.Time) (*Stats, error) {
	stats := &Stats{
		From:       from.UTC(),
		To:         to.UTC(),
		TopPages:   []DimensionStat{},
		Browsers:   []DimensionStat{},
		Devices:    []DimensionStat{},
		Referrers:  []DimensionStat{},
		DailyViews: []DailyView{},
	}
	lo, hi := from.UTC().Format(timeLayout), to.UTC().Format(timeLayout)

	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		firstErr error
	)
	run := func(name string, fn func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(); err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = fmt.Errorf("%s: %w", name, err)
				}
				mu.Unlock()
			}
		}()
	}
	count := func(query string, dst *int) func() error {
		return func() error {
			var n int
			if err := s.db.QueryRowContext(ctx, query, lo, hi).Scan(&n); err != nil {
				return err
			}
			mu.Lock()
			*dst = n
			mu.Unlock()
			return nil
		}
	}
	dimension := func(column string, limit int, dst *[]DimensionStat) func() error {
		return func() error {
			rows, err := s.db.QueryContext(ctx,
				`SELECT `+column+`, COUNT(*) AS n FROM visits
				 WHERE timestamp >= ? AND timestamp < ?
				 GROUP BY `+column+` ORDER BY n DESC, `+column+` LIMIT ?`, lo, hi, limit)
			if err != nil {
				return err
			}
			defer rows.Close()
			var out []DimensionStat
			for rows.Next() {
				var d DimensionStat
				if err := rows.Scan(&d.Name, &d.Count); err != nil {
					return err
				}
				out = append(out, d)
			}
			if err := rows.Err(); err != nil {
				return err
			}
			mu.Lock()
			if out != nil {
				*dst = out
			}
			mu.Unlock()
			return nil
		}
	}

	run("count views", count(`SELECT COUNT(*) FROM visits WHERE timestamp >= ? AND timestamp < ?`, &stats.TotalViews))
	run("count visitors", count(`SELECT COUNT(DISTINCT visitor_id) FROM visits WHERE timestamp >= ? AND timestamp < ?`, &stats.UniqueVisitors))
	run("count bots", count(`SELECT COUNT(*) FROM bot_visits WHERE timestamp >= ? AND timestamp < ?`, &stats.BotVisits))
	run("avg duration", func() error {
		var avg sql.NullFloat64
		err := s.db.QueryRowContext(ctx,
			`SELECT AVG(duration_sec) FROM visits WHERE timestamp >= ? AND timestamp < ? AND duration_sec > 0`,
			lo, hi).Scan(&avg)
		if err != nil {
			return err
		}
		if avg.Valid {
			mu.Lock()
			stats.AvgDuration = int(avg.Float64 + 0.5)
			mu.Unlock()
		}
		return nil
	})
	run("top pages", dimension("path", 10, &stats.TopPages))
	run("browsers", dimension("browser", 10, &stats.Browsers))
	run("devices", dimension("device", 10, &stats.Devices))
	run("referrers", dimension("referrer", 10, &stats.Referrers))
	run("daily views", func() error {
		rows, err := s.db.QueryContext(ctx,
			`SELECT substr(timestamp, 1, 10) AS day, COUNT(*) FROM visits
			 WHERE timestamp >= ? AND timestamp < ?
			 GROUP BY day ORDER BY day`, lo, hi)
		if err != nil {
			return err
		}
		defer rows.Close()
		var out []DailyView
		for rows.Next() {
			var d DailyView
			if err := rows.Scan(&d.Date, &d.Views); err != nil {
				return err
			}
			out = append(out, d)
		}
		if err := rows.Err(); err != nil {
			return err
		}
		mu.Lock()
		stats.DailyViews = fillDays(out, from, to)
		mu.Unlock()
		return nil
	})

	wg.Wait()
	if firstErr != nil {
		return nil, firstErr
	}
	return stats, nil
}

// fillDays returns one entry per UTC day in [from, to), zero where sparse has none.
func fillDays(sparse []DailyView, from, to time.Time) []DailyView {
	views := make(map[string]int, len(sparse))
	for _, v := range sparse {
		views[v.Date] = v.Views
	}
	start := from.UTC().Truncate(24 * time.Hour)
	var out []DailyView
	for d := start; d.Before(to.UTC()); d = d.AddDate(0, 0, 1) {
		key := d.Format("2006-01-02")
		out = append(out, DailyView{Date: key, Views: views[key]})
	}
	if out == nil {
		out = []DailyView{}
	}
	return out
}

// Cleanup deletes visits older than retention. It returns the number of
// rows removed.
func (s *Store) Cleanup(ctx context.Context, retention time.Duration, now time.Time) (int64, error) {
	cutoff := now.UTC().Add(-retention).Format(timeLayout)
	var total int64
	for _, table := range []string{"visits", "bot_visits"} {
		res, err := s.db.ExecContext(ctx, `DELETE FROM `+table+` WHERE timestamp < ?`, cutoff)
		if err != nil {
			return total, fmt.Errorf("cleanup %s: %w", table, err)
		}
		n, _ := res.RowsAffected()
		total += n
	}
	return total, nil
}

// StartCleanupScheduler removes expired visits every interval until ctx is
// done.
func (s *Store) StartCleanupScheduler(ctx context.Context, retentionDays int, interval time.Duration, logger *log.Logger) {
	retention := time.Duration(retentionDays) * 24 * time.Hour
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				n, err := s.Cleanup(ctx, retention, now)
				if err != nil {
					logger.Errorf("analytics cleanup: %v", err)
					continue
				}
				if n > 0 {
					logger.Infof("analytics cleanup removed %d rows", n)
				}
			}
		}
	}()
}
