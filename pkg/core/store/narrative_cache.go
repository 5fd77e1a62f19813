package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"roi_advisor/pkg/core/narrative"
)

// NarrativeCache memoizes generated reports.
// Supports Hybrid Vault: DB (Primary) + File System (Fallback/Local)
type NarrativeCache struct {
	pool    *pgxpool.Pool
	fileDir string
	ttl     time.Duration
}

var _ narrative.Cache = (*NarrativeCache)(nil)

// NewNarrativeCache creates a cache. If pool is nil it falls back to JSON files
// in dir (default .cache/narratives). ttl <= 0 keeps entries forever.
func NewNarrativeCache(pool *pgxpool.Pool, dir string, ttl time.Duration) (*NarrativeCache, error) {
	if pool == nil && dir == "" {
		dir = filepath.Join(".cache", "narratives")
	}
	if dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create narrative cache dir: %w", err)
		}
	}
	return &NarrativeCache{pool: pool, fileDir: dir, ttl: ttl}, nil
}

// CacheEntry is the on-disk form of a cached report.
type CacheEntry struct {
	Key      string            `json:"key"`
	Report   *narrative.Report `json:"report"`
	StoredAt time.Time         `json:"stored_at"`
}

func (c *NarrativeCache) expired(storedAt time.Time) bool {
	return c.ttl > 0 && time.Since(storedAt) > c.ttl
}

// Get returns the cached report for key. A miss is (nil, false, nil).
func (c *NarrativeCache) Get(ctx context.Context, key string) (*narrative.Report, bool, error) {
	if c.pool != nil {
		query := `
			SELECT data, updated_at
			FROM narrative_reports
			WHERE cache_key = $1
		`
		var dataJSON []byte
		var storedAt time.Time
		err := c.pool.QueryRow(ctx, query, key).Scan(&dataJSON, &storedAt)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		if err != nil {
			return nil, false, fmt.Errorf("narrative cache query: %w", err)
		}
		if c.expired(storedAt) {
			return nil, false, nil
		}
		var report narrative.Report
		if err := json.Unmarshal(dataJSON, &report); err != nil {
			return nil, false, fmt.Errorf("failed to unmarshal db cached report: %w", err)
		}
		return &report, true, nil
	}

	data, err := os.ReadFile(c.keyPath(key))
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var entry CacheEntry
	if err := json.Unmarshal(data, &entry); err != nil || entry.Report == nil {
		// Corrupt entries are treated as misses and overwritten on the next Put.
		return nil, false, nil
	}
	if c.expired(entry.StoredAt) {
		return nil, false, nil
	}
	return entry.Report, true, nil
}

// Put stores a report under key, replacing any previous entry.
func (c *NarrativeCache) Put(ctx context.Context, key string, report *narrative.Report) error {
	if report == nil {
		return fmt.Errorf("nil report")
	}
	if report.ID == "" {
		report.ID = uuid.NewString()
	}

	if c.pool != nil {
		dataJSON, err := json.Marshal(report)
		if err != nil {
			return fmt.Errorf("failed to marshal report: %w", err)
		}
		reportID, err := uuid.Parse(report.ID)
		if err != nil {
			reportID = uuid.New()
		}
		query := `
			INSERT INTO narrative_reports (cache_key, report_id, provider, model, data)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (cache_key)
			DO UPDATE SET
				report_id = EXCLUDED.report_id,
				provider = EXCLUDED.provider,
				model = EXCLUDED.model,
				data = EXCLUDED.data,
				updated_at = NOW()
		`
		if _, err := c.pool.Exec(ctx, query, key, reportID, report.Provider, report.Model, dataJSON); err != nil {
			return fmt.Errorf("failed to save to db cache: %w", err)
		}
		return nil
	}

	entry := CacheEntry{Key: key, Report: report, StoredAt: time.Now().UTC()}
	fileBytes, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}
	// Write then rename so concurrent readers never see a partial file.
	tmp := c.keyPath(key) + ".tmp"
	if err := os.WriteFile(tmp, fileBytes, 0644); err != nil {
		return fmt.Errorf("failed to save to file cache: %w", err)
	}
	return os.Rename(tmp, c.keyPath(key))
}

// Clear removes every cached report.
func (c *NarrativeCache) Clear(ctx context.Context) error {
	if c.pool != nil {
		_, err := c.pool.Exec(ctx, `DELETE FROM narrative_reports`)
		return err
	}
	entries, err := os.ReadDir(c.fileDir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if filepath.Ext(e.Name()) == ".json" {
			if err := os.Remove(filepath.Join(c.fileDir, e.Name())); err != nil {
				return err
			}
		}
	}
	return nil
}

func (c *NarrativeCache) keyPath(key string) string {
	return filepath.Join(c.fileDir, key+".json")
}
