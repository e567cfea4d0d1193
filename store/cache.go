package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/robertmeta/badge-cli/model"
)

// GetCache returns the cached badges for appID. Missing and expired
// entries both report ok == false.
func (s *Store) GetCache(ctx context.Context, appID int64) ([]model.APIBadge, bool, error) {
	entry, err := s.GetCacheEntry(ctx, appID)
	if err != nil {
		return nil, false, err
	}
	if entry == nil || entry.Age(msToTime(s.now().UnixMilli())) >= s.ttl {
		return nil, false, nil
	}
	return entry.Data, true, nil
}

// PutCache stores badges for appID with a fresh timestamp, overwriting any
// existing entry.
func (s *Store) PutCache(ctx context.Context, appID int64, badges []model.APIBadge) error {
	if badges == nil {
		badges = []model.APIBadge{}
	}
	data, err := json.Marshal(badges)
	if err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO api_cache (app_id, timestamp, data) VALUES (?, ?, ?)
		ON CONFLICT(app_id) DO UPDATE SET timestamp = excluded.timestamp, data = excluded.data`,
		appID, s.now().UnixMilli(), string(data),
	)
	if err != nil {
		return fmt.Errorf("failed to save cache entry: %w", err)
	}
	return nil
}

// GetCacheEntry returns the raw entry regardless of age, or nil.
func (s *Store) GetCacheEntry(ctx context.Context, appID int64) (*model.CacheEntry, error) {
	var timestamp int64
	var data string

	err := s.db.QueryRowContext(ctx,
		"SELECT timestamp, data FROM api_cache WHERE app_id = ?",
		appID,
	).Scan(&timestamp, &data)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cache entry: %w", err)
	}

	entry := &model.CacheEntry{AppID: appID, Timestamp: msToTime(timestamp)}
	if err := json.Unmarshal([]byte(data), &entry.Data); err != nil {
		return nil, fmt.Errorf("failed to decode cache entry: %w", err)
	}
	return entry, nil
}

// EvictStale deletes every entry older than the TTL and returns how many
// were removed. The first error is logged and ends the scan.
func (s *Store) EvictStale(ctx context.Context) int {
	type cacheKey struct {
		appID     int64
		timestamp int64
	}

	rows, err := s.db.QueryContext(ctx, "SELECT app_id, timestamp FROM api_cache")
	if err != nil {
		s.logger.Error("failed to scan cache for stale entries", "error", err)
		return 0
	}

	var keys []cacheKey
	for rows.Next() {
		var k cacheKey
		if err := rows.Scan(&k.appID, &k.timestamp); err != nil {
			rows.Close()
			s.logger.Error("failed to read cache entry", "error", err)
			return 0
		}
		keys = append(keys, k)
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		s.logger.Error("failed to scan cache for stale entries", "error", err)
		return 0
	}

	now := s.now().UnixMilli()
	ttl := s.ttl.Milliseconds()
	deleted := 0

	for _, k := range keys {
		if now-k.timestamp <= ttl {
			continue
		}
		if _, err := s.db.ExecContext(ctx, "DELETE FROM api_cache WHERE app_id = ?", k.appID); err != nil {
			s.logger.Error("failed to delete stale cache entry", "app_id", k.appID, "error", err)
			return deleted
		}
		deleted++
	}

	if deleted > 0 {
		s.logger.Info("evicted stale cache entries", "count", deleted)
	}
	return deleted
}
