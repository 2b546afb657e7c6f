package feedback

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sertugser/assessai/internal/store"
)

// Cache keys, shared with the browser build.
const (
	KeyRecommendations = "aiRecommendations"
	KeyDifficulty      = "aiDifficultyAnalysis"
	KeyMistakes        = "aiMistakeAnalysis"
)

// cacheEntry is the persisted envelope. Timestamp is unix millis.
type cacheEntry struct {
	Data      json.RawMessage `json:"data"`
	Timestamp int64           `json:"timestamp"`
}

// ttlCache stores JSON values per user with a write timestamp.
type ttlCache struct {
	kv  store.KVRepo
	now func() time.Time
}

// get decodes a fresh entry into dst. Missing, expired, or undecodable
// entries report false.
func (c *ttlCache) get(ctx context.Context, userID, key string, ttl time.Duration, dst any) (bool, error) {
	raw, ok, err := c.kv.Get(ctx, userID, key)
	if err != nil {
		return false, fmt.Errorf("read %s: %w", key, err)
	}
	if !ok {
		return false, nil
	}
	var e cacheEntry
	if err := json.Unmarshal(raw, &e); err != nil {
		return false, nil
	}
	if c.expired(e, ttl) {
		return false, nil
	}
	if err := json.Unmarshal(e.Data, dst); err != nil {
		return false, nil
	}
	return true, nil
}

func (c *ttlCache) put(ctx context.Context, userID, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(cacheEntry{Data: data, Timestamp: c.now().UnixMilli()})
	if err != nil {
		return err
	}
	if err := c.kv.Put(ctx, userID, key, raw); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

func (c *ttlCache) expired(e cacheEntry, ttl time.Duration) bool {
	return c.now().Sub(time.UnixMilli(e.Timestamp)) >= ttl
}

// sweep deletes every expired or undecodable entry stored under key.
func (c *ttlCache) sweep(ctx context.Context, key string, ttl time.Duration) (int, error) {
	entries, err := c.kv.Entries(ctx, key)
	if err != nil {
		return 0, fmt.Errorf("list %s: %w", key, err)
	}
	removed := 0
	for _, ent := range entries {
		var e cacheEntry
		if json.Unmarshal(ent.Value, &e) == nil && !c.expired(e, ttl) {
			continue
		}
		if err := c.kv.Delete(ctx, ent.Namespace, key); err != nil {
			return removed, fmt.Errorf("delete %s/%s: %w", ent.Namespace, key, err)
		}
		removed++
	}
	return removed, nil
}
