package doctors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/patient-booking/pkg/logging"
)

// DefaultCacheTTL bounds how stale a cached profile may be.
const DefaultCacheTTL = 10 * time.Minute

// CachedDirectory is a read-through redis cache in front of a Source.
// Redis failures are logged and the source is queried directly.
type CachedDirectory struct {
	source Source
	redis  redis.Cmdable
	ttl    time.Duration
	logger *logging.Logger
}

// NewCachedDirectory wraps source. A nil client disables caching.
func NewCachedDirectory(source Source, client redis.Cmdable, ttl time.Duration, logger *logging.Logger) *CachedDirectory {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &CachedDirectory{source: source, redis: client, ttl: ttl, logger: logger}
}

func (c *CachedDirectory) key(id ID) string {
	return fmt.Sprintf("doctor:profile:%s", id)
}

// Lookup serves from cache when possible.
func (c *CachedDirectory) Lookup(ctx context.Context, id ID) (Doctor, error) {
	if c.redis == nil {
		return c.source.Lookup(ctx, id)
	}

	data, err := c.redis.Get(ctx, c.key(id)).Bytes()
	switch {
	case err == nil:
		var doc Doctor
		jsonErr := json.Unmarshal(data, &doc)
		if jsonErr == nil {
			return doc, nil
		}
		c.logger.Warn("doctors: discarding corrupt cache entry", "doctor_id", id.String(), "error", jsonErr)
	case !errors.Is(err, redis.Nil):
		c.logger.Warn("doctors: cache read failed", "doctor_id", id.String(), "error", err)
	}

	doc, err := c.source.Lookup(ctx, id)
	if err != nil {
		return Doctor{}, err
	}
	if doc.Placeholder {
		return doc, nil
	}

	payload, err := json.Marshal(doc)
	if err != nil {
		c.logger.Warn("doctors: marshal cache entry", "doctor_id", id.String(), "error", err)
		return doc, nil
	}
	if err := c.redis.Set(ctx, c.key(id), payload, c.ttl).Err(); err != nil {
		c.logger.Warn("doctors: cache write failed", "doctor_id", id.String(), "error", err)
	}
	return doc, nil
}

// Invalidate drops a cached profile.
func (c *CachedDirectory) Invalidate(ctx context.Context, id ID) error {
	if c.redis == nil {
		return nil
	}
	if err := c.redis.Del(ctx, c.key(id)).Err(); err != nil {
		return fmt.Errorf("doctors: invalidate %s: %w", id, err)
	}
	return nil
}
