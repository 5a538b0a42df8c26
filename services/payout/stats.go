package payout

import (
	"context"
	"encoding/json"
	"time"

	"fundihub/models"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const statsCacheTTL = 60 * time.Second

// GetStats returns aggregated payout stats, optionally scoped to one
// provider. Results are cached briefly in Redis; a cache miss or a cache
// error falls through to the aggregation.
func (e *Engine) GetStats(ctx context.Context, cache *redis.Client, providerID string) (*models.PayoutStats, error) {
	key := "payout:stats:" + providerID
	if providerID == "" {
		key = "payout:stats:all"
	}

	if cache != nil {
		if blob, err := cache.Get(ctx, key).Result(); err == nil {
			var stats models.PayoutStats
			if json.Unmarshal([]byte(blob), &stats) == nil {
				return &stats, nil
			}
		}
	}

	stats, err := e.Payouts.Stats(providerID)
	if err != nil {
		return nil, err
	}

	if cache != nil {
		if blob, err := json.Marshal(stats); err == nil {
			if err := cache.Set(ctx, key, blob, statsCacheTTL).Err(); err != nil {
				e.Logger.Debug("failed to cache payout stats", zap.Error(err))
			}
		}
	}
	return stats, nil
}
