package utils

import (
	"context"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const healthProbeTimeout = 3 * time.Second

// HealthStatus is the latest probe result for each external dependency.
type HealthStatus struct {
	Mongo     bool            `json:"mongo"`
	Redis     map[string]bool `json:"redis"`
	CheckedAt time.Time       `json:"checkedAt"`
}

// Healthy reports whether every probed dependency responded.
func (h HealthStatus) Healthy() bool {
	if !h.Mongo {
		return false
	}
	for _, ok := range h.Redis {
		if !ok {
			return false
		}
	}
	return true
}

var (
	currentHealth HealthStatus
	healthMu      sync.RWMutex
)

// GetHealthStatus returns the latest stored health snapshot.
func GetHealthStatus() HealthStatus {
	healthMu.RLock()
	defer healthMu.RUnlock()
	return currentHealth
}

// StartHealthMonitor probes the named redis clients and mongo once
// immediately, then every interval, storing the result in memory.
func StartHealthMonitor(redisClients map[string]*redis.Client, mongoClient *mongo.Client, interval time.Duration) {
	probe := func() {
		redisHealth := make(map[string]bool, len(redisClients))
		for name, client := range redisClients {
			ctx, cancel := context.WithTimeout(context.Background(), healthProbeTimeout)
			redisHealth[name] = client.Ping(ctx).Err() == nil
			cancel()
		}

		ctx, cancel := context.WithTimeout(context.Background(), healthProbeTimeout)
		mongoHealthy := mongoClient.Ping(ctx, readpref.Primary()) == nil
		cancel()

		healthMu.Lock()
		currentHealth = HealthStatus{
			Mongo:     mongoHealthy,
			Redis:     redisHealth,
			CheckedAt: time.Now(),
		}
		healthMu.Unlock()
	}

	probe()
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for range ticker.C {
			probe()
		}
	}()
}
