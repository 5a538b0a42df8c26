package payout

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const sweepLockKey = "payout:sweep:lock"

// Sweeper periodically runs the engine's payout sweep. It never runs two
// sweeps at once: an in-process flag skips overlapping ticks, and an optional
// Redis lock keeps multiple instances from sweeping simultaneously.
type Sweeper struct {
	Engine   *Engine
	Interval time.Duration
	Lock     *redis.Client // nil disables the cross-instance lock
	Logger   *zap.Logger

	running int32
	stopCh  chan struct{}
	wg      sync.WaitGroup
	stopped sync.Once
}

// Start launches the sweep loop. The first sweep runs after one interval.
func (s *Sweeper) Start() {
	s.stopCh = make(chan struct{})
	s.wg.Add(1)
	go s.loop()
	s.Logger.Info("payout sweeper started", zap.Duration("interval", s.Interval))
}

// Stop halts the loop and waits for an in-flight sweep to finish.
func (s *Sweeper) Stop() {
	s.stopped.Do(func() {
		close(s.stopCh)
	})
	s.wg.Wait()
	s.Logger.Info("payout sweeper stopped")
}

func (s *Sweeper) loop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.RunOnce(context.Background())
		}
	}
}

// RunOnce executes a single guarded sweep. A sweep already in flight, or one
// held by another instance via the Redis lock, is skipped and logged.
func (s *Sweeper) RunOnce(ctx context.Context) {
	if !atomic.CompareAndSwapInt32(&s.running, 0, 1) {
		s.Logger.Warn("payout sweep skipped: previous sweep still running")
		return
	}
	defer atomic.StoreInt32(&s.running, 0)

	if s.Lock != nil {
		ok, err := s.Lock.SetNX(ctx, sweepLockKey, "1", s.Interval).Result()
		if err != nil {
			s.Logger.Warn("payout sweep lock check failed, proceeding", zap.Error(err))
		} else if !ok {
			s.Logger.Debug("payout sweep skipped: another instance holds the lock")
			return
		} else {
			defer s.Lock.Del(ctx, sweepLockKey)
		}
	}

	if _, _, err := s.Engine.ProcessReadyPayouts(ctx); err != nil {
		s.Logger.Error("payout sweep error", zap.Error(err))
	}
}
