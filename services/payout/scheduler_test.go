package payout

import (
	"context"
	"sync"
	"testing"
	"time"

	"fundihub/models"
	"fundihub/services/gateway"

	"go.uber.org/zap"
)

// blockingGateway parks transfer calls until released.
type blockingGateway struct {
	entered chan struct{}
	release chan struct{}
	calls   int
	mu      sync.Mutex
}

func (g *blockingGateway) InitiateTransfer(ctx context.Context, req gateway.TransferRequest) (*gateway.TransferResult, error) {
	g.mu.Lock()
	g.calls++
	g.mu.Unlock()
	g.entered <- struct{}{}
	<-g.release
	return &gateway.TransferResult{Success: true, TransferID: "tr_slow"}, nil
}

func TestSweeperSkipsOverlappingRuns(t *testing.T) {
	gw := &blockingGateway{
		entered: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	e, _, bookings, providers := testEngine(t, gw)
	bookings.Create(paidCompletedBooking("b1"))
	providers.Create(payableProvider("provider-1"))
	e.nowFn = func() time.Time { return time.Now().Add(2 * time.Hour) }
	if _, err := e.CreatePayout(context.Background(), "b1"); err != nil {
		t.Fatalf("CreatePayout: %v", err)
	}

	s := &Sweeper{
		Engine:   e,
		Interval: time.Minute,
		Logger:   zap.NewNop(),
	}

	done := make(chan struct{})
	go func() {
		s.RunOnce(context.Background())
		close(done)
	}()
	<-gw.entered // first sweep is inside the gateway call

	// An overlapping run must return immediately without sweeping.
	s.RunOnce(context.Background())

	close(gw.release)
	<-done

	gw.mu.Lock()
	calls := gw.calls
	gw.mu.Unlock()
	if calls != 1 {
		t.Errorf("gateway called %d times, want 1 (overlapping sweep must be skipped)", calls)
	}

	got, _ := e.Payouts.FindByBookingID("b1")
	if got.Status != models.PayoutStatusCompleted {
		t.Errorf("payout status = %q, want completed", got.Status)
	}
}

func TestSweeperStartStop(t *testing.T) {
	e, _, _, _ := testEngine(t, &spyGateway{})
	s := &Sweeper{
		Engine:   e,
		Interval: 10 * time.Millisecond,
		Logger:   zap.NewNop(),
	}
	s.Start()
	time.Sleep(35 * time.Millisecond)
	s.Stop()
	// Stop is idempotent via sync.Once.
	s.Stop()
}
