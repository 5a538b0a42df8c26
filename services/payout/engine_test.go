package payout

import (
	"context"
	"sync"
	"testing"
	"time"

	"fundihub/database/repository"
	payoutRepo "fundihub/database/repository/payout"
	"fundihub/errs"
	"fundihub/models"
	"fundihub/services/gateway"
	"fundihub/services/notification"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

// fakePayoutRepo is an in-memory PayoutRepository enforcing the unique
// booking constraint the Mongo index provides.
type fakePayoutRepo struct {
	mu      sync.Mutex
	payouts map[string]*models.Payout // by ID
}

func newFakePayoutRepo() *fakePayoutRepo {
	return &fakePayoutRepo{payouts: make(map[string]*models.Payout)}
}

func (r *fakePayoutRepo) GetByID(id string) (*models.Payout, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payouts[id]
	if !ok {
		return nil, errs.NewNotFound("payout", id)
	}
	cp := *p
	return &cp, nil
}

func (r *fakePayoutRepo) FindByBookingID(bookingID string) (*models.Payout, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.payouts {
		if p.BookingID == bookingID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, errs.NewNotFound("payout", bookingID)
}

func (r *fakePayoutRepo) Create(p *models.Payout) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.payouts {
		if existing.BookingID == p.BookingID {
			return payoutRepo.ErrDuplicateBooking
		}
	}
	cp := *p
	r.payouts[p.ID] = &cp
	return nil
}

func (r *fakePayoutRepo) Update(p *models.Payout) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.payouts[p.ID]; !ok {
		return errs.NewNotFound("payout", p.ID)
	}
	cp := *p
	r.payouts[p.ID] = &cp
	return nil
}

func (r *fakePayoutRepo) ClaimProcessing(id string, now time.Time) (*models.Payout, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payouts[id]
	if !ok || p.Status != models.PayoutStatusPending {
		return nil, errs.NewConcurrencyConflict("payout", id)
	}
	p.Status = models.PayoutStatusProcessing
	p.ProcessedAt = &now
	p.LastAttemptAt = &now
	p.AttemptCount++
	p.UpdatedAt = now
	cp := *p
	return &cp, nil
}

func (r *fakePayoutRepo) FindReady(now time.Time) ([]models.Payout, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ready []models.Payout
	for _, p := range r.payouts {
		if p.Status == models.PayoutStatusPending && !p.ScheduledAt.After(now) {
			ready = append(ready, *p)
		}
	}
	return ready, nil
}

func (r *fakePayoutRepo) ListByProvider(providerID string, limit, offset int64) ([]models.Payout, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Payout
	for _, p := range r.payouts {
		if p.ProviderID == providerID {
			out = append(out, *p)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakePayoutRepo) Stats(providerID string) (*models.PayoutStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stats := &models.PayoutStats{ProviderID: providerID}
	for _, p := range r.payouts {
		if providerID != "" && p.ProviderID != providerID {
			continue
		}
		stats.TotalCount++
		switch p.Status {
		case models.PayoutStatusCompleted:
			stats.CompletedCount++
			stats.TotalPaidOut += p.Amounts.PayoutAmount
			stats.TotalFees += p.Amounts.CommissionAmount
		case models.PayoutStatusFailed:
			stats.FailedCount++
		case models.PayoutStatusPending, models.PayoutStatusAwaitingPayment:
			stats.PendingCount++
		}
	}
	return stats, nil
}

// fakeBookingRepo returns canned bookings.
type fakeBookingRepo struct {
	mu       sync.Mutex
	bookings map[string]*models.Booking
}

func newFakeBookingRepo() *fakeBookingRepo {
	return &fakeBookingRepo{bookings: make(map[string]*models.Booking)}
}

func (r *fakeBookingRepo) GetByID(id string) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return nil, errs.NewNotFound("booking", id)
	}
	cp := *b
	return &cp, nil
}

func (r *fakeBookingRepo) Create(b *models.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *b
	r.bookings[b.ID] = &cp
	return nil
}

func (r *fakeBookingRepo) Update(b *models.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.bookings[b.ID]
	if !ok {
		return errs.NewNotFound("booking", b.ID)
	}
	if stored.Version != b.Version {
		return errs.NewConcurrencyConflict("booking", b.ID)
	}
	cp := *b
	cp.Version = b.Version + 1
	r.bookings[b.ID] = &cp
	b.Version = cp.Version
	return nil
}

func (r *fakeBookingRepo) ListByClient(clientID string, limit, offset int64) ([]models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Booking
	for _, b := range r.bookings {
		if b.ClientID == clientID {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (r *fakeBookingRepo) ListByProvider(providerID string, limit, offset int64) ([]models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Booking
	for _, b := range r.bookings {
		if b.ProviderID == providerID {
			out = append(out, *b)
		}
	}
	return out, nil
}

// fakeProviderRepo stores providers and tracks earnings increments.
type fakeProviderRepo struct {
	mu        sync.Mutex
	providers map[string]*models.Provider
}

func newFakeProviderRepo() *fakeProviderRepo {
	return &fakeProviderRepo{providers: make(map[string]*models.Provider)}
}

func (r *fakeProviderRepo) GetByID(id string) (*models.Provider, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.providers[id]
	if !ok {
		return nil, errs.NewNotFound("provider", id)
	}
	cp := *p
	return &cp, nil
}

func (r *fakeProviderRepo) Create(p *models.Provider) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *p
	r.providers[p.ID] = &cp
	return nil
}

func (r *fakeProviderRepo) Update(p *models.Provider) error {
	return r.Create(p)
}

func (r *fakeProviderRepo) Search(criteria repository.ProviderSearchCriteria) ([]models.Provider, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Provider
	for _, p := range r.providers {
		if criteria.ApprovedOnly && !p.Approved {
			continue
		}
		if criteria.Category != "" && !hasString(p.Categories, criteria.Category) {
			continue
		}
		out = append(out, *p)
	}
	return out, nil
}

func hasString(xs []string, want string) bool {
	for _, x := range xs {
		if x == want {
			return true
		}
	}
	return false
}

func (r *fakeProviderRepo) IncrementEarnings(id string, amount int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.providers[id]
	if !ok {
		return errs.NewNotFound("provider", id)
	}
	p.TotalEarned += amount
	return nil
}

func (r *fakeProviderRepo) UpdateWithDocument(id string, updateDoc bson.M) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.providers[id]
	if !ok {
		return errs.NewNotFound("provider", id)
	}
	if dest, ok := updateDoc["payout"].(models.PayoutDestination); ok {
		cp := dest
		p.Payout = &cp
	}
	return nil
}

// spyGateway records transfer calls and returns a scripted result.
type spyGateway struct {
	mu     sync.Mutex
	calls  []gateway.TransferRequest
	result *gateway.TransferResult
	err    error
}

func (g *spyGateway) InitiateTransfer(ctx context.Context, req gateway.TransferRequest) (*gateway.TransferResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, req)
	if g.err != nil {
		return nil, g.err
	}
	return g.result, nil
}

func (g *spyGateway) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.calls)
}

func testEngine(t *testing.T, gw gateway.PaymentGateway) (*Engine, *fakePayoutRepo, *fakeBookingRepo, *fakeProviderRepo) {
	t.Helper()
	payouts := newFakePayoutRepo()
	bookings := newFakeBookingRepo()
	providers := newFakeProviderRepo()
	e := &Engine{
		Payouts:   payouts,
		Bookings:  bookings,
		Providers: providers,
		Gateway:   gw,
		Notifier:  &notification.NoopNotifier{},
		Logger:    zap.NewNop(),
		Cfg: Config{
			CommissionRateBps: 3000,
			PayoutDelay:       time.Hour,
			Currency:          "KES",
		},
	}
	return e, payouts, bookings, providers
}

func paidCompletedBooking(id string) *models.Booking {
	now := time.Now()
	return &models.Booking{
		ID:         id,
		ClientID:   "client-1",
		ProviderID: "provider-1",
		Category:   "plumbing",
		Status:     models.BookingStatusCompleted,
		Pricing:    models.Pricing{TotalAmount: 300000, Currency: "KES"},
		Payment: models.PaymentSummary{
			Timing: models.PaymentTimingPayNow,
			Status: models.PaymentStatusCompleted,
		},
		CreatedAt: now.Add(-2 * time.Hour),
		UpdatedAt: now.Add(-time.Hour),
	}
}

func payableProvider(id string) *models.Provider {
	return &models.Provider{
		ID:       id,
		Name:     "Juma",
		Approved: true,
		Payout: &models.PayoutDestination{
			Method:       models.PayoutMethodMobileMoney,
			MobileNumber: "254700000001",
		},
	}
}

func TestCreatePayoutSplitsCommission(t *testing.T) {
	e, _, bookings, _ := testEngine(t, &spyGateway{})
	bookings.Create(paidCompletedBooking("b1"))

	p, err := e.CreatePayout(context.Background(), "b1")
	if err != nil {
		t.Fatalf("CreatePayout: %v", err)
	}
	if p.Amounts.CommissionAmount != 90000 {
		t.Errorf("commission = %d, want 90000", p.Amounts.CommissionAmount)
	}
	if p.Amounts.PayoutAmount != 210000 {
		t.Errorf("payout = %d, want 210000", p.Amounts.PayoutAmount)
	}
	if p.Status != models.PayoutStatusPending {
		t.Errorf("status = %q, want pending (payment already settled)", p.Status)
	}
	wantScheduled := bookings.bookings["b1"].UpdatedAt.Add(time.Hour)
	if !p.ScheduledAt.Equal(wantScheduled) {
		t.Errorf("scheduledAt = %v, want %v", p.ScheduledAt, wantScheduled)
	}
}

func TestCreatePayoutIsIdempotentPerBooking(t *testing.T) {
	e, payouts, bookings, _ := testEngine(t, &spyGateway{})
	bookings.Create(paidCompletedBooking("b1"))

	first, err := e.CreatePayout(context.Background(), "b1")
	if err != nil {
		t.Fatalf("first CreatePayout: %v", err)
	}
	second, err := e.CreatePayout(context.Background(), "b1")
	if err != nil {
		t.Fatalf("second CreatePayout: %v", err)
	}
	if first.ID != second.ID {
		t.Errorf("second call created a new payout: %s != %s", first.ID, second.ID)
	}
	if len(payouts.payouts) != 1 {
		t.Errorf("payout count = %d, want 1", len(payouts.payouts))
	}
}

func TestCreatePayoutRejectsIncompleteBooking(t *testing.T) {
	e, _, bookings, _ := testEngine(t, &spyGateway{})
	b := paidCompletedBooking("b1")
	b.Status = models.BookingStatusInProgress
	bookings.Create(b)

	_, err := e.CreatePayout(context.Background(), "b1")
	if !errs.IsInvalidState(err) {
		t.Errorf("expected InvalidStateError, got %v", err)
	}
}

func TestCreatePayoutAwaitsUnsettledPayment(t *testing.T) {
	e, _, bookings, _ := testEngine(t, &spyGateway{})
	b := paidCompletedBooking("b1")
	b.Payment.Status = models.PaymentStatusPending
	b.Payment.Timing = models.PaymentTimingPayAfter
	bookings.Create(b)

	p, err := e.CreatePayout(context.Background(), "b1")
	if err != nil {
		t.Fatalf("CreatePayout: %v", err)
	}
	if p.Status != models.PayoutStatusAwaitingPayment {
		t.Errorf("status = %q, want awaiting_payment", p.Status)
	}

	if err := e.OnPaymentCompleted(context.Background(), "b1"); err != nil {
		t.Fatalf("OnPaymentCompleted: %v", err)
	}
	got, _ := e.Payouts.FindByBookingID("b1")
	if got.Status != models.PayoutStatusPending {
		t.Errorf("status after payment = %q, want pending", got.Status)
	}
}

func TestProcessSingleCompletesTransfer(t *testing.T) {
	gw := &spyGateway{result: &gateway.TransferResult{
		Success:           true,
		TransferID:        "tr_123",
		TransferReference: "ref_123",
	}}
	e, _, bookings, providers := testEngine(t, gw)
	bookings.Create(paidCompletedBooking("b1"))
	providers.Create(payableProvider("provider-1"))

	p, err := e.CreatePayout(context.Background(), "b1")
	if err != nil {
		t.Fatalf("CreatePayout: %v", err)
	}
	if err := e.ProcessSingle(context.Background(), p.ID); err != nil {
		t.Fatalf("ProcessSingle: %v", err)
	}

	got, _ := e.Payouts.GetByID(p.ID)
	if got.Status != models.PayoutStatusCompleted {
		t.Errorf("status = %q, want completed", got.Status)
	}
	if got.TransferID != "tr_123" {
		t.Errorf("transferId = %q, want tr_123", got.TransferID)
	}
	if got.AttemptCount != 1 {
		t.Errorf("attemptCount = %d, want 1", got.AttemptCount)
	}

	prov, _ := providers.GetByID("provider-1")
	if prov.TotalEarned != 210000 {
		t.Errorf("totalEarned = %d, want 210000", prov.TotalEarned)
	}

	if gw.calls[0].Amount != 210000 {
		t.Errorf("transfer amount = %d, want the net payout 210000", gw.calls[0].Amount)
	}
	if gw.calls[0].IdempotencyRef == "" {
		t.Error("transfer sent without an idempotency reference")
	}
}

func TestFailedPayoutStaysOutOfSweepsUntilRequeued(t *testing.T) {
	gw := &spyGateway{result: &gateway.TransferResult{
		Success:      false,
		ErrorMessage: "insufficient gateway balance",
	}}
	e, _, bookings, providers := testEngine(t, gw)
	bookings.Create(paidCompletedBooking("b1"))
	providers.Create(payableProvider("provider-1"))
	e.nowFn = func() time.Time { return time.Now().Add(2 * time.Hour) }

	p, err := e.CreatePayout(context.Background(), "b1")
	if err != nil {
		t.Fatalf("CreatePayout: %v", err)
	}

	processed, failed, err := e.ProcessReadyPayouts(context.Background())
	if err != nil {
		t.Fatalf("ProcessReadyPayouts: %v", err)
	}
	if processed != 0 || failed != 1 {
		t.Errorf("processed=%d failed=%d, want 0/1", processed, failed)
	}

	got, _ := e.Payouts.GetByID(p.ID)
	if got.Status != models.PayoutStatusFailed {
		t.Fatalf("status = %q, want failed", got.Status)
	}
	if got.AttemptCount != 1 {
		t.Errorf("attemptCount = %d, want 1", got.AttemptCount)
	}
	if got.FailureReason != "insufficient gateway balance" {
		t.Errorf("failureReason = %q", got.FailureReason)
	}

	// A second sweep must not retry the failed payout.
	processed, failed, _ = e.ProcessReadyPayouts(context.Background())
	if processed != 0 || failed != 0 {
		t.Errorf("second sweep touched the failed payout: processed=%d failed=%d", processed, failed)
	}
	if gw.callCount() != 1 {
		t.Errorf("gateway called %d times, want 1", gw.callCount())
	}

	// Requeue and sweep again with a working gateway.
	gw.result = &gateway.TransferResult{Success: true, TransferID: "tr_ok"}
	if _, err := e.Requeue(context.Background(), models.Actor{ID: "ops", Role: "admin"}, p.ID); err != nil {
		t.Fatalf("Requeue: %v", err)
	}
	processed, failed, _ = e.ProcessReadyPayouts(context.Background())
	if processed != 1 || failed != 0 {
		t.Errorf("post-requeue sweep: processed=%d failed=%d, want 1/0", processed, failed)
	}
	got, _ = e.Payouts.GetByID(p.ID)
	if got.Status != models.PayoutStatusCompleted {
		t.Errorf("status = %q, want completed", got.Status)
	}
	if got.AttemptCount != 2 {
		t.Errorf("attemptCount = %d, want 2", got.AttemptCount)
	}
}

func TestSweepSkipsFuturePayouts(t *testing.T) {
	e, _, bookings, providers := testEngine(t, &spyGateway{result: &gateway.TransferResult{Success: true}})
	bookings.Create(paidCompletedBooking("b1"))
	providers.Create(payableProvider("provider-1"))

	// Clock pinned before the payout's scheduled time.
	base := time.Now()
	e.nowFn = func() time.Time { return base.Add(-30 * time.Minute) }
	if _, err := e.CreatePayout(context.Background(), "b1"); err != nil {
		t.Fatalf("CreatePayout: %v", err)
	}

	processed, failed, err := e.ProcessReadyPayouts(context.Background())
	if err != nil {
		t.Fatalf("ProcessReadyPayouts: %v", err)
	}
	if processed != 0 || failed != 0 {
		t.Errorf("sweep processed a future payout: processed=%d failed=%d", processed, failed)
	}
}

func TestMissingDestinationFailsWithoutGatewayCall(t *testing.T) {
	gw := &spyGateway{result: &gateway.TransferResult{Success: true}}
	e, _, bookings, providers := testEngine(t, gw)
	bookings.Create(paidCompletedBooking("b1"))
	providers.Create(&models.Provider{ID: "provider-1", Name: "Juma", Approved: true})

	p, err := e.CreatePayout(context.Background(), "b1")
	if err != nil {
		t.Fatalf("CreatePayout: %v", err)
	}
	err = e.ProcessSingle(context.Background(), p.ID)
	if err == nil {
		t.Fatal("expected error for missing payout destination")
	}
	if !errs.IsConfiguration(err) {
		t.Errorf("expected ConfigurationError for missing destination, got %v", err)
	}

	got, _ := e.Payouts.GetByID(p.ID)
	if got.Status != models.PayoutStatusFailed {
		t.Errorf("status = %q, want failed", got.Status)
	}
	if got.FailureReason == "" {
		t.Error("failure reason not recorded")
	}
	if gw.callCount() != 0 {
		t.Errorf("gateway called %d times for unconfigured destination, want 0", gw.callCount())
	}
}

func TestSetDestinationEnablesFailedPayoutRecovery(t *testing.T) {
	gw := &spyGateway{result: &gateway.TransferResult{Success: true, TransferID: "tr_9"}}
	e, _, bookings, providers := testEngine(t, gw)
	bookings.Create(paidCompletedBooking("b1"))
	providers.Create(&models.Provider{ID: "provider-1", Name: "Juma", Approved: true})

	p, err := e.CreatePayout(context.Background(), "b1")
	if err != nil {
		t.Fatalf("CreatePayout: %v", err)
	}
	if err := e.ProcessSingle(context.Background(), p.ID); !errs.IsConfiguration(err) {
		t.Fatalf("expected ConfigurationError before destination is set, got %v", err)
	}

	owner := models.Actor{ID: "provider-1", Role: "provider"}
	err = e.SetDestination(context.Background(), owner, "provider-1", models.PayoutDestination{
		Method:       models.PayoutMethodMobileMoney,
		MobileNumber: "254700000001",
	})
	if err != nil {
		t.Fatalf("SetDestination: %v", err)
	}

	if _, err := e.Requeue(context.Background(), models.Actor{ID: "ops", Role: "admin"}, p.ID); err != nil {
		t.Fatalf("Requeue: %v", err)
	}
	if err := e.ProcessSingle(context.Background(), p.ID); err != nil {
		t.Fatalf("ProcessSingle after destination configured: %v", err)
	}

	got, _ := e.Payouts.GetByID(p.ID)
	if got.Status != models.PayoutStatusCompleted {
		t.Errorf("status = %q, want completed", got.Status)
	}
	if gw.callCount() != 1 {
		t.Errorf("gateway calls = %d, want 1", gw.callCount())
	}
}

func TestSetDestinationGuards(t *testing.T) {
	e, _, _, providers := testEngine(t, &spyGateway{})
	providers.Create(&models.Provider{ID: "provider-1", Name: "Juma", Approved: true})

	valid := models.PayoutDestination{
		Method:       models.PayoutMethodMobileMoney,
		MobileNumber: "254700000001",
	}

	other := models.Actor{ID: "provider-2", Role: "provider"}
	if err := e.SetDestination(context.Background(), other, "provider-1", valid); err == nil {
		t.Error("expected PermissionDenied for another provider's destination")
	}

	owner := models.Actor{ID: "provider-1", Role: "provider"}
	incomplete := models.PayoutDestination{Method: models.PayoutMethodBank}
	if err := e.SetDestination(context.Background(), owner, "provider-1", incomplete); err == nil {
		t.Error("expected ValidationError for a method without its account field")
	}

	admin := models.Actor{ID: "ops", Role: "admin"}
	if err := e.SetDestination(context.Background(), admin, "provider-9", valid); !errs.IsNotFound(err) {
		t.Errorf("expected NotFoundError for unknown provider, got %v", err)
	}
}

func TestRequeueRequiresAdmin(t *testing.T) {
	e, payouts, _, _ := testEngine(t, &spyGateway{})
	payouts.Create(&models.Payout{ID: "p1", BookingID: "b1", Status: models.PayoutStatusFailed})

	if _, err := e.Requeue(context.Background(), models.Actor{ID: "u1", Role: "provider"}, "p1"); err == nil {
		t.Error("expected PermissionDenied for non-admin requeue")
	}
	if _, err := e.Requeue(context.Background(), models.Actor{ID: "ops", Role: "admin"}, "p1"); err != nil {
		t.Errorf("admin requeue failed: %v", err)
	}
}

func TestConcurrentClaimsProcessOnce(t *testing.T) {
	gw := &spyGateway{result: &gateway.TransferResult{Success: true, TransferID: "tr_1"}}
	e, _, bookings, providers := testEngine(t, gw)
	bookings.Create(paidCompletedBooking("b1"))
	providers.Create(payableProvider("provider-1"))
	e.nowFn = func() time.Time { return time.Now().Add(2 * time.Hour) }

	p, err := e.CreatePayout(context.Background(), "b1")
	if err != nil {
		t.Fatalf("CreatePayout: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// Conflict errors are expected for all but one claimant.
			_ = e.ProcessSingle(context.Background(), p.ID)
		}()
	}
	wg.Wait()

	if gw.callCount() != 1 {
		t.Errorf("gateway called %d times under concurrent claims, want 1", gw.callCount())
	}
	got, _ := e.Payouts.GetByID(p.ID)
	if got.AttemptCount != 1 {
		t.Errorf("attemptCount = %d, want 1", got.AttemptCount)
	}
}
