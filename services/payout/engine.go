package payout

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"fundihub/database/repository"
	payoutRepo "fundihub/database/repository/payout"
	"fundihub/errs"
	"fundihub/models"
	"fundihub/services/gateway"
	"fundihub/services/notification"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

// Config carries the engine's policy knobs.
type Config struct {
	CommissionRateBps int64
	PayoutDelay       time.Duration
	Currency          string
	GatewayTimeout    time.Duration
}

// Engine owns payout creation, scheduled processing, and retry bookkeeping.
type Engine struct {
	Payouts   repository.PayoutRepository
	Bookings  repository.BookingRepository
	Providers repository.ProviderRepository
	Gateway   gateway.PaymentGateway
	Notifier  notification.Service
	Logger    *zap.Logger
	Cfg       Config

	// nowFn is swapped in tests to control the clock.
	nowFn func() time.Time
}

func (e *Engine) now() time.Time {
	if e.nowFn != nil {
		return e.nowFn()
	}
	return time.Now()
}

// CreatePayout records the payout owed for a completed booking. It is
// idempotent per booking: a second call returns the existing record. The
// payout is scheduled PayoutDelay after service completion, and starts in
// awaiting_payment until the client payment settles.
func (e *Engine) CreatePayout(ctx context.Context, bookingID string) (*models.Payout, error) {
	if existing, err := e.Payouts.FindByBookingID(bookingID); err == nil {
		return existing, nil
	} else if !errs.IsNotFound(err) {
		return nil, err
	}

	booking, err := e.Bookings.GetByID(bookingID)
	if err != nil {
		return nil, err
	}
	if booking.Status != models.BookingStatusCompleted {
		return nil, errs.NewInvalidState("booking", booking.Status, "create a payout for")
	}
	if booking.ProviderID == "" {
		return nil, errs.NewValidation("providerId", "booking has no assigned provider")
	}

	split, err := CalculateCommission(booking.Pricing.TotalAmount, e.Cfg.CommissionRateBps)
	if err != nil {
		return nil, err
	}

	status := models.PayoutStatusAwaitingPayment
	if booking.Payment.Status == models.PaymentStatusCompleted {
		status = models.PayoutStatusPending
	}

	currency := booking.Pricing.Currency
	if currency == "" {
		currency = e.Cfg.Currency
	}

	now := e.now()
	completedAt := booking.UpdatedAt
	p := &models.Payout{
		ID:         uuid.New().String(),
		BookingID:  booking.ID,
		ProviderID: booking.ProviderID,
		ClientID:   booking.ClientID,
		Status:     status,
		Amounts: models.PayoutAmounts{
			GrossAmount:       booking.Pricing.TotalAmount,
			CommissionRateBps: e.Cfg.CommissionRateBps,
			CommissionAmount:  split.CommissionAmount,
			PayoutAmount:      split.PayoutAmount,
			Currency:          currency,
		},
		ServiceCompletedAt: completedAt,
		ScheduledAt:        completedAt.Add(e.Cfg.PayoutDelay),
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := e.Payouts.Create(p); err != nil {
		if errors.Is(err, payoutRepo.ErrDuplicateBooking) {
			// Lost the insert race; the winner's record is authoritative.
			return e.Payouts.FindByBookingID(bookingID)
		}
		return nil, err
	}

	e.Logger.Info("payout created",
		zap.String("payoutId", p.ID),
		zap.String("bookingId", p.BookingID),
		zap.Int64("payoutAmount", p.Amounts.PayoutAmount),
		zap.String("status", p.Status))
	return p, nil
}

// OnPaymentCompleted promotes a payout waiting on the client payment to
// pending so the sweeper can pick it up. No payout yet is not an error; the
// payout is created later at completion with the payment already settled.
func (e *Engine) OnPaymentCompleted(ctx context.Context, bookingID string) error {
	p, err := e.Payouts.FindByBookingID(bookingID)
	if err != nil {
		if errs.IsNotFound(err) {
			return nil
		}
		return err
	}
	if p.Status != models.PayoutStatusAwaitingPayment {
		return nil
	}
	p.Status = models.PayoutStatusPending
	p.UpdatedAt = e.now()
	return e.Payouts.Update(p)
}

// ProcessReadyPayouts runs one sweep over due pending payouts. A single
// payout failing never aborts the sweep; it is marked failed and the sweep
// moves on. Returns processed and failed counts.
func (e *Engine) ProcessReadyPayouts(ctx context.Context) (int, int, error) {
	ready, err := e.Payouts.FindReady(e.now())
	if err != nil {
		return 0, 0, err
	}
	if len(ready) == 0 {
		return 0, 0, nil
	}

	e.Logger.Info("payout sweep started", zap.Int("due", len(ready)))
	processed, failed := 0, 0
	for i := range ready {
		if err := ctx.Err(); err != nil {
			return processed, failed, err
		}
		if err := e.ProcessSingle(ctx, ready[i].ID); err != nil {
			if errs.IsConcurrencyConflict(err) {
				// Claimed by a concurrent sweep; not a failure.
				continue
			}
			e.Logger.Warn("payout attempt failed",
				zap.String("payoutId", ready[i].ID),
				zap.Error(err))
			failed++
			continue
		}
		processed++
	}
	e.Logger.Info("payout sweep finished",
		zap.Int("processed", processed),
		zap.Int("failed", failed))
	return processed, failed, nil
}

// ProcessSingle claims one pending payout and attempts the transfer. The
// claim is atomic, so concurrent sweeps cannot double-pay. The returned error
// reflects the attempt outcome; the payout record always lands in completed
// or failed once claimed.
func (e *Engine) ProcessSingle(ctx context.Context, payoutID string) error {
	now := e.now()
	p, err := e.Payouts.ClaimProcessing(payoutID, now)
	if err != nil {
		return err
	}

	provider, err := e.Providers.GetByID(p.ProviderID)
	if err != nil {
		return e.markFailed(ctx, p, fmt.Errorf("provider lookup failed: %w", err))
	}
	if !provider.Payout.Configured() {
		// Known-unrecoverable without provider action; fail fast, no gateway call.
		return e.markFailed(ctx, p, errs.NewConfiguration("provider has no payout destination configured"))
	}

	req := gateway.TransferRequest{
		Amount:         p.Amounts.PayoutAmount,
		Currency:       p.Amounts.Currency,
		RecipientType:  provider.Payout.Method,
		BankAccountID:  provider.Payout.BankAccountID,
		MobileNumber:   provider.Payout.MobileNumber,
		IdempotencyRef: p.ID + "-" + strconv.FormatInt(now.Unix(), 10),
		Reason:         "Payout for booking " + p.BookingID,
	}

	gwCtx := ctx
	if e.Cfg.GatewayTimeout > 0 {
		var cancel context.CancelFunc
		gwCtx, cancel = context.WithTimeout(ctx, e.Cfg.GatewayTimeout)
		defer cancel()
	}
	result, err := e.Gateway.InitiateTransfer(gwCtx, req)
	if err != nil {
		return e.markFailed(ctx, p, errs.NewGateway("payout", "transfer error: "+err.Error()))
	}
	if !result.Success {
		return e.markFailed(ctx, p, errs.NewGateway("payout", result.ErrorMessage))
	}

	completedAt := e.now()
	p.Status = models.PayoutStatusCompleted
	p.CompletedAt = &completedAt
	p.TransferID = result.TransferID
	p.TransferReference = result.TransferReference
	p.FailureReason = ""
	p.UpdatedAt = completedAt
	if err := e.Payouts.Update(p); err != nil {
		// Funds moved but the record did not; surface loudly for reconciliation.
		e.Logger.Error("payout transferred but status update failed",
			zap.String("payoutId", p.ID),
			zap.String("transferId", result.TransferID),
			zap.Error(err))
		return err
	}

	if err := e.Providers.IncrementEarnings(p.ProviderID, p.Amounts.PayoutAmount); err != nil {
		e.Logger.Warn("failed to increment provider earnings",
			zap.String("providerId", p.ProviderID),
			zap.Error(err))
	}

	e.Logger.Info("payout completed",
		zap.String("payoutId", p.ID),
		zap.String("providerId", p.ProviderID),
		zap.Int64("amount", p.Amounts.PayoutAmount),
		zap.Int("attempt", p.AttemptCount))
	e.Notifier.NotifyProvider(ctx, p.ProviderID, "Payout sent",
		fmt.Sprintf("Your payout of %d %s is on its way.", p.Amounts.PayoutAmount, p.Amounts.Currency),
		map[string]string{"payoutId": p.ID})
	return nil
}

// markFailed parks a claimed payout in failed with the typed cause recorded
// and returned, so a wiring problem keeps its ConfigurationError identity
// distinct from a GatewayError. Failed payouts stay out of future sweeps
// until an operator re-queues them.
func (e *Engine) markFailed(ctx context.Context, p *models.Payout, cause error) error {
	failedAt := e.now()
	p.Status = models.PayoutStatusFailed
	p.FailedAt = &failedAt
	p.FailureReason = cause.Error()
	p.UpdatedAt = failedAt
	if err := e.Payouts.Update(p); err != nil {
		return err
	}

	e.Logger.Warn("payout failed",
		zap.String("payoutId", p.ID),
		zap.String("reason", p.FailureReason),
		zap.Int("attempt", p.AttemptCount))
	e.Notifier.NotifyProvider(ctx, p.ProviderID, "Payout delayed",
		"We could not send your payout. Our team is looking into it.",
		map[string]string{"payoutId": p.ID})
	return cause
}

// Requeue moves a failed payout back to pending for the next sweep.
// Admin only.
func (e *Engine) Requeue(ctx context.Context, actor models.Actor, payoutID string) (*models.Payout, error) {
	if !actor.IsAdmin() {
		return nil, errs.NewPermissionDenied(actor.ID, "requeue a payout")
	}
	p, err := e.Payouts.GetByID(payoutID)
	if err != nil {
		return nil, err
	}
	if p.Status != models.PayoutStatusFailed {
		return nil, errs.NewInvalidState("payout", p.Status, "requeue")
	}

	now := e.now()
	p.Status = models.PayoutStatusPending
	p.ScheduledAt = now
	p.FailedAt = nil
	p.FailureReason = ""
	p.UpdatedAt = now
	if err := e.Payouts.Update(p); err != nil {
		return nil, err
	}
	e.Logger.Info("payout requeued",
		zap.String("payoutId", p.ID),
		zap.String("by", actor.ID))
	return p, nil
}

// SetDestination records where a provider's payouts are sent. Providers may
// only change their own destination; admins may change any. This is the
// recovery path for payouts failed on a missing destination.
func (e *Engine) SetDestination(ctx context.Context, actor models.Actor, providerID string, dest models.PayoutDestination) error {
	if !actor.IsAdmin() && actor.ID != providerID {
		return errs.NewPermissionDenied(actor.ID, "change another provider's payout destination")
	}
	if !dest.Configured() {
		return errs.NewValidation("destination", "a bank account or mobile-money number matching the method is required")
	}
	if _, err := e.Providers.GetByID(providerID); err != nil {
		return err
	}

	dest.LastUpdated = e.now()
	if err := e.Providers.UpdateWithDocument(providerID, bson.M{"payout": dest, "updatedAt": dest.LastUpdated}); err != nil {
		return err
	}
	e.Logger.Info("payout destination updated",
		zap.String("providerId", providerID),
		zap.String("method", dest.Method),
		zap.String("by", actor.ID))
	return nil
}

// GetPayout fetches one payout by ID.
func (e *Engine) GetPayout(ctx context.Context, payoutID string) (*models.Payout, error) {
	return e.Payouts.GetByID(payoutID)
}

// GetHistory pages through a provider's payouts, newest first.
func (e *Engine) GetHistory(ctx context.Context, providerID string, limit, offset int64) ([]models.Payout, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return e.Payouts.ListByProvider(providerID, limit, offset)
}
