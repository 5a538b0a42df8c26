package escrow

import (
	"context"
	"fmt"
	"time"

	"fundihub/database/repository"
	"fundihub/errs"
	"fundihub/models"
	commission "fundihub/services/payout"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ReleaseContext records who released the funds and why.
type ReleaseContext struct {
	By   string
	Note string
}

// DisputeInput opens a dispute against an escrow.
type DisputeInput struct {
	Reason    string
	Initiator string
}

// Resolution closes a dispute with an explicit admin decision.
type Resolution struct {
	Decision   string // models.ResolutionRelease or models.ResolutionRefund
	ResolvedBy string
	Notes      string
}

// Ledger owns the escrow payment state machine: funds are held from payment
// until release, refund, or dispute resolution. Every mutating operation is
// safe to retry; terminal states are idempotent.
type Ledger interface {
	CreateEscrow(ctx context.Context, booking *models.Booking) (*models.EscrowPayment, error)
	FindByBooking(ctx context.Context, bookingID string) (*models.EscrowPayment, error)
	Release(ctx context.Context, escrowID string, rc ReleaseContext) (*models.EscrowPayment, error)
	Refund(ctx context.Context, escrowID, reason, by string) (*models.EscrowPayment, error)
	StartDispute(ctx context.Context, escrowID string, in DisputeInput) (*models.EscrowPayment, error)
	ResolveDispute(ctx context.Context, escrowID string, in Resolution) (*models.EscrowPayment, error)
	AddEvidence(ctx context.Context, escrowID string, item models.EvidenceItem) (*models.EscrowPayment, error)
	Archive(ctx context.Context, actor models.Actor, escrowID string) error
}

// Config carries the ledger's policy knobs.
type Config struct {
	CommissionRateBps int64
}

// DefaultLedger is the production implementation.
type DefaultLedger struct {
	Repo   repository.EscrowRepository
	Cfg    Config
	Logger *zap.Logger
}

// CreateEscrow records the logical hold for a paid booking. Creation is
// idempotent per booking: an existing live escrow is returned unchanged.
func (l *DefaultLedger) CreateEscrow(ctx context.Context, booking *models.Booking) (*models.EscrowPayment, error) {
	if booking.Pricing.TotalAmount <= 0 {
		return nil, errs.NewValidation("totalAmount", "must be positive")
	}

	existing, err := l.Repo.FindByBookingID(booking.ID)
	if err == nil {
		return existing, nil
	}
	if !errs.IsNotFound(err) {
		return nil, err
	}

	esc := &models.EscrowPayment{
		ID:          uuid.New().String(),
		BookingID:   booking.ID,
		ClientID:    booking.ClientID,
		ProviderID:  booking.ProviderID,
		GrossAmount: booking.Pricing.TotalAmount,
		Currency:    booking.Pricing.Currency,
		Status:      models.EscrowStatusPending,
		CreatedAt:   time.Now(),
	}
	if err := l.Repo.Create(esc); err != nil {
		return nil, fmt.Errorf("failed to open escrow for booking %s: %w", booking.ID, err)
	}

	l.Logger.Info("escrow opened",
		zap.String("escrowId", esc.ID),
		zap.String("bookingId", booking.ID),
		zap.Int64("grossAmount", esc.GrossAmount))
	return esc, nil
}

func (l *DefaultLedger) FindByBooking(ctx context.Context, bookingID string) (*models.EscrowPayment, error) {
	return l.Repo.FindByBookingID(bookingID)
}

// withRetry runs a guarded escrow mutation under optimistic concurrency.
// A racing update is re-run once with fresh state before surfacing, which
// lands a retried terminal transition on its idempotent path instead of
// returning the conflict to the caller.
func (l *DefaultLedger) withRetry(escrowID string, op func(*models.EscrowPayment) (*models.EscrowPayment, error)) (*models.EscrowPayment, error) {
	for attempt := 0; attempt < 2; attempt++ {
		esc, err := l.Repo.GetByID(escrowID)
		if err != nil {
			return nil, err
		}
		out, err := op(esc)
		if err == nil {
			return out, nil
		}
		if !errs.IsConcurrencyConflict(err) || attempt == 1 {
			return nil, err
		}
	}
	return nil, errs.NewConcurrencyConflict("escrow", escrowID)
}

// Release moves a pending escrow to released, recording the platform-fee /
// provider-amount split. Releasing an already-released escrow is a no-op
// success; a refunded escrow cannot be released.
func (l *DefaultLedger) Release(ctx context.Context, escrowID string, rc ReleaseContext) (*models.EscrowPayment, error) {
	return l.withRetry(escrowID, func(esc *models.EscrowPayment) (*models.EscrowPayment, error) {
		return l.release(esc, rc, false)
	})
}

func (l *DefaultLedger) release(esc *models.EscrowPayment, rc ReleaseContext, fromDispute bool) (*models.EscrowPayment, error) {
	switch esc.Status {
	case models.EscrowStatusReleased:
		// Idempotent retry: funds already moved, nothing to alter.
		return esc, nil
	case models.EscrowStatusRefunded:
		return nil, errs.NewInvalidState("escrow", esc.Status, "release")
	case models.EscrowStatusDisputed:
		if !fromDispute {
			return nil, errs.NewInvalidState("escrow", esc.Status, "release")
		}
	case models.EscrowStatusPending:
		// allowed
	default:
		return nil, errs.NewInvalidState("escrow", esc.Status, "release")
	}

	split, err := commission.CalculateCommission(esc.GrossAmount, l.Cfg.CommissionRateBps)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	esc.Status = models.EscrowStatusReleased
	esc.PlatformFee = split.CommissionAmount
	esc.ProviderAmount = split.PayoutAmount
	esc.ReleasedAt = &now

	if err := l.Repo.Update(esc); err != nil {
		return nil, err
	}

	l.Logger.Info("escrow released",
		zap.String("escrowId", esc.ID),
		zap.String("bookingId", esc.BookingID),
		zap.Int64("providerAmount", esc.ProviderAmount),
		zap.String("releasedBy", rc.By))
	return esc, nil
}

// Refund moves a pending escrow to refunded. Mutually exclusive with release:
// the first terminal transition wins and the loser fails cleanly.
func (l *DefaultLedger) Refund(ctx context.Context, escrowID, reason, by string) (*models.EscrowPayment, error) {
	return l.withRetry(escrowID, func(esc *models.EscrowPayment) (*models.EscrowPayment, error) {
		return l.refund(esc, reason, by, false)
	})
}

func (l *DefaultLedger) refund(esc *models.EscrowPayment, reason, by string, fromDispute bool) (*models.EscrowPayment, error) {
	switch esc.Status {
	case models.EscrowStatusRefunded:
		return esc, nil
	case models.EscrowStatusReleased:
		return nil, errs.NewInvalidState("escrow", esc.Status, "refund")
	case models.EscrowStatusDisputed:
		if !fromDispute {
			return nil, errs.NewInvalidState("escrow", esc.Status, "refund")
		}
	case models.EscrowStatusPending:
		// allowed
	default:
		return nil, errs.NewInvalidState("escrow", esc.Status, "refund")
	}

	now := time.Now()
	esc.Status = models.EscrowStatusRefunded
	esc.RefundReason = reason
	esc.RefundedAt = &now

	if err := l.Repo.Update(esc); err != nil {
		return nil, err
	}

	l.Logger.Info("escrow refunded",
		zap.String("escrowId", esc.ID),
		zap.String("bookingId", esc.BookingID),
		zap.String("reason", reason),
		zap.String("refundedBy", by))
	return esc, nil
}

// StartDispute freezes a pending escrow. Disputes cannot claw back released
// funds: a released escrow rejects the dispute outright.
func (l *DefaultLedger) StartDispute(ctx context.Context, escrowID string, in DisputeInput) (*models.EscrowPayment, error) {
	if in.Reason == "" {
		return nil, errs.NewValidation("reason", "dispute reason is required")
	}
	return l.withRetry(escrowID, func(esc *models.EscrowPayment) (*models.EscrowPayment, error) {
		if esc.Status != models.EscrowStatusPending {
			return nil, errs.NewInvalidState("escrow", esc.Status, "dispute")
		}

		now := time.Now()
		esc.Status = models.EscrowStatusDisputed
		esc.DisputedAt = &now
		esc.Dispute = &models.EscrowDispute{
			Reason:    in.Reason,
			Initiator: in.Initiator,
			OpenedAt:  now,
		}

		if err := l.Repo.Update(esc); err != nil {
			return nil, err
		}

		l.Logger.Info("escrow disputed",
			zap.String("escrowId", esc.ID),
			zap.String("initiator", in.Initiator))
		return esc, nil
	})
}

// ResolveDispute closes a disputed escrow with an explicit decision,
// delegating to release or refund.
func (l *DefaultLedger) ResolveDispute(ctx context.Context, escrowID string, in Resolution) (*models.EscrowPayment, error) {
	if in.Decision != models.ResolutionRelease && in.Decision != models.ResolutionRefund {
		return nil, errs.NewValidation("decision", "must be release or refund")
	}
	return l.withRetry(escrowID, func(esc *models.EscrowPayment) (*models.EscrowPayment, error) {
		if esc.Status != models.EscrowStatusDisputed {
			return nil, errs.NewInvalidState("escrow", esc.Status, "resolve")
		}

		now := time.Now()
		esc.Dispute.ResolvedBy = in.ResolvedBy
		esc.Dispute.Resolution = in.Decision
		esc.Dispute.Notes = in.Notes
		esc.Dispute.ResolvedAt = &now

		if in.Decision == models.ResolutionRelease {
			return l.release(esc, ReleaseContext{By: in.ResolvedBy, Note: in.Notes}, true)
		}
		return l.refund(esc, in.Notes, in.ResolvedBy, true)
	})
}

// AddEvidence attaches evidence to a disputed escrow.
// Archive soft-deletes a settled escrow so it drops out of live lookups
// while the record stays on disk for audit. Only terminal escrows can be
// archived; funds still held or frozen must stay visible.
func (l *DefaultLedger) Archive(ctx context.Context, actor models.Actor, escrowID string) error {
	if !actor.IsAdmin() {
		return errs.NewPermissionDenied(actor.ID, "archive an escrow")
	}
	esc, err := l.Repo.GetByID(escrowID)
	if err != nil {
		return err
	}
	if !esc.Terminal() {
		return errs.NewInvalidState("escrow", esc.Status, "archive")
	}
	if err := l.Repo.SoftDelete(escrowID); err != nil {
		return err
	}
	l.Logger.Info("escrow archived",
		zap.String("escrowId", escrowID),
		zap.String("by", actor.ID))
	return nil
}

func (l *DefaultLedger) AddEvidence(ctx context.Context, escrowID string, item models.EvidenceItem) (*models.EscrowPayment, error) {
	return l.withRetry(escrowID, func(esc *models.EscrowPayment) (*models.EscrowPayment, error) {
		if esc.Status != models.EscrowStatusDisputed {
			return nil, errs.NewInvalidState("escrow", esc.Status, "add evidence to")
		}

		item.SubmittedAt = time.Now()
		esc.Evidence = append(esc.Evidence, item)
		if err := l.Repo.Update(esc); err != nil {
			return nil, err
		}
		return esc, nil
	})
}
