package booking

import (
	"context"
	"time"

	"fundihub/database/repository"
	"fundihub/errs"
	"fundihub/models"
	"fundihub/services/escrow"
	"fundihub/services/notification"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PayoutCreator is the slice of the payout engine the booking lifecycle
// needs: idempotent payout creation and payment promotion.
type PayoutCreator interface {
	CreatePayout(ctx context.Context, bookingID string) (*models.Payout, error)
	OnPaymentCompleted(ctx context.Context, bookingID string) error
}

// CreateBookingInput is the booking-creation request.
type CreateBookingInput struct {
	ClientID       string
	ProviderID     string // optional: assignment may be deferred
	ServiceID      string
	Category       string
	Area           string
	Address        string
	ScheduledStart time.Time
	ScheduledEnd   time.Time
	BaseAmount     int64
	TotalAmount    int64
	Currency       string
	PaymentMethod  string
	PaymentTiming  string
}

// BookingService owns the booking state machine.
type BookingService interface {
	CreateBooking(ctx context.Context, actor models.Actor, in CreateBookingInput) (*models.Booking, error)
	AssignProvider(ctx context.Context, actor models.Actor, bookingID, providerID string) (*models.Booking, error)
	ConfirmBooking(ctx context.Context, actor models.Actor, bookingID string) (*models.Booking, error)
	StartBooking(ctx context.Context, actor models.Actor, bookingID string) (*models.Booking, error)
	CompleteBooking(ctx context.Context, actor models.Actor, bookingID string, releaseFunds bool) (*models.Booking, error)
	CancelBooking(ctx context.Context, actor models.Actor, bookingID, reason string) (*models.Booking, error)
	DisputeBooking(ctx context.Context, actor models.Actor, bookingID, reason string) (*models.Booking, error)
	RecordPaymentCompleted(ctx context.Context, actor models.Actor, bookingID string) (*models.Booking, error)
	GetBooking(ctx context.Context, bookingID string) (*models.Booking, error)
	ListClientBookings(ctx context.Context, clientID string, limit, offset int64) ([]models.Booking, error)
	ListProviderBookings(ctx context.Context, providerID string, limit, offset int64) ([]models.Booking, error)
}

// DefaultBookingService is the production implementation.
type DefaultBookingService struct {
	Bookings     repository.BookingRepository
	Escrow       escrow.Ledger
	Payouts      PayoutCreator
	Notifier     notification.Service
	Logger       *zap.Logger
	RefundableBy map[string]bool // statuses eligible for refund on cancel
}

func (s *DefaultBookingService) CreateBooking(ctx context.Context, actor models.Actor, in CreateBookingInput) (*models.Booking, error) {
	if actor.Role != "client" && !actor.IsAdmin() {
		return nil, errs.NewPermissionDenied(actor.ID, "create a booking")
	}
	if in.ClientID == "" {
		return nil, errs.NewValidation("clientId", "is required")
	}
	if in.Category == "" {
		return nil, errs.NewValidation("category", "is required")
	}
	if in.TotalAmount <= 0 {
		return nil, errs.NewValidation("totalAmount", "must be positive")
	}
	if !in.ScheduledEnd.After(in.ScheduledStart) {
		return nil, errs.NewValidation("scheduledEnd", "must be after scheduledStart")
	}
	if in.PaymentTiming != models.PaymentTimingPayNow && in.PaymentTiming != models.PaymentTimingPayAfter {
		return nil, errs.NewValidation("paymentTiming", "must be pay_now or pay_after")
	}

	now := time.Now()
	b := &models.Booking{
		ID:             uuid.New().String(),
		ClientID:       in.ClientID,
		ProviderID:     in.ProviderID,
		ServiceID:      in.ServiceID,
		Category:       in.Category,
		Area:           in.Area,
		Address:        in.Address,
		ScheduledStart: in.ScheduledStart,
		ScheduledEnd:   in.ScheduledEnd,
		Pricing: models.Pricing{
			BaseAmount:  in.BaseAmount,
			TotalAmount: in.TotalAmount,
			Currency:    in.Currency,
		},
		Payment: models.PaymentSummary{
			Method: in.PaymentMethod,
			Timing: in.PaymentTiming,
			Status: models.PaymentStatusPending,
		},
		Status:    models.BookingStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	b.Timeline = append(b.Timeline, models.TimelineEntry{
		Status:    models.BookingStatusPending,
		Timestamp: now,
		ActorID:   actor.ID,
		ActorRole: actor.Role,
		Note:      "booking created",
	})

	if err := s.Bookings.Create(b); err != nil {
		return nil, err
	}

	s.Logger.Info("booking created",
		zap.String("bookingId", b.ID),
		zap.String("clientId", b.ClientID),
		zap.String("category", b.Category))
	if b.ProviderID != "" {
		s.Notifier.NotifyProvider(ctx, b.ProviderID, "New booking request",
			"You have a new "+b.Category+" booking request.", map[string]string{"bookingId": b.ID})
	}
	return b, nil
}

// applyTransition runs a guarded mutation under optimistic concurrency.
// A racing update is retried once with fresh state before surfacing.
func (s *DefaultBookingService) applyTransition(bookingID string, mutate func(*models.Booking) error) (*models.Booking, error) {
	for attempt := 0; attempt < 2; attempt++ {
		b, err := s.Bookings.GetByID(bookingID)
		if err != nil {
			return nil, err
		}
		if err := mutate(b); err != nil {
			return nil, err
		}
		err = s.Bookings.Update(b)
		if err == nil {
			return b, nil
		}
		if !errs.IsConcurrencyConflict(err) || attempt == 1 {
			return nil, err
		}
	}
	return nil, errs.NewConcurrencyConflict("booking", bookingID)
}

func appendTimeline(b *models.Booking, actor models.Actor, note string) {
	now := time.Now()
	b.Timeline = append(b.Timeline, models.TimelineEntry{
		Status:    b.Status,
		Timestamp: now,
		ActorID:   actor.ID,
		ActorRole: actor.Role,
		Note:      note,
	})
	b.UpdatedAt = now
}

func (s *DefaultBookingService) AssignProvider(ctx context.Context, actor models.Actor, bookingID, providerID string) (*models.Booking, error) {
	if providerID == "" {
		return nil, errs.NewValidation("providerId", "is required")
	}
	b, err := s.applyTransition(bookingID, func(b *models.Booking) error {
		if !b.IsParty(actor) {
			return errs.NewPermissionDenied(actor.ID, "assign a provider")
		}
		if b.Status != models.BookingStatusPending {
			return errs.NewInvalidState("booking", b.Status, "assign a provider to")
		}
		b.ProviderID = providerID
		appendTimeline(b, actor, "provider assigned")
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.Notifier.NotifyProvider(ctx, providerID, "New booking request",
		"You have been matched to a "+b.Category+" booking.", map[string]string{"bookingId": b.ID})
	return b, nil
}

func (s *DefaultBookingService) ConfirmBooking(ctx context.Context, actor models.Actor, bookingID string) (*models.Booking, error) {
	b, err := s.applyTransition(bookingID, func(b *models.Booking) error {
		if actor.Role == "provider" && actor.ID != b.ProviderID {
			return errs.NewPermissionDenied(actor.ID, "confirm this booking")
		}
		if actor.Role == "client" {
			return errs.NewPermissionDenied(actor.ID, "confirm a booking")
		}
		if b.ProviderID == "" {
			return errs.NewInvalidState("booking", b.Status, "confirm unassigned")
		}
		if err := guardTransition(b, models.BookingStatusConfirmed); err != nil {
			return err
		}
		b.Status = models.BookingStatusConfirmed
		appendTimeline(b, actor, "")
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.Notifier.NotifyClient(ctx, b.ClientID, "Booking confirmed",
		"Your provider has confirmed the booking.", map[string]string{"bookingId": b.ID})
	return b, nil
}

func (s *DefaultBookingService) StartBooking(ctx context.Context, actor models.Actor, bookingID string) (*models.Booking, error) {
	b, err := s.applyTransition(bookingID, func(b *models.Booking) error {
		if !b.IsParty(actor) || actor.Role == "client" {
			return errs.NewPermissionDenied(actor.ID, "start this booking")
		}
		if err := guardTransition(b, models.BookingStatusInProgress); err != nil {
			return err
		}
		b.Status = models.BookingStatusInProgress
		appendTimeline(b, actor, "")
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.Notifier.NotifyClient(ctx, b.ClientID, "Service started",
		"Your provider has started the job.", map[string]string{"bookingId": b.ID})
	return b, nil
}

// CompleteBooking moves an in-progress booking to completed. With
// releaseFunds set it requires a paid escrow, releases it, and creates the
// payout; the payout call is idempotent so a retried complete cannot
// duplicate either side effect.
func (s *DefaultBookingService) CompleteBooking(ctx context.Context, actor models.Actor, bookingID string, releaseFunds bool) (*models.Booking, error) {
	b, err := s.applyTransition(bookingID, func(b *models.Booking) error {
		if !b.IsParty(actor) || actor.Role == "provider" {
			return errs.NewPermissionDenied(actor.ID, "complete this booking")
		}
		if err := guardTransition(b, models.BookingStatusCompleted); err != nil {
			return err
		}
		if releaseFunds {
			if b.Payment.Status != models.PaymentStatusCompleted {
				return errs.NewInvalidState("booking", b.Status, "release funds for unpaid")
			}
			if _, err := s.Escrow.FindByBooking(ctx, b.ID); err != nil {
				return err
			}
		}
		b.Status = models.BookingStatusCompleted
		appendTimeline(b, actor, "")
		return nil
	})
	if err != nil {
		return nil, err
	}

	if releaseFunds {
		esc, err := s.Escrow.FindByBooking(ctx, b.ID)
		if err != nil {
			return nil, err
		}
		if _, err := s.Escrow.Release(ctx, esc.ID, escrow.ReleaseContext{By: actor.ID, Note: "booking completed"}); err != nil {
			return nil, err
		}
		if _, err := s.Payouts.CreatePayout(ctx, b.ID); err != nil {
			return nil, err
		}
	}

	s.Logger.Info("booking completed",
		zap.String("bookingId", b.ID),
		zap.Bool("releaseFunds", releaseFunds))
	s.Notifier.NotifyProvider(ctx, b.ProviderID, "Booking completed",
		"The client has marked the job complete.", map[string]string{"bookingId": b.ID})
	return b, nil
}

func (s *DefaultBookingService) CancelBooking(ctx context.Context, actor models.Actor, bookingID, reason string) (*models.Booking, error) {
	var refundEligible bool
	b, err := s.applyTransition(bookingID, func(b *models.Booking) error {
		if !b.IsParty(actor) {
			return errs.NewPermissionDenied(actor.ID, "cancel this booking")
		}
		if err := guardTransition(b, models.BookingStatusCancelled); err != nil {
			return err
		}
		refundEligible = s.RefundableBy[b.Status]
		b.Status = models.BookingStatusCancelled
		b.Cancellation = &models.Cancellation{
			CancelledBy:    actor.ID,
			Reason:         reason,
			RefundEligible: refundEligible,
			CancelledAt:    time.Now(),
		}
		appendTimeline(b, actor, reason)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if refundEligible && b.Payment.Status == models.PaymentStatusCompleted {
		esc, err := s.Escrow.FindByBooking(ctx, b.ID)
		if err == nil {
			if _, err := s.Escrow.Refund(ctx, esc.ID, "booking cancelled: "+reason, actor.ID); err != nil {
				return nil, err
			}
		} else if !errs.IsNotFound(err) {
			return nil, err
		}
	}

	s.Notifier.NotifyClient(ctx, b.ClientID, "Booking cancelled",
		"Your booking has been cancelled.", map[string]string{"bookingId": b.ID})
	if b.ProviderID != "" {
		s.Notifier.NotifyProvider(ctx, b.ProviderID, "Booking cancelled",
			"A booking assigned to you was cancelled.", map[string]string{"bookingId": b.ID})
	}
	return b, nil
}

// DisputeBooking freezes the booking and its escrow. The escrow side is
// moved first so a dispute against released funds is rejected before the
// booking record changes.
func (s *DefaultBookingService) DisputeBooking(ctx context.Context, actor models.Actor, bookingID, reason string) (*models.Booking, error) {
	if reason == "" {
		return nil, errs.NewValidation("reason", "is required")
	}

	current, err := s.Bookings.GetByID(bookingID)
	if err != nil {
		return nil, err
	}
	if !current.IsParty(actor) {
		return nil, errs.NewPermissionDenied(actor.ID, "dispute this booking")
	}
	if err := guardTransition(current, models.BookingStatusDisputed); err != nil {
		return nil, err
	}

	esc, err := s.Escrow.FindByBooking(ctx, bookingID)
	switch {
	case err == nil:
		if _, err := s.Escrow.StartDispute(ctx, esc.ID, escrow.DisputeInput{Reason: reason, Initiator: actor.ID}); err != nil {
			return nil, err
		}
	case errs.IsNotFound(err):
		// No funds held; the dispute is recorded on the booking alone.
	default:
		return nil, err
	}

	b, err := s.applyTransition(bookingID, func(b *models.Booking) error {
		if err := guardTransition(b, models.BookingStatusDisputed); err != nil {
			return err
		}
		b.Status = models.BookingStatusDisputed
		b.Dispute = &models.DisputeInfo{
			Reason:     reason,
			RaisedBy:   actor.ID,
			DisputedAt: time.Now(),
		}
		appendTimeline(b, actor, reason)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Info("booking disputed",
		zap.String("bookingId", b.ID),
		zap.String("raisedBy", actor.ID))
	return b, nil
}

// RecordPaymentCompleted marks the client payment settled, opens the escrow
// hold, and promotes any payout waiting on payment.
func (s *DefaultBookingService) RecordPaymentCompleted(ctx context.Context, actor models.Actor, bookingID string) (*models.Booking, error) {
	b, err := s.applyTransition(bookingID, func(b *models.Booking) error {
		if !b.IsParty(actor) {
			return errs.NewPermissionDenied(actor.ID, "record payment for this booking")
		}
		if b.Status == models.BookingStatusCancelled {
			return errs.NewInvalidState("booking", b.Status, "record payment for")
		}
		if b.Payment.Status == models.PaymentStatusCompleted {
			return nil
		}
		b.Payment.Status = models.PaymentStatusCompleted
		appendTimeline(b, actor, "payment completed")
		return nil
	})
	if err != nil {
		return nil, err
	}

	if _, err := s.Escrow.CreateEscrow(ctx, b); err != nil {
		return nil, err
	}
	if err := s.Payouts.OnPaymentCompleted(ctx, b.ID); err != nil {
		return nil, err
	}

	s.Notifier.NotifyProvider(ctx, b.ProviderID, "Payment received",
		"The client has paid for the booking.", map[string]string{"bookingId": b.ID})
	return b, nil
}

func (s *DefaultBookingService) GetBooking(ctx context.Context, bookingID string) (*models.Booking, error) {
	return s.Bookings.GetByID(bookingID)
}

func (s *DefaultBookingService) ListClientBookings(ctx context.Context, clientID string, limit, offset int64) ([]models.Booking, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.Bookings.ListByClient(clientID, limit, offset)
}

func (s *DefaultBookingService) ListProviderBookings(ctx context.Context, providerID string, limit, offset int64) ([]models.Booking, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.Bookings.ListByProvider(providerID, limit, offset)
}
