package models

import "time"

// Payout statuses. awaiting_payment -> pending -> processing -> completed | failed.
// A failed payout requires an explicit re-queue back to pending.
const (
	PayoutStatusAwaitingPayment = "awaiting_payment"
	PayoutStatusPending         = "pending"
	PayoutStatusProcessing      = "processing"
	PayoutStatusCompleted       = "completed"
	PayoutStatusFailed          = "failed"
)

// PayoutAmounts holds the commission split for one payout, in minor units.
type PayoutAmounts struct {
	GrossAmount       int64  `bson:"grossAmount" json:"grossAmount"`
	CommissionRateBps int64  `bson:"commissionRateBps" json:"commissionRateBps"`
	CommissionAmount  int64  `bson:"commissionAmount" json:"commissionAmount"`
	PayoutAmount      int64  `bson:"payoutAmount" json:"payoutAmount"`
	Currency          string `bson:"currency" json:"currency"`
}

// Payout represents one outbound transfer of funds from platform to provider
// for one completed, paid booking. One payout exists per booking.
type Payout struct {
	ID         string `bson:"id" json:"id"`
	BookingID  string `bson:"booking_id" json:"bookingId"` // unique index
	ProviderID string `bson:"providerId" json:"providerId"`
	ClientID   string `bson:"clientId" json:"clientId"`

	Status  string        `bson:"status" json:"status"`
	Amounts PayoutAmounts `bson:"amounts" json:"amounts"`

	ServiceCompletedAt time.Time  `bson:"serviceCompletedAt" json:"serviceCompletedAt"`
	ScheduledAt        time.Time  `bson:"scheduledAt" json:"scheduledAt"`
	ProcessedAt        *time.Time `bson:"processedAt,omitempty" json:"processedAt,omitempty"`
	CompletedAt        *time.Time `bson:"completedAt,omitempty" json:"completedAt,omitempty"`
	FailedAt           *time.Time `bson:"failedAt,omitempty" json:"failedAt,omitempty"`

	// Gateway metadata.
	TransferReference string `bson:"transferReference,omitempty" json:"transferReference,omitempty"`
	TransferID        string `bson:"transferId,omitempty" json:"transferId,omitempty"`
	FailureReason     string `bson:"failureReason,omitempty" json:"failureReason,omitempty"`

	// Retry metadata.
	AttemptCount  int        `bson:"attemptCount" json:"attemptCount"`
	LastAttemptAt *time.Time `bson:"lastAttemptAt,omitempty" json:"lastAttemptAt,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// PayoutStats summarizes payout volumes for operators or one provider.
type PayoutStats struct {
	ProviderID     string `json:"providerId,omitempty"`
	TotalCount     int64  `json:"totalCount"`
	CompletedCount int64  `json:"completedCount"`
	FailedCount    int64  `json:"failedCount"`
	PendingCount   int64  `json:"pendingCount"`
	TotalPaidOut   int64  `json:"totalPaidOut"`
	TotalFees      int64  `json:"totalFees"`
}
