package models

import "time"

// Escrow statuses. pending -> released | refunded, pending -> disputed -> released | refunded.
const (
	EscrowStatusPending  = "pending"
	EscrowStatusDisputed = "disputed"
	EscrowStatusReleased = "released"
	EscrowStatusRefunded = "refunded"
)

// Dispute resolution decisions.
const (
	ResolutionRelease = "release"
	ResolutionRefund  = "refund"
)

// EvidenceItem is one piece of evidence attached to a disputed escrow.
type EvidenceItem struct {
	SubmittedBy string    `bson:"submittedBy" json:"submittedBy"`
	Description string    `bson:"description" json:"description"`
	FileURL     string    `bson:"fileUrl,omitempty" json:"fileUrl,omitempty"`
	SubmittedAt time.Time `bson:"submittedAt" json:"submittedAt"`
}

// EscrowDispute records the dispute raised against an escrow payment.
type EscrowDispute struct {
	Reason      string     `bson:"reason" json:"reason"`
	Initiator   string     `bson:"initiator" json:"initiator"`
	ResolvedBy  string     `bson:"resolvedBy,omitempty" json:"resolvedBy,omitempty"`
	Resolution  string     `bson:"resolution,omitempty" json:"resolution,omitempty"` // release or refund
	Notes       string     `bson:"notes,omitempty" json:"notes,omitempty"`
	OpenedAt    time.Time  `bson:"openedAt" json:"openedAt"`
	ResolvedAt  *time.Time `bson:"resolvedAt,omitempty" json:"resolvedAt,omitempty"`
}

// EscrowPayment represents funds logically held against one booking.
// Exactly one non-deleted escrow exists per booking; records are soft-deleted
// only, for audit.
type EscrowPayment struct {
	ID         string `bson:"id" json:"id"`
	BookingID  string `bson:"bookingId" json:"bookingId"`
	ClientID   string `bson:"clientId" json:"clientId"`
	ProviderID string `bson:"providerId" json:"providerId"`

	GrossAmount int64  `bson:"grossAmount" json:"grossAmount"`
	Currency    string `bson:"currency" json:"currency"`

	Status string `bson:"status" json:"status"`

	// Recorded on release: the platform/provider split.
	PlatformFee    int64 `bson:"platformFee,omitempty" json:"platformFee,omitempty"`
	ProviderAmount int64 `bson:"providerAmount,omitempty" json:"providerAmount,omitempty"`

	RefundReason string `bson:"refundReason,omitempty" json:"refundReason,omitempty"`

	Dispute  *EscrowDispute `bson:"dispute,omitempty" json:"dispute,omitempty"`
	Evidence []EvidenceItem `bson:"evidence,omitempty" json:"evidence,omitempty"`

	CreatedAt  time.Time  `bson:"createdAt" json:"createdAt"`
	DisputedAt *time.Time `bson:"disputedAt,omitempty" json:"disputedAt,omitempty"`
	ReleasedAt *time.Time `bson:"releasedAt,omitempty" json:"releasedAt,omitempty"`
	RefundedAt *time.Time `bson:"refundedAt,omitempty" json:"refundedAt,omitempty"`

	Deleted bool  `bson:"deleted" json:"-"`
	Version int64 `bson:"version" json:"-"`
}

// Terminal reports whether the escrow has reached a final state.
func (e *EscrowPayment) Terminal() bool {
	return e.Status == EscrowStatusReleased || e.Status == EscrowStatusRefunded
}
