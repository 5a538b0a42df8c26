package models

import "time"

// Booking statuses. Transitions are enforced by the booking lifecycle
// transition table, never by ad hoc status checks.
const (
	BookingStatusPending    = "pending"
	BookingStatusConfirmed  = "confirmed"
	BookingStatusInProgress = "in_progress"
	BookingStatusCompleted  = "completed"
	BookingStatusCancelled  = "cancelled"
	BookingStatusDisputed   = "disputed"
)

// Payment timing policies.
const (
	PaymentTimingPayNow   = "pay_now"
	PaymentTimingPayAfter = "pay_after"
)

// Payment statuses on the booking's payment summary.
const (
	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
	PaymentStatusRefunded  = "refunded"
)

// Pricing holds the money side of a booking in minor currency units.
type Pricing struct {
	BaseAmount  int64  `bson:"baseAmount" json:"baseAmount"`
	TotalAmount int64  `bson:"totalAmount" json:"totalAmount"`
	Currency    string `bson:"currency" json:"currency"`
}

// PaymentSummary records how and when the client pays.
type PaymentSummary struct {
	Method string `bson:"method" json:"method"` // "card", "mobile_money", "cash"
	Timing string `bson:"timing" json:"timing"` // pay_now or pay_after
	Status string `bson:"status" json:"status"`
}

// Cancellation captures why and by whom a booking was cancelled.
type Cancellation struct {
	CancelledBy    string    `bson:"cancelledBy" json:"cancelledBy"`
	Reason         string    `bson:"reason" json:"reason,omitempty"`
	RefundEligible bool      `bson:"refundEligible" json:"refundEligible"`
	CancelledAt    time.Time `bson:"cancelledAt" json:"cancelledAt"`
}

// DisputeInfo captures an open dispute on a booking.
type DisputeInfo struct {
	Reason     string    `bson:"reason" json:"reason"`
	RaisedBy   string    `bson:"raisedBy" json:"raisedBy"`
	DisputedAt time.Time `bson:"disputedAt" json:"disputedAt"`
}

// Booking represents one requested engagement between a client and a provider.
type Booking struct {
	ID         string `bson:"id" json:"id"`
	ClientID   string `bson:"clientId" json:"clientId"`
	ProviderID string `bson:"providerId,omitempty" json:"providerId,omitempty"` // empty until assigned
	ServiceID  string `bson:"serviceId" json:"serviceId"`
	Category   string `bson:"category" json:"category"`

	ScheduledStart time.Time `bson:"scheduledStart" json:"scheduledStart"`
	ScheduledEnd   time.Time `bson:"scheduledEnd" json:"scheduledEnd"`
	Area           string    `bson:"area" json:"area"`
	Address        string    `bson:"address,omitempty" json:"address,omitempty"`

	Pricing Pricing        `bson:"pricing" json:"pricing"`
	Payment PaymentSummary `bson:"payment" json:"payment"`

	Status   string          `bson:"status" json:"status"`
	Timeline []TimelineEntry `bson:"timeline" json:"timeline"`

	Cancellation *Cancellation `bson:"cancellation,omitempty" json:"cancellation,omitempty"`
	Dispute      *DisputeInfo  `bson:"dispute,omitempty" json:"dispute,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`

	// Version backs optimistic concurrency on racing status updates.
	Version int64 `bson:"version" json:"-"`
}

// IsParty reports whether the actor is the booking's client, its assigned
// provider, or an admin.
func (b *Booking) IsParty(actor Actor) bool {
	if actor.IsAdmin() {
		return true
	}
	switch actor.Role {
	case "client":
		return actor.ID == b.ClientID
	case "provider":
		return b.ProviderID != "" && actor.ID == b.ProviderID
	}
	return false
}
