package models

import "time"

// Payout destination types.
const (
	PayoutMethodBank        = "bank"
	PayoutMethodMobileMoney = "mobile_money"
)

// PayoutDestination is where a provider receives their earnings.
// A provider with neither a bank account nor a mobile number configured
// cannot be paid out.
type PayoutDestination struct {
	Method          string    `bson:"method" json:"method"` // bank or mobile_money
	BankAccountID   string    `bson:"bankAccountId,omitempty" json:"bankAccountId,omitempty"` // connected account reference
	MobileNumber    string    `bson:"mobileNumber,omitempty" json:"mobileNumber,omitempty"`
	PreferredMethod string    `bson:"preferredMethod,omitempty" json:"preferredMethod,omitempty"`
	LastUpdated     time.Time `bson:"lastUpdated" json:"lastUpdated"`
}

// Configured reports whether the destination can actually receive a transfer.
func (d *PayoutDestination) Configured() bool {
	if d == nil {
		return false
	}
	switch d.Method {
	case PayoutMethodBank:
		return d.BankAccountID != ""
	case PayoutMethodMobileMoney:
		return d.MobileNumber != ""
	}
	return false
}

// RecentBooking is a denormalized trace of a provider's latest bookings,
// kept on the provider document for recent-performance scoring.
type RecentBooking struct {
	BookingID string    `bson:"bookingId" json:"bookingId"`
	Status    string    `bson:"status" json:"status"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}

// Provider is a vetted service provider profile as the matching and payout
// engines see it.
type Provider struct {
	ID    string `bson:"id" json:"id"`
	Name  string `bson:"name" json:"name"`
	Email string `bson:"email" json:"email,omitempty"`
	Phone string `bson:"phone" json:"phone,omitempty"`

	Approved bool `bson:"approved" json:"approved"`

	Categories   []string `bson:"categories" json:"categories"`
	Services     []string `bson:"services" json:"services"` // directly listed service names
	Skills       []string `bson:"skills" json:"skills"`
	ServiceAreas []string `bson:"serviceAreas" json:"serviceAreas"` // "All Areas" means no restriction

	Rating        float64 `bson:"rating" json:"rating"` // 0..5
	ReviewCount   int     `bson:"reviewCount" json:"reviewCount"`
	CompletedJobs int     `bson:"completedJobs" json:"completedJobs"`
	YearsActive   int     `bson:"yearsActive" json:"yearsActive"`

	HourlyRate       int64 `bson:"hourlyRate" json:"hourlyRate"` // minor units per hour
	EmergencyCapable bool  `bson:"emergencyCapable" json:"emergencyCapable"`
	ActiveJobCount   int   `bson:"activeJobCount" json:"activeJobCount"`

	RecentBookings []RecentBooking `bson:"recentBookings,omitempty" json:"-"`

	Payout      *PayoutDestination `bson:"payout,omitempty" json:"payout,omitempty"`
	TotalEarned int64              `bson:"totalEarned" json:"totalEarned"`

	FCMToken  string    `bson:"fcmToken" json:"-"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}
