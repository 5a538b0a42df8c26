package models

import "time"

// Request urgency levels. Urgency raises the availability bar a candidate
// must clear before being returned.
const (
	UrgencyNormal    = "normal"
	UrgencyUrgent    = "urgent"
	UrgencyEmergency = "emergency"
)

// ServiceRequest is the matching input: what the client needs, where and when.
type ServiceRequest struct {
	Category    string    `json:"category"`
	ServiceName string    `json:"serviceName,omitempty"`
	Area        string    `json:"area"`
	ScheduledAt time.Time `json:"scheduledAt"`
	Urgency     string    `json:"urgency"`
	BudgetMax   int64     `json:"budgetMax,omitempty"` // minor units per hour, 0 = unstated
	Limit       int       `json:"limit,omitempty"`
}

// ScoreBreakdown itemizes one candidate's matching score. Total max is 100.
type ScoreBreakdown struct {
	ServiceMatch      float64 `json:"serviceMatch"`      // 0-25
	Reputation        float64 `json:"reputation"`        // 0-20
	Experience        float64 `json:"experience"`        // 0-15
	Location          float64 `json:"location"`          // 0-15
	Availability      float64 `json:"availability"`      // 0-10
	PricingFit        float64 `json:"pricingFit"`        // 0-10
	RecentPerformance float64 `json:"recentPerformance"` // 0-5
	Total             float64 `json:"total"`
}

// MatchedProvider is one ranked candidate returned to the caller.
type MatchedProvider struct {
	ProviderID    string         `json:"providerId"`
	Name          string         `json:"name"`
	Rating        float64        `json:"rating"`
	CompletedJobs int            `json:"completedJobs"`
	HourlyRate    int64          `json:"hourlyRate"`
	Score         ScoreBreakdown `json:"score"`
}
