package matching

import (
	"math"
	"strings"
	"time"

	"fundihub/models"
)

// Score bucket ceilings. The total never exceeds 100.
const (
	maxServiceMatchPts      = 25.0
	maxReputationRatingPts  = 15.0
	maxReputationReviewPts  = 5.0
	maxExperienceJobsPts    = 10.0
	maxExperienceYearsPts   = 5.0
	maxAvailabilityPts      = 10.0
	maxPricingPts           = 10.0
	maxRecentPerformancePts = 5.0
)

// adjacentAreas maps each service area to its neighbours for partial
// location credit. Extended as coverage grows.
var adjacentAreas = map[string][]string{
	"Westlands":   {"Parklands", "Kilimani", "Lavington"},
	"Parklands":   {"Westlands", "Ngara"},
	"Kilimani":    {"Westlands", "Kileleshwa", "Hurlingham"},
	"Kileleshwa":  {"Kilimani", "Lavington"},
	"Lavington":   {"Westlands", "Kileleshwa"},
	"Hurlingham":  {"Kilimani", "Upper Hill"},
	"Upper Hill":  {"Hurlingham", "CBD"},
	"CBD":         {"Upper Hill", "Ngara"},
	"Ngara":       {"CBD", "Parklands"},
	"Karen":       {"Langata"},
	"Langata":     {"Karen"},
}

// scoreProvider computes the full weighted breakdown for one candidate.
func scoreProvider(p *models.Provider, req *models.ServiceRequest, now time.Time) models.ScoreBreakdown {
	bd := models.ScoreBreakdown{
		ServiceMatch:      serviceMatchScore(p, req),
		Reputation:        reputationScore(p),
		Experience:        experienceScore(p),
		Location:          locationScore(p, req.Area),
		Availability:      availabilityScore(p, req),
		PricingFit:        pricingFitScore(p, req),
		RecentPerformance: recentPerformanceScore(p, now),
	}
	bd.Total = bd.ServiceMatch + bd.Reputation + bd.Experience +
		bd.Location + bd.Availability + bd.PricingFit + bd.RecentPerformance
	return bd
}

// serviceMatchScore: directly listed service 25, skill-keyword match 15,
// category-only 5.
func serviceMatchScore(p *models.Provider, req *models.ServiceRequest) float64 {
	want := req.ServiceName
	if want == "" {
		want = req.Category
	}
	want = strings.ToLower(want)

	for _, s := range p.Services {
		if strings.ToLower(s) == want {
			return maxServiceMatchPts
		}
	}
	for _, skill := range p.Skills {
		sk := strings.ToLower(skill)
		if strings.Contains(sk, want) || strings.Contains(want, sk) {
			return 15
		}
	}
	for _, c := range p.Categories {
		if strings.EqualFold(c, req.Category) {
			return 5
		}
	}
	return 0
}

// reputationScore: rating-weighted 0-15 plus review-count-weighted 0-5.
func reputationScore(p *models.Provider) float64 {
	rating := p.Rating
	if rating > 5 {
		rating = 5
	}
	if rating < 0 {
		rating = 0
	}
	ratingPts := (rating / 5) * maxReputationRatingPts

	reviewPts := math.Log10(float64(p.ReviewCount+1)) * maxReputationReviewPts / math.Log10(51)
	if reviewPts > maxReputationReviewPts {
		reviewPts = maxReputationReviewPts
	}
	return ratingPts + reviewPts
}

// experienceScore: completed-jobs-weighted 0-10 plus years-weighted 0-5.
func experienceScore(p *models.Provider) float64 {
	jobsPts := math.Log10(float64(p.CompletedJobs+1)) * maxExperienceJobsPts / math.Log10(101)
	if jobsPts > maxExperienceJobsPts {
		jobsPts = maxExperienceJobsPts
	}

	years := p.YearsActive
	if years > 10 {
		years = 10
	}
	yearsPts := float64(years) / 10 * maxExperienceYearsPts
	return jobsPts + yearsPts
}

// locationScore: exact service area 15, "All Areas" 12, adjacent area 8,
// no declared restriction 5, otherwise 2.
func locationScore(p *models.Provider, area string) float64 {
	if len(p.ServiceAreas) == 0 {
		return 5
	}
	all := false
	for _, a := range p.ServiceAreas {
		if a == area {
			return 15
		}
		if a == "All Areas" {
			all = true
		}
	}
	if all {
		return 12
	}
	for _, neighbour := range adjacentAreas[area] {
		for _, a := range p.ServiceAreas {
			if a == neighbour {
				return 8
			}
		}
	}
	return 2
}

// availabilityScore starts at 10 and is penalized for high recent load,
// off-hours and weekend requests, and missing emergency capability when the
// request is an emergency.
func availabilityScore(p *models.Provider, req *models.ServiceRequest) float64 {
	score := maxAvailabilityPts

	if p.ActiveJobCount >= 5 {
		score -= 3
	}
	if !req.ScheduledAt.IsZero() {
		hour := req.ScheduledAt.Hour()
		if hour < 6 || hour >= 20 {
			score -= 2
		}
		switch req.ScheduledAt.Weekday() {
		case time.Saturday, time.Sunday:
			score -= 1
		}
	}
	if req.Urgency == models.UrgencyEmergency && !p.EmergencyCapable {
		score -= 5
	}

	if score < 0 {
		score = 0
	}
	return score
}

// pricingFitScore: full score inside the stated budget, degrading outside it.
// An unstated budget scores neutral.
func pricingFitScore(p *models.Provider, req *models.ServiceRequest) float64 {
	if req.BudgetMax <= 0 {
		return 7
	}
	if p.HourlyRate <= req.BudgetMax {
		return maxPricingPts
	}
	ratio := float64(p.HourlyRate) / float64(req.BudgetMax)
	switch {
	case ratio <= 1.25:
		return 6
	case ratio <= 1.5:
		return 3
	default:
		return 0
	}
}

// recentPerformanceScore: completion rate over the provider's last 10
// bookings within 30 days. No recent history scores mid-range.
func recentPerformanceScore(p *models.Provider, now time.Time) float64 {
	cutoff := now.Add(-30 * 24 * time.Hour)
	var total, completed int
	for _, rb := range p.RecentBookings {
		if rb.CreatedAt.Before(cutoff) {
			continue
		}
		total++
		if rb.Status == models.BookingStatusCompleted {
			completed++
		}
		if total >= 10 {
			break
		}
	}
	if total == 0 {
		return 2.5
	}
	return float64(completed) / float64(total) * maxRecentPerformancePts
}

// minAvailabilityFor returns the availability-score floor a candidate must
// clear for the given urgency.
func minAvailabilityFor(urgency string) float64 {
	switch urgency {
	case models.UrgencyEmergency:
		return 7
	case models.UrgencyUrgent:
		return 5
	default:
		return 3
	}
}
