package matching

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"fundihub/database/repository"
	"fundihub/errs"
	"fundihub/models"

	"go.uber.org/zap"
)

const defaultLimit = 10

// MatchingService ranks eligible providers for a service request.
type MatchingService interface {
	MatchProviders(ctx context.Context, req models.ServiceRequest) ([]models.MatchedProvider, error)
}

// DefaultMatchingService implements MatchingService.
type DefaultMatchingService struct {
	ProviderRepo repository.ProviderRepository
	Logger       *zap.Logger
}

// MatchProviders scores and ranks candidate providers. When no providers
// qualify it returns an empty list rather than an error.
func (s *DefaultMatchingService) MatchProviders(ctx context.Context, req models.ServiceRequest) ([]models.MatchedProvider, error) {
	if req.Category == "" {
		return nil, errs.NewValidation("category", "is required")
	}
	if req.Area == "" {
		return nil, errs.NewValidation("area", "is required")
	}
	limit := req.Limit
	if limit <= 0 {
		limit = defaultLimit
	}

	// Area filtering happens in scoring, not in the search: adjacent-area
	// providers still earn partial location credit.
	providers, err := s.ProviderRepo.Search(repository.ProviderSearchCriteria{
		Category:     req.Category,
		ApprovedOnly: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to match providers: %w", err)
	}
	if len(providers) == 0 {
		s.Logger.Debug("no candidates for request",
			zap.String("category", req.Category),
			zap.String("area", req.Area))
		return []models.MatchedProvider{}, nil
	}

	providers = dedupe(providers)
	now := time.Now()

	type scored struct {
		provider models.Provider
		bd       models.ScoreBreakdown
	}

	resultsCh := make(chan scored, len(providers))
	var wg sync.WaitGroup
	for _, p := range providers {
		wg.Add(1)
		go func(p models.Provider) {
			defer wg.Done()
			resultsCh <- scored{provider: p, bd: scoreProvider(&p, &req, now)}
		}(p)
	}
	wg.Wait()
	close(resultsCh)

	minAvail := minAvailabilityFor(req.Urgency)
	var candidates []scored
	for sc := range resultsCh {
		if sc.bd.Availability < minAvail {
			continue
		}
		candidates = append(candidates, sc)
	}

	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.bd.Total != b.bd.Total {
			return a.bd.Total > b.bd.Total
		}
		if a.bd.Reputation != b.bd.Reputation {
			return a.bd.Reputation > b.bd.Reputation
		}
		return a.provider.ID < b.provider.ID
	})

	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	matched := make([]models.MatchedProvider, 0, len(candidates))
	for _, sc := range candidates {
		matched = append(matched, models.MatchedProvider{
			ProviderID:    sc.provider.ID,
			Name:          sc.provider.Name,
			Rating:        sc.provider.Rating,
			CompletedJobs: sc.provider.CompletedJobs,
			HourlyRate:    sc.provider.HourlyRate,
			Score:         sc.bd,
		})
	}
	return matched, nil
}

// dedupe drops repeated provider records, keeping first occurrence.
func dedupe(providers []models.Provider) []models.Provider {
	seen := make(map[string]bool, len(providers))
	out := providers[:0]
	for _, p := range providers {
		if seen[p.ID] {
			continue
		}
		seen[p.ID] = true
		out = append(out, p)
	}
	return out
}
