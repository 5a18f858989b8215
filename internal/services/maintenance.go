// Package services – MaintenanceService
//
// Housekeeping for the pipeline's two growing tables: stale response-cache
// entries and processed queue rows are evicted after the retention window.
// Also reports cache usage and the estimated AI-call savings.
package services

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/ltavares/tempo-backend/internal/domain"
	"github.com/ltavares/tempo-backend/internal/repo"
)

// CleanupResult reports one eviction pass.
type CleanupResult struct {
	CacheEvicted     int64 `json:"cache_evicted"`
	ProcessedEvicted int64 `json:"processed_evicted"`
}

// CacheReport is the payload of the cache stats endpoint.
type CacheReport struct {
	Entries    int64       `json:"entries"`
	TotalUsage int64       `json:"total_usage"`
	Savings    CostSavings `json:"savings"`
}

// MaintenanceService evicts stale rows and reports cache statistics.
type MaintenanceService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB

	// TTL is the retention window for cache entries (by last use) and
	// processed queue rows (by processing time).
	TTL time.Duration

	// Now is a clock seam for tests; defaults to time.Now.
	Now func() time.Time
}

// Cleanup evicts cache entries unused past the TTL and processed queue
// rows older than the TTL.
func (s *MaintenanceService) Cleanup(ctx context.Context) (CleanupResult, error) {
	cutoff := s.now().Add(-s.TTL)

	var out CleanupResult
	n, err := repo.EvictCacheBefore(ctx, s.DB, cutoff)
	if err != nil {
		return out, err
	}
	out.CacheEvicted = n

	n, err = repo.EvictProcessedBefore(ctx, s.DB, cutoff)
	if err != nil {
		return out, err
	}
	out.ProcessedEvicted = n
	return out, nil
}

// CacheStats reports entry count, accumulated usage, and the estimated
// savings from responses served without a live AI call.
func (s *MaintenanceService) CacheStats(ctx context.Context) (CacheReport, error) {
	entries, totalUsage, err := repo.CacheStats(ctx, s.DB)
	if err != nil {
		return CacheReport{}, err
	}

	total, err := repo.CountActivities(ctx, s.DB)
	if err != nil {
		return CacheReport{}, err
	}
	aiCalls, err := repo.CountActivitiesBySource(ctx, s.DB, domain.SourceAI)
	if err != nil {
		return CacheReport{}, err
	}

	return CacheReport{
		Entries:    entries,
		TotalUsage: totalUsage,
		Savings:    CalculateSavings(total, aiCalls),
	}, nil
}

func (s *MaintenanceService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
