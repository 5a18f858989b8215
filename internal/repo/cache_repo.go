// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// ResponseCache model.
//
// Entries are never mutated after insert except for the usage counters
// updated on a similarity hit. Insert does not deduplicate against existing
// patterns; dedup happens implicitly on the read side, so near-duplicate
// patterns may accumulate over time (accepted tradeoff).
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ltavares/tempo-backend/internal/domain"
)

// ListCacheByCategory returns all cache entries for a category in insertion
// order (CreatedAt ASC, ID ASC). Stable ordering keeps the first-wins
// tie-break of the similarity match reproducible. An empty category matches
// every entry; callers without a category hint still get similarity hits.
func ListCacheByCategory(ctx context.Context, db *gorm.DB, category string) ([]domain.ResponseCache, error) {
	var out []domain.ResponseCache
	q := db.WithContext(ctx)
	if category != "" {
		q = q.Where("category = ?", category)
	}
	err := q.Order("created_at ASC, id ASC").Find(&out).Error
	return out, err
}

// RecordCacheHit increments the usage counter and refreshes LastUsed.
func RecordCacheHit(ctx context.Context, db *gorm.DB, id string, now time.Time) error {
	return db.WithContext(ctx).Model(&domain.ResponseCache{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"usage_count": gorm.Expr("usage_count + 1"),
			"last_used":   now,
		}).Error
}

// InsertCacheEntry stores a freshly produced AI response under its
// normalized pattern. UsageCount starts at 1.
func InsertCacheEntry(ctx context.Context, db *gorm.DB, pattern, category, response string, now time.Time) (*domain.ResponseCache, error) {
	e := &domain.ResponseCache{
		ID:              uuid.NewString(),
		ActivityPattern: pattern,
		Category:        category,
		Response:        response,
		UsageCount:      1,
		LastUsed:        now,
		CreatedAt:       now,
	}
	return e, db.WithContext(ctx).Create(e).Error
}

// EvictCacheBefore deletes entries whose LastUsed predates cutoff and
// returns the number removed. Time-based eviction is the only capacity
// control on the cache.
func EvictCacheBefore(ctx context.Context, db *gorm.DB, cutoff time.Time) (int64, error) {
	res := db.WithContext(ctx).
		Where("last_used < ?", cutoff).
		Delete(&domain.ResponseCache{})
	return res.RowsAffected, res.Error
}

// CacheStats aggregates entry count and accumulated hits. A hit is any use
// beyond the insert itself, so saved AI calls = total usage - entries.
func CacheStats(ctx context.Context, db *gorm.DB) (entries int64, totalUsage int64, err error) {
	if err = db.WithContext(ctx).Model(&domain.ResponseCache{}).Count(&entries).Error; err != nil {
		return 0, 0, err
	}
	if entries == 0 {
		return 0, 0, nil
	}
	var row struct {
		Total int64
	}
	err = db.WithContext(ctx).Model(&domain.ResponseCache{}).
		Select("COALESCE(SUM(usage_count),0) AS total").
		Scan(&row).Error
	return entries, row.Total, err
}
