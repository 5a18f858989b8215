// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file assembles the ephemeral UserStats aggregate that
// feeds the response strategy. Nothing here is persisted; the numbers are
// recomputed on demand from the live activity table.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/ltavares/tempo-backend/internal/domain"
)

// UserStats computes the strategy inputs as of now:
//   - total activities registered (live table; rolled-up days no longer count,
//     matching the source behavior where stats reset with the daily purge)
//   - activities started today (local day of now)
//   - timestamp of the most recent AI-sourced response, nil if none
func UserStats(ctx context.Context, db *gorm.DB, now time.Time) (domain.UserStats, error) {
	var stats domain.UserStats

	if err := db.WithContext(ctx).Model(&domain.Activity{}).Count(&stats.TotalActivitiesRegistered).Error; err != nil {
		return stats, err
	}

	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if err := db.WithContext(ctx).Model(&domain.Activity{}).
		Where("started_at >= ?", dayStart).
		Count(&stats.TodayActivitiesCount).Error; err != nil {
		return stats, err
	}

	// Latest AI-sourced response (avoid MAX() -> TEXT in SQLite).
	var row struct {
		CreatedAt time.Time
	}
	res := db.WithContext(ctx).Model(&domain.Activity{}).
		Select("created_at").
		Where("source = ?", domain.SourceAI).
		Order("created_at DESC").
		Limit(1).
		Scan(&row)
	if res.Error != nil {
		return stats, res.Error
	}
	if res.RowsAffected > 0 && !row.CreatedAt.IsZero() {
		t := row.CreatedAt
		stats.LastAIResponseDate = &t
	}
	return stats, nil
}
