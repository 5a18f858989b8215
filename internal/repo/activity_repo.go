// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Activity
// model.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ltavares/tempo-backend/internal/domain"
)

// CreateActivity inserts a new activity row. Source records how the
// motivational response was produced (ai, cache, template).
func CreateActivity(ctx context.Context, db *gorm.DB, title, summary, category, response, source string, startedAt time.Time) (*domain.Activity, error) {
	a := &domain.Activity{
		ID:        uuid.NewString(),
		Title:     title,
		Summary:   summary,
		Category:  category,
		Response:  response,
		Source:    source,
		StartedAt: startedAt,
		CreatedAt: time.Now().UTC(),
	}
	return a, db.WithContext(ctx).Create(a).Error
}

// FinishOpenActivity closes the most recent activity without an end time,
// stamping EndedAt and the rounded duration. Returns the closed activity or
// nil when nothing was open.
func FinishOpenActivity(ctx context.Context, db *gorm.DB, endedAt time.Time) (*domain.Activity, error) {
	var a domain.Activity
	err := db.WithContext(ctx).
		Where("ended_at IS NULL").
		Order("started_at DESC, id DESC").
		First(&a).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}

	minutes := int(endedAt.Sub(a.StartedAt).Minutes())
	if minutes < 0 {
		minutes = 0
	}
	updates := map[string]any{
		"ended_at":         endedAt,
		"duration_minutes": minutes,
	}
	if err := db.WithContext(ctx).Model(&domain.Activity{}).Where("id = ?", a.ID).Updates(updates).Error; err != nil {
		return nil, err
	}
	a.EndedAt = &endedAt
	a.DurationMinutes = &minutes
	return &a, nil
}

// ListActivitiesPage returns a page ordered deterministically (StartedAt ASC, ID ASC).
func ListActivitiesPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.Activity, error) {
	var out []domain.Activity
	err := db.WithContext(ctx).
		Order("started_at ASC, id ASC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// CountActivities returns the total number of live (not yet rolled-up) rows.
func CountActivities(ctx context.Context, db *gorm.DB) (int64, error) {
	var total int64
	err := db.WithContext(ctx).Model(&domain.Activity{}).Count(&total).Error
	return total, err
}

// CountActivitiesBySource counts live rows whose response came from source.
func CountActivitiesBySource(ctx context.Context, db *gorm.DB, source string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).Model(&domain.Activity{}).
		Where("source = ?", source).
		Count(&total).Error
	return total, err
}

// ListActivitiesBetween returns activities with StartedAt in [start, end),
// oldest first.
func ListActivitiesBetween(ctx context.Context, db *gorm.DB, start, end time.Time) ([]domain.Activity, error) {
	var out []domain.Activity
	err := db.WithContext(ctx).
		Where("started_at >= ? AND started_at < ?", start, end).
		Order("started_at ASC, id ASC").
		Find(&out).Error
	return out, err
}

// DeleteActivitiesBetween removes activities with StartedAt in [start, end).
// Called by the daily rollup after the feedback record is persisted.
func DeleteActivitiesBetween(ctx context.Context, db *gorm.DB, start, end time.Time) (int64, error) {
	res := db.WithContext(ctx).
		Where("started_at >= ? AND started_at < ?", start, end).
		Delete(&domain.Activity{})
	return res.RowsAffected, res.Error
}
