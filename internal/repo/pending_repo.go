// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// PendingInput queue.
//
// Lifecycle: unprocessed rows form a FIFO queue by Timestamp. A drained item
// is marked processed with a result payload rather than deleted, keeping an
// audit trail; processed rows are evicted after the configured horizon.
package repo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ltavares/tempo-backend/internal/domain"
)

// CreatePendingInput enqueues a raw user input for later classification.
func CreatePendingInput(ctx context.Context, db *gorm.DB, text string, ts time.Time) (*domain.PendingInput, error) {
	p := &domain.PendingInput{
		ID:        uuid.NewString(),
		Text:      text,
		Timestamp: ts,
		Processed: false,
	}
	return p, db.WithContext(ctx).Create(p).Error
}

// OldestPending returns the unprocessed item with the smallest Timestamp,
// or ErrNotFound when the queue is empty. Ties break on ID for determinism.
func OldestPending(ctx context.Context, db *gorm.DB) (*domain.PendingInput, error) {
	var p domain.PendingInput
	err := db.WithContext(ctx).
		Where("processed = ?", false).
		Order("timestamp ASC, id ASC").
		First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListPending returns all unprocessed items oldest-first.
func ListPending(ctx context.Context, db *gorm.DB) ([]domain.PendingInput, error) {
	var out []domain.PendingInput
	err := db.WithContext(ctx).
		Where("processed = ?", false).
		Order("timestamp ASC, id ASC").
		Find(&out).Error
	return out, err
}

// CountPending returns the number of unprocessed items.
func CountPending(ctx context.Context, db *gorm.DB) (int64, error) {
	var n int64
	err := db.WithContext(ctx).Model(&domain.PendingInput{}).Where("processed = ?", false).Count(&n).Error
	return n, err
}

// CountProcessed returns the number of retained processed items.
func CountProcessed(ctx context.Context, db *gorm.DB) (int64, error) {
	var n int64
	err := db.WithContext(ctx).Model(&domain.PendingInput{}).Where("processed = ?", true).Count(&n).Error
	return n, err
}

// MarkProcessed flags an item as drained, recording when and with what
// result. This is the only mutation the drain loop performs on queue rows.
func MarkProcessed(ctx context.Context, db *gorm.DB, id, result string, at time.Time) error {
	res := db.WithContext(ctx).Model(&domain.PendingInput{}).
		Where("id = ? AND processed = ?", id, false).
		Updates(map[string]any{
			"processed":    true,
			"processed_at": at,
			"result":       result,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// EvictProcessedBefore deletes processed items whose ProcessedAt predates
// cutoff and returns how many were removed. Unprocessed items are never
// touched: a queued input is only ever removed by being drained.
func EvictProcessedBefore(ctx context.Context, db *gorm.DB, cutoff time.Time) (int64, error) {
	res := db.WithContext(ctx).
		Where("processed = ? AND processed_at < ?", true, cutoff).
		Delete(&domain.PendingInput{})
	return res.RowsAffected, res.Error
}
