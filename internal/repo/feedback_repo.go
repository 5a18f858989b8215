// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Feedback
// model produced by the daily rollup.
package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ltavares/tempo-backend/internal/domain"
)

// ErrDuplicateFeedback indicates a rollup record already exists for the
// given (date, type) pair.
var ErrDuplicateFeedback = errors.New("feedback already exists for date")

// CreateFeedback inserts a rollup record. Insights is a JSON-encoded array.
func CreateFeedback(ctx context.Context, db *gorm.DB, date, typ, theme string, score int, insights, suggestion string) (*domain.Feedback, error) {
	f := &domain.Feedback{
		ID:         uuid.NewString(),
		Date:       date,
		Type:       typ,
		Theme:      theme,
		Score:      score,
		Insights:   insights,
		Suggestion: suggestion,
		CreatedAt:  time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(f).Error; err != nil {
		// glebarez/sqlite often returns plain-text errors for UNIQUE violations.
		low := strings.ToLower(err.Error())
		if errors.Is(err, gorm.ErrDuplicatedKey) ||
			strings.Contains(low, "unique constraint failed") ||
			strings.Contains(low, "constraint failed: unique") {
			return nil, ErrDuplicateFeedback
		}
		return nil, err
	}
	return f, nil
}

// GetFeedback returns the rollup record for (date, type) or ErrNotFound.
func GetFeedback(ctx context.Context, db *gorm.DB, date, typ string) (*domain.Feedback, error) {
	var f domain.Feedback
	err := db.WithContext(ctx).Where("date = ? AND type = ?", date, typ).First(&f).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// ListFeedbacksPage returns rollup records newest-first.
func ListFeedbacksPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.Feedback, error) {
	var out []domain.Feedback
	err := db.WithContext(ctx).
		Order("date DESC, id ASC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// CountFeedbacks returns the total number of rollup records.
func CountFeedbacks(ctx context.Context, db *gorm.DB) (int64, error) {
	var n int64
	err := db.WithContext(ctx).Model(&domain.Feedback{}).Count(&n).Error
	return n, err
}
