// Package domain defines the core persistence models for the application.
package domain

import "time"

// Idempotency records the outcome of a previously accepted input submission,
// keyed by (user_id, key). It lets clients retry POST /inputs safely: a
// replay returns the originally recorded outcome instead of re-running the
// pipeline (and possibly double-registering an activity).
type Idempotency struct {
	ID        string    `gorm:"type:TEXT NOT NULL;primaryKey"`
	UserID    string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_idem_user_key,priority:1"`
	Key       string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_idem_user_key,priority:2"`
	RefID     string    `gorm:"type:TEXT NOT NULL"` // activity or pending-input ID
	RefKind   string    `gorm:"type:TEXT NOT NULL"` // "activity" | "pending" | "reply"
	Status    int       `gorm:"type:INTEGER NOT NULL"`
	CreatedAt time.Time `gorm:"type:DATETIME NOT NULL;autoCreateTime"`
	ExpiresAt time.Time `gorm:"type:DATETIME NOT NULL;index"`
}

// TableName implements the GORM tabler interface.
func (Idempotency) TableName() string { return "idempotency" }
