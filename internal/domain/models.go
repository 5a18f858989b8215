// Package domain defines the persistence models for activities, pending
// inputs, cached AI responses, and daily feedbacks. These types are mapped
// with GORM and form the core data layer of the time-tracking backend.
package domain

import (
	"time"
)

// Activity response sources. The pipeline records how the motivational
// response attached to an activity was produced so that engagement stats
// (e.g., when the AI last spoke to the user) can be computed later.
const (
	SourceAI       = "ai"
	SourceCache    = "cache"
	SourceTemplate = "template"
)

// Activity is a single tracked activity within a day. Rows live only until
// the daily rollup runs for their date; afterwards only the Feedback record
// remains.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - Title: the raw text the user typed.
//   - Summary: short AI-generated name for the activity.
//   - Category: emoji-prefixed category (e.g. "💼 Trabalho").
//   - Response: motivational reply shown to the user.
//   - Source: how Response was produced ("ai", "cache", "template").
//   - StartedAt / EndedAt / DurationMinutes: activity time span.
type Activity struct {
	ID              string     `json:"id"       gorm:"type:char(36);primaryKey"`
	Title           string     `json:"title"    gorm:"type:text;not null"`
	Summary         string     `json:"summary"  gorm:"type:varchar(255)"`
	Category        string     `json:"category" gorm:"type:varchar(64);index:idx_activity_category"`
	Response        string     `json:"response" gorm:"type:text"`
	Source          string     `json:"source"   gorm:"type:varchar(16);not null;default:'template';check:source IN ('ai','cache','template')"`
	StartedAt       time.Time  `json:"started_at" gorm:"not null;index:idx_activity_started"`
	EndedAt         *time.Time `json:"ended_at,omitempty"`
	DurationMinutes *int       `json:"duration_minutes,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// TableName returns the database table name for Activity.
func (Activity) TableName() string { return "activities" }

// PendingInput is a user input that could not be classified because the AI
// endpoint was unreachable. Unprocessed rows form a FIFO queue ordered by
// Timestamp; the drain loop retries them when connectivity returns.
//
// Processed rows are retained with their result payload as an audit trail
// and are evicted by the same time-based cleanup that prunes the response
// cache.
type PendingInput struct {
	ID          string     `json:"id"        gorm:"type:char(36);primaryKey"`
	Text        string     `json:"text"      gorm:"type:text;not null"`
	Timestamp   time.Time  `json:"timestamp" gorm:"not null;index:idx_pending_ts"`
	Processed   bool       `json:"processed" gorm:"not null;default:false;index:idx_pending_done"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
	Result      string     `json:"result,omitempty" gorm:"type:text"`
}

// TableName returns the database table name for PendingInput.
func (PendingInput) TableName() string { return "pending_inputs" }

// ResponseCache stores a previously produced AI response keyed by the
// normalized pattern of the activity title that triggered it. Entries are
// matched by keyword similarity on the read side; no write-time
// deduplication happens, so near-duplicate patterns may coexist.
//
// Invariant: ActivityPattern always holds the normalized form of the title
// (lowercased, accents stripped, stopwords removed), never the raw text.
type ResponseCache struct {
	ID              string    `json:"id"               gorm:"type:char(36);primaryKey"`
	ActivityPattern string    `json:"activity_pattern" gorm:"type:text;not null"`
	Category        string    `json:"category"         gorm:"type:varchar(64);not null;index:idx_cache_category"`
	Response        string    `json:"response"         gorm:"type:text;not null"`
	UsageCount      int       `json:"usage_count"      gorm:"not null;default:1"`
	LastUsed        time.Time `json:"last_used"        gorm:"not null;index:idx_cache_last_used"`
	CreatedAt       time.Time `json:"created_at"`
}

// TableName returns the database table name for ResponseCache.
func (ResponseCache) TableName() string { return "response_cache" }

// FeedbackTypeDaily marks the record produced by the daily rollup.
const FeedbackTypeDaily = "daily"

// Feedback is the permanent record produced by the daily rollup. Raw
// activities for the covered date are deleted once the feedback exists;
// only these insights survive long-term.
type Feedback struct {
	ID         string    `json:"id"         gorm:"type:char(36);primaryKey"`
	Date       string    `json:"date"       gorm:"type:varchar(10);not null;uniqueIndex:ux_feedback_date_type"`
	Type       string    `json:"type"       gorm:"type:varchar(16);not null;default:'daily';uniqueIndex:ux_feedback_date_type"`
	Theme      string    `json:"theme"      gorm:"type:varchar(255)"`
	Score      int       `json:"score"`
	Insights   string    `json:"insights"   gorm:"type:text"` // JSON array of strings
	Suggestion string    `json:"suggestion" gorm:"type:text"`
	CreatedAt  time.Time `json:"created_at"`
}

// TableName returns the database table name for Feedback.
func (Feedback) TableName() string { return "feedbacks" }

// UserStats is an ephemeral aggregate assembled from the activity store to
// feed the response strategy. It is recomputed on demand and never persisted.
type UserStats struct {
	TotalActivitiesRegistered int64      `json:"total_activities_registered"`
	TodayActivitiesCount      int64      `json:"today_activities_count"`
	LastAIResponseDate        *time.Time `json:"last_ai_response_date,omitempty"`
}
