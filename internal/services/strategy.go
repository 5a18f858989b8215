// Package services – StrategyService.
//
// Decides whether a new activity gets a live AI response, a cached similar
// one, or a local template. The rules run in strict order and the first
// match wins; they are not mutually exclusive, so the ordering is part of
// the contract:
//
//  1. similar cached response      → cache (no AI call, hit recorded)
//  2. fewer than N total activities → AI (onboarding)
//  3. first activity of the day     → AI
//  4. no AI response for 24h        → AI (re-engagement)
//  5. important keyword in title    → AI
//  6. otherwise                     → local template
//
// The cache short-circuits everything; the default minimizes paid calls.
package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/ltavares/tempo-backend/internal/domain"
	"github.com/ltavares/tempo-backend/internal/repo"
	"github.com/ltavares/tempo-backend/internal/textsim"
)

// Decision reasons, stable strings exposed via the API and metrics.
const (
	ReasonCache        = "cache"
	ReasonOnboarding   = "onboarding"
	ReasonFirstOfDay   = "first activity of day"
	ReasonReengagement = "re-engagement"
	ReasonImportant    = "important activity"
	ReasonRoutine      = "routine"
)

// importantKeywords force a live AI call when present in the normalized
// title (rule 5). The list matches the normalized source language.
var importantKeywords = []string{
	"projeto", "importante", "reuniao", "apresentacao",
	"entrevista", "prova", "exame", "urgente", "cliente",
}

// Decision is the outcome of the response strategy for one activity.
type Decision struct {
	UseAI          bool   `json:"use_ai"`
	Reason         string `json:"reason"`
	CachedResponse string `json:"cached_response,omitempty"`
	CachedCategory string `json:"cached_category,omitempty"`
}

// StrategyService evaluates the response strategy against the cache store.
type StrategyService struct {
	DB *gorm.DB

	// Threshold is the minimum Jaccard similarity for a cache hit.
	Threshold float64
	// OnboardingCount is the activity total below which AI is always used.
	OnboardingCount int64
	// ReengageAfter is the AI silence that forces a live call.
	ReengageAfter time.Duration

	// Now is a clock seam for tests; defaults to time.Now.
	Now func() time.Time
}

// Decide applies the rules in order for (title, category) given the user's
// current stats. A cache hit records usage as a side effect.
func (s *StrategyService) Decide(ctx context.Context, title, category string, stats domain.UserStats) (Decision, error) {
	tr := otel.Tracer("services/StrategyService")
	ctx, span := tr.Start(ctx, "Decide",
		trace.WithAttributes(attribute.String("activity.category", category)),
	)
	defer span.End()

	now := s.now()

	// Rule 1: similar cached response.
	entries, err := repo.ListCacheByCategory(ctx, s.DB, category)
	if err != nil {
		return Decision{}, err
	}
	if len(entries) > 0 {
		patterns := make([]string, len(entries))
		for i, e := range entries {
			patterns[i] = e.ActivityPattern
		}
		if idx, score := textsim.BestMatch(patterns, title, s.Threshold); idx >= 0 {
			if err := repo.RecordCacheHit(ctx, s.DB, entries[idx].ID, now); err != nil {
				return Decision{}, err
			}
			span.SetAttributes(
				attribute.String("decision.reason", ReasonCache),
				attribute.Float64("decision.similarity", score),
			)
			decisionsTotal.WithLabelValues(ReasonCache).Inc()
			return Decision{
				UseAI:          false,
				Reason:         ReasonCache,
				CachedResponse: entries[idx].Response,
				CachedCategory: entries[idx].Category,
			}, nil
		}
	}

	// Rule 2: onboarding.
	if stats.TotalActivitiesRegistered < s.OnboardingCount {
		return s.decided(span, Decision{UseAI: true, Reason: ReasonOnboarding}), nil
	}

	// Rule 3: first activity of the day.
	if stats.TodayActivitiesCount == 0 {
		return s.decided(span, Decision{UseAI: true, Reason: ReasonFirstOfDay}), nil
	}

	// Rule 4: re-engagement after prolonged AI silence.
	if stats.LastAIResponseDate == nil || now.Sub(*stats.LastAIResponseDate) > s.ReengageAfter {
		return s.decided(span, Decision{UseAI: true, Reason: ReasonReengagement}), nil
	}

	// Rule 5: important activity.
	normalized := textsim.Normalize(title)
	for _, kw := range importantKeywords {
		if strings.Contains(normalized, kw) {
			return s.decided(span, Decision{UseAI: true, Reason: ReasonImportant}), nil
		}
	}

	// Rule 6: routine, serve a local template.
	return s.decided(span, Decision{UseAI: false, Reason: ReasonRoutine}), nil
}

func (s *StrategyService) decided(span trace.Span, d Decision) Decision {
	span.SetAttributes(attribute.String("decision.reason", d.Reason))
	decisionsTotal.WithLabelValues(d.Reason).Inc()
	return d
}

func (s *StrategyService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

// CostSavings estimates how much the cache/template default has saved over
// live AI calls.
type CostSavings struct {
	AICallsSaved         int64   `json:"ai_calls_saved"`
	EstimatedSavings     string  `json:"estimated_savings"`
	TemplateUsagePercent float64 `json:"template_usage_percent"`
}

// costPerCall approximates the per-request price of the completions API.
const costPerCall = 0.001

// CalculateSavings derives savings stats from activity totals.
func CalculateSavings(totalActivities, aiCalls int64) CostSavings {
	saved := totalActivities - aiCalls
	if saved < 0 {
		saved = 0
	}
	pct := 0.0
	if totalActivities > 0 {
		pct = float64(saved) / float64(totalActivities) * 100
	}
	return CostSavings{
		AICallsSaved:         saved,
		EstimatedSavings:     fmt.Sprintf("$%.2f", float64(saved)*costPerCall),
		TemplateUsagePercent: pct,
	}
}
