// Package services – QueueService
//
// This file implements the pending-input queue: inputs that arrive while
// the AI is unreachable are persisted and replayed later. Draining is
// deliberately gentle: one item per attempt, a short pause between items,
// and a longer cooldown after a failure. There is no retry cap and no
// backoff growth; an item that keeps failing just waits for the next pass.
package services

import (
	"context"
	"encoding/json"
	"strings"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/ltavares/tempo-backend/internal/domain"
	"github.com/ltavares/tempo-backend/internal/repo"
)

// Drain outcomes, used for metrics labels and the drain summary.
const (
	DrainProcessed = "processed"
	DrainRetry     = "retry"
	DrainEmpty     = "empty"
)

// ProcessedResult is the audit payload stored on a processed queue row.
type ProcessedResult struct {
	Intent   string `json:"intent"`
	Category string `json:"category,omitempty"`
	Summary  string `json:"summary,omitempty"`
	Response string `json:"response,omitempty"`
}

// DrainSummary reports one manual drain pass.
type DrainSummary struct {
	Processed  int `json:"processed"`
	Activities int `json:"activities"`
	Chats      int `json:"chats"`
	Remaining  int `json:"remaining"`
}

// QueueService stores inputs the AI could not handle live and replays them.
type QueueService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Intent classifies replayed inputs.
	Intent *IntentService
	// Activities registers replayed activity inputs.
	Activities *ActivityService
	// Chats answers replayed conversational inputs.
	Chats *ChatService

	// Log receives drain-loop events.
	Log zerolog.Logger

	// TickInterval is the period of the background drain loop.
	TickInterval time.Duration
	// Cooldown is the pause after a failed attempt before the pass ends.
	Cooldown time.Duration
	// FollowUpDelay is the pause between successive items in one pass.
	FollowUpDelay time.Duration
	// IntentTimeout bounds the classification call per item.
	IntentTimeout time.Duration
	// ProcessTimeout bounds the activity-processing call per item.
	ProcessTimeout time.Duration

	// Now is a clock seam for tests; defaults to time.Now.
	Now func() time.Time

	// draining guards against overlapping passes.
	draining atomic.Bool
}

// Enqueue stores raw text for later processing.
func (s *QueueService) Enqueue(ctx context.Context, text string) (*domain.PendingInput, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyInput
	}
	if utf8.RuneCountInString(text) > TitleMaxLen {
		return nil, ErrTooLong
	}
	item, err := repo.CreatePendingInput(ctx, s.DB, text, s.now())
	if err != nil {
		return nil, err
	}
	s.refreshGauge(ctx)
	return item, nil
}

// Counts returns the pending and processed row counts.
func (s *QueueService) Counts(ctx context.Context) (pending, processed int64, err error) {
	pending, err = repo.CountPending(ctx, s.DB)
	if err != nil {
		return 0, 0, err
	}
	processed, err = repo.CountProcessed(ctx, s.DB)
	return pending, processed, err
}

// DrainOne processes the oldest pending item. It returns one of the drain
// outcomes: DrainEmpty when the queue has nothing pending, DrainRetry when
// the item must stay queued (classifier offline or activity processing
// failed), DrainProcessed when the item was handled and marked.
func (s *QueueService) DrainOne(ctx context.Context) (outcome string, result ProcessedResult, err error) {
	item, err := repo.OldestPending(ctx, s.DB)
	if err != nil {
		if err == repo.ErrNotFound {
			queueDrainsTotal.WithLabelValues(DrainEmpty).Inc()
			return DrainEmpty, ProcessedResult{}, nil
		}
		return "", ProcessedResult{}, err
	}

	intent := s.classify(ctx, item.Text)
	if intent.UsingFallback {
		queueDrainsTotal.WithLabelValues(DrainRetry).Inc()
		return DrainRetry, ProcessedResult{}, nil
	}

	result = ProcessedResult{Intent: intent.Type}

	if intent.Type == IntentActivity {
		out, perr := s.processActivity(ctx, item)
		if perr != nil {
			s.Log.Warn().Err(perr).Str("input_id", item.ID).Msg("queue item kept for retry")
			queueDrainsTotal.WithLabelValues(DrainRetry).Inc()
			return DrainRetry, ProcessedResult{}, nil
		}
		result.Category = out.Category
		result.Summary = out.Summary
		result.Response = out.Response
	} else {
		reply := s.Chats.Reply(ctx, item.Text, TodayStats{})
		result.Response = reply.Message
	}

	payload, err := json.Marshal(result)
	if err != nil {
		return "", ProcessedResult{}, err
	}
	if err := repo.MarkProcessed(ctx, s.DB, item.ID, string(payload), s.now()); err != nil {
		return "", ProcessedResult{}, err
	}

	s.Log.Info().Str("input_id", item.ID).Str("intent", intent.Type).Msg("queue item processed")
	queueDrainsTotal.WithLabelValues(DrainProcessed).Inc()
	s.refreshGauge(ctx)
	return DrainProcessed, result, nil
}

// DrainAll runs DrainOne until the queue is empty or an item must be kept.
// Used by the manual drain endpoint; no pauses between items.
func (s *QueueService) DrainAll(ctx context.Context) (DrainSummary, error) {
	var sum DrainSummary
	if !s.draining.CompareAndSwap(false, true) {
		remaining, _ := repo.CountPending(ctx, s.DB)
		sum.Remaining = int(remaining)
		return sum, nil
	}
	defer s.draining.Store(false)

	for {
		outcome, result, err := s.DrainOne(ctx)
		if err != nil {
			return sum, err
		}
		if outcome != DrainProcessed {
			break
		}
		sum.Processed++
		if result.Intent == IntentActivity {
			sum.Activities++
		} else {
			sum.Chats++
		}
	}

	remaining, err := repo.CountPending(ctx, s.DB)
	if err != nil {
		return sum, err
	}
	sum.Remaining = int(remaining)
	return sum, nil
}

// Run drives the background drain loop until ctx is cancelled. Each tick
// starts at most one pass; a pass already in flight makes the tick a no-op.
func (s *QueueService) Run(ctx context.Context) {
	tick := s.TickInterval
	if tick <= 0 {
		tick = 30 * time.Second
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	s.Log.Info().Dur("tick", tick).Msg("queue drain loop started")
	for {
		select {
		case <-ctx.Done():
			s.Log.Info().Msg("queue drain loop stopped")
			return
		case <-ticker.C:
			s.pass(ctx)
		}
	}
}

// pass processes items one at a time with FollowUpDelay between successes.
// A retry or an error ends the pass after Cooldown; the next tick tries
// again from the same item.
func (s *QueueService) pass(ctx context.Context) {
	if !s.draining.CompareAndSwap(false, true) {
		return
	}
	defer s.draining.Store(false)

	for {
		outcome, _, err := s.DrainOne(ctx)
		if err != nil {
			s.Log.Error().Err(err).Msg("queue drain attempt failed")
			s.sleep(ctx, s.Cooldown)
			return
		}
		switch outcome {
		case DrainEmpty:
			return
		case DrainRetry:
			s.sleep(ctx, s.Cooldown)
			return
		case DrainProcessed:
			if !s.sleep(ctx, s.FollowUpDelay) {
				return
			}
		}
	}
}

// classify runs intent detection under the per-item timeout.
func (s *QueueService) classify(ctx context.Context, text string) IntentResult {
	if ForceActivity(text) {
		return IntentResult{Type: IntentActivity, Confidence: 1}
	}
	cctx := ctx
	if s.IntentTimeout > 0 {
		var cancel context.CancelFunc
		cctx, cancel = context.WithTimeout(ctx, s.IntentTimeout)
		defer cancel()
	}
	return s.Intent.Classify(cctx, text)
}

// processActivity replays a queued activity input. The activity is stored
// with the input's original timestamp; no open activity is closed and no
// cache entry is written on the replay path.
func (s *QueueService) processActivity(ctx context.Context, item *domain.PendingInput) (AIActivity, error) {
	cctx := ctx
	if s.ProcessTimeout > 0 {
		var cancel context.CancelFunc
		cctx, cancel = context.WithTimeout(ctx, s.ProcessTimeout)
		defer cancel()
	}
	out, err := s.Activities.ProcessActivity(cctx, item.Text, ActivityContext{})
	if err != nil {
		return AIActivity{}, err
	}
	_, err = repo.CreateActivity(ctx, s.DB, item.Text, out.Summary, out.Category, out.Response, domain.SourceAI, item.Timestamp)
	if err != nil {
		return AIActivity{}, err
	}
	return out, nil
}

// sleep waits for d or until ctx is cancelled; reports whether the full
// duration elapsed.
func (s *QueueService) sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// refreshGauge updates the pending-depth gauge; failures are ignored.
func (s *QueueService) refreshGauge(ctx context.Context) {
	if n, err := repo.CountPending(ctx, s.DB); err == nil {
		queuePendingGauge.Set(float64(n))
	}
}

func (s *QueueService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
