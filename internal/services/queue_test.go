package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/ltavares/tempo-backend/internal/ai"
	"github.com/ltavares/tempo-backend/internal/domain"
	"github.com/ltavares/tempo-backend/internal/repo"
)

func newQueueService(t *testing.T, client *ai.Client, now time.Time) *QueueService {
	t.Helper()
	db := newTestDB(t)
	strategy := &StrategyService{
		DB:              db,
		Threshold:       0.6,
		OnboardingCount: 20,
		ReengageAfter:   24 * time.Hour,
		Now:             func() time.Time { return now },
	}
	acts := NewActivityService(db, client, strategy, 5*time.Second)
	acts.Now = func() time.Time { return now }
	return &QueueService{
		DB:         db,
		Intent:     &IntentService{AI: client},
		Activities: acts,
		Chats:      &ChatService{DB: db, AI: client},
		Log:        zerolog.Nop(),
		Now:        func() time.Time { return now },
	}
}

func TestEnqueue_Validation(t *testing.T) {
	s := newQueueService(t, offlineAI(), time.Now())

	if _, err := s.Enqueue(context.Background(), "  "); !errors.Is(err, ErrEmptyInput) {
		t.Fatalf("expected ErrEmptyInput, got %v", err)
	}

	item, err := s.Enqueue(context.Background(), "lavar louça")
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if item.Processed {
		t.Fatalf("new item must be unprocessed")
	}
}

func TestDrainOne_EmptyQueue(t *testing.T) {
	s := newQueueService(t, offlineAI(), time.Now())

	outcome, _, err := s.DrainOne(context.Background())
	if err != nil {
		t.Fatalf("DrainOne: %v", err)
	}
	if outcome != DrainEmpty {
		t.Fatalf("outcome = %q; want empty", outcome)
	}
}

func TestDrainOne_OfflineKeepsItemQueued(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	s := newQueueService(t, offlineAI(), now)
	ctx := context.Background()

	if _, err := s.Enqueue(ctx, "lavar louça"); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	outcome, _, err := s.DrainOne(ctx)
	if err != nil {
		t.Fatalf("DrainOne: %v", err)
	}
	if outcome != DrainRetry {
		t.Fatalf("outcome = %q; want retry", outcome)
	}

	pending, processed, err := s.Counts(ctx)
	if err != nil {
		t.Fatalf("Counts: %v", err)
	}
	if pending != 1 || processed != 0 {
		t.Fatalf("counts = (%d, %d); item must stay queued", pending, processed)
	}
}

func TestDrainOne_ActivityReplay(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	client := fakeAI(t, map[string]string{
		markerIntent:   `{"type":"activity","confidence":0.9}`,
		markerActivity: `{"summary":"Louça","category":"🏠 Casa","response":"Feito! 🧹"}`,
	})
	s := newQueueService(t, client, now)
	ctx := context.Background()

	enqueuedAt := now.Add(-3 * time.Hour)
	item, err := repo.CreatePendingInput(ctx, s.DB, "lavar louça", enqueuedAt)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	outcome, result, err := s.DrainOne(ctx)
	if err != nil {
		t.Fatalf("DrainOne: %v", err)
	}
	if outcome != DrainProcessed {
		t.Fatalf("outcome = %q; want processed", outcome)
	}
	if result.Intent != IntentActivity || result.Category != "🏠 Casa" {
		t.Fatalf("result = %+v", result)
	}

	// The replayed activity keeps the original input timestamp.
	var acts []domain.Activity
	if err := s.DB.Find(&acts).Error; err != nil {
		t.Fatalf("load activities: %v", err)
	}
	if len(acts) != 1 {
		t.Fatalf("activities = %d; want 1", len(acts))
	}
	if !acts[0].StartedAt.Equal(enqueuedAt) {
		t.Fatalf("started_at = %v; want %v", acts[0].StartedAt, enqueuedAt)
	}
	if acts[0].Source != domain.SourceAI {
		t.Fatalf("source = %q; want ai", acts[0].Source)
	}

	// The queue row is retained with the result payload.
	var row domain.PendingInput
	if err := s.DB.First(&row, "id = ?", item.ID).Error; err != nil {
		t.Fatalf("load row: %v", err)
	}
	if !row.Processed || row.ProcessedAt == nil {
		t.Fatalf("row not marked processed: %+v", row)
	}
	var stored ProcessedResult
	if err := json.Unmarshal([]byte(row.Result), &stored); err != nil {
		t.Fatalf("result payload: %v", err)
	}
	if stored.Summary != "Louça" {
		t.Fatalf("stored result = %+v", stored)
	}

	// No cache entry is written on the replay path.
	entries, err := repo.ListCacheByCategory(ctx, s.DB, "")
	if err != nil {
		t.Fatalf("list cache: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("cache = %+v; want empty", entries)
	}
}

func TestDrainOne_ChatReplay(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	client := fakeAI(t, map[string]string{
		markerIntent: `{"type":"chat","confidence":0.8}`,
		markerChat:   `{"message":"Força! 💙","type":"empathy"}`,
	})
	s := newQueueService(t, client, now)
	ctx := context.Background()

	if _, err := s.Enqueue(ctx, "estou desanimado"); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	outcome, result, err := s.DrainOne(ctx)
	if err != nil {
		t.Fatalf("DrainOne: %v", err)
	}
	if outcome != DrainProcessed {
		t.Fatalf("outcome = %q; want processed", outcome)
	}
	if result.Intent != IntentChat || result.Response != "Força! 💙" {
		t.Fatalf("result = %+v", result)
	}

	// Chat items never create activities.
	var n int64
	if err := s.DB.Model(&domain.Activity{}).Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Fatalf("activities = %d; want 0", n)
	}
}

func TestDrainOne_FIFO(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	client := fakeAI(t, map[string]string{
		markerIntent:   `{"type":"activity","confidence":0.9}`,
		markerActivity: `{"summary":"s","category":"📝 Outros","response":"ok"}`,
	})
	s := newQueueService(t, client, now)
	ctx := context.Background()

	if _, err := repo.CreatePendingInput(ctx, s.DB, "primeiro", now.Add(-2*time.Hour)); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := repo.CreatePendingInput(ctx, s.DB, "segundo", now.Add(-time.Hour)); err != nil {
		t.Fatalf("seed: %v", err)
	}

	if _, _, err := s.DrainOne(ctx); err != nil {
		t.Fatalf("DrainOne: %v", err)
	}

	remaining, err := repo.ListPending(ctx, s.DB)
	if err != nil {
		t.Fatalf("ListPending: %v", err)
	}
	if len(remaining) != 1 || remaining[0].Text != "segundo" {
		t.Fatalf("remaining = %+v; oldest must drain first", remaining)
	}
}

func TestDrainOne_ForceActivityPrefixSkipsClassifier(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	// Only the activity prompt is scripted: a classifier call would 500 and
	// surface as a retry, failing the assertion below.
	client := fakeAI(t, map[string]string{
		markerActivity: `{"summary":"Deploy","category":"💼 Trabalho","response":"ok"}`,
	})
	s := newQueueService(t, client, now)
	ctx := context.Background()

	if _, err := s.Enqueue(ctx, "task: deploy da api"); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	outcome, result, err := s.DrainOne(ctx)
	if err != nil {
		t.Fatalf("DrainOne: %v", err)
	}
	if outcome != DrainProcessed {
		t.Fatalf("outcome = %q; want processed", outcome)
	}
	if result.Intent != IntentActivity {
		t.Fatalf("result = %+v", result)
	}
}

func TestDrainAll_ProcessesWholeBacklog(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	client := fakeAI(t, map[string]string{
		markerIntent:   `{"type":"activity","confidence":0.9}`,
		markerActivity: `{"summary":"s","category":"📝 Outros","response":"ok"}`,
	})
	s := newQueueService(t, client, now)
	ctx := context.Background()

	for i, text := range []string{"um", "dois", "tres"} {
		if _, err := repo.CreatePendingInput(ctx, s.DB, text, now.Add(time.Duration(i)*time.Minute)); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	sum, err := s.DrainAll(ctx)
	if err != nil {
		t.Fatalf("DrainAll: %v", err)
	}
	if sum.Processed != 3 || sum.Activities != 3 || sum.Chats != 0 {
		t.Fatalf("summary = %+v", sum)
	}
	if sum.Remaining != 0 {
		t.Fatalf("remaining = %d; want 0", sum.Remaining)
	}
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	s := newQueueService(t, offlineAI(), time.Now())
	s.TickInterval = 5 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("Run did not stop after cancel")
	}
}
