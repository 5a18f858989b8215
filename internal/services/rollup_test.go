package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/ltavares/tempo-backend/internal/domain"
	"github.com/ltavares/tempo-backend/internal/repo"
)

func TestRollup_NoActivities(t *testing.T) {
	s := &RollupService{DB: newTestDB(t), AI: offlineAI()}
	_, err := s.Rollup(context.Background(), time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC))
	if !errors.Is(err, ErrNoActivities) {
		t.Fatalf("expected ErrNoActivities, got %v", err)
	}
}

func TestRollup_AlreadyExists(t *testing.T) {
	s := &RollupService{DB: newTestDB(t), AI: offlineAI()}
	ctx := context.Background()

	if _, err := repo.CreateFeedback(ctx, s.DB, "2026-03-10", domain.FeedbackTypeDaily, "t", 5, "[]", ""); err != nil {
		t.Fatalf("seed: %v", err)
	}
	_, err := s.Rollup(ctx, time.Date(2026, 3, 10, 23, 0, 0, 0, time.UTC))
	if !errors.Is(err, ErrRollupExists) {
		t.Fatalf("expected ErrRollupExists, got %v", err)
	}
}

func TestRollup_AIRequired(t *testing.T) {
	s := &RollupService{DB: newTestDB(t), AI: offlineAI()}
	ctx := context.Background()
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	if _, err := repo.CreateActivity(ctx, s.DB, "trabalho", "", "", "", domain.SourceTemplate, day.Add(9*time.Hour)); err != nil {
		t.Fatalf("seed: %v", err)
	}

	_, err := s.Rollup(ctx, day)
	if !errors.Is(err, ErrAIRequired) {
		t.Fatalf("expected ErrAIRequired, got %v", err)
	}

	// The day must stay intact when the analysis cannot run.
	n, err := repo.CountActivities(ctx, s.DB)
	if err != nil || n != 1 {
		t.Fatalf("activities = (%d, %v); want 1", n, err)
	}
}

func TestRollup_Success(t *testing.T) {
	client := fakeAI(t, map[string]string{
		markerRollup: `{"theme":"Dia produtivo","score":8,"insights":["bom foco","boa pausa"],"suggestion":"Durma cedo"}`,
	})
	s := &RollupService{DB: newTestDB(t), AI: client, Timeout: 5 * time.Second}
	ctx := context.Background()
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	if _, err := repo.CreateActivity(ctx, s.DB, "trabalho", "", "💼 Trabalho", "", domain.SourceAI, day.Add(9*time.Hour)); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := repo.CreateActivity(ctx, s.DB, "almoço", "", "🍳 Alimentação", "", domain.SourceTemplate, day.Add(12*time.Hour)); err != nil {
		t.Fatalf("seed: %v", err)
	}
	// An activity on the next day must survive the rollup.
	if _, err := repo.CreateActivity(ctx, s.DB, "amanhã", "", "", "", domain.SourceTemplate, day.Add(25*time.Hour)); err != nil {
		t.Fatalf("seed: %v", err)
	}

	fb, err := s.Rollup(ctx, day)
	if err != nil {
		t.Fatalf("Rollup: %v", err)
	}
	if fb.Date != "2026-03-10" || fb.Theme != "Dia produtivo" || fb.Score != 8 {
		t.Fatalf("feedback = %+v", fb)
	}
	var insights []string
	if err := json.Unmarshal([]byte(fb.Insights), &insights); err != nil {
		t.Fatalf("insights payload: %v", err)
	}
	if len(insights) != 2 {
		t.Fatalf("insights = %v", insights)
	}

	// The analyzed day's activities are gone; the next day's remain.
	left, err := repo.ListActivitiesBetween(ctx, s.DB, day, day.Add(48*time.Hour))
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(left) != 1 || left[0].Title != "amanhã" {
		t.Fatalf("remaining = %+v", left)
	}
}

func TestRollup_ScoreClamped(t *testing.T) {
	client := fakeAI(t, map[string]string{
		markerRollup: `{"theme":"t","score":15,"insights":[],"suggestion":""}`,
	})
	s := &RollupService{DB: newTestDB(t), AI: client}
	ctx := context.Background()
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	if _, err := repo.CreateActivity(ctx, s.DB, "x", "", "", "", domain.SourceTemplate, day.Add(time.Hour)); err != nil {
		t.Fatalf("seed: %v", err)
	}

	fb, err := s.Rollup(ctx, day)
	if err != nil {
		t.Fatalf("Rollup: %v", err)
	}
	if fb.Score != 10 {
		t.Fatalf("score = %d; want clamped to 10", fb.Score)
	}
}

func TestRollupListPage(t *testing.T) {
	s := &RollupService{DB: newTestDB(t), AI: offlineAI()}
	ctx := context.Background()

	items, total, err := s.ListPage(ctx, 1, 10)
	if err != nil || total != 0 || len(items) != 0 {
		t.Fatalf("empty list = (%v, %d, %v)", items, total, err)
	}

	for _, d := range []string{"2026-03-08", "2026-03-09", "2026-03-10"} {
		if _, err := repo.CreateFeedback(ctx, s.DB, d, domain.FeedbackTypeDaily, "t", 5, "[]", ""); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	items, total, err = s.ListPage(ctx, 1, 2)
	if err != nil {
		t.Fatalf("ListPage: %v", err)
	}
	if total != 3 || len(items) != 2 || items[0].Date != "2026-03-10" {
		t.Fatalf("page = (%d items, total %d, first %s)", len(items), total, items[0].Date)
	}
}
