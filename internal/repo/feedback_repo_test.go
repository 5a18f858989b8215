package repo

import (
	"context"
	"errors"
	"testing"

	"github.com/ltavares/tempo-backend/internal/domain"
)

func TestCreateFeedback_AndGet(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	f, err := CreateFeedback(ctx, db, "2026-03-10", domain.FeedbackTypeDaily, "Dia produtivo", 8, `["insight"]`, "Descanse mais")
	if err != nil {
		t.Fatalf("CreateFeedback: %v", err)
	}
	if f.ID == "" {
		t.Fatalf("expected generated ID")
	}

	got, err := GetFeedback(ctx, db, "2026-03-10", domain.FeedbackTypeDaily)
	if err != nil {
		t.Fatalf("GetFeedback: %v", err)
	}
	if got.Theme != "Dia produtivo" || got.Score != 8 {
		t.Fatalf("got %+v", got)
	}
}

func TestCreateFeedback_DuplicateDate(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if _, err := CreateFeedback(ctx, db, "2026-03-10", domain.FeedbackTypeDaily, "a", 5, "[]", ""); err != nil {
		t.Fatalf("first: %v", err)
	}
	_, err := CreateFeedback(ctx, db, "2026-03-10", domain.FeedbackTypeDaily, "b", 6, "[]", "")
	if !errors.Is(err, ErrDuplicateFeedback) {
		t.Fatalf("expected ErrDuplicateFeedback, got %v", err)
	}
}

func TestGetFeedback_NotFound(t *testing.T) {
	db := newTestDB(t)
	_, err := GetFeedback(context.Background(), db, "2026-01-01", domain.FeedbackTypeDaily)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListFeedbacksPage_NewestFirst(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	for _, d := range []string{"2026-03-08", "2026-03-10", "2026-03-09"} {
		if _, err := CreateFeedback(ctx, db, d, domain.FeedbackTypeDaily, "t", 5, "[]", ""); err != nil {
			t.Fatalf("seed %s: %v", d, err)
		}
	}

	page, err := ListFeedbacksPage(ctx, db, 0, 2)
	if err != nil {
		t.Fatalf("ListFeedbacksPage: %v", err)
	}
	if len(page) != 2 || page[0].Date != "2026-03-10" || page[1].Date != "2026-03-09" {
		t.Fatalf("page = %+v", page)
	}

	total, err := CountFeedbacks(ctx, db)
	if err != nil || total != 3 {
		t.Fatalf("CountFeedbacks = (%d, %v); want 3", total, err)
	}
}
