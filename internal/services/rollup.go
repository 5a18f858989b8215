// Package services – RollupService
//
// The daily rollup condenses a day's raw activities into one feedback
// record (theme, score, insights, suggestion) and then deletes the raw
// rows. The analysis is AI-only: without a reachable completions endpoint
// the rollup fails and the day stays intact. Previous feedbacks are fed
// back into the prompt so the analysis adapts over time.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/ltavares/tempo-backend/internal/ai"
	"github.com/ltavares/tempo-backend/internal/domain"
	"github.com/ltavares/tempo-backend/internal/repo"
)

// rollupHistoryDays caps how many previous feedbacks feed the prompt.
const rollupHistoryDays = 7

// DailyAnalysis is the parsed rollup completion.
type DailyAnalysis struct {
	Theme      string   `json:"theme"`
	Score      int      `json:"score"`
	Insights   []string `json:"insights"`
	Suggestion string   `json:"suggestion"`
}

// RollupService produces daily feedback records from raw activities.
type RollupService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// AI is the completions client; required, no local fallback.
	AI *ai.Client

	// Timeout bounds the analysis call.
	Timeout time.Duration

	// Now is a clock seam for tests; defaults to time.Now.
	Now func() time.Time
}

const rollupSystemPrompt = `Você é um coach de produtividade INTELIGENTE que APRENDE com o usuário ao longo do tempo.

IMPORTANTE: Use o histórico dos dias anteriores para:
- Identificar padrões de comportamento
- Reconhecer progresso ou regressão
- Adaptar sugestões baseadas no que funcionou antes
- Ser cada vez mais personalizado e específico

Retorne APENAS um JSON válido (sem markdown):
{
  "theme": "tema principal do dia em 2-4 palavras",
  "score": número de 0 a 10,
  "insights": ["insight específico 1", "insight específico 2", "insight específico 3"],
  "suggestion": "sugestão PERSONALIZADA para amanhã baseada no histórico"
}

Seja direto, honesto, construtivo e ADAPTATIVO. Quanto mais dias, mais personalizado você deve ser.`

// Rollup analyzes the given day and replaces its activities with a single
// feedback record. Returns ErrRollupExists when the day was already rolled
// up, ErrNoActivities when there is nothing to analyze, and ErrAIRequired
// when the completions endpoint has no key configured.
func (s *RollupService) Rollup(ctx context.Context, date time.Time) (*domain.Feedback, error) {
	start := dayStart(date)
	end := start.Add(24 * time.Hour)
	dateStr := start.Format("2006-01-02")

	if _, err := repo.GetFeedback(ctx, s.DB, dateStr, domain.FeedbackTypeDaily); err == nil {
		return nil, ErrRollupExists
	} else if !errors.Is(err, repo.ErrNotFound) {
		return nil, err
	}

	activities, err := repo.ListActivitiesBetween(ctx, s.DB, start, end)
	if err != nil {
		return nil, err
	}
	if len(activities) == 0 {
		return nil, ErrNoActivities
	}

	if s.AI == nil || s.AI.Offline() {
		return nil, ErrAIRequired
	}

	history, err := repo.ListFeedbacksPage(ctx, s.DB, 0, rollupHistoryDays)
	if err != nil {
		return nil, err
	}

	cctx := ctx
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		cctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	var analysis DailyAnalysis
	err = s.AI.CompleteObject(cctx, rollupSystemPrompt, rollupPrompt(activities, history), 0.8, 600, &analysis)
	recordAICall("rollup", err)
	if err != nil {
		return nil, err
	}
	if analysis.Score < 0 {
		analysis.Score = 0
	}
	if analysis.Score > 10 {
		analysis.Score = 10
	}

	insights, err := json.Marshal(analysis.Insights)
	if err != nil {
		return nil, err
	}

	fb, err := repo.CreateFeedback(ctx, s.DB, dateStr, domain.FeedbackTypeDaily, analysis.Theme, analysis.Score, string(insights), analysis.Suggestion)
	if err != nil {
		if errors.Is(err, repo.ErrDuplicateFeedback) {
			return nil, ErrRollupExists
		}
		return nil, err
	}

	if _, err := repo.DeleteActivitiesBetween(ctx, s.DB, start, end); err != nil {
		return fb, err
	}
	return fb, nil
}

// ListPage returns a page of feedback records plus the total count.
func (s *RollupService) ListPage(ctx context.Context, page, pageSize int) ([]domain.Feedback, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	total, err := repo.CountFeedbacks(ctx, s.DB)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Feedback{}, 0, nil
	}
	items, err := repo.ListFeedbacksPage(ctx, s.DB, offset, pageSize)
	return items, total, err
}

// rollupPrompt renders the day's timeline plus the recent feedback history.
func rollupPrompt(activities []domain.Activity, history []domain.Feedback) string {
	var lines []string
	for _, a := range activities {
		minutes := 0
		if a.DurationMinutes != nil {
			minutes = *a.DurationMinutes
		}
		lines = append(lines, fmt.Sprintf("%s - %s (%dmin)", a.StartedAt.Format("15:04"), a.Title, minutes))
	}
	summary := strings.Join(lines, "\n")

	historyContext := "\n\n(Primeiro dia de análise - sem histórico ainda)"
	if len(history) > 0 {
		var entries []string
		for _, f := range history {
			var insights []string
			_ = json.Unmarshal([]byte(f.Insights), &insights)
			entries = append(entries, fmt.Sprintf("%s (%d/10) - %s\n  Insights: %s\n  Sugestão dada: %s",
				f.Date, f.Score, f.Theme, strings.Join(insights, ", "), f.Suggestion))
		}
		historyContext = "\n\nHISTÓRICO DOS ÚLTIMOS DIAS (use para aprender padrões do usuário):\n" +
			strings.Join(entries, "\n\n")
	}

	return fmt.Sprintf("Atividades de hoje:\n\n%s%s", summary, historyContext)
}
