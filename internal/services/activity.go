// Package services – ActivityService
//
// This file implements the ActivityService, which turns a free-text title
// into a persisted activity. It closes any open activity, assembles the
// day's context, asks the strategy layer whether to spend an AI call, and
// produces the summary/category/response triple from the AI, the response
// cache, or a local template. AI responses are written back to the cache so
// similar titles can reuse them.
//
// Service-level errors (e.g., ErrEmptyInput) are returned for predictable
// cases so handlers can map them to HTTP results consistently.
package services

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/ltavares/tempo-backend/internal/ai"
	"github.com/ltavares/tempo-backend/internal/domain"
	"github.com/ltavares/tempo-backend/internal/repo"
	"github.com/ltavares/tempo-backend/internal/textsim"
)

// TitleMaxLen caps submitted titles by rune length.
const TitleMaxLen = 500

// summaryMaxLen caps the fallback summary derived from the raw title.
const summaryMaxLen = 50

// defaultCategory is used when neither the AI nor the caller supplied one.
const defaultCategory = "📝 Geral"

// fallbackResponse is the canned reply used when a live AI call fails
// mid-registration. The activity is still persisted.
const fallbackResponse = "Registrado! Continue assim! 💪"

// AIActivity is the parsed activity-processing completion.
type AIActivity struct {
	Summary  string `json:"summary"`
	Category string `json:"category"`
	Response string `json:"response"`
}

// PreviousActivity is the just-closed activity, fed to the AI as context.
type PreviousActivity struct {
	Title           string
	Summary         string
	Category        string
	DurationMinutes int
}

// TodayStats summarizes the current day for prompts and template rules.
type TodayStats struct {
	ActivitiesCount int
	TotalMinutes    int
}

// ActivityContext carries everything the processing prompt knows about
// the user's day.
type ActivityContext struct {
	Previous *PreviousActivity
	Today    TodayStats
}

// ActivityService registers activities and produces their responses.
type ActivityService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// AI is the completions client; may be offline (no key).
	AI *ai.Client
	// Strategy decides between cache, AI, and template per activity.
	Strategy *StrategyService

	// ProcessTimeout bounds a single activity-processing AI call.
	ProcessTimeout time.Duration

	// Now is a clock seam for tests; defaults to time.Now.
	Now func() time.Time

	mu  sync.Mutex
	rng *rand.Rand
}

// NewActivityService constructs an ActivityService with a seeded template
// picker.
func NewActivityService(db *gorm.DB, client *ai.Client, strategy *StrategyService, processTimeout time.Duration) *ActivityService {
	return &ActivityService{
		DB:             db,
		AI:             client,
		Strategy:       strategy,
		ProcessTimeout: processTimeout,
		rng:            rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

const activitySystemPrompt = "Você é um coach de produtividade empático e motivador. Responda sempre em JSON válido."

// ProcessActivity asks the AI for the summary/category/response triple for
// title given the day's context. It fails hard (no local fallback) so the
// queue path can leave the item pending for the next pass.
func (s *ActivityService) ProcessActivity(ctx context.Context, title string, actx ActivityContext) (AIActivity, error) {
	var out AIActivity
	err := s.AI.CompleteObject(ctx, activitySystemPrompt, activityPrompt(title, actx), 0.7, 200, &out)
	recordAICall("activity", err)
	if err != nil {
		return AIActivity{}, err
	}
	if out.Summary == "" {
		out.Summary = clip(title, summaryMaxLen)
	}
	if out.Category == "" {
		out.Category = defaultCategory
	}
	if out.Response == "" {
		out.Response = fallbackResponse
	}
	return out, nil
}

// activityPrompt renders the productivity-coach prompt with the previous
// activity and today's totals appended as context blocks.
func activityPrompt(title string, actx ActivityContext) string {
	contextInfo := "\n\n(Primeira atividade do dia)"
	if p := actx.Previous; p != nil {
		category := p.Category
		if category == "" {
			category = "N/A"
		}
		contextInfo = fmt.Sprintf("\n\nATIVIDADE ANTERIOR: %q (%dmin)\nCATEGORIA: %s",
			p.Title, p.DurationMinutes, category)
	}

	statsInfo := fmt.Sprintf("\n\nESTATÍSTICAS DE HOJE:\n- %d atividades registradas\n- %dh%dmin trabalhados",
		actx.Today.ActivitiesCount, actx.Today.TotalMinutes/60, actx.Today.TotalMinutes%60)

	return fmt.Sprintf(`Você é um assistente de produtividade que responde INSTANTANEAMENTE ao usuário.

O usuário acabou de dizer: %q

Retorne APENAS um JSON válido (sem markdown):
{
  "summary": "nome curto e claro (max 4 palavras)",
  "category": "emoji + categoria (ex: 🏠 Casa, 💼 Trabalho, 🎮 Lazer, 🍳 Alimentação, 🚿 Higiene, 🧘 Saúde, 📚 Estudos)",
  "response": "resposta motivacional CURTA (1 frase, max 15 palavras, use emoji)"
}

REGRAS DE CATEGORIZAÇÃO:
- Se mencionou FINALIZAR/CONCLUIR projeto/trabalho E algo pessoal depois (banho, descansar, etc), use a categoria da NOVA atividade pessoal
- 💼 Trabalho: projetos, reuniões, tarefas profissionais, programação, desenvolvimento
- 🏠 Casa: limpeza, organização, arrumar casa, tarefas domésticas
- 🚿 Higiene: banho, escovar dentes, lavar rosto, barbear, cuidados pessoais
- 🧘 Saúde: exercícios, descanso, meditação, dormir, alongamento, relaxar
- 🍳 Alimentação: cozinhar, comer, preparar comida, almoço, jantar, lanche
- 🎮 Lazer: jogos, séries, filmes, hobby, diversão, entretenimento
- 📚 Estudos: cursos, leitura, aprendizado, faculdade, pesquisa

IMPORTANTE:
- Summary: foque na PRÓXIMA ação se houver transição (ex: "Banho" se disse "finalizei X agora vou tomar banho")
- Category: escolha baseado na PRÓXIMA atividade, não na anterior mencionada
- Response: reconheça a conquista E incentive a próxima ação
%s%s

Seja natural e humano!`, title, contextInfo, statsInfo)
}

// Register validates the title, closes any open activity, decides the
// response strategy, and persists the new activity. The live path never
// fails on AI errors: a failed call degrades to the static fallback and the
// activity is stored with source "template".
func (s *ActivityService) Register(ctx context.Context, title, categoryHint string) (*domain.Activity, Decision, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, Decision{}, ErrEmptyInput
	}
	if utf8.RuneCountInString(title) > TitleMaxLen {
		return nil, Decision{}, ErrTooLong
	}

	now := s.now()
	today, err := s.todayStats(ctx, now)
	if err != nil {
		return nil, Decision{}, err
	}

	previous, err := s.closeOpen(ctx, now)
	if err != nil {
		return nil, Decision{}, err
	}

	stats, err := repo.UserStats(ctx, s.DB, now)
	if err != nil {
		return nil, Decision{}, err
	}

	decision, err := s.Strategy.Decide(ctx, title, categoryHint, stats)
	if err != nil {
		return nil, Decision{}, err
	}

	summary := clip(title, summaryMaxLen)
	category := categoryHint
	if category == "" {
		category = defaultCategory
	}

	var response, source string
	switch {
	case decision.CachedResponse != "":
		response = decision.CachedResponse
		if decision.CachedCategory != "" {
			category = decision.CachedCategory
		}
		source = domain.SourceCache

	case decision.UseAI:
		cctx := ctx
		if s.ProcessTimeout > 0 {
			var cancel context.CancelFunc
			cctx, cancel = context.WithTimeout(ctx, s.ProcessTimeout)
			defer cancel()
		}
		out, aiErr := s.ProcessActivity(cctx, title, ActivityContext{Previous: previous, Today: today})
		if aiErr != nil {
			response = fallbackResponse
			source = domain.SourceTemplate
			break
		}
		summary = out.Summary
		category = out.Category
		response = out.Response
		source = domain.SourceAI

	default:
		response = s.pickTemplate(ctx, title, category, previous, today)
		source = domain.SourceTemplate
	}

	activity, err := repo.CreateActivity(ctx, s.DB, title, summary, category, response, source, now)
	if err != nil {
		return nil, Decision{}, err
	}

	if source == domain.SourceAI {
		// Best effort; a cache write failure never fails the registration.
		_, _ = repo.InsertCacheEntry(ctx, s.DB, textsim.Normalize(title), category, response, now)
	}

	return activity, decision, nil
}

// ListPage returns a page of activities plus the total count.
func (s *ActivityService) ListPage(ctx context.Context, page, pageSize int) ([]domain.Activity, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	total, err := repo.CountActivities(ctx, s.DB)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Activity{}, 0, nil
	}
	items, err := repo.ListActivitiesPage(ctx, s.DB, offset, pageSize)
	return items, total, err
}

// Today returns the current local day's activities, oldest first.
func (s *ActivityService) Today(ctx context.Context) ([]domain.Activity, error) {
	now := s.now()
	start := dayStart(now)
	return repo.ListActivitiesBetween(ctx, s.DB, start, start.Add(24*time.Hour))
}

// closeOpen finishes the open activity, if any, and maps it to prompt
// context.
func (s *ActivityService) closeOpen(ctx context.Context, now time.Time) (*PreviousActivity, error) {
	closed, err := repo.FinishOpenActivity(ctx, s.DB, now)
	if err != nil {
		return nil, err
	}
	if closed == nil {
		return nil, nil
	}
	minutes := 0
	if closed.DurationMinutes != nil {
		minutes = *closed.DurationMinutes
	}
	return &PreviousActivity{
		Title:           closed.Title,
		Summary:         closed.Summary,
		Category:        closed.Category,
		DurationMinutes: minutes,
	}, nil
}

// todayStats sums the day's registered activities and worked minutes.
func (s *ActivityService) todayStats(ctx context.Context, now time.Time) (TodayStats, error) {
	start := dayStart(now)
	items, err := repo.ListActivitiesBetween(ctx, s.DB, start, start.Add(24*time.Hour))
	if err != nil {
		return TodayStats{}, err
	}
	var stats TodayStats
	stats.ActivitiesCount = len(items)
	for _, a := range items {
		if a.DurationMinutes != nil {
			stats.TotalMinutes += *a.DurationMinutes
		}
	}
	return stats, nil
}

// pickTemplate selects a local template using the day's history signals.
func (s *ActivityService) pickTemplate(ctx context.Context, title, category string, previous *PreviousActivity, today TodayStats) string {
	tctx := &TemplateContext{TotalMinutesWorked: today.TotalMinutes}
	if previous != nil {
		tctx.PreviousCategory = previous.Category
	}
	tctx.SameActivityCount = s.sameActivityCount(ctx, title)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rng == nil {
		s.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return LocalTemplate(category, tctx, s.rng)
}

// sameActivityCount counts today's activities whose normalized title
// matches the incoming one. Errors degrade to zero; this only tunes the
// template choice.
func (s *ActivityService) sameActivityCount(ctx context.Context, title string) int {
	start := dayStart(s.now())
	items, err := repo.ListActivitiesBetween(ctx, s.DB, start, start.Add(24*time.Hour))
	if err != nil {
		return 0
	}
	want := textsim.Normalize(title)
	if want == "" {
		return 0
	}
	n := 0
	for _, a := range items {
		if textsim.Normalize(a.Title) == want {
			n++
		}
	}
	return n
}

func (s *ActivityService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// dayStart returns midnight of t's local day.
func dayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// clip truncates s to at most n runes.
func clip(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
