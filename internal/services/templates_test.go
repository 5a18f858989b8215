package services

import (
	"math/rand"
	"strings"
	"testing"
)

func pinnedRNG() *rand.Rand { return rand.New(rand.NewSource(1)) }

func TestLocalTemplate_KnownCategory(t *testing.T) {
	got := LocalTemplate("💼 Trabalho", nil, pinnedRNG())
	found := false
	for _, opt := range localTemplates["💼 Trabalho"] {
		if got == opt {
			found = true
			break
		}
	}
	if !found {
		t.Fatalf("reply %q not among the category options", got)
	}
}

func TestLocalTemplate_UnknownCategoryFallsBack(t *testing.T) {
	got := LocalTemplate("🤷 Inexistente", nil, pinnedRNG())
	found := false
	for _, opt := range localTemplates["📝 Outros"] {
		if got == opt {
			found = true
			break
		}
	}
	if !found {
		t.Fatalf("reply %q not among the fallback options", got)
	}
}

func TestLocalTemplate_RestAfterLongWork(t *testing.T) {
	ctx := &TemplateContext{PreviousCategory: "💼 Trabalho", TotalMinutesWorked: 200}
	got := LocalTemplate("🧘 Saúde", ctx, pinnedRNG())
	if got != "Descanso merecido após tanto trabalho! 😌" {
		t.Fatalf("reply = %q", got)
	}
}

func TestLocalTemplate_LeisureAfterWork(t *testing.T) {
	ctx := &TemplateContext{PreviousCategory: "💼 Trabalho", TotalMinutesWorked: 150}
	got := LocalTemplate("🎮 Lazer", ctx, pinnedRNG())
	if got != "Trabalhou bem, agora é hora de relaxar! 🎮" {
		t.Fatalf("reply = %q", got)
	}
}

func TestLocalTemplate_RepetitionRule(t *testing.T) {
	ctx := &TemplateContext{SameActivityCount: 3, TotalMinutesWorked: 100}
	got := LocalTemplate("🏠 Casa", ctx, pinnedRNG())
	found := false
	for _, opt := range repetitionTemplates {
		if got == opt {
			found = true
			break
		}
	}
	if !found {
		t.Fatalf("reply %q not a repetition template", got)
	}
}

func TestLocalTemplate_LongWorkSession(t *testing.T) {
	ctx := &TemplateContext{TotalMinutesWorked: 400}
	got := LocalTemplate("💼 Trabalho", ctx, pinnedRNG())
	if got != "Jornada intensa! Já pensou em uma pausa? 💼⏸️" {
		t.Fatalf("reply = %q", got)
	}
}

func TestLocalTemplate_FirstLeisureOfLightDay(t *testing.T) {
	ctx := &TemplateContext{TotalMinutesWorked: 30}
	got := LocalTemplate("🎮 Lazer", ctx, pinnedRNG())
	if got != "Começando o dia com leveza! 😊" {
		t.Fatalf("reply = %q", got)
	}
}

func TestLocalTemplate_RuleOrder(t *testing.T) {
	// Rest-after-work outranks the repetition rule when both apply.
	ctx := &TemplateContext{
		PreviousCategory:   "💼 Trabalho",
		TotalMinutesWorked: 300,
		SameActivityCount:  5,
	}
	got := LocalTemplate("🧘 Saúde", ctx, pinnedRNG())
	if !strings.Contains(got, "Descanso merecido") {
		t.Fatalf("reply = %q; rest rule should win", got)
	}
}
