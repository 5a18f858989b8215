// Package services – IntentService.
//
// Classifies free text into activity / chat / question / feedback by
// delegating to the AI endpoint. The policy is fail-open: when the AI cannot
// answer (no key, transport failure, malformed reply) the result carries
// UsingFallback=true and a conservative default type, never an error.
// Unavailability must degrade classification, not lose input.
package services

import (
	"context"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/ltavares/tempo-backend/internal/ai"
)

// Intent types the classifier can produce.
const (
	IntentActivity = "activity"
	IntentChat     = "chat"
	IntentQuestion = "question"
	IntentFeedback = "feedback"
)

// FallbackMessage is shown to the user when the classifier is offline and
// the input was queued for later processing.
const FallbackMessage = "🔌 IA offline - Seus inputs estão sendo salvos para análise posterior"

// IntentResult is the outcome of a classification attempt.
type IntentResult struct {
	Type       string  `json:"type"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning,omitempty"`

	// UsingFallback is true when the AI could not be consulted; Type then
	// defaults to "activity" so unclassifiable input is queued rather than
	// dropped.
	UsingFallback   bool   `json:"using_fallback"`
	FallbackMessage string `json:"fallback_message,omitempty"`
}

const intentSystemPrompt = `Você é um classificador de intenção. Analise o texto do usuário e determine se ele quer:
- "activity": registrar uma atividade/tarefa (ex: "limpeza casa", "jogar", "trabalhar", "estudando")
- "chat": conversar ou desabafar (ex: "estou desanimado", "tô cansado", "não sei o que fazer")
- "question": fazer uma pergunta (ex: "como funciona?", "por que preciso disso?")
- "feedback": dar feedback sobre o sistema (ex: "você é chato", "isso é legal", "não gostei")

Responda APENAS com um JSON no formato:
{"type": "activity"|"chat"|"question"|"feedback", "confidence": 0.0-1.0, "reasoning": "breve explicação"}

Seja preciso e direto. Textos muito curtos como "jogar", "limpeza" são atividades. Emoções e desabafos são chat.`

// IntentService classifies user input via the AI client.
type IntentService struct {
	AI *ai.Client
}

// Classify determines the intent of text. It never returns an error: every
// failure mode collapses into the fallback result.
func (s *IntentService) Classify(ctx context.Context, text string) IntentResult {
	tr := otel.Tracer("services/IntentService")
	ctx, span := tr.Start(ctx, "Classify")
	defer span.End()

	var out struct {
		Type       string  `json:"type"`
		Confidence float64 `json:"confidence"`
		Reasoning  string  `json:"reasoning"`
	}
	// Low temperature keeps classification consistent across retries.
	err := s.AI.CompleteObject(ctx, intentSystemPrompt, text, 0.3, 100, &out)
	recordAICall("intent", err)
	if err != nil {
		log.Warn().Err(err).Msg("intent classification unavailable, using fallback")
		span.SetAttributes(attribute.Bool("intent.fallback", true))
		return fallbackIntent()
	}

	switch out.Type {
	case IntentActivity, IntentChat, IntentQuestion, IntentFeedback:
	default:
		// Schema violation: treat like a malformed response.
		log.Warn().Str("type", out.Type).Msg("intent reply outside known types, using fallback")
		span.SetAttributes(attribute.Bool("intent.fallback", true))
		return fallbackIntent()
	}

	span.SetAttributes(attribute.String("intent.type", out.Type))
	return IntentResult{
		Type:       out.Type,
		Confidence: out.Confidence,
		Reasoning:  out.Reasoning,
	}
}

func fallbackIntent() IntentResult {
	return IntentResult{
		Type:            IntentActivity,
		Confidence:      0,
		UsingFallback:   true,
		FallbackMessage: FallbackMessage,
	}
}

// forceActivityRE matches prefixes with which the user explicitly asks to
// register an activity, bypassing intent detection entirely.
var forceActivityRE = regexp.MustCompile(`^(registrar|atividade|task|fazendo|inicio):`)

// ForceActivity reports whether text explicitly requests activity
// registration.
func ForceActivity(text string) bool {
	return forceActivityRE.MatchString(strings.ToLower(strings.TrimSpace(text)))
}
