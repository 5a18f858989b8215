// Package services – ChatService
//
// Handles the conversational intents (chat, question, feedback): the user is
// talking to the coach, not registering an activity. Replies come from the
// AI with the empathetic-coach persona; when the AI cannot answer, a small
// set of canned replies keeps the conversation from dead-ending.
package services

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/ltavares/tempo-backend/internal/ai"
)

// Reply types, mirrored in the prompt contract.
const (
	ReplyEmpathy        = "empathy"
	ReplyMotivation     = "motivation"
	ReplyAnswer         = "answer"
	ReplyAcknowledgment = "acknowledgment"
)

// ChatReply is the coach's answer to a conversational input.
type ChatReply struct {
	Message    string `json:"message"`
	Type       string `json:"type"`
	Suggestion string `json:"suggestion,omitempty"`
}

// ChatService produces conversational replies.
type ChatService struct {
	// DB is kept for day-context assembly.
	DB *gorm.DB
	// AI is the completions client; may be offline.
	AI *ai.Client
}

const chatSystemPrompt = "Você é um coach empático e humano. Priorize compreensão sobre produtividade."

// Reply answers a conversational message. It never returns an error: AI
// failures degrade to a canned reply keyed off the message's tone.
func (s *ChatService) Reply(ctx context.Context, message string, today TodayStats) ChatReply {
	if s.AI == nil || s.AI.Offline() {
		return chatFallback(message)
	}

	var out ChatReply
	err := s.AI.CompleteObject(ctx, chatSystemPrompt, chatPrompt(message, today), 0.9, 250, &out)
	recordAICall("chat", err)
	if err != nil || out.Message == "" {
		return chatFallback(message)
	}
	if out.Type == "" {
		out.Type = ReplyAnswer
	}
	return out
}

// chatPrompt renders the conversation prompt with the day's context block.
func chatPrompt(message string, today TodayStats) string {
	contextInfo := fmt.Sprintf(`
CONTEXTO DO DIA:
- %d atividades registradas hoje
- %dh%dmin trabalhados
`, today.ActivitiesCount, today.TotalMinutes/60, today.TotalMinutes%60)

	return fmt.Sprintf(`Você é um coach de produtividade empático e humano. O usuário quer CONVERSAR com você, não registrar atividade.

Mensagem do usuário: %q

%s

Responda de forma:
- EMPÁTICA se usuário expressar emoção negativa
- MOTIVADORA se usuário estiver desanimado
- COMPREENSIVA se usuário criticar o sistema
- NATURAL e HUMANA (como um amigo)
- CURTA (máximo 3 frases)

Retorne APENAS JSON:
{
  "message": "sua resposta empática e natural",
  "type": "empathy|motivation|answer|acknowledgment",
  "suggestion": "opcional: sugestão leve de atividade se fizer sentido"
}

IMPORTANTE:
- NÃO force o usuário a trabalhar
- Valide os sentimentos dele
- Se ele criticar você, aceite com humildade
- Se ele estiver cansado, reconheça isso
- Seja um AMIGO, não um chefe`, message, contextInfo)
}

// chatFallback picks a canned reply by tone when the AI is unreachable.
func chatFallback(message string) ChatReply {
	lower := strings.ToLower(message)

	if strings.Contains(lower, "desanimado") || strings.Contains(lower, "cansado") {
		return ChatReply{
			Message:    "Entendo como você se sente. Às vezes precisamos de uma pausa. Está tudo bem! 💙",
			Type:       ReplyEmpathy,
			Suggestion: "Que tal uma pausa de 10min?",
		}
	}
	if strings.Contains(lower, "chato") {
		return ChatReply{
			Message: "Desculpa se estou sendo chato! Meu objetivo é ajudar, não pressionar. Como posso melhorar? 😊",
			Type:    ReplyAcknowledgment,
		}
	}
	return ChatReply{
		Message: "Estou aqui para conversar! Como você está se sentindo? 💬",
		Type:    ReplyAnswer,
	}
}
