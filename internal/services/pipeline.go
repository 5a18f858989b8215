// Package services – PipelineService
//
// Front door for free-text input. Classifies the text (or honors an
// explicit registration prefix), then routes it: activities get
// registered, conversational messages get a coach reply, and anything the
// offline classifier could not handle is queued for the drain loop.
package services

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/ltavares/tempo-backend/internal/domain"
)

// Submit outcome kinds.
const (
	OutcomeActivity = "activity"
	OutcomeReply    = "reply"
	OutcomeQueued   = "queued"
)

// SubmitResult is the routed outcome of one free-text input.
type SubmitResult struct {
	Kind     string               `json:"kind"`
	Intent   IntentResult         `json:"intent"`
	Message  string               `json:"message"`
	Activity *domain.Activity     `json:"activity,omitempty"`
	Decision *Decision            `json:"decision,omitempty"`
	Reply    *ChatReply           `json:"reply,omitempty"`
	Pending  *domain.PendingInput `json:"pending,omitempty"`
}

// PipelineService routes free-text input through the intent classifier.
type PipelineService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Intent classifies input text.
	Intent *IntentService
	// Activities registers activity inputs.
	Activities *ActivityService
	// Chats answers conversational inputs.
	Chats *ChatService
	// Queue stores inputs the classifier could not handle.
	Queue *QueueService

	// IntentTimeout bounds the classification call.
	IntentTimeout time.Duration
}

// Submit validates the text and routes it by intent. When the classifier
// falls back (AI unreachable) the text is queued and the result carries the
// offline message; the input is never lost.
func (s *PipelineService) Submit(ctx context.Context, text string) (SubmitResult, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return SubmitResult{}, ErrEmptyInput
	}
	if utf8.RuneCountInString(text) > TitleMaxLen {
		return SubmitResult{}, ErrTooLong
	}

	if ForceActivity(text) {
		return s.registerActivity(ctx, text, IntentResult{Type: IntentActivity, Confidence: 1, Reasoning: "explicit registration prefix"})
	}

	cctx := ctx
	if s.IntentTimeout > 0 {
		var cancel context.CancelFunc
		cctx, cancel = context.WithTimeout(ctx, s.IntentTimeout)
		defer cancel()
	}
	intent := s.Intent.Classify(cctx, text)

	if intent.UsingFallback {
		pending, err := s.Queue.Enqueue(ctx, text)
		if err != nil {
			return SubmitResult{}, err
		}
		return SubmitResult{
			Kind:    OutcomeQueued,
			Intent:  intent,
			Message: FallbackMessage,
			Pending: pending,
		}, nil
	}

	if intent.Type == IntentActivity {
		return s.registerActivity(ctx, text, intent)
	}

	today, err := s.Activities.todayStats(ctx, s.Activities.now())
	if err != nil {
		return SubmitResult{}, err
	}
	reply := s.Chats.Reply(ctx, text, today)
	return SubmitResult{
		Kind:    OutcomeReply,
		Intent:  intent,
		Message: reply.Message,
		Reply:   &reply,
	}, nil
}

func (s *PipelineService) registerActivity(ctx context.Context, text string, intent IntentResult) (SubmitResult, error) {
	activity, decision, err := s.Activities.Register(ctx, text, "")
	if err != nil {
		return SubmitResult{}, err
	}
	return SubmitResult{
		Kind:     OutcomeActivity,
		Intent:   intent,
		Message:  activity.Response,
		Activity: activity,
		Decision: &decision,
	}, nil
}
