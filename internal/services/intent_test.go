package services

import (
	"context"
	"testing"
)

func TestForceActivity(t *testing.T) {
	cases := []struct {
		text string
		want bool
	}{
		{"registrar: lavar louça", true},
		{"Atividade: reunião", true},
		{"task: deploy", true},
		{"fazendo: almoço", true},
		{"inicio: estudos", true},
		{"  REGISTRAR: com espaços  ", true},
		{"registrar lavar louça", false}, // no colon
		{"estou desanimado", false},
		{"", false},
	}
	for _, c := range cases {
		if got := ForceActivity(c.text); got != c.want {
			t.Errorf("ForceActivity(%q) = %v; want %v", c.text, got, c.want)
		}
	}
}

func TestClassify_Success(t *testing.T) {
	client := fakeAI(t, map[string]string{
		markerIntent: `{"type":"chat","confidence":0.85,"reasoning":"desabafo"}`,
	})
	s := &IntentService{AI: client}

	got := s.Classify(context.Background(), "estou desanimado hoje")
	if got.UsingFallback {
		t.Fatalf("unexpected fallback: %+v", got)
	}
	if got.Type != IntentChat || got.Confidence != 0.85 {
		t.Fatalf("result = %+v", got)
	}
}

func TestClassify_OfflineFallsBack(t *testing.T) {
	s := &IntentService{AI: offlineAI()}

	got := s.Classify(context.Background(), "qualquer coisa")
	if !got.UsingFallback {
		t.Fatalf("expected fallback, got %+v", got)
	}
	if got.Type != IntentActivity {
		t.Fatalf("fallback type = %q; want activity", got.Type)
	}
	if got.FallbackMessage != FallbackMessage {
		t.Fatalf("fallback message = %q", got.FallbackMessage)
	}
}

func TestClassify_UnknownTypeFallsBack(t *testing.T) {
	client := fakeAI(t, map[string]string{
		markerIntent: `{"type":"banana","confidence":0.99}`,
	})
	s := &IntentService{AI: client}

	got := s.Classify(context.Background(), "x")
	if !got.UsingFallback || got.Type != IntentActivity {
		t.Fatalf("expected fallback on unknown type, got %+v", got)
	}
}

func TestClassify_FencedReply(t *testing.T) {
	client := fakeAI(t, map[string]string{
		markerIntent: "```json\n{\"type\":\"question\",\"confidence\":0.7}\n```",
	})
	s := &IntentService{AI: client}

	got := s.Classify(context.Background(), "como funciona?")
	if got.UsingFallback || got.Type != IntentQuestion {
		t.Fatalf("result = %+v", got)
	}
}
