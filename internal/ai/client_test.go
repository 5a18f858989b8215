package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

// completionsServer returns a test server replying with the given assistant
// content in the chat-completions shape, plus the client pointed at it.
func completionsServer(t *testing.T, status int, content string) (*httptest.Server, *Client) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q; want Bearer test-key", got)
		}
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": content}},
			},
		})
	}))
	c := New(srv.URL, "test-key", "deepseek-chat")
	return srv, c
}

func TestComplete_Success(t *testing.T) {
	srv, c := completionsServer(t, http.StatusOK, `hello there`)
	defer srv.Close()

	got, err := c.Complete(context.Background(), "sys", "user", 0.7, 100)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if got != "hello there" {
		t.Fatalf("content = %q; want %q", got, "hello there")
	}
}

func TestComplete_OfflineWithoutKey(t *testing.T) {
	// Must not perform any network I/O: the base URL is unroutable.
	c := New("http://127.0.0.1:0", "", "deepseek-chat")
	if !c.Offline() {
		t.Fatalf("Offline() = false; want true")
	}
	_, err := c.Complete(context.Background(), "s", "u", 0.5, 10)
	if !errors.Is(err, ErrOffline) {
		t.Fatalf("expected ErrOffline, got %v", err)
	}
}

func TestComplete_Non2xxIsUnavailable(t *testing.T) {
	srv, c := completionsServer(t, http.StatusBadGateway, "")
	defer srv.Close()

	_, err := c.Complete(context.Background(), "s", "u", 0.5, 10)
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestComplete_TransportErrorIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	c := New(srv.URL, "test-key", "deepseek-chat")
	_, err := c.Complete(context.Background(), "s", "u", 0.5, 10)
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestComplete_EmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "test-key", "deepseek-chat")
	_, err := c.Complete(context.Background(), "s", "u", 0.5, 10)
	if !errors.Is(err, ErrEmptyCompletion) {
		t.Fatalf("expected ErrEmptyCompletion, got %v", err)
	}
}

func TestComplete_ContextCancellation(t *testing.T) {
	srv, c := completionsServer(t, http.StatusOK, "ok")
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Complete(ctx, "s", "u", 0.5, 10)
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable on canceled context, got %v", err)
	}
}

func TestCompleteObject_DecodesReply(t *testing.T) {
	srv, c := completionsServer(t, http.StatusOK, `{"type":"activity","confidence":0.9}`)
	defer srv.Close()

	var out struct {
		Type       string  `json:"type"`
		Confidence float64 `json:"confidence"`
	}
	if err := c.CompleteObject(context.Background(), "s", "u", 0.3, 100, &out); err != nil {
		t.Fatalf("CompleteObject: %v", err)
	}
	if out.Type != "activity" || out.Confidence != 0.9 {
		t.Fatalf("decoded %+v", out)
	}
}

func TestCompleteObject_MalformedReply(t *testing.T) {
	srv, c := completionsServer(t, http.StatusOK, "sorry, I cannot answer that")
	defer srv.Close()

	var out struct{}
	err := c.CompleteObject(context.Background(), "s", "u", 0.3, 100, &out)
	if !errors.Is(err, ErrMalformedResponse) {
		t.Fatalf("expected ErrMalformedResponse, got %v", err)
	}
}
