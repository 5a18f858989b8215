package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func idemRouter(lookup IdempotencyLookup) *gin.Engine {
	r := gin.New()
	r.Use(IdempotencyValidator(IdempotencyOptions{}, lookup))
	r.POST("/submit", func(c *gin.Context) {
		key, _ := GetIdempotencyKey(c)
		c.JSON(http.StatusOK, gin.H{"key": key, "replay": IsReplay(c)})
	})
	return r
}

func TestIdempotency_NoHeaderPassesThrough(t *testing.T) {
	r := idemRouter(nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/submit", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"replay":false`) {
		t.Fatalf("body = %s", w.Body.String())
	}
}

func TestIdempotency_InvalidKeyRejected(t *testing.T) {
	r := idemRouter(nil)

	for _, bad := range []string{"has space", "ключ", strings.Repeat("x", 201)} {
		req := httptest.NewRequest(http.MethodPost, "/submit", nil)
		req.Header.Set(HeaderIdempotencyKey, bad)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != http.StatusBadRequest {
			t.Errorf("key %q: status = %d; want 400", bad, w.Code)
		}
	}
}

func TestIdempotency_ValidKeyStashed(t *testing.T) {
	r := idemRouter(nil)

	req := httptest.NewRequest(http.MethodPost, "/submit", nil)
	req.Header.Set(HeaderIdempotencyKey, "req-123.retry:1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "req-123.retry:1") {
		t.Fatalf("body = %s", w.Body.String())
	}
}

func TestIdempotency_ReplayDetected(t *testing.T) {
	var sawUser, sawKey string
	lookup := func(ctx context.Context, userID, key string, now time.Time) (bool, error) {
		sawUser, sawKey = userID, key
		return true, nil
	}
	r := idemRouter(lookup)

	req := httptest.NewRequest(http.MethodPost, "/submit", nil)
	req.Header.Set(HeaderIdempotencyKey, "abc")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if !strings.Contains(w.Body.String(), `"replay":true`) {
		t.Fatalf("body = %s", w.Body.String())
	}
	if sawUser != "local-user" || sawKey != "abc" {
		t.Fatalf("lookup saw (%q, %q)", sawUser, sawKey)
	}
}

func TestIdempotency_LookupErrorDoesNotBlock(t *testing.T) {
	lookup := func(ctx context.Context, userID, key string, now time.Time) (bool, error) {
		return false, context.DeadlineExceeded
	}
	r := idemRouter(lookup)

	req := httptest.NewRequest(http.MethodPost, "/submit", nil)
	req.Header.Set(HeaderIdempotencyKey, "abc")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d; lookup errors must not block", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"replay":false`) {
		t.Fatalf("body = %s", w.Body.String())
	}
}
