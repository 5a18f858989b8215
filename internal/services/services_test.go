package services

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ltavares/tempo-backend/internal/ai"
	"github.com/ltavares/tempo-backend/internal/repo"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", uuid.NewString())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

// fakeAI spins up a chat-completions stub whose reply is chosen by the
// system prompt of the incoming request. Unmatched prompts get a 500 so a
// test never silently exercises the wrong path.
func fakeAI(t *testing.T, bySystem map[string]string) *ai.Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Messages) == 0 {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		system := req.Messages[0].Content
		for marker, content := range bySystem {
			if strings.Contains(system, marker) {
				json.NewEncoder(w).Encode(map[string]any{
					"choices": []map[string]any{
						{"message": map[string]any{"content": content}},
					},
				})
				return
			}
		}
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)
	return ai.New(srv.URL, "test-key", "deepseek-chat")
}

// offlineAI returns a client without an API key: permanently offline, no
// network I/O.
func offlineAI() *ai.Client {
	return ai.New("http://127.0.0.1:0", "", "deepseek-chat")
}

// Prompt markers used to route fakeAI replies.
const (
	markerIntent   = "classificador de intenção"
	markerActivity = "coach de produtividade empático e motivador"
	markerChat     = "coach empático e humano"
	markerRollup   = "APRENDE com o usuário"
)
