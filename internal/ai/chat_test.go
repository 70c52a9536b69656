package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []ChatMessage `json:"messages"`
}

func chatServer(t *testing.T, handler func(req chatRequest, w http.ResponseWriter)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
			http.NotFound(w, r)
			return
		}
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		handler(req, w)
	}))
}

func writeAnswer(w http.ResponseWriter, content string) {
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"choices": []map[string]interface{}{
			{"message": map[string]string{"content": content}},
		},
	})
}

func TestCompatibleChat_PrimaryModelAnswers(t *testing.T) {
	server := chatServer(t, func(req chatRequest, w http.ResponseWriter) {
		if req.Model != "model-utama" {
			t.Errorf("unexpected model %s", req.Model)
		}
		writeAnswer(w, "Jawaban dari model utama.")
	})
	defer server.Close()

	client := NewOpenAICompatibleClient(server.URL, "test-key", 0)
	chat := NewCompatibleChat(client, "openai", "model-utama", []string{"model-cadangan"}, 0.7, 256)

	answer, err := chat.Complete(context.Background(), []ChatMessage{{Role: "user", Content: "halo"}})
	if err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}
	if answer != "Jawaban dari model utama." {
		t.Fatalf("answer = %q", answer)
	}
}

func TestCompatibleChat_FallsBackInOrder(t *testing.T) {
	var attempts []string
	server := chatServer(t, func(req chatRequest, w http.ResponseWriter) {
		attempts = append(attempts, req.Model)
		if req.Model != "model-cadangan-2" {
			http.Error(w, `{"error":"rate limited"}`, http.StatusTooManyRequests)
			return
		}
		writeAnswer(w, "Jawaban dari cadangan kedua.")
	})
	defer server.Close()

	client := NewOpenAICompatibleClient(server.URL, "test-key", 0)
	chat := NewCompatibleChat(client, "openai", "model-utama", []string{"model-cadangan-1", "model-cadangan-2"}, 0, 0)

	answer, err := chat.Complete(context.Background(), []ChatMessage{{Role: "user", Content: "halo"}})
	if err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}
	if answer != "Jawaban dari cadangan kedua." {
		t.Fatalf("answer = %q", answer)
	}

	want := []string{"model-utama", "model-cadangan-1", "model-cadangan-2"}
	if len(attempts) != len(want) {
		t.Fatalf("attempts = %v, want %v", attempts, want)
	}
	for i := range want {
		if attempts[i] != want[i] {
			t.Fatalf("attempt %d = %s, want %s", i, attempts[i], want[i])
		}
	}
}

func TestCompatibleChat_AllModelsFail(t *testing.T) {
	server := chatServer(t, func(_ chatRequest, w http.ResponseWriter) {
		http.Error(w, `{"error":"unavailable"}`, http.StatusServiceUnavailable)
	})
	defer server.Close()

	client := NewOpenAICompatibleClient(server.URL, "test-key", 0)
	chat := NewCompatibleChat(client, "openai", "model-utama", []string{"model-cadangan"}, 0, 0)

	_, err := chat.Complete(context.Background(), []ChatMessage{{Role: "user", Content: "halo"}})
	if !errors.Is(err, ErrProvider) {
		t.Fatalf("expected ErrProvider, got %v", err)
	}
}
