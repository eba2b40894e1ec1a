package sentiment

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
)

// newTestClient はhttptestサーバーに向けたClientを生成するヘルパー。
func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	client := NewClient(server.Client(), logger, server.URL, "test-key")
	return client, server
}

// 正常レスポンスからスコアと強度が取得できることを検証
func TestClient_Analyze_Success(t *testing.T) {
	var gotBody analyzeRequest
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if r.URL.Query().Get("key") != "test-key" {
			t.Errorf("key = %q, want %q", r.URL.Query().Get("key"), "test-key")
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("failed to decode request body: %v", err)
		}

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"documentSentiment": {"score": 0.7, "magnitude": 1.2}}`)
	})

	result, err := client.Analyze(context.Background(), "bugün çok mutluyum")
	if err != nil {
		t.Fatalf("Analyze() returned error: %v", err)
	}

	if math.Abs(result.Score-0.7) > 1e-9 {
		t.Errorf("Score = %v, want 0.7", result.Score)
	}
	if math.Abs(result.Magnitude-1.2) > 1e-9 {
		t.Errorf("Magnitude = %v, want 1.2", result.Magnitude)
	}
	if gotBody.Document.Type != "PLAIN_TEXT" {
		t.Errorf("document type = %q, want PLAIN_TEXT", gotBody.Document.Type)
	}
	if gotBody.Document.Content != "bugün çok mutluyum" {
		t.Errorf("document content = %q", gotBody.Document.Content)
	}
}

// エラーステータスでエラーになることを検証
func TestClient_Analyze_ErrorStatus(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		io.WriteString(w, `{"error": {"message": "API key invalid"}}`)
	})

	if _, err := client.Analyze(context.Background(), "text"); err == nil {
		t.Fatal("expected error for non-200 status")
	}
}

// documentSentimentが欠けたレスポンスでエラーになることを検証
func TestClient_Analyze_MissingDocumentSentiment(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{}`)
	})

	if _, err := client.Analyze(context.Background(), "text"); err == nil {
		t.Fatal("expected error when documentSentiment is missing")
	}
}

// コンテキストキャンセルが伝播することを検証
func TestClient_Analyze_ContextCanceled(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"documentSentiment": {"score": 0, "magnitude": 0}}`)
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := client.Analyze(ctx, "text"); err == nil {
		t.Fatal("expected error for canceled context")
	}
}
