package notifier

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

// newTestClient はhttptestサーバーに向けたClientを生成するヘルパー。
func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	return NewClient(server.Client(), logger, server.URL)
}

// トリガー登録が成功しハンドルが返ることを検証
func TestClient_Schedule_Success(t *testing.T) {
	var gotTrigger Trigger
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/triggers" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotTrigger); err != nil {
			t.Errorf("failed to decode trigger: %v", err)
		}

		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, `{"notification_id": "handle-123"}`)
	})

	handle, err := client.Schedule(context.Background(), Trigger{
		Title:      "Günlük hatırlatıcı",
		Hour:       21,
		Minute:     30,
		Weekday:    2,
		Repeats:    true,
		Identifier: "reminder-1",
	})
	if err != nil {
		t.Fatalf("Schedule() returned error: %v", err)
	}

	if handle != "handle-123" {
		t.Errorf("handle = %q, want %q", handle, "handle-123")
	}
	if gotTrigger.Weekday != 2 || gotTrigger.Hour != 21 || gotTrigger.Minute != 30 {
		t.Errorf("trigger = %+v", gotTrigger)
	}
	if !gotTrigger.Repeats {
		t.Error("trigger.Repeats should be true")
	}
}

// ハンドルなしレスポンスがエラーになることを検証
func TestClient_Schedule_MissingHandle(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{}`)
	})

	if _, err := client.Schedule(context.Background(), Trigger{Weekday: 1}); err == nil {
		t.Fatal("expected error when notification_id is missing")
	}
}

// エラーステータスがエラーになることを検証
func TestClient_Schedule_ErrorStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	if _, err := client.Schedule(context.Background(), Trigger{Weekday: 1}); err == nil {
		t.Fatal("expected error for 503 status")
	}
}

// トリガー解除の成功を検証
func TestClient_Cancel_Success(t *testing.T) {
	var gotPath string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Errorf("method = %s, want DELETE", r.Method)
		}
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
	})

	if err := client.Cancel(context.Background(), "handle-123"); err != nil {
		t.Fatalf("Cancel() returned error: %v", err)
	}
	if gotPath != "/triggers/handle-123" {
		t.Errorf("path = %q, want %q", gotPath, "/triggers/handle-123")
	}
}

// 空ハンドルの解除がリクエストなしで成功することを検証
func TestClient_Cancel_EmptyHandleNoop(t *testing.T) {
	called := false
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	if err := client.Cancel(context.Background(), ""); err != nil {
		t.Fatalf("Cancel(\"\") returned error: %v", err)
	}
	if called {
		t.Error("empty handle should not produce an HTTP request")
	}
}

// 404が解除済みとして成功扱いになることを検証
func TestClient_Cancel_NotFoundIsSuccess(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	if err := client.Cancel(context.Background(), "gone"); err != nil {
		t.Fatalf("Cancel() on missing registration should succeed, got: %v", err)
	}
}

// 5xxでの解除失敗を検証
func TestClient_Cancel_ErrorStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	if err := client.Cancel(context.Background(), "handle"); err == nil {
		t.Fatal("expected error for 500 status")
	}
}
