package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestRouter(healthCheck func() error) http.Handler {
	return NewRouter(&RouterDeps{
		CORSAllowedOrigin: "http://localhost:3000",
		Logger:            slog.New(slog.NewTextHandler(io.Discard, nil)),
		BaseURL:           "http://localhost:8080",
		JournalService:    &mockJournalService{entry: sampleEntry()},
		MoodService:       &mockMoodService{},
		ReminderService:   &mockReminderService{},
		EntryLister:       &mockEntryLister{},
		HealthCheck:       healthCheck,
	})
}

// 全ルートが配線されていることを検証（メソッド不一致は405になる）
func TestNewRouter_Routes(t *testing.T) {
	router := newTestRouter(nil)

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/health"},
		{http.MethodGet, "/api/journalpage"},
		{http.MethodGet, "/api/journal/e1"},
		{http.MethodGet, "/api/journal/e1/image"},
		{http.MethodGet, "/api/moods"},
		{http.MethodGet, "/api/reminders"},
		{http.MethodGet, "/api/sentiment"},
		{http.MethodGet, "/api/sentiment/weekly"},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(tt.method, tt.path, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code == http.StatusNotFound || rec.Code == http.StatusMethodNotAllowed {
			t.Errorf("%s %s: status = %d, route not wired", tt.method, tt.path, rec.Code)
		}
	}
}

// ヘルスチェックの成否でステータスが変わることを検証
func TestNewRouter_Health(t *testing.T) {
	router := newTestRouter(nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}

	router = newTestRouter(func() error { return errors.New("db down") })
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

// セキュリティヘッダーとCORSヘッダーが全ルートに付与されることを検証
func TestNewRouter_MiddlewareHeaders(t *testing.T) {
	router := newTestRouter(nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/moods", nil))

	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("Allow-Origin = %q", got)
	}
}

// チャットサービス未設定時に/api/chatが存在しないことを検証
func TestNewRouter_ChatDisabled(t *testing.T) {
	router := newTestRouter(nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/chat", nil))

	if rec.Code != http.StatusNotFound && rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 404/405 when chat is disabled", rec.Code)
	}
}
