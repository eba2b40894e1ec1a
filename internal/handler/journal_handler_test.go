package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/aylin/gunluk/internal/journal"
	"github.com/aylin/gunluk/internal/model"
)

type mockJournalService struct {
	lastInput  journal.CreateInput
	entry      *model.JournalEntry
	entries    []*model.JournalEntry
	attachment *model.JournalAttachment
	err        error
}

func (m *mockJournalService) Create(_ context.Context, in journal.CreateInput) (*model.JournalEntry, error) {
	m.lastInput = in
	return m.entry, m.err
}

func (m *mockJournalService) List(_ context.Context) ([]*model.JournalEntry, error) {
	return m.entries, m.err
}

func (m *mockJournalService) Get(_ context.Context, _ string) (*model.JournalEntry, error) {
	if m.entry == nil {
		return nil, m.err
	}
	return m.entry, nil
}

func (m *mockJournalService) Delete(_ context.Context, _ string) error {
	return m.err
}

func (m *mockJournalService) GetImage(_ context.Context, _ string) (*model.JournalAttachment, error) {
	if m.attachment == nil {
		return nil, m.err
	}
	return m.attachment, nil
}

func newJournalRouter(svc JournalServiceInterface) http.Handler {
	h := NewJournalHandler(svc, "https://diary.example.com")
	r := chi.NewRouter()
	r.Post("/api/journal", h.CreateJournal)
	r.Get("/api/journal/{id}", h.GetJournal)
	r.Get("/api/journal/{id}/image", h.GetJournalImage)
	r.Get("/api/journalpage", h.ListJournal)
	r.Delete("/api/journalpage/{id}", h.DeleteJournal)
	return r
}

func sampleEntry() *model.JournalEntry {
	return &model.JournalEntry{
		ID:                 "e1",
		Title:              "güzel bir gün",
		Content:            "bugün parkta yürüdüm",
		Date:               time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC),
		ImageID:            "img1",
		SentimentScore:     0.7,
		SentimentMagnitude: 1.1,
		HasSentiment:       true,
		CreatedAt:          time.Date(2024, 5, 10, 12, 0, 1, 0, time.UTC),
	}
}

// JSON形式の日記作成で201と本文が返ることを検証
func TestJournalHandler_CreateJournal_JSON(t *testing.T) {
	svc := &mockJournalService{entry: sampleEntry()}
	router := newJournalRouter(svc)

	body := `{"title":"güzel bir gün","content":"bugün parkta yürüdüm","date":"2024-05-10"}`
	req := httptest.NewRequest(http.MethodPost, "/api/journal", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}

	var resp journalResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	if resp.ID != "e1" {
		t.Errorf("ID = %q", resp.ID)
	}
	if resp.ImageURL != "https://diary.example.com/api/journal/e1/image" {
		t.Errorf("ImageURL = %q", resp.ImageURL)
	}
	if resp.Sentiment == nil || resp.Sentiment.Score != 0.7 {
		t.Errorf("Sentiment = %+v", resp.Sentiment)
	}
	if svc.lastInput.Title != "güzel bir gün" {
		t.Errorf("service received title %q", svc.lastInput.Title)
	}
	if svc.lastInput.Date.Format(time.DateOnly) != "2024-05-10" {
		t.Errorf("service received date %v", svc.lastInput.Date)
	}
}

// マルチパート形式の日記作成で画像データがサービスに渡ることを検証
func TestJournalHandler_CreateJournal_Multipart(t *testing.T) {
	svc := &mockJournalService{entry: sampleEntry()}
	router := newJournalRouter(svc)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.WriteField("title", "fotoğraflı gün")
	mw.WriteField("content", "deniz kenarındaydım")
	part, _ := mw.CreatePart(textproto.MIMEHeader{
		"Content-Disposition": {`form-data; name="image"; filename="photo.png"`},
		"Content-Type":        {"image/png"},
	})
	part.Write([]byte{0x89, 0x50, 0x4e, 0x47})
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/journal", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}
	if len(svc.lastInput.ImageData) != 4 {
		t.Errorf("ImageData length = %d, want 4", len(svc.lastInput.ImageData))
	}
	if svc.lastInput.ImageMime != "image/png" {
		t.Errorf("ImageMime = %q", svc.lastInput.ImageMime)
	}
}

// サービス層のエラーがHTTPステータスに変換されることを検証
func TestJournalHandler_CreateJournal_ServiceErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"validation", model.NewValidationError("タイトルは必須です"), http.StatusBadRequest},
		{"sentiment failed", model.NewSentimentFailedError("timeout"), http.StatusBadGateway},
		{"ssrf blocked", model.NewSSRFBlockedError(), http.StatusForbidden},
		{"too large", model.NewImageTooLargeError(100), http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newJournalRouter(&mockJournalService{err: tt.err})

			req := httptest.NewRequest(http.MethodPost, "/api/journal",
				strings.NewReader(`{"title":"b","content":"i"}`))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}

			var resp apiErrorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("error response is not JSON: %v", err)
			}
			if resp.Code == "" || resp.Action == "" {
				t.Errorf("error response missing fields: %+v", resp)
			}
		})
	}
}

// 一覧取得で全エントリが返ることを検証
func TestJournalHandler_ListJournal(t *testing.T) {
	svc := &mockJournalService{entries: []*model.JournalEntry{sampleEntry()}}
	router := newJournalRouter(svc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/journalpage", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp []journalResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	if len(resp) != 1 || resp[0].ID != "e1" {
		t.Errorf("response = %+v", resp)
	}
}

// 未存在エントリの取得で404が返ることを検証
func TestJournalHandler_GetJournal_NotFound(t *testing.T) {
	svc := &mockJournalService{err: model.NewEntryNotFoundError("missing")}
	router := newJournalRouter(svc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/journal/missing", nil))

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

// エントリ削除で200とメッセージボディが返ることを検証
func TestJournalHandler_DeleteJournal(t *testing.T) {
	router := newJournalRouter(&mockJournalService{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/journalpage/e1", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}

	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if resp["message"] == "" {
		t.Error("delete response should contain a message")
	}
}

// 添付画像がMIMEタイプ付きで配信されることを検証
func TestJournalHandler_GetJournalImage(t *testing.T) {
	svc := &mockJournalService{attachment: &model.JournalAttachment{
		ID: "img1", Data: []byte{1, 2, 3}, MimeType: "image/png",
	}}
	router := newJournalRouter(svc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/journal/e1/image", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != "image/png" {
		t.Errorf("Content-Type = %q", got)
	}
	if rec.Body.Len() != 3 {
		t.Errorf("body length = %d, want 3", rec.Body.Len())
	}
}
