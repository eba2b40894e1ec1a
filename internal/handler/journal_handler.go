package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/aylin/gunluk/internal/journal"
	"github.com/aylin/gunluk/internal/model"
)

// multipartMaxMemory はマルチパート解析時にメモリに保持する最大サイズ。
const multipartMaxMemory = 8 << 20

// JournalServiceInterface は日記ハンドラーが必要とするサービスインターフェース。
type JournalServiceInterface interface {
	// Create は日記エントリを作成する。
	Create(ctx context.Context, in journal.CreateInput) (*model.JournalEntry, error)
	// List は全エントリを日付の降順で返す。
	List(ctx context.Context) ([]*model.JournalEntry, error)
	// Get は指定IDのエントリを返す。
	Get(ctx context.Context, id string) (*model.JournalEntry, error)
	// Delete は指定IDのエントリを削除する。
	Delete(ctx context.Context, id string) error
	// GetImage は指定エントリの添付画像を返す。
	GetImage(ctx context.Context, entryID string) (*model.JournalAttachment, error)
}

// JournalHandler は日記エントリのHTTPハンドラー。
type JournalHandler struct {
	service JournalServiceInterface
	baseURL string // 添付画像URLの生成に使用する公開ベースURL
}

// NewJournalHandler はJournalHandlerを生成する。
func NewJournalHandler(service JournalServiceInterface, baseURL string) *JournalHandler {
	return &JournalHandler{
		service: service,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// createJournalRequest はJSON形式の日記作成リクエストのボディ。
type createJournalRequest struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	Date     string `json:"date"`
	ImageURL string `json:"imageUrl"`
}

// sentimentResponse は保存済み感情スコアのAPIレスポンス。
type sentimentResponse struct {
	Score     float64 `json:"score"`
	Magnitude float64 `json:"magnitude"`
}

// journalResponse は日記エントリのAPIレスポンス。
type journalResponse struct {
	ID        string             `json:"id"`
	Title     string             `json:"title"`
	Content   string             `json:"content"`
	Date      string             `json:"date"`
	ImageURL  string             `json:"imageUrl,omitempty"`
	Sentiment *sentimentResponse `json:"sentiment,omitempty"`
	CreatedAt string             `json:"createdAt"`
}

// CreateJournal は日記エントリの作成を処理する。
// マルチパート（画像の直接添付）とJSON（画像URL指定）の両形式を受け付ける。
// POST /api/journal
func (h *JournalHandler) CreateJournal(w http.ResponseWriter, r *http.Request) {
	var in journal.CreateInput
	var err error

	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "multipart/form-data") {
		in, err = h.parseMultipartInput(r)
	} else {
		in, err = parseJSONInput(r)
	}
	if err != nil {
		handleServiceError(w, err)
		return
	}

	entry, err := h.service.Create(r.Context(), in)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, h.toJournalResponse(entry))
}

// ListJournal は日記エントリの一覧を日付降順で返す。
// GET /api/journalpage
func (h *JournalHandler) ListJournal(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.List(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	result := make([]journalResponse, len(entries))
	for i, e := range entries {
		result[i] = h.toJournalResponse(e)
	}
	writeJSON(w, http.StatusOK, result)
}

// GetJournal は日記エントリの詳細を返す。
// GET /api/journal/:id
func (h *JournalHandler) GetJournal(w http.ResponseWriter, r *http.Request) {
	entry, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.toJournalResponse(entry))
}

// DeleteJournal は日記エントリを削除する。
// DELETE /api/journalpage/:id
func (h *JournalHandler) DeleteJournal(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "日記エントリを削除しました。"})
}

// GetJournalImage は日記エントリの添付画像を配信する。
// GET /api/journal/:id/image
func (h *JournalHandler) GetJournalImage(w http.ResponseWriter, r *http.Request) {
	attachment, err := h.service.GetImage(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", attachment.MimeType)
	w.Header().Set("Cache-Control", "private, max-age=86400")
	w.WriteHeader(http.StatusOK)
	w.Write(attachment.Data)
}

// parseMultipartInput はマルチパートフォームから作成入力を組み立てる。
func (h *JournalHandler) parseMultipartInput(r *http.Request) (journal.CreateInput, error) {
	if err := r.ParseMultipartForm(multipartMaxMemory); err != nil {
		return journal.CreateInput{}, model.NewValidationError("マルチパートフォームの解析に失敗しました")
	}

	in := journal.CreateInput{
		Title:    r.FormValue("title"),
		Content:  r.FormValue("content"),
		ImageURL: r.FormValue("imageUrl"),
	}

	date, err := parseJournalDate(r.FormValue("date"))
	if err != nil {
		return journal.CreateInput{}, err
	}
	in.Date = date

	file, header, err := r.FormFile("image")
	if err == nil {
		defer file.Close()
		data, readErr := io.ReadAll(file)
		if readErr != nil {
			return journal.CreateInput{}, model.NewValidationError("画像の読み取りに失敗しました")
		}
		in.ImageData = data
		in.ImageMime = header.Header.Get("Content-Type")
	} else if err != http.ErrMissingFile {
		return journal.CreateInput{}, model.NewValidationError("画像パートの解析に失敗しました")
	}

	return in, nil
}

// parseJSONInput はJSONボディから作成入力を組み立てる。
func parseJSONInput(r *http.Request) (journal.CreateInput, error) {
	var req createJournalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return journal.CreateInput{}, model.NewValidationError("リクエストボディの解析に失敗しました")
	}

	date, err := parseJournalDate(req.Date)
	if err != nil {
		return journal.CreateInput{}, err
	}

	return journal.CreateInput{
		Title:    req.Title,
		Content:  req.Content,
		Date:     date,
		ImageURL: req.ImageURL,
	}, nil
}

// parseJournalDate は日付文字列を解釈する。
// RFC3339と日付のみ（YYYY-MM-DD）の両形式を受け付け、空文字列はゼロ値を返す。
func parseJournalDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.DateOnly, value); err == nil {
		return t, nil
	}
	return time.Time{}, model.NewValidationError("日付の形式が不正です: " + value)
}

// toJournalResponse はmodel.JournalEntryからAPIレスポンスに変換する。
func (h *JournalHandler) toJournalResponse(entry *model.JournalEntry) journalResponse {
	resp := journalResponse{
		ID:        entry.ID,
		Title:     entry.Title,
		Content:   entry.Content,
		Date:      entry.Date.UTC().Format(time.RFC3339),
		CreatedAt: entry.CreatedAt.UTC().Format(time.RFC3339),
	}
	if entry.ImageID != "" {
		resp.ImageURL = h.baseURL + "/api/journal/" + entry.ID + "/image"
	}
	if entry.HasSentiment {
		resp.Sentiment = &sentimentResponse{
			Score:     entry.SentimentScore,
			Magnitude: entry.SentimentMagnitude,
		}
	}
	return resp
}
