package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/aylin/gunluk/internal/model"
)

// MoodServiceInterface は気分ハンドラーが必要とするサービスインターフェース。
type MoodServiceInterface interface {
	// Create は気分記録を作成する。
	Create(ctx context.Context, mood model.Mood, date time.Time) (*model.MoodEntry, error)
	// List は全気分記録を日付の降順で返す。
	List(ctx context.Context) ([]*model.MoodEntry, error)
}

// MoodHandler は気分記録のHTTPハンドラー。
type MoodHandler struct {
	service MoodServiceInterface
}

// NewMoodHandler はMoodHandlerを生成する。
func NewMoodHandler(service MoodServiceInterface) *MoodHandler {
	return &MoodHandler{service: service}
}

// createMoodRequest は気分記録リクエストのボディ。
type createMoodRequest struct {
	Mood string `json:"mood"`
	Date string `json:"date"`
}

// moodResponse は気分記録のAPIレスポンス。
type moodResponse struct {
	ID        string `json:"id"`
	Mood      string `json:"mood"`
	Date      string `json:"date"`
	CreatedAt string `json:"createdAt"`
}

// CreateMood は気分の記録を処理する。1日1件の制約はサービス層で検証される。
// POST /api/mood
func (h *MoodHandler) CreateMood(w http.ResponseWriter, r *http.Request) {
	var req createMoodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBodyError(w)
		return
	}

	date, err := parseJournalDate(req.Date)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	entry, err := h.service.Create(r.Context(), model.Mood(req.Mood), date)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toMoodResponse(entry))
}

// ListMoods は気分記録の一覧を日付降順で返す。
// GET /api/moods
func (h *MoodHandler) ListMoods(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.List(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	result := make([]moodResponse, len(entries))
	for i, e := range entries {
		result[i] = toMoodResponse(e)
	}
	writeJSON(w, http.StatusOK, result)
}

// toMoodResponse はmodel.MoodEntryからAPIレスポンスに変換する。
func toMoodResponse(entry *model.MoodEntry) moodResponse {
	return moodResponse{
		ID:        entry.ID,
		Mood:      string(entry.Mood),
		Date:      entry.Date.UTC().Format(time.RFC3339),
		CreatedAt: entry.CreatedAt.UTC().Format(time.RFC3339),
	}
}
