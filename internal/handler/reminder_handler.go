package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/aylin/gunluk/internal/model"
	"github.com/aylin/gunluk/internal/reminder"
)

// ReminderServiceInterface はリマインダーハンドラーが必要とするサービスインターフェース。
type ReminderServiceInterface interface {
	// Create はリマインダーを新規作成する（作成時点ではactive=false）。
	Create(ctx context.Context, title string, dayLabels []string, hour, minute int) (*model.Reminder, error)
	// List は全リマインダーをトリガー登録付きで返す。
	List(ctx context.Context) ([]*reminder.Status, error)
	// Toggle はactiveフラグを切り替え、トリガー登録/解除を行う。
	// 通知サービスの失敗は警告として返り、フラグの永続化はブロックされない。
	Toggle(ctx context.Context, reminderID string, active bool) (*model.Reminder, []*model.APIError, error)
	// RecordRegistration は外部で発行された通知ハンドルを曜日単位で記録する。
	RecordRegistration(ctx context.Context, reminderID, dayLabel, notificationID string) error
	// Delete はリマインダーを削除する。有効な場合は先にトリガーを解除する。
	Delete(ctx context.Context, reminderID string) ([]*model.APIError, error)
}

// ReminderHandler はリマインダーのHTTPハンドラー。
type ReminderHandler struct {
	service ReminderServiceInterface
}

// NewReminderHandler はReminderHandlerを生成する。
func NewReminderHandler(service ReminderServiceInterface) *ReminderHandler {
	return &ReminderHandler{service: service}
}

// createReminderRequest はリマインダー作成リクエストのボディ。
type createReminderRequest struct {
	Title  string   `json:"title"`
	Days   []string `json:"days"`
	Hour   int      `json:"hour"`
	Minute int      `json:"minute"`
	Active bool     `json:"active"`
}

// updateReminderRequest はリマインダー更新リクエストのボディ。
// Activeによる有効/無効の切り替えと、クライアント側で発行された
// 通知ハンドルの記録（NotificationID + Weekday）の両方を受け付ける。
type updateReminderRequest struct {
	Active         *bool  `json:"active"`
	NotificationID string `json:"notificationId"`
	Weekday        string `json:"weekday"`
}

// registrationResponse はトリガー登録のAPIレスポンス。
type registrationResponse struct {
	Weekday        string `json:"weekday"`
	NotificationID string `json:"notificationId"`
}

// reminderResponse はリマインダーのAPIレスポンス。
type reminderResponse struct {
	ID            string                 `json:"id"`
	Title         string                 `json:"title"`
	Days          []string               `json:"days"`
	Hour          int                    `json:"hour"`
	Minute        int                    `json:"minute"`
	Active        bool                   `json:"active"`
	Registrations []registrationResponse `json:"registrations,omitempty"`
	Warnings      []warningResponse      `json:"warnings,omitempty"`
	CreatedAt     string                 `json:"createdAt"`
}

// CreateReminder はリマインダーの作成を処理する。
// active:true が指定された場合は作成後すぐに有効化（トリガー登録）する。
// POST /api/reminders
func (h *ReminderHandler) CreateReminder(w http.ResponseWriter, r *http.Request) {
	var req createReminderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBodyError(w)
		return
	}

	created, err := h.service.Create(r.Context(), req.Title, req.Days, req.Hour, req.Minute)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	var warnings []*model.APIError
	if req.Active {
		created, warnings, err = h.service.Toggle(r.Context(), created.ID, true)
		if err != nil {
			handleServiceError(w, err)
			return
		}
	}

	resp := toReminderResponse(created, nil)
	resp.Warnings = toWarningResponses(warnings)
	writeJSON(w, http.StatusCreated, resp)
}

// ListReminders はリマインダーの一覧をトリガー登録付きで返す。
// GET /api/reminders
func (h *ReminderHandler) ListReminders(w http.ResponseWriter, r *http.Request) {
	statuses, err := h.service.List(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	result := make([]reminderResponse, len(statuses))
	for i, s := range statuses {
		result[i] = toReminderResponse(s.Reminder, s.Registrations)
	}
	writeJSON(w, http.StatusOK, result)
}

// UpdateReminder はリマインダーの部分更新を処理する。
// PATCH /api/reminders/:id
func (h *ReminderHandler) UpdateReminder(w http.ResponseWriter, r *http.Request) {
	reminderID := chi.URLParam(r, "id")

	var req updateReminderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBodyError(w)
		return
	}

	// 通知ハンドルの記録
	if req.NotificationID != "" {
		if req.Weekday == "" {
			writeAPIErrorResponse(w, http.StatusBadRequest,
				model.NewValidationError("notificationIdの記録には曜日の指定が必要です"))
			return
		}
		if err := h.service.RecordRegistration(r.Context(), reminderID, req.Weekday, req.NotificationID); err != nil {
			handleServiceError(w, err)
			return
		}
	}

	if req.Active == nil {
		if req.NotificationID == "" {
			writeAPIErrorResponse(w, http.StatusBadRequest,
				model.NewValidationError("更新する項目がありません"))
			return
		}
		w.WriteHeader(http.StatusNoContent)
		return
	}

	updated, warnings, err := h.service.Toggle(r.Context(), reminderID, *req.Active)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := toReminderResponse(updated, nil)
	resp.Warnings = toWarningResponses(warnings)
	writeJSON(w, http.StatusOK, resp)
}

// DeleteReminder はリマインダーを削除する。
// トリガー解除に失敗した曜日があっても削除は完了し、警告を返す。
// DELETE /api/reminders/:id
func (h *ReminderHandler) DeleteReminder(w http.ResponseWriter, r *http.Request) {
	warnings, err := h.service.Delete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message":  "リマインダーを削除しました。",
		"warnings": toWarningResponses(warnings),
	})
}

// toReminderResponse はmodel.ReminderからAPIレスポンスに変換する。
func toReminderResponse(r *model.Reminder, regs []*model.ReminderRegistration) reminderResponse {
	days := make([]string, len(r.Days))
	for i, d := range r.Days {
		days[i] = string(d)
	}

	var registrations []registrationResponse
	for _, reg := range regs {
		registrations = append(registrations, registrationResponse{
			Weekday:        string(reg.Weekday),
			NotificationID: reg.NotificationID,
		})
	}

	return reminderResponse{
		ID:            r.ID,
		Title:         r.Title,
		Days:          days,
		Hour:          r.Hour,
		Minute:        r.Minute,
		Active:        r.Active,
		Registrations: registrations,
		CreatedAt:     r.CreatedAt.UTC().Format(time.RFC3339),
	}
}
