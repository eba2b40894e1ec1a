// Package handler はHTTP APIハンドラーを提供する。
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/aylin/gunluk/internal/model"
)

// apiErrorResponse は統一エラーフォーマットのレスポンス。
type apiErrorResponse struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Category string `json:"category"`
	Action   string `json:"action"`
}

// warningResponse は部分的な失敗の警告を表す。
// 本体の処理は成功しているため、エラーではなくレスポンスに併記する。
type warningResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// toWarningResponses はAPIエラーの配列を警告レスポンスに変換する。
// 警告ゼロ件でもJSONで null ではなく [] を返す。
func toWarningResponses(warnings []*model.APIError) []warningResponse {
	result := make([]warningResponse, 0, len(warnings))
	for _, w := range warnings {
		result = append(result, warningResponse{Code: w.Code, Message: w.Message})
	}
	return result
}

// writeJSON はJSONレスポンスを書き込む。
func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}

// writeAPIErrorResponse は統一エラーフォーマットでエラーレスポンスを書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	writeJSON(w, statusCode, apiErrorResponse{
		Code:     apiErr.Code,
		Message:  apiErr.Message,
		Category: apiErr.Category,
		Action:   apiErr.Action,
	})
}

// writeInvalidBodyError はリクエストボディ解析失敗のエラーを書き込む。
func writeInvalidBodyError(w http.ResponseWriter) {
	writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
		Code:     "INVALID_REQUEST",
		Message:  "リクエストボディの解析に失敗しました。",
		Category: "validation",
		Action:   "正しいJSON形式でリクエストしてください。",
	})
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		statusCode := mapAPIErrorToHTTPStatus(apiErr)
		writeAPIErrorResponse(w, statusCode, apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	writeAPIErrorResponse(w, http.StatusInternalServerError, &model.APIError{
		Code:     "INTERNAL_ERROR",
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	})
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeValidationFailed,
		model.ErrCodeInvalidMood,
		model.ErrCodeInvalidWeekday,
		model.ErrCodeInvalidURL:
		return http.StatusBadRequest
	case model.ErrCodeEntryNotFound,
		model.ErrCodeReminderNotFound,
		model.ErrCodeAttachmentMissing:
		return http.StatusNotFound
	case model.ErrCodeDuplicateMood:
		return http.StatusConflict
	case model.ErrCodeSSRFBlocked:
		return http.StatusForbidden
	case model.ErrCodeImageTooLarge:
		return http.StatusRequestEntityTooLarge
	case model.ErrCodeUnsupportedImage:
		return http.StatusUnsupportedMediaType
	case model.ErrCodeSentimentFailed,
		model.ErrCodeNotifierFailed,
		model.ErrCodeChatFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
