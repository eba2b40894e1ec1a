package handler

import (
	"encoding/json"
	"net/http"

	"github.com/aylin/gunluk/internal/chat"
)

// ChatMetrics はチャット応答生成のメトリクス記録インターフェース。
type ChatMetrics interface {
	RecordChatReply()
}

// ChatHandler はチャットアシスタントのHTTPハンドラー。
type ChatHandler struct {
	service chat.AssistantService
	metrics ChatMetrics
}

// NewChatHandler はChatHandlerを生成する。metricsはnilを許容する。
func NewChatHandler(service chat.AssistantService, metrics ChatMetrics) *ChatHandler {
	return &ChatHandler{service: service, metrics: metrics}
}

// chatRequest はチャットリクエストのボディ。
// 会話履歴はクライアントが保持し、毎回全量を送信する。
type chatRequest struct {
	Message string         `json:"message"`
	History []chat.Message `json:"history"`
}

// chatResponse はチャット応答のAPIレスポンス。
type chatResponse struct {
	Reply string `json:"reply"`
}

// Chat はアシスタントへのメッセージ送信を処理する。
// POST /api/chat
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBodyError(w)
		return
	}

	reply, err := h.service.Reply(r.Context(), req.Message, req.History)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if h.metrics != nil {
		h.metrics.RecordChatReply()
	}
	writeJSON(w, http.StatusOK, chatResponse{Reply: reply})
}
