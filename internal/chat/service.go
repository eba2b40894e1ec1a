// Package chat は日記アプリ内蔵のチャットアシスタント機能を提供する。
package chat

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/aylin/gunluk/internal/model"
)

// maxMessageLength はチャットメッセージの最大文字数。
const maxMessageLength = 4000

// maxHistoryTurns は1リクエストで受け付ける履歴の最大ターン数。
const maxHistoryTurns = 50

// RoleUser / RoleModel はGemini APIの会話ロール。
const (
	RoleUser  = "user"
	RoleModel = "model"
)

// Message は会話履歴の1ターンを表す。
type Message struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// AssistantService はチャットアシスタントのインターフェース。
type AssistantService interface {
	// Reply は会話履歴を踏まえてメッセージへの応答を生成する。
	Reply(ctx context.Context, message string, history []Message) (string, error)
}

// Service はGemini APIを使用したチャットアシスタントの実装。
// 会話履歴はクライアントが保持し、リクエストごとに全量を受け取る。
type Service struct {
	client    *genai.Client
	modelName string
	logger    *slog.Logger
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(ctx context.Context, apiKey, modelName string, logger *slog.Logger) (*Service, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	return &Service{
		client:    client,
		modelName: modelName,
		logger:    logger,
	}, nil
}

// Close は内部のAPIクライアントを解放する。
func (s *Service) Close() error {
	return s.client.Close()
}

// Reply は会話履歴を踏まえてメッセージへの応答を生成する。
func (s *Service) Reply(ctx context.Context, message string, history []Message) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", model.NewValidationError("メッセージは必須です")
	}
	if len([]rune(message)) > maxMessageLength {
		return "", model.NewValidationError("メッセージが長すぎます")
	}
	if len(history) > maxHistoryTurns {
		history = history[len(history)-maxHistoryTurns:]
	}

	gm := s.client.GenerativeModel(s.modelName)

	session := gm.StartChat()
	for _, m := range history {
		role := m.Role
		if role != RoleUser && role != RoleModel {
			return "", model.NewValidationError("無効な会話ロールです: " + role)
		}
		session.History = append(session.History, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(m.Text)},
		})
	}

	resp, err := session.SendMessage(ctx, genai.Text(message))
	if err != nil {
		s.logger.Error("チャット応答の生成に失敗しました", "error", err)
		return "", model.NewChatFailedError(err.Error())
	}

	reply, err := extractText(resp)
	if err != nil {
		s.logger.Error("チャット応答の解析に失敗しました", "error", err)
		return "", model.NewChatFailedError(err.Error())
	}

	s.logger.Debug("チャット応答を生成しました",
		"historyTurns", len(history),
		"replyLength", len(reply))
	return reply, nil
}

// extractText はレスポンスの最初の候補からテキストを連結して取り出す。
func extractText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", errors.New("応答に候補が含まれていません")
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil {
		return "", errors.New("応答にコンテンツが含まれていません")
	}

	var b strings.Builder
	for _, part := range candidate.Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			b.WriteString(string(txt))
		}
	}
	if b.Len() == 0 {
		return "", errors.New("応答にテキストが含まれていません")
	}
	return b.String(), nil
}

// compile-time interface check
var _ AssistantService = (*Service)(nil)
