package sentiment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
)

// Result は感情分析の結果を表す。
// Scoreは概ね[-1,1]の範囲、Magnitudeは非負の強度。
type Result struct {
	Score     float64
	Magnitude float64
}

// Analyzer は感情分析プロバイダのインターフェース。
type Analyzer interface {
	// Analyze はテキストの感情スコアと強度を返す。
	// プロバイダから結果が得られない場合はエラーを返す。
	Analyze(ctx context.Context, text string) (Result, error)
}

// Client はGoogle Natural Language APIのanalyzeSentimentクライアント。
// APIキー認証のREST呼び出しで、日記作成フローの必須依存として使用される。
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	endpoint   string // テスト用にエンドポイントを差し替え可能
	apiKey     string
}

// NewClient はClientの新しいインスタンスを生成する。
func NewClient(httpClient *http.Client, logger *slog.Logger, endpoint, apiKey string) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     logger,
		endpoint:   endpoint,
		apiKey:     apiKey,
	}
}

// analyzeRequest はanalyzeSentimentのリクエストボディ。
type analyzeRequest struct {
	Document     analyzeDocument `json:"document"`
	EncodingType string          `json:"encodingType"`
}

type analyzeDocument struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

// analyzeResponse はanalyzeSentimentのレスポンスボディ。
type analyzeResponse struct {
	DocumentSentiment *struct {
		Score     float64 `json:"score"`
		Magnitude float64 `json:"magnitude"`
	} `json:"documentSentiment"`
}

// Analyze はテキスト全体の感情スコアと強度を取得する。
// ドキュメント感情がレスポンスに含まれない場合はエラーを返す
// （呼び出し元はエントリを保存せず作成失敗として扱う）。
func (c *Client) Analyze(ctx context.Context, text string) (Result, error) {
	body, err := json.Marshal(analyzeRequest{
		Document: analyzeDocument{
			Type:    "PLAIN_TEXT",
			Content: text,
		},
		EncodingType: "UTF8",
	})
	if err != nil {
		return Result{}, fmt.Errorf("リクエストボディの生成に失敗しました: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"?key="+c.apiKey, bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("リクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("感情分析APIの呼び出しに失敗しました: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// エラーボディはログにのみ残す（APIキーを含むURLはログに出さない）
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		c.logger.Warn("感情分析APIがエラーステータスを返しました",
			slog.Int("status", resp.StatusCode),
			slog.String("body", string(errBody)),
		)
		return Result{}, fmt.Errorf("感情分析APIがステータス%dを返しました", resp.StatusCode)
	}

	var parsed analyzeResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return Result{}, fmt.Errorf("感情分析レスポンスの解析に失敗しました: %w", err)
	}

	if parsed.DocumentSentiment == nil {
		return Result{}, fmt.Errorf("感情分析レスポンスにドキュメント感情が含まれていません")
	}

	return Result{
		Score:     parsed.DocumentSentiment.Score,
		Magnitude: parsed.DocumentSentiment.Magnitude,
	}, nil
}

// compile-time interface check
var _ Analyzer = (*Client)(nil)
