// Package notifier は外部通知ゲートウェイとの連携を提供する。
// 曜日・時刻をキーとする繰り返しトリガーの登録と解除を行う。
package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
)

// Trigger は繰り返し通知トリガー1件の登録内容を表す。
// Weekdayは通知サービスの曜日番号（Pazar=1 … Cumartesi=7）。
type Trigger struct {
	Title      string `json:"title"`
	Body       string `json:"body"`
	Hour       int    `json:"hour"`
	Minute     int    `json:"minute"`
	Weekday    int    `json:"weekday"`
	Repeats    bool   `json:"repeats"`
	Identifier string `json:"identifier"`
}

// Service は通知トリガー登録/解除のインターフェース。
type Service interface {
	// Schedule はトリガーを登録し、解除に使う登録ハンドルを返す。
	Schedule(ctx context.Context, trigger Trigger) (string, error)
	// Cancel は登録ハンドルで指定されたトリガーを解除する。
	Cancel(ctx context.Context, notificationID string) error
}

// Client は通知ゲートウェイのHTTPクライアント。
// POST /triggers で登録、DELETE /triggers/{id} で解除する。
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	baseURL    string
}

// NewClient はClientの新しいインスタンスを生成する。
// baseURLは通知ゲートウェイのベースURLを指定する。
func NewClient(httpClient *http.Client, logger *slog.Logger, baseURL string) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     logger,
		baseURL:    baseURL,
	}
}

// scheduleResponse はトリガー登録のレスポンスボディ。
type scheduleResponse struct {
	NotificationID string `json:"notification_id"`
}

// Schedule はトリガーを登録し、登録ハンドルを返す。
// ゲートウェイがハンドルを返さない場合はエラーを返す
// （ハンドルなしではその曜日の解除ができないため、登録成功として扱わない）。
func (c *Client) Schedule(ctx context.Context, trigger Trigger) (string, error) {
	body, err := json.Marshal(trigger)
	if err != nil {
		return "", fmt.Errorf("トリガーのシリアライズに失敗しました: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/triggers", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("リクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("通知ゲートウェイの呼び出しに失敗しました: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		c.logger.Warn("トリガー登録がエラーステータスを返しました",
			slog.Int("status", resp.StatusCode),
			slog.String("body", string(errBody)),
			slog.Int("weekday", trigger.Weekday),
		)
		return "", fmt.Errorf("通知ゲートウェイがステータス%dを返しました", resp.StatusCode)
	}

	var parsed scheduleResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("登録レスポンスの解析に失敗しました: %w", err)
	}
	if parsed.NotificationID == "" {
		return "", fmt.Errorf("登録レスポンスに通知IDが含まれていません")
	}

	return parsed.NotificationID, nil
}

// Cancel は登録済みトリガーを解除する。
// 404（既に存在しない登録）は解除済みとして成功扱いにする。
func (c *Client) Cancel(ctx context.Context, notificationID string) error {
	if notificationID == "" {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete,
		c.baseURL+"/triggers/"+url.PathEscape(notificationID), nil)
	if err != nil {
		return fmt.Errorf("リクエストの作成に失敗しました: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("通知ゲートウェイの呼び出しに失敗しました: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 1024))

	if resp.StatusCode == http.StatusNotFound {
		return nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("通知ゲートウェイがステータス%dを返しました", resp.StatusCode)
	}

	return nil
}

// compile-time interface check
var _ Service = (*Client)(nil)
