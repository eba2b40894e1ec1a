// Package journal は日記エントリのドメインロジックを提供する。
package journal

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aylin/gunluk/internal/model"
	"github.com/aylin/gunluk/internal/security"
)

// fetchTimeout はリモート画像取得のタイムアウト。
const fetchTimeout = 10 * time.Second

// ImageFetcherService はリモート画像取得のインターフェース。
type ImageFetcherService interface {
	// FetchImage は指定URLから添付画像を取得する。
	// favicon取得と異なりユーザー操作の一部のため、
	// 失敗は握りつぶさずAPIErrorとして返す。
	FetchImage(ctx context.Context, imageURL string) (data []byte, mimeType string, err error)
}

// ImageFetcher はリモート画像取得機能の実装。
// ユーザーが入力したURLを扱うため、SSRF防止クライアントを必ず経由する。
type ImageFetcher struct {
	ssrfGuard security.SSRFGuardService
	maxSize   int64
}

// NewImageFetcher はImageFetcherの新しいインスタンスを生成する。
func NewImageFetcher(ssrfGuard security.SSRFGuardService, maxSize int64) *ImageFetcher {
	return &ImageFetcher{
		ssrfGuard: ssrfGuard,
		maxSize:   maxSize,
	}
}

// FetchImage は指定URLから添付画像を取得する。
func (f *ImageFetcher) FetchImage(ctx context.Context, imageURL string) ([]byte, string, error) {
	if imageURL == "" {
		return nil, "", model.NewInvalidURLError("URLが空です")
	}

	// SSRF検証（静的チェック。DNS再バインディングはクライアント側で防止）
	if err := f.ssrfGuard.ValidateURL(imageURL); err != nil {
		slog.Warn("画像取得: SSRFブロック", "url", imageURL, "error", err)
		return nil, "", model.NewSSRFBlockedError()
	}

	client := f.ssrfGuard.NewSafeClient(fetchTimeout, f.maxSize)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, "", model.NewInvalidURLError(err.Error())
	}
	req.Header.Set("User-Agent", "Gunluk/1.0 Diary")

	resp, err := client.Do(req)
	if err != nil {
		slog.Warn("画像取得: HTTPリクエスト失敗", "url", imageURL, "error", err)
		return nil, "", model.NewInvalidURLError("画像の取得に失敗しました")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		slog.Warn("画像取得: HTTPステータス異常", "url", imageURL, "status", resp.StatusCode)
		return nil, "", model.NewInvalidURLError("画像の取得に失敗しました")
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxSize+1))
	if err != nil {
		return nil, "", model.NewInvalidURLError("画像の読み取りに失敗しました")
	}
	if int64(len(body)) > f.maxSize {
		return nil, "", model.NewImageTooLargeError(f.maxSize)
	}

	mimeType := extractMimeType(resp.Header.Get("Content-Type"))
	if mimeType == "" {
		// Content-Typeが欠落・不正な場合は先頭バイトから判定する
		mimeType = http.DetectContentType(body)
	}
	if !IsSupportedImageMime(mimeType) {
		return nil, "", model.NewUnsupportedImageError(mimeType)
	}

	return body, mimeType, nil
}

// supportedImageMimes は添付として受け付ける画像形式。
var supportedImageMimes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/gif":  true,
	"image/webp": true,
}

// IsSupportedImageMime はMIMEタイプが添付可能な画像形式かを判定する。
func IsSupportedImageMime(mimeType string) bool {
	return supportedImageMimes[extractMimeType(mimeType)]
}

// extractMimeType はContent-Typeヘッダーからメディアタイプを抽出する。
func extractMimeType(contentType string) string {
	if contentType == "" {
		return ""
	}
	// セミコロンの前の部分（charset等を除去）
	parts := strings.SplitN(contentType, ";", 2)
	return strings.TrimSpace(strings.ToLower(parts[0]))
}

// compile-time interface check
var _ ImageFetcherService = (*ImageFetcher)(nil)
