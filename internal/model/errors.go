// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: validation, journal, reminder, external, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeValidationFailed  = "VALIDATION_FAILED"
	ErrCodeEntryNotFound     = "ENTRY_NOT_FOUND"
	ErrCodeReminderNotFound  = "REMINDER_NOT_FOUND"
	ErrCodeDuplicateMood     = "DUPLICATE_MOOD"
	ErrCodeInvalidMood       = "INVALID_MOOD"
	ErrCodeInvalidWeekday    = "INVALID_WEEKDAY"
	ErrCodeSentimentFailed   = "SENTIMENT_FAILED"
	ErrCodeNotifierFailed    = "NOTIFIER_FAILED"
	ErrCodeChatFailed        = "CHAT_FAILED"
	ErrCodeInvalidURL        = "INVALID_URL"
	ErrCodeSSRFBlocked       = "SSRF_BLOCKED"
	ErrCodeImageTooLarge     = "IMAGE_TOO_LARGE"
	ErrCodeUnsupportedImage  = "UNSUPPORTED_IMAGE"
	ErrCodeAttachmentMissing = "ATTACHMENT_NOT_FOUND"
)

// NewValidationError は必須項目欠落などの入力検証エラーを生成する。
func NewValidationError(detail string) *APIError {
	return &APIError{
		Code:     ErrCodeValidationFailed,
		Message:  fmt.Sprintf("入力内容に誤りがあります: %s", detail),
		Category: "validation",
		Action:   "入力内容を確認して再度お試しください。",
	}
}

// NewEntryNotFoundError は日記エントリ未検出エラーを生成する。
func NewEntryNotFoundError(entryID string) *APIError {
	return &APIError{
		Code:     ErrCodeEntryNotFound,
		Message:  fmt.Sprintf("指定された日記エントリが見つかりません: %s", entryID),
		Category: "journal",
		Action:   "エントリIDを確認してください。",
	}
}

// NewReminderNotFoundError はリマインダー未検出エラーを生成する。
func NewReminderNotFoundError(reminderID string) *APIError {
	return &APIError{
		Code:     ErrCodeReminderNotFound,
		Message:  fmt.Sprintf("指定されたリマインダーが見つかりません: %s", reminderID),
		Category: "reminder",
		Action:   "リマインダーIDを確認してください。",
	}
}

// NewDuplicateMoodError は同一日の2件目の気分登録エラーを生成する。
func NewDuplicateMoodError() *APIError {
	return &APIError{
		Code:     ErrCodeDuplicateMood,
		Message:  "今日の気分は既に記録されています。",
		Category: "validation",
		Action:   "気分の記録は1日1回までです。明日また記録してください。",
	}
}

// NewInvalidMoodError は許可されていない気分ラベルのエラーを生成する。
func NewInvalidMoodError(mood string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidMood,
		Message:  fmt.Sprintf("無効な気分ラベルです: %s", mood),
		Category: "validation",
		Action:   "mutlu、uzgun、saskin、huzurlu、kizgin のいずれかを指定してください。",
	}
}

// NewInvalidWeekdayError は未知の曜日ラベルのエラーを生成する。
func NewInvalidWeekdayError(day string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidWeekday,
		Message:  fmt.Sprintf("無効な曜日ラベルです: %s", day),
		Category: "validation",
		Action:   "Pazartesi〜Pazar の曜日名を指定してください。",
	}
}

// NewSentimentFailedError は感情分析の失敗エラーを生成する。
// 感情分析は日記作成の必須依存であり、失敗時はエントリを保存しない。
func NewSentimentFailedError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeSentimentFailed,
		Message:  fmt.Sprintf("感情分析に失敗しました: %s", reason),
		Category: "external",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewNotifierFailedError は通知トリガーの登録/解除失敗を生成する。
// activeフラグの永続化はブロックせず、警告としてレスポンスに含める。
func NewNotifierFailedError(weekday, reason string) *APIError {
	return &APIError{
		Code:     ErrCodeNotifierFailed,
		Message:  fmt.Sprintf("通知トリガーの操作に失敗しました（%s）: %s", weekday, reason),
		Category: "external",
		Action:   "リマインダーを一度オフにしてから再度オンにしてください。",
	}
}

// NewChatFailedError はチャットアシスタント呼び出しの失敗エラーを生成する。
func NewChatFailedError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeChatFailed,
		Message:  fmt.Sprintf("アシスタントの応答生成に失敗しました: %s", reason),
		Category: "external",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewInvalidURLError は無効なURLエラーを生成する。
func NewInvalidURLError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidURL,
		Message:  fmt.Sprintf("無効なURLです: %s", reason),
		Category: "validation",
		Action:   "正しいURL形式（http:// または https:// で始まるURL）を入力してください。",
	}
}

// NewSSRFBlockedError はSSRFブロックエラーを生成する。
func NewSSRFBlockedError() *APIError {
	return &APIError{
		Code:     ErrCodeSSRFBlocked,
		Message:  "セキュリティポリシーにより、指定されたURLへのアクセスがブロックされました。",
		Category: "validation",
		Action:   "公開されているWebサイトのURLを入力してください。ローカルネットワークやプライベートIPへのアクセスは許可されていません。",
	}
}

// NewImageTooLargeError は画像サイズ超過エラーを生成する。
func NewImageTooLargeError(maxBytes int64) *APIError {
	return &APIError{
		Code:     ErrCodeImageTooLarge,
		Message:  fmt.Sprintf("画像サイズが上限（%dバイト）を超えています。", maxBytes),
		Category: "validation",
		Action:   "より小さい画像を指定してください。",
	}
}

// NewUnsupportedImageError は画像以外の添付エラーを生成する。
func NewUnsupportedImageError(mimeType string) *APIError {
	return &APIError{
		Code:     ErrCodeUnsupportedImage,
		Message:  fmt.Sprintf("サポートされていない添付形式です: %s", mimeType),
		Category: "validation",
		Action:   "PNG、JPEG、GIF、WebPのいずれかの画像を添付してください。",
	}
}

// NewAttachmentNotFoundError は添付画像未検出エラーを生成する。
func NewAttachmentNotFoundError(entryID string) *APIError {
	return &APIError{
		Code:     ErrCodeAttachmentMissing,
		Message:  fmt.Sprintf("指定されたエントリに添付画像がありません: %s", entryID),
		Category: "journal",
		Action:   "エントリIDを確認してください。",
	}
}
