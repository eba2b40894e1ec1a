// Package repository はPostgreSQLを使用した永続化層を提供する。
package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/aylin/gunluk/internal/model"
)

// JournalRepository は日記エントリの永続化インターフェース。
type JournalRepository interface {
	// Create は日記エントリを作成する。
	Create(ctx context.Context, entry *model.JournalEntry) error
	// FindByID は指定IDのエントリを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.JournalEntry, error)
	// ListByDateDesc は全エントリを日付の降順で取得する（一覧画面用）。
	ListByDateDesc(ctx context.Context) ([]*model.JournalEntry, error)
	// ListByDateAsc は全エントリを日付の昇順で取得する（感情集計用）。
	ListByDateAsc(ctx context.Context) ([]*model.JournalEntry, error)
	// Delete は指定IDのエントリを削除する。削除された場合はtrueを返す。
	Delete(ctx context.Context, id string) (bool, error)
}

// AttachmentRepository は日記の添付画像の永続化インターフェース。
type AttachmentRepository interface {
	// Create は添付画像を保存する。
	Create(ctx context.Context, attachment *model.JournalAttachment) error
	// FindByID は指定IDの添付画像を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.JournalAttachment, error)
	// DeleteOrphans はどのエントリからも参照されていない添付画像を削除し、削除件数を返す。
	DeleteOrphans(ctx context.Context) (int64, error)
}

// MoodRepository は気分記録の永続化インターフェース。
type MoodRepository interface {
	// Create は気分記録を作成する。
	Create(ctx context.Context, entry *model.MoodEntry) error
	// ExistsOnDay は指定時刻と同じUTC暦日の記録が存在するかを返す。
	ExistsOnDay(ctx context.Context, at time.Time) (bool, error)
	// ListByDateDesc は全気分記録を日付の降順で取得する。
	ListByDateDesc(ctx context.Context) ([]*model.MoodEntry, error)
}

// ReminderRepository はリマインダーの永続化インターフェース。
type ReminderRepository interface {
	// Create はリマインダーを作成する。
	Create(ctx context.Context, reminder *model.Reminder) error
	// FindByID は指定IDのリマインダーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Reminder, error)
	// List は全リマインダーを作成日時の降順で取得する。
	List(ctx context.Context) ([]*model.Reminder, error)
	// ListActive はactive=trueのリマインダーを取得する（再同期ワーカー用）。
	ListActive(ctx context.Context) ([]*model.Reminder, error)
	// UpdateActive はactiveフラグを更新する。対象が存在した場合はtrueを返す。
	UpdateActive(ctx context.Context, id string, active bool) (bool, error)
	// Delete は指定IDのリマインダーを削除する。削除された場合はtrueを返す。
	// 登録行は消さない（解除待ちのハンドルを失わないため、ワーカーが回収する）。
	Delete(ctx context.Context, id string) (bool, error)
}

// RegistrationRepository は通知トリガー登録の永続化インターフェース。
// リマインダー1件につき曜日ごとに最大1行を保持する。
type RegistrationRepository interface {
	// Upsert は曜日の登録ハンドルを保存する。同じ曜日の既存行は上書きする。
	Upsert(ctx context.Context, reg *model.ReminderRegistration) error
	// ListByReminder は指定リマインダーの全登録を取得する。
	ListByReminder(ctx context.Context, reminderID string) ([]*model.ReminderRegistration, error)
	// Delete は指定リマインダー・曜日の登録行を削除する。
	Delete(ctx context.Context, reminderID string, weekday model.Weekday) error
	// ListDangling はリマインダーが削除済みまたは非activeの登録行を取得する。
	// 解除に失敗して残ったハンドルをワーカーが回収するための操作。
	ListDangling(ctx context.Context) ([]*model.ReminderRegistration, error)
}

// nullString は空文字列をsql.NullStringに変換するヘルパー。
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// nullStringValue はsql.NullStringから文字列を取り出すヘルパー。
func nullStringValue(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

// nullFloat は感情スコアの有無をsql.NullFloat64に変換するヘルパー。
func nullFloat(v float64, valid bool) sql.NullFloat64 {
	return sql.NullFloat64{Float64: v, Valid: valid}
}
