package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/aylin/gunluk/internal/model"
)

// PostgresRegistrationRepo はPostgreSQLを使用した通知トリガー登録リポジトリ。
type PostgresRegistrationRepo struct {
	db *sql.DB
}

// NewPostgresRegistrationRepo はPostgresRegistrationRepoを生成する。
func NewPostgresRegistrationRepo(db *sql.DB) *PostgresRegistrationRepo {
	return &PostgresRegistrationRepo{db: db}
}

// Upsert は曜日の登録ハンドルを保存する。同じ曜日の既存行は上書きする。
func (r *PostgresRegistrationRepo) Upsert(ctx context.Context, reg *model.ReminderRegistration) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO reminder_registrations (reminder_id, weekday, notification_id, registered_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (reminder_id, weekday)
		 DO UPDATE SET notification_id = EXCLUDED.notification_id,
		               registered_at = EXCLUDED.registered_at`,
		reg.ReminderID, string(reg.Weekday), reg.NotificationID, reg.RegisteredAt,
	)
	if err != nil {
		return fmt.Errorf("トリガー登録の保存に失敗しました: %w", err)
	}
	return nil
}

// ListByReminder は指定リマインダーの全登録を曜日順で取得する。
func (r *PostgresRegistrationRepo) ListByReminder(ctx context.Context, reminderID string) ([]*model.ReminderRegistration, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT reminder_id, weekday, notification_id, registered_at
		 FROM reminder_registrations WHERE reminder_id = $1 ORDER BY weekday`,
		reminderID)
	if err != nil {
		return nil, fmt.Errorf("トリガー登録の一覧取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var regs []*model.ReminderRegistration
	for rows.Next() {
		reg := &model.ReminderRegistration{}
		var weekday string
		if err := rows.Scan(&reg.ReminderID, &weekday, &reg.NotificationID, &reg.RegisteredAt); err != nil {
			return nil, fmt.Errorf("トリガー登録の読み取りに失敗しました: %w", err)
		}
		reg.Weekday = model.Weekday(weekday)
		regs = append(regs, reg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("トリガー登録の走査に失敗しました: %w", err)
	}
	return regs, nil
}

// Delete は指定リマインダー・曜日の登録行を削除する。
func (r *PostgresRegistrationRepo) Delete(ctx context.Context, reminderID string, weekday model.Weekday) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM reminder_registrations WHERE reminder_id = $1 AND weekday = $2`,
		reminderID, string(weekday))
	if err != nil {
		return fmt.Errorf("トリガー登録の削除に失敗しました: %w", err)
	}
	return nil
}

// ListDangling はリマインダーが削除済みまたは非activeの登録行を取得する。
func (r *PostgresRegistrationRepo) ListDangling(ctx context.Context) ([]*model.ReminderRegistration, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT rr.reminder_id, rr.weekday, rr.notification_id, rr.registered_at
		 FROM reminder_registrations rr
		 LEFT JOIN reminders rem ON rem.id = rr.reminder_id
		 WHERE rem.id IS NULL OR rem.active = false
		 ORDER BY rr.registered_at`)
	if err != nil {
		return nil, fmt.Errorf("解除待ち登録の一覧取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var regs []*model.ReminderRegistration
	for rows.Next() {
		reg := &model.ReminderRegistration{}
		var weekday string
		if err := rows.Scan(&reg.ReminderID, &weekday, &reg.NotificationID, &reg.RegisteredAt); err != nil {
			return nil, fmt.Errorf("解除待ち登録の読み取りに失敗しました: %w", err)
		}
		reg.Weekday = model.Weekday(weekday)
		regs = append(regs, reg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("解除待ち登録の走査に失敗しました: %w", err)
	}
	return regs, nil
}

// compile-time interface check
var _ RegistrationRepository = (*PostgresRegistrationRepo)(nil)
