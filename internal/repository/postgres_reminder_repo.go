package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/aylin/gunluk/internal/model"
)

// PostgresReminderRepo はPostgreSQLを使用したリマインダーリポジトリ。
type PostgresReminderRepo struct {
	db *sql.DB
}

// NewPostgresReminderRepo はPostgresReminderRepoを生成する。
func NewPostgresReminderRepo(db *sql.DB) *PostgresReminderRepo {
	return &PostgresReminderRepo{db: db}
}

// Create はリマインダーを作成する。
func (r *PostgresReminderRepo) Create(ctx context.Context, reminder *model.Reminder) error {
	days := make([]string, len(reminder.Days))
	for i, d := range reminder.Days {
		days[i] = string(d)
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO reminders (id, title, days, hour, minute, active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		reminder.ID, reminder.Title, pq.Array(days),
		reminder.Hour, reminder.Minute, reminder.Active,
		reminder.CreatedAt, reminder.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("リマインダーの作成に失敗しました: %w", err)
	}
	return nil
}

// FindByID は指定IDのリマインダーを取得する。見つからない場合はnilを返す。
func (r *PostgresReminderRepo) FindByID(ctx context.Context, id string) (*model.Reminder, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, title, days, hour, minute, active, created_at, updated_at
		 FROM reminders WHERE id = $1`, id)

	reminder, err := scanReminder(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("リマインダーの取得に失敗しました: %w", err)
	}
	return reminder, nil
}

// List は全リマインダーを作成日時の降順で取得する。
func (r *PostgresReminderRepo) List(ctx context.Context) ([]*model.Reminder, error) {
	return r.listWhere(ctx, "")
}

// ListActive はactive=trueのリマインダーを取得する。
func (r *PostgresReminderRepo) ListActive(ctx context.Context) ([]*model.Reminder, error) {
	return r.listWhere(ctx, "WHERE active = true")
}

func (r *PostgresReminderRepo) listWhere(ctx context.Context, where string) ([]*model.Reminder, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, title, days, hour, minute, active, created_at, updated_at
		 FROM reminders `+where+` ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("リマインダーの一覧取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var reminders []*model.Reminder
	for rows.Next() {
		reminder, err := scanReminder(rows)
		if err != nil {
			return nil, fmt.Errorf("リマインダーの読み取りに失敗しました: %w", err)
		}
		reminders = append(reminders, reminder)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("リマインダーの走査に失敗しました: %w", err)
	}
	return reminders, nil
}

// UpdateActive はactiveフラグを更新する。対象が存在した場合はtrueを返す。
func (r *PostgresReminderRepo) UpdateActive(ctx context.Context, id string, active bool) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE reminders SET active = $1, updated_at = now() WHERE id = $2`,
		active, id)
	if err != nil {
		return false, fmt.Errorf("activeフラグの更新に失敗しました: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("更新結果の取得に失敗しました: %w", err)
	}
	return affected > 0, nil
}

// Delete は指定IDのリマインダーを削除する。削除された場合はtrueを返す。
func (r *PostgresReminderRepo) Delete(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM reminders WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("リマインダーの削除に失敗しました: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("削除結果の取得に失敗しました: %w", err)
	}
	return affected > 0, nil
}

// scanReminder は1行をReminderに読み取る。
func scanReminder(row rowScanner) (*model.Reminder, error) {
	reminder := &model.Reminder{}
	var days pq.StringArray

	err := row.Scan(
		&reminder.ID, &reminder.Title, &days,
		&reminder.Hour, &reminder.Minute, &reminder.Active,
		&reminder.CreatedAt, &reminder.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	reminder.Days = make([]model.Weekday, len(days))
	for i, d := range days {
		reminder.Days[i] = model.Weekday(d)
	}
	return reminder, nil
}

// compile-time interface check
var _ ReminderRepository = (*PostgresReminderRepo)(nil)
