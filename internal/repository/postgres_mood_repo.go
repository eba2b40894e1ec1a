package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/aylin/gunluk/internal/model"
)

// PostgresMoodRepo はPostgreSQLを使用した気分記録リポジトリ。
type PostgresMoodRepo struct {
	db *sql.DB
}

// NewPostgresMoodRepo はPostgresMoodRepoを生成する。
func NewPostgresMoodRepo(db *sql.DB) *PostgresMoodRepo {
	return &PostgresMoodRepo{db: db}
}

// Create は気分記録を作成する。
// 同一UTC暦日の2件目はユニークインデックス違反になるため、
// 呼び出し元は事前にExistsOnDayで確認すること。
func (r *PostgresMoodRepo) Create(ctx context.Context, entry *model.MoodEntry) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO mood_entries (id, mood, date, created_at)
		 VALUES ($1, $2, $3, $4)`,
		entry.ID, string(entry.Mood), entry.Date, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("気分記録の作成に失敗しました: %w", err)
	}
	return nil
}

// ExistsOnDay は指定時刻と同じUTC暦日の記録が存在するかを返す。
func (r *PostgresMoodRepo) ExistsOnDay(ctx context.Context, at time.Time) (bool, error) {
	dayStart := at.UTC().Truncate(24 * time.Hour)
	dayEnd := dayStart.Add(24 * time.Hour)

	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (
		     SELECT 1 FROM mood_entries WHERE date >= $1 AND date < $2
		 )`,
		dayStart, dayEnd,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("気分記録の重複確認に失敗しました: %w", err)
	}
	return exists, nil
}

// ListByDateDesc は全気分記録を日付の降順で取得する。
func (r *PostgresMoodRepo) ListByDateDesc(ctx context.Context) ([]*model.MoodEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, mood, date, created_at FROM mood_entries ORDER BY date DESC`)
	if err != nil {
		return nil, fmt.Errorf("気分記録の一覧取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var entries []*model.MoodEntry
	for rows.Next() {
		entry := &model.MoodEntry{}
		var mood string
		if err := rows.Scan(&entry.ID, &mood, &entry.Date, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("気分記録の読み取りに失敗しました: %w", err)
		}
		entry.Mood = model.Mood(mood)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("気分記録の走査に失敗しました: %w", err)
	}
	return entries, nil
}

// compile-time interface check
var _ MoodRepository = (*PostgresMoodRepo)(nil)
