package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/aylin/gunluk/internal/model"
)

// PostgresJournalRepo はPostgreSQLを使用した日記エントリリポジトリ。
type PostgresJournalRepo struct {
	db *sql.DB
}

// NewPostgresJournalRepo はPostgresJournalRepoを生成する。
func NewPostgresJournalRepo(db *sql.DB) *PostgresJournalRepo {
	return &PostgresJournalRepo{db: db}
}

// journalColumns はSELECTで取得するカラムの並び。scanEntryと対応する。
const journalColumns = `id, title, content, date, image_id,
	        sentiment_score, sentiment_magnitude, created_at, updated_at`

// Create は日記エントリを作成する。
func (r *PostgresJournalRepo) Create(ctx context.Context, entry *model.JournalEntry) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO journal_entries (id, title, content, date, image_id,
		                              sentiment_score, sentiment_magnitude, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		entry.ID, entry.Title, entry.Content, entry.Date, nullString(entry.ImageID),
		nullFloat(entry.SentimentScore, entry.HasSentiment),
		nullFloat(entry.SentimentMagnitude, entry.HasSentiment),
		entry.CreatedAt, entry.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("日記エントリの作成に失敗しました: %w", err)
	}
	return nil
}

// FindByID は指定IDのエントリを取得する。見つからない場合はnilを返す。
func (r *PostgresJournalRepo) FindByID(ctx context.Context, id string) (*model.JournalEntry, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+journalColumns+` FROM journal_entries WHERE id = $1`, id)

	entry, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("日記エントリの取得に失敗しました: %w", err)
	}
	return entry, nil
}

// ListByDateDesc は全エントリを日付の降順で取得する。
func (r *PostgresJournalRepo) ListByDateDesc(ctx context.Context) ([]*model.JournalEntry, error) {
	return r.list(ctx, "DESC")
}

// ListByDateAsc は全エントリを日付の昇順で取得する。
func (r *PostgresJournalRepo) ListByDateAsc(ctx context.Context) ([]*model.JournalEntry, error) {
	return r.list(ctx, "ASC")
}

func (r *PostgresJournalRepo) list(ctx context.Context, order string) ([]*model.JournalEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+journalColumns+` FROM journal_entries ORDER BY date `+order)
	if err != nil {
		return nil, fmt.Errorf("日記エントリの一覧取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var entries []*model.JournalEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("日記エントリの読み取りに失敗しました: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("日記エントリの走査に失敗しました: %w", err)
	}
	return entries, nil
}

// Delete は指定IDのエントリを削除する。削除された場合はtrueを返す。
func (r *PostgresJournalRepo) Delete(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM journal_entries WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("日記エントリの削除に失敗しました: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("削除結果の取得に失敗しました: %w", err)
	}
	return affected > 0, nil
}

// rowScanner はsql.Rowとsql.Rowsの共通Scanインターフェース。
type rowScanner interface {
	Scan(dest ...any) error
}

// scanEntry は1行をJournalEntryに読み取る。
func scanEntry(row rowScanner) (*model.JournalEntry, error) {
	entry := &model.JournalEntry{}
	var imageID sql.NullString
	var score, magnitude sql.NullFloat64

	err := row.Scan(
		&entry.ID, &entry.Title, &entry.Content, &entry.Date, &imageID,
		&score, &magnitude, &entry.CreatedAt, &entry.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	entry.ImageID = nullStringValue(imageID)
	// スコアと強度は常にペアで保存されるため、スコアの有無で判定する
	if score.Valid {
		entry.SentimentScore = score.Float64
		entry.SentimentMagnitude = magnitude.Float64
		entry.HasSentiment = true
	}
	return entry, nil
}

// compile-time interface check
var _ JournalRepository = (*PostgresJournalRepo)(nil)
