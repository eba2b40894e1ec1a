package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/aylin/gunluk/internal/model"
)

// PostgresAttachmentRepo はPostgreSQLを使用した添付画像リポジトリ。
// 画像データはbyteaカラムに格納する。
type PostgresAttachmentRepo struct {
	db *sql.DB
}

// NewPostgresAttachmentRepo はPostgresAttachmentRepoを生成する。
func NewPostgresAttachmentRepo(db *sql.DB) *PostgresAttachmentRepo {
	return &PostgresAttachmentRepo{db: db}
}

// Create は添付画像を保存する。
func (r *PostgresAttachmentRepo) Create(ctx context.Context, attachment *model.JournalAttachment) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO journal_attachments (id, data, mime_type, created_at)
		 VALUES ($1, $2, $3, $4)`,
		attachment.ID, attachment.Data, attachment.MimeType, attachment.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("添付画像の保存に失敗しました: %w", err)
	}
	return nil
}

// FindByID は指定IDの添付画像を取得する。見つからない場合はnilを返す。
func (r *PostgresAttachmentRepo) FindByID(ctx context.Context, id string) (*model.JournalAttachment, error) {
	attachment := &model.JournalAttachment{}

	err := r.db.QueryRowContext(ctx,
		`SELECT id, data, mime_type, created_at FROM journal_attachments WHERE id = $1`,
		id,
	).Scan(&attachment.ID, &attachment.Data, &attachment.MimeType, &attachment.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("添付画像の取得に失敗しました: %w", err)
	}
	return attachment, nil
}

// DeleteOrphans はどのエントリからも参照されていない添付画像を削除し、削除件数を返す。
// エントリ削除時にimage_idがSET NULLされるため、定期クリーンアップで本体を回収する。
func (r *PostgresAttachmentRepo) DeleteOrphans(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM journal_attachments a
		 WHERE NOT EXISTS (
		     SELECT 1 FROM journal_entries e WHERE e.image_id = a.id
		 )`)
	if err != nil {
		return 0, fmt.Errorf("孤立した添付画像の削除に失敗しました: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("削除結果の取得に失敗しました: %w", err)
	}
	return affected, nil
}

// compile-time interface check
var _ AttachmentRepository = (*PostgresAttachmentRepo)(nil)
