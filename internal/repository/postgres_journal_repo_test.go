package repository

import (
	"database/sql"
	"testing"
	"time"

	"github.com/aylin/gunluk/internal/model"
)

// PostgresJournalRepoがJournalRepositoryインターフェースを満たすことを検証
func TestPostgresJournalRepo_ImplementsInterface(t *testing.T) {
	var _ JournalRepository = (*PostgresJournalRepo)(nil)
}

// NewPostgresJournalRepoが正しく初期化されることを検証
func TestNewPostgresJournalRepo_Initializes(t *testing.T) {
	repo := NewPostgresJournalRepo(nil)
	if repo == nil {
		t.Fatal("expected non-nil repo")
	}
}

// nullFloatが感情スコアの有無を正しく変換することを検証
func TestNullFloat_SentimentPresence(t *testing.T) {
	withScore := nullFloat(0.5, true)
	if !withScore.Valid || withScore.Float64 != 0.5 {
		t.Errorf("nullFloat(0.5, true) = %+v", withScore)
	}

	withoutScore := nullFloat(0, false)
	if withoutScore.Valid {
		t.Errorf("nullFloat(0, false) should be invalid, got %+v", withoutScore)
	}
}

// nullString/nullStringValueの往復を検証
func TestNullStringHelpers(t *testing.T) {
	if ns := nullString(""); ns.Valid {
		t.Error("nullString(\"\") should be invalid")
	}
	if ns := nullString("x"); !ns.Valid || ns.String != "x" {
		t.Errorf("nullString(\"x\") = %+v", ns)
	}
	if v := nullStringValue(sql.NullString{}); v != "" {
		t.Errorf("nullStringValue(invalid) = %q, want empty", v)
	}
	if v := nullStringValue(sql.NullString{String: "y", Valid: true}); v != "y" {
		t.Errorf("nullStringValue = %q, want %q", v, "y")
	}
}

// JournalEntryモデルのフィールドが正しく構築されることを検証
func TestPostgresJournalRepo_EntryModel_Fields(t *testing.T) {
	now := time.Now()
	entry := &model.JournalEntry{
		ID:             "entry-id-1",
		Title:          "Bugünün günlüğü",
		Content:        "çok güzel bir gündü",
		Date:           now,
		SentimentScore: 0.8,
		HasSentiment:   true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if entry.ID != "entry-id-1" {
		t.Errorf("entry.ID = %q", entry.ID)
	}
	if !entry.HasSentiment {
		t.Error("entry.HasSentiment should be true")
	}
	if entry.ImageID != "" {
		t.Errorf("entry.ImageID = %q, want empty", entry.ImageID)
	}
}
