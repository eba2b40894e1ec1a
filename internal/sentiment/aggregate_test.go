package sentiment

import (
	"math"
	"testing"
	"time"

	"github.com/aylin/gunluk/internal/model"
)

// entryAt はテスト用のスコア付きエントリを生成するヘルパー。
func entryAt(t *testing.T, timestamp string, score float64) model.JournalEntry {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, timestamp)
	if err != nil {
		t.Fatalf("invalid timestamp %q: %v", timestamp, err)
	}
	return model.JournalEntry{
		Date:           ts,
		SentimentScore: score,
		HasSentiment:   true,
	}
}

// 空入力で空出力になることを検証
func TestAggregateByDate_Empty(t *testing.T) {
	got := AggregateByDate(nil)
	if len(got) != 0 {
		t.Errorf("AggregateByDate(nil) = %v, want empty", got)
	}

	got = AggregateByDate([]model.JournalEntry{})
	if len(got) != 0 {
		t.Errorf("AggregateByDate([]) = %v, want empty", got)
	}
}

// 同一日の複数スコアが算術平均になることを検証
func TestAggregateByDate_SameDayAveraged(t *testing.T) {
	entries := []model.JournalEntry{
		entryAt(t, "2024-03-04T10:00:00Z", 0.4),
		entryAt(t, "2024-03-04T18:00:00Z", 0.8),
	}

	got := AggregateByDate(entries)
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}
	if got[0].Date != "2024-03-04" {
		t.Errorf("Date = %q, want %q", got[0].Date, "2024-03-04")
	}
	if math.Abs(got[0].Score-0.6) > 1e-9 {
		t.Errorf("Score = %v, want 0.6", got[0].Score)
	}
}

// 出力が日付の昇順・一意であることを検証
func TestAggregateByDate_ChronologicalUnique(t *testing.T) {
	entries := []model.JournalEntry{
		entryAt(t, "2024-03-11T09:00:00Z", -0.2),
		entryAt(t, "2024-03-04T10:00:00Z", 0.5),
		entryAt(t, "2024-03-07T23:59:00Z", 0.1),
		entryAt(t, "2024-03-04T22:00:00Z", 0.3),
	}

	got := AggregateByDate(entries)
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}

	for i := 1; i < len(got); i++ {
		if got[i-1].Date >= got[i].Date {
			t.Errorf("dates not strictly ascending: %q >= %q", got[i-1].Date, got[i].Date)
		}
	}
	if got[0].Date != "2024-03-04" || got[1].Date != "2024-03-07" || got[2].Date != "2024-03-11" {
		t.Errorf("unexpected date order: %v", got)
	}
}

// スコアを持たないエントリが除外されることを検証
func TestAggregateByDate_SkipsEntriesWithoutScore(t *testing.T) {
	noScore := model.JournalEntry{Date: time.Date(2024, 3, 4, 12, 0, 0, 0, time.UTC)}
	entries := []model.JournalEntry{
		entryAt(t, "2024-03-04T10:00:00Z", 0.4),
		noScore,
	}

	got := AggregateByDate(entries)
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}
	if math.Abs(got[0].Score-0.4) > 1e-9 {
		t.Errorf("Score = %v, want 0.4 (unscored entry must not dilute mean)", got[0].Score)
	}
}

// 日付切り捨てがUTC基準であることを検証
func TestAggregateByDate_UTCTruncation(t *testing.T) {
	// UTC+3の深夜1時 = UTC前日の22時
	ist := time.FixedZone("TRT", 3*60*60)
	entry := model.JournalEntry{
		Date:           time.Date(2024, 3, 5, 1, 0, 0, 0, ist),
		SentimentScore: 0.9,
		HasSentiment:   true,
	}

	got := AggregateByDate([]model.JournalEntry{entry})
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}
	if got[0].Date != "2024-03-04" {
		t.Errorf("Date = %q, want %q (UTC truncation)", got[0].Date, "2024-03-04")
	}
}

// 常に7スロットで、該当のない曜日が0のままであることを検証
func TestWeeklyPattern_SevenSlotsZeroFilled(t *testing.T) {
	got := WeeklyPattern(nil)
	for i, v := range got {
		if v != 0 {
			t.Errorf("slot %d = %v, want 0", i, v)
		}
	}

	// 2024-03-06は水曜
	got = WeeklyPattern([]DateScore{{Date: "2024-03-06", Score: 0.7}})
	for i, v := range got {
		if i == 2 {
			if v != 0.7 {
				t.Errorf("Wednesday slot = %v, want 0.7", v)
			}
			continue
		}
		if v != 0 {
			t.Errorf("slot %d = %v, want 0", i, v)
		}
	}
}

// 月曜始まりのインデックス変換を検証
func TestWeeklyPattern_MondayFirstIndexing(t *testing.T) {
	tests := []struct {
		date string
		slot int
	}{
		{"2024-03-04", 0}, // 月曜
		{"2024-03-05", 1}, // 火曜
		{"2024-03-08", 4}, // 金曜
		{"2024-03-09", 5}, // 土曜
		{"2024-03-10", 6}, // 日曜
	}

	for _, tt := range tests {
		got := WeeklyPattern([]DateScore{{Date: tt.date, Score: 1.0}})
		if got[tt.slot] != 1.0 {
			t.Errorf("WeeklyPattern(%s): slot %d = %v, want 1.0", tt.date, tt.slot, got[tt.slot])
		}
	}
}

// 同一曜日の複数日付は入力順で後のものが残ることを検証（last wins）
func TestWeeklyPattern_LastWinsForSameWeekday(t *testing.T) {
	// どちらも月曜
	scores := []DateScore{
		{Date: "2024-03-04", Score: 0.5},
		{Date: "2024-03-11", Score: -0.2},
	}

	got := WeeklyPattern(scores)
	if got[0] != -0.2 {
		t.Errorf("Monday slot = %v, want -0.2 (last processed wins)", got[0])
	}
	for i := 1; i < 7; i++ {
		if got[i] != 0 {
			t.Errorf("slot %d = %v, want 0", i, got[i])
		}
	}
}

// 解析できない日付が無視されることを検証
func TestWeeklyPattern_IgnoresUnparsableDates(t *testing.T) {
	scores := []DateScore{
		{Date: "not-a-date", Score: 9.9},
		{Date: "2024-03-04", Score: 0.3},
	}

	got := WeeklyPattern(scores)
	if got[0] != 0.3 {
		t.Errorf("Monday slot = %v, want 0.3", got[0])
	}
}
