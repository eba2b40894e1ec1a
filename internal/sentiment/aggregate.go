// Package sentiment は日記エントリの感情スコアの集計と外部感情分析APIの呼び出しを提供する。
package sentiment

import (
	"sort"
	"time"

	"github.com/aylin/gunluk/internal/model"
)

// DateScore は1暦日分の平均感情スコアを表す。
// Dateは "2006-01-02" 形式の日付文字列（UTC基準）。
type DateScore struct {
	Date  string
	Score float64
}

// AggregateByDate はエントリ列を暦日ごとにまとめ、日別の平均スコアを返す。
//
// 日付の切り捨てはUTC基準で行う。エントリのタイムスタンプをUTCに変換してから
// 日付部分のみを取り出すため、ユーザーのローカル暦日とは深夜帯でずれうる
// （参照実装のISO文字列切り捨てと同じ振る舞い）。
//
// 感情スコアを持たないエントリは集計から除外する。
// 出力は日付の昇順で、入力に存在する日付のみを含む（ゼロ埋めしない）。
// 空入力の場合は空スライスを返す。
func AggregateByDate(entries []model.JournalEntry) []DateScore {
	buckets := make(map[string][]float64)
	for _, e := range entries {
		if !e.HasSentiment {
			continue
		}
		day := e.Date.UTC().Format(time.DateOnly)
		buckets[day] = append(buckets[day], e.SentimentScore)
	}

	result := make([]DateScore, 0, len(buckets))
	for day, scores := range buckets {
		var sum float64
		for _, s := range scores {
			sum += s
		}
		result = append(result, DateScore{
			Date:  day,
			Score: sum / float64(len(scores)),
		})
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Date < result[j].Date
	})

	return result
}

// WeeklyPattern は日付別スコアを月曜始まりの7スロット配列に射影する。
//
// スロットは Pazartesi=0 … Pazar=6 で、該当する日付のないスロットは0のまま。
// 同じ曜日に複数の日付が該当する場合は入力順で後のものが上書きする
// （チャートは「曜日ごとの最新値」を表示する仕様）。
// 解析できない日付文字列は無視する。
func WeeklyPattern(scores []DateScore) [7]float64 {
	var pattern [7]float64

	for _, ds := range scores {
		d, err := time.Parse(time.DateOnly, ds.Date)
		if err != nil {
			continue
		}
		// time.WeekdayはSunday=0…Saturday=6。月曜始まりに変換する
		idx := (int(d.Weekday()) + 6) % 7
		pattern[idx] = ds.Score
	}

	return pattern
}
