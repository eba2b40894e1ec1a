package handler

import (
	"context"
	"net/http"

	"github.com/aylin/gunluk/internal/model"
	"github.com/aylin/gunluk/internal/sentiment"
)

// EntryListerInterface は感情集計ハンドラーが必要とするリポジトリインターフェース。
type EntryListerInterface interface {
	// ListByDateAsc は全エントリを日付の昇順で取得する。
	ListByDateAsc(ctx context.Context) ([]*model.JournalEntry, error)
}

// SentimentHandler は感情スコア集計のHTTPハンドラー。
// 保存済みの感情スコアのみを集計し、外部APIは呼び出さない。
type SentimentHandler struct {
	entries EntryListerInterface
}

// NewSentimentHandler はSentimentHandlerを生成する。
func NewSentimentHandler(entries EntryListerInterface) *SentimentHandler {
	return &SentimentHandler{entries: entries}
}

// sentimentSeriesResponse は日付別の感情スコア系列のAPIレスポンス。
// labelsとscoresは同じ長さで、インデックスで対応する（グラフ描画用）。
type sentimentSeriesResponse struct {
	Labels []string  `json:"labels"`
	Scores []float64 `json:"scores"`
}

// weeklyPatternResponse は曜日別（月曜始まり7スロット）の感情パターン。
type weeklyPatternResponse struct {
	Pattern []float64 `json:"pattern"`
}

// GetSentimentSeries は日記エントリの感情スコアを暦日（UTC）単位で平均し、
// 日付昇順の系列として返す。スコアのない日は含まれない。
// GET /api/sentiment
func (h *SentimentHandler) GetSentimentSeries(w http.ResponseWriter, r *http.Request) {
	scores, err := h.aggregate(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := sentimentSeriesResponse{
		Labels: make([]string, len(scores)),
		Scores: make([]float64, len(scores)),
	}
	for i, ds := range scores {
		resp.Labels[i] = ds.Date
		resp.Scores[i] = ds.Score
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetWeeklyPattern は曜日別の感情パターンを返す。
// 月曜を先頭とする7要素の配列で、データのない曜日は0になる。
// GET /api/sentiment/weekly
func (h *SentimentHandler) GetWeeklyPattern(w http.ResponseWriter, r *http.Request) {
	scores, err := h.aggregate(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	pattern := sentiment.WeeklyPattern(scores)
	writeJSON(w, http.StatusOK, weeklyPatternResponse{Pattern: pattern[:]})
}

// aggregate は全エントリを取得して日付別スコアに集計する。
func (h *SentimentHandler) aggregate(ctx context.Context) ([]sentiment.DateScore, error) {
	entries, err := h.entries.ListByDateAsc(ctx)
	if err != nil {
		return nil, err
	}

	values := make([]model.JournalEntry, len(entries))
	for i, e := range entries {
		values[i] = *e
	}
	return sentiment.AggregateByDate(values), nil
}
