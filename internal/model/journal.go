// Package model はドメインモデルを定義する。
package model

import "time"

// JournalEntry は日記エントリを表す。
// SentimentScore / SentimentMagnitude は感情分析プロバイダから取得した値で、
// 分析に成功したエントリのみ値を持つ（HasSentimentで判定する）。
type JournalEntry struct {
	ID                 string
	Title              string
	Content            string
	Date               time.Time
	ImageID            string // 添付画像のID。添付なしの場合は空文字列
	SentimentScore     float64
	SentimentMagnitude float64
	HasSentiment       bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// JournalAttachment は日記エントリに添付された画像を表す。
// 画像データはDBに格納し、配信時にMIMEタイプとともに返す。
type JournalAttachment struct {
	ID        string
	Data      []byte
	MimeType  string
	CreatedAt time.Time
}
