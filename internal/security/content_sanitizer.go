// Package security はアプリケーションのセキュリティ機能を提供する。
//
// ContentSanitizerService は日記エントリのタイトルと本文をサニタイズし、
// 保存データへのHTML/スクリプト混入を防止する。
package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// ContentSanitizerService はテキストのサニタイズ機能のインターフェースを定義する。
// 日記エントリとチャットメッセージの保存・転送前に使用される。
type ContentSanitizerService interface {
	// Sanitize は入力からすべてのHTMLタグを除去した素のテキストを返す。
	// 日記の本文はプレーンテキストとして扱うため、許可タグは存在しない。
	// HTMLエンティティは元の文字に戻す（" など読みやすい形で保存する）。
	// 空文字列の入力には空文字列を返す。
	// 同一入力に対して常に同一出力を返す（冪等）。
	Sanitize(text string) string
}

// contentSanitizer はContentSanitizerServiceの実装。
// bluemondayのStrictPolicyを保持し、スレッドセーフにサニタイズ処理を行う。
type contentSanitizer struct {
	policy *bluemonday.Policy
}

// NewContentSanitizer はContentSanitizerServiceの新しいインスタンスを生成する。
// StrictPolicy（全タグ除去）を使用する。日記はリッチテキストではないため、
// タグを1つも通さないポリシーが正しい。
func NewContentSanitizer() *contentSanitizer {
	return &contentSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// Sanitize は入力からすべてのHTMLタグを除去した素のテキストを返す。
func (s *contentSanitizer) Sanitize(text string) string {
	if text == "" {
		return ""
	}
	stripped := s.policy.Sanitize(text)
	// StrictPolicyは残したテキストをエンティティ化するため、表示用に戻す
	return strings.TrimSpace(html.UnescapeString(stripped))
}

// compile-time interface check
var _ ContentSanitizerService = (*contentSanitizer)(nil)
