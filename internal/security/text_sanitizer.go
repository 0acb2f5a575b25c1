// Package security はアプリケーションのセキュリティ機能を提供する。
//
// TextSanitizer はユーザー入力のプレーンテキストからHTMLマークアップを取り除く。
// bluemondayのStrictPolicyを使用し、タグはすべて除去する。
package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// TextSanitizer はプレーンテキスト用サニタイズ機能のインターフェース。
type TextSanitizer interface {
	// StripTags はHTMLタグを除去したプレーンテキストを返す。
	// script、styleタグは中身ごと除去される。
	// 実体参照は元の文字に戻す。戻した結果がタグになる場合はそれも除去し、
	// 出力が変化しなくなるまで繰り返す。前後の空白は除去する。
	StripTags(s string) string
}

// textSanitizer はTextSanitizerの実装。
// bluemondayのポリシーはスレッドセーフに共有できる。
type textSanitizer struct {
	policy *bluemonday.Policy
}

// maxStripPasses は除去と実体参照の復元を繰り返す回数の上限。
const maxStripPasses = 8

// NewTextSanitizer はTextSanitizerの新しいインスタンスを生成する。
func NewTextSanitizer() TextSanitizer {
	return &textSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// StripTags はHTMLタグを除去したプレーンテキストを返す。
func (s *textSanitizer) StripTags(raw string) string {
	text := raw
	for i := 0; i < maxStripPasses; i++ {
		stripped := html.UnescapeString(s.policy.Sanitize(text))
		if stripped == text {
			return strings.TrimSpace(stripped)
		}
		text = stripped
	}
	// 収束しない入力は実体参照のまま返す
	return strings.TrimSpace(s.policy.Sanitize(text))
}
