// Package security はアプリケーションのセキュリティ機能を提供する。
//
// TextSanitizer は顧客情報などの自由入力テキストからHTMLマークアップを取り除く。
// bluemondayのStrictPolicyでタグと属性をすべて除去したうえで、
// エスケープされた文字実体を元に戻してプレーンテキストとして保存する。
package security

import (
	"html"

	"github.com/microcosm-cc/bluemonday"
)

// TextSanitizer はプレーンテキスト化のインターフェース。
type TextSanitizer interface {
	// StripMarkup はHTMLタグを除去したプレーンテキストを返す。
	// script, styleタグは中身ごと除去される。
	// マークアップを含まない入力はそのまま返す。
	StripMarkup(s string) string
}

// textSanitizer はTextSanitizerの実装。
// bluemondayのポリシーはスレッドセーフなので共有して使う。
type textSanitizer struct {
	policy *bluemonday.Policy
}

// NewTextSanitizer はTextSanitizerの新しいインスタンスを生成する。
func NewTextSanitizer() TextSanitizer {
	return &textSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// StripMarkup はHTMLタグを除去したプレーンテキストを返す。
func (s *textSanitizer) StripMarkup(text string) string {
	if text == "" {
		return ""
	}
	return html.UnescapeString(s.policy.Sanitize(text))
}
