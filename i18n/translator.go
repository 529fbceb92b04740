// Package i18n provides localized messages for issue codes.
package i18n

import (
	"sync"

	"golang.org/x/text/language"
)

// Translator retrieves localized messages for Issue codes.
// data provides optional metadata to embed in the message (for example,
// "expected", "allowed" or "rule").
type Translator interface {
	Message(code string, data map[string]string) string
}

// dictTranslator is the built-in dictionary-based Translator.
type dictTranslator struct{ lang string }

func (t dictTranslator) Message(code string, data map[string]string) string {
	switch t.lang {
	case "ja":
		switch code {
		case "invalid_type":
			if e := data["expected"]; e != "" {
				return "型が不正です (期待: " + e + ")"
			}
			return "型が不正です"
		case "required":
			return "必須プロパティが不足しています"
		case "unknown_key":
			return "未知のキーです"
		case "duplicate_key":
			return "キーが重複しています"
		case "too_short":
			return "空にできません"
		case "invalid_enum":
			if a := data["allowed"]; a != "" {
				return "許可されていない値です (許可: " + a + ")"
			}
			return "許可されていない値です"
		case "business_rule":
			switch data["rule"] {
			case "incremental_column_required":
				return "incremental が true の場合 incremental_column は必須です"
			case "incremental_column_forbidden":
				return "incremental が false の場合 incremental_column は指定できません"
			}
			return "業務ルール違反です"
		case "parse_error":
			return "解析エラー"
		case "truncated":
			return "打ち切られました"
		}
	default: // "en"
		switch code {
		case "invalid_type":
			if e := data["expected"]; e != "" {
				return "invalid type, expected " + e
			}
			return "invalid type"
		case "required":
			return "required property missing"
		case "unknown_key":
			return "unknown key"
		case "duplicate_key":
			return "duplicate key"
		case "too_short":
			return "must not be empty"
		case "invalid_enum":
			if a := data["allowed"]; a != "" {
				return "value not allowed, expected one of: " + a
			}
			return "value not allowed"
		case "business_rule":
			switch data["rule"] {
			case "incremental_column_required":
				return "incremental_column must be provided if incremental is true"
			case "incremental_column_forbidden":
				return "incremental_column must be absent if incremental is false"
			}
			return "business rule violated"
		case "parse_error":
			return "parse error"
		case "truncated":
			return "truncated"
		}
	}
	return code
}

var supported = []language.Tag{language.English, language.Japanese}

var matcher = language.NewMatcher(supported)

var (
	mu                sync.RWMutex
	currentTranslator Translator = dictTranslator{lang: "en"}
)

// SetLanguage switches the built-in Translator language. lang is a BCP 47
// tag ("ja", "ja-JP", "en-US", ...); anything that does not match Japanese
// falls back to English.
func SetLanguage(lang string) {
	_, idx, conf := matcher.Match(language.Make(lang))
	base := "en"
	if conf != language.No && supported[idx] == language.Japanese {
		base = "ja"
	}
	mu.Lock()
	currentTranslator = dictTranslator{lang: base}
	mu.Unlock()
}

// SetTranslator replaces the Translator implementation (not limited to the
// dictionary version).
func SetTranslator(tr Translator) {
	if tr == nil {
		tr = dictTranslator{lang: "en"}
	}
	mu.Lock()
	currentTranslator = tr
	mu.Unlock()
}

// T fetches a message for the given code using the current Translator.
func T(code string, data map[string]string) string {
	mu.RLock()
	tr := currentTranslator
	mu.RUnlock()
	return tr.Message(code, data)
}
