package i18n

import (
	"sort"
	"strings"
	"sync/atomic"
)

// Translator retrieves localized messages for error and violation codes.
// data provides optional values to embed in the message (for example,
// "spec" or "version"); placeholders use the {name} form.
type Translator interface {
	Message(code string, data map[string]string) string
}

var catalogs = map[string]map[string]string{
	"en": {
		"unknown_specification":  "unknown specification {spec}",
		"unsupported_version":    "specification {spec} does not support version {version}",
		"no_default_version":     "specification {spec} has no default version",
		"unsupported_extension":  "specification {spec} has no reader for extension {extension}",
		"duplicate_registration": "duplicate registration of {key} in {spec}",
		"invalid_registration":   "invalid registration in {spec}",
		"rule_violation":         "rule violation",
		"reader_failure":         "reader failed",
		"parser_failure":         "parser failed",
		"builder_failure":        "builder failed",
		"duplicate_key":          "duplicate key",
		"max_depth_exceeded":     "max depth exceeded",
		"truncated":              "input too large",
		"canceled":               "canceled",
	},
	"ja": {
		"unknown_specification":  "未知の仕様です: {spec}",
		"unsupported_version":    "仕様 {spec} はバージョン {version} をサポートしていません",
		"no_default_version":     "仕様 {spec} にデフォルトバージョンがありません",
		"unsupported_extension":  "仕様 {spec} は拡張子 {extension} のリーダーを持ちません",
		"duplicate_registration": "{spec} で {key} が重複登録されました",
		"invalid_registration":   "{spec} の登録が不正です",
		"rule_violation":         "ルール違反",
		"reader_failure":         "読み込みに失敗しました",
		"parser_failure":         "解析に失敗しました",
		"builder_failure":        "構築に失敗しました",
		"duplicate_key":          "キーが重複しています",
		"max_depth_exceeded":     "最大深度を超えました",
		"truncated":              "入力が大きすぎます",
		"canceled":               "キャンセルされました",
	},
}

// dictTranslator is the built-in dictionary-based Translator.
type dictTranslator struct{ lang string }

func (t dictTranslator) Message(code string, data map[string]string) string {
	msg, ok := catalogs[t.lang][code]
	if !ok {
		msg, ok = catalogs["en"][code]
	}
	if !ok {
		return code
	}
	return expand(msg, data)
}

// expand substitutes {name} placeholders; keys are applied in sorted order so
// the output does not depend on map iteration.
func expand(msg string, data map[string]string) string {
	if len(data) == 0 || !strings.Contains(msg, "{") {
		return msg
	}
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, 0, 2*len(keys))
	for _, k := range keys {
		pairs = append(pairs, "{"+k+"}", data[k])
	}
	return strings.NewReplacer(pairs...).Replace(msg)
}

type holder struct{ tr Translator }

var current atomic.Pointer[holder]

func init() { current.Store(&holder{tr: dictTranslator{lang: "en"}}) }

// SetLanguage switches the built-in Translator language ("en"/"ja").
func SetLanguage(lang string) {
	if _, ok := catalogs[lang]; !ok {
		lang = "en"
	}
	current.Store(&holder{tr: dictTranslator{lang: lang}})
}

// SetTranslator replaces the Translator implementation (not limited to the
// dictionary version). A nil Translator restores the English dictionary.
func SetTranslator(tr Translator) {
	if tr == nil {
		tr = dictTranslator{lang: "en"}
	}
	current.Store(&holder{tr: tr})
}

// T fetches a message for the given code using the current Translator.
func T(code string, data map[string]string) string { return current.Load().tr.Message(code, data) }
