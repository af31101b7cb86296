package entity

import (
	"strings"

	"github.com/samber/lo"
	"golang.org/x/text/unicode/norm"
)

// Language represents a language code as used by the word lists (ISO 639-3 style).
type Language string

const (
	LanguageUnspecified Language = ""
	LanguageLatin       Language = "lat"
	LanguageGreek       Language = "grc"
	LanguageArabic      Language = "ara"
	LanguagePersian     Language = "per"
	LanguageGeez        Language = "gez"
	LanguageSyriac      Language = "syr"
	LanguageHebrew      Language = "heb"
	LanguageChinese     Language = "zho"
	LanguageEnglish     Language = "eng"
)

// Code returns the normalized language code.
func (l Language) Code() string {
	return NormalizeLanguageCode(string(l))
}

var knownLanguages = []Language{
	LanguageLatin, LanguageGreek, LanguageArabic, LanguagePersian, LanguageGeez,
	LanguageSyriac, LanguageHebrew, LanguageChinese, LanguageEnglish,
}

// KnownLanguages lists the languages with dedicated support.
func KnownLanguages() []Language {
	return append([]Language(nil), knownLanguages...)
}

// Known reports whether the language has dedicated support.
func (l Language) Known() bool {
	return lo.Contains(knownLanguages, Language(l.Code()))
}

// NormalizeLanguageCode trims and lowercases a language code.
func NormalizeLanguageCode(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}

// NormalizeTargetWord trims the word and brings it to NFC so that
// precomposed and decomposed spellings share one identity.
func NormalizeTargetWord(word string) string {
	trimmed := strings.TrimSpace(word)
	if trimmed == "" {
		return ""
	}
	return norm.NFC.String(trimmed)
}
