package codec

import (
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/eslsoft/vocsync/internal/entity"
)

// CreatedLayout is the timestamp layout used in stored documents.
const CreatedLayout = "2006/01/02 @ 15:04:05"

const selectorType = "TextQuoteSelector"

type commonPayload struct {
	Important bool `json:"important"`
}

type selectorJSON struct {
	Type         string `json:"type"`
	Exact        string `json:"exact"`
	Prefix       string `json:"prefix"`
	Suffix       string `json:"suffix"`
	ContextHTML  string `json:"contextHTML,omitempty"`
	LanguageCode string `json:"languageCode,omitempty"`
}

type targetJSON struct {
	Source   string       `json:"source"`
	Selector selectorJSON `json:"selector"`
}

type contextPayload struct {
	Target targetJSON `json:"target"`
}

type lexemeJSON struct {
	Lemma        string   `json:"lemma"`
	PartOfSpeech string   `json:"partOfSpeech,omitempty"`
	Definitions  []string `json:"definitions,omitempty"`
}

type homonymJSON struct {
	TargetWord string       `json:"targetWord"`
	LemmasList string       `json:"lemmasList,omitempty"`
	Lexemes    []lexemeJSON `json:"lexemes,omitempty"`
}

type homonymPayload struct {
	Homonym homonymJSON `json:"homonym"`
}

func toTarget(s entity.TextQuoteSelector) targetJSON {
	return targetJSON{
		Source: s.Source,
		Selector: selectorJSON{
			Type:         selectorType,
			Exact:        s.Exact,
			Prefix:       s.Prefix,
			Suffix:       s.Suffix,
			ContextHTML:  s.ContextHTML,
			LanguageCode: s.LanguageCode,
		},
	}
}

func fromTarget(t targetJSON) entity.TextQuoteSelector {
	return entity.TextQuoteSelector{
		Source:       t.Source,
		Exact:        t.Selector.Exact,
		Prefix:       t.Selector.Prefix,
		Suffix:       t.Selector.Suffix,
		ContextHTML:  t.Selector.ContextHTML,
		LanguageCode: t.Selector.LanguageCode,
	}
}

func shortHomonym(w *entity.WordItem) homonymJSON {
	return homonymJSON{TargetWord: w.Homonym.TargetWord, LemmasList: w.LemmasList()}
}

func fullHomonym(h *entity.Homonym) homonymJSON {
	return homonymJSON{
		TargetWord: h.TargetWord,
		Lexemes: lo.Map(h.Lexemes, func(l entity.Lexeme, _ int) lexemeJSON {
			return lexemeJSON{Lemma: l.Lemma, PartOfSpeech: l.PartOfSpeech, Definitions: l.Definitions}
		}),
	}
}

func (h homonymJSON) toEntity() *entity.Homonym {
	if len(h.Lexemes) == 0 {
		return entity.NewShortHomonym(h.TargetWord, h.LemmasList)
	}
	return &entity.Homonym{
		TargetWord: h.TargetWord,
		Lexemes: lo.Map(h.Lexemes, func(l lexemeJSON, _ int) entity.Lexeme {
			return entity.Lexeme{Lemma: l.Lemma, PartOfSpeech: l.PartOfSpeech, Definitions: l.Definitions}
		}),
	}
}

func formatCreated(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(CreatedLayout)
}

func parseCreated(value string) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}
	}
	for _, layout := range []string{CreatedLayout, time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
