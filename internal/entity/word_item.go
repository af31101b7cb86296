package entity

import (
	"strings"
	"time"

	"github.com/samber/lo"
)

// TextQuoteSelector is a citation of the target word inside a source text.
type TextQuoteSelector struct {
	Source       string
	Exact        string
	Prefix       string
	Suffix       string
	ContextHTML  string
	LanguageCode string
}

// IsEqual reports whether two citations point at the same passage.
func (s TextQuoteSelector) IsEqual(other TextQuoteSelector) bool {
	return s.Source == other.Source &&
		s.Exact == other.Exact &&
		s.Prefix == other.Prefix &&
		s.Suffix == other.Suffix
}

// Lexeme is one lemma of a lexical analysis together with its definitions.
type Lexeme struct {
	Lemma        string
	PartOfSpeech string
	Definitions  []string
}

// Homonym is the lexical analysis of a target word.
type Homonym struct {
	TargetWord string
	Lexemes    []Lexeme
}

// IsEmpty reports whether the analysis carries no information.
func (h *Homonym) IsEmpty() bool {
	return h == nil || (h.TargetWord == "" && len(h.Lexemes) == 0)
}

// HasDefinitions reports whether the analysis is a full one, i.e. goes beyond headwords.
func (h *Homonym) HasDefinitions() bool {
	if h == nil {
		return false
	}
	return lo.SomeBy(h.Lexemes, func(l Lexeme) bool {
		return l.PartOfSpeech != "" || len(l.Definitions) > 0
	})
}

// Lemmas returns the unique lemma words of the analysis in order of appearance.
func (h *Homonym) Lemmas() []string {
	if h == nil {
		return nil
	}
	words := lo.FilterMap(h.Lexemes, func(l Lexeme, _ int) (string, bool) {
		return l.Lemma, l.Lemma != ""
	})
	return lo.Uniq(words)
}

// Clone returns a deep copy of the analysis.
func (h *Homonym) Clone() *Homonym {
	if h == nil {
		return nil
	}
	clone := &Homonym{TargetWord: h.TargetWord}
	if h.Lexemes != nil {
		clone.Lexemes = lo.Map(h.Lexemes, func(l Lexeme, _ int) Lexeme {
			l.Definitions = append([]string(nil), l.Definitions...)
			return l
		})
	}
	return clone
}

// NewShortHomonym rebuilds a headword-only analysis from a lemma list.
func NewShortHomonym(targetWord, lemmasList string) *Homonym {
	h := &Homonym{TargetWord: targetWord}
	for _, lemma := range strings.Split(lemmasList, LemmaSeparator) {
		lemma = strings.TrimSpace(lemma)
		if lemma == "" {
			continue
		}
		h.Lexemes = append(h.Lexemes, Lexeme{Lemma: lemma})
	}
	return h
}

// LemmaSeparator joins lemma words in the short analysis form.
const LemmaSeparator = ", "

// WordItem is a single entry of a user's word list.
type WordItem struct {
	TargetWord     string
	LanguageCode   string
	Important      bool
	CurrentSession bool
	CreatedAt      time.Time
	Context        []TextQuoteSelector
	Homonym        *Homonym
}

// NewWordItem builds a word item for the current session.
func NewWordItem(languageCode, targetWord string) *WordItem {
	return &WordItem{
		TargetWord:     NormalizeTargetWord(targetWord),
		LanguageCode:   NormalizeLanguageCode(languageCode),
		CurrentSession: true,
	}
}

// DataType implements Record.
func (w *WordItem) DataType() DataType { return DataTypeWordItem }

// Identity implements Record.
func (w *WordItem) Identity() Identity {
	return NewIdentity(w.LanguageCode, w.TargetWord)
}

// Validate checks that the identity fields are present.
func (w *WordItem) Validate() error {
	if w == nil {
		return ErrInvalidWordItem
	}
	return w.Identity().Validate()
}

// AddContext appends citations that are not already present.
func (w *WordItem) AddContext(selectors ...TextQuoteSelector) int {
	added := 0
	for _, s := range selectors {
		if w.HasContext(s) {
			continue
		}
		w.Context = append(w.Context, s)
		added++
	}
	return added
}

// HasContext reports whether an equal citation is already attached.
func (w *WordItem) HasContext(s TextQuoteSelector) bool {
	return lo.ContainsBy(w.Context, func(existing TextQuoteSelector) bool {
		return existing.IsEqual(s)
	})
}

// LemmasList returns the headwords of the analysis joined for display and storage.
func (w *WordItem) LemmasList() string {
	if w.Homonym == nil {
		return ""
	}
	return strings.Join(w.Homonym.Lemmas(), LemmaSeparator)
}

// Clone returns a deep copy of the word item.
func (w *WordItem) Clone() *WordItem {
	if w == nil {
		return nil
	}
	clone := *w
	if w.Context != nil {
		clone.Context = append([]TextQuoteSelector(nil), w.Context...)
	}
	clone.Homonym = w.Homonym.Clone()
	return &clone
}
