package usecase

import (
	"slices"
	"time"

	"github.com/samber/lo"

	"github.com/eslsoft/vocsync/internal/entity"
)

// Merger reconciles two copies of one record. The result carries base's values
// wherever the policy keeps them; changed lists the segments that differ from base.
// Diff lists the segments a store holding stored must rewrite to hold final.
type Merger[T entity.Record] interface {
	Merge(base, incoming T) (merged T, changed []entity.Segment)
	Diff(stored, final T) []entity.Segment
}

// MergeStrategy names how a field is reconciled.
type MergeStrategy string

const (
	// StrategyFillIfAbsent keeps base's value unless it is unset.
	StrategyFillIfAbsent MergeStrategy = "fillIfAbsent"
	// StrategyUnion keeps every element of both sides, deduplicated.
	StrategyUnion MergeStrategy = "union"
)

// MergeRule is one row of a field merge policy.
type MergeRule[T any] struct {
	Field    string
	Strategy MergeStrategy
	// Segments are the persisted segments touched when the rule changes base.
	Segments []entity.Segment
	// Apply folds incoming into dst and reports whether dst changed.
	Apply func(dst, incoming T) bool
	// Differs reports whether stored holds another value than final. Nil for runtime-only fields.
	Differs func(stored, final T) bool
}

// WordItemPolicy is the field merge policy for word items.
var WordItemPolicy = []MergeRule[*entity.WordItem]{
	{
		Field:    "important",
		Strategy: StrategyFillIfAbsent,
		Segments: []entity.Segment{entity.SegmentCommon},
		Apply: func(dst, incoming *entity.WordItem) bool {
			if dst.Important || !incoming.Important {
				return false
			}
			dst.Important = true
			return true
		},
		Differs: func(stored, final *entity.WordItem) bool {
			return stored.Important != final.Important
		},
	},
	{
		Field:    "createdAt",
		Strategy: StrategyFillIfAbsent,
		Segments: []entity.Segment{entity.SegmentCommon},
		Apply: func(dst, incoming *entity.WordItem) bool {
			if !dst.CreatedAt.IsZero() || incoming.CreatedAt.IsZero() {
				return false
			}
			dst.CreatedAt = incoming.CreatedAt
			return true
		},
		Differs: func(stored, final *entity.WordItem) bool {
			return !stored.CreatedAt.Truncate(time.Second).Equal(final.CreatedAt.Truncate(time.Second))
		},
	},
	{
		Field:    "homonym",
		Strategy: StrategyFillIfAbsent,
		Segments: []entity.Segment{entity.SegmentShortHomonym, entity.SegmentFullHomonym},
		Apply: func(dst, incoming *entity.WordItem) bool {
			if !dst.Homonym.IsEmpty() || incoming.Homonym.IsEmpty() {
				return false
			}
			dst.Homonym = incoming.Homonym.Clone()
			return true
		},
		Differs: func(stored, final *entity.WordItem) bool {
			return stored.LemmasList() != final.LemmasList()
		},
	},
	{
		// A headword-only analysis counts as absent definitions. The headwords are
		// already stored, so only the full form is rewritten.
		Field:    "homonym.definitions",
		Strategy: StrategyFillIfAbsent,
		Segments: []entity.Segment{entity.SegmentFullHomonym},
		Apply: func(dst, incoming *entity.WordItem) bool {
			if dst.Homonym.HasDefinitions() || !incoming.Homonym.HasDefinitions() {
				return false
			}
			dst.Homonym = incoming.Homonym.Clone()
			return true
		},
		Differs: func(stored, final *entity.WordItem) bool {
			return !sameLexemes(stored.Homonym, final.Homonym)
		},
	},
	{
		// Runtime flag, never persisted.
		Field:    "currentSession",
		Strategy: StrategyFillIfAbsent,
		Apply: func(dst, incoming *entity.WordItem) bool {
			if dst.CurrentSession || !incoming.CurrentSession {
				return false
			}
			dst.CurrentSession = true
			return true
		},
	},
	{
		Field:    "context",
		Strategy: StrategyUnion,
		Segments: []entity.Segment{entity.SegmentContext},
		Apply: func(dst, incoming *entity.WordItem) bool {
			return dst.AddContext(incoming.Context...) > 0
		},
		Differs: func(stored, final *entity.WordItem) bool {
			return lo.SomeBy(final.Context, func(c entity.TextQuoteSelector) bool { return !stored.HasContext(c) })
		},
	},
}

func lexemes(h *entity.Homonym) []entity.Lexeme {
	if h == nil {
		return nil
	}
	return h.Lexemes
}

func sameLexemes(a, b *entity.Homonym) bool {
	return slices.EqualFunc(lexemes(a), lexemes(b), func(x, y entity.Lexeme) bool {
		return x.Lemma == y.Lemma && x.PartOfSpeech == y.PartOfSpeech && slices.Equal(x.Definitions, y.Definitions)
	})
}

// PolicyMerger applies a merge policy table to records of type T.
type PolicyMerger[T entity.Record] struct {
	rules []MergeRule[T]
	clone func(T) T
	isNil func(T) bool
}

// NewPolicyMerger builds a merger from a policy table.
func NewPolicyMerger[T entity.Record](rules []MergeRule[T], clone func(T) T, isNil func(T) bool) *PolicyMerger[T] {
	return &PolicyMerger[T]{rules: rules, clone: clone, isNil: isNil}
}

// NewWordItemMerger returns the merger for word items.
func NewWordItemMerger() *PolicyMerger[*entity.WordItem] {
	return NewPolicyMerger(WordItemPolicy,
		func(w *entity.WordItem) *entity.WordItem { return w.Clone() },
		func(w *entity.WordItem) bool { return w == nil },
	)
}

// Rules returns the policy table.
func (m *PolicyMerger[T]) Rules() []MergeRule[T] { return m.rules }

// Merge never mutates its arguments.
func (m *PolicyMerger[T]) Merge(base, incoming T) (T, []entity.Segment) {
	if m.isNil(base) {
		return m.clone(incoming), nil
	}
	merged := m.clone(base)
	if m.isNil(incoming) {
		return merged, nil
	}
	var changed []entity.Segment
	for _, rule := range m.rules {
		if rule.Apply(merged, incoming) {
			changed = append(changed, rule.Segments...)
		}
	}
	return merged, lo.Uniq(changed)
}

// Diff compares every rule; a missing stored copy differs in every segment.
func (m *PolicyMerger[T]) Diff(stored, final T) []entity.Segment {
	if m.isNil(final) {
		return nil
	}
	var changed []entity.Segment
	for _, rule := range m.rules {
		if rule.Differs == nil {
			continue
		}
		if m.isNil(stored) || rule.Differs(stored, final) {
			changed = append(changed, rule.Segments...)
		}
	}
	return lo.Uniq(changed)
}
