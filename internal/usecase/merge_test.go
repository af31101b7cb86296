package usecase

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eslsoft/vocsync/internal/entity"
)

func citation(source, prefix string) entity.TextQuoteSelector {
	return entity.TextQuoteSelector{Source: source, Exact: "mare", Prefix: prefix, Suffix: "."}
}

func mergeSamples() []*entity.WordItem {
	empty := entity.NewWordItem("lat", "mare")

	important := entity.NewWordItem("lat", "mare")
	important.Important = true
	important.CreatedAt = time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	important.AddContext(citation("a", "per "), citation("b", "in "))

	short := entity.NewWordItem("lat", "mare")
	short.Homonym = entity.NewShortHomonym("mare", "mare")
	short.AddContext(citation("b", "in "), citation("c", "ad "))

	full := entity.NewWordItem("lat", "mare")
	full.CreatedAt = time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	full.Homonym = &entity.Homonym{TargetWord: "mare", Lexemes: []entity.Lexeme{{Lemma: "mare", PartOfSpeech: "noun", Definitions: []string{"sea"}}}}

	return []*entity.WordItem{empty, important, short, full}
}

func contextKeys(w *entity.WordItem) []string {
	keys := make([]string, 0, len(w.Context))
	for _, c := range w.Context {
		keys = append(keys, c.Source+"|"+c.Exact+"|"+c.Prefix+"|"+c.Suffix)
	}
	return keys
}

func TestMergeIdempotent(t *testing.T) {
	merger := NewWordItemMerger()
	for i, a := range mergeSamples() {
		for j, b := range mergeSamples() {
			once, _ := merger.Merge(a, b)
			twice, changed := merger.Merge(once, b)
			assert.Equal(t, once, twice, "merge(merge(a,b),b) for samples %d,%d", i, j)
			assert.Empty(t, changed, "second merge must not report changes for samples %d,%d", i, j)
		}
	}
}

func TestMergeContextUnionCommutes(t *testing.T) {
	merger := NewWordItemMerger()
	for _, a := range mergeSamples() {
		for _, b := range mergeSamples() {
			ab, _ := merger.Merge(a, b)
			ba, _ := merger.Merge(b, a)
			assert.ElementsMatch(t, contextKeys(ab), contextKeys(ba))
		}
	}
}

func TestMergeFillIfAbsent(t *testing.T) {
	merger := NewWordItemMerger()
	samples := mergeSamples()
	empty, important, short, full := samples[0], samples[1], samples[2], samples[3]

	merged, changed := merger.Merge(empty, important)
	assert.True(t, merged.Important)
	assert.Equal(t, important.CreatedAt, merged.CreatedAt)
	assert.ElementsMatch(t, []entity.Segment{entity.SegmentCommon, entity.SegmentContext}, changed)

	merged, _ = merger.Merge(important, full)
	assert.Equal(t, important.CreatedAt, merged.CreatedAt, "base timestamp is kept")

	merged, changed = merger.Merge(short, full)
	require.NotNil(t, merged.Homonym)
	assert.True(t, merged.Homonym.HasDefinitions(), "definitions fill a headword-only analysis")
	assert.Contains(t, changed, entity.SegmentFullHomonym)

	merged, _ = merger.Merge(full, short)
	assert.True(t, merged.Homonym.HasDefinitions(), "a full analysis is never downgraded")
}

func TestMergeKeepsImportantFromBase(t *testing.T) {
	merger := NewWordItemMerger()
	base := entity.NewWordItem("lat", "mare")
	base.Important = true
	incoming := entity.NewWordItem("lat", "mare")

	merged, changed := merger.Merge(base, incoming)
	assert.True(t, merged.Important)
	assert.Empty(t, changed)
}

func TestMergeDoesNotMutateInputs(t *testing.T) {
	merger := NewWordItemMerger()
	samples := mergeSamples()
	a, b := samples[1], samples[2]
	aBefore, bBefore := a.Clone(), b.Clone()

	_, _ = merger.Merge(a, b)

	assert.Equal(t, aBefore, a)
	assert.Equal(t, bBefore, b)
}

func TestWordItemPolicyCoversFields(t *testing.T) {
	fields := make(map[string]MergeStrategy)
	for _, rule := range NewWordItemMerger().Rules() {
		fields[rule.Field] = rule.Strategy
	}
	assert.Equal(t, StrategyFillIfAbsent, fields["important"])
	assert.Equal(t, StrategyFillIfAbsent, fields["homonym"])
	assert.Equal(t, StrategyUnion, fields["context"])
}

func TestMergeFillsCurrentSession(t *testing.T) {
	merger := NewWordItemMerger()
	stored := entity.NewWordItem("lat", "mare")
	stored.CurrentSession = false
	incoming := entity.NewWordItem("lat", "mare")

	merged, changed := merger.Merge(stored, incoming)
	assert.True(t, merged.CurrentSession)
	assert.Empty(t, changed, "the session flag is never persisted")
	assert.Empty(t, merger.Diff(stored, merged))
}

func TestDiffReportsSegmentsThatDiffer(t *testing.T) {
	merger := NewWordItemMerger()
	samples := mergeSamples()
	important, short, full := samples[1], samples[2], samples[3]

	for _, s := range samples {
		assert.Empty(t, merger.Diff(s, s.Clone()))
	}

	other := short.Clone()
	other.Homonym = entity.NewShortHomonym("mare", "marum")
	assert.ElementsMatch(t, []entity.Segment{entity.SegmentShortHomonym, entity.SegmentFullHomonym}, merger.Diff(short, other),
		"conflicting headwords rewrite both analysis forms even though fill-if-absent keeps the base")
	kept, changed := merger.Merge(short, other)
	assert.Empty(t, changed)
	assert.Equal(t, "mare", kept.LemmasList())

	headwords := full.Clone()
	headwords.Homonym = entity.NewShortHomonym("mare", "mare")
	assert.Equal(t, []entity.Segment{entity.SegmentFullHomonym}, merger.Diff(headwords, full))

	later := important.Clone()
	later.CreatedAt = later.CreatedAt.Add(time.Hour)
	later.Context = later.Context[:1]
	assert.Equal(t, []entity.Segment{entity.SegmentCommon}, merger.Diff(important, later), "a stored citation missing from final is not rewritten")
	assert.ElementsMatch(t, []entity.Segment{entity.SegmentCommon, entity.SegmentContext}, merger.Diff(later, important))

	assert.ElementsMatch(t, []entity.Segment{entity.SegmentCommon, entity.SegmentShortHomonym, entity.SegmentFullHomonym, entity.SegmentContext},
		merger.Diff(nil, important))
}
