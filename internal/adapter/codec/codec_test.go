package codec

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eslsoft/vocsync/internal/entity"
)

func sampleWordItem() *entity.WordItem {
	return &entity.WordItem{
		TargetWord:   "mare",
		LanguageCode: "lat",
		Important:    true,
		CreatedAt:    time.Date(2024, 3, 5, 14, 7, 9, 0, time.UTC),
		Context: []entity.TextQuoteSelector{{
			Source:       "http://example.com/aeneid",
			Exact:        "mare",
			Prefix:       "per ",
			Suffix:       " magnum",
			LanguageCode: "lat",
		}},
		Homonym: &entity.Homonym{
			TargetWord: "mare",
			Lexemes: []entity.Lexeme{{
				Lemma:        "mare",
				PartOfSpeech: "noun",
				Definitions:  []string{"sea"},
			}},
		},
	}
}

func TestWordItemDocumentEncode(t *testing.T) {
	data, err := NewWordItemDocuments().Encode("alice", sampleWordItem())
	require.NoError(t, err)

	var pretty bytes.Buffer
	require.NoError(t, json.Indent(&pretty, data, "", "  "))

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "word_item_document", pretty.Bytes())
}

func TestWordItemDocumentDecodeKeepsShortAnalysis(t *testing.T) {
	codec := NewWordItemDocuments()
	data, err := codec.Encode("alice", sampleWordItem())
	require.NoError(t, err)

	got, err := codec.Decode(data)
	require.NoError(t, err)

	assert.Equal(t, "mare", got.TargetWord)
	assert.Equal(t, "lat", got.LanguageCode)
	assert.True(t, got.Important)
	assert.False(t, got.CurrentSession)
	assert.Equal(t, time.Date(2024, 3, 5, 14, 7, 9, 0, time.UTC), got.CreatedAt)
	require.Len(t, got.Context, 1)
	assert.Equal(t, "per ", got.Context[0].Prefix)
	require.NotNil(t, got.Homonym)
	assert.Equal(t, []entity.Lexeme{{Lemma: "mare"}}, got.Homonym.Lexemes)
}

func TestWordItemDocumentDecodeWrappedBody(t *testing.T) {
	got, err := NewWordItemDocuments().Decode([]byte(`{"body":{"languageCode":"grc","targetWord":"θάλασσα","important":false}}`))
	require.NoError(t, err)
	assert.Equal(t, entity.NewIdentity("grc", "θάλασσα"), got.Identity())
}

func TestWordItemDocumentDecodeRejectsMissingIdentity(t *testing.T) {
	_, err := NewWordItemDocuments().Decode([]byte(`{"languageCode":"lat"}`))
	require.ErrorIs(t, err, entity.ErrSerialization)
}

func TestWordItemSegmentsRoundTrip(t *testing.T) {
	codec := NewWordItemSegments()
	item := sampleWordItem()
	item.AddContext(entity.TextQuoteSelector{Source: "http://example.com/ovid", Exact: "mare", Prefix: "in ", Suffix: "."})

	base, err := codec.Serialize(codec.BaseSegment(), "alice", item)
	require.NoError(t, err)
	require.Len(t, base, 1)
	assert.Equal(t, "alice-lat-mare", base[0].ID)
	assert.Equal(t, "alice-lat", base[0].ListID)

	loaded, err := codec.LoadBase(base[0])
	require.NoError(t, err)

	for _, segment := range codec.Segments() {
		rows, err := codec.Serialize(segment, "alice", item)
		require.NoError(t, err)
		require.NoError(t, codec.Load(segment, rows, loaded))
	}

	assert.Equal(t, item.Identity(), loaded.Identity())
	assert.Equal(t, item.Important, loaded.Important)
	assert.Equal(t, item.CreatedAt, loaded.CreatedAt)
	assert.Equal(t, item.Context, loaded.Context)
	assert.Equal(t, item.Homonym, loaded.Homonym)
}

func TestWordItemSegmentsContextRows(t *testing.T) {
	codec := NewWordItemSegments()
	item := sampleWordItem()
	item.AddContext(entity.TextQuoteSelector{Source: "b", Exact: "mare"})

	rows, err := codec.Serialize(entity.SegmentContext, "alice", item)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"alice-lat-mare-1", "alice-lat-mare-2"}, []string{rows[0].ID, rows[1].ID})
	for _, row := range rows {
		assert.Equal(t, "alice-lat-mare", row.ParentID)
	}
}

func TestWordItemSegmentsSkipsEmptySegments(t *testing.T) {
	codec := NewWordItemSegments()
	item := entity.NewWordItem("lat", "mare")

	for _, segment := range codec.Segments() {
		assert.False(t, codec.Populated(segment, item), segment)
		rows, err := codec.Serialize(segment, "alice", item)
		require.NoError(t, err)
		assert.Empty(t, rows, segment)
	}

	item.Homonym = entity.NewShortHomonym("mare", "mare, maris")
	assert.True(t, codec.Populated(entity.SegmentShortHomonym, item))
	assert.False(t, codec.Populated(entity.SegmentFullHomonym, item))
}

func TestWordItemSegmentsFullOverridesShort(t *testing.T) {
	codec := NewWordItemSegments()
	item := sampleWordItem()
	full, err := codec.Serialize(entity.SegmentFullHomonym, "alice", item)
	require.NoError(t, err)
	short, err := codec.Serialize(entity.SegmentShortHomonym, "alice", item)
	require.NoError(t, err)

	loaded := entity.NewWordItem("lat", "mare")
	require.NoError(t, codec.Load(entity.SegmentFullHomonym, full, loaded))
	require.NoError(t, codec.Load(entity.SegmentShortHomonym, short, loaded))

	assert.True(t, loaded.Homonym.HasDefinitions())
	assert.Equal(t, []string{"sea"}, loaded.Homonym.Lexemes[0].Definitions)
}


func TestWordItemBackupKeepsFullAnalysis(t *testing.T) {
	want := sampleWordItem()
	data, err := MarshalWordItem(want)
	require.NoError(t, err)

	got, err := UnmarshalWordItem(data)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = UnmarshalWordItem([]byte(`{"targetWord":"mare"}`))
	assert.ErrorIs(t, err, entity.ErrSerialization)
}
