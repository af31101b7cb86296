package codec

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/eslsoft/vocsync/internal/entity"
	"github.com/eslsoft/vocsync/internal/repository"
)

type contextDocument struct {
	Target       targetJSON `json:"target"`
	LanguageCode string     `json:"languageCode"`
	TargetWord   string     `json:"targetWord"`
	CreatedDT    string     `json:"createdDT,omitempty"`
}

type wordItemDocument struct {
	ID           string            `json:"ID"`
	ListID       string            `json:"listID"`
	UserID       string            `json:"userID"`
	LanguageCode string            `json:"languageCode"`
	TargetWord   string            `json:"targetWord"`
	Important    bool              `json:"important"`
	CreatedDT    string            `json:"createdDT,omitempty"`
	Homonym      *homonymJSON      `json:"homonym,omitempty"`
	Context      []contextDocument `json:"context,omitempty"`
}

// WordItemDocuments is the remote document codec of word items.
// Only the short analysis travels over the wire.
type WordItemDocuments struct {
	now func() time.Time
}

var _ repository.DocumentCodec[*entity.WordItem] = (*WordItemDocuments)(nil)

// NewWordItemDocuments creates the word item document codec.
func NewWordItemDocuments() *WordItemDocuments {
	return &WordItemDocuments{now: time.Now}
}

func (c *WordItemDocuments) DataType() entity.DataType { return entity.DataTypeWordItem }

func (c *WordItemDocuments) DocumentID(id entity.Identity) string { return id.String() }

func (c *WordItemDocuments) Persists(segment entity.Segment) bool {
	return segment != entity.SegmentFullHomonym
}

func (c *WordItemDocuments) Encode(userID string, w *entity.WordItem) ([]byte, error) {
	id := w.Identity()
	created := w.CreatedAt
	if created.IsZero() {
		created = c.now()
	}
	createdDT := formatCreated(created)

	doc := wordItemDocument{
		ID:           c.DocumentID(id),
		ListID:       userID + "-" + id.PartitionKey,
		UserID:       userID,
		LanguageCode: id.PartitionKey,
		TargetWord:   id.LocalKey,
		Important:    w.Important,
		CreatedDT:    createdDT,
	}
	if !w.Homonym.IsEmpty() {
		h := shortHomonym(w)
		doc.Homonym = &h
	}
	for _, s := range w.Context {
		doc.Context = append(doc.Context, contextDocument{
			Target:       toTarget(s),
			LanguageCode: id.PartitionKey,
			TargetWord:   id.LocalKey,
			CreatedDT:    createdDT,
		})
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: document %s: %v", entity.ErrSerialization, doc.ID, err)
	}
	return data, nil
}

// Decode accepts a bare document or one wrapped as {"body": {...}}.
func (c *WordItemDocuments) Decode(data []byte) (*entity.WordItem, error) {
	var wrapped struct {
		Body json.RawMessage `json:"body"`
	}
	if err := json.Unmarshal(data, &wrapped); err == nil && len(wrapped.Body) > 0 && wrapped.Body[0] == '{' {
		data = wrapped.Body
	}

	var doc wordItemDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: decode document: %v", entity.ErrSerialization, err)
	}
	w := &entity.WordItem{
		TargetWord:   entity.NormalizeTargetWord(doc.TargetWord),
		LanguageCode: entity.NormalizeLanguageCode(doc.LanguageCode),
		Important:    doc.Important,
		CreatedAt:    parseCreated(doc.CreatedDT),
	}
	if err := w.Validate(); err != nil {
		return nil, fmt.Errorf("%w: document %q: %v", entity.ErrSerialization, doc.ID, err)
	}
	if doc.Homonym != nil {
		w.Homonym = doc.Homonym.toEntity()
	}
	for _, ctx := range doc.Context {
		w.AddContext(fromTarget(ctx.Target))
	}
	return w, nil
}
