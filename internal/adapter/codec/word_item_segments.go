package codec

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/eslsoft/vocsync/internal/entity"
	"github.com/eslsoft/vocsync/internal/repository"
)

// Object store names of the word item segments.
const (
	StoreWordListsCommon      = "word_lists_common"
	StoreWordListsContext     = "word_lists_context"
	StoreWordListsHomonym     = "word_lists_homonym"
	StoreWordListsFullHomonym = "word_lists_full_homonym"
)

// WordItemSegments is the segment codec of word items.
type WordItemSegments struct {
	now func() time.Time
}

var _ repository.SegmentCodec[*entity.WordItem] = (*WordItemSegments)(nil)

// NewWordItemSegments creates the word item segment codec.
func NewWordItemSegments() *WordItemSegments {
	return &WordItemSegments{now: time.Now}
}

func (c *WordItemSegments) DataType() entity.DataType { return entity.DataTypeWordItem }

func (c *WordItemSegments) BaseSegment() entity.Segment { return entity.SegmentCommon }

func (c *WordItemSegments) Segments() []entity.Segment {
	return []entity.Segment{entity.SegmentContext, entity.SegmentShortHomonym, entity.SegmentFullHomonym}
}

func (c *WordItemSegments) ObjectStore(segment entity.Segment) string {
	switch segment {
	case entity.SegmentCommon:
		return StoreWordListsCommon
	case entity.SegmentContext:
		return StoreWordListsContext
	case entity.SegmentShortHomonym:
		return StoreWordListsHomonym
	case entity.SegmentFullHomonym:
		return StoreWordListsFullHomonym
	default:
		return ""
	}
}

func (c *WordItemSegments) StorageID(userID string, id entity.Identity) string {
	return userID + "-" + id.String()
}

func (c *WordItemSegments) ListID(userID, partitionKey string) string {
	return userID + "-" + partitionKey
}

func (c *WordItemSegments) Populated(segment entity.Segment, w *entity.WordItem) bool {
	switch segment {
	case entity.SegmentCommon:
		return true
	case entity.SegmentContext:
		return len(w.Context) > 0
	case entity.SegmentShortHomonym:
		return !w.Homonym.IsEmpty()
	case entity.SegmentFullHomonym:
		return w.Homonym.HasDefinitions()
	default:
		return false
	}
}

// Serialize renders one segment of w. Segments without data yield no rows.
func (c *WordItemSegments) Serialize(segment entity.Segment, userID string, w *entity.WordItem) ([]repository.SegmentRow, error) {
	id := w.Identity()
	created := w.CreatedAt
	if created.IsZero() {
		created = c.now()
	}
	created = created.UTC().Truncate(time.Second)
	base := repository.SegmentRow{
		ID:           c.StorageID(userID, id),
		ListID:       c.ListID(userID, id.PartitionKey),
		UserID:       userID,
		PartitionKey: id.PartitionKey,
		LocalKey:     id.LocalKey,
		CreatedAt:    created,
	}

	var payloads []any
	switch segment {
	case entity.SegmentCommon:
		payloads = append(payloads, commonPayload{Important: w.Important})
	case entity.SegmentContext:
		for _, s := range w.Context {
			payloads = append(payloads, contextPayload{Target: toTarget(s)})
		}
	case entity.SegmentShortHomonym:
		if !w.Homonym.IsEmpty() {
			payloads = append(payloads, homonymPayload{Homonym: shortHomonym(w)})
		}
	case entity.SegmentFullHomonym:
		if w.Homonym.HasDefinitions() {
			payloads = append(payloads, homonymPayload{Homonym: fullHomonym(w.Homonym)})
		}
	default:
		return nil, fmt.Errorf("%w: unknown segment %q", entity.ErrSerialization, segment)
	}

	rows := make([]repository.SegmentRow, 0, len(payloads))
	for i, payload := range payloads {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("%w: %s segment of %s: %v", entity.ErrSerialization, segment, id, err)
		}
		row := base
		row.ParentID = base.ID
		row.Payload = data
		if segment == entity.SegmentContext {
			row.Seq = i + 1
			row.ID = base.ID + "-" + strconv.Itoa(row.Seq)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// LoadBase materializes a word item from its common segment row.
func (c *WordItemSegments) LoadBase(row repository.SegmentRow) (*entity.WordItem, error) {
	var payload commonPayload
	if err := json.Unmarshal(row.Payload, &payload); err != nil {
		return nil, fmt.Errorf("%w: common segment %s: %v", entity.ErrSerialization, row.ID, err)
	}
	w := &entity.WordItem{
		TargetWord:   row.LocalKey,
		LanguageCode: row.PartitionKey,
		Important:    payload.Important,
		CreatedAt:    row.CreatedAt,
	}
	return w, nil
}

// Load overlays one segment onto w. The full analysis replaces a short one.
func (c *WordItemSegments) Load(segment entity.Segment, rows []repository.SegmentRow, w *entity.WordItem) error {
	switch segment {
	case entity.SegmentContext:
		for _, row := range rows {
			var payload contextPayload
			if err := json.Unmarshal(row.Payload, &payload); err != nil {
				return fmt.Errorf("%w: context segment %s: %v", entity.ErrSerialization, row.ID, err)
			}
			w.AddContext(fromTarget(payload.Target))
		}
	case entity.SegmentShortHomonym, entity.SegmentFullHomonym:
		for _, row := range rows {
			var payload homonymPayload
			if err := json.Unmarshal(row.Payload, &payload); err != nil {
				return fmt.Errorf("%w: %s segment %s: %v", entity.ErrSerialization, segment, row.ID, err)
			}
			if segment == entity.SegmentShortHomonym && w.Homonym.HasDefinitions() {
				continue
			}
			w.Homonym = payload.Homonym.toEntity()
		}
	case entity.SegmentCommon:
	default:
		return fmt.Errorf("%w: unknown segment %q", entity.ErrSerialization, segment)
	}
	return nil
}
