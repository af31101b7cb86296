package repository

import (
	"time"

	"github.com/eslsoft/vocsync/internal/entity"
)

// SegmentRow is one persisted item of a segment, as stored by a keyed document backend.
type SegmentRow struct {
	ID           string
	ListID       string
	UserID       string
	PartitionKey string
	LocalKey     string
	// ParentID is the storage id of the record the row belongs to.
	ParentID string
	// Seq orders the rows of a multi-row segment.
	Seq       int
	Payload   []byte
	CreatedAt time.Time
}

// SegmentCodec maps records of type T onto independently persisted segments.
type SegmentCodec[T entity.Record] interface {
	DataType() entity.DataType
	// BaseSegment is loaded first to materialize the record; the other segments overlay it.
	BaseSegment() entity.Segment
	// Segments lists the non-base segments in write order.
	Segments() []entity.Segment
	// ObjectStore names the backend collection holding a segment.
	ObjectStore(segment entity.Segment) string
	StorageID(userID string, id entity.Identity) string
	ListID(userID, partitionKey string) string
	// Populated reports whether record carries data for segment.
	Populated(segment entity.Segment, record T) bool
	Serialize(segment entity.Segment, userID string, record T) ([]SegmentRow, error)
	LoadBase(row SegmentRow) (T, error)
	Load(segment entity.Segment, rows []SegmentRow, record T) error
}

// DocumentCodec converts records of type T to and from the single-document wire format of a remote backend.
type DocumentCodec[T entity.Record] interface {
	DataType() entity.DataType
	DocumentID(id entity.Identity) string
	// Persists reports whether the document format carries segment.
	Persists(segment entity.Segment) bool
	Encode(userID string, record T) ([]byte, error)
	Decode(data []byte) (T, error)
}
