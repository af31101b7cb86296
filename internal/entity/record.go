package entity

import (
	"fmt"
	"strings"
)

// DataType enumerates the record kinds the sync engine knows how to store.
type DataType string

const (
	DataTypeWordItem DataType = "WordItem"
)

// DataTypes lists every supported record kind.
var DataTypes = []DataType{DataTypeWordItem}

// ParseDataType resolves a data type name; unknown names are rejected.
func ParseDataType(name string) (DataType, error) {
	for _, dt := range DataTypes {
		if strings.EqualFold(string(dt), strings.TrimSpace(name)) {
			return dt, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownDataType, name)
}

// Record is implemented by every value the sync engine can persist.
type Record interface {
	DataType() DataType
	Identity() Identity
	Validate() error
}

// Identity addresses a record across both stores.
type Identity struct {
	PartitionKey string
	LocalKey     string
}

// NewIdentity builds a normalized identity.
func NewIdentity(partitionKey, localKey string) Identity {
	return Identity{
		PartitionKey: NormalizeLanguageCode(partitionKey),
		LocalKey:     NormalizeTargetWord(localKey),
	}
}

// IdentitySeparator joins the components of an identity in storage and document ids.
const IdentitySeparator = "-"

// Validate reports ErrInvalidWordItem when a component is missing or the partition key
// contains the separator.
func (id Identity) Validate() error {
	if id.PartitionKey == "" || id.LocalKey == "" {
		return fmt.Errorf("%w: partition and local key are required, got %q/%q", ErrInvalidWordItem, id.PartitionKey, id.LocalKey)
	}
	return ValidatePartitionKey(id.PartitionKey)
}

// ValidatePartitionKey rejects empty keys and keys containing IdentitySeparator,
// which would make "lat"/"a-b" and "lat-a"/"b" render alike.
func ValidatePartitionKey(key string) error {
	if key == "" {
		return fmt.Errorf("%w: partition key is required", ErrInvalidWordItem)
	}
	if strings.Contains(key, IdentitySeparator) {
		return fmt.Errorf("%w: partition key %q must not contain %q", ErrInvalidWordItem, key, IdentitySeparator)
	}
	return nil
}

// String renders the identity as "partition-local". The rendering is unique because
// partition keys never contain the separator.
func (id Identity) String() string {
	return id.PartitionKey + IdentitySeparator + id.LocalKey
}

// Segment names an independently persisted part of a record.
type Segment string

const (
	SegmentCommon       Segment = "common"
	SegmentContext      Segment = "context"
	SegmentShortHomonym Segment = "shortHomonym"
	SegmentFullHomonym  Segment = "fullHomonym"
)

// ParseSegment resolves a segment name.
func ParseSegment(name string) (Segment, error) {
	switch Segment(strings.TrimSpace(name)) {
	case SegmentCommon:
		return SegmentCommon, nil
	case SegmentContext:
		return SegmentContext, nil
	case SegmentShortHomonym, "homonym":
		return SegmentShortHomonym, nil
	case SegmentFullHomonym:
		return SegmentFullHomonym, nil
	default:
		return "", fmt.Errorf("unknown segment %q", name)
	}
}
