package repository

import (
	"context"

	"github.com/eslsoft/vocsync/internal/entity"
)

// Filter selects records from a store: a whole partition, or one identity within it.
type Filter struct {
	PartitionKey string
	Identity     *entity.Identity
}

// ByPartition lists every record under a partition key.
func ByPartition(partitionKey string) Filter {
	return Filter{PartitionKey: entity.NormalizeLanguageCode(partitionKey)}
}

// ByIdentity selects a single record.
func ByIdentity(id entity.Identity) Filter {
	return Filter{PartitionKey: id.PartitionKey, Identity: &id}
}

// IsSingle reports whether the filter addresses one identity.
func (f Filter) IsSingle() bool { return f.Identity != nil }

// Validate rejects filters without a partition key.
func (f Filter) Validate() error {
	if f.Identity != nil {
		return f.Identity.Validate()
	}
	return entity.ValidatePartitionKey(f.PartitionKey)
}

// RecordStore abstracts one backend (local or remote) holding records of type T.
// Every failure is also appended to the store's error log.
type RecordStore[T entity.Record] interface {
	Name() string
	Available() bool
	Create(ctx context.Context, record T) error
	Update(ctx context.Context, record T, segments ...entity.Segment) error
	DeleteOne(ctx context.Context, id entity.Identity) error
	DeleteMany(ctx context.Context, partitionKey string) (int, error)
	Query(ctx context.Context, filter Filter) ([]T, error)
	Errors() []StoreError
}
