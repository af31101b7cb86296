// Package docstore keeps opaque JSON documents per user and collection for the word list server.
package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// ErrNotFound is returned when a document does not exist.
var ErrNotFound = errors.New("document not found")

// Document is a stored JSON body addressed by id and grouped by partition.
type Document struct {
	ID        string
	Partition string
	Body      json.RawMessage
	UpdatedAt time.Time
}

// Store persists documents. Implementations must be safe for concurrent use.
type Store interface {
	// Put inserts or replaces a document and reports whether it was newly created.
	Put(ctx context.Context, userID, collection string, doc Document) (bool, error)
	Get(ctx context.Context, userID, collection, id string) (Document, error)
	List(ctx context.Context, userID, collection, partition string) ([]Document, error)
	Delete(ctx context.Context, userID, collection, id string) error
	DeletePartition(ctx context.Context, userID, collection, partition string) (int, error)
}
