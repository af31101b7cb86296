package docstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/samber/lo"
)

type memoryKey struct {
	userID     string
	collection string
	id         string
}

// Memory is an in-process Store.
type Memory struct {
	mu   sync.RWMutex
	docs map[memoryKey]Document
	now  func() time.Time
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{docs: make(map[memoryKey]Document), now: time.Now}
}

func (m *Memory) Put(ctx context.Context, userID, collection string, doc Document) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	key := memoryKey{userID, collection, doc.ID}
	_, exists := m.docs[key]
	doc.Body = append([]byte(nil), doc.Body...)
	doc.UpdatedAt = m.now().UTC()
	m.docs[key] = doc
	return !exists, nil
}

func (m *Memory) Get(ctx context.Context, userID, collection, id string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.docs[memoryKey{userID, collection, id}]
	if !ok {
		return Document{}, ErrNotFound
	}
	return doc, nil
}

func (m *Memory) List(ctx context.Context, userID, collection, partition string) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	docs := lo.Values(lo.PickBy(m.docs, func(key memoryKey, doc Document) bool {
		return key.userID == userID && key.collection == collection && doc.Partition == partition
	}))
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	return docs, nil
}

func (m *Memory) Delete(ctx context.Context, userID, collection, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	key := memoryKey{userID, collection, id}
	if _, ok := m.docs[key]; !ok {
		return ErrNotFound
	}
	delete(m.docs, key)
	return nil
}

func (m *Memory) DeletePartition(ctx context.Context, userID, collection, partition string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for key, doc := range m.docs {
		if key.userID == userID && key.collection == collection && doc.Partition == partition {
			delete(m.docs, key)
			removed++
		}
	}
	return removed, nil
}
