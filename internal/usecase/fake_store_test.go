package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/sirupsen/logrus/hooks/test"

	"github.com/eslsoft/vocsync/internal/entity"
	"github.com/eslsoft/vocsync/internal/repository"
)

var errInjected = errors.New("injected failure")

// fakeStore is an in-memory RecordStore for word items.
type fakeStore struct {
	name        string
	shortOnly   bool
	unavailable bool

	mu    sync.RWMutex
	items map[string]*entity.WordItem
	fail  map[string]bool
	calls []string
	gate  chan struct{}
	errs  *repository.ErrorLog
}

func newFakeStore(name string) *fakeStore {
	logger, _ := test.NewNullLogger()
	return &fakeStore{
		name:  name,
		items: make(map[string]*entity.WordItem),
		fail:  make(map[string]bool),
		errs:  repository.NewErrorLog(name, logger),
	}
}

// newFakeRemote keeps only the headword form of an analysis, like the remote document.
func newFakeRemote() *fakeStore {
	s := newFakeStore("remote")
	s.shortOnly = true
	return s
}

func (s *fakeStore) Name() string { return s.name }

func (s *fakeStore) Available() bool { return !s.unavailable }

func (s *fakeStore) Errors() []repository.StoreError { return s.errs.Entries() }

func (s *fakeStore) Persists(segment entity.Segment) bool {
	return !s.shortOnly || segment != entity.SegmentFullHomonym
}

func (s *fakeStore) failOn(op string) {
	s.mu.Lock()
	s.fail[op] = true
	s.mu.Unlock()
}

func (s *fakeStore) enter(op, target string) error {
	s.mu.Lock()
	gate := s.gate
	s.calls = append(s.calls, op+" "+target)
	failing := s.fail[op]
	s.mu.Unlock()
	if gate != nil {
		<-gate
	}
	if failing {
		return s.errs.Record(op, target, fmt.Errorf("%w: %s", entity.ErrBackendUnreachable, errInjected))
	}
	return nil
}

func (s *fakeStore) stored(w *entity.WordItem) *entity.WordItem {
	c := w.Clone()
	c.CurrentSession = false
	if s.shortOnly && c.Homonym != nil {
		c.Homonym = entity.NewShortHomonym(c.Homonym.TargetWord, c.LemmasList())
	}
	return c
}

func (s *fakeStore) Create(ctx context.Context, w *entity.WordItem) error {
	if err := s.enter("create", w.Identity().String()); err != nil {
		return err
	}
	s.mu.Lock()
	s.items[w.Identity().String()] = s.stored(w)
	s.mu.Unlock()
	return nil
}

func (s *fakeStore) Update(ctx context.Context, w *entity.WordItem, segments ...entity.Segment) error {
	if err := s.enter("update", w.Identity().String()); err != nil {
		return err
	}
	s.mu.Lock()
	s.items[w.Identity().String()] = s.stored(w)
	s.mu.Unlock()
	return nil
}

func (s *fakeStore) DeleteOne(ctx context.Context, id entity.Identity) error {
	if err := s.enter("deleteOne", id.String()); err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.items, id.String())
	s.mu.Unlock()
	return nil
}

func (s *fakeStore) DeleteMany(ctx context.Context, partitionKey string) (int, error) {
	if err := s.enter("deleteMany", partitionKey); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for key, item := range s.items {
		if item.LanguageCode == partitionKey {
			delete(s.items, key)
			n++
		}
	}
	return n, nil
}

func (s *fakeStore) Query(ctx context.Context, filter repository.Filter) ([]*entity.WordItem, error) {
	target := filter.PartitionKey
	if filter.Identity != nil {
		target = filter.Identity.String()
	}
	if err := s.enter("query", target); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*entity.WordItem
	for _, item := range s.items {
		if filter.Identity != nil && item.Identity() != *filter.Identity {
			continue
		}
		if item.LanguageCode != filter.PartitionKey {
			continue
		}
		out = append(out, item.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TargetWord < out[j].TargetWord })
	return out, nil
}

// seed stores w without recording a call.
func (s *fakeStore) seed(w *entity.WordItem) {
	s.mu.Lock()
	s.items[w.Identity().String()] = s.stored(w)
	s.mu.Unlock()
}

func (s *fakeStore) get(lang, word string) *entity.WordItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.items[entity.NewIdentity(lang, word).String()]
	if !ok {
		return nil
	}
	return item.Clone()
}

func (s *fakeStore) callLog() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.calls...)
}

func (s *fakeStore) countCalls(op string) int {
	n := 0
	for _, c := range s.callLog() {
		if len(c) > len(op) && c[:len(op)+1] == op+" " {
			n++
		}
	}
	return n
}

// block makes every following call wait until release is called.
func (s *fakeStore) block() (release func()) {
	ch := make(chan struct{})
	s.mu.Lock()
	s.gate = ch
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		s.gate = nil
		s.mu.Unlock()
		close(ch)
	}
}
