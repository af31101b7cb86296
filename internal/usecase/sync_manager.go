package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/eslsoft/vocsync/internal/entity"
	"github.com/eslsoft/vocsync/internal/repository"
)

// Side names one of the two stores a manager coordinates.
type Side string

const (
	SideLocal  Side = "local"
	SideRemote Side = "remote"
)

// QueryMode selects which stores a query reads.
type QueryMode string

const (
	QueryLocal  QueryMode = "local"
	QueryRemote QueryMode = "remote"
	// QueryMerged reads both stores and back-fills each with what the other holds.
	QueryMerged QueryMode = "merged"
)

// ParseQueryMode resolves a query mode name; empty means merged.
func ParseQueryMode(name string) (QueryMode, error) {
	switch QueryMode(strings.ToLower(strings.TrimSpace(name))) {
	case QueryLocal:
		return QueryLocal, nil
	case QueryRemote:
		return QueryRemote, nil
	case QueryMerged, "":
		return QueryMerged, nil
	default:
		return "", fmt.Errorf("unknown query mode %q", name)
	}
}

// segmentPersister is implemented by stores that keep only some segments.
type segmentPersister interface {
	Persists(segment entity.Segment) bool
}

type mutationOptions struct {
	onlyLocal  bool
	onlyRemote bool
	segments   []entity.Segment
}

// MutationOption adjusts a single mutating call.
type MutationOption func(*mutationOptions)

// WithOnlyLocal restricts the mutation to the local store.
func WithOnlyLocal() MutationOption {
	return func(o *mutationOptions) { o.onlyLocal = true }
}

// WithOnlyRemote restricts the mutation to the remote store.
func WithOnlyRemote() MutationOption {
	return func(o *mutationOptions) { o.onlyRemote = true }
}

// WithSegments limits which segments an update may write to a stored record.
// A store that holds no copy of the record still receives it whole, since a
// record cannot exist there without its common segment.
func WithSegments(segments ...entity.Segment) MutationOption {
	return func(o *mutationOptions) { o.segments = append(o.segments, segments...) }
}

func buildMutationOptions(opts []MutationOption) (mutationOptions, error) {
	var o mutationOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.onlyLocal && o.onlyRemote {
		return o, entity.ErrConflictingOptions
	}
	return o, nil
}

// ManagerOptions configures a sync manager.
type ManagerOptions struct {
	// SerializeReads queues queries behind pending mutations. When false, a query may
	// observe a record while a queued mutation is still reconciling it.
	SerializeReads bool
}

// Manager keeps records of type T consistent between a local and a remote store.
// Mutations run one at a time in submission order.
type Manager[T entity.Record] struct {
	local  repository.RecordStore[T]
	remote repository.RecordStore[T]
	merger Merger[T]
	queue  *taskQueue
	opts   ManagerOptions
	logger logrus.FieldLogger
}

// NewManager starts a manager and its worker. Call Close to drain and stop it.
func NewManager[T entity.Record](local, remote repository.RecordStore[T], merger Merger[T], opts ManagerOptions, logger logrus.FieldLogger) *Manager[T] {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Manager[T]{
		local:  local,
		remote: remote,
		merger: merger,
		queue:  newTaskQueue(),
		opts:   opts,
		logger: logger.WithField("component", "sync"),
	}
}

// Create reconciles record into the participating stores. record must not be
// modified until the result is available.
func (m *Manager[T]) Create(ctx context.Context, record T, opts ...MutationOption) *Pending[bool] {
	return m.save(ctx, "create", record, opts)
}

// Update behaves like Create: stored copies are merged with record, never overwritten.
func (m *Manager[T]) Update(ctx context.Context, record T, opts ...MutationOption) *Pending[bool] {
	return m.save(ctx, "update", record, opts)
}

// Delete removes one record from the participating stores. Absent records count as deleted.
func (m *Manager[T]) Delete(ctx context.Context, id entity.Identity, opts ...MutationOption) *Pending[bool] {
	o, err := buildMutationOptions(opts)
	if err == nil {
		err = id.Validate()
	}
	if err != nil {
		m.logger.WithError(err).WithField("record", id.String()).Warn("delete rejected")
		return resolved(false, err)
	}
	return m.enqueue(ctx, "delete "+id.String(), func(ctx context.Context) bool {
		return m.each(o, func(store repository.RecordStore[T]) bool {
			return store.DeleteOne(ctx, id) == nil
		})
	})
}

// DeleteMany removes every record under partitionKey from the participating stores.
func (m *Manager[T]) DeleteMany(ctx context.Context, partitionKey string, opts ...MutationOption) *Pending[bool] {
	o, err := buildMutationOptions(opts)
	partitionKey = entity.NormalizeLanguageCode(partitionKey)
	if err == nil {
		err = entity.ValidatePartitionKey(partitionKey)
	}
	if err != nil {
		m.logger.WithError(err).Warn("deleteMany rejected")
		return resolved(false, err)
	}
	return m.enqueue(ctx, "deleteMany "+partitionKey, func(ctx context.Context) bool {
		return m.each(o, func(store repository.RecordStore[T]) bool {
			n, err := store.DeleteMany(ctx, partitionKey)
			if err == nil {
				m.logger.WithFields(logrus.Fields{"store": store.Name(), "partition": partitionKey, "deleted": n}).Debug("partition deleted")
			}
			return err == nil
		})
	})
}

// Query reads records. Failures yield an empty result; inspect Errors for details.
func (m *Manager[T]) Query(ctx context.Context, filter repository.Filter, mode QueryMode) []T {
	if err := filter.Validate(); err != nil {
		m.logger.WithError(err).Warn("query rejected")
		return nil
	}
	if !m.opts.SerializeReads {
		return m.query(ctx, filter, mode)
	}
	var out []T
	p := m.enqueue(ctx, "query "+string(mode), func(ctx context.Context) bool {
		out = m.query(ctx, filter, mode)
		return true
	})
	if _, err := p.Wait(ctx); err != nil {
		return nil
	}
	return out
}

// State reports whether a mutation is running.
func (m *Manager[T]) State() State { return m.queue.State() }

// Pending returns the number of queued operations waiting to run.
func (m *Manager[T]) Pending() int { return m.queue.Len() }

// Errors returns the failures accumulated by one store.
func (m *Manager[T]) Errors(side Side) []repository.StoreError {
	if store := m.store(side); store != nil {
		return store.Errors()
	}
	return nil
}

// Close stops accepting work and waits for queued operations to finish.
func (m *Manager[T]) Close() {
	m.queue.Close()
}

func (m *Manager[T]) store(side Side) repository.RecordStore[T] {
	switch side {
	case SideLocal:
		return m.local
	case SideRemote:
		return m.remote
	default:
		return nil
	}
}

// enqueue schedules fn. Tasks keep the caller's context values but not its cancellation.
func (m *Manager[T]) enqueue(ctx context.Context, name string, fn func(ctx context.Context) bool) *Pending[bool] {
	p := newPending[bool]()
	detached := context.WithoutCancel(ctx)
	logger := m.logger.WithField("op", name)
	id, ok := m.queue.Enqueue(name, func(taskID string) {
		done := fn(detached)
		logger.WithFields(logrus.Fields{"task_id": taskID, "ok": done}).Debug("task finished")
		p.resolve(done, nil)
	})
	if !ok {
		return resolved(false, entity.ErrSyncManagerClosed)
	}
	p.id = id
	return p
}

// participants lists the selected stores that are available. Unavailable stores are skipped.
func (m *Manager[T]) participants(o mutationOptions) []repository.RecordStore[T] {
	var stores []repository.RecordStore[T]
	if !o.onlyRemote && m.local != nil {
		stores = append(stores, m.local)
	}
	if !o.onlyLocal && m.remote != nil {
		stores = append(stores, m.remote)
	}
	return lo.Filter(stores, func(store repository.RecordStore[T], _ int) bool {
		if store.Available() {
			return true
		}
		m.logger.WithField("store", store.Name()).Debug("store unavailable, skipped")
		return false
	})
}

// each runs fn on every participating store and ANDs the results.
func (m *Manager[T]) each(o mutationOptions, fn func(store repository.RecordStore[T]) bool) bool {
	ok := true
	for _, store := range m.participants(o) {
		ok = fn(store) && ok
	}
	return ok
}

func (m *Manager[T]) save(ctx context.Context, op string, record T, opts []MutationOption) *Pending[bool] {
	o, err := buildMutationOptions(opts)
	if err == nil {
		err = record.Validate()
	}
	if err != nil {
		m.logger.WithError(err).WithField("op", op).Warn("mutation rejected")
		return resolved(false, err)
	}
	return m.enqueue(ctx, op+" "+record.Identity().String(), func(ctx context.Context) bool {
		stores := m.participants(o)
		if len(stores) == 2 {
			return m.compareAndSaveBoth(ctx, record, o)
		}
		return lo.EveryBy(stores, func(store repository.RecordStore[T]) bool {
			return m.compareAndSave(ctx, store, record, o)
		})
	})
}

// lookup fetches the stored copy of id; found is false when the store has none.
func (m *Manager[T]) lookup(ctx context.Context, store repository.RecordStore[T], id entity.Identity) (stored T, found bool, err error) {
	records, err := store.Query(ctx, repository.ByIdentity(id))
	if err != nil || len(records) == 0 {
		return stored, false, err
	}
	return records[0], true, nil
}

// compareAndSave creates record in store, or merges it into the stored copy.
func (m *Manager[T]) compareAndSave(ctx context.Context, store repository.RecordStore[T], record T, o mutationOptions) bool {
	stored, found, err := m.lookup(ctx, store, record.Identity())
	if err != nil {
		return false
	}
	if !found {
		return store.Create(ctx, record) == nil
	}
	merged, _ := m.merger.Merge(stored, record)
	return m.writeBack(ctx, store, stored, merged, o)
}

// compareAndSaveBoth merges the two stored copies first, then the incoming record.
// Both stores are brought to that one final record.
func (m *Manager[T]) compareAndSaveBoth(ctx context.Context, record T, o mutationOptions) bool {
	id := record.Identity()
	var (
		local, remote           T
		localFound, remoteFound bool
		localErr, remoteErr     error
	)
	var g errgroup.Group
	g.Go(func() error {
		local, localFound, localErr = m.lookup(ctx, m.local, id)
		return nil
	})
	g.Go(func() error {
		remote, remoteFound, remoteErr = m.lookup(ctx, m.remote, id)
		return nil
	})
	_ = g.Wait()

	final := record
	switch {
	case localFound && remoteFound:
		combined, _ := m.merger.Merge(local, remote)
		final, _ = m.merger.Merge(combined, record)
	case localFound:
		final, _ = m.merger.Merge(local, record)
	case remoteFound:
		final, _ = m.merger.Merge(remote, record)
	}

	localOK := localErr == nil && m.put(ctx, m.local, local, localFound, final, o)
	remoteOK := remoteErr == nil && m.put(ctx, m.remote, remote, remoteFound, final, o)
	return localOK && remoteOK
}

// put creates final in store when it had no copy, or rewrites the segments where the stored copy differs.
func (m *Manager[T]) put(ctx context.Context, store repository.RecordStore[T], stored T, found bool, final T, o mutationOptions) bool {
	if !found {
		return store.Create(ctx, final) == nil
	}
	return m.writeBack(ctx, store, stored, final, o)
}

// writeBack writes the segments where stored differs from final. Nothing is written
// when the store already holds everything it can keep.
func (m *Manager[T]) writeBack(ctx context.Context, store repository.RecordStore[T], stored, final T, o mutationOptions) bool {
	changed := m.merger.Diff(stored, final)
	if persister, ok := store.(segmentPersister); ok {
		changed = lo.Filter(changed, func(s entity.Segment, _ int) bool { return persister.Persists(s) })
	}
	if len(o.segments) > 0 {
		changed = lo.Intersect(changed, o.segments)
	}
	if len(changed) == 0 {
		return true
	}
	return store.Update(ctx, final, changed...) == nil
}

// query reads one or both stores. In merged mode every identity missing from one side is
// copied there, and records present on both sides are reconciled.
func (m *Manager[T]) query(ctx context.Context, filter repository.Filter, mode QueryMode) []T {
	switch mode {
	case QueryLocal:
		return m.read(ctx, m.local, filter)
	case QueryRemote:
		return m.read(ctx, m.remote, filter)
	case QueryMerged:
	default:
		m.logger.WithField("mode", mode).Warn("unknown query mode")
		return nil
	}

	var (
		localRecords, remoteRecords []T
		localOK, remoteOK           bool
	)
	var g errgroup.Group
	g.Go(func() error {
		localRecords, localOK = m.readSide(ctx, m.local, filter)
		return nil
	})
	g.Go(func() error {
		remoteRecords, remoteOK = m.readSide(ctx, m.remote, filter)
		return nil
	})
	_ = g.Wait()

	remoteByID := lo.KeyBy(remoteRecords, func(r T) entity.Identity { return r.Identity() })
	seen := make(map[entity.Identity]bool, len(localRecords))
	out := make([]T, 0, len(localRecords)+len(remoteRecords))

	for _, local := range localRecords {
		key := local.Identity()
		seen[key] = true
		remote, inRemote := remoteByID[key]
		if !inRemote {
			if remoteOK {
				_ = m.remote.Create(ctx, local)
			}
			out = append(out, local)
			continue
		}
		merged, _ := m.merger.Merge(local, remote)
		m.writeBack(ctx, m.local, local, merged, mutationOptions{})
		if remoteOK {
			m.writeBack(ctx, m.remote, remote, merged, mutationOptions{})
		}
		out = append(out, merged)
	}
	for _, remote := range remoteRecords {
		if seen[remote.Identity()] {
			continue
		}
		if localOK {
			_ = m.local.Create(ctx, remote)
		}
		out = append(out, remote)
	}
	return out
}

func (m *Manager[T]) read(ctx context.Context, store repository.RecordStore[T], filter repository.Filter) []T {
	records, _ := m.readSide(ctx, store, filter)
	return records
}

// readSide reports ok=false when the store cannot be written back to.
func (m *Manager[T]) readSide(ctx context.Context, store repository.RecordStore[T], filter repository.Filter) ([]T, bool) {
	if store == nil || !store.Available() {
		return nil, false
	}
	records, err := store.Query(ctx, filter)
	if err != nil {
		return nil, false
	}
	return records, true
}
