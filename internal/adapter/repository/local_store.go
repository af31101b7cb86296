package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/eslsoft/vocsync/internal/entity"
	"github.com/eslsoft/vocsync/internal/infrastructure/database"
	"github.com/eslsoft/vocsync/internal/repository"
)

// LocalStoreName identifies the embedded store in logs and error reports.
const LocalStoreName = "local"

var segmentColumns = []string{
	"id", "list_id", "user_id", "language_code", "target_word",
	"word_item_id", "seq", "payload", "created_at",
}

// LocalStore keeps records in an embedded SQL database, one table per segment.
type LocalStore[T entity.Record] struct {
	db     *database.DB
	userID string
	codec  repository.SegmentCodec[T]
	errs   *repository.ErrorLog
}

var _ repository.RecordStore[*entity.WordItem] = (*LocalStore[*entity.WordItem])(nil)

// NewLocalStore creates a local store. A nil db yields an unavailable store.
func NewLocalStore[T entity.Record](db *database.DB, userID string, codec repository.SegmentCodec[T], logger logrus.FieldLogger) *LocalStore[T] {
	return &LocalStore[T]{
		db:     db,
		userID: userID,
		codec:  codec,
		errs:   repository.NewErrorLog(LocalStoreName, logger),
	}
}

func (s *LocalStore[T]) Name() string { return LocalStoreName }

func (s *LocalStore[T]) Available() bool { return s.db != nil && s.db.DB != nil }

func (s *LocalStore[T]) Errors() []repository.StoreError { return s.errs.Entries() }

// ErrorLog exposes the accumulator so callers can reset it.
func (s *LocalStore[T]) ErrorLog() *repository.ErrorLog { return s.errs }

// Migrate creates the segment tables and their lookup indexes.
func (s *LocalStore[T]) Migrate(ctx context.Context) error {
	if !s.Available() {
		return entity.ErrBackendUnavailable
	}
	for _, segment := range s.allSegments() {
		table := s.codec.ObjectStore(segment)
		stmts := []string{
			fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id TEXT PRIMARY KEY,
	list_id TEXT NOT NULL,
	user_id TEXT NOT NULL,
	language_code TEXT NOT NULL,
	target_word TEXT NOT NULL,
	word_item_id TEXT NOT NULL,
	seq INTEGER NOT NULL DEFAULT 0,
	payload TEXT NOT NULL,
	created_at TEXT NOT NULL
)`, table),
			fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_list_id ON %s (list_id)`, table, table),
			fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_word_item_id ON %s (word_item_id)`, table, table),
		}
		for _, stmt := range stmts {
			if _, err := s.db.ExecContext(ctx, stmt); err != nil {
				return s.errs.Record("migrate", table, fmt.Errorf("create %s: %w", table, err))
			}
		}
	}
	return nil
}

// Create writes every populated segment, common segment first.
func (s *LocalStore[T]) Create(ctx context.Context, record T) error {
	target := record.Identity().String()
	if err := record.Validate(); err != nil {
		return s.errs.Record("create", target, err)
	}
	segments := s.populated(record)
	batches, err := s.serialize(record, segments)
	if err != nil {
		return s.errs.Record("create", target, err)
	}
	err = s.withTx(ctx, func(tx *sql.Tx) error {
		for _, segment := range segments {
			if err := s.replaceSegment(ctx, tx, segment, record, batches[segment]); err != nil {
				return err
			}
		}
		return nil
	})
	return s.errs.Record("create", target, err)
}

// Update writes the selected segments, or every populated one when none are given.
// A missing common segment is created so that no segment is ever orphaned.
func (s *LocalStore[T]) Update(ctx context.Context, record T, segments ...entity.Segment) error {
	target := record.Identity().String()
	if err := record.Validate(); err != nil {
		return s.errs.Record("update", target, err)
	}
	if len(segments) == 0 {
		segments = s.populated(record)
	}
	base := s.codec.BaseSegment()
	writeBase := lo.Contains(segments, base)
	selected := append([]entity.Segment{base}, lo.Without(segments, base)...)

	batches, err := s.serialize(record, selected)
	if err != nil {
		return s.errs.Record("update", target, err)
	}
	err = s.withTx(ctx, func(tx *sql.Tx) error {
		if !writeBase {
			if err := s.insertRows(ctx, tx, s.codec.ObjectStore(base), batches[base], false); err != nil {
				return err
			}
		}
		for _, segment := range selected {
			if segment == base && !writeBase {
				continue
			}
			if err := s.replaceSegment(ctx, tx, segment, record, batches[segment]); err != nil {
				return err
			}
		}
		return nil
	})
	return s.errs.Record("update", target, err)
}

// DeleteOne removes every segment of one record. Deleting an absent record succeeds.
func (s *LocalStore[T]) DeleteOne(ctx context.Context, id entity.Identity) error {
	if err := id.Validate(); err != nil {
		return s.errs.Record("deleteOne", id.String(), err)
	}
	storageID := s.codec.StorageID(s.userID, id)
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		for _, segment := range s.allSegments() {
			if _, err := s.deleteWhere(ctx, tx, s.codec.ObjectStore(segment), entsql.EQ("word_item_id", storageID)); err != nil {
				return err
			}
		}
		return nil
	})
	return s.errs.Record("deleteOne", id.String(), err)
}

// DeleteMany removes every record under a partition and returns how many records were removed.
func (s *LocalStore[T]) DeleteMany(ctx context.Context, partitionKey string) (int, error) {
	partitionKey = entity.NormalizeLanguageCode(partitionKey)
	if err := entity.ValidatePartitionKey(partitionKey); err != nil {
		return 0, s.errs.Record("deleteMany", partitionKey, err)
	}
	listID := s.codec.ListID(s.userID, partitionKey)
	var removed int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		for _, segment := range s.allSegments() {
			n, err := s.deleteWhere(ctx, tx, s.codec.ObjectStore(segment), entsql.EQ("list_id", listID))
			if err != nil {
				return err
			}
			if segment == s.codec.BaseSegment() {
				removed = n
			}
		}
		return nil
	})
	if err != nil {
		return 0, s.errs.Record("deleteMany", partitionKey, err)
	}
	return int(removed), nil
}

// Query loads the common segment rows matching filter and overlays the other segments onto them.
func (s *LocalStore[T]) Query(ctx context.Context, filter repository.Filter) ([]T, error) {
	target := filter.PartitionKey
	if filter.Identity != nil {
		target = filter.Identity.String()
	}
	if err := filter.Validate(); err != nil {
		return nil, s.errs.Record("query", target, err)
	}
	records, err := s.query(ctx, filter)
	if err != nil {
		return nil, s.errs.Record("query", target, err)
	}
	return records, nil
}

func (s *LocalStore[T]) query(ctx context.Context, filter repository.Filter) ([]T, error) {
	if !s.Available() {
		return nil, entity.ErrBackendUnavailable
	}
	var predicate *entsql.Predicate
	if filter.IsSingle() {
		predicate = entsql.EQ("word_item_id", s.codec.StorageID(s.userID, *filter.Identity))
	} else {
		predicate = entsql.EQ("list_id", s.codec.ListID(s.userID, filter.PartitionKey))
	}

	baseRows, err := s.selectRows(ctx, s.codec.ObjectStore(s.codec.BaseSegment()), predicate)
	if err != nil {
		return nil, err
	}
	if len(baseRows) == 0 {
		return nil, nil
	}

	records := make([]T, 0, len(baseRows))
	byID := make(map[string]T, len(baseRows))
	for _, row := range baseRows {
		record, err := s.codec.LoadBase(row)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
		byID[row.ID] = record
	}

	for _, segment := range s.codec.Segments() {
		rows, err := s.selectRows(ctx, s.codec.ObjectStore(segment), predicate)
		if err != nil {
			return nil, err
		}
		for parentID, group := range lo.GroupBy(rows, func(r repository.SegmentRow) string { return r.ParentID }) {
			record, ok := byID[parentID]
			if !ok {
				continue
			}
			if err := s.codec.Load(segment, group, record); err != nil {
				return nil, err
			}
		}
	}
	return records, nil
}

func (s *LocalStore[T]) allSegments() []entity.Segment {
	return append([]entity.Segment{s.codec.BaseSegment()}, s.codec.Segments()...)
}

func (s *LocalStore[T]) populated(record T) []entity.Segment {
	return lo.Filter(s.allSegments(), func(segment entity.Segment, _ int) bool {
		return s.codec.Populated(segment, record)
	})
}

func (s *LocalStore[T]) serialize(record T, segments []entity.Segment) (map[entity.Segment][]repository.SegmentRow, error) {
	batches := make(map[entity.Segment][]repository.SegmentRow, len(segments))
	for _, segment := range segments {
		rows, err := s.codec.Serialize(segment, s.userID, record)
		if err != nil {
			return nil, err
		}
		batches[segment] = rows
	}
	return batches, nil
}

// replaceSegment swaps the stored rows of one segment of record for rows.
func (s *LocalStore[T]) replaceSegment(ctx context.Context, tx *sql.Tx, segment entity.Segment, record T, rows []repository.SegmentRow) error {
	table := s.codec.ObjectStore(segment)
	if segment != s.codec.BaseSegment() {
		storageID := s.codec.StorageID(s.userID, record.Identity())
		if _, err := s.deleteWhere(ctx, tx, table, entsql.EQ("word_item_id", storageID)); err != nil {
			return err
		}
	}
	return s.insertRows(ctx, tx, table, rows, true)
}

func (s *LocalStore[T]) insertRows(ctx context.Context, tx *sql.Tx, table string, rows []repository.SegmentRow, overwrite bool) error {
	if len(rows) == 0 {
		return nil
	}
	insert := entsql.Dialect(s.db.Dialect).Insert(table).Columns(segmentColumns...)
	for _, row := range rows {
		insert.Values(
			row.ID, row.ListID, row.UserID, row.PartitionKey, row.LocalKey,
			row.ParentID, row.Seq, string(row.Payload), row.CreatedAt.UTC().Format(time.RFC3339Nano),
		)
	}
	if overwrite {
		insert.OnConflict(entsql.ConflictColumns("id"), entsql.ResolveWithNewValues())
	} else {
		insert.OnConflict(entsql.ConflictColumns("id"), entsql.DoNothing())
	}
	query, args := insert.Query()
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert into %s: %w", table, err)
	}
	return nil
}

func (s *LocalStore[T]) deleteWhere(ctx context.Context, tx *sql.Tx, table string, predicate *entsql.Predicate) (int64, error) {
	query, args := entsql.Dialect(s.db.Dialect).Delete(table).Where(predicate).Query()
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("delete from %s: %w", table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete from %s: %w", table, err)
	}
	return n, nil
}

func (s *LocalStore[T]) selectRows(ctx context.Context, table string, predicate *entsql.Predicate) ([]repository.SegmentRow, error) {
	builder := entsql.Dialect(s.db.Dialect)
	query, args := builder.Select(segmentColumns...).
		From(builder.Table(table)).
		Where(predicate).
		OrderBy("word_item_id", "seq").
		Query()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select from %s: %w", table, err)
	}
	defer rows.Close()

	var out []repository.SegmentRow
	for rows.Next() {
		var (
			row       repository.SegmentRow
			payload   string
			createdAt string
		)
		if err := rows.Scan(&row.ID, &row.ListID, &row.UserID, &row.PartitionKey, &row.LocalKey,
			&row.ParentID, &row.Seq, &payload, &createdAt); err != nil {
			return nil, fmt.Errorf("scan %s: %w", table, err)
		}
		row.Payload = []byte(payload)
		if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
			row.CreatedAt = t.UTC()
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", table, err)
	}
	return out, nil
}

func (s *LocalStore[T]) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	if !s.Available() {
		return entity.ErrBackendUnavailable
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
