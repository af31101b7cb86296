package backup

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/eslsoft/vocsync/internal/adapter/codec"
	"github.com/eslsoft/vocsync/internal/entity"
	"github.com/eslsoft/vocsync/internal/repository"
	"github.com/eslsoft/vocsync/internal/usecase"
)

const (
	defaultBatchSize = 64
	formatVersion    = 1
	metaType         = "meta"
)

var errNoListsSelected = errors.New("backup: no word lists selected")

// ProgressReporter receives per-list progress callbacks.
type ProgressReporter interface {
	StartTable(table string, total int)
	Increment(table string, delta int)
	FinishTable(table string)
}

type noopProgress struct{}

func (noopProgress) StartTable(string, int) {}
func (noopProgress) Increment(string, int)  {}
func (noopProgress) FinishTable(string)     {}

// WordStore is the subset of the sync manager a backup needs.
type WordStore interface {
	Query(ctx context.Context, filter repository.Filter, mode usecase.QueryMode) []*entity.WordItem
	Update(ctx context.Context, record *entity.WordItem, opts ...usecase.MutationOption) *usecase.Pending[bool]
}

// Service exports and imports word lists as NDJSON through a sync manager.
type Service struct {
	store     WordStore
	batchSize int
	logger    logrus.FieldLogger
}

type Option func(*Service)

// WithBatchSize bounds how many imported items are awaited together.
func WithBatchSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.batchSize = size
		}
	}
}

// NewService constructs a backup service bound to store.
func NewService(store WordStore, logger logrus.FieldLogger, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("backup: word store is required")
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	svc := &Service{
		store:     store,
		batchSize: defaultBatchSize,
		logger:    logger.WithField("component", "backup"),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

type ExportOption func(*exportConfig)

type exportConfig struct {
	languages []string
	mode      usecase.QueryMode
	reporter  ProgressReporter
}

// WithLanguages restricts export to the given word lists. Without it every known language is exported.
func WithLanguages(languages []string) ExportOption {
	return func(cfg *exportConfig) {
		if len(languages) == 0 {
			return
		}
		cfg.languages = append([]string{}, languages...)
	}
}

// WithQueryMode selects which store is read; merged by default.
func WithQueryMode(mode usecase.QueryMode) ExportOption {
	return func(cfg *exportConfig) {
		if mode != "" {
			cfg.mode = mode
		}
	}
}

// WithProgressReporter registers a reporter that receives progress callbacks during export.
func WithProgressReporter(reporter ProgressReporter) ExportOption {
	return func(cfg *exportConfig) {
		cfg.reporter = reporter
	}
}

type ImportOption func(*importConfig)

type importConfig struct {
	languages []string
	opts      []usecase.MutationOption
}

// WithImportLanguages restricts import to the given word lists.
func WithImportLanguages(languages []string) ImportOption {
	return func(cfg *importConfig) {
		if len(languages) == 0 {
			return
		}
		cfg.languages = append([]string{}, languages...)
	}
}

// WithMutationOptions forwards options such as usecase.WithOnlyLocal to every imported item.
func WithMutationOptions(opts ...usecase.MutationOption) ImportOption {
	return func(cfg *importConfig) {
		cfg.opts = append(cfg.opts, opts...)
	}
}

type record struct {
	Type       string          `json:"type"`
	Version    int             `json:"version,omitempty"`
	ExportedAt *time.Time      `json:"exported_at,omitempty"`
	Lists      []string        `json:"lists,omitempty"`
	RowCounts  map[string]int  `json:"row_counts,omitempty"`
	Payload    json.RawMessage `json:"payload,omitempty"`
}

// Export writes a meta record followed by one record per word item, list by list.
func (s *Service) Export(ctx context.Context, w io.Writer, opts ...ExportOption) error {
	cfg := exportConfig{mode: usecase.QueryMerged}
	for _, opt := range opts {
		opt(&cfg)
	}
	languages, err := selectLanguages(cfg.languages)
	if err != nil {
		return err
	}
	reporter := cfg.reporter
	if reporter == nil {
		reporter = noopProgress{}
	}

	lists := make(map[string][]*entity.WordItem, len(languages))
	counts := make(map[string]int, len(languages))
	for _, lang := range languages {
		items := s.store.Query(ctx, repository.ByPartition(lang), cfg.mode)
		sort.Slice(items, func(i, j int) bool { return items[i].TargetWord < items[j].TargetWord })
		lists[lang] = items
		counts[lang] = len(items)
	}

	writer := bufio.NewWriter(w)
	defer writer.Flush()

	now := time.Now().UTC()
	meta := record{
		Type:       metaType,
		Version:    formatVersion,
		ExportedAt: &now,
		Lists:      languages,
		RowCounts:  counts,
	}
	if err := writeRecord(writer, meta); err != nil {
		return err
	}

	for _, lang := range languages {
		reporter.StartTable(lang, counts[lang])
		for _, item := range lists[lang] {
			payload, err := codec.MarshalWordItem(item)
			if err != nil {
				return err
			}
			if err := writeRecord(writer, record{Type: string(entity.DataTypeWordItem), Payload: payload}); err != nil {
				return err
			}
			reporter.Increment(lang, 1)
		}
		reporter.FinishTable(lang)
	}
	return writer.Flush()
}

// Import merges every word item of a backup into the store. Existing items are
// never overwritten; they gain whatever the backup adds.
func (s *Service) Import(ctx context.Context, r io.Reader, opts ...ImportOption) error {
	cfg := importConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	var filter map[string]bool
	if len(cfg.languages) > 0 {
		languages, err := selectLanguages(cfg.languages)
		if err != nil {
			return err
		}
		filter = lo.SliceToMap(languages, func(l string) (string, bool) { return l, true })
	}

	br := bufio.NewReader(r)
	var (
		metaSeen bool
		meta     record
		batch    []*usecase.Pending[bool]
		imported int
		failed   int
	)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		for _, p := range batch {
			ok, err := p.Wait(ctx)
			if err != nil {
				return fmt.Errorf("import word item: %w", err)
			}
			if ok {
				imported++
			} else {
				failed++
			}
		}
		batch = batch[:0]
		return nil
	}

	for {
		line, err := br.ReadBytes('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("read backup: %w", err)
		}
		line = bytes.TrimSpace(line)
		if len(line) > 0 {
			var rec record
			if err := json.Unmarshal(line, &rec); err != nil {
				return fmt.Errorf("decode record: %w", err)
			}

			switch rec.Type {
			case metaType:
				if rec.Version != formatVersion {
					return fmt.Errorf("backup: unsupported format version %d", rec.Version)
				}
				metaSeen = true
				meta = rec
			case string(entity.DataTypeWordItem):
				if !metaSeen {
					return errors.New("backup: missing meta record")
				}
				item, err := codec.UnmarshalWordItem(rec.Payload)
				if err != nil {
					return err
				}
				if filter != nil && !filter[item.LanguageCode] {
					break
				}
				batch = append(batch, s.store.Update(ctx, item, cfg.opts...))
				if len(batch) >= s.batchSize {
					if err := flush(); err != nil {
						return err
					}
				}
			default:
				if _, err := entity.ParseDataType(rec.Type); err != nil {
					return fmt.Errorf("backup: %w", err)
				}
			}
		}
		if errors.Is(err, io.EOF) {
			break
		}
	}
	if err := flush(); err != nil {
		return err
	}
	if !metaSeen {
		return errors.New("backup: missing meta record")
	}

	s.logger.WithFields(logrus.Fields{
		"lists":    meta.Lists,
		"imported": imported,
		"failed":   failed,
	}).Info("backup imported")
	if failed > 0 {
		return fmt.Errorf("backup: %d word items could not be stored in every store", failed)
	}
	return nil
}

func selectLanguages(requested []string) ([]string, error) {
	if len(requested) == 0 {
		return lo.Map(entity.KnownLanguages(), func(l entity.Language, _ int) string { return l.Code() }), nil
	}
	set := make(map[string]struct{}, len(requested))
	for _, name := range requested {
		code := entity.NormalizeLanguageCode(name)
		if code == "" {
			continue
		}
		set[code] = struct{}{}
	}
	if len(set) == 0 {
		return nil, errNoListsSelected
	}
	languages := lo.Keys(set)
	sort.Strings(languages)
	return languages, nil
}

func writeRecord(w io.Writer, rec record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return err
	}
	if _, err := w.Write([]byte("\n")); err != nil {
		return err
	}
	return nil
}
