package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/eslsoft/vocsync/internal/entity"
	"github.com/eslsoft/vocsync/internal/repository"
	"github.com/eslsoft/vocsync/pkg/filterexpr"
)

var errNoSubscribers = errors.New("no word list subscribers")

// WordReader is the read side of a word item sync manager.
type WordReader interface {
	Query(ctx context.Context, filter repository.Filter, mode QueryMode) []*entity.WordItem
}

// ListWordsQuery selects word items with a CEL filter, e.g. `language == "lat" && important`.
// language is required; the other fields narrow the result.
type ListWordsQuery struct {
	Filter  string
	OrderBy string
	Mode    QueryMode
}

// WordListUsecase encapsulates the word list operations offered to users.
type WordListUsecase interface {
	AddWord(ctx context.Context, item *entity.WordItem, opts ...MutationOption) (bool, error)
	ListWords(ctx context.Context, query ListWordsQuery) ([]*entity.WordItem, error)
	DeleteWord(ctx context.Context, id entity.Identity, opts ...MutationOption) (bool, error)
	DeleteList(ctx context.Context, languageCode string, opts ...MutationOption) (bool, error)
}

// NewWordListUsecase publishes mutations on bus and reads through reader.
func NewWordListUsecase(bus *Broadcaster[*entity.WordItem], reader WordReader) WordListUsecase {
	return &wordListUsecase{
		bus:    bus,
		reader: reader,
		clock:  time.Now,
	}
}

type wordListUsecase struct {
	bus    *Broadcaster[*entity.WordItem]
	reader WordReader
	clock  func() time.Time
}

func (u *wordListUsecase) AddWord(ctx context.Context, item *entity.WordItem, opts ...MutationOption) (bool, error) {
	if item == nil {
		return false, entity.ErrInvalidWordItem
	}
	if err := item.Validate(); err != nil {
		return false, err
	}
	clone := item.Clone()
	clone.TargetWord = entity.NormalizeTargetWord(clone.TargetWord)
	clone.LanguageCode = entity.NormalizeLanguageCode(clone.LanguageCode)
	if clone.CreatedAt.IsZero() {
		clone.CreatedAt = u.clock().UTC()
	}
	return u.publish(ctx, Event[*entity.WordItem]{Kind: EventRecordUpdated, Record: clone, Options: opts})
}

func (u *wordListUsecase) DeleteWord(ctx context.Context, id entity.Identity, opts ...MutationOption) (bool, error) {
	id = entity.NewIdentity(id.PartitionKey, id.LocalKey)
	if err := id.Validate(); err != nil {
		return false, err
	}
	return u.publish(ctx, Event[*entity.WordItem]{Kind: EventRecordDeleted, Identity: id, Options: opts})
}

func (u *wordListUsecase) DeleteList(ctx context.Context, languageCode string, opts ...MutationOption) (bool, error) {
	languageCode = entity.NormalizeLanguageCode(languageCode)
	if languageCode == "" {
		return false, fmt.Errorf("%w: language code is required", entity.ErrInvalidWordItem)
	}
	return u.publish(ctx, Event[*entity.WordItem]{Kind: EventPartitionDeleted, PartitionKey: languageCode, Options: opts})
}

func (u *wordListUsecase) publish(ctx context.Context, ev Event[*entity.WordItem]) (bool, error) {
	pending := u.bus.Publish(ctx, ev)
	if len(pending) == 0 {
		return false, errNoSubscribers
	}
	return WaitAll(ctx, pending...)
}

type listWordsParams struct {
	Language      string
	Word          *string
	WordPrefix    *string
	Words         []string
	Important     *bool
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
	OrderBy       []filterexpr.OrderTerm
}

var listWordsSchema = filterexpr.Schema{
	Fields: map[string]filterexpr.Field{
		"language": {Kind: filterexpr.KindString, Ops: map[filterexpr.Op]string{filterexpr.OpEQ: "Language"}},
		"word": {Kind: filterexpr.KindString, Ops: map[filterexpr.Op]string{
			filterexpr.OpEQ: "Word",
			filterexpr.OpSW: "WordPrefix",
			filterexpr.OpIN: "Words",
		}},
		"important": {Kind: filterexpr.KindBool, Ops: map[filterexpr.Op]string{filterexpr.OpEQ: "Important"}},
		"created_at": {Kind: filterexpr.KindTimestamp, Ops: map[filterexpr.Op]string{
			filterexpr.OpGTE: "CreatedAfter",
			filterexpr.OpLTE: "CreatedBefore",
		}},
	},
	Order: filterexpr.OrderSchema{
		Keys:     []string{"word", "created_at", "important"},
		Default:  []filterexpr.OrderTerm{{Key: "created_at", Desc: true}},
		Fallback: filterexpr.OrderTerm{Key: "word"},
	},
}

func (u *wordListUsecase) ListWords(ctx context.Context, query ListWordsQuery) ([]*entity.WordItem, error) {
	var p listWordsParams
	if err := filterexpr.Bind(query.Filter, query.OrderBy, &p, listWordsSchema); err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrInvalidWordItem, err)
	}
	if strings.TrimSpace(p.Language) == "" {
		return nil, fmt.Errorf("%w: filter must select a language", entity.ErrInvalidWordItem)
	}
	mode := query.Mode
	if mode == "" {
		mode = QueryMerged
	}

	filter := repository.ByPartition(p.Language)
	if p.Word != nil {
		filter = repository.ByIdentity(entity.NewIdentity(p.Language, *p.Word))
	}
	items := lo.Filter(u.reader.Query(ctx, filter, mode), func(w *entity.WordItem, _ int) bool {
		return p.matches(w)
	})
	sortWordItems(items, p.OrderBy)
	return items, nil
}

func (p listWordsParams) matches(w *entity.WordItem) bool {
	if p.WordPrefix != nil && !strings.HasPrefix(w.TargetWord, entity.NormalizeTargetWord(*p.WordPrefix)) {
		return false
	}
	if len(p.Words) > 0 && !lo.Contains(lo.Map(p.Words, func(s string, _ int) string { return entity.NormalizeTargetWord(s) }), w.TargetWord) {
		return false
	}
	if p.Important != nil && w.Important != *p.Important {
		return false
	}
	if p.CreatedAfter != nil && w.CreatedAt.Before(*p.CreatedAfter) {
		return false
	}
	if p.CreatedBefore != nil && w.CreatedAt.After(*p.CreatedBefore) {
		return false
	}
	return true
}

func sortWordItems(items []*entity.WordItem, terms []filterexpr.OrderTerm) {
	sort.SliceStable(items, func(i, j int) bool {
		for _, term := range terms {
			c := compareWordItems(items[i], items[j], term.Key)
			if c == 0 {
				continue
			}
			if term.Desc {
				return c > 0
			}
			return c < 0
		}
		return false
	})
}

func compareWordItems(a, b *entity.WordItem, key string) int {
	switch key {
	case "word":
		return strings.Compare(a.TargetWord, b.TargetWord)
	case "created_at":
		return a.CreatedAt.Compare(b.CreatedAt)
	case "important":
		switch {
		case a.Important == b.Important:
			return 0
		case a.Important:
			return 1
		default:
			return -1
		}
	default:
		return 0
	}
}
