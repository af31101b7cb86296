package codec

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/samber/lo"

	"github.com/eslsoft/vocsync/internal/entity"
)

// wordItemBackup keeps every field, including the full analysis the remote document drops.
type wordItemBackup struct {
	LanguageCode string       `json:"languageCode"`
	TargetWord   string       `json:"targetWord"`
	Important    bool         `json:"important"`
	CreatedAt    *time.Time   `json:"createdAt,omitempty"`
	Homonym      *homonymJSON `json:"homonym,omitempty"`
	Context      []targetJSON `json:"context,omitempty"`
}

// MarshalWordItem encodes w for backups.
func MarshalWordItem(w *entity.WordItem) (json.RawMessage, error) {
	rec := wordItemBackup{
		LanguageCode: w.LanguageCode,
		TargetWord:   w.TargetWord,
		Important:    w.Important,
		Context:      lo.Map(w.Context, func(s entity.TextQuoteSelector, _ int) targetJSON { return toTarget(s) }),
	}
	if !w.CreatedAt.IsZero() {
		created := w.CreatedAt.UTC()
		rec.CreatedAt = &created
	}
	if !w.Homonym.IsEmpty() {
		h := fullHomonym(w.Homonym)
		rec.Homonym = &h
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("%w: word item %s: %v", entity.ErrSerialization, w.Identity(), err)
	}
	return data, nil
}

// UnmarshalWordItem decodes a backup payload written by MarshalWordItem.
func UnmarshalWordItem(data []byte) (*entity.WordItem, error) {
	var rec wordItemBackup
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("%w: decode word item: %v", entity.ErrSerialization, err)
	}
	w := &entity.WordItem{
		TargetWord:   entity.NormalizeTargetWord(rec.TargetWord),
		LanguageCode: entity.NormalizeLanguageCode(rec.LanguageCode),
		Important:    rec.Important,
	}
	if err := w.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrSerialization, err)
	}
	if rec.CreatedAt != nil {
		w.CreatedAt = rec.CreatedAt.UTC()
	}
	if rec.Homonym != nil {
		w.Homonym = rec.Homonym.toEntity()
	}
	for _, t := range rec.Context {
		w.AddContext(fromTarget(t))
	}
	return w, nil
}
