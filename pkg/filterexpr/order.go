package filterexpr

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
)

// OrderTerm is one key of an order_by clause.
type OrderTerm struct {
	Key  string
	Desc bool
}

// OrderSchema whitelists order keys. Default is applied when order_by is empty, and
// Fallback is appended unless already present so that ordering is total.
type OrderSchema struct {
	Keys     []string
	Default  []OrderTerm
	Fallback OrderTerm
}

// ParseOrderBy parses "key [asc|desc], ...".
func ParseOrderBy(raw string, schema OrderSchema) ([]OrderTerm, error) {
	var terms []OrderTerm
	for _, seg := range strings.Split(raw, ",") {
		parts := strings.Fields(seg)
		if len(parts) == 0 {
			continue
		}
		term := OrderTerm{Key: parts[0]}
		if !lo.Contains(schema.Keys, term.Key) {
			return nil, fmt.Errorf("field %q cannot be used for ordering", term.Key)
		}
		switch {
		case len(parts) == 1:
		case len(parts) == 2 && strings.EqualFold(parts[1], "asc"):
		case len(parts) == 2 && strings.EqualFold(parts[1], "desc"):
			term.Desc = true
		default:
			return nil, fmt.Errorf("invalid order segment %q", strings.TrimSpace(seg))
		}
		if lo.ContainsBy(terms, func(t OrderTerm) bool { return t.Key == term.Key }) {
			return nil, fmt.Errorf("duplicate order key %q", term.Key)
		}
		terms = append(terms, term)
	}

	if len(terms) == 0 {
		terms = append(terms, schema.Default...)
	}
	fallback := schema.Fallback
	if fallback.Key != "" && !lo.ContainsBy(terms, func(t OrderTerm) bool { return t.Key == fallback.Key }) {
		terms = append(terms, fallback)
	}
	return terms, nil
}
