package catalog

import (
	"strings"

	"pricecatalog/internal"
	"pricecatalog/internal/util"
)

// Snapshot is an immutable catalog: a key index plus the insertion-ordered
// item list. Every indexed key appears exactly once in the list.
type Snapshot struct {
	byKey map[string]int
	items []internal.PriceItem
	keys  []string
	names []string
}

func Empty() *Snapshot {
	return &Snapshot{byKey: map[string]int{}}
}

func (s *Snapshot) Len() int {
	return len(s.items)
}

// Lookup resolves a raw identifier. An exact key hit wins; otherwise the first
// item in order whose key equals the input or whose name contains it.
// Blank input is not found rather than matching the first item by name.
func (s *Snapshot) Lookup(raw string) (internal.PriceItem, bool) {
	k := util.NormalizeKey(raw)
	if k == "" {
		return internal.PriceItem{}, false
	}
	if pos, ok := s.byKey[k]; ok {
		return s.items[pos], true
	}
	for i := range s.items {
		if s.keys[i] == k || strings.Contains(s.names[i], k) {
			return s.items[i], true
		}
	}
	return internal.PriceItem{}, false
}

// Search returns up to limit items, in catalog order, whose key starts with
// the input or whose name contains it. Blank input matches nothing.
func (s *Snapshot) Search(raw string, limit int) []internal.PriceItem {
	p := util.NormalizeKey(raw)
	out := []internal.PriceItem{}
	if p == "" || limit <= 0 {
		return out
	}
	for i := range s.items {
		if strings.HasPrefix(s.keys[i], p) || strings.Contains(s.names[i], p) {
			out = append(out, s.items[i])
			if len(out) == limit {
				break
			}
		}
	}
	return out
}

// Items returns a copy of the ordered item list.
func (s *Snapshot) Items() []internal.PriceItem {
	return append([]internal.PriceItem{}, s.items...)
}
