package catalog

import (
	"github.com/shopspring/decimal"

	"pricecatalog/internal"
	"pricecatalog/internal/util"
)

type Outcome int

const (
	Added Outcome = iota + 1
	Replaced
	Kept
)

func (o Outcome) String() string {
	switch o {
	case Added:
		return "added"
	case Replaced:
		return "replaced"
	case Kept:
		return "kept"
	default:
		return "unknown"
	}
}

var priceEpsilon = decimal.New(1, -4)

type entry struct {
	key     string
	item    internal.PriceItem
	removed bool
}

// Builder accumulates items in ingestion order and resolves duplicate keys.
// A duplicate replaces the held entry only when the held price is zero and
// the new price is positive; the replacement moves to the end of the order.
// Every other duplicate is dropped.
type Builder struct {
	index   map[string]int
	entries []entry
	live    int
}

func NewBuilder() *Builder {
	return &Builder{index: map[string]int{}}
}

func (b *Builder) Add(item internal.PriceItem) Outcome {
	key := util.NormalizeKey(item.Identifier)
	pos, ok := b.index[key]
	if !ok {
		b.index[key] = len(b.entries)
		b.entries = append(b.entries, entry{key: key, item: item})
		b.live++
		return Added
	}

	held := b.entries[pos].item
	if held.Price.LessThan(priceEpsilon) && item.Price.IsPositive() {
		b.entries[pos].removed = true
		b.index[key] = len(b.entries)
		b.entries = append(b.entries, entry{key: key, item: item})
		return Replaced
	}
	return Kept
}

func (b *Builder) Len() int {
	return b.live
}

// Build freezes the accumulated entries. The builder must not be reused.
func (b *Builder) Build() *Snapshot {
	s := &Snapshot{
		byKey: make(map[string]int, b.live),
		items: make([]internal.PriceItem, 0, b.live),
		keys:  make([]string, 0, b.live),
		names: make([]string, 0, b.live),
	}
	for _, e := range b.entries {
		if e.removed {
			continue
		}
		s.byKey[e.key] = len(s.items)
		s.items = append(s.items, e.item)
		s.keys = append(s.keys, e.key)
		s.names = append(s.names, util.NormalizeKey(e.item.Name))
	}
	return s
}
