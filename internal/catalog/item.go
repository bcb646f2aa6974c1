package catalog

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"pricecatalog/internal"
	"pricecatalog/internal/util"
)

const NameKeyPrefix = "NAME:"

// NewItem assembles a catalog entry from extracted fields. It reports false
// when neither an identifier nor a name is present. Without an identifier
// the key is synthesized from the name cut to nameKeyMax runes.
func NewItem(identifier, name string, price *float64, unit, sheet string, nameKeyMax int) (internal.PriceItem, bool) {
	identifier = strings.TrimSpace(identifier)
	name = strings.TrimSpace(name)
	if identifier == "" && name == "" {
		return internal.PriceItem{}, false
	}

	item := internal.PriceItem{
		Identifier:  identifier,
		Name:        name,
		Price:       decimal.Zero,
		Unit:        strings.TrimSpace(unit),
		SourceSheet: sheet,
	}
	if item.Identifier == "" {
		item.Identifier = NameKeyPrefix + util.TruncateRunes(name, nameKeyMax)
	}
	if price != nil && *price > 0 && !math.IsInf(*price, 0) {
		item.Price = decimal.NewFromFloat(*price)
	}
	if item.Unit == "" {
		item.Unit = internal.DefaultUnit
	}
	return item, true
}

// Key is the normalized catalog key of an item.
func Key(item internal.PriceItem) string {
	return util.NormalizeKey(item.Identifier)
}
