package polymarket

import (
	"cmp"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/alejandrodnm/polyarena/internal/domain"
)

func mapOrderBook(r orderBookResponse) domain.OrderBook {
	bids := mapLevels(r.Bids)
	asks := mapLevels(r.Asks)
	slices.SortFunc(bids, func(a, b domain.BookEntry) int { return cmp.Compare(b.Price, a.Price) })
	slices.SortFunc(asks, func(a, b domain.BookEntry) int { return cmp.Compare(a.Price, b.Price) })
	return domain.OrderBook{TokenID: r.AssetID, Bids: bids, Asks: asks}
}

// mapLevels descarta niveles que no parsean o con precio/tamaño no positivo.
func mapLevels(raw []bookEntryRaw) []domain.BookEntry {
	out := make([]domain.BookEntry, 0, len(raw))
	for _, lvl := range raw {
		price, err := decimal.NewFromString(lvl.Price)
		if err != nil || !price.IsPositive() {
			continue
		}
		size, err := decimal.NewFromString(lvl.Size)
		if err != nil || !size.IsPositive() {
			continue
		}
		out = append(out, domain.BookEntry{Price: price.InexactFloat64(), Size: size.InexactFloat64()})
	}
	return out
}
