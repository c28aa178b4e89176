package market

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// OrderBook builds the fee-filtered bid/ask book for the caller's intended
// (buyAsset, sellAsset) direction. feeProvided applies when the caller gives
// the fee-bearing chain asset, feeRequired when the caller receives it; both
// are normalized quantities and optional.
func (s *Service) OrderBook(ctx context.Context, buyAsset, sellAsset string, feeProvided, feeRequired *float64) (*OrderBook, error) {
	base, quote := s.canonicalPair(buyAsset, sellAsset)

	baseInfo, err := s.store.Asset(ctx, base)
	if err != nil {
		return nil, fmt.Errorf("look up base asset: %w", err)
	}
	quoteInfo, err := s.store.Asset(ctx, quote)
	if err != nil {
		return nil, fmt.Errorf("look up quote asset: %w", err)
	}
	if baseInfo == nil || quoteInfo == nil {
		return nil, fmt.Errorf("%w: %s/%s", ErrInvalidAsset, buyAsset, sellAsset)
	}

	// Counter-orders matching the caller's own direction, for display.
	counterOrders, err := s.ledger.OpenOrders(ctx, OrderQuery{
		GetAsset:  sellAsset,
		GiveAsset: buyAsset,
	})
	if err != nil {
		return nil, fmt.Errorf("fetch counter orders: %w", err)
	}

	bidQuery := OrderQuery{GetAsset: base, GiveAsset: quote}
	askQuery := OrderQuery{GetAsset: quote, GiveAsset: base}

	// When the chain asset occupies the pair, narrow both books to the
	// region competitive with the caller's fee preference.
	switch {
	case base == s.chainAsset:
		if buyAsset == s.chainAsset && feeRequired != nil {
			// Buying the base chain asset: we sit on the bid book and
			// require a fee. Competition requires at least as much; asks
			// must provide at least what we require.
			raw := denormalizeQuantity(*feeRequired)
			bidQuery.FeeRequiredGTE = &raw
			askQuery.FeeProvidedGTE = &raw
		} else if sellAsset == s.chainAsset && feeProvided != nil {
			// Selling the base chain asset: we sit on the ask book and
			// provide a fee. Bids must require no more than we provide;
			// competition provides at least as much.
			raw := denormalizeQuantity(*feeProvided)
			bidQuery.FeeRequiredLTE = &raw
			askQuery.FeeProvidedGTE = &raw
		}
	case quote == s.chainAsset:
		if buyAsset == s.chainAsset && feeRequired != nil {
			// Buying the quote chain asset means selling the base: ask
			// side is ours. Bids must provide at least what we require;
			// competing asks require at least as much.
			raw := denormalizeQuantity(*feeRequired)
			bidQuery.FeeProvidedGTE = &raw
			askQuery.FeeRequiredGTE = &raw
		} else if sellAsset == s.chainAsset && feeProvided != nil {
			// Selling the quote chain asset means buying the base: bid
			// side is ours. Competing bids provide at least as much; asks
			// must require no more than we provide.
			raw := denormalizeQuantity(*feeProvided)
			bidQuery.FeeProvidedGTE = &raw
			askQuery.FeeRequiredLTE = &raw
		}
	}

	bidOrders, err := s.ledger.OpenOrders(ctx, bidQuery)
	if err != nil {
		return nil, fmt.Errorf("fetch bid orders: %w", err)
	}
	askOrders, err := s.ledger.OpenOrders(ctx, askQuery)
	if err != nil {
		return nil, fmt.Errorf("fetch ask orders: %w", err)
	}

	bids := makeBook(bidOrders, base, baseInfo.Divisible, true)
	asks := makeBook(askOrders, base, baseInfo.Divisible, false)

	book := &OrderBook{Bids: bids, Asks: asks}
	if len(bids) > 0 && len(asks) > 0 {
		book.Spread = round8Decimal(
			decimal.NewFromFloat(asks[0].UnitPrice).Sub(decimal.NewFromFloat(bids[0].UnitPrice)))
	}
	if len(asks) > 0 {
		book.Median = round8Decimal(
			decimal.NewFromFloat(asks[0].UnitPrice).Sub(decimal.NewFromFloat(book.Spread).Div(decimal.NewFromInt(2))))
	}
	book.BidDepth = attachDepth(book.Bids)
	book.AskDepth = attachDepth(book.Asks)

	// Annotate raw orders with a human-readable block time.
	raw := make([]Order, 0, len(bidOrders)+len(askOrders))
	raw = append(raw, bidOrders...)
	raw = append(raw, askOrders...)
	for i := range raw {
		if err := s.annotateBlockTime(ctx, &raw[i]); err != nil {
			return nil, err
		}
	}
	for i := range counterOrders {
		if err := s.annotateBlockTime(ctx, &counterOrders[i]); err != nil {
			return nil, err
		}
	}
	book.RawOrders = raw
	book.OpenCounterOrders = counterOrders

	return book, nil
}

func (s *Service) annotateBlockTime(ctx context.Context, o *Order) error {
	t, err := s.store.BlockTime(ctx, o.BlockIndex)
	if err != nil {
		return fmt.Errorf("resolve block time for block %d: %w", o.BlockIndex, err)
	}
	o.BlockTime = t.UnixMilli()
	return nil
}

// makeBook merges orders into price levels keyed by unit price, with
// quantities expressed in base units. Bid books sort descending, ask books
// ascending, best price first either way.
func makeBook(orders []Order, baseAsset string, baseDivisible, isBidBook bool) []BookLevel {
	type level struct {
		qty   decimal.Decimal
		count int
	}
	levels := map[float64]*level{}

	for _, o := range orders {
		// A zero quantity on either side cannot price; skip the record
		// rather than fault on malformed daemon data.
		if o.GiveQuantity == 0 || o.GetQuantity == 0 {
			continue
		}

		var unitPrice float64
		var remaining float64
		if o.GiveAsset == baseAsset {
			unitPrice = round8Decimal(
				decimal.NewFromInt(o.GetQuantity).Div(decimal.NewFromInt(o.GiveQuantity)))
			remaining = normalizeQuantity(o.GiveRemaining, baseDivisible)
		} else {
			unitPrice = round8Decimal(
				decimal.NewFromInt(o.GiveQuantity).Div(decimal.NewFromInt(o.GetQuantity)))
			remaining = normalizeQuantity(o.GetRemaining, baseDivisible)
		}

		l, ok := levels[unitPrice]
		if !ok {
			l = &level{}
			levels[unitPrice] = l
		}
		l.qty = l.qty.Add(decimal.NewFromFloat(remaining))
		l.count++
	}

	book := make([]BookLevel, 0, len(levels))
	for price, l := range levels {
		book = append(book, BookLevel{
			UnitPrice: price,
			Quantity:  round8Decimal(l.qty),
			Count:     l.count,
		})
	}
	sort.Slice(book, func(i, j int) bool {
		if isBidBook {
			return book[i].UnitPrice > book[j].UnitPrice
		}
		return book[i].UnitPrice < book[j].UnitPrice
	})
	return book
}

// attachDepth writes the running cumulative quantity onto each level and
// returns the side's total depth.
func attachDepth(book []BookLevel) float64 {
	depth := decimal.Zero
	for i := range book {
		depth = depth.Add(decimal.NewFromFloat(book[i].Quantity))
		book[i].Depth = round8Decimal(depth)
	}
	return round8Decimal(depth)
}
