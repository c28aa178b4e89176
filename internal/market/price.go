package market

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

const (
	// priceDeriveNumLast is the number of most recent trades the market price
	// is derived over.
	priceDeriveNumLast = 6

	// priceLookbackDays is the trade lookback window for price synthesis.
	priceLookbackDays = 10

	// maxLastTrades bounds the with-last-trades request parameter.
	maxLastTrades = 30
)

// priceDeriveWeights is indexed by position in the oldest-first slice of
// selected trades, so the oldest selected trade carries the highest weight.
var priceDeriveWeights = [priceDeriveNumLast]float64{1, .9, .72, .6, .4, .3}

// MarketPriceSummary synthesizes a market price for the pair from its most
// recent trades. withLastTrades (0-30) additionally attaches that many raw
// trades to the result. Returns ErrNoData when the lookback window holds no
// trades.
func (s *Service) MarketPriceSummary(ctx context.Context, asset1, asset2 string, withLastTrades int) (*PriceSummary, error) {
	memo := assetMemo{}
	summary, err := s.priceSummary(ctx, memo, asset1, asset2, withLastTrades)
	if err != nil {
		return nil, err
	}
	if summary == nil {
		return nil, fmt.Errorf("%w: no trades for %s/%s", ErrNoData, asset1, asset2)
	}
	return summary, nil
}

// priceSummary is MarketPriceSummary with a caller-provided lookup memo and a
// nil result (not an error) for the no-data case, for use by the composer.
func (s *Service) priceSummary(ctx context.Context, memo assetMemo, asset1, asset2 string, withLastTrades int) (*PriceSummary, error) {
	if withLastTrades < 0 || withLastTrades > maxLastTrades {
		return nil, fmt.Errorf("%w: with_last_trades must be 0-%d", ErrInvalidParam, maxLastTrades)
	}

	base, quote := s.canonicalPair(asset1, asset2)
	baseInfo, err := s.assetCached(ctx, memo, base)
	if err != nil {
		return nil, fmt.Errorf("look up base asset: %w", err)
	}
	quoteInfo, err := s.assetCached(ctx, memo, quote)
	if err != nil {
		return nil, fmt.Errorf("look up quote asset: %w", err)
	}
	if baseInfo == nil || quoteInfo == nil {
		return nil, fmt.Errorf("%w: %s/%s", ErrInvalidAsset, asset1, asset2)
	}

	since := time.Now().UTC().Add(-priceLookbackDays * 24 * time.Hour)
	limit := priceDeriveNumLast
	if withLastTrades > limit {
		limit = withLastTrades
	}
	trades, err := s.store.RecentTrades(ctx, base, quote, since, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch recent trades: %w", err)
	}
	if len(trades) == 0 {
		return nil, nil
	}

	// Oldest first; the weight table is anchored on the oldest selected trade.
	reverseTrades(trades)

	n := len(trades)
	if n > priceDeriveNumLast {
		n = priceDeriveNumLast
	}
	num := decimal.Zero
	den := decimal.Zero
	for i := 0; i < n; i++ {
		w := decimal.NewFromFloat(priceDeriveWeights[i])
		num = num.Add(decimal.NewFromFloat(trades[i].UnitPrice).Mul(w))
		den = den.Add(w)
	}

	summary := &PriceSummary{
		MarketPrice: round8Decimal(num.Div(den)),
		BaseAsset:   base,
		QuoteAsset:  quote,
	}
	if withLastTrades > 0 {
		summary.LastTrades = make([]TradeTick, 0, len(trades))
		for _, t := range trades {
			summary.LastTrades = append(summary.LastTrades, TradeTick{
				BlockTime:     t.BlockTime.UnixMilli(),
				UnitPrice:     t.UnitPrice,
				BaseQuantity:  t.BaseQuantityNorm,
				QuoteQuantity: t.QuoteQuantityNorm,
				BlockIndex:    t.BlockIndex,
			})
		}
	}
	return summary, nil
}

func reverseTrades(trades []Trade) {
	for i, j := 0, len(trades)-1; i < j; i, j = i+1, j-1 {
		trades[i], trades[j] = trades[j], trades[i]
	}
}
