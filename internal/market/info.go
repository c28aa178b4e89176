package market

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// MarketInfo composes per-asset market snapshots (prices against both
// reference assets, market cap, 24h activity, 7-day history) for the
// requested assets. The protocol/chain cross rate is derived once and reused
// for every asset.
func (s *Service) MarketInfo(ctx context.Context, assets []string) (map[string]*AssetMarketInfo, error) {
	now := time.Now().UTC()
	start1d := now.Add(-24 * time.Hour)
	start7d := now.Add(-7 * 24 * time.Hour)

	memo := assetMemo{}

	// The one non-canonical reference cross rate, computed once.
	crossSummary, err := s.priceSummary(ctx, memo, s.protocolAsset, s.chainAsset, maxLastTrades)
	if err != nil {
		return nil, fmt.Errorf("derive %s/%s cross rate: %w", s.protocolAsset, s.chainAsset, err)
	}
	var crossRate, crossRateInverse *float64
	if crossSummary != nil {
		crossRate = ptr(crossSummary.MarketPrice)
		crossRateInverse = ptr(inverse(crossSummary.MarketPrice))
	}

	out := make(map[string]*AssetMarketInfo, len(assets))
	for _, asset := range assets {
		info, err := s.assetCached(ctx, memo, asset)
		if err != nil {
			return nil, fmt.Errorf("look up asset %s: %w", asset, err)
		}
		if info == nil {
			return nil, fmt.Errorf("%w: %s", ErrInvalidAsset, asset)
		}

		totalIssuedNorm := info.TotalIssuedNorm
		if asset == s.protocolAsset || asset == s.chainAsset {
			// Reference supply comes from ledger-wide issuance figures, not
			// the registry's own issuance field.
			issued, err := s.ledger.IssuedSupply(ctx, asset)
			if err != nil {
				return nil, fmt.Errorf("fetch %s supply: %w", asset, err)
			}
			totalIssuedNorm = normalizeQuantity(issued, true)
		}

		proto, chain, err := s.referenceSummaries(ctx, memo, asset, crossSummary)
		if err != nil {
			return nil, err
		}

		priceInProto, priceInChain, aggInProto, aggInChain :=
			s.referencePrices(asset, proto, chain, crossRate, crossRateInverse)

		entry := &AssetMarketInfo{
			Asset:       asset,
			TotalSupply: totalIssuedNorm,
			Quotes: map[string]*ReferenceQuote{
				s.protocolAsset: buildQuote(priceInProto, aggInProto, totalIssuedNorm),
				s.chainAsset:    buildQuote(priceInChain, aggInChain, totalIssuedNorm),
			},
		}

		if err := s.attachHistory(ctx, entry, asset, start7d, now); err != nil {
			return nil, err
		}
		if err := s.attach24h(ctx, entry, asset, proto, chain, start1d, now); err != nil {
			return nil, err
		}

		out[asset] = entry
	}
	return out, nil
}

// referenceSummaries returns the asset's price summaries against the
// protocol and chain assets. For the reference assets themselves, the
// summaries derive from the single cross pair, inverted for the direction
// canonical ordering cannot express.
func (s *Service) referenceSummaries(ctx context.Context, memo assetMemo, asset string, crossSummary *PriceSummary) (proto, chain *PriceSummary, err error) {
	if asset != s.protocolAsset && asset != s.chainAsset {
		proto, err = s.priceSummary(ctx, memo, asset, s.protocolAsset, maxLastTrades)
		if err != nil {
			return nil, nil, fmt.Errorf("price summary of %s in %s: %w", asset, s.protocolAsset, err)
		}
		chain, err = s.priceSummary(ctx, memo, asset, s.chainAsset, maxLastTrades)
		if err != nil {
			return nil, nil, fmt.Errorf("price summary of %s in %s: %w", asset, s.chainAsset, err)
		}
		return proto, chain, nil
	}

	proto = crossSummary
	if crossSummary != nil {
		chain = invertSummary(crossSummary, s.chainAsset, s.protocolAsset)
	}
	return proto, chain, nil
}

// invertSummary re-expresses a price summary in the opposite pair direction.
func invertSummary(summary *PriceSummary, base, quote string) *PriceSummary {
	inv := &PriceSummary{
		MarketPrice: inverse(summary.MarketPrice),
		BaseAsset:   base,
		QuoteAsset:  quote,
	}
	inv.LastTrades = make([]TradeTick, len(summary.LastTrades))
	for i, t := range summary.LastTrades {
		inv.LastTrades[i] = TradeTick{
			BlockTime:     t.BlockTime,
			UnitPrice:     inverse(t.UnitPrice),
			BaseQuantity:  t.QuoteQuantity,
			QuoteQuantity: t.BaseQuantity,
			BlockIndex:    t.BlockIndex,
		}
	}
	return inv
}

// referencePrices resolves the four price figures for one asset. Reference
// assets price at exactly 1 against themselves and take the shared cross
// rate as their aggregated price against the other reference.
func (s *Service) referencePrices(asset string, proto, chain *PriceSummary, crossRate, crossRateInverse *float64) (priceInProto, priceInChain, aggInProto, aggInChain *float64) {
	switch asset {
	case s.protocolAsset:
		priceInProto = ptr(1.0)
		if chain != nil {
			priceInChain = ptr(chain.MarketPrice)
		}
		aggInProto = ptr(1.0)
		aggInChain = crossRateInverse
	case s.chainAsset:
		if proto != nil {
			priceInProto = ptr(proto.MarketPrice)
		}
		priceInChain = ptr(1.0)
		aggInProto = crossRate
		aggInChain = ptr(1.0)
	default:
		if proto != nil {
			priceInProto = ptr(proto.MarketPrice)
			if crossRate != nil {
				aggInProto = ptr(mean(proto.MarketPrice, *crossRate))
			}
		}
		if chain != nil {
			priceInChain = ptr(chain.MarketPrice)
			if crossRateInverse != nil {
				aggInChain = ptr(mean(chain.MarketPrice, *crossRateInverse))
			}
		}
	}
	return priceInProto, priceInChain, aggInProto, aggInChain
}

// buildQuote fills the price-derived fields of one reference quote.
func buildQuote(price, aggregated *float64, totalSupply float64) *ReferenceQuote {
	q := &ReferenceQuote{
		Price:           price,
		AggregatedPrice: aggregated,
	}
	if price != nil && *price != 0 {
		q.PriceInverse = ptr(inverse(*price))
		q.MarketCap = ptr(round8Decimal(
			decimal.NewFromFloat(totalSupply).Div(decimal.NewFromFloat(*price))))
	}
	if aggregated != nil && *aggregated != 0 {
		q.AggregatedPriceInverse = ptr(inverse(*aggregated))
	}
	return q
}

// attachHistory fills the 7-day hourly price curves for both references.
func (s *Service) attachHistory(ctx context.Context, info *AssetMarketInfo, asset string, start, end time.Time) error {
	if asset != s.protocolAsset && asset != s.chainAsset {
		for _, ref := range []string{s.protocolAsset, s.chainAsset} {
			trades, err := s.store.TradesBetween(ctx, ref, asset, start, end)
			if err != nil {
				return fmt.Errorf("fetch 7d trades of %s in %s: %w", asset, ref, err)
			}
			info.Quotes[ref].History7d = hourlyHistory(trades)
		}
		return nil
	}

	// Reference asset: both curves derive from the canonical cross pair, the
	// chain-based one by inversion.
	trades, err := s.store.TradesBetween(ctx, s.protocolAsset, s.chainAsset, start, end)
	if err != nil {
		return fmt.Errorf("fetch 7d cross trades: %w", err)
	}
	info.Quotes[s.protocolAsset].History7d = hourlyHistory(trades)
	info.Quotes[s.chainAsset].History7d = hourlyHistory(invertTrades(trades))
	return nil
}

// attach24h fills the 24h totals, per-reference OHLC buckets and price
// changes.
func (s *Service) attach24h(ctx context.Context, info *AssetMarketInfo, asset string, proto, chain *PriceSummary, start, end time.Time) error {
	// Total volume across all markets: base-side and quote-side sums are
	// accumulated independently and combined.
	trades, err := s.store.TradesForAsset(ctx, asset, start)
	if err != nil {
		return fmt.Errorf("fetch 24h trades of %s: %w", asset, err)
	}
	vol := decimal.Zero
	for _, t := range trades {
		if t.BaseAsset == asset {
			vol = vol.Add(decimal.NewFromFloat(t.BaseQuantityNorm))
		} else {
			vol = vol.Add(decimal.NewFromFloat(t.QuoteQuantityNorm))
		}
	}
	info.Summary24h = VolumeSummary{Volume: round8Decimal(vol), Count: len(trades)}

	if asset != s.protocolAsset && proto != nil && len(proto.LastTrades) > 0 {
		bucket, err := s.ohlc24h(ctx, s.protocolAsset, asset, start, end, false)
		if err != nil {
			return err
		}
		info.Quotes[s.protocolAsset].OHLC24h = bucket
		info.Quotes[s.protocolAsset].PriceChange24h = priceChange(bucket)
	}
	if asset != s.chainAsset && chain != nil && len(chain.LastTrades) > 0 {
		// For the protocol asset itself, the chain-based direction is the
		// non-canonical one and derives by inversion.
		invert := asset == s.protocolAsset
		counter := asset
		if invert {
			counter = s.chainAsset
		}
		refBase := s.chainAsset
		if invert {
			refBase = s.protocolAsset
		}
		bucket, err := s.ohlc24h(ctx, refBase, counter, start, end, invert)
		if err != nil {
			return err
		}
		info.Quotes[s.chainAsset].OHLC24h = bucket
		info.Quotes[s.chainAsset].PriceChange24h = priceChange(bucket)
	}
	return nil
}

func (s *Service) ohlc24h(ctx context.Context, base, quote string, start, end time.Time, invert bool) (*OHLCBucket, error) {
	trades, err := s.store.TradesBetween(ctx, base, quote, start, end)
	if err != nil {
		return nil, fmt.Errorf("fetch 24h trades of %s/%s: %w", base, quote, err)
	}
	if invert {
		trades = invertTrades(trades)
	}
	return bucketOHLC(trades), nil
}

// priceChange is the 24h open-to-close change as a signed percentage, absent
// when the bucket is.
func priceChange(bucket *OHLCBucket) *float64 {
	if bucket == nil || bucket.Open == 0 {
		return nil
	}
	change := round8Decimal(
		decimal.NewFromInt(100).
			Mul(decimal.NewFromFloat(bucket.Close).Sub(decimal.NewFromFloat(bucket.Open))).
			Div(decimal.NewFromFloat(bucket.Open)))
	return &change
}

func mean(a, b float64) float64 {
	return round8Decimal(
		decimal.NewFromFloat(a).Add(decimal.NewFromFloat(b)).Div(decimal.NewFromInt(2)))
}

func ptr(v float64) *float64 { return &v }
