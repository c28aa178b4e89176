package market

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// maxTradeHistory bounds the number of raw trades one history request may
// return.
const maxTradeHistory = 500

// bucketOHLC rolls a whole window of trades (oldest first) into a single
// bucket, or nil if the window is empty.
func bucketOHLC(trades []Trade) *OHLCBucket {
	if len(trades) == 0 {
		return nil
	}
	b := &OHLCBucket{
		Open:  trades[0].UnitPrice,
		High:  trades[0].UnitPrice,
		Low:   trades[0].UnitPrice,
		Close: trades[len(trades)-1].UnitPrice,
		Count: len(trades),
	}
	vol := decimal.Zero
	for _, t := range trades {
		if t.UnitPrice > b.High {
			b.High = t.UnitPrice
		}
		if t.UnitPrice < b.Low {
			b.Low = t.UnitPrice
		}
		vol = vol.Add(decimal.NewFromFloat(t.BaseQuantityNorm))
	}
	b.Volume = round8Decimal(vol)
	return b
}

// hourlyHistory groups trades (oldest first) into hour buckets, each point
// carrying the bucket start (epoch ms) and the average unit price.
func hourlyHistory(trades []Trade) []PricePoint {
	var points []PricePoint
	var bucketStart time.Time
	sum := decimal.Zero
	n := 0

	flush := func() {
		if n == 0 {
			return
		}
		points = append(points, PricePoint{
			WhenMillis: bucketStart.UnixMilli(),
			Price:      round8Decimal(sum.Div(decimal.NewFromInt(int64(n)))),
		})
		sum = decimal.Zero
		n = 0
	}

	for _, t := range trades {
		hour := t.BlockTime.UTC().Truncate(time.Hour)
		if n > 0 && !hour.Equal(bucketStart) {
			flush()
		}
		bucketStart = hour
		sum = sum.Add(decimal.NewFromFloat(t.UnitPrice))
		n++
	}
	flush()
	return points
}

// blockCandles groups trades (oldest first) into per-block OHLC candles.
func blockCandles(trades []Trade) []Candle {
	var candles []Candle
	start := 0
	for i := 1; i <= len(trades); i++ {
		if i < len(trades) && trades[i].BlockIndex == trades[start].BlockIndex {
			continue
		}
		bucket := bucketOHLC(trades[start:i])
		candles = append(candles, Candle{
			BlockTime:  trades[start].BlockTime.UnixMilli(),
			BlockIndex: trades[start].BlockIndex,
			OHLCBucket: *bucket,
		})
		start = i
	}
	return candles
}

// invertTrades re-expresses canonical trades in the opposite pair direction:
// prices are inverted and base/quote quantity roles swap. Used for the one
// reference cross pair that is not canonically orderable both ways.
func invertTrades(trades []Trade) []Trade {
	out := make([]Trade, len(trades))
	for i, t := range trades {
		out[i] = Trade{
			BaseAsset:         t.QuoteAsset,
			QuoteAsset:        t.BaseAsset,
			UnitPrice:         inverse(t.UnitPrice),
			BaseQuantityNorm:  t.QuoteQuantityNorm,
			QuoteQuantityNorm: t.BaseQuantityNorm,
			BlockIndex:        t.BlockIndex,
			BlockTime:         t.BlockTime,
		}
	}
	return out
}

// PriceHistory returns block-grain OHLC candles for the pair within
// [start, end]. Zero times default to the last 30 days ending now.
func (s *Service) PriceHistory(ctx context.Context, asset1, asset2 string, start, end time.Time) ([]Candle, error) {
	start, end = defaultRange(start, end)
	base, quote := s.canonicalPair(asset1, asset2)

	trades, err := s.store.TradesBetween(ctx, base, quote, start, end)
	if err != nil {
		return nil, fmt.Errorf("fetch trades: %w", err)
	}
	return blockCandles(trades), nil
}

// TradeHistory returns the last N raw trades of the pair, newest first.
func (s *Service) TradeHistory(ctx context.Context, asset1, asset2 string, limit int) ([]Trade, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > maxTradeHistory {
		return nil, fmt.Errorf("%w: at most %d trades per request", ErrInvalidParam, maxTradeHistory)
	}
	base, quote := s.canonicalPair(asset1, asset2)

	trades, err := s.store.RecentTrades(ctx, base, quote, time.Time{}, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch trades: %w", err)
	}
	if len(trades) == 0 {
		return nil, fmt.Errorf("%w: no trades for %s/%s", ErrNoData, asset1, asset2)
	}
	return trades, nil
}

// TradeHistoryWithinDates returns raw trades of the pair within [start, end],
// newest first, capped at limit. Zero times default to the last 30 days.
func (s *Service) TradeHistoryWithinDates(ctx context.Context, asset1, asset2 string, start, end time.Time, limit int) ([]Trade, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > maxTradeHistory {
		return nil, fmt.Errorf("%w: at most %d trades per request", ErrInvalidParam, maxTradeHistory)
	}
	start, end = defaultRange(start, end)
	base, quote := s.canonicalPair(asset1, asset2)

	trades, err := s.store.TradesBetween(ctx, base, quote, start, end)
	if err != nil {
		return nil, fmt.Errorf("fetch trades: %w", err)
	}
	if len(trades) == 0 {
		return nil, fmt.Errorf("%w: no trades for %s/%s", ErrNoData, asset1, asset2)
	}
	if len(trades) > limit {
		trades = trades[len(trades)-limit:]
	}
	reverseTrades(trades) // newest first
	return trades, nil
}

// defaultRange fills zero range endpoints: end defaults to now, start to 30
// days before end.
func defaultRange(start, end time.Time) (time.Time, time.Time) {
	if end.IsZero() {
		end = time.Now().UTC()
	}
	if start.IsZero() {
		start = end.Add(-30 * 24 * time.Hour)
	}
	return start, end
}
