package market

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// go test -v --run TestBucketOHLC
func TestBucketOHLC(t *testing.T) {
	now := time.Now().UTC()
	trades := []Trade{
		mkTrade("XCP", "FOO", 10, 2, 20, 100, now.Add(-3*time.Hour)),
		mkTrade("XCP", "FOO", 14, 1, 14, 101, now.Add(-2*time.Hour)),
		mkTrade("XCP", "FOO", 8, 3, 24, 102, now.Add(-time.Hour)),
		mkTrade("XCP", "FOO", 12, 0.5, 6, 103, now),
	}

	b := bucketOHLC(trades)
	require.NotNil(t, b)
	assert.Equal(t, 10.0, b.Open)
	assert.Equal(t, 14.0, b.High)
	assert.Equal(t, 8.0, b.Low)
	assert.Equal(t, 12.0, b.Close)
	assert.Equal(t, 6.5, b.Volume)
	assert.Equal(t, 4, b.Count)

	assert.Nil(t, bucketOHLC(nil))
}

// go test -v --run TestHourlyHistory
func TestHourlyHistory(t *testing.T) {
	h0 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	h1 := h0.Add(time.Hour)
	trades := []Trade{
		mkTrade("XCP", "FOO", 10, 1, 10, 100, h0.Add(5*time.Minute)),
		mkTrade("XCP", "FOO", 20, 1, 20, 101, h0.Add(40*time.Minute)),
		mkTrade("XCP", "FOO", 7, 1, 7, 102, h1.Add(10*time.Minute)),
	}

	points := hourlyHistory(trades)
	require.Len(t, points, 2)
	assert.Equal(t, h0.UnixMilli(), points[0].WhenMillis)
	assert.Equal(t, 15.0, points[0].Price)
	assert.Equal(t, h1.UnixMilli(), points[1].WhenMillis)
	assert.Equal(t, 7.0, points[1].Price)
}

// go test -v --run TestBlockCandles
func TestBlockCandles(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)
	trades := []Trade{
		mkTrade("XCP", "FOO", 10, 1, 10, 100, now.Add(-2*time.Hour)),
		mkTrade("XCP", "FOO", 12, 1, 12, 100, now.Add(-2*time.Hour)),
		mkTrade("XCP", "FOO", 11, 2, 22, 105, now.Add(-time.Hour)),
	}

	candles := blockCandles(trades)
	require.Len(t, candles, 2)

	assert.Equal(t, int64(100), candles[0].BlockIndex)
	assert.Equal(t, 10.0, candles[0].Open)
	assert.Equal(t, 12.0, candles[0].Close)
	assert.Equal(t, 2, candles[0].Count)

	assert.Equal(t, int64(105), candles[1].BlockIndex)
	assert.Equal(t, 11.0, candles[1].Open)
	assert.Equal(t, 2.0, candles[1].Volume)
}

// go test -v --run TestInvertTrades
func TestInvertTrades(t *testing.T) {
	now := time.Now().UTC()
	inverted := invertTrades([]Trade{
		mkTrade("XCP", "BTC", 0.02, 100, 2, 100, now),
	})
	require.Len(t, inverted, 1)
	assert.Equal(t, "BTC", inverted[0].BaseAsset)
	assert.Equal(t, "XCP", inverted[0].QuoteAsset)
	assert.Equal(t, 50.0, inverted[0].UnitPrice)
	assert.Equal(t, 2.0, inverted[0].BaseQuantityNorm)
	assert.Equal(t, 100.0, inverted[0].QuoteQuantityNorm)
}

// go test -v --run TestTradeHistory
func TestTradeHistory(t *testing.T) {
	store := &fakeStore{}
	registerAsset(store, "XCP", true)
	registerAsset(store, "FOO", true)
	now := time.Now().UTC()
	for i := 0; i < 60; i++ {
		store.trades = append(store.trades,
			mkTrade("XCP", "FOO", float64(i+1), 1, float64(i+1), int64(100+i), now.Add(time.Duration(i-60)*time.Minute)))
	}
	s := newTestService(store, &fakeLedger{})
	ctx := context.Background()

	// Default limit is 50, newest first.
	trades, err := s.TradeHistory(ctx, "FOO", "XCP", 0)
	require.NoError(t, err)
	require.Len(t, trades, 50)
	assert.Equal(t, 60.0, trades[0].UnitPrice)

	trades, err = s.TradeHistory(ctx, "FOO", "XCP", 5)
	require.NoError(t, err)
	require.Len(t, trades, 5)
	assert.Equal(t, 60.0, trades[0].UnitPrice)
	assert.Equal(t, 56.0, trades[4].UnitPrice)

	_, err = s.TradeHistory(ctx, "FOO", "XCP", 501)
	assert.ErrorIs(t, err, ErrInvalidParam)
}

// go test -v --run TestTradeHistoryNoData
func TestTradeHistoryNoData(t *testing.T) {
	store := &fakeStore{}
	registerAsset(store, "XCP", true)
	registerAsset(store, "FOO", true)
	s := newTestService(store, &fakeLedger{})

	_, err := s.TradeHistory(context.Background(), "FOO", "XCP", 0)
	assert.ErrorIs(t, err, ErrNoData)
}

// go test -v --run TestTradeHistoryWithinDates
func TestTradeHistoryWithinDates(t *testing.T) {
	store := &fakeStore{}
	registerAsset(store, "XCP", true)
	registerAsset(store, "FOO", true)
	now := time.Now().UTC().Truncate(time.Second)
	for i := 0; i < 10; i++ {
		store.trades = append(store.trades,
			mkTrade("XCP", "FOO", float64(i+1), 1, float64(i+1), int64(100+i), now.Add(time.Duration(i-10)*time.Hour)))
	}
	s := newTestService(store, &fakeLedger{})

	start := now.Add(-8 * time.Hour)
	end := now.Add(-2 * time.Hour)
	trades, err := s.TradeHistoryWithinDates(context.Background(), "FOO", "XCP", start, end, 3)
	require.NoError(t, err)
	require.Len(t, trades, 3)
	// Newest three of the window, newest first.
	assert.Equal(t, 9.0, trades[0].UnitPrice)
	assert.Equal(t, 7.0, trades[2].UnitPrice)
}

// go test -v --run TestPriceHistory
func TestPriceHistory(t *testing.T) {
	store := &fakeStore{}
	registerAsset(store, "XCP", true)
	registerAsset(store, "FOO", true)
	now := time.Now().UTC().Truncate(time.Second)
	store.trades = []Trade{
		mkTrade("XCP", "FOO", 10, 1, 10, 100, now.Add(-2*time.Hour)),
		mkTrade("XCP", "FOO", 11, 1, 11, 101, now.Add(-time.Hour)),
	}
	s := newTestService(store, &fakeLedger{})

	candles, err := s.PriceHistory(context.Background(), "FOO", "XCP", time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, candles, 2)
	assert.Equal(t, int64(100), candles[0].BlockIndex)
	assert.Equal(t, int64(101), candles[1].BlockIndex)
}
